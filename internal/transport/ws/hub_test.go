package ws

import (
	"encoding/json"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func newConn(hub *Hub, sessionID, guestID string) *Connection {
	return &Connection{
		SessionID: sessionID,
		GuestID:   guestID,
		Send:      make(chan []byte, 8),
		Hub:       hub,
	}
}

func TestHubRegistryLifecycle(t *testing.T) {
	hub := NewHub()

	c1 := newConn(hub, "s1", "g1")
	c2 := newConn(hub, "s1", "g2")

	hub.Register(c1)
	hub.Register(c2)
	waitFor(t, func() bool { return hub.SubscriberCount("s1") == 2 }, "subscribers not registered")

	hub.Unregister(c1)
	waitFor(t, func() bool { return hub.SubscriberCount("s1") == 1 }, "subscriber not removed")

	// The last unsubscribe tears the whole session group down.
	hub.Unregister(c2)
	waitFor(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		_, ok := hub.sessions["s1"]
		return !ok
	}, "empty session group not torn down")
}

func TestHubUnregisterIsIdempotent(t *testing.T) {
	hub := NewHub()

	c := newConn(hub, "s1", "g1")
	hub.Register(c)
	waitFor(t, func() bool { return hub.SubscriberCount("s1") == 1 }, "subscriber not registered")

	hub.Unregister(c)
	hub.Unregister(c) // second one must not close Send twice or panic
	waitFor(t, func() bool { return hub.SubscriberCount("s1") == 0 }, "subscriber not removed")
}

func TestHubBroadcastReachesAllSubscribers(t *testing.T) {
	hub := NewHub()

	c1 := newConn(hub, "s1", "g1")
	c2 := newConn(hub, "s1", "g2")
	other := newConn(hub, "s2", "g3")

	hub.Register(c1)
	hub.Register(c2)
	hub.Register(other)
	waitFor(t, func() bool { return hub.SubscriberCount("s1") == 2 && hub.SubscriberCount("s2") == 1 }, "subscribers not registered")

	hub.BroadcastToSession("s1", "session_update", map[string]interface{}{
		"completed": true,
		"version":   int64(7),
	})

	for _, c := range []*Connection{c1, c2} {
		select {
		case data := <-c.Send:
			var msg Message
			if err := json.Unmarshal(data, &msg); err != nil {
				t.Fatalf("bad envelope: %v", err)
			}
			if msg.Type != MsgSessionUpdate {
				t.Errorf("type = %q, want %q", msg.Type, MsgSessionUpdate)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("guest %s never received the broadcast", c.GuestID)
		}
	}

	select {
	case <-other.Send:
		t.Error("subscriber of another session received the broadcast")
	case <-time.After(50 * time.Millisecond):
	}
}
