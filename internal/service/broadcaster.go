package service

// Broadcaster interface for WebSocket fan-out (avoids import cycle with
// the transport layer). Delivery is at-least-once and best-effort;
// snapshots carry a version so subscribers can drop stale ones.
type Broadcaster interface {
	BroadcastToSession(sessionID string, msgType string, payload interface{})
}
