package model

import "time"

type ThresholdType string

const (
	ThresholdPercentage ThresholdType = "percentage"
	ThresholdRemainder  ThresholdType = "remainder"
	ThresholdAbsolute   ThresholdType = "absolute"
)

// ThresholdRule decides when enough participants have clicked.
type ThresholdRule struct {
	Type  ThresholdType `json:"type" bson:"type"`
	Value int           `json:"value" bson:"value"`
}

// Participant is one guest's membership and click state within a session.
// GuestID is supplied by the client and opaque to the server.
type Participant struct {
	GuestID  string    `json:"guestId" bson:"guestId"`
	Clicked  bool      `json:"clicked" bson:"clicked"`
	JoinedAt time.Time `json:"joinedAt" bson:"joinedAt"`
}

// Session is one coordination instance. Condition and ThresholdRule are
// immutable after creation. Completed only ever goes false -> true.
// Version increments on every committed mutation so subscribers can
// discard out-of-order snapshots.
type Session struct {
	ID            string                 `json:"id" bson:"_id,omitempty"`
	Condition     string                 `json:"condition" bson:"condition"`
	ThresholdRule ThresholdRule          `json:"thresholdRule" bson:"thresholdRule"`
	Participants  map[string]Participant `json:"participants" bson:"participants"`
	Completed     bool                   `json:"completed" bson:"completed"`
	Version       int64                  `json:"version" bson:"version"`
	CreatedAt     time.Time              `json:"createdAt" bson:"createdAt"`
}

// ClickedCount counts participants that currently have Clicked set.
func (s *Session) ClickedCount() int {
	n := 0
	for _, p := range s.Participants {
		if p.Clicked {
			n++
		}
	}
	return n
}

// Clone returns a deep copy. Store transactions mutate the copy so a
// failed commit never leaks partial state.
func (s *Session) Clone() *Session {
	out := *s
	out.Participants = make(map[string]Participant, len(s.Participants))
	for id, p := range s.Participants {
		out.Participants[id] = p
	}
	return &out
}

// Snapshot is the public view of a session pushed to subscribers and
// returned by the API. It never exposes other guests' identifiers.
type Snapshot struct {
	SessionID         string        `json:"sessionId"`
	Condition         string        `json:"condition"`
	ThresholdRule     ThresholdRule `json:"thresholdRule"`
	Completed         bool          `json:"completed"`
	ClickedCount      int           `json:"clickedCount"`
	TotalParticipants int           `json:"totalParticipants"`
	Version           int64         `json:"version"`
}

// Snapshot builds the public view of the session's current state.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		SessionID:         s.ID,
		Condition:         s.Condition,
		ThresholdRule:     s.ThresholdRule,
		Completed:         s.Completed,
		ClickedCount:      s.ClickedCount(),
		TotalParticipants: len(s.Participants),
		Version:           s.Version,
	}
}
