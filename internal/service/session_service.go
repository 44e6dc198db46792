package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"letsgohome/internal/cache"
	"letsgohome/internal/model"
	"letsgohome/internal/repository"
)

// Defaults applied when a session is created without explicit values.
// Percentage(2) — i.e. a 2% threshold — is carried over verbatim from the
// original product defaults.
const (
	DefaultCondition      = "go home"
	DefaultThresholdValue = 2
)

var DefaultThresholdRule = model.ThresholdRule{
	Type:  model.ThresholdPercentage,
	Value: DefaultThresholdValue,
}

// SessionService coordinates session state transitions. All mutations go
// through the store's atomic Update; per-session ordering comes from the
// store's per-key serialization, so the service itself holds no locks.
type SessionService struct {
	store       cache.SessionStore
	sessionRepo repository.SessionRepo
	broadcaster Broadcaster
}

// NewSessionService creates a new session service. sessionRepo may be nil
// to run without the durable archive.
func NewSessionService(store cache.SessionStore, sessionRepo repository.SessionRepo) *SessionService {
	return &SessionService{
		store:       store,
		sessionRepo: sessionRepo,
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *SessionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Create creates a session with the initiator pre-joined as its first
// participant, so a session's participant set is never empty.
func (s *SessionService) Create(ctx context.Context, guestID, condition string, rule *model.ThresholdRule) (*model.Session, error) {
	if condition == "" {
		condition = DefaultCondition
	}
	if rule == nil {
		r := DefaultThresholdRule
		rule = &r
	}

	now := time.Now()
	session := &model.Session{
		ID:            "s_" + uuid.New().String()[:8],
		Condition:     condition,
		ThresholdRule: *rule,
		Participants: map[string]model.Participant{
			guestID: {GuestID: guestID, JoinedAt: now},
		},
		Version:   1,
		CreatedAt: now,
	}

	if err := s.store.Create(ctx, session); err != nil {
		return nil, storeErr("failed to create session", err)
	}

	if s.sessionRepo != nil {
		if err := s.sessionRepo.Create(ctx, session); err != nil {
			log.Printf("Failed to archive session %s: %v", session.ID, err)
		}
	}
	s.publish(session)

	return session, nil
}

// Join adds a guest to a session. Joining twice is idempotent: the second
// join mutates nothing and keeps the participant's Clicked and JoinedAt.
// Returns the public summary, never the participant map.
func (s *SessionService) Join(ctx context.Context, sessionID, guestID string) (*model.Snapshot, error) {
	joinedAt := time.Now()

	session, err := s.store.Update(ctx, sessionID, func(sess *model.Session) error {
		if _, ok := sess.Participants[guestID]; ok {
			return cache.ErrUnchanged
		}
		sess.Participants[guestID] = model.Participant{GuestID: guestID, JoinedAt: joinedAt}
		return nil
	})
	if err != nil {
		return nil, storeErr("failed to join session", err)
	}

	s.persist(ctx, session)
	s.publish(session)

	snap := session.Snapshot()
	return &snap, nil
}

// Click records a guest's readiness signal. An unknown guest is inserted
// as a side effect (a click is an implicit join). The threshold is
// re-evaluated inside the same transaction; completion is one-way and is
// never revisited once set.
//
// On an unrecognized rule type the click itself still commits, the
// session stays uncompleted, and ErrConfiguration is surfaced.
func (s *SessionService) Click(ctx context.Context, sessionID, guestID string) (*model.Snapshot, error) {
	joinedAt := time.Now()
	var cfgErr error
	var completedNow bool

	session, err := s.store.Update(ctx, sessionID, func(sess *model.Session) error {
		// Reset per attempt: the store may re-run this on conflict.
		cfgErr = nil
		completedNow = false

		p, ok := sess.Participants[guestID]
		if !ok {
			p = model.Participant{GuestID: guestID, JoinedAt: joinedAt}
		}
		p.Clicked = true
		sess.Participants[guestID] = p

		reached, err := EvaluateThreshold(sess.ThresholdRule, len(sess.Participants), sess.ClickedCount())
		if err != nil {
			cfgErr = err
			reached = false
		}
		if reached && !sess.Completed {
			sess.Completed = true
			completedNow = true
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("failed to record click", err)
	}

	s.persist(ctx, session)
	s.publish(session)
	if completedNow {
		s.publishCompleted(session)
	}
	if cfgErr != nil {
		return nil, cfgErr
	}

	snap := session.Snapshot()
	return &snap, nil
}

// Unclick retracts a guest's readiness signal. It never re-evaluates or
// reverses Completed: completion is one-way even if every participant
// unclicks afterwards.
func (s *SessionService) Unclick(ctx context.Context, sessionID, guestID string) (*model.Snapshot, error) {
	session, err := s.store.Update(ctx, sessionID, func(sess *model.Session) error {
		p, ok := sess.Participants[guestID]
		if !ok {
			return ErrNotFound
		}
		if !p.Clicked {
			return cache.ErrUnchanged
		}
		p.Clicked = false
		sess.Participants[guestID] = p
		return nil
	})
	if err != nil {
		return nil, storeErr("failed to record unclick", err)
	}

	s.persist(ctx, session)
	s.publish(session)

	snap := session.Snapshot()
	return &snap, nil
}

// GetPublicState returns the session's public snapshot without mutating
// anything.
func (s *SessionService) GetPublicState(ctx context.Context, sessionID string) (*model.Snapshot, error) {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, storeErr("failed to get session", err)
	}
	snap := session.Snapshot()
	return &snap, nil
}

// persist mirrors a committed session into the durable archive. Failures
// are logged and never undo the committed transition.
func (s *SessionService) persist(ctx context.Context, session *model.Session) {
	if s.sessionRepo == nil {
		return
	}
	if err := s.sessionRepo.Upsert(ctx, session); err != nil {
		log.Printf("Failed to archive session %s: %v", session.ID, err)
	}
}

// publish pushes the committed snapshot to subscribers. Runs strictly
// post-commit; delivery failure is the transport's problem, not ours.
func (s *SessionService) publish(session *model.Session) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.BroadcastToSession(session.ID, "session_update", session.Snapshot())
}

func (s *SessionService) publishCompleted(session *model.Session) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.BroadcastToSession(session.ID, "session_completed", session.Snapshot())
}
