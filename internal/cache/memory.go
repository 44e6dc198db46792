package cache

import (
	"context"
	"errors"
	"sync"

	"letsgohome/internal/model"
)

// memoryStore is an in-process SessionStore with the same optimistic
// read-modify-write semantics as the Redis store: mutations run against a
// copy and commit only if the stored version is unchanged since the read.
// It keeps the coordinator testable without a live Redis and doubles as a
// single-node dev fallback.
type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore() SessionStore {
	return &memoryStore{
		sessions: make(map[string]*model.Session),
	}
}

func (s *memoryStore) Create(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; ok {
		return ErrExists
	}
	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *memoryStore) Get(ctx context.Context, id string) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return session.Clone(), nil
}

func (s *memoryStore) Update(ctx context.Context, id string, mutate func(*model.Session) error) (*model.Session, error) {
	for attempt := 0; attempt < updateRetries; attempt++ {
		s.mu.RLock()
		current, ok := s.sessions[id]
		if !ok {
			s.mu.RUnlock()
			return nil, ErrNotFound
		}
		working := current.Clone()
		readVersion := working.Version
		s.mu.RUnlock()

		if err := mutate(working); err != nil {
			if errors.Is(err, ErrUnchanged) {
				return working, nil
			}
			return nil, err
		}
		working.Version++

		s.mu.Lock()
		stored, ok := s.sessions[id]
		if !ok {
			s.mu.Unlock()
			return nil, ErrNotFound
		}
		if stored.Version != readVersion {
			// Lost the race, re-run the mutation against the new value.
			s.mu.Unlock()
			continue
		}
		s.sessions[id] = working
		s.mu.Unlock()
		return working.Clone(), nil
	}

	return nil, ErrConflict
}
