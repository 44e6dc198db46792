package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"letsgohome/internal/model"
)

var (
	// ErrNotFound is returned when the session key is absent.
	ErrNotFound = errors.New("session not found")

	// ErrExists is returned by Create when the session key is already taken.
	ErrExists = errors.New("session already exists")

	// ErrConflict is returned by Update when optimistic retries are exhausted.
	ErrConflict = errors.New("session transaction conflict")

	// ErrUnchanged may be returned by a mutation function to commit nothing.
	// Update treats it as success and returns the value as read.
	ErrUnchanged = errors.New("session unchanged")
)

// SessionStore is the live store for session state. Update is an atomic
// read-modify-write: the mutation function receives a private copy of the
// current session and may be invoked multiple times on conflict, so it
// must be pure — no I/O, no logging, no writes to captured state that
// survive a retry.
type SessionStore interface {
	Create(ctx context.Context, session *model.Session) error
	Get(ctx context.Context, id string) (*model.Session, error)
	Update(ctx context.Context, id string, mutate func(*model.Session) error) (*model.Session, error)
}

const updateRetries = 16

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore creates a Redis-backed session store. Sessions expire
// after 24h; stale sessions are simply abandoned.
func NewSessionStore(client *redis.Client) SessionStore {
	return &redisStore{
		client: client,
		ttl:    24 * time.Hour,
	}
}

func (s *redisStore) key(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func (s *redisStore) Create(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	ok, err := s.client.SetNX(ctx, s.key(session.ID), data, s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrExists
	}
	return nil
}

func (s *redisStore) Get(ctx context.Context, id string) (*model.Session, error) {
	data, err := s.client.Get(ctx, s.key(id)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var session model.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Update runs mutate inside a WATCH transaction. The commit only lands if
// the key is unchanged since the read; on interference the read-mutate-write
// cycle is retried from scratch.
func (s *redisStore) Update(ctx context.Context, id string, mutate func(*model.Session) error) (*model.Session, error) {
	key := s.key(id)

	for attempt := 0; attempt < updateRetries; attempt++ {
		var result *model.Session

		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Result()
			if err == redis.Nil {
				return ErrNotFound
			}
			if err != nil {
				return err
			}

			var session model.Session
			if err := json.Unmarshal([]byte(data), &session); err != nil {
				return err
			}

			if err := mutate(&session); err != nil {
				if errors.Is(err, ErrUnchanged) {
					result = &session
					return nil
				}
				return err
			}
			session.Version++

			out, err := json.Marshal(&session)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, out, s.ttl)
				return nil
			})
			if err != nil {
				return err
			}
			result = &session
			return nil
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}

	return nil, ErrConflict
}
