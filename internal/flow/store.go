package flow

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/joyboxhq/funnel/internal/domain"
	"github.com/joyboxhq/funnel/internal/errors"
)

// Store keeps the serialized funnel state of each session as a single JSON
// blob under a prefixed key. The blob is the durable source of truth for
// resuming an in-progress session; completed results live in postgres.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewStore(r redis.UniversalClient, prefix string, ttl time.Duration) *Store {
	return &Store{
		redis:  r,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *Store) Save(ctx context.Context, state *domain.FlowState) error {
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("flow: marshal state: %w", err)
	}

	if err := s.redis.Set(ctx, s.key(state.SessionID), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("flow: save state: %w", err)
	}

	return nil
}

func (s *Store) Load(ctx context.Context, sessionID string) (*domain.FlowState, error) {
	b, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, errors.New(errors.CodeNotFound,
			errors.WithMessagef("no quiz in progress: session=%s", sessionID))
	}
	if err != nil {
		return nil, fmt.Errorf("flow: load state: %w", err)
	}

	var state domain.FlowState
	if err := json.Unmarshal(b, &state); err != nil {
		return nil, fmt.Errorf("flow: unmarshal state: %w", err)
	}

	return &state, nil
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("flow: delete state: %w", err)
	}

	return nil
}

func (s *Store) key(sessionID string) string {
	return fmt.Sprintf("%s:flow:%s", s.prefix, sessionID)
}
