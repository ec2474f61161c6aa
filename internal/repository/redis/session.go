package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wellknownalpha/bloom-pos/internal/domain"
	"github.com/wellknownalpha/bloom-pos/internal/repository"
	apperrors "github.com/wellknownalpha/bloom-pos/pkg/errors"
)

const (
	keyPrefix    = "pos:session:"
	fieldVersion = "version"
	fieldData    = "data"
)

// SessionRepository implements repository.SessionRepository using a Redis
// hash per terminal. Every save refreshes the TTL.
type SessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

var _ repository.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository creates a new Redis-backed session repository.
func NewSessionRepository(client *redis.Client, ttl time.Duration) *SessionRepository {
	return &SessionRepository{client: client, ttl: ttl}
}

// Get loads the terminal's session.
func (r *SessionRepository) Get(ctx context.Context, terminalID string) (*domain.Session, error) {
	data, err := r.client.HGet(ctx, keyPrefix+terminalID, fieldData).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("session", terminalID)
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

// Save writes the session under WATCH so a concurrent writer aborts the
// transaction instead of overwriting it. On failure sess keeps the version it
// had before the call.
func (r *SessionRepository) Save(ctx context.Context, sess *domain.Session, expectedVersion int) error {
	key := keyPrefix + sess.TerminalID()
	conflict := apperrors.Conflict(fmt.Sprintf("session for terminal %s was modified concurrently", sess.TerminalID()))

	prevVersion := sess.Version()
	sess.SetVersion(expectedVersion + 1)
	data, err := json.Marshal(sess)
	if err != nil {
		sess.SetVersion(prevVersion)
		return fmt.Errorf("marshal session: %w", err)
	}

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		stored, err := tx.HGet(ctx, key, fieldVersion).Int()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("redis get session version: %w", err)
		}
		if stored != expectedVersion {
			return conflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, fieldVersion, expectedVersion+1, fieldData, data)
			pipe.Expire(ctx, key, r.ttl)
			return nil
		})
		return err
	}, key)

	if err == nil {
		return nil
	}
	sess.SetVersion(prevVersion)
	switch {
	case errors.Is(err, redis.TxFailedErr):
		return conflict
	case errors.Is(err, apperrors.ErrConflict):
		return err
	default:
		return fmt.Errorf("redis save session: %w", err)
	}
}

// Delete removes the terminal's session.
func (r *SessionRepository) Delete(ctx context.Context, terminalID string) error {
	if err := r.client.Del(ctx, keyPrefix+terminalID).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}
