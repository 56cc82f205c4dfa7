package session

import (
	"context"
	"time"
)

// Store persists session payloads.
//
// Implementations wrap every backend failure with apperr.ErrStoreUnavailable.
// Load never fails for a missing or expired session; it returns a fresh one.
type Store interface {
	Load(ctx context.Context, id string) (*Session, error)
	// Save writes the payload and sets the expiry to now+ttl.
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	// Touch extends the expiry of a persisted session without rewriting the payload.
	Touch(ctx context.Context, id string, ttl time.Duration) (time.Time, error)
	Delete(ctx context.Context, id string) error
	// PurgeExpired removes expired sessions and reports how many were removed.
	PurgeExpired(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}
