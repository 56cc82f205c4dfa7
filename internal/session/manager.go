package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/aalifyx/internal/apperr"
)

// Manager serializes access to individual sessions and persists them after use.
type Manager struct {
	store  Store
	locks  *Locker
	ttl    time.Duration
	logger *slog.Logger
}

// NewManager creates a Manager over store with the given sliding TTL.
func NewManager(store Store, ttl time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, locks: NewLocker(), ttl: ttl, logger: logger}
}

// TTL returns the sliding session lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Store returns the backing store.
func (m *Manager) Store() Store { return m.store }

// Do runs fn against session id while holding that session's lock.
//
// If fn returns nil and marked the session dirty, the session is saved;
// otherwise an already persisted session only has its expiry extended.
// When fn fails nothing is written.
func (m *Manager) Do(ctx context.Context, id string, fn func(*Session) error) error {
	if id == "" {
		return apperr.NewValidationError(fmt.Errorf("session id is empty"), "session_id")
	}

	unlock := m.locks.Lock(id)
	defer unlock()

	sess, err := m.store.Load(ctx, id)
	if err != nil {
		return err
	}
	if err := fn(sess); err != nil {
		return err
	}

	if sess.Dirty() {
		if err := m.store.Save(ctx, sess, m.ttl); err != nil {
			return err
		}
		m.logger.Debug("session saved", slog.String("session", shortID(id)))
		return nil
	}
	if !sess.IsNew() {
		exp, err := m.store.Touch(ctx, id, m.ttl)
		if err != nil {
			return err
		}
		sess.ExpiresAt = exp
	}
	return nil
}

// Destroy removes the session and everything stored in it.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	unlock := m.locks.Lock(id)
	defer unlock()
	return m.store.Delete(ctx, id)
}

// PurgeLoop removes expired sessions every interval until ctx is cancelled.
func (m *Manager) PurgeLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := m.store.PurgeExpired(ctx)
			if err != nil {
				m.logger.Warn("session purge failed", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				m.logger.Info("purged expired sessions", slog.Int64("count", n))
			}
		}
	}
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
