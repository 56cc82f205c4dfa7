package session

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/starford/aalifyx/internal/apperr"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteStore is a Store backed by a single SQLite file.
type SQLiteStore struct {
	conn *sql.DB
	now  func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the session database and applies pending migrations.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("session: open db: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("session: ping: %w", err)
	}
	if err := migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	return &SQLiteStore{conn: conn, now: time.Now}, nil
}

func migrate(ctx context.Context, conn *sql.DB) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("session: migrations fs: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, conn, fsys)
	if err != nil {
		return fmt.Errorf("session: migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("session: migrate: %w", err)
	}
	return nil
}

// Load returns the stored session, or a fresh one when it is absent or expired.
func (s *SQLiteStore) Load(ctx context.Context, id string) (*Session, error) {
	var (
		data      string
		expiresAt int64
	)
	err := s.conn.QueryRowContext(ctx,
		`SELECT data, expires_at FROM sessions WHERE id = ?`, id,
	).Scan(&data, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return New(id), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %w", apperr.ErrStoreUnavailable, id, err)
	}
	exp := time.UnixMilli(expiresAt)
	if !exp.After(s.now()) {
		return New(id), nil
	}
	sess, err := decode(id, []byte(data), exp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrStoreUnavailable, err)
	}
	return sess, nil
}

// Save upserts the session payload and pushes its expiry to now+ttl.
func (s *SQLiteStore) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	data, err := sess.encode()
	if err != nil {
		return fmt.Errorf("session: encode %s: %w", sess.ID, err)
	}
	now := s.now()
	exp := now.Add(ttl)
	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO sessions (id, data, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			data       = excluded.data,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`, sess.ID, string(data), exp.UnixMilli(), now.UnixMilli())
	if err != nil {
		return fmt.Errorf("%w: save %s: %w", apperr.ErrStoreUnavailable, sess.ID, err)
	}
	sess.markSaved(exp)
	return nil
}

// Touch extends the expiry of a persisted session. Unknown ids are ignored.
func (s *SQLiteStore) Touch(ctx context.Context, id string, ttl time.Duration) (time.Time, error) {
	now := s.now()
	exp := now.Add(ttl)
	_, err := s.conn.ExecContext(ctx,
		`UPDATE sessions SET expires_at = ?, updated_at = ? WHERE id = ? AND expires_at > ?`,
		exp.UnixMilli(), now.UnixMilli(), id, now.UnixMilli())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: touch %s: %w", apperr.ErrStoreUnavailable, id, err)
	}
	return exp, nil
}

// Delete removes the session.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("%w: delete %s: %w", apperr.ErrStoreUnavailable, id, err)
	}
	return nil
}

// PurgeExpired deletes every session whose expiry has passed.
func (s *SQLiteStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("%w: purge: %w", apperr.ErrStoreUnavailable, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Ping checks that the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrStoreUnavailable, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}
