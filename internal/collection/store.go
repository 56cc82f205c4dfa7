package collection

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/starford/aalifyx/internal/apperr"
	"github.com/starford/aalifyx/internal/session"
)

// Sessions runs fn against one session while holding its lock and persists
// the session afterwards when fn marked it dirty.
type Sessions interface {
	Do(ctx context.Context, id string, fn func(*session.Session) error) error
}

// Op names a mutation kind.
type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// Change describes one successful mutation.
type Change struct {
	SessionID string `json:"-"`
	Kind      Kind   `json:"kind"`
	Op        Op     `json:"op"`
	RecordID  string `json:"id"`
}

// state is the persisted form of one collection.
type state struct {
	NextID  int64    `json:"next_id"`
	Records []Record `json:"records"`
}

// Store implements create/list/delete/update over session-held collections.
type Store struct {
	sessions Sessions
	now      func() time.Time
	logger   *slog.Logger

	mu    sync.RWMutex
	hooks []func(Change)
}

// NewStore creates a Store on top of sessions.
func NewStore(sessions Sessions, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{sessions: sessions, now: time.Now, logger: logger}
}

// OnChange registers fn to run after every successful mutation.
// Hooks run on the caller's goroutine after the session lock is released.
func (s *Store) OnChange(fn func(Change)) {
	s.mu.Lock()
	s.hooks = append(s.hooks, fn)
	s.mu.Unlock()
}

// Create validates fields and appends a new record to the collection.
func (s *Store) Create(ctx context.Context, sessionID string, kind Kind, fields map[string]string) (Record, error) {
	schema, err := SchemaFor(kind)
	if err != nil {
		return Record{}, err
	}
	values, err := schema.build(fields)
	if err != nil {
		return Record{}, err
	}

	var created Record
	err = s.sessions.Do(ctx, sessionID, func(sess *session.Session) error {
		st, err := load(sess, kind)
		if err != nil {
			return err
		}
		created = Record{
			ID:        strconv.FormatInt(st.NextID, 10),
			CreatedAt: s.now().UTC().Truncate(time.Second),
			Fields:    values,
		}
		st.NextID++
		st.Records = append(st.Records, created)
		return save(sess, kind, st)
	})
	if err != nil {
		return Record{}, err
	}
	s.logger.Debug("record created", slog.String("kind", string(kind)), slog.String("id", created.ID))
	s.emit(Change{SessionID: sessionID, Kind: kind, Op: OpCreated, RecordID: created.ID})
	return created.clone(), nil
}

// List returns the collection in insertion order. A collection that was never
// written yields an empty slice.
func (s *Store) List(ctx context.Context, sessionID string, kind Kind) ([]Record, error) {
	if _, err := SchemaFor(kind); err != nil {
		return nil, err
	}
	var out []Record
	err := s.sessions.Do(ctx, sessionID, func(sess *session.Session) error {
		st, err := load(sess, kind)
		if err != nil {
			return err
		}
		out = make([]Record, len(st.Records))
		for i, r := range st.Records {
			out[i] = r.clone()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the selected record. It reports false, without error or
// mutation, when nothing matches.
func (s *Store) Delete(ctx context.Context, sessionID string, kind Kind, sel Selector) (bool, error) {
	if _, err := SchemaFor(kind); err != nil {
		return false, err
	}
	var removed string
	err := s.sessions.Do(ctx, sessionID, func(sess *session.Session) error {
		st, err := load(sess, kind)
		if err != nil {
			return err
		}
		i := sel.resolve(st.Records)
		if i < 0 {
			return nil
		}
		removed = st.Records[i].ID
		st.Records = append(st.Records[:i], st.Records[i+1:]...)
		return save(sess, kind, st)
	})
	if err != nil {
		return false, err
	}
	if removed == "" {
		return false, nil
	}
	s.emit(Change{SessionID: sessionID, Kind: kind, Op: OpDeleted, RecordID: removed})
	return true, nil
}

// Update changes the mutable fields of the selected record. Reserved and
// non-mutable names in updates are ignored.
func (s *Store) Update(ctx context.Context, sessionID string, kind Kind, sel Selector, updates map[string]string) (Record, error) {
	schema, err := SchemaFor(kind)
	if err != nil {
		return Record{}, err
	}
	if !schema.Mutable() {
		return Record{}, fmt.Errorf("%w: %s", apperr.ErrImmutable, kind)
	}

	var (
		updated Record
		changed bool
	)
	err = s.sessions.Do(ctx, sessionID, func(sess *session.Session) error {
		st, err := load(sess, kind)
		if err != nil {
			return err
		}
		i := sel.resolve(st.Records)
		if i < 0 {
			return fmt.Errorf("%w: %s %s", apperr.ErrNotFound, kind, sel)
		}
		changes, err := schema.patch(updates)
		if err != nil {
			return err
		}
		rec := st.Records[i].clone()
		for k, v := range changes {
			if rec.Fields[k] != v {
				rec.Fields[k] = v
				changed = true
			}
		}
		updated = rec
		if !changed {
			return nil
		}
		st.Records[i] = rec
		return save(sess, kind, st)
	})
	if err != nil {
		return Record{}, err
	}
	if changed {
		s.emit(Change{SessionID: sessionID, Kind: kind, Op: OpUpdated, RecordID: updated.ID})
	}
	return updated.clone(), nil
}

// Counts returns the number of records per kind for a session.
func (s *Store) Counts(ctx context.Context, sessionID string) (map[Kind]int, error) {
	var counts map[Kind]int
	err := s.sessions.Do(ctx, sessionID, func(sess *session.Session) error {
		var err error
		counts, err = CountsIn(sess)
		return err
	})
	return counts, err
}

// CountsIn returns the number of records per kind held by sess. The caller
// must hold the session, e.g. inside Manager.Do, so the counts can be read
// together with other session values.
func CountsIn(sess *session.Session) (map[Kind]int, error) {
	counts := make(map[Kind]int, len(schemas))
	for _, k := range Kinds() {
		st, err := load(sess, k)
		if err != nil {
			return nil, err
		}
		counts[k] = len(st.Records)
	}
	return counts, nil
}

func (s *Store) emit(c Change) {
	s.mu.RLock()
	hooks := s.hooks
	s.mu.RUnlock()
	for _, fn := range hooks {
		fn(c)
	}
}

func load(sess *session.Session, kind Kind) (*state, error) {
	st := &state{}
	if _, err := sess.Get(kind.sessionKey(), st); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}
	if st.Records == nil {
		st.Records = []Record{}
	}
	// next_id always stays ahead of every id already handed out.
	for _, r := range st.Records {
		if n, err := strconv.ParseInt(r.ID, 10, 64); err == nil && n >= st.NextID {
			st.NextID = n + 1
		}
	}
	if st.NextID < 1 {
		st.NextID = 1
	}
	return st, nil
}

func save(sess *session.Session, kind Kind, st *state) error {
	// Set marks the session dirty.
	if err := sess.Set(kind.sessionKey(), st); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}
	return nil
}
