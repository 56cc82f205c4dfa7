// Package session implements the per-user session state that backs the
// collection store: a JSON value bag persisted in SQLite, a sliding expiry,
// signed session tokens, and per-session write serialization.
package session

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Session is one user's server-side state. Values are kept as raw JSON so the
// payload round-trips through the store without knowing the value types.
//
// A Session is not safe for concurrent use; Manager.Do hands it to exactly one
// caller at a time.
type Session struct {
	ID        string
	ExpiresAt time.Time

	values map[string]json.RawMessage
	dirty  bool
	isNew  bool
}

// New returns an empty, unsaved session.
func New(id string) *Session {
	return &Session{
		ID:     id,
		values: make(map[string]json.RawMessage),
		isNew:  true,
	}
}

// Get decodes the value stored under key into v. It reports false when the
// key is absent.
func (s *Session) Get(key string, v any) (bool, error) {
	raw, ok := s.values[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("session: decode %s: %w", key, err)
	}
	return true, nil
}

// Set encodes v under key and marks the session modified.
func (s *Session) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("session: encode %s: %w", key, err)
	}
	s.values[key] = raw
	s.MarkDirty()
	return nil
}

// Delete removes key. Removing an absent key is a no-op and leaves the session clean.
func (s *Session) Delete(key string) {
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	s.MarkDirty()
}

// Clear drops every value.
func (s *Session) Clear() {
	if len(s.values) == 0 {
		return
	}
	s.values = make(map[string]json.RawMessage)
	s.MarkDirty()
}

// Keys returns the stored keys in sorted order.
func (s *Session) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarkDirty flags the session so the manager persists it after the current operation.
func (s *Session) MarkDirty() { s.dirty = true }

// Dirty reports whether the session changed since it was loaded or saved.
func (s *Session) Dirty() bool { return s.dirty }

// IsNew reports whether the session has never been persisted.
func (s *Session) IsNew() bool { return s.isNew }

func (s *Session) markSaved(expiresAt time.Time) {
	s.ExpiresAt = expiresAt
	s.dirty = false
	s.isNew = false
}

func (s *Session) encode() ([]byte, error) {
	return json.Marshal(s.values)
}

func decode(id string, data []byte, expiresAt time.Time) (*Session, error) {
	values := make(map[string]json.RawMessage)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("session: decode payload %s: %w", id, err)
		}
	}
	return &Session{ID: id, ExpiresAt: expiresAt, values: values}, nil
}
