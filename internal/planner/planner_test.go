package planner

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/aalifyx/internal/apperr"
	"github.com/starford/aalifyx/internal/session"
)

func newService(t *testing.T) *Service {
	t.Helper()
	store, err := session.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "s.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewService(session.NewManager(store, time.Hour, nil))
}

func TestSetAndGet(t *testing.T) {
	ctx := context.Background()
	s := newService(t)

	p, err := s.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Text != "" || p.UpdatedAt != nil {
		t.Errorf("initial plan = %+v", p)
	}

	if _, err := s.Set(ctx, "s1", "  Mon: algebra\nTue: biology  "); err != nil {
		t.Fatalf("Set: %v", err)
	}
	p, err = s.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Text != "Mon: algebra\nTue: biology" {
		t.Errorf("text = %q", p.Text)
	}
	if p.UpdatedAt == nil {
		t.Error("updated_at not set")
	}

	if _, err := s.Set(ctx, "s1", ""); err != nil {
		t.Fatalf("Set empty: %v", err)
	}
	p, _ = s.Get(ctx, "s1")
	if p.Text != "" {
		t.Errorf("plan not cleared: %q", p.Text)
	}
}

func TestSetTooLong(t *testing.T) {
	_, err := newService(t).Set(context.Background(), "s1", strings.Repeat("x", MaxLength+1))
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
}
