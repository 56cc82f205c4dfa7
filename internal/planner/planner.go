// Package planner keeps the free-text study plan of a session.
package planner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/starford/aalifyx/internal/apperr"
	"github.com/starford/aalifyx/internal/session"
)

// MaxLength caps the stored plan text.
const MaxLength = 20_000

const sessionKey = "study_plan"

// Plan is the stored study plan.
type Plan struct {
	Text      string     `json:"text"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Sessions runs fn against one locked session.
type Sessions interface {
	Do(ctx context.Context, id string, fn func(*session.Session) error) error
}

// Service reads and writes study plans.
type Service struct {
	sessions Sessions
	now      func() time.Time
}

// NewService creates a planner service.
func NewService(sessions Sessions) *Service {
	return &Service{sessions: sessions, now: time.Now}
}

// Get returns the session's plan; an empty Plan when none was saved.
func (s *Service) Get(ctx context.Context, sessionID string) (Plan, error) {
	var p Plan
	err := s.sessions.Do(ctx, sessionID, func(sess *session.Session) error {
		_, err := sess.Get(sessionKey, &p)
		return err
	})
	return p, err
}

// Set replaces the plan. An empty text clears it.
func (s *Service) Set(ctx context.Context, sessionID, text string) (Plan, error) {
	text = strings.TrimSpace(text)
	if len(text) > MaxLength {
		return Plan{}, apperr.NewValidationError(fmt.Errorf("plan exceeds %d characters", MaxLength), "plan")
	}
	var p Plan
	err := s.sessions.Do(ctx, sessionID, func(sess *session.Session) error {
		if text == "" {
			sess.Delete(sessionKey)
			return nil
		}
		now := s.now().UTC().Truncate(time.Second)
		p = Plan{Text: text, UpdatedAt: &now}
		return sess.Set(sessionKey, p)
	})
	return p, err
}
