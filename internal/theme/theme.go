// Package theme holds the fixed colour themes and the per-session selection.
package theme

import (
	"context"
	"fmt"

	"github.com/starford/aalifyx/internal/apperr"
	"github.com/starford/aalifyx/internal/session"
)

// DefaultName is the theme used until a session picks another one.
const DefaultName = "pink"

const sessionKey = "theme"

// Theme is a named colour set.
type Theme struct {
	Name            string `json:"name"`
	BannerColor     string `json:"banner_color"`
	BackgroundColor string `json:"background_color"`
	ButtonColor     string `json:"button_color"`
}

var themes = []Theme{
	{Name: "pink", BannerColor: "#FFB6C1", BackgroundColor: "#FFF5F5", ButtonColor: "#FF69B4"},
	{Name: "lavender", BannerColor: "#E6E6FA", BackgroundColor: "#F8F7FF", ButtonColor: "#9370DB"},
	{Name: "mint", BannerColor: "#B2F2BB", BackgroundColor: "#F4FFF6", ButtonColor: "#38B000"},
	{Name: "ocean", BannerColor: "#A5D8FF", BackgroundColor: "#F1F8FF", ButtonColor: "#1C7ED6"},
	{Name: "midnight", BannerColor: "#343A40", BackgroundColor: "#1A1B1E", ButtonColor: "#7950F2"},
}

// All returns every theme, default first.
func All() []Theme {
	out := make([]Theme, len(themes))
	copy(out, themes)
	return out
}

// Lookup finds a theme by name.
func Lookup(name string) (Theme, bool) {
	for _, t := range themes {
		if t.Name == name {
			return t, true
		}
	}
	return Theme{}, false
}

// Default returns the default theme.
func Default() Theme {
	t, _ := Lookup(DefaultName)
	return t
}

// Sessions runs fn against one locked session.
type Sessions interface {
	Do(ctx context.Context, id string, fn func(*session.Session) error) error
}

// Service reads and writes the selected theme of a session.
type Service struct {
	sessions Sessions
}

// NewService creates a theme service.
func NewService(sessions Sessions) *Service {
	return &Service{sessions: sessions}
}

// Current returns the session's theme, or the default when none is set or
// the stored name is no longer known.
func (s *Service) Current(ctx context.Context, sessionID string) (Theme, error) {
	var name string
	err := s.sessions.Do(ctx, sessionID, func(sess *session.Session) error {
		_, err := sess.Get(sessionKey, &name)
		return err
	})
	if err != nil {
		return Theme{}, err
	}
	if t, ok := Lookup(name); ok {
		return t, nil
	}
	return Default(), nil
}

// Select stores the named theme for the session.
func (s *Service) Select(ctx context.Context, sessionID, name string) (Theme, error) {
	t, ok := Lookup(name)
	if !ok {
		return Theme{}, apperr.NewValidationError(fmt.Errorf("unknown theme %q", name), "theme")
	}
	err := s.sessions.Do(ctx, sessionID, func(sess *session.Session) error {
		return sess.Set(sessionKey, t.Name)
	})
	if err != nil {
		return Theme{}, err
	}
	return t, nil
}
