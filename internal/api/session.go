package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/aalifyx/internal/apperr"
	"github.com/starford/aalifyx/internal/collection"
	"github.com/starford/aalifyx/internal/session"
)

const userKey = "user"

// User is the identity attached to a session by login.
type User struct {
	Email      string    `json:"email"`
	LoggedInAt time.Time `json:"logged_in_at"`
}

// SessionResponse describes the caller's session.
type SessionResponse struct {
	User      *User                   `json:"user"`
	ExpiresAt *time.Time              `json:"expires_at,omitempty"`
	Counts    map[collection.Kind]int `json:"counts"`
}

// SessionHandler serves session info, login, and logout.
type SessionHandler struct {
	sessions   *session.Manager
	middleware *session.Middleware
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(sessions *session.Manager, mw *session.Middleware) *SessionHandler {
	return &SessionHandler{sessions: sessions, middleware: mw}
}

// Info handles GET /api/session.
func (h *SessionHandler) Info(w http.ResponseWriter, r *http.Request) {
	var resp SessionResponse
	err := h.sessions.Do(r.Context(), sessionID(r), func(s *session.Session) error {
		var u User
		ok, err := s.Get(userKey, &u)
		if err != nil {
			return err
		}
		if ok {
			resp.User = &u
		}
		if !s.IsNew() {
			exp := s.ExpiresAt
			resp.ExpiresAt = &exp
		}
		resp.Counts, err = collection.CountsIn(s)
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Login handles POST /api/session/login. It attaches an email identity to
// the current session.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := validation.Validate(email, validation.Required, is.EmailFormat); err != nil {
		writeError(w, r, apperr.NewValidationError(err, "email"))
		return
	}

	u := User{Email: email, LoggedInAt: time.Now().UTC().Truncate(time.Second)}
	err := h.sessions.Do(r.Context(), sessionID(r), func(s *session.Session) error {
		return s.Set(userKey, u)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

// Logout handles POST /api/session/logout. The session and everything in it
// is destroyed.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	if id == "" {
		writeError(w, r, errors.New("session middleware not installed"))
		return
	}
	if err := h.sessions.Destroy(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	h.middleware.Expire(w)
	writeJSON(w, http.StatusOK, map[string]bool{"logged_out": true})
}
