package session

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// HeaderName carries the session token for clients that do not keep cookies.
const HeaderName = "X-Session-Token"

type ctxKey struct{}

// WithID returns a context carrying the session id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the session id stored by the middleware.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

// Middleware resolves the caller's session on every request and refreshes the
// token so the session lifetime slides with activity.
type Middleware struct {
	tokens     *Tokens
	cookieName string
	secure     bool
}

// NewMiddleware creates the session middleware.
func NewMiddleware(tokens *Tokens, cookieName string, secure bool) *Middleware {
	return &Middleware{tokens: tokens, cookieName: cookieName, secure: secure}
}

// Handler wraps next. Requests without a valid token get a new session id.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := m.resolve(r)
		token, exp, err := m.tokens.Issue(id)
		if err != nil {
			slog.Error("issue session token failed", slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     m.cookieName,
			Value:    token,
			Path:     "/",
			Expires:  exp,
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteLaxMode,
		})
		w.Header().Set(HeaderName, token)
		next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
	})
}

// Expire tells the client to drop its session cookie, replacing the refreshed
// cookie set earlier in the request.
func (m *Middleware) Expire(w http.ResponseWriter) {
	w.Header().Del("Set-Cookie")
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	w.Header().Del(HeaderName)
}

func (m *Middleware) resolve(r *http.Request) string {
	raw := r.Header.Get(HeaderName)
	if raw == "" {
		if c, err := r.Cookie(m.cookieName); err == nil {
			raw = c.Value
		}
	}
	if raw != "" {
		if id, err := m.tokens.Parse(raw); err == nil {
			return id
		}
	}
	return uuid.NewString()
}
