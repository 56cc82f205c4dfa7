package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = strings.Repeat("k", 32)

func TestTokenRoundTrip(t *testing.T) {
	tokens, err := NewTokens(testSecret, time.Hour)
	require.NoError(t, err)

	tok, exp, err := tokens.Issue("session-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	id, err := tokens.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "session-1", id)
}

func TestTokenRejectsOtherKey(t *testing.T) {
	a, _ := NewTokens(testSecret, time.Hour)
	b, _ := NewTokens(strings.Repeat("z", 32), time.Hour)
	tok, _, err := a.Issue("s")
	require.NoError(t, err)

	_, err = b.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenExpires(t *testing.T) {
	tokens, _ := NewTokens(testSecret, time.Minute)
	base := time.Now()
	tokens.now = func() time.Time { return base }
	tok, _, err := tokens.Issue("s")
	require.NoError(t, err)

	tokens.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err = tokens.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokensShortSecret(t *testing.T) {
	_, err := NewTokens("short", time.Hour)
	assert.Error(t, err)
}

func TestMiddlewareAssignsAndKeepsSession(t *testing.T) {
	tokens, _ := NewTokens(testSecret, time.Hour)
	mw := NewMiddleware(tokens, "sid", false)

	var seen []string
	h := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := FromContext(r.Context())
		require.True(t, ok)
		seen = append(seen, id)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	token := w.Header().Get(HeaderName)
	require.NotEmpty(t, token)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)

	// Header token.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderName, token)
	h.ServeHTTP(httptest.NewRecorder(), req)

	// Cookie token.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, seen, 3)
	assert.Equal(t, seen[0], seen[1])
	assert.Equal(t, seen[0], seen[2])
}

func TestMiddlewareReplacesForgedToken(t *testing.T) {
	tokens, _ := NewTokens(testSecret, time.Hour)
	mw := NewMiddleware(tokens, "sid", false)

	var got string
	h := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = FromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderName, "not-a-jwt")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.NotEmpty(t, got)
	assert.NotEqual(t, "not-a-jwt", got)
}
