package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/aalifyx/internal/collection"
	"github.com/starford/aalifyx/internal/document"
	"github.com/starford/aalifyx/internal/planner"
	"github.com/starford/aalifyx/internal/session"
	"github.com/starford/aalifyx/internal/theme"
	"github.com/starford/aalifyx/internal/whiteboard"
)

// Services groups the dependencies the API routes are built from.
type Services struct {
	Sessions    *session.Manager
	Middleware  *session.Middleware
	Collections *collection.Store
	Themes      *theme.Service
	Planner     *planner.Service
	Whiteboard  *whiteboard.Registry
	Documents   *document.Service
	// Events, if non-nil, is mounted at GET /events.
	Events  http.Handler
	Clients ClientCounter
}

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(svc Services, authEnabled bool, token string) chi.Router {
	ch := NewCollectionHandler(svc.Collections)
	sh := NewSessionHandler(svc.Sessions, svc.Middleware)
	ph := NewPreferenceHandler(svc.Themes, svc.Planner)
	wh := NewWhiteboardHandler(svc.Whiteboard)
	dh := NewDocumentHandler(svc.Documents, svc.Collections)
	hh := NewHealthHandler(svc.Sessions.Store(), svc.Documents, svc.Clients)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))
	r.Use(svc.Middleware.Handler)

	r.Get("/health", hh.Diagnostics)

	// Generic collection routes.
	r.Get("/collections", ch.Schemas)
	r.Route("/collections/{kind}", func(r chi.Router) {
		r.Get("/", byParam(ch.List))
		r.Post("/", byParam(ch.Create))
		r.Patch("/{id}", byParam(ch.Update))
		r.Delete("/{id}", byParam(ch.Delete))
		r.Delete("/positions/{index}", byParam(ch.DeleteAt))
	})

	// Per-collection routes used by the study desk pages.
	r.Route("/flashcards", func(r chi.Router) {
		r.Get("/", fixed(collection.Flashcards, ch.List))
		r.Post("/", fixed(collection.Flashcards, ch.Create))
		r.Delete("/{id}", fixed(collection.Flashcards, ch.Delete))
		r.Delete("/positions/{index}", fixed(collection.Flashcards, ch.DeleteAt))
	})
	r.Route("/goals", func(r chi.Router) {
		r.Get("/", fixed(collection.Goals, ch.List))
		r.Post("/", fixed(collection.Goals, ch.Create))
		r.Patch("/{id}", fixed(collection.Goals, ch.Update))
		r.Patch("/{id}/status", fixed(collection.Goals, ch.UpdateStatus))
		r.Delete("/{id}", fixed(collection.Goals, ch.Delete))
	})
	r.Route("/schedule", func(r chi.Router) {
		r.Get("/", fixed(collection.Schedule, ch.List))
		r.Post("/", fixed(collection.Schedule, ch.Create))
		r.Patch("/{id}", fixed(collection.Schedule, ch.Update))
		r.Delete("/{id}", fixed(collection.Schedule, ch.Delete))
	})
	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", fixed(collection.Tasks, ch.List))
		r.Post("/", fixed(collection.Tasks, ch.Create))
		r.Patch("/{id}", fixed(collection.Tasks, ch.Update))
		r.Patch("/{id}/status", fixed(collection.Tasks, ch.UpdateStatus))
		r.Delete("/{id}", fixed(collection.Tasks, ch.Delete))
	})

	// Session.
	r.Get("/session", sh.Info)
	r.Post("/session/login", sh.Login)
	r.Post("/session/logout", sh.Logout)

	// Preferences.
	r.Get("/themes", ph.Themes)
	r.Get("/theme", ph.Theme)
	r.Put("/theme", ph.SetTheme)
	r.Get("/study-plan", ph.Plan)
	r.Put("/study-plan", ph.SetPlan)

	// Whiteboard.
	r.Get("/whiteboard", wh.List)
	r.Post("/whiteboard", wh.Save)
	r.Post("/whiteboard/images", wh.Upload)
	r.Delete("/whiteboard/{filename}", wh.Delete)

	// Documents.
	r.Post("/pdf/summary", dh.SummarizePDF)
	r.Post("/text/summary", dh.SummarizeText)

	if svc.Events != nil {
		r.Get("/events", svc.Events.ServeHTTP)
	}

	return r
}
