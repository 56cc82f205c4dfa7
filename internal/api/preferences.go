package api

import (
	"net/http"

	"github.com/starford/aalifyx/internal/planner"
	"github.com/starford/aalifyx/internal/theme"
)

// PreferenceHandler serves the theme and study plan singletons.
type PreferenceHandler struct {
	themes  *theme.Service
	planner *planner.Service
}

// NewPreferenceHandler creates a PreferenceHandler.
func NewPreferenceHandler(themes *theme.Service, plans *planner.Service) *PreferenceHandler {
	return &PreferenceHandler{themes: themes, planner: plans}
}

// Themes handles GET /api/themes.
func (h *PreferenceHandler) Themes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"themes": theme.All(), "default": theme.DefaultName})
}

// Theme handles GET /api/theme.
func (h *PreferenceHandler) Theme(w http.ResponseWriter, r *http.Request) {
	t, err := h.themes.Current(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// SetTheme handles PUT /api/theme.
func (h *PreferenceHandler) SetTheme(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Theme string `json:"theme"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := h.themes.Select(r.Context(), sessionID(r), req.Theme)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Plan handles GET /api/study-plan.
func (h *PreferenceHandler) Plan(w http.ResponseWriter, r *http.Request) {
	p, err := h.planner.Get(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SetPlan handles PUT /api/study-plan.
func (h *PreferenceHandler) SetPlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Plan string `json:"plan"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.planner.Set(r.Context(), sessionID(r), req.Plan)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
