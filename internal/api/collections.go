package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/aalifyx/internal/apperr"
	"github.com/starford/aalifyx/internal/collection"
	"github.com/starford/aalifyx/internal/session"
)

// CollectionHandler serves the record collections of the caller's session.
type CollectionHandler struct {
	store *collection.Store
}

// NewCollectionHandler creates a CollectionHandler.
func NewCollectionHandler(store *collection.Store) *CollectionHandler {
	return &CollectionHandler{store: store}
}

// RecordListResponse wraps a collection listing.
type RecordListResponse struct {
	Kind    collection.Kind     `json:"kind"`
	Records []collection.Record `json:"records"`
	Count   int                 `json:"count"`
}

// DeleteResponse reports a successful removal.
type DeleteResponse struct {
	Removed bool `json:"removed"`
}

// sessionID returns the caller's session id set by the session middleware.
func sessionID(r *http.Request) string {
	id, _ := session.FromContext(r.Context())
	return id
}

// kindParam resolves the {kind} URL parameter.
func kindParam(r *http.Request) (collection.Kind, error) {
	return collection.ParseKind(chi.URLParam(r, "kind"))
}

// fixed adapts a kind-taking handler to a route bound to one kind.
func fixed(kind collection.Kind, fn func(http.ResponseWriter, *http.Request, collection.Kind)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) { fn(w, r, kind) }
}

// byParam adapts a kind-taking handler to a route with a {kind} parameter.
func byParam(fn func(http.ResponseWriter, *http.Request, collection.Kind)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := kindParam(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		fn(w, r, kind)
	}
}

// List handles GET /api/collections/{kind}.
func (h *CollectionHandler) List(w http.ResponseWriter, r *http.Request, kind collection.Kind) {
	records, err := h.store.List(r.Context(), sessionID(r), kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RecordListResponse{Kind: kind, Records: records, Count: len(records)})
}

// Create handles POST /api/collections/{kind}.
func (h *CollectionHandler) Create(w http.ResponseWriter, r *http.Request, kind collection.Kind) {
	fields, err := decodeFields(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := h.store.Create(r.Context(), sessionID(r), kind, fields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// Update handles PATCH /api/collections/{kind}/{id}.
func (h *CollectionHandler) Update(w http.ResponseWriter, r *http.Request, kind collection.Kind) {
	fields, err := decodeFields(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := h.store.Update(r.Context(), sessionID(r), kind, collection.ByID(chi.URLParam(r, "id")), fields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// UpdateStatus handles PATCH /api/goals/{id}/status.
func (h *CollectionHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, kind collection.Kind) {
	var req struct {
		Status *string `json:"status"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Status == nil {
		writeError(w, r, apperr.NewValidationError(errors.New("status is required"), "status"))
		return
	}
	rec, err := h.store.Update(r.Context(), sessionID(r), kind,
		collection.ByID(chi.URLParam(r, "id")), map[string]string{"status": *req.Status})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Delete handles DELETE /api/collections/{kind}/{id}.
func (h *CollectionHandler) Delete(w http.ResponseWriter, r *http.Request, kind collection.Kind) {
	id := chi.URLParam(r, "id")
	h.remove(w, r, kind, collection.ByID(id))
}

// DeleteAt handles DELETE /api/collections/{kind}/positions/{index}.
func (h *CollectionHandler) DeleteAt(w http.ResponseWriter, r *http.Request, kind collection.Kind) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, r, apperr.NewValidationError(errors.New("index must be an integer"), "index"))
		return
	}
	h.remove(w, r, kind, collection.ByPosition(index))
}

func (h *CollectionHandler) remove(w http.ResponseWriter, r *http.Request, kind collection.Kind, sel collection.Selector) {
	ok, err := h.store.Delete(r.Context(), sessionID(r), kind, sel)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeErrorMsg(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Removed: true})
}

// Schemas handles GET /api/collections.
func (h *CollectionHandler) Schemas(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"collections": collection.Schemas()})
}
