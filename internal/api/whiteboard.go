package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/aalifyx/internal/apperr"
	"github.com/starford/aalifyx/internal/whiteboard"
)

// multipart overhead allowed on top of the image size limit.
const multipartSlack = 1 << 20

// WhiteboardHandler serves the whiteboard image registry.
type WhiteboardHandler struct {
	registry *whiteboard.Registry
}

// NewWhiteboardHandler creates a WhiteboardHandler.
func NewWhiteboardHandler(registry *whiteboard.Registry) *WhiteboardHandler {
	return &WhiteboardHandler{registry: registry}
}

// List handles GET /api/whiteboard.
func (h *WhiteboardHandler) List(w http.ResponseWriter, r *http.Request) {
	images, err := h.registry.List()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"images": images, "count": len(images)})
}

// Save handles POST /api/whiteboard with a JSON body {"imageData": "data:image/png;base64,..."}.
func (h *WhiteboardHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ImageData string `json:"imageData"`
	}
	if err := decodeJSONLimit(w, r, &req, whiteboard.MaxImageSize*4/3+multipartSlack); err != nil {
		writeError(w, r, err)
		return
	}
	img, err := h.registry.SaveDataURL(req.ImageData)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, img)
}

// Upload handles POST /api/whiteboard/images (multipart/form-data, field "image").
func (h *WhiteboardHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, whiteboard.MaxImageSize+multipartSlack)
	if err := r.ParseMultipartForm(whiteboard.MaxImageSize + multipartSlack); err != nil {
		writeError(w, r, apperr.NewValidationError(errors.New("file too large or invalid multipart"), "image"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, r, apperr.NewValidationError(errors.New("missing 'image' field in multipart form"), "image"))
		return
	}
	defer file.Close()

	img, err := h.registry.Upload(header.Filename, file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, img)
}

// Delete handles DELETE /api/whiteboard/{filename}.
func (h *WhiteboardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ok, err := h.registry.Delete(chi.URLParam(r, "filename"))
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

// ServeFile handles GET /uploads/whiteboard/{filename}.
func (h *WhiteboardHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	abs, err := h.registry.Path(chi.URLParam(r, "filename"))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeFile(w, r, abs)
}
