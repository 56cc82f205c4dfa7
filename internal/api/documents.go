package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/starford/aalifyx/internal/apperr"
	"github.com/starford/aalifyx/internal/collection"
	"github.com/starford/aalifyx/internal/document"
)

const maxPDFBytes = 50 << 20 // 50 MB

// SummaryResponse is a document summary, optionally with the flashcards saved from it.
type SummaryResponse struct {
	*document.Result
	Status     int                 `json:"status"`
	Flashcards []collection.Record `json:"flashcards,omitempty"`
}

// DocumentHandler serves PDF and text summarization.
type DocumentHandler struct {
	docs        *document.Service
	collections *collection.Store
}

// NewDocumentHandler creates a DocumentHandler.
func NewDocumentHandler(docs *document.Service, collections *collection.Store) *DocumentHandler {
	return &DocumentHandler{docs: docs, collections: collections}
}

// SummarizePDF handles POST /api/pdf/summary (multipart/form-data, field
// "file" or "pdf"). With save_flashcards=true the generated questions are
// added to the caller's flashcards.
func (h *DocumentHandler) SummarizePDF(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPDFBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, r, apperr.NewValidationError(errors.New("file too large or invalid multipart"), "file"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		file, header, err = r.FormFile("pdf")
	}
	if err != nil {
		writeError(w, r, apperr.NewValidationError(errors.New("no PDF file found in request"), "file"))
		return
	}
	defer file.Close()

	res, err := h.docs.SummarizePDF(r.Context(), header.Filename, file, header.Size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, r, res, r.FormValue("save_flashcards"))
}

// SummarizeText handles POST /api/text/summary with {"text": "...", "save_flashcards": bool}.
func (h *DocumentHandler) SummarizeText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text           string `json:"text"`
		SaveFlashcards bool   `json:"save_flashcards"`
	}
	if err := decodeJSONLimit(w, r, &req, document.MaxTextLength*4); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.docs.SummarizeText(r.Context(), req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, r, res, strconv.FormatBool(req.SaveFlashcards))
}

func (h *DocumentHandler) respond(w http.ResponseWriter, r *http.Request, res *document.Result, save string) {
	out := SummaryResponse{Result: res, Status: http.StatusOK}
	if ok, _ := strconv.ParseBool(save); ok {
		for _, q := range res.Questions {
			rec, err := h.collections.Create(r.Context(), sessionID(r), collection.Flashcards,
				map[string]string{"front": q.Question, "back": q.Answer})
			if err != nil {
				if errors.Is(err, apperr.ErrValidation) {
					slog.Debug("skipped generated flashcard", slog.String("error", err.Error()))
					continue
				}
				writeError(w, r, err)
				return
			}
			out.Flashcards = append(out.Flashcards, rec)
		}
	}
	writeJSON(w, http.StatusOK, out)
}
