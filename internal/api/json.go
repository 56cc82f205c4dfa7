package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/starford/aalifyx/internal/apperr"
	"github.com/starford/aalifyx/internal/document"
)

const maxJSONBody = 1 << 20 // 1 MB

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

// errResponse is the error body of every failed API call.
type errResponse struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func errorBody(status int, msg string) errResponse {
	return errResponse{Status: status, Error: msg}
}

func writeErrorMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody(status, msg))
}

// writeError maps an application error to its status code and body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *apperr.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errResponse{
			Status:  http.StatusBadRequest,
			Error:   "validation failed",
			Details: validationDetails(verr),
		})
	case errors.Is(err, apperr.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errResponse{Status: http.StatusBadRequest, Error: "validation failed", Details: err.Error()})
	case errors.Is(err, apperr.ErrUnknownCollection):
		writeJSON(w, http.StatusNotFound, errResponse{Status: http.StatusNotFound, Error: "unknown collection", Details: err.Error()})
	case errors.Is(err, apperr.ErrNotFound):
		writeErrorMsg(w, http.StatusNotFound, "not found")
	case errors.Is(err, apperr.ErrImmutable):
		writeJSON(w, http.StatusBadRequest, errResponse{Status: http.StatusBadRequest, Error: "collection does not support updates", Details: err.Error()})
	case errors.Is(err, document.ErrNoText):
		writeJSON(w, http.StatusUnprocessableEntity, errResponse{Status: http.StatusUnprocessableEntity, Error: "no text could be extracted", Details: "the document may be scanned or empty"})
	case errors.Is(err, document.ErrContentBlocked):
		writeJSON(w, http.StatusUnprocessableEntity, errResponse{Status: http.StatusUnprocessableEntity, Error: "content blocked by summarizer"})
	default:
		slog.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Bool("store_unavailable", errors.Is(err, apperr.ErrStoreUnavailable)),
			slog.String("error", err.Error()))
		writeErrorMsg(w, http.StatusInternalServerError, "internal error")
	}
}

type validationDetail struct {
	Fields  []string `json:"fields"`
	Message string   `json:"message"`
}

func validationDetails(err *apperr.ValidationError) validationDetail {
	msg := err.Error()
	if err.Err != nil {
		msg = err.Err.Error()
	}
	return validationDetail{Fields: err.Fields, Message: msg}
}

// decodeJSON reads a JSON object body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return decodeJSONLimit(w, r, v, maxJSONBody)
}

// decodeJSONLimit is decodeJSON with a caller-chosen body size limit.
func decodeJSONLimit(w http.ResponseWriter, r *http.Request, v any, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.NewValidationError(fmt.Errorf("invalid JSON body: %w", err), "body")
	}
	return nil
}

// decodeFields reads a flat JSON object of scalar values as strings.
// Strings pass through, numbers and booleans keep their literal text, and
// nulls are skipped.
func decodeFields(w http.ResponseWriter, r *http.Request) (map[string]string, error) {
	var raw map[string]json.RawMessage
	if err := decodeJSON(w, r, &raw); err != nil {
		return nil, err
	}
	fields := make(map[string]string, len(raw))
	var bad []string
	for k, v := range raw {
		text := strings.TrimSpace(string(v))
		switch {
		case text == "null":
		case strings.HasPrefix(text, `"`):
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				bad = append(bad, k)
				continue
			}
			fields[k] = s
		case strings.HasPrefix(text, "{"), strings.HasPrefix(text, "["):
			bad = append(bad, k)
		default:
			fields[k] = text
		}
	}
	if len(bad) > 0 {
		slices.Sort(bad)
		return nil, apperr.NewValidationError(errors.New("fields must be scalar values"), bad...)
	}
	return fields, nil
}
