// Package document turns uploaded PDFs and free text into study summaries.
//
// Text extraction and summarization are capabilities behind interfaces; the
// concrete implementations are picked once at startup from configuration.
package document

import (
	"context"
	"errors"
	"io"
)

// ErrNoText is returned when a document yields no extractable text.
var ErrNoText = errors.New("no text could be extracted")

// TextExtractor pulls plain text out of a document.
type TextExtractor interface {
	Extract(ctx context.Context, r io.ReaderAt, size int64) (string, error)
}

// Summarizer condenses text into key points and study questions.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (*Summary, error)
}

// Summary is the result of summarizing one text.
type Summary struct {
	Points    []string   `json:"summary_points"`
	Questions []Question `json:"questions"`
}

// Question is a generated question with its expected answer.
type Question struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
