package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/aalifyx/internal/apperr"
)

// MaxTextLength caps text accepted for direct summarization.
const MaxTextLength = 200_000

// Result is a summarized document.
type Result struct {
	FileName   string `json:"file_name,omitempty"`
	TextLength int    `json:"text_length"`
	Summary
}

// Service wires a TextExtractor to a Summarizer.
type Service struct {
	extractor  TextExtractor
	summarizer Summarizer
	logger     *slog.Logger
}

// NewService creates a document service.
func NewService(extractor TextExtractor, summarizer Summarizer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{extractor: extractor, summarizer: summarizer, logger: logger}
}

// Capabilities names the configured implementations.
func (s *Service) Capabilities() map[string]string {
	return map[string]string{
		"extractor":  typeName(s.extractor),
		"summarizer": typeName(s.summarizer),
	}
}

// SummarizePDF extracts the text of an uploaded PDF and summarizes it.
func (s *Service) SummarizePDF(ctx context.Context, name string, r io.ReaderAt, size int64) (*Result, error) {
	if name == "" {
		return nil, apperr.NewValidationError(errors.New("no selected file"), "file")
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return nil, apperr.NewValidationError(errors.New("only PDF files are allowed"), "file")
	}

	start := time.Now()
	text, err := s.extractor.Extract(ctx, r, size)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", name, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoText, name)
	}

	sum, err := s.summarizer.Summarize(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("summarize %s: %w", name, err)
	}
	s.logger.Info("pdf summarized",
		slog.String("file", name),
		slog.Int("text_length", len(text)),
		slog.Int("points", len(sum.Points)),
		slog.Duration("took", time.Since(start)))
	return &Result{FileName: name, TextLength: len(text), Summary: *sum}, nil
}

// SummarizeText summarizes free text.
func (s *Service) SummarizeText(ctx context.Context, text string) (*Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.NewValidationError(errors.New("text is empty"), "text")
	}
	if len(text) > MaxTextLength {
		return nil, apperr.NewValidationError(fmt.Errorf("text exceeds %d bytes", MaxTextLength), "text")
	}
	sum, err := s.summarizer.Summarize(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("summarize text: %w", err)
	}
	return &Result{TextLength: len(text), Summary: *sum}, nil
}

func typeName(v any) string {
	name := fmt.Sprintf("%T", v)
	return strings.TrimPrefix(name, "*document.")
}
