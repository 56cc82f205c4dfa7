package internal

import "github.com/starford/aalifyx/internal/document"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config     *Config
	extractor  document.TextExtractor
	summarizer document.Summarizer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithExtractor replaces the PDF text extractor chosen from the configuration.
func WithExtractor(e document.TextExtractor) Option {
	return func(a *application) {
		a.extractor = e
	}
}

// WithSummarizer replaces the summarizer chosen from the configuration.
func WithSummarizer(s document.Summarizer) Option {
	return func(a *application) {
		a.summarizer = s
	}
}
