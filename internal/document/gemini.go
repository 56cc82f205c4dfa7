package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

// ErrContentBlocked is returned when the model refuses a chunk on safety grounds.
var ErrContentBlocked = errors.New("content blocked by safety filters")

const summaryPrompt = `You are a study assistant. Summarize the study material below.

Respond using only these line formats:
- <one key point per line>
Q: <a question that checks understanding>
A: <the answer to the previous question>

Give at most %d key points and at most %d question/answer pairs.

Material:
%s`

// modelClient is the slice of the genai client the summarizer needs.
type modelClient interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiConfig configures GeminiSummarizer.
type GeminiConfig struct {
	APIKey     string
	Model      string
	Timeout    time.Duration
	ChunkChars int
	MaxPoints  int
}

// GeminiSummarizer asks a Gemini model for key points and questions. Long
// text is split into chunks and each chunk is sent with its own timeout.
type GeminiSummarizer struct {
	models modelClient
	cfg    GeminiConfig
	logger *slog.Logger
}

// NewGeminiSummarizer creates a summarizer backed by the Gemini API.
func NewGeminiSummarizer(ctx context.Context, cfg GeminiConfig, logger *slog.Logger) (*GeminiSummarizer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return newGeminiSummarizer(client.Models, cfg, logger), nil
}

func newGeminiSummarizer(models modelClient, cfg GeminiConfig, logger *slog.Logger) *GeminiSummarizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ChunkChars <= 0 {
		cfg.ChunkChars = 12000
	}
	if cfg.MaxPoints <= 0 {
		cfg.MaxPoints = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &GeminiSummarizer{models: models, cfg: cfg, logger: logger}
}

// Summarize implements Summarizer. Chunk results are concatenated and then
// capped at MaxPoints points and questions.
func (g *GeminiSummarizer) Summarize(ctx context.Context, text string) (*Summary, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrNoText
	}
	chunks := chunkText(text, g.cfg.ChunkChars)
	sum := &Summary{Points: []string{}, Questions: []Question{}}
	for i, chunk := range chunks {
		reply, err := g.generate(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("gemini: chunk %d/%d: %w", i+1, len(chunks), err)
		}
		part := parseReply(reply)
		sum.Points = append(sum.Points, part.Points...)
		sum.Questions = append(sum.Questions, part.Questions...)
		g.logger.Debug("gemini chunk summarized",
			slog.Int("chunk", i+1),
			slog.Int("points", len(part.Points)),
			slog.Int("questions", len(part.Questions)))
	}
	if len(sum.Points) > g.cfg.MaxPoints {
		sum.Points = sum.Points[:g.cfg.MaxPoints]
	}
	if len(sum.Questions) > g.cfg.MaxPoints {
		sum.Questions = sum.Questions[:g.cfg.MaxPoints]
	}
	return sum, nil
}

func (g *GeminiSummarizer) generate(ctx context.Context, chunk string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	prompt := fmt.Sprintf(summaryPrompt, g.cfg.MaxPoints, g.cfg.MaxPoints, chunk)
	resp, err := g.models.GenerateContent(ctx, g.cfg.Model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("empty response")
	}
	cand := resp.Candidates[0]
	if cand.FinishReason == genai.FinishReasonSafety {
		return "", ErrContentBlocked
	}
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return b.String(), nil
}

// parseReply scans model output line by line. "- " or "* " lines are points;
// "Q:" opens a question that the next "A:" line answers.
func parseReply(reply string) Summary {
	sum := Summary{}
	var pending string
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
			if p := strings.TrimSpace(line[2:]); p != "" {
				sum.Points = append(sum.Points, p)
			}
		case hasPrefixFold(line, "Q:"):
			pending = strings.TrimSpace(line[2:])
		case hasPrefixFold(line, "A:"):
			if pending != "" {
				sum.Questions = append(sum.Questions, Question{
					Question: pending,
					Answer:   strings.TrimSpace(line[2:]),
				})
				pending = ""
			}
		}
	}
	return sum
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// chunkText splits text into pieces of at most size bytes, preferring
// paragraph and then sentence boundaries.
func chunkText(text string, size int) []string {
	var chunks []string
	for len(text) > size {
		cut := strings.LastIndex(text[:size], "\n\n")
		if cut < size/2 {
			cut = strings.LastIndex(text[:size], ". ")
			if cut >= 0 {
				cut++
			}
		}
		if cut < size/2 {
			cut = size
			// Stay on a UTF-8 boundary.
			for cut > 0 && text[cut]&0xC0 == 0x80 {
				cut--
			}
		}
		if c := strings.TrimSpace(text[:cut]); c != "" {
			chunks = append(chunks, c)
		}
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
