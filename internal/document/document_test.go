package document

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/starford/aalifyx/internal/apperr"
)

const sample = `Photosynthesis converts light energy into chemical energy. ` +
	`Plants perform photosynthesis in chloroplasts using light energy. ` +
	`The weather was nice. ` +
	`Chlorophyll absorbs light energy for photosynthesis in leaves. ` +
	`Cells store chemical energy as glucose after photosynthesis.`

func TestFrequencySummarizer(t *testing.T) {
	sum, err := NewFrequencySummarizer(3).Summarize(context.Background(), sample)
	require.NoError(t, err)
	require.Len(t, sum.Points, 3)
	assert.NotContains(t, sum.Points, "The weather was nice.")

	// Points keep document order.
	last := -1
	for _, p := range sum.Points {
		i := strings.Index(sample, p)
		require.GreaterOrEqual(t, i, 0, "point %q not from the text", p)
		assert.Greater(t, i, last)
		last = i
	}

	require.NotEmpty(t, sum.Questions)
	for _, q := range sum.Questions {
		assert.Contains(t, q.Question, blank)
		assert.NotEmpty(t, q.Answer)
	}
}

func TestFrequencySummarizerShortText(t *testing.T) {
	sum, err := NewFrequencySummarizer(5).Summarize(context.Background(), "Hi there.")
	require.NoError(t, err)
	assert.Equal(t, []string{"Hi there."}, sum.Points)

	_, err = NewFrequencySummarizer(5).Summarize(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrNoText)
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("One two.  Three four!\nFive six? Seven")
	assert.Equal(t, []string{"One two.", "Three four!", "Five six?", "Seven"}, got)
}

func TestParseReply(t *testing.T) {
	reply := `Here is your summary:
- Light energy drives photosynthesis.
* Chloroplasts host the reaction.
-
Q: Where does photosynthesis happen?
A: In chloroplasts.
A: stray answer
q: What pigment absorbs light?
a: Chlorophyll.
Q: Unanswered question?`
	sum := parseReply(reply)
	assert.Equal(t, []string{"Light energy drives photosynthesis.", "Chloroplasts host the reaction."}, sum.Points)
	assert.Equal(t, []Question{
		{Question: "Where does photosynthesis happen?", Answer: "In chloroplasts."},
		{Question: "What pigment absorbs light?", Answer: "Chlorophyll."},
	}, sum.Questions)
}

func TestChunkText(t *testing.T) {
	para := strings.Repeat("word ", 30) + "end."
	text := para + "\n\n" + para + "\n\n" + para
	chunks := chunkText(text, 200)
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 200)
		assert.Equal(t, strings.TrimSpace(para), c)
	}

	assert.Equal(t, []string{"short"}, chunkText("short", 200))

	long := strings.Repeat("é", 300)
	for _, c := range chunkText(long, 101) {
		assert.True(t, strings.HasPrefix(c, "é"), "chunk split inside a rune")
	}
}

type fakeModels struct {
	replies []string
	finish  genai.FinishReason
	err     error
	prompts []string
	models  []string
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("expected a per-call deadline")
	}
	f.models = append(f.models, model)
	f.prompts = append(f.prompts, contents[0].Parts[0].Text)
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		FinishReason: f.finish,
		Content:      &genai.Content{Parts: []*genai.Part{{Text: reply}}},
	}}}, nil
}

func TestGeminiSummarizerChunks(t *testing.T) {
	fake := &fakeModels{replies: []string{
		"- first point\nQ: q1?\nA: a1",
		"- second point\n- third point\nQ: q2?\nA: a2",
	}}
	g := newGeminiSummarizer(fake, GeminiConfig{Model: "gemini-test", ChunkChars: 60, MaxPoints: 2, Timeout: time.Second}, nil)

	text := strings.Repeat("a", 50) + "\n\n" + strings.Repeat("b", 50)
	sum, err := g.Summarize(context.Background(), text)
	require.NoError(t, err)

	require.Len(t, fake.prompts, 2)
	assert.Contains(t, fake.prompts[0], strings.Repeat("a", 50))
	assert.Contains(t, fake.prompts[1], strings.Repeat("b", 50))
	assert.Equal(t, []string{"gemini-test", "gemini-test"}, fake.models)
	assert.Equal(t, []string{"first point", "second point"}, sum.Points)
	assert.Equal(t, []Question{{Question: "q1?", Answer: "a1"}, {Question: "q2?", Answer: "a2"}}, sum.Questions)
}

func TestGeminiSummarizerErrors(t *testing.T) {
	ctx := context.Background()

	blocked := newGeminiSummarizer(&fakeModels{replies: []string{""}, finish: genai.FinishReasonSafety}, GeminiConfig{}, nil)
	_, err := blocked.Summarize(ctx, "some text")
	assert.ErrorIs(t, err, ErrContentBlocked)

	boom := errors.New("quota exceeded")
	failing := newGeminiSummarizer(&fakeModels{err: boom}, GeminiConfig{}, nil)
	_, err = failing.Summarize(ctx, "some text")
	assert.ErrorIs(t, err, boom)

	_, err = failing.Summarize(ctx, "  ")
	assert.ErrorIs(t, err, ErrNoText)
}

type fakeExtractor struct {
	text string
	err  error
}

func (f fakeExtractor) Extract(context.Context, io.ReaderAt, int64) (string, error) {
	return f.text, f.err
}

func TestServiceSummarizePDF(t *testing.T) {
	ctx := context.Background()
	svc := NewService(fakeExtractor{text: sample}, NewFrequencySummarizer(2), nil)

	res, err := svc.SummarizePDF(ctx, "notes.PDF", strings.NewReader("x"), 1)
	require.NoError(t, err)
	assert.Equal(t, "notes.PDF", res.FileName)
	assert.Equal(t, len(sample), res.TextLength)
	assert.Len(t, res.Points, 2)

	_, err = svc.SummarizePDF(ctx, "notes.txt", strings.NewReader("x"), 1)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.SummarizePDF(ctx, "", strings.NewReader("x"), 1)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	empty := NewService(fakeExtractor{text: "  \n "}, NewFrequencySummarizer(2), nil)
	_, err = empty.SummarizePDF(ctx, "scan.pdf", strings.NewReader("x"), 1)
	assert.ErrorIs(t, err, ErrNoText)
}

func TestServiceSummarizeText(t *testing.T) {
	svc := NewService(fakeExtractor{}, NewFrequencySummarizer(2), nil)
	res, err := svc.SummarizeText(context.Background(), sample)
	require.NoError(t, err)
	assert.Empty(t, res.FileName)
	assert.Len(t, res.Points, 2)

	_, err = svc.SummarizeText(context.Background(), " ")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestServiceCapabilities(t *testing.T) {
	svc := NewService(NewPDFExtractor(10), NewFrequencySummarizer(2), nil)
	assert.Equal(t, map[string]string{
		"extractor":  "PDFExtractor",
		"summarizer": "FrequencySummarizer",
	}, svc.Capabilities())
}

func TestPDFExtractorRejectsGarbage(t *testing.T) {
	data := "this is not a pdf"
	_, err := NewPDFExtractor(0).Extract(context.Background(), strings.NewReader(data), int64(len(data)))
	assert.Error(t, err)
}
