package document

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

const (
	minSentenceWords = 4
	minKeywordLen    = 4
	blank            = "_____"
)

var sentenceEnd = regexp.MustCompile(`([.!?])\s+`)

// FrequencySummarizer is an extractive summarizer: sentences are ranked by
// the average corpus frequency of their content words.
type FrequencySummarizer struct {
	// MaxPoints caps the number of summary points and questions.
	MaxPoints int
}

// NewFrequencySummarizer creates a FrequencySummarizer.
func NewFrequencySummarizer(maxPoints int) *FrequencySummarizer {
	if maxPoints <= 0 {
		maxPoints = 5
	}
	return &FrequencySummarizer{MaxPoints: maxPoints}
}

type scoredSentence struct {
	pos   int
	text  string
	words []string
	score float64
}

// Summarize implements Summarizer.
func (f *FrequencySummarizer) Summarize(ctx context.Context, text string) (*Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil, ErrNoText
	}

	freq := make(map[string]int)
	scored := make([]scoredSentence, 0, len(sentences))
	for i, s := range sentences {
		words := contentWords(s)
		for _, w := range words {
			freq[w]++
		}
		scored = append(scored, scoredSentence{pos: i, text: s, words: words})
	}
	for i := range scored {
		s := &scored[i]
		if len(strings.Fields(s.text)) < minSentenceWords || len(s.words) == 0 {
			continue
		}
		total := 0
		for _, w := range s.words {
			total += freq[w]
		}
		s.score = float64(total) / float64(len(s.words))
	}

	ranked := make([]scoredSentence, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	top := make([]scoredSentence, 0, f.MaxPoints)
	for _, s := range ranked {
		if len(top) == f.MaxPoints || s.score == 0 {
			break
		}
		top = append(top, s)
	}
	if len(top) == 0 {
		// Nothing long enough to rank; fall back to the leading sentences.
		for _, s := range scored {
			if len(top) == f.MaxPoints {
				break
			}
			top = append(top, s)
		}
	}
	sort.Slice(top, func(i, j int) bool { return top[i].pos < top[j].pos })

	sum := &Summary{Points: make([]string, 0, len(top)), Questions: []Question{}}
	for _, s := range top {
		sum.Points = append(sum.Points, s.text)
		if q, ok := cloze(s, freq); ok {
			sum.Questions = append(sum.Questions, q)
		}
	}
	return sum, nil
}

// cloze blanks out the most frequent keyword of a sentence.
func cloze(s scoredSentence, freq map[string]int) (Question, bool) {
	best, bestFreq := "", 0
	for _, w := range s.words {
		if len(w) < minKeywordLen {
			continue
		}
		if freq[w] > bestFreq || (freq[w] == bestFreq && len(w) > len(best)) {
			best, bestFreq = w, freq[w]
		}
	}
	if best == "" {
		return Question{}, false
	}
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(best) + `\b`)
	loc := re.FindStringIndex(s.text)
	if loc == nil {
		return Question{}, false
	}
	answer := s.text[loc[0]:loc[1]]
	return Question{
		Question: "Fill in the blank: " + s.text[:loc[0]] + blank + s.text[loc[1]:],
		Answer:   answer,
	}, true
}

func splitSentences(text string) []string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}
	marked := sentenceEnd.ReplaceAllString(text, "$1\n")
	var out []string
	for _, s := range strings.Split(marked, "\n") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func contentWords(sentence string) []string {
	fields := strings.FieldsFunc(strings.ToLower(sentence), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	out := fields[:0]
	for _, w := range fields {
		w = strings.Trim(w, "'")
		if len(w) < 2 || stopWords[w] {
			continue
		}
		out = append(out, w)
	}
	return out
}

var stopWords = func() map[string]bool {
	words := strings.Fields(`a about above after again against all am an and any are as at be because
		been before being below between both but by can could did do does doing down during each few
		for from further had has have having he her here hers herself him himself his how i if in into
		is it its itself just me more most my myself no nor not now of off on once only or other our
		ours ourselves out over own same she should so some such than that the their theirs them
		themselves then there these they this those through to too under until up very was we were
		what when where which while who whom why will with would you your yours yourself yourselves
		also may might must shall us upon within without yet however thus`)
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}()
