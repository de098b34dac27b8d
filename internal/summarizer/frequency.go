package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

var (
	sentenceRe = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
	wordRe     = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
)

// FrequencySummarizer picks the most representative sentences of a text by
// word frequency, stopwords filtered. Used at ingest time to attach a short
// extractive preview to each uploaded document.
type FrequencySummarizer struct {
	stopwords map[string]struct{}
}

// NewFrequencySummarizer creates a frequency-based sentence ranker.
func NewFrequencySummarizer() *FrequencySummarizer {
	stop := make(map[string]struct{}, len(stopwordList))
	for _, w := range stopwordList {
		stop[w] = struct{}{}
	}
	return &FrequencySummarizer{stopwords: stop}
}

// Summarize returns up to maxSentences of the input, chosen by normalized
// token frequency and re-emitted in their original order.
func (s *FrequencySummarizer) Summarize(text string, maxSentences int) (string, error) {
	if maxSentences <= 0 {
		maxSentences = 3
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		return strings.TrimSpace(text), nil
	}

	freq := map[string]float64{}
	for _, sent := range sentences {
		for _, tok := range s.tokens(sent) {
			if _, skip := s.stopwords[tok]; skip {
				continue
			}
			freq[tok]++
		}
	}
	maxFreq := 0.0
	for _, f := range freq {
		if f > maxFreq {
			maxFreq = f
		}
	}
	if maxFreq > 0 {
		for tok, f := range freq {
			freq[tok] = f / maxFreq
		}
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(sentences))
	for i, sent := range sentences {
		toks := s.tokens(sent)
		total := 0.0
		for _, tok := range toks {
			total += freq[tok]
		}
		// Length normalization so long sentences do not dominate.
		if n := float64(len(toks)); n > 0 {
			total /= math.Sqrt(n)
		}
		scores[i] = scored{idx: i, score: total}
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	if maxSentences > len(scores) {
		maxSentences = len(scores)
	}
	keep := make([]int, maxSentences)
	for i := range keep {
		keep[i] = scores[i].idx
	}
	sort.Ints(keep)

	parts := make([]string, 0, len(keep))
	for _, idx := range keep {
		parts = append(parts, strings.TrimSpace(sentences[idx]))
	}
	return strings.Join(parts, " "), nil
}

func (s *FrequencySummarizer) tokens(text string) []string {
	return wordRe.FindAllString(strings.ToLower(text), -1)
}

var stopwordList = []string{
	"a", "an", "the", "and", "or", "but", "if", "then", "for", "to", "of",
	"in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be",
	"been", "being", "it", "this", "that", "these", "those", "from", "so",
	"such", "into", "about", "between", "through", "during", "before",
	"after", "above", "below", "out", "off", "own", "same", "too", "very",
	"can", "will", "just", "not", "no", "nor", "only", "than", "over",
	"under", "again", "further", "up", "down", "we", "you", "they", "he",
	"she", "i", "its", "their", "our", "your", "his", "her", "them", "us",
	"what", "which", "who", "whom", "when", "where", "why", "how", "all",
	"any", "both", "each", "few", "more", "most", "other", "some", "do",
	"does", "did", "have", "has", "had", "there", "here",
}
