// Package scoring turns extracted resume text, or externally computed category
// scores, into a bounded overall score, category flags and feedback.
//
// The word-count scorer is a stand-in heuristic, not a classifier. The category
// scorer is the authoritative contract used by the scan endpoints.
package scoring

import (
	"math"
	"strings"
)

const (
	DefaultWordThreshold = 500
	DefaultCap           = 100

	// PresenceThreshold is the category score a section must exceed to count as present.
	PresenceThreshold = 50

	FeedbackBrief      = "The resume seems brief. Consider adding more details."
	FeedbackSufficient = "The resume has sufficient content."
)

// WordCountScorer implements score = min(Cap, floor(words / WordThreshold * 100)).
type WordCountScorer struct {
	WordThreshold int
	Cap           int
}

// NewWordCountScorer returns a scorer with defaults applied to non-positive values.
func NewWordCountScorer(threshold, cap int) WordCountScorer {
	if threshold <= 0 {
		threshold = DefaultWordThreshold
	}
	if cap <= 0 || cap > 100 {
		cap = DefaultCap
	}
	return WordCountScorer{WordThreshold: threshold, Cap: cap}
}

// WordCount counts whitespace-separated tokens. Empty text has zero words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Score maps a word count to [0, Cap].
func (s WordCountScorer) Score(words int) int {
	s = NewWordCountScorer(s.WordThreshold, s.Cap)
	if words <= 0 {
		return 0
	}
	raw := words * 100 / s.WordThreshold
	if raw > s.Cap {
		raw = s.Cap
	}
	return Clamp(raw)
}

// Feedback returns the qualitative message for a word count.
func (s WordCountScorer) Feedback(words int) string {
	s = NewWordCountScorer(s.WordThreshold, s.Cap)
	if words < s.WordThreshold {
		return FeedbackBrief
	}
	return FeedbackSufficient
}

// Evaluate scores text in one call.
func (s WordCountScorer) Evaluate(text string) Result {
	words := WordCount(text)
	return Result{
		Source:       SourceWordCount,
		OverallScore: s.Score(words),
		Feedback:     s.Feedback(words),
		WordCount:    words,
	}
}

// Present is the single source of truth for category flags.
func Present(score float64) bool {
	return score > PresenceThreshold
}

// Clamp bounds a score to [0, 100].
func Clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Round rounds half away from zero and clamps to [0, 100].
func Round(score float64) int {
	if math.IsNaN(score) {
		return 0
	}
	if math.IsInf(score, 1) {
		return 100
	}
	if math.IsInf(score, -1) {
		return 0
	}
	return Clamp(int(math.Round(score)))
}
