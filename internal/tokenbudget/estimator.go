// Package tokenbudget estimates the token footprint of a candidate
// submission so callers can be warned before a large diff blows past
// the model context window that will have to review the next
// iteration's prompt.
package tokenbudget

import (
	"strings"

	"github.com/tiktoken-go/tokenizer"

	"github.com/thebtf/refineloop/pkg/models"
)

// Estimator counts tokens for a given tokenizer model, falling back
// to a conservative chars/4 heuristic if the codec can't be loaded
// (an unknown model name, or an encoder data file the installer
// hasn't fetched yet) so submitCandidate never hard-fails over an
// accounting concern.
type Estimator struct {
	codec tokenizer.Codec
}

// New builds an Estimator for the given model/encoding name (e.g.
// "cl100k_base"). A failed lookup yields an Estimator that always
// uses the fallback heuristic.
func New(model string) *Estimator {
	codec, err := tokenizer.Get(tokenizer.Encoding(model))
	if err != nil {
		return &Estimator{}
	}
	return &Estimator{codec: codec}
}

// Count returns the token count of text, using the loaded codec when
// available.
func (e *Estimator) Count(text string) int {
	if e.codec == nil {
		return fallbackCount(text)
	}
	ids, _, err := e.codec.Encode(text)
	if err != nil {
		return fallbackCount(text)
	}
	return len(ids)
}

func fallbackCount(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}

// EstimateCandidate sums the token count across every textual payload
// a Candidate carries, regardless of CandidateMode.
func (e *Estimator) EstimateCandidate(c models.Candidate) int {
	total := 0
	for _, d := range c.Diffs {
		total += e.Count(d.Diff)
	}
	total += e.Count(c.Patch)
	for _, f := range c.Files {
		total += e.Count(f.Content)
	}
	for _, fe := range c.Edits {
		for _, op := range fe.Edits {
			total += e.Count(op.OldText)
			total += e.Count(op.NewText)
			total += e.Count(op.Content)
		}
	}
	return total
}

// ExceedsBudget reports whether a candidate's estimated token count
// exceeds max. max <= 0 disables the check.
func (e *Estimator) ExceedsBudget(c models.Candidate, max int) (int, bool) {
	n := e.EstimateCandidate(c)
	if max <= 0 {
		return n, false
	}
	return n, n > max
}

// Summarize renders a short human-readable note for logs/diagnostics,
// trimmed to avoid dumping full diff content into a log line.
func Summarize(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return strings.TrimSpace(text[:limit]) + "..."
}
