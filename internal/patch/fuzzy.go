// Package patch implements FuzzyPatcher: applying a parsed unified
// diff to current file content using whitespace-normalized matching
// with a bounded fuzzy search window (spec.md §4.4).
package patch

import (
	"fmt"
	"strings"

	"github.com/thebtf/refineloop/internal/refineerr"
	"github.com/thebtf/refineloop/pkg/models"
)

// DefaultWindow and MinSimilarity are spec.md §6's fuzzy-match
// defaults and bit-exact threshold.
const (
	DefaultWindow = 5
	MaxWindow     = 100
	MinSimilarity = 0.70
	ErrorContext  = 5
	TruncateAt    = 100
)

// Options configures one Apply call.
type Options struct {
	Window int // 0 means DefaultWindow; validated to [0, MaxWindow] by callers
}

// HunkMismatchData is attached to a HunkMismatch error so callers can
// render a diagnostic without re-deriving it.
type HunkMismatchData struct {
	ExpectedSnippet string `json:"expectedSnippet"`
	ActualContext   string `json:"actualContext"`
	FailedAtLine    int    `json:"failedAtLine"`
	BestScorePct    int    `json:"bestScorePercent"`
	SearchWindow    int    `json:"searchWindow"`
}

// Apply applies every hunk of file in order to content, returning the
// patched content. Hunks are applied in the order given; each
// subsequent hunk sees the result of the previous one.
func Apply(content string, file models.ParsedFileDiff, opts Options) (string, *refineerr.Error) {
	window := opts.Window
	if window <= 0 {
		window = DefaultWindow
	}
	if window > MaxWindow {
		window = MaxWindow
	}

	lines := splitLines(content)
	for _, hunk := range file.Hunks {
		var err *refineerr.Error
		lines, err = applyHunk(lines, hunk, window)
		if err != nil {
			return "", err
		}
	}
	return joinLines(lines), nil
}

func applyHunk(fileLines []string, hunk models.ParsedHunk, window int) ([]string, *refineerr.Error) {
	expectedOld := make([]string, 0, len(hunk.Lines))
	for _, l := range hunk.Lines {
		if l.Kind == models.LineContext || l.Kind == models.LineRemove {
			expectedOld = append(expectedOld, l.Content)
		}
	}

	anchor := hunk.OldStart - 1
	if anchor < 0 {
		anchor = 0
	}

	start, ok := exactMatch(fileLines, expectedOld, anchor)
	if !ok {
		var bestScore float64
		start, bestScore, ok = fuzzyMatch(fileLines, expectedOld, anchor, window)
		if !ok {
			return nil, mismatchError(fileLines, expectedOld, anchor, bestScore, window)
		}
	}

	return spliceHunk(fileLines, hunk, start), nil
}

func exactMatch(fileLines, expectedOld []string, anchor int) (int, bool) {
	if anchor < 0 || anchor+len(expectedOld) > len(fileLines) {
		return 0, false
	}
	for i, exp := range expectedOld {
		if Normalize(fileLines[anchor+i]) != Normalize(exp) {
			return 0, false
		}
	}
	return anchor, true
}

// fuzzyMatch searches candidate start indices in
// [anchor-window, anchor+window], clipped to [0, len(fileLines)-len(expectedOld)],
// and returns the best-scoring start, its score, and whether it
// cleared MinSimilarity. Ties keep the first (lowest-index) candidate
// attaining the maximum score.
func fuzzyMatch(fileLines, expectedOld []string, anchor, window int) (int, float64, bool) {
	n := len(expectedOld)
	maxStart := len(fileLines) - n
	if maxStart < 0 {
		return 0, 0, false
	}

	lo := anchor - window
	hi := anchor + window
	if lo < 0 {
		lo = 0
	}
	if hi > maxStart {
		hi = maxStart
	}

	bestStart := -1
	bestScore := -1.0
	for start := lo; start <= hi; start++ {
		score := meanSimilarity(fileLines, expectedOld, start)
		if score > bestScore {
			bestScore = score
			bestStart = start
		}
	}

	if bestStart < 0 || bestScore < MinSimilarity {
		if bestScore < 0 {
			bestScore = 0
		}
		return bestStart, bestScore, false
	}
	return bestStart, bestScore, true
}

func meanSimilarity(fileLines, expectedOld []string, start int) float64 {
	if len(expectedOld) == 0 {
		return 1.0
	}
	total := 0.0
	for i, exp := range expectedOld {
		total += Similarity(Normalize(exp), Normalize(fileLines[start+i]))
	}
	return total / float64(len(expectedOld))
}

func spliceHunk(fileLines []string, hunk models.ParsedHunk, matchStart int) []string {
	out := make([]string, 0, len(fileLines)+len(hunk.Lines))
	out = append(out, fileLines[:matchStart]...)

	cursor := matchStart
	for _, l := range hunk.Lines {
		switch l.Kind {
		case models.LineContext:
			if cursor < len(fileLines) {
				out = append(out, fileLines[cursor])
			}
			cursor++
		case models.LineRemove:
			cursor++
		case models.LineAdd:
			out = append(out, l.Content)
		}
	}
	if cursor < len(fileLines) {
		out = append(out, fileLines[cursor:]...)
	}
	return out
}

func mismatchError(fileLines, expectedOld []string, anchor int, bestScore float64, window int) *refineerr.Error {
	lo := anchor - ErrorContext
	if lo < 0 {
		lo = 0
	}
	hi := anchor + ErrorContext
	if hi > len(fileLines) {
		hi = len(fileLines)
	}

	data := HunkMismatchData{
		FailedAtLine:    anchor + 1,
		ExpectedSnippet: truncateJoin(expectedOld),
		ActualContext:   truncateJoin(fileLines[lo:hi]),
		BestScorePct:    int(bestScore * 100),
		SearchWindow:    window,
	}
	msg := fmt.Sprintf("hunk failed to match at line %d (best match %d%%, window ±%d)", data.FailedAtLine, data.BestScorePct, window)
	return refineerr.New(refineerr.HunkMismatch, "%s", msg).WithData(data)
}

func truncateJoin(lines []string) string {
	out := make([]string, len(lines))
	for i, l := range lines {
		if len(l) > TruncateAt {
			l = l[:TruncateAt] + "…"
		}
		out[i] = l
	}
	return strings.Join(out, "\n")
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	trimmedTrailingNewline := strings.HasSuffix(content, "\n")
	lines := strings.Split(content, "\n")
	if trimmedTrailingNewline {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
