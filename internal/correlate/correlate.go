// Package correlate implements ErrorCorrelator: mapping diagnostic
// file references in command output back to the most recent iteration
// that touched those files, plus a secondary cascading-failure
// detector over recent history (spec.md §4.10).
package correlate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/thebtf/refineloop/pkg/models"
)

// Three reference forms spec.md §4.10 names: a bare "path:line:col",
// a stack-frame "at ... (path:line:col)", and "Error in path". None of
// these need lookahead/lookbehind, so the standard library's regexp
// is sufficient here (unlike outputparse's TypeScript-diagnostic
// suggestion extraction, which needed a lookbehind).
var referenceForms = []*regexp.Regexp{
	regexp.MustCompile(`([\w./-]+\.\w+):(\d+):(\d+)`),
	regexp.MustCompile(`at .*\(([\w./-]+\.\w+):\d+:\d+\)`),
	regexp.MustCompile(`Error in ([\w./-]+\.\w+)`),
}

// Analysis is ErrorCorrelator's output for one evaluation.
type Analysis struct {
	LikelyCulprit  *models.IterationContext
	LastSuccessful *models.IterationContext
	Lines          []string
	Suggestions    []string
}

// ReferencedFiles extracts the union of file paths mentioned in output
// across all three reference forms.
func ReferencedFiles(output string) []string {
	seen := map[string]bool{}
	var files []string
	for _, re := range referenceForms {
		for _, m := range re.FindAllStringSubmatch(output, -1) {
			if len(m) < 2 {
				continue
			}
			f := m[1]
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}
	return files
}

// Correlate finds the likely culprit and last-successful iterations
// for the file references found in output, walking iterations
// newest-first, and assembles human-readable analysis lines and
// mode-switch suggestions.
func Correlate(output string, iterations []*models.IterationContext, recentModes []models.CandidateMode) Analysis {
	files := ReferencedFiles(output)
	var a Analysis
	if len(files) == 0 {
		return a
	}

	for i := len(iterations) - 1; i >= 0; i-- {
		it := iterations[i]
		if a.LikelyCulprit == nil && intersects(it.FilesModified, files) {
			a.LikelyCulprit = it
		}
		if a.LastSuccessful == nil && it.Success {
			a.LastSuccessful = it
		}
		if a.LikelyCulprit != nil && a.LastSuccessful != nil {
			break
		}
	}

	if a.LikelyCulprit != nil {
		a.Lines = append(a.Lines, fmt.Sprintf(
			"likely culprit: step %d (mode=%s) touched a file referenced in the error output",
			a.LikelyCulprit.Step, a.LikelyCulprit.Mode))
	}
	if a.LastSuccessful != nil {
		a.Lines = append(a.Lines, fmt.Sprintf("last successful step: %d", a.LastSuccessful.Step))
	}

	a.Suggestions = modeSuggestions(recentModes)
	return a
}

// intersects reports whether any element of modified contains, or is
// contained by, any element of referenced (substring containment
// either direction, per spec.md §4.10 — diagnostic paths and
// session-relative paths don't always agree on a common prefix).
func intersects(modified, referenced []string) bool {
	for _, m := range modified {
		for _, r := range referenced {
			if strings.Contains(m, r) || strings.Contains(r, m) {
				return true
			}
		}
	}
	return false
}

// modeSuggestions advises switching to modify mode after repeated
// hunk-application failures in diff/patch mode.
func modeSuggestions(recentModes []models.CandidateMode) []string {
	failures := 0
	for _, m := range recentModes {
		if m == models.ModeDiff || m == models.ModePatch {
			failures++
		} else {
			failures = 0
		}
	}
	if failures >= 2 {
		return []string{"repeated diff/patch application failures — consider submitting with mode=modify instead"}
	}
	return nil
}

// CascadeWarnings inspects the last three history entries for two
// escalating-failure patterns (spec.md §4.10's secondary detector).
func CascadeWarnings(history []*models.EvalResult) []string {
	n := len(history)
	if n < 3 {
		return nil
	}
	last3 := history[n-3:]

	var warnings []string
	if buildCascading(last3) {
		warnings = append(warnings, "build failure likely cascading to tests")
	}
	if testFailuresIncreasing(last3) {
		warnings = append(warnings, "test failures increasing — fundamental issue")
	}
	return warnings
}

func buildCascading(last3 []*models.EvalResult) bool {
	return last3[0].OkBuild && !last3[1].OkBuild && !last3[2].OkBuild
}

func testFailuresIncreasing(last3 []*models.EvalResult) bool {
	rates := make([]float64, 3)
	for i, r := range last3 {
		if r.Tests == nil || r.Tests.Total == 0 {
			return false
		}
		rates[i] = float64(r.Tests.Passed) / float64(r.Tests.Total)
	}
	return rates[0] > 0.8 && rates[1] < 0.5 && rates[2] < rates[1]
}
