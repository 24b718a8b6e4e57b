// Package diffparser parses unified-diff text into files and hunks
// (spec.md §4.3). It never applies a diff — see internal/patch for
// that — it only classifies structure.
package diffparser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/thebtf/refineloop/internal/refineerr"
	"github.com/thebtf/refineloop/pkg/models"
)

var (
	gitHeaderRe = regexp.MustCompile(`^diff --git a/(.+) b/(.+)$`)
	hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)
)

// Parse parses git-style unified diff text into an ordered list of
// per-file hunks.
func Parse(text string) ([]models.ParsedFileDiff, *refineerr.Error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var files []models.ParsedFileDiff
	var cur *models.ParsedFileDiff
	var hunk *models.ParsedHunk

	closeHunk := func() {
		if cur != nil && hunk != nil {
			cur.Hunks = append(cur.Hunks, *hunk)
			hunk = nil
		}
	}
	closeFile := func() {
		closeHunk()
		if cur != nil {
			files = append(files, *cur)
			cur = nil
		}
	}

	i := 0
	for i < len(lines) {
		line := lines[i]

		if m := gitHeaderRe.FindStringSubmatch(line); m != nil {
			closeFile()
			cur = &models.ParsedFileDiff{Path: m[2]}
			i++
			continue
		}

		if strings.HasPrefix(line, "--- ") {
			// A ---/+++ pair also starts a file when no `diff --git`
			// header preceded it.
			if i+1 < len(lines) && strings.HasPrefix(lines[i+1], "+++ ") {
				closeFile()
				newPath := strings.TrimSpace(strings.TrimPrefix(lines[i+1], "+++ "))
				newPath = strings.TrimPrefix(newPath, "b/")
				cur = &models.ParsedFileDiff{Path: newPath}
				i += 2
				continue
			}
		}

		if m := hunkHeaderRe.FindStringSubmatch(line); m != nil {
			if cur == nil {
				return nil, refineerr.New(refineerr.InvalidDiff, "hunk header with no preceding file header")
			}
			closeHunk()
			h := models.ParsedHunk{
				OldStart: atoiDefault(m[1], 1),
				OldLines: atoiDefault(m[2], 1),
				NewStart: atoiDefault(m[3], 1),
				NewLines: atoiDefault(m[4], 1),
			}
			hunk = &h
			i++
			continue
		}

		if hunk != nil {
			if line == "" {
				hunk.Lines = append(hunk.Lines, models.HunkLine{Kind: models.LineContext, Content: ""})
			} else {
				switch line[0] {
				case '+':
					hunk.Lines = append(hunk.Lines, models.HunkLine{Kind: models.LineAdd, Content: line[1:]})
				case '-':
					hunk.Lines = append(hunk.Lines, models.HunkLine{Kind: models.LineRemove, Content: line[1:]})
				case ' ':
					hunk.Lines = append(hunk.Lines, models.HunkLine{Kind: models.LineContext, Content: line[1:]})
				default:
					// Stray line (e.g. "\ No newline at end of file") —
					// ignore rather than mis-tagging it as content.
				}
			}
		}
		i++
	}
	closeFile()

	if len(files) == 0 {
		return nil, refineerr.New(refineerr.InvalidDiff, "no file headers or hunks found in diff")
	}
	return files, nil
}

// atoiDefault parses s as an int, returning def when s is empty or
// unparseable (omitted hunk counts default to 1 per spec.md §4.3).
func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// HasHunk reports whether text contains at least one `@@` hunk
// header, required for patch-mode submissions (spec.md §4.6).
func HasHunk(text string) bool {
	return hunkHeaderRe.MatchString(text)
}
