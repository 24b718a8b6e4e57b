// Package edit implements EditExecutor: applying a batch of semantic
// edit operations (string replace, insert/replace/delete line or
// range) to file content (spec.md §4.5).
package edit

import (
	"sort"
	"strings"

	"github.com/thebtf/refineloop/internal/refineerr"
	"github.com/thebtf/refineloop/pkg/models"
)

// Apply applies ops to content, sorting them by descending primary
// line number first so earlier edits in the batch never shift the
// line numbers later edits are anchored to (spec.md §4.5, property
// P9). Replace{all:false/true} operations have no line anchor and are
// applied last, in the order given, against the already
// line-edited content.
func Apply(content string, ops []models.EditOperation) (string, *refineerr.Error) {
	lineOps := make([]models.EditOperation, 0, len(ops))
	replaceOps := make([]models.EditOperation, 0, len(ops))
	for _, op := range ops {
		if op.Kind == models.EditReplace {
			replaceOps = append(replaceOps, op)
		} else {
			lineOps = append(lineOps, op)
		}
	}
	sort.SliceStable(lineOps, func(i, j int) bool {
		return lineOps[i].PrimaryLine() > lineOps[j].PrimaryLine()
	})

	if err := checkDuplicateDeclarations(content, lineOps); err != nil {
		return "", err
	}

	lines := splitLines(content)
	for _, op := range lineOps {
		var err *refineerr.Error
		lines, err = applyLineOp(lines, op)
		if err != nil {
			return "", err
		}
	}

	out := joinLines(lines)
	for _, op := range replaceOps {
		var err *refineerr.Error
		out, err = applyReplace(out, op)
		if err != nil {
			return "", err
		}
	}
	return out, nil
}

func applyLineOp(lines []string, op models.EditOperation) ([]string, *refineerr.Error) {
	n := len(lines)
	switch op.Kind {
	case models.EditInsertBefore:
		if op.Line < 1 || op.Line > n+1 {
			return nil, invalidLine(op.Line, 1, n+1)
		}
		return insertAt(lines, op.Line-1, op.Content), nil

	case models.EditInsertAfter:
		if op.Line < 1 || op.Line > n {
			return nil, invalidLine(op.Line, 1, n)
		}
		return insertAt(lines, op.Line, op.Content), nil

	case models.EditReplaceLine:
		if op.Line < 1 || op.Line > n {
			return nil, invalidLine(op.Line, 1, n)
		}
		out := cloneLines(lines)
		out[op.Line-1] = op.Content
		return out, nil

	case models.EditDeleteLine:
		if op.Line < 1 || op.Line > n {
			return nil, invalidLine(op.Line, 1, n)
		}
		return deleteRange(lines, op.Line, op.Line), nil

	case models.EditReplaceRange:
		if err := validateRange(op.StartLine, op.EndLine, n); err != nil {
			return nil, err
		}
		out := make([]string, 0, n)
		out = append(out, lines[:op.StartLine-1]...)
		out = append(out, strings.Split(op.Content, "\n")...)
		out = append(out, lines[op.EndLine:]...)
		return out, nil

	case models.EditDeleteRange:
		if err := validateRange(op.StartLine, op.EndLine, n); err != nil {
			return nil, err
		}
		return deleteRange(lines, op.StartLine, op.EndLine), nil

	default:
		return lines, nil
	}
}

func applyReplace(content string, op models.EditOperation) (string, *refineerr.Error) {
	if !strings.Contains(content, op.OldText) {
		return "", refineerr.New(refineerr.ReplaceNotFound, "text not found: %q", truncate(op.OldText, 80))
	}
	if op.All {
		return strings.ReplaceAll(content, op.OldText, op.NewText), nil
	}
	return strings.Replace(content, op.OldText, op.NewText, 1), nil
}

func validateRange(start, end, n int) *refineerr.Error {
	if start < 1 || end < start || end > n {
		return refineerr.New(refineerr.InvalidRange, "invalid range [%d,%d] for %d-line file", start, end, n)
	}
	return nil
}

func invalidLine(line, lo, hi int) *refineerr.Error {
	return refineerr.New(refineerr.InvalidLine, "line %d out of range [%d,%d]", line, lo, hi)
}

func insertAt(lines []string, idx int, content string) []string {
	inserted := strings.Split(content, "\n")
	out := make([]string, 0, len(lines)+len(inserted))
	out = append(out, lines[:idx]...)
	out = append(out, inserted...)
	out = append(out, lines[idx:]...)
	return out
}

func deleteRange(lines []string, start, end int) []string {
	out := make([]string, 0, len(lines)-(end-start+1))
	out = append(out, lines[:start-1]...)
	out = append(out, lines[end:]...)
	return out
}

func cloneLines(lines []string) []string {
	out := make([]string, len(lines))
	copy(out, lines)
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	trailingNL := strings.HasSuffix(content, "\n")
	lines := strings.Split(content, "\n")
	if trailingNL {
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
