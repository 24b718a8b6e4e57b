package edit

import (
	"regexp"
	"strings"

	"github.com/thebtf/refineloop/internal/refineerr"
	"github.com/thebtf/refineloop/pkg/models"
)

// declRe matches a top-level exported declaration across the target
// languages the engine patches (spec.md §4.5): Go's func (with an
// optional method receiver ahead of the identifier), type, const and
// var, plus class, let, interface and enum for TS/JS-style targets.
var declRe = regexp.MustCompile(`^\s*func\s*(?:\([^)]*\)\s*)?([A-Z]\w*)|^\s*(?:type|const|var|class|let|interface|enum)\s+([A-Z]\w*)`)

// duplicateWindow is how many lines on either side of an insertion
// point are scanned for a pre-existing declaration of the same name.
const duplicateWindow = 10

// checkDuplicateDeclarations rejects insertBefore/insertAfter
// operations whose inserted content declares an exported identifier
// that already exists within duplicateWindow lines of the insertion
// point (spec.md §4.5) — a cheap guard against the common mistake of
// re-adding a function the candidate already edited elsewhere in the
// same batch.
func checkDuplicateDeclarations(content string, lineOps []models.EditOperation) *refineerr.Error {
	lines := splitLines(content)
	for _, op := range lineOps {
		if op.Kind != models.EditInsertBefore && op.Kind != models.EditInsertAfter {
			continue
		}
		name := declaredName(op.Content)
		if name == "" {
			continue
		}
		anchor := op.Line - 1
		lo := anchor - duplicateWindow
		if lo < 0 {
			lo = 0
		}
		hi := anchor + duplicateWindow
		if hi > len(lines) {
			hi = len(lines)
		}
		for i := lo; i < hi; i++ {
			if n := declaredName(lines[i]); n == name {
				return refineerr.New(refineerr.DuplicateDeclaration,
					"%q is already declared near line %d", name, i+1)
			}
		}
	}
	return nil
}

func declaredName(text string) string {
	firstLine := text
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		firstLine = text[:idx]
	}
	m := declRe.FindStringSubmatch(firstLine)
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}
