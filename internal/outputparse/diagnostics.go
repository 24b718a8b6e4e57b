package outputparse

import (
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/thebtf/refineloop/pkg/models"
)

// maxDiagnostics bounds how many diagnostics a single parse returns;
// the feedback assembler (spec.md §4.12 step 10) only ever surfaces
// the first 3 anyway, but keeping the parser's own output modest
// avoids building a large slice for a noisy build log.
const maxDiagnostics = 20

var (
	// TypeScript-style: "src/foo.ts(12,5): error TS2345: message"
	tsDiagRe = regexp2.MustCompile(
		`(?m)^(?<file>[^\s(][^(\n]*?)\((?<line>\d+),(?<col>\d+)\):\s*error\s*(?<code>TS\d+)?:?\s*(?<message>.+)$`,
		regexp2.None)

	// Go compiler / vet style: "./foo.go:12:5: undefined: bar"
	goDiagRe = regexp2.MustCompile(
		`(?m)^(?<file>[^\s:]+\.go):(?<line>\d+):(?<col>\d+):\s*(?<message>.+)$`,
		regexp2.None)

	// "Did you mean 'X'?" style hints, used to populate Suggestion
	// without duplicating it inside Message.
	suggestionRe = regexp2.MustCompile(`(?i)did you mean ['"]?([^'"?]+)['"]?\??`, regexp2.None)
)

// ParseDiagnostics extracts structured compiler diagnostics from
// output, trying TypeScript- then Go-style formats. Never errors: an
// unrecognized format yields an empty slice.
func ParseDiagnostics(output string) []models.Diagnostic {
	if diags := matchDiagnostics(tsDiagRe, output, true); len(diags) > 0 {
		return diags
	}
	return matchDiagnostics(goDiagRe, output, false)
}

func matchDiagnostics(re *regexp2.Regexp, output string, hasCode bool) []models.Diagnostic {
	var out []models.Diagnostic
	m, err := re.FindStringMatch(output)
	for err == nil && m != nil && len(out) < maxDiagnostics {
		g := groupMap(m)
		message := strings.TrimSpace(g["message"])
		d := models.Diagnostic{
			File:       strings.TrimSpace(g["file"]),
			Line:       atoi(g["line"]),
			Column:     atoi(g["col"]),
			Message:    message,
			Suggestion: extractSuggestion(message),
		}
		if hasCode {
			d.Code = g["code"]
		}
		out = append(out, d)
		m, err = re.FindNextMatch(m)
	}
	return out
}

func groupMap(m *regexp2.Match) map[string]string {
	out := make(map[string]string, len(m.Groups()))
	for _, g := range m.Groups() {
		out[g.Name] = g.String()
	}
	return out
}

func extractSuggestion(message string) string {
	m, err := suggestionRe.FindStringMatch(message)
	if err != nil || m == nil {
		return ""
	}
	groups := m.Groups()
	if len(groups) < 2 {
		return ""
	}
	return strings.TrimSpace(groups[1].String())
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
