package outputparse

import (
	"strconv"

	"github.com/dlclark/regexp2"
)

var (
	// Go benchmark: "BenchmarkFoo-8    1000000    1234 ns/op"
	goBench = regexp2.MustCompile(`(?m)^Benchmark\S+\s+\d+\s+([\d.]+)\s+ns/op`, regexp2.None)

	// hyperfine/shell timing summaries: "Time (mean ± σ): 12.3 ms" or
	// a bare "real 0m1.234s" from the shell builtin time command.
	hyperfineMean = regexp2.MustCompile(`Time \(mean[^:]*\):\s+([\d.]+)\s*ms`, regexp2.None)
	shellReal     = regexp2.MustCompile(`real\s+(?:(\d+)m)?([\d.]+)s`, regexp2.None)
)

// ParseBenchValue extracts a single scalar perf value (lower is
// better) from bench command output, trying known formats in turn.
// ok is false when none match, in which case the Scorer treats the
// perf signal as absent though a bench command was configured (B3).
func ParseBenchValue(output string) (float64, bool) {
	if v, ok := matchFloat(goBench, output, 1); ok {
		return v, true
	}
	if v, ok := matchFloat(hyperfineMean, output, 1); ok {
		return v, true
	}
	if m, err := shellReal.FindStringMatch(output); err == nil && m != nil {
		groups := m.Groups()
		minutes := atoiGroup(groups[1])
		seconds := atofGroup(groups[2])
		return float64(minutes)*60 + seconds, true
	}
	return 0, false
}

func matchFloat(re *regexp2.Regexp, s string, group int) (float64, bool) {
	m, err := re.FindStringMatch(s)
	if err != nil || m == nil {
		return 0, false
	}
	return atofGroup(m.Groups()[group]), true
}

func atofGroup(g *regexp2.Group) float64 {
	if g == nil || g.String() == "" {
		return 0
	}
	f, err := strconv.ParseFloat(g.String(), 64)
	if err != nil {
		return 0
	}
	return f
}
