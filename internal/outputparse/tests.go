// Package outputparse implements TestOutputParser and
// BuildErrorParser: best-effort extraction of test pass/fail/total
// counts and structured compiler diagnostics from arbitrary command
// output (spec.md §2 component 4). Parsing failure is never an error
// — an unrecognized format simply yields zero results, since a
// refinement session must keep functioning against repos whose
// toolchains don't match any known pattern.
package outputparse

import (
	"strconv"

	"github.com/dlclark/regexp2"
	"github.com/thebtf/refineloop/pkg/models"
)

var (
	// Jest/vitest: "Tests:       2 failed, 8 passed, 10 total"
	jestSummary = regexp2.MustCompile(`Tests:\s+(?:(\d+) failed,\s+)?(?:(\d+) passed,\s+)?(\d+) total`, regexp2.None)

	// pytest: "2 failed, 8 passed in 1.23s" (order of clauses varies,
	// hence the lookahead-driven field extraction below rather than a
	// single fixed-order pattern).
	pytestFailed = regexp2.MustCompile(`(\d+) failed`, regexp2.None)
	pytestPassed = regexp2.MustCompile(`(\d+) passed`, regexp2.None)

	// go test: "--- PASS: TestFoo" / "--- FAIL: TestBar" lines, plus a
	// trailing "FAIL" or "ok" package summary line we ignore (the
	// per-test lines already give us an exact count).
	goPass = regexp2.MustCompile(`(?m)^--- PASS: `, regexp2.None)
	goFail = regexp2.MustCompile(`(?m)^--- FAIL: `, regexp2.None)
)

// ParseTestOutput extracts {passed, failed, total} from output,
// trying known test-runner summary formats in turn. ok is false when
// no recognized format was found, in which case counts is zero-valued
// and the caller (Scorer) treats the test signal as absent.
func ParseTestOutput(output string) (counts models.TestCounts, ok bool) {
	if c, found := parseJest(output); found {
		return c, true
	}
	if c, found := parsePytest(output); found {
		return c, true
	}
	if c, found := parseGoTest(output); found {
		return c, true
	}
	return models.TestCounts{}, false
}

func parseJest(output string) (models.TestCounts, bool) {
	m, err := jestSummary.FindStringMatch(output)
	if err != nil || m == nil {
		return models.TestCounts{}, false
	}
	groups := m.Groups()
	total := atoiGroup(groups[3])
	if total == 0 {
		return models.TestCounts{}, false
	}
	failed := atoiGroup(groups[1])
	passed := atoiGroup(groups[2])
	if passed == 0 && failed < total {
		passed = total - failed
	}
	return models.TestCounts{Passed: passed, Failed: failed, Total: total}, true
}

func parsePytest(output string) (models.TestCounts, bool) {
	fm, ferr := pytestFailed.FindStringMatch(output)
	pm, perr := pytestPassed.FindStringMatch(output)
	if ferr != nil && perr != nil {
		return models.TestCounts{}, false
	}
	if fm == nil && pm == nil {
		return models.TestCounts{}, false
	}
	failed := 0
	if fm != nil {
		failed = atoiGroup(fm.Groups()[1])
	}
	passed := 0
	if pm != nil {
		passed = atoiGroup(pm.Groups()[1])
	}
	return models.TestCounts{Passed: passed, Failed: failed, Total: passed + failed}, true
}

func parseGoTest(output string) (models.TestCounts, bool) {
	passMatches, _ := countMatches(goPass, output)
	failMatches, _ := countMatches(goFail, output)
	if passMatches == 0 && failMatches == 0 {
		return models.TestCounts{}, false
	}
	return models.TestCounts{
		Passed: passMatches,
		Failed: failMatches,
		Total:  passMatches + failMatches,
	}, true
}

func countMatches(re *regexp2.Regexp, s string) (int, error) {
	count := 0
	m, err := re.FindStringMatch(s)
	for err == nil && m != nil {
		count++
		m, err = re.FindNextMatch(m)
	}
	return count, nil
}

func atoiGroup(g *regexp2.Group) int {
	if g == nil || g.String() == "" {
		return 0
	}
	n, err := strconv.Atoi(g.String())
	if err != nil {
		return 0
	}
	return n
}
