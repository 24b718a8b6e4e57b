// Package halt implements HaltPolicy: the ACT-style adaptive stopping
// decision evaluated after every submission (spec.md §4.8).
package halt

import (
	"fmt"

	"github.com/thebtf/refineloop/pkg/models"
)

// Decide evaluates the three halting criteria in spec-mandated order
// and returns on the first match. If none match, shouldHalt is false
// and reasons is empty.
//
// When no test command is configured for the session, tests is nil;
// per spec.md's explicit resolution of this case, an absent test
// signal counts as tests passing (a repo with no test command has
// nothing to fail), so the first criterion is still gated only by
// step and score.
func Decide(cfg models.HaltConfig, step int, tests *models.TestCounts, score float64, noImproveStreak int) (bool, []string) {
	if step >= cfg.MinSteps && testsPass(tests) && score >= cfg.PassThreshold {
		return true, []string{fmt.Sprintf("tests pass and score %.4f >= threshold %.4f", score, cfg.PassThreshold)}
	}
	if noImproveStreak >= cfg.PatienceNoImprove {
		return true, []string{fmt.Sprintf("no improvement for %d steps (patience=%d)", noImproveStreak, cfg.PatienceNoImprove)}
	}
	if step >= cfg.MaxSteps {
		return true, []string{fmt.Sprintf("reached max steps %d", cfg.MaxSteps)}
	}
	return false, nil
}

// testsPass reports whether tests are passing, treating an absent
// test signal (no test command configured, or none parseable) as
// passing rather than failing.
func testsPass(tests *models.TestCounts) bool {
	return tests == nil || tests.Total == 0 || tests.Passed == tests.Total
}
