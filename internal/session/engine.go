package session

import (
	"context"
	"fmt"
	"time"

	"github.com/thebtf/refineloop/internal/candidate"
	"github.com/thebtf/refineloop/internal/correlate"
	"github.com/thebtf/refineloop/internal/execrunner"
	"github.com/thebtf/refineloop/internal/fsys"
	"github.com/thebtf/refineloop/internal/halt"
	"github.com/thebtf/refineloop/internal/outputparse"
	"github.com/thebtf/refineloop/internal/pathguard"
	"github.com/thebtf/refineloop/internal/refineerr"
	"github.com/thebtf/refineloop/internal/scoring"
	"github.com/thebtf/refineloop/internal/staletrack"
	"github.com/thebtf/refineloop/pkg/models"
)

// SubmitOptions carries submitCandidate's arguments (spec.md §6).
type SubmitOptions struct {
	Candidate models.Candidate
	Rationale string
}

// Submit runs one candidate through the full evaluation pipeline:
// stale-context check, apply, run build/test/lint/bench, score,
// track improvement, assemble feedback and decide whether to halt
// (spec.md §4.12).
func Submit(ctx context.Context, fsImpl fsys.FS, session *models.Session, opts SubmitOptions) (*models.EvalResult, *refineerr.Error) {
	start := time.Now()
	targetPaths, err := candidate.TargetPaths(opts.Candidate)
	if err != nil {
		return nil, err
	}
	absPaths := make([]string, 0, len(targetPaths))
	for _, p := range targetPaths {
		abs, rerr := pathguard.Resolve(session.RepoRoot, p)
		if rerr != nil {
			return nil, rerr
		}
		absPaths = append(absPaths, abs)
	}

	staleWarnings := staletrack.StaleWarnings(session, absPaths)

	applyResult, applyErr := candidate.Apply(fsImpl, session.RepoRoot, opts.Candidate)
	if applyErr != nil {
		return nil, applyErr
	}
	staletrack.RefreshAfterApply(session, fsImpl, absPaths)

	session.Step++
	if opts.Rationale != "" {
		session.Rationale = truncate(opts.Rationale, MaxRationaleLength)
	}

	timeout := time.Duration(session.TimeoutSec) * time.Second
	lintTimeout := LintTimeoutFloor
	if half := timeout / 2; half > lintTimeout {
		lintTimeout = half
	}

	buildOut, buildOk := runStep(ctx, session.Commands.Build, session.CommandStatus.Build, session.RepoRoot, timeout)
	testOut, testRan, testOk := runTestStep(ctx, session, timeout)
	lintOut, lintOk := runStep(ctx, session.Commands.Lint, session.CommandStatus.Lint, session.RepoRoot, lintTimeout)
	perf, benchRan := runBenchStep(ctx, session, timeout)

	var tests *models.TestCounts
	if testRan {
		if counts, ok := outputparse.ParseTestOutput(testOut); ok {
			tests = &counts
		}
	}

	calc := scoring.NewCalculator(session.Weights)
	calc.SeedBestPerf(session.BestPerf)
	components := calc.Score(scoring.Inputs{
		Tests:    tests,
		Perf:     perf,
		BuildOk:  buildOk,
		LintOk:   lintOk,
		TestsRun: testRan,
		BenchRun: benchRan,
	})
	session.BestPerf = calc.BestPerf()

	improved, newBest := scoring.Improved(session.BestScore, components.Score)
	if improved {
		session.BestScore = newBest
		session.NoImproveStreak = 0
	} else {
		session.NoImproveStreak++
	}
	session.EmaScore = scoring.UpdateEMA(session.Step, session.EmaScore, components.Score, session.EmaAlpha)

	success := buildOk && (tests == nil || tests.AllPassed()) && lintOk
	session.IterationContext = append(session.IterationContext, &models.IterationContext{
		Step:          session.Step,
		Mode:          string(opts.Candidate.Mode),
		FilesModified: absPaths,
		Success:       success,
	})

	combinedOutput := buildOut + "\n" + lintOut
	diagnostics := outputparse.ParseDiagnostics(combinedOutput)
	if len(diagnostics) > 3 {
		diagnostics = diagnostics[:3]
	}

	analysis := correlate.Correlate(combinedOutput, session.IterationContext, recentModes(session))
	cascades := correlate.CascadeWarnings(session.History)

	feedback := assembleFeedback(staleWarnings, buildOk, lintOk, testRan, testOk, tests, analysis, cascades, diagnostics)

	shouldHalt, reasons := halt.Decide(session.Halt, session.Step, tests, components.Score, session.NoImproveStreak)

	result := &models.EvalResult{
		Step:           session.Step,
		Score:          components.Score,
		EmaScore:       session.EmaScore,
		Tests:          tests,
		Perf:           perf,
		OkBuild:        buildOk,
		OkLint:         lintOk,
		ShouldHalt:     shouldHalt,
		Reasons:        reasons,
		Feedback:       feedback,
		Diagnostics:    diagnostics,
		ModeSuggestion: firstOrEmpty(analysis.Suggestions),
	}
	session.History = append(session.History, result)

	session.UndoStack = append(session.UndoStack, &models.CandidateSnapshot{
		Timestamp:  time.Now(),
		PreContent: applyResult.PreContent,
		Rationale:  session.Rationale,
		Candidate:  opts.Candidate,
		Result:     result,
		Step:       session.Step,
	})

	metrics.RecordCandidateSubmitted(ctx, string(opts.Candidate.Mode), components.Score, time.Since(start).Seconds())
	if shouldHalt {
		metrics.RecordSessionHalted(ctx, firstOrEmpty(reasons))
	}

	return result, nil
}

// runStep runs command once, skipping execution in favor of a
// synthetic success for an unconfigured or previously-probed-as-
// unavailable command (spec.md §4.12 step 7, B1).
func runStep(ctx context.Context, command string, status models.CommandStatus, dir string, timeout time.Duration) (string, bool) {
	if command == "" || status == models.StatusUnavailable {
		return "", true
	}
	res := execrunner.Run(ctx, command, dir, timeout)
	return res.Stdout + res.Stderr, res.Ok
}

func runTestStep(ctx context.Context, session *models.Session, timeout time.Duration) (string, bool, bool) {
	if session.Commands.Test == "" || session.CommandStatus.Test == models.StatusUnavailable {
		return "", false, true
	}
	res := execrunner.Run(ctx, session.Commands.Test, session.RepoRoot, timeout)
	return res.Stdout + res.Stderr, true, res.Ok
}

func runBenchStep(ctx context.Context, session *models.Session, timeout time.Duration) (*models.PerfResult, bool) {
	if session.Commands.Bench == "" || session.CommandStatus.Bench == models.StatusUnavailable {
		return nil, false
	}
	res := execrunner.Run(ctx, session.Commands.Bench, session.RepoRoot, timeout)
	value, ok := outputparse.ParseBenchValue(res.Stdout + res.Stderr)
	if !ok {
		return nil, true
	}
	return &models.PerfResult{Value: value}, true
}

// recentModes returns the candidate modes of the last few iterations,
// most recent last, for ErrorCorrelator's mode-switch suggestion.
func recentModes(session *models.Session) []models.CandidateMode {
	n := len(session.IterationContext)
	start := 0
	if n > 5 {
		start = n - 5
	}
	modes := make([]models.CandidateMode, 0, n-start)
	for _, ic := range session.IterationContext[start:] {
		modes = append(modes, models.CandidateMode(ic.Mode))
	}
	return modes
}

func assembleFeedback(
	stale []string,
	buildOk, lintOk, testsRan, testsExitOk bool,
	tests *models.TestCounts,
	analysis correlate.Analysis,
	cascades []string,
	diagnostics []models.Diagnostic,
) []string {
	hints := make([]string, 0, MaxHintLines)
	hints = append(hints, stale...)

	if !buildOk {
		hints = append(hints, "build failed")
	}
	if testsRan {
		switch {
		case tests == nil:
			hints = append(hints, "tests ran but produced no parseable summary")
		case !tests.AllPassed():
			hints = append(hints, fmt.Sprintf("tests: %d/%d passed", tests.Passed, tests.Total))
		}
	}
	if !lintOk {
		hints = append(hints, "lint failed")
	}
	hints = append(hints, analysis.Lines...)
	hints = append(hints, cascades...)
	if len(hints) > MaxHintLines {
		hints = hints[:MaxHintLines]
	}

	items := append(hints, analysis.Suggestions...)
	for _, d := range diagnostics {
		line := fmt.Sprintf("%s:%d:%d: %s", d.File, d.Line, d.Column, d.Message)
		if d.Suggestion != "" {
			line += " (" + d.Suggestion + ")"
		}
		items = append(items, line)
	}

	items = dedupe(items)
	if len(items) > MaxFeedbackItems {
		items = items[:MaxFeedbackItems]
	}
	return items
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, it := range items {
		if seen[it] {
			continue
		}
		seen[it] = true
		out = append(out, it)
	}
	return out
}

func firstOrEmpty(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[0]
}
