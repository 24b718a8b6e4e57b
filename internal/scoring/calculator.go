// Package scoring implements Scorer: combining build/test/lint/perf
// signals into a single bounded quality score, with EMA smoothing and
// improvement tracking (spec.md §4.7).
package scoring

import "github.com/thebtf/refineloop/pkg/models"

// ScoreEpsilon is the tolerance used when comparing a new score
// against the running best, spec.md §6.
const ScoreEpsilon = models.ScoreEpsilon

// Inputs carries the raw per-category signals for one evaluation.
// Tests and Perf are nil when no corresponding command was configured.
type Inputs struct {
	Tests      *models.TestCounts
	Perf       *models.PerfResult
	BuildOk    bool
	LintOk     bool
	TestsRun   bool // a test command was configured, whether or not it produced a parseable result
	BenchRun   bool // a bench command was configured, whether or not a perf value was produced
}

// Calculator computes the weighted aggregate score and tracks the
// running best-perf baseline used to normalize sPerf across
// evaluations (lower perf value is better, e.g. a duration).
type Calculator struct {
	weights  models.Weights
	bestPerf *float64
}

// NewCalculator builds a Calculator for a session's configured
// weights. bestPerf starts unset; the first perf observation seeds it.
func NewCalculator(weights models.Weights) *Calculator {
	return &Calculator{weights: weights}
}

// Components is the per-signal breakdown of one Score call, useful
// for feedback assembly and debugging.
type Components struct {
	SBuild float64
	STests float64
	SLint  float64
	SPerf  float64
	Score  float64
}

// Score computes the weighted aggregate in [0,1] from in, updating
// the calculator's bestPerf baseline as a side effect (spec.md §4.7).
func (c *Calculator) Score(in Inputs) Components {
	sBuild := 0.0
	if in.BuildOk {
		sBuild = 1.0
	}
	sLint := 0.0
	if in.LintOk {
		sLint = 1.0
	}
	sTests := c.scoreTests(in)
	sPerf := c.scorePerf(in)

	sum := c.weights.Build + c.weights.Test + c.weights.Lint + c.weights.Perf
	denom := sum
	if denom < 1 {
		denom = 1
	}
	weighted := c.weights.Build*sBuild + c.weights.Test*sTests + c.weights.Lint*sLint + c.weights.Perf*sPerf
	score := clamp01(weighted / denom)

	return Components{SBuild: sBuild, STests: sTests, SLint: sLint, SPerf: sPerf, Score: score}
}

func (c *Calculator) scoreTests(in Inputs) float64 {
	if in.Tests != nil && in.Tests.Total > 0 {
		return clamp01(float64(in.Tests.Passed) / float64(in.Tests.Total))
	}
	if in.TestsRun {
		return 0
	}
	return 1
}

func (c *Calculator) scorePerf(in Inputs) float64 {
	if in.Perf == nil {
		if in.BenchRun {
			return 0
		}
		return 1
	}
	value := in.Perf.Value
	if c.bestPerf == nil {
		best := value
		c.bestPerf = &best
		return 1.0
	}
	if value <= 0 {
		return 0
	}
	s := clamp01(*c.bestPerf / value)
	if value < *c.bestPerf {
		*c.bestPerf = value
	}
	return s
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// UpdateEMA applies spec.md §4.7's smoothing rule: at step 1, ema is
// seeded to score; thereafter it's the exponential blend with alpha.
func UpdateEMA(step int, prevEma, score, alpha float64) float64 {
	if step <= 1 {
		return score
	}
	return alpha*prevEma + (1-alpha)*score
}

// BestPerf returns the calculator's current best-perf baseline, for a
// caller that needs to persist it across Calculator instances (e.g.
// SessionEngine, which rebuilds a Calculator per submission).
func (c *Calculator) BestPerf() *float64 {
	return c.bestPerf
}

// SeedBestPerf primes the calculator's best-perf baseline from a
// previously persisted value before the first Score call.
func (c *Calculator) SeedBestPerf(v *float64) {
	c.bestPerf = v
}

// Improved reports whether score clears bestScore by more than
// ScoreEpsilon, and returns the new best (spec.md I2/I3).
func Improved(bestScore, score float64) (bool, float64) {
	if score > bestScore+ScoreEpsilon {
		return true, score
	}
	return false, bestScore
}
