package models

// TestCounts is the parsed pass/fail/total from a test command's
// output. A nil *TestCounts on EvalResult means no test command was
// configured or no parseable summary was found.
type TestCounts struct {
	Passed int `json:"passed"`
	Failed int `json:"failed"`
	Total  int `json:"total"`
}

// AllPassed reports whether every discovered test passed. Total==0 is
// not considered a pass — callers must check Total>0 first, matching
// HaltPolicy's "tests pass" gate in spec.md §4.8.
func (t *TestCounts) AllPassed() bool {
	return t != nil && t.Total > 0 && t.Passed == t.Total
}

// PerfResult is the single scalar benchmark observation for a step.
type PerfResult struct {
	Value float64 `json:"value"`
}

// Diagnostic is one structured compiler/linter finding, as produced by
// BuildErrorParser.
type Diagnostic struct {
	File       string `json:"file"`
	Message    string `json:"message"`
	Code       string `json:"code,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
	Line       int    `json:"line"`
	Column     int    `json:"column"`
}

// EvalResult is the outcome of one submitCandidate call. Once
// appended to Session.History it is never mutated (append-only log).
type EvalResult struct {
	Tests          *TestCounts   `json:"tests,omitempty"`
	Perf           *PerfResult   `json:"perf,omitempty"`
	ModeSuggestion string        `json:"modeSuggestion,omitempty"`
	Reasons        []string      `json:"reasons,omitempty"`
	Feedback       []string      `json:"feedback,omitempty"`
	Diagnostics    []Diagnostic  `json:"diagnostics,omitempty"`
	Step           int           `json:"step"`
	Score          float64       `json:"score"`
	EmaScore       float64       `json:"emaScore"`
	OkBuild        bool          `json:"okBuild"`
	OkLint         bool          `json:"okLint"`
	ShouldHalt     bool          `json:"shouldHalt"`
}

// Projection is the compact caller-facing view of an EvalResult,
// returned by submitCandidate per spec.md §6.
type Projection struct {
	ModeSuggestion  string       `json:"modeSuggestion,omitempty"`
	Tests           *TestCounts  `json:"tests,omitempty"`
	Reasons         []string     `json:"reasons"`
	Feedback        []string     `json:"feedback"`
	Step            int          `json:"step"`
	Score           float64      `json:"score"`
	EmaScore        float64      `json:"emaScore"`
	BestScore       float64      `json:"bestScore"`
	NoImproveStreak int          `json:"noImproveStreak"`
	OkBuild         bool         `json:"okBuild"`
	OkLint          bool         `json:"okLint"`
	ShouldHalt      bool         `json:"shouldHalt"`
}

// ToProjection builds the compact caller-facing view of r given the
// session's current aggregate state.
func (r *EvalResult) ToProjection(bestScore float64, noImproveStreak int) Projection {
	return Projection{
		Step:            r.Step,
		Score:           r.Score,
		EmaScore:        r.EmaScore,
		BestScore:       bestScore,
		NoImproveStreak: noImproveStreak,
		Tests:           r.Tests,
		OkBuild:         r.OkBuild,
		OkLint:          r.OkLint,
		ShouldHalt:      r.ShouldHalt,
		Reasons:         r.Reasons,
		Feedback:        r.Feedback,
		ModeSuggestion:  r.ModeSuggestion,
	}
}

// IterationContext is appended once per submission and consulted by
// ErrorCorrelator to find the "likely culprit" for a diagnostic.
type IterationContext struct {
	Mode          string   `json:"mode"`
	FilesModified []string `json:"filesModified"`
	Step          int      `json:"step"`
	Success       bool     `json:"success"`
}
