// Package models contains the domain types shared by the refinement
// engine: sessions, candidates, evaluation results, checkpoints and
// the diff/edit primitives they are built from.
package models

import "time"

// SessionMode controls how much state RestoreCheckpoint rewrites.
type SessionMode string

const (
	// ModeCumulative restores only scalar state on checkpoint restore.
	ModeCumulative SessionMode = "cumulative"
	// ModeSnapshot additionally restores file content captured at
	// SaveCheckpoint time.
	ModeSnapshot SessionMode = "snapshot"
)

// CommandStatus is the availability of one of a session's four
// configured commands, probed once at startSession time.
type CommandStatus string

const (
	StatusAvailable   CommandStatus = "available"
	StatusUnavailable CommandStatus = "unavailable"
	StatusUnknown     CommandStatus = "unknown"
)

// Weights are the non-negative per-signal contributions to the score.
// They are normalized by max(sum, 1) — see Scorer.
type Weights struct {
	Build float64 `json:"build"`
	Test  float64 `json:"test"`
	Lint  float64 `json:"lint"`
	Perf  float64 `json:"perf"`
}

// Sum returns Build+Test+Lint+Perf.
func (w Weights) Sum() float64 {
	return w.Build + w.Test + w.Lint + w.Perf
}

// HaltConfig parameterizes HaltPolicy.
type HaltConfig struct {
	MaxSteps          int     `json:"maxSteps"`
	PatienceNoImprove int     `json:"patienceNoImprove"`
	MinSteps          int     `json:"minSteps"`
	PassThreshold     float64 `json:"passThreshold"`
}

// CommandSet holds the four optional evaluation commands and their
// probed availability.
type CommandSet struct {
	Build string `json:"build"`
	Test  string `json:"test"`
	Lint  string `json:"lint"`
	Bench string `json:"bench"`
}

// CommandStatusSet records per-command availability, keyed the same
// way as CommandSet.
type CommandStatusSet struct {
	Build CommandStatus `json:"build"`
	Test  CommandStatus `json:"test"`
	Lint  CommandStatus `json:"lint"`
	Bench CommandStatus `json:"bench"`
}

// ScoreEpsilon is the tolerance used when comparing scores for
// "improvement" (I2/I3, spec P4).
const ScoreEpsilon = 1e-6

// Session is the unit of isolation binding a repository, its
// evaluation commands, halting policy, and history. All fields are
// owned exclusively by the SessionEngine driving this session; no
// cross-session references exist.
type Session struct {
	CreatedAt        time.Time
	Checkpoints      map[string]*Checkpoint
	FileSnapshots    map[string]string
	BestPerf         *float64
	BaselineCommit   *string
	ID               string
	RepoRoot         string
	Rationale        string
	ModifiedFiles    map[string]struct{}
	Commands         CommandSet
	CommandStatus    CommandStatusSet
	History          []*EvalResult
	UndoStack        []*CandidateSnapshot
	IterationContext []*IterationContext
	Mode             SessionMode
	Weights          Weights
	Halt             HaltConfig
	EmaAlpha         float64
	TimeoutSec       int
	Step             int
	BestScore        float64
	EmaScore         float64
	NoImproveStreak  int
}

// NewSession constructs a Session with empty collections initialized,
// so callers never need to nil-check before appending.
func NewSession(id, repoRoot string) *Session {
	return &Session{
		ID:            id,
		RepoRoot:      repoRoot,
		CreatedAt:     time.Now(),
		Checkpoints:   make(map[string]*Checkpoint),
		FileSnapshots: make(map[string]string),
		ModifiedFiles: make(map[string]struct{}),
		Mode:          ModeCumulative,
	}
}

// Improved reports whether score is a strict improvement over
// BestScore, per spec epsilon (I2/I3).
func (s *Session) Improved(score float64) bool {
	return score > s.BestScore+ScoreEpsilon
}
