// Package session implements SessionEngine: orchestrating one
// submission through snapshot → apply → evaluate → score → EMA →
// improvement tracking → feedback assembly → halting decision →
// history/undo recording (spec.md §4.12).
package session

import "time"

// Limits from spec.md §6, bit-exact.
const (
	MaxRationaleLength = 4000
	MaxHintLines       = 12
	MaxFeedbackItems   = 16
	MaxFileReadPaths   = 50
	LintTimeoutFloor   = 30 * time.Second
	ProbeTimeout       = 5 * time.Second
)
