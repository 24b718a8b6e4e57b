// Package candidate implements CandidateApplier: dispatching a
// submission on its mode (diff/patch/files/create/modify), enforcing
// size and count limits, and snapshotting pre-change content for undo
// (spec.md §4.6).
package candidate

// Limits from spec.md §6, bit-exact.
const (
	MaxFiles           = 100
	MaxBytes           = 10 * 1024 * 1024
	LargeSubmissionWarn = 100 * 1024
)
