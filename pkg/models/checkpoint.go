package models

import "time"

// Checkpoint is a named snapshot of scalar session state and,
// in SessionMode snapshot, of file contents at the time it was taken.
type Checkpoint struct {
	CreatedAt   time.Time         `json:"createdAt"`
	Files       map[string]string `json:"files,omitempty"`
	ID          string            `json:"id"`
	Description string            `json:"description,omitempty"`
	Fingerprint string            `json:"fingerprint,omitempty"`
	Step        int               `json:"step"`
	Score       float64           `json:"score"`
	EmaScore    float64           `json:"emaScore"`
}

// CandidateSnapshot is the automatic, LIFO undo entry pushed after
// every successful evaluation. PreContent uses the empty-string
// sentinel for paths that did not exist before the candidate was
// applied; Undo deletes those paths rather than truncating them.
type CandidateSnapshot struct {
	Timestamp  time.Time   `json:"timestamp"`
	PreContent map[string]string `json:"preContent"`
	Rationale  string      `json:"rationale,omitempty"`
	Candidate  Candidate   `json:"candidate"`
	Result     *EvalResult `json:"result"`
	Step       int         `json:"step"`
}
