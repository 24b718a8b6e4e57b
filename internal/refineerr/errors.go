// Package refineerr defines the structured error taxonomy surfaced to
// callers of the refinement engine (spec.md §6/§7). Every engine
// method that can fail returns a *Error as its second value rather
// than a bare error, so the transport layer can serialize code,
// message and suggestion verbatim without type-switching.
package refineerr

import "fmt"

// Code is one of the closed set of error codes spec.md §6 requires.
type Code string

const (
	PathEscaped         Code = "PathEscaped"
	FileTooLarge        Code = "FileTooLarge"
	TooManyFiles        Code = "TooManyFiles"
	FileExists          Code = "FileExists"
	FileNotFound        Code = "FileNotFound"
	InvalidLine         Code = "InvalidLine"
	InvalidRange        Code = "InvalidRange"
	InvalidDiff         Code = "InvalidDiff"
	ReplaceNotFound     Code = "ReplaceNotFound"
	HunkMismatch        Code = "HunkMismatch"
	DuplicateDeclaration Code = "DuplicateDeclaration"
	CheckpointNotFound  Code = "CheckpointNotFound"
	UnknownSession      Code = "UnknownSession"
	InvalidParameter    Code = "InvalidParameter"
	ValidationError     Code = "ValidationError"
)

// Error is the structured error returned to callers. It intentionally
// does not implement error-wrapping (%w) chains — callers at the
// transport boundary only ever need Code, Message and Suggestion.
type Error struct {
	Data       any    `json:"data,omitempty"`
	Code       Code   `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New builds an Error with no suggestion or data attached.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithSuggestion returns a copy of e with Suggestion set.
func (e *Error) WithSuggestion(s string) *Error {
	cp := *e
	cp.Suggestion = s
	return &cp
}

// WithData returns a copy of e with Data set, used to carry
// structured context (e.g. HunkMismatch's expected/actual snippet).
func (e *Error) WithData(data any) *Error {
	cp := *e
	cp.Data = data
	return &cp
}
