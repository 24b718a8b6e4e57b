package models

// CandidateMode selects which CandidateApplier path a submission
// takes. A closed sum, matched exhaustively rather than modeled as a
// class hierarchy (spec.md §9).
type CandidateMode string

const (
	ModeDiff   CandidateMode = "diff"
	ModePatch  CandidateMode = "patch"
	ModeFiles  CandidateMode = "files"
	ModeCreate CandidateMode = "create"
	ModeModify CandidateMode = "modify"
)

// FileDiff is one {path, diff} pair for diff-mode submissions.
type FileDiff struct {
	Path string `json:"path"`
	Diff string `json:"diff"`
}

// FileContent is one {path, content} pair for files/create-mode
// submissions.
type FileContent struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// FileEdits is one {file, edits[]} pair for modify-mode submissions.
type FileEdits struct {
	File  string          `json:"file"`
	Edits []EditOperation `json:"edits"`
}

// Candidate is the full submission payload dispatched by
// CandidateApplier on Mode.
type Candidate struct {
	Mode    CandidateMode `json:"mode"`
	Diffs   []FileDiff    `json:"diffs,omitempty"`
	Patch   string        `json:"patch,omitempty"`
	Files   []FileContent `json:"files,omitempty"`
	Edits   []FileEdits   `json:"edits,omitempty"`
}

// EditOpKind tags the variant of an EditOperation.
type EditOpKind string

const (
	EditReplace      EditOpKind = "replace"
	EditInsertBefore EditOpKind = "insertBefore"
	EditInsertAfter  EditOpKind = "insertAfter"
	EditReplaceLine  EditOpKind = "replaceLine"
	EditReplaceRange EditOpKind = "replaceRange"
	EditDeleteLine   EditOpKind = "deleteLine"
	EditDeleteRange  EditOpKind = "deleteRange"
)

// EditOperation is a tagged-union semantic edit, applied by
// EditExecutor. Exactly one of the kind-specific fields is meaningful,
// selected by Kind; unused fields are left zero.
type EditOperation struct {
	Kind      EditOpKind `json:"kind"`
	OldText   string     `json:"oldText,omitempty"`
	NewText   string     `json:"newText,omitempty"`
	Content   string     `json:"content,omitempty"`
	Line      int        `json:"line,omitempty"`
	StartLine int        `json:"startLine,omitempty"`
	EndLine   int        `json:"endLine,omitempty"`
	All       bool       `json:"all,omitempty"`
}

// PrimaryLine returns the line number EditExecutor sorts on
// (descending) to apply a batch without offset drift (spec.md §4.5,
// property P9). Replace operations have no line anchor and sort last
// (after all line-anchored edits, so they never shift line numbers
// edits are still waiting to apply against).
func (e EditOperation) PrimaryLine() int {
	switch e.Kind {
	case EditInsertBefore, EditInsertAfter, EditReplaceLine, EditDeleteLine:
		return e.Line
	case EditReplaceRange, EditDeleteRange:
		return e.EndLine
	default:
		return -1
	}
}
