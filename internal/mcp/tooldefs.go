package mcp

// toolDefinitions lists the refinement engine's 15 tools and their
// JSON-Schema input shapes (spec.md §6).
func toolDefinitions() []Tool {
	obj := func(props map[string]any, required ...string) map[string]any {
		return map[string]any{"type": "object", "properties": props, "required": required}
	}
	str := func(desc string) map[string]any { return map[string]any{"type": "string", "description": desc} }
	num := func(desc string) map[string]any { return map[string]any{"type": "number", "description": desc} }
	boolean := func(desc string) map[string]any { return map[string]any{"type": "boolean", "description": desc} }

	candidateSchema := map[string]any{
		"type":        "object",
		"description": "a submission: mode selects which fields are read",
		"properties": map[string]any{
			"mode":  map[string]any{"type": "string", "enum": []string{"diff", "patch", "files", "create", "modify"}},
			"diffs": map[string]any{"type": "array", "description": "diff mode: [{path, diff}]"},
			"patch": str("patch mode: single unified diff"),
			"files": map[string]any{"type": "array", "description": "files/create mode: [{path, content}]"},
			"edits": map[string]any{"type": "array", "description": "modify mode: [{file, edits[]}]"},
		},
		"required": []string{"mode"},
	}

	return []Tool{
		{
			Name:        "startSession",
			Description: "Start a new refinement session bound to a repository and its build/test/lint/bench commands.",
			InputSchema: obj(map[string]any{
				"repoPath":   str("absolute path to the repository root"),
				"buildCmd":   str("shell command that builds the project"),
				"testCmd":    str("shell command that runs the test suite"),
				"lintCmd":    str("shell command that lints the project"),
				"benchCmd":   str("shell command that produces a scalar performance measurement"),
				"weights":    map[string]any{"type": "object", "description": "per-signal score weights {build,test,lint,perf}"},
				"halt":       map[string]any{"type": "object", "description": "{maxSteps,passThreshold,patienceNoImprove,minSteps}"},
				"emaAlpha":   num("EMA smoothing factor in [0,1]"),
				"timeoutSec": num("per-command timeout in seconds"),
				"mode":       str("cumulative or snapshot"),
				"zNotes":     str("free-form rationale for this session"),
				"preflight":  boolean("probe command availability immediately"),
			}, "repoPath"),
		},
		{
			Name:        "submitCandidate",
			Description: "Apply a candidate change, evaluate it, score it, and report whether the session should halt.",
			InputSchema: obj(map[string]any{
				"sessionId": str("session id returned by startSession"),
				"candidate": candidateSchema,
				"rationale": str("free-form note describing this submission's intent"),
			}, "sessionId", "candidate"),
		},
		{
			Name:        "validateCandidate",
			Description: "Check a candidate for validity without applying or scoring it.",
			InputSchema: obj(map[string]any{
				"sessionId": str("session id"),
				"candidate": candidateSchema,
			}, "sessionId", "candidate"),
		},
		{
			Name:        "getFileContent",
			Description: "Read full file contents (at most 50 paths per call), refreshing the session's staleness-tracking cache.",
			InputSchema: obj(map[string]any{
				"sessionId": str("session id"),
				"paths":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			}, "sessionId", "paths"),
		},
		{
			Name:        "getFileLines",
			Description: "Read a line range from one file, formatted as \"N: <text>\".",
			InputSchema: obj(map[string]any{
				"sessionId": str("session id"),
				"file":      str("file path, relative to the repo root"),
				"startLine": num("first line, 1-indexed"),
				"endLine":   num("last line, inclusive"),
			}, "sessionId", "file", "startLine", "endLine"),
		},
		{
			Name:        "getState",
			Description: "Report the session's current step, scores, command availability and history length.",
			InputSchema: obj(map[string]any{"sessionId": str("session id")}, "sessionId"),
		},
		{
			Name:        "shouldHalt",
			Description: "Report whether the most recent submission's halting decision and reasons.",
			InputSchema: obj(map[string]any{"sessionId": str("session id")}, "sessionId"),
		},
		{
			Name:        "getSuggestions",
			Description: "Return mode-switch suggestions and cascading-failure warnings derived from recent history.",
			InputSchema: obj(map[string]any{"sessionId": str("session id")}, "sessionId"),
		},
		{
			Name:        "saveCheckpoint",
			Description: "Record the session's current scalar state (and, in snapshot mode, file content) under a fresh checkpoint id.",
			InputSchema: obj(map[string]any{
				"sessionId":   str("session id"),
				"description": str("free-form label for this checkpoint"),
			}, "sessionId"),
		},
		{
			Name:        "restoreCheckpoint",
			Description: "Restore the session to a previously saved checkpoint.",
			InputSchema: obj(map[string]any{
				"sessionId":    str("session id"),
				"checkpointId": str("id returned by saveCheckpoint"),
			}, "sessionId", "checkpointId"),
		},
		{
			Name:        "listCheckpoints",
			Description: "List every checkpoint saved so far in this session.",
			InputSchema: obj(map[string]any{"sessionId": str("session id")}, "sessionId"),
		},
		{
			Name:        "resetToBaseline",
			Description: "Hard-reset the repository to the session's captured baseline revision and clear all scalar history.",
			InputSchema: obj(map[string]any{"sessionId": str("session id")}, "sessionId"),
		},
		{
			Name:        "undoLastCandidate",
			Description: "Undo the most recent submitCandidate call, reverting its file changes and rewinding session state by one step.",
			InputSchema: obj(map[string]any{"sessionId": str("session id")}, "sessionId"),
		},
		{
			Name:        "suggestFix",
			Description: "Correlate error output against recent iterations to find the likely culprit and suggest a fix approach.",
			InputSchema: obj(map[string]any{
				"sessionId": str("session id"),
				"output":    str("raw build/test/lint output to analyze"),
			}, "sessionId", "output"),
		},
		{
			Name:        "endSession",
			Description: "Remove the session from the registry and close its event stream.",
			InputSchema: obj(map[string]any{"sessionId": str("session id")}, "sessionId"),
		},
	}
}
