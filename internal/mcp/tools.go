package mcp

import (
	"context"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/rs/zerolog/log"

	"github.com/thebtf/refineloop/internal/candidate"
	"github.com/thebtf/refineloop/internal/checkpoint"
	"github.com/thebtf/refineloop/internal/correlate"
	"github.com/thebtf/refineloop/internal/historyindex"
	"github.com/thebtf/refineloop/internal/outputparse"
	"github.com/thebtf/refineloop/internal/pathguard"
	"github.com/thebtf/refineloop/internal/privacy"
	"github.com/thebtf/refineloop/internal/registry"
	"github.com/thebtf/refineloop/internal/session"
	"github.com/thebtf/refineloop/internal/staletrack"
	"github.com/thebtf/refineloop/pkg/models"
)

// ---- startSession ----

type startSessionParams struct {
	RepoPath   string             `json:"repoPath"`
	BuildCmd   string             `json:"buildCmd"`
	TestCmd    string             `json:"testCmd"`
	LintCmd    string             `json:"lintCmd"`
	BenchCmd   string             `json:"benchCmd"`
	Rationale  string             `json:"zNotes"`
	Mode       models.SessionMode `json:"mode"`
	Weights    *models.Weights    `json:"weights"`
	Halt       *models.HaltConfig `json:"halt"`
	EmaAlpha   *float64           `json:"emaAlpha"`
	TimeoutSec *int               `json:"timeoutSec"`
	Preflight  bool               `json:"preflight"`
}

func (s *Server) toolStartSession(ctx context.Context, args json.RawMessage) (string, error) {
	var p startSessionParams
	if err := json.Unmarshal(args, &p); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}

	opts := session.StartOptions{
		Commands:   models.CommandSet{Build: p.BuildCmd, Test: p.TestCmd, Lint: p.LintCmd, Bench: p.BenchCmd},
		Weights:    models.Weights{Build: 0.3, Test: 0.5, Lint: 0.1, Perf: 0.1},
		Halt:       models.HaltConfig{MaxSteps: 12, PassThreshold: 0.95, PatienceNoImprove: 3, MinSteps: 1},
		Mode:       p.Mode,
		Rationale:  p.Rationale,
		EmaAlpha:   0.9,
		TimeoutSec: 120,
		Preflight:  p.Preflight,
	}
	if p.Weights != nil {
		opts.Weights = *p.Weights
	}
	if p.Halt != nil {
		opts.Halt = *p.Halt
	}
	if p.EmaAlpha != nil {
		opts.EmaAlpha = *p.EmaAlpha
	}
	if p.TimeoutSec != nil {
		opts.TimeoutSec = *p.TimeoutSec
	}

	sess, rerr := session.Start(ctx, s.fsys, p.RepoPath, opts)
	if rerr != nil {
		return "", rerr
	}
	e := s.registry.Start(sess)

	idx, ierr := historyindex.Open(ctx)
	if ierr != nil {
		log.Warn().Err(ierr).Str("sessionId", sess.ID).Msg("history index unavailable, falling back to linear scan")
	} else {
		e.Index = idx
	}

	out, err := json.Marshal(map[string]any{"sessionId": sess.ID})
	return string(out), err
}

// ---- submitCandidate ----

type submitParams struct {
	SessionID string          `json:"sessionId"`
	Candidate models.Candidate `json:"candidate"`
	Rationale string          `json:"rationale"`
}

func (s *Server) toolSubmitCandidate(ctx context.Context, args json.RawMessage) (string, error) {
	var p submitParams
	if err := json.Unmarshal(args, &p); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}

	e, release, err := s.entry(ctx, p.SessionID)
	if err != nil {
		return "", err
	}
	defer release()

	rationaleForLog := p.Rationale
	if privacy.ScanCandidate(p.Candidate, p.Rationale) {
		rationaleForLog = privacy.RedactCandidateRationale(p.Rationale)
		log.Warn().Str("sessionId", p.SessionID).Msg("candidate submission looks like it contains a secret, redacting before logging")
	}
	log.Info().Str("sessionId", p.SessionID).Str("mode", string(p.Candidate.Mode)).Str("rationale", rationaleForLog).Msg("candidate submitted")

	result, rerr := session.Submit(ctx, s.fsys, e.Session, session.SubmitOptions{
		Candidate: p.Candidate,
		Rationale: p.Rationale,
	})
	if rerr != nil {
		return "", rerr
	}

	if e.Index != nil {
		last := e.Session.IterationContext[len(e.Session.IterationContext)-1]
		if ierr := e.Index.Append(ctx, last); ierr != nil {
			log.Warn().Err(ierr).Str("sessionId", p.SessionID).Msg("failed to append to history index")
		}
	}

	projection := result.ToProjection(e.Session.BestScore, e.Session.NoImproveStreak)
	s.hub.Publish(p.SessionID, projection)

	out, err := json.Marshal(projection)
	return string(out), err
}

// ---- validateCandidate ----

type validateParams struct {
	SessionID string           `json:"sessionId"`
	Candidate models.Candidate `json:"candidate"`
}

func (s *Server) toolValidateCandidate(args json.RawMessage) (string, error) {
	var p validateParams
	if err := json.Unmarshal(args, &p); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}

	e, ok := s.registry.Get(p.SessionID)
	if !ok {
		return "", unknownSessionErr(p.SessionID)
	}

	var errs, warnings, filesAffected []string
	paths, terr := candidate.TargetPaths(p.Candidate)
	if terr != nil {
		errs = append(errs, terr.Error())
	}
	for _, rel := range paths {
		if resolved, perr := pathguard.Resolve(e.Session.RepoRoot, rel); perr != nil {
			errs = append(errs, perr.Error())
		} else {
			filesAffected = append(filesAffected, resolved)
		}
	}

	linesAdded, linesRemoved, linesModified := 0, 0, 0
	for _, f := range p.Candidate.Files {
		existing := ""
		resolved, perr := pathguard.Resolve(e.Session.RepoRoot, f.Path)
		if perr == nil && s.fsys.Exists(resolved) {
			if b, rerr := s.fsys.ReadFile(resolved); rerr == nil {
				existing = string(b)
			}
		}
		newLines := strings.Count(f.Content, "\n") + 1
		oldLines := 0
		if existing != "" {
			oldLines = strings.Count(existing, "\n") + 1
		}
		switch {
		case existing == "":
			linesAdded += newLines
		default:
			linesModified += newLines
			linesRemoved += oldLines
		}
	}

	tokenEstimate, overBudget := s.tokens.ExceedsBudget(p.Candidate, s.maxTokens)
	if overBudget {
		warnings = append(warnings, fmt.Sprintf(
			"candidate is ~%d tokens, over the %d-token budget; consider splitting it into smaller submissions",
			tokenEstimate, s.maxTokens))
	}

	out, err := json.Marshal(map[string]any{
		"valid":    len(errs) == 0,
		"errors":   errs,
		"warnings": warnings,
		"preview": map[string]any{
			"filesAffected": filesAffected,
			"linesAdded":    linesAdded,
			"linesRemoved":  linesRemoved,
			"linesModified": linesModified,
			"tokenEstimate": tokenEstimate,
		},
	})
	return string(out), err
}

// ---- getFileContent ----

type getFileContentParams struct {
	SessionID string   `json:"sessionId"`
	Paths     []string `json:"paths"`
}

func (s *Server) toolGetFileContent(args json.RawMessage) (string, error) {
	var p getFileContentParams
	if err := json.Unmarshal(args, &p); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	e, ok := s.registry.Get(p.SessionID)
	if !ok {
		return "", unknownSessionErr(p.SessionID)
	}
	if len(p.Paths) > session.MaxFileReadPaths {
		return "", fmt.Errorf("TooManyFiles: at most %d paths may be read per call", session.MaxFileReadPaths)
	}

	files := make(map[string]any, len(p.Paths))
	for _, rel := range p.Paths {
		resolved, perr := pathguard.Resolve(e.Session.RepoRoot, rel)
		if perr != nil {
			return "", perr
		}
		b, rerr := s.fsys.ReadFile(resolved)
		if rerr != nil {
			return "", fmt.Errorf("FileNotFound: %s: %w", resolved, rerr)
		}
		content := string(b)
		info, _ := s.fsys.Stat(resolved)
		files[resolved] = map[string]any{
			"content": content,
			"metadata": map[string]any{
				"lineCount":    strings.Count(content, "\n") + 1,
				"sizeBytes":    len(b),
				"lastModified": info.ModTime,
			},
		}
		staletrack.RecordRead(e.Session, resolved, content)
	}

	out, err := json.Marshal(map[string]any{"files": files})
	return string(out), err
}

// ---- getFileLines ----

type getFileLinesParams struct {
	SessionID string `json:"sessionId"`
	File      string `json:"file"`
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
}

func (s *Server) toolGetFileLines(args json.RawMessage) (string, error) {
	var p getFileLinesParams
	if err := json.Unmarshal(args, &p); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	e, ok := s.registry.Get(p.SessionID)
	if !ok {
		return "", unknownSessionErr(p.SessionID)
	}
	resolved, perr := pathguard.Resolve(e.Session.RepoRoot, p.File)
	if perr != nil {
		return "", perr
	}
	b, rerr := s.fsys.ReadFile(resolved)
	if rerr != nil {
		return "", fmt.Errorf("FileNotFound: %s: %w", resolved, rerr)
	}
	lines := strings.Split(string(b), "\n")
	if p.StartLine < 1 || p.EndLine < p.StartLine || p.StartLine > len(lines) {
		return "", fmt.Errorf("InvalidRange: requested [%d,%d] outside file with %d lines", p.StartLine, p.EndLine, len(lines))
	}
	end := p.EndLine
	if end > len(lines) {
		end = len(lines)
	}

	out := make([]string, 0, end-p.StartLine+1)
	for i := p.StartLine; i <= end; i++ {
		out = append(out, fmt.Sprintf("%d: %s", i, lines[i-1]))
	}

	result, err := json.Marshal(map[string]any{
		"file":      resolved,
		"lines":     out,
		"lineCount": len(lines),
	})
	return string(result), err
}

// ---- getState ----

type sessionIDParams struct {
	SessionID string `json:"sessionId"`
}

func (s *Server) toolGetState(args json.RawMessage) (string, error) {
	var p sessionIDParams
	if err := json.Unmarshal(args, &p); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	e, ok := s.registry.Get(p.SessionID)
	if !ok {
		return "", unknownSessionErr(p.SessionID)
	}
	sess := e.Session

	out, err := json.Marshal(map[string]any{
		"sessionId":       sess.ID,
		"step":            sess.Step,
		"bestScore":       sess.BestScore,
		"emaScore":        sess.EmaScore,
		"noImproveStreak": sess.NoImproveStreak,
		"mode":            sess.Mode,
		"commandStatus":   sess.CommandStatus,
		"checkpointCount": len(sess.Checkpoints),
		"undoDepth":       len(sess.UndoStack),
		"historyLength":   len(sess.History),
	})
	return string(out), err
}

// ---- shouldHalt ----

func (s *Server) toolShouldHalt(args json.RawMessage) (string, error) {
	var p sessionIDParams
	if err := json.Unmarshal(args, &p); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	e, ok := s.registry.Get(p.SessionID)
	if !ok {
		return "", unknownSessionErr(p.SessionID)
	}
	sess := e.Session
	if len(sess.History) == 0 {
		out, err := json.Marshal(map[string]any{"shouldHalt": false, "reasons": []string{}})
		return string(out), err
	}
	last := sess.History[len(sess.History)-1]
	out, err := json.Marshal(map[string]any{
		"shouldHalt": last.ShouldHalt,
		"reasons":    last.Reasons,
	})
	return string(out), err
}

// ---- getSuggestions ----

func (s *Server) toolGetSuggestions(ctx context.Context, args json.RawMessage) (string, error) {
	var p sessionIDParams
	if err := json.Unmarshal(args, &p); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	e, ok := s.registry.Get(p.SessionID)
	if !ok {
		return "", unknownSessionErr(p.SessionID)
	}
	sess := e.Session

	var suggestions []string
	if len(sess.History) > 0 {
		last := sess.History[len(sess.History)-1]
		analysis := correlate.Correlate(strings.Join(last.Feedback, "\n"), sess.IterationContext, recentCandidateModes(sess))
		suggestions = append(suggestions, analysis.Suggestions...)

		if e.Index != nil && analysis.LikelyCulprit != nil {
			for _, f := range analysis.LikelyCulprit.FilesModified {
				rows, ierr := e.Index.ByFile(ctx, f)
				if ierr != nil || len(rows) < 2 {
					continue
				}
				suggestions = append(suggestions, fmt.Sprintf(
					"%s has been touched in %d prior iterations; consider reviewing its full history before another edit", f, len(rows)))
			}
		}
	}
	suggestions = append(suggestions, correlate.CascadeWarnings(sess.History)...)

	out, err := json.Marshal(map[string]any{"suggestions": suggestions})
	return string(out), err
}

func recentCandidateModes(sess *models.Session) []models.CandidateMode {
	n := len(sess.IterationContext)
	start := n - 5
	if start < 0 {
		start = 0
	}
	modes := make([]models.CandidateMode, 0, n-start)
	for _, ic := range sess.IterationContext[start:] {
		modes = append(modes, models.CandidateMode(ic.Mode))
	}
	return modes
}

// ---- saveCheckpoint ----

type saveCheckpointParams struct {
	SessionID   string `json:"sessionId"`
	Description string `json:"description"`
}

func (s *Server) toolSaveCheckpoint(args json.RawMessage) (string, error) {
	var p saveCheckpointParams
	if err := json.Unmarshal(args, &p); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	e, ok := s.registry.Get(p.SessionID)
	if !ok {
		return "", unknownSessionErr(p.SessionID)
	}
	cp := checkpoint.Save(e.Session, s.fsys, p.Description)
	out, err := json.Marshal(checkpointSummary(cp))
	return string(out), err
}

// ---- restoreCheckpoint ----

type checkpointIDParams struct {
	SessionID    string `json:"sessionId"`
	CheckpointID string `json:"checkpointId"`
}

func (s *Server) toolRestoreCheckpoint(ctx context.Context, args json.RawMessage) (string, error) {
	var p checkpointIDParams
	if err := json.Unmarshal(args, &p); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	e, release, err := s.entry(ctx, p.SessionID)
	if err != nil {
		return "", err
	}
	defer release()

	if rerr := checkpoint.Restore(e.Session, s.fsys, p.CheckpointID); rerr != nil {
		return "", rerr
	}
	s.rebuildHistoryIndex(ctx, e)

	out, err := json.Marshal(map[string]any{"restored": true, "step": e.Session.Step})
	return string(out), err
}

// ---- listCheckpoints ----

func (s *Server) toolListCheckpoints(args json.RawMessage) (string, error) {
	var p sessionIDParams
	if err := json.Unmarshal(args, &p); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	e, ok := s.registry.Get(p.SessionID)
	if !ok {
		return "", unknownSessionErr(p.SessionID)
	}
	cps := checkpoint.List(e.Session)
	summaries := make([]map[string]any, 0, len(cps))
	for _, cp := range cps {
		summaries = append(summaries, checkpointSummary(cp))
	}
	out, err := json.Marshal(map[string]any{"checkpoints": summaries})
	return string(out), err
}

// ---- resetToBaseline ----

func (s *Server) toolResetToBaseline(ctx context.Context, args json.RawMessage) (string, error) {
	var p sessionIDParams
	if err := json.Unmarshal(args, &p); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	e, release, err := s.entry(ctx, p.SessionID)
	if err != nil {
		return "", err
	}
	defer release()

	if rerr := checkpoint.ResetToBaseline(ctx, e.Session); rerr != nil {
		return "", rerr
	}
	out, merr := json.Marshal(map[string]any{"reset": true})
	return string(out), merr
}

// ---- undoLastCandidate ----

func (s *Server) toolUndoLastCandidate(ctx context.Context, args json.RawMessage) (string, error) {
	var p sessionIDParams
	if err := json.Unmarshal(args, &p); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	e, release, err := s.entry(ctx, p.SessionID)
	if err != nil {
		return "", err
	}
	defer release()

	undone := checkpoint.Undo(e.Session, s.fsys)
	s.rebuildHistoryIndex(ctx, e)

	out, err := json.Marshal(map[string]any{
		"undone":    undone,
		"step":      e.Session.Step,
		"bestScore": e.Session.BestScore,
	})
	return string(out), err
}

// rebuildHistoryIndex resyncs the session's history index after an
// operation that rewrites IterationContext out of append-order (undo,
// checkpoint restore). A nil Index is a no-op.
func (s *Server) rebuildHistoryIndex(ctx context.Context, e *registry.Entry) {
	if e.Index == nil {
		return
	}
	if err := e.Index.Rebuild(ctx, e.Session.IterationContext); err != nil {
		log.Warn().Err(err).Str("sessionId", e.Session.ID).Msg("failed to rebuild history index")
	}
}

// ---- suggestFix ----

type suggestFixParams struct {
	SessionID string `json:"sessionId"`
	Output    string `json:"output"`
}

func (s *Server) toolSuggestFix(args json.RawMessage) (string, error) {
	var p suggestFixParams
	if err := json.Unmarshal(args, &p); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	e, ok := s.registry.Get(p.SessionID)
	if !ok {
		return "", unknownSessionErr(p.SessionID)
	}
	sess := e.Session

	analysis := correlate.Correlate(p.Output, sess.IterationContext, recentCandidateModes(sess))
	diags := outputparse.ParseDiagnostics(p.Output)

	out, err := json.Marshal(map[string]any{
		"culprit":        analysis.LikelyCulprit,
		"lastSuccessful": analysis.LastSuccessful,
		"analysis":       analysis.Lines,
		"suggestions":    analysis.Suggestions,
		"diagnostics":    diags,
	})
	return string(out), err
}

// ---- endSession ----

func (s *Server) toolEndSession(args json.RawMessage) (string, error) {
	var p sessionIDParams
	if err := json.Unmarshal(args, &p); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	ended := s.registry.End(p.SessionID)
	s.hub.Close(p.SessionID)
	out, err := json.Marshal(map[string]any{"ended": ended})
	return string(out), err
}
