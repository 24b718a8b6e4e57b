package checkpoint

import (
	"context"
	"time"

	"github.com/thebtf/refineloop/internal/execrunner"
	"github.com/thebtf/refineloop/internal/refineerr"
	"github.com/thebtf/refineloop/pkg/models"
)

// baselineTimeout bounds the verify+reset pair of git invocations;
// both are local, metadata-only operations, so a generous constant
// timeout is simpler than threading the session's own command timeout
// through a reset that has nothing to do with build/test/lint.
const baselineTimeout = 30 * time.Second

// ResetToBaseline hard-resets the repository to session.BaselineCommit
// (when captured) and zeros the session's scalar history, per
// spec.md §4.11. If no baseline commit was captured, this only clears
// scalar state — it never fails for that reason, since an absent
// baseline simply means "nothing to reset to" rather than an error.
func ResetToBaseline(ctx context.Context, session *models.Session) *refineerr.Error {
	if session.BaselineCommit != nil {
		if err := gitVerifyAndReset(ctx, session.RepoRoot, *session.BaselineCommit); err != nil {
			return err
		}
	}

	session.Step = 0
	session.BestScore = 0
	session.EmaScore = 0
	session.NoImproveStreak = 0
	session.History = nil
	session.Checkpoints = make(map[string]*models.Checkpoint)
	session.UndoStack = nil
	session.IterationContext = nil
	return nil
}

func gitVerifyAndReset(ctx context.Context, repoRoot, commit string) *refineerr.Error {
	verify := execrunner.Run(ctx, "git rev-parse --verify "+commit, repoRoot, baselineTimeout)
	if !verify.Ok {
		return refineerr.New(refineerr.ValidationError, "baseline commit %q not found in repository: %s", commit, verify.Stderr)
	}
	reset := execrunner.Run(ctx, "git reset --hard "+commit, repoRoot, baselineTimeout)
	if !reset.Ok {
		return refineerr.New(refineerr.ValidationError, "git reset --hard %s failed: %s", commit, reset.Stderr)
	}
	return nil
}
