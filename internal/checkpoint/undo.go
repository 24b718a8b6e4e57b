package checkpoint

import (
	"github.com/thebtf/refineloop/internal/fsys"
	"github.com/thebtf/refineloop/pkg/models"
)

// Undo pops the top of session.UndoStack and restores every path it
// recorded to its pre-submission content (or deletes it, for the
// did-not-exist sentinel), then rewinds step/history/bestScore/
// emaScore/noImproveStreak to what they were one submission ago
// (spec.md §4.11, property P10).
//
// Recomputation rule (the spec leaves this as an implementer
// decision, requiring only that I2/I3 hold afterward): bestScore is
// fully recomputed as max(history[*].score) over the remaining
// history rather than restored from any cached pre-undo value, and
// noImproveStreak is recomputed by walking the remaining history
// backward while each entry's score is within bestScore+epsilon. This
// keeps both fields pure functions of history at every point in time,
// matching I2/I3 literally rather than tracking a separate "what were
// they before" shadow value.
func Undo(session *models.Session, fsImpl fsys.FS) bool {
	n := len(session.UndoStack)
	if n == 0 {
		return false
	}
	entry := session.UndoStack[n-1]
	session.UndoStack = session.UndoStack[:n-1]

	for path, prevContent := range entry.PreContent {
		if prevContent == "" {
			fsImpl.Remove(path)
			delete(session.FileSnapshots, path)
			continue
		}
		fsImpl.WriteFile(path, []byte(prevContent))
		session.FileSnapshots[path] = prevContent
	}

	session.Step = entry.Step - 1

	if len(session.History) > 0 {
		session.History = session.History[:len(session.History)-1]
	}
	if len(session.IterationContext) > 0 {
		session.IterationContext = session.IterationContext[:len(session.IterationContext)-1]
	}

	session.BestScore, session.NoImproveStreak = recomputeBestAndStreak(session.History)
	session.EmaScore = recomputeEmaScore(session.History)

	return true
}

// recomputeBestAndStreak replays the original forward update rule
// (Improved, in the scoring package) over the remaining history. A
// naive "count trailing entries <= bestScore+eps" reading of I3 is
// wrong whenever the best score is achieved more than once — the
// streak only resets at the step the best was FIRST reached, not
// every time a later step ties it, so the only correct recomputation
// is replaying the forward rule from scratch.
func recomputeBestAndStreak(history []*models.EvalResult) (float64, int) {
	best := 0.0
	streak := 0
	for _, r := range history {
		if r.Score > best+models.ScoreEpsilon {
			best = r.Score
			streak = 0
		} else {
			streak++
		}
	}
	return best, streak
}

func recomputeEmaScore(history []*models.EvalResult) float64 {
	if len(history) == 0 {
		return 0
	}
	return history[len(history)-1].EmaScore
}
