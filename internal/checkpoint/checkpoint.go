// Package checkpoint implements CheckpointStore, UndoStack and
// BaselineReset: the engine's three recovery primitives, at
// increasing granularity (spec.md §4.11).
package checkpoint

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/thebtf/refineloop/internal/fingerprint"
	"github.com/thebtf/refineloop/internal/fsys"
	"github.com/thebtf/refineloop/internal/refineerr"
	"github.com/thebtf/refineloop/pkg/models"
)

// Save records the session's current scalar state and, in snapshot
// mode, the content of every file in the modified-set, under a fresh
// checkpoint id.
func Save(session *models.Session, fsImpl fsys.FS, description string) *models.Checkpoint {
	cp := &models.Checkpoint{
		ID:          uuid.NewString(),
		CreatedAt:   time.Now(),
		Step:        session.Step,
		Score:       session.BestScore,
		EmaScore:    session.EmaScore,
		Description: description,
	}
	if session.Mode == models.ModeSnapshot {
		cp.Files = make(map[string]string, len(session.ModifiedFiles))
		for path := range session.ModifiedFiles {
			if content, ok := session.FileSnapshots[path]; ok {
				cp.Files[path] = content
				continue
			}
			if fsImpl.Exists(path) {
				b, err := fsImpl.ReadFile(path)
				if err == nil {
					cp.Files[path] = string(b)
				}
			}
		}
		cp.Fingerprint = fingerprint.FileSet(cp.Files)
	}
	session.Checkpoints[cp.ID] = cp
	return cp
}

// Restore sets the session's scalar fields from the checkpoint and,
// in snapshot mode, rewrites every captured file. Missing checkpoint
// id fails with CheckpointNotFound.
func Restore(session *models.Session, fsImpl fsys.FS, id string) *refineerr.Error {
	cp, ok := session.Checkpoints[id]
	if !ok {
		return refineerr.New(refineerr.CheckpointNotFound, "no checkpoint with id %q", id)
	}

	session.Step = cp.Step
	session.BestScore = cp.Score
	session.EmaScore = cp.EmaScore

	if session.Mode == models.ModeSnapshot {
		written := make(map[string]string, len(cp.Files))
		for path, content := range cp.Files {
			if err := fsImpl.EnsureDir(filepath.Dir(path)); err != nil {
				return refineerr.New(refineerr.ValidationError, "creating directory for %s: %v", path, err)
			}
			if err := fsImpl.WriteFile(path, []byte(content)); err != nil {
				return refineerr.New(refineerr.ValidationError, "restoring %s: %v", path, err)
			}
			session.FileSnapshots[path] = content

			b, err := fsImpl.ReadFile(path)
			if err != nil {
				return refineerr.New(refineerr.ValidationError, "verifying restored %s: %v", path, err)
			}
			written[path] = string(b)
		}
		if cp.Fingerprint != "" && fingerprint.FileSet(written) != cp.Fingerprint {
			return refineerr.New(refineerr.ValidationError, "checkpoint %q content fingerprint mismatch after restore, filesystem may be inconsistent", id)
		}
	}
	return nil
}

// List returns every checkpoint for the session, in no particular
// order — callers that need a stable order should sort by CreatedAt.
func List(session *models.Session) []*models.Checkpoint {
	out := make([]*models.Checkpoint, 0, len(session.Checkpoints))
	for _, cp := range session.Checkpoints {
		out = append(out, cp)
	}
	return out
}
