// Package historyindex provides a queryable, in-memory mirror of a
// session's iteration contexts, backed by modernc.org/sqlite. It is a
// read-acceleration cache only — session.IterationContext remains the
// source of truth, and the index is rebuilt or discarded freely
// (SPEC_FULL.md "History index").
package historyindex

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/thebtf/refineloop/pkg/models"
)

const schema = `
CREATE TABLE iteration_context (
	step INTEGER PRIMARY KEY,
	mode TEXT NOT NULL,
	files_modified TEXT NOT NULL,
	success INTEGER NOT NULL
);
`

// Index is a per-session, process-local query index. It is never
// shared across sessions and carries no state beyond what can be
// rebuilt from a session's IterationContext slice.
type Index struct {
	db *sql.DB
}

// Open creates a fresh in-memory index. The returned Index owns its
// connection; callers must Close it when the session ends.
func Open(ctx context.Context) (*Index, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open history index: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history index schema: %w", err)
	}
	return &Index{db: db}, nil
}

// Append inserts one iteration context row.
func (idx *Index) Append(ctx context.Context, ic *models.IterationContext) error {
	success := 0
	if ic.Success {
		success = 1
	}
	_, err := idx.db.ExecContext(ctx,
		`INSERT INTO iteration_context (step, mode, files_modified, success) VALUES (?, ?, ?, ?)`,
		ic.Step, ic.Mode, strings.Join(ic.FilesModified, "\x1f"), success)
	return err
}

// Rebuild replaces the index's contents with history in one
// transaction, used after Undo rewinds session.IterationContext.
func (idx *Index) Rebuild(ctx context.Context, history []*models.IterationContext) error {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM iteration_context`); err != nil {
		return err
	}
	for _, ic := range history {
		success := 0
		if ic.Success {
			success = 1
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO iteration_context (step, mode, files_modified, success) VALUES (?, ?, ?, ?)`,
			ic.Step, ic.Mode, strings.Join(ic.FilesModified, "\x1f"), success); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ByFile returns iteration contexts (newest first) whose
// files_modified blob contains file as a substring — the same
// containment semantics ErrorCorrelator uses in-memory, exposed here
// as an indexed query for large histories.
func (idx *Index) ByFile(ctx context.Context, file string) ([]*models.IterationContext, error) {
	rows, err := idx.db.QueryContext(ctx,
		`SELECT step, mode, files_modified, success FROM iteration_context
		 WHERE files_modified LIKE '%' || ? || '%' ORDER BY step DESC`, file)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.IterationContext
	for rows.Next() {
		var (
			step    int
			mode    string
			files   string
			success int
		)
		if err := rows.Scan(&step, &mode, &files, &success); err != nil {
			return nil, err
		}
		out = append(out, &models.IterationContext{
			Step:          step,
			Mode:          mode,
			FilesModified: splitFiles(files),
			Success:       success != 0,
		})
	}
	return out, rows.Err()
}

func splitFiles(files string) []string {
	if files == "" {
		return nil
	}
	return strings.Split(files, "\x1f")
}

// Close releases the underlying connection.
func (idx *Index) Close() error {
	return idx.db.Close()
}
