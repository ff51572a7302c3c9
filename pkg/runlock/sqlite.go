package runlock

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteRegistry is the single-process/dev fallback backend when
// ATD_MDS_LOCK_DSN is unset, used so `runtool` still guards against two
// local invocations racing on the same block — grounded on the teacher's
// SQLiteReceiptStore.
type SQLiteRegistry struct {
	db *sql.DB
}

func NewSQLiteRegistry(db *sql.DB) (*SQLiteRegistry, error) {
	r := &SQLiteRegistry{db: db}
	if err := r.migrate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *SQLiteRegistry) migrate() error {
	_, err := r.db.ExecContext(context.Background(), `
		CREATE TABLE IF NOT EXISTS block_locks (
			schedule_id INTEGER NOT NULL,
			stage TEXT NOT NULL,
			holder TEXT NOT NULL,
			acquired_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (schedule_id, stage)
		)
	`)
	return err
}

func (r *SQLiteRegistry) Acquire(ctx context.Context, scheduleID int64, stage Stage, holder string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO block_locks (schedule_id, stage, holder) VALUES (?, ?, ?)
	`, scheduleID, string(stage), holder)
	if err != nil {
		return false, fmt.Errorf("runlock: acquire: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("runlock: acquire: %w", err)
	}
	return n == 1, nil
}

func (r *SQLiteRegistry) Release(ctx context.Context, scheduleID int64, stage Stage, holder string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM block_locks WHERE schedule_id = ? AND stage = ? AND holder = ?
	`, scheduleID, string(stage), holder)
	if err != nil {
		return fmt.Errorf("runlock: release: %w", err)
	}
	return nil
}
