package runlock

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresRegistry is the durable backend, used when ATD_MDS_LOCK_DSN
// points at a shared Postgres instance so multiple orchestrator processes
// serialize against each other — grounded on the teacher's
// PostgresReceiptStore.
type PostgresRegistry struct {
	db *sql.DB
}

func NewPostgresRegistry(db *sql.DB) *PostgresRegistry {
	return &PostgresRegistry{db: db}
}

func (r *PostgresRegistry) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS block_locks (
			schedule_id BIGINT NOT NULL,
			stage TEXT NOT NULL,
			holder TEXT NOT NULL,
			acquired_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (schedule_id, stage)
		)
	`)
	return err
}

func (r *PostgresRegistry) Acquire(ctx context.Context, scheduleID int64, stage Stage, holder string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO block_locks (schedule_id, stage, holder)
		VALUES ($1, $2, $3)
		ON CONFLICT (schedule_id, stage) DO NOTHING
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

func (r *PostgresRegistry) Release(ctx context.Context, scheduleID int64, stage Stage, holder string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM block_locks WHERE schedule_id = $1 AND stage = $2 AND holder = $3
	`, scheduleID, string(stage), holder)
	if err != nil {
		return fmt.Errorf("runlock: release: %w", err)
	}
	return nil
}

// AcquireForUpdate claims the next unlocked block for a stage from a
// candidate set of schedule IDs, using SELECT ... FOR UPDATE SKIP LOCKED
// so a worker never blocks waiting on a row another worker is mid-claim
// on. Returns 0 if none were available.
func (r *PostgresRegistry) AcquireForUpdate(ctx context.Context, candidateIDs []int64, stage Stage, holder string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("runlock: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range candidateIDs {
		var existingHolder string
		err := tx.QueryRowContext(ctx, `
			SELECT holder FROM block_locks WHERE schedule_id = $1 AND stage = $2 FOR UPDATE SKIP LOCKED
		`, id, string(stage)).Scan(&existingHolder)

		switch {
		case err == sql.ErrNoRows:
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO block_locks (schedule_id, stage, holder) VALUES ($1, $2, $3)
			`, id, string(stage), holder); err != nil {
				return 0, fmt.Errorf("runlock: claim %d: %w", id, err)
			}
			return id, tx.Commit()
		case err != nil:
			continue
		default:
			continue
		}
	}
	return 0, tx.Commit()
}
