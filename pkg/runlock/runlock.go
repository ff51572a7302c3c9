// Package runlock implements the local run registry SPEC_FULL.md §B.6
// supplements: a small table guarding against two workers picking up the
// same schedule block's stage concurrently, grounded on the teacher's
// dual-backend receipt store (pkg/store.ReceiptStore /
// PostgresReceiptStore / SQLiteReceiptStore).
package runlock

import (
	"context"
	"time"
)

// Stage names the pipeline stage a lock is held for, so a block's Extract
// stage and DB-Sync stage can be owned by different workers without
// contending on the same row.
type Stage string

const (
	StageExtract    Stage = "extract"
	StageDBSync     Stage = "db_sync"
	StageSocrataSync Stage = "socrata_sync"
)

// Lock records who holds a (schedule_id, stage) pair and when they
// acquired it.
type Lock struct {
	ScheduleID int64
	Stage      Stage
	Holder     string
	AcquiredAt time.Time
}

// Registry is the interface Orchestrator depends on, narrowed so tests
// substitute either backend or an in-memory fake without a database.
type Registry interface {
	// Acquire attempts to take the lock for (scheduleID, stage) on behalf
	// of holder. Returns true if acquired, false if another holder
	// already owns it (INSERT ... ON CONFLICT DO NOTHING semantics).
	Acquire(ctx context.Context, scheduleID int64, stage Stage, holder string) (bool, error)
	// Release drops the lock, allowing a future Acquire to succeed.
	Release(ctx context.Context, scheduleID int64, stage Stage, holder string) error
}
