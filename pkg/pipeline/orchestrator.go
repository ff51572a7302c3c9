package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cityofaustin/atd-mds-go/internal/timezone"
	"github.com/cityofaustin/atd-mds-go/pkg/runlock"
	"github.com/cityofaustin/atd-mds-go/pkg/schedule"
	"github.com/cityofaustin/atd-mds-go/pkg/telemetry"
)

// StatusFilterMode selects which schedule blocks Orchestrator dispatches
// for a given run, per spec.md §6's --force/--incomplete-only flags.
type StatusFilterMode int

const (
	// FilterDefault dispatches only pending (status 0) blocks.
	FilterDefault StatusFilterMode = iota
	// FilterIncompleteOnly dispatches blocks whose status is below 8
	// (StatusSocrataSuccess), regardless of how far through the pipeline
	// they got.
	FilterIncompleteOnly
	// FilterForce dispatches every block in range by omitting the status
	// predicate from the schedule query. RunBlock's per-stage
	// preconditions still apply unless Flags.Force is also set.
	FilterForce
)

// Orchestrator expands a (provider, time range, interval) request into
// schedule blocks and dispatches BlockExecutor.RunBlock across a bounded
// worker pool, holding a runlock.Registry lease per block so two
// concurrent invocations never double-process the same hour (spec.md
// §4.10), grounded on the teacher's Swarm.pollAll semaphore+WaitGroup
// pattern (pkg/compliance/regwatch/swarm.go).
type Orchestrator struct {
	executor   *BlockExecutor
	repo       *schedule.Repo
	locks      runlock.Registry
	telemetry  *telemetry.Provider
	maxThreads int
	holder     string
}

// NewOrchestrator constructs an Orchestrator. maxThreads bounds the
// worker pool's concurrency (spec.md §9, config.Config.MaxThreads);
// holder identifies this process in runlock.Registry (spec.md §4.10,
// typically hostname:pid).
func NewOrchestrator(executor *BlockExecutor, repo *schedule.Repo, locks runlock.Registry, tel *telemetry.Provider, maxThreads int, holder string) *Orchestrator {
	if maxThreads < 1 {
		maxThreads = 1
	}
	return &Orchestrator{
		executor:   executor,
		repo:       repo,
		locks:      locks,
		telemetry:  tel,
		maxThreads: maxThreads,
		holder:     holder,
	}
}

// RunRequest is one invocation's scope: a provider, a (TimeMin, TimeMax]
// time range, and the status-filter/flag settings to apply to every
// matching block (spec.md §6).
type RunRequest struct {
	ProviderName string
	TimeMin      time.Time
	TimeMax      time.Time
	Location     string
	Filter       StatusFilterMode
	Flags        Flags
}

// Run queries the schedule for req's blocks, acquires a lock per block, and
// dispatches RunBlock across the worker pool. Blocks whose lock is
// already held elsewhere are skipped, not failed (spec.md §4.10: a
// concurrent invocation losing the race is a no-op, not an error).
func (o *Orchestrator) Run(ctx context.Context, req RunRequest) ([]Result, error) {
	statusID, statusOp, statusCheck := filterClause(req.Filter)

	blocks, err := o.repo.QueryPending(ctx, req.ProviderName, req.TimeMin, req.TimeMax, statusID, statusOp, statusCheck)
	if err != nil {
		return nil, fmt.Errorf("pipeline: query_pending: %w", err)
	}

	sem := make(chan struct{}, o.maxThreads)
	var wg sync.WaitGroup
	var mu sync.Mutex
	results := make([]Result, 0, len(blocks))

	for _, b := range blocks {
		wg.Add(1)
		go func(b schedule.Block) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			result, ran := o.runOneBlock(ctx, b, req)
			if !ran {
				return
			}
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		}(b)
	}

	wg.Wait()
	return results, nil
}

// runOneBlock acquires one lock for the block (under the db_sync stage
// key), runs all of the block's stages, and releases the lock, recording
// telemetry regardless of outcome.
func (o *Orchestrator) runOneBlock(ctx context.Context, b schedule.Block, req RunRequest) (Result, bool) {
	if o.locks != nil {
		acquired, err := o.locks.Acquire(ctx, b.ScheduleID, runlock.StageDBSync, o.holder)
		if err != nil || !acquired {
			return Result{}, false
		}
		defer o.locks.Release(ctx, b.ScheduleID, runlock.StageDBSync, o.holder)
	}

	start := time.Now()
	if o.telemetry != nil {
		tctx, sp := o.telemetry.StartBlockSpan(ctx, b.ScheduleID, b.ProviderName)
		ctx = tctx
		defer sp.End()
	}

	result, err := o.executor.RunBlock(ctx, b, req.Flags)
	if o.telemetry != nil {
		o.telemetry.RecordBlock(ctx, b.ProviderName, statusLabel(result.FinalStatus), result.RecordsTotal, result.RecordsError, time.Since(start))
	}
	if err != nil {
		result.Message = err.Error()
	}
	return result, true
}

func filterClause(mode StatusFilterMode) (schedule.Status, schedule.StatusOperator, bool) {
	switch mode {
	case FilterIncompleteOnly:
		// Matches provider_runtool.py's --incomplete-only query
		// (status_id=8, status_operator="_lt"): anything that hasn't yet
		// reached a terminal Socrata-Sync success is still "incomplete",
		// regardless of how far through the pipeline it got.
		return schedule.StatusSocrataSuccess, schedule.OpLt, true
	case FilterForce:
		return 0, "", false
	default:
		return schedule.StatusPending, schedule.OpEq, true
	}
}

func statusLabel(s schedule.Status) string {
	switch s {
	case schedule.StatusPending:
		return "PENDING"
	case schedule.StatusExtracted:
		return "EXTRACTED"
	case schedule.StatusDBSyncSuccess:
		return "DB_SYNC_SUCCESS"
	case schedule.StatusDBSyncPartial:
		return "DB_SYNC_PARTIAL"
	case schedule.StatusDBSyncAllFailedHTP:
		return "DB_SYNC_ALL_FAILED"
	case schedule.StatusEmptyPayload:
		return "EMPTY_PAYLOAD"
	case schedule.StatusSocrataSuccess:
		return "SOCRATA_SUCCESS"
	case schedule.StatusSocrataFailed:
		return "SOCRATA_FAILED"
	default:
		return "UNKNOWN"
	}
}

// ExpandHours is a convenience helper for callers (cmd/mds) that need the
// individual hour boundaries a range spans, e.g. for --dry-run reporting.
func ExpandHours(location string, timeMin, timeMax time.Time) ([]time.Time, error) {
	var hours []time.Time
	for t := timeMin; t.Before(timeMax); t = t.Add(time.Hour) {
		start, _, err := timezone.HourBounds(location, t.Year(), int(t.Month()), t.Day(), t.Hour())
		if err != nil {
			return nil, err
		}
		hours = append(hours, start)
	}
	return hours, nil
}
