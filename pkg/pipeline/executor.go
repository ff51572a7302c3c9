// Package pipeline implements BlockExecutor and Orchestrator (spec.md
// §4.9-§4.10): for one ScheduleBlock, sequence Extract → DB-Sync →
// Socrata-Sync, threading each stage's writes into the next's reads and
// the status-transition contract through ScheduleRepo.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cityofaustin/atd-mds-go/internal/appcontext"
	"github.com/cityofaustin/atd-mds-go/internal/timezone"
	"github.com/cityofaustin/atd-mds-go/pkg/config"
	"github.com/cityofaustin/atd-mds-go/pkg/geo"
	"github.com/cityofaustin/atd-mds-go/pkg/gqlgateway"
	"github.com/cityofaustin/atd-mds-go/pkg/objectstore"
	"github.com/cityofaustin/atd-mds-go/pkg/provider"
	"github.com/cityofaustin/atd-mds-go/pkg/schedule"
	"github.com/cityofaustin/atd-mds-go/pkg/socrata"
	"github.com/cityofaustin/atd-mds-go/pkg/trip"
)

// blobStore narrows *objectstore.Store to what BlockExecutor needs, so
// tests can substitute an in-memory fake instead of hitting S3.
type blobStore interface {
	Put(ctx context.Context, key string, body []byte, encrypt bool) (string, error)
	Get(ctx context.Context, key string) (map[string]interface{}, error)
}

// gqlExecutor narrows *gqlgateway.Client similarly.
type gqlExecutor interface {
	Execute(ctx context.Context, query string, out interface{}) error
}

// Flags toggle which stages BlockExecutor runs for a given invocation,
// matching spec.md §6's runtool composite flags.
type Flags struct {
	Force         bool
	NoExtract     bool
	NoSyncDB      bool
	NoSyncSocrata bool
	DryRun        bool
}

// BlockExecutor runs the three stages for one ScheduleBlock, reading and
// writing through an AppContext's wired components.
type BlockExecutor struct {
	config       *config.Config
	blobs        blobStore
	gql          gqlExecutor
	schedule     *schedule.Repo
	providers    map[string]*provider.Client
	enricher     *geo.Enricher
	socrataSinks map[string]*socrata.Sink
}

// New constructs a BlockExecutor from an AppContext. providers/
// socrataSinks are keyed by provider name since every ProviderClient/
// SocrataSink is configured per-provider (spec.md §3).
func New(app *appcontext.AppContext, scheduleRepo *schedule.Repo, providers map[string]*provider.Client, enricher *geo.Enricher, socrataSinks map[string]*socrata.Sink) *BlockExecutor {
	return &BlockExecutor{
		config:       app.Config,
		blobs:        app.Blobs,
		gql:          app.GQL,
		schedule:     scheduleRepo,
		providers:    providers,
		enricher:     enricher,
		socrataSinks: socrataSinks,
	}
}

// Result summarizes one block run for the caller (cmd/mds, tests).
type Result struct {
	ScheduleID   int64
	FinalStatus  schedule.Status
	RecordsTotal int
	RecordsError int
	Message      string
}

// RunBlock runs Extract, DB-Sync, and Socrata-Sync in order for block B,
// skipping any stage disabled by flags, and returns the final observed
// status (spec.md §4.9/§4.10).
func (e *BlockExecutor) RunBlock(ctx context.Context, b schedule.Block, flags Flags) (Result, error) {
	result := Result{ScheduleID: b.ScheduleID, FinalStatus: b.StatusID}

	if !flags.NoExtract && (b.StatusID == schedule.StatusPending || flags.Force) {
		status, err := e.extract(ctx, b, flags)
		if err != nil {
			return result, fmt.Errorf("pipeline: extract schedule_id=%d: %w", b.ScheduleID, err)
		}
		b.StatusID = status
		result.FinalStatus = status
	}

	if !flags.NoSyncDB && (b.StatusID == schedule.StatusExtracted || flags.Force) {
		status, processed, errCount, err := e.dbSync(ctx, b, flags)
		if err != nil {
			return result, fmt.Errorf("pipeline: db_sync schedule_id=%d: %w", b.ScheduleID, err)
		}
		b.StatusID = status
		result.FinalStatus = status
		result.RecordsTotal = processed
		result.RecordsError = errCount
	}

	if !flags.NoSyncSocrata {
		status, err := e.socrataSync(ctx, b, flags)
		if err != nil {
			return result, fmt.Errorf("pipeline: socrata_sync schedule_id=%d: %w", b.ScheduleID, err)
		}
		b.StatusID = status
		result.FinalStatus = status
	}

	return result, nil
}

// extract implements spec.md §4.9's Extract stage.
func (e *BlockExecutor) extract(ctx context.Context, b schedule.Block, flags Flags) (schedule.Status, error) {
	loc := e.config.Location
	t0, t1, err := timezone.HourBounds(loc, b.Year, b.Month, b.Day, b.Hour)
	if err != nil {
		return b.StatusID, fmt.Errorf("extract: hour bounds: %w", err)
	}

	client, ok := e.providers[b.ProviderName]
	if !ok {
		return b.StatusID, fmt.Errorf("extract: no ProviderClient configured for %q", b.ProviderName)
	}

	res, err := client.GetTrips(ctx, t0.Unix(), t1.Unix(), e.config.MaxPages, nil)
	if err != nil {
		return b.StatusID, fmt.Errorf("extract: get_trips: %w", err)
	}

	key := objectstore.TripsKey(e.config.Stage, b.ProviderName, t0)

	if flags.DryRun {
		return schedule.StatusExtracted, nil
	}

	body, err := json.Marshal(map[string]interface{}{
		"version": res.Version,
		"trips":   res.Trips,
	})
	if err != nil {
		return b.StatusID, fmt.Errorf("extract: serialize: %w", err)
	}

	if _, err := e.blobs.Put(ctx, key, body, true); err != nil {
		return b.StatusID, fmt.Errorf("extract: put: %w", err)
	}

	if _, err := e.schedule.UpdateStatus(ctx, b.ScheduleID, schedule.StatusExtracted, []gqlgateway.Field{
		{Name: "payload", Value: key},
		{Name: "message", Value: "Successfully uploaded to S3"},
	}); err != nil {
		return b.StatusID, fmt.Errorf("extract: update_status: %w", err)
	}

	return schedule.StatusExtracted, nil
}

// dbSync implements spec.md §4.9's DB-Sync stage.
func (e *BlockExecutor) dbSync(ctx context.Context, b schedule.Block, flags Flags) (schedule.Status, int, int, error) {
	t0, _, err := timezone.HourBounds(e.config.Location, b.Year, b.Month, b.Day, b.Hour)
	if err != nil {
		return b.StatusID, 0, 0, fmt.Errorf("db_sync: hour bounds: %w", err)
	}
	key := objectstore.TripsKey(e.config.Stage, b.ProviderName, t0)

	doc, err := e.blobs.Get(ctx, key)
	if err != nil {
		return b.StatusID, 0, 0, fmt.Errorf("db_sync: get: %w", err)
	}
	rawTrips, _ := doc["trips"].([]interface{})
	if len(rawTrips) == 0 {
		if !flags.DryRun {
			if _, err := e.schedule.UpdateStatus(ctx, b.ScheduleID, schedule.StatusEmptyPayload, nil); err != nil {
				return b.StatusID, 0, 0, fmt.Errorf("db_sync: update_status: %w", err)
			}
		}
		return schedule.StatusEmptyPayload, 0, 0, nil
	}

	type tripError struct {
		TripID       string `json:"trip_id"`
		Mutation     string `json:"mutation"`
		Response     string `json:"response"`
		MutationHash string `json:"mutation_hash,omitempty"`
	}

	total := len(rawTrips)
	success := 0
	errCount := 0
	var errors []tripError

	for _, item := range rawTrips {
		raw, ok := item.(map[string]interface{})
		if !ok {
			errCount++
			continue
		}
		if b.ProviderName == "VeoRide INC." {
			for _, k := range []string{"trip_id", "device_id", "vehicle_id"} {
				if n, ok := raw[k].(float64); ok {
					raw[k] = fmt.Sprintf("%d", int64(n))
				}
			}
		}
		if violations := trip.Validate(trip.TripSchema, raw); len(violations) > 0 {
			errCount++
			if len(errors) < total {
				errors = append(errors, tripError{TripID: fmt.Sprintf("%v", raw["trip_id"]), Response: violations[0].Error()})
			}
			continue
		}

		t := decodeTrip(raw, b.ProviderName)
		applyProviderQuirk(t, b.ProviderName)
		if e.enricher != nil {
			e.enricher.EnrichTrip(t)
		}

		mutation := trip.InsertMutation(t)
		hash, _ := trip.MutationHash(t)

		var resp struct {
			InsertAPITrips struct {
				AffectedRows int `json:"affected_rows"`
			} `json:"insert_api_trips"`
		}
		if err := e.gql.Execute(ctx, mutation, &resp); err != nil {
			errCount++
			if len(errors) < total {
				errors = append(errors, tripError{TripID: t.TripID, Mutation: mutation, Response: err.Error(), MutationHash: hash})
			}
			continue
		}
		if resp.InsertAPITrips.AffectedRows == 0 {
			errCount++
			if len(errors) < total {
				errors = append(errors, tripError{TripID: t.TripID, Mutation: mutation, Response: "affected_rows=0", MutationHash: hash})
			}
			continue
		}
		success++
	}

	status := schedule.DeriveDBSyncStatus(success, errCount, total)

	if !flags.DryRun {
		errorJSON, _ := json.Marshal(errors)
		if _, err := e.schedule.UpdateStatus(ctx, b.ScheduleID, status, []gqlgateway.Field{
			{Name: "records_processed", Value: success},
			{Name: "records_total", Value: total},
			{Name: "records_error_count", Value: errCount},
			{Name: "rerun_flag", Value: errCount > 0},
			{Name: "error_payload", Value: string(errorJSON)},
		}); err != nil {
			return b.StatusID, success, errCount, fmt.Errorf("db_sync: update_status: %w", err)
		}
	}

	return status, success, errCount, nil
}

// socrataSync implements spec.md §4.9's Socrata-Sync stage, which has no
// status precondition: it runs for any block regardless of current state.
func (e *BlockExecutor) socrataSync(ctx context.Context, b schedule.Block, flags Flags) (schedule.Status, error) {
	sink, ok := e.socrataSinks[b.ProviderName]
	if !ok {
		return b.StatusID, fmt.Errorf("socrata_sync: no SocrataSink configured for %q", b.ProviderName)
	}

	t0, t1, err := timezone.HourBounds(e.config.Location, b.Year, b.Month, b.Day, b.Hour)
	if err != nil {
		return b.StatusID, fmt.Errorf("socrata_sync: hour bounds: %w", err)
	}

	records, err := sink.Fetch(ctx, t0, t1)
	if err != nil {
		return b.StatusID, fmt.Errorf("socrata_sync: fetch: %w", err)
	}

	if flags.DryRun {
		return schedule.StatusSocrataSuccess, nil
	}

	result, err := sink.Upsert(ctx, records)
	if err != nil {
		if _, uerr := e.schedule.UpdateStatus(ctx, b.ScheduleID, schedule.StatusSocrataFailed, nil); uerr != nil {
			return b.StatusID, fmt.Errorf("socrata_sync: update_status: %w", uerr)
		}
		return schedule.StatusSocrataFailed, nil
	}

	status := schedule.StatusSocrataSuccess
	if result.Errors != 0 {
		status = schedule.StatusSocrataFailed
	}

	if _, err := e.schedule.UpdateStatus(ctx, b.ScheduleID, status, nil); err != nil {
		return b.StatusID, fmt.Errorf("socrata_sync: update_status: %w", err)
	}
	return status, nil
}

func decodeTrip(raw map[string]interface{}, providerName string) *trip.Trip {
	t := &trip.Trip{
		ProviderID:   str(raw["provider_id"]),
		ProviderName: providerName,
		DeviceID:     str(raw["device_id"]),
		VehicleID:    str(raw["vehicle_id"]),
		VehicleType:  str(raw["vehicle_type"]),
		TripID:       str(raw["trip_id"]),
		TripDuration: num(raw["trip_duration"]),
		TripDistance: num(raw["trip_distance"]),
		Accuracy:     num(raw["accuracy"]),
		StartTime:    int64(num(raw["start_time"])),
		EndTime:      int64(num(raw["end_time"])),
	}
	if route, ok := raw["route"].(map[string]interface{}); ok {
		t.Route = route
	}
	if list, ok := raw["propulsion_type"].([]interface{}); ok {
		for _, v := range list {
			if s, ok := v.(string); ok {
				t.PropulsionType = append(t.PropulsionType, s)
			}
		}
	}
	return t
}

// applyProviderQuirk implements spec.md §4.9 step 2's "apply provider
// quirk if needed": VeoRide's IDs are integers spliced into their own
// UUID-shaped provider prefix (original_source/provider_sync_db.py).
func applyProviderQuirk(t *trip.Trip, providerName string) {
	if providerName != "VeoRide INC." {
		return
	}
	if n, err := parseInt64(t.TripID); err == nil {
		t.TripID = trip.IntToUUID(n)
	}
	if n, err := parseInt64(t.DeviceID); err == nil {
		t.DeviceID = trip.IntToUUID(n)
	}
}

func parseInt64(s string) (int64, error) {
	var n int64
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}

func num(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}
