package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/cityofaustin/atd-mds-go/internal/appcontext"
	"github.com/cityofaustin/atd-mds-go/pkg/config"
	"github.com/cityofaustin/atd-mds-go/pkg/geo"
	"github.com/cityofaustin/atd-mds-go/pkg/gqlgateway"
	"github.com/cityofaustin/atd-mds-go/pkg/objectstore"
	"github.com/cityofaustin/atd-mds-go/pkg/pipeline"
	"github.com/cityofaustin/atd-mds-go/pkg/provider"
	"github.com/cityofaustin/atd-mds-go/pkg/runlock"
	"github.com/cityofaustin/atd-mds-go/pkg/schedule"
	"github.com/cityofaustin/atd-mds-go/pkg/socrata"
	"github.com/cityofaustin/atd-mds-go/pkg/telemetry"
)

// pipelineDeps bundles every constructed dependency a subcommand needs so
// extract/sync_db/sync_socrata/runtool can each take only what they use
// rather than threading a dozen parameters through.
type pipelineDeps struct {
	appCtx    *appcontext.AppContext
	store     *config.Store
	executor  *pipeline.BlockExecutor
	orch      *pipeline.Orchestrator
	scheduleR *schedule.Repo
}

// buildPipelineDeps wires every SPEC_FULL.md §B component from environment
// and the settings/providers blobs, mirroring provider_runtool.py's
// module-level construction of mds_config/mds_aws/mds_gql/mds_pip, but as
// one explicit call instead of import-time globals (internal/appcontext
// doc comment).
func buildPipelineDeps(ctx context.Context, log *slog.Logger) (*pipelineDeps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("mds: load config: %w", err)
	}

	blobs, err := objectstore.New(ctx, objectstore.Config{
		Region:          cfg.AWSRegion,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretKey,
		Bucket:          cfg.Bucket,
		FernetKey:       cfg.FernetKey,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("mds: build object store: %w", err)
	}

	store, err := config.LoadStore(ctx, blobs, cfg.Stage)
	if err != nil {
		return nil, fmt.Errorf("mds: load provider/settings blobs: %w", err)
	}

	// The warehouse endpoint and admin secret travel in the settings blob
	// (get_setting("HASURA_ENDPOINT"/"HASURA_ADMIN_KEY", ...) in
	// provider_runtool.py) rather than the environment, since they're
	// operational config that changes per-stage alongside the rest of
	// settings.json.
	endpoint, _ := store.Settings.GetSetting("HASURA_ENDPOINT", "").(string)
	adminKey, _ := store.Settings.GetSetting("HASURA_ADMIN_KEY", "").(string)
	if endpoint == "" {
		return nil, fmt.Errorf("mds: settings blob is missing HASURA_ENDPOINT")
	}
	gql := gqlgateway.New(endpoint, adminKey, 30*time.Second)

	appCtx := appcontext.New(cfg, store, blobs, gql, log)

	providers := make(map[string]*provider.Client)
	for _, name := range store.Providers.Names() {
		profile, err := store.Providers.GetProviderProfile(name)
		if err != nil {
			return nil, err
		}
		client, err := provider.New(profile)
		if err != nil {
			return nil, fmt.Errorf("mds: build provider client %q: %w", name, err)
		}
		providers[name] = client
	}

	var enricher *geo.Enricher
	if cfg.CensusGeoJSON != "" && cfg.DistrictGeoJSON != "" && cfg.HexGeoJSON != "" {
		enricher, err = geo.New(geo.Paths{
			CensusTracts:     cfg.CensusGeoJSON,
			CouncilDistricts: cfg.DistrictGeoJSON,
			HexGrid:          cfg.HexGeoJSON,
		})
		if err != nil {
			return nil, fmt.Errorf("mds: build geo enricher: %w", err)
		}
	} else {
		log.Warn("mds: geojson layer paths unset, trips will not be geo-enriched")
	}

	socrataSinks := buildSocrataSinks(store.Settings, gql)

	scheduleRepo := schedule.New(gql)

	locks, err := buildRunlock(ctx)
	if err != nil {
		return nil, fmt.Errorf("mds: build run lock registry: %w", err)
	}

	tel, err := telemetry.New(telemetry.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("mds: build telemetry provider: %w", err)
	}

	executor := pipeline.New(appCtx, scheduleRepo, providers, enricher, socrataSinks)

	holder := holderIdentity()
	orch := pipeline.NewOrchestrator(executor, scheduleRepo, locks, tel, cfg.MaxThreads, holder)

	return &pipelineDeps{
		appCtx:    appCtx,
		store:     store,
		executor:  executor,
		orch:      orch,
		scheduleR: scheduleRepo,
	}, nil
}

// buildSocrataSinks decodes settings["socrata"] = {provider_name: {...}}
// into one socrata.Sink per provider. A provider absent from that map
// simply has no sink, and socrataSync (pipeline/executor.go) returns an
// error for that provider's blocks.
func buildSocrataSinks(settings config.Settings, gql *gqlgateway.Client) map[string]*socrata.Sink {
	sinks := make(map[string]*socrata.Sink)

	raw, ok := settings["socrata"].(map[string]interface{})
	if !ok {
		return sinks
	}
	for name, v := range raw {
		m, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		sinks[name] = socrata.New(socrata.Config{
			ProviderName: name,
			Endpoint:     strOf(m["endpoint"]),
			Dataset:      strOf(m["dataset"]),
			AppToken:     strOf(m["app_token"]),
			KeyID:        strOf(m["key_id"]),
			KeySecret:    strOf(m["key_secret"]),
		}, gql)
	}
	return sinks
}

func strOf(v interface{}) string {
	s, _ := v.(string)
	return s
}

// buildRunlock picks Postgres when ATD_MDS_LOCK_DSN is set, otherwise
// falls back to a local SQLite file so a single operator running
// runtool from a laptop still gets block-level mutual exclusion.
func buildRunlock(ctx context.Context) (runlock.Registry, error) {
	if dsn := os.Getenv("ATD_MDS_LOCK_DSN"); dsn != "" {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres lock dsn: %w", err)
		}
		reg := runlock.NewPostgresRegistry(db)
		if err := reg.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate postgres lock registry: %w", err)
		}
		return reg, nil
	}

	path := os.Getenv("ATD_MDS_LOCK_SQLITE_PATH")
	if path == "" {
		path = "./mds_run_locks.db"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite lock db: %w", err)
	}
	return runlock.NewSQLiteRegistry(db)
}

func holderIdentity() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown-host"
	}
	return fmt.Sprintf("%s:%d", host, os.Getpid())
}

// parseMDSTime parses the CLI's "YYYY-M-D-H" time format (spec.md §6),
// which intentionally doesn't require zero-padding.
func parseMDSTime(s string) (time.Time, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 4 {
		return time.Time{}, fmt.Errorf("mds: invalid time %q, want YYYY-M-D-H", s)
	}
	nums := make([]int, 4)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, fmt.Errorf("mds: invalid time %q: %w", s, err)
		}
		nums[i] = n
	}
	return time.Date(nums[0], time.Month(nums[1]), nums[2], nums[3], 0, 0, 0, time.UTC), nil
}

// loadEnvFile applies KEY=VALUE lines from path to the process
// environment, matching --env-file's role in provider_runtool.py of
// pointing the docker-mode invocation at a specific .env file. No
// ecosystem dotenv loader appears in the corpus, so this is a minimal
// stdlib parser rather than a pulled-in dependency.
func loadEnvFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("mds: open env file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}
