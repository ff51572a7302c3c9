// Package config loads the pipeline's process-level configuration from the
// environment, then hydrates provider profiles and pipeline settings from
// encrypted blobs in object storage (LoadStore).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cityofaustin/atd-mds-go/internal/errkit"
)

// Stage is the deployment stage, mirroring ATD_MDS_RUN_MODE.
type Stage string

const (
	StageStaging    Stage = "STAGING"
	StageProduction Stage = "PRODUCTION"
)

// Config holds process-level configuration read from the environment.
// It never itself touches the network; LoadStore (store.go) does that.
type Config struct {
	AWSRegion       string
	AWSAccessKeyID  string
	AWSSecretKey    string
	Bucket          string
	Stage           Stage
	FernetKey       string
	ProvidersPath   string
	SettingsPath    string
	CensusGeoJSON   string
	DistrictGeoJSON string
	HexGeoJSON      string
	MaxThreads      int

	// Location is the named IANA zone blocks are scheduled in. Spec.md §9
	// keeps "US/Central" as the default but makes it configurable.
	Location string
	// MaxPages caps ProviderClient paging (spec.md §9 open question).
	MaxPages int
	// RetryBaseDelay is read from ATD_MDS_RETRY_BASE_MS (spec.md §9 open
	// question). provider.New does not read it: provider clients use a
	// fixed 250ms backoff base.
	RetryBaseDelay time.Duration
}

// Load reads process-level configuration from the environment. It fails
// with ConfigMissing-flavored errors (see internal/errkit) when required
// variables are absent, matching spec.md §4.1/§7.
func Load() (*Config, error) {
	cfg := &Config{
		AWSRegion:       os.Getenv("AWS_DEFAULT_REGION"),
		AWSAccessKeyID:  os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretKey:    os.Getenv("AWS_SECRET_ACCESS_KEY"),
		Bucket:          os.Getenv("ATD_MDS_BUCKET"),
		Stage:           Stage(envOr("ATD_MDS_RUN_MODE", string(StageStaging))),
		FernetKey:       os.Getenv("ATD_MDS_FERNET_KEY"),
		ProvidersPath:   os.Getenv("ATD_MDS_PROVIDERS"),
		SettingsPath:    os.Getenv("ATD_MDS_SETTINGS"),
		CensusGeoJSON:   os.Getenv("ATD_MDS_CENSUS_GEOJSON"),
		DistrictGeoJSON: os.Getenv("ATD_MDS_DISTRICTS_GEOJSON"),
		HexGeoJSON:      os.Getenv("ATD_MDS_HEX_GEOJSON"),
		Location:        envOr("MDS_TIMEZONE", "America/Chicago"),
	}

	if cfg.Bucket == "" || cfg.AWSAccessKeyID == "" || cfg.AWSSecretKey == "" {
		return nil, errkit.New(errkit.KindConfigMissing, "config.Load", fmt.Errorf("one of ATD_MDS_BUCKET, AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY is unset"))
	}
	if cfg.SettingsPath == "" {
		// spec.md §9: the source sometimes reads the settings file under
		// ATD_MDS_PROVIDERS — a likely bug. We require ATD_MDS_SETTINGS
		// explicitly rather than reproducing that confusion.
		return nil, errkit.New(errkit.KindConfigMissing, "config.Load", fmt.Errorf("ATD_MDS_SETTINGS is unset"))
	}

	maxThreads, err := strconv.Atoi(envOr("ATD_MDS_MAX_THREADS", "1"))
	if err != nil || maxThreads < 1 {
		maxThreads = 1
	}
	cfg.MaxThreads = maxThreads

	maxPages, err := strconv.Atoi(envOr("ATD_MDS_MAX_PAGES", "1000"))
	if err != nil || maxPages < 1 {
		maxPages = 1000
	}
	cfg.MaxPages = maxPages

	retryBaseMs, err := strconv.Atoi(envOr("ATD_MDS_RETRY_BASE_MS", "250"))
	if err != nil || retryBaseMs < 1 {
		retryBaseMs = 250
	}
	cfg.RetryBaseDelay = time.Duration(retryBaseMs) * time.Millisecond

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
