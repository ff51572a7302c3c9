package config

import (
	"context"
	"fmt"
)

// BlobGetter is the slice of ObjectStore that ConfigStore needs: fetch a
// key and get back a best-effort-decoded JSON document (pkg/objectstore's
// Get never errors — it returns an empty map on any failure, per
// spec.md §4.2).
type BlobGetter interface {
	Get(ctx context.Context, key string) (map[string]interface{}, error)
}

// Store is the hydrated ConfigStore: providers + settings, loaded once at
// startup and immutable thereafter (spec.md §5: "ConfigStore is immutable
// after load()").
type Store struct {
	Providers *ProviderStore
	Settings  Settings
}

// LoadStore hydrates providers and settings from two JSON blobs in object
// storage, keyed "config/providers_{stage}.json" and
// "config/settings_{stage}.json" (spec.md §6 persisted-state layout).
// Both blobs may be encrypted; decryption is ObjectStore's concern, not
// ConfigStore's. Named distinctly from config.Load (process-level env
// config) since both live in this package.
func LoadStore(ctx context.Context, blobs BlobGetter, stage Stage) (*Store, error) {
	providersKey := fmt.Sprintf("config/providers_%s.json", stage)
	settingsKey := fmt.Sprintf("config/settings_%s.json", stage)

	providersDoc, err := blobs.Get(ctx, providersKey)
	if err != nil {
		return nil, fmt.Errorf("config: load providers: %w", err)
	}
	providers, err := NewProviderStore(providersDoc)
	if err != nil {
		return nil, fmt.Errorf("config: parse providers: %w", err)
	}

	settingsDoc, err := blobs.Get(ctx, settingsKey)
	if err != nil {
		return nil, fmt.Errorf("config: load settings: %w", err)
	}

	return &Store{Providers: providers, Settings: Settings(settingsDoc)}, nil
}
