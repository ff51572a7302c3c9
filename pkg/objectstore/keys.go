package objectstore

import (
	"fmt"
	"time"

	"github.com/cityofaustin/atd-mds-go/pkg/config"
)

// TripsKey returns the canonical object key for a provider's raw-trips blob
// at a given hour (spec.md §3 BlobObject), including the leading stage
// segment that config.DataPath deliberately omits.
func TripsKey(stage config.Stage, providerName string, t time.Time) string {
	return fmt.Sprintf("%s/%s/trips.json", stage, config.DataPath(providerName, t))
}

// ConfigKey returns the key for a named ConfigStore blob ("providers" or
// "settings") in a given stage.
func ConfigKey(stage config.Stage, name string) string {
	return fmt.Sprintf("config/%s_%s.json", name, stage)
}
