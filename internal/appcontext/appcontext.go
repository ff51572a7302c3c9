// Package appcontext replaces the source system's module-level singletons
// (mds_config, mds_aws, mds_gql constructed at import time) with one
// explicit, passed-in struct, per spec.md §9 Design Notes.
package appcontext

import (
	"log/slog"

	"github.com/cityofaustin/atd-mds-go/pkg/config"
	"github.com/cityofaustin/atd-mds-go/pkg/gqlgateway"
	"github.com/cityofaustin/atd-mds-go/pkg/objectstore"
)

// AppContext bundles the process-wide dependencies Orchestrator and
// BlockExecutor need. It is built once at startup and passed down
// explicitly; nothing in this module reaches for package-level state.
type AppContext struct {
	Config  *config.Config
	Store   *config.Store
	Blobs   *objectstore.Store
	GQL     *gqlgateway.Client
	Log     *slog.Logger
}

// New assembles an AppContext from its already-constructed parts. Callers
// (cmd/mds) are responsible for ordering construction: Config first, then
// Blobs (needs Config's AWS/Fernet settings), then Store (needs Blobs to
// fetch the providers/settings documents), then GQL.
func New(cfg *config.Config, store *config.Store, blobs *objectstore.Store, gql *gqlgateway.Client, log *slog.Logger) *AppContext {
	if log == nil {
		log = slog.Default()
	}
	return &AppContext{Config: cfg, Store: store, Blobs: blobs, GQL: gql, Log: log}
}
