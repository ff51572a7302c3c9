package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/cityofaustin/atd-mds-go/pkg/pipeline"
)

// runSyncDBCmd implements the `sync_db` subcommand: validate, enrich, and
// insert a provider's already-extracted trips into the warehouse
// (spec.md §6, §4.9 db-sync step).
func runSyncDBCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("sync_db", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		providerName string
		timeMaxStr   string
		timeMinStr   string
		interval     int
		force        bool
	)
	cmd.StringVar(&providerName, "provider", "", "Provider name (REQUIRED)")
	cmd.StringVar(&timeMaxStr, "time-max", "", "Upper time bound, format YYYY-M-D-H (REQUIRED)")
	cmd.StringVar(&timeMinStr, "time-min", "", "Lower time bound, format YYYY-M-D-H")
	cmd.IntVar(&interval, "interval", 1, "Number of hours back from --time-max when --time-min is unset")
	cmd.BoolVar(&force, "force", false, "Run even if the block hasn't reached extracted status")

	if err := cmd.Parse(args); err != nil {
		return 1
	}
	if providerName == "" || timeMaxStr == "" {
		fmt.Fprintln(stderr, "Error: --provider and --time-max are required")
		cmd.Usage()
		return 1
	}

	timeMax, timeMin, err := resolveRange(timeMaxStr, timeMinStr, interval)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	log := slog.New(slog.NewTextHandler(stderr, nil))
	deps, err := buildPipelineDeps(context.Background(), log)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	// sync_db targets blocks already past Extract, whatever their exact
	// status — QueryPending's own status predicate is bypassed here;
	// BlockExecutor.RunBlock still enforces DB-Sync's per-stage precondition
	// (status == StatusExtracted) unless --force is also passed.
	results, err := deps.orch.Run(context.Background(), pipeline.RunRequest{
		ProviderName: providerName,
		TimeMin:      timeMin,
		TimeMax:      timeMax,
		Filter:       pipeline.FilterForce,
		Flags:        pipeline.Flags{NoExtract: true, NoSyncSocrata: true, Force: force},
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	printResults(stdout, results)
	return 0
}
