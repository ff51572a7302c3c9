package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/cityofaustin/atd-mds-go/pkg/pipeline"
)

// runSyncSocrataCmd implements the `sync_socrata` subcommand: mirror a
// provider's warehouse trips for a time range to the open-data platform
// (spec.md §6, §4.9 socrata-sync step). Unlike extract/sync_db it takes
// no --force — socrata-sync has no status precondition to bypass
// (spec.md §6's CLI surface table).
func runSyncSocrataCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("sync_socrata", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		providerName string
		timeMaxStr   string
		timeMinStr   string
		interval     int
	)
	cmd.StringVar(&providerName, "provider", "", "Provider name (REQUIRED)")
	cmd.StringVar(&timeMaxStr, "time-max", "", "Upper time bound, format YYYY-M-D-H (REQUIRED)")
	cmd.StringVar(&timeMinStr, "time-min", "", "Lower time bound, format YYYY-M-D-H")
	cmd.IntVar(&interval, "interval", 1, "Number of hours back from --time-max when --time-min is unset")

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

	results, err := deps.orch.Run(context.Background(), pipeline.RunRequest{
		ProviderName: providerName,
		TimeMin:      timeMin,
		TimeMax:      timeMax,
		Filter:       pipeline.FilterForce,
		Flags:        pipeline.Flags{NoExtract: true, NoSyncDB: true},
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	printResults(stdout, results)
	return 0
}
