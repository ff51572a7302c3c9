package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cityofaustin/atd-mds-go/pkg/pipeline"
)

// runExtractCmd implements the `extract` subcommand: pull trips from one
// provider's API into object storage for every pending block in range
// (spec.md §6, §4.9 extract step).
func runExtractCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("extract", flag.ContinueOnError)
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
	cmd.BoolVar(&force, "force", false, "Run even if the block is not in pending status")

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
		Filter:       filterFor(force),
		Flags:        pipeline.Flags{NoSyncDB: true, NoSyncSocrata: true, Force: force},
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	printResults(stdout, results)
	return 0
}

// filterFor maps --force onto the orchestrator's status-filter mode:
// forced runs bypass the status precondition entirely.
func filterFor(force bool) pipeline.StatusFilterMode {
	if force {
		return pipeline.FilterForce
	}
	return pipeline.FilterDefault
}

// resolveRange derives (timeMin, timeMax] from the CLI's --time-max
// (required) and either --time-min or --interval hours back from it,
// matching provider_runtool.py's MDSCli time parsing.
func resolveRange(timeMaxStr, timeMinStr string, interval int) (timeMax, timeMin time.Time, err error) {
	timeMax, err = parseMDSTime(timeMaxStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if timeMinStr != "" {
		timeMin, err = parseMDSTime(timeMinStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return timeMax, timeMin, nil
	}
	if interval < 1 {
		interval = 1
	}
	timeMin = timeMax.Add(-time.Duration(interval) * time.Hour)
	return timeMax, timeMin, nil
}

func printResults(w io.Writer, results []pipeline.Result) {
	fmt.Fprintf(w, "Processed %d block(s)\n", len(results))
	for _, r := range results {
		fmt.Fprintf(w, "  schedule_id=%d status=%d records_processed=%d records_error=%d %s\n",
			r.ScheduleID, r.FinalStatus, r.RecordsTotal, r.RecordsError, r.Message)
	}
}
