package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/cityofaustin/atd-mds-go/pkg/pipeline"
)

// runRuntoolCmd implements the composite `runtool` subcommand: run
// extract, sync_db, and sync_socrata back to back across every pending
// block in range, grounded on original_source/provider_runtool.py's
// process-chaining loop (`processes := [extract, sync_db, sync_socrata]`,
// minus --no-* flags). The source shelled out to `docker run
// ./provider_{process}.py` per block per stage; here the three stages run
// in-process via BlockExecutor, so --docker-mode/--docker-args/--no-logs
// are accepted for CLI compatibility but don't spawn anything — there's
// no subprocess left to template a command string for. --docker-mode
// still requires --env-file, and --no-logs suppresses the
// Provider/Force/Time range banner.
func runRuntoolCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("runtool", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		providerName   string
		timeMaxStr     string
		timeMinStr     string
		interval       int
		force          bool
		incompleteOnly bool
		dockerMode     bool
		noLogs         bool
		dryRun         bool
		noSyncDB       bool
		noSyncSocrata  bool
		noExtract      bool
		envFile        string
		dockerArgs     string
	)
	cmd.StringVar(&providerName, "provider", "", "Provider name (REQUIRED)")
	cmd.StringVar(&timeMaxStr, "time-max", "", "Upper time bound, format YYYY-M-D-H (REQUIRED)")
	cmd.StringVar(&timeMinStr, "time-min", "", "Lower time bound, format YYYY-M-D-H")
	cmd.IntVar(&interval, "interval", 1, "Number of hours back from --time-max when --time-min is unset")
	cmd.BoolVar(&force, "force", false, "Forces a schedule to run by ignoring status preconditions")
	cmd.BoolVar(&incompleteOnly, "incomplete-only", false, "Process incomplete schedule blocks only")
	cmd.BoolVar(&dockerMode, "docker-mode", false, "Accepted for compatibility; requires --env-file, spawns nothing (stages run in-process)")
	cmd.BoolVar(&noLogs, "no-logs", false, "Suppress the Provider/Force/Time range banner (logging is via slog, not file redirection)")
	cmd.BoolVar(&dryRun, "dry-run", false, "Report which blocks/stages would run without mutating anything")
	cmd.BoolVar(&noSyncDB, "no-sync-db", false, "Skip the sync_db stage")
	cmd.BoolVar(&noSyncSocrata, "no-sync-socrata", false, "Skip the sync_socrata stage")
	cmd.BoolVar(&noExtract, "no-extract", false, "Skip the extract stage")
	cmd.StringVar(&envFile, "env-file", "", "Environment file to load before running")
	cmd.StringVar(&dockerArgs, "docker-args", "", "Accepted for compatibility; no-op without --docker-mode")

	if err := cmd.Parse(args); err != nil {
		return 1
	}
	if providerName == "" || timeMaxStr == "" {
		fmt.Fprintln(stderr, "Error: --provider and --time-max are required")
		cmd.Usage()
		return 1
	}
	if dockerMode && envFile == "" {
		fmt.Fprintln(stderr, "Error: --env-file is required when --docker-mode is set")
		return 1
	}
	_ = dockerArgs // no-op placeholder, see doc comment above

	if envFile != "" {
		if err := loadEnvFile(envFile); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	timeMax, timeMin, err := resolveRange(timeMaxStr, timeMinStr, interval)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if !noLogs {
		fmt.Fprintf(stdout, "Provider: %s\n", providerName)
		fmt.Fprintf(stdout, "Force: %v\n", force)
		fmt.Fprintf(stdout, "Time range: %s .. %s\n", timeMin, timeMax)
	}

	filter := pipeline.FilterDefault
	if incompleteOnly {
		filter = pipeline.FilterIncompleteOnly
	}
	if force {
		filter = pipeline.FilterForce
	}

	flags := pipeline.Flags{
		NoExtract:     noExtract,
		NoSyncDB:      noSyncDB,
		NoSyncSocrata: noSyncSocrata,
		Force:         force,
		DryRun:        dryRun,
	}

	log := slog.New(slog.NewTextHandler(stderr, nil))
	deps, err := buildPipelineDeps(context.Background(), log)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if dryRun {
		hours, err := pipeline.ExpandHours(deps.appCtx.Config.Location, timeMin, timeMax)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "(dry-run) would evaluate %d hour block(s)\n", len(hours))
	}

	results, err := deps.orch.Run(context.Background(), pipeline.RunRequest{
		ProviderName: providerName,
		TimeMin:      timeMin,
		TimeMax:      timeMax,
		Filter:       filter,
		Flags:        flags,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	printResults(stdout, results)
	return 0
}
