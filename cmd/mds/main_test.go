package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRunPrintsUsageWithNoArgs(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"mds"}, &stdout, &stderr)
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	if !strings.Contains(stdout.String(), "USAGE:") {
		t.Errorf("stdout missing usage banner: %q", stdout.String())
	}
}

func TestRunHelpExitsZero(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"mds", "help"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if !strings.Contains(stdout.String(), "extract") {
		t.Errorf("help output missing subcommand list: %q", stdout.String())
	}
}

func TestRunUnknownCommandExitsTwo(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"mds", "bogus"}, &stdout, &stderr)
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), "Unknown command: bogus") {
		t.Errorf("stderr = %q, want it to name the unknown command", stderr.String())
	}
}

func TestRunExtractMissingRequiredFlagsExitsOne(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"mds", "extract"}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "--provider and --time-max are required") {
		t.Errorf("stderr = %q, want required-flag message", stderr.String())
	}
}

func TestRunSyncSocrataMissingRequiredFlagsExitsOne(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"mds", "sync_socrata"}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
}

func TestRunProviderConfigMissingFileExitsOne(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"mds", "provider-config"}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "--file is required") {
		t.Errorf("stderr = %q, want --file required message", stderr.String())
	}
}
