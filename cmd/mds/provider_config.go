package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cityofaustin/atd-mds-go/pkg/config"
	"github.com/cityofaustin/atd-mds-go/pkg/objectstore"
)

// runProviderConfigCmd implements `provider-config`: upload or download
// the providers/settings blobs (or an arbitrary named blob) to/from
// object storage, grounded on original_source/provider_configuration.py.
// --pdb (the Python script's debugger drop-in) has no Go analogue and is
// accepted only so an existing invocation doesn't hard-fail on the flag.
func runProviderConfigCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("provider-config", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		file       string
		upload     bool
		download   bool
		uploadPath string
		plainText  bool
		production bool
		pdb        bool
	)
	cmd.StringVar(&file, "file", "", "File to upload/download; shortcuts 'providers' or 'settings' (REQUIRED)")
	cmd.BoolVar(&upload, "upload", false, "Upload action")
	cmd.BoolVar(&download, "download", false, "Download action")
	cmd.StringVar(&uploadPath, "upload-path", "", "Remote key to upload to")
	cmd.BoolVar(&plainText, "plain-text", false, "Upload without encryption")
	cmd.BoolVar(&production, "production", false, "Use the PRODUCTION stage instead of STAGING")
	cmd.BoolVar(&pdb, "pdb", false, "Accepted for compatibility; no-op (no Go debugger drop-in)")

	if err := cmd.Parse(args); err != nil {
		return 1
	}
	if file == "" {
		fmt.Fprintln(stderr, "Error: --file is required")
		cmd.Usage()
		return 1
	}
	if pdb {
		fmt.Fprintln(stderr, "Note: --pdb has no effect in this build")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	stage := config.StageStaging
	if production {
		stage = config.StageProduction
	}
	cfg.Stage = stage

	log := slog.New(slog.NewTextHandler(stderr, nil))
	blobs, err := objectstore.New(context.Background(), objectstore.Config{
		Region:          cfg.AWSRegion,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretKey,
		Bucket:          cfg.Bucket,
		FernetKey:       cfg.FernetKey,
	}, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	key := resolveConfigKey(file, stage)

	if download {
		fmt.Fprintf(stdout, "Downloading file from object storage: %s\n", key)
		doc, err := blobs.Get(context.Background(), key)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		body, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		downloadPath := "./" + filepath.Base(key)
		if err := os.WriteFile(downloadPath, body, 0o644); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "File downloaded to: %s\n", downloadPath)
	}

	if upload {
		target := uploadPath
		if target == "" {
			target = key
		}
		fmt.Fprintf(stdout, "Uploading file to object storage: %s\n", target)
		body, err := os.ReadFile(file)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		var doc map[string]interface{}
		if err := json.Unmarshal(body, &doc); err != nil {
			fmt.Fprintf(stderr, "Error: %s is not valid JSON: %v\n", file, err)
			return 1
		}
		if _, err := blobs.Put(context.Background(), target, body, !plainText); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "Done saving file to %q\n", target)
	}

	if !upload && !download {
		fmt.Fprintln(stderr, "Error: one of --upload or --download is required")
		return 1
	}
	return 0
}

// resolveConfigKey expands the "providers"/"settings" shortcuts to their
// canonical object keys; anything else is used as a literal key.
func resolveConfigKey(file string, stage config.Stage) string {
	switch file {
	case "providers":
		return objectstore.ConfigKey(stage, "providers")
	case "settings":
		return objectstore.ConfigKey(stage, "settings")
	default:
		return file
	}
}
