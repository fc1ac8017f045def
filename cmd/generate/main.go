// Package main generates the two synthetic source files and optionally
// uploads them to the object store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/config"
	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/generate"
	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/objectstore"
)

type cliOptions struct {
	configPath string
	overrides  config.Overrides
}

// parseArgs parses the command line. The num_rows positional may appear
// before, between or after the flags; stdlib flag parsing stops at the first
// non-flag argument, so trailing flags are re-parsed after consuming it.
func parseArgs(args []string) (cliOptions, error) {
	var opts cliOptions

	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to JSON config file")
	format := fs.String("format", "", "output format: parquet, csv or json")
	outputDir := fs.String("output-dir", "", "local directory for generated files")
	bucket := fs.String("bucket", "", "destination bucket")
	noUpload := fs.Bool("no-upload", false, "write local files only, never touch the object store")
	skipSource1 := fs.Bool("skip-source1", false, "skip the supply-chain source")
	skipSource2 := fs.Bool("skip-source2", false, "skip the financial source")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [num_rows] [flags]\n", os.Args[0])
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	for fs.NArg() > 0 {
		arg := fs.Arg(0)
		rest := fs.Args()[1:]
		if opts.overrides.NumRows != 0 {
			return opts, fmt.Errorf("unexpected extra argument %q", arg)
		}
		n, err := strconv.Atoi(arg)
		if err != nil || n <= 0 {
			return opts, fmt.Errorf("num_rows must be a positive integer, got %q", arg)
		}
		opts.overrides.NumRows = n
		if err := fs.Parse(rest); err != nil {
			return opts, err
		}
	}

	opts.configPath = *configPath
	opts.overrides.Format = *format
	opts.overrides.OutputDir = *outputDir
	opts.overrides.Bucket = *bucket
	opts.overrides.NoUpload = *noUpload
	opts.overrides.SkipSource1 = *skipSource1
	opts.overrides.SkipSource2 = *skipSource2
	return opts, nil
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}

	cfg, err := config.Load(opts.configPath, opts.overrides)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Generating %d rows per source: seed=%d overlap=%.2f format=%s",
		cfg.Generation.NumRows, cfg.Generation.Seed, cfg.Generation.OverlapFraction, cfg.Generation.Format)

	out, err := generate.Generate(cfg.Generation)
	if err != nil {
		log.Fatalf("Generation failed: %v", err)
	}
	log.Printf("Generated sources: shared identities=%d", out.SharedIdentities)

	files, err := generate.WriteLocal(out, cfg.Generation, cfg.Upload)
	if err != nil {
		log.Fatalf("Failed to write local files: %v", err)
	}
	for stem, path := range files {
		log.Printf("Wrote %s -> %s", stem, path)
	}

	// Nothing below runs with --no-upload: the store client is never built
	// and no store call is made.
	if !cfg.Upload.Enabled {
		log.Printf("Upload disabled; local files only")
		return
	}

	store, err := objectstore.NewS3Client(&objectstore.S3Config{
		EndpointURL:     cfg.S3.EndpointURL,
		Region:          cfg.S3.Region,
		UseSSL:          cfg.S3.UseSSL,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
	})
	if err != nil {
		log.Fatalf("Failed to create object store client: %v", err)
	}

	uploaded, err := generate.Upload(context.Background(), store, files, cfg.S3, cfg.Generation.Format)
	if err != nil {
		log.Fatalf("Upload failed: %v", err)
	}
	for _, uri := range uploaded {
		log.Printf("Uploaded %s", uri)
	}
}
