// Command seed loads a store export into the catalog without running the server.
//
//	seed --file catalog.json --mode rebuild --mongo-uri mongodb://localhost:27017
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/simplespend/backend/config"
	"github.com/simplespend/backend/internal/app"
	"github.com/simplespend/backend/internal/domain"
	"github.com/simplespend/backend/internal/infrastructure/logging"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
)

type options struct {
	file     string
	mode     string
	mongoURI string
	database string
	dryRun   bool
}

func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	opts := &options{}
	fs.StringVarP(&opts.file, "file", "f", "", "path to the store export (required)")
	fs.StringVarP(&opts.mode, "mode", "m", string(domain.IngestRebuild), "rebuild or incremental")
	fs.StringVar(&opts.mongoURI, "mongo-uri", "", "MongoDB URI, overrides the configured storage")
	fs.StringVar(&opts.database, "database", "", "MongoDB database, overrides the configured one")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "ingest into memory and only report what would be written")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.file == "" {
		return nil, errors.New("--file is required")
	}
	if !domain.IngestMode(opts.mode).Valid() {
		return nil, fmt.Errorf("unknown --mode %q", opts.mode)
	}
	return opts, nil
}

// applyOverrides points the loaded configuration at the storage chosen by flags
func applyOverrides(cfg *config.Config, opts *options) {
	if opts.mongoURI != "" {
		cfg.Storage.Type = "mongo"
		cfg.Storage.MongoURI = opts.mongoURI
	}
	if opts.database != "" {
		cfg.Storage.Database = opts.database
	}
	if opts.dryRun {
		cfg.Storage.Type = "memory"
	}
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	applyOverrides(cfg, opts)

	logFile, err := logging.Setup(logging.Options{
		Name:    "simplespend-seed",
		Level:   cfg.Log.Level,
		Dir:     cfg.Log.Dir,
		Console: true,
	})
	if err != nil {
		logrus.Fatalf("Failed to set up logging: %v", err)
	}
	defer logFile.Close()

	if err := run(cfg, opts); err != nil {
		logrus.WithError(err).Fatal("seeding failed")
	}
}

func run(cfg *config.Config, opts *options) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	raw, err := os.ReadFile(opts.file)
	if err != nil {
		return fmt.Errorf("reading export: %w", err)
	}

	services, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer services.Close(context.Background())

	result, err := services.Catalog.Ingest(ctx, raw, domain.IngestMode(opts.mode))
	if err != nil {
		return err
	}

	logging.WithComponentAndFields("seed", logging.Fields{
		"file":     opts.file,
		"mode":     result.Mode,
		"offers":   result.OffersRead,
		"products": result.ProductsWritten,
		"storage":  cfg.Storage.Type,
		"dry_run":  opts.dryRun,
	}).Info("catalog export applied")
	return nil
}
