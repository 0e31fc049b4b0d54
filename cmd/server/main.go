package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/simplespend/backend/config"
	"github.com/simplespend/backend/internal/app"
	httpDelivery "github.com/simplespend/backend/internal/delivery/http"
	"github.com/simplespend/backend/internal/domain"
	"github.com/simplespend/backend/internal/infrastructure/logging"
	"github.com/simplespend/backend/internal/infrastructure/scheduler"
	"github.com/sirupsen/logrus"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logFile, err := logging.Setup(logging.Options{
		Name:       "simplespend",
		Level:      cfg.Log.Level,
		Dir:        cfg.Log.Dir,
		Console:    cfg.Log.Console,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	if err != nil {
		logrus.Fatalf("Failed to set up logging: %v", err)
	}
	defer logFile.Close()

	if err := run(cfg); err != nil {
		logrus.WithError(err).Fatal("server stopped with error")
	}
}

func run(cfg *config.Config) error {
	log := logging.WithComponent("main")
	log.WithFields(logging.Fields{
		"version":     version,
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"storage":     cfg.Storage.Type,
		"cache":       cfg.Cache.Type,
	}).Info("starting SimpleSpend backend")

	if cfg.Catalog.Schedule != "" {
		if err := scheduler.ValidateSpec(cfg.Catalog.Schedule); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, cfg.Storage.Timeout*3)
	services, err := app.New(startCtx, cfg)
	cancel()
	if err != nil {
		return fmt.Errorf("wiring services: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		services.Close(closeCtx)
	}()

	if cfg.Catalog.SeedFile != "" {
		if err := seedCatalog(ctx, services, cfg.Catalog.SeedFile); err != nil {
			return err
		}
	}

	if cfg.Catalog.Schedule != "" {
		refresh := scheduler.New(cfg.Catalog.Schedule, 10*time.Minute, func(ctx context.Context) error {
			_, err := services.Catalog.RefreshFromSources(ctx, domain.IngestIncremental)
			return err
		})
		if err := refresh.Start(); err != nil {
			return err
		}
		defer refresh.Stop()
	}

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(services.Query, services.Catalog, services.Carts)
	router := httpDelivery.SetupRouter(cfg, handler, httpDelivery.HeaderIdentityResolver{})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", server.Addr).Info("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// seedCatalog rebuilds the catalog from a local export when it is empty
func seedCatalog(ctx context.Context, services *app.App, path string) error {
	log := logging.WithComponentAndFields("main", logging.Fields{"seed_file": path})

	count, err := services.ProductStore.Count(ctx, domain.ProductFilter{})
	if err != nil {
		return fmt.Errorf("counting products: %w", err)
	}
	if count > 0 {
		log.WithField("products", count).Info("catalog already populated, skipping seed")
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading seed file: %w", err)
	}

	result, err := services.Catalog.Ingest(ctx, raw, domain.IngestRebuild)
	if err != nil {
		return fmt.Errorf("seeding catalog: %w", err)
	}
	log.WithField("products", result.ProductsWritten).Info("catalog seeded")
	return nil
}
