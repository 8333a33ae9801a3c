package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/klinck004/ntta/gtfsdb"
	"github.com/klinck004/ntta/internal/app"
	"github.com/klinck004/ntta/internal/appconf"
	"github.com/klinck004/ntta/internal/gtfs"
	"github.com/klinck004/ntta/internal/logging"
	"github.com/klinck004/ntta/internal/metrics"
	"github.com/klinck004/ntta/internal/restapi"
)

func main() {
	var configPath string
	var port int
	var env string

	flag.StringVar(&configPath, "config", "", "Path to a YAML config file")
	flag.IntVar(&port, "port", 0, "API server port (overrides config)")
	flag.StringVar(&env, "env", "", "Environment (development|test|production, overrides config)")
	flag.Parse()

	cfg, err := loadConfig(configPath, port, env)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger(os.Stdout, logging.Level(cfg.Verbose))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logging.LogError(logger, "server stopped", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and applies the flags that were set.
func loadConfig(path string, port int, env string) (appconf.Config, error) {
	cfg, err := appconf.Load(path)
	if err != nil {
		return appconf.Config{}, err
	}
	if port != 0 {
		cfg.Port = port
	}
	if env != "" {
		cfg.EnvName = env
	}
	if err := cfg.Validate(); err != nil {
		return appconf.Config{}, err
	}
	return cfg, nil
}

// run opens the static store, serves the API and shuts down when ctx ends.
func run(ctx context.Context, cfg appconf.Config, logger *slog.Logger) error {
	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.NewCollector()
	}

	store, err := gtfs.OpenStaticStore(logging.WithLogger(ctx, logger), gtfs.StaticConfig{
		Source: cfg.StaticGTFS,
		Store:  gtfsdb.NewConfig(cfg.DBPath, cfg.Env(), cfg.Verbose),
	})
	if err != nil {
		return err
	}
	defer logging.SafeCloseWithLogging(store, logger, "static store")
	collector.SetStaticImportDuration(store.ImportRuntime())

	application, err := app.New(app.Options{
		Config:  cfg,
		Store:   store,
		Logger:  logger,
		Metrics: collector,
	})
	if err != nil {
		return err
	}

	api := restapi.NewRestAPI(application)
	defer api.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.Handler(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "env", cfg.Env().String(),
			"realtime", gtfs.Config{
				VehiclePositionsURL: cfg.VehiclePositionsURL,
				TripUpdatesURL:      cfg.TripUpdatesURL,
			}.RealTimeDataEnabled())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
