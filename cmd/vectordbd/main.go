// Command vectordbd runs the vector database server.
//
// It wires configuration, logging, metrics, the storage engine, and a
// thin HTTP front end together, then blocks until terminated.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/tinyvec/vectordb-go/internal/engine"
	"github.com/tinyvec/vectordb-go/internal/infra/buildinfo"
	"github.com/tinyvec/vectordb-go/internal/infra/confloader"
	"github.com/tinyvec/vectordb-go/internal/infra/shutdown"
	"github.com/tinyvec/vectordb-go/internal/server/config"
	"github.com/tinyvec/vectordb-go/internal/server/httpserver"
	"github.com/tinyvec/vectordb-go/internal/telemetry/logger"
	"github.com/tinyvec/vectordb-go/internal/telemetry/metric"
)

func main() {
	app := &cli.App{
		Name:    "vectordbd",
		Usage:   "single-node vector database server",
		Version: buildinfo.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML configuration file",
				EnvVars: []string{"VECTORDBD_CONFIG"},
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg := config.Default()

	loader := confloader.NewLoader(
		confloader.WithEnvPrefix(confloader.DefaultEnvPrefix),
		confloader.WithConfigFile(c.String("config")),
	)
	if err := loader.Load(cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.Verify(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)
	slogLog := log.Slog()

	eng, err := engine.Init(engine.Options{
		PersistencePath: cfg.Storage.PersistencePath,
		Dim:             cfg.Storage.Dim,
		NumData:         cfg.Storage.NumData,
		WALSyncInterval: cfg.Storage.WALSyncInterval,
		SnapshotKeep:    cfg.Storage.SnapshotKeep,
		Logger:          slogLog,
	})
	if err != nil {
		return fmt.Errorf("init engine: %w", err)
	}
	defer eng.Close()

	if err := eng.Reload(); err != nil {
		return fmt.Errorf("reload engine state: %w", err)
	}

	registry := metric.NewRegistry()
	eng.RegisterMetrics(registry.Registerer())
	eng.SetMetrics(registry)
	collector := metric.NewCollector(eng, "FLAT", "HNSW")
	registry.Registerer().MustRegister(collector)

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Engine:         eng,
		Logger:         slogLog,
		MetricsHandler: registry.Handler(),
		EnableAudit:    true,
	})
	srv := httpserver.New(cfg.Server.HTTP.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		slogLog.Info("server listening", "addr", cfg.Server.HTTP.Addr)
		if cfg.Server.HTTP.TLSCertFile != "" && cfg.Server.HTTP.TLSKeyFile != "" {
			errCh <- srv.ListenAndServeTLS(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile)
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	stopSnapshots := startBackgroundSnapshots(eng, slogLog, cfg.Storage.SnapshotInterval)
	defer stopSnapshots()

	if configPath := c.String("config"); configPath != "" {
		watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(slogLog))
		if err != nil {
			return fmt.Errorf("init config watcher: %w", err)
		}
		if err := watcher.Watch(configPath); err != nil {
			return fmt.Errorf("watch config file: %w", err)
		}
		watcher.OnChange(func(string) {
			reloadLogLevel(configPath, slogLog)
		})
		watcher.StartAsync()
		defer watcher.Stop()
	}

	handler := shutdown.NewHandler(15 * time.Second)
	handler.OnShutdown(func(ctx context.Context) error {
		return srv.Shutdown(ctx)
	})

	go func() {
		if err := handler.Wait(); err != nil {
			slogLog.Error("shutdown hook failed", "error", err)
		}
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	case <-handler.Done():
	}

	slogLog.Info("server stopped")
	return nil
}

// reloadLogLevel re-reads path and applies only its log.level field.
// dim and persistence_path are load-bearing for an already-open engine
// (index dimension, open file handles) and are never re-applied here;
// the config watcher's only job is cheap, safe-to-change knobs.
func reloadLogLevel(path string, log *slog.Logger) {
	cfg := config.Default()
	loader := confloader.NewLoader(
		confloader.WithEnvPrefix(confloader.DefaultEnvPrefix),
		confloader.WithConfigFile(path),
	)
	if err := loader.Load(cfg); err != nil {
		log.Error("reload config for log level", "error", err)
		return
	}

	logger.SetLevel(cfg.Log.Level)
	log.Info("log level reloaded", "level", logger.GetLevel())
}

// startBackgroundSnapshots runs SaveSnapshot on interval until the
// returned stop function is called. A zero interval disables it, leaving
// snapshotting to an explicit POST /v1/snapshot call (spec's original
// behavior).
func startBackgroundSnapshots(eng *engine.Engine, log *slog.Logger, interval time.Duration) func() {
	if interval <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := eng.SaveSnapshot(); err != nil {
					log.Error("background snapshot failed", "error", err)
				} else {
					log.Info("background snapshot saved")
				}
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }
}
