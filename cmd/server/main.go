package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frostdev-ops/pma-goveelife/internal/adapters/goveelife"
	"github.com/frostdev-ops/pma-goveelife/internal/api"
	"github.com/frostdev-ops/pma-goveelife/internal/api/handlers"
	"github.com/frostdev-ops/pma-goveelife/internal/config"
	"github.com/frostdev-ops/pma-goveelife/internal/core/cache"
	"github.com/frostdev-ops/pma-goveelife/internal/core/devices"
	"github.com/frostdev-ops/pma-goveelife/internal/core/metrics"
	"github.com/frostdev-ops/pma-goveelife/internal/core/scheduler"
	"github.com/frostdev-ops/pma-goveelife/internal/database"
	"github.com/frostdev-ops/pma-goveelife/internal/database/sqlite"
	"github.com/frostdev-ops/pma-goveelife/internal/websocket"
	"github.com/frostdev-ops/pma-goveelife/migrations"
	"github.com/frostdev-ops/pma-goveelife/pkg/logger"
	"github.com/frostdev-ops/pma-goveelife/pkg/version"
	"github.com/sirupsen/logrus"
)

// stateStore is the capability state backend shared by the read and write paths
type stateStore interface {
	goveelife.StateReader
	goveelife.StateWriter
	devices.StateSeeder
}

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("Server failed")
	}
	log.Info("Server exited")
}

func run(cfg *config.Config, log *logrus.Logger) error {
	log.WithFields(logrus.Fields{
		"version":       version.GetVersion(),
		"state_backend": cfg.Govee.StateBackend,
		"controller":    cfg.Govee.Controller,
	}).Info("Starting PMA Govee Life climate service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db.DB, migrations.FS); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	registry := sqlite.NewDeviceRepository(db, log)

	healthChecks := map[string]handlers.HealthChecker{
		"database": handlers.HealthCheckFunc(db.PingContext),
	}

	// State backend
	var store stateStore
	switch cfg.Govee.StateBackend {
	case config.StateBackendRedis:
		redisStore, err := cache.NewRedisStateCache(cfg.Redis, log)
		if err != nil {
			return err
		}
		defer redisStore.Close()
		healthChecks["state_cache"] = redisStore
		store = redisStore
	default:
		store = cache.NewMemoryStateCache()
	}

	// Load the device file into the registry and seed initial state
	if cfg.Govee.DevicesFile != "" {
		loaded, err := devices.LoadFile(cfg.Govee.DevicesFile)
		if err != nil {
			return err
		}
		if err := registry.UpsertAll(ctx, devices.Configs(loaded)); err != nil {
			return err
		}
		if err := devices.SeedState(ctx, store, loaded); err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"file":    cfg.Govee.DevicesFile,
			"devices": len(loaded),
		}).Info("Device file loaded")
	}

	collector := metrics.NewPrometheusCollector(&metrics.MetricsConfig{Enabled: cfg.Metrics.Enabled, Prefix: "goveelife"})

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := websocket.NewHub(cfg.WebSocket, collector, log)
	go hub.Run(hubCtx)

	var controller goveelife.Controller
	if cfg.Govee.Controller == config.ControllerLoopback {
		controller = goveelife.NewLoopbackController(store, log)
	}

	// Set up the climate platform
	registered, err := registry.ListDevices(ctx)
	if err != nil {
		return err
	}
	adapter := goveelife.NewAdapter(log)
	platform := &goveelife.Platform{
		Devices:      registry,
		Coordinators: devices.SharedCoordinator(registered, store),
		Controller:   controller,
		Notifier:     hub,
		Metrics:      collector,
		DeviceTypes:  cfg.Govee.DeviceTypes,
		Logger:       log,
	}
	if err := platform.SetupEntry(ctx, cfg.Govee.EntryID, adapter.AddEntities); err != nil {
		return fmt.Errorf("failed to set up climate platform: %w", err)
	}
	collector.SetClimateEntities(len(adapter.Climates()))

	// Periodic state broadcast
	sched := scheduler.NewScheduler(cfg.Scheduler, log)
	if cfg.Scheduler.Enabled {
		if err := sched.AddJob("broadcast_states", cfg.Scheduler.BroadcastSchedule,
			scheduler.BroadcastStates(adapter, hub, collector)); err != nil {
			return err
		}
		if err := sched.Start(); err != nil {
			return err
		}
	}

	batch := logger.NewBatchLogger(log, 100)
	var routerCollector *metrics.PrometheusCollector
	if cfg.Metrics.Enabled {
		routerCollector = collector
	}
	router := api.NewRouter(cfg, handlers.Dependencies{
		Climates:     adapter,
		Adapter:      adapter,
		Devices:      registry,
		Hub:          hub,
		Jobs:         sched,
		HealthChecks: healthChecks,
		Logger:       log,
	}, routerCollector, batch)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting PMA Govee Life service on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		return fmt.Errorf("failed to start server: %w", err)
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if sched.IsRunning() {
		if err := sched.Stop(shutdownCtx); err != nil {
			log.WithError(err).Warn("Failed to stop scheduler gracefully")
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	stopHub()
	batch.FlushPending()
	return nil
}
