// Gray Logic Node - store-and-forward sensor node
//
// This is the main entry point for a Gray Logic sensor node. Each wake
// cycle the node validates its clock, checks the battery trend, takes a
// reading, appends it to the local log and forwards it to the collector.
// Readings that cannot be sent wait in a persistent queue and drain, oldest
// first, on the next cycle with connectivity.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/gray-logic-node/migrations"

	"github.com/nerrad567/gray-logic-node/internal/channel"
	"github.com/nerrad567/gray-logic-node/internal/cycle"
	"github.com/nerrad567/gray-logic-node/internal/hostio"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-node/internal/quiet"
	"github.com/nerrad567/gray-logic-node/internal/store"
	"github.com/nerrad567/gray-logic-node/internal/transport"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/node.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Gray Logic Node",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	if cfg.Node.CodeVersion == "" || cfg.Node.CodeVersion == "dev" {
		cfg.Node.CodeVersion = version
	}

	log = logging.New(cfg.Logging, version, cfg.Node.ID)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeStore(); closeErr != nil {
			log.Error("error closing store", "error", closeErr)
		}
	}()
	log.Info("store opened", "backend", cfg.Storage.Backend)

	dialers, err := transport.Dialers(cfg, transport.Options{
		Modem:      hostio.NewSpoolModem(cfg.SMS.Spool),
		MQTTLogger: log,
	})
	if err != nil {
		return fmt.Errorf("building transports: %w", err)
	}
	chain := channel.FirstAvailable(dialers...)
	chain.SetLogger(log)
	log.Info("transports configured", "transports", cfg.Transports)

	clock := hostio.NewSystemClock()
	scheduler, err := cycle.New(cycle.Capabilities{
		Clock:        clock,
		Sensor:       hostio.NewFileSensor(cfg.Sensor.Path),
		Connectivity: chain,
		Sleeper:      hostio.NewProcessSleeper(clock),
		Store:        st,
	}, schedulerConfig(cfg))
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	scheduler.SetLogger(log)

	log.Info("Gray Logic Node started",
		"reading_interval", cfg.GetReadingInterval(),
		"quiet_sleep", cfg.GetQuietSleep(),
	)

	// Run only returns once ctx is done; anything else is a real failure.
	if err := scheduler.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("running scheduler: %w", err)
	}

	log.Info("shutting down Gray Logic Node")
	return nil
}

// openStore opens the configured storage backend. The returned close
// function releases whatever the backend holds open.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func() error, error) {
	switch cfg.Storage.Backend {
	case config.StorageBackendSQLite:
		db, err := database.Open(ctx, database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close() //nolint:errcheck // Migration error takes precedence
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		return store.NewSQLite(db.DB), db.Close, nil
	default:
		if err := os.MkdirAll(cfg.Storage.Dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("creating storage directory: %w", err)
		}
		return store.NewFS(cfg.Storage.Dir), func() error { return nil }, nil
	}
}

// schedulerConfig maps node configuration onto the scheduler's settings.
func schedulerConfig(cfg *config.Config) cycle.Config {
	return cycle.Config{
		ReadingInterval:  cfg.GetReadingInterval(),
		ClockRetrySleep:  cfg.GetClockRetryInterval(),
		MinPlausibleTime: cfg.GetMinPlausibleTime(),
		BatchSize:        cfg.Queue.BatchSize,
		LogRecord:        cfg.Storage.LogRecord + "." + cfg.Storage.Extension,
		Extension:        cfg.Storage.Extension,
		Quiet: quiet.Config{
			Margin:     cfg.Quiet.Margin,
			QuietSleep: cfg.GetQuietSleep(),
			Extension:  cfg.Storage.Extension,
		},
	}
}

// getConfigPath returns the configuration file path.
// Uses GRAYLOGIC_NODE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_NODE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
