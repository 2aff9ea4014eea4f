package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/exfury/gridiron-core/config"
	"github.com/exfury/gridiron-core/core"
	"github.com/exfury/gridiron-core/core/genesis"
	"github.com/exfury/gridiron-core/core/types"
	nativecommon "github.com/exfury/gridiron-core/native/common"
	"github.com/exfury/gridiron-core/observability/logging"
	telemetry "github.com/exfury/gridiron-core/observability/otel"
	"github.com/exfury/gridiron-core/rpc"
	"github.com/exfury/gridiron-core/storage"
)

const genesisPathEnv = "GRID_GENESIS"

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	genesisFlag := flag.String("genesis", "", "Path to a genesis JSON file (overrides GRID_GENESIS and config GenesisFile)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	env := strings.TrimSpace(os.Getenv("GRID_ENV"))
	if env == "" {
		env = cfg.Environment
	}
	logger := logging.SetupWith("gridd", env, logging.Options{
		Level: cfg.LogLevel,
		File:  config.ResolvePath(*configFile, cfg.LogFile),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry, env)
	if err != nil {
		logger.Error("Failed to initialise telemetry", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Warn("telemetry shutdown", slog.Any("error", err))
		}
	}()

	genesisPath := resolveGenesisPath(*genesisFlag, config.ResolvePath(*configFile, cfg.GenesisFile), os.LookupEnv)

	db, err := storage.NewLevelDB(config.ResolvePath(*configFile, cfg.DataDir))
	if err != nil {
		logger.Error("Failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	app, err := openLedger(db, genesisPath, nativecommon.NewPauseSet(cfg.PausedModules), logger)
	if err != nil {
		logger.Error("Failed to open ledger", slog.Any("error", err))
		os.Exit(1)
	}
	head := app.Head()
	logger.Info("ledger ready",
		slog.Uint64("height", head.Height),
		slog.Uint64("timestamp", head.Timestamp),
		slog.String("root", head.StateRoot.Hex()),
		slog.Any("paused", cfg.PausedModules))

	server := rpc.NewServer(app, rpc.Config{
		RateLimit: rpc.RateLimit{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		},
		Logger: logger,
	})
	if err := server.Serve(ctx, cfg.ListenAddress); err != nil {
		logger.Error("rpc server stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("gridd stopped")
}

// resolveGenesisPath prefers the flag, then the environment, then the config
// file entry.
func resolveGenesisPath(flagValue, configValue string, lookup func(string) (string, bool)) string {
	if trimmed := strings.TrimSpace(flagValue); trimmed != "" {
		return trimmed
	}
	if value, ok := lookup(genesisPathEnv); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(configValue)
}

// openLedger resumes from the persisted head or, on an empty database, builds
// the genesis state from genesisPath.
func openLedger(db storage.Database, genesisPath string, pauses nativecommon.PauseView, logger *slog.Logger) (*core.Application, error) {
	head, ok, err := core.LoadHead(db)
	if err != nil {
		return nil, fmt.Errorf("load head: %w", err)
	}
	if !ok {
		if genesisPath == "" {
			return nil, fmt.Errorf("database is empty and no genesis file was provided")
		}
		spec, err := genesis.LoadGenesisSpec(genesisPath)
		if err != nil {
			return nil, err
		}
		result, err := genesis.Build(spec, db)
		if err != nil {
			return nil, fmt.Errorf("build genesis: %w", err)
		}
		head = types.Head{Timestamp: result.Time, StateRoot: result.Root}
		if err := core.StoreHead(db, head); err != nil {
			return nil, fmt.Errorf("persist genesis head: %w", err)
		}
		logger.Info("genesis committed", slog.String("root", result.Root.Hex()), slog.String("file", genesisPath))
	}
	return core.NewApplication(db, head, core.Options{Pauses: pauses, Logger: logger})
}
