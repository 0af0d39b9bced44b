package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"homekit-bridge/internal/adapters/input/homekit"
	"homekit-bridge/internal/adapters/input/status"
	"homekit-bridge/internal/adapters/output/homeassistant"
	"homekit-bridge/internal/adapters/output/persistence"
	"homekit-bridge/internal/domain/model"
	"homekit-bridge/internal/domain/service"
)

func main() {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo := persistence.NewYAMLConfigRepository(configPath)
	cfg, err := repo.Get(ctx)
	if err != nil {
		logger.Error("cannot read config", "path", configPath, "error", err)
		os.Exit(1)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "path", configPath, "error", err)
		os.Exit(1)
	}

	unit, err := model.ParseUnit(cfg.TemperatureUnit)
	if err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.StoreDir, 0o755); err != nil {
		logger.Error("cannot create store dir", "dir", cfg.StoreDir, "error", err)
		os.Exit(1)
	}

	aids, err := persistence.NewAccessoryIDStore(filepath.Join(cfg.StoreDir, "accessories.db"))
	if err != nil {
		logger.Error("cannot open accessory id store", "error", err)
		os.Exit(1)
	}
	defer aids.Close()

	client := homeassistant.NewClient(cfg.HassURL, cfg.HassToken, logger)

	bridgeService := service.NewBridgeService(client, client, aids, unit, logger)
	if err := bridgeService.Build(ctx, cfg.Accessories); err != nil {
		logger.Error("cannot build accessories", "error", err)
		os.Exit(1)
	}

	events := homeassistant.NewEvents(cfg.HassURL, cfg.HassToken, logger)
	go func() {
		if err := events.Subscribe(ctx, bridgeService.HandleStateChanged); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("event stream stopped", "error", err)
		}
	}()

	if cfg.StatusAddr != "" {
		statusServer := status.NewServer(bridgeService)
		go func() {
			logger.Info("status server listening", "addr", cfg.StatusAddr)
			if err := statusServer.ListenAndServe(cfg.StatusAddr); err != nil {
				logger.Error("status server stopped", "error", err)
			}
		}()
	}

	hk := homekit.NewServer(cfg.BridgeName, cfg.Pin, filepath.Join(cfg.StoreDir, "homekit"), bridgeService.Accessories(), logger)
	if err := hk.ListenAndServe(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("homekit server stopped", "error", err)
		os.Exit(1)
	}
}
