package main

import (
	"context"
	_ "embed"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tinywideclouds/go-notification-relay/internal/platform/fcm"
	"github.com/tinywideclouds/go-notification-relay/notificationrelay"
	"github.com/tinywideclouds/go-notification-relay/notificationrelay/config"
	"github.com/tinywideclouds/go-notification-relay/pkg/dispatch"
)

//go:embed local.yaml
var configFile []byte

const shutdownTimeout = 10 * time.Second

func main() {
	var logLevel slog.Level
	switch os.Getenv("LOG_LEVEL") {
	case "debug", "DEBUG":
		logLevel = slog.LevelDebug
	case "info", "INFO":
		logLevel = slog.LevelInfo
	case "warn", "WARN":
		logLevel = slog.LevelWarn
	case "error", "ERROR":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})).With("service", "go-notification-relay")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Config Loading ---
	var yamlCfg config.YamlConfig
	if err := yaml.Unmarshal(configFile, &yamlCfg); err != nil {
		logger.Error("Failed to unmarshal embedded yaml config", "err", err)
		os.Exit(1)
	}
	baseCfg, err := config.NewConfigFromYaml(&yamlCfg, logger)
	if err != nil {
		logger.Error("Failed to map yaml config", "err", err)
		os.Exit(1)
	}
	cfg, err := config.UpdateConfigWithEnvOverrides(baseCfg, logger)
	if err != nil {
		logger.Error("Config failed", "err", err)
		os.Exit(1)
	}

	// --- Provider Client ---
	// The relay keeps serving without a client; sends then fail with app/no-app.
	creds, err := config.LoadCredentials(cfg.Firebase, logger)
	if err != nil {
		logger.Error("Failed to load Firebase credentials", "err", err)
	}
	dispatcher := newDispatcher(ctx, cfg, creds, logger)

	// --- Service ---
	service, err := notificationrelay.New(cfg, creds, dispatcher, logger)
	if err != nil {
		logger.Error("Service creation failed", "err", err)
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting service...", "addr", cfg.ListenAddr, "environment", cfg.Environment)
		errCh <- service.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Service stopped with error", "err", err)
			os.Exit(1)
		}
		return
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := service.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "err", err)
		os.Exit(1)
	}
}

// newDispatcher returns nil when credentials are missing or the client
// cannot be built.
func newDispatcher(ctx context.Context, cfg *config.Config, creds *config.Credentials, logger *slog.Logger) dispatch.Dispatcher {
	if creds == nil {
		return nil
	}
	if err := creds.Validate(); err != nil {
		logger.Error("Firebase credentials incomplete", "err", err)
		return nil
	}
	client, err := fcm.NewMessagingClient(ctx, creds)
	if err != nil {
		logger.Error("Failed to initialize Firebase messaging client", "err", err)
		return nil
	}
	logger.Info("Firebase messaging client initialized", "project_id", creds.ProjectID)
	return fcm.NewDispatcher(client, cfg.Message, logger)
}
