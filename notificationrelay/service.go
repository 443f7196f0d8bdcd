// Package notificationrelay assembles the HTTP relay in front of FCM.
package notificationrelay

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tinywideclouds/go-microservice-base/pkg/microservice"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"

	"github.com/tinywideclouds/go-notification-relay/internal/api"
	"github.com/tinywideclouds/go-notification-relay/notificationrelay/config"
	"github.com/tinywideclouds/go-notification-relay/pkg/dispatch"
)

type Wrapper struct {
	*microservice.BaseServer
	logger *slog.Logger
}

// New assembles the service.
// A nil dispatcher starts the relay in degraded mode: the health check reports
// the provider as uninitialized and send requests fail with a 500.
func New(
	cfg *config.Config,
	creds *config.Credentials,
	dispatcher dispatch.Dispatcher,
	logger *slog.Logger,
) (*Wrapper, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	// 1. Base Server
	baseServer := microservice.NewBaseServer(logger, cfg.ListenAddr)

	// 2. Relay API
	relayAPI := api.NewRelayAPI(dispatcher, creds, !cfg.IsProduction(), logger)

	// 3. Routes
	corsMiddleware := middleware.NewCorsMiddleware(cfg.CorsConfig, logger)
	relayAPI.RegisterRoutes(baseServer.Mux(), corsMiddleware)

	if dispatcher == nil {
		logger.Warn("Relay starting without an initialized provider client")
	}

	return &Wrapper{
		BaseServer: baseServer,
		logger:     logger,
	}, nil
}

// Start blocks serving HTTP until the server is shut down.
func (w *Wrapper) Start() error {
	w.SetReady(true)
	w.logger.Info("Service is now ready.")
	return w.BaseServer.Start()
}

func (w *Wrapper) Shutdown(ctx context.Context) error {
	w.logger.Info("Shutting down service components...")
	if err := w.BaseServer.Shutdown(ctx); err != nil {
		w.logger.Error("HTTP server shutdown failed.", "err", err)
		return err
	}
	w.logger.Info("Service shutdown complete.")
	return nil
}
