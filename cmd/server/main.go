// Aircheck - NTS Radio Broadcast Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aircheck

// Package main is the entry point for the Aircheck daemon.
//
// Aircheck is a self-hosted monitor for NTS internet radio. It polls the
// public live schedule for both channels, optionally reads the live track
// feed and favourites of an authenticated NTS Supporter account, and
// exposes the aggregated broadcast state over a REST API, a WebSocket
// push stream, and Prometheus metrics.
//
// # Application Architecture
//
// The daemon initializes components in the following order:
//
//  1. Configuration: environment variables and config file (Koanf v2)
//  2. Poll engine: shared Firebase auth session plus one controller per channel
//  3. WebSocket hub: pushes every published snapshot to connected clients
//  4. HTTP server: REST surface, WebSocket upgrade, Prometheus metrics
//  5. Supervisor tree: suture-supervised lifecycle for all of the above
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// Anonymous mode needs no configuration at all:
//
//	./aircheck
//
// Authenticated mode (track feed and favourites) requires an NTS
// Supporter account and the Firebase project the NTS apps talk to:
//
//	export NTS_EMAIL=you@example.com
//	export NTS_PASSWORD=secret
//	export NTS_FIREBASE_API_KEY=...
//	export NTS_FIREBASE_PROJECT_ID=...
//	export FAVOURITES_ENABLED=true
//	./aircheck
//
// # Signal Handling
//
// The daemon handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops scheduling new poll cycles; an in-flight cycle is abandoned
//     without publishing
//   - Closes WebSocket clients
//   - Waits for in-flight HTTP requests to complete (10s timeout)
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

	"github.com/tomtom215/aircheck/internal/api"
	"github.com/tomtom215/aircheck/internal/config"
	"github.com/tomtom215/aircheck/internal/logging"
	"github.com/tomtom215/aircheck/internal/models"
	"github.com/tomtom215/aircheck/internal/poll"
	"github.com/tomtom215/aircheck/internal/supervisor"
	"github.com/tomtom215/aircheck/internal/supervisor/services"
	ws "github.com/tomtom215/aircheck/internal/websocket"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting Aircheck with supervisor tree")

	if cfg.Credentials.Present() {
		logging.Info().
			Int("update_interval_s", cfg.Poll.UpdateIntervalSeconds).
			Bool("favourites", cfg.Favourites.Enabled).
			Msg("Configuration loaded (authenticated mode)")
	} else {
		logging.Info().
			Int("update_interval_s", cfg.Poll.UpdateIntervalSeconds).
			Msg("Configuration loaded (anonymous mode, schedule only)")
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The engine broadcasts through the hub, and the hub reads initial
	// snapshots from the engine. Both are wired before any service starts,
	// so the late hub assignment is never observed concurrently.
	var wsHub *ws.Hub
	engine := poll.NewEngine(cfg, func(snap *models.ChannelSnapshot) {
		wsHub.BroadcastSnapshot(snap)
	})
	wsHub = ws.NewHub(engine)

	handler := api.NewHandler(engine, wsHub, cfg.API.CORSOrigins)
	router := api.NewRouter(cfg.API, handler)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Bridge zerolog to slog for sutureslog compatibility.
	slogLogger := logging.NewSlogLogger()
	tree := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())

	// Poll layer services
	for _, controller := range engine.Controllers() {
		tree.AddPollService(controller)
		logging.Info().Str("channel", string(controller.Channel())).Msg("Channel controller added to supervisor tree")
	}
	if favPoller := engine.FavouritesPoller(); favPoller != nil {
		tree.AddPollService(favPoller)
		logging.Info().Msg("Favourites poller added to supervisor tree")
	}

	// Messaging layer services
	tree.AddMessagingService(services.NewWebSocketHubService(wsHub))

	// API layer services
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
