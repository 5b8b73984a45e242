// Aircheck - NTS Radio Broadcast Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aircheck

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/aircheck/internal/config"
)

// Router assembles the HTTP surface from the handler and middleware stack.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router from config and a prepared handler.
func NewRouter(cfg config.APIConfig, handler *Handler) *Router {
	mwConfig := DefaultChiMiddlewareConfig()
	mwConfig.CORSAllowedOrigins = cfg.CORSOrigins
	mwConfig.RateLimitRequests = cfg.RateLimitReqs
	mwConfig.RateLimitWindow = cfg.RateLimitWindow
	mwConfig.RateLimitDisabled = cfg.RateLimitDisabled

	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(mwConfig),
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight

	// Health endpoints get permissive rate limiting so monitoring tools
	// can probe frequently.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(PrometheusMetrics())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Core API endpoints.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(PrometheusMetrics())

		r.Get("/channels", router.handler.Channels)
		r.Route("/channels/{channel}", func(r chi.Router) {
			r.Get("/snapshot", router.handler.Snapshot)
			r.Get("/now-playing", router.handler.NowPlaying)
			r.Get("/next-show", router.handler.NextShow)
			r.Get("/track-id", router.handler.TrackID)
			r.Get("/favourite", router.handler.Favourite)
		})
		r.Get("/favourites", router.handler.Favourites)
	})

	// The WebSocket upgrade hijacks the connection, so it stays outside
	// the metrics middleware whose response wrapper hides http.Hijacker.
	r.With(router.chiMiddleware.RateLimit()).Get("/api/v1/ws", router.handler.WebSocket)

	// Prometheus scrape endpoint.
	r.Handle("/metrics", promhttp.Handler())

	return r
}
