// Aircheck - NTS Radio Broadcast Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aircheck

// Package metrics provides Prometheus instrumentation for the polling
// engine, the upstream clients and the host-facing API.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Poll cycle metrics
	CycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aircheck_cycle_duration_seconds",
			Help:    "Duration of one channel poll cycle in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
		[]string{"channel"},
	)

	SnapshotsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aircheck_snapshots_published_total",
			Help: "Total number of channel snapshots published",
		},
		[]string{"channel"},
	)

	SnapshotTimestamp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "aircheck_snapshot_timestamp_seconds",
			Help: "Unix timestamp of the latest published snapshot per channel",
		},
		[]string{"channel"},
	)

	// Upstream fetch metrics
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aircheck_fetches_total",
			Help: "Total upstream fetches by source and outcome",
		},
		[]string{"source", "outcome"}, // source: schedule, tracks, favourites; outcome: success, error, skipped
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aircheck_fetch_duration_seconds",
			Help:    "Duration of upstream fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	// Auth session metrics
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aircheck_auth_attempts_total",
			Help: "Total login/refresh attempts by outcome",
		},
		[]string{"operation", "outcome"}, // operation: login, refresh
	)

	AuthSessionActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aircheck_auth_session_active",
			Help: "1 when the auth session is active, 0 otherwise",
		},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "aircheck_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aircheck_circuit_breaker_transitions_total",
			Help: "Total circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aircheck_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aircheck_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "endpoint"},
	)

	// WebSocket metrics
	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aircheck_websocket_clients",
			Help: "Current number of connected WebSocket clients",
		},
	)
)

// RecordFetch observes one upstream fetch.
func RecordFetch(source string, start time.Time, err error) {
	FetchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	FetchesTotal.WithLabelValues(source, outcome).Inc()
}

// RecordAPIRequest observes one handled API request.
func RecordAPIRequest(method, endpoint string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
