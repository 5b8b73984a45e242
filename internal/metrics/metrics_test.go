// Aircheck - NTS Radio Broadcast Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aircheck

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordFetch(t *testing.T) {
	start := time.Now().Add(-10 * time.Millisecond)

	successBefore := testutil.ToFloat64(FetchesTotal.WithLabelValues("schedule", "success"))
	errorBefore := testutil.ToFloat64(FetchesTotal.WithLabelValues("schedule", "error"))

	RecordFetch("schedule", start, nil)
	if got := testutil.ToFloat64(FetchesTotal.WithLabelValues("schedule", "success")); got != successBefore+1 {
		t.Errorf("success count = %v, want %v", got, successBefore+1)
	}

	RecordFetch("schedule", start, errors.New("upstream down"))
	if got := testutil.ToFloat64(FetchesTotal.WithLabelValues("schedule", "error")); got != errorBefore+1 {
		t.Errorf("error count = %v, want %v", got, errorBefore+1)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/channels", "200"))

	RecordAPIRequest("GET", "/api/v1/channels", 200, 5*time.Millisecond)

	if got := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/channels", "200")); got != before+1 {
		t.Errorf("request count = %v, want %v", got, before+1)
	}
}

func TestGaugesTrackState(t *testing.T) {
	AuthSessionActive.Set(1)
	if got := testutil.ToFloat64(AuthSessionActive); got != 1 {
		t.Errorf("auth session gauge = %v", got)
	}
	AuthSessionActive.Set(0)
	if got := testutil.ToFloat64(AuthSessionActive); got != 0 {
		t.Errorf("auth session gauge = %v", got)
	}

	WebSocketClients.Set(3)
	if got := testutil.ToFloat64(WebSocketClients); got != 3 {
		t.Errorf("websocket clients gauge = %v", got)
	}
	WebSocketClients.Set(0)
}

func TestCollectorsRegistered(t *testing.T) {
	// promauto registers against the default registry at package init; a
	// duplicate registration attempt proves each collector is present.
	duplicates := []prometheus.Collector{
		CycleDuration,
		SnapshotsPublished,
		SnapshotTimestamp,
		FetchesTotal,
		FetchDuration,
		AuthAttempts,
		AuthSessionActive,
		CircuitBreakerState,
		CircuitBreakerTransitions,
		APIRequestsTotal,
		APIRequestDuration,
		WebSocketClients,
	}
	for _, collector := range duplicates {
		if err := prometheus.Register(collector); err == nil {
			t.Error("collector was not registered at init")
		}
	}
}
