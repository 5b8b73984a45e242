// Aircheck - NTS Radio Broadcast Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aircheck

// Package nts implements the upstream clients: the public live-schedule API,
// the Firebase identity backend and the Firestore track/favourites feeds.
// Each client performs exactly one network call per invocation; retry is the
// poll controller's concern via its natural rescheduling.
package nts

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/aircheck/internal/config"
	"github.com/tomtom215/aircheck/internal/logging"
	"github.com/tomtom215/aircheck/internal/metrics"
	"github.com/tomtom215/aircheck/internal/models"
)

// replaySuffix marks a rebroadcast in upstream broadcast titles.
const replaySuffix = " (R)"

// ScheduleClient fetches current/next show metadata from the public live
// endpoint. It is unauthenticated and shared by both channel controllers;
// one call returns the payload for every channel, from which the requested
// channel is extracted.
type ScheduleClient struct {
	httpClient *http.Client
	liveURL    string
	breaker    *gobreaker.CircuitBreaker[*livePayload]
	limiter    *rate.Limiter
	now        func() time.Time
}

// NewScheduleClient creates a schedule client for the configured live API.
func NewScheduleClient(cfg config.NTSConfig) *ScheduleClient {
	return &ScheduleClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		liveURL:    cfg.LiveURL,
		breaker:    newBreaker[*livePayload]("nts-live"),
		// Both controllers may wake on the same boundary; smooth that out
		// instead of hammering the endpoint.
		limiter: rate.NewLimiter(rate.Limit(1), 2),
		now:     time.Now,
	}
}

// Fetch performs one GET against the live endpoint and extracts the given
// channel's current and next show. The next show may be absent (a gap in the
// schedule). Failures are *UpstreamError: network/timeout/open-breaker map
// to Unreachable, unparsable payloads to MalformedResponse.
func (c *ScheduleClient) Fetch(ctx context.Context, channel models.Channel) (models.Show, *models.Show, error) {
	start := time.Now()
	payload, err := c.breaker.Execute(func() (*livePayload, error) {
		return c.fetchLive(ctx)
	})
	metrics.RecordFetch("schedule", start, err)
	if err != nil {
		if _, ok := err.(*UpstreamError); ok {
			return models.Show{}, nil, err
		}
		// gobreaker's ErrOpenState / ErrTooManyRequests land here.
		return models.Show{}, nil, unreachable("schedule", err)
	}

	for _, result := range payload.Results {
		if result.ChannelName != string(channel) {
			continue
		}
		if result.Now == nil {
			return models.Show{}, nil, malformed("schedule", fmt.Errorf("channel %s has no current broadcast", channel))
		}
		current := result.Now.toShow()
		var next *models.Show
		if result.Next != nil && result.Next.BroadcastTitle != "" {
			show := result.Next.toShow()
			next = &show
		}
		logger := logging.Ctx(ctx)
		logger.Debug().
			Str("channel", string(channel)).
			Str("show", current.Name).
			Msg("schedule fetched")
		return current, next, nil
	}

	return models.Show{}, nil, malformed("schedule", fmt.Errorf("channel %s missing from live payload", channel))
}

// fetchLive performs the HTTP round trip and decodes the full payload.
func (c *ScheduleClient) fetchLive(ctx context.Context) (*livePayload, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, unreachable("schedule", err)
	}

	// Cache-busting query parameter: some CDN layers cache the live payload
	// beyond its useful life.
	url := fmt.Sprintf("%s?_=%d", c.liveURL, c.now().Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, unreachable("schedule", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, unreachable("schedule", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, unreachable("schedule", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var payload livePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, malformed("schedule", err)
	}
	if len(payload.Results) == 0 {
		return nil, malformed("schedule", fmt.Errorf("empty results"))
	}
	return &payload, nil
}

// livePayload mirrors the live API response shape.
type livePayload struct {
	Results []struct {
		ChannelName string            `json:"channel_name"`
		Now         *broadcastPayload `json:"now"`
		Next        *broadcastPayload `json:"next"`
	} `json:"results"`
}

type broadcastPayload struct {
	BroadcastTitle string    `json:"broadcast_title"`
	StartTimestamp time.Time `json:"start_timestamp"`
	EndTimestamp   time.Time `json:"end_timestamp"`
	Embeds         struct {
		Details *detailsPayload `json:"details"`
	} `json:"embeds"`
}

type detailsPayload struct {
	Description  string `json:"description"`
	LocationLong string `json:"location_long"`
	ShowAlias    string `json:"show_alias"`
	Genres       []struct {
		Value string `json:"value"`
	} `json:"genres"`
	Media struct {
		PictureMedium string `json:"picture_medium"`
	} `json:"media"`
}

// toShow normalizes one broadcast into a Show: HTML entities decoded, the
// " (R)" replay marker stripped into IsReplay, missing optional details
// defaulted to empty values.
func (b *broadcastPayload) toShow() models.Show {
	name := html.UnescapeString(b.BroadcastTitle)
	isReplay := false
	if strings.HasSuffix(name, replaySuffix) {
		name = strings.TrimSuffix(name, replaySuffix)
		isReplay = true
	}

	show := models.Show{
		Name:      name,
		Genres:    []string{},
		StartTime: b.StartTimestamp,
		EndTime:   b.EndTimestamp,
		IsReplay:  isReplay,
	}

	if details := b.Embeds.Details; details != nil {
		show.Description = html.UnescapeString(details.Description)
		show.Location = html.UnescapeString(details.LocationLong)
		show.Alias = details.ShowAlias
		show.ImageURL = details.Media.PictureMedium
		for _, g := range details.Genres {
			if g.Value != "" {
				show.Genres = append(show.Genres, g.Value)
			}
		}
	}
	return show
}
