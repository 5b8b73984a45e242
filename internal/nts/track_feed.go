// Aircheck - NTS Radio Broadcast Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aircheck

package nts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/aircheck/internal/config"
	"github.com/tomtom215/aircheck/internal/metrics"
	"github.com/tomtom215/aircheck/internal/models"
)

// trackQueryLimit is the number of documents requested per query. The
// feed returns more rows than the snapshot keeps so that invalid rows
// can be filtered out without shrinking the retained history.
const trackQueryLimit = 15

// trackCollection is the Firestore collection holding recently played
// tracks, one document per track per stream.
const trackCollection = "live_tracks"

// TrackFeed queries the NTS Firestore track collection for the most
// recently identified tracks on a channel's stream. All requests carry
// the caller-supplied Firebase ID token; the feed itself holds no
// credentials.
type TrackFeed struct {
	httpClient *http.Client
	queryURL   string
	breaker    *gobreaker.CircuitBreaker[[]trackDocument]
	limiter    *rate.Limiter
}

// NewTrackFeed builds a feed against the configured Firestore project.
func NewTrackFeed(cfg config.NTSConfig) *TrackFeed {
	base := fmt.Sprintf(cfg.FirestoreURL, cfg.FirebaseProjectID)
	return &TrackFeed{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		queryURL:   base + ":runQuery",
		breaker:    newBreaker[[]trackDocument]("nts-tracks"),
		limiter:    rate.NewLimiter(rate.Limit(1), 2),
	}
}

// Fetch returns the channel's recent track history, newest first, capped
// and filtered per models.NewTrackHistory. A rejected token surfaces as
// ErrTokenRejected and an account without track access as ErrNotEligible;
// the caller owns the session reaction to both.
func (f *TrackFeed) Fetch(ctx context.Context, channel models.Channel, token string) (models.TrackHistory, error) {
	start := time.Now()
	docs, err := f.breaker.Execute(func() ([]trackDocument, error) {
		return f.runQuery(ctx, channel, token)
	})
	metrics.RecordFetch("tracks", start, err)
	if err != nil {
		switch {
		case errors.Is(err, ErrTokenRejected) || errors.Is(err, ErrNotEligible):
			return nil, err
		default:
			if _, ok := err.(*UpstreamError); ok {
				return nil, err
			}
			// gobreaker's ErrOpenState / ErrTooManyRequests land here.
			return nil, unreachable("tracks", err)
		}
	}

	raw := make([]models.Track, 0, len(docs))
	for _, doc := range docs {
		raw = append(raw, doc.track())
	}
	return models.NewTrackHistory(raw), nil
}

func (f *TrackFeed) runQuery(ctx context.Context, channel models.Channel, token string) ([]trackDocument, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(newTrackQuery(channel))
	if err != nil {
		return nil, fmt.Errorf("encode track query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.queryURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build track query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, unreachable("tracks", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, ErrTokenRejected
	case http.StatusForbidden:
		return nil, ErrNotEligible
	default:
		return nil, unreachable("tracks", fmt.Errorf("firestore query returned status %d", resp.StatusCode))
	}

	var rows []queryRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, malformed("tracks", fmt.Errorf("decode firestore response: %w", err))
	}

	docs := make([]trackDocument, 0, len(rows))
	for _, row := range rows {
		// runQuery interleaves progress rows without a document; skip them.
		if row.Document == nil {
			continue
		}
		docs = append(docs, *row.Document)
	}
	return docs, nil
}

// newTrackQuery builds the structured query for a channel's stream,
// newest tracks first.
func newTrackQuery(channel models.Channel) map[string]any {
	return map[string]any{
		"structuredQuery": map[string]any{
			"from": []map[string]any{
				{"collectionId": trackCollection},
			},
			"where": map[string]any{
				"fieldFilter": map[string]any{
					"field": map[string]any{"fieldPath": "stream_pathname"},
					"op":    "EQUAL",
					"value": map[string]any{"stringValue": channel.StreamPathname()},
				},
			},
			"orderBy": []map[string]any{
				{
					"field":     map[string]any{"fieldPath": "start_time"},
					"direction": "DESCENDING",
				},
			},
			"limit": trackQueryLimit,
		},
	}
}

// queryRow is one element of a Firestore runQuery response. Rows without
// a document carry read progress only.
type queryRow struct {
	Document *trackDocument `json:"document"`
}

type trackDocument struct {
	Fields trackFields `json:"fields"`
}

type trackFields struct {
	ArtistNames arrayValue     `json:"artist_names"`
	SongTitle   stringValue    `json:"song_title"`
	StartTime   timestampValue `json:"start_time"`
}

type arrayValue struct {
	ArrayValue struct {
		Values []stringValue `json:"values"`
	} `json:"arrayValue"`
}

type stringValue struct {
	StringValue string `json:"stringValue"`
}

type timestampValue struct {
	TimestampValue time.Time `json:"timestampValue"`
}

// track flattens a Firestore document into the domain model. Multiple
// artists are joined with a comma the way the NTS site renders them.
func (d trackDocument) track() models.Track {
	names := make([]string, 0, len(d.Fields.ArtistNames.ArrayValue.Values))
	for _, v := range d.Fields.ArtistNames.ArrayValue.Values {
		if v.StringValue != "" {
			names = append(names, v.StringValue)
		}
	}
	return models.Track{
		Artist:   html.UnescapeString(strings.Join(names, ", ")),
		Title:    html.UnescapeString(d.Fields.SongTitle.StringValue),
		PlayedAt: d.Fields.StartTime.TimestampValue,
	}
}
