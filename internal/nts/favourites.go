// Aircheck - NTS Radio Broadcast Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aircheck

package nts

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/aircheck/internal/config"
	"github.com/tomtom215/aircheck/internal/metrics"
	"github.com/tomtom215/aircheck/internal/models"
)

// favouritesPageSize bounds a single listing request. Accounts with more
// favourites than this are paged through via nextPageToken.
const favouritesPageSize = 100

// FavouritesClient lists the shows an account has favourited on nts.live.
// Favourites live as documents under the account's user document, one per
// show, keyed and deduplicated by show alias.
type FavouritesClient struct {
	httpClient *http.Client
	baseURL    string
	breaker    *gobreaker.CircuitBreaker[[]models.Favourite]
	limiter    *rate.Limiter
}

// NewFavouritesClient builds a client against the configured Firestore
// project.
func NewFavouritesClient(cfg config.NTSConfig) *FavouritesClient {
	return &FavouritesClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    fmt.Sprintf(cfg.FirestoreURL, cfg.FirebaseProjectID),
		breaker:    newBreaker[[]models.Favourite]("nts-favourites"),
		limiter:    rate.NewLimiter(rate.Limit(1), 2),
	}
}

// Fetch returns the account's favourite shows in upstream order. Token
// handling mirrors the track feed: 401 surfaces as ErrTokenRejected and
// 403 as ErrNotEligible, leaving the session reaction to the caller.
func (c *FavouritesClient) Fetch(ctx context.Context, userID, token string) ([]models.Favourite, error) {
	start := time.Now()
	favs, err := c.breaker.Execute(func() ([]models.Favourite, error) {
		return c.listAll(ctx, userID, token)
	})
	metrics.RecordFetch("favourites", start, err)
	if err != nil {
		switch {
		case errors.Is(err, ErrTokenRejected) || errors.Is(err, ErrNotEligible):
			return nil, err
		default:
			if _, ok := err.(*UpstreamError); ok {
				return nil, err
			}
			return nil, unreachable("favourites", err)
		}
	}
	return favs, nil
}

func (c *FavouritesClient) listAll(ctx context.Context, userID, token string) ([]models.Favourite, error) {
	var favs []models.Favourite
	pageToken := ""
	for {
		page, next, err := c.listPage(ctx, userID, token, pageToken)
		if err != nil {
			return nil, err
		}
		favs = append(favs, page...)
		if next == "" {
			return favs, nil
		}
		pageToken = next
	}
}

func (c *FavouritesClient) listPage(ctx context.Context, userID, token, pageToken string) ([]models.Favourite, string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, "", err
	}

	url := fmt.Sprintf("%s/users/%s/favourites?pageSize=%d", c.baseURL, userID, favouritesPageSize)
	if pageToken != "" {
		url += "&pageToken=" + pageToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build favourites request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", unreachable("favourites", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, "", ErrTokenRejected
	case http.StatusForbidden:
		return nil, "", ErrNotEligible
	default:
		return nil, "", unreachable("favourites", fmt.Errorf("favourites listing returned status %d", resp.StatusCode))
	}

	var payload favouritesPage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, "", malformed("favourites", fmt.Errorf("decode favourites response: %w", err))
	}

	favs := make([]models.Favourite, 0, len(payload.Documents))
	for _, doc := range payload.Documents {
		fav := doc.favourite()
		if fav.Alias == "" {
			continue
		}
		favs = append(favs, fav)
	}
	return favs, payload.NextPageToken, nil
}

type favouritesPage struct {
	Documents     []favouriteDocument `json:"documents"`
	NextPageToken string              `json:"nextPageToken"`
}

type favouriteDocument struct {
	Fields struct {
		ShowAlias stringValue `json:"show_alias"`
		ShowTitle stringValue `json:"show_title"`
	} `json:"fields"`
}

func (d favouriteDocument) favourite() models.Favourite {
	title := d.Fields.ShowTitle.StringValue
	if title == "" {
		title = d.Fields.ShowAlias.StringValue
	}
	return models.Favourite{
		Alias: d.Fields.ShowAlias.StringValue,
		Title: html.UnescapeString(title),
	}
}
