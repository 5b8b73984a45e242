// Aircheck - NTS Radio Broadcast Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aircheck

package poll

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tomtom215/aircheck/internal/logging"
	"github.com/tomtom215/aircheck/internal/models"
	"github.com/tomtom215/aircheck/internal/nts"
)

// FavouritesFetcher lists the account's favourite shows.
type FavouritesFetcher interface {
	Fetch(ctx context.Context, userID, token string) ([]models.Favourite, error)
}

// AccountSession extends TokenSource with the account identity the
// favourites listing is keyed by.
type AccountSession interface {
	TokenSource
	UserID() string
}

// FavouritesStore holds the latest favourites list. Reads are frequent
// (every snapshot render checks membership) and writes rare, so it keeps
// an alias set alongside the ordered list.
type FavouritesStore struct {
	mu      sync.RWMutex
	list    []models.Favourite
	aliases map[string]struct{}
}

// NewFavouritesStore returns an empty store.
func NewFavouritesStore() *FavouritesStore {
	return &FavouritesStore{aliases: make(map[string]struct{})}
}

// Replace swaps in a new favourites list wholesale.
func (s *FavouritesStore) Replace(favs []models.Favourite) {
	aliases := make(map[string]struct{}, len(favs))
	for _, fav := range favs {
		aliases[fav.Alias] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = favs
	s.aliases = aliases
}

// List returns the current favourites in upstream order.
func (s *FavouritesStore) List() []models.Favourite {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Favourite, len(s.list))
	copy(out, s.list)
	return out
}

// Contains reports whether a show alias is favourited. An empty alias is
// never a favourite.
func (s *FavouritesStore) Contains(alias string) bool {
	if alias == "" {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.aliases[alias]
	return ok
}

// FavouritesPoller refreshes the favourites store on a fixed cadence.
// Favourites change when the user edits them on nts.live, so the cadence
// is minutes, not seconds.
type FavouritesPoller struct {
	interval time.Duration
	client   FavouritesFetcher
	session  AccountSession
	store    *FavouritesStore
}

// NewFavouritesPoller builds a poller; it does not start polling.
func NewFavouritesPoller(interval time.Duration, client FavouritesFetcher, session AccountSession, store *FavouritesStore) *FavouritesPoller {
	return &FavouritesPoller{
		interval: interval,
		client:   client,
		session:  session,
		store:    store,
	}
}

// String identifies the poller in supervisor logs.
func (p *FavouritesPoller) String() string {
	return "favourites-poller"
}

// Serve refreshes favourites immediately and then every interval until the
// context is cancelled.
func (p *FavouritesPoller) Serve(ctx context.Context) error {
	logging.Info().
		Str("component", "favourites").
		Dur("interval", p.interval).
		Msg("Favourites poller started")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.refresh(ctx)
		}
	}
}

func (p *FavouritesPoller) refresh(ctx context.Context) {
	log := logging.Ctx(ctx).With().Str("component", "favourites").Logger()

	token, err := p.session.CurrentToken(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Token acquisition failed, keeping previous favourites")
		return
	}
	if token == "" {
		return
	}

	favs, err := p.client.Fetch(ctx, p.session.UserID(), token)
	switch {
	case errors.Is(err, nts.ErrTokenRejected):
		p.session.Invalidate()
		return
	case errors.Is(err, nts.ErrNotEligible):
		p.session.MarkIneligible()
		return
	case err != nil:
		log.Warn().Err(err).Msg("Favourites fetch failed, keeping previous list")
		return
	}

	p.store.Replace(favs)
	log.Debug().Int("count", len(favs)).Msg("Favourites refreshed")
}
