// Aircheck - NTS Radio Broadcast Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aircheck

package poll

import (
	"github.com/tomtom215/aircheck/internal/config"
	"github.com/tomtom215/aircheck/internal/models"
	"github.com/tomtom215/aircheck/internal/nts"
)

// Engine owns one controller per NTS channel plus the shared auth session
// and favourites state. It builds everything from config; the supervisor
// tree runs the services it exposes.
type Engine struct {
	controllers map[models.Channel]*ChannelController
	session     *nts.AuthSession
	favourites  *FavouritesStore
	favPoller   *FavouritesPoller
}

// NewEngine wires the upstream clients and controllers for every channel.
// onPublish, if non-nil, receives each published snapshot.
func NewEngine(cfg *config.Config, onPublish func(*models.ChannelSnapshot)) *Engine {
	session := nts.NewAuthSession(cfg.NTS, cfg.Credentials)
	schedule := nts.NewScheduleClient(cfg.NTS)

	var tracks TrackFetcher
	if session.Enabled() {
		tracks = nts.NewTrackFeed(cfg.NTS)
	}

	e := &Engine{
		controllers: make(map[models.Channel]*ChannelController, len(models.Channels)),
		session:     session,
		favourites:  NewFavouritesStore(),
	}

	for _, channel := range models.Channels {
		e.controllers[channel] = NewChannelController(ControllerOptions{
			Channel:   channel,
			Interval:  cfg.Poll.UpdateInterval(),
			Schedule:  schedule,
			Tracks:    tracks,
			Session:   session,
			OnPublish: onPublish,
		})
	}

	if cfg.Favourites.Enabled && session.Enabled() {
		e.favPoller = NewFavouritesPoller(
			cfg.Favourites.Interval,
			nts.NewFavouritesClient(cfg.NTS),
			session,
			e.favourites,
		)
	}

	return e
}

// Controllers returns the per-channel controllers in channel order.
func (e *Engine) Controllers() []*ChannelController {
	out := make([]*ChannelController, 0, len(e.controllers))
	for _, channel := range models.Channels {
		if c, ok := e.controllers[channel]; ok {
			out = append(out, c)
		}
	}
	return out
}

// FavouritesPoller returns the poller, or nil when favourites are disabled
// or the instance runs without credentials.
func (e *Engine) FavouritesPoller() *FavouritesPoller {
	return e.favPoller
}

// Snapshot returns the latest snapshot for a channel. ok is false for an
// unknown channel; a nil snapshot with ok true means no cycle has
// completed yet.
func (e *Engine) Snapshot(channel models.Channel) (*models.ChannelSnapshot, bool) {
	c, ok := e.controllers[channel]
	if !ok {
		return nil, false
	}
	return c.Snapshot(), true
}

// Favourites returns the current favourites list.
func (e *Engine) Favourites() []models.Favourite {
	return e.favourites.List()
}

// IsFavourite reports whether a show alias is in the favourites list.
func (e *Engine) IsFavourite(alias string) bool {
	return e.favourites.Contains(alias)
}

// FavouritesEnabled reports whether this instance polls favourites.
func (e *Engine) FavouritesEnabled() bool {
	return e.favPoller != nil
}

// SessionState describes the auth session for health reporting.
func (e *Engine) SessionState() string {
	return e.session.State().String()
}

// Ready reports whether every channel has completed at least one
// successful schedule fetch.
func (e *Engine) Ready() bool {
	for _, c := range e.controllers {
		snap := c.Snapshot()
		if snap == nil || !snap.Initialized {
			return false
		}
	}
	return true
}
