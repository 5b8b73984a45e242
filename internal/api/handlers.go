// Aircheck - NTS Radio Broadcast Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aircheck

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	gorillaws "github.com/gorilla/websocket"

	"github.com/tomtom215/aircheck/internal/logging"
	"github.com/tomtom215/aircheck/internal/models"
	"github.com/tomtom215/aircheck/internal/websocket"
)

// StateSource is the read surface the handlers serve from. The poll engine
// implements it; tests substitute fixtures.
type StateSource interface {
	Snapshot(channel models.Channel) (*models.ChannelSnapshot, bool)
	Favourites() []models.Favourite
	IsFavourite(alias string) bool
	FavouritesEnabled() bool
	SessionState() string
	Ready() bool
}

// Handler serves the REST and WebSocket surface.
type Handler struct {
	state       StateSource
	wsHub       *websocket.Hub
	corsOrigins []string
	startTime   time.Time
}

// NewHandler creates a handler over the given state source. wsHub may be
// nil in tests that never exercise the upgrade path.
func NewHandler(state StateSource, wsHub *websocket.Hub, corsOrigins []string) *Handler {
	return &Handler{
		state:       state,
		wsHub:       wsHub,
		corsOrigins: corsOrigins,
		startTime:   time.Now(),
	}
}

// healthChannel is one channel's entry in the health summary.
type healthChannel struct {
	Channel       string     `json:"channel"`
	Initialized   bool       `json:"initialized"`
	Authenticated bool       `json:"authenticated"`
	FetchedAt     *time.Time `json:"fetched_at,omitempty"`
	CurrentShow   string     `json:"current_show,omitempty"`
}

// healthSummary is the body of GET /api/v1/health.
type healthSummary struct {
	Status        string          `json:"status"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	SessionState  string          `json:"session_state"`
	Channels      []healthChannel `json:"channels"`
}

// Health reports overall status plus a per-channel readiness summary.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	summary := healthSummary{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		SessionState:  h.state.SessionState(),
	}
	if !h.state.Ready() {
		summary.Status = "starting"
	}

	for _, channel := range models.Channels {
		entry := healthChannel{Channel: string(channel)}
		if snap, ok := h.state.Snapshot(channel); ok && snap != nil {
			entry.Initialized = snap.Initialized
			entry.Authenticated = snap.Authenticated
			entry.FetchedAt = &snap.FetchedAt
			entry.CurrentShow = snap.CurrentShow.Name
		}
		summary.Channels = append(summary.Channels, entry)
	}

	respondJSON(w, r, http.StatusOK, summary)
}

// HealthLive is a trivial liveness probe.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// HealthReady reports 200 once every channel has an initialized snapshot.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if !h.state.Ready() {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable,
			"Not all channels have completed an initial fetch", nil)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// channelInfo is one entry of GET /api/v1/channels.
type channelInfo struct {
	Channel        string `json:"channel"`
	StreamPathname string `json:"stream_pathname"`
}

// Channels lists the configured channels.
func (h *Handler) Channels(w http.ResponseWriter, r *http.Request) {
	out := make([]channelInfo, 0, len(models.Channels))
	for _, channel := range models.Channels {
		out = append(out, channelInfo{
			Channel:        string(channel),
			StreamPathname: channel.StreamPathname(),
		})
	}
	respondJSON(w, r, http.StatusOK, out)
}

// channelSnapshot resolves the {channel} path parameter and loads its
// snapshot. It writes the error response itself and reports ok=false when
// the handler should return early.
func (h *Handler) channelSnapshot(w http.ResponseWriter, r *http.Request) (*models.ChannelSnapshot, bool) {
	channel := models.Channel(chi.URLParam(r, "channel"))
	if !channel.Valid() {
		respondError(w, r, http.StatusNotFound, ErrCodeChannelUnknown,
			"Unknown channel: "+string(channel), nil)
		return nil, false
	}

	snap, ok := h.state.Snapshot(channel)
	if !ok {
		respondError(w, r, http.StatusNotFound, ErrCodeChannelUnknown,
			"Channel not being polled: "+string(channel), nil)
		return nil, false
	}
	if snap == nil || !snap.Initialized {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeUninitialized,
			"Channel has no successful schedule fetch yet",
			map[string]string{"channel": string(channel), "state": "uninitialized"})
		return nil, false
	}
	return snap, true
}

// Snapshot returns the full channel snapshot.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.channelSnapshot(w, r)
	if !ok {
		return
	}
	respondJSON(w, r, http.StatusOK, snap)
}

// NowPlaying returns the now-playing projection.
func (h *Handler) NowPlaying(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.channelSnapshot(w, r)
	if !ok {
		return
	}
	respondJSON(w, r, http.StatusOK, snap.NowPlaying())
}

// NextShow returns the next-show projection.
func (h *Handler) NextShow(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.channelSnapshot(w, r)
	if !ok {
		return
	}
	respondJSON(w, r, http.StatusOK, snap.NextShowProjection())
}

// TrackID returns the track-id projection.
func (h *Handler) TrackID(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.channelSnapshot(w, r)
	if !ok {
		return
	}
	respondJSON(w, r, http.StatusOK, snap.TrackIdentifier().Projection())
}

// favouriteStatus is the body of GET /api/v1/channels/{channel}/favourite.
type favouriteStatus struct {
	Channel     string `json:"channel"`
	ShowName    string `json:"show_name"`
	ShowAlias   string `json:"show_alias,omitempty"`
	IsFavourite bool   `json:"is_favourite"`
}

// Favourite reports whether the channel's current show is favourited.
func (h *Handler) Favourite(w http.ResponseWriter, r *http.Request) {
	if !h.state.FavouritesEnabled() {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound,
			"Favourites are not enabled on this instance", nil)
		return
	}

	snap, ok := h.channelSnapshot(w, r)
	if !ok {
		return
	}

	respondJSON(w, r, http.StatusOK, favouriteStatus{
		Channel:     string(snap.Channel),
		ShowName:    snap.CurrentShow.Name,
		ShowAlias:   snap.CurrentShow.Alias,
		IsFavourite: h.state.IsFavourite(snap.CurrentShow.Alias),
	})
}

// Favourites lists the account's favourite shows.
func (h *Handler) Favourites(w http.ResponseWriter, r *http.Request) {
	if !h.state.FavouritesEnabled() {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound,
			"Favourites are not enabled on this instance", nil)
		return
	}
	respondJSON(w, r, http.StatusOK, h.state.Favourites())
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout against slow clients.
func (h *Handler) getUpgrader() gorillaws.Upgrader {
	return gorillaws.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins.
// Legitimate browser WebSockets always include Origin; only non-browser
// clients (curl, scripts) omit it, and those bypass CORS anyway.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	for _, allowed := range h.corsOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", origin).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// WebSocket upgrades the connection and registers the client with the hub.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable,
			"WebSocket hub not running", nil)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		logging.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := websocket.NewClient(h.wsHub, conn)
	h.wsHub.Register <- client
	client.Start()
}
