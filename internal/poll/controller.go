// Aircheck - NTS Radio Broadcast Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aircheck

package poll

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/aircheck/internal/logging"
	"github.com/tomtom215/aircheck/internal/metrics"
	"github.com/tomtom215/aircheck/internal/models"
	"github.com/tomtom215/aircheck/internal/nts"
)

// ScheduleFetcher returns a channel's current and next broadcast.
type ScheduleFetcher interface {
	Fetch(ctx context.Context, channel models.Channel) (models.Show, *models.Show, error)
}

// TrackFetcher returns a channel's recent track history using the given
// Firebase ID token.
type TrackFetcher interface {
	Fetch(ctx context.Context, channel models.Channel, token string) (models.TrackHistory, error)
}

// TokenSource supplies Firebase ID tokens and absorbs token-level
// reactions from consumers.
type TokenSource interface {
	Enabled() bool
	CurrentToken(ctx context.Context) (string, error)
	Invalidate()
	MarkIneligible()
}

// ChannelController polls one channel on the aligned schedule and
// publishes the snapshot produced by each cycle. Snapshots are immutable
// once published; readers get whatever was current when they asked.
type ChannelController struct {
	channel  models.Channel
	interval time.Duration
	schedule ScheduleFetcher
	tracks   TrackFetcher
	session  TokenSource

	snapshot  atomic.Pointer[models.ChannelSnapshot]
	onPublish func(*models.ChannelSnapshot)

	now func() time.Time
}

// ControllerOptions configures a ChannelController.
type ControllerOptions struct {
	Channel  models.Channel
	Interval time.Duration
	Schedule ScheduleFetcher
	Tracks   TrackFetcher
	Session  TokenSource

	// OnPublish is invoked after each snapshot swap, on the polling
	// goroutine. May be nil.
	OnPublish func(*models.ChannelSnapshot)
}

// NewChannelController builds a controller; it does not start polling.
func NewChannelController(opts ControllerOptions) *ChannelController {
	return &ChannelController{
		channel:   opts.Channel,
		interval:  opts.Interval,
		schedule:  opts.Schedule,
		tracks:    opts.Tracks,
		session:   opts.Session,
		onPublish: opts.OnPublish,
		now:       time.Now,
	}
}

// Snapshot returns the latest published snapshot, or nil before the first
// cycle completes.
func (c *ChannelController) Snapshot() *models.ChannelSnapshot {
	return c.snapshot.Load()
}

// Channel returns the channel this controller polls.
func (c *ChannelController) Channel() models.Channel {
	return c.channel
}

// String identifies the controller in supervisor logs.
func (c *ChannelController) String() string {
	return fmt.Sprintf("poll-controller-channel-%s", c.channel)
}

// Serve runs the polling loop until the context is cancelled. The first
// cycle runs immediately; subsequent cycles wake on the sooner of the next
// half-hour boundary and the configured interval.
func (c *ChannelController) Serve(ctx context.Context) error {
	logging.Info().
		Str("component", "poll").
		Str("channel", string(c.channel)).
		Dur("interval", c.interval).
		Msg("Channel controller started")

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		c.runCycle(ctx)

		// A cycle that raced shutdown must not arm another wakeup.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		now := c.now()
		timer.Reset(NextWakeup(now, c.interval).Sub(now))
	}
}

// runCycle performs one poll: schedule and track fetches run concurrently,
// the reducer folds their results over the previous snapshot, and the
// result is published unless shutdown began mid-cycle.
func (c *ChannelController) runCycle(ctx context.Context) {
	start := c.now()
	ctx = logging.ContextWithCycleID(ctx, logging.GenerateCycleID())
	log := logging.Ctx(ctx).With().
		Str("component", "poll").
		Str("channel", string(c.channel)).
		Logger()

	cycle := CycleResult{At: start}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		current, next, err := c.schedule.Fetch(gctx, c.channel)
		cycle.Schedule = ScheduleResult{Current: current, Next: next, Err: err}
		return nil
	})
	g.Go(func() error {
		cycle.Tracks, cycle.Authenticated = c.fetchTracks(gctx)
		return nil
	})
	_ = g.Wait()

	if cycle.Schedule.Err != nil {
		log.Warn().Err(cycle.Schedule.Err).Msg("Schedule fetch failed, retaining previous shows")
	}
	if cycle.Tracks.Attempted && cycle.Tracks.Err != nil {
		log.Warn().Err(cycle.Tracks.Err).Msg("Track fetch failed, retaining previous history")
	}

	// Shutdown during the fetches means the results may be torn;
	// suppress the publish and let the loop observe cancellation.
	if ctx.Err() != nil {
		return
	}

	next := Combine(c.snapshot.Load(), c.channel, cycle)
	c.snapshot.Store(next)
	if c.onPublish != nil {
		c.onPublish(next)
	}

	metrics.CycleDuration.WithLabelValues(string(c.channel)).Observe(time.Since(start).Seconds())
	metrics.SnapshotsPublished.WithLabelValues(string(c.channel)).Inc()
	metrics.SnapshotTimestamp.WithLabelValues(string(c.channel)).Set(float64(next.FetchedAt.Unix()))

	log.Debug().
		Bool("initialized", next.Initialized).
		Bool("authenticated", next.Authenticated).
		Int("tracks", len(next.TrackHistory)).
		Str("current_show", next.CurrentShow.Name).
		Msg("Cycle complete")
}

// fetchTracks resolves a token and queries the track feed. It reports
// whether the session is active this cycle; token rejection and account
// ineligibility feed back into the session before being reported.
func (c *ChannelController) fetchTracks(ctx context.Context) (TrackResult, bool) {
	if c.session == nil || !c.session.Enabled() {
		return TrackResult{}, false
	}

	token, err := c.session.CurrentToken(ctx)
	if err != nil {
		logger := logging.Ctx(ctx)
		logger.Warn().
			Str("component", "poll").
			Str("channel", string(c.channel)).
			Err(err).
			Msg("Token acquisition failed, skipping track fetch")
		return TrackResult{}, false
	}
	if token == "" {
		return TrackResult{}, false
	}

	history, err := c.tracks.Fetch(ctx, c.channel, token)
	switch {
	case errors.Is(err, nts.ErrTokenRejected):
		c.session.Invalidate()
		return TrackResult{}, false
	case errors.Is(err, nts.ErrNotEligible):
		c.session.MarkIneligible()
		return TrackResult{}, false
	}
	return TrackResult{History: history, Err: err, Attempted: true}, true
}
