// Aircheck - NTS Radio Broadcast Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aircheck

package poll

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/aircheck/internal/logging"
	"github.com/tomtom215/aircheck/internal/models"
	"github.com/tomtom215/aircheck/internal/nts"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

type fakeSchedule struct {
	current models.Show
	next    *models.Show
	err     error
	calls   atomic.Int32
}

func (f *fakeSchedule) Fetch(_ context.Context, _ models.Channel) (models.Show, *models.Show, error) {
	f.calls.Add(1)
	return f.current, f.next, f.err
}

type fakeTracks struct {
	history models.TrackHistory
	err     error
	calls   atomic.Int32
	token   atomic.Value
}

func (f *fakeTracks) Fetch(_ context.Context, _ models.Channel, token string) (models.TrackHistory, error) {
	f.calls.Add(1)
	f.token.Store(token)
	return f.history, f.err
}

type fakeSession struct {
	enabled     bool
	token       string
	tokenErr    error
	invalidated atomic.Bool
	ineligible  atomic.Bool
}

func (f *fakeSession) Enabled() bool { return f.enabled }

func (f *fakeSession) CurrentToken(_ context.Context) (string, error) {
	return f.token, f.tokenErr
}

func (f *fakeSession) Invalidate()     { f.invalidated.Store(true) }
func (f *fakeSession) MarkIneligible() { f.ineligible.Store(true) }

func newTestController(schedule *fakeSchedule, tracks *fakeTracks, session *fakeSession, onPublish func(*models.ChannelSnapshot)) *ChannelController {
	return NewChannelController(ControllerOptions{
		Channel:   models.Channel1,
		Interval:  60 * time.Second,
		Schedule:  schedule,
		Tracks:    tracks,
		Session:   session,
		OnPublish: onPublish,
	})
}

func TestChannelController_CycleSuccess(t *testing.T) {
	t.Parallel()

	schedule := &fakeSchedule{current: models.Show{Name: "Show A", Alias: "show-a"}}
	tracks := &fakeTracks{history: models.TrackHistory{{Artist: "Sault", Title: "Wildfires"}}}
	session := &fakeSession{enabled: true, token: "token-1"}

	var published atomic.Int32
	c := newTestController(schedule, tracks, session, func(*models.ChannelSnapshot) {
		published.Add(1)
	})

	c.runCycle(context.Background())

	snap := c.Snapshot()
	if snap == nil {
		t.Fatal("no snapshot published")
	}
	if !snap.Initialized {
		t.Error("Initialized = false")
	}
	if snap.CurrentShow.Name != "Show A" {
		t.Errorf("CurrentShow.Name = %q", snap.CurrentShow.Name)
	}
	if !snap.Authenticated {
		t.Error("Authenticated = false")
	}
	if len(snap.TrackHistory) != 1 {
		t.Errorf("TrackHistory len = %d, want 1", len(snap.TrackHistory))
	}
	if published.Load() != 1 {
		t.Errorf("onPublish called %d times, want 1", published.Load())
	}
	if got := tracks.token.Load(); got != "token-1" {
		t.Errorf("track fetch token = %v, want token-1", got)
	}
}

func TestChannelController_SkipsTracksWhenSessionDisabled(t *testing.T) {
	t.Parallel()

	schedule := &fakeSchedule{current: models.Show{Name: "Show A"}}
	tracks := &fakeTracks{}
	session := &fakeSession{enabled: false}

	c := newTestController(schedule, tracks, session, nil)
	c.runCycle(context.Background())

	if tracks.calls.Load() != 0 {
		t.Errorf("track fetch ran %d times with disabled session", tracks.calls.Load())
	}
	snap := c.Snapshot()
	if snap.Authenticated {
		t.Error("Authenticated = true without a session")
	}
	if snap.TrackHistory != nil {
		t.Error("TrackHistory should stay nil without a session")
	}
}

func TestChannelController_TokenRejectedInvalidatesSession(t *testing.T) {
	t.Parallel()

	schedule := &fakeSchedule{current: models.Show{Name: "Show A"}}
	tracks := &fakeTracks{err: nts.ErrTokenRejected}
	session := &fakeSession{enabled: true, token: "stale"}

	c := newTestController(schedule, tracks, session, nil)
	c.runCycle(context.Background())

	if !session.invalidated.Load() {
		t.Error("session was not invalidated on token rejection")
	}
	snap := c.Snapshot()
	if snap.Authenticated {
		t.Error("cycle with rejected token should count as unauthenticated")
	}
	if snap.TrackHistory != nil {
		t.Error("history should be cleared on the unauthenticated cycle")
	}
}

func TestChannelController_NotEligibleMarksSession(t *testing.T) {
	t.Parallel()

	schedule := &fakeSchedule{current: models.Show{Name: "Show A"}}
	tracks := &fakeTracks{err: nts.ErrNotEligible}
	session := &fakeSession{enabled: true, token: "tok"}

	c := newTestController(schedule, tracks, session, nil)
	c.runCycle(context.Background())

	if !session.ineligible.Load() {
		t.Error("session was not marked ineligible")
	}
	if session.invalidated.Load() {
		t.Error("ineligible account should not also invalidate")
	}
}

func TestChannelController_ScheduleFailureRetainsPrevious(t *testing.T) {
	t.Parallel()

	schedule := &fakeSchedule{current: models.Show{Name: "Show A"}}
	tracks := &fakeTracks{}
	session := &fakeSession{enabled: false}

	c := newTestController(schedule, tracks, session, nil)
	c.runCycle(context.Background())

	schedule.err = errors.New("down")
	c.runCycle(context.Background())

	snap := c.Snapshot()
	if snap.CurrentShow.Name != "Show A" {
		t.Errorf("CurrentShow.Name = %q, want retained %q", snap.CurrentShow.Name, "Show A")
	}
	if !snap.Initialized {
		t.Error("Initialized flag lost on failure")
	}
}

func TestChannelController_NoPublishAfterCancel(t *testing.T) {
	t.Parallel()

	schedule := &fakeSchedule{current: models.Show{Name: "Show A"}}
	session := &fakeSession{enabled: false}

	var published atomic.Int32
	c := newTestController(schedule, &fakeTracks{}, session, func(*models.ChannelSnapshot) {
		published.Add(1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.runCycle(ctx)

	if c.Snapshot() != nil {
		t.Error("snapshot published from a canceled cycle")
	}
	if published.Load() != 0 {
		t.Errorf("onPublish called %d times after cancel", published.Load())
	}
}

func TestChannelController_ServeStopsOnCancel(t *testing.T) {
	t.Parallel()

	schedule := &fakeSchedule{current: models.Show{Name: "Show A"}}
	session := &fakeSession{enabled: false}
	c := newTestController(schedule, &fakeTracks{}, session, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Serve(ctx)
	}()

	// Give the first immediate cycle time to run, then stop.
	deadline := time.After(2 * time.Second)
	for c.Snapshot() == nil {
		select {
		case <-deadline:
			t.Fatal("first cycle never completed")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not stop after cancel")
	}
}

func TestChannelController_String(t *testing.T) {
	t.Parallel()

	c := newTestController(&fakeSchedule{}, &fakeTracks{}, &fakeSession{}, nil)
	if got := c.String(); got != "poll-controller-channel-1" {
		t.Errorf("String() = %q", got)
	}
}
