// Aircheck - NTS Radio Broadcast Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aircheck

package poll

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/tomtom215/aircheck/internal/models"
)

var errUpstream = errors.New("upstream down")

func successCycle(at time.Time) CycleResult {
	next := models.Show{Name: "Next Show"}
	return CycleResult{
		At: at,
		Schedule: ScheduleResult{
			Current: models.Show{Name: "Current Show", Alias: "current-show"},
			Next:    &next,
		},
		Tracks: TrackResult{
			History:   models.TrackHistory{{Artist: "Sault", Title: "Wildfires"}},
			Attempted: true,
		},
		Authenticated: true,
	}
}

func TestCombine_FirstSuccessfulCycle(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	got := Combine(nil, models.Channel1, successCycle(at))

	if !got.Initialized {
		t.Error("Initialized = false after successful schedule fetch")
	}
	if got.CurrentShow.Name != "Current Show" {
		t.Errorf("CurrentShow.Name = %q", got.CurrentShow.Name)
	}
	if got.NextShow == nil || got.NextShow.Name != "Next Show" {
		t.Errorf("NextShow = %+v", got.NextShow)
	}
	if len(got.TrackHistory) != 1 {
		t.Errorf("TrackHistory len = %d, want 1", len(got.TrackHistory))
	}
	if !got.Authenticated {
		t.Error("Authenticated = false")
	}
	if !got.FetchedAt.Equal(at) {
		t.Errorf("FetchedAt = %v, want %v", got.FetchedAt, at)
	}
}

func TestCombine_Deterministic(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	prev := Combine(nil, models.Channel1, successCycle(at))
	cycle := successCycle(at.Add(time.Minute))
	cycle.Schedule.Err = errUpstream

	a := Combine(prev, models.Channel1, cycle)
	b := Combine(prev, models.Channel1, cycle)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("same inputs produced different snapshots:\n%+v\n%+v", a, b)
	}
}

func TestCombine_ScheduleFailureRetainsShows(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	prev := Combine(nil, models.Channel1, successCycle(at))

	cycle := successCycle(at.Add(time.Minute))
	cycle.Schedule = ScheduleResult{Err: errUpstream}

	got := Combine(prev, models.Channel1, cycle)
	if got.CurrentShow.Name != "Current Show" {
		t.Errorf("CurrentShow.Name = %q, want retained %q", got.CurrentShow.Name, "Current Show")
	}
	if got.NextShow == nil {
		t.Error("NextShow dropped on schedule failure")
	}
	if !got.Initialized {
		t.Error("Initialized flag lost on schedule failure")
	}
	if len(got.TrackHistory) != 1 {
		t.Error("successful track fetch should still apply")
	}
}

func TestCombine_TrackFailureRetainsHistory(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	prev := Combine(nil, models.Channel1, successCycle(at))

	cycle := successCycle(at.Add(time.Minute))
	cycle.Tracks = TrackResult{Err: errUpstream, Attempted: true}

	got := Combine(prev, models.Channel1, cycle)
	if len(got.TrackHistory) != 1 {
		t.Errorf("TrackHistory len = %d, want retained 1", len(got.TrackHistory))
	}
}

func TestCombine_TrackSuccessReplacesWholesale(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	prev := Combine(nil, models.Channel1, successCycle(at))

	cycle := successCycle(at.Add(time.Minute))
	cycle.Tracks = TrackResult{
		History: models.TrackHistory{
			{Artist: "Koreless", Title: "Joy Squad"},
			{Artist: "Actress", Title: "X22RME"},
		},
		Attempted: true,
	}

	got := Combine(prev, models.Channel1, cycle)
	if len(got.TrackHistory) != 2 {
		t.Fatalf("TrackHistory len = %d, want 2", len(got.TrackHistory))
	}
	if got.TrackHistory[0].Artist != "Koreless" {
		t.Errorf("history not replaced wholesale: %+v", got.TrackHistory)
	}
}

func TestCombine_EmptyTrackSuccessClearsHistory(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	prev := Combine(nil, models.Channel1, successCycle(at))

	cycle := successCycle(at.Add(time.Minute))
	cycle.Tracks = TrackResult{History: models.TrackHistory{}, Attempted: true}

	got := Combine(prev, models.Channel1, cycle)
	if len(got.TrackHistory) != 0 {
		t.Errorf("empty successful fetch should replace history, got %d entries", len(got.TrackHistory))
	}
}

func TestCombine_AuthDropClearsHistory(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	prev := Combine(nil, models.Channel1, successCycle(at))

	cycle := successCycle(at.Add(time.Minute))
	cycle.Authenticated = false
	cycle.Tracks = TrackResult{}

	got := Combine(prev, models.Channel1, cycle)
	if got.TrackHistory != nil {
		t.Errorf("TrackHistory = %+v, want nil after auth drop", got.TrackHistory)
	}
	if got.Authenticated {
		t.Error("Authenticated = true, want false")
	}
	// The schedule side is unaffected.
	if got.CurrentShow.Name != "Current Show" {
		t.Errorf("CurrentShow.Name = %q", got.CurrentShow.Name)
	}
}

func TestCombine_UninitializedUntilFirstScheduleSuccess(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	cycle := CycleResult{At: at, Schedule: ScheduleResult{Err: errUpstream}}

	got := Combine(nil, models.Channel1, cycle)
	if got.Initialized {
		t.Error("Initialized = true with no successful schedule fetch ever")
	}

	// A later success flips it permanently.
	got = Combine(got, models.Channel1, successCycle(at.Add(time.Minute)))
	if !got.Initialized {
		t.Error("Initialized = false after first success")
	}
}

func TestCombine_DoesNotMutateInputs(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	prev := Combine(nil, models.Channel1, successCycle(at))
	before := *prev

	cycle := successCycle(at.Add(time.Minute))
	cycle.Schedule.Err = errUpstream
	cycle.Authenticated = false
	_ = Combine(prev, models.Channel1, cycle)

	if !reflect.DeepEqual(before, *prev) {
		t.Error("Combine mutated the previous snapshot")
	}
}
