// Aircheck - NTS Radio Broadcast Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aircheck

package poll

import (
	"time"

	"github.com/tomtom215/aircheck/internal/models"
)

// ScheduleResult carries one cycle's schedule fetch outcome. Current and
// Next are only meaningful when Err is nil.
type ScheduleResult struct {
	Current models.Show
	Next    *models.Show
	Err     error
}

// TrackResult carries one cycle's track fetch outcome. Attempted is false
// when no fetch ran because the session was inactive; History and Err are
// only meaningful when Attempted is true.
type TrackResult struct {
	History   models.TrackHistory
	Err       error
	Attempted bool
}

// CycleResult is everything one polling cycle learned about a channel.
type CycleResult struct {
	At            time.Time
	Schedule      ScheduleResult
	Tracks        TrackResult
	Authenticated bool
}

// Combine folds a cycle's results into the previous snapshot and returns
// the next one. It is a pure function: the inputs are not mutated, and the
// same prev and cycle always produce the same snapshot.
//
// Failed fetches retain the corresponding fields from prev so transient
// upstream errors never blank an entity that was showing data. Successful
// track fetches replace the history wholesale, and a session drop clears
// it entirely, since stale track attribution is worse than none.
func Combine(prev *models.ChannelSnapshot, channel models.Channel, cycle CycleResult) *models.ChannelSnapshot {
	next := models.ChannelSnapshot{
		Channel:       channel,
		FetchedAt:     cycle.At,
		Authenticated: cycle.Authenticated,
	}
	if prev != nil {
		next.Initialized = prev.Initialized
	}

	if cycle.Schedule.Err == nil {
		next.CurrentShow = cycle.Schedule.Current
		next.NextShow = cycle.Schedule.Next
		next.Initialized = true
	} else if prev != nil {
		next.CurrentShow = prev.CurrentShow
		next.NextShow = prev.NextShow
	}

	switch {
	case !cycle.Authenticated:
		// Leaving the history nil on a session drop beats attributing
		// tracks from a feed we can no longer read.
		next.TrackHistory = nil
	case !cycle.Tracks.Attempted, cycle.Tracks.Err != nil:
		if prev != nil {
			next.TrackHistory = prev.TrackHistory
		}
	default:
		next.TrackHistory = cycle.Tracks.History
	}

	return &next
}
