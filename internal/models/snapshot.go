// Aircheck - NTS Radio Broadcast Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aircheck

package models

import "time"

// ChannelSnapshot is the immutable, atomically-published composite state for
// one channel at one point in time. A new snapshot wholesale-replaces the old
// one; consumers never observe a half-updated composite. Fields from the same
// upstream always come from a single fetch cycle.
//
// Initialized is false until the channel's schedule has been fetched
// successfully at least once. An uninitialized snapshot carries a zero
// CurrentShow and must be reported as such rather than presented as data.
type ChannelSnapshot struct {
	Channel       Channel      `json:"channel"`
	FetchedAt     time.Time    `json:"fetched_at"`
	Initialized   bool         `json:"initialized"`
	CurrentShow   Show         `json:"current_show"`
	NextShow      *Show        `json:"next_show,omitempty"`
	TrackHistory  TrackHistory `json:"track_history"`
	Authenticated bool         `json:"authenticated"`
}
