// Aircheck - NTS Radio Broadcast Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aircheck

// Package models defines the domain types shared across Aircheck: shows,
// tracks, per-channel snapshots and the projections derived from them.
package models

// Channel identifies one of the two NTS broadcast streams.
type Channel string

// The two NTS channels. The string form matches the channel_name field of
// the live API ("1" and "2").
const (
	Channel1 Channel = "1"
	Channel2 Channel = "2"
)

// Channels lists all tracked channels in display order.
var Channels = []Channel{Channel1, Channel2}

// Valid reports whether c names a tracked channel.
func (c Channel) Valid() bool {
	return c == Channel1 || c == Channel2
}

// StreamPathname returns the Firestore stream_pathname used by the track
// feed for this channel. Channel 1 is the bare "/stream" path.
func (c Channel) StreamPathname() string {
	if c == Channel2 {
		return "/stream2"
	}
	return "/stream"
}

func (c Channel) String() string {
	return string(c)
}
