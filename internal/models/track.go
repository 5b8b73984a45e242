// Aircheck - NTS Radio Broadcast Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aircheck

package models

import (
	"strings"
	"time"
)

// MaxTrackHistory caps the number of recent tracks retained per channel.
const MaxTrackHistory = 10

// Track is one identified piece of music within a show. Artist may hold
// several comma-joined artist names as delivered by the track feed.
type Track struct {
	Artist   string    `json:"artist"`
	Title    string    `json:"title"`
	PlayedAt time.Time `json:"played_at"`
}

// Valid reports whether the track carries any identifying content.
// A track whose artist and title are both empty after trimming must never
// surface as the current track.
func (t Track) Valid() bool {
	return strings.TrimSpace(t.Artist) != "" || strings.TrimSpace(t.Title) != ""
}

// Display renders the track for presentation: "Artist - Title" when both are
// known, otherwise whichever half is present.
func (t Track) Display() string {
	artist := strings.TrimSpace(t.Artist)
	title := strings.TrimSpace(t.Title)
	switch {
	case artist != "" && title != "":
		return artist + " - " + title
	case title != "":
		return title
	default:
		return artist
	}
}

// TrackHistory is an ordered, most-recent-first sequence of valid tracks.
// Invariants: length <= MaxTrackHistory, no invalid entries.
type TrackHistory []Track

// NewTrackHistory filters raw feed entries down to a well-formed history:
// invalid (both-empty) entries are dropped before storage and at most the
// first MaxTrackHistory survivors are kept, preserving upstream order
// (assumed most-recent-first).
func NewTrackHistory(raw []Track) TrackHistory {
	history := make(TrackHistory, 0, MaxTrackHistory)
	for _, t := range raw {
		if !t.Valid() {
			continue
		}
		history = append(history, t)
		if len(history) == MaxTrackHistory {
			break
		}
	}
	return history
}

// Current returns the most recent track, if any.
func (h TrackHistory) Current() (Track, bool) {
	if len(h) == 0 {
		return Track{}, false
	}
	return h[0], true
}
