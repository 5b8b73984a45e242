// Aircheck - NTS Radio Broadcast Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aircheck

package models

import "time"

// Show is one scheduled broadcast segment. Shows are immutable once fetched;
// identity is (channel, start time). A broadcast title ending in " (R)" marks
// a replay; the suffix is stripped into IsReplay at the client boundary, so
// Name never carries the marker.
type Show struct {
	Name        string    `json:"name"`
	Alias       string    `json:"alias,omitempty"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Genres      []string  `json:"genres"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	ImageURL    string    `json:"image_url,omitempty"`
	IsReplay    bool      `json:"is_replay"`
}

// Airing reports whether the show's scheduled slot covers the given instant.
// Best-effort only: upstream can report a stale or gapped schedule.
func (s Show) Airing(now time.Time) bool {
	return !s.StartTime.After(now) && now.Before(s.EndTime)
}
