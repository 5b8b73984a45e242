// Aircheck - NTS Radio Broadcast Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aircheck

package models

import (
	"strings"
	"time"
)

// NoUpcomingShow is the sentinel next-show value for a gap in the schedule.
const NoUpcomingShow = "No upcoming show"

// Projection is a host-facing read: a single typed value plus an attribute
// bag whose shape depends on the projection. Projections are computed on
// read from a snapshot, never stored.
type Projection struct {
	Value      string `json:"value"`
	Attributes any    `json:"attributes"`
}

// NowPlayingAttrs is the attribute bag of the now-playing projection. It
// mirrors the current show's metadata regardless of whether the value renders
// a track or the show name.
type NowPlayingAttrs struct {
	ShowName      string       `json:"show_name"`
	Description   string       `json:"description"`
	Location      string       `json:"location"`
	Genres        string       `json:"genres"`
	StartTime     time.Time    `json:"start_time"`
	EndTime       time.Time    `json:"end_time"`
	ImageURL      string       `json:"image_url,omitempty"`
	IsReplay      bool         `json:"is_replay"`
	Authenticated bool         `json:"authenticated"`
	RecentTracks  TrackHistory `json:"recent_tracks,omitempty"`
}

// NextShowAttrs is the attribute bag of the next-show projection.
type NextShowAttrs struct {
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	ImageURL  string     `json:"image_url,omitempty"`
	IsReplay  bool       `json:"is_replay"`
}

// TrackInfo is the track variant of the track-id projection's attribute bag.
type TrackInfo struct {
	Artist            string    `json:"artist"`
	Title             string    `json:"title"`
	StartTime         time.Time `json:"start_time"`
	TrackNumber       int       `json:"track_number"`
	TotalRecentTracks int       `json:"total_recent_tracks"`
}

// ShowInfo is the show-fallback variant of the track-id projection's
// attribute bag, used whenever no track is identified.
type ShowInfo struct {
	InfoType string `json:"info_type"`
	ShowName string `json:"show_name"`
}

// TrackID is a tagged union over {TrackInfo, ShowInfo}: exactly one of Track
// and Show is set, fixing the attribute shape of each variant in the type
// system instead of branching over a loose attribute map.
type TrackID struct {
	Value string
	Track *TrackInfo
	Show  *ShowInfo
}

// Projection flattens the union into the host-facing value + attribute form.
func (t TrackID) Projection() Projection {
	if t.Track != nil {
		return Projection{Value: t.Value, Attributes: t.Track}
	}
	return Projection{Value: t.Value, Attributes: t.Show}
}

// NowPlaying derives the now-playing projection: the current track's display
// string when the session is authenticated and track history is non-empty,
// otherwise the current show's name.
func (s *ChannelSnapshot) NowPlaying() Projection {
	value := s.CurrentShow.Name
	if s.Authenticated {
		if track, ok := s.TrackHistory.Current(); ok {
			value = track.Display()
		}
	}
	return Projection{Value: value, Attributes: s.nowPlayingAttrs()}
}

func (s *ChannelSnapshot) nowPlayingAttrs() NowPlayingAttrs {
	return NowPlayingAttrs{
		ShowName:      s.CurrentShow.Name,
		Description:   s.CurrentShow.Description,
		Location:      s.CurrentShow.Location,
		Genres:        strings.Join(s.CurrentShow.Genres, ", "),
		StartTime:     s.CurrentShow.StartTime,
		EndTime:       s.CurrentShow.EndTime,
		ImageURL:      s.CurrentShow.ImageURL,
		IsReplay:      s.CurrentShow.IsReplay,
		Authenticated: s.Authenticated,
		RecentTracks:  s.TrackHistory,
	}
}

// NextShowProjection derives the next-show projection, with a sentinel value
// for an unscheduled gap.
func (s *ChannelSnapshot) NextShowProjection() Projection {
	if s.NextShow == nil {
		return Projection{Value: NoUpcomingShow, Attributes: NextShowAttrs{}}
	}
	next := s.NextShow
	return Projection{
		Value: next.Name,
		Attributes: NextShowAttrs{
			StartTime: &next.StartTime,
			EndTime:   &next.EndTime,
			ImageURL:  next.ImageURL,
			IsReplay:  next.IsReplay,
		},
	}
}

// TrackIdentifier derives the track-id projection. This is the one place the
// two upstream feeds visibly diverge in presentation: with track history the
// value and attributes describe the most recent track; without it the value
// falls back to the show name and the attribute bag switches to the ShowInfo
// shape. Unlike NowPlaying, the track renders whenever history is present,
// independent of the current authenticated flag.
func (s *ChannelSnapshot) TrackIdentifier() TrackID {
	if track, ok := s.TrackHistory.Current(); ok {
		return TrackID{
			Value: track.Display(),
			Track: &TrackInfo{
				Artist:            track.Artist,
				Title:             track.Title,
				StartTime:         track.PlayedAt,
				TrackNumber:       1,
				TotalRecentTracks: len(s.TrackHistory),
			},
		}
	}
	return TrackID{
		Value: s.CurrentShow.Name,
		Show: &ShowInfo{
			InfoType: "show",
			ShowName: s.CurrentShow.Name,
		},
	}
}
