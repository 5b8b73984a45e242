// Aircheck - NTS Radio Broadcast Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aircheck

package models

// Favourite is a show the authenticated account has marked on nts.live.
// The alias is the stable identifier the live schedule also carries, so
// a snapshot's current show can be matched against the favourites set
// without further lookups.
type Favourite struct {
	Alias string `json:"alias"`
	Title string `json:"title"`
}
