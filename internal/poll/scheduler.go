// Aircheck - NTS Radio Broadcast Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aircheck

// Package poll runs the per-channel polling cycle: a wall-clock-aligned
// scheduler decides when to wake, upstream fetches run concurrently, and
// a pure reducer folds their results into the published snapshot.
package poll

import "time"

// Interval bounds. Configured values are validated at load time; the
// scheduler clamps again so a hand-constructed interval cannot produce a
// pathological wakeup.
const (
	MinInterval = 30 * time.Second
	MaxInterval = 300 * time.Second

	// minSleep is the floor on any computed sleep so a wakeup landing
	// exactly on a boundary cannot schedule a zero or negative timer.
	minSleep = time.Second
)

// NextWakeup returns the next cycle time: the sooner of the next half-hour
// wall-clock boundary (:00 or :30, when NTS shows change over) and
// now+interval, but never sooner than one second from now.
func NextWakeup(now time.Time, interval time.Duration) time.Time {
	if interval < MinInterval {
		interval = MinInterval
	}
	if interval > MaxInterval {
		interval = MaxInterval
	}

	next := nextBoundary(now)
	if byInterval := now.Add(interval); byInterval.Before(next) {
		next = byInterval
	}
	if floor := now.Add(minSleep); next.Before(floor) {
		next = floor
	}
	return next
}

// nextBoundary returns the first :00 or :30 boundary strictly after now.
func nextBoundary(now time.Time) time.Time {
	truncated := now.Truncate(30 * time.Minute)
	return truncated.Add(30 * time.Minute)
}
