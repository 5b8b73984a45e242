// Aircheck - NTS Radio Broadcast Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aircheck

package config

import "fmt"

// ErrorKind discriminates configuration failures.
type ErrorKind string

const (
	// KindIntervalOutOfRange indicates an update interval outside [30, 300]
	// seconds. The interval is rejected at this boundary, never silently
	// clamped; clamping applies only to internal scheduling math.
	KindIntervalOutOfRange ErrorKind = "interval_out_of_range"

	// KindCredentialsIncomplete indicates only one of email/password was
	// supplied. Credentials are optional but must come as a pair.
	KindCredentialsIncomplete ErrorKind = "credentials_incomplete"

	// KindInvalidValue covers all other invalid settings.
	KindInvalidValue ErrorKind = "invalid_value"
)

// Error is a configuration error surfaced synchronously at load time,
// before any scheduling begins.
type Error struct {
	Kind  ErrorKind
	Field string
	Msg   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s (%s)", e.Field, e.Msg, e.Kind)
}

// Is supports errors.Is matching on the Kind discriminator: a target with
// the same Kind and an empty Field matches any field.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Field == "" || t.Field == e.Field)
}

// ErrIntervalOutOfRange is the errors.Is target for interval violations.
var ErrIntervalOutOfRange = &Error{Kind: KindIntervalOutOfRange}

// ErrCredentialsIncomplete is the errors.Is target for unpaired credentials.
var ErrCredentialsIncomplete = &Error{Kind: KindCredentialsIncomplete}
