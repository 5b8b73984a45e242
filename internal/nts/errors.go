// Aircheck - NTS Radio Broadcast Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aircheck

package nts

import (
	"errors"
	"fmt"
)

// UpstreamErrorKind discriminates failures of the public data feeds.
type UpstreamErrorKind string

const (
	// Unreachable covers network failures, timeouts, non-2xx responses and
	// an open circuit breaker.
	Unreachable UpstreamErrorKind = "unreachable"

	// MalformedResponse covers payloads that cannot be parsed into domain
	// types.
	MalformedResponse UpstreamErrorKind = "malformed_response"
)

// UpstreamError is a failed schedule, track or favourites fetch.
type UpstreamError struct {
	Kind   UpstreamErrorKind
	Source string // "schedule", "tracks", "favourites"
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("nts: %s fetch %s: %v", e.Source, e.Kind, e.Err)
	}
	return fmt.Sprintf("nts: %s fetch %s", e.Source, e.Kind)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is matches on Kind; a target with an empty Source matches any source.
func (e *UpstreamError) Is(target error) bool {
	t, ok := target.(*UpstreamError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Source == "" || t.Source == e.Source)
}

// errors.Is targets for the two upstream failure kinds.
var (
	ErrUnreachable       = &UpstreamError{Kind: Unreachable}
	ErrMalformedResponse = &UpstreamError{Kind: MalformedResponse}
)

func unreachable(source string, err error) *UpstreamError {
	return &UpstreamError{Kind: Unreachable, Source: source, Err: err}
}

func malformed(source string, err error) *UpstreamError {
	return &UpstreamError{Kind: MalformedResponse, Source: source, Err: err}
}

// AuthErrorKind discriminates identity-backend failures.
type AuthErrorKind string

const (
	// InvalidCredentials covers bad email/password and rejected login
	// attempts.
	InvalidCredentials AuthErrorKind = "invalid_credentials"

	// AccountNotEligible means the account exists but lacks supporter
	// access to track data.
	AccountNotEligible AuthErrorKind = "account_not_eligible"

	// AuthUnreachable covers network failures against the identity backend.
	AuthUnreachable AuthErrorKind = "unreachable"
)

// AuthError is a failed login or token refresh.
type AuthError struct {
	Kind AuthErrorKind
	Msg  string
	Err  error
}

func (e *AuthError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("nts: auth %s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("nts: auth %s", e.Kind)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is matches on Kind.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// errors.Is targets for the auth failure kinds.
var (
	ErrInvalidCredentials = &AuthError{Kind: InvalidCredentials}
	ErrAccountNotEligible = &AuthError{Kind: AccountNotEligible}
	ErrAuthUnreachable    = &AuthError{Kind: AuthUnreachable}
)

// Sentinels surfaced by the track feed so the controller can react to the
// session rather than to the fetch: a rejected token forces a fresh login on
// the next cycle, a forbidden response marks the account ineligible and
// stops track polling until reconfiguration.
var (
	ErrTokenRejected = errors.New("nts: track feed rejected token")
	ErrNotEligible   = errors.New("nts: account not eligible for track data")
)
