// Aircheck - NTS Radio Broadcast Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aircheck

// Package config loads and validates Aircheck configuration via Koanf v2
// with layered sources: built-in defaults, an optional YAML file, and
// environment variables (highest priority).
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root application configuration.
type Config struct {
	Poll        PollConfig        `koanf:"poll"`
	Credentials CredentialsConfig `koanf:"credentials"`
	NTS         NTSConfig         `koanf:"nts"`
	Favourites  FavouritesConfig  `koanf:"favourites"`
	Server      ServerConfig      `koanf:"server"`
	API         APIConfig         `koanf:"api"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// PollConfig controls the per-channel refresh cadence.
type PollConfig struct {
	// UpdateIntervalSeconds is the user-configured poll interval. Must be
	// within [30, 300]; out-of-range values are a configuration error.
	UpdateIntervalSeconds int `koanf:"update_interval_seconds"`
}

// UpdateInterval returns the poll interval as a duration.
func (p PollConfig) UpdateInterval() time.Duration {
	return time.Duration(p.UpdateIntervalSeconds) * time.Second
}

// CredentialsConfig holds the optional NTS supporter account. Presence of
// both fields enables authenticated mode (track identification, favourites);
// leaving them empty runs the engine permanently unauthenticated, which is a
// supported first-class mode.
type CredentialsConfig struct {
	Email    string `koanf:"email" validate:"omitempty,email"`
	Password string `koanf:"password"`
}

// Present reports whether a complete credential pair was supplied.
func (c CredentialsConfig) Present() bool {
	return c.Email != "" && c.Password != ""
}

// NTSConfig points at the upstream endpoints. The defaults match the public
// NTS live API and the Google identity/Firestore REST backends; tests
// override them with httptest servers.
type NTSConfig struct {
	LiveURL           string        `koanf:"live_url" validate:"required,url"`
	AuthURL           string        `koanf:"auth_url" validate:"required,url"`
	TokenURL          string        `koanf:"token_url" validate:"required,url"`
	// FirestoreURL carries a %s placeholder for the project ID, so it is
	// not URL-parseable as configured and only checked for presence.
	FirestoreURL      string        `koanf:"firestore_url" validate:"required"`
	FirebaseAPIKey    string        `koanf:"firebase_api_key"`
	FirebaseProjectID string        `koanf:"firebase_project_id"`
	Timeout           time.Duration `koanf:"timeout" validate:"gt=0"`
}

// FavouritesConfig controls the favourite-shows poller. It only takes effect
// in authenticated mode.
type FavouritesConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval" validate:"gte=1m"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host" validate:"required"`
	Port    int           `koanf:"port" validate:"gte=1,lte=65535"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

// APIConfig holds host-facing API middleware settings.
type APIConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs" validate:"gte=1"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// validate is the process-wide validator instance. validator/v10 caches
// struct metadata, so a single instance is reused for all checks.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration and returns a *config.Error describing
// the first violation. The update interval and credential pairing rules are
// checked explicitly so they surface with their spec'd error kinds; the rest
// runs through validator struct tags.
func (c *Config) Validate() error {
	if c.Poll.UpdateIntervalSeconds < 30 || c.Poll.UpdateIntervalSeconds > 300 {
		return &Error{
			Kind:  KindIntervalOutOfRange,
			Field: "poll.update_interval_seconds",
			Msg:   "must be between 30 and 300 seconds",
		}
	}

	if (c.Credentials.Email == "") != (c.Credentials.Password == "") {
		return &Error{
			Kind:  KindCredentialsIncomplete,
			Field: "credentials",
			Msg:   "email and password must be supplied together",
		}
	}

	if c.Credentials.Present() {
		if c.NTS.FirebaseAPIKey == "" {
			return &Error{
				Kind:  KindInvalidValue,
				Field: "nts.firebase_api_key",
				Msg:   "required when credentials are configured",
			}
		}
		if c.NTS.FirebaseProjectID == "" {
			return &Error{
				Kind:  KindInvalidValue,
				Field: "nts.firebase_project_id",
				Msg:   "required when credentials are configured",
			}
		}
	}

	if c.Favourites.Enabled && !c.Credentials.Present() {
		return &Error{
			Kind:  KindInvalidValue,
			Field: "favourites.enabled",
			Msg:   "favourites require credentials",
		}
	}

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return &Error{
				Kind:  KindInvalidValue,
				Field: strings.ToLower(first.Namespace()),
				Msg:   "failed validation rule " + first.Tag(),
			}
		}
		return &Error{Kind: KindInvalidValue, Field: "config", Msg: err.Error()}
	}

	return nil
}
