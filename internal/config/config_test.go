// Aircheck - NTS Radio Broadcast Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aircheck

package config

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	if cfg.Poll.UpdateIntervalSeconds != 60 {
		t.Errorf("update interval = %d", cfg.Poll.UpdateIntervalSeconds)
	}
	if got := cfg.Poll.UpdateInterval(); got != time.Minute {
		t.Errorf("UpdateInterval() = %v", got)
	}
	if cfg.Credentials.Present() {
		t.Error("default config should carry no credentials")
	}
	if cfg.Server.Port != 8246 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	withCreds := func(mutate func(*Config)) *Config {
		cfg := defaultConfig()
		cfg.Credentials = CredentialsConfig{Email: "listener@example.com", Password: "hunter2"}
		cfg.NTS.FirebaseAPIKey = "key"
		cfg.NTS.FirebaseProjectID = "project"
		if mutate != nil {
			mutate(cfg)
		}
		return cfg
	}

	checks := []struct {
		name    string
		cfg     *Config
		wantErr error
	}{
		{
			name: "interval too low",
			cfg: func() *Config {
				cfg := defaultConfig()
				cfg.Poll.UpdateIntervalSeconds = 10
				return cfg
			}(),
			wantErr: ErrIntervalOutOfRange,
		},
		{
			name: "interval too high",
			cfg: func() *Config {
				cfg := defaultConfig()
				cfg.Poll.UpdateIntervalSeconds = 600
				return cfg
			}(),
			wantErr: ErrIntervalOutOfRange,
		},
		{
			name: "email without password",
			cfg: func() *Config {
				cfg := defaultConfig()
				cfg.Credentials.Email = "listener@example.com"
				return cfg
			}(),
			wantErr: ErrCredentialsIncomplete,
		},
		{
			name: "password without email",
			cfg: func() *Config {
				cfg := defaultConfig()
				cfg.Credentials.Password = "hunter2"
				return cfg
			}(),
			wantErr: ErrCredentialsIncomplete,
		},
		{
			name: "credentials without api key",
			cfg: withCreds(func(cfg *Config) {
				cfg.NTS.FirebaseAPIKey = ""
			}),
			wantErr: &Error{Kind: KindInvalidValue, Field: "nts.firebase_api_key"},
		},
		{
			name: "credentials without project id",
			cfg: withCreds(func(cfg *Config) {
				cfg.NTS.FirebaseProjectID = ""
			}),
			wantErr: &Error{Kind: KindInvalidValue, Field: "nts.firebase_project_id"},
		},
		{
			name: "favourites without credentials",
			cfg: func() *Config {
				cfg := defaultConfig()
				cfg.Favourites.Enabled = true
				return cfg
			}(),
			wantErr: &Error{Kind: KindInvalidValue, Field: "favourites.enabled"},
		},
		{
			name: "invalid log level",
			cfg: func() *Config {
				cfg := defaultConfig()
				cfg.Logging.Level = "verbose"
				return cfg
			}(),
			wantErr: &Error{Kind: KindInvalidValue},
		},
		{
			name: "port out of range",
			cfg: func() *Config {
				cfg := defaultConfig()
				cfg.Server.Port = 0
				return cfg
			}(),
			wantErr: &Error{Kind: KindInvalidValue},
		},
		{
			name:    "complete authenticated config",
			cfg:     withCreds(nil),
			wantErr: nil,
		},
		{
			name: "favourites with credentials",
			cfg: withCreds(func(cfg *Config) {
				cfg.Favourites.Enabled = true
			}),
			wantErr: nil,
		},
	}

	for _, check := range checks {
		t.Run(check.name, func(t *testing.T) {
			t.Parallel()

			err := check.cfg.Validate()
			if check.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, check.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, check.wantErr)
			}
		})
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("UPDATE_INTERVAL", "120")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Poll.UpdateIntervalSeconds != 120 {
		t.Errorf("update interval = %d, want 120", cfg.Poll.UpdateIntervalSeconds)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q", cfg.Logging.Level)
	}
	if len(cfg.API.CORSOrigins) != 2 || cfg.API.CORSOrigins[0] != "https://a.example" {
		t.Errorf("cors origins = %v", cfg.API.CORSOrigins)
	}
}

func TestLoadRejectsInvalidEnv(t *testing.T) {
	t.Setenv("UPDATE_INTERVAL", "5")

	_, err := Load()
	if !errors.Is(err, ErrIntervalOutOfRange) {
		t.Errorf("Load() error = %v, want %v", err, ErrIntervalOutOfRange)
	}
}

func TestEnvTransformFuncIgnoresUnknownVariables(t *testing.T) {
	t.Parallel()

	checks := []struct {
		key  string
		want string
	}{
		{"NTS_EMAIL", "credentials.email"},
		{"nts_email", "credentials.email"},
		{"FAVOURITES_ENABLED", "favourites.enabled"},
		{"PATH", ""},
		{"HOME", ""},
	}
	for _, check := range checks {
		if got := envTransformFunc(check.key); got != check.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", check.key, got, check.want)
		}
	}
}
