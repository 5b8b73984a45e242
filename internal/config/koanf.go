// Aircheck - NTS Radio Broadcast Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aircheck

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/aircheck/config.yaml",
	"/etc/aircheck/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config
// file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values. These are applied
// first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Poll: PollConfig{
			UpdateIntervalSeconds: 60,
		},
		Credentials: CredentialsConfig{
			Email:    "",
			Password: "",
		},
		NTS: NTSConfig{
			LiveURL:           "https://www.nts.live/api/v2/live",
			AuthURL:           "https://identitytoolkit.googleapis.com/v1/accounts:signInWithPassword",
			TokenURL:          "https://securetoken.googleapis.com/v1/token",
			FirestoreURL:      "https://firestore.googleapis.com/v1/projects/%s/databases/(default)/documents",
			FirebaseAPIKey:    "",
			FirebaseProjectID: "",
			Timeout:           10 * time.Second,
		},
		Favourites: FavouritesConfig{
			Enabled:  false,
			Interval: 5 * time.Minute,
		},
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8246,
			Timeout: 30 * time.Second,
		},
		API: APIConfig{
			CORSOrigins:       []string{},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML file (if present)
//  3. Environment variables: override any setting
//
// Validation failures (including an out-of-range update interval) are
// returned synchronously, before any scheduling begins.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Comma-separated env strings become slices for known slice fields.
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path of the first file found, or "" when none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths defines which config paths are parsed as comma-separated
// slices when they arrive as env strings.
var sliceConfigPaths = []string{
	"api.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars come in as strings but the config expects
// slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables are skipped so random environment noise cannot pollute
// the configuration.
func envTransformFunc(key string) string {
	envMappings := map[string]string{
		"UPDATE_INTERVAL": "poll.update_interval_seconds",

		"NTS_EMAIL":    "credentials.email",
		"NTS_PASSWORD": "credentials.password",

		"NTS_LIVE_URL":            "nts.live_url",
		"NTS_AUTH_URL":            "nts.auth_url",
		"NTS_TOKEN_URL":           "nts.token_url",
		"NTS_FIRESTORE_URL":       "nts.firestore_url",
		"NTS_FIREBASE_API_KEY":    "nts.firebase_api_key",
		"NTS_FIREBASE_PROJECT_ID": "nts.firebase_project_id",
		"NTS_TIMEOUT":             "nts.timeout",

		"FAVOURITES_ENABLED":  "favourites.enabled",
		"FAVOURITES_INTERVAL": "favourites.interval",

		"HTTP_HOST":    "server.host",
		"HTTP_PORT":    "server.port",
		"HTTP_TIMEOUT": "server.timeout",

		"CORS_ORIGINS":       "api.cors_origins",
		"RATE_LIMIT_REQS":    "api.rate_limit_reqs",
		"RATE_LIMIT_WINDOW":  "api.rate_limit_window",
		"DISABLE_RATE_LIMIT": "api.rate_limit_disabled",

		"LOG_LEVEL":  "logging.level",
		"LOG_FORMAT": "logging.format",
		"LOG_CALLER": "logging.caller",
	}

	if mapped, ok := envMappings[strings.ToUpper(key)]; ok {
		return mapped
	}
	return ""
}
