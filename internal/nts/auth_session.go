// Aircheck - NTS Radio Broadcast Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aircheck

package nts

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/aircheck/internal/config"
	"github.com/tomtom215/aircheck/internal/logging"
	"github.com/tomtom215/aircheck/internal/metrics"
)

// SessionState is the auth session lifecycle state.
type SessionState int32

const (
	StateLoggedOut SessionState = iota
	StateAuthenticating
	StateActive
	StateRefreshing
)

func (s SessionState) String() string {
	switch s {
	case StateLoggedOut:
		return "logged_out"
	case StateAuthenticating:
		return "authenticating"
	case StateActive:
		return "active"
	case StateRefreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

// refreshSkew is how long before token expiry a refresh is triggered
// proactively, so a token never expires mid-fetch.
const refreshSkew = 60 * time.Second

// AuthSession manages the supporter login against the Firebase identity
// backend: credential login, token caching and transparent renewal.
//
// One AuthSession is process-wide and shared by both channel controllers
// (both channels use the same account). Login and refresh are serialized
// through a single-flight group, so concurrent triggers collapse into one
// in-flight network call whose result all callers observe.
//
// With no credentials configured, the session stays permanently logged out
// and CurrentToken returns an empty token without error; that is a supported
// first-class mode, not a degraded error state.
type AuthSession struct {
	email    string
	password string
	apiKey   string
	authURL  string
	tokenURL string

	httpClient *http.Client
	group      singleflight.Group
	now        func() time.Time

	mu           sync.Mutex // guards the session fields below
	state        SessionState
	token        string
	refreshToken string
	userID       string
	expiry       time.Time
	ineligible   bool
}

// NewAuthSession creates the process-wide session. Credentials may be empty.
func NewAuthSession(cfg config.NTSConfig, creds config.CredentialsConfig) *AuthSession {
	s := &AuthSession{
		email:      creds.Email,
		password:   creds.Password,
		apiKey:     cfg.FirebaseAPIKey,
		authURL:    cfg.AuthURL,
		tokenURL:   cfg.TokenURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		now:        time.Now,
		state:      StateLoggedOut,
	}
	return s
}

// Enabled reports whether credentials were configured at all.
func (s *AuthSession) Enabled() bool {
	return s.email != "" && s.password != ""
}

// State returns the current lifecycle state.
func (s *AuthSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Active reports whether a non-expired session exists right now.
func (s *AuthSession) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateActive && s.now().Before(s.expiry)
}

// UserID returns the backend account ID of the active session, or "".
func (s *AuthSession) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// CurrentToken returns a valid token, transparently logging in or refreshing
// as needed. It returns ("", nil) when the session is disabled (no
// credentials) or the account has been marked ineligible - callers skip the
// track feed in that cycle without treating it as an error.
//
// When the cached token is still comfortably before expiry it is returned
// without any network traffic. Otherwise a single login/refresh attempt is
// made; concurrent callers share that one attempt.
func (s *AuthSession) CurrentToken(ctx context.Context) (string, error) {
	if !s.Enabled() {
		return "", nil
	}

	s.mu.Lock()
	if s.ineligible {
		s.mu.Unlock()
		return "", nil
	}
	if s.state == StateActive && s.now().Add(refreshSkew).Before(s.expiry) {
		token := s.token
		s.mu.Unlock()
		return token, nil
	}
	hasRefresh := s.refreshToken != ""
	s.mu.Unlock()

	// Collapse concurrent login/refresh triggers into one network call.
	result, err, _ := s.group.Do("session", func() (interface{}, error) {
		// Re-check under the group: the winner of a previous race may have
		// already produced a fresh token.
		s.mu.Lock()
		if s.state == StateActive && s.now().Add(refreshSkew).Before(s.expiry) {
			token := s.token
			s.mu.Unlock()
			return token, nil
		}
		s.mu.Unlock()

		// A refresh failure drops the session to LoggedOut and surfaces the
		// error; the next scheduled cycle performs a fresh login instead of
		// looping refresh attempts here.
		if hasRefresh {
			return s.refresh(ctx)
		}
		return s.login(ctx)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// Invalidate drops the session to LoggedOut, discarding both tokens. Used
// when the track feed rejects the token: the next cycle performs a fresh
// login.
func (s *AuthSession) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateLoggedOut
	s.token = ""
	s.refreshToken = ""
	s.expiry = time.Time{}
	metrics.AuthSessionActive.Set(0)
	logging.Info().Msg("auth session invalidated")
}

// MarkIneligible permanently disables authenticated fetches for this
// credential set (supporter-only data denied). Schedule polling continues;
// track polling stops until reconfiguration.
func (s *AuthSession) MarkIneligible() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ineligible = true
	s.state = StateLoggedOut
	s.token = ""
	s.refreshToken = ""
	metrics.AuthSessionActive.Set(0)
	logging.Warn().Msg("account not eligible for track data, disabling authenticated mode")
}

// login performs one credential login. On success the session becomes
// Active; on failure it returns to LoggedOut with a typed *AuthError.
func (s *AuthSession) login(ctx context.Context) (string, error) {
	s.setState(StateAuthenticating)

	body, err := json.Marshal(map[string]any{
		"email":             s.email,
		"password":          s.password,
		"returnSecureToken": true,
	})
	if err != nil {
		s.setState(StateLoggedOut)
		return "", &AuthError{Kind: AuthUnreachable, Err: err}
	}

	url := fmt.Sprintf("%s?key=%s", s.authURL, s.apiKey)
	resp, err := s.post(ctx, url, body)
	if err != nil {
		s.setState(StateLoggedOut)
		metrics.AuthAttempts.WithLabelValues("login", "error").Inc()
		return "", &AuthError{Kind: AuthUnreachable, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		authErr := decodeLoginError(resp)
		s.setState(StateLoggedOut)
		metrics.AuthAttempts.WithLabelValues("login", "error").Inc()
		logging.Warn().Str("kind", string(authErr.Kind)).Str("reason", authErr.Msg).Msg("login failed")
		return "", authErr
	}

	var payload struct {
		IDToken      string `json:"idToken"`
		RefreshToken string `json:"refreshToken"`
		LocalID      string `json:"localId"`
		ExpiresIn    string `json:"expiresIn"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		s.setState(StateLoggedOut)
		metrics.AuthAttempts.WithLabelValues("login", "error").Inc()
		return "", &AuthError{Kind: AuthUnreachable, Msg: "undecodable login response", Err: err}
	}

	s.storeSession(payload.IDToken, payload.RefreshToken, payload.LocalID, payload.ExpiresIn)
	metrics.AuthAttempts.WithLabelValues("login", "success").Inc()
	logging.Info().Msg("authenticated with NTS")
	return payload.IDToken, nil
}

// refresh exchanges the refresh token for a new ID token. On failure the
// session drops to LoggedOut so the next cycle attempts a fresh login.
func (s *AuthSession) refresh(ctx context.Context) (string, error) {
	s.setState(StateRefreshing)

	s.mu.Lock()
	refreshToken := s.refreshToken
	s.mu.Unlock()

	body, err := json.Marshal(map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
	})
	if err != nil {
		s.Invalidate()
		return "", &AuthError{Kind: AuthUnreachable, Err: err}
	}

	url := fmt.Sprintf("%s?key=%s", s.tokenURL, s.apiKey)
	resp, err := s.post(ctx, url, body)
	if err != nil {
		s.Invalidate()
		metrics.AuthAttempts.WithLabelValues("refresh", "error").Inc()
		return "", &AuthError{Kind: AuthUnreachable, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.Invalidate()
		metrics.AuthAttempts.WithLabelValues("refresh", "error").Inc()
		logging.Warn().Int("status", resp.StatusCode).Msg("token refresh failed")
		return "", &AuthError{Kind: InvalidCredentials, Msg: "refresh token rejected"}
	}

	var payload struct {
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		UserID       string `json:"user_id"`
		ExpiresIn    string `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		s.Invalidate()
		metrics.AuthAttempts.WithLabelValues("refresh", "error").Inc()
		return "", &AuthError{Kind: AuthUnreachable, Msg: "undecodable refresh response", Err: err}
	}
	if payload.RefreshToken == "" {
		payload.RefreshToken = refreshToken
	}

	s.storeSession(payload.IDToken, payload.RefreshToken, payload.UserID, payload.ExpiresIn)
	metrics.AuthAttempts.WithLabelValues("refresh", "success").Inc()
	logging.Debug().Msg("auth token refreshed")
	return payload.IDToken, nil
}

func (s *AuthSession) post(ctx context.Context, url string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return s.httpClient.Do(req)
}

// storeSession records a successful login/refresh result and computes the
// effective expiry: the earlier of now+expiresIn and the ID token's own exp
// claim. The token is parsed unverified - we are its audience, not its
// verifier.
func (s *AuthSession) storeSession(token, refreshToken, userID, expiresIn string) {
	expiry := s.now().Add(time.Hour)
	if secs, err := strconv.Atoi(expiresIn); err == nil && secs > 0 {
		expiry = s.now().Add(time.Duration(secs) * time.Second)
	}
	if claimExp, ok := tokenExpiry(token); ok && claimExp.Before(expiry) {
		expiry = claimExp
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateActive
	s.token = token
	s.refreshToken = refreshToken
	if userID != "" {
		s.userID = userID
	}
	s.expiry = expiry
	metrics.AuthSessionActive.Set(1)
}

func (s *AuthSession) setState(state SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// tokenExpiry extracts the exp claim from a Firebase ID token.
func tokenExpiry(token string) (time.Time, bool) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// decodeLoginError maps the identity backend's error strings onto the auth
// taxonomy.
func decodeLoginError(resp *http.Response) *AuthError {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return &AuthError{Kind: AuthUnreachable, Msg: fmt.Sprintf("status %d", resp.StatusCode)}
	}

	msg := payload.Error.Message
	switch msg {
	case "INVALID_EMAIL", "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS":
		return &AuthError{Kind: InvalidCredentials, Msg: msg}
	case "USER_DISABLED":
		return &AuthError{Kind: AccountNotEligible, Msg: msg}
	default:
		if resp.StatusCode >= 500 {
			return &AuthError{Kind: AuthUnreachable, Msg: msg}
		}
		return &AuthError{Kind: InvalidCredentials, Msg: msg}
	}
}
