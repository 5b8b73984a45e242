// Aircheck - NTS Radio Broadcast Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aircheck

package nts

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/aircheck/internal/config"
)

func newFavouritesTestClient(srv *httptest.Server) *FavouritesClient {
	return NewFavouritesClient(config.NTSConfig{
		FirestoreURL:      srv.URL + "/v1/projects/%s/databases/(default)/documents",
		FirebaseProjectID: "nts-test",
		Timeout:           5 * time.Second,
	})
}

func TestFavouritesClient_Fetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer id-token-1" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.URL.Path; got != "/v1/projects/nts-test/databases/(default)/documents/users/uid-1/favourites" {
			t.Errorf("path = %q", got)
		}
		_, _ = w.Write([]byte(`{
			"documents": [
				{"fields": {"show_alias": {"stringValue": "late-junction"}, "show_title": {"stringValue": "Late Junction"}}},
				{"fields": {"show_alias": {"stringValue": "do-you"}}},
				{"fields": {"show_title": {"stringValue": "Orphaned Title"}}}
			]
		}`))
	}))
	defer srv.Close()

	client := newFavouritesTestClient(srv)
	favs, err := client.Fetch(context.Background(), "uid-1", "id-token-1")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(favs) != 2 {
		t.Fatalf("favs len = %d, want 2 (aliasless document skipped)", len(favs))
	}
	if favs[0].Alias != "late-junction" || favs[0].Title != "Late Junction" {
		t.Errorf("favs[0] = %+v", favs[0])
	}
	if favs[1].Alias != "do-you" || favs[1].Title != "do-you" {
		t.Errorf("favs[1] = %+v, want title falling back to alias", favs[1])
	}
}

func TestFavouritesClient_FetchPaginates(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("pageToken") {
		case "":
			_, _ = w.Write([]byte(`{
				"documents": [{"fields": {"show_alias": {"stringValue": "page-one"}}}],
				"nextPageToken": "tok-2"
			}`))
		case "tok-2":
			_, _ = w.Write([]byte(`{
				"documents": [{"fields": {"show_alias": {"stringValue": "page-two"}}}]
			}`))
		default:
			t.Errorf("unexpected pageToken %q", r.URL.Query().Get("pageToken"))
		}
	}))
	defer srv.Close()

	client := newFavouritesTestClient(srv)
	favs, err := client.Fetch(context.Background(), "uid-1", "id-token-1")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(favs) != 2 || favs[0].Alias != "page-one" || favs[1].Alias != "page-two" {
		t.Errorf("favs = %+v, want both pages in order", favs)
	}
}

func TestFavouritesClient_FetchErrors(t *testing.T) {
	t.Parallel()

	checks := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"token rejected", http.StatusUnauthorized, ErrTokenRejected},
		{"not eligible", http.StatusForbidden, ErrNotEligible},
		{"server error", http.StatusInternalServerError, ErrUnreachable},
	}

	for _, check := range checks {
		t.Run(check.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(check.status)
			}))
			defer srv.Close()

			client := newFavouritesTestClient(srv)
			_, err := client.Fetch(context.Background(), "uid-1", "id-token-1")
			if !errors.Is(err, check.wantErr) {
				t.Errorf("Fetch() error = %v, want %v", err, check.wantErr)
			}
		})
	}
}
