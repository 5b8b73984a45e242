// Aircheck - NTS Radio Broadcast Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aircheck

package websocket

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/tomtom215/aircheck/internal/logging"
	"github.com/tomtom215/aircheck/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

type fakeSnapshots struct {
	byChannel map[models.Channel]*models.ChannelSnapshot
}

func (f *fakeSnapshots) Snapshot(channel models.Channel) (*models.ChannelSnapshot, bool) {
	snap, ok := f.byChannel[channel]
	return snap, ok
}

// newTestClient builds a client that is never started; tests read its send
// channel directly instead of running the pumps.
func newTestClient(buffer int) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		send: make(chan Message, buffer),
	}
}

// runHub starts the hub loop and returns a stop function that cancels it
// and waits for RunWithContext to return.
func runHub(t *testing.T, hub *Hub) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- hub.RunWithContext(ctx)
	}()
	return func() {
		cancel()
		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("RunWithContext returned %v, want context.Canceled", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("hub did not stop after cancel")
		}
	}
}

func waitForClientCount(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for hub.GetClientCount() != want {
		select {
		case <-deadline:
			t.Fatalf("client count = %d, want %d", hub.GetClientCount(), want)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestHub_RegisterSeedsSnapshots(t *testing.T) {
	t.Parallel()

	snap := &models.ChannelSnapshot{
		Channel:     models.Channel1,
		Initialized: true,
		CurrentShow: models.Show{Name: "Charlie Bones"},
	}
	hub := NewHub(&fakeSnapshots{byChannel: map[models.Channel]*models.ChannelSnapshot{
		models.Channel1: snap,
	}})
	stop := runHub(t, hub)
	defer stop()

	client := newTestClient(8)
	hub.Register <- client
	waitForClientCount(t, hub, 1)

	select {
	case msg := <-client.send:
		if msg.Type != MessageTypeSnapshot {
			t.Errorf("message type = %q", msg.Type)
		}
		got, ok := msg.Data.(*models.ChannelSnapshot)
		if !ok {
			t.Fatalf("message data = %T", msg.Data)
		}
		if got.CurrentShow.Name != "Charlie Bones" {
			t.Errorf("seeded show = %q", got.CurrentShow.Name)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no initial snapshot delivered")
	}

	// Channel 2 has no snapshot, so exactly one message is seeded.
	select {
	case msg := <-client.send:
		t.Errorf("unexpected second message %+v", msg)
	default:
	}
}

func TestHub_BroadcastReachesAllClients(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil)
	stop := runHub(t, hub)
	defer stop()

	first := newTestClient(8)
	second := newTestClient(8)
	hub.Register <- first
	hub.Register <- second
	waitForClientCount(t, hub, 2)

	hub.BroadcastSnapshot(&models.ChannelSnapshot{
		Channel:     models.Channel1,
		Initialized: true,
	})

	for _, client := range []*Client{first, second} {
		select {
		case msg := <-client.send:
			if msg.Type != MessageTypeSnapshot {
				t.Errorf("message type = %q", msg.Type)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("broadcast not delivered")
		}
	}
}

func TestHub_UnregisterStopsDelivery(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil)
	stop := runHub(t, hub)
	defer stop()

	client := newTestClient(8)
	hub.Register <- client
	waitForClientCount(t, hub, 1)

	hub.Unregister <- client
	waitForClientCount(t, hub, 0)

	// The hub closes the send channel on unregister.
	select {
	case _, open := <-client.send:
		if open {
			t.Error("send channel still open after unregister")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("send channel not closed")
	}
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil)
	stop := runHub(t, hub)
	defer stop()

	slow := newTestClient(1)
	healthy := newTestClient(8)
	hub.Register <- slow
	hub.Register <- healthy
	waitForClientCount(t, hub, 2)

	// Fill the slow client's buffer, then broadcast once more; the second
	// delivery cannot be buffered and evicts the client.
	slow.send <- Message{Type: MessageTypePing}
	hub.BroadcastSnapshot(&models.ChannelSnapshot{Channel: models.Channel1})
	waitForClientCount(t, hub, 1)

	select {
	case msg := <-healthy.send:
		if msg.Type != MessageTypeSnapshot {
			t.Errorf("message type = %q", msg.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("healthy client missed the broadcast")
	}
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil)
	stop := runHub(t, hub)

	client := newTestClient(8)
	hub.Register <- client
	waitForClientCount(t, hub, 1)

	stop()

	if got := hub.GetClientCount(); got != 0 {
		t.Errorf("client count after shutdown = %d", got)
	}
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-client.send:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("send channel not closed on shutdown")
		}
	}
}

func TestHub_BroadcastBufferFullDropsMessage(t *testing.T) {
	t.Parallel()

	// No hub loop running, so the broadcast buffer fills without draining;
	// the overflow message must be dropped without blocking.
	hub := NewHub(nil)
	for range cap(hub.broadcast) + 10 {
		hub.BroadcastSnapshot(&models.ChannelSnapshot{Channel: models.Channel1})
	}
}
