package ws

import (
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/catalogd/catalogd/internal/diff"
)

func TestNewHub(t *testing.T) {
	hub := NewHub(slog.Default())
	if hub == nil {
		t.Fatal("NewHub returned nil")
	}
	if hub.clients == nil {
		t.Error("clients map not initialized")
	}
	if hub.broadcast == nil {
		t.Error("broadcast channel not initialized")
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())
	go hub.Run()

	client := &Client{hub: hub, send: make(chan []byte, 256)}

	hub.register <- client
	time.Sleep(50 * time.Millisecond)
	if got := hub.ClientCount(); got != 1 {
		t.Errorf("after register: ClientCount() = %d, want 1", got)
	}

	hub.unregister <- client
	time.Sleep(50 * time.Millisecond)
	if got := hub.ClientCount(); got != 0 {
		t.Errorf("after unregister: ClientCount() = %d, want 0", got)
	}
}

func TestSyncEventsReachClients(t *testing.T) {
	hub := NewHub(slog.Default())
	go hub.Run()

	client := &Client{hub: hub, send: make(chan []byte, 256)}
	hub.register <- client
	time.Sleep(50 * time.Millisecond)

	hub.SyncStarted("acme")

	select {
	case data := <-client.send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("bad message: %v", err)
		}
		if msg.Type != MsgSyncStarted {
			t.Errorf("type = %q, want %q", msg.Type, MsgSyncStarted)
		}
		var payload map[string]string
		json.Unmarshal(msg.Payload, &payload)
		if payload["tenant"] != "acme" {
			t.Errorf("tenant = %q", payload["tenant"])
		}
	case <-time.After(time.Second):
		t.Error("client did not receive sync event")
	}
}

func TestDriftEventCarriesReport(t *testing.T) {
	hub := NewHub(slog.Default())
	go hub.Run()

	client := &Client{hub: hub, send: make(chan []byte, 256)}
	hub.register <- client
	time.Sleep(50 * time.Millisecond)

	report := &diff.Report{
		Changed: true,
		Tables:  diff.TableChanges{Changed: true, Added: []string{"shop.products"}},
	}
	hub.DriftDetected("acme", report)

	select {
	case data := <-client.send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("bad message: %v", err)
		}
		if msg.Type != MsgDriftDetected {
			t.Fatalf("type = %q, want %q", msg.Type, MsgDriftDetected)
		}
		var payload struct {
			Tenant string      `json:"tenant"`
			Report diff.Report `json:"report"`
		}
		json.Unmarshal(msg.Payload, &payload)
		if payload.Tenant != "acme" || !payload.Report.Changed {
			t.Errorf("unexpected payload: %+v", payload)
		}
	case <-time.After(time.Second):
		t.Error("client did not receive drift event")
	}
}

func TestBroadcastDropsSlowClient(t *testing.T) {
	hub := NewHub(slog.Default())
	go hub.Run()

	slow := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.register <- slow
	time.Sleep(50 * time.Millisecond)

	slow.send <- []byte("filler")

	hub.Broadcast([]byte("overflow"))
	time.Sleep(50 * time.Millisecond)

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("slow client should be dropped, ClientCount() = %d, want 0", got)
	}
}
