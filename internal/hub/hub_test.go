package hub

import (
	"encoding/json"
	"log/slog"
	"testing"
)

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub) *Client {
	return &Client{
		hub:  hub,
		conn: nil,
		send: make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	h := New(slog.Default())

	c1 := mockClient(h)
	c2 := mockClient(h)

	h.Register(c1)
	h.Register(c2)

	if got := h.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	h.Unregister(c1)
	if got := h.ClientCount(); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}

	h.Unregister(c2)
	if got := h.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestDoubleUnregister(t *testing.T) {
	h := New(slog.Default())
	c := mockClient(h)
	h.Register(c)
	h.Unregister(c)
	// Should not panic
	h.Unregister(c)

	if got := h.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestBroadcast(t *testing.T) {
	h := New(slog.Default())
	c := mockClient(h)
	h.Register(c)

	h.Broadcast(Message{Type: "run_summary", Data: map[string]int{"sent": 3}})

	select {
	case data := <-c.send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal broadcast: %v", err)
		}
		if msg.Type != "run_summary" {
			t.Errorf("type = %q, want run_summary", msg.Type)
		}
	default:
		t.Fatal("client did not receive the broadcast")
	}
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	h := New(slog.Default())
	c := mockClient(h)
	h.Register(c)

	for i := 0; i < sendBufferSize+5; i++ {
		h.Broadcast(Message{Type: "water_logged"})
	}

	if got := len(c.send); got != sendBufferSize {
		t.Errorf("buffered = %d, want %d (overflow dropped, not blocked)", got, sendBufferSize)
	}
}
