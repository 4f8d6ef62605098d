package wshub

import (
	"encoding/json"
	"testing"
	"time"
)

func newClient(id string, size int) *Client {
	return &Client{ID: id, Send: make(chan []byte, size)}
}

func TestRegisterAndBroadcastExcept(t *testing.T) {
	h := NewHub()

	c1 := newClient("c1", 16)
	c2 := newClient("c2", 16)
	c3 := newClient("c3", 16)

	h.Register(c1)
	h.Register(c2)
	h.Register(c3)

	msg := ServerMessage{Type: "signal", RoomID: "game_ABC", Data: json.RawMessage(`{"game_state":"racing"}`)}
	h.BroadcastExcept("c1", msg)

	// c2 and c3 should receive the message, c1 should not
	select {
	case data := <-c2.Send:
		var got ServerMessage
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Type != "signal" || got.RoomID != "game_ABC" {
			t.Fatalf("unexpected message: %+v", got)
		}
		if string(got.Data) != `{"game_state":"racing"}` {
			t.Fatalf("unexpected data: %s", got.Data)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("c2 did not receive message")
	}

	select {
	case <-c3.Send:
		// expected
	case <-time.After(100 * time.Millisecond):
		t.Fatal("c3 did not receive message")
	}

	select {
	case <-c1.Send:
		t.Fatal("c1 should not receive its own message")
	default:
		// expected
	}
}

func TestBroadcastReachesEveryone(t *testing.T) {
	h := NewHub()
	c1 := newClient("c1", 4)
	c2 := newClient("c2", 4)
	h.Register(c1)
	h.Register(c2)

	h.Broadcast(ServerMessage{Type: "round_started"})

	for _, c := range []*Client{c1, c2} {
		select {
		case <-c.Send:
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("%s did not receive broadcast", c.ID)
		}
	}
}

func TestUnregisterBroadcastsLeave(t *testing.T) {
	h := NewHub()

	c1 := newClient("c1", 16)
	c2 := newClient("c2", 16)

	h.Register(c1)
	h.Register(c2)

	h.Unregister("c1")

	// c2 should receive a leave message
	select {
	case data := <-c2.Send:
		var got ServerMessage
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Type != "leave" || got.ClientID != "c1" {
			t.Fatalf("expected leave for c1, got: %+v", got)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("c2 did not receive leave message")
	}

	// c1's Send channel should be closed
	_, ok := <-c1.Send
	if ok {
		t.Fatal("c1.Send should be closed")
	}
	if h.Len() != 1 {
		t.Errorf("Len() = %d, want 1", h.Len())
	}
}

func TestUnregisterNonexistent(t *testing.T) {
	h := NewHub()
	// Should not panic
	h.Unregister("nonexistent")
}

func TestBroadcastDropsWhenFull(t *testing.T) {
	h := NewHub()

	// Channel with capacity 1
	c := newClient("c1", 1)
	h.Register(c)

	// Fill the channel
	c.Send <- []byte("filler")

	// Must not block; the message is dropped
	h.BroadcastExcept("other", ServerMessage{Type: "reaction"})

	// Only the filler should be in the channel
	data := <-c.Send
	if string(data) != "filler" {
		t.Fatalf("expected filler, got: %s", data)
	}

	select {
	case <-c.Send:
		t.Fatal("should be empty after draining filler")
	default:
		// expected
	}
}

func TestClient_SendJSON(t *testing.T) {
	c := newClient("c1", 1)
	c.SendJSON(ServerMessage{Type: "error", Error: "boom"})
	// Full channel: dropped without blocking.
	c.SendJSON(ServerMessage{Type: "error", Error: "again"})

	var got ServerMessage
	if err := json.Unmarshal(<-c.Send, &got); err != nil {
		t.Fatal(err)
	}
	if got.Error != "boom" {
		t.Errorf("Error = %q, want %q", got.Error, "boom")
	}
}

func TestClose(t *testing.T) {
	h := NewHub()
	c := newClient("c1", 1)
	h.Register(c)

	h.Close()
	h.Close()

	if _, ok := <-c.Send; ok {
		t.Error("Send should be closed after hub Close")
	}
	if h.Register(newClient("c2", 1)) {
		t.Error("Register should fail on a closed hub")
	}
	if h.Len() != 0 {
		t.Errorf("Len() = %d, want 0", h.Len())
	}
}

func TestSendTo(t *testing.T) {
	h := NewHub()
	a := newClient("a", 1)
	b := newClient("b", 1)
	h.Register(a)
	h.Register(b)

	if !h.SendTo("a", ServerMessage{Type: "ack"}) {
		t.Fatal("SendTo(a) = false, want true")
	}
	if h.SendTo("a", ServerMessage{Type: "ack"}) {
		t.Error("SendTo on a full channel should report false")
	}
	select {
	case <-b.Send:
		t.Error("b should not receive a message addressed to a")
	default:
	}

	h.Close()
	if h.SendTo("a", ServerMessage{Type: "ack"}) {
		t.Error("SendTo after Close should report false")
	}
}
