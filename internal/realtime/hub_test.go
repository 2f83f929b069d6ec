package realtime

import (
	"encoding/json"
	"testing"
)

func drain(c *Client) []map[string]any {
	var out []map[string]any
	for {
		select {
		case raw := <-c.Send:
			var payload map[string]any
			_ = json.Unmarshal(raw, &payload)
			out = append(out, payload)
		default:
			return out
		}
	}
}

func TestSendToUserTargetsOnlyThatUser(t *testing.T) {
	hub := NewHub()
	alice := &Client{UserID: 1, Send: make(chan []byte, 16)}
	bob := &Client{UserID: 2, Send: make(chan []byte, 16)}
	hub.Register(alice)
	hub.Register(bob)
	drain(alice)
	drain(bob)

	hub.SendToUser(1, map[string]any{"type": "notification.created"})

	if got := drain(alice); len(got) != 1 || got[0]["type"] != "notification.created" {
		t.Errorf("alice received %v", got)
	}
	if got := drain(bob); len(got) != 0 {
		t.Errorf("bob should receive nothing, got %v", got)
	}
}

func TestBroadcastReachesAllSessions(t *testing.T) {
	hub := NewHub()
	a := &Client{UserID: 1, Send: make(chan []byte, 16)}
	b := &Client{UserID: 2, Send: make(chan []byte, 16)}
	hub.Register(a)
	hub.Register(b)
	drain(a)
	drain(b)

	hub.Broadcast(map[string]any{"type": "announcement"})

	for name, c := range map[string]*Client{"a": a, "b": b} {
		if got := drain(c); len(got) != 1 {
			t.Errorf("%s received %v", name, got)
		}
	}
}

func TestUnregisterIsIdempotent(t *testing.T) {
	hub := NewHub()
	c := &Client{UserID: 1, Send: make(chan []byte, 16)}
	hub.Register(c)
	hub.Unregister(c)
	// read and write pumps both tear down; the second call must not panic
	hub.Unregister(c)
}

func TestSendToUserDuringUnregister(t *testing.T) {
	hub := NewHub()
	c := &Client{UserID: 1, Send: make(chan []byte, 1)}
	hub.Register(c)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			hub.SendToUser(1, map[string]any{"type": "notification.created"})
		}
	}()

	// a send on the closed channel would panic the sender goroutine
	hub.Unregister(c)
	<-done
}

func TestPresenceUpdates(t *testing.T) {
	hub := NewHub()
	a := &Client{UserID: 1, Send: make(chan []byte, 16)}
	hub.Register(a)

	b := &Client{UserID: 2, Send: make(chan []byte, 16)}
	hub.Register(b)

	msgs := drain(a)
	if len(msgs) == 0 {
		t.Fatal("expected presence updates")
	}
	last := msgs[len(msgs)-1]
	if last["type"] != "presence.update" {
		t.Fatalf("last message = %v", last)
	}
	users, _ := last["users"].([]any)
	if len(users) != 2 {
		t.Errorf("presence users = %v, want 2 entries", users)
	}
}
