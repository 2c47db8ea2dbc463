package ws

import "testing"

func TestHubBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub()

	c1 := &Client{PlayerID: 1, Send: make(chan []byte, 4), Hub: hub}
	c2 := &Client{PlayerID: 2, Send: make(chan []byte, 4), Hub: hub}
	hub.Register(c1)
	hub.Register(c2)

	if hub.Count() != 2 {
		t.Fatalf("expected 2 clients, got %d", hub.Count())
	}

	hub.Broadcast([]byte(`{"type":"leaderboard"}`))

	for _, c := range []*Client{c1, c2} {
		select {
		case msg := <-c.Send:
			if string(msg) != `{"type":"leaderboard"}` {
				t.Fatalf("unexpected message: %s", msg)
			}
		default:
			t.Fatalf("player=%d got no message", c.PlayerID)
		}
	}
}

func TestHubNewClientGetsLastSnapshot(t *testing.T) {
	hub := NewHub()
	hub.Broadcast([]byte(`{"v":1}`))

	c := &Client{PlayerID: 7, Send: make(chan []byte, 4), Hub: hub}
	hub.Register(c)

	select {
	case msg := <-c.Send:
		if string(msg) != `{"v":1}` {
			t.Fatalf("unexpected message: %s", msg)
		}
	default:
		t.Fatal("late joiner did not receive last snapshot")
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()

	// zero buffer: every enqueue fails
	c := &Client{PlayerID: 3, Send: make(chan []byte), Hub: hub}
	hub.Register(c)

	hub.Broadcast([]byte(`{"v":2}`))

	if hub.Count() != 0 {
		t.Fatalf("slow client should be dropped, have %d clients", hub.Count())
	}

	// dropped client's channel must be closed
	if _, ok := <-c.Send; ok {
		t.Fatal("expected closed send channel")
	}
}
