package server

import (
	"encoding/json"
	"testing"

	"yams/internal/game"
)

func TestHubSendsToRegisteredPlayers(t *testing.T) {
	h := NewHub()
	alice := make(chan []byte, 4)
	bob := make(chan []byte, 4)
	h.Register("alice", alice)
	h.Register("bob", bob)

	h.GameState(game.Snapshot{ID: "g1"}, []string{"alice", "bob", "ghost"})

	for name, ch := range map[string]chan []byte{"alice": alice, "bob": bob} {
		select {
		case data := <-ch:
			var msg serverMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				t.Fatalf("unmarshal for %s: %v", name, err)
			}
			if msg.Type != "state" || msg.Game == nil || msg.Game.ID != "g1" {
				t.Fatalf("unexpected message for %s: %+v", name, msg)
			}
		default:
			t.Fatalf("expected a message for %s", name)
		}
	}
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	h := NewHub()
	full := make(chan []byte) // unbuffered, nobody reading
	h.Register("alice", full)

	// Must not block.
	h.RollResult(game.RoundSnapshot{Seed: 1}, []string{"alice"})
}

func TestHubUnregisterKeepsNewerConnection(t *testing.T) {
	h := NewHub()
	old := make(chan []byte, 1)
	replacement := make(chan []byte, 1)
	h.Register("alice", old)
	h.Register("alice", replacement)

	// The stale connection's teardown must not unbind the new one.
	h.Unregister("alice", old)

	h.GameState(game.Snapshot{ID: "g1"}, []string{"alice"})
	select {
	case <-replacement:
	default:
		t.Fatal("expected message on the replacement connection")
	}
}
