package game

import (
	"sync"
	"testing"

	"yams/internal/dice"
)

// stubRoller returns a fixed face pattern, repeating as needed.
type stubRoller struct {
	faces []int
	seed  uint32
	err   error

	mu     sync.Mutex
	counts []int // dice counts requested, in order
}

func (s *stubRoller) Roll(count int) (dice.Outcome, error) {
	s.mu.Lock()
	s.counts = append(s.counts, count)
	s.mu.Unlock()
	if s.err != nil {
		return dice.Outcome{}, s.err
	}
	out := make([]int, count)
	for i := range out {
		out[i] = s.faces[i%len(s.faces)]
	}
	return dice.Outcome{Faces: out, Seed: s.seed}, nil
}

// recordingBroadcaster captures broadcasts for assertions.
type recordingBroadcaster struct {
	mu     sync.Mutex
	states []Snapshot
	rolls  []RoundSnapshot
}

func (b *recordingBroadcaster) GameState(snapshot Snapshot, playerIDs []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.states = append(b.states, snapshot)
}

func (b *recordingBroadcaster) RollResult(round RoundSnapshot, playerIDs []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rolls = append(b.rolls, round)
}

// startedGame creates a game via the registry, seats the named players and
// readies them all, returning the game and the player ids in join order.
func startedGame(t *testing.T, r *Registry, columns int, names ...string) (*Game, []string) {
	t.Helper()
	g := r.Create(len(names), columns)
	ids := make([]string, len(names))
	for i, name := range names {
		p, err := r.AddPlayer(g.ID(), name)
		if err != nil {
			t.Fatalf("add player %s: %v", name, err)
		}
		ids[i] = p.ID
	}
	for _, id := range ids {
		if err := r.MarkReady(g.ID(), id); err != nil {
			t.Fatalf("ready %s: %v", id, err)
		}
	}
	if g.Snapshot().Status != StatusRunning {
		t.Fatal("expected game to be running")
	}
	return g, ids
}

func mask(held ...int) []bool {
	m := make([]bool, DiceCount)
	for _, i := range held {
		m[i] = true
	}
	return m
}
