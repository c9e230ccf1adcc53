// Package game holds the authoritative state of live matches: the game
// registry, the per-game turn state machine and the scorecard model. All
// mutation goes through methods that serialize on a per-game mutex, since
// roll/hold/score arrive as unordered messages from multiple connections.
package game

import (
	"sync"

	"yams/internal/dice"
	"yams/internal/scoring"
)

// Status is the game lifecycle phase. A game moves lobby -> running ->
// finished, each transition exactly once.
type Status string

const (
	StatusLobby    Status = "lobby"
	StatusRunning  Status = "running"
	StatusFinished Status = "finished"
)

// DiceCount is the number of dice rolled each turn.
const DiceCount = scoring.HandSize

// RollsPerTurn is the rolls-remaining counter at the start of a turn.
const RollsPerTurn = 3

// Roller produces dice outcomes. Implemented by dice.Generator.
type Roller interface {
	Roll(count int) (dice.Outcome, error)
}

// Broadcaster fans game updates out to connected players. Delivery is
// fire-and-forget per player; a dead connection never blocks the rest.
type Broadcaster interface {
	GameState(snapshot Snapshot, playerIDs []string)
	RollResult(round RoundSnapshot, playerIDs []string)
}

// Scorecell is one category slot in a scorecard column. The scored flag
// makes the write-once invariant structural: a value can be set exactly
// once and read any number of times.
type Scorecell struct {
	category scoring.Category
	value    int
	scored   bool
}

// Category returns the cell's scoring category.
func (c *Scorecell) Category() scoring.Category { return c.category }

// Value returns the cell value and whether it has been scored.
func (c *Scorecell) Value() (int, bool) { return c.value, c.scored }

// assign writes the cell value. Fails once scored.
func (c *Scorecell) assign(value int) error {
	if c.scored {
		return ErrCellAlreadyScored
	}
	c.value = value
	c.scored = true
	return nil
}

// Column is one independent copy of the category scorecard.
type Column []Scorecell

func newColumn() Column {
	cats := scoring.Categories()
	col := make(Column, len(cats))
	for i, cat := range cats {
		col[i] = Scorecell{category: cat}
	}
	return col
}

// Player is one seat in a game. Players are created in the lobby and never
// removed.
type Player struct {
	ID        string
	Name      string
	Ready     bool
	Scorecard []Column
	Sum       int
}

func (p *Player) recalcSum() {
	sum := 0
	for _, col := range p.Scorecard {
		for i := range col {
			if v, ok := col[i].Value(); ok {
				sum += v
			}
		}
	}
	p.Sum = sum
}

func (p *Player) scorecardFull() bool {
	for _, col := range p.Scorecard {
		for i := range col {
			if _, ok := col[i].Value(); !ok {
				return false
			}
		}
	}
	return true
}

// RoundState is the active player's roll/hold/score sub-cycle. A fresh one
// is installed at the start of every turn.
type RoundState struct {
	RollsLeft int
	Dice      [DiceCount]int
	Held      [DiceCount]bool
	Seed      uint32 // seed of the most recent roll, for animation replay
}

func newRoundState() *RoundState {
	rs := &RoundState{RollsLeft: RollsPerTurn}
	for i := range rs.Dice {
		rs.Dice[i] = 1
	}
	return rs
}

// Game is one live match. The registry owns its existence; the turn state
// machine methods own all mutation of status, round and scorecards.
type Game struct {
	mu sync.RWMutex

	id          string
	status      Status
	players     []*Player
	playerCount int
	columns     int
	current     int // index of the active player while running
	round       int
	roundState  *RoundState
	winner      *Player
}

// ID returns the game identity.
func (g *Game) ID() string { return g.id }

// PlayerIDs returns the ids of all seated players.
func (g *Game) PlayerIDs() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make([]string, len(g.players))
	for i, p := range g.players {
		ids[i] = p.ID
	}
	return ids
}

// AddPlayer seats a new player. Only valid in the lobby, and never beyond
// the configured player count.
func (g *Game) AddPlayer(name string, id string) (PlayerSnapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status != StatusLobby {
		return PlayerSnapshot{}, ErrGameAlreadyStarted
	}
	if len(g.players) >= g.playerCount {
		return PlayerSnapshot{}, ErrGameFull
	}

	p := &Player{
		ID:        id,
		Name:      name,
		Scorecard: make([]Column, g.columns),
	}
	for i := range p.Scorecard {
		p.Scorecard[i] = newColumn()
	}
	g.players = append(g.players, p)
	return snapshotPlayer(p), nil
}

// HasPlayer reports whether the player is seated in this game.
func (g *Game) HasPlayer(playerID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.findPlayer(playerID) != nil
}

func (g *Game) findPlayer(playerID string) *Player {
	for _, p := range g.players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// activePlayer returns the player whose turn it is. Caller holds the lock
// and has checked status == running, so the index is always valid.
func (g *Game) activePlayer() *Player {
	return g.players[g.current]
}
