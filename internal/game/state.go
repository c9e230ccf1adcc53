package game

import (
	"fmt"

	"yams/internal/scoring"
)

// This file is the per-game turn state machine. Every operation validates
// turn ownership and phase before touching state, so a rejected action
// always leaves the game exactly as it was.

// MarkReady flags a player as ready. When the lobby is full and everyone is
// ready the game starts. Reports whether this call started the game.
func (g *Game) MarkReady(playerID string) (started bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := g.findPlayer(playerID)
	if p == nil {
		return false, ErrPlayerNotFound
	}
	p.Ready = true

	if g.status != StatusLobby || len(g.players) != g.playerCount {
		return false, nil
	}
	for _, p := range g.players {
		if !p.Ready {
			return false, nil
		}
	}
	g.start()
	return true, nil
}

// start transitions lobby -> running. Called exactly once, lock held.
func (g *Game) start() {
	g.status = StatusRunning
	g.round = 1
	g.current = 0
	g.roundState = newRoundState()
}

// Roll rolls every die not covered by the hold mask and merges the results
// into the round. Returns the round snapshot for the animation broadcast.
func (g *Game) Roll(playerID string, roller Roller) (RoundSnapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkTurn(playerID); err != nil {
		return RoundSnapshot{}, err
	}
	rs := g.roundState
	if rs.RollsLeft <= 0 {
		return RoundSnapshot{}, ErrNoRollsLeft
	}

	free := 0
	for _, h := range rs.Held {
		if !h {
			free++
		}
	}
	if free == 0 {
		// Every die held: nothing to simulate, but the roll still counts.
		rs.RollsLeft--
		return snapshotRound(rs), nil
	}

	// Roll before mutating: a generator fault must leave the round intact.
	out, err := roller.Roll(free)
	if err != nil {
		return RoundSnapshot{}, fmt.Errorf("roll dice: %w", err)
	}

	next := 0
	for i := range rs.Dice {
		if rs.Held[i] {
			continue
		}
		rs.Dice[i] = out.Faces[next]
		next++
	}
	rs.Seed = out.Seed
	rs.RollsLeft--

	return snapshotRound(rs), nil
}

// Hold replaces the round's hold mask. The mask must cover all five dice
// and the player must have rolled at least once this turn.
func (g *Game) Hold(playerID string, held []bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkTurn(playerID); err != nil {
		return err
	}
	if g.roundState.RollsLeft == RollsPerTurn {
		return ErrMustRollFirst
	}
	if len(held) != DiceCount {
		return ErrInvalidHoldMask
	}
	copy(g.roundState.Held[:], held)
	return nil
}

// ScoreCell commits the current dice to one cell of the active player's
// scorecard, write-once. Reports whether the game finished as a result.
func (g *Game) ScoreCell(playerID string, category scoring.Category, column int) (finished bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkTurn(playerID); err != nil {
		return false, err
	}
	rs := g.roundState
	if rs.RollsLeft == RollsPerTurn {
		return false, ErrMustRollFirst
	}

	p := g.activePlayer()
	if column < 0 || column >= len(p.Scorecard) {
		return false, ErrColumnNotFound
	}
	cell := findCell(p.Scorecard[column], category)
	if cell == nil {
		return false, ErrCategoryNotFound
	}

	points, err := scoring.Score(category, rs.Dice, rs.Held)
	if err != nil {
		return false, err
	}
	if err := cell.assign(points); err != nil {
		return false, err
	}
	p.recalcSum()

	if g.allScored() {
		g.finish()
		return true, nil
	}
	g.nextTurn()
	return false, nil
}

// checkTurn validates phase and turn ownership for roll/hold/score.
func (g *Game) checkTurn(playerID string) error {
	switch g.status {
	case StatusFinished:
		return ErrGameAlreadyFinished
	case StatusLobby:
		return ErrGameNotStarted
	}
	if g.activePlayer().ID != playerID {
		return ErrNotYourTurn
	}
	return nil
}

func findCell(col Column, category scoring.Category) *Scorecell {
	for i := range col {
		if col[i].Category() == category {
			return &col[i]
		}
	}
	return nil
}

func (g *Game) allScored() bool {
	for _, p := range g.players {
		if !p.scorecardFull() {
			return false
		}
	}
	return true
}

// nextTurn advances the active player round-robin in join order and
// installs a fresh round. The round counter ticks when the order wraps.
func (g *Game) nextTurn() {
	g.current = (g.current + 1) % len(g.players)
	if g.current == 0 {
		g.round++
	}
	g.roundState = newRoundState()
}

// finish transitions running -> finished and picks the winner: strictly
// highest sum, ties resolved by join order.
func (g *Game) finish() {
	g.status = StatusFinished
	g.roundState = nil
	for _, p := range g.players {
		if g.winner == nil || p.Sum > g.winner.Sum {
			g.winner = p
		}
	}
}
