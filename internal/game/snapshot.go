package game

// Snapshot is the full game view sent to clients. It carries no engine
// internals beyond the last roll seed, which clients need for animation
// replay.
type Snapshot struct {
	ID                 string           `json:"id"`
	Status             Status           `json:"status"`
	Players            []PlayerSnapshot `json:"players"`
	PlayerCount        int              `json:"playerCount"`
	Columns            int              `json:"columns"`
	CurrentPlayerIndex int              `json:"currentPlayerIndex"`
	Round              int              `json:"round"`
	RoundState         *RoundSnapshot   `json:"roundState"`
	Winner             *PlayerSnapshot  `json:"winner"`
}

// PlayerSnapshot is one player's public view.
type PlayerSnapshot struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Ready     bool             `json:"ready"`
	Scorecard [][]CellSnapshot `json:"scorecard"`
	Sum       int              `json:"sum"`
}

// CellSnapshot is one scorecell; Value is nil while unscored.
type CellSnapshot struct {
	Key   string `json:"key"`
	Value *int   `json:"value"`
}

// RoundSnapshot is the active round, also used as the roll-animation cue.
type RoundSnapshot struct {
	RollsLeft int    `json:"rollsLeft"`
	Dice      []int  `json:"dice"`
	Held      []bool `json:"held"`
	Seed      uint32 `json:"seed"`
}

// Snapshot captures the current game state.
func (g *Game) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.snapshotLocked()
}

func (g *Game) snapshotLocked() Snapshot {
	s := Snapshot{
		ID:                 g.id,
		Status:             g.status,
		Players:            make([]PlayerSnapshot, len(g.players)),
		PlayerCount:        g.playerCount,
		Columns:            g.columns,
		CurrentPlayerIndex: g.current,
		Round:              g.round,
	}
	for i, p := range g.players {
		s.Players[i] = snapshotPlayer(p)
	}
	if g.roundState != nil {
		rs := snapshotRound(g.roundState)
		s.RoundState = &rs
	}
	if g.winner != nil {
		w := snapshotPlayer(g.winner)
		s.Winner = &w
	}
	return s
}

func snapshotPlayer(p *Player) PlayerSnapshot {
	ps := PlayerSnapshot{
		ID:        p.ID,
		Name:      p.Name,
		Ready:     p.Ready,
		Scorecard: make([][]CellSnapshot, len(p.Scorecard)),
		Sum:       p.Sum,
	}
	for i, col := range p.Scorecard {
		cells := make([]CellSnapshot, len(col))
		for j := range col {
			cells[j] = CellSnapshot{Key: col[j].Category().Key()}
			if v, ok := col[j].Value(); ok {
				value := v
				cells[j].Value = &value
			}
		}
		ps.Scorecard[i] = cells
	}
	return ps
}

func snapshotRound(rs *RoundState) RoundSnapshot {
	out := RoundSnapshot{
		RollsLeft: rs.RollsLeft,
		Dice:      make([]int, DiceCount),
		Held:      make([]bool, DiceCount),
		Seed:      rs.Seed,
	}
	copy(out.Dice, rs.Dice[:])
	copy(out.Held, rs.Held[:])
	return out
}
