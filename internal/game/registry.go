package game

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"yams/internal/scoring"
	"yams/internal/storage"
)

// Registry holds all live games and drives the turn state machine from
// inbound actions. It is constructed once at process start and passed to
// the transport layer; there is no package-level game table.
type Registry struct {
	mu    sync.RWMutex
	games map[string]*Game

	roller      Roller
	broadcaster Broadcaster
	archive     *storage.Store // optional; finished games are recorded here
}

// NewRegistry creates a registry. broadcaster and archive may be nil.
func NewRegistry(roller Roller, broadcaster Broadcaster, archive *storage.Store) *Registry {
	return &Registry{
		games:       make(map[string]*Game),
		roller:      roller,
		broadcaster: broadcaster,
		archive:     archive,
	}
}

// Summary describes a game for the lobby list.
type Summary struct {
	ID      string   `json:"id"`
	Status  Status   `json:"status"`
	Players []string `json:"players"`
}

// Create allocates a new lobby game.
func (r *Registry) Create(playerCount, columns int) *Game {
	g := &Game{
		id:          uuid.NewString(),
		status:      StatusLobby,
		playerCount: playerCount,
		columns:     columns,
	}
	r.mu.Lock()
	r.games[g.id] = g
	r.mu.Unlock()
	log.Info().Str("game", g.id).Int("players", playerCount).Int("columns", columns).Msg("game created")
	return g
}

// Get returns a live game by id.
func (r *Registry) Get(id string) (*Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}
	return g, nil
}

// Remove evicts a game. Called once a game reaches finished.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.games, id)
	r.mu.Unlock()
	log.Info().Str("game", id).Msg("game removed")
}

// List returns summaries of all live games.
func (r *Registry) List() []Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Summary, 0, len(r.games))
	for _, g := range r.games {
		snap := g.Snapshot()
		names := make([]string, len(snap.Players))
		for i, p := range snap.Players {
			names[i] = p.Name
		}
		out = append(out, Summary{ID: snap.ID, Status: snap.Status, Players: names})
	}
	return out
}

// AddPlayer seats a new player in a lobby game.
func (r *Registry) AddPlayer(gameID, name string) (PlayerSnapshot, error) {
	g, err := r.Get(gameID)
	if err != nil {
		return PlayerSnapshot{}, err
	}
	p, err := g.AddPlayer(name, uuid.NewString())
	if err != nil {
		return PlayerSnapshot{}, err
	}
	log.Info().Str("game", gameID).Str("player", p.ID).Str("name", name).Msg("player joined")
	return p, nil
}

// MarkReady flags a player ready and starts the game once everyone is.
func (r *Registry) MarkReady(gameID, playerID string) error {
	g, err := r.Get(gameID)
	if err != nil {
		return err
	}
	started, err := g.MarkReady(playerID)
	if err != nil {
		return err
	}
	if started {
		log.Info().Str("game", gameID).Msg("game started")
		r.broadcastState(g)
	}
	return nil
}

// Roll rolls the unheld dice for the active player and broadcasts the
// animation cue followed by the new state.
func (r *Registry) Roll(gameID, playerID string) error {
	g, err := r.Get(gameID)
	if err != nil {
		return err
	}
	round, err := g.Roll(playerID, r.roller)
	if err != nil {
		return err
	}
	if r.broadcaster != nil {
		r.broadcaster.RollResult(round, g.PlayerIDs())
	}
	r.broadcastState(g)
	return nil
}

// Hold replaces the active player's hold mask.
func (r *Registry) Hold(gameID, playerID string, held []bool) error {
	g, err := r.Get(gameID)
	if err != nil {
		return err
	}
	if err := g.Hold(playerID, held); err != nil {
		return err
	}
	r.broadcastState(g)
	return nil
}

// Score commits the current dice to a scorecell. A finished game gets a
// final broadcast, is archived, and is evicted from the registry.
func (r *Registry) Score(gameID, playerID string, category scoring.Category, column int) error {
	g, err := r.Get(gameID)
	if err != nil {
		return err
	}
	finished, err := g.ScoreCell(playerID, category, column)
	if err != nil {
		return err
	}
	r.broadcastState(g)
	if finished {
		r.archiveResult(g)
		r.Remove(gameID)
	}
	return nil
}

func (r *Registry) broadcastState(g *Game) {
	if r.broadcaster == nil {
		return
	}
	r.broadcaster.GameState(g.Snapshot(), g.PlayerIDs())
}

func (r *Registry) archiveResult(g *Game) {
	if r.archive == nil {
		return
	}
	snap := g.Snapshot()
	if snap.Winner == nil {
		return
	}
	standings := make([]storage.Standing, len(snap.Players))
	for i, p := range snap.Players {
		standings[i] = storage.Standing{Name: p.Name, Sum: p.Sum}
	}
	data, err := json.Marshal(standings)
	if err != nil {
		log.Error().Err(err).Str("game", snap.ID).Msg("marshal standings")
		return
	}
	row := storage.ResultRow{
		GameID:      snap.ID,
		WinnerID:    snap.Winner.ID,
		WinnerName:  snap.Winner.Name,
		WinnerScore: snap.Winner.Sum,
		Standings:   string(data),
	}
	if err := r.archive.SaveResult(row); err != nil {
		log.Error().Err(err).Str("game", snap.ID).Msg("archive result")
		return
	}
	log.Info().Str("game", snap.ID).Str("winner", snap.Winner.Name).Int("score", snap.Winner.Sum).Msg("game finished")
}
