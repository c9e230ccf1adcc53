package server

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"yams/internal/game"
)

// serverMessage is the envelope for all server-to-client messages.
type serverMessage struct {
	Type              string              `json:"type"`
	Game              *game.Snapshot      `json:"game,omitempty"`
	RenderInformation *game.RoundSnapshot `json:"renderInformation,omitempty"`
	Message           string              `json:"message,omitempty"`
}

// Hub maps player ids to live connections and fans game updates out to
// them. It implements game.Broadcaster. Sends are fire-and-forget: a slow
// or absent connection drops the message for that player only.
type Hub struct {
	mu    sync.RWMutex
	peers map[string]chan []byte
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{peers: make(map[string]chan []byte)}
}

// Register binds a player id to a send channel, replacing any previous
// connection for that player. Reconnecting is just re-registering.
func (h *Hub) Register(playerID string, send chan []byte) {
	h.mu.Lock()
	h.peers[playerID] = send
	h.mu.Unlock()
}

// Unregister removes the player's binding, but only if it still points at
// the given channel; a newer connection stays registered.
func (h *Hub) Unregister(playerID string, send chan []byte) {
	h.mu.Lock()
	if h.peers[playerID] == send {
		delete(h.peers, playerID)
	}
	h.mu.Unlock()
}

// GameState broadcasts a full game snapshot to the given players.
func (h *Hub) GameState(snapshot game.Snapshot, playerIDs []string) {
	h.send(playerIDs, serverMessage{Type: "state", Game: &snapshot})
}

// RollResult broadcasts the roll-animation cue, carrying dice and seed.
func (h *Hub) RollResult(round game.RoundSnapshot, playerIDs []string) {
	h.send(playerIDs, serverMessage{Type: "renderInformation", RenderInformation: &round})
}

func (h *Hub) send(playerIDs []string, msg serverMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("type", msg.Type).Msg("marshal broadcast")
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range playerIDs {
		send, ok := h.peers[id]
		if !ok {
			continue
		}
		select {
		case send <- data:
		default:
			// drop message if buffer full
		}
	}
}
