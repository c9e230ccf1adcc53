package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"

	"yams/internal/dice"
	"yams/internal/game"
	"yams/internal/scoring"
)

// clientMessage is the envelope for client-to-server messages.
type clientMessage struct {
	GameID   string          `json:"gameId"`
	PlayerID string          `json:"playerId"`
	Action   string          `json:"action"` // init | roll | hold | score
	Payload  json.RawMessage `json:"payload"`
}

type holdPayload struct {
	Held []bool `json:"held"`
}

type scorePayload struct {
	Category string `json:"category"`
	Column   int    `json:"column"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "id")
	if _, err := s.registry.Get(gameID); err != nil {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // allow any origin for dev
	})
	if err != nil {
		log.Warn().Err(err).Msg("websocket accept")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := r.Context()
	send := make(chan []byte, 64)
	var playerID string

	// Writer goroutine: drain the send channel onto the socket.
	go func() {
		for msg := range send {
			if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			sendMsg(send, serverMessage{Type: "error", Message: "invalid message"})
			continue
		}
		if msg.PlayerID == "" {
			sendMsg(send, serverMessage{Type: "error", Message: "playerId required"})
			continue
		}
		// Any message (re)binds this connection to the player, so a
		// reconnect is just the next message.
		if msg.PlayerID != playerID {
			if playerID != "" {
				s.hub.Unregister(playerID, send)
			}
			playerID = msg.PlayerID
			s.hub.Register(playerID, send)
		}
		if msg.GameID == "" {
			msg.GameID = gameID
		}
		s.handleAction(send, msg)
	}

	if playerID != "" {
		s.hub.Unregister(playerID, send)
		log.Debug().Str("game", gameID).Str("player", playerID).Msg("player disconnected")
	}
	close(send)
}

func (s *Server) handleAction(send chan []byte, msg clientMessage) {
	var err error
	switch msg.Action {
	case "init":
		// Registration already happened; answer with the current state
		// so a rejoining client can render immediately.
		var g *game.Game
		if g, err = s.registry.Get(msg.GameID); err == nil {
			snapshot := g.Snapshot()
			sendMsg(send, serverMessage{Type: "state", Game: &snapshot})
			return
		}
	case "roll":
		err = s.registry.Roll(msg.GameID, msg.PlayerID)
	case "hold":
		var hp holdPayload
		if err = json.Unmarshal(msg.Payload, &hp); err != nil {
			err = game.ErrInvalidHoldMask
			break
		}
		err = s.registry.Hold(msg.GameID, msg.PlayerID, hp.Held)
	case "score":
		var sp scorePayload
		if err = json.Unmarshal(msg.Payload, &sp); err != nil {
			sendMsg(send, serverMessage{Type: "error", Message: "invalid score payload"})
			return
		}
		var cat scoring.Category
		if cat, err = scoring.ParseCategory(sp.Category); err != nil {
			break
		}
		err = s.registry.Score(msg.GameID, msg.PlayerID, cat, sp.Column)
	default:
		sendMsg(send, serverMessage{Type: "error", Message: "unknown action: " + msg.Action})
		return
	}

	if err == nil {
		return
	}
	if errors.Is(err, dice.ErrSettleTimeout) || errors.Is(err, dice.ErrUnstableRest) {
		// Generator faults are implementation bugs, never defaulted to a
		// face value. Surface loudly and tell the client nothing useful.
		log.Error().Err(err).Str("game", msg.GameID).Msg("dice generator fault")
		sendMsg(send, serverMessage{Type: "error", Message: "internal error"})
		return
	}
	sendMsg(send, serverMessage{Type: "error", Message: err.Error()})
}

func sendMsg(send chan []byte, msg serverMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case send <- data:
	default:
	}
}
