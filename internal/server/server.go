// Package server exposes the game engine over HTTP and websocket. The
// request/response endpoints cover lobby management; everything that
// affects a running game travels over the websocket.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"yams/internal/game"
	"yams/internal/storage"
)

const maxPlayers = 8

// Server is the HTTP server.
type Server struct {
	r        *chi.Mux
	registry *game.Registry
	hub      *Hub
	store    *storage.Store // optional
}

// New creates a server with all routes.
func New(registry *game.Registry, hub *Hub, store *storage.Store) *Server {
	s := &Server{
		r:        chi.NewRouter(),
		registry: registry,
		hub:      hub,
		store:    store,
	}
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)

	s.r.Get("/health", s.handleHealth)
	s.r.Route("/api", func(r chi.Router) {
		r.With(chimw.Timeout(10 * time.Second)).Group(func(r chi.Router) {
			r.Get("/games", s.handleListGames)
			r.Post("/games", s.handleCreateGame)
			r.Get("/games/{id}", s.handleGetGame)
			r.Post("/games/{id}/join", s.handleJoinGame)
			r.Post("/games/{id}/rejoin", s.handleRejoinGame)
			r.Post("/games/{id}/ready", s.handleReady)
			r.Get("/results", s.handleListResults)
		})
		// No timeout on the websocket; the connection is long-lived.
		r.Get("/games/{id}/ws", s.handleWebSocket)
	})
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.r.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

type createGameRequest struct {
	PlayerCount int `json:"playerCount"`
	Columns     int `json:"columns"`
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Columns == 0 {
		req.Columns = 1
	}
	if req.PlayerCount < 1 || req.PlayerCount > maxPlayers {
		writeError(w, http.StatusBadRequest, "playerCount out of range")
		return
	}
	if req.Columns < 1 || req.Columns > 4 {
		writeError(w, http.StatusBadRequest, "columns out of range")
		return
	}
	g := s.registry.Create(req.PlayerCount, req.Columns)
	writeJSON(w, http.StatusCreated, g.Snapshot())
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	g, err := s.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, g.Snapshot())
}

type joinGameRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleJoinGame(w http.ResponseWriter, r *http.Request) {
	var req joinGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}
	p, err := s.registry.AddPlayer(chi.URLParam(r, "id"), req.Name)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

type playerRequest struct {
	PlayerID string `json:"playerId"`
}

func (s *Server) handleRejoinGame(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	g, err := s.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeGameError(w, err)
		return
	}
	if !g.HasPlayer(req.PlayerID) {
		writeGameError(w, game.ErrPlayerNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.registry.MarkReady(chi.URLParam(r, "id"), req.PlayerID); err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	rows, err := s.store.ListResults(50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list results failed")
		return
	}
	type result struct {
		GameID      string    `json:"gameId"`
		WinnerName  string    `json:"winnerName"`
		WinnerScore int       `json:"winnerScore"`
		FinishedAt  time.Time `json:"finishedAt"`
	}
	out := make([]result, len(rows))
	for i, row := range rows {
		out[i] = result{
			GameID:      row.GameID,
			WinnerName:  row.WinnerName,
			WinnerScore: row.WinnerScore,
			FinishedAt:  row.FinishedAt,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeGameError maps engine errors to HTTP statuses.
func writeGameError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, game.ErrGameNotFound):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrPlayerNotFound):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrGameFull), errors.Is(err, game.ErrGameAlreadyStarted):
		status = http.StatusConflict
	}
	writeError(w, status, err.Error())
}
