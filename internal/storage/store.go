// Package storage records finished-game results in SQLite. Live games are
// memory-only and do not survive a restart; only final outcomes land here.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ResultRow is one finished game.
type ResultRow struct {
	GameID      string
	WinnerID    string
	WinnerName  string
	WinnerScore int
	Standings   string // JSON array of Standing, in join order
	FinishedAt  time.Time
}

// Standing is one player's final total.
type Standing struct {
	Name string `json:"name"`
	Sum  int    `json:"sum"`
}

// Store handles SQLite persistence.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database and runs migrations.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// WAL mode for better concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS results (
			game_id      TEXT PRIMARY KEY,
			winner_id    TEXT NOT NULL,
			winner_name  TEXT NOT NULL,
			winner_score INTEGER NOT NULL,
			standings    TEXT NOT NULL,
			finished_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}

// SaveResult inserts a finished game.
func (s *Store) SaveResult(row ResultRow) error {
	_, err := s.db.Exec(
		"INSERT INTO results (game_id, winner_id, winner_name, winner_score, standings) VALUES (?, ?, ?, ?, ?)",
		row.GameID, row.WinnerID, row.WinnerName, row.WinnerScore, row.Standings,
	)
	return err
}

// GetResult retrieves one result by game id.
func (s *Store) GetResult(gameID string) (*ResultRow, error) {
	row := s.db.QueryRow(
		"SELECT game_id, winner_id, winner_name, winner_score, standings, finished_at FROM results WHERE game_id = ?",
		gameID,
	)
	var rr ResultRow
	if err := row.Scan(&rr.GameID, &rr.WinnerID, &rr.WinnerName, &rr.WinnerScore, &rr.Standings, &rr.FinishedAt); err != nil {
		return nil, err
	}
	return &rr, nil
}

// ListResults returns the most recent results, newest first.
func (s *Store) ListResults(limit int) ([]ResultRow, error) {
	rows, err := s.db.Query(
		"SELECT game_id, winner_id, winner_name, winner_score, standings, finished_at FROM results ORDER BY finished_at DESC, game_id LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []ResultRow
	for rows.Next() {
		var rr ResultRow
		if err := rows.Scan(&rr.GameID, &rr.WinnerID, &rr.WinnerName, &rr.WinnerScore, &rr.Standings, &rr.FinishedAt); err != nil {
			return nil, err
		}
		result = append(result, rr)
	}
	return result, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
