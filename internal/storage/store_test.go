package storage

import (
	"database/sql"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRow(gameID string) ResultRow {
	return ResultRow{
		GameID:      gameID,
		WinnerID:    "p1",
		WinnerName:  "alice",
		WinnerScore: 180,
		Standings:   `[{"name":"alice","sum":180},{"name":"bob","sum":120}]`,
	}
}

func TestSaveAndGetResult(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveResult(sampleRow("g1")); err != nil {
		t.Fatalf("save result: %v", err)
	}

	got, err := s.GetResult("g1")
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	if got.WinnerName != "alice" {
		t.Fatalf("expected winner alice, got %s", got.WinnerName)
	}
	if got.WinnerScore != 180 {
		t.Fatalf("expected score 180, got %d", got.WinnerScore)
	}
	if got.Standings != sampleRow("g1").Standings {
		t.Fatalf("unexpected standings: %s", got.Standings)
	}
	if got.FinishedAt.IsZero() {
		t.Fatal("expected non-zero FinishedAt")
	}
}

func TestSaveResultDuplicate(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveResult(sampleRow("g1")); err != nil {
		t.Fatalf("save result: %v", err)
	}
	if err := s.SaveResult(sampleRow("g1")); err == nil {
		t.Fatal("expected error on duplicate game id")
	}
}

func TestGetResultNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetResult("nonexistent")
	if err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestListResults(t *testing.T) {
	s := newTestStore(t)
	for _, id := range []string{"g1", "g2", "g3"} {
		if err := s.SaveResult(sampleRow(id)); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	rows, err := s.ListResults(10)
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 results, got %d", len(rows))
	}

	rows, err = s.ListResults(2)
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 results, got %d", len(rows))
	}
}

func TestListResultsEmpty(t *testing.T) {
	s := newTestStore(t)
	rows, err := s.ListResults(10)
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected 0 results, got %d", len(rows))
	}
}
