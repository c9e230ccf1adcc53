package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"yams/internal/dice"
	"yams/internal/game"
	"yams/internal/storage"
)

// --- Test environment ---

type testEnv struct {
	ts       *httptest.Server
	registry *game.Registry
	store    *storage.Store
}

// stubRoller returns a fixed face for every die, avoiding the physics
// simulation in transport tests.
type stubRoller struct {
	face int
	seed uint32
}

func (s *stubRoller) Roll(count int) (dice.Outcome, error) {
	faces := make([]int, count)
	for i := range faces {
		faces[i] = s.face
	}
	return dice.Outcome{Faces: faces, Seed: s.seed}, nil
}

func setupTestEnv(t *testing.T, roller game.Roller) *testEnv {
	t.Helper()
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if roller == nil {
		roller = &stubRoller{face: 1, seed: 42}
	}
	hub := NewHub()
	registry := game.NewRegistry(roller, hub, store)
	srv := New(registry, hub, store)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, registry: registry, store: store}
}

func timeoutCtx(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// --- REST API helpers ---

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response from %s: %v", url, err)
	}
	return resp, decoded
}

func createGameViaAPI(t *testing.T, ts *httptest.Server, playerCount, columns int) string {
	t.Helper()
	body := fmt.Sprintf(`{"playerCount":%d,"columns":%d}`, playerCount, columns)
	resp, decoded := postJSON(t, ts.URL+"/api/games", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	id, _ := decoded["id"].(string)
	if id == "" {
		t.Fatal("expected game id in response")
	}
	return id
}

func joinGameViaAPI(t *testing.T, ts *httptest.Server, gameID, name string) string {
	t.Helper()
	resp, decoded := postJSON(t, ts.URL+"/api/games/"+gameID+"/join", fmt.Sprintf(`{"name":%q}`, name))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	id, _ := decoded["id"].(string)
	if id == "" {
		t.Fatal("expected player id in response")
	}
	return id
}

func readyViaAPI(t *testing.T, ts *httptest.Server, gameID, playerID string) {
	t.Helper()
	resp, _ := postJSON(t, ts.URL+"/api/games/"+gameID+"/ready", fmt.Sprintf(`{"playerId":%q}`, playerID))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

// --- WebSocket helpers ---

func wsURL(ts *httptest.Server, gameID string) string {
	return strings.Replace(ts.URL, "http://", "ws://", 1) + "/api/games/" + gameID + "/ws"
}

// wsDialRaw dials without failing the test, for negative cases.
func wsDialRaw(ctx context.Context, ts *httptest.Server, gameID string) (*http.Response, error) {
	conn, resp, err := websocket.Dial(ctx, wsURL(ts, gameID), nil)
	if conn != nil {
		conn.Close(websocket.StatusNormalClosure, "")
	}
	return resp, err
}

func wsDial(ctx context.Context, t *testing.T, ts *httptest.Server, gameID string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, wsURL(ts, gameID), nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func wsSendAction(ctx context.Context, t *testing.T, conn *websocket.Conn, gameID, playerID, action string, payload any) {
	t.Helper()
	msg := clientMessage{GameID: gameID, PlayerID: playerID, Action: action}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		msg.Payload = data
	}
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal message: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("ws write: %v", err)
	}
}

func wsRead(ctx context.Context, t *testing.T, conn *websocket.Conn) serverMessage {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("ws read: %v", err)
	}
	var msg serverMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal ws message: %v", err)
	}
	return msg
}

// readState reads one message and expects a full state snapshot.
func readState(ctx context.Context, t *testing.T, conn *websocket.Conn) game.Snapshot {
	t.Helper()
	msg := wsRead(ctx, t, conn)
	if msg.Type != "state" || msg.Game == nil {
		t.Fatalf("expected state message, got %q (%s)", msg.Type, msg.Message)
	}
	return *msg.Game
}

// readRender reads one message and expects a roll-animation cue.
func readRender(ctx context.Context, t *testing.T, conn *websocket.Conn) game.RoundSnapshot {
	t.Helper()
	msg := wsRead(ctx, t, conn)
	if msg.Type != "renderInformation" || msg.RenderInformation == nil {
		t.Fatalf("expected renderInformation message, got %q (%s)", msg.Type, msg.Message)
	}
	return *msg.RenderInformation
}

// readError reads one message and expects an error.
func readError(ctx context.Context, t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	msg := wsRead(ctx, t, conn)
	if msg.Type != "error" {
		t.Fatalf("expected error message, got %q", msg.Type)
	}
	return msg.Message
}
