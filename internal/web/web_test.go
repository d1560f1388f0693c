package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/tomz197/clicktest/internal/loop/config"
	"github.com/tomz197/clicktest/internal/loop/server"
	"github.com/tomz197/clicktest/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *server.Server) {
	t.Helper()
	gs := server.NewServer(nil, log.New(io.Discard))
	ctx, cancel := context.WithCancel(context.Background())
	go gs.Run(ctx)
	t.Cleanup(cancel)

	h := NewHandler(Options{
		Server:  gs,
		SSHHost: "test.example.org",
		Seed:    42,
		Logger:  log.New(io.Discard),
	})
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts, gs
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads messages until match accepts one.
func readUntil(t *testing.T, conn *websocket.Conn, match func(message) bool) message {
	t.Helper()
	m, err := readWithin(conn, 5*time.Second, match)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	return m
}

func readWithin(conn *websocket.Conn, d time.Duration, match func(message) bool) (message, error) {
	_ = conn.SetReadDeadline(time.Now().Add(d))
	for {
		var m message
		if err := conn.ReadJSON(&m); err != nil {
			return m, err
		}
		if match(m) {
			return m, nil
		}
	}
}

func statePhase(phase, round string) func(message) bool {
	return func(m message) bool {
		return m.Type == msgState && m.State.Phase == phase && m.State.RoundPhase == round
	}
}

func send(t *testing.T, conn *websocket.Conn, cmd command) {
	t.Helper()
	if err := conn.WriteJSON(cmd); err != nil {
		t.Fatalf("Write: %v", err)
	}
}

func TestServePage(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "ssh -t test.example.org") {
		t.Error("Expected the SSH host in the page")
	}
	if strings.Contains(string(body), "{{.SSHHost}}") {
		t.Error("Expected the placeholder replaced")
	}

	resp, err = http.Get(ts.URL + "/missing")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown paths, got %d", resp.StatusCode)
	}
}

func TestServeScores(t *testing.T) {
	ts, gs := newTestServer(t)
	gs.Submit(store.Record{FirstName: "Anna", TotalScore: 150, Percentage: 75, Passed: true})

	resp, err := http.Get(ts.URL + "/api/scores")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var got scoresResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Finished != 1 || got.Passed != 1 {
		t.Errorf("Expected 1 finished and passed, got %+v", got)
	}
	if len(got.TopScores) != 1 || got.TopScores[0].FirstName != "Anna" || got.TopScores[0].Score != 150 {
		t.Errorf("Unexpected leaderboard %+v", got.TopScores)
	}
}

func TestIdentifyValidation(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := dial(t, ts)

	readUntil(t, conn, statePhase("identify", ""))

	send(t, conn, command{Type: cmdIdentify, FirstName: "  ", IDNumber: "PS1"})
	m := readUntil(t, conn, func(m message) bool { return m.Type == msgError })
	if m.Message != "Please enter your first name" {
		t.Errorf("Unexpected error %q", m.Message)
	}

	send(t, conn, command{Type: cmdIdentify, FirstName: "Anna", IDNumber: ""})
	m = readUntil(t, conn, func(m message) bool { return m.Type == msgError })
	if m.Message != "Please enter your PS number" {
		t.Errorf("Unexpected error %q", m.Message)
	}

	send(t, conn, command{Type: cmdIdentify, FirstName: " Anna ", IDNumber: "PS123"})
	m = readUntil(t, conn, statePhase("instructions", ""))
	if m.State.FirstName != "Anna" || m.State.IDNumber != "PS123" {
		t.Errorf("Expected trimmed player, got %q %q", m.State.FirstName, m.State.IDNumber)
	}
}

func TestPlayLevelOverWebSocket(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := dial(t, ts)

	send(t, conn, command{Type: cmdIdentify, FirstName: "Anna", IDNumber: "PS123"})
	readUntil(t, conn, statePhase("instructions", ""))

	send(t, conn, command{Type: cmdStart})
	m := readUntil(t, conn, statePhase("playing", "active"))
	if m.State.Level != 1 || m.State.Lives != config.InitialLives || m.State.Ball == nil {
		t.Fatalf("Unexpected first round %+v", m.State)
	}

	ball := m.State.Ball
	send(t, conn, command{Type: cmdClick, X: ball.X, Y: ball.Y, Button: 0})
	readUntil(t, conn, func(m message) bool { return m.Type == msgCue && m.Cue == "success" })
	m = readUntil(t, conn, statePhase("playing", "success"))
	if m.State.Points < 1 || m.State.Points > config.PointsPerLevel {
		t.Errorf("Expected 1..%d points, got %d", config.PointsPerLevel, m.State.Points)
	}

	send(t, conn, command{Type: cmdContinue})
	m = readUntil(t, conn, statePhase("playing", "active"))
	if m.State.Level != 2 || m.State.Score < 1 {
		t.Errorf("Expected level 2 with the banked score, got level %d score %d", m.State.Level, m.State.Score)
	}
}

func TestClickOnStaleBallAtEveryLevel(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := dial(t, ts)

	send(t, conn, command{Type: cmdIdentify, FirstName: "Anna", IDNumber: "PS123"})
	readUntil(t, conn, statePhase("instructions", ""))
	send(t, conn, command{Type: cmdStart})

	for n := 1; n <= config.MaxLevel; n++ {
		m := readUntil(t, conn, func(m message) bool {
			return m.Type == msgState && m.State.Level == n &&
				(m.State.RoundPhase == "active" || m.State.RoundPhase == "rules")
		})
		if m.State.RoundPhase == "rules" {
			send(t, conn, command{Type: cmdAck})
			m = readUntil(t, conn, statePhase("playing", "active"))
		}

		// Several frames pass before the click lands, as they do for a real
		// page drawing at its own pace behind network latency.
		ball := m.State.Ball
		time.Sleep(100 * time.Millisecond)
		button := 0
		if ball.Color == "secondary" {
			button = 2
		}
		send(t, conn, command{Type: cmdClick, X: ball.X, Y: ball.Y, Button: button, Seq: ball.Seq})

		if _, err := readWithin(conn, 3*time.Second, statePhase("playing", "success")); err != nil {
			t.Fatalf("Level %d: expected a hit on the ball drawn at seq %d, got %v", n, ball.Seq, err)
		}
		send(t, conn, command{Type: cmdContinue})
	}

	m := readUntil(t, conn, statePhase("results", ""))
	if m.State.Result == nil || !m.State.Result.Passed {
		t.Errorf("Expected a passing result, got %+v", m.State.Result)
	}
}

func TestCommandErrors(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := dial(t, ts)
	readUntil(t, conn, statePhase("identify", ""))

	send(t, conn, command{Type: "dance"})
	m := readUntil(t, conn, func(m message) bool { return m.Type == msgError })
	if !strings.Contains(m.Message, "dance") {
		t.Errorf("Unexpected error %q", m.Message)
	}

	// Wrong-phase commands are ignored, malformed JSON is skipped
	send(t, conn, command{Type: cmdContinue})
	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	send(t, conn, command{Type: cmdIdentify, FirstName: "Ben", IDNumber: "PS7"})
	readUntil(t, conn, func(m message) bool {
		if m.Type == msgError {
			t.Errorf("Unexpected error %q", m.Message)
		}
		return m.Type == msgState && m.State.Phase == "instructions"
	})
}

func TestShutdownNotifiesBrowser(t *testing.T) {
	ts, gs := newTestServer(t)
	conn := dial(t, ts)
	readUntil(t, conn, statePhase("identify", ""))

	go gs.Shutdown(2 * time.Second)

	m := readUntil(t, conn, func(m message) bool { return m.Type == msgShutdown })
	if m.Message == "" {
		t.Error("Expected a shutdown message")
	}
}

func TestDomButton(t *testing.T) {
	if domButton(0).String() != "primary" || domButton(2).String() != "secondary" || domButton(1).String() != "none" {
		t.Error("Unexpected button mapping")
	}
}

func TestConnectDuringShutdown(t *testing.T) {
	ts, gs := newTestServer(t)
	gs.Shutdown(0)

	conn := dial(t, ts)
	m := readUntil(t, conn, func(m message) bool { return m.Type == msgShutdown })
	if m.Message == "" {
		t.Error("Expected a shutdown message")
	}
	if got := gs.GetSnapshot().Players; got != 0 {
		t.Errorf("Expected the late browser not counted, got %d players", got)
	}
}
