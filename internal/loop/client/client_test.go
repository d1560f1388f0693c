package client

import (
	"bufio"
	"bytes"
	"io"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/tomz197/clicktest/internal/audio"
	"github.com/tomz197/clicktest/internal/input"
	"github.com/tomz197/clicktest/internal/loop"
	"github.com/tomz197/clicktest/internal/loop/config"
	"github.com/tomz197/clicktest/internal/loop/server"
	"github.com/tomz197/clicktest/internal/object"
	"github.com/tomz197/clicktest/internal/store"
)

// fakeServer is a GameServer that records submissions.
type fakeServer struct {
	mu         sync.Mutex
	records    []store.Record
	registered int
	left       []int
}

func (f *fakeServer) RegisterClient(username string) *server.ClientHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered++
	return &server.ClientHandle{ID: f.registered, Username: username, EventsCh: make(chan server.ClientEvent, 1)}
}

func (f *fakeServer) UnregisterClient(id int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.left = append(f.left, id)
}

func (f *fakeServer) Submit(rec store.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
}

func (f *fakeServer) GetSnapshot() *server.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &server.Snapshot{Players: f.registered - len(f.left)}
}

func newTestClient(t *testing.T, out io.Writer) (*Client, *fakeServer) {
	t.Helper()
	fs := &fakeServer{}
	c := NewClient(fs, bufio.NewReader(strings.NewReader("")), out, ClientOptions{
		TermSizeFunc: func() (int, int, error) { return 160, 50, nil },
		Username:     "tester",
		Cues:         audio.Nop{},
		Rand:         rand.New(rand.NewSource(7)),
		Logger:       log.New(io.Discard),
	})
	return c, fs
}

// step feeds one frame of input through the update logic.
func step(c *Client, in input.Input) {
	c.state.Input = in
	c.update()
	c.state.updateEffects()
}

func identify(t *testing.T, c *Client) {
	t.Helper()
	step(c, input.Input{Text: []rune("Anna")})
	step(c, input.Input{Enter: true})
	step(c, input.Input{Text: []rune("PS42")})
	step(c, input.Input{Enter: true})
	if c.session.Phase != loop.PhaseInstructions {
		t.Fatalf("Expected instructions after identify, got %s", c.session.Phase)
	}
}

func TestClampTermSize(t *testing.T) {
	tests := []struct {
		name                   string
		w, h                   int
		rw, rh, offCol, offRow int
	}{
		{"fits", 100, 40, 100, 40, 0, 0},
		{"exact", config.MaxTermWidth, config.MaxTermHeight, config.MaxTermWidth, config.MaxTermHeight, 0, 0},
		{"wide", 200, 40, config.MaxTermWidth, 40, 20, 0},
		{"tall", 100, 70, 100, config.MaxTermHeight, 0, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rw, rh, oc, or := clampTermSize(tt.w, tt.h)
			if rw != tt.rw || rh != tt.rh || oc != tt.offCol || or != tt.offRow {
				t.Errorf("clampTermSize(%d, %d) = %d, %d, %d, %d; want %d, %d, %d, %d",
					tt.w, tt.h, rw, rh, oc, or, tt.rw, tt.rh, tt.offCol, tt.offRow)
			}
		})
	}
}

func TestMouseButton(t *testing.T) {
	if mouseButton(input.MouseLeft) != object.ButtonPrimary {
		t.Error("Expected left to map to primary")
	}
	if mouseButton(input.MouseRight) != object.ButtonSecondary {
		t.Error("Expected right to map to secondary")
	}
	if mouseButton(input.MouseMiddle) != object.ButtonNone {
		t.Error("Expected middle to map to none")
	}
}

func TestIdentifyValidation(t *testing.T) {
	c, _ := newTestClient(t, io.Discard)

	step(c, input.Input{Enter: true})
	if c.state.Form.err != "Please enter your first name" {
		t.Errorf("Unexpected message %q", c.state.Form.err)
	}

	step(c, input.Input{Text: []rune("Anna")})
	step(c, input.Input{Tab: true})
	step(c, input.Input{Enter: true})
	if c.state.Form.err != "Please enter your PS number" {
		t.Errorf("Unexpected message %q", c.state.Form.err)
	}
	if c.state.Form.focus != 1 {
		t.Error("Expected focus on the id field")
	}

	step(c, input.Input{Text: []rune("wrong")})
	step(c, input.Input{Escape: true})
	step(c, input.Input{Text: []rune("PS9x")})
	step(c, input.Input{Backspace: true})
	step(c, input.Input{Enter: true})
	if c.session.Player.IDNumber != "PS9" {
		t.Errorf("Expected id PS9, got %q", c.session.Player.IDNumber)
	}
	if c.state.Form.firstName() != "" {
		t.Error("Expected form reset after identify")
	}
}

func TestFieldLengthLimit(t *testing.T) {
	var f identifyForm
	f.typeRunes([]rune(strings.Repeat("a", maxFieldLength+5)))
	if len(f.fields[0]) != maxFieldLength {
		t.Errorf("Expected %d runes, got %d", maxFieldLength, len(f.fields[0]))
	}
}

func TestClickOnBallScores(t *testing.T) {
	c, _ := newTestClient(t, io.Discard)
	identify(t, c)
	step(c, input.Input{Enter: true})
	if c.session.Phase != loop.PhasePlaying || !c.session.Round.Active() {
		t.Fatal("Expected an active first round")
	}

	ball := c.session.Round.Ball
	col, row := c.canvas.LogicalToTerminal(ball.X, ball.Y)
	step(c, input.Input{Clicks: []input.Click{{Col: col, Row: row, Button: input.MouseLeft}}})

	if c.session.Round.Phase != loop.RoundSuccess {
		t.Fatalf("Expected success, got %s", c.session.Round.Phase)
	}
	if c.session.Round.Points != config.PointsPerLevel {
		t.Errorf("Expected %d points, got %d", config.PointsPerLevel, c.session.Round.Points)
	}
	if len(c.state.Effects) != hitParticles+1 {
		t.Errorf("Expected %d effects, got %d", hitParticles+1, len(c.state.Effects))
	}

	step(c, input.Input{Enter: true})
	if c.session.Level != 2 || !c.session.Round.Active() {
		t.Errorf("Expected active level 2, got level %d", c.session.Level)
	}
	if c.session.Score != config.PointsPerLevel {
		t.Errorf("Expected banked score %d, got %d", config.PointsPerLevel, c.session.Score)
	}
	if len(c.state.Effects) != 0 {
		t.Error("Expected effects cleared between levels")
	}
}

func TestClickOutsideCanvasIgnored(t *testing.T) {
	c, _ := newTestClient(t, io.Discard)
	identify(t, c)
	step(c, input.Input{Enter: true})

	step(c, input.Input{Clicks: []input.Click{{Col: 500, Row: 500, Button: input.MouseLeft}}})
	if !c.session.Round.Active() {
		t.Error("Expected round still active")
	}
}

// playPerfect finishes the session with every ball hit immediately.
func playPerfect(t *testing.T, c *Client) {
	t.Helper()
	s := c.session
	for s.Phase == loop.PhasePlaying {
		if s.Round.Phase == loop.RoundRules {
			step(c, input.Input{Enter: true})
		}
		ball := s.Round.Ball
		b := object.ButtonPrimary
		if ball.Color == object.ColorSecondary {
			b = object.ButtonSecondary
		}
		s.Click(ball.X, ball.Y, b)
		step(c, input.Input{Enter: true})
	}
}

func TestResultsRestartAndNewPerson(t *testing.T) {
	c, fs := newTestClient(t, io.Discard)
	identify(t, c)
	step(c, input.Input{Enter: true})
	playPerfect(t, c)

	if c.session.Phase != loop.PhaseResults {
		t.Fatalf("Expected results, got %s", c.session.Phase)
	}
	if len(fs.records) != 1 || fs.records[0].TotalScore != config.MaxScore {
		t.Fatalf("Expected one perfect record, got %+v", fs.records)
	}

	step(c, input.Input{Text: []rune("r")})
	if c.state.Notice == "" || c.session.Phase != loop.PhaseResults {
		t.Error("Expected restart refused after a pass")
	}

	step(c, input.Input{Text: []rune("n")})
	if c.session.Phase != loop.PhaseIdentify {
		t.Errorf("Expected identify after new person, got %s", c.session.Phase)
	}
	if c.state.Notice != "" {
		t.Error("Expected notice cleared")
	}
}

func TestShutdownEvent(t *testing.T) {
	c, _ := newTestClient(t, io.Discard)
	c.handle.EventsCh <- server.ClientEvent{Type: server.EventServerShutdown}
	c.processServerEvents()
	if !c.state.shutdown {
		t.Fatal("Expected shutdown state")
	}

	c.state.Input = input.Input{Text: []rune("q")}
	c.updateShutdownState()
	if c.state.Running {
		t.Error("Expected q to leave during shutdown")
	}
}

func TestDrawFrameScreens(t *testing.T) {
	var out bytes.Buffer
	c, _ := newTestClient(t, &out)

	if err := c.drawFrame(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "First name") {
		t.Error("Expected the identify form")
	}

	identify(t, c)
	out.Reset()
	if err := c.drawFrame(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Welcome, Anna!") {
		t.Error("Expected the instructions card")
	}

	step(c, input.Input{Enter: true})
	out.Reset()
	if err := c.drawFrame(); err != nil {
		t.Fatal(err)
	}
	frame := out.String()
	if !strings.Contains(frame, "Level  1 / 20") {
		t.Error("Expected the level indicator")
	}
	if !strings.Contains(frame, "Time: 10.0s") {
		t.Error("Expected the countdown")
	}
	if !strings.Contains(frame, "▀") && !strings.Contains(frame, "▄") && !strings.Contains(frame, "█") {
		t.Error("Expected ball pixels")
	}
}
