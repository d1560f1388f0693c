package web

import (
	"github.com/tomz197/clicktest/internal/loop"
	"github.com/tomz197/clicktest/internal/loop/server"
)

// Client to server commands.
const (
	cmdIdentify  = "identify"
	cmdStart     = "start"
	cmdAck       = "ack"
	cmdClick     = "click"
	cmdContinue  = "continue"
	cmdRestart   = "restart"
	cmdNewPerson = "new_person"
)

// Server to client message types.
const (
	msgState    = "state"
	msgCue      = "cue"
	msgError    = "error"
	msgShutdown = "shutdown"
)

// command is a message read from the browser.
type command struct {
	Type      string  `json:"type"`
	FirstName string  `json:"first_name,omitempty"`
	IDNumber  string  `json:"ps_number,omitempty"`
	X         float64 `json:"x,omitempty"`
	Y         float64 `json:"y,omitempty"`
	Button    int     `json:"button,omitempty"` // DOM MouseEvent.button
	Seq       uint64  `json:"seq,omitempty"`    // Ball frame the page was drawing
}

// message is pushed to the browser.
type message struct {
	Type    string         `json:"type"`
	State   *loop.Snapshot `json:"state,omitempty"`
	Players int            `json:"players,omitempty"`
	Cue     string         `json:"cue,omitempty"`
	Message string         `json:"message,omitempty"`
}

// scoresResponse is served by /api/scores.
type scoresResponse struct {
	Players   int                    `json:"players"`
	Finished  int                    `json:"finished"`
	Passed    int                    `json:"passed"`
	TopScores []server.TopScoreEntry `json:"top_scores"`
}
