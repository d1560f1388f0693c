package loop

import (
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/clicktest/internal/audio"
	"github.com/tomz197/clicktest/internal/level"
	"github.com/tomz197/clicktest/internal/object"
	"github.com/tomz197/clicktest/internal/store"
)

// Phase is the screen a session is on.
type Phase int

const (
	PhaseIdentify     Phase = iota // Name and id entry
	PhaseInstructions              // Rules explained, waiting for start
	PhasePlaying                   // Levels 1..20
	PhaseResults                   // Final score shown
)

func (p Phase) String() string {
	switch p {
	case PhaseIdentify:
		return "identify"
	case PhaseInstructions:
		return "instructions"
	case PhasePlaying:
		return "playing"
	case PhaseResults:
		return "results"
	default:
		return "unknown"
	}
}

// RoundPhase is the state of the current level attempt.
type RoundPhase int

const (
	RoundRules   RoundPhase = iota // Color-rule interstitial, nothing moves
	RoundActive                    // Ball moving, timer running
	RoundSuccess                   // Ball hit, points earned
	RoundTimeout                   // Timer ran out, no points
	RoundLost                      // Last life lost, session over
)

func (p RoundPhase) String() string {
	switch p {
	case RoundRules:
		return "rules"
	case RoundActive:
		return "active"
	case RoundSuccess:
		return "success"
	case RoundTimeout:
		return "timeout"
	case RoundLost:
		return "lost"
	default:
		return "unknown"
	}
}

var (
	ErrFirstNameRequired = errors.New("first name is required")
	ErrIDNumberRequired  = errors.New("id number is required")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrRestartNotAllowed = errors.New("restart is only available after a failed attempt")
)

// Player identifies the person taking the test.
type Player struct {
	FirstName string
	IDNumber  string
}

// ResultSink receives finished results. Submit must not block.
type ResultSink interface {
	Submit(rec store.Record)
}

// Options configures a Session. Zero values select production defaults.
type Options struct {
	Arena  object.Arena
	Rand   level.Rand       // Spawn randomness
	Clock  func() time.Time // Session start and completion timestamps
	Cues   audio.Cues       // Hit feedback
	Sink   ResultSink       // Where finished results go
	Logger *log.Logger
}

// Session is the whole life of one test: identification, instructions, the
// levels and the results. It is owned by a single goroutine; nothing in it is
// safe for concurrent use.
type Session struct {
	Phase      Phase
	Player     Player
	Level      int
	Score      int
	Lives      int
	RulesShown bool // Color-rule interstitial already shown in this session
	Round      *Round
	StartedAt  time.Time
	Result     *Result

	arena  object.Arena
	rand   level.Rand
	clock  func() time.Time
	cues   audio.Cues
	sink   ResultSink
	logger *log.Logger
}
