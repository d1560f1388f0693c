package loop

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/clicktest/internal/audio"
	"github.com/tomz197/clicktest/internal/level"
	"github.com/tomz197/clicktest/internal/loop/config"
	"github.com/tomz197/clicktest/internal/object"
)

// NewSession returns a session waiting for identification.
func NewSession(opts Options) *Session {
	s := &Session{
		Phase:  PhaseIdentify,
		Level:  1,
		Lives:  config.InitialLives,
		arena:  opts.Arena,
		rand:   opts.Rand,
		clock:  opts.Clock,
		cues:   opts.Cues,
		sink:   opts.Sink,
		logger: opts.Logger,
	}
	if s.arena.Width <= 0 || s.arena.Height <= 0 {
		s.arena = object.DefaultArena()
	}
	if s.rand == nil {
		s.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.cues == nil {
		s.cues = audio.Nop{}
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	return s
}

// Arena returns the playfield the session spawns balls in.
func (s *Session) Arena() object.Arena { return s.arena }

func (s *Session) transitionErr(op string) error {
	return fmt.Errorf("%s during %s: %w", op, s.Phase, ErrInvalidTransition)
}

// Identify records who is taking the test. Both fields are trimmed and must
// be non-empty.
func (s *Session) Identify(firstName, idNumber string) error {
	if s.Phase != PhaseIdentify {
		return s.transitionErr("identify")
	}
	firstName = strings.TrimSpace(firstName)
	idNumber = strings.TrimSpace(idNumber)
	if firstName == "" {
		return ErrFirstNameRequired
	}
	if idNumber == "" {
		return ErrIDNumberRequired
	}
	s.Player = Player{FirstName: firstName, IDNumber: idNumber}
	s.Phase = PhaseInstructions
	s.logger.Info("Player identified", "name", firstName, "id", idNumber)
	return nil
}

// Start begins level 1 with a fresh score and full lives.
func (s *Session) Start() error {
	if s.Phase != PhaseInstructions {
		return s.transitionErr("start")
	}
	s.Score = 0
	s.Level = 1
	s.Lives = config.InitialLives
	s.Result = nil
	s.StartedAt = s.clock()
	s.Phase = PhasePlaying
	s.beginRound()
	s.logger.Debug("Session started", "id", s.Player.IDNumber)
	return nil
}

func (s *Session) beginRound() {
	rules := s.Level == config.RulesLevel && !s.RulesShown
	s.Round = NewRound(s.Level, s.rand, s.arena, rules)
}

// AcknowledgeRules dismisses the color-rule interstitial and starts the round.
func (s *Session) AcknowledgeRules() error {
	if s.Phase != PhasePlaying || s.Round == nil || s.Round.Phase != RoundRules {
		return s.transitionErr("acknowledge rules")
	}
	s.RulesShown = true
	return s.Round.Start()
}

// Frame runs one physics step of the current round.
func (s *Session) Frame() {
	if s.Phase == PhasePlaying && s.Round != nil {
		s.Round.Frame(s.arena)
	}
}

// Advance feeds wall time to the round timer.
func (s *Session) Advance(dt time.Duration) {
	if s.Phase == PhasePlaying && s.Round != nil {
		before := s.Round.Phase
		s.Round.Advance(dt)
		if before == RoundActive && s.Round.Phase == RoundTimeout {
			s.logger.Debug("Level timed out", "level", s.Level)
		}
	}
}

// Click applies a click at arena coordinates (x, y). Clicks outside an active
// round are misses.
func (s *Session) Click(x, y float64, b object.Button) level.Outcome {
	return s.ClickAt(0, x, y, b)
}

// ClickAt applies a click aimed at the ball as it was drawn at frame seq.
func (s *Session) ClickAt(seq uint64, x, y float64, b object.Button) level.Outcome {
	if s.Phase != PhasePlaying || s.Round == nil {
		return level.Miss
	}
	out := s.Round.ClickAt(seq, x, y, b)
	switch out {
	case level.Hit:
		s.cues.Success()
		s.logger.Debug("Level won", "level", s.Level, "points", s.Round.Points)
	case level.WrongColor:
		s.cues.Error()
		s.Lives--
		s.logger.Debug("Wrong button", "level", s.Level, "lives", s.Lives)
		if s.Lives <= 0 {
			s.Lives = 0
			s.Round.lose()
			s.finish()
		}
	}
	return out
}

// Continue banks the finished round and moves on to the next level, or to
// the results after the last one.
func (s *Session) Continue() error {
	if s.Phase != PhasePlaying || s.Round == nil || !s.Round.Complete() {
		return s.transitionErr("continue")
	}
	s.Score += s.Round.Points
	if s.Level >= config.MaxLevel {
		s.finish()
		return nil
	}
	s.Level++
	s.beginRound()
	return nil
}

func (s *Session) finish() {
	res := NewResult(s.Player, s.Score, s.StartedAt, s.clock())
	s.Result = &res
	s.Phase = PhaseResults
	s.logger.Info("Session finished",
		"name", res.Player.FirstName,
		"id", res.Player.IDNumber,
		"score", res.TotalScore,
		"percentage", res.Percentage.StringFixed(2),
		"passed", res.Passed,
		"seconds", res.PlayTimeSeconds,
	)
	if s.sink != nil {
		s.sink.Submit(res.Record())
	}
}

// Restart sends a failed player back to the instructions with the same identity.
func (s *Session) Restart() error {
	if s.Phase != PhaseResults || s.Result == nil {
		return s.transitionErr("restart")
	}
	if s.Result.Passed {
		return ErrRestartNotAllowed
	}
	s.reset()
	s.Phase = PhaseInstructions
	return nil
}

// NewPerson clears the session for the next player.
func (s *Session) NewPerson() error {
	if s.Phase != PhaseResults {
		return s.transitionErr("new person")
	}
	s.reset()
	s.Player = Player{}
	s.RulesShown = false
	s.Phase = PhaseIdentify
	return nil
}

func (s *Session) reset() {
	s.Score = 0
	s.Level = 1
	s.Lives = config.InitialLives
	s.Round = nil
	s.Result = nil
	s.StartedAt = time.Time{}
}
