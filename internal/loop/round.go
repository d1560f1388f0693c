package loop

import (
	"time"

	"github.com/tomz197/clicktest/internal/level"
	"github.com/tomz197/clicktest/internal/loop/config"
	"github.com/tomz197/clicktest/internal/object"
)

// Round is a single attempt at one level.
type Round struct {
	Level     int
	Ball      object.Ball
	Phase     RoundPhase
	Remaining time.Duration
	Points    int
	Seq       uint64 // Physics frames since spawn, starting at 1

	pending time.Duration // Wall time not yet consumed by a timer step
	history [config.BallHistoryFrames]object.Ball
}

// NewRound spawns the ball for level n. With rules set the round waits in
// RoundRules until Start is called; otherwise it is active immediately.
func NewRound(n int, r level.Rand, a object.Arena, rules bool) *Round {
	phase := RoundActive
	if rules {
		phase = RoundRules
	}
	round := &Round{
		Level:     level.Clamp(n),
		Ball:      level.Generate(n, r, a),
		Phase:     phase,
		Remaining: config.LevelTime,
		Seq:       1,
	}
	round.remember()
	return round
}

// Active reports whether the ball moves and the timer runs.
func (r *Round) Active() bool { return r.Phase == RoundActive }

// Complete reports whether the round ended in a way that lets the session continue.
func (r *Round) Complete() bool {
	return r.Phase == RoundSuccess || r.Phase == RoundTimeout
}

// Start leaves the rules interstitial.
func (r *Round) Start() error {
	if r.Phase != RoundRules {
		return ErrInvalidTransition
	}
	r.Phase = RoundActive
	return nil
}

// Frame advances the ball by one physics step.
func (r *Round) Frame(a object.Arena) {
	if !r.Active() {
		return
	}
	r.Ball = r.Ball.Step(a)
	r.Seq++
	r.remember()
}

func (r *Round) remember() {
	r.history[r.Seq%config.BallHistoryFrames] = r.Ball
}

// BallAt returns the ball as it was at frame seq. Zero, future and expired
// sequence numbers give the current ball.
func (r *Round) BallAt(seq uint64) object.Ball {
	if seq == 0 || seq > r.Seq || r.Seq-seq >= config.BallHistoryFrames {
		return r.Ball
	}
	return r.history[seq%config.BallHistoryFrames]
}

// Advance feeds wall time to the countdown. The timer moves in whole
// TimerStep ticks; leftover time carries into the next call.
func (r *Round) Advance(dt time.Duration) {
	if !r.Active() || dt <= 0 {
		return
	}
	r.pending += dt
	for r.pending >= config.TimerStep && r.Active() {
		r.pending -= config.TimerStep
		r.Remaining -= config.TimerStep
		if r.Remaining <= 0 {
			r.Remaining = 0
			r.Points = 0
			r.Phase = RoundTimeout
		}
	}
}

// Click evaluates a click in arena coordinates. A hit scores the time left and
// ends the round; other outcomes leave it running.
func (r *Round) Click(x, y float64, b object.Button) level.Outcome {
	return r.ClickAt(0, x, y, b)
}

// ClickAt is Click judged against the ball at frame seq, for renderers that
// draw a ball a few frames behind the simulation.
func (r *Round) ClickAt(seq uint64, x, y float64, b object.Button) level.Outcome {
	if !r.Active() {
		return level.Miss
	}
	out := level.Evaluate(x, y, b, r.BallAt(seq), r.Level)
	if out == level.Hit {
		if r.Remaining <= 0 {
			panic("loop: hit on a round with no time left")
		}
		r.Points = level.Score(r.Remaining, config.LevelTime)
		r.Phase = RoundSuccess
	}
	return out
}

func (r *Round) lose() {
	r.Phase = RoundLost
	r.Points = 0
}
