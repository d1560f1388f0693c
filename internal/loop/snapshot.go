package loop

import (
	"time"

	"github.com/tomz197/clicktest/internal/loop/config"
)

// BallView is the ball as a renderer sees it.
type BallView struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
	Color  string  `json:"color"`
	Seq    uint64  `json:"seq"` // Echoed back with clicks on this ball
}

// ResultView is a finished result in display form.
type ResultView struct {
	FirstName       string `json:"first_name"`
	IDNumber        string `json:"ps_number"`
	TotalScore      int    `json:"total_score"`
	MaxScore        int    `json:"max_score"`
	Percentage      string `json:"percentage"`
	Passed          bool   `json:"passed"`
	PlayTimeSeconds int    `json:"play_time_seconds"`
	CompletedAt     string `json:"completed_at"`
}

// Snapshot is a read-only copy of everything a renderer needs.
type Snapshot struct {
	Phase       string      `json:"phase"`
	RoundPhase  string      `json:"round_phase,omitempty"`
	FirstName   string      `json:"first_name,omitempty"`
	IDNumber    string      `json:"ps_number,omitempty"`
	Level       int         `json:"level"`
	MaxLevel    int         `json:"max_level"`
	Lives       int         `json:"lives"`
	Score       int         `json:"score"`
	RemainingMS int64       `json:"remaining_ms"`
	Points      int         `json:"points"` // Earned by the current round
	ColorRule   bool        `json:"color_rule"`
	Ball        *BallView   `json:"ball,omitempty"`
	Result      *ResultView `json:"result,omitempty"`
	CanRestart  bool        `json:"can_restart"`
}

// Snapshot copies the session state for rendering.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Phase:     s.Phase.String(),
		FirstName: s.Player.FirstName,
		IDNumber:  s.Player.IDNumber,
		Level:     s.Level,
		MaxLevel:  config.MaxLevel,
		Lives:     s.Lives,
		Score:     s.Score,
		ColorRule: s.Level >= config.RulesLevel,
	}
	if s.Round != nil && s.Phase == PhasePlaying {
		r := s.Round
		snap.RoundPhase = r.Phase.String()
		snap.RemainingMS = int64(r.Remaining / time.Millisecond)
		snap.Points = r.Points
		snap.Ball = &BallView{X: r.Ball.X, Y: r.Ball.Y, Radius: r.Ball.Radius, Color: r.Ball.Color.String(), Seq: r.Seq}
	}
	if s.Result != nil {
		res := s.Result
		snap.Result = &ResultView{
			FirstName:       res.Player.FirstName,
			IDNumber:        res.Player.IDNumber,
			TotalScore:      res.TotalScore,
			MaxScore:        config.MaxScore,
			Percentage:      res.Percentage.StringFixed(2),
			Passed:          res.Passed,
			PlayTimeSeconds: res.PlayTimeSeconds,
			CompletedAt:     res.CompletedAt.UTC().Format(time.RFC3339),
		}
		snap.CanRestart = !res.Passed
	}
	return snap
}
