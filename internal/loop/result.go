package loop

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tomz197/clicktest/internal/loop/config"
	"github.com/tomz197/clicktest/internal/store"
)

var passMark = decimal.NewFromInt(config.PassPercentage)

// Result is the outcome of a finished session.
type Result struct {
	ID              uuid.UUID
	Player          Player
	TotalScore      int
	Percentage      decimal.Decimal // Two decimal places
	PlayTimeSeconds int
	Passed          bool
	CompletedAt     time.Time
}

// NewResult scores a session that ran from started to completed.
func NewResult(p Player, score int, started, completed time.Time) Result {
	pct := Percentage(score)
	secs := 0
	if d := completed.Sub(started); d > 0 {
		secs = int(d / time.Second)
	}
	return Result{
		ID:              uuid.New(),
		Player:          p,
		TotalScore:      score,
		Percentage:      pct,
		PlayTimeSeconds: secs,
		Passed:          Passed(pct),
		CompletedAt:     completed,
	}
}

// Percentage is score out of MaxScore, rounded half away from zero to two places.
func Percentage(score int) decimal.Decimal {
	return decimal.NewFromInt(int64(score)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(config.MaxScore)).
		Round(2)
}

// Passed reports whether pct reaches the pass mark.
func Passed(pct decimal.Decimal) bool {
	return pct.GreaterThanOrEqual(passMark)
}

// Record converts the result to its stored form.
func (r Result) Record() store.Record {
	return store.Record{
		ID:              r.ID.String(),
		FirstName:       r.Player.FirstName,
		PSNumber:        r.Player.IDNumber,
		TotalScore:      r.TotalScore,
		Percentage:      r.Percentage.InexactFloat64(),
		PlayTimeSeconds: r.PlayTimeSeconds,
		Passed:          r.Passed,
		CompletedAt:     r.CompletedAt.UTC().Format(time.RFC3339Nano),
	}
}
