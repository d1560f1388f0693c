package level

import "github.com/tomz197/clicktest/internal/object"

// Outcome is the result of evaluating a click.
type Outcome int

const (
	Miss       Outcome = iota // Click outside the ball, or a button the game ignores
	Hit                       // Valid hit, the level is won
	WrongColor                // Inside the ball with the wrong button, costs a life
)

func (o Outcome) String() string {
	switch o {
	case Miss:
		return "miss"
	case Hit:
		return "hit"
	case WrongColor:
		return "wrong-color"
	default:
		return "unknown"
	}
}

// Evaluate classifies a click at (x, y) with button b against the ball of level n.
func Evaluate(x, y float64, b object.Button, ball object.Ball, n int) Outcome {
	if b != object.ButtonPrimary && b != object.ButtonSecondary {
		return Miss
	}
	if !ball.Contains(x, y) {
		return Miss
	}
	if !ColorRule(n) {
		return Hit
	}
	if (ball.Color == object.ColorPrimary && b == object.ButtonPrimary) ||
		(ball.Color == object.ColorSecondary && b == object.ButtonSecondary) {
		return Hit
	}
	return WrongColor
}
