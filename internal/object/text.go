package object

import (
	"fmt"

	"github.com/tomz197/clicktest/internal/draw"
)

// Label is a text that floats upward from an arena position and expires.
type Label struct {
	X, Y     float64 // Arena position of the text center
	Value    string
	Ink      draw.Ink
	Lifetime float64 // Seconds remaining
}

// NewPointsLabel creates the "+n" label shown where a ball was hit.
func NewPointsLabel(x, y float64, points int, lifetime float64) *Label {
	return &Label{
		X:        x,
		Y:        y,
		Value:    fmt.Sprintf("+%d", points),
		Ink:      draw.InkGreen,
		Lifetime: lifetime,
	}
}

// Update drifts the label upward and expires it.
func (l *Label) Update(ctx UpdateContext) (bool, error) {
	dt := ctx.Delta.Seconds()
	l.Lifetime -= dt
	if l.Lifetime <= 0 {
		return true, nil
	}
	l.Y -= 50 * dt
	return false, nil
}

// Draw writes the label over the canvas at its arena position.
func (l *Label) Draw(ctx DrawContext) error {
	if l.Value == "" {
		return nil
	}
	col, row := ctx.Canvas.LogicalToTerminal(l.X, l.Y)
	col -= len(l.Value) / 2
	if col < 1 {
		col = 1
	}
	if row < 1 {
		row = 1
	}
	_, err := fmt.Fprintf(ctx.Writer, "\033[%d;%dH%s%s%s",
		row+ctx.Canvas.OffsetRow(), col+ctx.Canvas.OffsetCol(), l.Ink.Fg(), l.Value, draw.Reset)
	ctx.Canvas.MarkTextDirty(col, row, len(l.Value))
	return err
}
