package object

import "github.com/tomz197/clicktest/internal/physics"

// Ball is the moving target of a level.
type Ball struct {
	X, Y   float64 // Position (center)
	VX, VY float64 // Displacement per frame
	Radius float64
	Color  Color
}

// Step returns the ball advanced by one frame inside the arena.
// Each axis bounces independently off the walls without losing speed.
func (b Ball) Step(a Arena) Ball {
	b.X, b.VX = physics.Bounce(b.X+b.VX, b.VX, b.Radius, a.Width)
	b.Y, b.VY = physics.Bounce(b.Y+b.VY, b.VY, b.Radius, a.Height)
	return b
}

// Contains reports whether the point lies on or inside the ball.
func (b Ball) Contains(x, y float64) bool {
	return physics.PointInCircle(x, y, b.X, b.Y, b.Radius)
}

// Speed returns the magnitude of the velocity.
func (b Ball) Speed() float64 {
	return physics.Distance(0, 0, b.VX, b.VY)
}

// Draw fills the ball on the canvas in its color.
func (b Ball) Draw(ctx DrawContext) error {
	ctx.Canvas.SetInk(b.Color.Ink())
	ctx.Canvas.FillCircle(b.X, b.Y, b.Radius)
	return nil
}
