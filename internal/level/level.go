// Package level derives per-level difficulty, evaluates clicks against the
// ball and converts remaining time into points.
package level

import (
	"math"

	"github.com/tomz197/clicktest/internal/loop/config"
	"github.com/tomz197/clicktest/internal/object"
)

// Rand is the random source used to spawn balls. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Clamp limits n to the playable range [1, MaxLevel].
func Clamp(n int) int {
	if n < 1 {
		return 1
	}
	if n > config.MaxLevel {
		return config.MaxLevel
	}
	return n
}

// Radius returns the ball radius for level n, never below MinRadius.
func Radius(n int) float64 {
	n = Clamp(n)
	return math.Max(config.MinRadius, config.BaseRadius-float64(n-1)*config.RadiusStep)
}

// Speed returns the ball speed (units per frame) for level n.
func Speed(n int) float64 {
	n = Clamp(n)
	return config.BaseSpeed + float64(n-1)*config.SpeedStep
}

// ColorRule reports whether level n requires matching button to color.
func ColorRule(n int) bool {
	return n >= config.RulesLevel
}

// Generate spawns the ball for level n inside the arena.
// Draws from r in order: heading, color (color-rule levels only), x, y.
func Generate(n int, r Rand, a object.Arena) object.Ball {
	radius := Radius(n)
	speed := Speed(n)

	angle := r.Float64() * 2 * math.Pi

	color := object.ColorPrimary
	if ColorRule(n) && r.Float64() >= 0.5 {
		color = object.ColorSecondary
	}

	// Keep the ball clear of every wall at spawn
	padding := radius + config.SpawnPadding
	x := padding + r.Float64()*(a.Width-padding*2)
	y := padding + r.Float64()*(a.Height-padding*2)

	return object.Ball{
		X:      x,
		Y:      y,
		VX:     math.Cos(angle) * speed,
		VY:     math.Sin(angle) * speed,
		Radius: radius,
		Color:  color,
	}
}
