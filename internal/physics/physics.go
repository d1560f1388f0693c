// Package physics provides distance, hit-test and wall-bounce utilities.
package physics

import "math"

// Distance calculates the Euclidean distance between two points.
func Distance(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return math.Sqrt(dx*dx + dy*dy)
}

// DistanceSquared calculates the squared distance between two points.
// Use this when comparing distances to avoid the sqrt cost.
func DistanceSquared(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return dx*dx + dy*dy
}

// PointInCircle checks if a point is within radius of a target position.
// Points exactly on the edge count as inside.
func PointInCircle(px, py, cx, cy, radius float64) bool {
	return DistanceSquared(px, py, cx, cy) <= radius*radius
}

// Bounce resolves one axis of a circle moving inside [0, limit].
// pos is the tentative (already advanced) center coordinate and vel the
// velocity component on that axis. If the circle edge crosses either wall the
// velocity is inverted and the center is clamped to sit exactly radius away
// from the wall. No energy is lost.
func Bounce(pos, vel, radius, limit float64) (float64, float64) {
	if pos-radius < 0 || pos+radius > limit {
		vel = -vel
		pos = Clamp(pos, radius, limit-radius)
	}
	return pos, vel
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
