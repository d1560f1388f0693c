package object

import (
	"math"
	"math/rand"
	"sync"

	"github.com/tomz197/clicktest/internal/draw"
)

// particlePool is a sync.Pool for reusing Particle objects to reduce allocations.
var particlePool = sync.Pool{
	New: func() any {
		return &Particle{}
	},
}

// Particle is a short-lived spark thrown off by a hit ball.
type Particle struct {
	X, Y        float64 // Position in arena units
	VX, VY      float64 // Velocity in arena units per second
	Lifetime    float64 // Seconds remaining
	MaxLifetime float64 // Initial lifetime (for fade calculation)
	Drag        float64 // Velocity decay (1.0 = no drag)
	Ink         draw.Ink
}

// NewParticle creates a single particle from the pool.
func NewParticle(x, y, vx, vy, lifetime float64, ink draw.Ink) *Particle {
	p := particlePool.Get().(*Particle)
	p.X = x
	p.Y = y
	p.VX = vx
	p.VY = vy
	p.Lifetime = lifetime
	p.MaxLifetime = lifetime
	p.Drag = 0.92
	p.Ink = ink
	return p
}

// Release returns the particle to the pool for reuse.
// Should be called when the particle is removed from the game.
func (p *Particle) Release() {
	particlePool.Put(p)
}

// burstInks are the confetti colors of a success burst.
var burstInks = []draw.Ink{draw.InkBlue, draw.InkOrange, draw.InkGreen, draw.InkWhite}

// SpawnBurst throws count particles out of the rim of a ball.
func SpawnBurst(b Ball, count int, spawner Spawner) {
	if spawner == nil {
		return
	}

	for i := 0; i < count; i++ {
		angle := rand.Float64() * 2 * math.Pi
		// Random speed variation (50% to 150%)
		spd := 300 * (0.5 + rand.Float64())
		life := 0.4 + rand.Float64()*0.4

		x := b.X + math.Cos(angle)*b.Radius
		y := b.Y + math.Sin(angle)*b.Radius

		p := NewParticle(x, y, math.Cos(angle)*spd, math.Sin(angle)*spd, life, burstInks[rand.Intn(len(burstInks))])
		spawner.Spawn(p)
	}
}

// Update moves the particle and checks lifetime.
func (p *Particle) Update(ctx UpdateContext) (bool, error) {
	dt := ctx.Delta.Seconds()

	p.Lifetime -= dt
	if p.Lifetime <= 0 {
		return true, nil
	}

	dragFactor := math.Pow(p.Drag, dt*60) // Normalize drag to ~60fps
	p.VX *= dragFactor
	p.VY *= dragFactor

	p.X += p.VX * dt
	p.Y += p.VY * dt

	return false, nil
}

// Draw renders the particle as a pixel on the canvas.
func (p *Particle) Draw(ctx DrawContext) error {
	// Skip faded particles (< 25% lifetime)
	if p.MaxLifetime > 0 && p.Lifetime/p.MaxLifetime < 0.25 {
		return nil
	}
	ctx.Canvas.SetInk(p.Ink)
	ctx.Canvas.SetFloat(p.X, p.Y)
	return nil
}
