// Package object holds the entities that live in the arena: the target ball
// and the short-lived visual effects drawn around it.
package object

import (
	"io"
	"time"

	"github.com/tomz197/clicktest/internal/draw"
	"github.com/tomz197/clicktest/internal/loop/config"
)

// Color tags a ball with the mouse button that must hit it.
type Color int

const (
	ColorPrimary   Color = iota // Blue, hit with the left button
	ColorSecondary              // Orange, hit with the right button
)

func (c Color) String() string {
	switch c {
	case ColorPrimary:
		return "primary"
	case ColorSecondary:
		return "secondary"
	default:
		return "unknown"
	}
}

// Ink returns the canvas color used to draw c.
func (c Color) Ink() draw.Ink {
	if c == ColorSecondary {
		return draw.InkOrange
	}
	return draw.InkBlue
}

// Button identifies the pointer button of a click.
type Button int

const (
	ButtonNone      Button = iota // Any button the game does not use
	ButtonPrimary                 // Left
	ButtonSecondary               // Right
)

func (b Button) String() string {
	switch b {
	case ButtonPrimary:
		return "primary"
	case ButtonSecondary:
		return "secondary"
	default:
		return "none"
	}
}

// Arena is the fixed rectangular play field in logical units.
type Arena struct {
	Width  float64
	Height float64
}

// DefaultArena returns the standard 800x500 arena.
func DefaultArena() Arena {
	return Arena{Width: config.ArenaWidth, Height: config.ArenaHeight}
}

// Spawner allows objects to spawn new objects during update.
type Spawner interface {
	Spawn(obj Object)
}

// UpdateContext provides all the information an effect needs during update.
type UpdateContext struct {
	Delta   time.Duration
	Spawner Spawner
}

// DrawContext provides drawing resources for objects.
type DrawContext struct {
	Canvas *draw.Canvas // Arena canvas (2x vertical resolution)
	Writer io.Writer    // Terminal output for text overlays
}

// Object is a drawable and updatable visual effect.
type Object interface {
	// Update advances the object. Returns true if the object should be removed.
	Update(ctx UpdateContext) (remove bool, err error)

	// Draw draws the object. Use ctx.Canvas for pixels, ctx.Writer for text.
	Draw(ctx DrawContext) error
}

// Releasable is implemented by pooled objects that can be returned to a pool.
type Releasable interface {
	// Release returns the object to its pool for reuse.
	Release()
}

// ReleaseObject releases an object back to its pool if it implements Releasable.
func ReleaseObject(obj Object) {
	if r, ok := obj.(Releasable); ok {
		r.Release()
	}
}
