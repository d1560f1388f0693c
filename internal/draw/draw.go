// Package draw renders to ANSI terminals using half-block characters.
package draw

import "strconv"

// Block characters for drawing.
const (
	BlockFull      = '█'
	BlockEmpty     = ' '
	BlockUpperHalf = '▀'
	BlockLowerHalf = '▄'
)

// Ink is a canvas pixel color. InkNone marks an empty pixel.
type Ink uint8

const (
	InkNone Ink = iota
	InkBlue
	InkOrange
	InkWhite
	InkGreen
)

// inkPalette maps inks to xterm-256 color indices.
var inkPalette = [...]int{
	InkNone:   0,
	InkBlue:   33,
	InkOrange: 208,
	InkWhite:  15,
	InkGreen:  40,
}

// Fg returns the SGR sequence selecting ink as foreground color.
func (i Ink) Fg() string {
	if int(i) >= len(inkPalette) || i == InkNone {
		return "\033[39m"
	}
	return "\033[38;5;" + strconv.Itoa(inkPalette[i]) + "m"
}

// Bg returns the SGR sequence selecting ink as background color.
func (i Ink) Bg() string {
	if int(i) >= len(inkPalette) || i == InkNone {
		return "\033[49m"
	}
	return "\033[48;5;" + strconv.Itoa(inkPalette[i]) + "m"
}

// Reset is the SGR sequence restoring default attributes.
const Reset = "\033[0m"
