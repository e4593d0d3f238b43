// Package colorutil provides shared color utilities for mask rendering and
// diagnostic overlays.
package colorutil

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Overlay line colors.
var (
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Cyan   = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	Yellow = color.RGBA{R: 255, G: 255, B: 0, A: 255}
)

// Class colors used when a mask is rendered for visual review.
var (
	BackgroundColor = MustHex("#000000")
	NucleusColor    = MustHex("#825ab4")
	AgNORColor      = MustHex("#e63c3c")
)

// Hex parses a "#rrggbb" string into an opaque color.RGBA.
func Hex(s string) (color.RGBA, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// MustHex is like Hex but panics on malformed input. Use only for constants.
func MustHex(s string) color.RGBA {
	c, err := Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Gray returns an opaque color with every channel set to v. gocv maps the
// first scalar component of a color to single-channel images, so gray
// values draw the same intensity regardless of channel order.
func Gray(v uint8) color.RGBA {
	return color.RGBA{R: v, G: v, B: v, A: 255}
}
