// Package paint draws the creator/brand graph onto a Canvas: node discs,
// avatars, labels and weighted links, with highlight-aware opacity.
package paint

import (
	"fmt"
	"image"
	"image/color"
)

// Canvas is a 2D drawing surface in screen coordinates. Implementations
// multiply every colour by the current global alpha.
type Canvas interface {
	SetAlpha(a float64)
	Circle(x, y, r float64, fill color.Color)
	Ring(x, y, r, width float64, stroke color.Color)
	Line(x1, y1, x2, y2, width float64, stroke color.Color)
	// Avatar draws img clipped to the circle at (x, y) with radius r.
	Avatar(img image.Image, x, y, r float64)
	// Text draws s horizontally centered with its top edge at y.
	Text(s string, x, y, size float64, fill, halo color.Color)
}

// withAlpha scales the alpha channel of c by a.
func withAlpha(c color.Color, a float64) color.NRGBA {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	if a < 1 {
		n.A = uint8(float64(n.A)*clamp01(a) + 0.5)
	}
	return n
}

func clamp01(a float64) float64 {
	switch {
	case a < 0:
		return 0
	case a > 1:
		return 1
	default:
		return a
	}
}

func css(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
}

func cssOpacity(c color.Color) float64 {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return float64(n.A) / 255
}

// Hex parses "#rrggbb" into an opaque colour. Invalid input yields black.
func Hex(s string) color.NRGBA {
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return color.NRGBA{A: 0xff}
	}
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}
