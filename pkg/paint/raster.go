package paint

import (
	"image"
	"image/color"
	"io"
	"math"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"
)

// RasterCanvas draws into an in-memory RGBA image.
type RasterCanvas struct {
	dc    *gg.Context
	alpha float64
}

// NewRasterCanvas creates a canvas cleared to bg.
func NewRasterCanvas(width, height int, bg color.Color) *RasterCanvas {
	dc := gg.NewContext(width, height)
	dc.SetColor(bg)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)
	return &RasterCanvas{dc: dc, alpha: 1}
}

func (r *RasterCanvas) SetAlpha(a float64) { r.alpha = clamp01(a) }

func (r *RasterCanvas) Circle(x, y, rad float64, fill color.Color) {
	r.dc.SetColor(withAlpha(fill, r.alpha))
	r.dc.DrawCircle(x, y, rad)
	r.dc.Fill()
}

func (r *RasterCanvas) Ring(x, y, rad, width float64, stroke color.Color) {
	r.dc.SetColor(withAlpha(stroke, r.alpha))
	r.dc.SetLineWidth(width)
	r.dc.DrawCircle(x, y, rad)
	r.dc.Stroke()
}

func (r *RasterCanvas) Line(x1, y1, x2, y2, width float64, stroke color.Color) {
	r.dc.SetColor(withAlpha(stroke, r.alpha))
	r.dc.SetLineWidth(width)
	r.dc.DrawLine(x1, y1, x2, y2)
	r.dc.Stroke()
}

func (r *RasterCanvas) Avatar(img image.Image, x, y, rad float64) {
	b := img.Bounds()
	side := math.Min(float64(b.Dx()), float64(b.Dy()))
	if side <= 0 || rad <= 0 {
		return
	}
	r.dc.Push()
	r.dc.DrawCircle(x, y, rad)
	r.dc.Clip()
	r.dc.Translate(x, y)
	s := 2 * rad / side
	r.dc.Scale(s, s)
	r.dc.DrawImageAnchored(img, 0, 0, 0.5, 0.5)
	r.dc.Pop()
}

// Text uses the fixed-size basic font; size is ignored.
func (r *RasterCanvas) Text(s string, x, y, _ float64, fill, halo color.Color) {
	if _, _, _, a := halo.RGBA(); a > 0 {
		r.dc.SetColor(withAlpha(halo, r.alpha))
		for _, d := range [][2]float64{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
			r.dc.DrawStringAnchored(s, x+d[0], y+d[1], 0.5, 1)
		}
	}
	r.dc.SetColor(withAlpha(fill, r.alpha))
	r.dc.DrawStringAnchored(s, x, y, 0.5, 1)
}

// Image returns the rendered image.
func (r *RasterCanvas) Image() image.Image { return r.dc.Image() }

// EncodePNG writes the canvas as PNG.
func (r *RasterCanvas) EncodePNG(w io.Writer) error { return r.dc.EncodePNG(w) }

// SavePNG writes the canvas to a PNG file.
func (r *RasterCanvas) SavePNG(path string) error { return r.dc.SavePNG(path) }
