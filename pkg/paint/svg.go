package paint

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"
)

// SVGCanvas streams drawing calls as SVG elements. Call Close to finish the
// document.
type SVGCanvas struct {
	s     *svg.SVG
	alpha float64
	clips int
}

// NewSVGCanvas starts an SVG document of the given size with a bg backdrop.
func NewSVGCanvas(w io.Writer, width, height int, bg color.Color) *SVGCanvas {
	s := svg.New(w)
	s.Start(width, height)
	s.Rect(0, 0, width, height, fmt.Sprintf("fill:%s", css(bg)))
	return &SVGCanvas{s: s, alpha: 1}
}

// Close ends the document.
func (c *SVGCanvas) Close() { c.s.End() }

func (c *SVGCanvas) SetAlpha(a float64) { c.alpha = clamp01(a) }

func (c *SVGCanvas) opacity(col color.Color) float64 {
	return cssOpacity(withAlpha(col, c.alpha))
}

func (c *SVGCanvas) Circle(x, y, r float64, fill color.Color) {
	c.s.Circle(px(x), px(y), px(r),
		fmt.Sprintf("fill:%s;fill-opacity:%.3f", css(fill), c.opacity(fill)))
}

func (c *SVGCanvas) Ring(x, y, r, width float64, stroke color.Color) {
	c.s.Circle(px(x), px(y), px(r),
		fmt.Sprintf("fill:none;stroke:%s;stroke-opacity:%.3f;stroke-width:%.2f", css(stroke), c.opacity(stroke), width))
}

func (c *SVGCanvas) Line(x1, y1, x2, y2, width float64, stroke color.Color) {
	c.s.Line(px(x1), px(y1), px(x2), px(y2),
		fmt.Sprintf("stroke:%s;stroke-opacity:%.3f;stroke-width:%.2f;stroke-linecap:round", css(stroke), c.opacity(stroke), width))
}

// Avatar embeds img as a PNG data URI clipped to a circle.
func (c *SVGCanvas) Avatar(img image.Image, x, y, r float64) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return
	}
	c.clips++
	id := fmt.Sprintf("avatar-clip-%d", c.clips)

	c.s.Def()
	c.s.ClipPath(fmt.Sprintf(`id="%s"`, id))
	c.s.Circle(px(x), px(y), px(r))
	c.s.ClipEnd()
	c.s.DefEnd()

	d := px(2 * r)
	c.s.Image(px(x-r), px(y-r), d, d,
		"data:image/png;base64,"+base64.StdEncoding.EncodeToString(buf.Bytes()),
		fmt.Sprintf(`clip-path="url(#%s)" opacity="%.3f" preserveAspectRatio="xMidYMid slice"`, id, c.alpha))
}

func (c *SVGCanvas) Text(s string, x, y, size float64, fill, halo color.Color) {
	style := fmt.Sprintf("fill:%s;fill-opacity:%.3f;font-size:%.1fpx;font-family:sans-serif;text-anchor:middle;dominant-baseline:hanging",
		css(fill), c.opacity(fill), size)
	if _, _, _, a := halo.RGBA(); a > 0 {
		style += fmt.Sprintf(";stroke:%s;stroke-opacity:%.3f;stroke-width:3;paint-order:stroke", css(halo), c.opacity(halo))
	}
	c.s.Text(px(x), px(y), s, style)
}

func px(v float64) int {
	return int(math.Round(v))
}
