package ui

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// CellAspect is how many screen units one terminal row spans. Columns are one
// unit wide, so a cell is treated as twice as tall as it is wide.
const CellAspect = 2.0

// minVisibleAlpha drops strokes too faint to show up in a terminal.
const minVisibleAlpha = 0.05

type cell struct {
	r    rune
	fg   color.NRGBA
	cont bool // right half of a wide rune
}

// CellCanvas implements paint.Canvas on a grid of terminal cells. Screen
// coordinates are in units where one column is 1 wide and one row is
// CellAspect tall.
type CellCanvas struct {
	cols, rows int
	bg         color.NRGBA
	alpha      float64
	cells      []cell
}

// NewCellCanvas creates a blank canvas. bg is the colour faded towards when
// drawing with reduced alpha.
func NewCellCanvas(cols, rows int, bg color.Color) *CellCanvas {
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	return &CellCanvas{
		cols:  cols,
		rows:  rows,
		bg:    toNRGBA(bg),
		alpha: 1,
		cells: make([]cell, cols*rows),
	}
}

// Size returns the canvas size in cells.
func (c *CellCanvas) Size() (cols, rows int) { return c.cols, c.rows }

// Units returns the canvas size in screen units.
func (c *CellCanvas) Units() (w, h float64) {
	return float64(c.cols), float64(c.rows) * CellAspect
}

func (c *CellCanvas) SetAlpha(a float64) { c.alpha = math.Max(0, math.Min(1, a)) }

func (c *CellCanvas) Circle(x, y, r float64, fill color.Color) {
	c.disc(x, y, r, 0, '█', fill)
}

func (c *CellCanvas) Ring(x, y, r, width float64, stroke color.Color) {
	// Terminal cells are coarse; only rings wider than a hairline show.
	if width < 1 {
		return
	}
	c.disc(x, y, r, math.Max(r-1, 0), '█', stroke)
}

// disc paints every cell whose center lies between inner and outer radius.
// A disc smaller than a cell still paints the cell under its center.
func (c *CellCanvas) disc(x, y, outer, inner float64, ch rune, col color.Color) {
	fg, ok := c.blend(col)
	if !ok {
		return
	}
	minCol, maxCol := int(math.Floor(x-outer)), int(math.Ceil(x+outer))
	minRow, maxRow := int(math.Floor((y-outer)/CellAspect)), int(math.Ceil((y+outer)/CellAspect))
	hit := false
	for row := minRow; row <= maxRow; row++ {
		for cl := minCol; cl <= maxCol; cl++ {
			dx := float64(cl) + 0.5 - x
			dy := (float64(row)+0.5)*CellAspect - y
			d := math.Hypot(dx, dy)
			if d <= outer && d >= inner {
				c.set(cl, row, ch, fg)
				hit = true
			}
		}
	}
	if !hit && inner == 0 {
		c.set(int(math.Floor(x)), int(math.Floor(y/CellAspect)), ch, fg)
	}
}

func (c *CellCanvas) Line(x1, y1, x2, y2, width float64, stroke color.Color) {
	if width <= 0 {
		return
	}
	fg, ok := c.blend(stroke)
	if !ok {
		return
	}
	c1, r1 := int(math.Floor(x1)), int(math.Floor(y1/CellAspect))
	c2, r2 := int(math.Floor(x2)), int(math.Floor(y2/CellAspect))
	ch := lineRune(c2-c1, r2-r1, width)

	// Bresenham over cells.
	dx, dy := abs(c2-c1), -abs(r2-r1)
	sx, sy := sign(c2-c1), sign(r2-r1)
	err := dx + dy
	for {
		c.set(c1, r1, ch, fg)
		if c1 == c2 && r1 == r2 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			c1 += sx
		}
		if e2 <= dx {
			err += dx
			r1 += sy
		}
	}
}

// lineRune picks a box-drawing glyph matching the slope; heavy variants for
// wide strokes.
func lineRune(dc, dr int, width float64) rune {
	heavy := width >= 3
	switch {
	case dr == 0 || abs(dc) > 2*abs(dr):
		if heavy {
			return '━'
		}
		return '─'
	case dc == 0 || abs(dr) > 2*abs(dc):
		if heavy {
			return '┃'
		}
		return '│'
	case (dc > 0) == (dr > 0):
		return '╲'
	default:
		return '╱'
	}
}

// Avatar draws the average colour of the image as a disc.
func (c *CellCanvas) Avatar(img image.Image, x, y, r float64) {
	c.Circle(x, y, r, averageColor(img))
}

// Text writes s centered horizontally on x, on the row containing y. The
// halo is not representable in cells and is ignored.
func (c *CellCanvas) Text(s string, x, y, _ float64, fill, _ color.Color) {
	fg, ok := c.blend(fill)
	if !ok || s == "" {
		return
	}
	row := int(math.Floor(y / CellAspect))
	col := int(math.Round(x - float64(runewidth.StringWidth(s))/2))
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if w == 2 && !c.inside(col+1, row) {
			col += w
			continue
		}
		c.set(col, row, r, fg)
		if w == 2 {
			c.setCont(col+1, row, fg)
		}
		col += w
	}
}

func (c *CellCanvas) inside(col, row int) bool {
	return col >= 0 && col < c.cols && row >= 0 && row < c.rows
}

func (c *CellCanvas) set(col, row int, r rune, fg color.NRGBA) {
	if !c.inside(col, row) {
		return
	}
	i := row*c.cols + col
	// Overwriting the right half of a wide rune blanks its left half.
	if c.cells[i].cont && col > 0 {
		c.cells[i-1] = cell{}
	}
	if old := c.cells[i]; old.r != 0 && runewidth.RuneWidth(old.r) == 2 && col+1 < c.cols {
		c.cells[i+1] = cell{}
	}
	c.cells[i] = cell{r: r, fg: fg}
}

func (c *CellCanvas) setCont(col, row int, fg color.NRGBA) {
	if !c.inside(col, row) {
		return
	}
	c.cells[row*c.cols+col] = cell{fg: fg, cont: true}
}

// At returns the rune at a cell, or 0 when the cell is blank.
func (c *CellCanvas) At(col, row int) rune {
	if !c.inside(col, row) {
		return 0
	}
	return c.cells[row*c.cols+col].r
}

// ColorAt returns the foreground colour of a cell.
func (c *CellCanvas) ColorAt(col, row int) color.NRGBA {
	if !c.inside(col, row) {
		return color.NRGBA{}
	}
	return c.cells[row*c.cols+col].fg
}

// blend fades col towards the background by the global alpha and the
// colour's own alpha. It reports false when the result would be invisible.
func (c *CellCanvas) blend(col color.Color) (color.NRGBA, bool) {
	n := toNRGBA(col)
	a := c.alpha * float64(n.A) / 255
	if a < minVisibleAlpha {
		return color.NRGBA{}, false
	}
	mix := func(fg, bg uint8) uint8 {
		return uint8(math.Round(float64(bg) + (float64(fg)-float64(bg))*a))
	}
	return color.NRGBA{R: mix(n.R, c.bg.R), G: mix(n.G, c.bg.G), B: mix(n.B, c.bg.B), A: 0xff}, true
}

// Render returns the canvas as styled text, one line per row. Runs of cells
// sharing a colour are styled together.
func (c *CellCanvas) Render(r *lipgloss.Renderer) string {
	var sb strings.Builder
	for row := 0; row < c.rows; row++ {
		if row > 0 {
			sb.WriteByte('\n')
		}
		var run strings.Builder
		var runFg color.NRGBA
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if runFg.A == 0 {
				sb.WriteString(run.String())
			} else {
				sb.WriteString(r.NewStyle().Foreground(lipgloss.Color(hexColor(runFg))).Render(run.String()))
			}
			run.Reset()
		}
		for col := 0; col < c.cols; col++ {
			cl := c.cells[row*c.cols+col]
			if cl.cont {
				continue
			}
			fg := cl.fg
			ch := cl.r
			if ch == 0 {
				ch, fg = ' ', color.NRGBA{}
			}
			if fg != runFg {
				flush()
				runFg = fg
			}
			run.WriteRune(ch)
		}
		flush()
	}
	return sb.String()
}

// String returns the canvas without colour, for tests and logs.
func (c *CellCanvas) String() string {
	var sb strings.Builder
	for row := 0; row < c.rows; row++ {
		if row > 0 {
			sb.WriteByte('\n')
		}
		for col := 0; col < c.cols; col++ {
			cl := c.cells[row*c.cols+col]
			switch {
			case cl.cont:
			case cl.r == 0:
				sb.WriteByte(' ')
			default:
				sb.WriteRune(cl.r)
			}
		}
	}
	return sb.String()
}

func averageColor(img image.Image) color.NRGBA {
	if img == nil {
		return color.NRGBA{}
	}
	b := img.Bounds()
	if b.Empty() {
		return color.NRGBA{}
	}
	// Sample at most 32x32 points.
	stepX, stepY := max(b.Dx()/32, 1), max(b.Dy()/32, 1)
	var r, g, bl, n uint64
	for y := b.Min.Y; y < b.Max.Y; y += stepY {
		for x := b.Min.X; x < b.Max.X; x += stepX {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			r += uint64(c.R)
			g += uint64(c.G)
			bl += uint64(c.B)
			n++
		}
	}
	return color.NRGBA{R: uint8(r / n), G: uint8(g / n), B: uint8(bl / n), A: 0xff}
}

func toNRGBA(c color.Color) color.NRGBA {
	if c == nil {
		return color.NRGBA{}
	}
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}

func hexColor(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
