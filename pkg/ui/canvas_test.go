package ui

import (
	"image"
	"image/color"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

var (
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	black = color.NRGBA{A: 255}
)

func TestCellCanvasCircle(t *testing.T) {
	c := NewCellCanvas(10, 5, black)
	c.Circle(5, 5, 3, white)

	tests := []struct {
		col, row int
		want     rune
	}{
		{5, 2, '█'},
		{2, 2, '█'},
		{7, 2, '█'},
		{1, 2, 0},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got := c.At(tt.col, tt.row); got != tt.want {
			t.Errorf("At(%d, %d) = %q, want %q", tt.col, tt.row, got, tt.want)
		}
	}
}

func TestCellCanvasTinyCirclePaintsCenterCell(t *testing.T) {
	c := NewCellCanvas(10, 5, black)
	c.Circle(3.2, 7.9, 0.2, white)
	if got := c.At(3, 3); got != '█' {
		t.Fatalf("At(3, 3) = %q, want a filled cell", got)
	}
}

func TestCellCanvasRing(t *testing.T) {
	c := NewCellCanvas(10, 5, black)
	c.Ring(5, 5, 3, 0.5, white)
	if strings.TrimSpace(c.String()) != "" {
		t.Fatalf("hairline ring should not paint, got\n%s", c.String())
	}

	c.Ring(5, 5, 3, 2, white)
	if got := c.At(5, 2); got != 0 {
		t.Errorf("ring center painted %q", got)
	}
	if got := c.At(2, 2); got != '█' {
		t.Errorf("ring edge = %q, want filled", got)
	}
}

func TestCellCanvasLine(t *testing.T) {
	c := NewCellCanvas(10, 2, black)
	c.Line(0.5, 1, 9.5, 1, 1, white)
	if got := strings.Split(c.String(), "\n")[0]; got != strings.Repeat("─", 10) {
		t.Errorf("horizontal line = %q", got)
	}

	c = NewCellCanvas(3, 2, black)
	c.Line(0.5, 0.5, 0.5, 3.5, 1, white)
	if c.At(0, 0) != '│' || c.At(0, 1) != '│' {
		t.Errorf("vertical line = %q", c.String())
	}

	c = NewCellCanvas(4, 1, black)
	c.Line(0.5, 1, 3.5, 1, 3, white)
	if got := c.At(1, 0); got != '━' {
		t.Errorf("wide stroke = %q, want heavy line", got)
	}

	c = NewCellCanvas(4, 1, black)
	c.Line(0.5, 1, 3.5, 1, 0, white)
	c.Line(0.5, 1, 3.5, 1, 1, color.NRGBA{})
	if strings.TrimSpace(c.String()) != "" {
		t.Errorf("zero width or transparent line painted %q", c.String())
	}
}

func TestCellCanvasTextWideRunes(t *testing.T) {
	c := NewCellCanvas(10, 1, black)
	c.Text("日本", 5, 0, 0, white, nil)
	if got := c.String(); got != "   日本   " {
		t.Fatalf("String() = %q", got)
	}

	// Painting over the right half of a wide rune clears the left half.
	c.Circle(4.5, 1, 0.1, white)
	if got := c.String(); got != "    █本   " {
		t.Fatalf("after overwrite String() = %q", got)
	}
}

func TestCellCanvasAlpha(t *testing.T) {
	c := NewCellCanvas(4, 1, black)
	c.SetAlpha(0.5)
	c.Circle(0.5, 1, 0.2, white)
	want := color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	if got := c.ColorAt(0, 0); got != want {
		t.Errorf("ColorAt = %v, want %v", got, want)
	}

	c.SetAlpha(0.01)
	c.Circle(1.5, 1, 0.2, white)
	if got := c.At(1, 0); got != 0 {
		t.Errorf("near-transparent circle painted %q", got)
	}
}

func TestCellCanvasAvatarUsesAverageColor(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	red := color.NRGBA{R: 255, A: 255}
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.SetNRGBA(x, y, red)
		}
	}
	c := NewCellCanvas(2, 1, black)
	c.Avatar(img, 0.5, 1, 0.2)
	if got := c.ColorAt(0, 0); got != red {
		t.Errorf("ColorAt = %v, want %v", got, red)
	}
}

func TestCellCanvasRender(t *testing.T) {
	c := NewCellCanvas(6, 3, black)
	c.Circle(2.5, 3, 0.2, white)
	out := c.Render(lipgloss.NewRenderer(io.Discard))
	if !strings.Contains(out, "█") {
		t.Errorf("Render lost the painted cell: %q", out)
	}
	if n := strings.Count(out, "\n"); n != 2 {
		t.Errorf("Render produced %d line breaks, want 2", n)
	}
}

func TestCellCanvasUnits(t *testing.T) {
	c := NewCellCanvas(80, 20, black)
	w, h := c.Units()
	if w != 80 || h != 40 {
		t.Errorf("Units() = %v x %v, want 80 x 40", w, h)
	}
	if cols, rows := NewCellCanvas(-1, -1, black).Size(); cols != 0 || rows != 0 {
		t.Errorf("negative size = %d x %d", cols, rows)
	}
}
