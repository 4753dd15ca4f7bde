package paint

import (
	"image/color"

	"github.com/vanderheijden86/influgraph/pkg/highlight"
	"github.com/vanderheijden86/influgraph/pkg/metrics"
	"github.com/vanderheijden86/influgraph/pkg/model"
)

// NodeFrame is everything PaintNode needs to draw one node.
type NodeFrame struct {
	Node        model.Node
	X, Y        float64 // screen position
	Scale       float64 // camera zoom
	Hovered     bool
	Selected    bool
	Highlighted bool
	Alpha       float64
}

// LinkFrame is everything PaintLink needs to draw one link.
type LinkFrame struct {
	Link            model.Link
	X1, Y1, X2, Y2  float64
	SourceFollowers int64
	Active          bool // a highlight mode is in effect
	Highlighted     bool
}

// Painter draws nodes and links in the house style.
type Painter struct {
	Style   Style
	Avatars *AvatarCache
}

// NewPainter creates a painter. avatars may be nil, in which case creators
// always use the initials fallback.
func NewPainter(style Style, avatars *AvatarCache) *Painter {
	return &Painter{Style: style, Avatars: avatars}
}

// ShowLabel reports whether a node gets a text label.
func (p *Painter) ShowLabel(f NodeFrame) bool {
	return f.Node.IsCreator() || f.Scale > p.Style.LabelScale || f.Hovered || f.Selected || f.Highlighted
}

// PaintNode draws a node: background disc, fill or avatar, border, label.
func (p *Painter) PaintNode(c Canvas, f NodeFrame) {
	s := p.Style
	n := f.Node
	scale := f.Scale
	if scale <= 0 {
		scale = 1
	}
	r := n.Radius() * scale

	c.SetAlpha(f.Alpha)
	c.Circle(f.X, f.Y, r, s.Border)

	drawn := false
	if n.IsCreator() && n.AvatarURL != "" && p.Avatars != nil {
		if img, ok := p.Avatars.Get(n.ID, n.AvatarURL); ok {
			c.Avatar(img, f.X, f.Y, r)
			drawn = true
		}
	}
	if !drawn {
		c.Circle(f.X, f.Y, r, s.NodeColor(n))
		if n.IsCreator() {
			c.Text(n.Initials(), f.X, f.Y-r/2, r, s.Initials, color.Transparent)
		}
	}

	if f.Hovered || f.Selected {
		c.Ring(f.X, f.Y, r, s.AccentBorderWidth, s.Accent)
	} else {
		c.Ring(f.X, f.Y, r, s.BorderWidth, s.Border)
	}

	if p.ShowLabel(f) {
		size := s.BrandFontSize
		if n.IsCreator() {
			size = s.CreatorFontSize
		}
		c.Text(n.DisplayName, f.X, f.Y+r+2, size, s.LabelFill, s.LabelHalo)
	}
	c.SetAlpha(1)
}

// LinkStyle returns the width and colour for a link. Phantom links get zero
// width and a transparent colour.
func (p *Painter) LinkStyle(f LinkFrame) (float64, color.Color) {
	s := p.Style
	switch {
	case f.Link.Phantom:
		return 0, color.Transparent
	case !f.Active:
		return IdleWidth(f.Link.LocalRank), s.IdleLink
	case f.Highlighted:
		return s.HighlightWidth(LinkScore(f.Link, f.SourceFollowers)), s.Accent
	default:
		return s.ThinWidth, s.FaintLink
	}
}

// PaintLink draws one link. Phantom links draw nothing.
func (p *Painter) PaintLink(c Canvas, f LinkFrame) {
	w, col := p.LinkStyle(f)
	if w <= 0 {
		return
	}
	c.Line(f.X1, f.Y1, f.X2, f.Y2, w, col)
}

// Layout resolves node positions in graph coordinates.
type Layout interface {
	Position(id string) (x, y float64, ok bool)
}

// Projector maps graph coordinates to screen coordinates.
type Projector interface {
	ToScreen(x, y float64) (float64, float64)
	Scale() float64
}

// Frame describes one full render pass.
type Frame struct {
	Graph     *model.Graph
	Layout    Layout
	Camera    Projector
	State     highlight.State
	Highlight highlight.Result
}

// Paint renders every link and then every node of the frame.
func (p *Painter) Paint(c Canvas, fr Frame) {
	defer metrics.Timer(metrics.FramePaint)()
	if fr.Graph == nil {
		return
	}
	g := fr.Graph
	active := fr.Highlight.Active()

	for _, l := range g.Links {
		x1, y1, ok1 := fr.Layout.Position(l.Source)
		x2, y2, ok2 := fr.Layout.Position(l.Target)
		if !ok1 || !ok2 {
			continue
		}
		sx1, sy1 := fr.Camera.ToScreen(x1, y1)
		sx2, sy2 := fr.Camera.ToScreen(x2, y2)
		var followers int64
		if src, ok := g.NodeByID(l.Source); ok {
			followers = src.Followers
		}
		p.PaintLink(c, LinkFrame{
			Link:            l,
			X1:              sx1,
			Y1:              sy1,
			X2:              sx2,
			Y2:              sy2,
			SourceFollowers: followers,
			Active:          active,
			Highlighted:     fr.Highlight.LinkHighlighted(l),
		})
	}

	for _, n := range g.Nodes {
		x, y, ok := fr.Layout.Position(n.ID)
		if !ok {
			continue
		}
		sx, sy := fr.Camera.ToScreen(x, y)
		p.PaintNode(c, NodeFrame{
			Node:        n,
			X:           sx,
			Y:           sy,
			Scale:       fr.Camera.Scale(),
			Hovered:     fr.State.HoveredID == n.ID,
			Selected:    fr.State.SelectedID == n.ID,
			Highlighted: active && fr.Highlight.NodeHighlighted(n.ID),
			Alpha:       fr.Highlight.Opacity(n.ID),
		})
	}
}
