package highlight

import (
	"github.com/vanderheijden86/influgraph/pkg/metrics"
	"github.com/vanderheijden86/influgraph/pkg/model"
)

// Opacity levels applied to nodes.
const (
	OpaqueAlpha = 1.0
	DimAlpha    = 0.1
)

// Mode is the highlight mode derived from the interaction state.
type Mode int

const (
	// ModeIdle: nothing emphasised, links drawn in their neutral style.
	ModeIdle Mode = iota
	// ModeCategory: nodes matching the active category are emphasised.
	ModeCategory
	// ModeFocus: a focus node and its direct neighbours are emphasised.
	ModeFocus
)

func (m Mode) String() string {
	switch m {
	case ModeCategory:
		return "category"
	case ModeFocus:
		return "focus"
	default:
		return "idle"
	}
}

// Result is the derived highlight state for one frame.
type Result struct {
	Mode     Mode
	FocusID  string
	Category model.Category
	Nodes    map[string]bool
	Links    map[model.LinkKey]bool
}

// Active reports whether any highlight mode is in effect.
func (r Result) Active() bool {
	return r.Mode != ModeIdle
}

// NodeHighlighted reports whether the node is part of the highlighted set.
func (r Result) NodeHighlighted(id string) bool {
	return r.Nodes[id]
}

// LinkHighlighted reports whether the link is part of the highlighted set.
// Phantom links are never highlighted.
func (r Result) LinkHighlighted(l model.Link) bool {
	if l.Phantom {
		return false
	}
	return r.Links[l.Key()]
}

// Opacity returns the global alpha for the node.
func (r Result) Opacity(id string) float64 {
	if r.Mode == ModeIdle || r.Nodes[id] {
		return OpaqueAlpha
	}
	return DimAlpha
}

// Derive computes the highlight result for the state. Precedence:
// active category, then focus (selection > search match > hover), then idle.
func Derive(x *Index, s State) Result {
	defer metrics.Timer(metrics.HighlightDerive)()

	if s.ActiveCategory != model.CategoryNone {
		return deriveCategory(x, s.ActiveCategory)
	}
	if focus := resolveFocus(x, s); focus != "" {
		return deriveFocus(x, focus)
	}
	return Result{Mode: ModeIdle}
}

// resolveFocus picks the node driving the focus mode. A search term with no
// match yields no focus even when something is hovered.
func resolveFocus(x *Index, s State) string {
	if x.Has(s.SelectedID) {
		return s.SelectedID
	}
	if s.SearchTerm != "" {
		id, _ := x.SearchMatch(s.SearchTerm)
		return id
	}
	if x.Has(s.HoveredID) {
		return s.HoveredID
	}
	return ""
}

func deriveFocus(x *Index, focus string) Result {
	r := Result{
		Mode:    ModeFocus,
		FocusID: focus,
		Nodes:   map[string]bool{focus: true},
		Links:   make(map[model.LinkKey]bool),
	}
	for _, id := range x.Neighbors(focus) {
		r.Nodes[id] = true
	}
	for _, l := range x.IncidentLinks(focus) {
		r.Links[l.Key()] = true
	}
	return r
}

func deriveCategory(x *Index, cat model.Category) Result {
	g := x.Graph()
	r := Result{
		Mode:     ModeCategory,
		Category: cat,
		Nodes:    make(map[string]bool),
		Links:    make(map[model.LinkKey]bool),
	}

	for _, n := range g.Nodes {
		if n.Category == cat {
			r.Nodes[n.ID] = true
			continue
		}
		if !n.IsCreator() {
			continue
		}
		for _, l := range x.IncidentLinks(n.ID) {
			other, ok := g.NodeByID(l.Other(n.ID))
			if ok && other.Category == cat {
				r.Nodes[n.ID] = true
				break
			}
		}
	}

	for _, l := range g.Links {
		if !l.Phantom && (r.Nodes[l.Source] || r.Nodes[l.Target]) {
			r.Links[l.Key()] = true
		}
	}
	return r
}
