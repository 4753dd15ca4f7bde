package highlight

import (
	"strings"

	"github.com/vanderheijden86/influgraph/pkg/model"
)

// State is the complete interaction state driving highlights.
type State struct {
	HoveredID      string
	SelectedID     string
	SearchTerm     string
	ActiveCategory model.Category
}

// IsIdle reports whether no interaction input is set.
func (s State) IsIdle() bool {
	return s == State{}
}

// Locked reports whether hover events are currently suppressed: a selection
// or a search term owns the focus.
func (s State) Locked() bool {
	return s.SelectedID != "" || s.SearchTerm != ""
}

// EffectKind names a camera reaction requested by a state transition.
type EffectKind int

const (
	// EffectFocusNode: a node was selected; center and zoom on it.
	EffectFocusNode EffectKind = iota + 1
	// EffectDeselect: the selected node was clicked again; fit the graph.
	EffectDeselect
	// EffectFitAll: the background was clicked; fit the graph.
	EffectFitAll
	// EffectSearchMatch: the search match changed; center and zoom closer.
	EffectSearchMatch
)

func (k EffectKind) String() string {
	switch k {
	case EffectFocusNode:
		return "focus-node"
	case EffectDeselect:
		return "deselect"
	case EffectFitAll:
		return "fit-all"
	case EffectSearchMatch:
		return "search-match"
	default:
		return "unknown"
	}
}

// Effect is a side effect for the viewport controller.
type Effect struct {
	Kind   EffectKind
	NodeID string
}

// Hover records the hovered node ("" clears it). Hover is ignored while a
// selection or search term is active.
func (s State) Hover(id string) State {
	if s.Locked() {
		return s
	}
	s.HoveredID = id
	return s
}

// Click handles a click on a node. Clicking the selected node again clears
// the interaction and fits the graph; any other node becomes the selection.
func (s State) Click(id string) (State, []Effect) {
	if id == "" {
		return s.ClickBackground()
	}
	if id == s.SelectedID {
		return s.clear(), []Effect{{Kind: EffectDeselect, NodeID: id}}
	}
	s.SelectedID = id
	return s, []Effect{{Kind: EffectFocusNode, NodeID: id}}
}

// ClickBackground clears selection, hover and search and fits the graph.
func (s State) ClickBackground() (State, []Effect) {
	return s.clear(), []Effect{{Kind: EffectFitAll}}
}

// SetSearch updates the local filter text. When the first matching node
// changes to a new node, the camera is asked to center on it.
func (s State) SetSearch(x *Index, term string) (State, []Effect) {
	term = strings.TrimSpace(term)
	prev, _ := x.SearchMatch(s.SearchTerm)
	s.SearchTerm = term
	if term == "" {
		return s, nil
	}

	next, ok := x.SearchMatch(term)
	if !ok || next == prev {
		return s, nil
	}
	return s, []Effect{{Kind: EffectSearchMatch, NodeID: next}}
}

// SetCategory sets or clears ("") the active category filter.
func (s State) SetCategory(cat model.Category) State {
	s.ActiveCategory = cat
	return s
}

// Reset returns the zero state, clearing the category filter as well.
func (s State) Reset() State {
	return State{}
}

// Prune drops references to nodes that no longer exist after a reload.
func (s State) Prune(x *Index) State {
	if !x.Has(s.SelectedID) {
		s.SelectedID = ""
	}
	if !x.Has(s.HoveredID) {
		s.HoveredID = ""
	}
	return s
}

// clear resets selection, hover and search; the category filter is kept.
func (s State) clear() State {
	return State{ActiveCategory: s.ActiveCategory}
}
