// Package highlight derives which nodes and links are emphasised from the
// current interaction state (hover, selection, search, category filter).
//
// The interaction state is a single value (State); Derive is a pure function
// of that value and the graph Index, so exactly one highlight mode is active
// at any time.
package highlight

import (
	"strings"

	"gonum.org/v1/gonum/graph/simple"

	"github.com/vanderheijden86/influgraph/pkg/model"
)

// Index holds per-graph lookup structures used by Derive. It is built once
// per loaded graph and only considers non-phantom links.
type Index struct {
	graph    *model.Graph
	adj      *simple.UndirectedGraph
	incident map[string][]int
	names    []string
}

// NewIndex builds the adjacency index for g. The graph must not be mutated
// while the index is in use.
func NewIndex(g *model.Graph) *Index {
	x := &Index{
		graph:    g,
		adj:      simple.NewUndirectedGraph(),
		incident: make(map[string][]int),
		names:    make([]string, len(g.Nodes)),
	}

	for i, n := range g.Nodes {
		x.adj.AddNode(simple.Node(int64(i)))
		x.names[i] = strings.ToLower(n.DisplayName)
	}

	for li, l := range g.Links {
		if l.Phantom {
			continue
		}
		si, ti := g.IndexOf(l.Source), g.IndexOf(l.Target)
		if si < 0 || ti < 0 {
			continue
		}
		x.incident[l.Source] = append(x.incident[l.Source], li)
		if l.Target != l.Source {
			x.incident[l.Target] = append(x.incident[l.Target], li)
			x.adj.SetEdge(x.adj.NewEdge(simple.Node(int64(si)), simple.Node(int64(ti))))
		}
	}
	return x
}

// Graph returns the indexed graph.
func (x *Index) Graph() *model.Graph {
	return x.graph
}

// Has reports whether id names a node in the graph.
func (x *Index) Has(id string) bool {
	return id != "" && x.graph.IndexOf(id) >= 0
}

// Neighbors returns the ids of nodes one non-phantom link away from id, in
// node insertion order.
func (x *Index) Neighbors(id string) []string {
	i := x.graph.IndexOf(id)
	if i < 0 {
		return nil
	}
	seen := make([]bool, len(x.graph.Nodes))
	it := x.adj.From(int64(i))
	for it.Next() {
		seen[it.Node().ID()] = true
	}
	var out []string
	for j, ok := range seen {
		if ok {
			out = append(out, x.graph.Nodes[j].ID)
		}
	}
	return out
}

// IncidentLinks returns the non-phantom links touching id.
func (x *Index) IncidentLinks(id string) []model.Link {
	idx := x.incident[id]
	out := make([]model.Link, 0, len(idx))
	for _, li := range idx {
		out = append(out, x.graph.Links[li])
	}
	return out
}

// SearchMatch returns the first node, in insertion order, whose display name
// contains term case-insensitively.
func (x *Index) SearchMatch(term string) (string, bool) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return "", false
	}
	for i, name := range x.names {
		if strings.Contains(name, term) {
			return x.graph.Nodes[i].ID, true
		}
	}
	return "", false
}
