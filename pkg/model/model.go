// Package model defines the creator/brand graph types shared by every layer
// of influgraph: the raw payload returned by the graph data service and the
// canonical, aggregated graph the engine works on.
package model

import (
	"fmt"
	"math"
	"strings"
)

// Kind distinguishes the two sides of the bipartite graph.
type Kind string

const (
	KindCreator Kind = "creator"
	KindBrand   Kind = "brand"
)

// IsValid reports whether k is a known node kind.
func (k Kind) IsValid() bool {
	return k == KindCreator || k == KindBrand
}

// ParseKind maps the service's node type labels onto a Kind.
// Anything that is not a creator/influencer is treated as a brand.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "influencer", string(KindCreator):
		return KindCreator
	default:
		return KindBrand
	}
}

// Node is a creator or a brand. Nodes are immutable for the lifetime of one
// loaded graph.
type Node struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"name"`
	Kind        Kind     `json:"kind"`
	Category    Category `json:"category,omitempty"`
	Followers   int64    `json:"followers,omitempty"`
	AvatarURL   string   `json:"avatar_url,omitempty"`
	TotalLikes  int64    `json:"total_likes,omitempty"`
	TotalViews  int64    `json:"total_views,omitempty"`
}

// IsCreator reports whether the node is a content creator.
func (n Node) IsCreator() bool { return n.Kind == KindCreator }

// IsBrand reports whether the node is a brand/topic.
func (n Node) IsBrand() bool { return n.Kind == KindBrand }

const (
	creatorBaseRadius = 8.0
	creatorMaxRadius  = 24.0
	brandRadius       = 6.0
)

// Radius returns the rendered radius of the node in graph units.
// Creators grow with log10 of their follower count; brands are constant.
func (n Node) Radius() float64 {
	if !n.IsCreator() {
		return brandRadius
	}
	f := float64(n.Followers)
	if f < 0 {
		f = 0
	}
	r := creatorBaseRadius + 2*math.Log10(1+f)
	if r > creatorMaxRadius {
		r = creatorMaxRadius
	}
	return r
}

// Initials returns up to two upper-case initials of the display name.
func (n Node) Initials() string {
	fields := strings.Fields(strings.TrimLeft(n.DisplayName, "@#"))
	initials := make([]rune, 0, 2)
	for _, f := range fields {
		r := []rune(f)
		if len(r) == 0 {
			continue
		}
		initials = append(initials, r[0])
		if len(initials) == 2 {
			break
		}
	}
	if len(initials) == 0 {
		return "?"
	}
	return strings.ToUpper(string(initials))
}

// LinkKey identifies a link by its ordered endpoints.
type LinkKey struct {
	Source string
	Target string
}

func (k LinkKey) String() string {
	return fmt.Sprintf("%s->%s", k.Source, k.Target)
}

// Link connects two nodes. Phantom links are synthetic: they only bias the
// physics layout into category clusters and are never highlighted or drawn.
type Link struct {
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Type       string  `json:"type,omitempty"`
	Weight     float64 `json:"weight"`
	TotalViews int64   `json:"total_views,omitempty"`
	TotalLikes int64   `json:"total_likes,omitempty"`
	Phantom    bool    `json:"phantom,omitempty"`
	LocalRank  int     `json:"local_rank"`
}

// Key returns the ordered (source, target) pair of the link.
func (l Link) Key() LinkKey {
	return LinkKey{Source: l.Source, Target: l.Target}
}

// Touches reports whether id is one of the link's endpoints.
func (l Link) Touches(id string) bool {
	return l.Source == id || l.Target == id
}

// Other returns the endpoint opposite id, or "" when the link does not touch id.
func (l Link) Other(id string) string {
	switch id {
	case l.Source:
		return l.Target
	case l.Target:
		return l.Source
	default:
		return ""
	}
}

// Graph is the canonical aggregated graph. It is replaced wholesale on every
// reload; slice order is insertion order and only matters for determinism.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`

	index map[string]int
}

// NewGraph builds a graph and its id index.
func NewGraph(nodes []Node, links []Link) Graph {
	g := Graph{Nodes: nodes, Links: links}
	g.reindex()
	return g
}

func (g *Graph) reindex() {
	g.index = make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		if _, dup := g.index[n.ID]; !dup {
			g.index[n.ID] = i
		}
	}
}

// IndexOf returns the position of the node in Nodes, or -1.
func (g *Graph) IndexOf(id string) int {
	if g.index == nil {
		g.reindex()
	}
	if i, ok := g.index[id]; ok {
		return i
	}
	return -1
}

// NodeByID returns the node with the given id.
func (g *Graph) NodeByID(id string) (Node, bool) {
	i := g.IndexOf(id)
	if i < 0 {
		return Node{}, false
	}
	return g.Nodes[i], true
}

// IsEmpty reports whether the graph has no nodes.
func (g *Graph) IsEmpty() bool {
	return len(g.Nodes) == 0
}

// CountPhantom returns the number of phantom links.
func (g *Graph) CountPhantom() int {
	n := 0
	for _, l := range g.Links {
		if l.Phantom {
			n++
		}
	}
	return n
}
