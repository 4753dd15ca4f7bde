package datasource

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vanderheijden86/influgraph/pkg/model"
)

// GraphDiff describes how an aggregated graph changed between two loads.
type GraphDiff struct {
	AddedNodes   []string
	RemovedNodes []string
	AddedLinks   []string
	RemovedLinks []string
	// Reweighted lists links whose merged weight changed.
	Reweighted []WeightChange
}

// WeightChange is a link whose aggregated weight changed.
type WeightChange struct {
	Link string  `json:"link"`
	From float64 `json:"from"`
	To   float64 `json:"to"`
}

// IsEmpty reports whether the graphs are equivalent.
func (d GraphDiff) IsEmpty() bool {
	return len(d.AddedNodes) == 0 && len(d.RemovedNodes) == 0 &&
		len(d.AddedLinks) == 0 && len(d.RemovedLinks) == 0 && len(d.Reweighted) == 0
}

// Summary returns a one-line description, e.g. "+3 nodes, -1 link".
func (d GraphDiff) Summary() string {
	if d.IsEmpty() {
		return "no changes"
	}
	var parts []string
	add := func(n int, sign, noun string) {
		if n == 0 {
			return
		}
		if n != 1 {
			noun += "s"
		}
		parts = append(parts, fmt.Sprintf("%s%d %s", sign, n, noun))
	}
	add(len(d.AddedNodes), "+", "node")
	add(len(d.RemovedNodes), "-", "node")
	add(len(d.AddedLinks), "+", "link")
	add(len(d.RemovedLinks), "-", "link")
	add(len(d.Reweighted), "~", "link")
	return strings.Join(parts, ", ")
}

// Diff compares two aggregated graphs. Phantom links are ignored.
func Diff(before, after *model.Graph) GraphDiff {
	var d GraphDiff

	oldNodes := make(map[string]bool, len(before.Nodes))
	for _, n := range before.Nodes {
		oldNodes[n.ID] = true
	}
	newNodes := make(map[string]bool, len(after.Nodes))
	for _, n := range after.Nodes {
		newNodes[n.ID] = true
		if !oldNodes[n.ID] {
			d.AddedNodes = append(d.AddedNodes, n.ID)
		}
	}
	for _, n := range before.Nodes {
		if !newNodes[n.ID] {
			d.RemovedNodes = append(d.RemovedNodes, n.ID)
		}
	}

	oldLinks := realLinks(before)
	newLinks := realLinks(after)
	for k, w := range newLinks {
		prev, ok := oldLinks[k]
		switch {
		case !ok:
			d.AddedLinks = append(d.AddedLinks, k.String())
		case prev != w:
			d.Reweighted = append(d.Reweighted, WeightChange{Link: k.String(), From: prev, To: w})
		}
	}
	for k := range oldLinks {
		if _, ok := newLinks[k]; !ok {
			d.RemovedLinks = append(d.RemovedLinks, k.String())
		}
	}

	sort.Strings(d.AddedLinks)
	sort.Strings(d.RemovedLinks)
	sort.Slice(d.Reweighted, func(i, j int) bool { return d.Reweighted[i].Link < d.Reweighted[j].Link })
	return d
}

func realLinks(g *model.Graph) map[model.LinkKey]float64 {
	out := make(map[model.LinkKey]float64, len(g.Links))
	for _, l := range g.Links {
		if !l.Phantom {
			out[l.Key()] = l.Weight
		}
	}
	return out
}
