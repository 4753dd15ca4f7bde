// Package aggregate turns a raw service payload into the canonical graph:
// endpoints normalised, dangling links dropped, duplicate links merged,
// links ranked within their target, and phantom category chains added to
// pull same-category brands together in the layout.
package aggregate

import (
	"sort"
	"time"

	"github.com/vanderheijden86/influgraph/pkg/debug"
	"github.com/vanderheijden86/influgraph/pkg/metrics"
	"github.com/vanderheijden86/influgraph/pkg/model"
)

// PhantomType is the link type assigned to synthetic category links.
const PhantomType = "phantom"

// Stats summarises one aggregation run.
type Stats struct {
	RawLinks        int           `json:"raw_links"`
	DroppedDangling int           `json:"dropped_dangling"`
	Merged          int           `json:"merged"`
	Phantom         int           `json:"phantom"`
	Elapsed         time.Duration `json:"elapsed"`
}

// Aggregate builds the canonical graph from raw records.
func Aggregate(raw model.RawGraph) model.Graph {
	g, _ := AggregateWithStats(raw)
	return g
}

// AggregateWithStats is Aggregate plus a summary of what was dropped and merged.
// The result never aliases the raw input.
func AggregateWithStats(raw model.RawGraph) (model.Graph, Stats) {
	start := time.Now()
	defer metrics.Timer(metrics.Aggregation)()

	stats := Stats{RawLinks: len(raw.Links)}

	nodes := convertNodes(raw.Nodes)
	present := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		present[n.ID] = true
	}

	merged, dropped := mergeLinks(raw.Links, present)
	stats.DroppedDangling = dropped
	stats.Merged = len(merged)

	assignLocalRanks(merged)

	phantom := phantomLinks(nodes)
	stats.Phantom = len(phantom)

	links := make([]model.Link, 0, len(merged)+len(phantom))
	links = append(links, merged...)
	links = append(links, phantom...)

	stats.Elapsed = time.Since(start)
	debug.Event("aggregated graph",
		"nodes", len(nodes),
		"raw_links", stats.RawLinks,
		"dropped", stats.DroppedDangling,
		"merged", stats.Merged,
		"phantom", stats.Phantom)

	return model.NewGraph(nodes, links), stats
}

func convertNodes(raw []model.RawNode) []model.Node {
	nodes := make([]model.Node, 0, len(raw))
	for _, rn := range raw {
		kind := model.ParseKind(rn.Type)
		n := model.Node{
			ID:          rn.ID.ID(),
			DisplayName: rn.Name,
			Kind:        kind,
			AvatarURL:   rn.AvatarSource(),
			TotalLikes:  nonNegative(rn.TotalLikes),
			TotalViews:  nonNegative(rn.TotalViews),
		}
		if n.DisplayName == "" {
			n.DisplayName = "Unknown"
		}
		if kind == model.KindBrand {
			n.Category = model.ParseCategory(rn.Category)
		} else {
			n.Followers = nonNegative(rn.Followers)
		}
		nodes = append(nodes, n)
	}
	return nodes
}

// mergeLinks normalises endpoints, drops links whose endpoints are missing and
// merges duplicates by ordered pair. The first record of each pair supplies
// the non-summed fields; output order is first-seen order.
func mergeLinks(raw []model.RawLink, present map[string]bool) ([]model.Link, int) {
	byKey := make(map[model.LinkKey]int, len(raw))
	merged := make([]model.Link, 0, len(raw))
	dropped := 0

	for _, rl := range raw {
		src, dst := rl.Source.ID(), rl.Target.ID()
		if !present[src] || !present[dst] {
			dropped++
			continue
		}

		key := model.LinkKey{Source: src, Target: dst}
		weight := rl.Weight
		if weight <= 0 {
			weight = 1
		}

		if i, ok := byKey[key]; ok {
			merged[i].Weight += weight
			merged[i].TotalViews += nonNegative(rl.TotalViews)
			merged[i].TotalLikes += nonNegative(rl.TotalLikes)
			continue
		}

		byKey[key] = len(merged)
		merged = append(merged, model.Link{
			Source:     src,
			Target:     dst,
			Type:       rl.Type,
			Weight:     weight,
			TotalViews: nonNegative(rl.TotalViews),
			TotalLikes: nonNegative(rl.TotalLikes),
		})
	}

	debug.LogIf(dropped > 0, "dropped %d links with dangling endpoints", dropped)
	return merged, dropped
}

// assignLocalRanks ranks links within each target partition by descending
// weight. Ties keep first-seen order.
func assignLocalRanks(links []model.Link) {
	partitions := make(map[string][]int)
	var order []string
	for i, l := range links {
		if _, ok := partitions[l.Target]; !ok {
			order = append(order, l.Target)
		}
		partitions[l.Target] = append(partitions[l.Target], i)
	}

	for _, target := range order {
		idx := partitions[target]
		sort.SliceStable(idx, func(a, b int) bool {
			return links[idx[a]].Weight > links[idx[b]].Weight
		})
		for rank, i := range idx {
			links[i].LocalRank = rank
		}
	}
}

// phantomLinks chains brands of the same category into a simple path in
// encountered order, giving count-1 links per category.
func phantomLinks(nodes []model.Node) []model.Link {
	members := make(map[model.Category][]string)
	var order []model.Category
	for _, n := range nodes {
		if !n.IsBrand() || n.Category == model.CategoryNone {
			continue
		}
		if _, ok := members[n.Category]; !ok {
			order = append(order, n.Category)
		}
		members[n.Category] = append(members[n.Category], n.ID)
	}

	var links []model.Link
	for _, cat := range order {
		ids := members[cat]
		for i := 1; i < len(ids); i++ {
			links = append(links, model.Link{
				Source:  ids[i-1],
				Target:  ids[i],
				Type:    PhantomType,
				Weight:  1,
				Phantom: true,
			})
		}
	}
	return links
}

func nonNegative(v float64) int64 {
	if v <= 0 {
		return 0
	}
	return int64(v)
}
