package export

import (
	"fmt"
	"hash/fnv"
	"image/color"
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/influgraph/pkg/aggregate"
	"github.com/vanderheijden86/influgraph/pkg/highlight"
	"github.com/vanderheijden86/influgraph/pkg/model"
	"github.com/vanderheijden86/influgraph/pkg/paint"
)

// GraphExportFormat specifies the output format for graph export.
type GraphExportFormat string

const (
	GraphFormatJSON    GraphExportFormat = "json"
	GraphFormatDOT     GraphExportFormat = "dot"
	GraphFormatMermaid GraphExportFormat = "mermaid"
)

// GraphExportConfig configures graph export behavior.
type GraphExportConfig struct {
	Format   GraphExportFormat // Output format (json, dot, mermaid)
	Category model.Category    // Keep brands of this category and the creators mentioning them
	Root     string            // Subgraph around a specific node
	Depth    int               // Max hops from Root (0 = unlimited)
}

// GraphExportResult contains the exported graph and metadata.
type GraphExportResult struct {
	Format         string            `json:"format"`
	Graph          string            `json:"graph,omitempty"`
	Nodes          int               `json:"nodes"`
	Edges          int               `json:"edges"`
	FiltersApplied map[string]string `json:"filters_applied,omitempty"`
	Explanation    GraphExplanation  `json:"explanation"`
	DataHash       string            `json:"data_hash"`
	Stats          *aggregate.Stats  `json:"stats,omitempty"`
	Adjacency      *AdjacencyGraph   `json:"adjacency,omitempty"`
}

// GraphExplanation provides context for scripts and agents reading the dump.
type GraphExplanation struct {
	What        string `json:"what"`
	HowToRender string `json:"how_to_render,omitempty"`
	WhenToUse   string `json:"when_to_use"`
}

// AdjacencyGraph is the JSON adjacency list representation.
type AdjacencyGraph struct {
	Nodes []AdjacencyNode `json:"nodes"`
	Edges []AdjacencyEdge `json:"edges"`
}

// AdjacencyNode is one creator or brand. X and Y are set when a layout was
// supplied.
type AdjacencyNode struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	Category   string   `json:"category,omitempty"`
	Followers  int64    `json:"followers,omitempty"`
	TotalLikes int64    `json:"total_likes,omitempty"`
	TotalViews int64    `json:"total_views,omitempty"`
	Degree     int      `json:"degree"`
	X          *float64 `json:"x,omitempty"`
	Y          *float64 `json:"y,omitempty"`
}

// AdjacencyEdge is one aggregated creator-brand link.
type AdjacencyEdge struct {
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Weight     float64 `json:"weight"`
	TotalViews int64   `json:"total_views,omitempty"`
	TotalLikes int64   `json:"total_likes,omitempty"`
	LocalRank  int     `json:"local_rank"`
}

// ExportGraph exports the aggregated graph in the configured format. layout
// and stats are optional.
func ExportGraph(g *model.Graph, layout paint.Layout, stats *aggregate.Stats, config GraphExportConfig) (*GraphExportResult, error) {
	if config.Root != "" && g.IndexOf(config.Root) < 0 {
		return nil, fmt.Errorf("root node %q not found", config.Root)
	}
	if config.Category != model.CategoryNone && !config.Category.IsKnown() {
		return nil, fmt.Errorf("unknown category %q", config.Category)
	}

	keep := filterNodes(g, config)
	var nodes []model.Node
	for _, n := range g.Nodes {
		if keep[n.ID] {
			nodes = append(nodes, n)
		}
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	var links []model.Link
	for _, l := range g.Links {
		if !l.Phantom && keep[l.Source] && keep[l.Target] {
			links = append(links, l)
		}
	}
	sort.Slice(links, func(i, j int) bool {
		if links[i].Source != links[j].Source {
			return links[i].Source < links[j].Source
		}
		return links[i].Target < links[j].Target
	})

	filtersApplied := make(map[string]string)
	if config.Category != model.CategoryNone {
		filtersApplied["category"] = string(config.Category)
	}
	if config.Root != "" {
		filtersApplied["root"] = config.Root
	}
	if config.Depth > 0 {
		filtersApplied["depth"] = fmt.Sprintf("%d", config.Depth)
	}

	result := &GraphExportResult{
		Format:         string(config.Format),
		Nodes:          len(nodes),
		Edges:          len(links),
		FiltersApplied: filtersApplied,
		DataHash:       DataHash(g),
		Stats:          stats,
	}

	if len(nodes) == 0 {
		result.Explanation = GraphExplanation{
			What:      "Empty graph - no nodes match the filter criteria",
			WhenToUse: "Adjust filter parameters to include more nodes",
		}
		return result, nil
	}

	switch config.Format {
	case GraphFormatDOT:
		result.Graph = generateDOT(nodes, links)
		result.Explanation = GraphExplanation{
			What:        "Creator-brand graph in Graphviz DOT format",
			HowToRender: "Save to file.dot, run: neato -Tpng file.dot -o graph.png",
			WhenToUse:   "When you need a static picture of who mentions which brand",
		}

	case GraphFormatMermaid:
		result.Graph = generateMermaid(nodes, links)
		result.Explanation = GraphExplanation{
			What:        "Creator-brand graph in Mermaid diagram format",
			HowToRender: "Paste into any Markdown renderer that supports Mermaid, or use mermaid.live",
			WhenToUse:   "When you need an embeddable diagram for documentation",
		}

	case GraphFormatJSON:
		fallthrough
	default:
		result.Format = "json"
		result.Adjacency = generateAdjacency(nodes, links, layout)
		result.Explanation = GraphExplanation{
			What:      "Creator-brand graph as JSON adjacency list",
			WhenToUse: "When you need programmatic access to the aggregated graph",
		}
	}

	return result, nil
}

// WriteJSON encodes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// filterNodes returns the ids kept by the category and root filters.
func filterNodes(g *model.Graph, config GraphExportConfig) map[string]bool {
	x := highlight.NewIndex(g)
	keep := make(map[string]bool, len(g.Nodes))
	if config.Category != model.CategoryNone {
		// Same membership the category highlight uses.
		for id := range highlight.Derive(x, highlight.State{ActiveCategory: config.Category}).Nodes {
			keep[id] = true
		}
	} else {
		for _, n := range g.Nodes {
			keep[n.ID] = true
		}
	}
	if config.Root == "" {
		return keep
	}

	// BFS from the root over links in both directions.
	visited := make(map[string]bool)
	type item struct {
		id    string
		depth int
	}
	queue := []item{{config.Root, 0}}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		if visited[curr.id] || !keep[curr.id] {
			continue
		}
		visited[curr.id] = true
		if config.Depth > 0 && curr.depth >= config.Depth {
			continue
		}
		for _, nb := range x.Neighbors(curr.id) {
			if !visited[nb] {
				queue = append(queue, item{nb, curr.depth + 1})
			}
		}
	}
	return visited
}

// DataHash fingerprints the graph content independent of node and link
// order.
func DataHash(g *model.Graph) string {
	lines := make([]string, 0, len(g.Nodes)+len(g.Links))
	for _, n := range g.Nodes {
		lines = append(lines, fmt.Sprintf("n|%s|%s|%s|%s|%d", n.ID, n.DisplayName, n.Kind, n.Category, n.Followers))
	}
	for _, l := range g.Links {
		if l.Phantom {
			continue
		}
		lines = append(lines, fmt.Sprintf("l|%s|%s|%g|%d|%d", l.Source, l.Target, l.Weight, l.TotalViews, l.TotalLikes))
	}
	sort.Strings(lines)
	h := fnv.New64a()
	for _, line := range lines {
		_, _ = h.Write([]byte(line))
		_, _ = h.Write([]byte{'\n'})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// generateDOT creates a Graphviz DOT format graph.
func generateDOT(nodes []model.Node, links []model.Link) string {
	style := paint.DefaultStyle()
	var sb strings.Builder

	sb.WriteString("graph G {\n")
	sb.WriteString("    overlap=false;\n")
	sb.WriteString("    node [fontname=\"Helvetica\", fontsize=10, style=filled];\n")
	sb.WriteString("\n")

	for _, n := range nodes {
		label := escapeDOTString(truncateRunes(n.DisplayName, 30))
		shape := "box"
		if n.IsCreator() {
			shape = "ellipse"
		}
		sb.WriteString(fmt.Sprintf("    \"%s\" [label=\"%s\", shape=%s, fillcolor=\"%s\"];\n",
			escapeDOTString(n.ID), label, shape, dotColor(style.NodeColor(n))))
	}

	sb.WriteString("\n")

	for _, l := range links {
		pen := 1 + l.Weight/2
		if pen > 6 {
			pen = 6
		}
		sb.WriteString(fmt.Sprintf("    \"%s\" -- \"%s\" [penwidth=%.1f, label=\"%g\"];\n",
			escapeDOTString(l.Source), escapeDOTString(l.Target), pen, l.Weight))
	}

	sb.WriteString("}\n")
	return sb.String()
}

func dotColor(c color.NRGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

func escapeDOTString(s string) string {
	// DOT string literals need backslashes and quotes escaped; normalize newlines.
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		"\"", "\\\"",
		"\n", " ",
		"\r", " ",
	)
	return replacer.Replace(s)
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// generateMermaid creates a Mermaid diagram format graph.
func generateMermaid(nodes []model.Node, links []model.Link) string {
	var sb strings.Builder

	sb.WriteString("graph LR\n")
	sb.WriteString("    classDef creator fill:#FFFFFF,stroke:#333,color:#000\n")
	sb.WriteString("    classDef brand fill:#0F828C,stroke:#333,color:#fff\n")
	sb.WriteString("\n")

	// Build deterministic, collision-free Mermaid IDs
	safeIDMap := make(map[string]string)
	usedSafe := make(map[string]bool)
	getSafeID := func(orig string) string {
		if safe, ok := safeIDMap[orig]; ok {
			return safe
		}
		base := sanitizeMermaidID(orig)
		safe := base
		if usedSafe[safe] {
			// Collision: derive stable hash-based suffix
			h := fnv.New32a()
			_, _ = h.Write([]byte(orig))
			safe = fmt.Sprintf("%s_%x", base, h.Sum32())
		}
		usedSafe[safe] = true
		safeIDMap[orig] = safe
		return safe
	}

	for _, n := range nodes {
		safeID := getSafeID(n.ID)
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", safeID, sanitizeMermaidText(n.DisplayName)))
		class := "brand"
		if n.IsCreator() {
			class = "creator"
		}
		sb.WriteString(fmt.Sprintf("    class %s %s\n", safeID, class))
	}

	sb.WriteString("\n")

	for _, l := range links {
		sb.WriteString(fmt.Sprintf("    %s -- %g --- %s\n", getSafeID(l.Source), l.Weight, getSafeID(l.Target)))
	}

	return sb.String()
}

// sanitizeMermaidID keeps only characters Mermaid accepts in node IDs.
func sanitizeMermaidID(id string) string {
	var sb strings.Builder
	for _, r := range id {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return "node"
	}
	return sb.String()
}

// sanitizeMermaidText prepares text for use in Mermaid node labels.
func sanitizeMermaidText(text string) string {
	replacer := strings.NewReplacer(
		"\"", "'",
		"[", "(",
		"]", ")",
		"{", "(",
		"}", ")",
		"<", "&lt;",
		">", "&gt;",
		"|", "/",
		"`", "'",
		"\n", " ",
		"\r", "",
	)
	result := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, replacer.Replace(text))
	return truncateRunes(strings.TrimSpace(result), 40)
}

// generateAdjacency creates a JSON adjacency list representation.
func generateAdjacency(nodes []model.Node, links []model.Link, layout paint.Layout) *AdjacencyGraph {
	degree := make(map[string]int, len(nodes))
	for _, l := range links {
		degree[l.Source]++
		degree[l.Target]++
	}

	out := &AdjacencyGraph{
		Nodes: make([]AdjacencyNode, 0, len(nodes)),
		Edges: make([]AdjacencyEdge, 0, len(links)),
	}
	for _, n := range nodes {
		node := AdjacencyNode{
			ID:         n.ID,
			Name:       n.DisplayName,
			Kind:       string(n.Kind),
			Category:   string(n.Category),
			Followers:  n.Followers,
			TotalLikes: n.TotalLikes,
			TotalViews: n.TotalViews,
			Degree:     degree[n.ID],
		}
		if layout != nil {
			if x, y, ok := layout.Position(n.ID); ok {
				node.X, node.Y = &x, &y
			}
		}
		out.Nodes = append(out.Nodes, node)
	}
	for _, l := range links {
		out.Edges = append(out.Edges, AdjacencyEdge{
			Source:     l.Source,
			Target:     l.Target,
			Weight:     l.Weight,
			TotalViews: l.TotalViews,
			TotalLikes: l.TotalLikes,
			LocalRank:  l.LocalRank,
		})
	}
	return out
}
