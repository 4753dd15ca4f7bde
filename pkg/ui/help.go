package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# influgraph

Creators and the brands they mention, laid out by a force simulation.
Links grow with engagement when a node is focused.

## Navigation

| Key | Action |
|---|---|
| ←↑↓→ / hjkl | pan |
| + / - | zoom in / out |
| 0 | fit the whole graph |
| f | toggle fullscreen |

## Focus

| Key | Action |
|---|---|
| click | select a node, click again to deselect |
| n / N, tab | select the next / previous node |
| / | search by name, enter keeps the filter |
| c / C | next / previous category filter |
| x | clear the category filter |
| esc | clear selection and search |
| y | copy the selected node name |

## Data

| Key | Action |
|---|---|
| r | reload the graph |
| i | ingest a hashtag or @profile |
| ? | toggle this help |
| q | quit |
`

// renderHelp renders the key reference for the given width. It falls back
// to the raw markdown when glamour cannot render.
func renderHelp(width int) string {
	wrap := width - 4
	if wrap < 20 {
		wrap = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return strings.TrimRight(out, "\n ")
}
