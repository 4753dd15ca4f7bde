package ui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/influgraph/pkg/model"
)

// truncateRunesHelper truncates a string to max visual width (cells), adding suffix if needed.
// Uses go-runewidth to handle wide characters correctly.
func truncateRunesHelper(s string, maxWidth int, suffix string) string {
	if maxWidth <= 0 {
		return ""
	}

	width := runewidth.StringWidth(s)
	if width <= maxWidth {
		return s
	}

	suffixWidth := runewidth.StringWidth(suffix)
	if suffixWidth > maxWidth {
		return runewidth.Truncate(suffix, maxWidth, "")
	}

	targetWidth := maxWidth - suffixWidth
	return runewidth.Truncate(s, targetWidth, "") + suffix
}

// formatCount renders follower and view counts compactly (1.2k, 3.4M).
func formatCount(n int64) string {
	switch {
	case n >= 1_000_000_000:
		return trimZero(fmt.Sprintf("%.1fB", float64(n)/1e9))
	case n >= 1_000_000:
		return trimZero(fmt.Sprintf("%.1fM", float64(n)/1e6))
	case n >= 1_000:
		return trimZero(fmt.Sprintf("%.1fk", float64(n)/1e3))
	default:
		return fmt.Sprintf("%d", n)
	}
}

func trimZero(s string) string {
	return strings.Replace(s, ".0", "", 1)
}

// nextCategory steps through "no filter" followed by the category
// enumeration, wrapping in both directions.
func nextCategory(cur model.Category, delta int) model.Category {
	cats := append([]model.Category{model.CategoryNone}, model.Categories()...)
	i := 0
	for j, c := range cats {
		if c == cur {
			i = j
			break
		}
	}
	n := len(cats)
	return cats[((i+delta)%n+n)%n]
}

// describeNode is the one-line summary shown for the selected node.
func describeNode(n model.Node) string {
	if n.IsCreator() {
		return fmt.Sprintf("%s · %s followers · %s likes · %s views",
			n.DisplayName, formatCount(n.Followers), formatCount(n.TotalLikes), formatCount(n.TotalViews))
	}
	if n.Category != model.CategoryNone {
		return fmt.Sprintf("%s · %s", n.DisplayName, n.Category)
	}
	return n.DisplayName
}
