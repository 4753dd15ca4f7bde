package paint

import (
	"image/color"

	"github.com/vanderheijden86/influgraph/pkg/model"
)

// Style holds the tunable paint parameters.
type Style struct {
	// Highlighted link width range and the score at which MaxWidth is reached.
	MinWidth float64
	MaxWidth float64
	ScoreCap float64

	// Width of non-highlighted links while a highlight mode is active.
	ThinWidth float64

	// Scale above which every node is labelled.
	LabelScale float64

	BorderWidth       float64
	AccentBorderWidth float64

	CreatorFontSize float64
	BrandFontSize   float64

	Background color.NRGBA
	Accent     color.NRGBA
	Border     color.NRGBA
	IdleLink   color.NRGBA
	FaintLink  color.NRGBA
	LabelFill  color.NRGBA
	LabelHalo  color.NRGBA
	Initials   color.NRGBA
	Creator    color.NRGBA
	Fallback   color.NRGBA

	Categories map[model.Category]color.NRGBA
}

// DefaultStyle returns the stock palette and sizes.
func DefaultStyle() Style {
	return Style{
		MinWidth:          1,
		MaxWidth:          8,
		ScoreCap:          500_000,
		ThinWidth:         0.5,
		LabelScale:        2.5,
		BorderWidth:       2,
		AccentBorderWidth: 3.5,
		CreatorFontSize:   14,
		BrandFontSize:     10,

		Background: color.NRGBA{0xfa, 0xfa, 0xfa, 0xff},
		Accent:     Hex("#ff9f1c"),
		Border:     color.NRGBA{0xff, 0xff, 0xff, 0xff},
		IdleLink:   color.NRGBA{180, 180, 180, 77},
		FaintLink:  color.NRGBA{180, 180, 180, 20},
		LabelFill:  Hex("#333333"),
		LabelHalo:  color.NRGBA{0xff, 0xff, 0xff, 230},
		Initials:   Hex("#555555"),
		Creator:    Hex("#ffffff"),
		Fallback:   Hex("#0f828c"),

		Categories: map[model.Category]color.NRGBA{
			model.CategoryFashion:    Hex("#f78d60"),
			model.CategoryBeauty:     Hex("#ea2264"),
			model.CategoryHealth:     Hex("#3bb273"),
			model.CategoryFood:       Hex("#e1bc29"),
			model.CategoryMomKids:    Hex("#f7a1c4"),
			model.CategoryGadgets:    Hex("#4d9de0"),
			model.CategoryHome:       Hex("#0d1164"),
			model.CategoryToys:       Hex("#9b5de5"),
			model.CategoryPet:        Hex("#8d6346"),
			model.CategoryAutomotive: Hex("#5c6b73"),
			model.CategoryLifestyle:  Hex("#640d5f"),
		},
	}
}

// NodeColor returns the fill colour for n: the category colour for brands,
// the creator colour for creators, and the fallback for unknown categories.
func (s Style) NodeColor(n model.Node) color.NRGBA {
	if n.IsCreator() {
		return s.Creator
	}
	if c, ok := s.Categories[n.Category]; ok {
		return c
	}
	return s.Fallback
}

// LinkScore combines engagement and reach into the highlighted width score.
func LinkScore(l model.Link, sourceFollowers int64) float64 {
	return float64(l.TotalViews) + float64(l.TotalLikes) + 0.5*float64(sourceFollowers)
}

// HighlightWidth maps a score into [MinWidth, MaxWidth].
func (s Style) HighlightWidth(score float64) float64 {
	if s.ScoreCap <= 0 {
		return s.MaxWidth
	}
	f := clamp01(score / s.ScoreCap)
	return s.MinWidth + (s.MaxWidth-s.MinWidth)*f
}

// IdleWidth returns the idle-mode width for a link's rank within its target.
func IdleWidth(localRank int) float64 {
	switch localRank {
	case 0:
		return 3
	case 1:
		return 2
	default:
		return 0.5
	}
}
