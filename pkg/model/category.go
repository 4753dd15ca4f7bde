package model

import "strings"

// Category is the classification label the ingest pipeline assigns to brands.
type Category string

// The fixed category enumeration produced by the classifier.
const (
	CategoryNone       Category = ""
	CategoryFashion    Category = "Fashion"
	CategoryBeauty     Category = "Beauty & Personal Care"
	CategoryHealth     Category = "Health & Wellness"
	CategoryFood       Category = "Food & Beverage"
	CategoryMomKids    Category = "Mom & Kids"
	CategoryGadgets    Category = "IT & Gadgets"
	CategoryHome       Category = "Home & Living"
	CategoryToys       Category = "Toys & Collectibles"
	CategoryPet        Category = "Pet"
	CategoryAutomotive Category = "Automotive"
	CategoryLifestyle  Category = "Lifestyle"
)

// Categories returns the category enumeration in selector order.
func Categories() []Category {
	return []Category{
		CategoryFashion,
		CategoryBeauty,
		CategoryHealth,
		CategoryFood,
		CategoryMomKids,
		CategoryGadgets,
		CategoryHome,
		CategoryToys,
		CategoryPet,
		CategoryAutomotive,
		CategoryLifestyle,
	}
}

// IsKnown reports whether c is part of the fixed enumeration.
func (c Category) IsKnown() bool {
	for _, k := range Categories() {
		if c == k {
			return true
		}
	}
	return false
}

// ParseCategory resolves a user-supplied label to a category, matching the
// enumeration case-insensitively. Unknown labels are returned verbatim so
// legacy data still groups by its own label.
func ParseCategory(s string) Category {
	s = strings.TrimSpace(s)
	for _, k := range Categories() {
		if strings.EqualFold(s, string(k)) {
			return k
		}
	}
	return Category(s)
}
