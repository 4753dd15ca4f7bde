// Package testutil provides deterministic creator/brand graph fixtures.
// All generators produce the same output for the same seed.
package testutil

import (
	"fmt"
	"math/rand"

	"github.com/vanderheijden86/influgraph/pkg/model"
)

// GeneratorConfig controls fixture generation.
type GeneratorConfig struct {
	Seed          int64            // Random seed for determinism
	CreatorPrefix string           // Prefix for creator ids (default "creator")
	BrandPrefix   string           // Prefix for brand ids (default "brand")
	Categories    []model.Category // Categories assigned round-robin-ish to brands
	MaxFollowers  int64            // Upper bound for generated follower counts
	WithAvatars   bool             // Give creators an avatar URL
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:          42,
		CreatorPrefix: "creator",
		BrandPrefix:   "brand",
		Categories:    model.Categories(),
		MaxFollowers:  2_000_000,
	}
}

// Generator creates raw graph fixtures.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	if cfg.CreatorPrefix == "" {
		cfg.CreatorPrefix = "creator"
	}
	if cfg.BrandPrefix == "" {
		cfg.BrandPrefix = "brand"
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = model.Categories()
	}
	if cfg.MaxFollowers <= 0 {
		cfg.MaxFollowers = 1_000_000
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// Network creates a raw bipartite graph with the given number of creators,
// brands and raw links. Links always point creator -> brand and may repeat a
// pair, which exercises merging downstream.
func (g *Generator) Network(creators, brands, links int) model.RawGraph {
	var raw model.RawGraph

	for i := 0; i < creators; i++ {
		id := fmt.Sprintf("%s-%d", g.cfg.CreatorPrefix, i)
		n := model.RawNode{
			ID:        model.Endpoint(id),
			Name:      fmt.Sprintf("Creator %d", i),
			Type:      "Influencer",
			Followers: float64(g.rng.Int63n(g.cfg.MaxFollowers)),
		}
		if g.cfg.WithAvatars {
			n.AvatarURL = fmt.Sprintf("https://cdn.example.com/avatars/%s.png", id)
		}
		raw.Nodes = append(raw.Nodes, n)
	}

	for i := 0; i < brands; i++ {
		id := fmt.Sprintf("%s-%d", g.cfg.BrandPrefix, i)
		cat := g.cfg.Categories[g.rng.Intn(len(g.cfg.Categories))]
		raw.Nodes = append(raw.Nodes, model.RawNode{
			ID:       model.Endpoint(id),
			Name:     fmt.Sprintf("Brand %d", i),
			Type:     "Brand",
			Category: string(cat),
		})
	}

	if creators == 0 || brands == 0 {
		return raw
	}
	for i := 0; i < links; i++ {
		c := g.rng.Intn(creators)
		b := g.rng.Intn(brands)
		raw.Links = append(raw.Links, model.RawLink{
			Source:     model.Endpoint(fmt.Sprintf("%s-%d", g.cfg.CreatorPrefix, c)),
			Target:     model.Endpoint(fmt.Sprintf("%s-%d", g.cfg.BrandPrefix, b)),
			Weight:     float64(1 + g.rng.Intn(5)),
			TotalViews: float64(g.rng.Intn(500_000)),
			TotalLikes: float64(g.rng.Intn(50_000)),
		})
	}
	return raw
}

// Sample returns the small hand-written graph used across package tests:
//
//	creators: alice (links nike, zara, pedigree), bob (links zara)
//	brands:   nike, zara (Fashion), pedigree (Pet), sephora (Beauty, unlinked)
//
// nike and zara share a category, so the aggregated graph has one phantom
// link nike->zara.
func Sample() model.RawGraph {
	return model.RawGraph{
		Nodes: []model.RawNode{
			{ID: "alice", Name: "Alice Wonder", Type: "Influencer", Followers: 120_000, AvatarURL: "https://cdn.example.com/alice.png"},
			{ID: "bob", Name: "Bob Builder", Type: "Influencer", Followers: 900},
			{ID: "nike", Name: "Nike", Type: "Brand", Category: "Fashion"},
			{ID: "zara", Name: "Zara", Type: "Brand", Category: "Fashion"},
			{ID: "pedigree", Name: "Pedigree", Type: "Brand", Category: "Pet"},
			{ID: "sephora", Name: "Sephora", Type: "Brand", Category: "Beauty & Personal Care"},
		},
		Links: []model.RawLink{
			{Source: "alice", Target: "nike", Weight: 3, TotalViews: 10_000, TotalLikes: 800},
			{Source: "alice", Target: "zara", Weight: 1, TotalViews: 2_000, TotalLikes: 100},
			{Source: "alice", Target: "pedigree", Weight: 2, TotalViews: 5_000, TotalLikes: 300},
			{Source: "bob", Target: "zara", Weight: 4, TotalViews: 700, TotalLikes: 20},
			{Source: "bob", Target: "ghost", Weight: 9},
		},
	}
}
