// Package physics configures and runs the force-directed layout.
//
// Configure is a pure function of the graph producing simulation parameters.
// The Simulator applies them; Manager decides when they must be re-applied.
package physics

import (
	"github.com/vanderheijden86/influgraph/pkg/model"
)

// Tuning holds the user-adjustable force constants.
type Tuning struct {
	Charge          float64 `yaml:"charge"`
	CenterStrength  float64 `yaml:"center_strength"`
	LinkDistance    float64 `yaml:"link_distance"`
	PhantomDistance float64 `yaml:"phantom_distance"`
	CollisionMargin float64 `yaml:"collision_margin"`
	Iterations      int     `yaml:"iterations"`
}

// DefaultTuning returns constants under which medium graphs (a few hundred
// nodes) settle without overlap.
func DefaultTuning() Tuning {
	return Tuning{
		Charge:          -120,
		CenterStrength:  0.2,
		LinkDistance:    80,
		PhantomDistance: 30,
		CollisionMargin: 4,
		Iterations:      300,
	}
}

// withDefaults fills zero fields from DefaultTuning.
func (t Tuning) withDefaults() Tuning {
	d := DefaultTuning()
	if t.Charge == 0 {
		t.Charge = d.Charge
	}
	if t.CenterStrength == 0 {
		t.CenterStrength = d.CenterStrength
	}
	if t.LinkDistance <= 0 {
		t.LinkDistance = d.LinkDistance
	}
	if t.PhantomDistance <= 0 {
		t.PhantomDistance = d.PhantomDistance
	}
	if t.CollisionMargin < 0 {
		t.CollisionMargin = d.CollisionMargin
	}
	if t.Iterations <= 0 {
		t.Iterations = d.Iterations
	}
	return t
}

// Config is the resolved parameter set for one graph.
type Config struct {
	Charge         float64
	CenterStrength float64
	// Distances[i] is the target length of graph.Links[i].
	Distances []float64
	// Collision[i] is the collision radius of graph.Nodes[i].
	Collision  []float64
	Iterations int
}

// Configure derives simulation parameters from g. Phantom links get the
// shorter phantom distance so same-category brands cluster.
func Configure(g *model.Graph, t Tuning) Config {
	t = t.withDefaults()
	cfg := Config{
		Charge:         t.Charge,
		CenterStrength: t.CenterStrength,
		Distances:      make([]float64, len(g.Links)),
		Collision:      make([]float64, len(g.Nodes)),
		Iterations:     t.Iterations,
	}
	for i, l := range g.Links {
		if l.Phantom {
			cfg.Distances[i] = t.PhantomDistance
		} else {
			cfg.Distances[i] = t.LinkDistance
		}
	}
	for i, n := range g.Nodes {
		cfg.Collision[i] = n.Radius() + t.CollisionMargin
	}
	return cfg
}
