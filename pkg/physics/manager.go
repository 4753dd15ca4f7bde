package physics

import (
	"github.com/vanderheijden86/influgraph/pkg/debug"
	"github.com/vanderheijden86/influgraph/pkg/model"
)

// Manager re-applies configuration and reheats the simulator when the graph
// or the viewport size changes. Highlight-only changes never reach it.
type Manager struct {
	sim    Simulator
	tuning Tuning

	synced        bool
	gen           uint64
	width, height int
}

// NewManager wraps sim with the given tuning.
func NewManager(sim Simulator, t Tuning) *Manager {
	return &Manager{sim: sim, tuning: t}
}

// Simulator returns the managed simulator.
func (m *Manager) Simulator() Simulator { return m.sim }

// Sync brings the simulator up to date with graph generation gen and the
// viewport size. It reports whether the simulation was reheated.
func (m *Manager) Sync(g *model.Graph, gen uint64, width, height int) bool {
	graphChanged := !m.synced || gen != m.gen
	sizeChanged := width != m.width || height != m.height
	if !graphChanged && !sizeChanged {
		return false
	}

	if graphChanged {
		m.sim.SetGraph(g)
	}
	m.sim.Apply(Configure(g, m.tuning))
	m.sim.Reheat()

	debug.Event("physics reheated", "gen", gen, "graph_changed", graphChanged, "size_changed", sizeChanged,
		"width", width, "height", height)

	m.synced = true
	m.gen = gen
	m.width, m.height = width, height
	return true
}
