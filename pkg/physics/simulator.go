package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/barneshut"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/vanderheijden86/influgraph/pkg/metrics"
	"github.com/vanderheijden86/influgraph/pkg/model"
)

// Simulator runs a force layout over a graph.
type Simulator interface {
	SetGraph(g *model.Graph)
	Apply(cfg Config)
	Reheat()
	// Step advances one tick and reports whether the layout is still moving.
	Step() bool
	Position(id string) (x, y float64, ok bool)
}

const (
	// eadesUnit converts between graph units and the unit-length space the
	// Eades spring model works in.
	eadesUnit = 80.0

	linkStrength = 0.3
	eadesRate    = 0.1
	eadesTheta   = 0.2
	// maxShift bounds one tick's movement, in Eades units.
	maxShift = 1.0
)

// EadesSimulator lays out the graph with an Eades spring embedder (log
// springs along links, Barnes-Hut approximated repulsion between all nodes),
// followed by link-length and collision relaxation and a centering pull.
// Initial positions are deterministic.
type EadesSimulator struct {
	cfg Config

	ids   []string
	index map[string]int
	links [][2]int // endpoint indices per graph link, -1 when unusable
	pos   []r2.Vec

	repulsion float64
	remaining int
}

// NewEadesSimulator returns an empty simulator.
func NewEadesSimulator() *EadesSimulator {
	return &EadesSimulator{index: map[string]int{}}
}

// SetGraph replaces the simulated graph. Nodes that existed before keep their
// positions; new nodes are seeded on a spiral. The simulator keeps its own
// copy of ids and link endpoints, so g may be reused by the caller.
func (s *EadesSimulator) SetGraph(g *model.Graph) {
	prev := make(map[string]r2.Vec, len(s.ids))
	for i, id := range s.ids {
		prev[id] = s.pos[i]
	}

	s.ids = make([]string, len(g.Nodes))
	s.index = make(map[string]int, len(g.Nodes))
	s.pos = make([]r2.Vec, len(g.Nodes))
	for i, n := range g.Nodes {
		s.ids[i] = n.ID
		s.index[n.ID] = i
		if p, ok := prev[n.ID]; ok {
			s.pos[i] = p
		} else {
			s.pos[i] = seed(i)
		}
	}

	s.links = make([][2]int, len(g.Links))
	for i, l := range g.Links {
		si, ok1 := s.index[l.Source]
		ti, ok2 := s.index[l.Target]
		if !ok1 || !ok2 || si == ti {
			s.links[i] = [2]int{-1, -1}
			continue
		}
		s.links[i] = [2]int{si, ti}
	}
	s.remaining = 0
}

// seed places node i on a phyllotaxis spiral.
func seed(i int) r2.Vec {
	const spacing = 10.0
	angle := float64(i) * math.Pi * (3 - math.Sqrt(5))
	r := spacing * math.Sqrt(0.5+float64(i))
	return r2.Vec{X: r * math.Cos(angle), Y: r * math.Sin(angle)}
}

// Apply installs a new configuration. It must match the current graph.
func (s *EadesSimulator) Apply(cfg Config) {
	s.cfg = cfg
}

// Reheat restarts the simulation for cfg.Iterations ticks.
func (s *EadesSimulator) Reheat() {
	s.remaining = s.cfg.Iterations
	s.repulsion = math.Abs(s.cfg.Charge) / 120
}

// Active reports whether ticks remain.
func (s *EadesSimulator) Active() bool {
	return s.remaining > 0
}

func (s *EadesSimulator) Step() bool {
	if s.remaining <= 0 || len(s.pos) == 0 {
		return false
	}
	defer metrics.Timer(metrics.LayoutStep)()

	if len(s.pos) > 1 {
		s.spring()
	}
	s.relaxLinks()
	s.collide()
	s.center()

	s.remaining--
	return s.remaining > 0
}

// particle is a node position in Eades units with unit mass.
type particle r2.Vec

func (p particle) Coord2() r2.Vec { return r2.Vec(p) }
func (p particle) Mass() float64  { return 1 }

// spring runs one Eades update: repulsion from every node, log-spring
// attraction along links.
func (s *EadesSimulator) spring() {
	particles := make([]barneshut.Particle2, len(s.pos))
	for i, p := range s.pos {
		particles[i] = particle(r2.Scale(1/eadesUnit, p))
	}
	theta := eadesTheta
	plane, err := barneshut.NewPlane(particles)
	if err != nil {
		// Coincident nodes defeat the tree; fall back to the exact sum.
		plane, theta = &barneshut.Plane{Particles: particles}, 0
	}

	forces := make([]r2.Vec, len(particles))
	for i, p := range particles {
		forces[i] = r2.Scale(-s.repulsion, plane.ForceOn(p, theta, barneshut.Gravity2))
	}

	seen := make(map[[2]int]bool, len(s.links))
	for _, l := range s.links {
		x, y := l[0], l[1]
		if x < 0 || seen[[2]int{x, y}] || seen[[2]int{y, x}] {
			continue
		}
		seen[[2]int{x, y}] = true
		v := r2.Sub(particles[y].Coord2(), particles[x].Coord2())
		d := r2.Norm(v)
		if d == 0 {
			continue
		}
		f := r2.Scale(math.Log(d), v)
		forces[x] = r2.Add(forces[x], f)
		forces[y] = r2.Sub(forces[y], f)
	}

	for i, f := range forces {
		f = r2.Scale(eadesRate, f)
		if n := r2.Norm(f); n > maxShift {
			f = r2.Scale(maxShift/n, f)
		}
		if math.IsNaN(f.X) || math.IsNaN(f.Y) {
			continue
		}
		s.pos[i] = r2.Add(s.pos[i], r2.Scale(eadesUnit, f))
	}
}

func (s *EadesSimulator) relaxLinks() {
	if len(s.cfg.Distances) != len(s.links) {
		return
	}
	for i, l := range s.links {
		si, ti := l[0], l[1]
		if si < 0 {
			continue
		}
		d := r2.Sub(s.pos[ti], s.pos[si])
		dist := r2.Norm(d)
		if dist == 0 {
			continue
		}
		shift := r2.Scale((dist-s.cfg.Distances[i])/dist*linkStrength/2, d)
		s.pos[si] = r2.Add(s.pos[si], shift)
		s.pos[ti] = r2.Sub(s.pos[ti], shift)
	}
}

func (s *EadesSimulator) collide() {
	if len(s.cfg.Collision) != len(s.pos) {
		return
	}
	for i := range s.pos {
		for j := i + 1; j < len(s.pos); j++ {
			d := r2.Sub(s.pos[j], s.pos[i])
			dist := r2.Norm(d)
			minDist := s.cfg.Collision[i] + s.cfg.Collision[j]
			if dist >= minDist {
				continue
			}
			if dist == 0 {
				d, dist = r2.Vec{X: 1e-3 * float64(j-i)}, 1e-3*float64(j-i)
			}
			push := r2.Scale((minDist-dist)/dist/2, d)
			s.pos[i] = r2.Sub(s.pos[i], push)
			s.pos[j] = r2.Add(s.pos[j], push)
		}
	}
}

func (s *EadesSimulator) center() {
	var mean r2.Vec
	for _, p := range s.pos {
		mean = r2.Add(mean, p)
	}
	mean = r2.Scale(s.cfg.CenterStrength/float64(len(s.pos)), mean)
	for i := range s.pos {
		s.pos[i] = r2.Sub(s.pos[i], mean)
	}
}

// Position returns the graph-space position of a node.
func (s *EadesSimulator) Position(id string) (float64, float64, bool) {
	i, ok := s.index[id]
	if !ok {
		return 0, 0, false
	}
	return s.pos[i].X, s.pos[i].Y, true
}
