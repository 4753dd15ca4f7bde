// Package explorer ties the graph engine together. A Session owns the loaded
// graph, the interaction state, the camera and the layout, and is mutated
// only from the host's event loop. Fetch and Ingest are the exceptions: they
// touch nothing but the data service and may run on any goroutine; their
// result is installed on the loop with Replace.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/vanderheijden86/influgraph/internal/datasource"
	"github.com/vanderheijden86/influgraph/pkg/aggregate"
	"github.com/vanderheijden86/influgraph/pkg/debug"
	"github.com/vanderheijden86/influgraph/pkg/highlight"
	"github.com/vanderheijden86/influgraph/pkg/metrics"
	"github.com/vanderheijden86/influgraph/pkg/model"
	"github.com/vanderheijden86/influgraph/pkg/paint"
	"github.com/vanderheijden86/influgraph/pkg/physics"
	"github.com/vanderheijden86/influgraph/pkg/viewport"
)

// ErrReloadInFlight is returned when a fetch or ingest is requested while
// another one is still running.
var ErrReloadInFlight = errors.New("reload already in progress")

// Snapshot is a fetched and aggregated graph waiting to be installed.
type Snapshot struct {
	Graph   model.Graph
	Stats   aggregate.Stats
	Keyword string // set when the snapshot follows an ingest
}

// Options configures a Session. Zero fields take defaults.
type Options struct {
	Tuning      physics.Tuning
	Style       *paint.Style
	Simulator   physics.Simulator
	Loader      paint.ImageLoader
	Placeholder string
	Container   viewport.Size
	Display     viewport.Size
}

// Session is the interactive graph explorer state.
type Session struct {
	svc datasource.Service

	graph model.Graph
	stats aggregate.Stats
	gen   uint64

	index  *highlight.Index
	state  highlight.State
	result highlight.Result

	camera  *viewport.AnimatedCamera
	view    *viewport.Controller
	sim     physics.Simulator
	physics *physics.Manager
	avatars *paint.AvatarCache
	painter *paint.Painter

	busy    atomic.Bool
	settled bool
}

// New creates a session reading from svc. The session starts with an empty
// graph; call Reload, or Fetch followed by Replace, to load data.
func New(svc datasource.Service, opts Options) *Session {
	style := paint.DefaultStyle()
	if opts.Style != nil {
		style = *opts.Style
	}
	sim := opts.Simulator
	if sim == nil {
		sim = physics.NewEadesSimulator()
	}
	if opts.Tuning == (physics.Tuning{}) {
		opts.Tuning = physics.DefaultTuning()
	}
	if opts.Display == (viewport.Size{}) {
		opts.Display = opts.Container
	}

	cam := viewport.NewAnimatedCamera(float64(opts.Container.Width), float64(opts.Container.Height))
	avatars := paint.NewAvatarCache(opts.Loader, opts.Placeholder)
	s := &Session{
		svc:     svc,
		camera:  cam,
		view:    viewport.NewController(cam, opts.Container, opts.Display),
		sim:     sim,
		physics: physics.NewManager(sim, opts.Tuning),
		avatars: avatars,
		painter: paint.NewPainter(style, avatars),
	}
	s.index = highlight.NewIndex(&s.graph)
	s.derive()
	return s
}

// Graph returns the current graph. Callers must not modify it.
func (s *Session) Graph() *model.Graph { return &s.graph }

// Stats returns the aggregation stats of the current graph.
func (s *Session) Stats() aggregate.Stats { return s.stats }

// Generation increments every time Replace installs a graph.
func (s *Session) Generation() uint64 { return s.gen }

// State returns the interaction state.
func (s *Session) State() highlight.State { return s.state }

// Highlight returns the derived highlight result.
func (s *Session) Highlight() highlight.Result { return s.result }

// Index returns the adjacency index of the current graph.
func (s *Session) Index() *highlight.Index { return s.index }

// Camera returns the session camera.
func (s *Session) Camera() *viewport.AnimatedCamera { return s.camera }

// Viewport returns the viewport controller.
func (s *Session) Viewport() *viewport.Controller { return s.view }

// Layout returns the simulator providing node positions.
func (s *Session) Layout() physics.Simulator { return s.sim }

// Avatars returns the avatar cache.
func (s *Session) Avatars() *paint.AvatarCache { return s.avatars }

// Painter returns the node and link painter.
func (s *Session) Painter() *paint.Painter { return s.painter }

// Busy reports whether a fetch or ingest is running.
func (s *Session) Busy() bool { return s.busy.Load() }

// Fetch loads and aggregates the graph from the data service. It is safe to
// call off the event loop. A second call while one is running fails with
// ErrReloadInFlight.
func (s *Session) Fetch(ctx context.Context) (Snapshot, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return Snapshot{}, ErrReloadInFlight
	}
	defer s.busy.Store(false)
	return s.fetch(ctx)
}

func (s *Session) fetch(ctx context.Context) (Snapshot, error) {
	g, stats, err := datasource.LoadGraph(ctx, s.svc)
	if err != nil {
		debug.Warn("graph fetch failed", "err", err)
		return Snapshot{}, err
	}
	if stats.DroppedDangling > 0 {
		debug.Event("dropped dangling links", "count", stats.DroppedDangling)
	}
	return Snapshot{Graph: g, Stats: stats}, nil
}

// Ingest asks the data service to scrape keyword, then fetches the updated
// graph. Like Fetch it is safe off the event loop and shares its in-flight
// guard.
func (s *Session) Ingest(ctx context.Context, keyword string, limit int) (Snapshot, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return Snapshot{}, ErrReloadInFlight
	}
	defer s.busy.Store(false)

	kw, err := datasource.ParseKeyword(keyword)
	if err != nil {
		return Snapshot{}, err
	}

	stop := metrics.Timer(metrics.Ingest)
	err = s.svc.TriggerIngest(ctx, kw.Text, limit)
	stop()
	if err != nil {
		debug.Warn("ingest failed", "keyword", kw.Text, "err", err)
		return Snapshot{}, err
	}
	debug.Event("ingest complete", "keyword", kw.Text, "mode", kw.Mode, "limit", limit)

	snap, err := s.fetch(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("reload after ingest: %w", err)
	}
	snap.Keyword = kw.Text
	return snap, nil
}

// Reload fetches and installs the graph in one call. On failure the current
// graph is kept.
func (s *Session) Reload(ctx context.Context) error {
	snap, err := s.Fetch(ctx)
	if err != nil {
		return err
	}
	s.Replace(snap)
	return nil
}

// Replace installs a new graph. Interaction state referring to vanished
// nodes is dropped, avatars are reloaded and the camera will fit the graph
// again once the new layout settles.
func (s *Session) Replace(snap Snapshot) datasource.GraphDiff {
	prev := s.graph
	diff := datasource.Diff(&prev, &snap.Graph)

	s.graph = snap.Graph
	s.stats = snap.Stats
	s.gen++
	s.index = highlight.NewIndex(&s.graph)
	s.state = s.state.Prune(s.index)
	s.avatars.Reset()
	s.view.Rearm()
	s.settled = false
	s.syncPhysics()
	s.derive()

	debug.Event("graph replaced", "gen", s.gen, "nodes", len(s.graph.Nodes),
		"links", len(s.graph.Links), "phantom", s.graph.CountPhantom(), "diff", diff.Summary())
	return diff
}

// Hover records the node under the pointer ("" for none).
func (s *Session) Hover(id string) {
	next := s.state.Hover(id)
	if next == s.state {
		return
	}
	s.state = next
	s.derive()
}

// Click handles a click on a node. An empty id is a background click.
func (s *Session) Click(id string) {
	var effects []highlight.Effect
	s.state, effects = s.state.Click(id)
	s.apply(effects)
}

// ClickBackground clears the interaction and fits the graph.
func (s *Session) ClickBackground() {
	var effects []highlight.Effect
	s.state, effects = s.state.ClickBackground()
	s.apply(effects)
}

// SetSearch updates the search filter.
func (s *Session) SetSearch(term string) {
	var effects []highlight.Effect
	s.state, effects = s.state.SetSearch(s.index, term)
	s.apply(effects)
}

// SetCategory sets the category filter; model.CategoryNone clears it.
func (s *Session) SetCategory(cat model.Category) {
	s.state = s.state.SetCategory(cat)
	s.derive()
}

// ResetInteraction clears every interaction input including the category.
func (s *Session) ResetInteraction() {
	s.state = s.state.Reset()
	s.derive()
}

func (s *Session) apply(effects []highlight.Effect) {
	s.derive()
	s.camera.SetContent(s.bounds())
	s.view.ApplyAll(effects, s.sim)
}

func (s *Session) derive() {
	s.result = highlight.Derive(s.index, s.state)
}

// ToggleFullscreen flips fullscreen mode. The returned token must be passed
// to SettleResize after viewport.DebounceDelay.
func (s *Session) ToggleFullscreen() viewport.Token {
	return s.view.ToggleFullscreen()
}

// Resize records new container and display sizes. The returned token must
// be passed to SettleResize after viewport.DebounceDelay.
func (s *Session) Resize(container, display viewport.Size) viewport.Token {
	return s.view.Resize(container, display)
}

// SettleResize applies a pending size change if tok is the latest request.
// The layout is reheated when the size actually changed.
func (s *Session) SettleResize(tok viewport.Token) bool {
	if !s.view.Settle(tok) {
		return false
	}
	size := s.view.Size()
	s.camera.SetViewport(float64(size.Width), float64(size.Height))
	s.syncPhysics()
	return true
}

// Pan moves the camera by a screen-space offset.
func (s *Session) Pan(dx, dy float64) { s.camera.Pan(dx, dy) }

// ZoomBy scales the camera zoom by f.
func (s *Session) ZoomBy(f float64) { s.camera.ZoomBy(f) }

// FitAll animates the camera to show the whole graph.
func (s *Session) FitAll() {
	s.camera.SetContent(s.bounds())
	s.camera.ZoomToFit(viewport.FocusDuration, viewport.FitPadding)
}

// Tick advances the layout by one step and the camera to now. It reports
// whether anything is still moving.
func (s *Session) Tick(now time.Time) bool {
	s.syncPhysics()
	moving := s.sim.Step()
	s.camera.SetContent(s.bounds())
	if !moving && !s.settled && !s.graph.IsEmpty() {
		s.settled = true
		s.view.LayoutSettled()
	}
	s.camera.Advance(now)
	return moving || s.camera.Animating()
}

func (s *Session) syncPhysics() {
	size := s.view.Size()
	s.physics.Sync(&s.graph, s.gen, size.Width, size.Height)
}

func (s *Session) bounds() viewport.Rect {
	r := viewport.EmptyRect()
	for _, n := range s.graph.Nodes {
		if x, y, ok := s.sim.Position(n.ID); ok {
			r = r.Extend(x, y, n.Radius())
		}
	}
	return r
}

// Frame returns the render description of the current state.
func (s *Session) Frame() paint.Frame {
	return paint.Frame{
		Graph:     &s.graph,
		Layout:    s.sim,
		Camera:    s.camera,
		State:     s.state,
		Highlight: s.result,
	}
}

// Paint renders the current frame onto c.
func (s *Session) Paint(c paint.Canvas) {
	s.painter.Paint(c, s.Frame())
}

// HitTest returns the topmost node under the screen point. slop widens the
// hit area by that many screen units.
func (s *Session) HitTest(sx, sy, slop float64) (string, bool) {
	gx, gy := s.camera.ToGraph(sx, sy)
	k := s.camera.Scale()
	for i := len(s.graph.Nodes) - 1; i >= 0; i-- {
		n := s.graph.Nodes[i]
		x, y, ok := s.sim.Position(n.ID)
		if !ok {
			continue
		}
		r := n.Radius() + slop/k
		dx, dy := gx-x, gy-y
		if dx*dx+dy*dy <= r*r {
			return n.ID, true
		}
	}
	return "", false
}

// Close stops background avatar loads.
func (s *Session) Close() {
	s.avatars.Reset()
}
