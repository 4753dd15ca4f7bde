package explorer

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/vanderheijden86/influgraph/internal/datasource"
	"github.com/vanderheijden86/influgraph/pkg/aggregate"
	"github.com/vanderheijden86/influgraph/pkg/highlight"
	"github.com/vanderheijden86/influgraph/pkg/model"
	"github.com/vanderheijden86/influgraph/pkg/physics"
	"github.com/vanderheijden86/influgraph/pkg/testutil"
	"github.com/vanderheijden86/influgraph/pkg/viewport"
)

type ingestCall struct {
	keyword string
	limit   int
}

type fakeService struct {
	mu        sync.Mutex
	raw       model.RawGraph
	fetchErr  error
	ingestErr error
	ingests   []ingestCall

	// When set, FetchGraph signals started and waits for release.
	started chan struct{}
	release chan struct{}
}

func (f *fakeService) FetchGraph(ctx context.Context) (model.RawGraph, error) {
	if f.started != nil {
		f.started <- struct{}{}
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return model.RawGraph{}, f.fetchErr
	}
	return f.raw, nil
}

func (f *fakeService) TriggerIngest(ctx context.Context, keyword string, limit int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ingests = append(f.ingests, ingestCall{keyword, limit})
	return f.ingestErr
}

// fixedSim places nodes at fixed coordinates and runs for three ticks after
// each reheat.
type fixedSim struct {
	pos     map[string][2]float64
	steps   int
	reheats int
	graphs  int
}

func (s *fixedSim) SetGraph(*model.Graph) { s.graphs++ }
func (s *fixedSim) Apply(physics.Config)  {}

func (s *fixedSim) Reheat() {
	s.reheats++
	s.steps = 3
}

func (s *fixedSim) Step() bool {
	if s.steps == 0 {
		return false
	}
	s.steps--
	return s.steps > 0
}

func (s *fixedSim) Position(id string) (float64, float64, bool) {
	p, ok := s.pos[id]
	return p[0], p[1], ok
}

func newFixedSim() *fixedSim {
	return &fixedSim{pos: map[string][2]float64{
		"alice":    {10, -4},
		"bob":      {100, 0},
		"nike":     {50, 50},
		"zara":     {100, 50},
		"pedigree": {-50, 50},
		"sephora":  {0, -100},
	}}
}

var base = time.Unix(1_700_000_000, 0)

func newSession(t *testing.T) (*Session, *fakeService, *fixedSim) {
	t.Helper()
	svc := &fakeService{raw: testutil.Sample()}
	sim := newFixedSim()
	s := New(svc, Options{
		Simulator: sim,
		Container: viewport.Size{Width: 400, Height: 200},
		Display:   viewport.Size{Width: 800, Height: 600},
	})
	t.Cleanup(s.Close)
	if err := s.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	return s, svc, sim
}

// settle ticks the session until nothing moves and returns the last time.
func settle(t *testing.T, s *Session, now time.Time) time.Time {
	t.Helper()
	for i := 0; i < 100; i++ {
		if !s.Tick(now) {
			return now
		}
		now = now.Add(100 * time.Millisecond)
	}
	t.Fatal("session never settled")
	return now
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestReloadInstallsGraph(t *testing.T) {
	s, _, sim := newSession(t)

	testutil.AssertNodeCount(t, *s.Graph(), 6)
	if s.Generation() != 1 {
		t.Errorf("generation = %d, want 1", s.Generation())
	}
	if s.Stats().DroppedDangling != 1 {
		t.Errorf("dropped = %d, want 1", s.Stats().DroppedDangling)
	}
	if sim.graphs != 1 || sim.reheats != 1 {
		t.Errorf("sim graphs=%d reheats=%d, want 1/1", sim.graphs, sim.reheats)
	}
	if s.Highlight().Mode != highlight.ModeIdle {
		t.Errorf("mode = %v, want idle", s.Highlight().Mode)
	}
}

func TestReloadFailureKeepsGraph(t *testing.T) {
	s, svc, _ := newSession(t)
	svc.fetchErr = errors.New("connection refused")

	if err := s.Reload(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	testutil.AssertNodeCount(t, *s.Graph(), 6)
	if s.Generation() != 1 {
		t.Errorf("generation = %d, want 1", s.Generation())
	}
	if s.Busy() {
		t.Error("busy flag left set after failure")
	}
}

func TestFetchRejectsConcurrentReload(t *testing.T) {
	svc := &fakeService{
		raw:     testutil.Sample(),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := New(svc, Options{Simulator: newFixedSim()})
	defer s.Close()

	done := make(chan error, 1)
	go func() {
		_, err := s.Fetch(context.Background())
		done <- err
	}()
	<-svc.started

	if _, err := s.Fetch(context.Background()); !errors.Is(err, ErrReloadInFlight) {
		t.Errorf("second fetch err = %v, want ErrReloadInFlight", err)
	}
	if _, err := s.Ingest(context.Background(), "#x", 1); !errors.Is(err, ErrReloadInFlight) {
		t.Errorf("ingest err = %v, want ErrReloadInFlight", err)
	}

	close(svc.release)
	if err := <-done; err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if s.Busy() {
		t.Error("busy after fetch returned")
	}
}

func TestIngest(t *testing.T) {
	s, svc, _ := newSession(t)

	snap, err := s.Ingest(context.Background(), "  #shoes ", 5)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(svc.ingests) != 1 || svc.ingests[0] != (ingestCall{"#shoes", 5}) {
		t.Errorf("ingests = %+v", svc.ingests)
	}
	if snap.Keyword != "#shoes" || len(snap.Graph.Nodes) != 6 {
		t.Errorf("snapshot keyword=%q nodes=%d", snap.Keyword, len(snap.Graph.Nodes))
	}

	if _, err := s.Ingest(context.Background(), "   ", 5); !errors.Is(err, datasource.ErrEmptyKeyword) {
		t.Errorf("blank keyword err = %v", err)
	}
	if len(svc.ingests) != 1 {
		t.Error("blank keyword reached the service")
	}

	svc.ingestErr = errors.New("scraper down")
	if _, err := s.Ingest(context.Background(), "@alice", 0); err == nil {
		t.Error("expected ingest error")
	}
	if s.Busy() {
		t.Error("busy left set after ingest failure")
	}
}

func TestFirstSettleFitsOnce(t *testing.T) {
	s, _, _ := newSession(t)

	now := settle(t, s, base)
	fitted := s.Camera().Scale()
	if near(fitted, 1) {
		t.Fatalf("expected the settled layout to be fitted, scale still 1")
	}

	s.ZoomBy(2)
	settle(t, s, now.Add(time.Second))
	if !near(s.Camera().Scale(), fitted*2) {
		t.Errorf("scale = %v, want %v (no second fit)", s.Camera().Scale(), fitted*2)
	}
}

func TestClickFocusesNode(t *testing.T) {
	s, _, _ := newSession(t)
	now := settle(t, s, base)

	s.Click("alice")
	if s.State().SelectedID != "alice" || s.Highlight().FocusID != "alice" {
		t.Fatalf("state = %+v, focus = %q", s.State(), s.Highlight().FocusID)
	}
	testutil.AssertIDSet(t, s.Highlight().Nodes, "alice", "nike", "zara", "pedigree")

	settle(t, s, now.Add(2*time.Second))
	cx, cy := s.Camera().Center()
	if !near(cx, 10) || !near(cy, -4) {
		t.Errorf("center = (%v,%v), want (10,-4)", cx, cy)
	}
	if !near(s.Camera().Scale(), viewport.FocusZoom) {
		t.Errorf("scale = %v, want %v", s.Camera().Scale(), viewport.FocusZoom)
	}

	// Hover is locked while a node is selected.
	s.Hover("bob")
	if s.State().HoveredID != "" {
		t.Errorf("hovered = %q while selected", s.State().HoveredID)
	}

	s.Click("alice")
	if s.State().SelectedID != "" || s.Highlight().Mode != highlight.ModeIdle {
		t.Errorf("second click should deselect, state = %+v", s.State())
	}
}

func TestClickBackgroundClears(t *testing.T) {
	s, _, _ := newSession(t)
	s.SetCategory(model.CategoryFashion)
	s.Click("bob")
	s.ClickBackground()

	st := s.State()
	if st.SelectedID != "" || st.HoveredID != "" || st.SearchTerm != "" {
		t.Errorf("state not cleared: %+v", st)
	}
	if st.ActiveCategory != model.CategoryFashion {
		t.Errorf("category = %q, want kept", st.ActiveCategory)
	}

	s.ResetInteraction()
	if !s.State().IsIdle() {
		t.Errorf("reset state = %+v", s.State())
	}
}

func TestSearchCentersOnMatch(t *testing.T) {
	s, _, _ := newSession(t)
	now := settle(t, s, base)

	s.SetSearch("zar")
	if s.Highlight().FocusID != "zara" {
		t.Fatalf("focus = %q, want zara", s.Highlight().FocusID)
	}
	settle(t, s, now.Add(2*time.Second))
	cx, cy := s.Camera().Center()
	if !near(cx, 100) || !near(cy, 50) || !near(s.Camera().Scale(), viewport.SearchZoom) {
		t.Errorf("camera = (%v,%v) x%v", cx, cy, s.Camera().Scale())
	}

	s.SetSearch("zzz")
	if s.Highlight().Mode != highlight.ModeIdle {
		t.Errorf("unmatched search mode = %v, want idle", s.Highlight().Mode)
	}
	if s.State().SearchTerm != "zzz" {
		t.Errorf("search term = %q, want kept", s.State().SearchTerm)
	}
}

func TestCategoryOverridesFocus(t *testing.T) {
	s, _, _ := newSession(t)
	s.Click("pedigree")
	s.SetCategory(model.CategoryFashion)

	r := s.Highlight()
	if r.Mode != highlight.ModeCategory {
		t.Fatalf("mode = %v, want category", r.Mode)
	}
	if r.Opacity("nike") != highlight.OpaqueAlpha || r.Opacity("pedigree") != highlight.DimAlpha {
		t.Errorf("opacity nike=%v pedigree=%v", r.Opacity("nike"), r.Opacity("pedigree"))
	}

	s.SetCategory(model.CategoryNone)
	if s.Highlight().FocusID != "pedigree" {
		t.Errorf("focus = %q after clearing category", s.Highlight().FocusID)
	}
}

func TestReplacePrunesState(t *testing.T) {
	s, _, sim := newSession(t)
	s.Click("sephora")

	raw := testutil.Sample()
	raw.Nodes = raw.Nodes[:5] // drop sephora
	snap := Snapshot{}
	snap.Graph, snap.Stats = aggregate.AggregateWithStats(raw)

	diff := s.Replace(snap)
	testutil.AssertIDSet(t, toSet(diff.RemovedNodes), "sephora")
	if s.State().SelectedID != "" {
		t.Errorf("selection %q survived removal", s.State().SelectedID)
	}
	if s.Generation() != 2 {
		t.Errorf("generation = %d, want 2", s.Generation())
	}
	if sim.graphs != 2 {
		t.Errorf("sim graphs = %d, want 2", sim.graphs)
	}
	if s.Avatars().Len() != 0 {
		t.Errorf("avatar cache not reset: %d entries", s.Avatars().Len())
	}
}

func TestResizeDebounce(t *testing.T) {
	s, _, sim := newSession(t)
	reheats := sim.reheats

	stale := s.Resize(viewport.Size{Width: 200, Height: 100}, viewport.Size{Width: 800, Height: 600})
	latest := s.Resize(viewport.Size{Width: 300, Height: 150}, viewport.Size{Width: 800, Height: 600})

	if s.SettleResize(stale) {
		t.Error("stale token applied")
	}
	if !s.SettleResize(latest) {
		t.Fatal("latest token not applied")
	}
	if got := s.Viewport().Size(); got != (viewport.Size{Width: 300, Height: 150}) {
		t.Errorf("size = %+v", got)
	}
	if sim.reheats != reheats+1 {
		t.Errorf("reheats = %d, want %d", sim.reheats, reheats+1)
	}

	tok := s.ToggleFullscreen()
	if !s.SettleResize(tok) {
		t.Fatal("fullscreen toggle not applied")
	}
	if got := s.Viewport().Size(); got != (viewport.Size{Width: 800, Height: 600}) {
		t.Errorf("fullscreen size = %+v", got)
	}
}

func TestHighlightChangesDoNotReheat(t *testing.T) {
	s, _, sim := newSession(t)
	settle(t, s, base)
	reheats := sim.reheats

	s.Hover("bob")
	s.Click("alice")
	s.SetSearch("ni")
	s.SetCategory(model.CategoryPet)
	s.Tick(base.Add(time.Minute))

	if sim.reheats != reheats {
		t.Errorf("reheats = %d, want %d", sim.reheats, reheats)
	}
}

func TestHitTest(t *testing.T) {
	s, _, _ := newSession(t)
	// Camera at origin, scale 1, viewport 400x200.
	if id, ok := s.HitTest(200+10, 100-4, 0); !ok || id != "alice" {
		t.Errorf("hit = %q,%v want alice", id, ok)
	}
	if _, ok := s.HitTest(200+30, 100+20, 0); ok {
		t.Error("expected miss between nodes")
	}
	if id, ok := s.HitTest(200+50+9, 100+50, 4); !ok || id != "nike" {
		t.Errorf("slop hit = %q,%v want nike", id, ok)
	}
}

type countingCanvas struct {
	circles, lines, texts int
}

func (c *countingCanvas) SetAlpha(float64) {}

func (c *countingCanvas) Circle(float64, float64, float64, color.Color) {
	c.circles++
}

func (c *countingCanvas) Ring(float64, float64, float64, float64, color.Color) {}

func (c *countingCanvas) Line(float64, float64, float64, float64, float64, color.Color) {
	c.lines++
}

func (c *countingCanvas) Avatar(image.Image, float64, float64, float64) {}

func (c *countingCanvas) Text(string, float64, float64, float64, color.Color, color.Color) {
	c.texts++
}

func TestPaintDrawsVisibleLinks(t *testing.T) {
	s, _, _ := newSession(t)
	c := &countingCanvas{}
	s.Paint(c)

	// Four real links survive aggregation; phantom links draw nothing.
	if c.lines != 4 {
		t.Errorf("lines = %d, want 4", c.lines)
	}
	if c.circles < 6 {
		t.Errorf("circles = %d, want at least one per node", c.circles)
	}
}

func toSet(ids []string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

func TestReloadIntoLargerGraphWithDefaultSimulator(t *testing.T) {
	svc := &fakeService{raw: model.RawGraph{Nodes: []model.RawNode{
		{ID: "alice", Name: "Alice", Type: "Influencer", Followers: 10},
	}}}
	s := New(svc, Options{Container: viewport.Size{Width: 400, Height: 200}})
	t.Cleanup(s.Close)

	tick := func(n int) {
		now := base
		for i := 0; i < n; i++ {
			s.Tick(now)
			now = now.Add(33 * time.Millisecond)
		}
	}

	if err := s.Reload(context.Background()); err != nil {
		t.Fatalf("first Reload: %v", err)
	}
	tick(10)
	ax, ay, ok := s.Layout().Position("alice")
	if !ok {
		t.Fatal("alice has no position")
	}

	svc.mu.Lock()
	svc.raw = testutil.Sample()
	svc.mu.Unlock()
	if err := s.Reload(context.Background()); err != nil {
		t.Fatalf("second Reload: %v", err)
	}
	if x, y, _ := s.Layout().Position("alice"); x != ax || y != ay {
		t.Errorf("alice moved on reload from (%v,%v) to (%v,%v)", ax, ay, x, y)
	}
	tick(50)

	for _, n := range s.Graph().Nodes {
		x, y, ok := s.Layout().Position(n.ID)
		if !ok || math.IsNaN(x) || math.IsNaN(y) {
			t.Errorf("bad position for %s: (%v,%v) ok=%v", n.ID, x, y, ok)
		}
	}
}
