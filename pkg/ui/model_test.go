package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/influgraph/pkg/explorer"
	"github.com/vanderheijden86/influgraph/pkg/model"
	"github.com/vanderheijden86/influgraph/pkg/physics"
	"github.com/vanderheijden86/influgraph/pkg/testutil"
	"github.com/vanderheijden86/influgraph/pkg/viewport"
	"github.com/vanderheijden86/influgraph/pkg/watcher"
)

type stubService struct {
	mu        sync.Mutex
	raw       model.RawGraph
	fetchErr  error
	ingestErr error
	keywords  []string
	limits    []int
}

func (f *stubService) FetchGraph(context.Context) (model.RawGraph, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return model.RawGraph{}, f.fetchErr
	}
	return f.raw, nil
}

func (f *stubService) TriggerIngest(_ context.Context, keyword string, limit int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keywords = append(f.keywords, keyword)
	f.limits = append(f.limits, limit)
	return f.ingestErr
}

// pinnedSim keeps every node where it was placed.
type pinnedSim struct {
	pos map[string][2]float64
}

func (s *pinnedSim) SetGraph(*model.Graph) {}
func (s *pinnedSim) Apply(physics.Config)  {}
func (s *pinnedSim) Reheat()               {}
func (s *pinnedSim) Step() bool            { return false }

func (s *pinnedSim) Position(id string) (float64, float64, bool) {
	p, ok := s.pos[id]
	return p[0], p[1], ok
}

func newPinnedSim() *pinnedSim {
	return &pinnedSim{pos: map[string][2]float64{
		"alice":    {10, -4},
		"bob":      {30, 10},
		"nike":     {-20, 8},
		"zara":     {20, 12},
		"pedigree": {-30, -10},
		"sephora":  {0, 15},
	}}
}

// newTestModel builds a sized model over the sample graph. The canvas is
// 80x22 cells, so the camera looks at an 80x44 unit surface centered on the
// origin.
func newTestModel(t *testing.T, loaded bool) (Model, *explorer.Session, *stubService) {
	t.Helper()
	svc := &stubService{raw: testutil.Sample()}
	s := explorer.New(svc, explorer.Options{
		Simulator: newPinnedSim(),
		Container: viewport.Size{Width: 80, Height: 44},
		Display:   viewport.Size{Width: 80, Height: 48},
	})
	t.Cleanup(s.Close)
	if loaded {
		if err := s.Reload(context.Background()); err != nil {
			t.Fatalf("Reload: %v", err)
		}
	}
	m := New(Options{Session: s, Source: "test", IngestLimit: 7})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	return m, s, svc
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return nm, cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		m, _ = update(t, m, key(k))
	}
	return m
}

func TestViewBeforeSize(t *testing.T) {
	svc := &stubService{raw: testutil.Sample()}
	s := explorer.New(svc, explorer.Options{Simulator: newPinnedSim()})
	t.Cleanup(s.Close)
	m := New(Options{Session: s})
	if got := m.View(); got != "Loading graph..." {
		t.Errorf("View() = %q", got)
	}
	if !m.Loading() {
		t.Error("empty session should start loading")
	}
}

func TestInitialFetch(t *testing.T) {
	m, s, _ := newTestModel(t, false)

	msg := fetchCmd(context.Background(), s)()
	m, _ = update(t, m, msg)

	if m.Loading() {
		t.Error("still loading after the graph arrived")
	}
	testutil.AssertNodeCount(t, *s.Graph(), 6)
	if !strings.Contains(m.Status(), "loaded 6 nodes") {
		t.Errorf("status = %q", m.Status())
	}
	if !strings.Contains(m.View(), "2 creators · 4 brands · 4 links") {
		t.Errorf("header missing counts:\n%s", m.View())
	}
}

func TestViewShowsChrome(t *testing.T) {
	m, _, _ := newTestModel(t, true)
	view := m.View()
	if !strings.Contains(view, "influgraph") {
		t.Errorf("header missing:\n%s", view)
	}
	if !strings.Contains(view, "? help") {
		t.Errorf("footer hints missing:\n%s", view)
	}
	if lines := strings.Count(view, "\n") + 1; lines != 24 {
		t.Errorf("view has %d lines, want 24", lines)
	}
}

func TestCategoryKeys(t *testing.T) {
	m, s, _ := newTestModel(t, true)

	steps := []struct {
		key  string
		want model.Category
	}{
		{"c", model.CategoryFashion},
		{"c", model.CategoryBeauty},
		{"C", model.CategoryFashion},
		{"C", model.CategoryNone},
		{"C", model.CategoryLifestyle},
		{"x", model.CategoryNone},
	}
	for i, st := range steps {
		m = press(t, m, st.key)
		if got := s.State().ActiveCategory; got != st.want {
			t.Fatalf("step %d (%s): category = %q, want %q", i, st.key, got, st.want)
		}
	}
}

func TestSearchMode(t *testing.T) {
	m, s, _ := newTestModel(t, true)

	m = press(t, m, "/", "z", "a", "r")
	if got := s.State().SearchTerm; got != "zar" {
		t.Fatalf("search term = %q, want zar", got)
	}
	if got := s.Highlight().FocusID; got != "zara" {
		t.Errorf("focus = %q, want zara", got)
	}

	m = press(t, m, "enter")
	if m.mode != modeNormal {
		t.Fatalf("enter should leave search mode")
	}
	if got := s.State().SearchTerm; got != "zar" {
		t.Errorf("enter dropped the term: %q", got)
	}

	// Re-entering search starts from the kept term; esc clears it.
	m = press(t, m, "/")
	if got := m.search.Value(); got != "zar" {
		t.Errorf("search input = %q, want zar", got)
	}
	m = press(t, m, "esc")
	if got := s.State().SearchTerm; got != "" {
		t.Errorf("esc kept the term %q", got)
	}
	if m.mode != modeNormal {
		t.Errorf("esc should leave search mode")
	}
}

func TestIngestFlow(t *testing.T) {
	m, s, svc := newTestModel(t, true)

	m = press(t, m, "i", "  #shoes ")
	m, cmd := update(t, m, key("enter"))
	if cmd == nil {
		t.Fatal("enter should start the ingest")
	}
	if !m.Loading() {
		t.Error("not loading while ingest runs")
	}

	m, _ = update(t, m, cmd())
	if m.Loading() {
		t.Error("still loading after ingest")
	}
	if len(svc.keywords) != 1 || svc.keywords[0] != "#shoes" || svc.limits[0] != 7 {
		t.Fatalf("ingest calls = %v %v", svc.keywords, svc.limits)
	}
	if !strings.Contains(m.Status(), "ingested #shoes") {
		t.Errorf("status = %q", m.Status())
	}
	if s.Generation() != 2 {
		t.Errorf("generation = %d, want 2", s.Generation())
	}
}

func TestIngestBlankKeyword(t *testing.T) {
	m, _, svc := newTestModel(t, true)

	m = press(t, m, "i", "#")
	m, cmd := update(t, m, key("enter"))
	if cmd != nil {
		t.Error("blank keyword should not start an ingest")
	}
	if !m.statusErr || !strings.Contains(m.Status(), "keyword") {
		t.Errorf("status = %q (err=%v)", m.Status(), m.statusErr)
	}
	if m.mode != modeIngest {
		t.Errorf("prompt should stay open")
	}
	if len(svc.keywords) != 0 {
		t.Errorf("service saw %v", svc.keywords)
	}

	m = press(t, m, "esc")
	if m.mode != modeNormal {
		t.Errorf("esc should close the prompt")
	}
}

func TestIngestFailureShowsAlert(t *testing.T) {
	m, s, svc := newTestModel(t, true)
	svc.ingestErr = errors.New("scraper unavailable")

	m = press(t, m, "i", "@nike")
	m, cmd := update(t, m, key("enter"))
	m, _ = update(t, m, cmd())

	view := m.View()
	if !strings.Contains(view, "Ingest failed") || !strings.Contains(view, "scraper unavailable") {
		t.Fatalf("alert missing:\n%s", view)
	}
	testutil.AssertNodeCount(t, *s.Graph(), 6)

	m = press(t, m, "x")
	if strings.Contains(m.View(), "Ingest failed") {
		t.Error("alert not dismissed")
	}
	if s.State().ActiveCategory != model.CategoryNone {
		t.Error("dismissing key leaked into normal mode")
	}
}

func TestReloadFailureKeepsGraph(t *testing.T) {
	m, s, svc := newTestModel(t, true)
	svc.fetchErr = errors.New("connection refused")

	m, cmd := update(t, m, key("r"))
	if cmd == nil {
		t.Fatal("r should start a reload")
	}
	m, again := update(t, m, key("r"))
	if again != nil {
		t.Error("second reload started while one is in flight")
	}
	if !strings.Contains(m.Status(), "already in progress") {
		t.Errorf("status = %q", m.Status())
	}

	m, _ = update(t, m, cmd())
	if !m.statusErr || !strings.Contains(m.Status(), "reload failed") {
		t.Errorf("status = %q", m.Status())
	}
	if m.Loading() {
		t.Error("still loading after failure")
	}
	testutil.AssertNodeCount(t, *s.Graph(), 6)
}

func TestMouseHoverAndClick(t *testing.T) {
	m, s, _ := newTestModel(t, true)

	// Column 50, row 10 maps to graph (10.5, -3), on top of alice.
	m, _ = update(t, m, tea.MouseMsg{X: 50, Y: 10, Action: tea.MouseActionMotion})
	if got := s.State().HoveredID; got != "alice" {
		t.Fatalf("hovered = %q, want alice", got)
	}

	m, _ = update(t, m, tea.MouseMsg{X: 50, Y: 10, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if got := s.State().SelectedID; got != "alice" {
		t.Fatalf("selected = %q, want alice", got)
	}
	if !strings.Contains(m.View(), "120k followers") {
		t.Errorf("footer missing node details:\n%s", m.View())
	}

	m, _ = update(t, m, tea.MouseMsg{X: 0, Y: 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if got := s.State().SelectedID; got != "" {
		t.Errorf("background click kept %q selected", got)
	}
}

func TestMouseWheelZooms(t *testing.T) {
	m, s, _ := newTestModel(t, true)
	before := s.Camera().Scale()
	update(t, m, tea.MouseMsg{X: 40, Y: 12, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp})
	if got := s.Camera().Scale(); got <= before {
		t.Errorf("scale = %v, want more than %v", got, before)
	}
}

func TestCycleSelection(t *testing.T) {
	m, s, _ := newTestModel(t, true)
	nodes := s.Graph().Nodes

	m = press(t, m, "n")
	if got := s.State().SelectedID; got != nodes[0].ID {
		t.Fatalf("selected = %q, want %q", got, nodes[0].ID)
	}
	m = press(t, m, "n")
	if got := s.State().SelectedID; got != nodes[1].ID {
		t.Fatalf("selected = %q, want %q", got, nodes[1].ID)
	}
	m = press(t, m, "N", "N")
	if got := s.State().SelectedID; got != nodes[len(nodes)-1].ID {
		t.Fatalf("selected = %q, want %q", got, nodes[len(nodes)-1].ID)
	}
	press(t, m, "esc")
	if got := s.State().SelectedID; got != "" {
		t.Errorf("esc kept %q selected", got)
	}
}

func TestFullscreenToggle(t *testing.T) {
	m, s, _ := newTestModel(t, true)

	m, cmd := update(t, m, key("f"))
	if cmd == nil {
		t.Fatal("f should schedule a resize")
	}
	if s.Viewport().Size() != (viewport.Size{Width: 80, Height: 44}) {
		t.Errorf("size changed before the debounce settled")
	}

	m, _ = update(t, m, cmd())
	if !s.Viewport().Fullscreen() {
		t.Fatal("not fullscreen")
	}
	if got := s.Viewport().Size(); got != (viewport.Size{Width: 80, Height: 48}) {
		t.Errorf("size = %+v, want 80x48", got)
	}
	view := m.View()
	if strings.Contains(view, "? help") {
		t.Errorf("fullscreen view still has chrome:\n%s", view)
	}
	if lines := strings.Count(view, "\n") + 1; lines != 24 {
		t.Errorf("fullscreen view has %d lines, want 24", lines)
	}
}

func TestFileEvents(t *testing.T) {
	m, _, _ := newTestModel(t, true)

	m, cmd := update(t, m, fileEventMsg{ev: watcher.Event{Kind: watcher.EventChanged}, ok: true})
	if !m.Loading() || cmd == nil {
		t.Fatal("file change should trigger a reload")
	}

	m, _ = update(t, m, fileEventMsg{ev: watcher.Event{Kind: watcher.EventError, Err: errors.New("gone")}, ok: true})
	if !m.statusErr || !strings.Contains(m.Status(), "watch: gone") {
		t.Errorf("status = %q", m.Status())
	}
}

func TestQuit(t *testing.T) {
	m, _, _ := newTestModel(t, true)
	_, cmd := update(t, m, key("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}
