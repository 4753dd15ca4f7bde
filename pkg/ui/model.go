// Package ui is the interactive terminal explorer. It hosts an
// explorer.Session in a bubbletea program: the session is mutated only from
// Update, fetches and ingests run as commands, and every frame is painted
// onto a CellCanvas.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	scroll "github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/influgraph/internal/datasource"
	"github.com/vanderheijden86/influgraph/pkg/debug"
	"github.com/vanderheijden86/influgraph/pkg/explorer"
	"github.com/vanderheijden86/influgraph/pkg/model"
	"github.com/vanderheijden86/influgraph/pkg/viewport"
	"github.com/vanderheijden86/influgraph/pkg/watcher"
)

const (
	// frameInterval drives layout steps and camera animation (~30fps).
	frameInterval = 33 * time.Millisecond

	panStep    = 6.0
	zoomStep   = 1.25
	mouseSlop  = 1.0
	wheelZoom  = 1.1
	maxKeyword = 100
)

type mode int

const (
	modeNormal mode = iota
	modeSearch
	modeIngest
	modeHelp
	modeAlert
)

type loadOp int

const (
	opReload loadOp = iota
	opIngest
)

type tickMsg time.Time

type settleMsg struct{ tok viewport.Token }

type graphLoadedMsg struct {
	op   loadOp
	snap explorer.Snapshot
	err  error
}

type fileEventMsg struct {
	ev watcher.Event
	ok bool
}

// Options configures the explorer UI.
type Options struct {
	Session     *explorer.Session
	Source      string // shown in the header
	Watcher     *watcher.Watcher
	IngestLimit int
	Fullscreen  bool
	Context     context.Context
	Theme       *Theme
}

// Model is the bubbletea model of the explorer.
type Model struct {
	ctx         context.Context
	session     *explorer.Session
	source      string
	watcher     *watcher.Watcher
	ingestLimit int
	theme       Theme

	width, height   int
	ready           bool
	startFullscreen bool

	mode    mode
	search  textinput.Model
	ingest  textinput.Model
	spinner spinner.Model
	help    scroll.Model

	loading   bool
	status    string
	statusErr bool
	alert     string
}

// New creates the explorer model. When the session has no graph yet the
// first fetch starts from Init.
func New(opts Options) Model {
	theme := TestTheme()
	if opts.Theme != nil {
		theme = *opts.Theme
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	limit := opts.IngestLimit
	if limit <= 0 {
		limit = datasource.DefaultIngestLimit
	}

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search nodes"
	search.PromptStyle = theme.Prompt

	ingest := textinput.New()
	ingest.Prompt = "ingest › "
	ingest.Placeholder = "#hashtag or @profile"
	ingest.CharLimit = maxKeyword
	ingest.PromptStyle = theme.Prompt

	sp := spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(theme.Prompt))

	return Model{
		ctx:             ctx,
		session:         opts.Session,
		source:          opts.Source,
		watcher:         opts.Watcher,
		ingestLimit:     limit,
		theme:           theme,
		startFullscreen: opts.Fullscreen,
		search:          search,
		ingest:          ingest,
		spinner:         sp,
		help:            scroll.New(0, 0),
		loading:         opts.Session.Generation() == 0,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(), m.spinner.Tick}
	if m.loading {
		cmds = append(cmds, fetchCmd(m.ctx, m.session))
	}
	if m.watcher != nil {
		cmds = append(cmds, watchCmd(m.watcher))
	}
	return tea.Batch(cmds...)
}

func tickCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func settleCmd(tok viewport.Token) tea.Cmd {
	return tea.Tick(viewport.DebounceDelay, func(time.Time) tea.Msg {
		return settleMsg{tok: tok}
	})
}

func fetchCmd(ctx context.Context, s *explorer.Session) tea.Cmd {
	return func() tea.Msg {
		snap, err := s.Fetch(ctx)
		return graphLoadedMsg{op: opReload, snap: snap, err: err}
	}
}

func ingestCmd(ctx context.Context, s *explorer.Session, keyword string, limit int) tea.Cmd {
	return func() tea.Msg {
		snap, err := s.Ingest(ctx, keyword, limit)
		return graphLoadedMsg{op: opIngest, snap: snap, err: err}
	}
}

// watchCmd waits for the next watcher event.
func watchCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-w.Events()
		return fileEventMsg{ev: ev, ok: ok}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case settleMsg:
		m.session.SettleResize(msg.tok)
		return m, nil

	case tickMsg:
		m.session.Tick(time.Time(msg))
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case graphLoadedMsg:
		return m.handleLoaded(msg), nil

	case fileEventMsg:
		return m.handleFileEvent(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg), nil

	case tea.KeyMsg:
		switch m.mode {
		case modeSearch:
			return m.handleSearchKey(msg)
		case modeIngest:
			return m.handleIngestKey(msg)
		case modeHelp:
			return m.handleHelpKey(msg)
		case modeAlert:
			// The alert blocks until acknowledged.
			m.mode = modeNormal
			m.alert = ""
			return m, nil
		default:
			return m.handleKey(msg)
		}
	}
	return m, nil
}

// sizes returns the container and display sizes in screen units.
func (m Model) sizes() (container, display viewport.Size) {
	rows := max(m.height-chromeRows, 1)
	container = viewport.Size{Width: m.width, Height: int(float64(rows) * CellAspect)}
	display = viewport.Size{Width: m.width, Height: int(float64(m.height) * CellAspect)}
	return container, display
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width, m.height = msg.Width, msg.Height
	m.ready = true
	m.help.Width = msg.Width
	m.help.Height = max(msg.Height-chromeRows, 1)
	m.search.Width = max(msg.Width/2, 10)
	m.ingest.Width = max(msg.Width/2, 10)

	container, display := m.sizes()
	cmds := []tea.Cmd{settleCmd(m.session.Resize(container, display))}
	if m.startFullscreen {
		m.startFullscreen = false
		cmds = append(cmds, settleCmd(m.session.ToggleFullscreen()))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleLoaded(msg graphLoadedMsg) Model {
	// A rejected request leaves the running one in charge of the indicator.
	m.loading = m.session.Busy()
	if msg.err != nil {
		switch {
		case errors.Is(msg.err, explorer.ErrReloadInFlight):
			m.setStatus("reload already in progress")
		case msg.op == opIngest:
			m.mode = modeAlert
			m.alert = fmt.Sprintf("Ingest failed\n\n%v", msg.err)
		default:
			m.setError("reload failed: %v", msg.err)
		}
		return m
	}

	diff := m.session.Replace(msg.snap)
	g := m.session.Graph()
	if msg.op == opIngest {
		m.setStatus("ingested %s · %s", msg.snap.Keyword, diff.Summary())
	} else {
		m.setStatus("loaded %d nodes, %d links · %s", len(g.Nodes), len(g.Links)-g.CountPhantom(), diff.Summary())
	}
	return m
}

func (m Model) handleFileEvent(msg fileEventMsg) (tea.Model, tea.Cmd) {
	if !msg.ok {
		return m, nil
	}
	var cmds []tea.Cmd
	if m.watcher != nil {
		cmds = append(cmds, watchCmd(m.watcher))
	}
	switch msg.ev.Kind {
	case watcher.EventChanged:
		if !m.loading {
			m.loading = true
			cmds = append(cmds, fetchCmd(m.ctx, m.session))
		}
	case watcher.EventError:
		m.setError("watch: %v", msg.ev.Err)
	}
	return m, tea.Batch(cmds...)
}

// canvasTop is the terminal row where the canvas starts.
func (m Model) canvasTop() int {
	if m.session.Viewport().Fullscreen() {
		return 0
	}
	return 1
}

func (m Model) handleMouse(msg tea.MouseMsg) Model {
	if m.mode != modeNormal {
		return m
	}
	sx := float64(msg.X) + 0.5
	sy := (float64(msg.Y-m.canvasTop()) + 0.5) * CellAspect

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.session.ZoomBy(wheelZoom)
	case msg.Button == tea.MouseButtonWheelDown:
		m.session.ZoomBy(1 / wheelZoom)
	case msg.Action == tea.MouseActionMotion:
		id, _ := m.session.HitTest(sx, sy, mouseSlop)
		m.session.Hover(id)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if id, ok := m.session.HitTest(sx, sy, mouseSlop); ok {
			m.session.Click(id)
		} else {
			m.session.ClickBackground()
		}
	}
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.session
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "?":
		m.mode = modeHelp
		m.help.SetContent(renderHelp(m.width))
		m.help.GotoTop()
	case "/":
		m.mode = modeSearch
		m.search.SetValue(s.State().SearchTerm)
		m.search.CursorEnd()
		return m, m.search.Focus()
	case "i":
		m.mode = modeIngest
		m.ingest.Reset()
		return m, m.ingest.Focus()
	case "r":
		if m.loading {
			m.setStatus("reload already in progress")
			return m, nil
		}
		m.loading = true
		m.setStatus("reloading…")
		return m, fetchCmd(m.ctx, s)
	case "f":
		return m, settleCmd(s.ToggleFullscreen())
	case "c":
		s.SetCategory(nextCategory(s.State().ActiveCategory, 1))
	case "C":
		s.SetCategory(nextCategory(s.State().ActiveCategory, -1))
	case "x":
		s.SetCategory(model.CategoryNone)
	case "esc":
		s.ClickBackground()
	case "n", "tab":
		m.cycleSelection(1)
	case "N", "shift+tab":
		m.cycleSelection(-1)
	case "y":
		m.copySelection()
	case "left", "h":
		s.Pan(panStep, 0)
	case "right", "l":
		s.Pan(-panStep, 0)
	case "up", "k":
		s.Pan(0, panStep)
	case "down", "j":
		s.Pan(0, -panStep)
	case "+", "=":
		s.ZoomBy(zoomStep)
	case "-", "_":
		s.ZoomBy(1 / zoomStep)
	case "0":
		s.FitAll()
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.search.Blur()
		m.search.SetValue("")
		m.session.SetSearch("")
		m.mode = modeNormal
		return m, nil
	case "enter":
		m.search.Blur()
		m.mode = modeNormal
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.session.SetSearch(m.search.Value())
	return m, cmd
}

func (m Model) handleIngestKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.ingest.Blur()
		m.mode = modeNormal
		return m, nil
	case "enter":
		kw, err := datasource.ParseKeyword(m.ingest.Value())
		if err != nil {
			m.setError("%v", err)
			return m, nil
		}
		m.ingest.Blur()
		m.mode = modeNormal
		if m.loading {
			m.setStatus("reload already in progress")
			return m, nil
		}
		m.loading = true
		m.setStatus("ingesting %s…", kw.Text)
		return m, ingestCmd(m.ctx, m.session, kw.Text, m.ingestLimit)
	}
	var cmd tea.Cmd
	m.ingest, cmd = m.ingest.Update(msg)
	return m, cmd
}

func (m Model) handleHelpKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "?", "q":
		m.mode = modeNormal
		return m, nil
	}
	var cmd tea.Cmd
	m.help, cmd = m.help.Update(msg)
	return m, cmd
}

// cycleSelection selects the next or previous node in graph order.
func (m *Model) cycleSelection(delta int) {
	g := m.session.Graph()
	n := len(g.Nodes)
	if n == 0 {
		return
	}
	next := 0
	if cur := g.IndexOf(m.session.State().SelectedID); cur >= 0 {
		next = ((cur+delta)%n + n) % n
	} else if delta < 0 {
		next = n - 1
	}
	m.session.Click(g.Nodes[next].ID)
}

func (m *Model) copySelection() {
	id := m.session.State().SelectedID
	n, ok := m.session.Graph().NodeByID(id)
	if !ok {
		m.setStatus("select a node first")
		return
	}
	if err := clipboard.WriteAll(n.DisplayName); err != nil {
		debug.Log("clipboard write failed: %v", err)
		m.setError("clipboard: %v", err)
		return
	}
	m.setStatus("copied %q", n.DisplayName)
}

func (m *Model) setStatus(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusErr = false
}

func (m *Model) setError(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusErr = true
}

// Status returns the footer status text.
func (m Model) Status() string { return m.status }

// Loading reports whether a fetch or ingest is running.
func (m Model) Loading() bool { return m.loading }

func (m Model) View() string {
	if !m.ready {
		return "Loading graph..."
	}
	if m.mode == modeHelp {
		return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), m.help.View())
	}

	fullscreen := m.session.Viewport().Fullscreen()
	avail := m.height
	if !fullscreen {
		avail -= chromeRows
	}
	size := m.session.Viewport().Size()
	cols := min(size.Width, m.width)
	rows := max(min(int(float64(size.Height)/CellAspect), avail), 0)

	canvas := NewCellCanvas(cols, rows, m.theme.CanvasBg)
	m.session.Paint(canvas)
	body := canvas.Render(m.theme.Renderer)

	if m.mode == modeAlert {
		box := m.theme.Alert.Render(m.alert + "\n\n" + m.theme.Hint.Render("press any key"))
		body = lipgloss.Place(m.width, rows, lipgloss.Center, lipgloss.Center, box)
	}

	if fullscreen {
		return body
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderFooter())
}

func (m Model) renderHeader() string {
	t := m.theme
	g := m.session.Graph()
	creators := 0
	for _, n := range g.Nodes {
		if n.IsCreator() {
			creators++
		}
	}

	parts := []string{
		t.Header.Render("influgraph"),
		t.HeaderDim.Render(truncateRunesHelper(m.source, 40, "…")),
		t.Status.Render(fmt.Sprintf("%d creators · %d brands · %d links",
			creators, len(g.Nodes)-creators, len(g.Links)-g.CountPhantom())),
	}
	st := m.session.State()
	if st.ActiveCategory != model.CategoryNone {
		parts = append(parts, t.CategoryStyle(st.ActiveCategory).Render("● "+string(st.ActiveCategory)))
	}
	if st.SearchTerm != "" && m.mode != modeSearch {
		parts = append(parts, t.Prompt.Render("/"+st.SearchTerm))
	}
	if m.loading {
		parts = append(parts, m.spinner.View())
	}
	// Drop trailing parts that do not fit.
	out := parts[0]
	for _, p := range parts[1:] {
		if lipgloss.Width(out)+1+lipgloss.Width(p) > m.width {
			break
		}
		out += " " + p
	}
	return out
}

func (m Model) renderFooter() string {
	t := m.theme
	switch m.mode {
	case modeSearch:
		return m.search.View()
	case modeIngest:
		return m.ingest.View()
	}

	left := t.Hint.Render("? help · / search · c category · i ingest · r reload · f fullscreen · q quit")
	if m.status != "" {
		if m.statusErr {
			left = t.Error.Render(m.status)
		} else {
			left = t.Status.Render(m.status)
		}
	}
	if n, ok := m.session.Graph().NodeByID(m.session.State().SelectedID); ok {
		right := t.Detail.Render(describeNode(n))
		gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
		if gap >= 1 {
			return left + strings.Repeat(" ", gap) + right
		}
		// Details win over the key hints.
		if m.status == "" {
			return t.Detail.Render(truncateRunesHelper(describeNode(n), m.width, "…"))
		}
	}
	return left
}
