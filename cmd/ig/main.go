package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/vanderheijden86/influgraph/internal/datasource"
	"github.com/vanderheijden86/influgraph/pkg/config"
	"github.com/vanderheijden86/influgraph/pkg/debug"
	"github.com/vanderheijden86/influgraph/pkg/explorer"
	"github.com/vanderheijden86/influgraph/pkg/export"
	"github.com/vanderheijden86/influgraph/pkg/metrics"
	"github.com/vanderheijden86/influgraph/pkg/model"
	"github.com/vanderheijden86/influgraph/pkg/paint"
	"github.com/vanderheijden86/influgraph/pkg/ui"
	"github.com/vanderheijden86/influgraph/pkg/version"
	"github.com/vanderheijden86/influgraph/pkg/viewport"
	"github.com/vanderheijden86/influgraph/pkg/watcher"
)

func main() {
	cpuProfile := flag.String("cpu-profile", "", "Write CPU profile to file")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	configPath := flag.String("config", "", "Config file (default: $XDG_CONFIG_HOME/influgraph/config.yaml)")
	initConfig := flag.Bool("init-config", false, "Write the effective configuration to the config file and exit")
	source := flag.String("source", "", "Graph data service URL or JSON payload file")
	watchFlag := flag.Bool("watch", false, "Reload when the source file changes")
	noCache := flag.Bool("no-cache", false, "Do not read or write the snapshot cache")
	ingest := flag.String("ingest", "", "Ingest a #hashtag or @profile before loading")
	limit := flag.Int("limit", 0, "Posts to scrape per ingest (default from config)")
	ingestPrompt := flag.Bool("ingest-prompt", false, "Ask for an ingest keyword before loading")
	category := flag.String("category", "", "Start with a category filter (e.g. 'Fashion')")
	selectID := flag.String("select", "", "Start with this node selected")
	search := flag.String("search", "", "Start with this search term")
	fullscreen := flag.Bool("fullscreen", false, "Start in fullscreen mode")
	noMouse := flag.Bool("no-mouse", false, "Disable mouse support")
	snapshot := flag.String("snapshot", "", "Render the graph to these comma-separated .png/.svg files and exit")
	snapshotWidth := flag.Int("snapshot-width", export.DefaultSnapshotWidth, "Snapshot width in pixels")
	snapshotHeight := flag.Int("snapshot-height", export.DefaultSnapshotHeight, "Snapshot height in pixels")
	robotGraph := flag.Bool("robot-graph", false, "Print the aggregated graph for scripts and exit")
	graphFormat := flag.String("graph-format", "json", "Format for --robot-graph: json, dot or mermaid")
	graphRoot := flag.String("graph-root", "", "Limit --robot-graph to the subgraph around this node")
	graphDepth := flag.Int("graph-depth", 0, "Hops from --graph-root (0 = unlimited)")
	flag.Parse()

	// CPU profiling support
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if *help {
		fmt.Println("Usage: ig [options]")
		fmt.Println("\nExplore which creators mention which brands, as a force-directed graph.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("ig %s\n", version.Version)
		os.Exit(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *source != "" {
		if strings.HasPrefix(*source, "http://") || strings.HasPrefix(*source, "https://") {
			cfg.Service.BaseURL = strings.TrimRight(*source, "/")
			cfg.Source.File = ""
		} else {
			cfg.Source.File = *source
		}
	}
	if *watchFlag {
		cfg.Source.Watch = true
	}
	if *noCache {
		cfg.Cache.Disabled = true
	}
	if *limit > 0 {
		cfg.Service.IngestLimit = *limit
	}
	if *fullscreen {
		cfg.UI.Fullscreen = true
	}
	if *noMouse {
		off := false
		cfg.UI.Mouse = &off
	}

	if *initConfig {
		if err := saveConfig(*configPath, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing config: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	cat := model.Category(*category)
	if cat != model.CategoryNone && !cat.IsKnown() {
		fmt.Fprintf(os.Stderr, "Error: unknown category %q\n", *category)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, closeSvc, err := openService(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening data source: %v\n", err)
		os.Exit(1)
	}
	defer closeSvc()

	container, display := terminalSizes()
	style := cfg.Style()
	session := explorer.New(svc, explorer.Options{
		Tuning:      cfg.Physics,
		Style:       &style,
		Loader:      paint.NewHTTPImageLoader(cfg.Paint.AvatarRate, cfg.Paint.AvatarBurst, cfg.Paint.AvatarTimeout),
		Placeholder: cfg.Placeholder(),
		Container:   container,
		Display:     display,
	})
	defer session.Close()

	keyword := *ingest
	if *ingestPrompt {
		kw, n, err := promptIngest(cfg.Service.IngestLimit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ingest prompt cancelled: %v\n", err)
			os.Exit(1)
		}
		keyword, cfg.Service.IngestLimit = kw, n
	}

	headless := *snapshot != "" || *robotGraph
	if err := initialLoad(ctx, session, keyword, cfg.Service.IngestLimit); err != nil {
		if headless || keyword != "" {
			fmt.Fprintf(os.Stderr, "Error loading graph from %s: %v\n", cfg.SourceLocation(), err)
			os.Exit(1)
		}
		// The explorer retries from Init and shows the failure in its footer.
		debug.Warn("initial load failed", "source", cfg.SourceLocation(), "err", err)
	}

	if cat != model.CategoryNone {
		session.SetCategory(cat)
	}
	if *selectID != "" {
		if _, ok := session.Graph().NodeByID(*selectID); ok {
			session.Click(*selectID)
		} else if headless {
			fmt.Fprintf(os.Stderr, "Error: node %q not found\n", *selectID)
			os.Exit(2)
		}
	}
	if *search != "" {
		session.SetSearch(*search)
	}

	if headless {
		code := runHeadless(ctx, session, cfg, headlessOptions{
			snapshots: splitList(*snapshot),
			width:     *snapshotWidth,
			height:    *snapshotHeight,
			robot:     *robotGraph,
			graph: export.GraphExportConfig{
				Format:   export.GraphExportFormat(strings.ToLower(*graphFormat)),
				Category: cat,
				Root:     *graphRoot,
				Depth:    *graphDepth,
			},
		})
		if metrics.Enabled() && debug.Enabled() {
			debug.Dump("metrics", metrics.AllTimingStats())
		}
		os.Exit(code)
	}

	var w *watcher.Watcher
	if cfg.Source.File != "" && cfg.Source.Watch {
		w, err = watcher.New(cfg.Source.File)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot watch %s: %v\n", cfg.Source.File, err)
			w = nil
		} else {
			go func() {
				if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					debug.Warn("watcher stopped", "err", err)
				}
			}()
		}
	}

	theme := ui.DefaultTheme(lipgloss.NewRenderer(os.Stdout))
	m := ui.New(ui.Options{
		Session:     session,
		Source:      cfg.SourceLocation(),
		Watcher:     w,
		IngestLimit: cfg.Service.IngestLimit,
		Fullscreen:  cfg.UI.Fullscreen,
		Context:     ctx,
		Theme:       &theme,
	})

	if err := runTUIProgram(m, cfg.UI.MouseEnabled()); err != nil {
		fmt.Printf("Error running influgraph: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	cfg, err := config.Load()
	if err != nil {
		// Non-fatal: a broken default config falls back to defaults.
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		return config.DefaultConfig(), nil
	}
	return cfg, nil
}

func saveConfig(path string, cfg config.Config) error {
	if path != "" {
		return config.SaveTo(cfg, path)
	}
	if err := config.Save(cfg); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", config.ConfigPath())
	return nil
}

// openService builds the data service for the configured source, wrapped in
// the snapshot cache unless it is disabled.
func openService(cfg config.Config) (datasource.Service, func(), error) {
	src, err := datasource.ParseSource(cfg.SourceLocation())
	if err != nil {
		return nil, nil, err
	}
	svc, err := datasource.Open(src, cfg.HTTPOptions())
	if err != nil {
		return nil, nil, err
	}

	path := cfg.CachePath()
	if path == "" || src.Type == datasource.SourceTypeFile {
		return svc, func() {}, nil
	}
	cache, err := datasource.OpenSnapshotCache(path)
	if err != nil {
		// The explorer works without the cache; it only loses the offline fallback.
		debug.Warn("snapshot cache unavailable", "path", path, "err", err)
		return svc, func() {}, nil
	}
	return datasource.NewCachedService(svc, cache, src.Location), func() { _ = cache.Close() }, nil
}

// initialLoad fetches the graph, after running an ingest when keyword is set.
func initialLoad(ctx context.Context, s *explorer.Session, keyword string, limit int) error {
	if keyword == "" {
		return s.Reload(ctx)
	}
	fmt.Fprintf(os.Stderr, "Ingesting %s (limit %d)...\n", keyword, limit)
	snap, err := s.Ingest(ctx, keyword, limit)
	if err != nil {
		return err
	}
	diff := s.Replace(snap)
	fmt.Fprintf(os.Stderr, "Ingest complete: %s\n", diff.Summary())
	return nil
}

type headlessOptions struct {
	snapshots     []string
	width, height int
	robot         bool
	graph         export.GraphExportConfig
}

func runHeadless(ctx context.Context, s *explorer.Session, cfg config.Config, opts headlessOptions) int {
	if len(opts.snapshots) > 0 {
		err := export.SaveSnapshots(ctx, s, opts.snapshots, export.SnapshotOptions{
			Width:         opts.width,
			Height:        opts.height,
			Title:         cfg.SourceLocation(),
			AvatarTimeout: cfg.Paint.AvatarTimeout,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing snapshot: %v\n", err)
			return 1
		}
		for _, p := range opts.snapshots {
			fmt.Fprintf(os.Stderr, "Wrote %s\n", p)
		}
	}

	if opts.robot {
		stats := s.Stats()
		var layout paint.Layout
		if len(opts.snapshots) > 0 {
			// Positions are only meaningful once a snapshot settled the layout.
			layout = s.Layout()
		}
		res, err := export.ExportGraph(s.Graph(), layout, &stats, opts.graph)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting graph: %v\n", err)
			return 2
		}
		if err := export.WriteJSON(os.Stdout, res); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding graph: %v\n", err)
			return 1
		}
	}
	return 0
}

// terminalSizes returns the explorer's container and fullscreen surface
// sizes in screen units, falling back to 80x24 when stdout is not a
// terminal.
func terminalSizes() (container, display viewport.Size) {
	cols, rows := 80, 24
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 && h > 0 {
			cols, rows = w, h
		}
	}
	container = viewport.Size{Width: cols, Height: int(float64(max(rows-2, 1)) * ui.CellAspect)}
	display = viewport.Size{Width: cols, Height: int(float64(rows) * ui.CellAspect)}
	return container, display
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func runTUIProgram(m ui.Model, mouse bool) error {
	opts := []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	}
	if mouse {
		opts = append(opts, tea.WithMouseAllMotion())
	}
	p := tea.NewProgram(m, opts...)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set IG_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("IG_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()
			}()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}
