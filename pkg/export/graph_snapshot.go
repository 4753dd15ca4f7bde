package export

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/influgraph/pkg/debug"
	"github.com/vanderheijden86/influgraph/pkg/explorer"
	"github.com/vanderheijden86/influgraph/pkg/model"
	"github.com/vanderheijden86/influgraph/pkg/paint"
	"github.com/vanderheijden86/influgraph/pkg/viewport"
)

const (
	DefaultSnapshotWidth  = 1200
	DefaultSnapshotHeight = 800

	// snapshotPadding matches the settle fit of the interactive view.
	snapshotPadding = 50
	// settleTicks bounds the layout steps taken before rendering.
	settleTicks = 600
	tickStep    = 33 * time.Millisecond
)

// SnapshotOptions controls graph snapshot export behaviour.
type SnapshotOptions struct {
	Path   string // Output path; format inferred from extension when Format empty
	Format string // "svg" or "png" (case-insensitive). If empty, inferred from Path.
	Width  int
	Height int
	Title  string // Optional caption drawn at the top

	// AvatarTimeout bounds how long to wait for creator avatars. With zero,
	// creators whose avatar has not loaded yet are drawn with initials.
	AvatarTimeout time.Duration
}

// resolveFormat picks the output format from the options, appending ".svg"
// to extension-less paths.
func resolveFormat(opts SnapshotOptions) (string, string, error) {
	if opts.Path == "" {
		return "", "", fmt.Errorf("output path is required")
	}
	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	path := opts.Path
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".svg":
			format = "svg"
		case ".png":
			format = "png"
		case "":
			format = "svg"
			path += ".svg"
		default:
			format = "svg"
		}
	}
	if format != "svg" && format != "png" {
		return "", "", fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
	return format, path, nil
}

// SaveSnapshot renders the session's graph, fitted to the image, as SVG or
// PNG. The session's highlight state is drawn as-is, so a selection or
// category filter made before the call shows up in the picture.
func SaveSnapshot(ctx context.Context, s *explorer.Session, opts SnapshotOptions) error {
	return SaveSnapshots(ctx, s, []string{opts.Path}, opts)
}

// SaveSnapshots writes one snapshot per path. The session is settled once;
// the files are then rendered concurrently. Formats come from opts.Format or
// each path's extension.
func SaveSnapshots(ctx context.Context, s *explorer.Session, paths []string, opts SnapshotOptions) error {
	if s.Graph().IsEmpty() {
		return fmt.Errorf("no graph to export")
	}
	if len(paths) == 0 {
		return fmt.Errorf("output path is required")
	}
	if opts.Width <= 0 {
		opts.Width = DefaultSnapshotWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultSnapshotHeight
	}

	type job struct {
		format, path string
	}
	jobs := make([]job, 0, len(paths))
	for _, p := range paths {
		o := opts
		o.Path = p
		format, path, err := resolveFormat(o)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create parent dir: %w", err)
		}
		jobs = append(jobs, job{format, path})
	}

	// Everything below the fan-out only reads the session.
	settleLayout(s)
	if opts.AvatarTimeout > 0 {
		waitAvatars(ctx, s, opts.AvatarTimeout)
	}
	frame := fitFrame(s, opts.Width, opts.Height)
	painter := s.Painter()

	var g errgroup.Group
	for _, j := range jobs {
		g.Go(func() error {
			start := time.Now()
			var err error
			if j.format == "png" {
				err = renderPNG(painter, frame, opts, j.path)
			} else {
				err = renderSVG(painter, frame, opts, j.path)
			}
			if err != nil {
				return fmt.Errorf("snapshot %s: %w", j.path, err)
			}
			debug.Event("snapshot written", "path", j.path, "format", j.format, "elapsed", time.Since(start))
			return nil
		})
	}
	return g.Wait()
}

// settleLayout steps the session until the layout and camera come to rest.
func settleLayout(s *explorer.Session) {
	now := time.Now()
	for i := 0; i < settleTicks; i++ {
		if !s.Tick(now) {
			return
		}
		now = now.Add(tickStep)
	}
	debug.Log("snapshot: layout still moving after %d ticks", settleTicks)
}

// waitAvatars requests every creator avatar and waits for the loads, or
// until the timeout passes.
func waitAvatars(ctx context.Context, s *explorer.Session, timeout time.Duration) {
	cache := s.Avatars()
	if cache == nil {
		return
	}
	for _, n := range s.Graph().Nodes {
		if n.IsCreator() && n.AvatarURL != "" {
			cache.Get(n.ID, n.AvatarURL)
		}
	}
	done := make(chan struct{})
	go func() {
		cache.Wait()
		close(done)
	}()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	select {
	case <-done:
	case <-ctx.Done():
		debug.Log("snapshot: avatars still loading after %v", timeout)
	}
}

// fitFrame returns the session frame re-projected through a camera that
// fits the whole graph into width x height pixels.
func fitFrame(s *explorer.Session, width, height int) paint.Frame {
	frame := s.Frame()
	cam := viewport.NewAnimatedCamera(float64(width), float64(height))
	cam.SetContent(graphBounds(frame.Graph, frame.Layout))
	cam.ZoomToFit(0, snapshotPadding)
	frame.Camera = cam
	return frame
}

func graphBounds(g *model.Graph, layout paint.Layout) viewport.Rect {
	r := viewport.EmptyRect()
	for _, n := range g.Nodes {
		if x, y, ok := layout.Position(n.ID); ok {
			r = r.Extend(x, y, n.Radius())
		}
	}
	return r
}

func drawTitle(c paint.Canvas, style paint.Style, title string, width int) {
	if title == "" {
		return
	}
	c.SetAlpha(1)
	c.Text(title, float64(width)/2, 20, 16, style.LabelFill, style.LabelHalo)
}

func renderPNG(p *paint.Painter, frame paint.Frame, opts SnapshotOptions, path string) error {
	c := paint.NewRasterCanvas(opts.Width, opts.Height, p.Style.Background)
	p.Paint(c, frame)
	drawTitle(c, p.Style, opts.Title, opts.Width)
	if err := c.SavePNG(path); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

func renderSVG(p *paint.Painter, frame paint.Frame, opts SnapshotOptions, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create svg: %w", err)
	}
	w := bufio.NewWriter(f)
	c := paint.NewSVGCanvas(w, opts.Width, opts.Height, p.Style.Background)
	p.Paint(c, frame)
	drawTitle(c, p.Style, opts.Title, opts.Width)
	c.Close()
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write svg: %w", err)
	}
	return f.Close()
}
