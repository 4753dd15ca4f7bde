package viewport

import (
	"math"
	"time"
)

// Scale limits for the camera.
const (
	MinScale = 0.01
	MaxScale = 1000.0
)

// Camera receives animated camera commands. Every command supersedes any
// in-flight animation it conflicts with.
type Camera interface {
	CenterAt(x, y float64, d time.Duration)
	Zoom(k float64, d time.Duration)
	ZoomToFit(d time.Duration, padding float64)
}

// Rect is an axis-aligned bounding box in graph coordinates.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Empty reports whether r was never extended.
func (r Rect) Empty() bool {
	return r.MaxX < r.MinX || r.MaxY < r.MinY
}

func (r Rect) Width() float64  { return r.MaxX - r.MinX }
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Center returns the middle of the box.
func (r Rect) Center() (float64, float64) {
	return (r.MinX + r.MaxX) / 2, (r.MinY + r.MaxY) / 2
}

// EmptyRect returns a Rect ready to be extended with Extend.
func EmptyRect() Rect {
	return Rect{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
}

// Extend grows r to include the circle at (x, y) with radius rad.
func (r Rect) Extend(x, y, rad float64) Rect {
	r.MinX = math.Min(r.MinX, x-rad)
	r.MinY = math.Min(r.MinY, y-rad)
	r.MaxX = math.Max(r.MaxX, x+rad)
	r.MaxY = math.Max(r.MaxY, y+rad)
	return r
}

type tween struct {
	from, to float64
	start    time.Time
	dur      time.Duration
}

func (tw tween) at(now time.Time) (float64, bool) {
	if tw.dur <= 0 {
		return tw.to, true
	}
	t := float64(now.Sub(tw.start)) / float64(tw.dur)
	if t >= 1 {
		return tw.to, true
	}
	if t < 0 {
		t = 0
	}
	return tw.from + (tw.to-tw.from)*easeCubicInOut(t), false
}

func easeCubicInOut(t float64) float64 {
	t *= 2
	if t <= 1 {
		return t * t * t / 2
	}
	t -= 2
	return (t*t*t + 2) / 2
}

// AnimatedCamera is a 2D camera with eased transitions. The center and the
// scale animate independently; a new command on a channel replaces the one in
// flight, starting from the current interpolated value.
//
// The camera does not read the wall clock. Commands begin at the time of the
// last Advance call.
type AnimatedCamera struct {
	width, height float64
	content       Rect

	cx, cy, k float64
	now       time.Time

	ax, ay, ak *tween
}

// NewAnimatedCamera creates a camera for a viewport of the given size,
// centered on the origin at scale 1.
func NewAnimatedCamera(width, height float64) *AnimatedCamera {
	return &AnimatedCamera{width: width, height: height, k: 1, content: EmptyRect()}
}

// SetViewport updates the screen size. The camera position is unchanged.
func (c *AnimatedCamera) SetViewport(width, height float64) {
	c.width, c.height = width, height
}

// SetContent sets the bounding box used by ZoomToFit.
func (c *AnimatedCamera) SetContent(r Rect) {
	c.content = r
}

// Advance moves all running animations to now.
func (c *AnimatedCamera) Advance(now time.Time) {
	c.now = now
	c.cx, c.ax = step(c.cx, c.ax, now)
	c.cy, c.ay = step(c.cy, c.ay, now)
	c.k, c.ak = step(c.k, c.ak, now)
}

func step(v float64, tw *tween, now time.Time) (float64, *tween) {
	if tw == nil {
		return v, nil
	}
	next, done := tw.at(now)
	if done {
		return next, nil
	}
	return next, tw
}

// Animating reports whether any transition is still running.
func (c *AnimatedCamera) Animating() bool {
	return c.ax != nil || c.ay != nil || c.ak != nil
}

func (c *AnimatedCamera) CenterAt(x, y float64, d time.Duration) {
	c.ax = c.start(c.cx, x, d, &c.cx)
	c.ay = c.start(c.cy, y, d, &c.cy)
}

func (c *AnimatedCamera) Zoom(k float64, d time.Duration) {
	c.ak = c.start(c.k, clampScale(k), d, &c.k)
}

func (c *AnimatedCamera) ZoomToFit(d time.Duration, padding float64) {
	if c.content.Empty() {
		return
	}
	x, y := c.content.Center()
	c.CenterAt(x, y, d)
	c.Zoom(fitScale(c.content, c.width, c.height, padding), d)
}

func (c *AnimatedCamera) start(from, to float64, d time.Duration, field *float64) *tween {
	if d <= 0 {
		*field = to
		return nil
	}
	return &tween{from: from, to: to, start: c.now, dur: d}
}

// Pan shifts the center immediately by a screen-space offset.
func (c *AnimatedCamera) Pan(dx, dy float64) {
	c.ax, c.ay = nil, nil
	c.cx -= dx / c.k
	c.cy -= dy / c.k
}

// ZoomBy multiplies the scale immediately.
func (c *AnimatedCamera) ZoomBy(f float64) {
	c.ak = nil
	c.k = clampScale(c.k * f)
}

// Scale returns the current zoom factor.
func (c *AnimatedCamera) Scale() float64 { return c.k }

// Center returns the graph coordinate shown at the middle of the viewport.
func (c *AnimatedCamera) Center() (float64, float64) { return c.cx, c.cy }

// ToScreen maps a graph coordinate to screen space.
func (c *AnimatedCamera) ToScreen(x, y float64) (float64, float64) {
	return (x-c.cx)*c.k + c.width/2, (y-c.cy)*c.k + c.height/2
}

// ToGraph maps a screen coordinate to graph space.
func (c *AnimatedCamera) ToGraph(sx, sy float64) (float64, float64) {
	return (sx-c.width/2)/c.k + c.cx, (sy-c.height/2)/c.k + c.cy
}

func fitScale(r Rect, w, h, padding float64) float64 {
	aw, ah := w-2*padding, h-2*padding
	if aw <= 0 || ah <= 0 {
		return MinScale
	}
	bw, bh := math.Max(r.Width(), 1e-9), math.Max(r.Height(), 1e-9)
	return clampScale(math.Min(aw/bw, ah/bh))
}

func clampScale(k float64) float64 {
	return math.Min(MaxScale, math.Max(MinScale, k))
}
