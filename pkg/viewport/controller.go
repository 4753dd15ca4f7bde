// Package viewport tracks the drawing surface size and turns highlight
// effects into camera commands.
package viewport

import (
	"time"

	"github.com/vanderheijden86/influgraph/pkg/debug"
	"github.com/vanderheijden86/influgraph/pkg/highlight"
)

// Timing and zoom constants for camera reactions.
const (
	DebounceDelay     = 100 * time.Millisecond
	FocusDuration     = time.Second
	SettleFitDuration = 400 * time.Millisecond

	FocusZoom       = 1.75
	SearchZoom      = 3.0
	DeselectPadding = 50.0
	FitPadding      = 10.0
)

// Size is a surface size in screen units.
type Size struct {
	Width, Height int
}

// Token identifies a pending size recompute.
type Token uint64

// Locator returns the current layout position of a node.
type Locator interface {
	Position(id string) (x, y float64, ok bool)
}

// Controller owns the surface dimensions and routes effects to a Camera.
// Size changes are debounced: ToggleFullscreen and Resize return a Token, and
// the host calls Settle with it once DebounceDelay has elapsed. Only the most
// recent token applies.
type Controller struct {
	camera Camera

	fullscreen bool
	container  Size
	display    Size
	size       Size

	gen       Token
	settled   Token
	fitOnIdle bool
}

// NewController creates a controller sized to container.
func NewController(cam Camera, container, display Size) *Controller {
	return &Controller{
		camera:    cam,
		container: container,
		display:   display,
		size:      container,
		fitOnIdle: true,
	}
}

// Size returns the applied surface size.
func (c *Controller) Size() Size { return c.size }

// Fullscreen reports whether fullscreen mode is on.
func (c *Controller) Fullscreen() bool { return c.fullscreen }

// Pending reports whether a size request is waiting to settle.
func (c *Controller) Pending() bool { return c.settled != c.gen }

// ToggleFullscreen flips fullscreen mode and schedules a size recompute.
func (c *Controller) ToggleFullscreen() Token {
	c.fullscreen = !c.fullscreen
	return c.request()
}

// Resize records new container and display sizes and schedules a recompute.
func (c *Controller) Resize(container, display Size) Token {
	c.container = container
	c.display = display
	return c.request()
}

func (c *Controller) request() Token {
	c.gen++
	return c.gen
}

// Settle applies the pending size if tok is still the latest request.
// It reports whether the size changed.
func (c *Controller) Settle(tok Token) bool {
	if tok != c.gen {
		return false
	}
	c.settled = tok

	next := c.container
	if c.fullscreen {
		next = c.display
	}
	if next == c.size {
		return false
	}
	debug.Event("viewport resized", "from", c.size, "to", next, "fullscreen", c.fullscreen)
	c.size = next
	return true
}

// Apply turns a highlight effect into camera commands. Effects naming a node
// with no known position are dropped.
func (c *Controller) Apply(e highlight.Effect, loc Locator) {
	switch e.Kind {
	case highlight.EffectFocusNode:
		c.centerAndZoom(e.NodeID, FocusZoom, loc)
	case highlight.EffectSearchMatch:
		c.centerAndZoom(e.NodeID, SearchZoom, loc)
	case highlight.EffectDeselect:
		c.camera.ZoomToFit(FocusDuration, DeselectPadding)
	case highlight.EffectFitAll:
		c.camera.ZoomToFit(FocusDuration, FitPadding)
	}
}

// ApplyAll applies effects in order.
func (c *Controller) ApplyAll(effects []highlight.Effect, loc Locator) {
	for _, e := range effects {
		c.Apply(e, loc)
	}
}

func (c *Controller) centerAndZoom(id string, k float64, loc Locator) {
	x, y, ok := loc.Position(id)
	if !ok {
		return
	}
	c.camera.CenterAt(x, y, FocusDuration)
	c.camera.Zoom(k, FocusDuration)
}

// LayoutSettled fits the graph the first time the layout comes to rest after
// a load. Later calls do nothing until Rearm.
func (c *Controller) LayoutSettled() {
	if !c.fitOnIdle {
		return
	}
	c.fitOnIdle = false
	c.camera.ZoomToFit(SettleFitDuration, DeselectPadding)
}

// Rearm makes the next LayoutSettled fit the graph again.
func (c *Controller) Rearm() {
	c.fitOnIdle = true
}
