// Package watcher reports changes to a graph payload file so a file-backed
// explorer can reload. It uses fsnotify on the parent directory and falls
// back to stat polling when notifications are unavailable.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vanderheijden86/influgraph/pkg/debug"
)

// DefaultPollInterval is the stat interval in polling mode.
const DefaultPollInterval = 2 * time.Second

// ForcePollEnv forces polling mode when set to a truthy value.
const ForcePollEnv = "IG_FORCE_POLL"

// ErrFileRemoved is reported when the watched file disappears.
var ErrFileRemoved = errors.New("watched file was removed")

// EventKind classifies a watcher event.
type EventKind int

const (
	// EventChanged: the file was written, created or replaced.
	EventChanged EventKind = iota + 1
	// EventError: see Event.Err (ErrFileRemoved for removals).
	EventError
)

// Event is delivered on Watcher.Events.
type Event struct {
	Kind EventKind
	Err  error
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a change is reported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithPollInterval sets the stat interval for polling mode.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) { w.poll = d }
}

// WithForcePoll skips fsnotify entirely.
func WithForcePoll(force bool) Option {
	return func(w *Watcher) { w.forcePoll = force }
}

// Watcher watches one file. Create it with New and drive it with Run.
type Watcher struct {
	path      string
	debounce  time.Duration
	poll      time.Duration
	forcePoll bool

	events  chan Event
	polling atomic.Bool
	running atomic.Bool
}

// New creates a watcher for path.
func New(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve watch path: %w", err)
	}
	w := &Watcher{
		path:     abs,
		debounce: DefaultDebounceDuration,
		poll:     DefaultPollInterval,
		events:   make(chan Event, 4),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.poll <= 0 {
		w.poll = DefaultPollInterval
	}
	return w, nil
}

// Path returns the absolute watched path.
func (w *Watcher) Path() string { return w.path }

// Events returns the event channel. Events are dropped when the consumer
// falls behind; a pending EventChanged already implies a reload.
func (w *Watcher) Events() <-chan Event { return w.events }

// Polling reports whether the running watcher fell back to polling.
func (w *Watcher) Polling() bool { return w.polling.Load() }

// Run watches until ctx is cancelled. It returns ctx.Err() on cancellation
// or an error if the watcher is already running.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.running.CompareAndSwap(false, true) {
		return errors.New("watcher already running")
	}
	defer w.running.Store(false)

	deb := NewDebouncer(w.debounce)
	defer deb.Cancel()
	changed := func() {
		deb.Trigger(func() { w.emit(Event{Kind: EventChanged}) })
	}

	if !w.forcePoll && !envBool(ForcePollEnv) {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			if err = fsw.Add(filepath.Dir(w.path)); err == nil {
				defer fsw.Close()
				w.polling.Store(false)
				debug.Event("watching graph file", "path", w.path, "mode", "fsnotify")
				return w.runNotify(ctx, fsw, changed)
			}
			fsw.Close()
		}
		debug.Log("fsnotify unavailable for %s (%v), polling", w.path, err)
	}

	w.polling.Store(true)
	debug.Event("watching graph file", "path", w.path, "mode", "poll", "interval", w.poll)
	return w.runPoll(ctx, changed)
}

func (w *Watcher) runNotify(ctx context.Context, fsw *fsnotify.Watcher, changed func()) error {
	name := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			switch {
			case ev.Op&fsnotify.Remove != 0:
				w.emit(Event{Kind: EventError, Err: ErrFileRemoved})
			case ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				changed()
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.emit(Event{Kind: EventError, Err: err})
		}
	}
}

type fileStamp struct {
	mtime time.Time
	size  int64
	ok    bool
}

func stamp(path string) (fileStamp, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileStamp{}, err
	}
	return fileStamp{mtime: info.ModTime(), size: info.Size(), ok: true}, nil
}

func (w *Watcher) runPoll(ctx context.Context, changed func()) error {
	last, _ := stamp(w.path)
	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		cur, err := stamp(w.path)
		switch {
		case os.IsNotExist(err):
			if last.ok {
				w.emit(Event{Kind: EventError, Err: ErrFileRemoved})
			}
			last = fileStamp{}
		case err != nil:
			w.emit(Event{Kind: EventError, Err: err})
		case !last.ok || cur.mtime.After(last.mtime) || cur.size != last.size:
			last = cur
			changed()
		}
	}
}

func (w *Watcher) emit(ev Event) {
	select {
	case w.events <- ev:
	default:
	}
}

func envBool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}
