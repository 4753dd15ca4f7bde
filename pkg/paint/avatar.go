package paint

import (
	"context"
	"image"
	"sync"
	"sync/atomic"

	"github.com/vanderheijden86/influgraph/pkg/debug"
	"github.com/vanderheijden86/influgraph/pkg/metrics"
)

// DefaultPlaceholderURL is loaded when an avatar URL fails.
const DefaultPlaceholderURL = "https://ui-avatars.com/api/?name=?&background=e0e0e0&color=555555&format=png"

// AvatarState is the lifecycle of a cached avatar. It only moves forward:
// pending, then loaded or errored.
type AvatarState int32

const (
	AvatarPending AvatarState = iota
	AvatarLoaded
	AvatarErrored
)

func (s AvatarState) String() string {
	switch s {
	case AvatarLoaded:
		return "loaded"
	case AvatarErrored:
		return "errored"
	default:
		return "pending"
	}
}

// ImageLoader fetches and decodes an image.
type ImageLoader interface {
	Load(ctx context.Context, url string) (image.Image, error)
}

type avatarKey struct {
	nodeID string
	url    string
}

// avatarEntry is written by exactly one load goroutine. img is set before
// state is stored as loaded, so readers that observe AvatarLoaded see img.
type avatarEntry struct {
	state atomic.Int32
	img   image.Image
	src   string
}

func (e *avatarEntry) image() (image.Image, bool) {
	if AvatarState(e.state.Load()) != AvatarLoaded {
		return nil, false
	}
	return e.img, true
}

// AvatarCache memoises avatar images per (node, url). Lookups happen on the
// render loop; loads run on their own goroutines and only touch their entry.
type AvatarCache struct {
	loader      ImageLoader
	placeholder string

	mu      sync.Mutex
	entries map[avatarKey]*avatarEntry
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewAvatarCache creates a cache using loader. An empty placeholder selects
// DefaultPlaceholderURL.
func NewAvatarCache(loader ImageLoader, placeholder string) *AvatarCache {
	if placeholder == "" {
		placeholder = DefaultPlaceholderURL
	}
	c := &AvatarCache{loader: loader, placeholder: placeholder}
	c.reset()
	return c
}

func (c *AvatarCache) reset() {
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.entries = make(map[avatarKey]*avatarEntry)
}

// Get returns the avatar for the node if it has loaded. The first request for
// a key starts a background load and returns immediately.
func (c *AvatarCache) Get(nodeID, url string) (image.Image, bool) {
	if url == "" || c.loader == nil {
		return nil, false
	}
	key := avatarKey{nodeID: nodeID, url: url}

	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &avatarEntry{src: url}
		c.entries[key] = e
		c.wg.Add(1)
		go c.load(c.ctx, key, e)
	}
	c.mu.Unlock()

	return e.image()
}

// State returns the current state of a key, and false if it was never
// requested.
func (c *AvatarCache) State(nodeID, url string) (AvatarState, bool) {
	c.mu.Lock()
	e, ok := c.entries[avatarKey{nodeID: nodeID, url: url}]
	c.mu.Unlock()
	if !ok {
		return AvatarPending, false
	}
	return AvatarState(e.state.Load()), true
}

// Len returns the number of cached keys.
func (c *AvatarCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Reset drops every entry and cancels loads in flight. It is called only
// when a new graph replaces the old one.
func (c *AvatarCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancel()
	c.reset()
}

// Wait blocks until every started load has finished.
func (c *AvatarCache) Wait() {
	c.wg.Wait()
}

func (c *AvatarCache) load(ctx context.Context, key avatarKey, e *avatarEntry) {
	defer c.wg.Done()
	defer metrics.Timer(metrics.AvatarLoad)()

	img, err := c.loader.Load(ctx, e.src)
	if err != nil {
		debug.Log("avatar %s failed (%v), retrying with placeholder", key.nodeID, err)
		e.src = c.placeholder
		img, err = c.loader.Load(ctx, e.src)
	}
	if err != nil {
		debug.Log("avatar %s placeholder failed: %v", key.nodeID, err)
		e.state.Store(int32(AvatarErrored))
		return
	}
	e.img = img
	e.state.Store(int32(AvatarLoaded))
}
