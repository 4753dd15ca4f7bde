package paint

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	_ "golang.org/x/image/webp"
	"golang.org/x/time/rate"
)

// maxAvatarBytes bounds a single avatar download.
const maxAvatarBytes = 4 << 20

// HTTPImageLoader downloads and decodes avatar images (PNG, JPEG, GIF, WebP)
// with a request rate limit shared by all loads.
type HTTPImageLoader struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPImageLoader returns a loader allowing perSecond requests with the
// given burst. perSecond <= 0 disables throttling.
func NewHTTPImageLoader(perSecond float64, burst int, timeout time.Duration) *HTTPImageLoader {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst < 1 {
		burst = 1
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPImageLoader{
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Load fetches url and decodes the body as an image.
func (l *HTTPImageLoader) Load(ctx context.Context, url string) (image.Image, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for avatar slot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building avatar request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching avatar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching avatar: unexpected status %s", resp.Status)
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxAvatarBytes))
	if err != nil {
		return nil, fmt.Errorf("decoding avatar: %w", err)
	}
	return img, nil
}
