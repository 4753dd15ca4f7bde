// Package datasource talks to the graph data service: it fetches the raw
// creator/brand graph and triggers ingest runs. An HTTP client and a
// file-backed source are provided, plus a SQLite snapshot cache used when the
// service is unreachable.
package datasource

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/vanderheijden86/influgraph/pkg/model"
)

// Service is the graph data service as seen by the explorer.
type Service interface {
	// FetchGraph returns the current raw graph.
	FetchGraph(ctx context.Context) (model.RawGraph, error)
	// TriggerIngest asks the service to scrape and classify content for
	// keyword. The caller re-fetches the graph afterwards.
	TriggerIngest(ctx context.Context, keyword string, limit int) error
}

// SourceType identifies the kind of data source.
type SourceType string

const (
	// SourceTypeHTTP is a running graph data service.
	SourceTypeHTTP SourceType = "http"
	// SourceTypeFile is a JSON graph payload on disk.
	SourceTypeFile SourceType = "file"
)

// DataSource describes where graph data comes from.
type DataSource struct {
	Type     SourceType `json:"type"`
	Location string     `json:"location"`
}

// String returns a human-readable description of the source.
func (s DataSource) String() string {
	return fmt.Sprintf("%s (%s)", s.Location, s.Type)
}

// ParseSource classifies loc: http and https URLs are services, anything
// else is a file path.
func ParseSource(loc string) (DataSource, error) {
	loc = strings.TrimSpace(loc)
	if loc == "" {
		return DataSource{}, fmt.Errorf("empty data source")
	}
	if u, err := url.Parse(loc); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		if u.Host == "" {
			return DataSource{}, fmt.Errorf("data source %q has no host", loc)
		}
		return DataSource{Type: SourceTypeHTTP, Location: strings.TrimRight(loc, "/")}, nil
	}
	return DataSource{Type: SourceTypeFile, Location: loc}, nil
}

// Open returns the Service for a source.
func Open(src DataSource, opts HTTPOptions) (Service, error) {
	switch src.Type {
	case SourceTypeHTTP:
		opts.BaseURL = src.Location
		return NewHTTPService(opts), nil
	case SourceTypeFile:
		return NewFileService(src.Location), nil
	default:
		return nil, fmt.Errorf("unknown source type: %s", src.Type)
	}
}
