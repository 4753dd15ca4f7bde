package datasource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/influgraph/pkg/debug"
	"github.com/vanderheijden86/influgraph/pkg/model"
)

// Defaults for the HTTP data service.
const (
	DefaultGraphPath     = "/api/graph-data"
	DefaultIngestPath    = "/api/search-tiktok"
	DefaultIngestLimit   = 10
	DefaultFetchTimeout  = 30 * time.Second
	DefaultIngestTimeout = 5 * time.Minute

	maxPayloadBytes = 64 << 20
	maxErrorBytes   = 4 << 10
)

// HTTPOptions configures an HTTPService. Zero fields take defaults.
type HTTPOptions struct {
	BaseURL       string
	GraphPath     string
	IngestPath    string
	FetchTimeout  time.Duration
	IngestTimeout time.Duration
	DefaultLimit  int
	Client        *http.Client
}

func (o HTTPOptions) withDefaults() HTTPOptions {
	if o.GraphPath == "" {
		o.GraphPath = DefaultGraphPath
	}
	if o.IngestPath == "" {
		o.IngestPath = DefaultIngestPath
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = DefaultFetchTimeout
	}
	if o.IngestTimeout <= 0 {
		o.IngestTimeout = DefaultIngestTimeout
	}
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = DefaultIngestLimit
	}
	if o.Client == nil {
		o.Client = &http.Client{}
	}
	return o
}

// HTTPService is the Service backed by the graph data service's REST API.
type HTTPService struct {
	opts HTTPOptions
}

// NewHTTPService creates a client for the service at opts.BaseURL.
func NewHTTPService(opts HTTPOptions) *HTTPService {
	return &HTTPService{opts: opts.withDefaults()}
}

type ingestRequest struct {
	Keyword string `json:"keyword"`
	Limit   int    `json:"limit"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// FetchGraph performs GET {base}/api/graph-data.
func (s *HTTPService) FetchGraph(ctx context.Context) (model.RawGraph, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()

	endpoint := s.opts.BaseURL + s.opts.GraphPath
	fail := func(err error) (model.RawGraph, error) {
		return model.RawGraph{}, &IngestError{Op: "fetch graph", Source: endpoint, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fail(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.opts.Client.Do(req)
	if err != nil {
		return fail(err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return fail(err)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return fail(fmt.Errorf("reading body: %w", err))
	}
	raw, err := model.ParseRawGraph(data)
	if err != nil {
		return fail(err)
	}
	debug.Event("graph fetched", "source", endpoint, "nodes", len(raw.Nodes), "links", len(raw.Links))
	return raw, nil
}

// TriggerIngest performs POST {base}/api/search-tiktok. A limit <= 0 uses the
// configured default.
func (s *HTTPService) TriggerIngest(ctx context.Context, keyword string, limit int) error {
	endpoint := s.opts.BaseURL + s.opts.IngestPath
	fail := func(err error) error {
		return &IngestError{Op: "trigger ingest", Source: endpoint, Err: err}
	}

	kw, err := ParseKeyword(keyword)
	if err != nil {
		return fail(err)
	}
	if limit <= 0 {
		limit = s.opts.DefaultLimit
	}

	body, err := json.Marshal(ingestRequest{Keyword: kw.Text, Limit: limit})
	if err != nil {
		return fail(err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.IngestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fail(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.opts.Client.Do(req)
	if err != nil {
		return fail(err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return fail(err)
	}
	// The response body is opaque; drain it so the connection is reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxPayloadBytes))

	debug.Event("ingest triggered", "keyword", kw.Text, "mode", kw.Mode, "limit", limit)
	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
	var eb errorBody
	msg := ""
	if json.Unmarshal(data, &eb) == nil {
		msg = eb.Error
		if msg == "" {
			msg = eb.Message
		}
	}
	return &StatusError{Code: resp.StatusCode, Message: msg}
}
