package datasource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/influgraph/pkg/debug"
	"github.com/vanderheijden86/influgraph/pkg/model"
)

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	source     TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	nodes      INTEGER NOT NULL,
	links      INTEGER NOT NULL,
	fetched_at INTEGER NOT NULL
)`

// SnapshotCache stores the last successfully fetched raw graph per source in
// a SQLite database.
type SnapshotCache struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// OpenSnapshotCache opens (creating if needed) the cache database at path.
func OpenSnapshotCache(path string) (*SnapshotCache, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cannot open snapshot cache: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			debug.Log("snapshot cache: %s failed: %v", pragma, err)
		}
	}
	if _, err := db.Exec(snapshotSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create snapshot schema: %w", err)
	}
	return &SnapshotCache{db: db, path: path, now: time.Now}, nil
}

// Close closes the database connection.
func (c *SnapshotCache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Save replaces the snapshot stored for source.
func (c *SnapshotCache) Save(ctx context.Context, source string, raw model.RawGraph) error {
	payload, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO snapshots (source, payload, nodes, links, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(source) DO UPDATE SET
			payload = excluded.payload,
			nodes = excluded.nodes,
			links = excluded.links,
			fetched_at = excluded.fetched_at`,
		source, payload, len(raw.Nodes), len(raw.Links), c.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load returns the snapshot for source and when it was fetched.
func (c *SnapshotCache) Load(ctx context.Context, source string) (model.RawGraph, time.Time, error) {
	var payload []byte
	var fetchedAt int64
	err := c.db.QueryRowContext(ctx,
		`SELECT payload, fetched_at FROM snapshots WHERE source = ?`, source,
	).Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RawGraph{}, time.Time{}, ErrNoSnapshot
	}
	if err != nil {
		return model.RawGraph{}, time.Time{}, fmt.Errorf("load snapshot: %w", err)
	}
	raw, err := model.ParseRawGraph(payload)
	if err != nil {
		return model.RawGraph{}, time.Time{}, err
	}
	return raw, time.UnixMilli(fetchedAt), nil
}

// CachedService wraps a Service, saving every successful fetch and serving
// the last snapshot when a fetch fails.
type CachedService struct {
	inner  Service
	cache  *SnapshotCache
	source string
}

// NewCachedService caches fetches from inner under the key source.
func NewCachedService(inner Service, cache *SnapshotCache, source string) *CachedService {
	return &CachedService{inner: inner, cache: cache, source: source}
}

func (s *CachedService) FetchGraph(ctx context.Context) (model.RawGraph, error) {
	raw, err := s.inner.FetchGraph(ctx)
	if err == nil {
		if serr := s.cache.Save(ctx, s.source, raw); serr != nil {
			debug.Warn("snapshot cache save failed", "source", s.source, "err", serr)
		}
		return raw, nil
	}

	cached, at, cerr := s.cache.Load(ctx, s.source)
	if cerr != nil {
		return model.RawGraph{}, err
	}
	debug.Warn("serving cached snapshot", "source", s.source, "fetched_at", at.Format(time.RFC3339), "err", err)
	return cached, nil
}

func (s *CachedService) TriggerIngest(ctx context.Context, keyword string, limit int) error {
	return s.inner.TriggerIngest(ctx, keyword, limit)
}
