package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/vanderheijden86/influgraph/internal/datasource"
	"github.com/vanderheijden86/influgraph/pkg/config"
	"github.com/vanderheijden86/influgraph/pkg/explorer"
)

const sampleJSON = `{
  "nodes": [
    {"id": "alice", "name": "Alice", "type": "creator", "followers": 1200},
    {"id": "nike", "name": "Nike", "type": "brand", "category": "Fashion"},
    {"id": "pedigree", "name": "Pedigree", "type": "brand", "category": "Pet"}
  ],
  "links": [
    {"source": "alice", "target": "nike", "weight": 2},
    {"source": "alice", "target": "pedigree", "weight": 1}
  ]
}`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.json")
	if err := os.WriteFile(path, []byte(sampleJSON), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	return path
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a.png", []string{"a.png"}},
		{" a.png , b.svg ,, ", []string{"a.png", "b.svg"}},
	}
	for _, tt := range tests {
		if got := splitList(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"25", 25, false},
		{" 5 ", 5, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"many", 0, true},
	}
	for _, tt := range tests {
		got, err := parseLimit(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseLimit(%q) = %d, %v", tt.in, got, err)
		}
	}
}

func TestLoadConfigExplicitPath(t *testing.T) {
	dir := t.TempDir()

	cfg, err := loadConfig(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if cfg.Service.BaseURL != config.DefaultBaseURL {
		t.Errorf("BaseURL = %q, want default", cfg.Service.BaseURL)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("service: [oops"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(bad); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := config.DefaultConfig()
	cfg.Source.File = "/tmp/graph.json"
	cfg.Service.IngestLimit = 42

	if err := saveConfig(path, cfg); err != nil {
		t.Fatalf("saveConfig: %v", err)
	}
	got, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if got.Source.File != "/tmp/graph.json" || got.Service.IngestLimit != 42 {
		t.Errorf("round trip = %+v", got)
	}
}

func TestOpenServiceFileSkipsCache(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Source.File = writeSample(t)
	cfg.Cache.Path = filepath.Join(t.TempDir(), "cache.db")

	svc, closeSvc, err := openService(cfg)
	if err != nil {
		t.Fatalf("openService: %v", err)
	}
	defer closeSvc()
	if _, ok := svc.(*datasource.FileService); !ok {
		t.Errorf("service = %T, want *datasource.FileService", svc)
	}
}

func TestOpenServiceHTTPUsesCache(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Service.BaseURL = "http://127.0.0.1:1"
	cfg.Cache.Path = filepath.Join(t.TempDir(), "cache.db")

	svc, closeSvc, err := openService(cfg)
	if err != nil {
		t.Fatalf("openService: %v", err)
	}
	defer closeSvc()
	if _, ok := svc.(*datasource.CachedService); !ok {
		t.Errorf("service = %T, want *datasource.CachedService", svc)
	}

	cfg.Cache.Disabled = true
	plain, closePlain, err := openService(cfg)
	if err != nil {
		t.Fatalf("openService without cache: %v", err)
	}
	defer closePlain()
	if _, ok := plain.(*datasource.HTTPService); !ok {
		t.Errorf("service = %T, want *datasource.HTTPService", plain)
	}
}

func TestInitialLoadFromFile(t *testing.T) {
	s := explorer.New(datasource.NewFileService(writeSample(t)), explorer.Options{})
	defer s.Close()

	if err := initialLoad(context.Background(), s, "", 10); err != nil {
		t.Fatalf("initialLoad: %v", err)
	}
	if got := len(s.Graph().Nodes); got != 3 {
		t.Errorf("nodes = %d, want 3", got)
	}
}

func TestInitialLoadIngestUnsupportedForFiles(t *testing.T) {
	s := explorer.New(datasource.NewFileService(writeSample(t)), explorer.Options{})
	defer s.Close()

	err := initialLoad(context.Background(), s, "#shoes", 10)
	if !errors.Is(err, datasource.ErrIngestUnsupported) {
		t.Fatalf("err = %v, want ErrIngestUnsupported", err)
	}
	if len(s.Graph().Nodes) != 0 {
		t.Error("failed ingest installed a graph")
	}
}

func TestRunHeadlessSnapshot(t *testing.T) {
	path := writeSample(t)
	s := explorer.New(datasource.NewFileService(path), explorer.Options{})
	defer s.Close()
	if err := initialLoad(context.Background(), s, "", 10); err != nil {
		t.Fatalf("initialLoad: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Source.File = path
	cfg.Paint.AvatarTimeout = 0

	out := filepath.Join(t.TempDir(), "graph.svg")
	code := runHeadless(context.Background(), s, cfg, headlessOptions{
		snapshots: []string{out},
		width:     400,
		height:    300,
	})
	if code != 0 {
		t.Fatalf("runHeadless exit = %d", code)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if !strings.Contains(string(data), `width="400"`) {
		t.Errorf("snapshot ignores width:\n%s", data)
	}
}

func TestRunHeadlessSnapshotError(t *testing.T) {
	s := explorer.New(datasource.NewFileService(writeSample(t)), explorer.Options{})
	defer s.Close()

	code := runHeadless(context.Background(), s, config.DefaultConfig(), headlessOptions{
		snapshots: []string{filepath.Join(t.TempDir(), "empty.png")},
	})
	if code != 1 {
		t.Errorf("exit = %d, want 1 for an empty graph", code)
	}
}
