// Package config handles loading and saving influgraph configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/influgraph/config.yaml
//   - Data:    ~/.local/share/influgraph/ (exported snapshots)
//   - State:   ~/.local/state/influgraph/ (graph snapshot cache)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/influgraph/internal/datasource"
	"github.com/vanderheijden86/influgraph/pkg/paint"
	"github.com/vanderheijden86/influgraph/pkg/physics"
)

const appName = "influgraph"

// DefaultBaseURL is where the graph data service listens in development.
const DefaultBaseURL = "http://localhost:5000"

// ServiceConfig points at the graph data service.
type ServiceConfig struct {
	BaseURL       string        `yaml:"base_url,omitempty"`
	GraphPath     string        `yaml:"graph_path,omitempty"`
	IngestPath    string        `yaml:"ingest_path,omitempty"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout,omitempty"`
	IngestTimeout time.Duration `yaml:"ingest_timeout,omitempty"`
	IngestLimit   int           `yaml:"ingest_limit,omitempty"` // Videos per ingest request
}

// SourceConfig optionally replaces the service with a JSON payload file.
type SourceConfig struct {
	File  string `yaml:"file,omitempty"`
	Watch bool   `yaml:"watch,omitempty"` // Reload when the file changes
}

// CacheConfig controls the last-good graph snapshot cache.
type CacheConfig struct {
	Path     string `yaml:"path,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// PaintConfig overrides the default paint style.
type PaintConfig struct {
	MinLinkWidth   float64       `yaml:"min_link_width,omitempty"`
	MaxLinkWidth   float64       `yaml:"max_link_width,omitempty"`
	ScoreCap       float64       `yaml:"score_cap,omitempty"`
	LabelScale     float64       `yaml:"label_scale,omitempty"` // Zoom above which brand labels show
	PlaceholderURL string        `yaml:"placeholder_url,omitempty"`
	AvatarRate     float64       `yaml:"avatar_rate,omitempty"` // Avatar requests per second, 0 = unlimited
	AvatarBurst    int           `yaml:"avatar_burst,omitempty"`
	AvatarTimeout  time.Duration `yaml:"avatar_timeout,omitempty"`
}

// UIConfig holds UI preference settings.
type UIConfig struct {
	Fullscreen bool  `yaml:"fullscreen,omitempty"` // Start in fullscreen mode
	Mouse      *bool `yaml:"mouse,omitempty"`      // Mouse hover/click support (default on)
}

// MouseEnabled reports whether mouse support is on.
func (u UIConfig) MouseEnabled() bool {
	return u.Mouse == nil || *u.Mouse
}

// Config is the top-level configuration for influgraph.
type Config struct {
	Service ServiceConfig  `yaml:"service,omitempty"`
	Source  SourceConfig   `yaml:"source,omitempty"`
	Cache   CacheConfig    `yaml:"cache,omitempty"`
	Physics physics.Tuning `yaml:"physics,omitempty"`
	Paint   PaintConfig    `yaml:"paint,omitempty"`
	UI      UIConfig       `yaml:"ui,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	style := paint.DefaultStyle()
	return Config{
		Service: ServiceConfig{
			BaseURL:       DefaultBaseURL,
			GraphPath:     datasource.DefaultGraphPath,
			IngestPath:    datasource.DefaultIngestPath,
			FetchTimeout:  datasource.DefaultFetchTimeout,
			IngestTimeout: datasource.DefaultIngestTimeout,
			IngestLimit:   datasource.DefaultIngestLimit,
		},
		Physics: physics.DefaultTuning(),
		Paint: PaintConfig{
			MinLinkWidth:   style.MinWidth,
			MaxLinkWidth:   style.MaxWidth,
			ScoreCap:       style.ScoreCap,
			LabelScale:     style.LabelScale,
			PlaceholderURL: paint.DefaultPlaceholderURL,
			AvatarRate:     8,
			AvatarBurst:    4,
			AvatarTimeout:  10 * time.Second,
		},
	}
}

// ConfigDir returns the XDG config directory for influgraph.
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DataDir returns the XDG data directory for influgraph.
func DataDir() string {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// StateDir returns the XDG state directory for influgraph.
func StateDir() string {
	return xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, fallback, appName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Source.File = expandHome(cfg.Source.File)
	cfg.Cache.Path = expandHome(cfg.Cache.Path)
	cfg.Service.BaseURL = strings.TrimRight(cfg.Service.BaseURL, "/")

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SourceLocation returns the data source the explorer should read: the
// configured file when set, otherwise the service base URL.
func (c Config) SourceLocation() string {
	if c.Source.File != "" {
		return c.Source.File
	}
	return c.Service.BaseURL
}

// CachePath returns the snapshot cache path, or "" when caching is off.
func (c Config) CachePath() string {
	if c.Cache.Disabled {
		return ""
	}
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	dir := StateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "snapshots.db")
}

// HTTPOptions converts the service section for the HTTP data source.
func (c Config) HTTPOptions() datasource.HTTPOptions {
	return datasource.HTTPOptions{
		BaseURL:       c.Service.BaseURL,
		GraphPath:     c.Service.GraphPath,
		IngestPath:    c.Service.IngestPath,
		FetchTimeout:  c.Service.FetchTimeout,
		IngestTimeout: c.Service.IngestTimeout,
		DefaultLimit:  c.Service.IngestLimit,
	}
}

// Style returns the default paint style with the configured overrides.
func (c Config) Style() paint.Style {
	s := paint.DefaultStyle()
	if c.Paint.MinLinkWidth > 0 {
		s.MinWidth = c.Paint.MinLinkWidth
	}
	if c.Paint.MaxLinkWidth > 0 {
		s.MaxWidth = c.Paint.MaxLinkWidth
	}
	if s.MaxWidth < s.MinWidth {
		s.MaxWidth = s.MinWidth
	}
	if c.Paint.ScoreCap > 0 {
		s.ScoreCap = c.Paint.ScoreCap
	}
	if c.Paint.LabelScale > 0 {
		s.LabelScale = c.Paint.LabelScale
	}
	return s
}

// Placeholder returns the fallback avatar URL.
func (c Config) Placeholder() string {
	if c.Paint.PlaceholderURL != "" {
		return c.Paint.PlaceholderURL
	}
	return paint.DefaultPlaceholderURL
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
