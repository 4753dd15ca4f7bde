package main_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

var igBinaryPath string
var igBinaryDir string

func TestMain(m *testing.M) {
	// Build the binary once for all tests
	if err := buildIgOnce(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build ig binary: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	if igBinaryDir != "" {
		_ = os.RemoveAll(igBinaryDir)
	}
	os.Exit(code)
}

func buildIgOnce() error {
	tempDir, err := os.MkdirTemp("", "ig-e2e-build-*")
	if err != nil {
		return err
	}
	igBinaryDir = tempDir

	binName := "ig"
	if runtime.GOOS == "windows" {
		binName += ".exe"
	}
	binPath := filepath.Join(tempDir, binName)

	cmd := exec.Command("go", "build", "-o", binPath, "../../cmd/ig")
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("go build failed: %v\n%s", err, out)
	}

	igBinaryPath = binPath
	return nil
}

// buildIgBinary returns the path to the pre-built binary.
func buildIgBinary(t *testing.T) string {
	t.Helper()
	if igBinaryPath == "" {
		t.Fatal("ig binary not built")
	}
	return igBinaryPath
}

const sampleGraph = `{
  "nodes": [
    {"id": "alice", "name": "Alice", "type": "influencer", "followers": 120000},
    {"id": "bob", "name": "Bob", "type": "influencer", "followers": 900},
    {"id": "nike", "name": "Nike", "type": "brand", "category": "Fashion"},
    {"id": "zara", "name": "Zara", "type": "brand", "category": "Fashion"},
    {"id": "pedigree", "name": "Pedigree", "type": "brand", "category": "Pet"}
  ],
  "links": [
    {"source": "alice", "target": "nike", "weight": 3},
    {"source": "alice", "target": {"id": "pedigree"}, "weight": 2},
    {"source": "bob", "target": "zara", "weight": 4},
    {"source": "bob", "target": "ghost", "weight": 1}
  ]
}`

// writeGraph writes a graph payload file into dir and returns its path.
func writeGraph(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "graph.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write graph: %v", err)
	}
	return path
}

// igCommand runs ig isolated from the user's config and cache.
func igCommand(ctx context.Context, t *testing.T, bin, dir string, args ...string) *exec.Cmd {
	t.Helper()
	args = append([]string{"--config", filepath.Join(dir, "config.yaml"), "--no-cache"}, args...)
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"XDG_CONFIG_HOME="+filepath.Join(dir, "config"),
		"XDG_STATE_HOME="+filepath.Join(dir, "state"),
		"XDG_DATA_HOME="+filepath.Join(dir, "data"),
	)
	return cmd
}

// runRobotJSON runs ig with args and decodes stdout into v.
func runRobotJSON(t *testing.T, bin, dir string, v any, args ...string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := igCommand(ctx, t, bin, dir, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("ig %v failed: %v\n%s", args, err, stderr.String())
	}
	if err := json.Unmarshal(out, v); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
}
