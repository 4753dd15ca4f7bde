//go:build ignore

// generate_testdata.go creates graph payload files for benchmarking and
// manual exploration.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//
//	tests/testdata/graphs/small.json   (40 creators, 30 brands)
//	tests/testdata/graphs/medium.json  (300 creators, 150 brands)
//	tests/testdata/graphs/large.json   (1500 creators, 500 brands)
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/influgraph/pkg/testutil"
)

type datasetSpec struct {
	name     string
	creators int
	brands   int
	links    int
}

var datasets = []datasetSpec{
	{"small", 40, 30, 120},
	{"medium", 300, 150, 1200},
	{"large", 1500, 500, 8000},
}

func main() {
	outputDir := "tests/testdata/graphs"
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, ds := range datasets {
		fmt.Printf("Generating %s dataset (%d creators, %d brands)...\n", ds.name, ds.creators, ds.brands)

		cfg := testutil.DefaultConfig()
		cfg.Seed = int64(ds.creators) // Reproducible per-size
		cfg.WithAvatars = true
		raw := testutil.New(cfg).Network(ds.creators, ds.brands, ds.links)

		data, err := json.MarshalIndent(raw, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode %s: %v\n", ds.name, err)
			os.Exit(1)
		}

		outputPath := filepath.Join(outputDir, ds.name+".json")
		if err := os.WriteFile(outputPath, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", outputPath, err)
			os.Exit(1)
		}

		fmt.Printf("  Written %s (%d bytes, %d raw links)\n", outputPath, len(data), len(raw.Links))
	}

	fmt.Println("\nDone! Graph payloads created in", outputDir)
}
