package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/influgraph/pkg/model"
)

// AssertNodeCount verifies the expected number of nodes.
func AssertNodeCount(t *testing.T, g model.Graph, expected int) {
	t.Helper()
	if len(g.Nodes) != expected {
		t.Errorf("expected %d nodes, got %d", expected, len(g.Nodes))
	}
}

// AssertNoDuplicatePairs verifies every ordered pair has at most one
// non-phantom link.
func AssertNoDuplicatePairs(t *testing.T, g model.Graph) {
	t.Helper()
	seen := make(map[model.LinkKey]bool)
	for _, l := range g.Links {
		if l.Phantom {
			continue
		}
		if seen[l.Key()] {
			t.Errorf("duplicate link %s", l.Key())
		}
		seen[l.Key()] = true
	}
}

// AssertIDSet compares a set of ids against the expected ids, ignoring order.
func AssertIDSet(t *testing.T, got map[string]bool, want ...string) {
	t.Helper()
	gotIDs := SortedKeys(got)
	sort.Strings(want)
	if len(gotIDs) != len(want) {
		t.Errorf("id set = %v, want %v", gotIDs, want)
		return
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Errorf("id set = %v, want %v", gotIDs, want)
			return
		}
	}
}

// SortedKeys returns the true keys of a set in sorted order.
func SortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k, ok := range set {
		if ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// AssertJSONEqual compares two values after JSON round-tripping.
func AssertJSONEqual(t *testing.T, expected, actual any) {
	t.Helper()

	expectedJSON, err := json.Marshal(expected)
	if err != nil {
		t.Fatalf("failed to marshal expected: %v", err)
	}

	actualJSON, err := json.Marshal(actual)
	if err != nil {
		t.Fatalf("failed to marshal actual: %v", err)
	}

	if string(expectedJSON) != string(actualJSON) {
		t.Errorf("JSON mismatch:\nexpected: %s\nactual:   %s", expectedJSON, actualJSON)
	}
}

// WriteGraphFile writes a raw graph payload to dir/name and returns the path.
func WriteGraphFile(t *testing.T, dir, name string, raw model.RawGraph) string {
	t.Helper()

	data, err := json.Marshal(raw)
	if err != nil {
		t.Fatalf("failed to marshal graph: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write graph file: %v", err)
	}
	return path
}
