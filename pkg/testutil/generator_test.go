package testutil

import (
	"testing"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/influgraph/pkg/model"
)

func TestNetworkShape(t *testing.T) {
	tests := []struct {
		name                    string
		creators, brands, links int
		wantNodes, wantLinks    int
	}{
		{"empty", 0, 0, 10, 0, 0},
		{"no_brands", 3, 0, 10, 3, 0},
		{"small", 3, 4, 10, 7, 10},
		{"medium", 20, 40, 200, 60, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := NewDefault().Network(tt.creators, tt.brands, tt.links)
			if len(raw.Nodes) != tt.wantNodes {
				t.Errorf("nodes = %d, want %d", len(raw.Nodes), tt.wantNodes)
			}
			if len(raw.Links) != tt.wantLinks {
				t.Errorf("links = %d, want %d", len(raw.Links), tt.wantLinks)
			}
		})
	}
}

func TestNetworkDeterministic(t *testing.T) {
	a, _ := json.Marshal(NewDefault().Network(10, 10, 50))
	b, _ := json.Marshal(NewDefault().Network(10, 10, 50))
	if string(a) != string(b) {
		t.Error("same seed should produce identical fixtures")
	}
}

func TestNetworkLinksPointCreatorToBrand(t *testing.T) {
	raw := New(GeneratorConfig{Seed: 7, WithAvatars: true}).Network(5, 5, 30)

	kinds := make(map[string]model.Kind)
	for _, n := range raw.Nodes {
		kinds[n.ID.ID()] = model.ParseKind(n.Type)
		if kinds[n.ID.ID()] == model.KindCreator && n.AvatarURL == "" {
			t.Errorf("creator %s missing avatar", n.ID)
		}
	}
	for _, l := range raw.Links {
		if kinds[l.Source.ID()] != model.KindCreator || kinds[l.Target.ID()] != model.KindBrand {
			t.Errorf("link %s->%s should go creator->brand", l.Source, l.Target)
		}
	}
}

func TestSampleHasDanglingLink(t *testing.T) {
	raw := Sample()
	ids := make(map[string]bool)
	for _, n := range raw.Nodes {
		ids[n.ID.ID()] = true
	}
	dangling := 0
	for _, l := range raw.Links {
		if !ids[l.Target.ID()] {
			dangling++
		}
	}
	if dangling != 1 {
		t.Errorf("sample should carry exactly one dangling link, got %d", dangling)
	}
}
