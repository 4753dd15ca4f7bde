package model

import (
	"testing"
)

func TestEndpointDecodesAllShapes(t *testing.T) {
	payload := []byte(`{
		"nodes": [{"id": "a", "name": "Alice", "type": "Influencer"}, {"id": 7, "name": "Brand", "type": "Brand"}],
		"links": [
			{"source": "a", "target": 7},
			{"source": {"id": "a", "x": 1.5}, "target": {"id": 7}},
			{"source": null, "target": "a"}
		]
	}`)

	raw, err := ParseRawGraph(payload)
	if err != nil {
		t.Fatalf("ParseRawGraph: %v", err)
	}
	if got := raw.Nodes[1].ID.ID(); got != "7" {
		t.Errorf("numeric node id = %q, want %q", got, "7")
	}

	tests := []struct {
		idx    int
		source string
		target string
	}{
		{0, "a", "7"},
		{1, "a", "7"},
		{2, "", "a"},
	}
	for _, tt := range tests {
		l := raw.Links[tt.idx]
		if l.Source.ID() != tt.source || l.Target.ID() != tt.target {
			t.Errorf("link %d = (%q,%q), want (%q,%q)", tt.idx, l.Source, l.Target, tt.source, tt.target)
		}
	}
}

func TestParseRawGraphMalformed(t *testing.T) {
	if _, err := ParseRawGraph([]byte(`{"nodes": [`)); err == nil {
		t.Fatal("expected error for truncated payload")
	}
	if _, err := ParseRawGraph([]byte(`{"links": [{"source": [1]}]}`)); err == nil {
		t.Fatal("expected error for array endpoint")
	}
}

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{
		"Influencer": KindCreator,
		"creator":    KindCreator,
		" CREATOR ":  KindCreator,
		"Brand":      KindBrand,
		"Category":   KindBrand,
		"":           KindBrand,
	}
	for in, want := range tests {
		if got := ParseKind(in); got != want {
			t.Errorf("ParseKind(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNodeRadius(t *testing.T) {
	brand := Node{Kind: KindBrand}
	if brand.Radius() != brandRadius {
		t.Errorf("brand radius = %v, want %v", brand.Radius(), brandRadius)
	}

	small := Node{Kind: KindCreator, Followers: 0}
	big := Node{Kind: KindCreator, Followers: 1_000_000}
	huge := Node{Kind: KindCreator, Followers: 1 << 60}
	if small.Radius() != creatorBaseRadius {
		t.Errorf("zero-follower radius = %v, want %v", small.Radius(), creatorBaseRadius)
	}
	if big.Radius() <= small.Radius() {
		t.Errorf("radius should grow with followers: %v <= %v", big.Radius(), small.Radius())
	}
	if huge.Radius() != creatorMaxRadius {
		t.Errorf("radius should be capped at %v, got %v", creatorMaxRadius, huge.Radius())
	}
}

func TestNodeInitials(t *testing.T) {
	tests := map[string]string{
		"jane doe":      "JD",
		"@someone":      "S",
		"a b c":         "AB",
		"":              "?",
		"#ลิปทินท์ สวย": "ลส",
	}
	for name, want := range tests {
		n := Node{DisplayName: name}
		if got := n.Initials(); got != want {
			t.Errorf("Initials(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestGraphIndex(t *testing.T) {
	g := NewGraph([]Node{{ID: "a"}, {ID: "b"}}, nil)
	if g.IndexOf("b") != 1 {
		t.Errorf("IndexOf(b) = %d, want 1", g.IndexOf("b"))
	}
	if _, ok := g.NodeByID("zzz"); ok {
		t.Error("NodeByID should miss unknown ids")
	}

	var zero Graph
	zero.Nodes = []Node{{ID: "x"}}
	if zero.IndexOf("x") != 0 {
		t.Error("IndexOf should lazily index a literal graph")
	}
}

func TestLinkOther(t *testing.T) {
	l := Link{Source: "a", Target: "b"}
	if l.Other("a") != "b" || l.Other("b") != "a" || l.Other("c") != "" {
		t.Errorf("Other mismatch for %+v", l)
	}
	if !l.Touches("a") || l.Touches("c") {
		t.Error("Touches mismatch")
	}
}

func TestParseCategory(t *testing.T) {
	if got := ParseCategory("fashion"); got != CategoryFashion {
		t.Errorf("ParseCategory(fashion) = %q", got)
	}
	if got := ParseCategory("เสื้อผ้า"); got.IsKnown() {
		t.Errorf("legacy label should not be known: %q", got)
	}
	if len(Categories()) != 11 {
		t.Errorf("expected 11 categories, got %d", len(Categories()))
	}
}
