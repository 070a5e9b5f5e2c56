package render

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/macroplace/pkg/adjacency"
	"github.com/matzehuels/macroplace/pkg/geom"
	"github.com/matzehuels/macroplace/pkg/macro"
	"github.com/matzehuels/macroplace/pkg/partition"
	"github.com/matzehuels/macroplace/pkg/placer"
)

func sampleResult() *placer.Result {
	return &placer.Result{
		Design: "two",
		Fence:  geom.Rect{UX: 100, UY: 50},
		Macros: []macro.Macro{
			{Name: "A", LX: 10, LY: 10, W: 20, H: 10, HaloX: 2, HaloY: 2},
			{Name: "B", LX: 60, LY: 20, W: 10, H: 10, Clamped: true},
		},
		Pairs:       []placer.PairWeight{{A: "A", B: "B", Weight: 3}},
		EdgeWeights: []placer.EdgeWeight{{Macro: "B", Edge: adjacency.East, Weight: 1}},
		Tree: &partition.Tree{Nodes: []partition.Node{
			{Kind: partition.Internal, Region: geom.Rect{UX: 100, UY: 50}, Macros: []int{0, 1}, Left: 1, Right: 2, Axis: geom.Vertical, Cut: 50},
			{Kind: partition.Leaf, Region: geom.Rect{UX: 50, UY: 50}, Macros: []int{0}, Left: -1, Right: -1, Depth: 1},
			{Kind: partition.Leaf, Region: geom.Rect{LX: 50, UX: 100, UY: 50}, Macros: []int{1}, Left: -1, Right: -1, Depth: 1},
		}},
	}
}

func TestFloorplanDOT(t *testing.T) {
	dot := FloorplanDOT(sampleResult(), Options{Size: 200, Halos: true, Regions: true})

	for _, want := range []string{
		`graph "two"`,
		// Fence centre (50,25) at 2 points per unit.
		`"__fence" [pos="100.00,50.00!", width=2.7778, height=1.3889`,
		// A is 20x10 at (10,10): centre (20,15).
		`"A" [pos="40.00,30.00!", width=0.5556, height=0.2778`,
		`"__halo_A"`,
		`"__region1"`,
		fillClamped,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("FloorplanDOT() missing %q\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "__halo_B") {
		t.Error("halo drawn for a macro without halo")
	}
}

func TestAdjacencyDOT(t *testing.T) {
	dot := AdjacencyDOT(sampleResult(), Options{Size: 100})

	for _, want := range []string{
		`"A" -- "B" [label="3", penwidth=5.00]`,
		`"B" -- "edge:east" [label="1"`,
		`"edge:west" [shape=plaintext, fillcolor=none, pos="0.00,25.00!"]`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("AdjacencyDOT() missing %q\n%s", want, dot)
		}
	}
}

func TestTreeDOT(t *testing.T) {
	dot := TreeDOT(sampleResult())
	for _, want := range []string{`n0 [label="x = 50.00"]`, "n0 -> n1", "n0 -> n2", `n2 [label="B"]`} {
		if !strings.Contains(dot, want) {
			t.Errorf("TreeDOT() missing %q\n%s", want, dot)
		}
	}

	empty := TreeDOT(&placer.Result{})
	if !strings.HasPrefix(empty, "digraph T") || strings.Contains(empty, "n0") {
		t.Errorf("TreeDOT(no tree) = %q", empty)
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), FloorplanDOT(sampleResult(), Options{}), Neato)
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") || !strings.Contains(string(svg), "viewBox=\"0 0") {
		t.Errorf("RenderSVG() output not a normalized svg: %.200s", svg)
	}
}

func TestRenderFormats(t *testing.T) {
	dot := TreeDOT(sampleResult())
	data, err := Render(context.Background(), dot, Dot, FormatDOT)
	if err != nil || string(data) != dot {
		t.Errorf("Render(dot) = %q, %v", data, err)
	}
	if _, err := Render(context.Background(), dot, Dot, "pdf"); err == nil {
		t.Error("Render(pdf) should fail")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="x"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 100.00 50.00" width="100" height="50"`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}
	if got := normalizeViewBox([]byte("<svg>")); string(got) != "<svg>" {
		t.Errorf("no viewBox changed: %s", got)
	}
}
