package render

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/macroplace/pkg/adjacency"
	"github.com/matzehuels/macroplace/pkg/geom"
	"github.com/matzehuels/macroplace/pkg/partition"
	"github.com/matzehuels/macroplace/pkg/placer"
)

// Options configures DOT generation.
type Options struct {
	// Size is the length in points of the fence's longer side.
	Size float64
	// Regions draws the leaf regions of the slicing tree.
	Regions bool
	// Halos draws each macro's halo outline.
	Halos bool
}

// DefaultSize is the default drawing size in points.
const DefaultSize = 720.0

const (
	fillPlaced  = "#a7c7e7"
	fillClamped = "#f4a3a3"
)

// FloorplanDOT draws the fence and every placed macro of res at its final
// coordinates. All nodes carry pinned positions, so the drawing must be
// rendered with the neato engine (see [RenderSVG]).
func FloorplanDOT(res *placer.Result, opts Options) string {
	s := newScaler(res.Fence, opts.Size)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "graph %q {\n", res.Design)
	buf.WriteString("  bgcolor=\"white\";\n")
	buf.WriteString("  splines=false;\n")
	buf.WriteString("  notranslate=true;\n")
	buf.WriteString("  node [shape=box, fixedsize=true, fontsize=10, margin=0];\n")
	buf.WriteString("\n")

	s.box(&buf, "__fence", res.Fence, `label="", style=bold, color=black`)
	if opts.Regions && res.Tree != nil {
		for _, l := range res.Tree.Leaves() {
			n := &res.Tree.Nodes[l]
			s.box(&buf, fmt.Sprintf("__region%d", l), n.Region, `label="", style=dotted, color=grey50`)
		}
	}
	if opts.Halos {
		for i := range res.Macros {
			m := &res.Macros[i]
			if m.HaloX == 0 && m.HaloY == 0 {
				continue
			}
			s.box(&buf, "__halo_"+m.Name, m.HaloRect(), `label="", style=dashed, color=grey40`)
		}
	}
	for i := range res.Macros {
		m := &res.Macros[i]
		fill := fillPlaced
		if m.Clamped {
			fill = fillClamped
		}
		s.box(&buf, m.Name, m.Rect(), fmt.Sprintf(`label=%q, style=filled, fillcolor=%q`, m.Name, fill))
	}
	buf.WriteString("}\n")
	return buf.String()
}

// AdjacencyDOT draws the connection weights of res: one node per macro at
// its placed centre, one per boundary edge at the edge midpoint, and a line
// per weighted pair whose width grows with the weight.
func AdjacencyDOT(res *placer.Result, opts Options) string {
	s := newScaler(res.Fence, opts.Size)

	maxW := 1
	for _, p := range res.Pairs {
		maxW = max(maxW, p.Weight)
	}
	for _, e := range res.EdgeWeights {
		maxW = max(maxW, e.Weight)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "graph %q {\n", res.Design)
	buf.WriteString("  bgcolor=\"white\";\n")
	buf.WriteString("  notranslate=true;\n")
	buf.WriteString("  node [shape=ellipse, style=filled, fillcolor=white, fontsize=10];\n")
	buf.WriteString("  edge [color=\"#4a6fa5\", fontsize=9];\n")
	buf.WriteString("\n")

	for i := range res.Macros {
		m := &res.Macros[i]
		fmt.Fprintf(&buf, "  %q [pos=%q];\n", m.Name, s.pos(m.Center()))
	}
	c := res.Fence.Center()
	for _, e := range adjacency.Edges() {
		p := e.Anchor(res.Fence, c)
		fmt.Fprintf(&buf, "  %q [shape=plaintext, fillcolor=none, pos=%q];\n", edgeNode(e), s.pos(p))
	}

	buf.WriteString("\n")
	for _, p := range res.Pairs {
		fmt.Fprintf(&buf, "  %q -- %q [label=\"%d\", penwidth=%.2f];\n", p.A, p.B, p.Weight, penwidth(p.Weight, maxW))
	}
	for _, e := range res.EdgeWeights {
		fmt.Fprintf(&buf, "  %q -- %q [label=\"%d\", penwidth=%.2f, style=dashed];\n",
			e.Macro, edgeNode(e.Edge), e.Weight, penwidth(e.Weight, maxW))
	}
	buf.WriteString("}\n")
	return buf.String()
}

// TreeDOT draws the slicing tree as a top-down hierarchy, one node per
// region labelled with its cut or its macros.
func TreeDOT(res *placer.Result) string {
	var buf bytes.Buffer
	buf.WriteString("digraph T {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=10];\n")
	if res.Tree == nil {
		buf.WriteString("}\n")
		return buf.String()
	}
	res.Tree.Walk(func(i int, n *partition.Node) bool {
		fmt.Fprintf(&buf, "  n%d [label=%q];\n", i, treeLabel(res, n))
		if !n.IsLeaf() {
			fmt.Fprintf(&buf, "  n%d -> n%d;\n  n%d -> n%d;\n", i, n.Left, i, n.Right)
		}
		return true
	})
	buf.WriteString("}\n")
	return buf.String()
}

func treeLabel(res *placer.Result, n *partition.Node) string {
	if !n.IsLeaf() {
		axis := "x"
		if n.Axis == geom.Horizontal {
			axis = "y"
		}
		return fmt.Sprintf("%s = %.2f", axis, n.Cut)
	}
	names := make([]string, 0, len(n.Macros))
	for _, m := range n.Macros {
		if m < len(res.Macros) {
			names = append(names, res.Macros[m].Name)
		}
	}
	if len(names) == 0 {
		return "(empty)"
	}
	return strings.Join(names, "\n")
}

func edgeNode(e adjacency.Edge) string { return "edge:" + e.String() }

func penwidth(w, maxW int) float64 {
	return 1 + 4*float64(w)/float64(maxW)
}

// scaler maps design units to points with the origin at the fence corner.
type scaler struct {
	origin geom.Point
	k      float64
}

func newScaler(fence geom.Rect, size float64) scaler {
	if size <= 0 {
		size = DefaultSize
	}
	k := size / math.Max(math.Max(fence.Width(), fence.Height()), geom.Eps)
	return scaler{origin: geom.Point{X: fence.LX, Y: fence.LY}, k: k}
}

func (s scaler) pos(p geom.Point) string {
	return fmt.Sprintf("%.2f,%.2f!", (p.X-s.origin.X)*s.k, (p.Y-s.origin.Y)*s.k)
}

// box writes a fixed-size box node covering r. Node sizes are in inches.
func (s scaler) box(buf *bytes.Buffer, name string, r geom.Rect, attrs string) {
	fmt.Fprintf(buf, "  %q [pos=%q, width=%.4f, height=%.4f, %s];\n",
		name, s.pos(r.Center()), r.Width()*s.k/72, r.Height()*s.k/72, attrs)
}
