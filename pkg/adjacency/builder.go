package adjacency

import (
	"github.com/matzehuels/macroplace/pkg/errors"
	"github.com/matzehuels/macroplace/pkg/netlist"
)

// EdgePinCounts is the number of boundary ports mapped to each edge.
type EdgePinCounts [NumEdges]int

// BuildWeights turns fanin sets into connection weights.
//
// Every input pin of macro M adds one unit to weight(F, M) for each other
// macro F in its fanin set, and one unit to edgeWeight(M, e) for each
// boundary edge e in it. Every primary output port adds one unit to
// edgeWeight(F, e) for each macro F in its fanin set, where e is the
// port's nearest edge.
func BuildWeights(f *Fanins) (*Weights, EdgePinCounts) {
	g := f.Graph()
	d := g.Design()
	w := NewWeights(f.NumMacros())

	for i := range d.Instances {
		m := f.MacroOf(i)
		if m < 0 {
			continue
		}
		for _, v := range g.InstancePins(i) {
			if g.Vertex(v).Dir != netlist.Input {
				continue
			}
			for _, s := range f.Of(v) {
				if src, ok := f.Macro(s); ok {
					w.AddPair(src, m, 1)
				} else if e, ok := f.Edge(s); ok {
					w.AddEdge(m, e, 1)
				}
			}
		}
	}

	var counts EdgePinCounts
	for i := range d.Ports {
		e := f.PortEdge(i)
		counts[e]++
		if d.Ports[i].Dir != netlist.Output {
			continue
		}
		for _, s := range f.Of(g.PortVertex(i)) {
			if src, ok := f.Macro(s); ok {
				w.AddEdge(src, e, 1)
			}
		}
	}
	return w, counts
}

// Analysis bundles the fanin sets and weights of one design.
type Analysis struct {
	Fanins        *Fanins
	Weights       *Weights
	EdgePinCounts EdgePinCounts
	Warnings      []errors.Warning
}

// Analyze runs [Propagate] and [BuildWeights].
func Analyze(g *netlist.Graph, macroInst []int, opts Options) (*Analysis, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	f, warnings, err := Propagate(g, macroInst, opts)
	if err != nil {
		return nil, err
	}
	w, counts := BuildWeights(f)
	opts.Logger.Debug("built adjacency weights",
		"pairs", len(w.Pairs()),
		"total", w.Total(),
		"west", counts[West], "east", counts[East],
		"north", counts[North], "south", counts[South])
	return &Analysis{Fanins: f, Weights: w, EdgePinCounts: counts, Warnings: warnings}, nil
}
