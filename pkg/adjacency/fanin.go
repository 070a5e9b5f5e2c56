package adjacency

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/macroplace/pkg/errors"
	"github.com/matzehuels/macroplace/pkg/netlist"
)

// DefaultRegisterDepth is the number of register stages fanin is carried
// across.
const DefaultRegisterDepth = 3

// Options configures fanin propagation and weight building.
type Options struct {
	// RegisterDepth is the number of register bridging passes. Zero selects
	// DefaultRegisterDepth.
	RegisterDepth int `json:"register_depth,omitempty"`

	// TieBreak resolves equidistant boundary edges.
	TieBreak TieBreak `json:"tie_break,omitempty"`

	Logger *log.Logger `json:"-"`
}

// ValidateAndSetDefaults fills zero values. Safe to call repeatedly.
func (o *Options) ValidateAndSetDefaults() error {
	if o.RegisterDepth < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "register depth must be non-negative, got %d", o.RegisterDepth)
	}
	if o.RegisterDepth == 0 {
		o.RegisterDepth = DefaultRegisterDepth
	}
	if o.TieBreak > PreferVertical {
		return errors.New(errors.ErrCodeInvalidInput, "unknown tie-break %d", o.TieBreak)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// Source identifies a fanin origin: a macro index in [0, n) or a boundary
// edge encoded as n + edge index.
type Source int32

// Fanins holds one sorted, duplicate-free source set per graph vertex.
// Sets are stored in an arena indexed by vertex ID; vertices never point
// back at macros beyond the index mapping.
type Fanins struct {
	g        *netlist.Graph
	n        int
	sets     [][]Source
	macroOf  []int // instance index -> macro index, -1 for non-macros
	portEdge []Edge
	passes   int
	loops    int
}

// NumMacros returns the number of macro sources.
func (f *Fanins) NumMacros() int { return f.n }

// Of returns the fanin set of v. The slice must not be modified.
func (f *Fanins) Of(v netlist.VertexID) []Source { return f.sets[v] }

// MacroSource returns the source for macro m.
func (f *Fanins) MacroSource(m int) Source { return Source(m) }

// EdgeSource returns the source for boundary edge e.
func (f *Fanins) EdgeSource(e Edge) Source { return Source(f.n + int(e)) }

// Macro reports the macro index of s, if s is a macro source.
func (f *Fanins) Macro(s Source) (int, bool) {
	if int(s) < f.n {
		return int(s), true
	}
	return 0, false
}

// Edge reports the boundary edge of s, if s is an edge source.
func (f *Fanins) Edge(s Source) (Edge, bool) {
	return EdgeFromIndex(int(s) - f.n)
}

// MacroOf returns the macro index of instance i, or -1.
func (f *Fanins) MacroOf(i int) int { return f.macroOf[i] }

// PortEdge returns the boundary edge port i was mapped to.
func (f *Fanins) PortEdge(i int) Edge { return f.portEdge[i] }

// Graph returns the graph the sets were computed on.
func (f *Fanins) Graph() *netlist.Graph { return f.g }

// Loops returns the number of vertices on combinational loops. Their sets
// are best effort.
func (f *Fanins) Loops() int { return f.loops }

// =============================================================================
// Propagation
// =============================================================================

// Propagate computes the fanin set of every vertex of g.
//
// macroInst maps macro index to instance index. Seeds are input ports
// (their nearest boundary edge), macro output pins (their macro) and
// register outputs (empty). Every other vertex gets the union of its
// predecessors' sets in levelized order. Register outputs are then bridged
// opts.RegisterDepth times: each pass copies the union of a register's data
// input sets to its outputs and re-propagates downstream.
//
// Propagate fails with MISSING_TIMING_DATA when any instance lacks timing
// data.
func Propagate(g *netlist.Graph, macroInst []int, opts Options) (*Fanins, []errors.Warning, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, nil, err
	}
	if err := g.CheckTiming(); err != nil {
		return nil, nil, err
	}
	logger := opts.Logger
	d := g.Design()

	f := &Fanins{
		g:        g,
		n:        len(macroInst),
		sets:     make([][]Source, g.Len()),
		macroOf:  make([]int, len(d.Instances)),
		portEdge: make([]Edge, len(d.Ports)),
	}
	for i := range f.macroOf {
		f.macroOf[i] = -1
	}
	for m, i := range macroInst {
		if i < 0 || i >= len(d.Instances) || !d.Instances[i].Macro {
			return nil, nil, errors.New(errors.ErrCodeInternal, "macro %d maps to instance %d which is not a macro", m, i)
		}
		f.macroOf[i] = m
	}

	var warnings []errors.Warning
	for i := range d.Ports {
		p := &d.Ports[i]
		if !p.Placed {
			f.portEdge[i] = West
			warnings = append(warnings, errors.NewWarning(errors.ErrCodeConfig, p.Name,
				"port has no location, assigned to the west edge"))
			continue
		}
		f.portEdge[i] = NearestEdge(d.Core, p.Location(), opts.TieBreak)
	}

	isSeed := make([]bool, g.Len())
	var seeds []netlist.VertexID
	for id := range g.Len() {
		v := g.Vertex(netlist.VertexID(id))
		switch {
		case v.Kind == netlist.PortVertex && v.Dir == netlist.Input:
			f.sets[id] = []Source{f.EdgeSource(f.portEdge[v.Port])}
		case v.Kind == netlist.PinVertex && v.Dir == netlist.Output && f.macroOf[v.Instance] >= 0:
			f.sets[id] = []Source{f.MacroSource(f.macroOf[v.Instance])}
		case v.SeqOut:
		default:
			continue
		}
		isSeed[id] = true
		seeds = append(seeds, v.ID)
	}
	seedFn := func(v netlist.VertexID) bool { return isSeed[v] }

	levels, loops := g.Levelize(seedFn)
	f.loops = len(loops)
	if len(loops) > 0 {
		logger.Warn("combinational loops found, fanin on loop vertices is best effort", "vertices", len(loops))
	}

	bfs := netlist.NewBFS(g, levels, seedFn)
	for _, s := range seeds {
		bfs.EnqueueAdjacent(s)
	}
	f.drain(bfs)

	for pass := range opts.RegisterDepth {
		bfs.Reset()
		changed := 0
		for _, r := range g.Registers() {
			if f.macroOf[r.Instance] >= 0 {
				continue
			}
			var in []Source
			for _, dv := range r.Data {
				in = union(in, f.sets[dv])
			}
			for _, q := range r.Out {
				merged := union(f.sets[q], in)
				if len(merged) == len(f.sets[q]) {
					continue
				}
				f.sets[q] = merged
				bfs.EnqueueAdjacent(q)
				changed++
			}
		}
		f.passes = pass + 1
		if changed == 0 {
			break
		}
		f.drain(bfs)
		logger.Debug("bridged registers", "pass", pass+1, "outputs", changed)
	}

	logger.Debug("propagated fanin", "vertices", g.Len(), "macros", f.n, "passes", f.passes)
	return f, warnings, nil
}

func (f *Fanins) drain(bfs *netlist.BFS) {
	for bfs.HasNext() {
		v := bfs.Next()
		var set []Source
		for _, u := range f.g.Fanin(v) {
			set = union(set, f.sets[u])
		}
		f.sets[v] = set
		bfs.EnqueueAdjacent(v)
	}
}

// union merges two sorted, duplicate-free sets. The result may share
// storage with an argument and must be treated as read-only.
func union(a, b []Source) []Source {
	if len(b) == 0 {
		return a
	}
	if len(a) == 0 {
		return b
	}
	out := make([]Source, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}
