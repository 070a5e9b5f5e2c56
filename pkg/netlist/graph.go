package netlist

import (
	"slices"

	"github.com/matzehuels/macroplace/pkg/errors"
)

// VertexID indexes a vertex in a [Graph]. IDs are dense, starting at 0.
type VertexID int32

// VertexKind distinguishes instance pins from boundary ports.
type VertexKind uint8

const (
	// PinVertex is an instance pin.
	PinVertex VertexKind = iota
	// PortVertex is a primary input or output port.
	PortVertex
)

// Vertex is one node of the timing graph.
type Vertex struct {
	ID       VertexID
	Kind     VertexKind
	Ref      string    // "inst/pin" or port name
	Instance int       // index into Design.Instances, -1 for ports
	Port     int       // index into Design.Ports, -1 for pins
	Dir      Direction // pin direction, or port direction
	SeqOut   bool      // output pin of a sequential instance
	SeqData  bool      // data input of a sequential instance
	Clock    bool
}

// Register groups the data inputs and outputs of one sequential instance.
// Fanin crosses a register from Data to Out only through an explicit bridge.
type Register struct {
	Instance int
	Data     []VertexID
	Out      []VertexID
}

// Graph is the directed signal graph of a design. Edges follow signal
// direction: net driver to each load, and for combinational cells each
// non-clock input to each output. Sequential cells and macros have no
// internal arcs, so their outputs start new propagation fronts.
//
// The zero value is not usable; build graphs with [BuildGraph].
// Graph is read-only after construction and safe for concurrent readers.
type Graph struct {
	design    *Design
	vertices  []Vertex
	fanout    [][]VertexID
	fanin     [][]VertexID
	byRef     map[string]VertexID
	instPins  [][]VertexID
	portVerts []VertexID
	registers []Register
}

// BuildGraph builds the timing graph for d. The design must be valid.
func BuildGraph(d *Design) (*Graph, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	g := &Graph{
		design:    d,
		byRef:     make(map[string]VertexID),
		instPins:  make([][]VertexID, len(d.Instances)),
		portVerts: make([]VertexID, len(d.Ports)),
	}

	for i := range d.Instances {
		inst := &d.Instances[i]
		hasData := slices.ContainsFunc(inst.Pins, func(p Pin) bool { return p.Data })
		for _, p := range inst.Pins {
			v := g.addVertex(Vertex{
				Kind:     PinVertex,
				Ref:      PinRef(inst.Name, p.Name),
				Instance: i,
				Port:     -1,
				Dir:      p.Dir,
				Clock:    p.Clock,
			})
			vx := &g.vertices[v]
			if inst.Sequential {
				vx.SeqOut = p.Dir == Output
				vx.SeqData = p.Dir == Input && !p.Clock && (p.Data || !hasData)
			}
			g.instPins[i] = append(g.instPins[i], v)
		}
	}
	for i := range d.Ports {
		p := &d.Ports[i]
		g.portVerts[i] = g.addVertex(Vertex{
			Kind:     PortVertex,
			Ref:      p.Name,
			Instance: -1,
			Port:     i,
			Dir:      p.Dir,
		})
	}

	g.fanout = make([][]VertexID, len(g.vertices))
	g.fanin = make([][]VertexID, len(g.vertices))

	for _, n := range d.Nets {
		from := g.byRef[n.Driver]
		for _, l := range n.Loads {
			g.addEdge(from, g.byRef[l])
		}
	}

	for i := range d.Instances {
		inst := &d.Instances[i]
		switch {
		case inst.Sequential:
			reg := Register{Instance: i}
			for _, v := range g.instPins[i] {
				if g.vertices[v].SeqData {
					reg.Data = append(reg.Data, v)
				}
				if g.vertices[v].SeqOut {
					reg.Out = append(reg.Out, v)
				}
			}
			g.registers = append(g.registers, reg)
		case inst.Macro:
			// Macro outputs are propagation seeds, no pass-through.
		default:
			for _, in := range g.instPins[i] {
				if g.vertices[in].Dir != Input || g.vertices[in].Clock {
					continue
				}
				for _, out := range g.instPins[i] {
					if g.vertices[out].Dir == Output {
						g.addEdge(in, out)
					}
				}
			}
		}
	}
	return g, nil
}

func (g *Graph) addVertex(v Vertex) VertexID {
	v.ID = VertexID(len(g.vertices))
	g.vertices = append(g.vertices, v)
	g.byRef[v.Ref] = v.ID
	return v.ID
}

func (g *Graph) addEdge(from, to VertexID) {
	if slices.Contains(g.fanout[from], to) {
		return
	}
	g.fanout[from] = append(g.fanout[from], to)
	g.fanin[to] = append(g.fanin[to], from)
}

// Design returns the design the graph was built from.
func (g *Graph) Design() *Design { return g.design }

// Len returns the number of vertices.
func (g *Graph) Len() int { return len(g.vertices) }

// EdgeCount returns the number of directed edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, out := range g.fanout {
		n += len(out)
	}
	return n
}

// Vertex returns the vertex with the given ID.
func (g *Graph) Vertex(id VertexID) Vertex { return g.vertices[id] }

// Fanout returns the successors of id. The slice must not be modified.
func (g *Graph) Fanout(id VertexID) []VertexID { return g.fanout[id] }

// Fanin returns the predecessors of id. The slice must not be modified.
func (g *Graph) Fanin(id VertexID) []VertexID { return g.fanin[id] }

// Lookup returns the vertex for a terminal reference.
func (g *Graph) Lookup(ref string) (VertexID, bool) {
	v, ok := g.byRef[ref]
	return v, ok
}

// InstancePins returns the pin vertices of instance i in pin order.
func (g *Graph) InstancePins(i int) []VertexID { return g.instPins[i] }

// PortVertex returns the vertex of port i.
func (g *Graph) PortVertex(i int) VertexID { return g.portVerts[i] }

// Registers returns the sequential instances with their data and output pins.
func (g *Graph) Registers() []Register { return g.registers }

// MissingTiming returns the names of instances that lack cell timing data.
// Without it sequential boundaries cannot be told apart, so any non-empty
// result makes adjacency analysis unusable.
func (g *Graph) MissingTiming() []string {
	var names []string
	for i := range g.design.Instances {
		if !g.design.Instances[i].HasTiming() {
			names = append(names, g.design.Instances[i].Name)
		}
	}
	return names
}

// CheckTiming returns a MISSING_TIMING_DATA error naming the first few
// instances without timing data, or nil.
func (g *Graph) CheckTiming() error {
	missing := g.MissingTiming()
	if len(missing) == 0 {
		return nil
	}
	shown := missing
	if len(shown) > 5 {
		shown = shown[:5]
	}
	return errors.New(errors.ErrCodeMissingTimingData,
		"%d instance(s) have no cell timing data (e.g. %v); sequential boundaries cannot be identified",
		len(missing), shown)
}

// =============================================================================
// Levelization
// =============================================================================

// Levelize assigns each vertex a level such that every edge u->v with v not
// a barrier satisfies level(u) < level(v). Edges into barrier vertices are
// ignored, so barriers sit at level 0 and start fresh fronts.
//
// Vertices on combinational loops cannot be ordered. They are returned in
// loops (sorted by ID) and every member of one loop shares a level above
// the loop's inputs. Vertices downstream of a loop are not loop vertices;
// they keep the ordering property against the loop and each other.
func (g *Graph) Levelize(barrier func(VertexID) bool) (levels []int, loops []VertexID) {
	n := len(g.vertices)
	levels = make([]int, n)
	indeg := make([]int, n)
	for v := range n {
		if barrier(VertexID(v)) {
			continue
		}
		indeg[v] = len(g.fanin[v])
	}

	queue := make([]VertexID, 0, n)
	for v := range n {
		if indeg[v] == 0 {
			queue = append(queue, VertexID(v))
		}
	}

	done := make([]bool, n)
	for head := 0; head < len(queue); head++ {
		u := queue[head]
		done[u] = true
		for _, v := range g.fanout[u] {
			if barrier(v) {
				continue
			}
			levels[v] = max(levels[v], levels[u]+1)
			if indeg[v]--; indeg[v] == 0 {
				queue = append(queue, v)
			}
		}
	}
	if len(queue) == n {
		return levels, nil
	}

	// The rest is loops and whatever they feed. Components come out in
	// topological order, so each is levelled after all its predecessors.
	comp := make([]int, n)
	for _, members := range g.components(done, comp) {
		c := comp[members[0]]
		lvl := 0
		for _, v := range members {
			for _, u := range g.fanin[v] {
				if comp[u] != c {
					lvl = max(lvl, levels[u]+1)
				}
			}
		}
		for _, v := range members {
			levels[v] = lvl
		}
		if len(members) > 1 || slices.Contains(g.fanout[members[0]], members[0]) {
			loops = append(loops, members...)
		}
	}
	slices.Sort(loops)
	return levels, loops
}

// components finds the strongly connected components of the vertices not
// marked done, in topological order (Kosaraju). comp receives each
// vertex's component index, or -1 for done vertices.
func (g *Graph) components(done []bool, comp []int) [][]VertexID {
	type frame struct {
		v VertexID
		i int
	}
	n := len(g.vertices)
	visited := make([]bool, n)
	finished := make([]VertexID, 0, n)
	for s := range n {
		if done[s] || visited[s] {
			continue
		}
		visited[s] = true
		stack := []frame{{v: VertexID(s)}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if out := g.fanout[top.v]; top.i < len(out) {
				w := out[top.i]
				top.i++
				if !done[w] && !visited[w] {
					visited[w] = true
					stack = append(stack, frame{v: w})
				}
				continue
			}
			finished = append(finished, top.v)
			stack = stack[:len(stack)-1]
		}
	}

	for i := range comp {
		comp[i] = -1
	}
	var out [][]VertexID
	for i := len(finished) - 1; i >= 0; i-- {
		root := finished[i]
		if comp[root] >= 0 {
			continue
		}
		c := len(out)
		comp[root] = c
		members := []VertexID{root}
		for k := 0; k < len(members); k++ {
			for _, u := range g.fanin[members[k]] {
				if !done[u] && comp[u] < 0 {
					comp[u] = c
					members = append(members, u)
				}
			}
		}
		out = append(out, members)
	}
	return out
}
