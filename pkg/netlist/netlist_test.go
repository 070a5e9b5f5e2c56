package netlist

import (
	"encoding/json"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/macroplace/pkg/errors"
	"github.com/matzehuels/macroplace/pkg/geom"
)

var core = geom.Rect{LX: 0, LY: 0, UX: 100, UY: 100}

func pipeline() *Design {
	return NewBuilder("top", core).
		Macro("A", 10, 10, "I", "O").
		Reg("r1").
		Cell("u1", "A1", "Z").
		Macro("B", 10, 10, "I", "O").
		InPort("in", 0, 50).
		OutPort("out", 100, 50).
		Connect("in", "A/I").
		Connect("A/O", "r1/D").
		Connect("r1/Q", "u1/A1").
		Connect("u1/Z", "B/I").
		Connect("B/O", "out").
		MustBuild()
}

func TestBuildGraph(t *testing.T) {
	g, err := BuildGraph(pipeline())
	if err != nil {
		t.Fatalf("BuildGraph() error: %v", err)
	}

	// 2 macro pins x2, 3 reg pins, 2 cell pins, 2 ports
	if g.Len() != 11 {
		t.Errorf("Len() = %d, want 11", g.Len())
	}
	// 5 net edges + 1 cell arc
	if g.EdgeCount() != 6 {
		t.Errorf("EdgeCount() = %d, want 6", g.EdgeCount())
	}

	a1, _ := g.Lookup("u1/A1")
	z, _ := g.Lookup("u1/Z")
	if !slices.Contains(g.Fanout(a1), z) {
		t.Error("combinational arc u1/A1 -> u1/Z missing")
	}

	d, _ := g.Lookup("r1/D")
	q, _ := g.Lookup("r1/Q")
	if slices.Contains(g.Fanout(d), q) {
		t.Error("register must not have a D -> Q edge")
	}
	if !g.Vertex(d).SeqData || !g.Vertex(q).SeqOut {
		t.Error("register pins not flagged")
	}

	regs := g.Registers()
	if len(regs) != 1 || len(regs[0].Data) != 1 || len(regs[0].Out) != 1 {
		t.Errorf("Registers() = %+v", regs)
	}

	ai, _ := g.Lookup("A/I")
	ao, _ := g.Lookup("A/O")
	if slices.Contains(g.Fanout(ai), ao) {
		t.Error("macro must not have internal arcs")
	}
}

func TestRegisterDataDefaults(t *testing.T) {
	d := NewBuilder("top", core).
		Instance(Instance{
			Name:       "r",
			Sequential: true,
			Pins: []Pin{
				{Name: "D0", Dir: Input},
				{Name: "D1", Dir: Input},
				{Name: "CK", Dir: Input, Clock: true},
				{Name: "Q", Dir: Output},
			},
		}).
		MustBuild()
	g, err := BuildGraph(d)
	if err != nil {
		t.Fatal(err)
	}
	regs := g.Registers()
	if len(regs[0].Data) != 2 {
		t.Errorf("unflagged non-clock inputs should all be data pins, got %d", len(regs[0].Data))
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(d *Design)
		wantErr bool
	}{
		{"valid", func(d *Design) {}, false},
		{"duplicate instance", func(d *Design) { d.Instances = append(d.Instances, d.Instances[0]) }, true},
		{"unknown driver", func(d *Design) { d.Nets[0].Driver = "nope/O" }, true},
		{"load drives", func(d *Design) { d.Nets[1].Loads = []string{"B/O"} }, true},
		{"driver is input pin", func(d *Design) { d.Nets[1].Driver = "B/I" }, true},
		{"negative width", func(d *Design) { d.Instances[0].Width = -1 }, true},
		{"inverted core", func(d *Design) { d.Core = geom.Rect{LX: 10, UX: 0} }, true},
		{"empty name", func(d *Design) { d.Name = "" }, true},
		{"hierarchical instance", func(d *Design) { renameInstance(d, 0, "top/u0") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := pipeline().Clone()
			tt.mutate(d)
			err := d.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// renameInstance renames instance i and rewrites the net references to it.
func renameInstance(d *Design, i int, name string) {
	old := d.Instances[i].Name
	d.Instances[i].Name = name
	fix := func(ref string) string {
		if inst, pin, ok := SplitRef(ref); ok && inst == old {
			return PinRef(name, pin)
		}
		return ref
	}
	for k := range d.Nets {
		d.Nets[k].Driver = fix(d.Nets[k].Driver)
		for j := range d.Nets[k].Loads {
			d.Nets[k].Loads[j] = fix(d.Nets[k].Loads[j])
		}
	}
}

func TestValidateSlashInPinName(t *testing.T) {
	// A/I renamed to A/bus/0 everywhere; the reference would resolve to
	// instance "A/bus" and pin "0".
	d := pipeline().Clone()
	d.Instances[0].Pins[0].Name = "bus/0"
	for k := range d.Nets {
		for j, l := range d.Nets[k].Loads {
			if l == "A/I" {
				d.Nets[k].Loads[j] = "A/bus/0"
			}
		}
	}

	err := d.Validate()
	if !errors.Is(err, errors.ErrCodeInvalidDesign) {
		t.Fatalf("Validate() = %v, want INVALID_DESIGN", err)
	}
	if !strings.Contains(err.Error(), `pin "bus/0" contains '/'`) {
		t.Errorf("error %q does not name the pin", err)
	}
}

func TestCheckTiming(t *testing.T) {
	d := pipeline()
	g, _ := BuildGraph(d)
	if err := g.CheckTiming(); err != nil {
		t.Fatalf("CheckTiming() = %v", err)
	}

	no := false
	d = d.Clone()
	d.Instance("u1").Timing = &no
	g, _ = BuildGraph(d)
	err := g.CheckTiming()
	if !errors.Is(err, errors.ErrCodeMissingTimingData) {
		t.Errorf("CheckTiming() = %v, want MISSING_TIMING_DATA", err)
	}
}

func TestLevelize(t *testing.T) {
	g, _ := BuildGraph(pipeline())
	seed := func(v VertexID) bool { return g.Vertex(v).SeqOut }
	levels, loops := g.Levelize(seed)
	if len(loops) != 0 {
		t.Fatalf("unexpected loops: %v", loops)
	}
	for u := range g.Len() {
		for _, v := range g.Fanout(VertexID(u)) {
			if seed(v) {
				continue
			}
			if levels[u] >= levels[v] {
				t.Errorf("edge %s -> %s violates level order", g.Vertex(VertexID(u)).Ref, g.Vertex(v).Ref)
			}
		}
	}
}

func TestLevelizeLoop(t *testing.T) {
	d := NewBuilder("loop", core).
		Cell("a", "I", "Z").
		Cell("b", "I", "Z").
		Connect("a/Z", "b/I").
		Connect("b/Z", "a/I").
		MustBuild()
	g, _ := BuildGraph(d)
	_, loops := g.Levelize(func(VertexID) bool { return false })
	if len(loops) != 4 {
		t.Errorf("loops = %d vertices, want 4", len(loops))
	}
}

func TestLevelizeDownstreamOfLoop(t *testing.T) {
	// c is declared first so its pins have lower IDs than the loop feeding it.
	d := NewBuilder("loop", core).
		Cell("c", "I", "Z").
		Cell("a", "I", "Z").
		Cell("b", "I", "Z").
		OutPort("out", 100, 50).
		Connect("a/Z", "b/I").
		Connect("b/Z", "a/I", "c/I").
		Connect("c/Z", "out").
		MustBuild()
	g, _ := BuildGraph(d)
	levels, loops := g.Levelize(func(VertexID) bool { return false })

	ref := func(r string) VertexID {
		v, ok := g.Lookup(r)
		if !ok {
			t.Fatalf("no vertex %s", r)
		}
		return v
	}
	want := []VertexID{ref("a/I"), ref("a/Z"), ref("b/I"), ref("b/Z")}
	slices.Sort(want)
	if !slices.Equal(loops, want) {
		t.Errorf("loops = %v, want %v", loops, want)
	}

	for _, e := range [][2]string{{"b/Z", "c/I"}, {"a/Z", "c/I"}, {"c/I", "c/Z"}, {"c/Z", "out"}} {
		if levels[ref(e[0])] >= levels[ref(e[1])] {
			t.Errorf("level(%s)=%d not below level(%s)=%d", e[0], levels[ref(e[0])], e[1], levels[ref(e[1])])
		}
	}
	if levels[ref("a/I")] != levels[ref("b/Z")] {
		t.Error("loop members on different levels")
	}
}

func TestBFSOrder(t *testing.T) {
	// Diamond with unequal path lengths: s -> x -> y -> t and s -> t.
	d := NewBuilder("diamond", core).
		InPort("s", 0, 0).
		Cell("x", "I", "Z").
		Cell("y", "I", "Z").
		Cell("t", "I1", "I2", "Z").
		Connect("s", "x/I", "t/I2").
		Connect("x/Z", "y/I").
		Connect("y/Z", "t/I1").
		MustBuild()
	g, _ := BuildGraph(d)
	s := g.PortVertex(0)
	isSeed := func(v VertexID) bool { return v == s }
	levels, _ := g.Levelize(isSeed)

	bfs := NewBFS(g, levels, isSeed)
	bfs.EnqueueAdjacent(s)
	seen := map[VertexID]bool{s: true}
	for bfs.HasNext() {
		v := bfs.Next()
		for _, u := range g.Fanin(v) {
			if !seen[u] {
				t.Errorf("%s visited before predecessor %s", g.Vertex(v).Ref, g.Vertex(u).Ref)
			}
		}
		seen[v] = true
		bfs.EnqueueAdjacent(v)
	}
	if len(seen) != g.Len() {
		t.Errorf("visited %d of %d vertices", len(seen), g.Len())
	}
}

func TestApply(t *testing.T) {
	d := pipeline().Clone()
	if err := d.Apply([]Placement{{Name: "A", LX: 5, LY: 6}}); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if a := d.Instance("A"); a.X != 5 || a.Y != 6 {
		t.Errorf("A at (%v,%v), want (5,6)", a.X, a.Y)
	}

	err := d.Apply([]Placement{{Name: "B", LX: 1}, {Name: "ghost"}})
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Apply() = %v, want NOT_FOUND", err)
	}
	if d.Instance("B").X != 0 {
		t.Error("failed Apply must not write partial results")
	}
}

func TestDirectionJSON(t *testing.T) {
	var p Pin
	if err := json.Unmarshal([]byte(`{"name":"Q","dir":"output"}`), &p); err != nil {
		t.Fatal(err)
	}
	if p.Dir != Output {
		t.Errorf("Dir = %v, want output", p.Dir)
	}
	data, _ := json.Marshal(p)
	if string(data) != `{"name":"Q","dir":"output"}` {
		t.Errorf("Marshal = %s", data)
	}
	if err := json.Unmarshal([]byte(`{"dir":"sideways"}`), &p); err == nil {
		t.Error("unknown direction should fail")
	}
}

func TestSplitRef(t *testing.T) {
	tests := []struct {
		ref, inst, pin string
		ok             bool
	}{
		{"A/O", "A", "O", true},
		{"top/mem/u0/Q", "top/mem/u0", "Q", true},
		{"port", "", "", false},
		{"/x", "", "", false},
		{"x/", "", "", false},
	}
	for _, tt := range tests {
		inst, pin, ok := SplitRef(tt.ref)
		if inst != tt.inst || pin != tt.pin || ok != tt.ok {
			t.Errorf("SplitRef(%q) = %q,%q,%v", tt.ref, inst, pin, ok)
		}
	}
}

func TestBFSLoopTerminates(t *testing.T) {
	d := NewBuilder("loop", core).
		InPort("s", 0, 0).
		Cell("a", "I1", "I2", "Z").
		Cell("b", "I", "Z").
		Connect("s", "a/I1").
		Connect("a/Z", "b/I").
		Connect("b/Z", "a/I2").
		MustBuild()
	g, _ := BuildGraph(d)
	s := g.PortVertex(0)
	isSeed := func(v VertexID) bool { return v == s }
	levels, _ := g.Levelize(isSeed)

	bfs := NewBFS(g, levels, isSeed)
	for round := range 2 {
		bfs.EnqueueAdjacent(s)
		emitted := 0
		for bfs.HasNext() {
			bfs.EnqueueAdjacent(bfs.Next())
			emitted++
		}
		if emitted != 5 {
			t.Errorf("round %d emitted %d vertices, want 5", round, emitted)
		}
		bfs.Reset()
	}
}
