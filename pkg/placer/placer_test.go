package placer

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"sync"
	"testing"

	"github.com/matzehuels/macroplace/pkg/adjacency"
	"github.com/matzehuels/macroplace/pkg/errors"
	"github.com/matzehuels/macroplace/pkg/geom"
	"github.com/matzehuels/macroplace/pkg/macro"
	"github.com/matzehuels/macroplace/pkg/netlist"
)

var core = geom.Rect{UX: 100, UY: 100}

// recordingSink counts write-backs.
type recordingSink struct {
	calls      int
	placements []netlist.Placement
}

func (s *recordingSink) WriteBack(_ context.Context, p []netlist.Placement) error {
	s.calls++
	s.placements = p
	return nil
}

func twoMacros() *netlist.Design {
	return netlist.NewBuilder("two", core).
		Macro("A", 10, 10, "O1", "O2", "O3").
		Macro("B", 10, 10, "I1", "I2", "I3").
		Connect("A/O1", "B/I1").
		Connect("A/O2", "B/I2").
		Connect("A/O3", "B/I3").
		MustBuild()
}

// ring builds n macros of the given size, each driving the next through a
// register, with an input port on the west edge and an output on the east.
func ring(n int, w, h float64) *netlist.Design {
	b := netlist.NewBuilder("ring", core).
		InPort("in", 0, 50).
		OutPort("out", 100, 50)
	for i := range n {
		b.Macro(fmt.Sprintf("M%d", i), w, h, "I", "J", "O")
	}
	b.Connect("in", "M0/J")
	for i := range n {
		r := fmt.Sprintf("r%d", i)
		b.Reg(r).
			Connect(fmt.Sprintf("M%d/O", i), r+"/D").
			Connect(r+"/Q", fmt.Sprintf("M%d/I", (i+1)%n))
	}
	b.Connect(fmt.Sprintf("M%d/O", n-1), "out")
	return b.MustBuild()
}

func place(t *testing.T, d *netlist.Design, opts Options) *Result {
	t.Helper()
	p, err := New(opts)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	res, err := p.Place(context.Background(), d)
	if err != nil {
		t.Fatalf("Place() error: %v", err)
	}
	return res
}

func assertLegal(t *testing.T, res *Result, fence geom.Rect) {
	t.Helper()
	for i, a := range res.Macros {
		if !fence.Contains(a.HaloRect()) {
			t.Errorf("%s halo rect %+v outside fence %+v", a.Name, a.HaloRect(), fence)
		}
		for _, b := range res.Macros[i+1:] {
			if a.HaloRect().Intersects(b.HaloRect()) {
				t.Errorf("%s %+v overlaps %s %+v", a.Name, a.HaloRect(), b.Name, b.HaloRect())
			}
		}
	}
}

func TestTwoMacrosThreePins(t *testing.T) {
	res := place(t, twoMacros(), Options{})

	if len(res.Pairs) != 1 || res.Pairs[0].Weight != 3 {
		t.Fatalf("Pairs = %+v, want A-B weight 3", res.Pairs)
	}
	if len(res.Placements) != 2 {
		t.Fatalf("Placements = %+v", res.Placements)
	}
	assertLegal(t, res, core)
	if res.SolutionCount != DefaultCandidates {
		t.Errorf("SolutionCount = %d, want %d", res.SolutionCount, DefaultCandidates)
	}
	if res.RunID == "" {
		t.Error("RunID not set")
	}
}

func TestInfeasibleArea(t *testing.T) {
	// Four 50x50 macros fill the fence; the halo grows each footprint to 120%.
	d := netlist.NewBuilder("big", core).
		Macro("A", 50, 50, "O").
		Macro("B", 50, 50, "I").
		Macro("C", 50, 50, "I").
		Macro("D", 50, 50, "I").
		Connect("A/O", "B/I", "C/I", "D/I").
		MustBuild()
	halo := (50*math.Sqrt(1.2) - 50) / 2
	p, err := New(Options{Spacing: macro.Spacing{HaloX: halo, HaloY: halo}})
	if err != nil {
		t.Fatal(err)
	}

	sink := &recordingSink{}
	_, err = p.PlaceAndWrite(context.Background(), d, sink)
	if !errors.Is(err, errors.ErrCodeInfeasibleArea) {
		t.Fatalf("PlaceAndWrite() error = %v, want INFEASIBLE_AREA", err)
	}
	if sink.calls != 0 {
		t.Error("sink written after a fatal error")
	}
	for _, inst := range d.Instances {
		if inst.X != 0 || inst.Y != 0 {
			t.Errorf("%s moved to (%v,%v)", inst.Name, inst.X, inst.Y)
		}
	}
}

func TestIsolatedMacro(t *testing.T) {
	d := netlist.NewBuilder("iso", core).
		Macro("A", 10, 10, "O1", "O2", "O3").
		Macro("B", 10, 10, "I1", "I2", "I3").
		Macro("C", 20, 20).
		Connect("A/O1", "B/I1").
		Connect("A/O2", "B/I2").
		Connect("A/O3", "B/I3").
		MustBuild()

	res := place(t, d, Options{})
	if _, ok := res.Placement("C"); !ok {
		t.Fatal("isolated macro dropped")
	}
	assertLegal(t, res, core)

	want := 3 * geom.Manhattan(res.Macros[0].Center(), res.Macros[1].Center())
	if math.Abs(res.WeightedWL-want) > 1e-9 {
		t.Errorf("WeightedWL = %v, want %v (C contributes nothing)", res.WeightedWL, want)
	}
}

func TestMissingTiming(t *testing.T) {
	no := false
	d := twoMacros()
	d.Instances = append(d.Instances, netlist.Instance{Name: "u", Timing: &no})

	p, _ := New(Options{})
	sink := &recordingSink{}
	_, err := p.PlaceAndWrite(context.Background(), d, sink)
	if !errors.Is(err, errors.ErrCodeMissingTimingData) {
		t.Fatalf("error = %v, want MISSING_TIMING_DATA", err)
	}
	if sink.calls != 0 {
		t.Error("sink written after a fatal error")
	}
}

func TestDeterministic(t *testing.T) {
	d := ring(6, 15, 12)
	opts := Options{Seed: 11, Spacing: macro.Spacing{HaloX: 1, HaloY: 1, ChannelX: 2, ChannelY: 2}}

	first := place(t, d, opts)
	second := place(t, d, opts)
	opts.Parallel = true
	parallel := place(t, d, opts)

	for i := range first.Placements {
		a, b, c := first.Placements[i], second.Placements[i], parallel.Placements[i]
		if a != b || a != c {
			t.Errorf("placement %d differs: %+v / %+v / %+v", i, a, b, c)
		}
	}
	if first.WeightedWL != parallel.WeightedWL || first.BestCandidate != parallel.BestCandidate {
		t.Error("parallel run chose a different solution")
	}
}

func TestLegalWithSpacing(t *testing.T) {
	tests := []struct {
		name string
		n    int
		w, h float64
		opts Options
	}{
		{"ring of 8", 8, 15, 10, Options{Spacing: macro.Spacing{HaloX: 1, HaloY: 1, ChannelX: 2, ChannelY: 2}}},
		{"leaf size 3", 7, 12, 12, Options{LeafSize: 3, Spacing: macro.Spacing{HaloX: 2, HaloY: 1}}},
		{"vertical tie-break", 5, 20, 8, Options{TieBreak: adjacency.PreferVertical, Candidates: 2}},
		{"custom fence", 4, 10, 10, Options{Fence: geom.Rect{LX: 20, LY: 20, UX: 70, UY: 60}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := place(t, ring(tt.n, tt.w, tt.h), tt.opts)
			fence := tt.opts.Fence
			if fence.IsZero() {
				fence = core
			}
			assertLegal(t, res, fence)
			if len(res.Clamped()) != 0 {
				t.Errorf("unexpected clamps: %v", res.Clamped())
			}
		})
	}
}

func TestOverhangClamp(t *testing.T) {
	d := netlist.NewBuilder("wide", core).
		Macro("W", 120, 10, "O").
		Macro("S", 10, 10, "I").
		Connect("W/O", "S/I").
		MustBuild()

	res := place(t, d, Options{Candidates: 1})
	if got := res.Clamped(); len(got) == 0 || got[0] != "W" {
		t.Fatalf("Clamped() = %v, want [W]", got)
	}
	found := false
	for _, w := range res.Warnings {
		if w.Code == errors.ErrCodeOverhangClamp && w.Subject == "W" {
			found = true
		}
	}
	if !found {
		t.Errorf("no OVERHANG_CLAMP warning in %v", res.Warnings)
	}
	if p, _ := res.Placement("W"); p.LX != core.LX {
		t.Errorf("W clamped to LX=%v, want %v", p.LX, core.LX)
	}
}

func TestSiteSnap(t *testing.T) {
	opts := Options{
		Spacing: macro.Spacing{ChannelX: 10, ChannelY: 10},
		SiteX:   5,
		SiteY:   4,
	}
	res := place(t, ring(4, 13, 11), opts)
	for _, p := range res.Placements {
		if r := math.Mod(p.LX, 5); r > 1e-9 && 5-r > 1e-9 {
			t.Errorf("%s LX=%v not on the 5 grid", p.Name, p.LX)
		}
		if r := math.Mod(p.LY, 4); r > 1e-9 && 4-r > 1e-9 {
			t.Errorf("%s LY=%v not on the 4 grid", p.Name, p.LY)
		}
	}
	assertLegal(t, res, core)
}

func TestSnapInto(t *testing.T) {
	tests := []struct {
		v, lo, hi, want float64
	}{
		{12, 10, 20, 10},
		{13, 10, 20, 15},
		{12, 11, 14, 12}, // no grid point in window
		{17.4, 16, 22, 15 + 5},
	}
	for _, tt := range tests {
		if got := snapInto(tt.v, tt.lo, tt.hi, 0, 5); got != tt.want {
			t.Errorf("snapInto(%v, [%v,%v]) = %v, want %v", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestLocalOverrides(t *testing.T) {
	neg := -1.0
	big := 4.0
	res := place(t, twoMacros(), Options{
		Locals: map[string]macro.LocalInfo{
			"A": {HaloX: &big, HaloY: &neg},
		},
	})
	if res.Macros[0].HaloX != 4 || res.Macros[0].HaloY != 0 {
		t.Errorf("A spacing = %+v", res.Macros[0])
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Code != errors.ErrCodeConfig {
		t.Errorf("Warnings = %v, want one CONFIG_ERROR", res.Warnings)
	}
	assertLegal(t, res, core)
}

func TestPlaceAndWriteInMemory(t *testing.T) {
	d := twoMacros()
	p, _ := New(Options{})
	res, err := p.PlaceAndWrite(context.Background(), d, d)
	if err != nil {
		t.Fatal(err)
	}
	for _, pl := range res.Placements {
		inst := d.Instance(pl.Name)
		if inst.X != pl.LX || inst.Y != pl.LY {
			t.Errorf("%s at (%v,%v), result says (%v,%v)", pl.Name, inst.X, inst.Y, pl.LX, pl.LY)
		}
	}
}

func TestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p, _ := New(Options{})
	sink := &recordingSink{}
	if _, err := p.PlaceAndWrite(ctx, twoMacros(), sink); err == nil {
		t.Fatal("expected an error from a cancelled context")
	}
	if sink.calls != 0 {
		t.Error("sink written after cancellation")
	}
}

func TestWeightedWL(t *testing.T) {
	ms := []macro.Macro{
		{Name: "A", LX: 10, LY: 10, W: 10, H: 10},
		{Name: "B", LX: 50, LY: 30, W: 10, H: 10},
		{Name: "C", LX: 80, LY: 80, W: 10, H: 10},
	}
	w := adjacency.NewWeights(3)
	w.AddPair(0, 1, 3)
	w.AddEdge(1, adjacency.East, 2)

	// 3*(40+20) + 2*(100-55); C is unconnected.
	if got, want := WeightedWL(ms, w, core), 3*60.0+2*45.0; got != want {
		t.Errorf("WeightedWL = %v, want %v", got, want)
	}

	res := place(t, twoMacros(), Options{Candidates: 1})
	w = adjacency.NewWeights(2)
	w.AddPair(0, 1, 3)
	if got := WeightedWL(res.Macros, w, core); math.Abs(got-res.WeightedWL) > 1e-9 {
		t.Errorf("WeightedWL = %v, result reports %v", got, res.WeightedWL)
	}
}

func TestOptionsValidation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"negative halo", Options{Spacing: macro.Spacing{HaloX: -1}}},
		{"negative candidates", Options{Candidates: -1}},
		{"inverted fence", Options{Fence: geom.Rect{LX: 10, UX: 5, UY: 5}}},
		{"negative site", Options{SiteY: -1}},
		{"bad balance", Options{Balance: 0.9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts); err == nil {
				t.Error("New() succeeded")
			}
		})
	}

	var o Options
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	again := o
	if err := again.ValidateAndSetDefaults(); err != nil || again.Candidates != o.Candidates ||
		again.RegisterDepth != o.RegisterDepth || again.LeafSize != o.LeafSize {
		t.Error("ValidateAndSetDefaults is not idempotent")
	}
}

func TestPickBest(t *testing.T) {
	tests := []struct {
		name  string
		cands []*candidate
		want  int
	}{
		{"lowest wirelength", []*candidate{{index: 0, wl: 30}, {index: 1, wl: 10}, {index: 2, wl: 20}}, 1},
		{"fewer clamps beat wirelength", []*candidate{{index: 0, wl: 10, clamped: 2}, {index: 1, wl: 50}, {index: 2, wl: 5, clamped: 1}}, 1},
		{"least clamped when all clamp", []*candidate{{index: 0, wl: 10, clamped: 3}, {index: 1, wl: 90, clamped: 1}}, 1},
		{"tie keeps lower index", []*candidate{{index: 0, wl: 10}, {index: 1, wl: 10}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pickBest(tt.cands).index; got != tt.want {
				t.Errorf("pickBest() = candidate %d, want %d", got, tt.want)
			}
		})
	}
}

// chain builds n macros with random footprints, each driving the next.
func chain(rng *rand.Rand, n int) *netlist.Design {
	b := netlist.NewBuilder("chain", core)
	for i := range n {
		b.Macro(fmt.Sprintf("M%d", i), 5+rng.Float64()*35, 5+rng.Float64()*35, "I", "O")
	}
	for i := range n - 1 {
		b.Connect(fmt.Sprintf("M%d/O", i), fmt.Sprintf("M%d/I", i+1))
	}
	return b.MustBuild()
}

func TestBestPrefersUnclampedCandidate(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 42))
	spacing := macro.Spacing{HaloX: 1, HaloY: 1, ChannelX: 1, ChannelY: 1}
	ctx := context.Background()

	for trial := range 150 {
		d := chain(rng, 2+rng.IntN(10))
		p, err := New(Options{Spacing: spacing, Seed: uint64(trial)})
		if err != nil {
			t.Fatal(err)
		}
		res, err := p.Place(ctx, d)
		if errors.Is(err, errors.ErrCodeInfeasibleArea) {
			continue
		}
		if err != nil {
			t.Fatalf("trial %d: Place() error: %v", trial, err)
		}

		bestWL := math.Inf(1)
		for i := range DefaultCandidates {
			single := place(t, d, Options{Spacing: spacing, Seed: uint64(trial + i), Candidates: 1})
			if len(single.Clamped()) == 0 {
				bestWL = math.Min(bestWL, single.WeightedWL)
			}
		}
		if math.IsInf(bestWL, 1) {
			continue
		}
		if got := res.Clamped(); len(got) != 0 {
			t.Errorf("trial %d: chose clamped candidate %d (%v) over an unclamped one", trial, res.BestCandidate, got)
			continue
		}
		if math.Abs(res.WeightedWL-bestWL) > geom.Eps {
			t.Errorf("trial %d: wirelength %v, want best unclamped %v", trial, res.WeightedWL, bestWL)
		}
	}
}

func TestProgress(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		t.Run(fmt.Sprintf("parallel=%v", parallel), func(t *testing.T) {
			var (
				mu    sync.Mutex
				calls []int
			)
			opts := Options{Candidates: 3, Parallel: parallel, Progress: func(done, total int) {
				mu.Lock()
				defer mu.Unlock()
				if total != 3 {
					t.Errorf("total = %d, want 3", total)
				}
				calls = append(calls, done)
			}}
			place(t, ring(4, 10, 10), opts)

			slices.Sort(calls)
			if !slices.Equal(calls, []int{1, 2, 3}) {
				t.Errorf("progress calls = %v, want [1 2 3]", calls)
			}
		})
	}
}
