package partition

import (
	"cmp"
	"io"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/macroplace/pkg/adjacency"
	"github.com/matzehuels/macroplace/pkg/errors"
	"github.com/matzehuels/macroplace/pkg/geom"
	"github.com/matzehuels/macroplace/pkg/macro"
)

// =============================================================================
// Options
// =============================================================================

const (
	// DefaultLeafSize is the largest macro count a region holds without
	// being split further.
	DefaultLeafSize = 1

	// DefaultRefinePasses bounds the single-move refinement after the best
	// prefix cut is found.
	DefaultRefinePasses = 4

	// DefaultBalance is the minimum share of the region's macro area each
	// side of a cut must receive.
	DefaultBalance = 0.2
)

// Options configures the partitioner.
type Options struct {
	LeafSize     int     `json:"leaf_size,omitempty"`
	RefinePasses int     `json:"refine_passes,omitempty"`
	Balance      float64 `json:"balance,omitempty"`
	// Seed drives the tie-breaking jitter. Equal seeds give equal trees.
	Seed   uint64      `json:"seed"`
	Logger *log.Logger `json:"-"`
}

// ValidateAndSetDefaults fills zero values. Safe to call repeatedly.
func (o *Options) ValidateAndSetDefaults() error {
	if o.LeafSize < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "leaf size must be non-negative, got %d", o.LeafSize)
	}
	if o.LeafSize == 0 {
		o.LeafSize = DefaultLeafSize
	}
	if o.RefinePasses < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "refine passes must be non-negative, got %d", o.RefinePasses)
	}
	if o.RefinePasses == 0 {
		o.RefinePasses = DefaultRefinePasses
	}
	if o.Balance == 0 {
		o.Balance = DefaultBalance
	}
	if o.Balance < 0 || o.Balance > 0.5 || math.IsNaN(o.Balance) {
		return errors.New(errors.ErrCodeInvalidInput, "balance must be in (0, 0.5], got %v", o.Balance)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// Check fails with INFEASIBLE_AREA when the total footprint area of macros
// exceeds the fence area.
func Check(fence geom.Rect, macros []macro.Macro) error {
	if err := errors.ValidateRect("fence", fence.LX, fence.LY, fence.UX, fence.UY); err != nil {
		return err
	}
	need, have := macro.TotalFootprintArea(macros), fence.Area()
	if need > have+geom.Eps {
		return errors.New(errors.ErrCodeInfeasibleArea,
			"macro footprint area %.2f exceeds fence area %.2f (%.0f%%)", need, have, 100*need/max(have, geom.Eps))
	}
	return nil
}

// =============================================================================
// Partitioner
// =============================================================================

// Partitioner recursively bisects a fence into a slicing tree so that
// strongly connected macros share regions.
//
// A Partitioner belongs to one placement candidate and is not safe for
// concurrent use.
type Partitioner struct {
	fence geom.Rect
	sizes []Size
	areas []float64
	w     *adjacency.Weights
	nbrs  [][]adjacency.Neighbor
	opts  Options
	rng   *rand.Rand

	est  []geom.Point // current position estimate of every macro
	in   []bool       // membership of the region being split
	side []bool       // true = high side, valid for members only
	pos  []geom.Point // scratch positions during evaluation
}

// New creates a partitioner for macros connected by w.
func New(fence geom.Rect, macros []macro.Macro, w *adjacency.Weights, opts Options) (*Partitioner, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if w.Len() != len(macros) {
		return nil, errors.New(errors.ErrCodeInternal, "weights cover %d macros, got %d", w.Len(), len(macros))
	}
	if err := Check(fence, macros); err != nil {
		return nil, err
	}

	n := len(macros)
	p := &Partitioner{
		fence: fence,
		sizes: make([]Size, n),
		areas: make([]float64, n),
		w:     w,
		nbrs:  make([][]adjacency.Neighbor, n),
		opts:  opts,
		rng:   rand.New(rand.NewPCG(opts.Seed, opts.Seed^0xdeadbeef)),
		est:   make([]geom.Point, n),
		in:    make([]bool, n),
		side:  make([]bool, n),
		pos:   make([]geom.Point, n),
	}
	for i := range macros {
		fw, fh := macros[i].FootprintSize()
		p.sizes[i] = Size{W: fw, H: fh}
		p.areas[i] = fw * fh
		p.nbrs[i] = w.Neighbors(i)
	}
	return p, nil
}

// Partition builds the slicing tree. Regions are split breadth-first; every
// macro's position is estimated as the centre of its current region, so
// later splits see where earlier ones sent the rest of the design.
//
// Partition consumes the partitioner's random stream; call it once.
func (p *Partitioner) Partition() *Tree {
	n := len(p.sizes)
	all := make([]int, n)
	for i := range all {
		all[i] = i
		p.est[i] = p.fence.Center()
	}

	t := &Tree{}
	t.Root = t.add(Node{Kind: Leaf, Region: p.fence, Macros: all, Left: -1, Right: -1})

	queue := []int{t.Root}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		node := t.Nodes[i]
		if len(node.Macros) <= p.opts.LeafSize {
			continue
		}
		s, ok := p.split(node.Region, node.Macros)
		if !ok {
			p.opts.Logger.Debug("region kept as leaf, no feasible cut",
				"depth", node.Depth, "macros", len(node.Macros))
			continue
		}

		lowR, highR := node.Region.Split(s.axis, s.cut)
		l := t.add(Node{Kind: Leaf, Region: lowR, Macros: s.low, Left: -1, Right: -1, Depth: node.Depth + 1})
		r := t.add(Node{Kind: Leaf, Region: highR, Macros: s.high, Left: -1, Right: -1, Depth: node.Depth + 1})
		parent := &t.Nodes[i]
		parent.Kind = Internal
		parent.Left, parent.Right = l, r
		parent.Axis, parent.Cut = s.axis, s.cut

		for _, m := range s.low {
			p.est[m] = lowR.Center()
		}
		for _, m := range s.high {
			p.est[m] = highR.Center()
		}
		queue = append(queue, l, r)
	}

	p.opts.Logger.Debug("partitioned fence", "nodes", len(t.Nodes), "leaves", len(t.Leaves()), "depth", t.Depth())
	return t
}

type split struct {
	axis      geom.Axis
	cut       float64
	cost      float64
	low, high []int
}

// split picks the cheaper of the best vertical and best horizontal
// bisection. Ties go to the cut across the longer side of the region.
func (p *Partitioner) split(region geom.Rect, macros []int) (split, bool) {
	axes := [2]geom.Axis{geom.Vertical, geom.Horizontal}
	if region.Height() > region.Width() {
		axes = [2]geom.Axis{geom.Horizontal, geom.Vertical}
	}

	for _, m := range macros {
		p.in[m] = true
	}
	defer func() {
		for _, m := range macros {
			p.in[m] = false
		}
	}()

	var (
		best  split
		found bool
	)
	for _, axis := range axes {
		s, ok := p.splitAxis(region, macros, axis)
		if ok && (!found || s.cost < best.cost-geom.Eps) {
			best, found = s, true
		}
	}
	return best, found
}

// splitAxis orders macros by connectivity pull along axis, scores every
// prefix cut within the balance bound and refines the best one with
// single-macro moves.
func (p *Partitioner) splitAxis(region geom.Rect, macros []int, axis geom.Axis) (split, bool) {
	order := p.orderByPull(region, macros, axis)

	var total float64
	for _, m := range macros {
		total += p.areas[m]
	}
	frac := func(lowArea float64) float64 {
		if total <= 0 {
			return 0.5
		}
		return lowArea / total
	}

	// Prefix cuts within the balance bound, or the most balanced one when
	// none qualifies.
	var (
		cands      []int
		fallback   = -1
		bestSkew   = math.Inf(1)
		prefixArea float64
	)
	for k := 1; k < len(order); k++ {
		prefixArea += p.areas[order[k-1]]
		f := frac(prefixArea)
		if f >= p.opts.Balance-geom.Eps && f <= 1-p.opts.Balance+geom.Eps {
			cands = append(cands, k)
		}
		if skew := math.Abs(f - 0.5); skew < bestSkew {
			bestSkew, fallback = skew, k
		}
	}
	relaxed := len(cands) == 0
	if relaxed {
		cands = []int{fallback}
	}

	bestCost, bestK := math.Inf(1), -1
	for _, k := range cands {
		for idx, m := range order {
			p.side[m] = idx >= k
		}
		if cost, _, ok := p.evaluate(region, macros, axis); ok && cost < bestCost-geom.Eps {
			bestCost, bestK = cost, k
		}
	}
	if bestK < 0 {
		return split{}, false
	}
	for idx, m := range order {
		p.side[m] = idx >= bestK
	}

	balanceOK := func() bool {
		var lowArea float64
		lowN := 0
		for _, m := range macros {
			if !p.side[m] {
				lowArea += p.areas[m]
				lowN++
			}
		}
		if lowN == 0 || lowN == len(macros) {
			return false
		}
		f := frac(lowArea)
		if relaxed {
			return math.Abs(f-0.5) <= bestSkew+geom.Eps
		}
		return f >= p.opts.Balance-geom.Eps && f <= 1-p.opts.Balance+geom.Eps
	}

	cost := bestCost
	for pass := 0; pass < p.opts.RefinePasses; pass++ {
		improved := false
		for _, m := range order {
			p.side[m] = !p.side[m]
			if balanceOK() {
				if c, _, ok := p.evaluate(region, macros, axis); ok && c < cost-geom.Eps {
					cost, improved = c, true
					continue
				}
			}
			p.side[m] = !p.side[m]
		}
		if !improved {
			break
		}
	}

	_, cut, _ := p.evaluate(region, macros, axis)
	s := split{axis: axis, cut: cut, cost: cost}
	for _, m := range macros {
		if p.side[m] {
			s.high = append(s.high, m)
		} else {
			s.low = append(s.low, m)
		}
	}
	return s, true
}

// orderByPull sorts macros by the weighted mean coordinate, along axis, of
// the outside macros and boundary edges they connect to. Macros without
// outside connections sit at the region centre. A small seeded jitter
// breaks ties.
func (p *Partitioner) orderByPull(region geom.Rect, macros []int, axis geom.Axis) []int {
	centre := region.Center().Coord(axis)
	jitter := 1e-6 * max(region.Extent(axis), 1)

	pull := make(map[int]float64, len(macros))
	for _, m := range macros {
		var num, den float64
		for _, nb := range p.nbrs[m] {
			if p.in[nb.Macro] {
				continue
			}
			num += float64(nb.Weight) * p.est[nb.Macro].Coord(axis)
			den += float64(nb.Weight)
		}
		for _, e := range adjacency.Edges() {
			if wt := p.w.EdgeWeight(m, e); wt > 0 {
				num += float64(wt) * e.Anchor(p.fence, p.est[m]).Coord(axis)
				den += float64(wt)
			}
		}
		v := centre
		if den > 0 {
			v = num / den
		}
		pull[m] = v + (p.rng.Float64()-0.5)*jitter
	}

	order := slices.Clone(macros)
	slices.SortStableFunc(order, func(a, b int) int {
		if c := cmp.Compare(pull[a], pull[b]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return order
}

// evaluate scores the current side assignment of macros. It derives the
// area-proportional cut, clamps it so both sides can still be shelf-packed,
// and returns the weighted Manhattan cost with each side's macros at the
// centre of its child region.
func (p *Partitioner) evaluate(region geom.Rect, macros []int, axis geom.Axis) (cost, cut float64, ok bool) {
	var lowSizes, highSizes []Size
	var lowArea, highArea float64
	for _, m := range macros {
		if p.side[m] {
			highSizes = append(highSizes, p.sizes[m])
			highArea += p.areas[m]
		} else {
			lowSizes = append(lowSizes, p.sizes[m])
			lowArea += p.areas[m]
		}
	}
	if len(lowSizes) == 0 || len(highSizes) == 0 {
		return 0, 0, false
	}

	lo, hi := region.Bounds(axis)
	cross := region.Height()
	if axis == geom.Horizontal {
		cross = region.Width()
	}
	minLow := MinExtent(lowSizes, axis, cross)
	minHigh := MinExtent(highSizes, axis, cross)
	if lo+minLow > hi-minHigh+geom.Eps {
		return 0, 0, false
	}

	cut = (lo + hi) / 2
	if lowArea+highArea > 0 {
		cut = lo + (hi-lo)*lowArea/(lowArea+highArea)
	}
	cut = math.Max(lo+minLow, math.Min(cut, hi-minHigh))

	lowR, highR := region.Split(axis, cut)
	for _, m := range macros {
		if p.side[m] {
			p.pos[m] = highR.Center()
		} else {
			p.pos[m] = lowR.Center()
		}
	}
	return p.cost(macros), cut, true
}

// cost is the weighted Manhattan cost of every connection touching the
// region: pairs inside it once, pairs leaving it against the outside
// macro's estimate, and edge pulls.
func (p *Partitioner) cost(macros []int) float64 {
	var c float64
	for _, m := range macros {
		pm := p.pos[m]
		for _, nb := range p.nbrs[m] {
			if p.in[nb.Macro] {
				if nb.Macro < m {
					continue
				}
				c += float64(nb.Weight) * geom.Manhattan(pm, p.pos[nb.Macro])
				continue
			}
			c += float64(nb.Weight) * geom.Manhattan(pm, p.est[nb.Macro])
		}
		for _, e := range adjacency.Edges() {
			if wt := p.w.EdgeWeight(m, e); wt > 0 {
				c += float64(wt) * e.Distance(p.fence, pm)
			}
		}
	}
	return c
}
