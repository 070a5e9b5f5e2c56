package placer

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/macroplace/pkg/adjacency"
	"github.com/matzehuels/macroplace/pkg/errors"
	"github.com/matzehuels/macroplace/pkg/geom"
	"github.com/matzehuels/macroplace/pkg/macro"
	"github.com/matzehuels/macroplace/pkg/netlist"
	"github.com/matzehuels/macroplace/pkg/observability"
	"github.com/matzehuels/macroplace/pkg/partition"
)

// Source provides the design snapshot to place. *netlist.Design implements
// Source for designs already in memory.
type Source interface {
	LoadDesign(ctx context.Context) (*netlist.Design, error)
}

// Sink receives the final macro coordinates. It is called at most once per
// run, and only after a complete solution exists.
type Sink interface {
	WriteBack(ctx context.Context, placements []netlist.Placement) error
}

// Placer places macros. A Placer holds only configuration; every call to
// Place builds its own run state, so one Placer may serve concurrent calls.
type Placer struct {
	opts Options
}

// New validates opts and returns a Placer.
func New(opts Options) (*Placer, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return &Placer{opts: opts}, nil
}

// Options returns the effective options.
func (p *Placer) Options() Options { return p.opts }

// run is the state of one placement invocation. It is created by Place and
// dropped when Place returns.
type run struct {
	design   *netlist.Design
	fence    geom.Rect
	macros   []macro.Macro
	inst     []int
	analysis *adjacency.Analysis
	warnings []errors.Warning
	logger   *log.Logger
}

// candidate is one complete solution.
type candidate struct {
	index    int
	seed     uint64
	macros   []macro.Macro
	tree     *partition.Tree
	wl       float64
	clamped  int
	warnings []errors.Warning
}

// better reports whether c beats best: fewer clamped macros first, then
// lower wirelength, then the lower index.
func (c *candidate) better(best *candidate) bool {
	if c.clamped != best.clamped {
		return c.clamped < best.clamped
	}
	if c.wl < best.wl-geom.Eps {
		return true
	}
	if c.wl > best.wl+geom.Eps {
		return false
	}
	return c.index < best.index
}

// pickBest returns the winning candidate.
func pickBest(cands []*candidate) *candidate {
	best := cands[0]
	for _, c := range cands[1:] {
		if c.better(best) {
			best = c
		}
	}
	return best
}

// Place loads the design from src and computes macro coordinates. Nothing
// is written anywhere; use PlaceAndWrite or apply Result.Placements.
//
// Place fails with MISSING_TIMING_DATA or INFEASIBLE_AREA before any
// candidate is evaluated.
func (p *Placer) Place(ctx context.Context, src Source) (*Result, error) {
	d, err := src.LoadDesign(ctx)
	if err != nil {
		return nil, fmt.Errorf("load design: %w", err)
	}
	return p.PlaceDesign(ctx, d)
}

// PlaceDesign places the macros of d without modifying it.
func (p *Placer) PlaceDesign(ctx context.Context, d *netlist.Design) (res *Result, err error) {
	if d == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no design")
	}
	start := time.Now()
	hooks := observability.Placement()
	var wl float64
	defer func() {
		hooks.OnPlaceComplete(ctx, d.Name, wl, time.Since(start), err)
	}()

	r, err := p.prepare(ctx, d)
	if err != nil {
		return nil, err
	}
	hooks.OnPlaceStart(ctx, d.Name, len(r.macros))

	cands, err := p.solveAll(ctx, r)
	if err != nil {
		return nil, err
	}

	best := pickBest(cands)
	wl = best.wl

	res = r.result(best, len(cands), p.opts.Seed)
	r.logger.Info("placed macros",
		"design", d.Name,
		"macros", len(best.macros),
		"wirelength", fmt.Sprintf("%.2f", best.wl),
		"candidates", len(cands),
		"best", best.index)
	for _, w := range res.Warnings {
		r.logger.Warn(w.Message, "code", w.Code, "subject", w.Subject)
	}
	return res, nil
}

// PlaceAndWrite places the design from src and writes the best solution to
// sink. On any error the sink is never called.
func (p *Placer) PlaceAndWrite(ctx context.Context, src Source, sink Sink) (*Result, error) {
	res, err := p.Place(ctx, src)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := sink.WriteBack(ctx, res.Placements); err != nil {
		return nil, fmt.Errorf("write back: %w", err)
	}
	p.opts.Logger.Debug("wrote placements", "design", res.Design, "count", len(res.Placements))
	return res, nil
}

// prepare builds the run context: macros with merged spacing, the fence,
// the area check and the adjacency analysis.
func (p *Placer) prepare(ctx context.Context, d *netlist.Design) (*run, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	r := &run{design: d, fence: p.opts.Fence, logger: p.opts.Logger}
	if r.fence.IsZero() {
		r.fence = d.Core
	}

	r.macros, r.inst, r.warnings = macro.Build(d, p.opts.Spacing, p.opts.Locals)
	for i := range r.macros {
		if err := r.macros[i].Validate(); err != nil {
			return nil, err
		}
	}
	if err := partition.Check(r.fence, r.macros); err != nil {
		return nil, err
	}

	start := time.Now()
	g, err := netlist.BuildGraph(d)
	if err != nil {
		return nil, err
	}
	r.analysis, err = adjacency.Analyze(g, r.inst, p.opts.adjacencyOptions())
	observability.Placement().OnAnalyzeComplete(ctx, d.Name, g.Len(), pairCount(r.analysis), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	r.warnings = append(r.warnings, r.analysis.Warnings...)
	r.logger.Debug("analyzed connectivity",
		"vertices", g.Len(),
		"edges", g.EdgeCount(),
		"macros", len(r.macros),
		"weight", r.analysis.Weights.Total())
	return r, nil
}

func pairCount(a *adjacency.Analysis) int {
	if a == nil {
		return 0
	}
	return len(a.Weights.Pairs())
}

// solveAll evaluates every candidate, concurrently when Parallel is set.
// Each candidate owns its macro copies and its partitioner.
func (p *Placer) solveAll(ctx context.Context, r *run) ([]*candidate, error) {
	out := make([]*candidate, p.opts.Candidates)
	var finished atomic.Int32
	report := func() {
		n := int(finished.Add(1))
		if p.opts.Progress != nil {
			p.opts.Progress(n, len(out))
		}
	}
	if !p.opts.Parallel {
		for i := range out {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			c, err := p.solve(ctx, r, i)
			if err != nil {
				return nil, err
			}
			out[i] = c
			report()
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range out {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c, err := p.solve(gctx, r, i)
			if err != nil {
				return err
			}
			out[i] = c
			report()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// solve partitions with seed Seed+i, packs every leaf and scores the
// result.
func (p *Placer) solve(ctx context.Context, r *run, i int) (*candidate, error) {
	start := time.Now()
	seed := p.opts.Seed + uint64(i)
	c := &candidate{index: i, seed: seed, macros: make([]macro.Macro, len(r.macros))}
	copy(c.macros, r.macros)

	part, err := partition.New(r.fence, c.macros, r.analysis.Weights, p.opts.partitionOptions(seed))
	if err != nil {
		return nil, err
	}
	c.tree = part.Partition()

	u := newUpdater(r.fence, r.analysis.Weights, p.opts.SiteX, p.opts.SiteY)
	c.warnings = u.apply(c.tree, c.macros)
	c.wl = WeightedWL(c.macros, r.analysis.Weights, r.fence)
	for _, m := range c.macros {
		if m.Clamped {
			c.clamped++
		}
	}

	observability.Placement().OnCandidateComplete(ctx, r.design.Name, i, c.wl, time.Since(start))
	r.logger.Debug("evaluated candidate", "candidate", i, "seed", seed, "wirelength", c.wl, "clamped", c.clamped, "leaves", len(c.tree.Leaves()))
	return c, nil
}

func (r *run) result(best *candidate, solutions int, seed uint64) *Result {
	res := &Result{
		RunID:         uuid.NewString(),
		Design:        r.design.Name,
		Fence:         r.fence,
		WeightedWL:    best.wl,
		SolutionCount: solutions,
		BestCandidate: best.index,
		Seed:          seed,
		Macros:        best.macros,
		EdgePinCounts: r.analysis.EdgePinCounts,
		Tree:          best.tree,
	}
	res.Placements = make([]netlist.Placement, len(best.macros))
	for i := range best.macros {
		res.Placements[i] = best.macros[i].Placement()
	}
	res.Pairs, res.EdgeWeights = namedWeights(r.analysis.Weights, best.macros)
	res.Warnings = append(append([]errors.Warning(nil), r.warnings...), best.warnings...)
	return res
}

func namedWeights(w *adjacency.Weights, macros []macro.Macro) ([]PairWeight, []EdgeWeight) {
	var pairs []PairWeight
	for _, pr := range w.Pairs() {
		pairs = append(pairs, PairWeight{A: macros[pr.A].Name, B: macros[pr.B].Name, Weight: pr.Weight})
	}
	var edges []EdgeWeight
	for _, l := range w.EdgeLinks() {
		edges = append(edges, EdgeWeight{Macro: macros[l.Macro].Name, Edge: l.Edge, Weight: l.Weight})
	}
	return pairs, edges
}

// Analyze derives the connection weights of d without placing it. The
// fence area check is skipped, so weights of designs that cannot be placed
// can still be inspected.
func (p *Placer) Analyze(ctx context.Context, d *netlist.Design) (*Connectivity, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	macros, inst, warnings := macro.Build(d, p.opts.Spacing, p.opts.Locals)
	g, err := netlist.BuildGraph(d)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	a, err := adjacency.Analyze(g, inst, p.opts.adjacencyOptions())
	observability.Placement().OnAnalyzeComplete(ctx, d.Name, g.Len(), pairCount(a), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	c := &Connectivity{
		Design:        d.Name,
		EdgePinCounts: a.EdgePinCounts,
		Warnings:      append(warnings, a.Warnings...),
	}
	c.Pairs, c.EdgeWeights = namedWeights(a.Weights, macros)
	return c, nil
}
