package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/macroplace/pkg/cache"
	mpio "github.com/matzehuels/macroplace/pkg/io"
	"github.com/matzehuels/macroplace/pkg/netlist"
	"github.com/matzehuels/macroplace/pkg/observability"
	"github.com/matzehuels/macroplace/pkg/placer"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger; it doesn't store
// pipeline results. Multiple goroutines can safely use the same Runner with
// different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs load → place → render. Nothing is written back; see
// [Runner.ExecuteAndWrite].
func (r *Runner) Execute(ctx context.Context, src placer.Source, opts Options) (*Result, error) {
	return r.execute(ctx, src, nil, opts)
}

// ExecuteAndWrite runs the pipeline and writes the placement to sink
// before rendering. On any placement error the sink is never called.
func (r *Runner) ExecuteAndWrite(ctx context.Context, src placer.Source, sink placer.Sink, opts Options) (*Result, error) {
	return r.execute(ctx, src, sink, opts)
}

func (r *Runner) execute(ctx context.Context, src placer.Source, sink placer.Sink, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	result := &Result{Artifacts: make(map[string][]byte)}

	// Stage 1: Load
	loadStart := time.Now()
	d, err := src.LoadDesign(ctx)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Design = d
	result.DesignHash = DesignHash(d)
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.Instances = len(d.Instances)
	result.Stats.Macros = len(d.MacroInstances())
	result.Stats.Nets = len(d.Nets)

	r.Logger.Info("loaded design",
		"design", d.Name,
		"instances", result.Stats.Instances,
		"macros", result.Stats.Macros,
		"nets", result.Stats.Nets)

	// Stage 2: Place
	placeStart := time.Now()
	res, hit, err := r.placeHashed(ctx, d, result.DesignHash, opts)
	if err != nil {
		return nil, err
	}
	result.Placement = res
	result.Stats.PlaceTime = time.Since(placeStart)
	result.CacheInfo.PlaceHit = hit

	r.Logger.Info("placed macros",
		"wirelength", fmt.Sprintf("%.2f", res.WeightedWL),
		"clamped", len(res.Clamped()),
		"cached", hit,
		"duration", result.Stats.PlaceTime)

	if sink != nil {
		if err := sink.WriteBack(ctx, res.Placements); err != nil {
			return nil, fmt.Errorf("write back: %w", err)
		}
	}

	// Stage 3: Render
	if len(opts.Views) == 0 {
		return result, nil
	}
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, res, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"views", opts.Views,
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// PlaceWithCacheInfo places d, reusing a cached result for the same design
// content and placement options, and reports whether the cache was hit.
func (r *Runner) PlaceWithCacheInfo(ctx context.Context, d *netlist.Design, opts Options) (*placer.Result, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	return r.placeHashed(ctx, d, DesignHash(d), opts)
}

// Place is a convenience wrapper that calls PlaceWithCacheInfo and discards
// the cache hit info.
func (r *Runner) Place(ctx context.Context, d *netlist.Design, opts Options) (*placer.Result, error) {
	res, _, err := r.PlaceWithCacheInfo(ctx, d, opts)
	return res, err
}

func (r *Runner) placeHashed(ctx context.Context, d *netlist.Design, designHash string, opts Options) (*placer.Result, bool, error) {
	hooks := observability.Cache()
	cacheKey := r.Keyer.PlacementKey(designHash, opts.PlacementKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if res, err := mpio.ReadResult(bytes.NewReader(data)); err == nil {
				hooks.OnCacheHit(ctx, "placement")
				return res, true, nil
			}
		} else if err != nil {
			r.Logger.Warn("cache lookup failed", "error", err)
		}
		hooks.OnCacheMiss(ctx, "placement")
	}

	p, err := placer.New(opts.Placement)
	if err != nil {
		return nil, false, err
	}
	res, err := p.PlaceDesign(ctx, d)
	if err != nil {
		return nil, false, err
	}

	var buf bytes.Buffer
	if err := mpio.WriteResult(res, &buf); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, buf.Bytes(), cache.PlacementTTL); err != nil {
			r.Logger.Warn("cache store failed", "error", err)
		} else {
			hooks.OnCacheSet(ctx, "placement", buf.Len())
		}
	}
	return res, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// DesignHash is the content hash of a design's JSON encoding. Current
// instance coordinates are part of it.
func DesignHash(d *netlist.Design) string {
	data, _ := json.Marshal(d)
	return cache.Hash(data)
}
