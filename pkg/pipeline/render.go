package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/macroplace/pkg/cache"
	"github.com/matzehuels/macroplace/pkg/observability"
	"github.com/matzehuels/macroplace/pkg/placer"
	"github.com/matzehuels/macroplace/pkg/render"
)

// RenderWithCacheInfo renders every requested view in every requested
// format and reports whether all of them came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, res *placer.Result, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	data, _ := json.Marshal(res)
	resultHash := cache.Hash(data)

	artifacts := make(map[string][]byte)
	allCached := true
	for _, view := range opts.Views {
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(resultHash, opts.ArtifactKeyOpts(view, format))
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				artifacts[ArtifactName(view, format)] = data
				observability.Cache().OnCacheHit(ctx, "artifact")
				continue
			}
			allCached = false
			observability.Cache().OnCacheMiss(ctx, "artifact")

			out, err := RenderView(ctx, res, view, format, opts)
			if err != nil {
				return nil, false, err
			}
			artifacts[ArtifactName(view, format)] = out
			if err := r.Cache.Set(ctx, key, out, cache.ArtifactTTL); err == nil {
				observability.Cache().OnCacheSet(ctx, "artifact", len(out))
			}
		}
	}
	return artifacts, allCached, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Render(ctx context.Context, res *placer.Result, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, res, opts)
	return artifacts, err
}

// RenderView draws one view of res in one format, without caching.
func RenderView(ctx context.Context, res *placer.Result, view, format string, opts Options) (data []byte, err error) {
	if err := ValidateView(view); err != nil {
		return nil, err
	}
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}
	hooks := observability.Placement()
	start := time.Now()
	hooks.OnRenderStart(ctx, format)
	defer func() { hooks.OnRenderComplete(ctx, format, time.Since(start), err) }()

	ro := render.Options{Size: opts.Size, Halos: opts.Halos, Regions: opts.Regions}
	switch view {
	case ViewAdjacency:
		return render.Render(ctx, render.AdjacencyDOT(res, ro), render.Neato, format)
	case ViewTree:
		return render.Render(ctx, render.TreeDOT(res), render.Dot, format)
	default:
		return render.Render(ctx, render.FloorplanDOT(res, ro), render.Neato, format)
	}
}
