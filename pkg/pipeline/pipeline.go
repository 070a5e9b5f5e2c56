// Package pipeline runs macro placement end to end: load a design, place it
// (reusing cached results), write it back and render the outcome.
//
// The CLI and the API server both drive placement through a [Runner], so
// caching, logging and rendering behave the same on every entry point.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Placement: placer.Options{Spacing: macro.Spacing{HaloX: 2, HaloY: 2}},
//	    Views:     []string{pipeline.ViewFloorplan},
//	    Formats:   []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, io.DesignFile{Path: "soc.json"}, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["floorplan.svg"]
//
// Stages can also be run on their own:
//
//	res, hit, err := runner.PlaceWithCacheInfo(ctx, design, opts)
//	artifacts, err := runner.Render(ctx, res, opts)
package pipeline

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/macroplace/pkg/buildinfo"
	"github.com/matzehuels/macroplace/pkg/cache"
	"github.com/matzehuels/macroplace/pkg/errors"
	"github.com/matzehuels/macroplace/pkg/netlist"
	"github.com/matzehuels/macroplace/pkg/placer"
	"github.com/matzehuels/macroplace/pkg/render"
)

// =============================================================================
// Default Values
// =============================================================================

// Views.
const (
	ViewFloorplan = "floorplan"
	ViewAdjacency = "adjacency"
	ViewTree      = "tree"
)

// ValidViews is the set of supported drawings.
var ValidViews = map[string]bool{
	ViewFloorplan: true,
	ViewAdjacency: true,
	ViewTree:      true,
}

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	render.FormatSVG: true,
	render.FormatPNG: true,
	render.FormatDOT: true,
}

// =============================================================================
// Options
// =============================================================================

// Options configures a pipeline run. It supports JSON for API requests.
type Options struct {
	Placement placer.Options `json:"placement"`

	// Views lists the drawings to render. Empty renders nothing.
	Views   []string `json:"views,omitempty"`
	Formats []string `json:"formats,omitempty"`
	Size    float64  `json:"size,omitempty"`
	Halos   bool     `json:"halos,omitempty"`
	Regions bool     `json:"regions,omitempty"`

	// Refresh skips the cache lookup; the fresh result is still stored.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Design     *netlist.Design
	DesignHash string
	Placement  *placer.Result

	// Artifacts holds rendered drawings keyed "<view>.<format>".
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Instances  int
	Macros     int
	Nets       int
	LoadTime   time.Duration
	PlaceTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each stage.
type CacheInfo struct {
	PlaceHit  bool
	RenderHit bool
}

// =============================================================================
// Validation
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: svg, png, dot)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateView checks that a view is valid.
func ValidateView(view string) error {
	if !ValidViews[view] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid view: %q (must be one of: floorplan, adjacency, tree)", view)
	}
	return nil
}

// Clone returns a deep copy of o that will be validated again. Use it to
// derive per-request options from shared defaults.
func (o Options) Clone() Options {
	o.Placement.Locals = maps.Clone(o.Placement.Locals)
	o.Views = slices.Clone(o.Views)
	o.Formats = slices.Clone(o.Formats)
	o.validated = false
	return o
}

// ValidateAndSetDefaults checks all fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.Placement.Logger == nil {
		o.Placement.Logger = o.Logger
	}
	if err := o.Placement.ValidateAndSetDefaults(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForRender validates views and formats and sets render defaults.
func (o *Options) ValidateForRender() error {
	for _, v := range o.Views {
		if err := ValidateView(v); err != nil {
			return err
		}
	}
	if len(o.Views) > 0 && len(o.Formats) == 0 {
		o.Formats = []string{render.FormatSVG}
	}
	if o.Size == 0 {
		o.Size = render.DefaultSize
	}
	if o.Size < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "invalid size: %v", o.Size)
	}
	return ValidateFormats(o.Formats)
}

// PlacementKeyOpts returns the cache key options for placement. Every
// option that changes the result is part of the key.
func (o *Options) PlacementKeyOpts() cache.PlacementKeyOpts {
	return cache.PlacementKeyOpts{Options: o.Placement, Version: buildinfo.Version}
}

// ArtifactKeyOpts returns the cache key options for one drawing.
func (o *Options) ArtifactKeyOpts(view, format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Kind:   fmt.Sprintf("%s/%.0f/%t/%t", view, o.Size, o.Halos, o.Regions),
		Format: format,
	}
}

// ArtifactName is the key of a drawing in Result.Artifacts.
func ArtifactName(view, format string) string { return view + "." + format }
