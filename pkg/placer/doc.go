// Package placer computes macro coordinates for a design.
//
// A placement run has four stages, all scoped to one call of
// [Placer.Place]:
//
//  1. Build macros from the design's macro instances, merging global and
//     per-macro halo/channel spacing, and check that their footprints fit
//     the fence area.
//  2. Derive connection weights from the signal graph
//     (see package adjacency).
//  3. For each candidate seed, partition the fence into a slicing tree
//     (see package partition) and pack every leaf.
//  4. Keep the candidate with the lowest [WeightedWL].
//
// Designs come from a [Source] and coordinates go to a [Sink]. The core
// performs no I/O itself:
//
//	p, err := placer.New(placer.Options{Spacing: macro.Spacing{HaloX: 2, HaloY: 2}})
//	if err != nil {
//	    return err
//	}
//	res, err := p.PlaceAndWrite(ctx, src, sink)
//
// MISSING_TIMING_DATA and INFEASIBLE_AREA abort the run before the sink is
// touched. Recoverable problems (unusable spacing overrides, macros clamped
// into a region too small for them) are returned in [Result.Warnings].
package placer
