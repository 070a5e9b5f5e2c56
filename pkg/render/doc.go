// Package render draws placement results with Graphviz.
//
// Three drawings are available, each produced as a DOT string first:
//
//   - [FloorplanDOT]: the fence with every macro at its placed coordinates,
//     optionally with halo outlines and slicing-tree leaf regions
//   - [AdjacencyDOT]: macros at their centres joined by lines whose width
//     follows the connection weight, plus weighted links to the boundary
//   - [TreeDOT]: the slicing tree itself
//
// The geometric drawings pin every node, so they must be laid out with
// [Neato]; the tree uses [Dot]:
//
//	dot := render.FloorplanDOT(res, render.Options{Halos: true})
//	svg, err := render.RenderSVG(ctx, dot, render.Neato)
//
// Rendering runs Graphviz in-process; no external binaries are needed.
package render
