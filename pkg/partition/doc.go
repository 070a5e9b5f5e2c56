// Package partition builds a slicing tree over the fence by recursive
// min-cut bisection of the macro set.
//
// Each region is cut either vertically or horizontally. Candidate cuts come
// from ordering the region's macros by how strongly they are pulled along
// the axis (by macros outside the region and by boundary edges) and trying
// every prefix within the area balance bound. The cheapest candidate, by
// weighted Manhattan distance with every macro at the centre of its region,
// is then refined by moving single macros across the cut.
//
// The cut coordinate divides the region in proportion to the macro area on
// each side, clamped so that both sides can still be shelf-packed
// ([MinExtent]). Leaves are handed to the coordinate updater, which packs
// their macros with [Pack].
//
// Trees are stored as an index arena ([Tree.Nodes]) rather than as linked
// nodes; a Tree is immutable once built and can be read concurrently.
package partition
