// Package netlist models the chip database and timing graph consumed by the
// macro placer.
//
// # Overview
//
// A [Design] is a snapshot of the chip: the core rectangle, the instances
// (standard cells, registers and macros), the boundary ports and the nets
// connecting them. Placement treats it as read-only until the single
// write-back at the end of a run ([Design.Apply]).
//
// [BuildGraph] turns a design into a directed signal [Graph] with one
// vertex per instance pin and per port. Edges follow signal flow:
//
//   - every net contributes driver -> load edges
//   - combinational cells contribute input -> output arcs
//   - registers and macros contribute no internal arcs
//
// Registers are exposed separately ([Graph.Registers]) so that fanin can be
// carried from their data inputs to their outputs as an explicit step
// instead of flowing through them.
//
// # Traversal
//
// [Graph.Levelize] orders vertices so that predecessors come first, treating
// caller-chosen barrier vertices as fresh sources. [BFS] walks vertices in
// that order from any seed set:
//
//	levels, _ := g.Levelize(isSeed)
//	bfs := netlist.NewBFS(g, levels, isSeed)
//	for _, s := range seeds {
//	    bfs.EnqueueAdjacent(s)
//	}
//	for bfs.HasNext() {
//	    v := bfs.Next()
//	    // every predecessor of v has been visited
//	    bfs.EnqueueAdjacent(v)
//	}
//
// # Terminal references
//
// Net terminals are written "instance/pin" for instance pins and as the bare
// port name for ports. Instance names may themselves contain slashes; the
// pin name is everything after the last one ([SplitRef]).
package netlist
