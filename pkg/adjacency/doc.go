// Package adjacency derives macro-to-macro and macro-to-boundary
// connection weights from a design's signal graph.
//
// # Fanin
//
// [Propagate] labels every vertex of a [netlist.Graph] with the set of
// sources that reach it. A source is either a macro or one of the four
// boundary edges ([West], [East], [North], [South]) that primary inputs are
// mapped to with [NearestEdge]. Registers stop propagation; their outputs
// are then bridged a fixed number of times so that a macro several pipeline
// stages upstream still reaches its consumer:
//
//	A/O -> r0/D   r0/Q -> r1/D   r1/Q -> B/I
//	pass 0: r0/D = {A}
//	pass 1: r0/Q = {A}, r1/D = {A}
//	pass 2: r1/Q = {A}, B/I = {A}
//
// # Weights
//
// [BuildWeights] turns fanin sets into a symmetric integer matrix. Every
// macro input pin contributes one unit per upstream macro and per upstream
// boundary edge; every primary output contributes one unit per macro that
// reaches it. [Weights] is read-only once built and is shared by the
// partitioner and the wirelength evaluation.
package adjacency
