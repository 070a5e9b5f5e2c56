package adjacency

import (
	"cmp"
	"slices"
)

// Weights is the symmetric macro-pair weight matrix plus per-macro
// boundary-edge weights. Macros are indexed 0..N-1 in the order of the
// macro slice they were built for.
//
// Weights is mutable only while it is being built; afterwards it is shared
// read-only by the partitioner and the wirelength evaluator.
type Weights struct {
	n    int
	pair []int
	edge [][NumEdges]int
}

// Pair is one nonzero entry of the upper triangle.
type Pair struct {
	A      int `json:"a"`
	B      int `json:"b"`
	Weight int `json:"weight"`
}

// EdgeLink is one nonzero macro-to-edge weight.
type EdgeLink struct {
	Macro  int  `json:"macro"`
	Edge   Edge `json:"edge"`
	Weight int  `json:"weight"`
}

// Neighbor is a connected macro and the weight of the connection.
type Neighbor struct {
	Macro  int
	Weight int
}

// NewWeights returns an all-zero matrix for n macros.
func NewWeights(n int) *Weights {
	return &Weights{
		n:    n,
		pair: make([]int, n*n),
		edge: make([][NumEdges]int, n),
	}
}

// Len returns the number of macros.
func (w *Weights) Len() int { return w.n }

// Weight returns the connection weight between macros a and b.
// Self weights are always zero.
func (w *Weights) Weight(a, b int) int { return w.pair[a*w.n+b] }

// EdgeWeight returns the pull of macro m towards boundary edge e.
func (w *Weights) EdgeWeight(m int, e Edge) int { return w.edge[m][e] }

// AddPair adds delta to both halves of (a, b). Self pairs are ignored.
func (w *Weights) AddPair(a, b, delta int) {
	if a == b {
		return
	}
	w.pair[a*w.n+b] += delta
	w.pair[b*w.n+a] += delta
}

// AddEdge adds delta to the weight between macro m and edge e.
func (w *Weights) AddEdge(m int, e Edge, delta int) {
	w.edge[m][e] += delta
}

// Degree returns the total weight incident to macro m.
func (w *Weights) Degree(m int) int {
	d := 0
	for b := range w.n {
		d += w.pair[m*w.n+b]
	}
	for _, v := range w.edge[m] {
		d += v
	}
	return d
}

// Total returns the sum of all pair weights (each pair once) and all edge
// weights.
func (w *Weights) Total() int {
	t := 0
	for a := range w.n {
		for b := a + 1; b < w.n; b++ {
			t += w.pair[a*w.n+b]
		}
		for _, v := range w.edge[a] {
			t += v
		}
	}
	return t
}

// Neighbors returns the macros connected to m in index order.
func (w *Weights) Neighbors(m int) []Neighbor {
	var out []Neighbor
	for b := range w.n {
		if v := w.pair[m*w.n+b]; v != 0 {
			out = append(out, Neighbor{Macro: b, Weight: v})
		}
	}
	return out
}

// Pairs lists the nonzero pairs with A < B, heaviest first, then by index.
func (w *Weights) Pairs() []Pair {
	var out []Pair
	for a := range w.n {
		for b := a + 1; b < w.n; b++ {
			if v := w.pair[a*w.n+b]; v != 0 {
				out = append(out, Pair{A: a, B: b, Weight: v})
			}
		}
	}
	slices.SortStableFunc(out, func(x, y Pair) int { return cmp.Compare(y.Weight, x.Weight) })
	return out
}

// EdgeLinks lists the nonzero macro-to-edge weights in macro then edge order.
func (w *Weights) EdgeLinks() []EdgeLink {
	var out []EdgeLink
	for m := range w.n {
		for e, v := range w.edge[m] {
			if v != 0 {
				out = append(out, EdgeLink{Macro: m, Edge: Edge(e), Weight: v})
			}
		}
	}
	return out
}
