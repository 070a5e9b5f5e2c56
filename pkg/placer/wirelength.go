package placer

import (
	"github.com/matzehuels/macroplace/pkg/adjacency"
	"github.com/matzehuels/macroplace/pkg/geom"
	"github.com/matzehuels/macroplace/pkg/macro"
)

// WeightedWL is the placement objective: the sum over macro pairs of
// weight times the Manhattan distance between centres, plus the sum over
// macro-edge links of weight times the distance from the macro centre to
// that fence edge. Macros without connections contribute nothing.
func WeightedWL(ms []macro.Macro, w *adjacency.Weights, fence geom.Rect) float64 {
	var wl float64
	for a := range ms {
		ca := ms[a].Center()
		for _, nb := range w.Neighbors(a) {
			if nb.Macro <= a {
				continue
			}
			wl += float64(nb.Weight) * geom.Manhattan(ca, ms[nb.Macro].Center())
		}
		for _, e := range adjacency.Edges() {
			if v := w.EdgeWeight(a, e); v > 0 {
				wl += float64(v) * e.Distance(fence, ca)
			}
		}
	}
	return wl
}
