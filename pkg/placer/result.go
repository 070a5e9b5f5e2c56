package placer

import (
	"github.com/matzehuels/macroplace/pkg/adjacency"
	"github.com/matzehuels/macroplace/pkg/errors"
	"github.com/matzehuels/macroplace/pkg/geom"
	"github.com/matzehuels/macroplace/pkg/macro"
	"github.com/matzehuels/macroplace/pkg/netlist"
	"github.com/matzehuels/macroplace/pkg/partition"
)

// Result is the outcome of one placement run.
type Result struct {
	RunID         string  `json:"run_id"`
	Design        string  `json:"design"`
	WeightedWL    float64 `json:"weighted_wl"`
	SolutionCount int     `json:"solution_count"`

	// BestCandidate is the index of the winning candidate; its seed is
	// Seed + BestCandidate.
	BestCandidate int                 `json:"best_candidate"`
	Seed          uint64              `json:"seed"`
	Fence         geom.Rect           `json:"fence"`
	Placements    []netlist.Placement `json:"placements"`

	// Macros carries sizes and spacing alongside the coordinates so results
	// can be rendered without the design.
	Macros        []macro.Macro           `json:"macros,omitempty"`
	EdgePinCounts adjacency.EdgePinCounts `json:"edge_pin_counts"`
	Pairs         []PairWeight            `json:"pairs,omitempty"`
	EdgeWeights   []EdgeWeight            `json:"edge_weights,omitempty"`
	Warnings      []errors.Warning        `json:"warnings,omitempty"`
	Tree          *partition.Tree         `json:"tree,omitempty"`
}

// Connectivity is the connection weight report of one design.
type Connectivity struct {
	Design        string                  `json:"design"`
	EdgePinCounts adjacency.EdgePinCounts `json:"edge_pin_counts"`
	Pairs         []PairWeight            `json:"pairs"`
	EdgeWeights   []EdgeWeight            `json:"edge_weights"`
	Warnings      []errors.Warning        `json:"warnings,omitempty"`
}

// PairWeight is a named macro pair and its connection weight.
type PairWeight struct {
	A      string `json:"a"`
	B      string `json:"b"`
	Weight int    `json:"weight"`
}

// EdgeWeight is a named macro's pull towards a boundary edge.
type EdgeWeight struct {
	Macro  string         `json:"macro"`
	Edge   adjacency.Edge `json:"edge"`
	Weight int            `json:"weight"`
}

// Placement returns the placement of the named macro.
func (r *Result) Placement(name string) (netlist.Placement, bool) {
	for _, p := range r.Placements {
		if p.Name == name {
			return p, true
		}
	}
	return netlist.Placement{}, false
}

// Clamped returns the names of macros that had to be clamped.
func (r *Result) Clamped() []string {
	var out []string
	for _, p := range r.Placements {
		if p.Clamped {
			out = append(out, p.Name)
		}
	}
	return out
}
