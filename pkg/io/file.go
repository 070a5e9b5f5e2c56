package io

import (
	"context"

	"github.com/matzehuels/macroplace/pkg/netlist"
)

// DesignFile is a design stored as a JSON file. It is a placement source
// and, when Out is set or left empty to update in place, a sink.
//
// WriteBack re-reads Path before applying placements, so edits made to the
// file while placement ran are kept.
type DesignFile struct {
	Path string
	// Out is where WriteBack writes the updated design. Empty means Path.
	Out string
}

// LoadDesign reads and validates the design at Path.
func (f DesignFile) LoadDesign(ctx context.Context) (*netlist.Design, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ImportDesign(f.Path)
}

// WriteBack applies placements to the design at Path and writes the result
// to Out. Nothing is written if any placement names an unknown instance.
func (f DesignFile) WriteBack(ctx context.Context, placements []netlist.Placement) error {
	d, err := f.LoadDesign(ctx)
	if err != nil {
		return err
	}
	if err := d.Apply(placements); err != nil {
		return err
	}
	out := f.Out
	if out == "" {
		out = f.Path
	}
	return ExportDesign(d, out)
}
