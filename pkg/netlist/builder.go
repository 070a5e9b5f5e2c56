package netlist

import (
	"fmt"

	"github.com/matzehuels/macroplace/pkg/geom"
)

// Builder assembles a [Design] programmatically. Methods record the first
// error and become no-ops afterwards; Build returns it.
//
//	d, err := netlist.NewBuilder("top", geom.Rect{UX: 100, UY: 100}).
//	    Macro("A", 10, 10, "I", "O").
//	    Macro("B", 10, 10, "I", "O").
//	    Connect("A/O", "B/I").
//	    Build()
type Builder struct {
	d    *Design
	nets int
	err  error
}

// NewBuilder starts a design with the given core area.
func NewBuilder(name string, core geom.Rect) *Builder {
	return &Builder{d: &Design{Name: name, Core: core}}
}

// Macro adds a macro with the listed pins. Pin names starting with O, Q or Z
// are outputs, all others are inputs.
func (b *Builder) Macro(name string, w, h float64, pins ...string) *Builder {
	return b.add(Instance{Name: name, Master: "MACRO", Macro: true, Width: w, Height: h, Pins: guessPins(pins)})
}

// Cell adds a combinational cell.
func (b *Builder) Cell(name string, pins ...string) *Builder {
	return b.add(Instance{Name: name, Master: "CELL", Width: 1, Height: 1, Pins: guessPins(pins)})
}

// Reg adds a register with pins D, CK and Q.
func (b *Builder) Reg(name string) *Builder {
	return b.add(Instance{
		Name:       name,
		Master:     "DFF",
		Sequential: true,
		Width:      1,
		Height:     1,
		Pins: []Pin{
			{Name: "D", Dir: Input, Data: true},
			{Name: "CK", Dir: Input, Clock: true},
			{Name: "Q", Dir: Output},
		},
	})
}

// Instance adds a fully specified instance.
func (b *Builder) Instance(inst Instance) *Builder { return b.add(inst) }

// InPort adds a placed primary input at (x, y).
func (b *Builder) InPort(name string, x, y float64) *Builder {
	b.d.Ports = append(b.d.Ports, Port{Name: name, Dir: Input, X: x, Y: y, Placed: true})
	return b
}

// OutPort adds a placed primary output at (x, y).
func (b *Builder) OutPort(name string, x, y float64) *Builder {
	b.d.Ports = append(b.d.Ports, Port{Name: name, Dir: Output, X: x, Y: y, Placed: true})
	return b
}

// Connect adds a net from driver to loads with a generated name.
func (b *Builder) Connect(driver string, loads ...string) *Builder {
	b.nets++
	b.d.Nets = append(b.d.Nets, Net{Name: fmt.Sprintf("n%d", b.nets), Driver: driver, Loads: loads})
	return b
}

// Build validates and returns the design.
func (b *Builder) Build() (*Design, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.d.Validate(); err != nil {
		return nil, err
	}
	return b.d, nil
}

// MustBuild is Build that panics on error. Intended for tests and examples.
func (b *Builder) MustBuild() *Design {
	d, err := b.Build()
	if err != nil {
		panic(err)
	}
	return d
}

func (b *Builder) add(inst Instance) *Builder {
	if b.err != nil {
		return b
	}
	if b.d.Instance(inst.Name) != nil {
		b.err = fmt.Errorf("duplicate instance %q", inst.Name)
		return b
	}
	b.d.Instances = append(b.d.Instances, inst)
	return b
}

func guessPins(names []string) []Pin {
	pins := make([]Pin, len(names))
	for i, n := range names {
		dir := Input
		if n != "" && (n[0] == 'O' || n[0] == 'Q' || n[0] == 'Z') {
			dir = Output
		}
		pins[i] = Pin{Name: n, Dir: dir}
	}
	return pins
}
