package netlist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matzehuels/macroplace/pkg/errors"
	"github.com/matzehuels/macroplace/pkg/geom"
)

// =============================================================================
// Pin Direction
// =============================================================================

// Direction is the signal direction of a pin or port.
type Direction int

const (
	// Input pins are loads; input ports drive the chip.
	Input Direction = iota
	// Output pins are drivers; output ports are loads leaving the chip.
	Output
)

// String returns "input" or "output".
func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// ParseDirection parses "input"/"in" or "output"/"out".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "input", "in":
		return Input, nil
	case "output", "out":
		return Output, nil
	}
	return Input, fmt.Errorf("unknown direction %q", s)
}

// MarshalJSON encodes the direction as a string.
func (d Direction) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes "input" or "output".
func (d *Direction) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	dir, err := ParseDirection(s)
	if err != nil {
		return err
	}
	*d = dir
	return nil
}

// =============================================================================
// Design Records
// =============================================================================

// Pin is a signal terminal of an instance.
type Pin struct {
	Name  string    `json:"name" bson:"name"`
	Dir   Direction `json:"dir" bson:"dir"`
	Clock bool      `json:"clock,omitempty" bson:"clock,omitempty"`
	// Data marks the data inputs of a sequential cell (the D side of D->Q).
	// When a sequential instance flags none, all non-clock inputs are data.
	Data bool `json:"data,omitempty" bson:"data,omitempty"`
}

// Instance is a placed cell or macro in the chip database.
type Instance struct {
	Name       string  `json:"name" bson:"name"`
	Master     string  `json:"master,omitempty" bson:"master,omitempty"`
	Macro      bool    `json:"macro,omitempty" bson:"macro,omitempty"`
	Sequential bool    `json:"sequential,omitempty" bson:"sequential,omitempty"`
	Timing     *bool   `json:"timing,omitempty" bson:"timing,omitempty"`
	Width      float64 `json:"width,omitempty" bson:"width,omitempty"`
	Height     float64 `json:"height,omitempty" bson:"height,omitempty"`
	X          float64 `json:"x" bson:"x"`
	Y          float64 `json:"y" bson:"y"`
	Pins       []Pin   `json:"pins,omitempty" bson:"pins,omitempty"`
}

// HasTiming reports whether the instance has cell timing data.
// A missing Timing field means the data is present.
func (i *Instance) HasTiming() bool { return i.Timing == nil || *i.Timing }

// Pin returns the named pin, or nil.
func (i *Instance) Pin(name string) *Pin {
	for k := range i.Pins {
		if i.Pins[k].Name == name {
			return &i.Pins[k]
		}
	}
	return nil
}

// Port is a primary input or output terminal on the chip boundary.
type Port struct {
	Name   string    `json:"name" bson:"name"`
	Dir    Direction `json:"dir" bson:"dir"`
	X      float64   `json:"x" bson:"x"`
	Y      float64   `json:"y" bson:"y"`
	Placed bool      `json:"placed,omitempty" bson:"placed,omitempty"`
}

// Location returns the port position.
func (p *Port) Location() geom.Point { return geom.Point{X: p.X, Y: p.Y} }

// Net connects one driver to any number of loads. Terminals are referenced
// as "instance/pin" or by bare port name.
type Net struct {
	Name   string   `json:"name" bson:"name"`
	Driver string   `json:"driver" bson:"driver"`
	Loads  []string `json:"loads" bson:"loads"`
}

// Design is a read-only snapshot of the chip database consumed by one
// placement run: the core area, instances, boundary ports and nets.
type Design struct {
	Name      string     `json:"name" bson:"name"`
	Core      geom.Rect  `json:"core" bson:"core"`
	Instances []Instance `json:"instances" bson:"instances"`
	Ports     []Port     `json:"ports,omitempty" bson:"ports,omitempty"`
	Nets      []Net      `json:"nets,omitempty" bson:"nets,omitempty"`
}

// Placement is the final lower-left coordinate of one macro.
type Placement struct {
	Name    string  `json:"name" bson:"name"`
	LX      float64 `json:"lx" bson:"lx"`
	LY      float64 `json:"ly" bson:"ly"`
	Clamped bool    `json:"clamped,omitempty" bson:"clamped,omitempty"`
}

// Instance returns the named instance, or nil.
func (d *Design) Instance(name string) *Instance {
	for i := range d.Instances {
		if d.Instances[i].Name == name {
			return &d.Instances[i]
		}
	}
	return nil
}

// MacroInstances returns the indexes of macro-type instances in design order.
func (d *Design) MacroInstances() []int {
	var out []int
	for i := range d.Instances {
		if d.Instances[i].Macro {
			out = append(out, i)
		}
	}
	return out
}

// Apply writes placements into the matching instances. Unknown names are
// reported as NOT_FOUND and nothing is changed.
func (d *Design) Apply(placements []Placement) error {
	index := make(map[string]int, len(d.Instances))
	for i := range d.Instances {
		index[d.Instances[i].Name] = i
	}
	for _, p := range placements {
		if _, ok := index[p.Name]; !ok {
			return errors.New(errors.ErrCodeNotFound, "instance %q not in design %q", p.Name, d.Name)
		}
	}
	for _, p := range placements {
		inst := &d.Instances[index[p.Name]]
		inst.X, inst.Y = p.LX, p.LY
	}
	return nil
}

// LoadDesign returns a copy of d, so a design held in memory can serve as a
// placement source.
func (d *Design) LoadDesign(context.Context) (*Design, error) { return d.Clone(), nil }

// WriteBack applies placements to d, so a design held in memory can serve as
// a placement sink.
func (d *Design) WriteBack(_ context.Context, placements []Placement) error {
	return d.Apply(placements)
}

// Clone returns a deep copy so callers can mutate coordinates freely.
func (d *Design) Clone() *Design {
	out := &Design{Name: d.Name, Core: d.Core}
	out.Instances = make([]Instance, len(d.Instances))
	for i, inst := range d.Instances {
		inst.Pins = append([]Pin(nil), inst.Pins...)
		if inst.Timing != nil {
			t := *inst.Timing
			inst.Timing = &t
		}
		out.Instances[i] = inst
	}
	out.Ports = append([]Port(nil), d.Ports...)
	out.Nets = make([]Net, len(d.Nets))
	for i, n := range d.Nets {
		n.Loads = append([]string(nil), n.Loads...)
		out.Nets[i] = n
	}
	return out
}

// =============================================================================
// Validation
// =============================================================================

// Validate checks names, geometry and net connectivity.
// Net drivers must be instance outputs or input ports; loads must be
// instance inputs or output ports.
func (d *Design) Validate() error {
	if err := errors.ValidateName("design", d.Name); err != nil {
		return err
	}
	if err := errors.ValidateRect("core", d.Core.LX, d.Core.LY, d.Core.UX, d.Core.UY); err != nil {
		return err
	}

	insts := make(map[string]*Instance, len(d.Instances))
	for i := range d.Instances {
		inst := &d.Instances[i]
		if err := errors.ValidateName("instance", inst.Name); err != nil {
			return err
		}
		if _, dup := insts[inst.Name]; dup {
			return errors.New(errors.ErrCodeInvalidDesign, "duplicate instance %q", inst.Name)
		}
		insts[inst.Name] = inst
		if err := errors.ValidateNonNegative(inst.Name+" width", inst.Width); err != nil {
			return err
		}
		if err := errors.ValidateNonNegative(inst.Name+" height", inst.Height); err != nil {
			return err
		}
		seen := make(map[string]bool, len(inst.Pins))
		for _, p := range inst.Pins {
			if p.Name == "" || seen[p.Name] {
				return errors.New(errors.ErrCodeInvalidDesign, "instance %q has an empty or duplicate pin %q", inst.Name, p.Name)
			}
			if strings.ContainsRune(p.Name, '/') {
				return errors.New(errors.ErrCodeInvalidDesign,
					"instance %q pin %q contains '/'; references split at the last '/', so only instance names may be hierarchical", inst.Name, p.Name)
			}
			seen[p.Name] = true
		}
	}

	ports := make(map[string]*Port, len(d.Ports))
	for i := range d.Ports {
		p := &d.Ports[i]
		if err := errors.ValidateName("port", p.Name); err != nil {
			return err
		}
		if _, dup := ports[p.Name]; dup {
			return errors.New(errors.ErrCodeInvalidDesign, "duplicate port %q", p.Name)
		}
		ports[p.Name] = p
	}

	for _, n := range d.Nets {
		dir, err := resolveDir(n.Driver, insts, ports)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidDesign, err, "net %q driver", n.Name)
		}
		if dir != Output {
			return errors.New(errors.ErrCodeInvalidDesign, "net %q driver %q is not a driver", n.Name, n.Driver)
		}
		for _, l := range n.Loads {
			dir, err := resolveDir(l, insts, ports)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidDesign, err, "net %q load", n.Name)
			}
			if dir != Input {
				return errors.New(errors.ErrCodeInvalidDesign, "net %q load %q is not a load", n.Name, l)
			}
		}
	}
	return nil
}

// resolveDir returns the driver/load role of a terminal reference:
// Output means it drives a net, Input means it loads one.
func resolveDir(ref string, insts map[string]*Instance, ports map[string]*Port) (Direction, error) {
	if p, ok := ports[ref]; ok {
		// An input port drives the chip, an output port loads it.
		if p.Dir == Input {
			return Output, nil
		}
		return Input, nil
	}
	inst, pin, ok := SplitRef(ref)
	if !ok {
		return Input, fmt.Errorf("unknown terminal %q", ref)
	}
	i, ok := insts[inst]
	if !ok {
		return Input, fmt.Errorf("unknown instance in %q", ref)
	}
	p := i.Pin(pin)
	if p == nil {
		return Input, fmt.Errorf("unknown pin in %q", ref)
	}
	return p.Dir, nil
}

// SplitRef splits "inst/pin" at the last slash so hierarchical instance
// names keep their separators.
func SplitRef(ref string) (inst, pin string, ok bool) {
	i := strings.LastIndexByte(ref, '/')
	if i <= 0 || i == len(ref)-1 {
		return "", "", false
	}
	return ref[:i], ref[i+1:], true
}

// PinRef joins an instance and pin name into a terminal reference.
func PinRef(inst, pin string) string { return inst + "/" + pin }
