package macro

import (
	"maps"
	"slices"

	"github.com/matzehuels/macroplace/pkg/errors"
	"github.com/matzehuels/macroplace/pkg/netlist"
)

// Spacing is the global halo and channel applied to every macro.
type Spacing struct {
	HaloX    float64 `json:"halo_x,omitempty" toml:"halo_x"`
	HaloY    float64 `json:"halo_y,omitempty" toml:"halo_y"`
	ChannelX float64 `json:"channel_x,omitempty" toml:"channel_x"`
	ChannelY float64 `json:"channel_y,omitempty" toml:"channel_y"`
}

// Validate rejects negative spacing.
func (s Spacing) Validate() error {
	if err := errors.ValidateNonNegative("halo_x", s.HaloX); err != nil {
		return err
	}
	if err := errors.ValidateNonNegative("halo_y", s.HaloY); err != nil {
		return err
	}
	if err := errors.ValidateNonNegative("channel_x", s.ChannelX); err != nil {
		return err
	}
	return errors.ValidateNonNegative("channel_y", s.ChannelY)
}

// LocalInfo overrides spacing for one macro. Nil fields keep the default.
type LocalInfo struct {
	HaloX    *float64 `json:"halo_x,omitempty" toml:"halo_x"`
	HaloY    *float64 `json:"halo_y,omitempty" toml:"halo_y"`
	ChannelX *float64 `json:"channel_x,omitempty" toml:"channel_x"`
	ChannelY *float64 `json:"channel_y,omitempty" toml:"channel_y"`
}

// Merge returns s with the non-nil, non-negative overrides of l applied.
// Rejected fields are reported by name.
func (l LocalInfo) Merge(s Spacing) (Spacing, []string) {
	var rejected []string
	apply := func(dst *float64, v *float64, kind string) {
		if v == nil {
			return
		}
		if *v < 0 {
			rejected = append(rejected, kind)
			return
		}
		*dst = *v
	}
	apply(&s.HaloX, l.HaloX, "halo_x")
	apply(&s.HaloY, l.HaloY, "halo_y")
	apply(&s.ChannelX, l.ChannelX, "channel_x")
	apply(&s.ChannelY, l.ChannelY, "channel_y")
	return s, rejected
}

// Build creates one Macro per macro instance of d, in design order, with
// spacing merged from defaults and locals (keyed by instance name). The
// returned index slice maps each macro back to its instance.
//
// Negative overrides are reported as CONFIG_ERROR warnings and the default
// is kept. Overrides naming unknown macros are reported the same way.
func Build(d *netlist.Design, defaults Spacing, locals map[string]LocalInfo) ([]Macro, []int, []errors.Warning) {
	idx := d.MacroInstances()
	macros := make([]Macro, len(idx))
	var warnings []errors.Warning

	known := make(map[string]bool, len(idx))
	for k, i := range idx {
		inst := &d.Instances[i]
		known[inst.Name] = true
		sp := defaults
		if l, ok := locals[inst.Name]; ok {
			var rejected []string
			sp, rejected = l.Merge(defaults)
			for _, f := range rejected {
				warnings = append(warnings, errors.NewWarning(errors.ErrCodeConfig, inst.Name,
					"negative %s override ignored", f))
			}
		}
		macros[k] = Macro{
			Name:     inst.Name,
			Master:   inst.Master,
			LX:       inst.X,
			LY:       inst.Y,
			W:        inst.Width,
			H:        inst.Height,
			HaloX:    sp.HaloX,
			HaloY:    sp.HaloY,
			ChannelX: sp.ChannelX,
			ChannelY: sp.ChannelY,
		}
	}

	for _, name := range slices.Sorted(maps.Keys(locals)) {
		if !known[name] {
			warnings = append(warnings, errors.NewWarning(errors.ErrCodeConfig, name,
				"override for unknown macro ignored"))
		}
	}
	return macros, idx, warnings
}

// TotalFootprintArea sums the packing area of all macros.
func TotalFootprintArea(macros []Macro) float64 {
	var a float64
	for i := range macros {
		a += macros[i].FootprintArea()
	}
	return a
}
