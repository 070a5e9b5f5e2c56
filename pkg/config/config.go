package config

import (
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/macroplace/pkg/adjacency"
	"github.com/matzehuels/macroplace/pkg/errors"
	"github.com/matzehuels/macroplace/pkg/geom"
	"github.com/matzehuels/macroplace/pkg/macro"
	"github.com/matzehuels/macroplace/pkg/placer"
)

// =============================================================================
// Global Configuration
// =============================================================================

// Global is the global configuration file. Only the [placement] table is
// read.
type Global struct {
	Placement Placement `toml:"placement"`
}

// Placement holds the [placement] table. Unset keys leave the
// corresponding option untouched.
type Placement struct {
	HaloX    *float64 `toml:"halo_x"`
	HaloY    *float64 `toml:"halo_y"`
	ChannelX *float64 `toml:"channel_x"`
	ChannelY *float64 `toml:"channel_y"`

	// Fence is [lx, ly, ux, uy].
	Fence []float64 `toml:"fence"`

	Candidates    *int     `toml:"candidates"`
	Seed          *int64   `toml:"seed"`
	Parallel      *bool    `toml:"parallel"`
	LeafSize      *int     `toml:"leaf_size"`
	RefinePasses  *int     `toml:"refine_passes"`
	Balance       *float64 `toml:"balance"`
	RegisterDepth *int     `toml:"register_depth"`
	TieBreak      string   `toml:"tie_break"`
	SiteX         *float64 `toml:"site_x"`
	SiteY         *float64 `toml:"site_y"`
}

// LoadGlobal reads a global configuration file. Unreadable or malformed
// files and unknown keys are CONFIG_ERROR errors.
func LoadGlobal(path string) (*Global, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "read %s", path)
	}
	g, err := ParseGlobal(string(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "%s", path)
	}
	return g, nil
}

// ParseGlobal decodes a global configuration document.
func ParseGlobal(doc string) (*Global, error) {
	var g Global
	md, err := toml.Decode(doc, &g)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "parse global config")
	}
	if keys := undecoded(md); len(keys) > 0 {
		return nil, errors.New(errors.ErrCodeConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}
	if n := len(g.Placement.Fence); n != 0 && n != 4 {
		return nil, errors.New(errors.ErrCodeConfig, "fence needs 4 values [lx, ly, ux, uy], got %d", n)
	}
	return &g, nil
}

// Apply copies every set key into o. Values are not validated here;
// o.ValidateAndSetDefaults does that.
func (g *Global) Apply(o *placer.Options) error {
	p := g.Placement
	setF(&o.Spacing.HaloX, p.HaloX)
	setF(&o.Spacing.HaloY, p.HaloY)
	setF(&o.Spacing.ChannelX, p.ChannelX)
	setF(&o.Spacing.ChannelY, p.ChannelY)
	if len(p.Fence) == 4 {
		o.Fence = geom.Rect{LX: p.Fence[0], LY: p.Fence[1], UX: p.Fence[2], UY: p.Fence[3]}
	}
	setI(&o.Candidates, p.Candidates)
	if p.Seed != nil {
		if *p.Seed < 0 {
			return errors.New(errors.ErrCodeConfig, "seed must be non-negative, got %d", *p.Seed)
		}
		o.Seed = uint64(*p.Seed)
	}
	if p.Parallel != nil {
		o.Parallel = *p.Parallel
	}
	setI(&o.LeafSize, p.LeafSize)
	setI(&o.RefinePasses, p.RefinePasses)
	setF(&o.Balance, p.Balance)
	setI(&o.RegisterDepth, p.RegisterDepth)
	if p.TieBreak != "" {
		tb, err := adjacency.ParseTieBreak(p.TieBreak)
		if err != nil {
			return errors.Wrap(errors.ErrCodeConfig, err, "tie_break")
		}
		o.TieBreak = tb
	}
	setF(&o.SiteX, p.SiteX)
	setF(&o.SiteY, p.SiteY)
	return nil
}

func setF(dst, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setI(dst, v *int) {
	if v != nil {
		*dst = *v
	}
}

// =============================================================================
// Local Configuration
// =============================================================================

// Local is the per-macro configuration file:
//
//	[macros."u_core/sram0"]
//	halo_x = 4
//	channel_y = 2
type Local struct {
	Macros map[string]macro.LocalInfo `toml:"macros"`
}

// LoadLocal reads per-macro overrides. A missing or malformed file is not
// fatal: it yields a CONFIG_ERROR warning and no overrides, so placement
// proceeds with the global spacing.
func LoadLocal(path string) (map[string]macro.LocalInfo, []errors.Warning) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []errors.Warning{errors.NewWarning(errors.ErrCodeConfig, path,
			"local config unreadable, using global spacing: %v", err)}
	}
	return ParseLocal(string(data), path)
}

// ParseLocal decodes a local configuration document. subject names the
// document in warnings. Unknown keys inside a macro table are reported and
// ignored.
func ParseLocal(doc, subject string) (map[string]macro.LocalInfo, []errors.Warning) {
	var l Local
	md, err := toml.Decode(doc, &l)
	if err != nil {
		return nil, []errors.Warning{errors.NewWarning(errors.ErrCodeConfig, subject,
			"local config malformed, using global spacing: %v", err)}
	}
	var warnings []errors.Warning
	if keys := undecoded(md); len(keys) > 0 {
		warnings = append(warnings, errors.NewWarning(errors.ErrCodeConfig, subject,
			"ignored unknown keys: %s", strings.Join(keys, ", ")))
	}
	return l.Macros, warnings
}

// Names returns the macro names of a local override map in sorted order.
func Names(locals map[string]macro.LocalInfo) []string {
	return slices.Sorted(maps.Keys(locals))
}

func undecoded(md toml.MetaData) []string {
	var keys []string
	for _, k := range md.Undecoded() {
		keys = append(keys, k.String())
	}
	return keys
}
