// Package macro holds the macro records placed by the partitioner, along
// with the halo and channel spacing merged from global and per-macro
// configuration.
package macro

import (
	"github.com/matzehuels/macroplace/pkg/errors"
	"github.com/matzehuels/macroplace/pkg/geom"
	"github.com/matzehuels/macroplace/pkg/netlist"
)

// Macro is one placeable block. LX and LY are the lower-left corner of the
// macro body; the footprint adds the halo on every side and half the
// channel on every side.
type Macro struct {
	Name     string  `json:"name"`
	Master   string  `json:"master,omitempty"`
	LX       float64 `json:"lx"`
	LY       float64 `json:"ly"`
	W        float64 `json:"w"`
	H        float64 `json:"h"`
	HaloX    float64 `json:"halo_x,omitempty"`
	HaloY    float64 `json:"halo_y,omitempty"`
	ChannelX float64 `json:"channel_x,omitempty"`
	ChannelY float64 `json:"channel_y,omitempty"`
	Clamped  bool    `json:"clamped,omitempty"`
}

// Validate reports negative sizes or spacing.
func (m *Macro) Validate() error {
	for _, f := range []struct {
		kind string
		v    float64
	}{
		{"width", m.W}, {"height", m.H},
		{"halo_x", m.HaloX}, {"halo_y", m.HaloY},
		{"channel_x", m.ChannelX}, {"channel_y", m.ChannelY},
	} {
		if err := errors.ValidateNonNegative(m.Name+" "+f.kind, f.v); err != nil {
			return err
		}
	}
	return nil
}

// Rect is the macro body.
func (m *Macro) Rect() geom.Rect { return geom.NewRect(m.LX, m.LY, m.W, m.H) }

// HaloRect is the body inflated by the halo. Placed macros must keep these
// disjoint and inside the fence.
func (m *Macro) HaloRect() geom.Rect { return m.Rect().Inflate(m.HaloX, m.HaloY) }

// FootprintSize returns the width and height the macro occupies during
// packing.
func (m *Macro) FootprintSize() (w, h float64) {
	return m.W + 2*m.HaloX + m.ChannelX, m.H + 2*m.HaloY + m.ChannelY
}

// Footprint returns the packing rectangle at the current position.
func (m *Macro) Footprint() geom.Rect {
	w, h := m.FootprintSize()
	return geom.NewRect(m.LX-m.HaloX-m.ChannelX/2, m.LY-m.HaloY-m.ChannelY/2, w, h)
}

// FootprintArea is the area used for feasibility and balance checks.
func (m *Macro) FootprintArea() float64 {
	w, h := m.FootprintSize()
	return w * h
}

// SetFootprintOrigin moves the macro so its footprint's lower-left corner
// is at (x, y).
func (m *Macro) SetFootprintOrigin(x, y float64) {
	m.LX = x + m.HaloX + m.ChannelX/2
	m.LY = y + m.HaloY + m.ChannelY/2
}

// Center returns the centre of the macro body.
func (m *Macro) Center() geom.Point {
	return geom.Point{X: m.LX + m.W/2, Y: m.LY + m.H/2}
}

// Placement converts the macro into a write-back record.
func (m *Macro) Placement() netlist.Placement {
	return netlist.Placement{Name: m.Name, LX: m.LX, LY: m.LY, Clamped: m.Clamped}
}
