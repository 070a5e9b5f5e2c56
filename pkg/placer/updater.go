package placer

import (
	"math"

	"github.com/matzehuels/macroplace/pkg/adjacency"
	"github.com/matzehuels/macroplace/pkg/errors"
	"github.com/matzehuels/macroplace/pkg/geom"
	"github.com/matzehuels/macroplace/pkg/macro"
	"github.com/matzehuels/macroplace/pkg/partition"
)

// updater turns a slicing tree into macro coordinates.
type updater struct {
	fence        geom.Rect
	w            *adjacency.Weights
	siteX, siteY float64
}

func newUpdater(fence geom.Rect, w *adjacency.Weights, siteX, siteY float64) *updater {
	return &updater{fence: fence, w: w, siteX: siteX, siteY: siteY}
}

// apply packs every leaf of t and writes coordinates into ms. Leaves are
// packed in tree order; each packed macro's centre replaces its region
// centre as the estimate seen by later leaves.
func (u *updater) apply(t *partition.Tree, ms []macro.Macro) []errors.Warning {
	est := make([]geom.Point, len(ms))
	leaves := t.Leaves()
	for _, l := range leaves {
		n := &t.Nodes[l]
		for _, m := range n.Macros {
			est[m] = n.Region.Center()
		}
	}

	var warnings []errors.Warning
	for _, l := range leaves {
		warnings = append(warnings, u.packLeaf(&t.Nodes[l], ms, est)...)
	}
	return warnings
}

// packLeaf shelf-packs the leaf's footprints, shifts the packed block
// towards the macros' weighted target and clamps it into the region.
// Macros that still overhang the region are clamped individually and
// reported.
func (u *updater) packLeaf(n *partition.Node, ms []macro.Macro, est []geom.Point) []errors.Warning {
	if len(n.Macros) == 0 {
		return nil
	}
	region := n.Region
	sizes := make([]partition.Size, len(n.Macros))
	for k, m := range n.Macros {
		fw, fh := ms[m].FootprintSize()
		sizes[k] = partition.Size{W: fw, H: fh}
	}
	pk := partition.Pack(sizes, region)

	target := u.target(n.Macros, est, region)
	ox := clampRange(target.X-pk.W/2, region.LX, region.UX-pk.W)
	oy := clampRange(target.Y-pk.H/2, region.LY, region.UY-pk.H)

	var warnings []errors.Warning
	for k, m := range n.Macros {
		s := sizes[k]
		fx, fy := ox+pk.Origins[k].X, oy+pk.Origins[k].Y
		if !region.Contains(geom.NewRect(fx, fy, s.W, s.H)) {
			fx = clampRange(fx, region.LX, region.UX-s.W)
			fy = clampRange(fy, region.LY, region.UY-s.H)
			ms[m].Clamped = true
			warnings = append(warnings, errors.NewWarning(errors.ErrCodeOverhangClamp, ms[m].Name,
				"footprint %.2fx%.2f does not fit region %.2fx%.2f, clamped to (%.2f, %.2f)",
				s.W, s.H, region.Width(), region.Height(), fx, fy))
		}
		ms[m].SetFootprintOrigin(fx, fy)
		u.snap(&ms[m], fx, fy)
		est[m] = ms[m].Center()
	}
	return warnings
}

// target is the weighted mean of the positions the leaf's macros connect
// to: macros outside the leaf and boundary edge anchors. Without any
// connection it is the region centre.
func (u *updater) target(members []int, est []geom.Point, region geom.Rect) geom.Point {
	in := make(map[int]bool, len(members))
	for _, m := range members {
		in[m] = true
	}
	var sx, sy, sw float64
	for _, m := range members {
		for _, nb := range u.w.Neighbors(m) {
			if in[nb.Macro] {
				continue
			}
			wt := float64(nb.Weight)
			sx += wt * est[nb.Macro].X
			sy += wt * est[nb.Macro].Y
			sw += wt
		}
		for _, e := range adjacency.Edges() {
			if v := u.w.EdgeWeight(m, e); v > 0 {
				a := e.Anchor(u.fence, est[m])
				sx += float64(v) * a.X
				sy += float64(v) * a.Y
				sw += float64(v)
			}
		}
	}
	if sw == 0 {
		return region.Center()
	}
	return geom.Point{X: sx / sw, Y: sy / sw}
}

// snap moves the macro onto the site grid anchored at the fence corner,
// within the slack the channel leaves inside its footprint, so the halo
// rectangle never leaves the footprint at (fx, fy).
func (u *updater) snap(m *macro.Macro, fx, fy float64) {
	if u.siteX > 0 {
		lo := fx + m.HaloX
		m.LX = snapInto(m.LX, lo, lo+m.ChannelX, u.fence.LX, u.siteX)
	}
	if u.siteY > 0 {
		lo := fy + m.HaloY
		m.LY = snapInto(m.LY, lo, lo+m.ChannelY, u.fence.LY, u.siteY)
	}
}

// snapInto returns the grid point origin + k*step nearest to v within
// [lo, hi], or v when the window holds no grid point.
func snapInto(v, lo, hi, origin, step float64) float64 {
	down := origin + math.Floor((v-origin)/step)*step
	up := down + step
	best, found := v, false
	for _, c := range []float64{down, up} {
		if c < lo-geom.Eps || c > hi+geom.Eps {
			continue
		}
		if !found || math.Abs(c-v) < math.Abs(best-v) {
			best, found = c, true
		}
	}
	return best
}

func clampRange(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	return math.Max(lo, math.Min(v, hi))
}
