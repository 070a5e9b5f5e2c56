package partition

import (
	"cmp"
	"math"
	"slices"

	"github.com/matzehuels/macroplace/pkg/geom"
)

// Size is a footprint width and height.
type Size struct {
	W, H float64
}

// along returns the size component measured along the axis a cut splits.
func (s Size) along(axis geom.Axis) float64 {
	if axis == geom.Horizontal {
		return s.H
	}
	return s.W
}

func (s Size) cross(axis geom.Axis) float64 {
	if axis == geom.Horizontal {
		return s.W
	}
	return s.H
}

// shelves groups items into shelves stacked along axis, each shelf filling
// a strip of the given cross length. Items are taken tallest-first along
// axis. It returns the shelves as index lists and each shelf's depth.
func shelves(sizes []Size, axis geom.Axis, cross float64) ([][]int, []float64) {
	order := make([]int, len(sizes))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(sizes[b].along(axis), sizes[a].along(axis))
	})

	var (
		out    [][]int
		depths []float64
		used   float64
	)
	for _, i := range order {
		s := sizes[i]
		if len(out) == 0 || used+s.cross(axis) > cross+geom.Eps {
			out = append(out, nil)
			depths = append(depths, s.along(axis))
			used = 0
		}
		k := len(out) - 1
		out[k] = append(out[k], i)
		used += s.cross(axis)
	}
	return out, depths
}

// MinExtent returns the length along axis needed to shelf-pack sizes into
// a strip of the given cross length. It returns +Inf when some item is
// wider than the strip.
func MinExtent(sizes []Size, axis geom.Axis, cross float64) float64 {
	if len(sizes) == 0 {
		return 0
	}
	for _, s := range sizes {
		if s.cross(axis) > cross+geom.Eps {
			return math.Inf(1)
		}
	}
	_, depths := shelves(sizes, axis, cross)
	var total float64
	for _, d := range depths {
		total += d
	}
	return total
}

// Packing is a shelf packing of footprints relative to a region's
// lower-left corner.
type Packing struct {
	// Origins are the footprint lower-left corners, in input order.
	Origins []geom.Point
	// W and H are the bounding box of the packed block.
	W, H float64
	// Fits reports whether the block fits inside the region.
	Fits bool
}

// Pack shelf-packs footprints into region. It tries rows (shelves stacked
// bottom to top) and columns (shelves stacked left to right) and returns
// the arrangement that fits, preferring rows; when neither fits it returns
// the one with the smaller overflow.
func Pack(sizes []Size, region geom.Rect) Packing {
	rows := pack(sizes, geom.Horizontal, region)
	if rows.Fits {
		return rows
	}
	cols := pack(sizes, geom.Vertical, region)
	if cols.Fits {
		return cols
	}
	if overflow(cols, region) < overflow(rows, region) {
		return cols
	}
	return rows
}

func pack(sizes []Size, axis geom.Axis, region geom.Rect) Packing {
	cross := region.Width()
	if axis == geom.Vertical {
		cross = region.Height()
	}
	groups, depths := shelves(sizes, axis, cross)

	p := Packing{Origins: make([]geom.Point, len(sizes))}
	var offset float64
	for k, g := range groups {
		var pos float64
		for _, i := range g {
			if axis == geom.Horizontal {
				p.Origins[i] = geom.Point{X: pos, Y: offset}
			} else {
				p.Origins[i] = geom.Point{X: offset, Y: pos}
			}
			pos += sizes[i].cross(axis)
		}
		if axis == geom.Horizontal {
			p.W = max(p.W, pos)
		} else {
			p.H = max(p.H, pos)
		}
		offset += depths[k]
	}
	if axis == geom.Horizontal {
		p.H = offset
	} else {
		p.W = offset
	}
	p.Fits = p.W <= region.Width()+geom.Eps && p.H <= region.Height()+geom.Eps
	return p
}

func overflow(p Packing, region geom.Rect) float64 {
	return max(0, p.W-region.Width()) + max(0, p.H-region.Height())
}
