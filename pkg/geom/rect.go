// Package geom provides the axis-aligned rectangle and point types shared by
// the partitioner, the coordinate updater and the renderers.
package geom

import "math"

// Eps is the tolerance used for containment and overlap comparisons.
const Eps = 1e-9

// Axis selects the coordinate a cut is made along.
type Axis int

const (
	// Vertical cuts split the x range: the low child is the left half.
	Vertical Axis = iota
	// Horizontal cuts split the y range: the low child is the bottom half.
	Horizontal
)

// String returns "vertical" or "horizontal".
func (a Axis) String() string {
	if a == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

// Point is a location in layout units.
type Point struct {
	X, Y float64
}

// Coord returns the coordinate of p that axis cuts.
func (p Point) Coord(axis Axis) float64 {
	if axis == Horizontal {
		return p.Y
	}
	return p.X
}

// Manhattan returns the half-perimeter (L1) distance between a and b.
func Manhattan(a, b Point) float64 {
	return math.Abs(a.X-b.X) + math.Abs(a.Y-b.Y)
}

// Rect is an axis-aligned rectangle given by its lower-left (LX, LY) and
// upper-right (UX, UY) corners. All coordinates are in layout units.
type Rect struct {
	LX float64 `json:"lx" bson:"lx"`
	LY float64 `json:"ly" bson:"ly"`
	UX float64 `json:"ux" bson:"ux"`
	UY float64 `json:"uy" bson:"uy"`
}

// NewRect builds a rectangle from an origin and a size.
func NewRect(x, y, w, h float64) Rect {
	return Rect{LX: x, LY: y, UX: x + w, UY: y + h}
}

// Valid reports whether LX <= UX and LY <= UY.
func (r Rect) Valid() bool { return r.LX <= r.UX && r.LY <= r.UY }

// IsZero reports whether r is the zero rectangle.
func (r Rect) IsZero() bool { return r == Rect{} }

// Width returns the horizontal span of the rectangle.
func (r Rect) Width() float64 { return r.UX - r.LX }

// Height returns the vertical span of the rectangle.
func (r Rect) Height() float64 { return r.UY - r.LY }

// Area returns Width * Height.
func (r Rect) Area() float64 { return r.Width() * r.Height() }

// CenterX returns the horizontal center point of the rectangle.
func (r Rect) CenterX() float64 { return (r.LX + r.UX) / 2 }

// CenterY returns the vertical center point of the rectangle.
func (r Rect) CenterY() float64 { return (r.LY + r.UY) / 2 }

// Center returns the center point.
func (r Rect) Center() Point { return Point{X: r.CenterX(), Y: r.CenterY()} }

// Extent returns the span of r along the coordinate that axis cuts.
func (r Rect) Extent(axis Axis) float64 {
	if axis == Horizontal {
		return r.Height()
	}
	return r.Width()
}

// Bounds returns the low and high coordinate of r along axis.
func (r Rect) Bounds(axis Axis) (lo, hi float64) {
	if axis == Horizontal {
		return r.LY, r.UY
	}
	return r.LX, r.UX
}

// Contains reports whether o lies fully inside r, within Eps.
func (r Rect) Contains(o Rect) bool {
	return o.LX >= r.LX-Eps && o.LY >= r.LY-Eps &&
		o.UX <= r.UX+Eps && o.UY <= r.UY+Eps
}

// Intersects reports whether r and o share interior area.
// Rectangles that only touch along an edge do not intersect.
func (r Rect) Intersects(o Rect) bool {
	return r.LX < o.UX-Eps && o.LX < r.UX-Eps &&
		r.LY < o.UY-Eps && o.LY < r.UY-Eps
}

// Inflate grows r by dx on the left and right and by dy on the bottom and top.
func (r Rect) Inflate(dx, dy float64) Rect {
	return Rect{LX: r.LX - dx, LY: r.LY - dy, UX: r.UX + dx, UY: r.UY + dy}
}

// Translate moves r by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{LX: r.LX + dx, LY: r.LY + dy, UX: r.UX + dx, UY: r.UY + dy}
}

// Split cuts r at coordinate at along axis and returns the low and high parts.
// The cut is clamped into r.
func (r Rect) Split(axis Axis, at float64) (low, high Rect) {
	low, high = r, r
	if axis == Horizontal {
		at = clamp(at, r.LY, r.UY)
		low.UY, high.LY = at, at
		return low, high
	}
	at = clamp(at, r.LX, r.UX)
	low.UX, high.LX = at, at
	return low, high
}

// ClampPoint returns the point of r closest to p.
func (r Rect) ClampPoint(p Point) Point {
	return Point{X: clamp(p.X, r.LX, r.UX), Y: clamp(p.Y, r.LY, r.UY)}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
