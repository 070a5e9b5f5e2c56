package adjacency

import (
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/macroplace/pkg/geom"
)

// Edge is one side of the core boundary. Boundary edges act as fixed
// attractors for macros that talk to primary I/O.
type Edge uint8

const (
	West Edge = iota
	East
	North
	South
)

// NumEdges is the number of boundary edges.
const NumEdges = 4

var edgeNames = [NumEdges]string{"west", "east", "north", "south"}

// String returns the lower-case edge name.
func (e Edge) String() string {
	if int(e) < NumEdges {
		return edgeNames[e]
	}
	return fmt.Sprintf("edge(%d)", int(e))
}

// Index returns e as a dense index in [0, NumEdges).
func (e Edge) Index() int { return int(e) }

// EdgeFromIndex converts a dense index back to an Edge.
func EdgeFromIndex(i int) (Edge, bool) {
	if i < 0 || i >= NumEdges {
		return 0, false
	}
	return Edge(i), true
}

// Edges lists all edges in index order.
func Edges() [NumEdges]Edge { return [NumEdges]Edge{West, East, North, South} }

// Distance returns the distance from p to edge e of core.
func (e Edge) Distance(core geom.Rect, p geom.Point) float64 {
	switch e {
	case West:
		return math.Abs(p.X - core.LX)
	case East:
		return math.Abs(core.UX - p.X)
	case North:
		return math.Abs(core.UY - p.Y)
	default:
		return math.Abs(p.Y - core.LY)
	}
}

// Anchor projects p onto edge e. Wirelength to an edge is measured to
// this point.
func (e Edge) Anchor(core geom.Rect, p geom.Point) geom.Point {
	p = core.ClampPoint(p)
	switch e {
	case West:
		p.X = core.LX
	case East:
		p.X = core.UX
	case North:
		p.Y = core.UY
	default:
		p.Y = core.LY
	}
	return p
}

// TieBreak selects the nearest-edge rule when distances are equal.
type TieBreak uint8

const (
	// PreferHorizontal picks West/East whenever the closer of the two is at
	// least as close as the closer of North/South. West wins dW == dE and
	// North wins dN == dS.
	PreferHorizontal TieBreak = iota
	// PreferVertical picks North/South whenever the closer of the two is at
	// least as close as the closer of West/East. Same per-axis winners.
	PreferVertical
)

// String returns "horizontal" or "vertical".
func (t TieBreak) String() string {
	if t == PreferVertical {
		return "vertical"
	}
	return "horizontal"
}

// ParseTieBreak parses "horizontal"/"h" or "vertical"/"v". The empty
// string selects PreferHorizontal.
func ParseTieBreak(s string) (TieBreak, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "horizontal", "h":
		return PreferHorizontal, nil
	case "vertical", "v":
		return PreferVertical, nil
	}
	return PreferHorizontal, fmt.Errorf("unknown tie-break %q (want horizontal or vertical)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t TieBreak) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TieBreak) UnmarshalText(b []byte) error {
	v, err := ParseTieBreak(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// NearestEdge returns the boundary edge of core closest to p.
func NearestEdge(core geom.Rect, p geom.Point, tb TieBreak) Edge {
	dW, dE := West.Distance(core, p), East.Distance(core, p)
	dN, dS := North.Distance(core, p), South.Distance(core, p)

	horiz := West
	if dE < dW {
		horiz = East
	}
	vert := North
	if dS < dN {
		vert = South
	}

	h, v := min(dW, dE), min(dN, dS)
	if tb == PreferVertical {
		if v <= h {
			return vert
		}
		return horiz
	}
	if h <= v {
		return horiz
	}
	return vert
}

// MarshalText encodes the edge by name.
func (e Edge) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

// UnmarshalText decodes an edge name.
func (e *Edge) UnmarshalText(b []byte) error {
	for i, n := range edgeNames {
		if n == strings.ToLower(string(b)) {
			*e = Edge(i)
			return nil
		}
	}
	return fmt.Errorf("unknown edge %q", b)
}
