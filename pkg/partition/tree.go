package partition

import "github.com/matzehuels/macroplace/pkg/geom"

// Kind tags a tree node.
type Kind uint8

const (
	// Leaf nodes hold macros that are packed together into the region.
	Leaf Kind = iota
	// Internal nodes hold a cut and two children.
	Internal
)

// String returns "leaf" or "internal".
func (k Kind) String() string {
	if k == Internal {
		return "internal"
	}
	return "leaf"
}

// Node is one region of the slicing tree.
type Node struct {
	Kind   Kind      `json:"kind"`
	Region geom.Rect `json:"region"`
	// Macros are the macro indexes of the whole subtree, in ascending order.
	Macros []int `json:"macros"`
	// Left and Right index the low and high children; -1 on leaves.
	Left  int       `json:"left"`
	Right int       `json:"right"`
	Axis  geom.Axis `json:"axis"`
	Cut   float64   `json:"cut"`
	Depth int       `json:"depth"`
}

// IsLeaf reports whether n is a leaf.
func (n *Node) IsLeaf() bool { return n.Kind == Leaf }

// Tree is a slicing tree stored as an arena of nodes. Children always have
// higher indexes than their parent, and nodes appear in breadth-first
// order. A Tree is read-only once returned by the partitioner.
type Tree struct {
	Nodes []Node `json:"nodes"`
	Root  int    `json:"root"`
}

func (t *Tree) add(n Node) int {
	t.Nodes = append(t.Nodes, n)
	return len(t.Nodes) - 1
}

// Leaves returns leaf node indexes in breadth-first order.
func (t *Tree) Leaves() []int {
	var out []int
	for i := range t.Nodes {
		if t.Nodes[i].IsLeaf() {
			out = append(out, i)
		}
	}
	return out
}

// Depth returns the depth of the deepest node.
func (t *Tree) Depth() int {
	d := 0
	for i := range t.Nodes {
		d = max(d, t.Nodes[i].Depth)
	}
	return d
}

// Walk visits nodes depth-first, low child before high child, stopping
// early when fn returns false.
func (t *Tree) Walk(fn func(i int, n *Node) bool) {
	if len(t.Nodes) == 0 {
		return
	}
	stack := []int{t.Root}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.Nodes[i]
		if !fn(i, n) {
			return
		}
		if n.Kind == Internal {
			stack = append(stack, n.Right, n.Left)
		}
	}
}

// LeafOf returns, for every macro, the index of the leaf that holds it.
func (t *Tree) LeafOf(numMacros int) []int {
	out := make([]int, numMacros)
	for i := range out {
		out[i] = -1
	}
	for _, l := range t.Leaves() {
		for _, m := range t.Nodes[l].Macros {
			out[m] = l
		}
	}
	return out
}
