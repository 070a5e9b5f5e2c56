package netlist

// BFS is a levelized forward breadth-first iterator over a [Graph].
//
// Vertices are emitted in increasing level order (see [Graph.Levelize]) and
// in enqueue order within a level, so when every predecessor of a vertex has
// a lower level, all of them are emitted before it. Each vertex is emitted
// at most once per round; [BFS.Reset] starts a new round.
//
// BFS is not safe for concurrent use.
type BFS struct {
	g       *Graph
	levels  []int
	skip    func(VertexID) bool
	buckets map[int][]VertexID
	queued  []bool
	visited []bool
	cur     int
	maxLvl  int
	pending int
}

// NewBFS creates an iterator using levels from [Graph.Levelize]. Vertices
// for which skip returns true are never queued by EnqueueAdjacent; skip may
// be nil.
func NewBFS(g *Graph, levels []int, skip func(VertexID) bool) *BFS {
	return &BFS{
		g:       g,
		levels:  levels,
		skip:    skip,
		buckets: make(map[int][]VertexID),
		queued:  make([]bool, g.Len()),
		visited: make([]bool, g.Len()),
		maxLvl:  -1,
	}
}

// Enqueue schedules v unless it is pending or was emitted this round.
func (b *BFS) Enqueue(v VertexID) {
	if b.queued[v] || b.visited[v] {
		return
	}
	b.queued[v] = true
	lvl := b.levels[v]
	b.buckets[lvl] = append(b.buckets[lvl], v)
	if lvl < b.cur {
		b.cur = lvl
	}
	b.maxLvl = max(b.maxLvl, lvl)
	b.pending++
}

// EnqueueAdjacent schedules every successor of v that is not skipped.
func (b *BFS) EnqueueAdjacent(v VertexID) {
	for _, w := range b.g.Fanout(v) {
		if b.skip != nil && b.skip(w) {
			continue
		}
		b.Enqueue(w)
	}
}

// HasNext reports whether vertices are pending.
func (b *BFS) HasNext() bool { return b.pending > 0 }

// Next pops the lowest-level pending vertex. It panics when nothing is
// pending; guard calls with HasNext.
func (b *BFS) Next() VertexID {
	for b.cur <= b.maxLvl {
		q := b.buckets[b.cur]
		if len(q) == 0 {
			delete(b.buckets, b.cur)
			b.cur++
			continue
		}
		v := q[0]
		b.buckets[b.cur] = q[1:]
		b.queued[v] = false
		b.visited[v] = true
		b.pending--
		return v
	}
	panic("netlist: BFS.Next called with nothing pending")
}

// Visited reports whether v was emitted this round.
func (b *BFS) Visited(v VertexID) bool { return b.visited[v] }

// Reset drops pending vertices and starts a new round.
func (b *BFS) Reset() {
	clear(b.queued)
	clear(b.visited)
	clear(b.buckets)
	b.cur, b.maxLvl, b.pending = 0, -1, 0
}
