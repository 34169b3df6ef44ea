// Package pathfind searches the movement graph. Find is a bounded A*; Backward searches from
// the goal over inverse edges; Detour picks a single step that makes progress when neither
// finds a full path.
package pathfind

import (
	"container/heap"
	"errors"

	"gridmind.ai/internal/sim/capability"
	"gridmind.ai/internal/sim/movement"
	"gridmind.ai/internal/sim/voxel"
)

var (
	ErrNoPath = errors.New("pathfind: no path")
	ErrBudget = errors.New("pathfind: expansion budget exhausted")
)

const DefaultMaxExpansions = 4096

// Goal is a target cell. With Adjacent set, any cell touching Cell (but not Cell itself)
// satisfies it, which is what work tasks on solid blocks need.
type Goal struct {
	Cell     voxel.Vec3i
	Adjacent bool
}

func (g Goal) Reached(s movement.State) bool {
	if s.Riding() {
		return false
	}
	if !g.Adjacent {
		return s.Cell == g.Cell
	}
	return s.Cell != g.Cell && chebyshev(s.Cell, g.Cell) <= 1
}

// Searcher holds reusable search storage. Not safe for concurrent use.
type Searcher struct {
	Gen           *movement.Generator
	MaxExpansions int

	scratch movement.Scratch
	nodes   []node
	index   map[movement.Key]int32
	open    openList
	seq     uint64

	// Expanded is the number of nodes closed by the last search.
	Expanded int
}

type node struct {
	state  movement.State
	edge   movement.Edge
	parent int32
	g      float64
	closed bool
}

func NewSearcher(gen *movement.Generator, maxExpansions int) *Searcher {
	return &Searcher{Gen: gen, MaxExpansions: maxExpansions}
}

func (s *Searcher) budget() int {
	if s.MaxExpansions > 0 {
		return s.MaxExpansions
	}
	return DefaultMaxExpansions
}

func (s *Searcher) reset() {
	s.nodes = s.nodes[:0]
	s.open = s.open[:0]
	s.seq = 0
	s.Expanded = 0
	if s.index == nil {
		s.index = make(map[movement.Key]int32, 1024)
	} else {
		clear(s.index)
	}
}

// Find returns the edges leading from from to goal, in order. An empty slice with a nil error
// means from already satisfies goal. Ties in f are broken by insertion order, so results are
// deterministic. Paths through elevators and teleporters may be suboptimal: those edges cover
// more distance than the heuristic assumes.
func (s *Searcher) Find(m movement.Mover, from movement.State, goal Goal) ([]movement.Edge, error) {
	if goal.Reached(from) {
		return nil, nil
	}
	s.reset()
	minCost := cheapest(m.Caps)
	h := func(c voxel.Vec3i) float64 {
		d := chebyshev(c, goal.Cell)
		if goal.Adjacent && d > 0 {
			d--
		}
		return float64(d) * minCost
	}

	s.push(from, movement.Edge{}, -1, 0, h(from.Cell))
	for s.open.Len() > 0 {
		it := heap.Pop(&s.open).(item)
		n := &s.nodes[it.idx]
		if n.closed {
			continue
		}
		n.closed = true
		if goal.Reached(n.state) {
			return s.trace(it.idx), nil
		}
		if s.Expanded >= s.budget() {
			return nil, ErrBudget
		}
		s.Expanded++

		cur, g := it.idx, n.g
		for e := range s.Gen.Edges(&s.scratch, m, n.state) {
			cost := g + e.Cost(m.Caps)
			if i, ok := s.index[e.Dest.Key()]; ok {
				dn := &s.nodes[i]
				if dn.closed || cost >= dn.g {
					continue
				}
				dn.g, dn.parent, dn.edge, dn.state = cost, cur, e, e.Dest
				s.seq++
				heap.Push(&s.open, item{f: cost + h(e.Dest.Cell), seq: s.seq, idx: i})
				continue
			}
			s.push(e.Dest, e, cur, cost, h(e.Dest.Cell))
		}
	}
	return nil, ErrNoPath
}

func (s *Searcher) push(st movement.State, e movement.Edge, parent int32, g, h float64) {
	idx := int32(len(s.nodes))
	s.nodes = append(s.nodes, node{state: st, edge: e, parent: parent, g: g})
	s.index[st.Key()] = idx
	s.seq++
	heap.Push(&s.open, item{f: g + h, seq: s.seq, idx: idx})
}

func (s *Searcher) trace(idx int32) []movement.Edge {
	n := 0
	for i := idx; s.nodes[i].parent >= 0; i = s.nodes[i].parent {
		n++
	}
	out := make([]movement.Edge, n)
	for i := idx; s.nodes[i].parent >= 0; i = s.nodes[i].parent {
		n--
		out[n] = s.nodes[i].edge
	}
	return out
}

// cheapest is the lowest positive cost among enabled kinds, used to scale the heuristic.
func cheapest(t *capability.Table) float64 {
	best := 0.0
	for _, k := range t.Enabled() {
		c := t.Cost(k)
		if c > 0 && (best == 0 || c < best) {
			best = c
		}
	}
	if best == 0 {
		return 1
	}
	return best
}

func chebyshev(a, b voxel.Vec3i) int {
	d := a.Sub(b)
	m := voxel.AbsInt(d.X)
	if y := voxel.AbsInt(d.Y); y > m {
		m = y
	}
	if z := voxel.AbsInt(d.Z); z > m {
		m = z
	}
	return m
}

type item struct {
	f   float64
	seq uint64
	idx int32
}

type openList []item

func (o openList) Len() int { return len(o) }
func (o openList) Less(i, j int) bool {
	if o[i].f != o[j].f {
		return o[i].f < o[j].f
	}
	return o[i].seq < o[j].seq
}
func (o openList) Swap(i, j int) { o[i], o[j] = o[j], o[i] }
func (o *openList) Push(x any)   { *o = append(*o, x.(item)) }
func (o *openList) Pop() any {
	old := *o
	it := old[len(old)-1]
	*o = old[:len(old)-1]
	return it
}
