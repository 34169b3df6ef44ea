package pathfind

import (
	"container/heap"

	"gridmind.ai/internal/sim/movement"
	"gridmind.ai/internal/sim/voxel"
)

// Backward runs a uniform-cost search from the goal over inverse edges and returns the path
// in forward order. It pays off when the goal sits in a small enclosed area that a forward
// search would only reach after exhausting the open ground around the start. Vehicle states
// are not reachable backwards, so a riding start never matches.
func (s *Searcher) Backward(m movement.Mover, from movement.State, goal Goal) ([]movement.Edge, error) {
	if goal.Reached(from) {
		return nil, nil
	}
	s.reset()
	for _, c := range goalCells(s.Gen.Grid, goal) {
		st := movement.State{Cell: c}
		if _, dup := s.index[st.Key()]; !dup {
			s.push(st, movement.Edge{}, -1, 0, 0)
		}
	}
	want := from.Key()
	for s.open.Len() > 0 {
		it := heap.Pop(&s.open).(item)
		n := &s.nodes[it.idx]
		if n.closed {
			continue
		}
		n.closed = true
		if n.state.Key() == want {
			return s.traceForward(it.idx), nil
		}
		if s.Expanded >= s.budget() {
			return nil, ErrBudget
		}
		s.Expanded++

		cur, g := it.idx, n.g
		for e := range s.Gen.InverseEdges(&s.scratch, m, n.state) {
			cost := g + e.Cost(m.Caps)
			if i, ok := s.index[e.Source.Key()]; ok {
				sn := &s.nodes[i]
				if sn.closed || cost >= sn.g {
					continue
				}
				sn.g, sn.parent, sn.edge, sn.state = cost, cur, e, e.Source
				s.seq++
				heap.Push(&s.open, item{f: cost, seq: s.seq, idx: i})
				continue
			}
			s.push(e.Source, e, cur, cost, 0)
		}
	}
	return nil, ErrNoPath
}

func (s *Searcher) traceForward(idx int32) []movement.Edge {
	var out []movement.Edge
	for i := idx; s.nodes[i].parent >= 0; i = s.nodes[i].parent {
		out = append(out, s.nodes[i].edge)
	}
	return out
}

func goalCells(g movement.Grid, goal Goal) []voxel.Vec3i {
	if !goal.Adjacent {
		return []voxel.Vec3i{goal.Cell}
	}
	out := make([]voxel.Vec3i, 0, 26)
	for dy := -1; dy <= 1; dy++ {
		for dz := -1; dz <= 1; dz++ {
			for dx := -1; dx <= 1; dx++ {
				c := goal.Cell.Add(voxel.Vec3i{X: dx, Y: dy, Z: dz})
				if c == goal.Cell || !g.At(c).IsEmpty() {
					continue
				}
				out = append(out, c)
			}
		}
	}
	return out
}

// Detour attempts to find a next step from start that eventually reduces the Manhattan
// distance to the goal within maxDepth edges. The search is a breadth-first walk in edge
// generation order, so the choice is stable between ticks.
func (s *Searcher) Detour(m movement.Mover, from movement.State, goal Goal, maxDepth int) (movement.Edge, bool) {
	if maxDepth <= 0 {
		return movement.Edge{}, false
	}
	type qItem struct {
		state movement.State
		depth int
		first movement.Edge
	}

	startDist := from.Cell.Manhattan(goal.Cell)
	visited := make(map[movement.Key]bool, 256)
	visited[from.Key()] = true

	queue := make([]qItem, 0, 256)
	for e := range s.Gen.Edges(&s.scratch, m, from) {
		if visited[e.Dest.Key()] {
			continue
		}
		visited[e.Dest.Key()] = true
		queue = append(queue, qItem{state: e.Dest, depth: 1, first: e})
	}

	bestDist, bestDepth := startDist, 0
	var best movement.Edge
	found := false
	for head := 0; head < len(queue) && head < s.budget(); head++ {
		it := queue[head]
		if d := it.state.Cell.Manhattan(goal.Cell); d < startDist {
			if !found || d < bestDist || d == bestDist && it.depth < bestDepth {
				found = true
				bestDist, bestDepth, best = d, it.depth, it.first
			}
		}
		if it.depth >= maxDepth {
			continue
		}
		for e := range s.Gen.Edges(&s.scratch, m, it.state) {
			if visited[e.Dest.Key()] {
				continue
			}
			visited[e.Dest.Key()] = true
			queue = append(queue, qItem{state: e.Dest, depth: it.depth + 1, first: it.first})
		}
	}
	return best, found
}
