package movement

import (
	"iter"

	"gridmind.ai/internal/sim/capability"
	"gridmind.ai/internal/sim/entities"
	"gridmind.ai/internal/sim/voxel"
)

// maxInverseTeleportRadius caps the launch-cell scan around a teleport target.
const maxInverseTeleportRadius = 6

// InverseEdges yields edges that end in to. It reruns forward generation from all 26
// neighbors and scans launch cells around a teleport target, so it is expensive; use it
// only as a fallback when forward search fails. Vehicle states are only reachable through
// forward search and are not enumerated here.
//
// The consumer must not call Edges with the same Scratch while iterating.
func (g *Generator) InverseEdges(s *Scratch, m Mover, to State) iter.Seq[Edge] {
	return func(yield func(Edge) bool) {
		if s == nil {
			s = &Scratch{}
		}
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				for dx := -1; dx <= 1; dx++ {
					d := voxel.Vec3i{X: dx, Y: dy, Z: dz}
					if d == (voxel.Vec3i{}) {
						continue
					}
					src := State{Cell: to.Cell.Add(d)}
					if !g.Grid.At(src.Cell).IsEmpty() {
						continue
					}
					for e := range g.Edges(s, m, src) {
						if e.Kind == capability.Teleport || !e.Dest.Equal(to) {
							continue
						}
						if !yield(e) {
							return
						}
					}
				}
			}
		}
		if to.Riding() || !m.Caps.Can(capability.Teleport) || g.Teleporters == nil {
			return
		}
		for _, pad := range g.Teleporters() {
			if pad.Cell() != to.Cell {
				continue
			}
			if !g.teleportSources(s, m, to, pad, yield) {
				return
			}
		}
	}
}

func (g *Generator) teleportSources(s *Scratch, m Mover, to State, pad *entities.Object, yield func(Edge) bool) bool {
	rangeSq := g.teleportRangeSq()
	r := isqrt(rangeSq)
	if r > maxInverseTeleportRadius {
		r = maxInverseTeleportRadius
	}
	s.filled = false
	for dy := -r; dy <= r; dy++ {
		for dz := -r; dz <= r; dz++ {
			for dx := -r; dx <= r; dx++ {
				d := voxel.Vec3i{X: dx, Y: dy, Z: dz}
				if d == (voxel.Vec3i{}) || d.X*d.X+d.Y*d.Y+d.Z*d.Z >= rangeSq {
					continue
				}
				launch := to.Cell.Sub(d)
				if v := g.Grid.At(launch); !v.IsEmpty() || v.Liquid == voxel.MostHazardous && v.Level > 0 {
					continue
				}
				e := Edge{
					Source:         State{Cell: launch},
					Dest:           to,
					Kind:           capability.Teleport,
					Interact:       pad,
					CostMultiplier: 1,
					Offset:         d,
				}
				out, ok := g.validate(s, m, e)
				if !ok {
					continue
				}
				if !yield(out) {
					return false
				}
			}
		}
	}
	return true
}

func isqrt(n int) int {
	if n <= 0 {
		return 0
	}
	r := 0
	for (r+1)*(r+1) <= n {
		r++
	}
	return r
}
