package movement

import (
	"iter"

	"gridmind.ai/internal/sim/capability"
	"gridmind.ai/internal/sim/entities"
	"gridmind.ai/internal/sim/voxel"
)

// Grid answers cell queries. voxel.Grid implements it.
type Grid interface {
	At(p voxel.Vec3i) voxel.Voxel
}

// Broadphase finds objects by bounding volume. entities.Index implements it.
type Broadphase interface {
	Query(box voxel.Box, out []*entities.Object) []*entities.Object
}

const DefaultTeleportRangeSq = 100

// Generator produces movement edges. It never mutates the grid or the objects, so one
// Generator may serve every path search in a frame; per-call storage lives in Scratch.
type Generator struct {
	Grid    Grid
	Objects Broadphase
	// Teleporters supplies the current teleport targets. Optional.
	Teleporters func() []*entities.Object
	// Hostile decides whether a door owned by owner blocks mover. Nil treats any differing
	// non-empty factions as hostile.
	Hostile func(mover, owner string) bool
	// TeleportRangeSq bounds teleport hops by squared cell distance (exclusive).
	TeleportRangeSq int
	// EnableDig turns on dig edges. Off by default: digging lets searches pass through solid
	// cells, which changes every path in the world.
	EnableDig bool
}

// Scratch is caller-owned working storage. Each call to Edges or InverseEdges overwrites it;
// do not share one Scratch between searches that are iterating at the same time.
type Scratch struct {
	hood [3][3][3]voxel.Voxel
	objs []*entities.Object
	far  []*entities.Object
	lo   voxel.Vec3i

	// filled is set once hood and objs describe the current call's source cell.
	filled bool
}

func (s *Scratch) at(d voxel.Vec3i) voxel.Voxel { return s.hood[d.X+1][d.Y+1][d.Z+1] }

var (
	cardinals = [4]voxel.Vec3i{{X: 1}, {X: -1}, {Z: 1}, {Z: -1}}
	diagonals = [4]voxel.Vec3i{{X: 1, Z: 1}, {X: -1, Z: 1}, {X: 1, Z: -1}, {X: -1, Z: -1}}
	up        = voxel.Vec3i{Y: 1}
	down      = voxel.Vec3i{Y: -1}
)

// horizontals is the 8-neighborhood on the source level, cardinals first.
var horizontals = [8]voxel.Vec3i{
	{X: 1}, {X: -1}, {Z: 1}, {Z: -1},
	{X: 1, Z: 1}, {X: -1, Z: 1}, {X: 1, Z: -1}, {X: -1, Z: -1},
}

// Edges lazily yields every legal edge out of from. An empty sequence means the mover is
// stuck; that is not an error.
func (g *Generator) Edges(s *Scratch, m Mover, from State) iter.Seq[Edge] {
	return func(yield func(Edge) bool) {
		if s == nil {
			s = &Scratch{}
		}
		g.generate(s, m, from, yield)
	}
}

func (g *Generator) generate(s *Scratch, m Mover, from State, yield func(Edge) bool) {
	caps := m.Caps
	s.filled = false
	emit := func(e Edge) bool {
		e.Source = from
		e.Offset = e.Dest.Cell.Sub(from.Cell)
		if e.CostMultiplier == 0 {
			e.CostMultiplier = 1
		}
		out, ok := g.validate(s, m, e)
		if !ok {
			return true
		}
		return yield(out)
	}
	step := func(d voxel.Vec3i) State { return State{Cell: from.Cell.Add(d)} }

	// Riding a rail: only leaving it or following the network is possible.
	if from.VehicleKind == VehicleRail {
		if caps.Can(capability.ExitVehicle) {
			if !emit(Edge{Kind: capability.ExitVehicle, Dest: State{Cell: from.Cell}, Interact: from.Vehicle}) {
				return
			}
		}
		if caps.Can(capability.RideVehicle) && from.Vehicle != nil && from.Vehicle.Rail != nil {
			for _, next := range from.Vehicle.Rail.Neighbors {
				if next == nil || next.Object == nil || next.Object == from.PrevVehicle {
					continue
				}
				dest := State{Cell: next.Object.Cell(), VehicleKind: VehicleRail, Vehicle: next.Object, PrevVehicle: from.Vehicle}
				if !emit(Edge{Kind: capability.RideVehicle, Dest: dest, Interact: next.Object}) {
					return
				}
			}
		}
		return
	}

	g.fill(s, from.Cell)
	center := s.at(voxel.Vec3i{})
	below := s.at(down)
	standing := below.IsValid() && !below.IsEmpty()
	submerged := center.Submerged()
	topCovered := !s.at(up).IsEmpty()

	if caps.Can(capability.Teleport) && g.Teleporters != nil {
		for _, pad := range g.Teleporters() {
			c := pad.Cell()
			if c == from.Cell || c.DistSq(from.Cell) >= g.teleportRangeSq() {
				continue
			}
			if !emit(Edge{Kind: capability.Teleport, Dest: State{Cell: c}, Interact: pad}) {
				return
			}
		}
	}

	here := center.Bounds()
	for _, o := range s.objs {
		if !o.Bounds.Intersects(here) {
			continue
		}
		if o.Has(entities.TagClimbable) && caps.Can(capability.Climb) {
			if !emit(Edge{Kind: capability.Climb, Dest: step(up), Interact: o}) {
				return
			}
			if !standing {
				if !emit(Edge{Kind: capability.Climb, Dest: step(down), Interact: o}) {
					return
				}
			}
		}
		if o.Has(entities.TagRail) && o.Rail != nil && caps.Can(capability.RideVehicle) {
			for _, next := range o.Rail.Neighbors {
				if next == nil || next.Object == nil {
					continue
				}
				dest := State{Cell: next.Object.Cell(), VehicleKind: VehicleRail, Vehicle: next.Object, PrevVehicle: o}
				if !emit(Edge{Kind: capability.EnterVehicle, Dest: dest, Interact: o}) {
					return
				}
			}
		}
		if o.Has(entities.TagElevator) && o.Elevator != nil && caps.Can(capability.RideElevator) {
			bias := float64(o.Elevator.Queue + 1)
			for _, exit := range o.Elevator.Exits(o) {
				dest := State{Cell: exit.Cell(), Tag: exit}
				if !emit(Edge{Kind: capability.RideElevator, Dest: dest, Interact: o, CostMultiplier: bias}) {
					return
				}
			}
		}
	}

	if caps.Can(capability.Fly) && !submerged {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				for dx := -1; dx <= 1; dx++ {
					d := voxel.Vec3i{X: dx, Y: dy, Z: dz}
					if d == (voxel.Vec3i{}) || !s.at(d).IsEmpty() {
						continue
					}
					if !emit(Edge{Kind: capability.Fly, Dest: step(d)}) {
						return
					}
				}
			}
		}
	}

	if !submerged && !standing {
		if !emit(Edge{Kind: capability.Fall, Dest: step(down)}) {
			return
		}
	}

	climbingWall := false
	if caps.Can(capability.ClimbWalls) && !topCovered {
		for _, d := range cardinals {
			wall := s.at(d)
			if !wall.IsValid() || wall.IsEmpty() {
				continue
			}
			climbingWall = true
			if !emit(Edge{Kind: capability.ClimbWalls, Dest: step(up), ActionVoxel: wall}) {
				return
			}
			if !standing {
				if !emit(Edge{Kind: capability.ClimbWalls, Dest: step(down), ActionVoxel: wall}) {
					return
				}
			}
			break
		}
	}

	walking := caps.Can(capability.Walk) && standing
	swimming := caps.Can(capability.Swim) && submerged
	if walking || swimming {
		kind := capability.Walk
		if swimming {
			kind = capability.Swim
		}
		for _, d := range cardinals {
			if !s.at(d).IsEmpty() {
				continue
			}
			if !emit(Edge{Kind: kind, Dest: step(d)}) {
				return
			}
		}
		// Diagonals only in open ground, so paths never cut wall corners.
		if !hasNeighbors(s) {
			for _, d := range diagonals {
				if !s.at(d).IsEmpty() {
					continue
				}
				if !emit(Edge{Kind: kind, Dest: step(d)}) {
					return
				}
			}
		}
	}

	if caps.Can(capability.Jump) && !topCovered && (standing || swimming || climbingWall) {
		for _, d := range horizontals {
			n := s.at(d)
			if !n.IsValid() || n.IsEmpty() {
				continue
			}
			if !emit(Edge{Kind: capability.Jump, Dest: step(d.Add(up))}) {
				return
			}
		}
	}

	if g.EnableDig && caps.Can(capability.Dig) {
		for _, d := range append(cardinals[:], down) {
			n := s.at(d)
			if !n.IsValid() || n.IsEmpty() {
				continue
			}
			if !emit(Edge{Kind: capability.Dig, Dest: step(d), ActionVoxel: n}) {
				return
			}
		}
	}
}

// fill loads the 3x3x3 neighborhood and the objects touching it with one broad-phase query.
func (g *Generator) fill(s *Scratch, c voxel.Vec3i) {
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				s.hood[dx+1][dy+1][dz+1] = g.Grid.At(c.Add(voxel.Vec3i{X: dx, Y: dy, Z: dz}))
			}
		}
	}
	s.lo = c.Add(voxel.Vec3i{X: -1, Y: -1, Z: -1})
	s.objs = s.objs[:0]
	if g.Objects != nil {
		s.objs = g.Objects.Query(voxel.CellsBox(s.lo, c.Add(voxel.Vec3i{X: 1, Y: 1, Z: 1})), s.objs)
	}
	s.filled = true
}

// hasNeighbors reports whether any of the 8 cells around the source on its level is solid.
func hasNeighbors(s *Scratch) bool {
	for _, d := range horizontals {
		n := s.at(d)
		if n.IsValid() && !n.IsEmpty() {
			return true
		}
	}
	return false
}

func (g *Generator) validate(s *Scratch, m Mover, e Edge) (Edge, bool) {
	dest := g.Grid.At(e.Dest.Cell)
	if !dest.IsValid() {
		return e, false
	}
	riding := e.Source.Riding() || e.Dest.Riding()
	if !(e.Kind == capability.Dig || riding || dest.IsEmpty() || dest.HasLiquid()) {
		return e, false
	}
	if dest.Liquid == voxel.MostHazardous && dest.Level > 0 {
		return e, false
	}
	if riding {
		return e, true
	}
	box := dest.Bounds()
	for _, o := range g.objectsAt(s, e.Dest.Cell) {
		if !o.Has(entities.TagDoor) || !o.Bounds.Intersects(box) || !g.hostile(m.Faction, o.Faction) {
			continue
		}
		if m.Caps.Can(capability.DestroyObject) {
			e.Kind = capability.DestroyObject
			e.Interact = o
			return e, true
		}
		return e, false
	}
	return e, true
}

// objectsAt reuses the neighborhood objects when c lies inside the last filled
// neighborhood and falls back to a single-cell query otherwise.
func (g *Generator) objectsAt(s *Scratch, c voxel.Vec3i) []*entities.Object {
	if g.Objects == nil {
		return nil
	}
	if d := c.Sub(s.lo); s.filled && d.X >= 0 && d.X < 3 && d.Y >= 0 && d.Y < 3 && d.Z >= 0 && d.Z < 3 {
		return s.objs
	}
	s.far = g.Objects.Query(voxel.CellBox(c), s.far[:0])
	return s.far
}

func (g *Generator) hostile(mover, owner string) bool {
	if g.Hostile != nil {
		return g.Hostile(mover, owner)
	}
	return owner != "" && mover != "" && owner != mover
}

func (g *Generator) teleportRangeSq() int {
	if g.TeleportRangeSq > 0 {
		return g.TeleportRangeSq
	}
	return DefaultTeleportRangeSq
}
