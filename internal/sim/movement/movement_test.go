package movement

import (
	"testing"

	"gridmind.ai/internal/sim/capability"
	"gridmind.ai/internal/sim/entities"
	"gridmind.ai/internal/sim/voxel"
)

const (
	air   uint16 = 0
	stone uint16 = 1
)

var origin = voxel.Vec3i{X: 0, Y: 4, Z: 0}

// flatWorld is solid up to y=3; creatures stand at y=4.
func flatWorld() *voxel.Grid {
	return voxel.NewGrid(voxel.Config{
		Height: 32,
		Air:    air,
		Props:  []voxel.BlockProps{{}, {Solid: true}},
		Gen:    voxel.FlatGen{Seed: 7, GroundY: 4, Air: air, Dirt: stone, Stone: stone},
	})
}

func walker(faction string) Mover {
	t := capability.Walker()
	return Mover{Caps: &t, Faction: faction}
}

func only(kinds ...capability.Kind) Mover {
	var t capability.Table
	for _, k := range kinds {
		t.Set(k, true, 1, 1)
	}
	return Mover{Caps: &t}
}

func collect(g *Generator, m Mover, from State) []Edge {
	var out []Edge
	for e := range g.Edges(&Scratch{}, m, from) {
		out = append(out, e)
	}
	return out
}

func countKind(edges []Edge, k capability.Kind) int {
	n := 0
	for _, e := range edges {
		if e.Kind == k {
			n++
		}
	}
	return n
}

func edgeTo(edges []Edge, c voxel.Vec3i) (Edge, bool) {
	for _, e := range edges {
		if e.Dest.Cell == c {
			return e, true
		}
	}
	return Edge{}, false
}

func TestWalkOnOpenGroundHasEightEdges(t *testing.T) {
	g := &Generator{Grid: flatWorld()}
	edges := collect(g, walker("dwarves"), State{Cell: origin})
	if len(edges) != 8 || countKind(edges, capability.Walk) != 8 {
		t.Fatalf("edges=%v want 8 walk edges", edges)
	}
	seen := map[voxel.Vec3i]bool{}
	for _, e := range edges {
		if e.Offset.Y != 0 || e.Offset == (voxel.Vec3i{}) {
			t.Fatalf("unexpected offset %v", e.Offset)
		}
		if e.Offset != e.Dest.Cell.Sub(e.Source.Cell) {
			t.Fatalf("offset %v does not match %v", e.Offset, e)
		}
		seen[e.Offset] = true
	}
	if len(seen) != 8 {
		t.Fatalf("duplicate destinations: %v", edges)
	}
}

func TestDiagonalsSuppressedNextToWalls(t *testing.T) {
	w := flatWorld()
	w.SetBlock(origin.Add(voxel.Vec3i{X: 1, Z: 1}), stone)
	g := &Generator{Grid: w}
	edges := collect(g, walker(""), State{Cell: origin})
	if n := countKind(edges, capability.Walk); n != 4 {
		t.Fatalf("walk edges=%d want 4 cardinals: %v", n, edges)
	}
	jumps := 0
	for _, e := range edges {
		if e.Kind == capability.Walk && e.Offset.X != 0 && e.Offset.Z != 0 {
			t.Fatalf("diagonal walk next to wall: %v", e)
		}
		if e.Kind == capability.Jump {
			jumps++
			if e.Dest.Cell != origin.Add(voxel.Vec3i{X: 1, Y: 1, Z: 1}) {
				t.Fatalf("jump to %v want onto the block", e.Dest.Cell)
			}
		}
	}
	if jumps != 1 {
		t.Fatalf("jumps=%d want 1", jumps)
	}
}

func TestLavaIsNeverADestination(t *testing.T) {
	w := flatWorld()
	lava := origin.Add(voxel.Vec3i{X: 1})
	w.SetLiquid(lava, voxel.LiquidLava, voxel.MaxLiquidLevel)
	g := &Generator{Grid: w}
	edges := collect(g, walker(""), State{Cell: origin})
	if _, ok := edgeTo(edges, lava); ok {
		t.Fatalf("edge into lava: %v", edges)
	}
	if len(edges) != 7 {
		t.Fatalf("edges=%d want 7", len(edges))
	}
}

func TestDoors(t *testing.T) {
	at := origin.Add(voxel.Vec3i{X: 1})
	destroyer := walker("dwarves")
	destroyer.Caps.Set(capability.DestroyObject, true, 5, 1)

	cases := []struct {
		name    string
		owner   string
		mover   Mover
		want    bool
		wantKnd capability.Kind
	}{
		{"friendly door", "dwarves", walker("dwarves"), true, capability.Walk},
		{"unowned door", "", walker("dwarves"), true, capability.Walk},
		{"hostile door blocks", "goblins", walker("dwarves"), false, 0},
		{"hostile door destroyed", "goblins", destroyer, true, capability.DestroyObject},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ix := entities.NewIndex()
			door := entities.NewDoor("door", at, tc.owner)
			ix.Add(door)
			g := &Generator{Grid: flatWorld(), Objects: ix}
			e, ok := edgeTo(collect(g, tc.mover, State{Cell: origin}), at)
			if ok != tc.want {
				t.Fatalf("edge present=%v want %v", ok, tc.want)
			}
			if !ok {
				return
			}
			if e.Kind != tc.wantKnd {
				t.Fatalf("kind=%v want %v", e.Kind, tc.wantKnd)
			}
			if e.Kind == capability.DestroyObject && e.Interact != door {
				t.Fatalf("destroy edge interacts with %v", e.Interact)
			}
		})
	}
}

func TestCustomHostility(t *testing.T) {
	at := origin.Add(voxel.Vec3i{X: 1})
	ix := entities.NewIndex()
	ix.Add(entities.NewDoor("door", at, "elves"))
	g := &Generator{
		Grid:    flatWorld(),
		Objects: ix,
		Hostile: func(mover, owner string) bool { return false },
	}
	if _, ok := edgeTo(collect(g, walker("dwarves"), State{Cell: origin}), at); !ok {
		t.Fatalf("allied door blocked")
	}
}

func TestLadderClimb(t *testing.T) {
	ix := entities.NewIndex()
	ix.Add(entities.NewLadder("l0", origin))
	ix.Add(entities.NewLadder("l1", origin.Add(voxel.Vec3i{Y: 1})))
	g := &Generator{Grid: flatWorld(), Objects: ix}

	edges := collect(g, walker(""), State{Cell: origin})
	if n := countKind(edges, capability.Climb); n != 1 {
		t.Fatalf("climb edges at foot=%d want 1", n)
	}
	if e, _ := edgeTo(edges, origin.Add(voxel.Vec3i{Y: 1})); e.Kind != capability.Climb {
		t.Fatalf("no climb up from foot: %v", edges)
	}

	mid := origin.Add(voxel.Vec3i{Y: 1})
	edges = collect(g, walker(""), State{Cell: mid})
	if n := countKind(edges, capability.Climb); n != 2 {
		t.Fatalf("climb edges mid ladder=%d want 2: %v", n, edges)
	}
	if n := countKind(edges, capability.Fall); n != 1 {
		t.Fatalf("fall edges mid ladder=%d want 1", n)
	}
	if n := countKind(edges, capability.Walk); n != 0 {
		t.Fatalf("walking in the air: %v", edges)
	}
}

func TestWallClimbUsesFirstWall(t *testing.T) {
	w := flatWorld()
	w.SetBlock(origin.Add(voxel.Vec3i{X: 1}), stone)
	w.SetBlock(origin.Add(voxel.Vec3i{X: -1}), stone)
	g := &Generator{Grid: w}
	edges := collect(g, only(capability.ClimbWalls), State{Cell: origin})
	if len(edges) != 1 {
		t.Fatalf("edges=%v want a single climb", edges)
	}
	e := edges[0]
	if e.Dest.Cell != origin.Add(voxel.Vec3i{Y: 1}) || e.ActionVoxel.Pos != origin.Add(voxel.Vec3i{X: 1}) {
		t.Fatalf("climb=%v wall=%v", e, e.ActionVoxel.Pos)
	}
}

func TestFlyInOpenAir(t *testing.T) {
	g := &Generator{Grid: flatWorld()}
	edges := collect(g, only(capability.Fly, capability.Fall), State{Cell: voxel.Vec3i{Y: 10}})
	if n := countKind(edges, capability.Fly); n != 26 {
		t.Fatalf("fly edges=%d want 26", n)
	}
	if n := countKind(edges, capability.Fall); n != 1 {
		t.Fatalf("fall edges=%d want 1", n)
	}
}

func TestRailRideAndExit(t *testing.T) {
	cells := []voxel.Vec3i{origin, origin.Add(voxel.Vec3i{X: 1}), origin.Add(voxel.Vec3i{X: 2})}
	rails := entities.NewRailLine("r", cells...)
	ix := entities.NewIndex()
	for _, r := range rails {
		ix.Add(r)
	}
	g := &Generator{Grid: flatWorld(), Objects: ix}

	from := State{Cell: cells[1], VehicleKind: VehicleRail, Vehicle: rails[1], PrevVehicle: rails[0]}
	edges := collect(g, walker(""), from)
	if len(edges) != 2 {
		t.Fatalf("edges=%v want exit and ride", edges)
	}
	if edges[0].Kind != capability.ExitVehicle || edges[0].Dest.Riding() || edges[0].Dest.Cell != cells[1] {
		t.Fatalf("first edge=%v want exit in place", edges[0])
	}
	ride := edges[1]
	if ride.Kind != capability.RideVehicle || ride.Dest.Vehicle != rails[2] || ride.Dest.PrevVehicle != rails[1] {
		t.Fatalf("ride=%v want forward to r_2", ride)
	}

	// Entering from the ground links to every neighbor of the segment underfoot.
	edges = collect(g, walker(""), State{Cell: cells[1]})
	if n := countKind(edges, capability.EnterVehicle); n != 2 {
		t.Fatalf("enter edges=%d want 2", n)
	}
}

func TestElevatorCostFollowsQueue(t *testing.T) {
	bottom := origin.Add(voxel.Vec3i{X: 3})
	shaft, segs := entities.NewElevator("lift", bottom, 3)
	shaft.Queue = 2
	ix := entities.NewIndex()
	for _, s := range segs {
		ix.Add(s)
	}
	g := &Generator{Grid: flatWorld(), Objects: ix}
	m := walker("")
	var rides []Edge
	for _, e := range collect(g, m, State{Cell: bottom}) {
		if e.Kind == capability.RideElevator {
			rides = append(rides, e)
		}
	}
	if len(rides) != 2 {
		t.Fatalf("rides=%v want 2 exits", rides)
	}
	for i, e := range rides {
		if e.Dest.Tag != segs[i+1] {
			t.Fatalf("ride %d tag=%v want %s", i, e.Dest.Tag, segs[i+1].ID)
		}
		if got := e.Cost(m.Caps); got != 3 {
			t.Fatalf("ride cost=%v want 3", got)
		}
	}
}

func TestTeleportRange(t *testing.T) {
	ix := entities.NewIndex()
	near := entities.NewTeleportPad("near", origin.Add(voxel.Vec3i{X: 5}))
	far := entities.NewTeleportPad("far", origin.Add(voxel.Vec3i{X: 20}))
	edge := entities.NewTeleportPad("edge", origin.Add(voxel.Vec3i{X: 10}))
	for _, p := range []*entities.Object{near, far, edge} {
		ix.Add(p)
	}
	g := &Generator{
		Grid:        flatWorld(),
		Objects:     ix,
		Teleporters: func() []*entities.Object { return ix.TeleportPads() },
	}
	edges := collect(g, only(capability.Teleport), State{Cell: origin})
	if len(edges) != 1 || edges[0].Interact != near {
		t.Fatalf("teleports=%v want only the near pad", edges)
	}
}

func TestDigDisabledByDefault(t *testing.T) {
	m := walker("")
	m.Caps.Set(capability.Dig, true, 25, 1)
	g := &Generator{Grid: flatWorld()}
	if n := countKind(collect(g, m, State{Cell: origin}), capability.Dig); n != 0 {
		t.Fatalf("dig edges=%d with digging off", n)
	}
	g.EnableDig = true
	edges := collect(g, m, State{Cell: origin})
	if n := countKind(edges, capability.Dig); n != 1 {
		t.Fatalf("dig edges=%d want 1 (down)", n)
	}
}

func TestEdgesStopEarly(t *testing.T) {
	g := &Generator{Grid: flatWorld()}
	n := 0
	for range g.Edges(nil, walker(""), State{Cell: origin}) {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Fatalf("iterated %d edges", n)
	}
}

func TestEdgesLeaveGridUnloaded(t *testing.T) {
	grid := flatWorld()
	g := &Generator{Grid: grid}
	corner := State{Cell: voxel.Vec3i{X: 15, Y: 4, Z: 15}}
	sc := &Scratch{}
	n := 0
	for range g.Edges(sc, walker(""), corner) {
		n++
	}
	for range g.InverseEdges(sc, walker(""), corner) {
		n++
	}
	if n == 0 {
		t.Fatalf("no edges at chunk corner")
	}
	if keys := grid.LoadedChunkKeys(); len(keys) != 0 {
		t.Fatalf("edge queries loaded chunks %v", keys)
	}
}

func TestInverseEdges(t *testing.T) {
	g := &Generator{Grid: flatWorld()}
	to := State{Cell: origin}
	var in []Edge
	for e := range g.InverseEdges(&Scratch{}, walker(""), to) {
		if !e.Dest.Equal(to) {
			t.Fatalf("inverse edge %v does not end at %v", e, to)
		}
		in = append(in, e)
	}
	if countKind(in, capability.Walk) != 8 || countKind(in, capability.Fall) != 1 || len(in) != 9 {
		t.Fatalf("inverse=%v want 8 walks and 1 fall", in)
	}
}

func TestInverseTeleport(t *testing.T) {
	ix := entities.NewIndex()
	pad := entities.NewTeleportPad("pad", origin)
	ix.Add(pad)
	g := &Generator{
		Grid:            flatWorld(),
		Objects:         ix,
		Teleporters:     func() []*entities.Object { return ix.TeleportPads() },
		TeleportRangeSq: 4,
	}
	n := 0
	for e := range g.InverseEdges(nil, only(capability.Teleport), State{Cell: origin}) {
		if e.Kind == capability.Fall {
			continue
		}
		if e.Kind != capability.Teleport || e.Interact != pad {
			t.Fatalf("unexpected %v", e)
		}
		if d := e.Source.Cell.DistSq(origin); d >= 4 || d == 0 {
			t.Fatalf("launch %v out of range", e.Source.Cell)
		}
		n++
	}
	// Empty launch cells strictly within distance 2: 8 around the pad and 9 above it.
	if n != 17 {
		t.Fatalf("launch cells=%d want 17", n)
	}
}

func TestDestinationsAreValidOnGeneratedTerrain(t *testing.T) {
	w := voxel.NewGrid(voxel.Config{
		Height: 24,
		Props:  []voxel.BlockProps{{}, {Solid: true}},
		Gen: voxel.FlatGen{
			Seed: 42, GroundY: 6, Air: air, Dirt: stone, Stone: stone,
			PillarPermille: 400, PoolPermille: 300, LavaPermille: 200,
		},
	})
	g := &Generator{Grid: w}
	m := walker("")
	m.Caps.Set(capability.ClimbWalls, true, 3, 1)
	s := &Scratch{}
	for x := -20; x <= 20; x++ {
		for z := -20; z <= 20; z++ {
			c := voxel.Vec3i{X: x, Y: w.SurfaceY(x, z), Z: z}
			if !w.At(c).IsEmpty() {
				continue
			}
			for e := range g.Edges(s, m, State{Cell: c}) {
				d := w.At(e.Dest.Cell)
				if !d.IsValid() || !(d.IsEmpty() || d.HasLiquid()) {
					t.Fatalf("edge %v ends in %+v", e, d)
				}
				if d.Liquid == voxel.LiquidLava && d.Level > 0 {
					t.Fatalf("edge %v ends in lava", e)
				}
			}
		}
	}
}
