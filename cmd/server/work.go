package main

import (
	"gridmind.ai/internal/sim/tasks"
	"gridmind.ai/internal/sim/voxel"
	"gridmind.ai/internal/sim/world"
)

// seedWork fills the primary faction pool with up to n tasks around its first spawn point:
// alternating walks to surface cells and digs of the breakable block beneath them. It must
// run before the world loop starts. It returns the number of tasks added.
func seedWork(w *world.World, n int) int {
	if n <= 0 {
		return 0
	}
	origin, ok := primarySpawn(w)
	if !ok {
		return 0
	}
	g := w.Grid()
	added := 0
	for r := 3; added < n && r <= g.BoundaryR(); r += 2 {
		for _, d := range []voxel.Vec3i{{X: r}, {Z: r}, {X: -r}, {Z: -r}, {X: r, Z: r}, {X: -r, Z: -r}} {
			if added >= n {
				break
			}
			x, z := origin.X+d.X, origin.Z+d.Z
			top := voxel.Vec3i{X: x, Y: g.SurfaceY(x, z), Z: z}
			below := top.Add(voxel.Vec3i{Y: -1})
			if !g.InBounds(top) || g.At(top).HasLiquid() {
				continue
			}
			var err error
			if added%2 == 1 && w.Catalogs().Blocks.Breakable(g.At(below).Block) {
				err = w.Assign(tasks.NewMine(below), "")
			} else {
				err = w.Assign(tasks.NewMoveTo(top), "")
			}
			if err == nil {
				added++
			}
		}
	}
	return added
}

func primarySpawn(w *world.World) (voxel.Vec3i, bool) {
	t := w.Tuning()
	for _, s := range t.Spawns {
		cls, ok := w.Catalogs().Creatures.Registry.Class(s.Class)
		if ok && cls.Faction == t.PrimaryFaction {
			return voxel.Vec3i{X: s.At[0], Y: s.At[1], Z: s.At[2]}, true
		}
	}
	return voxel.Vec3i{}, false
}
