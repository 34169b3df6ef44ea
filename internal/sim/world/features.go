package world

import (
	"fmt"

	"gridmind.ai/internal/sim/entities"
	"gridmind.ai/internal/sim/voxel"
)

const (
	featureRadius   = 12
	laddersPerSpawn = 4
	pillarHeight    = 3
)

// seedFeatures hangs ladders on the west face of stone pillars near each spawn point, so
// climbing shows up in the movement graph of a freshly generated world.
func (w *World) seedFeatures() {
	points := make([]voxel.Vec3i, 0, len(w.tune.Spawns))
	for _, s := range w.tune.Spawns {
		points = append(points, voxel.Vec3i{X: s.At[0], Y: s.At[1], Z: s.At[2]})
	}
	if len(points) == 0 {
		points = append(points, voxel.Vec3i{Y: w.tune.World.GroundY})
	}
	for _, p := range points {
		placed := 0
		for dz := -featureRadius; dz <= featureRadius && placed < laddersPerSpawn; dz++ {
			for dx := -featureRadius; dx <= featureRadius && placed < laddersPerSpawn; dx++ {
				base := voxel.Vec3i{X: p.X + dx, Y: w.tune.World.GroundY, Z: p.Z + dz}
				if w.ladderColumn(base) {
					placed++
				}
			}
		}
	}
}

// ladderColumn places a ladder beside the pillar at base when the cells west of it are open
// and stand on solid ground. It reports whether it placed one.
func (w *World) ladderColumn(base voxel.Vec3i) bool {
	pillar := w.grid.At(base)
	if !pillar.IsValid() || pillar.IsEmpty() {
		return false
	}
	at := base.Add(voxel.Vec3i{X: -1})
	if w.grid.At(at.Add(voxel.Vec3i{Y: -1})).IsEmpty() {
		return false
	}
	var buf []*entities.Object
	for i := 0; i < pillarHeight; i++ {
		c := at.Add(voxel.Vec3i{Y: i})
		v := w.grid.At(c)
		if !v.IsEmpty() || v.HasLiquid() {
			return false
		}
		if buf = w.objects.Query(voxel.CellBox(c), buf[:0]); len(buf) > 0 {
			return false
		}
	}
	for i := 0; i < pillarHeight; i++ {
		c := at.Add(voxel.Vec3i{Y: i})
		w.objects.Add(entities.NewLadder(fmt.Sprintf("ladder_%d_%d_%d", c.X, c.Y, c.Z), c))
	}
	return true
}

// AddObject puts o into the entity index. Objects change the movement graph from the next
// path search on.
func (w *World) AddObject(o *entities.Object) { w.objects.Add(o) }

func (w *World) RemoveObject(o *entities.Object) { w.objects.Remove(o) }
