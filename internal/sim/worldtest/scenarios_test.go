package worldtest

import (
	"testing"

	"gridmind.ai/internal/sim/tasks"
	"gridmind.ai/internal/sim/voxel"
)

func TestCrewClearsTrench(t *testing.T) {
	h := NewHarness(t, FlatTuning(t))
	for i := 0; i < 3; i++ {
		h.Spawn("dwarf", i, 0)
	}
	var trench []voxel.Vec3i
	for x := 2; x < 6; x++ {
		p := voxel.Vec3i{X: x, Y: h.Ground() - 1, Z: 4}
		trench = append(trench, p)
		h.Assign(tasks.NewMine(p), "")
	}
	cleared := func() bool {
		for _, p := range trench {
			if !h.W.Grid().At(p).IsEmpty() {
				return false
			}
		}
		return true
	}
	if !h.StepUntil(1500, cleared) {
		t.Fatalf("trench not cleared after 1500 frames; pool=%d diag=%+v", h.W.Pool().Len(), h.W.Diagnostics())
	}
	if n := h.W.Pool().Len(); n != 0 {
		t.Fatalf("pool=%d want 0", n)
	}
}

func TestBedrockIsNeverMined(t *testing.T) {
	h := NewHarness(t, FlatTuning(t))
	c := h.Spawn("dwarf", 0, 0)
	p := voxel.Vec3i{X: 2, Y: h.Ground() - 1}
	h.SetBlock(p, "BEDROCK")
	h.Assign(tasks.NewMine(p), c.ID)
	h.Step(100)
	if h.W.Grid().At(p).IsEmpty() {
		t.Fatalf("bedrock at %s was mined", p)
	}
	if cur := c.Mind.Current(); cur != nil && tasks.KindOf(cur) == tasks.KindMine {
		t.Fatalf("creature picked an infeasible mine task")
	}
}

func TestOutOfBoundsMoveStaysPending(t *testing.T) {
	tune := FlatTuning(t)
	h := NewHarness(t, tune)
	c := h.Spawn("dwarf", 0, 0)
	far := voxel.Vec3i{X: tune.World.BoundaryR + 5, Y: h.Ground()}
	move := tasks.NewMoveTo(far)
	h.Assign(move, c.ID)
	h.Step(50)

	if c.Mind.Current() == move {
		t.Fatalf("out-of-bounds move became current")
	}
	if !c.Mind.IsPending(move) {
		t.Fatalf("out-of-bounds move dropped; pending=%v", c.Mind.Pending())
	}
	if !h.W.Grid().InBounds(c.State.Cell) {
		t.Fatalf("creature left the grid: %s", c.State.Cell)
	}
}

func TestTerrainFollowsSeed(t *testing.T) {
	tune := FlatTuning(t)
	tune.World.PillarPermille = 1000
	tune.World.PoolPermille = 500

	digest := func(seed int64) [32]byte {
		tt := tune
		tt.World.Seed = seed
		h := NewHarness(t, tt)
		g := h.W.Grid()
		for x := -20; x <= 20; x++ {
			for z := -20; z <= 20; z++ {
				g.Load(voxel.Vec3i{X: x, Y: 0, Z: z})
			}
		}
		return g.Digest()
	}
	a, b, c := digest(11), digest(11), digest(12)
	if a != b {
		t.Fatalf("same seed produced different terrain")
	}
	if a == c {
		t.Fatalf("different seeds produced identical terrain")
	}
}
