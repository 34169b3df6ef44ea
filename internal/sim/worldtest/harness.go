// Package worldtest drives a world through its exported API only, so scenario tests can
// live outside the world package.
package worldtest

import (
	"io"
	"log"
	"testing"
	"time"

	"gridmind.ai/internal/sim/catalogs"
	"gridmind.ai/internal/sim/creature"
	"gridmind.ai/internal/sim/tuning"
	"gridmind.ai/internal/sim/voxel"
	"gridmind.ai/internal/sim/world"
)

const FrameDT = 100 * time.Millisecond

// ConfigDir points at the shipped catalogs from this package's directory.
const ConfigDir = "../../../configs"

type Harness struct {
	T    *testing.T
	Cats *catalogs.Catalogs
	W    *world.World
}

// FlatTuning is the shipped tuning with no configured spawns and no terrain features, so
// scenarios control every creature and block.
func FlatTuning(t *testing.T) tuning.Tuning {
	t.Helper()
	tune, err := tuning.Load(ConfigDir + "/tuning.yaml")
	if err != nil {
		t.Fatalf("load tuning: %v", err)
	}
	tune.Spawns = nil
	tune.PreemptIntervalMs = 100
	tune.World.PillarPermille = 0
	tune.World.PoolPermille = 0
	tune.World.LavaPermille = 0
	return tune
}

func NewHarness(t *testing.T, tune tuning.Tuning) *Harness {
	t.Helper()
	cats, err := catalogs.Load(ConfigDir)
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	w, err := world.New(world.WorldConfig{ID: "test", Tuning: tune, Logger: log.New(io.Discard, "", 0)}, cats)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	return &Harness{T: t, Cats: cats, W: w}
}

// Ground is the y creatures stand on.
func (h *Harness) Ground() int { return h.W.Tuning().World.GroundY }

func (h *Harness) Spawn(class string, x, z int) *creature.Creature {
	h.T.Helper()
	c, err := h.W.NewCreature(class, voxel.Vec3i{X: x, Y: h.Ground(), Z: z})
	if err != nil {
		h.T.Fatalf("NewCreature(%s): %v", class, err)
	}
	h.W.OnComponentCreated(c)
	return c
}

func (h *Harness) Assign(t creature.Task, id string) {
	h.T.Helper()
	if err := h.W.Assign(t, id); err != nil {
		h.T.Fatalf("Assign(%s): %v", t.Name(), err)
	}
}

func (h *Harness) SetBlock(p voxel.Vec3i, name string) {
	h.T.Helper()
	id, ok := h.Cats.Blocks.ID(name)
	if !ok {
		h.T.Fatalf("unknown block %s", name)
	}
	if !h.W.Grid().SetBlock(p, id) {
		h.T.Fatalf("SetBlock %s out of bounds", p)
	}
}

// StepUntil steps at most frames frames and reports whether done held after some step.
func (h *Harness) StepUntil(frames int, done func() bool) bool {
	for i := 0; i < frames; i++ {
		h.W.StepOnce(FrameDT)
		if done() {
			return true
		}
	}
	return false
}

func (h *Harness) Step(frames int) {
	for i := 0; i < frames; i++ {
		h.W.StepOnce(FrameDT)
	}
}
