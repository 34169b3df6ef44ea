package tasks

import (
	"strings"
	"testing"
	"time"

	"gridmind.ai/internal/sim/capability"
	"gridmind.ai/internal/sim/creature"
	"gridmind.ai/internal/sim/entities"
	"gridmind.ai/internal/sim/movement"
	"gridmind.ai/internal/sim/pathfind"
	"gridmind.ai/internal/sim/planner"
	"gridmind.ai/internal/sim/voxel"
)

const stone uint16 = 1

type harness struct {
	env   *creature.Env
	plans *planner.Plans
	c     *creature.Creature
}

func newHarness() *harness {
	grid := voxel.NewGrid(voxel.Config{
		Height: 16,
		Props:  []voxel.BlockProps{{}, {Solid: true}},
		Gen:    voxel.FlatGen{Seed: 1, GroundY: 4, Dirt: stone, Stone: stone},
	})
	objects := entities.NewIndex()
	gen := &movement.Generator{Grid: grid, Objects: objects}
	plans := planner.NewPlans(pathfind.NewSearcher(gen, 0), 4)
	env := &creature.Env{Grid: grid, Objects: objects, Moves: gen, Plans: plans, PrimaryFaction: "dwarves"}
	c := creature.New("c1", capability.Class{Name: "dwarf", Faction: "dwarves", Movement: capability.Walker(), Speed: 1})
	c.State = movement.State{Cell: voxel.Vec3i{Y: 4}}
	plans.Subscribe(c)
	return &harness{env: env, plans: plans, c: c}
}

func (h *harness) step(dt time.Duration) {
	h.env.FrameID++
	h.plans.Update()
	h.c.Mind.Update(h.env, dt)
	h.env.Now += dt
}

func (h *harness) runUntilIdle(t *testing.T, maxSteps int) {
	t.Helper()
	for i := 0; i < maxSteps; i++ {
		h.step(500 * time.Millisecond)
		if h.c.Mind.Current() == nil && len(h.c.Mind.Pending()) == 0 {
			return
		}
	}
	t.Fatalf("still busy after %d steps: %+v", maxSteps, h.c.Mind.Diagnostics())
}

func TestNewIDHasKindPrefix(t *testing.T) {
	a, b := NewID(KindMine), NewID(KindMine)
	if a == b || !strings.HasPrefix(a, "MINE_") {
		t.Fatalf("ids %q %q", a, b)
	}
}

func TestMoveTo(t *testing.T) {
	h := newHarness()
	target := voxel.Vec3i{X: 3, Y: 4, Z: -2}
	task := NewMoveTo(target)
	if err := h.c.Mind.AssignTask(task); err != nil {
		t.Fatalf("AssignTask: %v", err)
	}
	h.runUntilIdle(t, 100)
	if h.c.State.Cell != target {
		t.Fatalf("at %v want %v", h.c.State.Cell, target)
	}
	if KindOf(task) != KindMoveTo {
		t.Fatalf("KindOf=%q", KindOf(task))
	}
}

func TestMineDigsBlock(t *testing.T) {
	h := newHarness()
	block := voxel.Vec3i{X: 4, Y: 3}
	task := NewMine(block)
	if !task.Feasible(h.c, h.env) {
		t.Fatalf("solid ground not mineable")
	}
	h.c.Mind.AssignTask(task)
	h.runUntilIdle(t, 100)
	if !h.env.Grid.At(block).IsEmpty() {
		t.Fatalf("block still there")
	}
	if d := h.c.State.Cell.Sub(block); voxel.AbsInt(d.X) > 1 || voxel.AbsInt(d.Y) > 1 || voxel.AbsInt(d.Z) > 1 {
		t.Fatalf("mined from %v, not adjacent", h.c.State.Cell)
	}
	if !task.ShouldDelete(h.c, h.env) {
		t.Fatalf("mined-out task not marked for deletion")
	}
}

func TestMineRespectsBreakable(t *testing.T) {
	h := newHarness()
	task := NewMine(voxel.Vec3i{X: 1, Y: 3})
	task.Breakable = func(b uint16) bool { return b != stone }
	if task.Feasible(h.c, h.env) {
		t.Fatalf("unbreakable block feasible")
	}
}

func TestPlace(t *testing.T) {
	h := newHarness()
	at := voxel.Vec3i{X: 2, Y: 4, Z: 2}
	task := NewPlace(at, stone)
	h.c.Mind.AssignTask(task)
	h.runUntilIdle(t, 100)
	if v := h.env.Grid.At(at); v.IsEmpty() || v.Block != stone {
		t.Fatalf("cell %+v not filled", v)
	}
	if !task.IsComplete(h.c, h.env) || task.Feasible(h.c, h.env) {
		t.Fatalf("complete=%v feasible=%v", task.IsComplete(h.c, h.env), task.Feasible(h.c, h.env))
	}
}

func TestSleepRestoresEnergyAndHoldsOff(t *testing.T) {
	h := newHarness()
	h.c.Energy = 0.5
	sleep := NewSleep(0.1)
	h.c.Mind.AssignTask(sleep)
	h.step(time.Second)
	if h.c.Mind.Current() != sleep {
		t.Fatalf("current=%v want sleep", h.c.Mind.Current())
	}
	h.c.Mind.AssignTask(&MoveTo{TaskBase: creature.TaskBase{Label: "urgent", Prio: creature.PriorityUrgent}, Target: voxel.Vec3i{X: 1, Y: 4}})
	for i := 0; i < 3; i++ {
		h.step(time.Second)
		if h.c.Mind.Current() != sleep {
			t.Fatalf("sleep preempted at step %d", i)
		}
	}
	for i := 0; i < 10 && h.c.Mind.Current() == sleep; i++ {
		h.step(time.Second)
	}
	if h.c.Energy != 1 {
		t.Fatalf("energy=%v want 1", h.c.Energy)
	}
}

func TestIdleWandersAtMostOneCell(t *testing.T) {
	h := newHarness()
	h.env.Idle = func(*creature.Creature) creature.Task { return NewIdle(2) }
	start := h.c.State.Cell
	for i := 0; i < 3; i++ {
		h.step(100 * time.Millisecond)
	}
	d := h.c.State.Cell.Sub(start)
	if voxel.AbsInt(d.X) > 1 || d.Y != 0 || voxel.AbsInt(d.Z) > 1 {
		t.Fatalf("idle moved %v", d)
	}
	if h.c.Mind.Current() != nil {
		t.Fatalf("idle still running after wait and wander")
	}
}

func TestApplyRejectsStaleEdge(t *testing.T) {
	h := newHarness()
	e := movement.Edge{
		Source: movement.State{Cell: voxel.Vec3i{X: 5, Y: 4}},
		Dest:   movement.State{Cell: voxel.Vec3i{X: 6, Y: 4}},
		Kind:   capability.Walk,
	}
	if Apply(h.env, h.c, e) {
		t.Fatalf("applied edge that does not start at the creature")
	}
	e.Source = h.c.State
	e.Dest = movement.State{Cell: voxel.Vec3i{X: 1, Y: 3}}
	if Apply(h.env, h.c, e) {
		t.Fatalf("walked into solid ground")
	}
	if h.c.State.Cell != (voxel.Vec3i{Y: 4}) {
		t.Fatalf("state changed to %v", h.c.State)
	}
}
