package planner

import (
	"errors"
	"testing"

	"gridmind.ai/internal/sim/act"
	"gridmind.ai/internal/sim/capability"
	"gridmind.ai/internal/sim/creature"
	"gridmind.ai/internal/sim/movement"
	"gridmind.ai/internal/sim/pathfind"
	"gridmind.ai/internal/sim/voxel"
)

type job struct {
	creature.TaskBase
	cost       float64
	infeasible bool
}

func newJob(name string, p creature.Priority, cost float64) *job {
	return &job{TaskBase: creature.TaskBase{Label: name, Prio: p}, cost: cost}
}

func (j *job) Cost(*creature.Creature, *creature.Env) float64 { return j.cost }

func (j *job) Feasible(c *creature.Creature, env *creature.Env) bool {
	return !j.infeasible && j.TaskBase.Feasible(c, env)
}

func (j *job) CreateBehavior(*creature.Creature, *creature.Env) (act.Act, error) {
	return act.Wait(j.Label, 1), nil
}

func dwarf(id string) *creature.Creature {
	c := creature.New(id, capability.Class{Name: "dwarf", Faction: "dwarves", Movement: capability.Walker()})
	c.State = movement.State{Cell: voxel.Vec3i{Y: 4}}
	return c
}

func TestPoolGetBestTask(t *testing.T) {
	p := NewPool("dwarves", &creature.Env{})
	low := newJob("low", creature.PriorityLow, 1)
	highDear := newJob("high-dear", creature.PriorityHigh, 9)
	highCheap := newJob("high-cheap", creature.PriorityHigh, 2)
	blocked := newJob("blocked", creature.PriorityUrgent, 0)
	blocked.infeasible = true
	for _, j := range []*job{low, highDear, highCheap, blocked} {
		p.AddTask(j)
	}
	p.AddTask(low)
	if p.Len() != 4 {
		t.Fatalf("len=%d want 4, duplicates ignored", p.Len())
	}

	c := dwarf("c1")
	if got := p.GetBestTask(c, creature.PriorityMedium); got != highCheap {
		t.Fatalf("got %v want high-cheap", got)
	}
	if got := p.GetBestTask(c, creature.PriorityMedium); got != highDear {
		t.Fatalf("got %v want high-dear", got)
	}
	if got := p.GetBestTask(c, creature.PriorityMedium); got != nil {
		t.Fatalf("got %v want nothing above medium", got)
	}
	goblin := dwarf("g1")
	goblin.Faction = "goblins"
	if got := p.GetBestTask(goblin, creature.PriorityIdle); got != nil {
		t.Fatalf("other faction took %v", got)
	}
	if got := p.GetBestTask(c, creature.PriorityIdle); got != low {
		t.Fatalf("got %v want low", got)
	}
}

func TestPoolCancelTask(t *testing.T) {
	p := NewPool("dwarves", &creature.Env{})
	j := newJob("j", creature.PriorityLow, 1)
	p.AddTask(j)
	p.CancelTask(j)
	if p.Len() != 0 || !j.Canceled {
		t.Fatalf("len=%d canceled=%v", p.Len(), j.Canceled)
	}

	held := newJob("held", creature.PriorityLow, 1)
	p.CancelTask(held)
	if !held.Canceled || !held.ShouldDelete(nil, nil) {
		t.Fatalf("task outside the pool not marked canceled")
	}
}

func flatGen() *movement.Generator {
	grid := voxel.NewGrid(voxel.Config{
		Height:    16,
		BoundaryR: 8,
		Props:     []voxel.BlockProps{{}, {Solid: true}},
		Gen:       voxel.FlatGen{Seed: 1, GroundY: 4, Dirt: 1, Stone: 1},
	})
	return &movement.Generator{Grid: grid}
}

func TestPlansBudget(t *testing.T) {
	p := NewPlans(pathfind.NewSearcher(flatGen(), 0), 2)
	cs := []*creature.Creature{dwarf("a"), dwarf("b"), dwarf("c")}
	var tickets []*pathfind.Ticket
	for _, c := range cs {
		p.Subscribe(c)
		tickets = append(tickets, p.RequestPath(c, pathfind.Goal{Cell: voxel.Vec3i{X: 3, Y: 4}}))
	}
	if ran := p.Update(); ran != 2 {
		t.Fatalf("ran=%d want 2", ran)
	}
	if !tickets[0].Done() || !tickets[1].Done() || tickets[2].Done() {
		t.Fatalf("done=%v,%v,%v want first two", tickets[0].Done(), tickets[1].Done(), tickets[2].Done())
	}
	p.Update()
	path, err := tickets[2].Result()
	if err != nil || len(path) != 3 {
		t.Fatalf("path=%v err=%v", path, err)
	}
	if s := p.Stats(); s.Served != 3 || s.Queued != 0 {
		t.Fatalf("stats=%+v", s)
	}
}

func TestPlansRequestReplacesAndUnsubscribeCancels(t *testing.T) {
	p := NewPlans(pathfind.NewSearcher(flatGen(), 0), 8)
	c := dwarf("a")
	p.Subscribe(c)
	first := p.RequestPath(c, pathfind.Goal{Cell: voxel.Vec3i{X: 2, Y: 4}})
	second := p.RequestPath(c, pathfind.Goal{Cell: voxel.Vec3i{X: -2, Y: 4}})
	if !first.Canceled() {
		t.Fatalf("first ticket not canceled by the second request")
	}
	if ran := p.Update(); ran != 1 || !second.Done() || first.Done() {
		t.Fatalf("ran=%d second done=%v first done=%v", ran, second.Done(), first.Done())
	}

	third := p.RequestPath(c, pathfind.Goal{Cell: voxel.Vec3i{X: 1, Y: 4}})
	p.RemoveSubscriber(c)
	if p.Subscribed(c) || !third.Canceled() {
		t.Fatalf("subscribed=%v canceled=%v", p.Subscribed(c), third.Canceled())
	}
	if ran := p.Update(); ran != 0 || third.Done() {
		t.Fatalf("resolved a request of a removed subscriber")
	}
}

func TestPlansUnreachable(t *testing.T) {
	p := NewPlans(pathfind.NewSearcher(flatGen(), 0), 8)
	c := dwarf("a")
	p.Subscribe(c)
	tk := p.RequestPath(c, pathfind.Goal{Cell: voxel.Vec3i{Y: 12}})
	p.Update()
	if _, err := tk.Result(); !errors.Is(err, pathfind.ErrNoPath) {
		t.Fatalf("err=%v want ErrNoPath", err)
	}
	if p.Stats().Failed != 1 {
		t.Fatalf("failed=%d", p.Stats().Failed)
	}
}
