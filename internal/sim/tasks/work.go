package tasks

import (
	"fmt"

	"gridmind.ai/internal/sim/act"
	"gridmind.ai/internal/sim/creature"
	"gridmind.ai/internal/sim/pathfind"
	"gridmind.ai/internal/sim/voxel"
)

const DefaultMineTicks = 3

// Mine digs out one solid block from an adjacent cell.
type Mine struct {
	creature.TaskBase
	Block     voxel.Vec3i
	WorkTicks int
	// Breakable filters palette ids that can be mined. Nil allows every solid block.
	Breakable func(b uint16) bool
}

func NewMine(block voxel.Vec3i) *Mine {
	t := &Mine{
		TaskBase:  base(KindMine, creature.PriorityMedium, fmt.Sprintf("mine %s", block)),
		Block:     block,
		WorkTicks: DefaultMineTicks,
	}
	t.AutoRetry = true
	t.Reassign = true
	return t
}

func (t *Mine) Kind() Kind { return KindMine }

func (t *Mine) Cost(c *creature.Creature, _ *creature.Env) float64 {
	return float64(c.State.Cell.Manhattan(t.Block) + t.WorkTicks)
}

func (t *Mine) Feasible(c *creature.Creature, env *creature.Env) bool {
	if !t.TaskBase.Feasible(c, env) {
		return false
	}
	v := env.Grid.At(t.Block)
	return v.IsValid() && !v.IsEmpty() && (t.Breakable == nil || t.Breakable(v.Block))
}

func (t *Mine) IsComplete(_ *creature.Creature, env *creature.Env) bool {
	return env.Grid.At(t.Block).IsEmpty()
}

// ShouldDelete drops the task once the block is gone, whoever removed it.
func (t *Mine) ShouldDelete(c *creature.Creature, env *creature.Env) bool {
	return t.TaskBase.ShouldDelete(c, env) || t.IsComplete(c, env)
}

func (t *Mine) CreateBehavior(c *creature.Creature, env *creature.Env) (act.Act, error) {
	dig := act.Wrap("dig", func(yield func(act.Status, error) bool) {
		for i := 0; i < t.WorkTicks; i++ {
			if !yield(act.Running, nil) {
				return
			}
		}
		if !env.Grid.At(t.Block).IsEmpty() {
			env.Grid.SetBlock(t.Block, env.Grid.Air())
		}
	})
	return act.NewSequence("mine", GoTo(c, env, pathfind.Goal{Cell: t.Block, Adjacent: true}), dig), nil
}

// Place puts a block into an empty cell from an adjacent cell.
type Place struct {
	creature.TaskBase
	At    voxel.Vec3i
	Block uint16
}

func NewPlace(at voxel.Vec3i, block uint16) *Place {
	t := &Place{TaskBase: base(KindPlace, creature.PriorityLow, fmt.Sprintf("place %d at %s", block, at)), At: at, Block: block}
	t.Reassign = true
	return t
}

func (t *Place) Kind() Kind { return KindPlace }

func (t *Place) Cost(c *creature.Creature, _ *creature.Env) float64 {
	return float64(c.State.Cell.Manhattan(t.At))
}

func (t *Place) Feasible(c *creature.Creature, env *creature.Env) bool {
	return t.TaskBase.Feasible(c, env) && env.Grid.At(t.At).IsEmpty()
}

func (t *Place) IsComplete(_ *creature.Creature, env *creature.Env) bool {
	v := env.Grid.At(t.At)
	return !v.IsEmpty() && v.Block == t.Block
}

func (t *Place) CreateBehavior(c *creature.Creature, env *creature.Env) (act.Act, error) {
	put := act.Do("put", func() act.Status {
		if !env.Grid.At(t.At).IsEmpty() || c.State.Cell == t.At {
			return act.Fail
		}
		env.Grid.SetBlock(t.At, t.Block)
		return act.Success
	})
	return act.NewSequence("place", GoTo(c, env, pathfind.Goal{Cell: t.At, Adjacent: true}), put), nil
}
