package tasks

import (
	"fmt"

	"gridmind.ai/internal/sim/act"
	"gridmind.ai/internal/sim/creature"
	"gridmind.ai/internal/sim/pathfind"
	"gridmind.ai/internal/sim/voxel"
)

type MoveTo struct {
	creature.TaskBase
	Target voxel.Vec3i
}

func NewMoveTo(target voxel.Vec3i) *MoveTo {
	t := &MoveTo{TaskBase: base(KindMoveTo, creature.PriorityMedium, fmt.Sprintf("move to %s", target)), Target: target}
	t.AutoRetry = true
	return t
}

func (t *MoveTo) Kind() Kind { return KindMoveTo }

func (t *MoveTo) Cost(c *creature.Creature, _ *creature.Env) float64 {
	return float64(c.State.Cell.Manhattan(t.Target))
}

func (t *MoveTo) Feasible(c *creature.Creature, env *creature.Env) bool {
	return t.TaskBase.Feasible(c, env) && env.Grid.At(t.Target).IsEmpty()
}

func (t *MoveTo) IsComplete(c *creature.Creature, _ *creature.Env) bool {
	return !c.State.Riding() && c.State.Cell == t.Target
}

func (t *MoveTo) CreateBehavior(c *creature.Creature, env *creature.Env) (act.Act, error) {
	return GoTo(c, env, pathfind.Goal{Cell: t.Target}), nil
}
