package tasks

import (
	"errors"

	"gridmind.ai/internal/sim/act"
	"gridmind.ai/internal/sim/capability"
	"gridmind.ai/internal/sim/creature"
	"gridmind.ai/internal/sim/movement"
	"gridmind.ai/internal/sim/pathfind"
	"gridmind.ai/internal/sim/voxel"
)

var (
	ErrStuck     = errors.New("tasks: stuck after replanning")
	ErrNoPlanner = errors.New("tasks: no plan service")
)

const maxReplans = 3

// GoTo moves c until goal is reached. It requests a path, waits for the plan service, then
// spends each edge's duration in game time before applying it. A path that no longer
// matches the world is replanned, up to maxReplans times.
func GoTo(c *creature.Creature, env *creature.Env, goal pathfind.Goal) act.Act {
	return act.Wrap("goto", func(yield func(act.Status, error) bool) {
		var ticket *pathfind.Ticket
		defer func() {
			if ticket != nil && !ticket.Done() {
				ticket.Cancel()
			}
		}()
		for replans := 0; !goal.Reached(c.State); replans++ {
			if replans > maxReplans {
				yield(act.Fail, ErrStuck)
				return
			}
			if env.Plans == nil {
				yield(act.Fail, ErrNoPlanner)
				return
			}
			ticket = env.Plans.RequestPath(c, goal)
			for !ticket.Done() {
				if ticket.Canceled() {
					ticket = env.Plans.RequestPath(c, goal)
				}
				if !yield(act.Running, nil) {
					return
				}
			}
			path, err := ticket.Result()
			if err != nil {
				c.NoPath = true
				yield(act.Fail, err)
				return
			}
			for _, e := range path {
				need := e.Duration(&c.Caps, c.Speed)
				for spent := 0.0; spent < need; {
					if !yield(act.Running, nil) {
						return
					}
					spent += c.Delta.Seconds()
				}
				if !Apply(env, c, e) {
					break
				}
			}
		}
	})
}

// Apply performs e for c. It reports false, changing nothing, when e no longer starts at c's
// state or its destination stopped being enterable.
func Apply(env *creature.Env, c *creature.Creature, e movement.Edge) bool {
	if !e.Source.Equal(c.State) {
		return false
	}
	dest := env.Grid.At(e.Dest.Cell)
	if !dest.IsValid() || dest.Liquid == voxel.MostHazardous && dest.Level > 0 {
		return false
	}
	switch {
	case e.Kind == capability.Dig:
		env.Grid.SetBlock(e.Dest.Cell, env.Grid.Air())
	case e.Source.Riding() || e.Dest.Riding():
	case !dest.IsEmpty():
		return false
	}
	if e.Kind == capability.DestroyObject && e.Interact != nil && env.Objects != nil {
		env.Objects.Remove(e.Interact)
	}
	c.State = e.Dest
	return true
}
