package tasks

import (
	"hash/fnv"

	"gridmind.ai/internal/sim/act"
	"gridmind.ai/internal/sim/capability"
	"gridmind.ai/internal/sim/creature"
	"gridmind.ai/internal/sim/movement"
)

const DefaultIdleTicks = 4

// Idle is the fallback when nothing else is feasible: rest a few ticks, then maybe take one
// walking step. It always succeeds.
type Idle struct {
	creature.TaskBase
	Ticks int
}

func NewIdle(ticks int) *Idle {
	if ticks <= 0 {
		ticks = DefaultIdleTicks
	}
	return &Idle{TaskBase: base(KindIdle, creature.PriorityIdle, "idle"), Ticks: ticks}
}

func (t *Idle) Kind() Kind { return KindIdle }

func (t *Idle) CreateBehavior(c *creature.Creature, env *creature.Env) (act.Act, error) {
	return act.NewSequence("idle",
		act.Wait("rest", t.Ticks),
		act.Do("wander", func() act.Status {
			Wander(c, env)
			return act.Success
		}),
	), nil
}

// Wander takes one walking step chosen by a hash of the creature and frame, or stays put
// about a third of the time. It reports whether c moved.
func Wander(c *creature.Creature, env *creature.Env) bool {
	if env.Moves == nil {
		return false
	}
	h := fnv.New64a()
	h.Write([]byte(c.ID))
	roll := h.Sum64() ^ env.FrameID*0x9e3779b97f4a7c15
	if roll%3 == 0 {
		return false
	}
	var walks []movement.Edge
	for e := range env.Moves.Edges(nil, c.Mover(), c.State) {
		if e.Kind == capability.Walk {
			walks = append(walks, e)
		}
	}
	if len(walks) == 0 {
		return false
	}
	return Apply(env, c, walks[(roll/3)%uint64(len(walks))])
}
