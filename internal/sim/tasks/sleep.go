package tasks

import (
	"gridmind.ai/internal/sim/act"
	"gridmind.ai/internal/sim/creature"
)

// DefaultRestRate is the energy regained per in-world second of sleep.
const DefaultRestRate = 0.02

// Sleep restores energy until the creature is rested. It is never preempted.
type Sleep struct {
	creature.TaskBase
	Rate float64
}

func NewSleep(rate float64) *Sleep {
	if rate <= 0 {
		rate = DefaultRestRate
	}
	return &Sleep{TaskBase: base(KindSleep, creature.PriorityHigh, "sleep"), Rate: rate}
}

func (t *Sleep) Kind() Kind     { return KindSleep }
func (t *Sleep) Sleeping() bool { return true }

func (t *Sleep) IsComplete(c *creature.Creature, _ *creature.Env) bool { return c.Energy >= 1 }

func (t *Sleep) CreateBehavior(c *creature.Creature, _ *creature.Env) (act.Act, error) {
	return act.Wrap("sleep", func(yield func(act.Status, error) bool) {
		for {
			c.Energy = min(1, c.Energy+t.Rate*c.Delta.Seconds())
			if c.Energy >= 1 {
				return
			}
			if !yield(act.Running, nil) {
				return
			}
		}
	}), nil
}
