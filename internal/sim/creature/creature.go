// Package creature holds the per-agent half of the AI: the creature record and its Mind,
// which owns the task queue, picks the current task and ticks its behavior.
package creature

import (
	"time"

	"gridmind.ai/internal/sim/capability"
	"gridmind.ai/internal/sim/movement"
)

type Creature struct {
	ID      string
	Class   string
	Faction string

	State movement.State
	Caps  capability.Table
	Speed float64

	Health    float64
	MaxHealth float64
	// Energy runs from 0 (exhausted) to 1 (rested).
	Energy float64
	Items  []*Item

	// RefusingWork keeps the creature from pulling tasks out of the shared pool.
	RefusingWork bool
	// NoPath is set by movement behaviors when planning failed; cleared on task change.
	NoPath bool
	Dead   bool
	// Delta is the time since the previous AI step, set by Mind.Update for behaviors.
	Delta time.Duration

	Mind Mind

	frameID uint64
}

func New(id string, class capability.Class) *Creature {
	c := &Creature{
		ID:        id,
		Class:     class.Name,
		Faction:   class.Faction,
		Caps:      class.Movement,
		Speed:     class.Speed,
		Health:    100,
		MaxHealth: 100,
		Energy:    1,
	}
	if c.Speed <= 0 {
		c.Speed = 1
	}
	c.Mind.init(c)
	return c
}

// Touch marks the creature active in frame id.
func (c *Creature) Touch(id uint64) { c.frameID = id }

// LastFrameID is the frame the creature was last marked active in.
func (c *Creature) LastFrameID() uint64 { return c.frameID }

func (c *Creature) Mover() movement.Mover {
	return movement.Mover{Caps: &c.Caps, Faction: c.Faction}
}

type ItemEffect uint8

const (
	EffectNone ItemEffect = iota
	EffectHeal
	EffectRest
)

// Item is something a creature carries. Reserved items belong to a task and are never
// consumed opportunistically.
type Item struct {
	ID       string
	Name     string
	Effect   ItemEffect
	Amount   float64
	Reserved bool
}

// beneficial reports whether consuming it now would help c.
func (c *Creature) beneficial(it *Item) bool {
	switch it.Effect {
	case EffectHeal:
		return c.Health < c.MaxHealth/2
	case EffectRest:
		return c.Energy < 0.25
	default:
		return false
	}
}

// consumeBeneficialItem uses the first unreserved item that helps. It reports the item used.
func (c *Creature) consumeBeneficialItem() *Item {
	for i, it := range c.Items {
		if it == nil || it.Reserved || !c.beneficial(it) {
			continue
		}
		switch it.Effect {
		case EffectHeal:
			c.Health = min(c.MaxHealth, c.Health+it.Amount)
		case EffectRest:
			c.Energy = min(1, c.Energy+it.Amount)
		}
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		return it
	}
	return nil
}
