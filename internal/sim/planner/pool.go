// Package planner provides the shared services creatures lean on: a faction task pool and a
// path planning service with a per-frame budget.
package planner

import (
	"gridmind.ai/internal/sim/creature"
)

// Pool holds one faction's unassigned tasks. A task handed out by GetBestTask leaves the
// pool, so no two creatures can hold it at once.
type Pool struct {
	Faction string

	env   *creature.Env
	tasks []creature.Task
}

// NewPool binds the pool to the world's per-frame Env, used for cost and feasibility.
func NewPool(faction string, env *creature.Env) *Pool {
	return &Pool{Faction: faction, env: env}
}

func (p *Pool) Len() int { return len(p.tasks) }

func (p *Pool) Tasks() []creature.Task { return append([]creature.Task(nil), p.tasks...) }

func (p *Pool) AddTask(t creature.Task) {
	if t == nil || p.index(t) >= 0 {
		return
	}
	p.tasks = append(p.tasks, t)
}

// GetBestTask removes and returns the feasible task with priority >= min that suits c best:
// highest priority, then lowest cost for c, then oldest.
func (p *Pool) GetBestTask(c *creature.Creature, min creature.Priority) creature.Task {
	if c == nil || c.Faction != p.Faction {
		return nil
	}
	best := -1
	var bestPrio creature.Priority
	var bestCost float64
	for i, t := range p.tasks {
		prio := t.Priority()
		if prio < min || t.ShouldDelete(c, p.env) || !t.Feasible(c, p.env) {
			continue
		}
		cost := t.Cost(c, p.env)
		if best < 0 || prio > bestPrio || prio == bestPrio && cost < bestCost {
			best, bestPrio, bestCost = i, prio, cost
		}
	}
	if best < 0 {
		return nil
	}
	t := p.tasks[best]
	p.tasks = append(p.tasks[:best], p.tasks[best+1:]...)
	return t
}

// CancelTask removes t from the pool and marks it canceled, so a creature already holding it
// drops it at its next cleanup.
func (p *Pool) CancelTask(t creature.Task) {
	if i := p.index(t); i >= 0 {
		p.tasks = append(p.tasks[:i], p.tasks[i+1:]...)
	}
	if c, ok := t.(interface{ Cancel() }); ok {
		c.Cancel()
	}
}

func (p *Pool) index(t creature.Task) int {
	for i, x := range p.tasks {
		if x == t {
			return i
		}
	}
	return -1
}
