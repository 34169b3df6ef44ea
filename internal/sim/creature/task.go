package creature

import (
	"fmt"

	"gridmind.ai/internal/sim/act"
)

type Priority int8

const (
	PriorityIdle Priority = iota
	PriorityLow
	PriorityMedium
	PriorityHigh
	PriorityUrgent
)

func (p Priority) String() string {
	switch p {
	case PriorityIdle:
		return "IDLE"
	case PriorityLow:
		return "LOW"
	case PriorityMedium:
		return "MEDIUM"
	case PriorityHigh:
		return "HIGH"
	case PriorityUrgent:
		return "URGENT"
	default:
		return fmt.Sprintf("priority(%d)", int8(p))
	}
}

// Task is a unit of work a creature can take on. Tasks are identified by reference, so
// implementations must be pointer types.
type Task interface {
	Name() string
	Priority() Priority
	Cost(c *Creature, env *Env) float64
	Feasible(c *Creature, env *Env) bool
	IsComplete(c *Creature, env *Env) bool
	ShouldDelete(c *Creature, env *Env) bool
	// ShouldRetry reports whether a failed or preempted task goes back on the pending list.
	ShouldRetry(c *Creature) bool
	ReassignOnDeath() bool
	CreateBehavior(c *Creature, env *Env) (act.Act, error)
	OnAssign(c *Creature)
	OnUnassign(c *Creature)
}

// Sleeper is implemented by tasks that must never be preempted.
type Sleeper interface {
	Sleeping() bool
}

// TaskBase provides the bookkeeping half of Task. Embed it by value and implement
// CreateBehavior (and usually Cost and IsComplete) on the outer type.
type TaskBase struct {
	ID        string
	Label     string
	Prio      Priority
	AutoRetry bool
	Reassign  bool
	Canceled  bool

	// Assignee is the creature the task is assigned to, or nil.
	Assignee *Creature
}

func (t *TaskBase) Name() string               { return t.Label }
func (t *TaskBase) Priority() Priority         { return t.Prio }
func (t *TaskBase) ShouldRetry(*Creature) bool { return t.AutoRetry }
func (t *TaskBase) ReassignOnDeath() bool      { return t.Reassign }

func (t *TaskBase) Cost(*Creature, *Env) float64 { return 1 }

func (t *TaskBase) Feasible(*Creature, *Env) bool { return !t.Canceled }

func (t *TaskBase) IsComplete(*Creature, *Env) bool { return false }

func (t *TaskBase) ShouldDelete(*Creature, *Env) bool { return t.Canceled }

func (t *TaskBase) OnAssign(c *Creature) { t.Assignee = c }

func (t *TaskBase) OnUnassign(c *Creature) {
	if t.Assignee == c {
		t.Assignee = nil
	}
}

// Cancel marks the task so its holder drops it at the next cleanup.
func (t *TaskBase) Cancel() { t.Canceled = true }
