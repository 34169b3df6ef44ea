// Package tasks implements the concrete work creatures do. Each task builds its behavior
// from act combinators and moves through the movement graph via the plan service.
package tasks

import (
	"fmt"

	"github.com/google/uuid"

	"gridmind.ai/internal/sim/creature"
)

type Kind string

const (
	KindIdle   Kind = "IDLE"
	KindSleep  Kind = "SLEEP"
	KindMoveTo Kind = "MOVE_TO"
	KindMine   Kind = "MINE"
	KindPlace  Kind = "PLACE"
)

// NewID returns a task id such as "MINE_0b6f...".
func NewID(k Kind) string {
	return fmt.Sprintf("%s_%s", k, uuid.NewString())
}

func base(k Kind, prio creature.Priority, label string) creature.TaskBase {
	return creature.TaskBase{ID: NewID(k), Label: label, Prio: prio}
}

// Kinded is implemented by every task in this package.
type Kinded interface {
	Kind() Kind
}

// KindOf reports the kind of t, or "" for tasks from elsewhere.
func KindOf(t creature.Task) Kind {
	if k, ok := t.(Kinded); ok {
		return k.Kind()
	}
	return ""
}
