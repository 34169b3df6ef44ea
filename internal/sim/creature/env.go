package creature

import (
	"log"
	"time"

	"gridmind.ai/internal/sim/entities"
	"gridmind.ai/internal/sim/movement"
	"gridmind.ai/internal/sim/pathfind"
	"gridmind.ai/internal/sim/voxel"
)

// TaskPool holds a faction's unassigned tasks. GetBestTask hands ownership of the returned
// task to the caller: it is removed from the pool.
type TaskPool interface {
	GetBestTask(c *Creature, min Priority) Task
	AddTask(t Task)
	CancelTask(t Task)
}

// PlanService answers path requests within a per-frame budget. Subscribers are identified by
// pointer; RemoveSubscriber drops any outstanding request.
type PlanService interface {
	Subscribe(c *Creature)
	RemoveSubscriber(c *Creature)
	RequestPath(c *Creature, goal pathfind.Goal) *pathfind.Ticket
}

// FaultReporter receives behavior faults caught at the creature boundary.
type FaultReporter interface {
	ReportFault(c *Creature, err *FaultError)
}

// Env is the read-mostly view of the world handed to every Mind call. Creatures never keep
// a reference to it.
type Env struct {
	FrameID uint64
	// Now is the in-world clock.
	Now            time.Duration
	PrimaryFaction string

	Grid    *voxel.Grid
	Objects *entities.Index
	Moves   *movement.Generator

	Pool   TaskPool
	Plans  PlanService
	Faults FaultReporter
	// Idle builds the fallback task for a creature with nothing to do. Optional.
	Idle func(c *Creature) Task

	Logger *log.Logger
}

func (e *Env) logf(format string, args ...any) {
	if e != nil && e.Logger != nil {
		e.Logger.Printf(format, args...)
	}
}
