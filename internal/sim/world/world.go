package world

import (
	"fmt"
	"log"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"gridmind.ai/internal/sim/catalogs"
	"gridmind.ai/internal/sim/creature"
	"gridmind.ai/internal/sim/entities"
	"gridmind.ai/internal/sim/movement"
	"gridmind.ai/internal/sim/pathfind"
	"gridmind.ai/internal/sim/planner"
	"gridmind.ai/internal/sim/scheduler"
	"gridmind.ai/internal/sim/tasks"
	"gridmind.ai/internal/sim/tuning"
	"gridmind.ai/internal/sim/voxel"
)

type WorldConfig struct {
	ID     string
	Tuning tuning.Tuning
	Logger *log.Logger
}

type SpawnRequest struct {
	Class string
	At    voxel.Vec3i
	Resp  chan SpawnResponse
}

type SpawnResponse struct {
	ID  string
	Err error
}

type KillRequest struct {
	ID       string
	Reassign bool
}

// SubmitRequest hands a task to one creature, or to the primary faction pool when
// CreatureID is empty.
type SubmitRequest struct {
	Task       creature.Task
	CreatureID string
	Resp       chan error
}

// World hosts the creatures and runs their AI. All state must be accessed only from the
// world loop goroutine; Metrics and Diagnostics are safe from anywhere.
type World struct {
	cfg    WorldConfig
	tune   tuning.Tuning
	cats   *catalogs.Catalogs
	logger *log.Logger

	grid    *voxel.Grid
	objects *entities.Index
	moves   *movement.Generator
	plans   *planner.Plans
	pool    *planner.Pool
	sched   *scheduler.Scheduler[*creature.Creature]
	env     creature.Env

	creatures map[string]*creature.Creature

	frame atomic.Uint64
	now   time.Duration

	spawn  chan SpawnRequest
	kill   chan KillRequest
	submit chan SubmitRequest
	stop   chan struct{}

	faults atomic.Uint64

	// Optional loggers (may be nil). Implemented in internal/persistence/*.
	tickLogger  TickLogger
	faultLogger FaultLogger

	metrics     atomic.Value // Metrics
	diagnostics atomic.Value // []creature.Diagnostics
}

func New(cfg WorldConfig, cats *catalogs.Catalogs) (*World, error) {
	if cats == nil || cats.Creatures.Registry == nil {
		return nil, fmt.Errorf("world: catalogs required")
	}
	if err := cfg.Tuning.Validate(); err != nil {
		return nil, err
	}
	// Resolve required block ids.
	b := func(id string) (uint16, error) {
		v, ok := cats.Blocks.ID(id)
		if !ok {
			return 0, fmt.Errorf("missing block id in palette: %s", id)
		}
		return v, nil
	}
	air, err := b("AIR")
	if err != nil {
		return nil, err
	}
	dirt, err := b("DIRT")
	if err != nil {
		return nil, err
	}
	stone, err := b("STONE")
	if err != nil {
		return nil, err
	}

	t := cfg.Tuning
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[world] ", log.LstdFlags|log.Lmicroseconds)
	}
	w := &World{
		cfg:    cfg,
		tune:   t,
		cats:   cats,
		logger: logger,
		grid: voxel.NewGrid(voxel.Config{
			Height:    t.World.Height,
			BoundaryR: t.World.BoundaryR,
			Air:       air,
			Props:     cats.Blocks.Props(),
			Gen: voxel.FlatGen{
				Seed:           t.World.Seed,
				GroundY:        t.World.GroundY,
				Air:            air,
				Dirt:           dirt,
				Stone:          stone,
				PillarPermille: t.World.PillarPermille,
				PoolPermille:   t.World.PoolPermille,
				LavaPermille:   t.World.LavaPermille,
			},
		}),
		objects:   entities.NewIndex(),
		sched:     scheduler.New[*creature.Creature](t.MaxAIPerFrame),
		creatures: map[string]*creature.Creature{},
		spawn:     make(chan SpawnRequest, 64),
		kill:      make(chan KillRequest, 64),
		submit:    make(chan SubmitRequest, 256),
		stop:      make(chan struct{}),
	}
	w.moves = &movement.Generator{
		Grid:            w.grid,
		Objects:         w.objects,
		Teleporters:     func() []*entities.Object { return w.objects.TeleportPads() },
		TeleportRangeSq: t.TeleportRangeSq(),
		EnableDig:       t.EnableDig,
	}
	w.plans = planner.NewPlans(pathfind.NewSearcher(w.moves, t.MaxPathExpansions), t.PlanBudgetPerFrame)
	w.env = creature.Env{
		PrimaryFaction: t.PrimaryFaction,
		Grid:           w.grid,
		Objects:        w.objects,
		Moves:          w.moves,
		Plans:          w.plans,
		Faults:         w,
		Idle:           w.idleTask,
		Logger:         logger,
	}
	w.pool = planner.NewPool(t.PrimaryFaction, &w.env)
	w.env.Pool = w.pool
	w.seedFeatures()
	w.publish(0, 0)
	return w, nil
}

func (w *World) ID() string {
	if w == nil {
		return ""
	}
	return w.cfg.ID
}

func (w *World) SetTickLogger(l TickLogger)   { w.tickLogger = l }
func (w *World) SetFaultLogger(l FaultLogger) { w.faultLogger = l }

func (w *World) Grid() *voxel.Grid            { return w.grid }
func (w *World) Objects() *entities.Index     { return w.objects }
func (w *World) Pool() *planner.Pool          { return w.pool }
func (w *World) Plans() *planner.Plans        { return w.plans }
func (w *World) Env() *creature.Env           { return &w.env }
func (w *World) Now() time.Duration           { return w.now }
func (w *World) Frame() uint64                { return w.frame.Load() }
func (w *World) Catalogs() *catalogs.Catalogs { return w.cats }
func (w *World) Tuning() tuning.Tuning        { return w.tune }

// Creature returns the live creature with id, or nil.
func (w *World) Creature(id string) *creature.Creature { return w.creatures[id] }

func (w *World) CreatureCount() int { return len(w.creatures) }

// NewCreature builds a creature of class standing at at. It is not part of the world until
// OnComponentCreated.
func (w *World) NewCreature(class string, at voxel.Vec3i) (*creature.Creature, error) {
	cls, ok := w.cats.Creatures.Registry.Class(class)
	if !ok {
		return nil, fmt.Errorf("unknown creature class: %s", class)
	}
	if !w.grid.At(at).IsEmpty() {
		return nil, fmt.Errorf("%w: %s", ErrSpawnBlocked, at)
	}
	c := creature.New(fmt.Sprintf("%s_%s", class, uuid.NewString()[:8]), cls)
	c.State = movement.State{Cell: at}
	c.Mind.SetLimits(creature.Limits{
		MaxPending:      w.tune.MaxPendingTasks,
		MaxFailed:       w.tune.MaxFailedTasks,
		FailureWindow:   w.tune.FailureWindow(),
		PreemptInterval: w.tune.PreemptInterval(),
	})
	return c, nil
}

// OnComponentCreated adds c to the scheduler and the plan service.
func (w *World) OnComponentCreated(c *creature.Creature) {
	if c == nil || w.creatures[c.ID] != nil {
		return
	}
	w.creatures[c.ID] = c
	w.sched.Register(c)
	w.plans.Subscribe(c)
	c.Touch(w.frame.Load())
}

// OnComponentDestroyed kills c's mind, returning its task to the pool when reassign is set
// and the task allows it, and removes c from the scheduler.
func (w *World) OnComponentDestroyed(c *creature.Creature, reassign bool) {
	if c == nil || w.creatures[c.ID] != c {
		return
	}
	c.Mind.Kill(&w.env, reassign)
	w.sched.Unregister(c)
	delete(w.creatures, c.ID)
}

// Assign gives t to the creature with id, or to the pool when id is empty.
func (w *World) Assign(t creature.Task, id string) error {
	if t == nil {
		return creature.ErrNilTask
	}
	if m, ok := t.(*tasks.Mine); ok && m.Breakable == nil {
		m.Breakable = w.cats.Blocks.Breakable
	}
	if id == "" {
		w.pool.AddTask(t)
		return nil
	}
	c := w.creatures[id]
	if c == nil {
		return fmt.Errorf("unknown creature: %s", id)
	}
	return c.Mind.AssignTask(t)
}

// idleTask picks the fallback task: sleep when tired, otherwise loiter.
func (w *World) idleTask(c *creature.Creature) creature.Task {
	if c.Energy < w.tune.Needs.SleepThreshold {
		return tasks.NewSleep(w.tune.Needs.RestRatePerSec)
	}
	return tasks.NewIdle(0)
}
