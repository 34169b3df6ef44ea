package world

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"gridmind.ai/internal/sim/creature"
	"gridmind.ai/internal/sim/scheduler"
	"gridmind.ai/internal/sim/voxel"
)

var (
	ErrStopped      = errors.New("world: stopped")
	ErrSpawnBlocked = errors.New("world: spawn cell not empty")
)

func (w *World) Run(ctx context.Context) error {
	interval := w.tune.TickInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingSpawns []SpawnRequest
	var pendingKills []KillRequest
	var pendingSubmits []SubmitRequest

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.spawn:
			pendingSpawns = append(pendingSpawns, req)
		case req := <-w.kill:
			pendingKills = append(pendingKills, req)
		case req := <-w.submit:
			pendingSubmits = append(pendingSubmits, req)
		case <-ticker.C:
			w.stepInternal(interval, pendingSpawns, pendingKills, pendingSubmits)
			pendingSpawns = pendingSpawns[:0]
			pendingKills = pendingKills[:0]
			pendingSubmits = pendingSubmits[:0]
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// StepOnce advances the world by one frame of real duration dt, in the same order as Run.
// It returns the frame id. Intended for tests and tools that drive the loop themselves.
func (w *World) StepOnce(dt time.Duration) uint64 {
	w.stepInternal(dt, nil, nil, nil)
	return w.frame.Load()
}

// Spawn asks the loop to create a creature and waits for its id.
func (w *World) Spawn(ctx context.Context, class string, at voxel.Vec3i) (string, error) {
	resp := make(chan SpawnResponse, 1)
	select {
	case w.spawn <- SpawnRequest{Class: class, At: at, Resp: resp}:
	case <-w.stop:
		return "", ErrStopped
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case r := <-resp:
		return r.ID, r.Err
	case <-w.stop:
		return "", ErrStopped
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Kill asks the loop to destroy a creature. It does not wait.
func (w *World) Kill(id string, reassign bool) bool {
	select {
	case w.kill <- KillRequest{ID: id, Reassign: reassign}:
		return true
	default:
		return false
	}
}

// Submit asks the loop to assign t (see Assign) and waits for the result.
func (w *World) Submit(ctx context.Context, t creature.Task, creatureID string) error {
	resp := make(chan error, 1)
	select {
	case w.submit <- SubmitRequest{Task: t, CreatureID: creatureID, Resp: resp}:
	case <-w.stop:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-resp:
		return err
	case <-w.stop:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *World) stepInternal(dt time.Duration, spawns []SpawnRequest, kills []KillRequest, submits []SubmitRequest) {
	start := time.Now()
	frame := w.frame.Add(1)
	scaled := time.Duration(float64(dt) * w.tune.TimeScale)
	w.now += scaled
	w.env.FrameID = frame
	w.env.Now = w.now

	entry := TickLogEntry{Frame: frame, NowMS: w.now.Milliseconds()}
	for _, req := range spawns {
		id, err := w.handleSpawn(req.Class, req.At)
		if err == nil {
			entry.Spawned = append(entry.Spawned, id)
		}
		if req.Resp != nil {
			req.Resp <- SpawnResponse{ID: id, Err: err}
		}
	}
	for _, req := range kills {
		if c := w.creatures[req.ID]; c != nil {
			w.OnComponentDestroyed(c, req.Reassign)
			entry.Killed = append(entry.Killed, req.ID)
		}
	}
	for _, req := range submits {
		err := w.Assign(req.Task, req.CreatureID)
		if req.Resp != nil {
			req.Resp <- err
		}
	}

	w.applyNeeds(frame, scaled)
	w.plans.Update()

	entry.Updated = w.sched.Update(scheduler.Frame{ID: frame, Now: w.now, Delta: scaled}, func(c *creature.Creature, dt time.Duration) {
		c.Mind.Update(&w.env, dt)
		entry.Minds = append(entry.Minds, c.Mind.Diagnostics())
	})
	entry.Agents = len(w.creatures)
	entry.Plans = w.plans.Stats()

	w.publish(entry.Updated, time.Since(start))
	if w.tickLogger != nil {
		if err := w.tickLogger.WriteTick(entry); err != nil {
			w.logger.Printf("tick log frame %d: %v", frame, err)
		}
	}
}

func (w *World) handleSpawn(class string, at voxel.Vec3i) (string, error) {
	c, err := w.NewCreature(class, at)
	if err != nil {
		return "", err
	}
	w.OnComponentCreated(c)
	return c.ID, nil
}

// applyNeeds marks every live creature active in frame and drains energy from those awake.
func (w *World) applyNeeds(frame uint64, dt time.Duration) {
	drain := w.tune.Needs.EnergyDrainPerSec * dt.Seconds()
	for _, c := range w.creatures {
		if c.Dead {
			continue
		}
		c.Touch(frame)
		if s, ok := c.Mind.Current().(creature.Sleeper); ok && s.Sleeping() {
			continue
		}
		c.Energy = max(0, c.Energy-drain)
	}
}

// SpawnConfigured creates the creatures listed in the tuning spawns, in rows of eight from
// each spawn point. Blocked cells are skipped. Call it before Run.
func (w *World) SpawnConfigured() ([]string, error) {
	var ids []string
	var errs []error
	for _, s := range w.tune.Spawns {
		at := voxel.Vec3i{X: s.At[0], Y: s.At[1], Z: s.At[2]}
		made := 0
		for dx := 0; made < s.Count && dx < s.Count*4; dx++ {
			p := at.Add(voxel.Vec3i{X: dx % 8, Z: dx / 8})
			id, err := w.handleSpawn(s.Class, p)
			if err != nil {
				if errors.Is(err, ErrSpawnBlocked) {
					continue
				}
				errs = append(errs, err)
				break
			}
			ids = append(ids, id)
			made++
		}
		if made < s.Count {
			errs = append(errs, fmt.Errorf("spawn %s: placed %d of %d", s.Class, made, s.Count))
		}
	}
	slices.Sort(ids)
	return ids, errors.Join(errs...)
}

// ReportFault implements creature.FaultReporter.
func (w *World) ReportFault(c *creature.Creature, fe *creature.FaultError) {
	w.faults.Add(1)
	if w.faultLogger == nil {
		return
	}
	e := FaultEntry{
		Frame:    w.frame.Load(),
		NowMS:    w.now.Milliseconds(),
		Creature: fe.Creature,
		Class:    c.Class,
		Task:     fe.Task,
		Act:      fe.Act,
		Value:    fmt.Sprint(fe.Value),
		Stack:    string(fe.Stack),
	}
	if err := w.faultLogger.WriteFault(e); err != nil {
		w.logger.Printf("fault log: %v", err)
	}
}
