package creature

import (
	"fmt"
	"runtime/debug"
	"time"

	"gridmind.ai/internal/sim/act"
)

const (
	DefaultMaxPending      = 32
	DefaultMaxFailed       = 16
	DefaultFailureWindow   = time.Minute
	DefaultPreemptInterval = 3 * time.Second
)

// Limits bounds a Mind's queues and timers. Zero fields take the defaults.
type Limits struct {
	MaxPending      int
	MaxFailed       int
	FailureWindow   time.Duration
	PreemptInterval time.Duration
}

func (l Limits) withDefaults() Limits {
	if l.MaxPending <= 0 {
		l.MaxPending = DefaultMaxPending
	}
	if l.MaxFailed <= 0 {
		l.MaxFailed = DefaultMaxFailed
	}
	if l.FailureWindow <= 0 {
		l.FailureWindow = DefaultFailureWindow
	}
	if l.PreemptInterval <= 0 {
		l.PreemptInterval = DefaultPreemptInterval
	}
	return l
}

type failure struct {
	task Task
	at   time.Duration
}

// Mind is a creature's task queue. Invariants after every exported call: the current task
// is never also pending, and current task and behavior are either both set or both nil.
type Mind struct {
	owner  *Creature
	limits Limits

	current  Task
	behavior act.Act
	pending  []Task
	failed   []failure

	preemptElapsed time.Duration
	lastFailure    string
}

func (m *Mind) init(c *Creature) {
	m.owner = c
	m.limits = m.limits.withDefaults()
}

func (m *Mind) SetLimits(l Limits) { m.limits = l.withDefaults() }

func (m *Mind) Limits() Limits { return m.limits }

func (m *Mind) Current() Task       { return m.current }
func (m *Mind) Behavior() act.Act   { return m.behavior }
func (m *Mind) LastFailure() string { return m.lastFailure }

// Pending returns a copy of the pending list.
func (m *Mind) Pending() []Task { return append([]Task(nil), m.pending...) }

func (m *Mind) IsPending(t Task) bool { return m.pendingIndex(t) >= 0 }

// HasFailed reports whether t is in the failure history.
func (m *Mind) HasFailed(t Task) bool {
	for _, f := range m.failed {
		if f.task == t {
			return true
		}
	}
	return false
}

func (m *Mind) FailedCount() int { return len(m.failed) }

func (m *Mind) pendingIndex(t Task) int {
	for i, p := range m.pending {
		if p == t {
			return i
		}
	}
	return -1
}

func (m *Mind) removePending(i int) {
	m.pending = append(m.pending[:i], m.pending[i+1:]...)
}

// AssignTask appends t to the pending list.
func (m *Mind) AssignTask(t Task) error {
	if t == nil {
		return ErrNilTask
	}
	if t == m.current || m.pendingIndex(t) >= 0 {
		return ErrTaskAlreadyAssigned
	}
	if len(m.pending) >= m.limits.MaxPending {
		return fmt.Errorf("%w: %s", ErrTaskQueueFull, t.Name())
	}
	m.pending = append(m.pending, t)
	t.OnAssign(m.owner)
	return nil
}

// DeleteBadTasks expires old failures, then drops every pending task that asks to be deleted.
func (m *Mind) DeleteBadTasks(env *Env) {
	keep := m.failed[:0]
	for _, f := range m.failed {
		if env.Now-f.at < m.limits.FailureWindow {
			keep = append(keep, f)
		}
	}
	clear(m.failed[len(keep):])
	m.failed = keep

	kept := m.pending[:0]
	var dropped []Task
	for _, t := range m.pending {
		if t.ShouldDelete(m.owner, env) {
			dropped = append(dropped, t)
			continue
		}
		kept = append(kept, t)
	}
	clear(m.pending[len(kept):])
	m.pending = kept
	for _, t := range dropped {
		t.OnUnassign(m.owner)
	}
}

// GetEasiestTask picks the feasible task with the highest priority, then the lowest cost,
// skipping tasks that failed recently. Ties keep list order.
func (m *Mind) GetEasiestTask(env *Env, tasks []Task) Task {
	var best Task
	var bestPrio Priority
	var bestCost float64
	for _, t := range tasks {
		if t == nil || m.HasFailed(t) || !t.Feasible(m.owner, env) {
			continue
		}
		p, cost := t.Priority(), t.Cost(m.owner, env)
		if best == nil || p > bestPrio || p == bestPrio && cost < bestCost {
			best, bestPrio, bestCost = t, p, cost
		}
	}
	return best
}

// PreEmptTasks runs every PreemptInterval of accumulated dt. It may consume a held item and
// may replace the current task with a strictly more important one.
func (m *Mind) PreEmptTasks(env *Env, dt time.Duration) {
	if s, ok := m.current.(Sleeper); ok && s.Sleeping() {
		return
	}
	m.preemptElapsed += dt
	if m.preemptElapsed < m.limits.PreemptInterval {
		return
	}
	m.preemptElapsed = 0

	c := m.owner
	if it := c.consumeBeneficialItem(); it != nil {
		env.logf("creature %s used %s", c.ID, it.Name)
	}
	if m.current == nil {
		return
	}

	prio := m.current.Priority()
	var candidate Task
	for _, t := range m.pending {
		if t.Priority() > prio && t.Feasible(c, env) {
			candidate = t
			break
		}
	}
	fromPool := false
	if candidate == nil && env.Pool != nil && c.Faction == env.PrimaryFaction && !c.RefusingWork {
		candidate = env.Pool.GetBestTask(c, prio+1)
		fromPool = candidate != nil
	}
	if candidate == nil {
		return
	}
	if m.current.ShouldRetry(c) && !m.IsPending(m.current) {
		m.ReassignCurrentTask(env)
	}
	m.ChangeTask(env, candidate)
	if fromPool && m.current != candidate {
		// No behavior could be built; the pool owns the task again.
		env.Pool.AddTask(candidate)
	}
}

// ChangeTask makes t current, canceling the outgoing behavior. A nil t clears both.
func (m *Mind) ChangeTask(env *Env, t Task) {
	c := m.owner
	c.NoPath = false
	if b := m.behavior; b != nil {
		m.behavior = nil
		if !b.Done() {
			m.guard(env, "cancel", b.Cancel)
		}
	}
	if old := m.current; old != nil {
		m.current = nil
		old.OnUnassign(c)
	}
	if t == nil {
		return
	}
	if i := m.pendingIndex(t); i >= 0 {
		m.removePending(i)
	} else {
		t.OnAssign(c)
	}
	m.current = t
	if !m.createBehavior(env) {
		m.current = nil
		t.OnUnassign(c)
	}
}

// ReassignCurrentTask clears the current task and queues it again, so arbitration and cost
// run again next cycle.
func (m *Mind) ReassignCurrentTask(env *Env) {
	t := m.current
	m.ChangeTask(env, nil)
	if t == nil {
		return
	}
	if err := m.AssignTask(t); err != nil {
		env.logf("creature %s: requeue %s: %v", m.owner.ID, t.Name(), err)
	}
}

// Kill ends the creature's work. With reassign set, a primary-faction creature hands its
// current and pending tasks back to the pool, each only if the task allows it.
func (m *Mind) Kill(env *Env, reassign bool) {
	c := m.owner
	toPool := reassign && env.Pool != nil && c.Faction == env.PrimaryFaction
	t := m.current
	m.ChangeTask(env, nil)
	if t != nil && toPool && t.ReassignOnDeath() {
		env.Pool.AddTask(t)
	}
	pending := m.pending
	m.pending = nil
	for _, p := range pending {
		p.OnUnassign(c)
		if toPool && p.ReassignOnDeath() {
			env.Pool.AddTask(p)
		}
	}
	if env.Plans != nil {
		env.Plans.RemoveSubscriber(c)
	}
	c.Dead = true
}

// Update is one AI step for the owner.
func (m *Mind) Update(env *Env, dt time.Duration) {
	c := m.owner
	if c.Dead {
		return
	}
	c.Delta = dt
	m.DeleteBadTasks(env)
	if m.current != nil && m.current.ShouldDelete(c, env) {
		m.ChangeTask(env, nil)
	}
	m.PreEmptTasks(env, dt)

	if m.current == nil {
		if t := m.GetEasiestTask(env, m.pending); t != nil {
			m.ChangeTask(env, t)
		} else if env.Idle != nil {
			if idle := env.Idle(c); idle != nil {
				m.ChangeTask(env, idle)
			}
		}
	}
	if m.current == nil {
		return
	}
	if m.behavior == nil && !m.createBehavior(env) {
		m.ChangeTask(env, nil)
		return
	}

	status, fault := m.tick()
	if fault != nil {
		m.fault(env, fault)
		return
	}

	cur := m.current
	if cur.IsComplete(c, env) {
		m.ChangeTask(env, nil)
		return
	}
	switch status {
	case act.Success:
		m.ChangeTask(env, nil)
	case act.Fail:
		m.recordFailure(env, cur, fmt.Sprintf("%s failed at %s", cur.Name(), act.Path(m.behavior)))
		if cur.ShouldRetry(c) && !m.IsPending(cur) {
			m.ReassignCurrentTask(env)
			return
		}
		m.ChangeTask(env, nil)
	}
}

// createBehavior builds the behavior for the current task. It reports false, leaving the
// behavior nil, when the task cannot produce one.
func (m *Mind) createBehavior(env *Env) bool {
	t := m.current
	var b act.Act
	var err error
	if fe := m.guard(env, "create", func() { b, err = t.CreateBehavior(m.owner, env) }); fe != nil {
		return false
	}
	if err == nil && b == nil {
		err = ErrNoBehavior
	}
	if err != nil {
		m.lastFailure = fmt.Sprintf("%s: %v", t.Name(), err)
		env.logf("creature %s: %s", m.owner.ID, m.lastFailure)
		return false
	}
	m.behavior = b
	return true
}

func (m *Mind) tick() (status act.Status, fault *FaultError) {
	b := m.behavior
	defer func() {
		if r := recover(); r != nil {
			fault = m.faultError("tick", r, act.Path(b))
		}
	}()
	return b.Tick(), nil
}

// guard runs fn and turns a panic into a reported fault.
func (m *Mind) guard(env *Env, op string, fn func()) (fe *FaultError) {
	defer func() {
		if r := recover(); r != nil {
			fe = m.faultError(op, r, "")
			m.report(env, fe)
		}
	}()
	fn()
	return nil
}

func (m *Mind) faultError(op string, r any, path string) *FaultError {
	fe := &FaultError{Creature: m.owner.ID, Act: path, Value: r, Stack: debug.Stack()}
	if m.current != nil {
		fe.Task = m.current.Name()
	}
	if op != "tick" {
		fe.Act = op
	}
	return fe
}

// fault records the current task as failed and drops it.
func (m *Mind) fault(env *Env, fe *FaultError) {
	if t := m.current; t != nil {
		m.recordFailure(env, t, fe.Error())
	}
	m.report(env, fe)
	m.ChangeTask(env, nil)
}

func (m *Mind) report(env *Env, fe *FaultError) {
	m.lastFailure = fe.Error()
	if env.Faults != nil {
		env.Faults.ReportFault(m.owner, fe)
	}
	env.logf("%v", fe)
}

// recordFailure keeps one history entry per task; a repeat failure only refreshes the reason.
func (m *Mind) recordFailure(env *Env, t Task, reason string) {
	m.lastFailure = reason
	if m.HasFailed(t) {
		return
	}
	if len(m.failed) >= m.limits.MaxFailed {
		copy(m.failed, m.failed[1:])
		m.failed = m.failed[:len(m.failed)-1]
	}
	m.failed = append(m.failed, failure{task: t, at: env.Now})
}

// Diagnostics describes what a creature is doing, for display.
type Diagnostics struct {
	Creature    string `json:"creature"`
	Task        string `json:"task,omitempty"`
	Priority    string `json:"priority,omitempty"`
	Act         string `json:"act,omitempty"`
	ActPath     string `json:"act_path,omitempty"`
	LastFailure string `json:"last_failure,omitempty"`
	Pending     int    `json:"pending"`
	Failed      int    `json:"failed"`
}

func (m *Mind) Diagnostics() Diagnostics {
	d := Diagnostics{
		Creature:    m.owner.ID,
		LastFailure: m.lastFailure,
		Pending:     len(m.pending),
		Failed:      len(m.failed),
	}
	if m.current != nil {
		d.Task = m.current.Name()
		d.Priority = m.current.Priority().String()
	}
	if m.behavior != nil {
		d.Act = act.Leaf(m.behavior).Name()
		d.ActPath = act.Path(m.behavior)
	}
	return d
}
