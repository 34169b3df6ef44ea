package world

import (
	"slices"
	"strings"
	"time"

	"gridmind.ai/internal/sim/creature"
	"gridmind.ai/internal/sim/planner"
)

// Metrics is a thread-safe read-only view of key world runtime signals.
// It is updated from the world loop goroutine and read from HTTP handlers/tests.
type Metrics struct {
	Frame uint64 `json:"frame"`
	NowMS int64  `json:"now_ms"`

	Agents       int    `json:"agents"`
	Updated      int    `json:"updated"`
	TotalUpdated uint64 `json:"total_updated"`
	PoolTasks    int    `json:"pool_tasks"`
	Faults       uint64 `json:"faults"`

	Plans planner.PlanStats `json:"plans"`

	StepMS float64 `json:"step_ms"`
}

func (w *World) Metrics() Metrics {
	if w == nil {
		return Metrics{}
	}
	m, _ := w.metrics.Load().(Metrics)
	return m
}

// Diagnostics lists every creature's mind as of the last frame, ordered by creature id.
func (w *World) Diagnostics() []creature.Diagnostics {
	if w == nil {
		return nil
	}
	d, _ := w.diagnostics.Load().([]creature.Diagnostics)
	return d
}

func (w *World) publish(updated int, took time.Duration) {
	w.metrics.Store(Metrics{
		Frame:        w.frame.Load(),
		NowMS:        w.now.Milliseconds(),
		Agents:       len(w.creatures),
		Updated:      updated,
		TotalUpdated: w.sched.TotalUpdated(),
		PoolTasks:    w.pool.Len(),
		Faults:       w.faults.Load(),
		Plans:        w.plans.Stats(),
		StepMS:       float64(took.Microseconds()) / 1000,
	})

	diags := make([]creature.Diagnostics, 0, len(w.creatures))
	for _, c := range w.creatures {
		diags = append(diags, c.Mind.Diagnostics())
	}
	slices.SortFunc(diags, func(a, b creature.Diagnostics) int { return strings.Compare(a.Creature, b.Creature) })
	w.diagnostics.Store(diags)
}
