package world

import (
	"gridmind.ai/internal/sim/creature"
	"gridmind.ai/internal/sim/planner"
)

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type FaultLogger interface {
	WriteFault(entry FaultEntry) error
}

// TickLogEntry records one frame: lifecycle changes and the minds updated in it.
type TickLogEntry struct {
	Frame   uint64                 `json:"frame"`
	NowMS   int64                  `json:"now_ms"`
	Agents  int                    `json:"agents"`
	Updated int                    `json:"updated"`
	Spawned []string               `json:"spawned,omitempty"`
	Killed  []string               `json:"killed,omitempty"`
	Plans   planner.PlanStats      `json:"plans"`
	Minds   []creature.Diagnostics `json:"minds,omitempty"`
}

// FaultEntry is a behavior fault caught at the creature boundary.
type FaultEntry struct {
	Frame    uint64 `json:"frame"`
	NowMS    int64  `json:"now_ms"`
	Creature string `json:"creature"`
	Class    string `json:"class"`
	Task     string `json:"task,omitempty"`
	Act      string `json:"act,omitempty"`
	Value    string `json:"value"`
	Stack    string `json:"stack,omitempty"`
}
