package tuning

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	TickRateHz int     `yaml:"tick_rate_hz"`
	TimeScale  float64 `yaml:"time_scale"`

	MaxAIPerFrame     int `yaml:"max_ai_per_frame"`
	PreemptIntervalMs int `yaml:"preempt_interval_ms"`
	FailureWindowMs   int `yaml:"failure_window_ms"`
	MaxPendingTasks   int `yaml:"max_pending_tasks"`
	MaxFailedTasks    int `yaml:"max_failed_tasks"`

	PlanBudgetPerFrame int  `yaml:"plan_budget_per_frame"`
	MaxPathExpansions  int  `yaml:"max_path_expansions"`
	TeleportRange      int  `yaml:"teleport_range"`
	EnableDig          bool `yaml:"enable_dig"`

	PrimaryFaction string `yaml:"primary_faction"`

	World  World   `yaml:"world"`
	Needs  Needs   `yaml:"needs"`
	Spawns []Spawn `yaml:"spawns"`
}

type World struct {
	Seed           int64 `yaml:"seed"`
	Height         int   `yaml:"height"`
	GroundY        int   `yaml:"ground_y"`
	BoundaryR      int   `yaml:"boundary_r"`
	PillarPermille int   `yaml:"pillar_permille"`
	PoolPermille   int   `yaml:"pool_permille"`
	LavaPermille   int   `yaml:"lava_permille"`
}

// Needs drive the sleep cycle: energy drains while awake and a tired creature idles into
// a sleep task.
type Needs struct {
	EnergyDrainPerSec float64 `yaml:"energy_drain_per_sec"`
	SleepThreshold    float64 `yaml:"sleep_threshold"`
	RestRatePerSec    float64 `yaml:"rest_rate_per_sec"`
}

type Spawn struct {
	Class string `yaml:"class"`
	Count int    `yaml:"count"`
	At    [3]int `yaml:"at"`
}

func Defaults() Tuning {
	return Tuning{
		TickRateHz:         10,
		TimeScale:          1,
		MaxAIPerFrame:      32,
		PreemptIntervalMs:  3000,
		FailureWindowMs:    60000,
		MaxPendingTasks:    32,
		MaxFailedTasks:     16,
		PlanBudgetPerFrame: 8,
		MaxPathExpansions:  4096,
		TeleportRange:      10,
		PrimaryFaction:     "dwarves",
		World: World{
			Seed:      1337,
			Height:    32,
			GroundY:   8,
			BoundaryR: 64,
		},
		Needs: Needs{
			EnergyDrainPerSec: 0.002,
			SleepThreshold:    0.2,
			RestRatePerSec:    0.02,
		},
	}
}

// Load reads path over Defaults, so a file only needs the keys it changes.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	var errs []error
	positive := func(name string, v int) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be > 0, got %d", name, v))
		}
	}
	positive("tick_rate_hz", t.TickRateHz)
	positive("max_ai_per_frame", t.MaxAIPerFrame)
	positive("preempt_interval_ms", t.PreemptIntervalMs)
	positive("failure_window_ms", t.FailureWindowMs)
	positive("max_pending_tasks", t.MaxPendingTasks)
	positive("max_failed_tasks", t.MaxFailedTasks)
	positive("plan_budget_per_frame", t.PlanBudgetPerFrame)
	positive("max_path_expansions", t.MaxPathExpansions)
	positive("teleport_range", t.TeleportRange)
	positive("world.height", t.World.Height)
	if t.TimeScale <= 0 {
		errs = append(errs, fmt.Errorf("time_scale must be > 0, got %v", t.TimeScale))
	}
	if t.World.GroundY < 1 || t.World.GroundY >= t.World.Height {
		errs = append(errs, fmt.Errorf("world.ground_y %d outside [1,%d)", t.World.GroundY, t.World.Height))
	}
	if t.Needs.SleepThreshold < 0 || t.Needs.SleepThreshold >= 1 {
		errs = append(errs, fmt.Errorf("needs.sleep_threshold must be in [0,1), got %v", t.Needs.SleepThreshold))
	}
	for i, s := range t.Spawns {
		if s.Class == "" || s.Count <= 0 {
			errs = append(errs, fmt.Errorf("spawns[%d]: class and a positive count are required", i))
		}
	}
	return errors.Join(errs...)
}

func (t Tuning) TickInterval() time.Duration {
	return time.Second / time.Duration(t.TickRateHz)
}

func (t Tuning) PreemptInterval() time.Duration {
	return time.Duration(t.PreemptIntervalMs) * time.Millisecond
}

func (t Tuning) FailureWindow() time.Duration {
	return time.Duration(t.FailureWindowMs) * time.Millisecond
}

// TeleportRangeSq is the exclusive squared teleport distance used by the movement graph.
func (t Tuning) TeleportRangeSq() int { return t.TeleportRange * t.TeleportRange }
