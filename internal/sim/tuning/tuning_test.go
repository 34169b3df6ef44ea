package tuning

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	d := Defaults()
	if err := d.Validate(); err != nil {
		t.Fatalf("Defaults invalid: %v", err)
	}
	if d.PreemptInterval() != 3*time.Second || d.FailureWindow() != time.Minute {
		t.Fatalf("preempt=%v window=%v", d.PreemptInterval(), d.FailureWindow())
	}
	if d.TickInterval() != 100*time.Millisecond || d.TeleportRangeSq() != 100 {
		t.Fatalf("tick=%v teleport=%d", d.TickInterval(), d.TeleportRangeSq())
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	p := filepath.Join(t.TempDir(), "tuning.yaml")
	raw := `
tick_rate_hz: 20
max_ai_per_frame: 8
world:
  seed: 7
  height: 32
  ground_y: 6
spawns:
  - class: dwarf
    count: 3
    at: [1, 6, 2]
`
	if err := os.WriteFile(p, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.TickRateHz != 20 || got.MaxAIPerFrame != 8 || got.World.Seed != 7 {
		t.Fatalf("tuning=%+v", got)
	}
	if got.PlanBudgetPerFrame != Defaults().PlanBudgetPerFrame {
		t.Fatalf("plan budget=%d want default", got.PlanBudgetPerFrame)
	}
	if len(got.Spawns) != 1 || got.Spawns[0].At != [3]int{1, 6, 2} {
		t.Fatalf("spawns=%+v", got.Spawns)
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	bad := Defaults()
	bad.TickRateHz = 0
	bad.TimeScale = -1
	bad.World.GroundY = 99
	bad.Spawns = []Spawn{{Class: "", Count: 1}}
	err := bad.Validate()
	if err == nil {
		t.Fatalf("Validate accepted bad tuning")
	}
	for _, want := range []string{"tick_rate_hz", "time_scale", "ground_y", "spawns[0]"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	p := filepath.Join(t.TempDir(), "tuning.yaml")
	os.WriteFile(p, []byte("tick_rate_hz: [oops"), 0o644)
	if _, err := Load(p); err == nil {
		t.Fatalf("Load accepted malformed yaml")
	}
}
