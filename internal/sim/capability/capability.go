// Package capability defines movement kinds and the per-creature table that says which of
// them a creature may use, at what cost and speed.
package capability

import (
	"fmt"
	"sort"
	"strings"
)

type Kind uint8

const (
	Walk Kind = iota
	Swim
	Fly
	Climb
	ClimbWalls
	Jump
	Fall
	Dig
	RideVehicle
	EnterVehicle
	ExitVehicle
	RideElevator
	Teleport
	DestroyObject

	NumKinds
)

var kindNames = [NumKinds]string{
	Walk:          "walk",
	Swim:          "swim",
	Fly:           "fly",
	Climb:         "climb",
	ClimbWalls:    "climb_walls",
	Jump:          "jump",
	Fall:          "fall",
	Dig:           "dig",
	RideVehicle:   "ride_vehicle",
	EnterVehicle:  "enter_vehicle",
	ExitVehicle:   "exit_vehicle",
	RideElevator:  "ride_elevator",
	Teleport:      "teleport",
	DestroyObject: "destroy_object",
}

func (k Kind) String() string {
	if k < NumKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown movement kind %q", s)
}

type Stat struct {
	Enabled bool
	Cost    float64
	Speed   float64
}

// Table is indexed by Kind. The zero Table allows nothing.
type Table [NumKinds]Stat

func (t *Table) Can(k Kind) bool {
	return t != nil && k < NumKinds && t[k].Enabled
}

// Cost of one edge of kind k, before the edge's own multiplier.
func (t *Table) Cost(k Kind) float64 {
	if t == nil || k >= NumKinds {
		return 0
	}
	return t[k].Cost
}

// Speed multiplier for kind k; never below a small positive floor.
func (t *Table) Speed(k Kind) float64 {
	if t == nil || k >= NumKinds || t[k].Speed <= 0 {
		return 1
	}
	return t[k].Speed
}

func (t *Table) Set(k Kind, enabled bool, cost, speed float64) {
	if k >= NumKinds {
		return
	}
	t[k] = Stat{Enabled: enabled, Cost: cost, Speed: speed}
}

// Enabled lists the enabled kinds in Kind order.
func (t *Table) Enabled() []Kind {
	out := make([]Kind, 0, NumKinds)
	for k := Kind(0); k < NumKinds; k++ {
		if t.Can(k) {
			out = append(out, k)
		}
	}
	return out
}

// Class is a named creature archetype with its movement table.
type Class struct {
	Name     string
	Movement Table
	Faction  string
	Speed    float64
}

// Registry maps class names to classes. It is built once (see catalogs.Load) and is
// read-only afterwards; callers receive it by injection.
type Registry struct {
	classes map[string]*Class
	names   []string
}

func NewRegistry(classes ...Class) (*Registry, error) {
	r := &Registry{classes: make(map[string]*Class, len(classes))}
	for i := range classes {
		c := classes[i]
		if c.Name == "" {
			return nil, fmt.Errorf("creature class: empty name")
		}
		if _, dup := r.classes[c.Name]; dup {
			return nil, fmt.Errorf("creature class %q: duplicate", c.Name)
		}
		r.classes[c.Name] = &c
		r.names = append(r.names, c.Name)
	}
	sort.Strings(r.names)
	return r, nil
}

// Class returns a copy so callers cannot mutate the registry.
func (r *Registry) Class(name string) (Class, bool) {
	if r == nil {
		return Class{}, false
	}
	c, ok := r.classes[name]
	if !ok {
		return Class{}, false
	}
	return *c, true
}

func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.names...)
}

// Walker is the table of an ordinary ground creature: walk, swim, jump, climb ladders,
// fall, ride vehicles.
func Walker() Table {
	var t Table
	t.Set(Walk, true, 1, 1)
	t.Set(Swim, true, 10, 0.5)
	t.Set(Jump, true, 2, 1)
	t.Set(Climb, true, 2, 0.5)
	t.Set(Fall, true, 1, 2)
	t.Set(RideVehicle, true, 0.5, 4)
	t.Set(EnterVehicle, true, 1, 1)
	t.Set(ExitVehicle, true, 1, 1)
	t.Set(RideElevator, true, 1, 1)
	t.Set(Dig, false, 25, 1)
	return t
}
