// Package movement enumerates the legal moves of a creature from a grid cell, given what the
// creature is able to do. Edges are produced lazily and never stored.
package movement

import (
	"fmt"

	"gridmind.ai/internal/sim/capability"
	"gridmind.ai/internal/sim/entities"
	"gridmind.ai/internal/sim/voxel"
)

type VehicleKind uint8

const (
	VehicleNone VehicleKind = iota
	VehicleRail
	VehicleOther
)

func (v VehicleKind) String() string {
	switch v {
	case VehicleRail:
		return "RAIL"
	case VehicleOther:
		return "OTHER"
	default:
		return "NONE"
	}
}

// State is where a creature is and what it rides. Tag carries transport specific data and
// must hold a pointer (or be nil): states compare it by reference.
type State struct {
	Cell        voxel.Vec3i
	VehicleKind VehicleKind
	Vehicle     *entities.Object
	PrevVehicle *entities.Object
	Tag         any
}

// Equal compares cell and vehicle kind by value, vehicle and tag by reference.
// PrevVehicle is bookkeeping for rail direction and does not take part.
func (s State) Equal(o State) bool {
	return s.Cell == o.Cell && s.VehicleKind == o.VehicleKind && s.Vehicle == o.Vehicle && s.Tag == o.Tag
}

// Key is a comparable projection of State suitable for map keys.
type Key struct {
	Cell        voxel.Vec3i
	VehicleKind VehicleKind
	Vehicle     *entities.Object
	Tag         any
}

func (s State) Key() Key {
	return Key{Cell: s.Cell, VehicleKind: s.VehicleKind, Vehicle: s.Vehicle, Tag: s.Tag}
}

func (s State) Riding() bool { return s.VehicleKind != VehicleNone }

func (s State) String() string {
	if s.VehicleKind == VehicleNone {
		return s.Cell.String()
	}
	return fmt.Sprintf("%s@%s", s.Cell, s.VehicleKind)
}

// Edge is one legal transition between two states.
type Edge struct {
	Source State
	Dest   State
	Kind   capability.Kind
	// Interact is the object the move goes through or uses (ladder, door, rail, pad).
	Interact *entities.Object
	// ActionVoxel is the wall being climbed for ClimbWalls edges; invalid otherwise.
	ActionVoxel    voxel.Voxel
	CostMultiplier float64
	// Offset is Dest.Cell - Source.Cell.
	Offset voxel.Vec3i
}

// Cost is the table cost of the edge kind scaled by the edge multiplier.
func (e Edge) Cost(t *capability.Table) float64 {
	m := e.CostMultiplier
	if m <= 0 {
		m = 1
	}
	return t.Cost(e.Kind) * m
}

// Duration is the time in seconds a creature needs to traverse the edge.
func (e Edge) Duration(t *capability.Table, baseSpeed float64) float64 {
	if baseSpeed <= 0 {
		baseSpeed = 1
	}
	return e.Cost(t) / (t.Speed(e.Kind) * baseSpeed)
}

func (e Edge) String() string {
	return fmt.Sprintf("%s %s->%s", e.Kind, e.Source, e.Dest)
}

// Mover is the part of a creature the generator needs.
type Mover struct {
	Caps    *capability.Table
	Faction string
}
