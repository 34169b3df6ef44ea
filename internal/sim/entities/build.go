package entities

import (
	"fmt"

	"gridmind.ai/internal/sim/voxel"
)

// Builders for the handful of object kinds the movement graph understands. Each returned
// object occupies exactly one cell.

func NewLadder(id string, at voxel.Vec3i) *Object {
	return &Object{ID: id, Kind: "LADDER", Tags: TagClimbable, Bounds: voxel.CellBox(at)}
}

func NewDoor(id string, at voxel.Vec3i, faction string) *Object {
	return &Object{ID: id, Kind: "DOOR", Tags: TagDoor, Bounds: voxel.CellBox(at), Faction: faction}
}

func NewTeleportPad(id string, at voxel.Vec3i) *Object {
	return &Object{ID: id, Kind: "TELEPORT_PAD", Tags: TagTeleportPad, Bounds: voxel.CellBox(at)}
}

func NewRail(id string, at voxel.Vec3i) *Object {
	o := &Object{ID: id, Kind: "RAIL", Tags: TagRail, Bounds: voxel.CellBox(at)}
	o.Rail = &RailSegment{Object: o}
	return o
}

// NewRailLine lays rails on each cell in order and links consecutive segments.
func NewRailLine(prefix string, cells ...voxel.Vec3i) []*Object {
	out := make([]*Object, 0, len(cells))
	for i, c := range cells {
		o := NewRail(fmt.Sprintf("%s_%d", prefix, i), c)
		if i > 0 {
			Connect(out[i-1].Rail, o.Rail)
		}
		out = append(out, o)
	}
	return out
}

// NewElevator builds a shaft with one platform per cell from bottom to top inclusive.
func NewElevator(id string, bottom voxel.Vec3i, height int) (*ElevatorShaft, []*Object) {
	shaft := &ElevatorShaft{ID: id}
	for i := 0; i < height; i++ {
		at := bottom.Add(voxel.Vec3i{Y: i})
		o := &Object{
			ID:       fmt.Sprintf("%s_%d", id, i),
			Kind:     "ELEVATOR",
			Tags:     TagElevator,
			Bounds:   voxel.CellBox(at),
			Elevator: shaft,
		}
		shaft.Segments = append(shaft.Segments, o)
	}
	return shaft, shaft.Segments
}
