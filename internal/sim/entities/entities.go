// Package entities holds interactable world objects (doors, ladders, rails, elevators,
// teleport pads) and the broad-phase index used to find them by bounding volume.
package entities

import (
	"slices"
	"sort"

	"gridmind.ai/internal/sim/voxel"
)

type Tag uint16

const (
	TagClimbable Tag = 1 << iota
	TagDoor
	TagRail
	TagElevator
	TagTeleportPad
)

// Object is an interactable thing occupying part of the grid. Objects are identified by
// pointer; ID is for logs only.
type Object struct {
	ID      string
	Kind    string
	Tags    Tag
	Bounds  voxel.Box
	Faction string

	Rail     *RailSegment
	Elevator *ElevatorShaft
}

func (o *Object) Has(t Tag) bool { return o != nil && o.Tags&t != 0 }

// Cell is the cell holding the center of the object.
func (o *Object) Cell() voxel.Vec3i { return o.Bounds.Cell() }

// RailSegment is one node of a rail network. Connections are symmetric.
type RailSegment struct {
	Object    *Object
	Neighbors []*RailSegment
}

func Connect(a, b *RailSegment) {
	if a == nil || b == nil || a == b {
		return
	}
	for _, n := range a.Neighbors {
		if n == b {
			return
		}
	}
	a.Neighbors = append(a.Neighbors, b)
	b.Neighbors = append(b.Neighbors, a)
}

// ElevatorShaft is a vertical run of platform cells sharing one queue of riders.
type ElevatorShaft struct {
	ID       string
	Segments []*Object // bottom to top
	Queue    int
}

// Exits lists the cells a rider can reach from the given segment.
func (s *ElevatorShaft) Exits(from *Object) []*Object {
	if s == nil {
		return nil
	}
	out := make([]*Object, 0, len(s.Segments))
	for _, seg := range s.Segments {
		if seg != from {
			out = append(out, seg)
		}
	}
	return out
}

// Index is a cell-bucketed broad phase. Accessed only from the world loop goroutine.
// An object's Tags must not change while it is indexed.
type Index struct {
	buckets map[voxel.Vec3i][]*Object
	objects map[*Object][]voxel.Vec3i
	seq     map[*Object]uint64
	nextSeq uint64
	pads    []*Object
}

func NewIndex() *Index {
	return &Index{
		buckets: map[voxel.Vec3i][]*Object{},
		objects: map[*Object][]voxel.Vec3i{},
		seq:     map[*Object]uint64{},
	}
}

func (ix *Index) Len() int { return len(ix.objects) }

func (ix *Index) Add(o *Object) {
	if o == nil {
		return
	}
	if _, ok := ix.objects[o]; ok {
		ix.Remove(o)
	}
	ix.nextSeq++
	ix.seq[o] = ix.nextSeq
	cells := coveredCells(o.Bounds)
	ix.objects[o] = cells
	for _, c := range cells {
		ix.buckets[c] = append(ix.buckets[c], o)
	}
	if o.Has(TagTeleportPad) {
		ix.pads = append(ix.pads, o)
	}
}

func (ix *Index) Remove(o *Object) {
	cells, ok := ix.objects[o]
	if !ok {
		return
	}
	for _, c := range cells {
		b := ix.buckets[c]
		for i, x := range b {
			if x == o {
				b = append(b[:i], b[i+1:]...)
				break
			}
		}
		if len(b) == 0 {
			delete(ix.buckets, c)
		} else {
			ix.buckets[c] = b
		}
	}
	delete(ix.objects, o)
	delete(ix.seq, o)
	if o.Has(TagTeleportPad) {
		// Copy so a slice handed out by TeleportPads stays intact.
		ix.pads = slices.DeleteFunc(slices.Clone(ix.pads), func(x *Object) bool { return x == o })
	}
}

// Query appends every object whose bounds intersect box to out, in insertion order,
// without duplicates.
func (ix *Index) Query(box voxel.Box, out []*Object) []*Object {
	start := len(out)
	for _, c := range coveredCells(box) {
		for _, o := range ix.buckets[c] {
			if !o.Bounds.Intersects(box) {
				continue
			}
			dup := false
			for _, x := range out[start:] {
				if x == o {
					dup = true
					break
				}
			}
			if !dup {
				out = append(out, o)
			}
		}
	}
	found := out[start:]
	sort.Slice(found, func(i, j int) bool { return ix.seq[found[i]] < ix.seq[found[j]] })
	return out
}

// TeleportPads returns the indexed teleport pads in insertion order. The slice is shared
// and must not be modified; it is not updated by later Add or Remove calls.
func (ix *Index) TeleportPads() []*Object { return ix.pads }

// All returns every indexed object carrying tag, in insertion order.
func (ix *Index) All(tag Tag) []*Object {
	out := make([]*Object, 0, 8)
	for o := range ix.objects {
		if o.Has(tag) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return ix.seq[out[i]] < ix.seq[out[j]] })
	return out
}

func coveredCells(b voxel.Box) []voxel.Vec3i {
	lo := voxel.Vec3i{X: floor(b.Min.X), Y: floor(b.Min.Y), Z: floor(b.Min.Z)}
	hi := voxel.Vec3i{X: ceil(b.Max.X) - 1, Y: ceil(b.Max.Y) - 1, Z: ceil(b.Max.Z) - 1}
	if hi.X < lo.X {
		hi.X = lo.X
	}
	if hi.Y < lo.Y {
		hi.Y = lo.Y
	}
	if hi.Z < lo.Z {
		hi.Z = lo.Z
	}
	out := make([]voxel.Vec3i, 0, (hi.X-lo.X+1)*(hi.Y-lo.Y+1)*(hi.Z-lo.Z+1))
	for y := lo.Y; y <= hi.Y; y++ {
		for z := lo.Z; z <= hi.Z; z++ {
			for x := lo.X; x <= hi.X; x++ {
				out = append(out, voxel.Vec3i{X: x, Y: y, Z: z})
			}
		}
	}
	return out
}

func floor(f float64) int {
	i := int(f)
	if float64(i) > f {
		i--
	}
	return i
}

func ceil(f float64) int {
	i := int(f)
	if float64(i) < f {
		i++
	}
	return i
}
