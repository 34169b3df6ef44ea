package voxel

import "fmt"

type Vec3i struct{ X, Y, Z int }

func (v Vec3i) Add(o Vec3i) Vec3i { return Vec3i{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z} }
func (v Vec3i) Sub(o Vec3i) Vec3i { return Vec3i{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z} }

func (v Vec3i) DistSq(o Vec3i) int {
	d := v.Sub(o)
	return d.X*d.X + d.Y*d.Y + d.Z*d.Z
}

// Manhattan is the 3D taxicab distance.
func (v Vec3i) Manhattan(o Vec3i) int {
	d := v.Sub(o)
	return AbsInt(d.X) + AbsInt(d.Y) + AbsInt(d.Z)
}

func (v Vec3i) String() string { return fmt.Sprintf("(%d,%d,%d)", v.X, v.Y, v.Z) }

type Vec3f struct{ X, Y, Z float64 }

// Box is an axis-aligned bounding volume in world units. One cell spans [p, p+1) on each axis.
type Box struct {
	Min Vec3f
	Max Vec3f
}

func CellBox(p Vec3i) Box {
	return Box{
		Min: Vec3f{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)},
		Max: Vec3f{X: float64(p.X + 1), Y: float64(p.Y + 1), Z: float64(p.Z + 1)},
	}
}

// CellsBox spans every cell from lo to hi inclusive.
func CellsBox(lo, hi Vec3i) Box {
	return Box{
		Min: Vec3f{X: float64(lo.X), Y: float64(lo.Y), Z: float64(lo.Z)},
		Max: Vec3f{X: float64(hi.X + 1), Y: float64(hi.Y + 1), Z: float64(hi.Z + 1)},
	}
}

// Intersects uses strict overlap, so boxes that only share a face do not intersect.
func (b Box) Intersects(o Box) bool {
	return b.Min.X < o.Max.X && b.Max.X > o.Min.X &&
		b.Min.Y < o.Max.Y && b.Max.Y > o.Min.Y &&
		b.Min.Z < o.Max.Z && b.Max.Z > o.Min.Z
}

func (b Box) Center() Vec3f {
	return Vec3f{X: (b.Min.X + b.Max.X) / 2, Y: (b.Min.Y + b.Max.Y) / 2, Z: (b.Min.Z + b.Max.Z) / 2}
}

// Cell returns the cell containing the center of the box.
func (b Box) Cell() Vec3i {
	c := b.Center()
	return Vec3i{X: floorf(c.X), Y: floorf(c.Y), Z: floorf(c.Z)}
}

func floorf(f float64) int {
	i := int(f)
	if float64(i) > f {
		i--
	}
	return i
}

// Liquid classifies the fluid in a cell. Later values are more hazardous.
type Liquid uint8

const (
	LiquidNone Liquid = iota
	LiquidWater
	LiquidLava
)

// MostHazardous is the liquid no movement edge may ever enter.
const MostHazardous = LiquidLava

const (
	MaxLiquidLevel = 8
	// Cells holding more than this much liquid count as submerged.
	SubmergedLevel = 4
)

func (l Liquid) String() string {
	switch l {
	case LiquidWater:
		return "WATER"
	case LiquidLava:
		return "LAVA"
	default:
		return "NONE"
	}
}

// Voxel is a read-only handle to one grid cell. The zero value is an invalid handle.
type Voxel struct {
	Pos    Vec3i
	Block  uint16
	Liquid Liquid
	Level  uint8

	valid bool
	solid bool
}

func (v Voxel) IsValid() bool { return v.valid }

// IsEmpty reports whether the cell holds no solid block. Invalid handles are never empty.
func (v Voxel) IsEmpty() bool { return v.valid && !v.solid }

func (v Voxel) HasLiquid() bool { return v.valid && v.Liquid != LiquidNone && v.Level > 0 }

func (v Voxel) Submerged() bool { return v.HasLiquid() && v.Level > SubmergedLevel }

func (v Voxel) Bounds() Box { return CellBox(v.Pos) }
