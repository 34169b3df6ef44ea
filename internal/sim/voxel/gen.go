package voxel

// FlatGen fills chunks with a flat world: solid ground below GroundY, seeded clusters of
// stone pillars, shallow water pools and lava pits on the surface.
type FlatGen struct {
	Seed    int64
	GroundY int

	Air   uint16
	Dirt  uint16
	Stone uint16

	// Cluster probabilities, permille per coarse grid cell.
	PillarPermille int
	PoolPermille   int
	LavaPermille   int
}

func (g FlatGen) Generate(ch *Chunk) {
	for ly := 0; ly < ChunkSize; ly++ {
		wy := ch.CY*ChunkSize + ly
		for lz := 0; lz < ChunkSize; lz++ {
			wz := ch.CZ*ChunkSize + lz
			for lx := 0; lx < ChunkSize; lx++ {
				wx := ch.CX*ChunkSize + lx
				b, l, lvl := g.Cell(wx, wy, wz)
				ch.Set(lx, ly, lz, b)
				ch.SetLiquid(lx, ly, lz, l, lvl)
			}
		}
	}
}

// Cell is the generated content of one cell.
func (g FlatGen) Cell(x, y, z int) (uint16, Liquid, uint8) {
	surface := g.GroundY - 1
	switch {
	case y < surface:
		return g.Stone, LiquidNone, 0
	case y == surface:
		switch {
		case InCluster(g.Seed+501, x, z, 48, 2, clampPermille(g.LavaPermille)):
			return g.Air, LiquidLava, MaxLiquidLevel
		case InCluster(g.Seed+502, x, z, 32, 3, clampPermille(g.PoolPermille)):
			return g.Air, LiquidWater, MaxLiquidLevel
		}
		return g.Dirt, LiquidNone, 0
	case y <= surface+3:
		if InCluster(g.Seed+503, x, z, 24, 1, clampPermille(g.PillarPermille)) {
			return g.Stone, LiquidNone, 0
		}
	}
	return g.Air, LiquidNone, 0
}

func clampPermille(v int) uint64 {
	if v < 0 {
		return 0
	}
	if v > 1000 {
		return 1000
	}
	return uint64(v)
}
