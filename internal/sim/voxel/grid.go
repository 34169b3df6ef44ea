package voxel

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"
)

const ChunkSize = 16

type ChunkKey struct {
	CX int
	CY int
	CZ int
}

type Chunk struct {
	CX, CY, CZ int
	Blocks     []uint16 // len = 16^3, x fastest, then z, then y
	Liquids    []Liquid
	Levels     []uint8

	dirty bool
	hash  [32]byte
}

func newChunk(k ChunkKey) *Chunk {
	n := ChunkSize * ChunkSize * ChunkSize
	return &Chunk{
		CX:      k.CX,
		CY:      k.CY,
		CZ:      k.CZ,
		Blocks:  make([]uint16, n),
		Liquids: make([]Liquid, n),
		Levels:  make([]uint8, n),
	}
}

func (c *Chunk) index(x, y, z int) int {
	return x + z*ChunkSize + y*ChunkSize*ChunkSize
}

func (c *Chunk) Get(x, y, z int) uint16 { return c.Blocks[c.index(x, y, z)] }

func (c *Chunk) Set(x, y, z int, b uint16) {
	i := c.index(x, y, z)
	if c.Blocks[i] == b {
		return
	}
	c.Blocks[i] = b
	c.dirty = true
}

func (c *Chunk) SetLiquid(x, y, z int, l Liquid, level uint8) {
	i := c.index(x, y, z)
	if level == 0 {
		l = LiquidNone
	}
	if l == LiquidNone {
		level = 0
	}
	if c.Liquids[i] == l && c.Levels[i] == level {
		return
	}
	c.Liquids[i] = l
	c.Levels[i] = level
	c.dirty = true
}

func (c *Chunk) Digest() [32]byte {
	if c.dirty || c.hash == ([32]byte{}) {
		h := sha256.New()
		var tmp [2]byte
		for i, v := range c.Blocks {
			binary.LittleEndian.PutUint16(tmp[:], v)
			h.Write(tmp[:])
			h.Write([]byte{byte(c.Liquids[i]), c.Levels[i]})
		}
		copy(c.hash[:], h.Sum(nil))
		c.dirty = false
	}
	return c.hash
}

// BlockProps describes how the grid treats a palette id.
type BlockProps struct {
	Solid bool
}

// Generator fills freshly created chunks. Cell must agree with Generate for every cell, so
// reads of chunks that are not loaded can be answered without creating them.
type Generator interface {
	Generate(c *Chunk)
	Cell(x, y, z int) (uint16, Liquid, uint8)
}

type Config struct {
	Height    int // cells along Y, valid range [0, Height)
	BoundaryR int // horizontal half extent; 0 means unbounded
	Air       uint16
	Props     []BlockProps // indexed by palette id
	Gen       Generator    // optional
}

// Grid is a chunked voxel store. Accessed only from the world loop goroutine. Reads never
// create chunks; only writes and Load do.
type Grid struct {
	cfg    Config
	chunks map[ChunkKey]*Chunk
}

func NewGrid(cfg Config) *Grid {
	if cfg.Height <= 0 {
		cfg.Height = ChunkSize
	}
	return &Grid{cfg: cfg, chunks: map[ChunkKey]*Chunk{}}
}

func (g *Grid) Height() int    { return g.cfg.Height }
func (g *Grid) Air() uint16    { return g.cfg.Air }
func (g *Grid) BoundaryR() int { return g.cfg.BoundaryR }

func (g *Grid) InBounds(p Vec3i) bool {
	if p.Y < 0 || p.Y >= g.cfg.Height {
		return false
	}
	if r := g.cfg.BoundaryR; r > 0 {
		if p.X < -r || p.X > r || p.Z < -r || p.Z > r {
			return false
		}
	}
	return true
}

func (g *Grid) Solid(b uint16) bool {
	if int(b) >= len(g.cfg.Props) {
		return b != g.cfg.Air
	}
	return g.cfg.Props[b].Solid
}

// At returns a handle for p. Out-of-bounds positions yield an invalid handle.
func (g *Grid) At(p Vec3i) Voxel {
	if !g.InBounds(p) {
		return Voxel{Pos: p}
	}
	b, l, lvl := g.read(p)
	return Voxel{
		Pos:    p,
		Block:  b,
		Liquid: l,
		Level:  lvl,
		valid:  true,
		solid:  g.Solid(b),
	}
}

// read returns the stored cell, or the generated one when its chunk is not loaded.
func (g *Grid) read(p Vec3i) (uint16, Liquid, uint8) {
	if ch, ok := g.chunks[keyFor(p)]; ok {
		i := ch.index(Mod(p.X, ChunkSize), Mod(p.Y, ChunkSize), Mod(p.Z, ChunkSize))
		return ch.Blocks[i], ch.Liquids[i], ch.Levels[i]
	}
	if g.cfg.Gen != nil {
		return g.cfg.Gen.Cell(p.X, p.Y, p.Z)
	}
	return g.cfg.Air, LiquidNone, 0
}

// Load materializes the chunk holding p. It reports false for out-of-bounds cells.
func (g *Grid) Load(p Vec3i) bool {
	if !g.InBounds(p) {
		return false
	}
	g.chunkFor(p)
	return true
}

func (g *Grid) SetBlock(p Vec3i, b uint16) bool {
	if !g.InBounds(p) {
		return false
	}
	ch, lx, ly, lz := g.chunkFor(p)
	ch.Set(lx, ly, lz, b)
	if g.Solid(b) {
		ch.SetLiquid(lx, ly, lz, LiquidNone, 0)
	}
	return true
}

func (g *Grid) SetLiquid(p Vec3i, l Liquid, level uint8) bool {
	if !g.InBounds(p) {
		return false
	}
	if level > MaxLiquidLevel {
		level = MaxLiquidLevel
	}
	ch, lx, ly, lz := g.chunkFor(p)
	ch.SetLiquid(lx, ly, lz, l, level)
	return true
}

// SurfaceY returns the lowest empty cell above the highest solid block in column (x,z), or 0.
func (g *Grid) SurfaceY(x, z int) int {
	for y := g.cfg.Height - 1; y >= 0; y-- {
		if !g.At(Vec3i{X: x, Y: y, Z: z}).IsEmpty() {
			if y+1 >= g.cfg.Height {
				return y
			}
			return y + 1
		}
	}
	return 0
}

func keyFor(p Vec3i) ChunkKey {
	return ChunkKey{
		CX: FloorDiv(p.X, ChunkSize),
		CY: FloorDiv(p.Y, ChunkSize),
		CZ: FloorDiv(p.Z, ChunkSize),
	}
}

func (g *Grid) chunkFor(p Vec3i) (*Chunk, int, int, int) {
	k := keyFor(p)
	ch, ok := g.chunks[k]
	if !ok {
		ch = newChunk(k)
		if g.cfg.Air != 0 {
			for i := range ch.Blocks {
				ch.Blocks[i] = g.cfg.Air
			}
		}
		if g.cfg.Gen != nil {
			g.cfg.Gen.Generate(ch)
		}
		ch.dirty = true
		_ = ch.Digest()
		g.chunks[k] = ch
	}
	return ch, Mod(p.X, ChunkSize), Mod(p.Y, ChunkSize), Mod(p.Z, ChunkSize)
}

func (g *Grid) LoadedChunkKeys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(g.chunks))
	for k := range g.chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		if keys[i].CY != keys[j].CY {
			return keys[i].CY < keys[j].CY
		}
		return keys[i].CZ < keys[j].CZ
	})
	return keys
}

// Digest hashes every loaded chunk in key order.
func (g *Grid) Digest() [32]byte {
	h := sha256.New()
	var tmp [8]byte
	for _, k := range g.LoadedChunkKeys() {
		for _, v := range []int{k.CX, k.CY, k.CZ} {
			binary.LittleEndian.PutUint64(tmp[:], uint64(int64(v)))
			h.Write(tmp[:])
		}
		d := g.chunks[k].Digest()
		h.Write(d[:])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
