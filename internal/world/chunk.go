package world

// Chunk is the decoded block data of one chunk column. Block storage is dense
// over the column's vertical extent [MinY, MinY+Height).
type Chunk struct {
	Pos  ChunkPos
	MinY int32

	height int32
	blocks []Block
	biomes []uint8 // one entry per block column, may be nil
}

// NewChunk returns an all-air chunk column spanning height blocks starting at
// minY.
func NewChunk(pos ChunkPos, minY, height int32) *Chunk {
	if height < 0 {
		height = 0
	}
	return &Chunk{
		Pos:    pos,
		MinY:   minY,
		height: height,
		blocks: make([]Block, int(height)*ChunkSize*ChunkSize),
	}
}

// Height returns the vertical extent of the chunk in blocks.
func (c *Chunk) Height() int32 {
	return c.height
}

// Bounds returns the inclusive corners of the chunk's block volume.
func (c *Chunk) Bounds() (min, max BlockPos) {
	ox, oz := c.Pos.Origin()
	min = BlockPos{X: ox, Y: c.MinY, Z: oz}
	max = BlockPos{X: ox + ChunkSize - 1, Y: c.MinY + c.height - 1, Z: oz + ChunkSize - 1}
	return min, max
}

// index maps an absolute block position to the dense storage index, or -1 if
// the position is outside the chunk.
func (c *Chunk) index(pos BlockPos) int {
	if ChunkAt(pos) != c.Pos {
		return -1
	}
	y := pos.Y - c.MinY
	if y < 0 || y >= c.height {
		return -1
	}
	lx := pos.X & (ChunkSize - 1)
	lz := pos.Z & (ChunkSize - 1)
	return int(y)*ChunkSize*ChunkSize + int(lx)*ChunkSize + int(lz)
}

// Block returns the block at an absolute position, and whether the position is
// inside the chunk.
func (c *Chunk) Block(pos BlockPos) (Block, bool) {
	i := c.index(pos)
	if i < 0 {
		return Air, false
	}
	return c.blocks[i], true
}

// SetBlock stores a block at an absolute position. It reports whether the
// position is inside the chunk.
func (c *Chunk) SetBlock(pos BlockPos, b Block) bool {
	i := c.index(pos)
	if i < 0 {
		return false
	}
	c.blocks[i] = b
	return true
}

// HasBiomes reports whether biome data was decoded for this chunk.
func (c *Chunk) HasBiomes() bool {
	return c.biomes != nil
}

// Biome returns the biome id of the block column at chunk-local coordinates.
func (c *Chunk) Biome(lx, lz int32) uint8 {
	if c.biomes == nil {
		return 0
	}
	return c.biomes[int(lx&(ChunkSize-1))*ChunkSize+int(lz&(ChunkSize-1))]
}

// SetBiome stores the biome id of the block column at chunk-local coordinates.
func (c *Chunk) SetBiome(lx, lz int32, biome uint8) {
	if c.biomes == nil {
		c.biomes = make([]uint8, ChunkSize*ChunkSize)
	}
	c.biomes[int(lx&(ChunkSize-1))*ChunkSize+int(lz&(ChunkSize-1))] = biome
}
