package world

// Region is an arbitrary volume of block positions selected by the caller.
// Implementations must be immutable while a restore is running.
type Region interface {
	// Bounds returns the smallest axis-aligned bounding box containing the
	// region. Both corners are inclusive.
	Bounds() (min, max BlockPos)

	// Contains reports whether pos is part of the region.
	Contains(pos BlockPos) bool
}

// CuboidRegion is an axis-aligned box of blocks, both corners inclusive.
type CuboidRegion struct {
	Min, Max BlockPos
}

// NewCuboidRegion builds a cuboid from two arbitrary opposing corners.
func NewCuboidRegion(a, b BlockPos) CuboidRegion {
	return CuboidRegion{
		Min: BlockPos{X: min32(a.X, b.X), Y: min32(a.Y, b.Y), Z: min32(a.Z, b.Z)},
		Max: BlockPos{X: max32(a.X, b.X), Y: max32(a.Y, b.Y), Z: max32(a.Z, b.Z)},
	}
}

func (r CuboidRegion) Bounds() (BlockPos, BlockPos) {
	return r.Min, r.Max
}

func (r CuboidRegion) Contains(pos BlockPos) bool {
	return pos.X >= r.Min.X && pos.X <= r.Max.X &&
		pos.Y >= r.Min.Y && pos.Y <= r.Max.Y &&
		pos.Z >= r.Min.Z && pos.Z <= r.Max.Z
}

// ChunksInRegion returns the coordinates of all chunk columns covered by the
// region's horizontal bounding box, row-major and each exactly once. The
// result only depends on the region's bounds, so it is identical across calls
// for the same region.
func ChunksInRegion(r Region) []ChunkPos {
	rmin, rmax := r.Bounds()
	lo := ChunkAt(rmin)
	hi := ChunkAt(rmax)

	chunks := make([]ChunkPos, 0, int(hi.X-lo.X+1)*int(hi.Z-lo.Z+1))
	for x := lo.X; x <= hi.X; x++ {
		for z := lo.Z; z <= hi.Z; z++ {
			chunks = append(chunks, ChunkPos{X: x, Z: z})
		}
	}

	return chunks
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}
