package world

import "fmt"

// ChunkSize is the horizontal edge length of one chunk column in blocks.
const ChunkSize = 16

// BlockPos is the absolute position of a single block in a world.
type BlockPos struct {
	X, Y, Z int32
}

func (p BlockPos) String() string {
	return fmt.Sprintf("(%d, %d, %d)", p.X, p.Y, p.Z)
}

// ChunkPos identifies one chunk column by its horizontal chunk coordinates.
// It is a value type and may be used as a map key.
type ChunkPos struct {
	X, Z int32
}

func (p ChunkPos) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Z)
}

// ChunkAt returns the coordinate of the chunk containing pos. The arithmetic
// shift floors towards negative infinity, so blocks with negative coordinates
// map to the correct chunk.
func ChunkAt(pos BlockPos) ChunkPos {
	return ChunkPos{X: pos.X >> 4, Z: pos.Z >> 4}
}

// Origin returns the position of the chunk's lowest-coordinate block column.
func (p ChunkPos) Origin() (x, z int32) {
	return p.X << 4, p.Z << 4
}

// Block is the decoded state of a single block. The zero value is air.
type Block uint32

// Air is the absence of a block.
const Air Block = 0
