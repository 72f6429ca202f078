package world

import (
	"sync"

	"github.com/worldsnap/worldsnap/internal/errors"
)

// EditTarget receives restored blocks. It is owned by the caller; all
// synchronization against concurrent use from outside a restore is the
// target's responsibility.
type EditTarget interface {
	// SetBlock writes a block at an absolute position. It returns an error if
	// the target rejects the position, for example because it is outside the
	// target's bounds.
	SetBlock(pos BlockPos, b Block) error
}

// MemoryTarget is an in-memory EditTarget bounded by a cuboid. Writes outside
// the bounds are rejected. It is safe for concurrent use.
type MemoryTarget struct {
	bounds CuboidRegion

	mu     sync.Mutex
	blocks map[BlockPos]Block
}

// NewMemoryTarget returns an empty target accepting writes within bounds.
func NewMemoryTarget(bounds CuboidRegion) *MemoryTarget {
	return &MemoryTarget{
		bounds: bounds,
		blocks: make(map[BlockPos]Block),
	}
}

func (t *MemoryTarget) SetBlock(pos BlockPos, b Block) error {
	if !t.bounds.Contains(pos) {
		return errors.Errorf("position %v outside target bounds %v..%v", pos, t.bounds.Min, t.bounds.Max)
	}

	t.mu.Lock()
	t.blocks[pos] = b
	t.mu.Unlock()
	return nil
}

// Block returns the block written at pos and whether any write happened there.
func (t *MemoryTarget) Block(pos BlockPos) (Block, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, ok := t.blocks[pos]
	return b, ok
}

// Len returns the number of positions written so far.
func (t *MemoryTarget) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.blocks)
}

// Reset discards all writes.
func (t *MemoryTarget) Reset() {
	t.mu.Lock()
	t.blocks = make(map[BlockPos]Block)
	t.mu.Unlock()
}
