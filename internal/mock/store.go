package mock

import (
	"sync/atomic"

	"github.com/worldsnap/worldsnap/internal/snapshot"
	"github.com/worldsnap/worldsnap/internal/world"
)

// ChunkStore implements a mock chunk store.
type ChunkStore struct {
	ChunkBytesFn func(pos world.ChunkPos) ([]byte, error)
	CloseFn      func() error

	closeCalls atomic.Int32
}

// NewChunkStore returns a mock store whose ChunkBytes reports every chunk as
// absent until ChunkBytesFn is set.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{}
}

// ChunkBytes returns the blob for pos.
func (m *ChunkStore) ChunkBytes(pos world.ChunkPos) ([]byte, error) {
	if m.ChunkBytesFn == nil {
		return nil, snapshot.ErrChunkNotFound
	}

	return m.ChunkBytesFn(pos)
}

// Close the store.
func (m *ChunkStore) Close() error {
	m.closeCalls.Add(1)

	if m.CloseFn == nil {
		return nil
	}

	return m.CloseFn()
}

// CloseCalls returns how often Close was called.
func (m *ChunkStore) CloseCalls() int {
	return int(m.closeCalls.Load())
}
