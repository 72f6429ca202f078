// Package snapshot defines the contracts between snapshot backends and the
// restore engine: how a snapshot is identified, how its chunk data is fetched
// and how backend failures are classified.
package snapshot

import (
	"time"

	"github.com/worldsnap/worldsnap/internal/errors"
	"github.com/worldsnap/worldsnap/internal/world"
)

var (
	// ErrSnapshotNotFound is returned when no snapshot matches a name.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrInvalidName is returned when a snapshot name is malformed or not
	// supported by the active backend.
	ErrInvalidName = errors.New("invalid snapshot name")

	// ErrNoSnapshotFound is returned when a world has no snapshots at all.
	ErrNoSnapshotFound = errors.New("no snapshot found")

	// ErrWorldUnknown is returned when the backend does not recognize the
	// world identifier.
	ErrWorldUnknown = errors.New("world unknown to snapshot backend")

	// ErrChunkNotFound is returned by ChunkStore.ChunkBytes for chunks absent
	// from the snapshot. Any other error means the fetch itself failed.
	ErrChunkNotFound = errors.New("chunk not present in snapshot")

	// ErrStoreClosed is returned for fetches on a closed ChunkStore.
	ErrStoreClosed = errors.New("chunk store already closed")
)

// ChunkStore provides random access to the serialized chunks of one opened
// snapshot. A store holds resources (file handles, archive readers) and must
// be closed exactly once by its owner, on every path.
type ChunkStore interface {
	// ChunkBytes returns the serialized blob of the chunk at pos. It returns
	// ErrChunkNotFound if the snapshot does not contain the chunk, and
	// ErrStoreClosed after Close.
	ChunkBytes(pos world.ChunkPos) ([]byte, error)

	Close() error
}

// StoreOpener opens the chunk store backing a snapshot.
type StoreOpener func() (ChunkStore, error)

// Snapshot identifies one point-in-time copy of a world's chunks. It carries
// no open resources itself; Open acquires the backing ChunkStore, which the
// caller owns.
type Snapshot struct {
	// ID is a backend-assigned identifier, empty for backends without one.
	ID string

	// Name is the user-facing snapshot name.
	Name string

	// World is the name of the world the snapshot was taken from.
	World string

	// TakenAt is when the snapshot was taken, as far as the backend knows.
	TakenAt time.Time

	// Opener acquires the chunk store. Set by the resolving catalog.
	Opener StoreOpener
}

// Open acquires the snapshot's chunk store. The returned store is owned by
// the caller and must be closed exactly once.
func (sn *Snapshot) Open() (ChunkStore, error) {
	if sn.Opener == nil {
		return nil, errors.Errorf("snapshot %v has no chunk store", sn.Name)
	}
	return sn.Opener()
}

func (sn *Snapshot) String() string {
	if sn.World != "" {
		return sn.World + "/" + sn.Name
	}
	return sn.Name
}
