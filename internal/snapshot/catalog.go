package snapshot

import "context"

// Catalog resolves user-supplied snapshot references to snapshots. Callers do
// not know or care which backend implements the lookup; the legacy directory
// repository and the indexed snapshot database both satisfy this interface.
type Catalog interface {
	// Named resolves a snapshot by name. It returns ErrSnapshotNotFound if no
	// snapshot matches and ErrInvalidName if the name is malformed or not
	// supported by this backend.
	Named(ctx context.Context, name string) (*Snapshot, error)

	// Latest resolves the most recent snapshot of a world. It returns
	// ErrNoSnapshotFound if the world has no snapshots and ErrWorldUnknown if
	// the backend does not recognize the world at all.
	Latest(ctx context.Context, worldName string) (*Snapshot, error)
}
