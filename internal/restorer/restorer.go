package restorer

import (
	"context"

	"github.com/worldsnap/worldsnap/internal/codec"
	"github.com/worldsnap/worldsnap/internal/debug"
	"github.com/worldsnap/worldsnap/internal/errors"
	"github.com/worldsnap/worldsnap/internal/snapshot"
	"github.com/worldsnap/worldsnap/internal/world"
)

// Restorer copies the chunks of an opened snapshot into an edit target.
//
// Failures are isolated per chunk: a missing or corrupt chunk never aborts the
// remaining chunks, it is recorded in the report instead. The restorer
// performs no retries; choosing a different snapshot after a failed run is the
// caller's policy.
type Restorer struct {
	codec codec.Codec
}

// New returns a restorer that decodes chunk blobs with the version-dispatching
// codec.
func New() *Restorer {
	return NewWithCodec(codec.Auto())
}

// NewWithCodec returns a restorer using a specific chunk codec.
func NewWithCodec(c codec.Codec) *Restorer {
	return &Restorer{codec: c}
}

// Restore copies all chunks intersecting region from store into target and
// reports the outcome per chunk. The store is borrowed for the duration of
// the call; closing it stays the caller's responsibility.
//
// Chunks are processed sequentially in enumeration order. Chunks are
// spatially disjoint, so no two chunks ever write the same target position.
// Cancellation is checked between chunks: when ctx is cancelled, Restore
// stops early and returns the partial report together with the context error.
func (res *Restorer) Restore(ctx context.Context, store snapshot.ChunkStore, target world.EditTarget, region world.Region) (*Report, error) {
	chunks := world.ChunksInRegion(region)
	debug.Log("restoring %d chunks", len(chunks))

	report := &Report{}
	for _, pos := range chunks {
		if ctx.Err() != nil {
			debug.Log("cancelled after %d chunks", report.AttemptedCount())
			return report, ctx.Err()
		}

		data, err := store.ChunkBytes(pos)
		if errors.Is(err, snapshot.ErrChunkNotFound) {
			debug.Log("chunk %v missing", pos)
			report.recordMissing(pos)
			continue
		}
		if err != nil {
			debug.Log("chunk %v fetch failed: %v", pos, err)
			report.recordFailed(pos, errors.Wrapf(err, "fetch chunk %v", pos))
			continue
		}

		chunk, err := res.codec.Decode(data, pos)
		if err != nil {
			debug.Log("chunk %v decode failed: %v", pos, err)
			report.recordFailed(pos, err)
			continue
		}

		if err := copyChunk(chunk, target, region); err != nil {
			debug.Log("chunk %v write failed: %v", pos, err)
			report.recordFailed(pos, err)
			continue
		}

		report.recordRestored(pos)
	}

	return report, nil
}

// RestoreSnapshot opens the snapshot's chunk store, restores region into
// target and releases the store again. The store is closed exactly once on
// every path; a close error is logged but does not mask the restore result.
func (res *Restorer) RestoreSnapshot(ctx context.Context, sn *snapshot.Snapshot, target world.EditTarget, region world.Region) (*Report, error) {
	store, err := sn.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "open snapshot %v", sn)
	}

	defer func() {
		if err := store.Close(); err != nil {
			debug.Log("closing chunk store for %v failed: %v", sn, err)
		}
	}()

	return res.Restore(ctx, store, target, region)
}

// copyChunk writes every block of the chunk that lies within region into
// target. The first rejected write fails the whole chunk.
func copyChunk(chunk *world.Chunk, target world.EditTarget, region world.Region) error {
	cmin, cmax := chunk.Bounds()
	rmin, rmax := region.Bounds()

	lo := world.BlockPos{X: max32(cmin.X, rmin.X), Y: max32(cmin.Y, rmin.Y), Z: max32(cmin.Z, rmin.Z)}
	hi := world.BlockPos{X: min32(cmax.X, rmax.X), Y: min32(cmax.Y, rmax.Y), Z: min32(cmax.Z, rmax.Z)}

	for y := lo.Y; y <= hi.Y; y++ {
		for x := lo.X; x <= hi.X; x++ {
			for z := lo.Z; z <= hi.Z; z++ {
				pos := world.BlockPos{X: x, Y: y, Z: z}
				if !region.Contains(pos) {
					continue
				}

				b, ok := chunk.Block(pos)
				if !ok {
					continue
				}

				if err := target.SetBlock(pos, b); err != nil {
					return errors.Wrapf(err, "write block at %v", pos)
				}
			}
		}
	}

	return nil
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
