package repo_test

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/worldsnap/worldsnap/internal/codec"
	"github.com/worldsnap/worldsnap/internal/errors"
	"github.com/worldsnap/worldsnap/internal/restorer"
	"github.com/worldsnap/worldsnap/internal/snapshot"
	"github.com/worldsnap/worldsnap/internal/snapshot/repo"
	rtest "github.com/worldsnap/worldsnap/internal/test"
	"github.com/worldsnap/worldsnap/internal/world"
)

func chunkBlob(t testing.TB, pos world.ChunkPos, fill world.Block) []byte {
	c := world.NewChunk(pos, 0, 8)
	min, max := c.Bounds()
	for x := min.X; x <= max.X; x++ {
		for z := min.Z; z <= max.Z; z++ {
			for y := min.Y; y <= max.Y; y++ {
				c.SetBlock(world.BlockPos{X: x, Y: y, Z: z}, fill)
			}
		}
	}

	blob, err := codec.EncodeV2(c)
	rtest.OK(t, err)
	return blob
}

func writeDirSnapshot(t testing.TB, dir string, chunks ...world.ChunkPos) {
	rtest.OK(t, os.MkdirAll(dir, 0700))
	for _, pos := range chunks {
		name := filepath.Join(dir, chunkFileName(pos))
		rtest.OK(t, os.WriteFile(name, chunkBlob(t, pos, world.Block(7)), 0600))
	}
}

func writeZipSnapshot(t testing.TB, archivePath string, chunks ...world.ChunkPos) {
	rtest.OK(t, os.MkdirAll(filepath.Dir(archivePath), 0700))

	f, err := os.Create(archivePath)
	rtest.OK(t, err)

	zw := zip.NewWriter(f)
	for _, pos := range chunks {
		// nest the chunk files like archives produced by zipping a directory
		w, err := zw.Create("snapshot/" + chunkFileName(pos))
		rtest.OK(t, err)
		_, err = w.Write(chunkBlob(t, pos, world.Block(7)))
		rtest.OK(t, err)
	}
	rtest.OK(t, zw.Close())
	rtest.OK(t, f.Close())
}

func chunkFileName(pos world.ChunkPos) string {
	return fmt.Sprintf("c.%d.%d.dat", pos.X, pos.Z)
}

func TestNamed(t *testing.T) {
	tempdir := rtest.TempDir(t)
	writeDirSnapshot(t, filepath.Join(tempdir, "main", "2026-08-01-12-00-00"), world.ChunkPos{})
	writeZipSnapshot(t, filepath.Join(tempdir, "main", "2026-08-02-12-00-00.zip"), world.ChunkPos{})

	r := repo.New(tempdir)

	for _, name := range []string{"main/2026-08-01-12-00-00", "main/2026-08-02-12-00-00"} {
		sn, err := r.Named(context.Background(), name)
		rtest.OK(t, err)
		rtest.Equals(t, "main", sn.World)

		store, err := sn.Open()
		rtest.OK(t, err)

		_, err = store.ChunkBytes(world.ChunkPos{})
		rtest.OK(t, err)
		rtest.OK(t, store.Close())
	}

	_, err := r.Named(context.Background(), "main/2026-01-01-00-00-00")
	rtest.Assert(t, errors.Is(err, snapshot.ErrSnapshotNotFound), "expected ErrSnapshotNotFound, got %v", err)
}

func TestNamedInvalid(t *testing.T) {
	r := repo.New(rtest.TempDir(t))

	for _, name := range []string{
		"",
		"../outside",
		"/etc/passwd",
		"main/../../outside",
		"main\\snap",
		"main//snap",
	} {
		_, err := r.Named(context.Background(), name)
		rtest.Assert(t, errors.Is(err, snapshot.ErrInvalidName), "name %q: expected ErrInvalidName, got %v", name, err)
	}
}

func TestLatest(t *testing.T) {
	tempdir := rtest.TempDir(t)
	writeDirSnapshot(t, filepath.Join(tempdir, "main", "2026-08-01-12-00-00"), world.ChunkPos{})
	writeDirSnapshot(t, filepath.Join(tempdir, "main", "2026-08-03-09-30-00"), world.ChunkPos{})
	writeZipSnapshot(t, filepath.Join(tempdir, "main", "2026-08-02-12-00-00.zip"), world.ChunkPos{})

	r := repo.New(tempdir)

	sn, err := r.Latest(context.Background(), "main")
	rtest.OK(t, err)
	rtest.Equals(t, "2026-08-03-09-30-00", sn.Name)
	rtest.Equals(t, time.Date(2026, 8, 3, 9, 30, 0, 0, time.Local), sn.TakenAt)

	_, err = r.Latest(context.Background(), "nether")
	rtest.Assert(t, errors.Is(err, snapshot.ErrWorldUnknown), "expected ErrWorldUnknown, got %v", err)

	rtest.OK(t, os.MkdirAll(filepath.Join(tempdir, "empty"), 0700))
	_, err = r.Latest(context.Background(), "empty")
	rtest.Assert(t, errors.Is(err, snapshot.ErrNoSnapshotFound), "expected ErrNoSnapshotFound, got %v", err)
}

func TestSnapshotsOrder(t *testing.T) {
	tempdir := rtest.TempDir(t)
	names := []string{"2026-08-01", "2026-08-03", "2026-08-02"}
	for _, name := range names {
		writeDirSnapshot(t, filepath.Join(tempdir, "main", name), world.ChunkPos{})
	}
	// stray files are not snapshots
	rtest.OK(t, os.WriteFile(filepath.Join(tempdir, "main", "notes.txt"), []byte("x"), 0600))

	snapshots, err := repo.New(tempdir).Snapshots(context.Background(), "main")
	rtest.OK(t, err)

	got := make([]string, 0, len(snapshots))
	for _, sn := range snapshots {
		got = append(got, sn.Name)
	}
	rtest.Equals(t, []string{"2026-08-03", "2026-08-02", "2026-08-01"}, got)
}

func TestStoreClosed(t *testing.T) {
	tempdir := rtest.TempDir(t)
	writeDirSnapshot(t, filepath.Join(tempdir, "main", "2026-08-01"), world.ChunkPos{})
	writeZipSnapshot(t, filepath.Join(tempdir, "main", "2026-08-02.zip"), world.ChunkPos{})

	r := repo.New(tempdir)

	for _, name := range []string{"main/2026-08-01", "main/2026-08-02"} {
		sn, err := r.Named(context.Background(), name)
		rtest.OK(t, err)

		store, err := sn.Open()
		rtest.OK(t, err)

		_, err = store.ChunkBytes(world.ChunkPos{X: 99, Z: 99})
		rtest.Assert(t, errors.Is(err, snapshot.ErrChunkNotFound), "expected ErrChunkNotFound, got %v", err)

		rtest.OK(t, store.Close())

		_, err = store.ChunkBytes(world.ChunkPos{})
		rtest.Assert(t, errors.Is(err, snapshot.ErrStoreClosed), "fetch after close: got %v", err)
		rtest.Assert(t, errors.Is(store.Close(), snapshot.ErrStoreClosed), "second close must fail")
	}
}

func TestRestoreFromRepository(t *testing.T) {
	tempdir := rtest.TempDir(t)
	writeDirSnapshot(t, filepath.Join(tempdir, "main", "2026-08-01-12-00-00"),
		world.ChunkPos{X: 0, Z: 0})

	sn, err := repo.New(tempdir).Latest(context.Background(), "main")
	rtest.OK(t, err)

	// region spans chunks (0,0) and (0,1), only (0,0) is in the snapshot
	region := world.NewCuboidRegion(
		world.BlockPos{X: 0, Y: 0, Z: 0},
		world.BlockPos{X: 15, Y: 3, Z: 31},
	)
	target := world.NewMemoryTarget(region)

	report, err := restorer.New().RestoreSnapshot(context.Background(), sn, target, region)
	rtest.OK(t, err)

	rtest.Equals(t, 1, report.RestoredCount())
	rtest.Equals(t, 1, report.MissingCount())
	rtest.Equals(t, 0, report.ErrorCount())
	rtest.Assert(t, !report.TotalFailure(), "partial restore flagged as total failure")
	rtest.Equals(t, 16*4*16, target.Len())
}

func TestParseSnapshotTime(t *testing.T) {
	ts, ok := repo.ParseSnapshotTime("2026-08-01-12-30-15")
	rtest.Assert(t, ok, "full timestamp not parsed")
	rtest.Equals(t, time.Date(2026, 8, 1, 12, 30, 15, 0, time.Local), ts)

	_, ok = repo.ParseSnapshotTime("before-the-update")
	rtest.Assert(t, !ok, "arbitrary name parsed as timestamp")
}
