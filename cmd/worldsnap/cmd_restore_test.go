package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/worldsnap/worldsnap/internal/codec"
	"github.com/worldsnap/worldsnap/internal/errors"
	rtest "github.com/worldsnap/worldsnap/internal/test"
	"github.com/worldsnap/worldsnap/internal/world"
)

func TestParseBlockPos(t *testing.T) {
	pos, err := parseBlockPos("1,-64, 30")
	rtest.OK(t, err)
	rtest.Equals(t, world.BlockPos{X: 1, Y: -64, Z: 30}, pos)

	for _, s := range []string{"", "1,2", "1,2,3,4", "a,b,c", "1.5,2,3"} {
		_, err := parseBlockPos(s)
		rtest.Assert(t, err != nil, "position %q parsed without error", s)
	}
}

func writeTestSnapshot(t testing.TB, dir string, chunks ...world.ChunkPos) {
	rtest.OK(t, os.MkdirAll(dir, 0700))
	for _, pos := range chunks {
		c := world.NewChunk(pos, 0, 8)
		min, max := c.Bounds()
		for x := min.X; x <= max.X; x++ {
			for z := min.Z; z <= max.Z; z++ {
				for y := min.Y; y <= max.Y; y++ {
					c.SetBlock(world.BlockPos{X: x, Y: y, Z: z}, world.Block(1))
				}
			}
		}

		blob, err := codec.EncodeV2(c)
		rtest.OK(t, err)
		rtest.OK(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("c.%d.%d.dat", pos.X, pos.Z)), blob, 0600))
	}
}

func withCapturedOutput(t testing.TB) *bytes.Buffer {
	buf := bytes.NewBuffer(nil)
	prevOut, prevErr := globalOptions.stdout, globalOptions.stderr
	globalOptions.stdout, globalOptions.stderr = buf, buf
	t.Cleanup(func() {
		globalOptions.stdout, globalOptions.stderr = prevOut, prevErr
	})
	return buf
}

func TestRunRestore(t *testing.T) {
	buf := withCapturedOutput(t)

	repodir := rtest.TempDir(t)
	writeTestSnapshot(t, filepath.Join(repodir, "main", "2026-08-01-12-00-00"),
		world.ChunkPos{X: 0, Z: 0}, world.ChunkPos{X: 0, Z: 1})

	gopts := GlobalOptions{Repo: repodir}
	opts := RestoreOptions{From: "0,0,0", To: "15,3,31"}

	rtest.OK(t, runRestore(context.Background(), opts, gopts, []string{"main"}))
	rtest.Assert(t, bytes.Contains(buf.Bytes(), []byte("0 missing chunks and 0 other errors")),
		"unexpected restore summary: %s", buf.String())
}

func TestRunRestoreTotalFailure(t *testing.T) {
	withCapturedOutput(t)

	repodir := rtest.TempDir(t)
	// snapshot exists but has no chunk data
	rtest.OK(t, os.MkdirAll(filepath.Join(repodir, "main", "2026-08-01-12-00-00"), 0700))

	gopts := GlobalOptions{Repo: repodir}
	opts := RestoreOptions{From: "0,0,0", To: "15,3,15"}

	err := runRestore(context.Background(), opts, gopts, []string{"main"})
	rtest.Assert(t, errors.IsFatal(err), "expected fatal error, got %v", err)
	rtest.Assert(t, bytes.Contains([]byte(err.Error()), []byte("not present in snapshot")),
		"unexpected error message: %v", err)
}

func TestRunRestoreUnconfigured(t *testing.T) {
	err := runRestore(context.Background(),
		RestoreOptions{From: "0,0,0", To: "1,1,1"}, GlobalOptions{}, []string{"main"})
	rtest.Assert(t, errors.IsFatal(err), "expected fatal error, got %v", err)
}

func TestRunSnapshots(t *testing.T) {
	buf := withCapturedOutput(t)

	repodir := rtest.TempDir(t)
	writeTestSnapshot(t, filepath.Join(repodir, "main", "2026-08-01-12-00-00"), world.ChunkPos{})
	writeTestSnapshot(t, filepath.Join(repodir, "main", "2026-08-02-12-00-00"), world.ChunkPos{})

	gopts := GlobalOptions{Repo: repodir}
	rtest.OK(t, runSnapshots(context.Background(), gopts, []string{"main"}))

	rtest.Assert(t, bytes.Contains(buf.Bytes(), []byte("2026-08-02 12:00:00")),
		"snapshot listing missing timestamp: %s", buf.String())
}
