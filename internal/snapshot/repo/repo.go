// Package repo implements the legacy snapshot repository: a single local
// directory with one subdirectory per world, holding each snapshot as either
// a directory of chunk files or a zip archive of them.
package repo

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/worldsnap/worldsnap/internal/debug"
	"github.com/worldsnap/worldsnap/internal/errors"
	"github.com/worldsnap/worldsnap/internal/snapshot"
)

// Repository resolves snapshots from a single repository directory. It
// implements snapshot.Catalog.
type Repository struct {
	dir string
}

// New returns a repository rooted at dir.
func New(dir string) *Repository {
	return &Repository{dir: dir}
}

// Dir returns the repository's root directory.
func (r *Repository) Dir() string {
	return r.dir
}

// Named resolves a snapshot by its repository-relative name, either
// "world/snapshot" or a bare snapshot name for repositories without per-world
// subdirectories.
func (r *Repository) Named(ctx context.Context, name string) (*snapshot.Snapshot, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	var worldName, snapName string
	if i := strings.IndexByte(name, '/'); i >= 0 {
		worldName, snapName = name[:i], name[i+1:]
	} else {
		snapName = name
	}

	for _, p := range []string{
		filepath.Join(r.dir, filepath.FromSlash(name)),
		filepath.Join(r.dir, filepath.FromSlash(name)+".zip"),
	} {
		fi, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.Wrapf(err, "stat %v", p)
		}

		return r.newSnapshot(worldName, snapName, p, fi), nil
	}

	debug.Log("no snapshot %q in %v", name, r.dir)
	return nil, errors.Wrapf(snapshot.ErrSnapshotNotFound, "%q", name)
}

// Latest resolves the most recent snapshot of worldName, judged by the
// timestamp encoded in the snapshot name and falling back to the file
// modification time.
func (r *Repository) Latest(ctx context.Context, worldName string) (*snapshot.Snapshot, error) {
	snapshots, err := r.Snapshots(ctx, worldName)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, errors.Wrapf(snapshot.ErrNoSnapshotFound, "world %q", worldName)
	}

	return snapshots[0], nil
}

// Snapshots lists all snapshots of a world, newest first.
func (r *Repository) Snapshots(ctx context.Context, worldName string) ([]*snapshot.Snapshot, error) {
	if err := checkName(worldName); err != nil {
		return nil, err
	}

	worldDir := filepath.Join(r.dir, worldName)
	entries, err := os.ReadDir(worldDir)
	if err != nil {
		if os.IsNotExist(err) {
			debug.Log("world directory %v does not exist", worldDir)
			return nil, errors.Wrapf(snapshot.ErrWorldUnknown, "%q", worldName)
		}
		return nil, errors.Wrapf(err, "read %v", worldDir)
	}

	var snapshots []*snapshot.Snapshot
	for _, entry := range entries {
		if !entry.IsDir() && !strings.HasSuffix(entry.Name(), ".zip") {
			continue
		}

		fi, err := entry.Info()
		if err != nil {
			return nil, errors.Wrapf(err, "stat %v", entry.Name())
		}

		name := strings.TrimSuffix(entry.Name(), ".zip")
		snapshots = append(snapshots, r.newSnapshot(worldName, name, filepath.Join(worldDir, entry.Name()), fi))
	}

	sort.Slice(snapshots, func(i, j int) bool {
		if !snapshots[i].TakenAt.Equal(snapshots[j].TakenAt) {
			return snapshots[i].TakenAt.After(snapshots[j].TakenAt)
		}
		return snapshots[i].Name > snapshots[j].Name
	})

	return snapshots, nil
}

func (r *Repository) newSnapshot(worldName, snapName, storagePath string, fi os.FileInfo) *snapshot.Snapshot {
	takenAt, ok := ParseSnapshotTime(snapName)
	if !ok {
		takenAt = fi.ModTime()
	}

	return &snapshot.Snapshot{
		Name:    snapName,
		World:   worldName,
		TakenAt: takenAt,
		Opener:  func() (snapshot.ChunkStore, error) { return OpenStore(storagePath) },
	}
}

// snapshotTimeLayouts are the name formats a snapshot timestamp is parsed
// from, most specific first.
var snapshotTimeLayouts = []string{
	"2006-01-02-15-04-05",
	"2006-01-02-15-04",
	"2006-01-02",
}

// ParseSnapshotTime extracts the timestamp encoded in a snapshot name.
func ParseSnapshotTime(name string) (time.Time, bool) {
	for _, layout := range snapshotTimeLayouts {
		if ts, err := time.ParseInLocation(layout, name, time.Local); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// checkName rejects names that would escape the repository directory.
func checkName(name string) error {
	switch {
	case name == "",
		strings.Contains(name, "\\"),
		path.IsAbs(name),
		path.Clean("/"+name) != "/"+name:
		return errors.Wrapf(snapshot.ErrInvalidName, "%q", name)
	}
	return nil
}
