// Package indexdb implements the indexed snapshot database: a sqlite catalog
// of snapshots from any number of sources, queryable by world and recency.
// The database only indexes snapshots, the chunk data itself stays in the
// storage the indexed URI points at.
package indexdb

import (
	"context"
	"database/sql"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/worldsnap/worldsnap/internal/debug"
	"github.com/worldsnap/worldsnap/internal/errors"
	"github.com/worldsnap/worldsnap/internal/snapshot"
	"github.com/worldsnap/worldsnap/internal/snapshot/repo"
)

// Index is a snapshot catalog backed by a sqlite database. It implements
// snapshot.Catalog.
type Index struct {
	db *sql.DB
}

// Open opens or creates the index database at path.
func Open(path string) (*Index, error) {
	if path == "" {
		return nil, errors.New("empty index database path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create index directory")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open index database")
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Index{db: db}, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS worlds (
			name TEXT PRIMARY KEY
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			id       TEXT PRIMARY KEY,
			world    TEXT NOT NULL REFERENCES worlds(name),
			name     TEXT NOT NULL UNIQUE,
			uri      TEXT NOT NULL,
			taken_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_world_taken
			ON snapshots(world, taken_at DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return errors.Wrap(err, "init index schema")
		}
	}
	return nil
}

// Close releases the database.
func (idx *Index) Close() error {
	return errors.Wrap(idx.db.Close(), "close index database")
}

// AddWorld registers a world with the index. Registering a world twice is
// fine.
func (idx *Index) AddWorld(ctx context.Context, worldName string) error {
	if worldName == "" {
		return errors.New("empty world name")
	}
	_, err := idx.db.ExecContext(ctx,
		`INSERT INTO worlds (name) VALUES (?) ON CONFLICT (name) DO NOTHING`, worldName)
	return errors.Wrapf(err, "register world %q", worldName)
}

// Add indexes a snapshot. uri locates the chunk storage; currently plain
// paths and file:// URIs are supported. The world is registered implicitly.
func (idx *Index) Add(ctx context.Context, worldName, name, uri string, takenAt time.Time) (*snapshot.Snapshot, error) {
	if name == "" {
		return nil, errors.Wrap(snapshot.ErrInvalidName, "empty name")
	}
	if _, err := storagePath(uri); err != nil {
		return nil, err
	}
	if err := idx.AddWorld(ctx, worldName); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	_, err := idx.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, world, name, uri, taken_at) VALUES (?, ?, ?, ?, ?)`,
		id, worldName, name, uri, takenAt.Unix())
	if err != nil {
		return nil, errors.Wrapf(err, "index snapshot %q", name)
	}

	debug.Log("indexed snapshot %v for world %v at %v", name, worldName, uri)
	return idx.Named(ctx, name)
}

// Named resolves a snapshot by name.
func (idx *Index) Named(ctx context.Context, name string) (*snapshot.Snapshot, error) {
	if name == "" {
		return nil, errors.Wrap(snapshot.ErrInvalidName, "empty name")
	}

	row := idx.db.QueryRowContext(ctx,
		`SELECT id, world, name, uri, taken_at FROM snapshots WHERE name = ?`, name)

	sn, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(snapshot.ErrSnapshotNotFound, "%q", name)
	}
	return sn, err
}

// Latest resolves the most recent snapshot of a world.
func (idx *Index) Latest(ctx context.Context, worldName string) (*snapshot.Snapshot, error) {
	known, err := idx.knowsWorld(ctx, worldName)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, errors.Wrapf(snapshot.ErrWorldUnknown, "%q", worldName)
	}

	row := idx.db.QueryRowContext(ctx,
		`SELECT id, world, name, uri, taken_at FROM snapshots
		 WHERE world = ? ORDER BY taken_at DESC, id LIMIT 1`, worldName)

	sn, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(snapshot.ErrNoSnapshotFound, "world %q", worldName)
	}
	return sn, err
}

// Snapshots lists all indexed snapshots of a world, newest first.
func (idx *Index) Snapshots(ctx context.Context, worldName string) ([]*snapshot.Snapshot, error) {
	known, err := idx.knowsWorld(ctx, worldName)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, errors.Wrapf(snapshot.ErrWorldUnknown, "%q", worldName)
	}

	rows, err := idx.db.QueryContext(ctx,
		`SELECT id, world, name, uri, taken_at FROM snapshots
		 WHERE world = ? ORDER BY taken_at DESC, id`, worldName)
	if err != nil {
		return nil, errors.Wrap(err, "query snapshots")
	}
	defer func() {
		_ = rows.Close()
	}()

	var snapshots []*snapshot.Snapshot
	for rows.Next() {
		sn, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, sn)
	}

	return snapshots, errors.Wrap(rows.Err(), "query snapshots")
}

func (idx *Index) knowsWorld(ctx context.Context, worldName string) (bool, error) {
	var one int
	err := idx.db.QueryRowContext(ctx,
		`SELECT 1 FROM worlds WHERE name = ?`, worldName).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "look up world %q", worldName)
	}
	return true, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSnapshot(row rowScanner) (*snapshot.Snapshot, error) {
	var (
		sn      snapshot.Snapshot
		uri     string
		takenAt int64
	)
	if err := row.Scan(&sn.ID, &sn.World, &sn.Name, &uri, &takenAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "scan snapshot row")
	}

	sn.TakenAt = time.Unix(takenAt, 0)

	p, err := storagePath(uri)
	if err != nil {
		return nil, err
	}
	sn.Opener = func() (snapshot.ChunkStore, error) { return repo.OpenStore(p) }

	return &sn, nil
}

// storagePath turns an indexed URI into a local storage path. Remote schemes
// are not supported by this backend.
func storagePath(uri string) (string, error) {
	if uri == "" {
		return "", errors.Wrap(snapshot.ErrInvalidName, "empty snapshot uri")
	}

	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" {
		// plain filesystem path
		return uri, nil
	}
	if u.Scheme != "file" {
		return "", errors.Wrapf(snapshot.ErrInvalidName, "unsupported snapshot uri scheme %q", u.Scheme)
	}
	return filepath.FromSlash(u.Path), nil
}
