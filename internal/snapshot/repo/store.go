package repo

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/worldsnap/worldsnap/internal/debug"
	"github.com/worldsnap/worldsnap/internal/errors"
	"github.com/worldsnap/worldsnap/internal/snapshot"
	"github.com/worldsnap/worldsnap/internal/world"
)

// chunkFileName returns the file name a chunk's blob is stored under, inside
// a snapshot directory or archive.
func chunkFileName(pos world.ChunkPos) string {
	return fmt.Sprintf("c.%d.%d.dat", pos.X, pos.Z)
}

// OpenStore opens the chunk store at storagePath, which is either a snapshot
// directory or a zip archive of chunk files.
func OpenStore(storagePath string) (snapshot.ChunkStore, error) {
	fi, err := os.Stat(storagePath)
	if err != nil {
		return nil, errors.Wrapf(err, "open snapshot storage %v", storagePath)
	}

	if fi.IsDir() {
		return &dirStore{dir: storagePath}, nil
	}

	if strings.HasSuffix(storagePath, ".zip") {
		return openZipStore(storagePath)
	}

	return nil, errors.Errorf("unsupported snapshot storage %v", storagePath)
}

// dirStore reads chunk blobs from one file per chunk in a directory.
type dirStore struct {
	dir    string
	closed atomic.Bool
}

func (s *dirStore) ChunkBytes(pos world.ChunkPos) ([]byte, error) {
	if s.closed.Load() {
		return nil, snapshot.ErrStoreClosed
	}

	data, err := os.ReadFile(filepath.Join(s.dir, chunkFileName(pos)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(snapshot.ErrChunkNotFound, "%v", pos)
		}
		return nil, errors.Wrapf(err, "read chunk %v", pos)
	}

	return data, nil
}

func (s *dirStore) Close() error {
	if s.closed.Swap(true) {
		return snapshot.ErrStoreClosed
	}
	return nil
}

// zipStore reads chunk blobs from a zip archive. Chunk files are located by
// base name, so archives may nest them in a top-level directory.
type zipStore struct {
	rd     *zip.ReadCloser
	files  map[world.ChunkPos]*zip.File
	closed atomic.Bool
}

func openZipStore(archivePath string) (*zipStore, error) {
	rd, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, errors.Wrapf(err, "open archive %v", archivePath)
	}

	files := make(map[world.ChunkPos]*zip.File)
	for _, f := range rd.File {
		var pos world.ChunkPos
		n, err := fmt.Sscanf(path.Base(f.Name), "c.%d.%d.dat", &pos.X, &pos.Z)
		if err != nil || n != 2 {
			continue
		}
		files[pos] = f
	}

	debug.Log("archive %v contains %d chunks", archivePath, len(files))
	return &zipStore{rd: rd, files: files}, nil
}

func (s *zipStore) ChunkBytes(pos world.ChunkPos) ([]byte, error) {
	if s.closed.Load() {
		return nil, snapshot.ErrStoreClosed
	}

	f, ok := s.files[pos]
	if !ok {
		return nil, errors.Wrapf(snapshot.ErrChunkNotFound, "%v", pos)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "read chunk %v", pos)
	}

	data, err := io.ReadAll(rc)
	if cerr := rc.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read chunk %v", pos)
	}

	return data, nil
}

func (s *zipStore) Close() error {
	if s.closed.Swap(true) {
		return snapshot.ErrStoreClosed
	}
	return s.rd.Close()
}
