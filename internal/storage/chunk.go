package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
)

const partMarker = ".part"

// names produced by path and Write; anything else in the directory is left alone
var (
	chunkFileRe = regexp.MustCompile(`^[^/]+\.part[0-9]+$`)
	chunkTempRe = regexp.MustCompile(`^\.[^/]+\.tmp-[0-9]+$`)
)

// ChunkStore keeps upload chunks as files named <finalName>.part<index> in a
// scratch directory.
type ChunkStore struct {
	dir string
}

// NewChunkStore creates the scratch directory when missing.
func NewChunkStore(dir string) (*ChunkStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chunk dir: %w", err)
	}
	return &ChunkStore{dir: dir}, nil
}

// Dir returns the scratch directory.
func (s *ChunkStore) Dir() string {
	return s.dir
}

func (s *ChunkStore) path(finalName string, index int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s%s%d", finalName, partMarker, index))
}

// Write stores one chunk. The payload lands in a temp file first and is
// renamed into place, so concurrent writes of the same index cannot
// interleave.
func (s *ChunkStore) Write(finalName string, index int, payload io.Reader) (written int64, err error) {
	if err = ValidateObjectName(finalName); err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(s.dir, "."+finalName+".tmp-*")
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()
	if written, err = io.Copy(tmp, payload); err != nil {
		return 0, err
	}
	if err = tmp.Close(); err != nil {
		return 0, err
	}
	if err = os.Rename(tmp.Name(), s.path(finalName, index)); err != nil {
		return 0, err
	}
	return written, nil
}

// Open opens one chunk for reading.
func (s *ChunkStore) Open(finalName string, index int) (*os.File, error) {
	return os.Open(s.path(finalName, index))
}

// Size returns the byte length of one chunk.
func (s *ChunkStore) Size(finalName string, index int) (int64, error) {
	stat, err := os.Stat(s.path(finalName, index))
	if err != nil {
		return 0, err
	}
	return stat.Size(), nil
}

// Remove deletes the given chunks. Missing chunks are skipped.
func (s *ChunkStore) Remove(finalName string, indices ...int) error {
	var errs []error
	for _, index := range indices {
		err := os.Remove(s.path(finalName, index))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Sweep removes every chunk and chunk temp file in the scratch directory and
// returns how many files were deleted. Only call it when no session can own
// the files, i.e. at startup.
func (s *ChunkStore) Sweep() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	var errs []error
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !(chunkFileRe.MatchString(name) || chunkTempRe.MatchString(name)) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// Reader returns the concatenation of chunks 0..total-1 in index order along
// with its total length. Every chunk is checked up front; a missing one
// fails before any byte is produced.
func (s *ChunkStore) Reader(finalName string, total int) (io.ReadCloser, int64, error) {
	var size int64
	for i := 0; i < total; i++ {
		n, err := s.Size(finalName, i)
		if err != nil {
			return nil, 0, fmt.Errorf("chunk %d: %w", i, err)
		}
		size += n
	}
	return &partReader{store: s, finalName: finalName, total: total}, size, nil
}

// partReader opens chunks lazily so at most one descriptor is held.
type partReader struct {
	store     *ChunkStore
	finalName string
	total     int
	next      int
	cur       *os.File
}

func (r *partReader) Read(p []byte) (int, error) {
	for {
		if r.cur == nil {
			if r.next >= r.total {
				return 0, io.EOF
			}
			f, err := r.store.Open(r.finalName, r.next)
			if err != nil {
				return 0, fmt.Errorf("chunk %d: %w", r.next, err)
			}
			r.cur = f
			r.next++
		}
		n, err := r.cur.Read(p)
		if errors.Is(err, io.EOF) {
			_ = r.cur.Close()
			r.cur = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (r *partReader) Close() error {
	if r.cur == nil {
		return nil
	}
	err := r.cur.Close()
	r.cur = nil
	return err
}
