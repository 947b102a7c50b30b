package storage

import (
	"Go_Blog/config"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
)

// LocalStore keeps published assets in a directory on disk.
type LocalStore struct {
	dir string
}

// NewLocalStore creates dir when missing.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create assets dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Backend names the store.
func (s *LocalStore) Backend() string {
	return config.StorageLocal
}

// Dir returns the directory holding the assets.
func (s *LocalStore) Dir() string {
	return s.dir
}

// PutObject writes the object to a temp file in the target directory and
// renames it into place once all size bytes have been written, so readers
// never observe a partial object. A negative size skips the length check.
func (s *LocalStore) PutObject(_ context.Context, object string, reader io.Reader, size int64, _ PutOptions) (err error) {
	if err = ValidateObjectName(object); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, "."+object+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	written, err := io.Copy(tmp, reader)
	if err != nil {
		return err
	}
	if size >= 0 && written != size {
		return fmt.Errorf("short write: got %d bytes, want %d", written, size)
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(s.dir, object))
}

// GetObject opens a published object.
func (s *LocalStore) GetObject(_ context.Context, object string) (io.ReadCloser, ObjectInfo, error) {
	if err := ValidateObjectName(object); err != nil {
		return nil, ObjectInfo{}, err
	}
	f, err := os.Open(filepath.Join(s.dir, object))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ObjectInfo{}, ErrObjectNotFound
	}
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, ObjectInfo{}, err
	}
	info := ObjectInfo{
		ObjectName:  object,
		Size:        stat.Size(),
		ContentType: mime.TypeByExtension(filepath.Ext(object)),
	}
	return f, info, nil
}

// RemoveObject deletes an object. Missing objects are not an error.
func (s *LocalStore) RemoveObject(_ context.Context, object string) error {
	if err := ValidateObjectName(object); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.dir, object))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
