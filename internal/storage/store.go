package storage

import (
	"Go_Blog/config"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrObjectNotFound is returned when an object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ErrInvalidObjectName rejects names that could escape the store.
var ErrInvalidObjectName = errors.New("invalid object name")

// PutOptions describes upload options for object storage.
type PutOptions struct {
	ContentType string
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	ObjectName  string
	Size        int64
	ContentType string
}

// Store is the publish target for reassembled uploads. PutObject must make
// the object visible only once it is complete.
type Store interface {
	Backend() string
	PutObject(ctx context.Context, object string, reader io.Reader, size int64, opts PutOptions) error
	GetObject(ctx context.Context, object string) (io.ReadCloser, ObjectInfo, error)
	RemoveObject(ctx context.Context, object string) error
}

// New builds the store selected by cfg.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case config.StorageMinio:
		return NewMinioStore(ctx, cfg.Minio)
	case config.StorageLocal, "":
		return NewLocalStore(cfg.AssetsDir)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}

// ValidateObjectName accepts flat names only.
func ValidateObjectName(object string) error {
	if object == "" || object == "." || object == ".." ||
		strings.ContainsAny(object, `/\`) || strings.ContainsRune(object, 0) {
		return ErrInvalidObjectName
	}
	return nil
}
