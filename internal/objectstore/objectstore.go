// Package objectstore keeps uploaded guard documents and photos. Callers store
// the returned reference; the bytes live in a filesystem directory, an S3
// bucket, or memory.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"guardhouse/internal/platform/config"
)

const (
	BackendFS     = "fs"
	BackendS3     = "s3"
	BackendMemory = "memory"
)

var ErrInvalidReference = errors.New("invalid object reference")

// Store is the storage contract used by the roster handlers.
type Store interface {
	// Put stores r and returns an opaque reference. originalName only
	// contributes its extension.
	Put(ctx context.Context, r io.Reader, originalName string) (string, error)
	// Delete removes ref. Deleting a missing object succeeds.
	Delete(ctx context.Context, ref string) error
}

// Open selects the backend named by cfg.Backend.
func Open(ctx context.Context, cfg config.Storage) (Store, error) {
	switch cfg.Backend {
	case "", BackendFS:
		return NewFilesystem(cfg.UploadDir)
	case BackendS3:
		return NewS3(ctx, S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// newRef builds a collision-free reference that keeps a sanitized extension.
func newRef(originalName string) string {
	return uuid.NewString() + extension(originalName)
}

func extension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

// validRef rejects anything that is not a single path element.
func validRef(ref string) error {
	if ref == "" || ref == "." || ref == ".." || strings.ContainsAny(ref, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidReference, ref)
	}
	return nil
}
