package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Filesystem stores objects as files in one directory.
type Filesystem struct {
	root string
}

func NewFilesystem(root string) (*Filesystem, error) {
	if root == "" {
		root = "uploads"
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Filesystem{root: root}, nil
}

func (s *Filesystem) Put(ctx context.Context, r io.Reader, originalName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ref := newRef(originalName)
	path := filepath.Join(s.root, ref)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return "", fmt.Errorf("create object: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close object: %w", err)
	}
	return ref, nil
}

func (s *Filesystem) Delete(_ context.Context, ref string) error {
	if err := validRef(ref); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.root, ref))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
