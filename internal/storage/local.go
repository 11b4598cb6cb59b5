package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"mediaapi/internal/model"
)

// LocalStorage implements Store on the local filesystem under a root directory.
// Each blob gets its own file, so concurrent writers never share a path.
type LocalStorage struct {
	root string
}

// NewLocal creates a filesystem store rooted at root. Directories are created lazily on Put.
func NewLocal(root string) (*LocalStorage, error) {
	if root == "" {
		return nil, fmt.Errorf("upload root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload root: %w", err)
	}
	return &LocalStorage{root: abs}, nil
}

var _ Store = (*LocalStorage)(nil)

// Root returns the absolute store root.
func (s *LocalStorage) Root() string {
	return s.root
}

// Path returns the on-disk location of a blob.
func (s *LocalStorage) Path(kind model.Kind, name string) string {
	return filepath.Join(s.root, kind.Dir(), name)
}

// Put streams r into a new file. A failed copy removes the partial file.
func (s *LocalStorage) Put(ctx context.Context, kind model.Kind, name string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	dir := filepath.Join(s.root, kind.Dir())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ObjectInfo{}, fmt.Errorf("create media directory: %w", err)
	}

	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ObjectInfo{}, fmt.Errorf("%w: %s", ErrExist, name)
		}
		return ObjectInfo{}, fmt.Errorf("create file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return ObjectInfo{}, fmt.Errorf("write file content: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return ObjectInfo{}, fmt.Errorf("close file: %w", err)
	}

	// Stat after close so the size reflects what is durable on disk.
	st, err := os.Stat(path)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("stat file: %w", err)
	}
	return ObjectInfo{
		Kind:         kind,
		Name:         name,
		Size:         st.Size(),
		ContentType:  opt.ContentType,
		LastModified: st.ModTime(),
	}, nil
}

// Open opens a blob for reading.
func (s *LocalStorage) Open(ctx context.Context, kind model.Kind, name string) (Object, ObjectInfo, error) {
	path := s.Path(kind, name)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ObjectInfo{}, ErrNotExist
		}
		return nil, ObjectInfo{}, fmt.Errorf("open file: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, ObjectInfo{}, fmt.Errorf("stat file: %w", err)
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, ObjectInfo{}, ErrNotExist
	}
	return f, ObjectInfo{
		Kind:         kind,
		Name:         name,
		Size:         st.Size(),
		LastModified: st.ModTime(),
	}, nil
}

// Delete removes a blob; a missing file is not an error.
func (s *LocalStorage) Delete(ctx context.Context, kind model.Kind, name string) error {
	if err := os.Remove(s.Path(kind, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}
