package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"wopiproxy/internal/model"
	"wopiproxy/internal/ports"
)

// LocalBackend implements ports.StorageNode over a root directory on the
// local filesystem. It carries no versioning.
type LocalBackend struct{}

func NewLocalBackend() *LocalBackend {
	return &LocalBackend{}
}

func (b *LocalBackend) resolve(storage *model.Storage, path string) (string, error) {
	full := filepath.Join(storage.RootPath, filepath.Clean("/"+path))
	if !filepathHasPrefix(full, storage.RootPath) {
		return "", fmt.Errorf("path escapes storage root: %s", path)
	}
	return full, nil
}

func filepathHasPrefix(path, prefix string) bool {
	rel, err := filepath.Rel(prefix, path)
	if err != nil {
		return false
	}
	return rel != ".." && !filepathStartsWithDotDot(rel)
}

func filepathStartsWithDotDot(rel string) bool {
	return len(rel) >= 2 && rel[:2] == ".."
}

func (b *LocalBackend) Stat(ctx context.Context, storage *model.Storage, path string) (ports.FileInfo, error) {
	full, err := b.resolve(storage, path)
	if err != nil {
		return ports.FileInfo{}, err
	}

	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return ports.FileInfo{}, model.ErrNotFound
		}
		return ports.FileInfo{}, fmt.Errorf("%w: %v", model.ErrStorageFailure, err)
	}

	return ports.FileInfo{
		Size:         info.Size(),
		Version:      fmt.Sprintf("%d", info.ModTime().UnixNano()),
		LastModified: info.ModTime(),
	}, nil
}

func (b *LocalBackend) Open(ctx context.Context, storage *model.Storage, path string) (io.ReadCloser, error) {
	full, err := b.resolve(storage, path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", model.ErrStorageFailure, err)
	}
	return f, nil
}

func (b *LocalBackend) Write(ctx context.Context, storage *model.Storage, path string, content io.Reader, size int64) (ports.FileInfo, error) {
	full, err := b.resolve(storage, path)
	if err != nil {
		return ports.FileInfo{}, err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return ports.FileInfo{}, fmt.Errorf("%w: %v", model.ErrStorageFailure, err)
	}

	tmp := full + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return ports.FileInfo{}, fmt.Errorf("%w: %v", model.ErrStorageFailure, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, content); err != nil {
		os.Remove(tmp)
		return ports.FileInfo{}, fmt.Errorf("%w: %v", model.ErrStorageFailure, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return ports.FileInfo{}, fmt.Errorf("%w: %v", model.ErrStorageFailure, err)
	}

	if err := os.Rename(tmp, full); err != nil {
		os.Remove(tmp)
		return ports.FileInfo{}, fmt.Errorf("%w: %v", model.ErrStorageFailure, err)
	}

	return b.Stat(ctx, storage, path)
}

func (b *LocalBackend) Capabilities() model.Capabilities {
	return model.Capabilities{
		Read:           true,
		Write:          true,
		Delete:         false,
		Versioning:     false,
		VersionListing: false,
		VersionAccess:  false,
		PresignedURLs:  false,
	}
}

func (b *LocalBackend) Versions(ctx context.Context, storage *model.Storage, path string) ([]ports.FileInfo, error) {
	return nil, model.ErrUnsupportedCapability
}
