package ports

import (
	"context"
	"io"
	"time"

	"wopiproxy/internal/model"
)

// FileInfo is the subset of metadata a StorageNode must report for any file
// it addresses, regardless of backend.
type FileInfo struct {
	Size         int64
	Version      string
	LastModified time.Time
}

// StorageNode is the uniform read/write/size/mtime/versioning contract (C1)
// that every backend (local filesystem, S3, GCS, Azure, WebDAV) must satisfy.
// Capability-gated operations return model.ErrUnsupportedCapability when the
// underlying backend cannot perform them.
type StorageNode interface {
	Stat(ctx context.Context, storage *model.Storage, path string) (FileInfo, error)
	Open(ctx context.Context, storage *model.Storage, path string) (io.ReadCloser, error)
	Write(ctx context.Context, storage *model.Storage, path string, content io.Reader, size int64) (FileInfo, error)

	// Capabilities reports which optional operations this backend supports.
	Capabilities() model.Capabilities

	// Versions lists prior versions when Capabilities().Versioning is true.
	Versions(ctx context.Context, storage *model.Storage, path string) ([]FileInfo, error)
}

// PresignedNode is an optional StorageNode extension for backends that can
// hand out a time-limited URL instead of proxying file bytes through this
// process (spec.md §4.1's presigned_urls capability). GetFile checks for it
// with a type assertion and redirects when present.
type PresignedNode interface {
	PresignGet(ctx context.Context, storage *model.Storage, path string, ttl time.Duration) (string, error)
}
