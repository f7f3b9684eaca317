package storage_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wopiproxy/internal/model"
	"wopiproxy/internal/storage"
)

func TestLocalBackend_WriteThenReadRoundtrip(t *testing.T) {
	backend := storage.NewLocalBackend()
	st := &model.Storage{RootPath: t.TempDir()}

	info, err := backend.Write(context.Background(), st, "a/b.txt", bytes.NewReader([]byte("hello")), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size)

	rc, err := backend.Open(context.Background(), st, "a/b.txt")
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}

func TestLocalBackend_StatMissingFileReturnsNotFound(t *testing.T) {
	backend := storage.NewLocalBackend()
	st := &model.Storage{RootPath: t.TempDir()}

	_, err := backend.Stat(context.Background(), st, "nope.txt")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestLocalBackend_RejectsPathEscape(t *testing.T) {
	backend := storage.NewLocalBackend()
	st := &model.Storage{RootPath: t.TempDir()}

	_, err := backend.Open(context.Background(), st, "../../etc/passwd")
	assert.Error(t, err)
}

func TestLocalBackend_VersionsUnsupported(t *testing.T) {
	backend := storage.NewLocalBackend()
	st := &model.Storage{RootPath: t.TempDir()}

	_, err := backend.Versions(context.Background(), st, "a.txt")
	assert.ErrorIs(t, err, model.ErrUnsupportedCapability)
}
