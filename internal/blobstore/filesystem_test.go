package blobstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonesrussell/north-cloud/content-mirror/internal/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesystem_PutExistsURL(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "storage")
	store, err := blobstore.NewFilesystem(root, "https://cdn.example.com/storage/")
	require.NoError(t, err)

	ctx := context.Background()
	exists, err := store.Exists(ctx, "builder/abc.png")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Put(ctx, "builder/abc.png", []byte("png-bytes"), "image/png"))

	exists, err = store.Exists(ctx, "builder/abc.png")
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := os.ReadFile(filepath.Join(root, "builder", "abc.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	assert.Equal(t, "https://cdn.example.com/storage/builder/abc.png", store.URL("builder/abc.png"))
}

func TestFilesystem_PutOverwritesAtomically(t *testing.T) {
	t.Parallel()

	store, err := blobstore.NewFilesystem(t.TempDir(), "/storage")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "a", []byte("first"), ""))
	require.NoError(t, store.Put(ctx, "a", []byte("second"), ""))

	entries, err := os.ReadDir(store.Root())
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must be cleaned up")

	data, err := os.ReadFile(filepath.Join(store.Root(), "a"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}
