package cropimage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPicturesRemaining(t *testing.T) {
	assert.Equal(t, CannotStat, PicturesRemaining(filepath.Join(t.TempDir(), "missing")))
	assert.GreaterOrEqual(t, PicturesRemaining(t.TempDir()), 0)
}

func TestStorageRootsDir(t *testing.T) {
	external := t.TempDir()
	private := t.TempDir()
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	assert.Equal(t, external, StorageRoots{External: external, Private: private}.Dir())
	assert.Equal(t, private, StorageRoots{External: filepath.Join(external, "unmounted"), Private: private}.Dir())
	assert.Equal(t, private, StorageRoots{External: file, Private: private}.Dir())
	assert.Empty(t, StorageRoots{}.Dir())
	assert.Equal(t, NoStorage, StorageRoots{}.PicturesRemaining())
	assert.GreaterOrEqual(t, StorageRoots{Private: private}.PicturesRemaining(), 0)
}

func TestStorageWarning(t *testing.T) {
	assert.NotEmpty(t, StorageWarning(NoStorage))
	assert.NotEmpty(t, StorageWarning(CannotStat))
	assert.NotEqual(t, StorageWarning(NoStorage), StorageWarning(CannotStat))
	assert.NotEmpty(t, StorageWarning(0))
	assert.Empty(t, StorageWarning(1))
	assert.Empty(t, StorageWarning(5000))
}

func TestDefaultStorageRoots(t *testing.T) {
	t.Setenv("EXTERNAL_STORAGE", "/mnt/sdcard")
	roots := DefaultStorageRoots()
	assert.Equal(t, "/mnt/sdcard", roots.External)
	assert.NotEmpty(t, roots.Private)
}
