package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_MissingFileIsEmpty(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "settings.yaml"))
	require.NoError(t, err)

	_, found, err := store.Get("grdbSchemaVersion")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "file", store.GetName())
}

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")

	store, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set("didEverUseYdb", "true"))
	require.NoError(t, SetUint(store, "grdbSchemaVersion", 3))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)

	v, found, err := reopened.Get("didEverUseYdb")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "true", v)

	n, err := GetUint(reopened, "grdbSchemaVersion", 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)

	// no temp files are left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- not\n- a mapping\n"), 0o644))

	_, err := NewFileStore(path)
	assert.Error(t, err)
}

func TestFileStore_EmptyKey(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "settings.yaml"))
	require.NoError(t, err)

	assert.ErrorIs(t, store.Set("", "x"), ErrKeyEmpty)
	_, _, err = store.Get("")
	assert.ErrorIs(t, err, ErrKeyEmpty)
}

func TestFileStore_FailedWriteKeepsPreviousValue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	store, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set("k", "old"))

	// point the store beneath a regular file so the next flush fails
	store.path = filepath.Join(path, "settings.yaml")
	assert.Error(t, store.Set("k", "new"))

	v, _, err := store.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "old", v)
}

func TestTypedHelpers(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "settings.yaml"))
	require.NoError(t, err)

	b, err := GetBool(store, "isYdbMigrated1", false)
	require.NoError(t, err)
	assert.False(t, b)

	require.NoError(t, SetBool(store, "isYdbMigrated1", true))
	b, err = GetBool(store, "isYdbMigrated1", false)
	require.NoError(t, err)
	assert.True(t, b)

	n, err := GetUint(store, "grdbSchemaVersion", 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), n)

	require.NoError(t, store.Set("grdbSchemaVersion", "minus one"))
	n, err = GetUint(store, "grdbSchemaVersion", 7)
	assert.Error(t, err)
	assert.Equal(t, uint64(7), n)

	require.NoError(t, store.Set("isYdbMigrated1", "maybe"))
	_, err = GetBool(store, "isYdbMigrated1", false)
	assert.Error(t, err)
}
