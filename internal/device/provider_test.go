package device

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreate_PersistsAcrossProviders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.json")

	first := NewProvider(OpenLocalStore(path)).GetOrCreate()
	assert.Regexp(t, `^[0-9a-f]{32}$`, first)

	// A fresh store over the same file sees the same id.
	second := NewProvider(OpenLocalStore(path)).GetOrCreate()
	assert.Equal(t, first, second)
}

func TestGetOrCreate_ReturnsExistingID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.json")
	store := OpenLocalStore(path)
	require.NoError(t, store.Set("rx_device_id", "abc123"))

	assert.Equal(t, "abc123", NewProvider(store).GetOrCreate())
}

func TestGetOrCreate_FallsBackToSessionID(t *testing.T) {
	// A store path under a regular file cannot be written.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	store := OpenLocalStore(filepath.Join(blocker, "local.json"))

	p := NewProvider(store)
	id := p.GetOrCreate()
	assert.Regexp(t, `^anon_[0-9a-f]{32}$`, id)

	// Session-scoped: stable for this provider's lifetime.
	assert.Equal(t, id, p.GetOrCreate())
}

func TestLocalStore_SurvivesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.json")
	require.NoError(t, os.WriteFile(path, []byte("{corrupt"), 0o644))

	store := OpenLocalStore(path)
	_, ok := store.Get("anything")
	assert.False(t, ok)

	require.NoError(t, store.Set("k", "v"))
	v, ok := OpenLocalStore(path).Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}
