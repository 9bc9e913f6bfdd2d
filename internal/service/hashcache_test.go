package service

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashCache_PersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hashes.json")

	cache, err := NewHashCache(path)
	require.NoError(t, err)
	require.NoError(t, cache.Put("id1", "aaaa"))
	require.NoError(t, cache.Put("id2", "bbbb"))

	reloaded, err := NewHashCache(path)
	require.NoError(t, err)
	h, ok := reloaded.Get("id1")
	assert.True(t, ok)
	assert.Equal(t, "aaaa", h)
	assert.Equal(t, 2, reloaded.Len())
}

func TestHashCache_DeleteIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hashes.json")
	cache, err := NewHashCache(path)
	require.NoError(t, err)

	require.NoError(t, cache.Put("id1", "aaaa"))
	require.NoError(t, cache.Delete("id1"))
	require.NoError(t, cache.Delete("id1"))

	_, ok := cache.Get("id1")
	assert.False(t, ok)
}

func TestHashCache_MissingFileStartsEmpty(t *testing.T) {
	cache, err := NewHashCache(filepath.Join(t.TempDir(), "nope", "hashes.json"))
	require.NoError(t, err)
	assert.Equal(t, 0, cache.Len())

	// First write creates the parent directory.
	require.NoError(t, cache.Put("id1", "aaaa"))
}

func TestHashCache_EmptyPathStaysInMemory(t *testing.T) {
	cache, err := NewHashCache("")
	require.NoError(t, err)
	require.NoError(t, cache.Put("id1", "aaaa"))
	h, ok := cache.Get("id1")
	assert.True(t, ok)
	assert.Equal(t, "aaaa", h)
}

func TestContentHash_ChangesWithContent(t *testing.T) {
	a := contentHash("Title\nhttps://example.com")
	b := contentHash("Title\nhttps://example.com\na description")
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 16)
	assert.Equal(t, a, contentHash("Title\nhttps://example.com"))
}
