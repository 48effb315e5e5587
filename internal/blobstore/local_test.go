package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimizedKey_Deterministic(t *testing.T) {
	a := OptimizedKey("https://site.test/hero.jpg")
	b := OptimizedKey("https://site.test/hero.jpg")
	other := OptimizedKey("https://site.test/other.jpg")

	assert.Equal(t, a, b, "same source always lands on the same path")
	assert.NotEqual(t, a, other)
	assert.True(t, strings.HasPrefix(a, "optimized/"))
	assert.True(t, strings.HasSuffix(a, ".webp"))
}

func TestLocal_SaveWritesAndReturnsPublicRef(t *testing.T) {
	dir := t.TempDir()
	store := NewLocal(dir, "/static/")

	key := OptimizedKey("hero.jpg")
	ref, err := store.Save(context.Background(), key, "image/webp", []byte("webp bytes"))
	require.NoError(t, err)

	assert.Equal(t, "/static/"+key, ref)

	written, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, []byte("webp bytes"), written)
}

func TestLocal_SaveOverwrites(t *testing.T) {
	dir := t.TempDir()
	store := NewLocal(dir, "/static")

	key := OptimizedKey("hero.jpg")
	_, err := store.Save(context.Background(), key, "image/webp", []byte("first"))
	require.NoError(t, err)
	_, err = store.Save(context.Background(), key, "image/webp", []byte("second"))
	require.NoError(t, err)

	written, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), written, "re-conversion recomputes and replaces")
}
