package storage

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkStoreReaderConcatenatesInIndexOrder(t *testing.T) {
	store, err := NewChunkStore(t.TempDir())
	require.NoError(t, err)

	parts := []string{"alpha-", "beta-", "gamma"}
	for _, i := range []int{2, 0, 1} {
		n, err := store.Write("1-a.txt", i, strings.NewReader(parts[i]))
		require.NoError(t, err)
		assert.EqualValues(t, len(parts[i]), n)
	}

	r, size, err := store.Reader("1-a.txt", len(parts))
	require.NoError(t, err)
	defer r.Close()
	assert.EqualValues(t, len("alpha-beta-gamma"), size)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "alpha-beta-gamma", string(got))
}

func TestChunkStoreReaderFailsOnMissingChunk(t *testing.T) {
	store, err := NewChunkStore(t.TempDir())
	require.NoError(t, err)
	_, err = store.Write("1-a.txt", 0, strings.NewReader("x"))
	require.NoError(t, err)

	_, _, err = store.Reader("1-a.txt", 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestChunkStoreRemoveAndSweep(t *testing.T) {
	dir := t.TempDir()
	store, err := NewChunkStore(dir)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = store.Write("1-a.txt", i, bytes.NewReader([]byte{byte(i)}))
		require.NoError(t, err)
	}
	require.NoError(t, store.Remove("1-a.txt", 0, 1, 7))
	_, err = store.Size("1-a.txt", 0)
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = store.Size("1-a.txt", 2)
	assert.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.me"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".1-a.txt.tmp-123456"), []byte("x"), 0o644))
	removed, err := store.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "keep.me", entries[0].Name())
}

func TestChunkStoreSweepKeepsLookalikeNames(t *testing.T) {
	dir := t.TempDir()
	store, err := NewChunkStore(dir)
	require.NoError(t, err)

	keep := []string{"123-x.part1.pdf", "notes.partial", "report.tmp-final.txt"}
	for _, name := range keep {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	_, err = store.Write("123-x.pdf", 4, strings.NewReader("x"))
	require.NoError(t, err)

	removed, err := store.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.ElementsMatch(t, keep, dirNames(t, dir))
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestChunkStoreRejectsPathNames(t *testing.T) {
	store, err := NewChunkStore(t.TempDir())
	require.NoError(t, err)
	_, err = store.Write("../escape", 0, strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidObjectName)
}
