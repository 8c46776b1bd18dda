package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "a.png")

	require.NoError(t, writeAtomic(path, []byte("one")))
	require.NoError(t, writeAtomic(path, []byte("two")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))
	assert.Equal(t, []string{"a.png"}, listDir(t, filepath.Dir(path)))
}

func TestWriteAtomicCleansUp(t *testing.T) {
	dir := t.TempDir()
	// Переименование файла поверх каталога не проходит.
	target := filepath.Join(dir, "taken")
	require.NoError(t, os.MkdirAll(filepath.Join(target, "child"), 0755))

	require.Error(t, writeAtomic(target, []byte("data")))
	assert.Equal(t, []string{"taken"}, listDir(t, dir))
}

func TestWriteAtomicParentIsFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	require.Error(t, writeAtomic(filepath.Join(file, "a.png"), []byte("x")))
}
