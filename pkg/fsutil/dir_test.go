package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenDirResolvesAndPins(t *testing.T) {
	dir := t.TempDir()
	d, err := OpenDir(dir)
	require.NoError(t, err)
	defer d.Close()

	want, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, want, d.Path)
}

func TestOpenDirRejectsMissingPath(t *testing.T) {
	_, err := OpenDir(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}

func TestOpenDirRejectsNonDirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := OpenDir(file)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestDirCloseIsIdempotentAndSafeOnZeroValue(t *testing.T) {
	var zero Dir
	assert.NoError(t, zero.Close())

	dir := t.TempDir()
	d, err := OpenDir(dir)
	require.NoError(t, err)
	assert.NoError(t, d.Close())
	assert.NoError(t, d.Close())
}

func TestDirJoin(t *testing.T) {
	dir := t.TempDir()
	d, err := OpenDir(dir)
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, filepath.Join(d.Path, "sub", "file.o"), d.Join(filepath.Join("sub", "file.o")))
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "a/b/c", NormalizePath(`a\b/c`))
	assert.Equal(t, "already/unix", NormalizePath("already/unix"))
	assert.Equal(t, "", NormalizePath(""))
}
