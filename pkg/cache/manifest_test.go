package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestManifestHitMissThenHit(t *testing.T) {
	root := t.TempDir()
	srcDir := t.TempDir()
	src := writeTempFile(t, srcDir, "a.c", "int main() { return 0; }")

	base := BaseInputs{CompilerVersion: "v1", TargetOS: "linux"}

	m1 := Obtain(root, base)
	require.NoError(t, m1.AddFile(src))
	hit, err := m1.Hit()
	require.NoError(t, err)
	assert.False(t, hit, "first build must miss")

	digest, lock, err := m1.Final()
	require.NoError(t, err)
	require.NotEmpty(t, digest)
	assert.True(t, lock.Valid())
	require.NoError(t, m1.WriteManifest())
	require.NoError(t, lock.Release())

	m2 := Obtain(root, base)
	require.NoError(t, m2.AddFile(src))
	hit2, err := m2.Hit()
	require.NoError(t, err)
	assert.True(t, hit2, "second build with identical inputs must hit")
	assert.Equal(t, digest, m2.Digest())
}

func TestManifestDigestChangesWithFileContent(t *testing.T) {
	root := t.TempDir()
	srcDir := t.TempDir()
	src := writeTempFile(t, srcDir, "a.c", "version one")

	base := BaseInputs{CompilerVersion: "v1"}
	m1 := Obtain(root, base)
	require.NoError(t, m1.AddFile(src))
	d1, _, err := m1.Final()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(src, []byte("version two, different"), 0o644))

	m2 := Obtain(root, base)
	require.NoError(t, m2.AddFile(src))
	d2, _, err := m2.Final()
	require.NoError(t, err)

	assert.NotEqual(t, d1, d2)
}

func TestManifestPeekBinAndUnhitRollsBack(t *testing.T) {
	root := t.TempDir()
	srcDir := t.TempDir()
	a := writeTempFile(t, srcDir, "a.c", "a")

	base := BaseInputs{CompilerVersion: "v1"}
	m := Obtain(root, base)
	require.NoError(t, m.AddFile(a))

	snap, err := m.PeekBin()
	require.NoError(t, err)

	b := writeTempFile(t, srcDir, "b.c", "b")
	require.NoError(t, m.AddFile(b))
	assert.Equal(t, 2, m.NumFiles())

	require.NoError(t, m.Unhit(snap))
	assert.Equal(t, 1, m.NumFiles())
	assert.Empty(t, m.Digest())
}

func TestManifestHitFalseWhenStoredFileVanishes(t *testing.T) {
	root := t.TempDir()
	srcDir := t.TempDir()
	header := writeTempFile(t, srcDir, "a.h", "header")

	base := BaseInputs{CompilerVersion: "v1"}
	m := Obtain(root, base)
	digest := m.peekDigest()

	// Hand-craft a stored manifest recording header as a dependency,
	// bypassing AddFile so the digest itself stays independent of
	// header's content (mirroring how a real manifest's primary digest
	// inputs and its recorded dependency-file list are logically
	// separate concerns).
	manifestPath := filepath.Join(root, "h", digest)
	require.NoError(t, os.MkdirAll(filepath.Dir(manifestPath), 0o755))
	info, err := os.Stat(header)
	require.NoError(t, err)
	sum := sha256.Sum256([]byte("header"))
	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(storedManifest{Files: []FileDep{
		{Path: header, Hash: sum, Size: info.Size(), ModTime: info.ModTime().UnixNano()},
	}}))
	require.NoError(t, os.WriteFile(manifestPath, buf.Bytes(), 0o644))

	require.NoError(t, os.Remove(header))

	m2 := Obtain(root, base)
	hit, err := m2.Hit()
	require.NoError(t, err)
	assert.False(t, hit, "a stored dependency that vanished from disk must miss")
}

func TestParseDepFile(t *testing.T) {
	contents := "out.o: a.c b.h \\\n  c.h\n"
	deps := parseDepFile(contents)
	assert.Equal(t, []string{"a.c", "b.h", "c.h"}, deps)
}
