package ccobject

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xackus/zigc/pkg/config"
	"github.com/xackus/zigc/pkg/diag"
	"github.com/xackus/zigc/pkg/target"
)

// writeFakeClang writes a tiny shell script standing in for clang: it
// writes contents to the path following "-o" and exits with exitCode.
func writeFakeClang(t *testing.T, dir string, exitCode int, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "fake-clang.sh")
	script := `#!/bin/sh
out=""
prev=""
for a in "$@"; do
  if [ "$prev" = "-o" ]; then out="$a"; fi
  prev="$a"
done
if [ -n "$out" ]; then
  printf '%s' '` + contents + `' > "$out"
fi
exit ` + fmt.Sprintf("%d", exitCode)
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func baseEnv(t *testing.T, clangPath, cacheRoot string) Env {
	return Env{
		Cfg: config.Resolved{
			Target: target.Triple{OS: target.Linux, Arch: target.X86_64, Abi: target.AbiGnu},
		},
		Args:            ArgsEnv{LibDir: "/zig-lib"},
		ClangPath:       clangPath,
		LocalCacheRoot:  cacheRoot,
		CompilerVersion: "test-version",
	}
}

func TestBuildSuccessStoresObjectAndManifest(t *testing.T) {
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "a.c")
	require.NoError(t, os.WriteFile(src, []byte("int f(void){return 0;}"), 0o644))

	binDir := t.TempDir()
	clang := writeFakeClang(t, binDir, 0, "object-bytes")

	cacheRoot := t.TempDir()
	env := baseEnv(t, clang, cacheRoot)

	slot := NewSlot(src, nil)
	err := Build(context.Background(), slot, env, diag.Discard)
	require.NoError(t, err)

	assert.Equal(t, Success, slot.Status)
	require.FileExists(t, slot.ObjectPath)
	contents, err := os.ReadFile(slot.ObjectPath)
	require.NoError(t, err)
	assert.Equal(t, "object-bytes", string(contents))
	assert.True(t, slot.Lock.Valid())

	t.Cleanup(func() { slot.Destroy() })
}

func TestBuildClangFailureMarksSlotFailed(t *testing.T) {
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "a.c")
	require.NoError(t, os.WriteFile(src, []byte("broken"), 0o644))

	binDir := t.TempDir()
	clang := writeFakeClang(t, binDir, 1, "")

	cacheRoot := t.TempDir()
	env := baseEnv(t, clang, cacheRoot)

	slot := NewSlot(src, nil)
	err := Build(context.Background(), slot, env, diag.Discard)
	require.NoError(t, err, "a clean non-zero clang exit is reported via the slot, not a Go error")

	assert.Equal(t, Failure, slot.Status)
	assert.Contains(t, slot.Error, "clang exited with code 1")
}

func TestBuildDirectToOutputUsesRootName(t *testing.T) {
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "a.c")
	require.NoError(t, os.WriteFile(src, []byte("int f(void){return 0;}"), 0o644))

	binDir := t.TempDir()
	clang := writeFakeClang(t, binDir, 0, "obj")

	cacheRoot := t.TempDir()
	env := baseEnv(t, clang, cacheRoot)
	env.DirectToOutput = true
	env.RootName = "myprog"

	slot := NewSlot(src, nil)
	err := Build(context.Background(), slot, env, diag.Discard)
	require.NoError(t, err)
	require.Equal(t, Success, slot.Status)
	assert.Equal(t, "myprog.o", filepath.Base(slot.ObjectPath))

	t.Cleanup(func() { slot.Destroy() })
}
