package translatec

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xackus/zigc/pkg/config"
	"github.com/xackus/zigc/pkg/target"
)

// writeFakeTranslateC mirrors the fake-clang pattern used across the
// other packages' tests: a stand-in for `zig translate-c` that writes
// to whatever path follows "-o" and exits 0, unless told to fail.
func writeFakeTranslateC(t *testing.T, fail bool) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fake-translate-c.sh")
	script := `#!/bin/sh
out=""
prev=""
for a in "$@"; do
  if [ "$prev" = "-o" ]; then out="$a"; fi
  prev="$a"
done
`
	if fail {
		script += "echo 'translate failed' 1>&2\nexit 1\n"
	} else {
		script += `if [ -n "$out" ]; then printf 'const c_int = c_int;' > "$out"; fi
exit 0
`
	}
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func baseEnv(clang, cacheRoot string) Env {
	return Env{
		Cfg: config.Resolved{
			Target: target.Triple{OS: target.Linux, Arch: target.X86_64, Abi: target.AbiGnu},
		},
		ClangPath:       clang,
		LocalCacheRoot:  cacheRoot,
		CompilerVersion: "test-version",
	}
}

func TestTranslateSuccessWritesGeneratedSource(t *testing.T) {
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "header.h")
	require.NoError(t, os.WriteFile(src, []byte("int f(void);"), 0o644))

	clang := writeFakeTranslateC(t, false)
	cacheRoot := t.TempDir()

	out, err := Translate(context.Background(), src, baseEnv(clang, cacheRoot))
	require.NoError(t, err)
	assert.FileExists(t, out)
	assert.Equal(t, "header.h.zig", filepath.Base(out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "c_int")
}

func TestTranslateSecondCallHitsCacheWithoutInvokingFrontend(t *testing.T) {
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "header.h")
	require.NoError(t, os.WriteFile(src, []byte("int f(void);"), 0o644))

	clang := writeFakeTranslateC(t, false)
	cacheRoot := t.TempDir()
	env := baseEnv(clang, cacheRoot)

	out1, err := Translate(context.Background(), src, env)
	require.NoError(t, err)

	// Break the frontend: a second Translate call for the same source
	// must not need to invoke it again.
	require.NoError(t, os.Remove(clang))

	out2, err := Translate(context.Background(), src, env)
	require.NoError(t, err)
	assert.Equal(t, out1, out2)
	assert.FileExists(t, out2)
}

func TestTranslateFrontendFailureReturnsError(t *testing.T) {
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "bad.h")
	require.NoError(t, os.WriteFile(src, []byte("!!!"), 0o644))

	clang := writeFakeTranslateC(t, true)
	cacheRoot := t.TempDir()

	_, err := Translate(context.Background(), src, baseEnv(clang, cacheRoot))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "translate failed")
}

func TestTranslateRetriesAfterPriorFailure(t *testing.T) {
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "retry.h")
	require.NoError(t, os.WriteFile(src, []byte("int g(void);"), 0o644))

	cacheRoot := t.TempDir()

	failingClang := writeFakeTranslateC(t, true)
	_, err := Translate(context.Background(), src, baseEnv(failingClang, cacheRoot))
	require.Error(t, err)

	okClang := writeFakeTranslateC(t, false)
	out, err := Translate(context.Background(), src, baseEnv(okClang, cacheRoot))
	require.NoError(t, err)
	assert.FileExists(t, out)
}
