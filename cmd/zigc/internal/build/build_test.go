package build

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuildCommand(t *testing.T) {
	cmd := NewBuildCommand()

	require.NotNil(t, cmd)
	assert.Equal(t, "build", cmd.Use)
	assert.NotNil(t, cmd.RunE)
	assert.False(t, cmd.HasSubCommands())

	targetFlag := cmd.Flags().Lookup("target")
	require.NotNil(t, targetFlag)
	assert.Equal(t, "linux-x86_64-gnu", targetFlag.DefValue)

	assert.NotNil(t, cmd.Flags().Lookup("output-mode"))
	assert.NotNil(t, cmd.Flags().Lookup("c-source"))
	assert.NotNil(t, cmd.Flags().Lookup("lc"))
	assert.NotNil(t, cmd.Flags().Lookup("lc++"))
}

func TestParseOutputMode(t *testing.T) {
	assert.Equal(t, "obj", parseOutputMode("obj").String())
	assert.Equal(t, "lib", parseOutputMode("lib").String())
	assert.Equal(t, "exe", parseOutputMode("exe").String())
	assert.Equal(t, "obj", parseOutputMode("garbage").String())
}

func writeFakeClang(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fake-clang.sh")
	script := `#!/bin/sh
out=""
prev=""
for a in "$@"; do
  if [ "$prev" = "-o" ]; then out="$a"; fi
  prev="$a"
done
if [ -n "$out" ]; then printf 'obj' > "$out"; fi
exit 0
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestRunBuildsOneCSourceEndToEnd(t *testing.T) {
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "a.c")
	require.NoError(t, os.WriteFile(src, []byte("int f(void){return 0;}"), 0o644))

	clang := writeFakeClang(t)
	cacheDir := t.TempDir()
	zigLibDir := t.TempDir()

	cmd := NewBuildCommand()
	cmd.SetArgs([]string{
		"--c-source", src,
		"--clang-path", clang,
		"--cache-dir", cacheDir,
		"--global-cache-dir", cacheDir,
		"--zig-lib-dir", zigLibDir,
	})
	require.NoError(t, cmd.Execute())
}

func TestRunReportsInvalidTarget(t *testing.T) {
	cmd := NewBuildCommand()
	cmd.SetArgs([]string{"--target", "not-a-valid-triple-at-all"})
	assert.Error(t, cmd.Execute())
}

func TestRunRejectsLinkLibCWithoutCRTRecipeCollaborator(t *testing.T) {
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "a.c")
	require.NoError(t, os.WriteFile(src, []byte("int f(void){return 0;}"), 0o644))

	clang := writeFakeClang(t)
	cacheDir := t.TempDir()
	zigLibDir := t.TempDir()

	// The default --target is a glibc target (RequiresLibC), and this CLI
	// wires no CRTRecipes collaborator: --lc must not reach compilation.New
	// (which would enqueue CRT jobs update.go would nil-deref dispatching),
	// it must fail fast with a clear error instead.
	cmd := NewBuildCommand()
	cmd.SetArgs([]string{
		"--lc",
		"--c-source", src,
		"--clang-path", clang,
		"--cache-dir", cacheDir,
		"--global-cache-dir", cacheDir,
		"--zig-lib-dir", zigLibDir,
	})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CRT-recipe collaborator")
}
