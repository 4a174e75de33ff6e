package subcompile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xackus/zigc/pkg/config"
	"github.com/xackus/zigc/pkg/target"
)

func TestDeriveChildOptionsFixedOverrides(t *testing.T) {
	req := Request{
		Kind:            Libunwind,
		Target:          target.Triple{OS: target.Linux, Arch: target.X86_64, Abi: target.AbiGnu},
		ParentLinkLibC:  true,
		RootPackagePath: "std/special/libunwind",
	}
	opts := DeriveChildOptions(req, "/cache/global")

	require.NotNil(t, opts.LinkMode)
	assert.Equal(t, config.Static, *opts.LinkMode)
	assert.True(t, opts.FunctionSections)
	require.NotNil(t, opts.WantSanitizeC)
	assert.False(t, *opts.WantSanitizeC)
	require.NotNil(t, opts.WantStackCheck)
	assert.False(t, *opts.WantStackCheck)
	require.NotNil(t, opts.WantValgrind)
	assert.False(t, *opts.WantValgrind)
	assert.True(t, opts.IsCompilerRtOrLibc)
	assert.True(t, opts.ParentCompilationLinkLibc)
	assert.Equal(t, "std/special/libunwind", opts.RootModulePath)
}

func TestChildOutputModeCRTFileIsAlwaysObj(t *testing.T) {
	req := Request{RootPackagePath: "", TargetIsWasm: false}
	assert.Equal(t, config.Obj, childOutputMode(req))

	reqWasm := Request{RootPackagePath: "", TargetIsWasm: true}
	assert.Equal(t, config.Obj, childOutputMode(reqWasm))
}

func TestChildOutputModeLanguageSourceWasmVsNative(t *testing.T) {
	native := Request{RootPackagePath: "std/special/compiler_rt", TargetIsWasm: false}
	assert.Equal(t, config.Lib, childOutputMode(native))

	wasm := Request{RootPackagePath: "std/special/compiler_rt", TargetIsWasm: true}
	assert.Equal(t, config.Obj, childOutputMode(wasm))
}

func TestLocalCacheRootIsGlobalCacheRoot(t *testing.T) {
	assert.Equal(t, "/cache/global", LocalCacheRoot("/cache/global"))
}
