package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tr, err := Parse("linux-x86_64-gnu")
	require.NoError(t, err)
	assert.Equal(t, Triple{OS: Linux, Arch: X86_64, Abi: AbiGnu}, tr)

	tr2, err := Parse("macos-aarch64")
	require.NoError(t, err)
	assert.Equal(t, Triple{OS: MacOS, Arch: Aarch64}, tr2)

	_, err = Parse("just-one-too-many-parts-here")
	assert.Error(t, err)
}

func TestTripleString(t *testing.T) {
	assert.Equal(t, "linux-x86_64", Triple{OS: Linux, Arch: X86_64}.String())
	assert.Equal(t, "linux-x86_64-musl", Triple{OS: Linux, Arch: X86_64, Abi: AbiMusl}.String())
}

func TestRequiresPIC(t *testing.T) {
	wasm := Triple{OS: Wasi, Arch: Wasm32}
	assert.True(t, wasm.RequiresPIC(false))

	mac := Triple{OS: MacOS, Arch: Aarch64}
	assert.True(t, mac.RequiresPIC(false))

	win := Triple{OS: Windows, Arch: X86_64, Abi: AbiGnu}
	assert.False(t, win.RequiresPIC(true))

	glibc := Triple{OS: Linux, Arch: X86_64, Abi: AbiGnu}
	assert.False(t, glibc.RequiresPIC(false))
	assert.True(t, glibc.RequiresPIC(true))
}

func TestIsGlibcIsMusl(t *testing.T) {
	assert.True(t, Triple{OS: Linux, Abi: AbiGnu}.IsGlibc())
	assert.False(t, Triple{OS: Linux, Abi: AbiMusl}.IsGlibc())
	assert.True(t, Triple{OS: Linux, Abi: AbiMusl}.IsMusl())
}

func TestSupportsStackProbing(t *testing.T) {
	assert.True(t, Triple{Arch: X86_64}.SupportsStackProbing())
	assert.False(t, Triple{Arch: Riscv64}.SupportsStackProbing())
}

func TestLLVMTriple(t *testing.T) {
	assert.Equal(t, "x86_64-unknown-linux-gnu", Triple{OS: Linux, Arch: X86_64, Abi: AbiGnu}.LLVMTriple())
	assert.Equal(t, "i386-unknown-linux", Triple{OS: Linux, Arch: X86}.LLVMTriple())
}

func TestObjectExtension(t *testing.T) {
	assert.Equal(t, ".obj", Triple{OS: Windows}.ObjectExtension())
	assert.Equal(t, ".o", Triple{OS: Linux}.ObjectExtension())
}
