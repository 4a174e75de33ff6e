package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xackus/zigc/pkg/errs"
	"github.com/xackus/zigc/pkg/target"
)

func TestResolveLinuxGnuExeLinksLibC(t *testing.T) {
	opts := Options{
		Target:     target.Triple{OS: target.Linux, Arch: target.X86_64, Abi: target.AbiGnu},
		OutputMode: Exe,
		LinkLibC:   true,
	}
	r, err := Resolve(opts)
	require.NoError(t, err)

	assert.True(t, r.LinkLibC)
	assert.True(t, r.MustDynamicLink)
	assert.Equal(t, Dynamic, r.LinkMode)
	assert.True(t, r.MustPIC)
	assert.True(t, r.PIC)
}

func TestResolveStaticLinkRejectedWhenMustDynamicLink(t *testing.T) {
	static := Static
	opts := Options{
		Target:     target.Triple{OS: target.Linux, Arch: target.X86_64, Abi: target.AbiGnu},
		OutputMode: Exe,
		LinkLibC:   true,
		LinkMode:   &static,
	}
	_, err := Resolve(opts)
	assert.ErrorIs(t, err, errs.ErrUnableToStaticLink)
}

func TestResolvePICOverrideRejectedWhenRequired(t *testing.T) {
	noPIC := false
	opts := Options{
		Target:     target.Triple{OS: target.MacOS, Arch: target.Aarch64},
		OutputMode: Obj,
		WantPIC:    &noPIC,
	}
	_, err := Resolve(opts)
	assert.ErrorIs(t, err, errs.ErrTargetRequiresPIC)
}

func TestResolveFreestandingObjDefaults(t *testing.T) {
	opts := Options{
		Target:     target.Triple{OS: target.Freestanding, Arch: target.Riscv64},
		OutputMode: Obj,
		Optimize:   ReleaseFast,
	}
	r, err := Resolve(opts)
	require.NoError(t, err)

	assert.False(t, r.LinkLibC)
	assert.False(t, r.StackCheck) // riscv64 does not support stack probing
	assert.False(t, r.Valgrind)   // freestanding never supports valgrind
	assert.True(t, r.SingleThreaded)
}

func TestResolveDefaultCodeModelNeverRejected(t *testing.T) {
	falseVal := false
	opts := Options{
		Target:     target.Triple{OS: target.Linux, Arch: target.X86_64, Abi: target.AbiGnu},
		OutputMode: Obj,
		WantLLVM:   &falseVal,
	}
	r, err := Resolve(opts)
	require.NoError(t, err)
	assert.Equal(t, "", r.CodeModel)
}

func TestResolveLibCFileMissingIsNotAvailable(t *testing.T) {
	opts := Options{
		Target:     target.Triple{OS: target.Linux, Arch: target.X86_64, Abi: target.AbiGnu},
		OutputMode: Exe,
		LinkLibC:   true,
		LibCFile:   filepath.Join(t.TempDir(), "does-not-exist.conf"),
	}
	_, err := Resolve(opts)
	assert.ErrorIs(t, err, errs.ErrLibCInstallationNotAvailable)
}

func TestResolveLibCFileMissingCrtDirKey(t *testing.T) {
	dir := t.TempDir()
	libcFile := filepath.Join(dir, "libc.conf")
	require.NoError(t, os.WriteFile(libcFile, []byte("include_dir=/usr/include\n"), 0o644))

	opts := Options{
		Target:     target.Triple{OS: target.Linux, Arch: target.X86_64, Abi: target.AbiGnu},
		OutputMode: Exe,
		LinkLibC:   true,
		LibCFile:   libcFile,
	}
	_, err := Resolve(opts)
	assert.ErrorIs(t, err, errs.ErrLibCInstallationMissingCRT)
}

func TestResolveLibCFileCrtDirDoesNotExistOnDisk(t *testing.T) {
	dir := t.TempDir()
	libcFile := filepath.Join(dir, "libc.conf")
	contents := "include_dir=/usr/include\ncrt_dir=" + filepath.Join(dir, "no-such-crt") + "\n"
	require.NoError(t, os.WriteFile(libcFile, []byte(contents), 0o644))

	opts := Options{
		Target:     target.Triple{OS: target.Linux, Arch: target.X86_64, Abi: target.AbiGnu},
		OutputMode: Exe,
		LinkLibC:   true,
		LibCFile:   libcFile,
	}
	_, err := Resolve(opts)
	assert.ErrorIs(t, err, errs.ErrLibCInstallationMissingCRT)
}

func TestResolveLibCFileValidInstallationResolvesCleanly(t *testing.T) {
	dir := t.TempDir()
	crtDir := filepath.Join(dir, "crt")
	require.NoError(t, os.MkdirAll(crtDir, 0o755))
	libcFile := filepath.Join(dir, "libc.conf")
	contents := "include_dir=/usr/include\ncrt_dir=" + crtDir + "\n"
	require.NoError(t, os.WriteFile(libcFile, []byte(contents), 0o644))

	opts := Options{
		Target:     target.Triple{OS: target.Linux, Arch: target.X86_64, Abi: target.AbiGnu},
		OutputMode: Exe,
		LinkLibC:   true,
		LibCFile:   libcFile,
	}
	r, err := Resolve(opts)
	require.NoError(t, err)
	assert.True(t, r.LinkLibC)
}

func TestLLVMCPUFeatureString(t *testing.T) {
	s := LLVMCPUFeatureString([]string{"avx2", "bmi2"}, []string{"avx512f"})
	assert.Equal(t, "+avx2,+bmi2,-avx512f\x00", s)
}

func TestLLVMCPUFeatureStringEmpty(t *testing.T) {
	assert.Equal(t, "\x00", LLVMCPUFeatureString(nil, nil))
}
