// Package config resolves a user-supplied Options record into a consistent
// Resolved build decision set, the configuration resolution pipeline of
// spec.md §4.1 (component H).
//
// Options uses the same "optional pointer, derive against target defaults
// if nil" idiom LineageOS-android_build_soong/cc/config uses for its
// per-module Properties structs (*bool fields such as Pic, Static_libs
// resolved against arch/os defaults in arm64_device.go, bionic.go, etc.)
// rather than a separate "was this explicitly set" bitset.
package config

import "github.com/xackus/zigc/pkg/target"

// OutputMode is the kind of artifact being produced.
type OutputMode int

const (
	Obj OutputMode = iota
	Lib
	Exe
)

func (m OutputMode) String() string {
	switch m {
	case Obj:
		return "obj"
	case Lib:
		return "lib"
	case Exe:
		return "exe"
	default:
		return "unknown"
	}
}

// LinkMode is static vs dynamic linking.
type LinkMode int

const (
	Static LinkMode = iota
	Dynamic
)

// OptimizeMode mirrors the four standard optimize modes.
type OptimizeMode int

const (
	Debug OptimizeMode = iota
	ReleaseSafe
	ReleaseFast
	ReleaseSmall
)

// PreprocessorMode controls C/C++ preprocessing-only invocations (§6).
type PreprocessorMode int

const (
	PreprocessorOff PreprocessorMode = iota
	PreprocessorFile
	PreprocessorStdout
)

// CSource is one C/C++/H input plus its extra compiler flags (§4.5).
type CSource struct {
	Path       string
	ExtraFlags []string
}

// EmitLoc is spec.md §3's EmitLoc: a destination directory (or "the cache")
// plus a path-separator-free basename.
type EmitLoc struct {
	ToCache  bool
	Dir      string
	Basename string
}

// Options is the raw, user-supplied build request (§1 "a declarative set of
// inputs"). Pointer fields are "explicit if given" per §4.1; a nil pointer
// means "let the resolver derive it".
type Options struct {
	Target target.Triple

	RootModulePath string // empty means "no root module" (§4.1.3)
	CSources       []CSource

	OutputMode   OutputMode
	Optimize     OptimizeMode
	LinkMode     *LinkMode
	WantPIC      *bool
	WantLTO      *bool
	WantLLVM     *bool
	WantLLD      *bool
	WantClang    *bool
	WantSanitizeC *bool
	WantStackCheck *bool
	WantValgrind *bool
	SingleThreaded *bool
	Strip        *bool
	DllExportFns *bool

	LinkLibC   bool // user-requested; target_os_requires_libc is ORed in by Resolve
	LinkLibCpp bool

	// LibCFile points at a libc installation description file (the same
	// key=value shape real zig's --libc flag accepts) naming a native libc
	// already installed on the host, for targets that should link against
	// it instead of having zigc bootstrap a CRT from bundled source.
	// Empty means "use the bundled CRT-recipe bootstrap path" (§4.7).
	LibCFile string

	SystemLibs       []string
	Frameworks       []string
	ExternalObjects  []string
	LinkerScript     string
	VersionScript    string
	ExtraLDArgs      []string
	EhFrameHdr       bool
	EmitRelocs       bool

	FunctionSections bool
	ClangArgv        []string

	ClangPassthroughMode bool
	ClangPreprocessorMode PreprocessorMode

	RunningUnderLegacyBackend bool

	// Sub-compilation markers (§4.7); zero value for top-level builds.
	IsCompilerRtOrLibc       bool
	ParentCompilationLinkLibc bool

	EmitBin      *EmitLoc
	EmitH        *EmitLoc
	EmitAsm      *EmitLoc
	EmitLLVMIR   *EmitLoc
	EmitAnalysis *EmitLoc
	EmitDocs     *EmitLoc
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
