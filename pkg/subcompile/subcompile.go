// Package subcompile implements the sub-compilation builder (component L):
// the overrides applied when constructing a child Compilation to build a
// CRT/runtime-library artifact, spec.md §4.7. The actual recursive
// create/update/destroy cycle lives in pkg/compilation (to avoid an import
// cycle, since a child is itself a *compilation.Compilation); this package
// owns the override-derivation logic that §4.7 specifies so it stays
// independently testable.
package subcompile

import (
	"github.com/xackus/zigc/pkg/config"
	"github.com/xackus/zigc/pkg/target"
)

// Kind identifies which CRT/runtime artifact a sub-compilation builds.
type Kind int

const (
	CompilerRt Kind = iota
	ZigLibc
	GlibcCrt
	MuslCrt
	MingwCrt
	Libunwind
	Libcxx
	Libcxxabi
)

// Request describes one sub-compilation to construct.
type Request struct {
	Kind             Kind
	Target           target.Triple
	ParentLinkLibC   bool
	RootPackagePath  string // "" for CRT files; "std/special/<name>" for compiler-rt/libc
	TargetIsWasm     bool
}

// DeriveChildOptions applies spec.md §4.7's fixed overrides on top of a
// bare set of target-only options: no root module (for CRT files) or a
// synthetic root package pointing at std/special/<name> (for
// compiler-rt/libc); link_mode = Static; function_sections = true;
// want_sanitize_c = false; want_stack_check = false; want_valgrind = false;
// is_compiler_rt_or_libc = true; parent_compilation_link_libc =
// <parent>.link_libc. Options carries no cache directory, so globalCacheRoot
// is not used here: "local cache = global cache" is applied by the caller,
// which passes the global cache directory as the child's local cache.
func DeriveChildOptions(req Request, globalCacheRoot string) config.Options {
	static := config.Static
	falseVal := false

	opts := config.Options{
		Target:                   req.Target,
		RootModulePath:           req.RootPackagePath,
		OutputMode:               childOutputMode(req),
		LinkMode:                 &static,
		FunctionSections:         true,
		WantSanitizeC:            &falseVal,
		WantStackCheck:           &falseVal,
		WantValgrind:             &falseVal,
		IsCompilerRtOrLibc:       true,
		ParentCompilationLinkLibc: req.ParentLinkLibC,
	}
	return opts
}

// childOutputMode implements §4.7's "output_mode for target-language-source
// sub-compilations is Obj iff the target is wasm else Lib".
func childOutputMode(req Request) config.OutputMode {
	if req.RootPackagePath == "" {
		// CRT files are always single objects.
		return config.Obj
	}
	if req.TargetIsWasm {
		return config.Obj
	}
	return config.Lib
}

// LocalCacheRoot implements "local cache = global cache" for sub-compilations.
func LocalCacheRoot(globalCacheRoot string) string {
	return globalCacheRoot
}
