package config

import (
	"strings"

	"github.com/xackus/zigc/pkg/errs"
	"github.com/xackus/zigc/pkg/target"
)

// Resolved is the derived, internally-consistent build decision set H
// produces from Options (§4.1). Compilation.create stores one of these and
// every other component reads from it instead of re-deriving decisions.
type Resolved struct {
	Target target.Triple

	IsDynLib       bool
	IsExeOrDynLib  bool
	UseLLVM        bool
	UseLLD         bool
	LinkLibC       bool
	MustDynamicLink bool
	LinkMode       LinkMode
	DllExportFns   bool
	MustPIC        bool
	PIC            bool
	UseClang       bool
	IsSafeMode     bool
	SanitizeC      bool
	StackCheck     bool
	Valgrind       bool
	SingleThreaded bool
	Strip          bool
	ErrorReturnTracing bool

	// Carried through unchanged from Options for components that need them
	// verbatim (addCCArgs, cache base hash, ...).
	Optimize         OptimizeMode
	OutputMode       OutputMode
	LinkLibCpp       bool
	FunctionSections bool
	CodeModel        string // "" == default
	ClangArgv        []string
}

const defaultCodeModel = ""

// Resolve derives Resolved from opts, applying the 19 ordered rules of
// spec.md §4.1. Any rule violation returns one of the sentinel errors in
// pkg/errs and aborts Compilation creation, matching §7 "Configuration
// errors (raised during create)".
func Resolve(opts Options) (Resolved, error) {
	var r Resolved
	r.Target = opts.Target
	r.Optimize = opts.Optimize
	r.OutputMode = opts.OutputMode
	r.LinkLibCpp = opts.LinkLibCpp
	r.FunctionSections = opts.FunctionSections
	r.ClangArgv = opts.ClangArgv
	r.CodeModel = defaultCodeModel

	// 1. is_dyn_lib
	wantLinkMode := Static
	if opts.LinkMode != nil {
		wantLinkMode = *opts.LinkMode
	}
	r.IsDynLib = opts.OutputMode == Lib && wantLinkMode == Dynamic

	// 2. is_exe_or_dyn_lib
	r.IsExeOrDynLib = opts.OutputMode == Exe || r.IsDynLib

	// 3. use_llvm
	switch {
	case opts.WantLLVM != nil:
		r.UseLLVM = *opts.WantLLVM
	case opts.RootModulePath == "":
		r.UseLLVM = false
	case opts.RunningUnderLegacyBackend:
		r.UseLLVM = true
	default:
		r.UseLLVM = false
	}

	// 4. reject machine-code-model != default when !use_llvm
	if r.CodeModel != defaultCodeModel && !r.UseLLVM {
		return Resolved{}, errs.ErrMachineCodeModelNotSupported
	}

	// 5. use_lld
	if opts.WantLLD != nil {
		r.UseLLD = *opts.WantLLD
	} else if !r.UseLLVM || opts.Target.ObjectFormat() == target.ObjCSource {
		r.UseLLD = false
	} else {
		needsLLD := len(opts.ExternalObjects) > 0 ||
			len(opts.CSources) > 0 ||
			len(opts.Frameworks) > 0 ||
			len(opts.SystemLibs) > 0 ||
			opts.LinkLibC || opts.LinkLibCpp ||
			opts.EhFrameHdr || opts.EmitRelocs ||
			opts.OutputMode == Lib ||
			opts.LinkerScript != "" || opts.VersionScript != "" ||
			len(opts.ExtraLDArgs) > 0
		if needsLLD {
			r.UseLLD = true
		} else {
			r.UseLLD = r.UseLLVM && opts.RootModulePath != ""
		}
	}

	// 6. link_libc
	r.LinkLibC = opts.LinkLibC || opts.Target.RequiresLibC()

	// 6a. libc installation (§7 "Configuration errors ...
	// LibCInstallationNotAvailable, LibCInstallationMissingCRTDir"): only
	// checked when the caller named an explicit installation file instead
	// of relying on the bundled CRT-recipe bootstrap path.
	if r.LinkLibC && opts.LibCFile != "" {
		if _, err := ParseLibCInstallation(opts.LibCFile); err != nil {
			return Resolved{}, err
		}
	}

	// 7. must_dynamic_link
	switch {
	case opts.Target.ForbidsDynamicLinking():
		r.MustDynamicLink = false
	case r.IsExeOrDynLib && r.LinkLibC && (opts.Target.IsGlibc() || opts.Target.RequiresLibC()):
		r.MustDynamicLink = true
	case len(opts.SystemLibs) > 0:
		r.MustDynamicLink = true
	default:
		r.MustDynamicLink = false
	}

	// 8. link_mode
	if opts.LinkMode != nil {
		if *opts.LinkMode == Static && r.MustDynamicLink {
			return Resolved{}, errs.ErrUnableToStaticLink
		}
		r.LinkMode = *opts.LinkMode
	} else if r.MustDynamicLink {
		r.LinkMode = Dynamic
	} else {
		r.LinkMode = Static
	}

	// 9. dll_export_fns
	if opts.DllExportFns != nil {
		r.DllExportFns = *opts.DllExportFns
	} else {
		r.DllExportFns = r.IsDynLib
	}

	// 10. must_pic / pic
	r.MustPIC = opts.Target.RequiresPIC(r.LinkLibC) || r.LinkMode == Dynamic
	if opts.WantPIC != nil {
		if !*opts.WantPIC && r.MustPIC {
			return Resolved{}, errs.ErrTargetRequiresPIC
		}
		r.PIC = *opts.WantPIC
	} else {
		r.PIC = r.MustPIC
	}

	// 11. use_clang
	if opts.WantClang != nil {
		r.UseClang = *opts.WantClang
	} else {
		r.UseClang = !r.UseLLVM
	}

	// 12. is_safe_mode
	r.IsSafeMode = r.Optimize == Debug || r.Optimize == ReleaseSafe

	// 13. sanitize_c
	r.SanitizeC = boolOr(opts.WantSanitizeC, r.IsSafeMode)

	// 14. stack_check
	if !opts.Target.SupportsStackProbing() {
		r.StackCheck = false
	} else {
		r.StackCheck = boolOr(opts.WantStackCheck, r.IsSafeMode)
	}

	// 15. valgrind
	if !opts.Target.SupportsValgrind() {
		r.Valgrind = false
	} else {
		r.Valgrind = boolOr(opts.WantValgrind, r.Optimize == Debug)
	}

	// 16. single_threaded
	r.SingleThreaded = boolOr(opts.SingleThreaded, opts.Target.IsSingleThreaded())

	// 17. strip
	r.Strip = boolOr(opts.Strip, !opts.Target.HasDebugInfo())

	// 18. error_return_tracing
	r.ErrorReturnTracing = !r.Strip && r.IsSafeMode

	return r, nil
}

// LLVMCPUFeatureString implements §4.1.19: a comma-separated list of
// "+name"/"-name" LLVM feature toggles terminated with a NUL byte, a C
// string suitable for the LLVM API. Only meaningful when r.UseLLVM.
func LLVMCPUFeatureString(enabled, disabled []string) string {
	var b strings.Builder
	first := true
	write := func(prefix string, names []string) {
		for _, n := range names {
			if !first {
				b.WriteByte(',')
			}
			first = false
			b.WriteString(prefix)
			b.WriteString(n)
		}
	}
	write("+", enabled)
	write("-", disabled)
	b.WriteByte(0)
	return b.String()
}
