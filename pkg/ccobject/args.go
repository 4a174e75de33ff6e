package ccobject

import (
	"fmt"

	"github.com/xackus/zigc/pkg/cfile"
	"github.com/xackus/zigc/pkg/config"
)

// ArgsEnv bundles everything addCCArgs needs beyond the resolved config and
// classified file kind: paths, per-target feature data, and the handful of
// per-invocation switches (§4.6).
type ArgsEnv struct {
	LibDir          string
	LibcIncludeDirs []string
	FrameworkDirs   []string

	// CPU feature toggles for -Xclang -target-feature (§4.6).
	LLVMCPUName     string
	EnabledFeatures []string
	DisabledFeatures []string

	DepFilePath string // "" means no -MD/-MF requested
	Passthrough bool   // suppresses -fno-caret-diagnostics (§4.6)

	RiscVRelax *bool // nil: feature absent; else true/false for -mrelax/-mno-relax
}

// AddCCArgs is the pure function over resolved config + classified
// extension spec.md §4.6 describes. It is "bit-exact" in the sense that the
// same (cfg, kind, env) always produces the same flag list in the same
// order — the TestAddCCArgs* tests in args_test.go pin that order down.
func AddCCArgs(cfg config.Resolved, kind cfile.Kind, env ArgsEnv) []string {
	var args []string
	add := func(a ...string) { args = append(args, a...) }

	if kind.IsCpp() {
		add("-nostdinc++")
	}
	if !env.Passthrough {
		add("-fno-caret-diagnostics")
	}
	if cfg.FunctionSections {
		add("-ffunction-sections")
	}
	for _, d := range env.FrameworkDirs {
		add("-iframework", d)
	}
	if cfg.LinkLibCpp {
		add("-isystem", env.LibDir+"/libcxx/include")
		add("-isystem", env.LibDir+"/libcxxabi/include")
		if cfg.Target.IsMusl() {
			add("-D_LIBCPP_HAS_MUSL_LIBC")
		}
		add("-D_LIBCPP_DISABLE_VISIBILITY_ANNOTATIONS")
		add("-D_LIBCXXABI_DISABLE_VISIBILITY_ANNOTATIONS")
	}

	add("-target", cfg.Target.LLVMTriple())

	if kind.IsCFamily() {
		add("-nostdinc", "-fno-spell-checking")
		add("-isystem", env.LibDir+"/include")
		for _, d := range env.LibcIncludeDirs {
			add("-isystem", d)
		}
		if env.LLVMCPUName != "" {
			add("-Xclang", "-target-cpu", "-Xclang", env.LLVMCPUName)
		}
		for _, f := range env.EnabledFeatures {
			add("-Xclang", "-target-feature", "-Xclang", "+"+f)
		}
		for _, f := range env.DisabledFeatures {
			add("-Xclang", "-target-feature", "-Xclang", "-"+f)
		}
		if cfg.CodeModel != "" {
			add(fmt.Sprintf("-mcmodel=%s", cfg.CodeModel))
		}
		if cfg.Target.IsWindowsGnu() {
			add("-Wno-pragma-pack")
		}
		if !cfg.Strip {
			add("-g")
		}
		framePointer := (cfg.Optimize == config.Debug || cfg.Optimize == config.ReleaseSafe) && !cfg.Strip
		if framePointer {
			add("-fno-omit-frame-pointer")
		} else {
			add("-fomit-frame-pointer")
		}
		if cfg.SanitizeC {
			add("-fsanitize=undefined", "-fsanitize-trap=undefined")
		}

		switch cfg.Optimize {
		case config.Debug:
			add("-D_DEBUG", "-Og")
			if cfg.LinkLibC {
				add("-fstack-protector-strong", "--param", "ssp-buffer-size=4")
			} else {
				add("-fno-stack-protector")
			}
		case config.ReleaseSafe:
			add("-O2", "-D_FORTIFY_SOURCE=2")
			if cfg.LinkLibC {
				add("-fstack-protector-strong", "--param", "ssp-buffer-size=4")
			} else {
				add("-fno-stack-protector")
			}
		case config.ReleaseFast:
			add("-DNDEBUG", "-O2", "-fno-stack-protector")
		case config.ReleaseSmall:
			add("-DNDEBUG", "-Os", "-fno-stack-protector")
		}

		if cfg.Target.SupportsPIC() && cfg.PIC {
			add("-fPIC")
		}
	}

	if env.DepFilePath != "" {
		add("-MD", "-MV", "-MF", env.DepFilePath)
	}

	if cfg.Target.IsRiscV() && env.RiscVRelax != nil {
		if *env.RiscVRelax {
			add("-mrelax")
		} else {
			add("-mno-relax")
		}
	}

	if cfg.Target.IsFreestanding() {
		add("-ffreestanding")
	}

	add(cfg.ClangArgv...)
	return args
}
