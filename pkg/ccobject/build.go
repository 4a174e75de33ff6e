package ccobject

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xackus/zigc/pkg/cache"
	"github.com/xackus/zigc/pkg/ccfrontend"
	"github.com/xackus/zigc/pkg/cfile"
	"github.com/xackus/zigc/pkg/config"
	"github.com/xackus/zigc/pkg/diag"
)

// Env bundles everything Build needs beyond the slot itself: the resolved
// config, the flag-construction environment, and the handful of
// whole-compilation facts the direct-to-output shortcut depends on
// (§4.5.4).
type Env struct {
	Cfg     config.Resolved
	Args    ArgsEnv
	ClangPath       string
	LocalCacheRoot  string
	CompilerVersion string

	PreprocessorMode config.PreprocessorMode
	PassthroughMode  bool

	// Direct-to-output shortcut inputs (§4.5.4): true only when there is
	// exactly one C source, no root module, Obj output, and no other
	// link-objects.
	DirectToOutput bool
	RootName       string
}

// Build runs the C-object builder algorithm of spec.md §4.5 for one slot.
func Build(ctx context.Context, slot *Slot, env Env, sink diag.Sink) error {
	// 1. clear any prior status.
	slot.Clear()

	// 2. obtain a C-object manifest.
	base := cache.BaseInputs{
		CompilerVersion:  env.CompilerVersion,
		LibDir:           env.Args.LibDir,
		Optimize:         fmt.Sprint(env.Cfg.Optimize),
		TargetCPU:        env.Args.LLVMCPUName,
		TargetOS:         string(env.Cfg.Target.OS),
		TargetABI:        string(env.Cfg.Target.Abi),
		TargetFeatures:   fmt.Sprint(env.Args.EnabledFeatures),
		ObjectFormat:     string(env.Cfg.Target.ObjectFormat()),
		PIC:              env.Cfg.PIC,
		StackCheck:       env.Cfg.StackCheck,
		LinkMode:         fmt.Sprint(env.Cfg.LinkMode),
		FunctionSections: env.Cfg.FunctionSections,
		Strip:            env.Cfg.Strip,
		LinkLibC:         env.Cfg.LinkLibC,
		LinkLibCpp:       env.Cfg.LinkLibCpp,
		OutputMode:       env.Cfg.OutputMode.String(),
		CodeModel:        env.Cfg.CodeModel,
		EmitsBinary:      env.Cfg.OutputMode != config.Obj,
	}
	m := cache.Obtain(env.LocalCacheRoot, base)
	m.AddBytes([]byte(fmt.Sprintf("%t\x00%v\x00%t\x00%v\x00%v\x00",
		env.Cfg.SanitizeC, env.Args.EnabledFeatures, env.Cfg.LinkLibCpp,
		env.Args.LibcIncludeDirs, env.PreprocessorMode)))

	// 3. add the primary source as an input; walk extra flags, registering
	// -include targets as additional input files.
	if err := m.AddFile(slot.SrcPath); err != nil {
		return err
	}
	for i, flag := range slot.ExtraFlags {
		m.AddBytes([]byte(flag))
		if flag == "-include" && i+1 < len(slot.ExtraFlags) {
			if err := m.AddFile(slot.ExtraFlags[i+1]); err != nil {
				return err
			}
		}
	}

	// 4. compute output basename.
	kind := cfile.Classify(slot.SrcPath)
	basename := objectBasename(slot.SrcPath, env)

	depRequested := env.PreprocessorMode == config.PreprocessorOff
	var depFilePath string
	var depDir string
	if depRequested {
		depDir = os.TempDir()
		depFilePath = filepath.Join(depDir, basename+".d")
	}
	argsEnv := env.Args
	argsEnv.DepFilePath = depFilePath
	argsEnv.Passthrough = env.PassthroughMode
	argv := AddCCArgs(env.Cfg, kind, argsEnv)
	argv = append(argv, slot.ExtraFlags...)
	argv = append(argv, slot.SrcPath)

	// 5. cache disabled (no dep file) or miss → invoke clang.
	needInvoke := !depRequested
	var snap cache.Snapshot
	if !needInvoke {
		var err error
		snap, err = m.PeekBin()
		if err != nil {
			return err
		}
		hit, err := m.Hit()
		if err != nil {
			return err
		}
		if !hit {
			needInvoke = true
		} else if m.NumFiles() == 0 {
			// §8 "Unhit correctness": a prior run recorded zero files —
			// treat as a failure that must be retried.
			if err := m.Unhit(snap); err != nil {
				return err
			}
			needInvoke = true
		}
	}

	tmpObj := filepath.Join(os.TempDir(), fmt.Sprintf("zigc-ccobj-%d-%s", os.Getpid(), basename))
	mode := ccfrontend.Captured
	if env.PassthroughMode {
		mode = ccfrontend.Passthrough
	}

	if needInvoke {
		fullArgv := append([]string{}, argv...)
		fullArgv = append(fullArgv, "-o", tmpObj)
		res, err := ccfrontend.Invoke(ctx, env.ClangPath, fullArgv, mode)
		if err != nil {
			return err
		}
		switch mode {
		case ccfrontend.Passthrough:
			if res.Abnormal || res.ExitCode != 0 {
				os.Exit(1)
			}
			if env.PreprocessorMode == config.PreprocessorStdout {
				os.Exit(0)
			}
		case ccfrontend.Captured:
			if res.Abnormal {
				slot.MarkFailure("clang terminated unexpectedly")
				return nil
			}
			if res.ExitCode != 0 {
				sink.Errorf("clang: %s", string(res.Stderr))
				slot.MarkFailure(fmt.Sprintf("clang exited with code %d", res.ExitCode))
				return nil
			}
		}
	}

	// 6. ingest the dep file, then delete it.
	if depRequested && needInvoke {
		if err := m.AddDepFilePost(depDir, filepath.Base(depFilePath)); err != nil {
			sink.Warnf("ccobject: ingest dep file: %v", err)
		}
		os.Remove(depFilePath)
	}

	// 7. rename the temp object into <cache>/o/<digest>/<basename>.
	digest, lock, err := m.Final()
	if err != nil {
		return err
	}
	destDir := filepath.Join(env.LocalCacheRoot, "o", digest)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}
	destPath := filepath.Join(destDir, basename)
	if needInvoke {
		if err := os.Rename(tmpObj, destPath); err != nil {
			return err
		}
	}
	if err := m.WriteManifest(); err != nil {
		sink.Warnf("ccobject: write manifest: %v", err)
	}

	// 8. store Success.
	slot.MarkSuccess(destPath, lock)
	return nil
}

// objectBasename implements §4.5.4's direct-to-output shortcut.
func objectBasename(srcPath string, env Env) string {
	if env.DirectToOutput {
		return env.RootName + env.Cfg.Target.ObjectExtension()
	}
	stem := filepath.Base(srcPath)
	if ext := filepath.Ext(stem); ext != "" {
		stem = stem[:len(stem)-len(ext)]
	}
	return stem + env.Cfg.Target.ObjectExtension()
}
