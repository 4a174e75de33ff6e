package compilation

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/xackus/zigc/pkg/builtins"
	"github.com/xackus/zigc/pkg/cache"
	"github.com/xackus/zigc/pkg/ccobject"
	"github.com/xackus/zigc/pkg/config"
	"github.com/xackus/zigc/pkg/crtfile"
	"github.com/xackus/zigc/pkg/errs"
	"github.com/xackus/zigc/pkg/job"
	"github.com/xackus/zigc/pkg/legacybackend"
	"github.com/xackus/zigc/pkg/module"
	"github.com/xackus/zigc/pkg/subcompile"
	"github.com/xackus/zigc/pkg/target"
)

// Update runs one full update cycle (spec.md §4.3): enqueue the per-slot
// C-object jobs, reanalyze the root module, drain the job queue, sweep the
// module's deletion set, and flush the linker unless errors were already
// found.
func (c *Compilation) Update(ctx context.Context) error {
	for i := range c.cObjects {
		c.queue.Push(job.Job{Kind: job.CObject, SlotIndex: i})
	}

	if c.Analyzer != nil && !c.opts.RunningUnderLegacyBackend {
		c.Analyzer.IncrementGeneration()
		c.Analyzer.UnloadRootSource()
		if err := c.Analyzer.ReanalyzeRoot(); err != nil && !errors.Is(err, module.ErrAnalysisFail) {
			return fmt.Errorf("compilation: reanalyze root: %w", err)
		}
	}

	for {
		j, ok := c.queue.Pop()
		if !ok {
			break
		}
		if err := c.dispatch(ctx, j); err != nil {
			return err
		}
	}

	if c.Analyzer != nil {
		for _, id := range c.Analyzer.DeletionCandidates() {
			if c.Analyzer.DependantCount(id) == 0 {
				c.Analyzer.Delete(id)
			} else {
				c.Analyzer.ClearDeletionFlag(id)
			}
		}
	}

	// §4.3 step 5: errors already found mean the build is not in a linkable
	// state; skip Flush and drop any stale linker-error flags from a
	// previous update().
	if c.errAgg.TotalErrorCount() > 0 {
		c.errAgg.ClearLinkerFlags()
		return nil
	}

	if c.Linker != nil {
		if err := c.Linker.Flush(); err != nil {
			return fmt.Errorf("compilation: flush: %w", err)
		}
		if c.Linker.NoEntryPointFound() {
			c.errAgg.SetNoEntryPoint()
		}
		if c.Linker.HadError() {
			c.errAgg.SetLinkerError()
		}
		c.Linker.ClearErrorFlags()
	}

	if c.errAgg.TotalErrorCount() == 0 && !c.keepSourcesLoaded && c.Analyzer != nil {
		c.Analyzer.UnloadRootSource()
	}

	return nil
}

// dispatch runs the action for one job (spec.md §4.4's per-kind table). It
// returns a non-nil error only for conditions that must abort the whole
// update cycle (an unexpected collaborator error, or a failed CRT
// sub-compilation per §4.7); ordinary per-input failures are recorded on
// the error aggregator and dispatch returns nil so the drain continues.
func (c *Compilation) dispatch(ctx context.Context, j job.Job) error {
	switch j.Kind {
	case job.CodegenDecl:
		return c.dispatchCodegenDecl(j.DeclID)
	case job.AnalyzeDecl:
		return c.dispatchAnalyzeDecl(j.DeclID)
	case job.UpdateLineNumber:
		return c.dispatchUpdateLineNumber(j.DeclID)
	case job.CObject:
		return c.dispatchCObject(ctx, j.SlotIndex)
	case job.GlibcCrtFile:
		return c.dispatchFlatCrt("glibc:"+string(j.CrtFile), func() (string, error) {
			return c.crtRecipes.BuildGlibcCrtFile(c.cfg.Target, string(j.CrtFile))
		})
	case job.GlibcSharedObjects:
		return c.dispatchGlibcSharedObjects()
	case job.MuslCrtFile:
		return c.dispatchFlatCrt("musl:"+string(j.CrtFile), func() (string, error) {
			return c.crtRecipes.BuildMuslCrtFile(c.cfg.Target, string(j.CrtFile))
		})
	case job.MingwCrtFile:
		return c.dispatchFlatCrt("mingw:"+string(j.CrtFile), func() (string, error) {
			return c.crtRecipes.BuildMingwCrtFile(c.cfg.Target, string(j.CrtFile))
		})
	case job.Libunwind:
		return c.dispatchSubCompile("libunwind", subcompile.Libunwind, &c.libunwind)
	case job.Libcxx:
		return c.dispatchSubCompile("libcxx", subcompile.Libcxx, &c.libcxx)
	case job.Libcxxabi:
		return c.dispatchSubCompile("libcxxabi", subcompile.Libcxxabi, &c.libcxxabi)
	case job.CompilerRt:
		return c.dispatchSubCompile("compiler_rt", subcompile.CompilerRt, &c.compilerRt)
	case job.ZigLibc:
		return c.dispatchSubCompile("c", subcompile.ZigLibc, &c.libcCrt)
	case job.WindowsImportLib:
		return c.dispatchWindowsImportLib(j.SysLibIndex)
	case job.GenerateBuiltinSource:
		return c.dispatchGenerateBuiltinSource()
	case job.LegacyBackend:
		return c.dispatchLegacyBackend(ctx)
	default:
		return fmt.Errorf("compilation: unknown job kind %v", j.Kind)
	}
}

func (c *Compilation) dispatchCodegenDecl(declID int) error {
	d := c.Analyzer.Decl(declID)
	if d.Analysis != module.Complete && d.Analysis != module.CodegenFailureRetryable {
		// Sema failures, dependency failures and in-flight states were
		// already recorded (or will be revisited) elsewhere; nothing to
		// codegen yet.
		return nil
	}
	if d.IsFunc {
		if err := c.Analyzer.AnalyzeBody(declID); err != nil {
			if errors.Is(err, module.ErrAnalysisFail) {
				return nil
			}
			c.errAgg.Add(errs.Source{Kind: "decl", Name: fmt.Sprint(declID)},
				errs.Record{Message: fmt.Sprintf("unable to codegen: %v", err)})
			return nil
		}
	}
	if c.Linker == nil {
		return nil
	}
	if err := c.Linker.UpdateDecl(declID); err != nil {
		c.errAgg.Add(errs.Source{Kind: "decl", Name: fmt.Sprint(declID)},
			errs.Record{Message: fmt.Sprintf("unable to codegen: %v", err)})
	}
	return nil
}

func (c *Compilation) dispatchAnalyzeDecl(declID int) error {
	if err := c.Analyzer.EnsureDeclAnalyzed(declID); err != nil && !errors.Is(err, module.ErrAnalysisFail) {
		return fmt.Errorf("compilation: analyze decl %d: %w", declID, err)
	}
	return nil
}

func (c *Compilation) dispatchUpdateLineNumber(declID int) error {
	if c.Linker == nil {
		return nil
	}
	if err := c.Linker.UpdateDeclLineNumber(declID); err != nil {
		c.errAgg.Add(errs.Source{Kind: "decl", Name: fmt.Sprint(declID)},
			errs.Record{Message: fmt.Sprintf("unable to update line number: %v", err)})
	}
	return nil
}

func (c *Compilation) dispatchCObject(ctx context.Context, slotIndex int) error {
	if slotIndex < 0 || slotIndex >= len(c.cObjects) {
		return fmt.Errorf("compilation: c-object slot index %d out of range", slotIndex)
	}
	slot := c.cObjects[slotIndex]
	env := c.ccobjectEnv()
	if err := ccobject.Build(ctx, slot, env, c.diag); err != nil {
		slot.MarkFailure(fmt.Sprintf("unable to build C object: %v", err))
	}
	if slot.Status == ccobject.Failure {
		c.errAgg.Add(errs.Source{Kind: "c-object", Name: slot.SrcPath},
			errs.Record{Message: slot.Error})
	}
	return nil
}

// dispatchFlatCrt runs a single-object CRT recipe through the opaque
// crtRecipes collaborator and wraps its result in a cache-backed lock,
// storing it under c.crtFiles[key]. A recipe failure aborts the whole
// compilation (§4.4: CRT-build failures are fatal, not per-input errors).
func (c *Compilation) dispatchFlatCrt(key string, build func() (string, error)) error {
	path, err := build()
	if err != nil {
		return fmt.Errorf("compilation: build %s: %w", key, err)
	}
	artifact, err := c.finalizeArtifact(key, path)
	if err != nil {
		return err
	}
	c.crtFiles[key] = artifact
	return nil
}

func (c *Compilation) dispatchGlibcSharedObjects() error {
	paths, err := c.crtRecipes.BuildGlibcSharedObjects(c.cfg.Target)
	if err != nil {
		return fmt.Errorf("compilation: build glibc shared objects: %w", err)
	}
	for _, p := range paths {
		key := "glibc-so:" + filepath.Base(p)
		artifact, err := c.finalizeArtifact(key, p)
		if err != nil {
			return err
		}
		c.crtFiles[key] = artifact
	}
	return nil
}

func (c *Compilation) dispatchWindowsImportLib(sysLibIndex int) error {
	libs := c.systemLibs
	if sysLibIndex < 0 || sysLibIndex >= len(libs) {
		return fmt.Errorf("compilation: system-lib index %d out of range", sysLibIndex)
	}
	name := libs[sysLibIndex]
	path, err := c.crtRecipes.BuildWindowsImportLib(c.cfg.Target, name)
	if err != nil {
		return fmt.Errorf("compilation: build import lib for %s: %w", name, err)
	}
	artifact, err := c.finalizeArtifact("implib:"+name, path)
	if err != nil {
		return err
	}
	c.crtFiles["implib:"+name] = artifact
	return nil
}

// dispatchSubCompile runs the recursive sub-compilation of spec.md §4.7 for
// a CRT/runtime-library artifact built from target-language source
// (compiler-rt, the zig libc, libunwind, libc++, libc++abi), storing the
// resulting single artifact in *dst.
func (c *Compilation) dispatchSubCompile(name string, kind subcompile.Kind, dst **crtfile.File) error {
	artifact, err := c.buildSubCompilation(context.Background(), kind, "std/special/"+name)
	if err != nil {
		return err
	}
	*dst = artifact
	c.crtFiles[name] = artifact
	return nil
}

func (c *Compilation) dispatchGenerateBuiltinSource() error {
	params := builtins.Params{
		Cfg:     c.cfg,
		Abi:     string(c.cfg.Target.Abi),
		CPUArch: string(c.cfg.Target.Arch),
	}
	contents := builtins.Render(params)
	path := filepath.Join(c.localCacheDir.Path, "builtin.zig")
	if err := builtins.WriteAtomically(path, contents); err != nil {
		return fmt.Errorf("compilation: write builtin source: %w", err)
	}
	return nil
}

func (c *Compilation) dispatchLegacyBackend(ctx context.Context) error {
	if c.external == nil {
		return fmt.Errorf("compilation: legacy backend job with no external compiler configured")
	}
	desc := legacybackend.Descriptor{
		MainSourcePath:   c.opts.RootModulePath,
		Target:           c.cfg.Target,
		EmitPaths:        c.emitPaths(),
		Valgrind:         c.cfg.Valgrind,
		SingleThreaded:   c.cfg.SingleThreaded,
		DllExportFns:     c.cfg.DllExportFns,
		FunctionSections: c.cfg.FunctionSections,
	}
	bridge := legacybackend.Bridge{
		ArtifactDir:    c.outputDirPath(),
		LocalCacheRoot: c.localCacheDir.Path,
		External:       c.external,
		SystemLibs:     systemLibsAdapter{c: c},
		EnqueueJob:     c.queue.Push,
		Sink:           c.diag,
	}
	res, err := bridge.Run(ctx, desc)
	if err != nil {
		return fmt.Errorf("compilation: legacy backend: %w", err)
	}
	c.legacyBackendLock.Release()
	c.legacyBackendLock = res.Lock
	return nil
}

func (c *Compilation) emitPaths() map[string]string {
	paths := map[string]string{}
	add := func(name string, loc *config.EmitLoc) {
		if loc == nil {
			return
		}
		if loc.ToCache {
			paths[name] = filepath.Join(c.localCacheDir.Path, loc.Basename)
		} else {
			paths[name] = filepath.Join(loc.Dir, loc.Basename)
		}
	}
	add("bin", c.opts.EmitBin)
	add("h", c.opts.EmitH)
	add("asm", c.opts.EmitAsm)
	add("llvm-ir", c.opts.EmitLLVMIR)
	add("analysis", c.opts.EmitAnalysis)
	add("docs", c.opts.EmitDocs)
	return paths
}

func (c *Compilation) outputDirPath() string {
	if c.outputDir == nil {
		return c.localCacheDir.Path
	}
	return c.outputDir.Path
}

// buildSubCompilation implements spec.md §4.7: derive the child's
// overrides, mint fresh collaborators, recursively run create/update, and
// capture the child's single output as a CRTFile. A failed sub-compilation
// aborts the parent build outright.
func (c *Compilation) buildSubCompilation(ctx context.Context, kind subcompile.Kind, rootPkg string) (*crtfile.File, error) {
	if c.subFactory == nil {
		return nil, fmt.Errorf("compilation: sub-compilation of %s requires a SubCompilationFactory", rootPkg)
	}
	req := subcompile.Request{
		Kind:            kind,
		Target:          c.cfg.Target,
		ParentLinkLibC:  c.cfg.LinkLibC,
		RootPackagePath: rootPkg,
		TargetIsWasm:    c.cfg.Target.Arch == target.Wasm32,
	}
	childOpts := subcompile.DeriveChildOptions(req, c.globalCacheDir.Path)
	childCollab := c.subFactory.NewCollaborators(rootPkg, c.cfg.Target)

	child, err := New(childOpts, childCollab, c.diag, c.clangPath, c.compilerVersion, c.zigLibDir, c.globalCacheDir, c.globalCacheDir)
	if err != nil {
		return nil, fmt.Errorf("compilation: sub-compilation %s: create: %w", rootPkg, err)
	}
	defer child.Destroy()

	if err := child.Update(ctx); err != nil {
		return nil, fmt.Errorf("compilation: sub-compilation %s: %w", rootPkg, err)
	}
	if n := child.errAgg.TotalErrorCount(); n > 0 {
		return nil, fmt.Errorf("compilation: sub-compilation %s failed with %d error(s)", rootPkg, n)
	}

	var outPath string
	if child.Linker != nil {
		outPath = child.Linker.OutputPath()
	}
	return c.finalizeArtifact(rootPkg, outPath)
}

// finalizeArtifact wraps a built CRT/runtime-library path in a cache-backed
// lock, giving every CRT job result the same { path, lock } shape a
// C-object slot has.
func (c *Compilation) finalizeArtifact(label, outputPath string) (*crtfile.File, error) {
	base := cache.BaseInputs{
		CompilerVersion: c.compilerVersion,
		TargetOS:        string(c.cfg.Target.OS),
		TargetABI:       string(c.cfg.Target.Abi),
		OutputMode:      label,
	}
	m := cache.Obtain(c.globalCacheDir.Path, base)
	m.AddBytes([]byte(outputPath))
	_, lock, err := m.Final()
	if err != nil {
		return nil, fmt.Errorf("compilation: finalize %s: %w", label, err)
	}
	if err := m.WriteManifest(); err != nil {
		c.diag.Warnf("compilation: write manifest for %s: %v", label, err)
	}
	return &crtfile.File{FullObjectPath: outputPath, Lock: lock}, nil
}
