// Package compilation implements the Compilation object (component I):
// the central type spec.md §3 describes, owning every other component and
// exposing the create/update/destroy lifecycle.
//
// The destroy-in-reverse-dependency-order discipline (linker first, then
// module, then lock, then queues, then tables) mirrors spec.md §9's note
// that "the linker reads from the module during flush" — zigc keeps both
// collaborators alive until the moment it tears the Compilation down, and
// tears the linker down first since nothing after it reads through it.
package compilation

import (
	"github.com/xackus/zigc/pkg/cache"
	"github.com/xackus/zigc/pkg/ccobject"
	"github.com/xackus/zigc/pkg/config"
	"github.com/xackus/zigc/pkg/crtfile"
	"github.com/xackus/zigc/pkg/crtrecipes"
	"github.com/xackus/zigc/pkg/diag"
	"github.com/xackus/zigc/pkg/errs"
	"github.com/xackus/zigc/pkg/fsutil"
	"github.com/xackus/zigc/pkg/job"
	"github.com/xackus/zigc/pkg/legacybackend"
	"github.com/xackus/zigc/pkg/linker"
	"github.com/xackus/zigc/pkg/module"
	"github.com/xackus/zigc/pkg/target"
)

// Collaborators bundles the external, out-of-scope services a Compilation
// calls through (spec.md §1's "invoked as an opaque ... service" list).
// Any of these may be nil for builds that don't need them (e.g. a
// C-objects-only Obj build has no Analyzer or Linker).
type Collaborators struct {
	Analyzer   module.Analyzer
	Linker     linker.Linker
	CRTRecipes crtrecipes.Builder
	External   legacybackend.ExternalCompiler

	// SubFactory mints a fresh Collaborators bundle for a recursive
	// sub-compilation (§4.7): a child Compilation needs its own Analyzer and
	// Linker instance, never the parent's. Required only for builds that
	// link libc or libc++ on a target without a pre-built CRT; nil is fine
	// for C-objects-only builds and for sub-compilations themselves (which
	// never recurse further).
	SubFactory SubCompilationFactory
}

// SubCompilationFactory constructs the collaborators for one recursive
// sub-compilation (building compiler-rt, the zig libc, libunwind, libc++ or
// libc++abi as a child Compilation targeting a synthetic
// "std/special/<name>" root package, §4.7).
type SubCompilationFactory interface {
	NewCollaborators(rootPackagePath string, t target.Triple) Collaborators
}

// Compilation owns every component spec.md §3 lists.
type Compilation struct {
	diag diag.Sink
	opts config.Options
	cfg  config.Resolved

	Analyzer   module.Analyzer
	Linker     linker.Linker
	crtRecipes crtrecipes.Builder
	external   legacybackend.ExternalCompiler
	subFactory SubCompilationFactory

	cObjects []*ccobject.Slot // insertion-ordered by input index
	queue    *job.Queue

	crtFiles map[string]*crtfile.File

	libcxx, libcxxabi, libunwind, libcCrt, compilerRt *crtfile.File

	systemLibs []string

	outputDir       *fsutil.Dir
	zigLibDir       fsutil.Dir
	localCacheDir   fsutil.Dir
	globalCacheDir  fsutil.Dir

	legacyBackendLock cache.ArtifactLock

	errAgg *errs.Aggregator

	keepSourcesLoaded bool
	generation        int
	clangPath         string
	compilerVersion   string
}

// New implements spec.md §4.1/§3's create(): resolve config, validate it,
// allocate the queue and slot table, and enqueue the initial jobs create()
// is responsible for: GenerateBuiltinSource when a root module is present,
// then the CRT/runtime-library jobs link_libc/link_libcpp call for (§8
// scenario 3). The per-slot CObject jobs are enqueued by Update, not here.
func New(opts config.Options, collab Collaborators, sink diag.Sink, clangPath, compilerVersion string, zigLib, localCache, globalCache fsutil.Dir) (*Compilation, error) {
	cfg, err := config.Resolve(opts)
	if err != nil {
		return nil, err
	}

	c := &Compilation{
		diag:            sink,
		opts:            opts,
		cfg:             cfg,
		Analyzer:        collab.Analyzer,
		Linker:          collab.Linker,
		crtRecipes:      collab.CRTRecipes,
		external:        collab.External,
		subFactory:      collab.SubFactory,
		queue:           job.New(),
		crtFiles:        make(map[string]*crtfile.File),
		zigLibDir:       zigLib,
		localCacheDir:   localCache,
		globalCacheDir:  globalCache,
		errAgg:          errs.New(),
		clangPath:       clangPath,
		compilerVersion: compilerVersion,
	}

	for _, src := range opts.CSources {
		c.cObjects = append(c.cObjects, ccobject.NewSlot(src.Path, src.ExtraFlags))
	}

	if opts.RootModulePath != "" {
		c.queue.Push(job.Job{Kind: job.GenerateBuiltinSource})
	}

	if err := c.enqueueCRTJobs(); err != nil {
		return nil, err
	}

	return c, nil
}

// enqueueCRTJobs enqueues the CRT/runtime-library jobs needed for this
// target when linking libc/libc++, following §8 scenario 3's literal job
// order for a musl cross-compile: GenerateBuiltinSource, then per-libc CRT
// files, then Libunwind, then CompilerRt.
func (c *Compilation) enqueueCRTJobs() error {
	if c.opts.IsCompilerRtOrLibc {
		return nil
	}
	t := c.cfg.Target
	if c.cfg.LinkLibC {
		switch {
		case t.IsMusl():
			c.queue.Push(job.Job{Kind: job.MuslCrtFile, CrtFile: "crt1.o"})
			c.queue.Push(job.Job{Kind: job.MuslCrtFile, CrtFile: "scrt1.o"})
			c.queue.Push(job.Job{Kind: job.MuslCrtFile, CrtFile: "libc.a"})
		case t.IsGlibc():
			c.queue.Push(job.Job{Kind: job.GlibcCrtFile, CrtFile: "crt1.o"})
			c.queue.Push(job.Job{Kind: job.GlibcCrtFile, CrtFile: "crti.o"})
			c.queue.Push(job.Job{Kind: job.GlibcCrtFile, CrtFile: "crtn.o"})
			c.queue.Push(job.Job{Kind: job.GlibcSharedObjects})
		case t.IsWindowsGnu():
			c.queue.Push(job.Job{Kind: job.MingwCrtFile, CrtFile: "crt2.o"})
			c.queue.Push(job.Job{Kind: job.MingwCrtFile, CrtFile: "dllcrt2.o"})
		default:
			// No glibc/musl/mingw recipe covers this target (e.g. wasi,
			// freestanding): build libc from zig's own bundled source
			// instead, the same way compiler-rt is always built from
			// source rather than fetched from a system recipe.
			c.queue.Push(job.Job{Kind: job.ZigLibc})
		}
		if t.OS != target.Windows {
			c.queue.Push(job.Job{Kind: job.Libunwind})
		}
		c.queue.Push(job.Job{Kind: job.CompilerRt})
	}
	if c.cfg.LinkLibCpp {
		// libc++ needs libc++abi; build it first so link order can depend
		// on it being ready (§4.4's Libcxx/Libcxxabi dispatch row).
		c.queue.Push(job.Job{Kind: job.Libcxxabi})
		c.queue.Push(job.Job{Kind: job.Libcxx})
	}
	return nil
}

// Destroy implements spec.md §3's teardown order: linker first (it reads
// through the module during flush, §9), then the module, then held locks,
// then queues/tables, then directory handles.
func (c *Compilation) Destroy() {
	c.Linker = nil // external collaborator; zigc does not own its lifetime
	c.Analyzer = nil

	c.legacyBackendLock.Release()

	for _, slot := range c.cObjects {
		slot.Destroy()
	}
	c.cObjects = nil

	for _, f := range c.crtFiles {
		f.Destroy()
	}
	c.crtFiles = nil

	for _, f := range []*crtfile.File{c.libcxx, c.libcxxabi, c.libunwind, c.libcCrt, c.compilerRt} {
		if f != nil {
			f.Destroy()
		}
	}

	c.outputDir = nil
}

// Config returns the resolved build configuration (read-only).
func (c *Compilation) Config() config.Resolved {
	return c.cfg
}

// ErrorAggregator exposes the error aggregator for callers that want to
// print a final report after Update returns.
func (c *Compilation) ErrorAggregator() *errs.Aggregator {
	return c.errAgg
}

// CRTFiles returns the map of built CRT artifacts. Keys are labels, not
// bare basenames: "glibc:<file>", "musl:<file>", "mingw:<file>",
// "glibc-so:<basename>", "implib:<lib>", or the runtime-library name
// ("compiler_rt", "c", "libunwind", "libcxx", "libcxxabi").
func (c *Compilation) CRTFiles() map[string]*crtfile.File {
	return c.crtFiles
}

// directToOutputShortcut reports whether the single-C-source shortcut of §4.5.4
// applies to this compilation as a whole.
func (c *Compilation) directToOutputShortcut() (bool, string) {
	if len(c.cObjects) != 1 {
		return false, ""
	}
	if c.opts.RootModulePath != "" {
		return false, ""
	}
	if c.cfg.OutputMode != config.Obj {
		return false, ""
	}
	if len(c.opts.ExternalObjects) > 0 {
		return false, ""
	}
	rootName := "output"
	return true, rootName
}

// ccobjectEnv builds the ccobject.Env shared by every C-object slot.
func (c *Compilation) ccobjectEnv() ccobject.Env {
	direct, rootName := c.directToOutputShortcut()
	return ccobject.Env{
		Cfg: c.cfg,
		Args: ccobject.ArgsEnv{
			LibDir:          c.zigLibDir.Path,
			LibcIncludeDirs: nil,
			FrameworkDirs:   c.opts.Frameworks,
		},
		ClangPath:        c.clangPath,
		LocalCacheRoot:   c.localCacheDir.Path,
		CompilerVersion:  c.compilerVersion,
		PreprocessorMode: c.opts.ClangPreprocessorMode,
		PassthroughMode:  c.opts.ClangPassthroughMode,
		DirectToOutput:   direct,
		RootName:         rootName,
	}
}
