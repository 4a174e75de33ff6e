// Package build implements zigc's "build" subcommand: parse CLI flags into
// a config.Options, construct a Compilation, run one update, and report the
// aggregated errors.
package build

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xackus/zigc/pkg/compilation"
	"github.com/xackus/zigc/pkg/config"
	"github.com/xackus/zigc/pkg/diag"
	"github.com/xackus/zigc/pkg/fsutil"
	"github.com/xackus/zigc/pkg/target"
)

// compilerVersion is folded into every cache-manifest digest (spec.md
// §4.2.1); bumping it invalidates every cached artifact.
const compilerVersion = "zigc-dev"

type flags struct {
	targetTriple string
	outputMode   string
	optimize     string
	linkMode     string
	linkLibC     bool
	linkLibCpp   bool
	cSources     []string
	clangPath    string
	localCache   string
	globalCache  string
	zigLib       string
	verbose      bool
}

func NewBuildCommand() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build one compilation: C/C++ sources for a target, through the content-addressed cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.targetTriple, "target", "linux-x86_64-gnu", "target triple (os-arch[-abi])")
	fl.StringVar(&f.outputMode, "output-mode", "obj", "obj|lib|exe")
	fl.StringVar(&f.optimize, "optimize", "debug", "debug|release-safe|release-fast|release-small")
	fl.StringVar(&f.linkMode, "link-mode", "", "static|dynamic (default: derived)")
	fl.BoolVar(&f.linkLibC, "lc", false, "link libc")
	fl.BoolVar(&f.linkLibCpp, "lc++", false, "link libc++")
	fl.StringArrayVar(&f.cSources, "c-source", nil, "C/C++ source to compile (repeatable)")
	fl.StringVar(&f.clangPath, "clang-path", "clang", "path to the clang binary")
	fl.StringVar(&f.localCache, "cache-dir", ".zig-cache", "local cache directory")
	fl.StringVar(&f.globalCache, "global-cache-dir", ".zig-cache", "global cache directory")
	fl.StringVar(&f.zigLib, "zig-lib-dir", ".", "zig standard library directory")
	fl.BoolVar(&f.verbose, "verbose", false, "enable debug logging")

	return cmd
}

func run(cmd *cobra.Command, f *flags) error {
	sink := diag.Stderr(f.verbose)

	t, err := target.Parse(f.targetTriple)
	if err != nil {
		return fmt.Errorf("zigc: %w", err)
	}

	opts := config.Options{
		Target:     t,
		OutputMode: parseOutputMode(f.outputMode),
		Optimize:   parseOptimizeMode(f.optimize),
		LinkLibC:   f.linkLibC,
		LinkLibCpp: f.linkLibCpp,
	}
	if f.linkMode != "" {
		lm := parseLinkMode(f.linkMode)
		opts.LinkMode = &lm
	}
	for _, src := range f.cSources {
		opts.CSources = append(opts.CSources, config.CSource{Path: src})
	}

	// This CLI wires no CRTRecipes collaborator (no concrete builder
	// exists yet, spec.md §4.7's job table is dispatched through an
	// embedder-supplied one), so a --lc/--lc++ build would enqueue CRT
	// jobs that update.go can never actually dispatch. Reject up front
	// instead of panicking on a nil collaborator partway through Update.
	if opts.LinkLibC || opts.LinkLibCpp {
		return fmt.Errorf("zigc: --lc/--lc++ require a CRT-recipe collaborator, which this CLI does not configure")
	}

	zigLib, err := fsutil.OpenDir(f.zigLib)
	if err != nil {
		return fmt.Errorf("zigc: %w", err)
	}
	defer zigLib.Close()
	localCache, err := fsutil.OpenDir(f.localCache)
	if err != nil {
		return fmt.Errorf("zigc: %w", err)
	}
	defer localCache.Close()
	globalCache, err := fsutil.OpenDir(f.globalCache)
	if err != nil {
		return fmt.Errorf("zigc: %w", err)
	}
	defer globalCache.Close()

	// The language module, linker, CRT recipes and legacy-backend compiler
	// are out-of-scope external collaborators (spec.md §1); a plain CLI
	// invocation with only C sources needs none of them.
	comp, err := compilation.New(opts, compilation.Collaborators{}, sink, f.clangPath, compilerVersion, zigLib, localCache, globalCache)
	if err != nil {
		return fmt.Errorf("zigc: %w", err)
	}
	defer comp.Destroy()

	if err := comp.Update(cmd.Context()); err != nil {
		return fmt.Errorf("zigc: %w", err)
	}

	agg := comp.ErrorAggregator()
	for _, entry := range agg.Entries() {
		sink.Errorf("%s %q: %s", entry.Source.Kind, entry.Source.Name, entry.Record.Error())
	}
	if agg.TotalErrorCount() > 0 {
		return fmt.Errorf("zigc: build failed with %d error(s)", agg.TotalErrorCount())
	}
	return nil
}

func parseOutputMode(s string) config.OutputMode {
	switch s {
	case "lib":
		return config.Lib
	case "exe":
		return config.Exe
	default:
		return config.Obj
	}
}

func parseOptimizeMode(s string) config.OptimizeMode {
	switch s {
	case "release-safe":
		return config.ReleaseSafe
	case "release-fast":
		return config.ReleaseFast
	case "release-small":
		return config.ReleaseSmall
	default:
		return config.Debug
	}
}

func parseLinkMode(s string) config.LinkMode {
	if s == "dynamic" {
		return config.Dynamic
	}
	return config.Static
}
