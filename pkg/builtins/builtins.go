// Package builtins materializes the generated "builtin source" file
// describing the build (component N, spec.md §4.4 GenerateBuiltinSource,
// §6 "Builtin-source contract"). The text-emission style — a
// strings.Builder assembling declarations line by line — mirrors
// tinyrange-rtg/std/compiler/ir.go's code-generation helpers, which build
// output text the same incremental way rather than templating it.
package builtins

import (
	"fmt"
	"strings"

	"github.com/google/renameio"
	"github.com/xackus/zigc/pkg/config"
)

// OSVersionRange is the tagged shape §6 specifies: "none", "semver",
// "linux" with an embedded glibc version, or "windows" with min/max.
type OSVersionRange struct {
	Kind         string // "none" | "semver" | "linux" | "windows"
	Semver       string
	GlibcVersion string
	WinMin       string
	WinMax       string
}

// TestIOMode selects blocking or evented test execution (§6, only emitted
// when IsTest).
type TestIOMode int

const (
	Blocking TestIOMode = iota
	Evented
)

// Params bundles everything the builtin-source contract (§6) requires.
type Params struct {
	Cfg            config.Resolved
	IsTest         bool
	TestFunctions  []string
	TestIOMode     TestIOMode
	OSVersionRange OSVersionRange
	Abi            string
	CPUArch        string
	CPUModel       string
	CPUFeatures    []string
}

// Render builds the builtin-source text. Every field §6 requires is
// declared unconditionally except test_functions/test_io_mode, which are
// only emitted when IsTest.
func Render(p Params) string {
	var b strings.Builder
	fmt.Fprintf(&b, "pub const output_mode = .%s;\n", p.Cfg.OutputMode)
	fmt.Fprintf(&b, "pub const link_mode = .%s;\n", linkModeName(p.Cfg.LinkMode))
	fmt.Fprintf(&b, "pub const is_test = %t;\n", p.IsTest)
	fmt.Fprintf(&b, "pub const single_threaded = %t;\n", p.Cfg.SingleThreaded)
	fmt.Fprintf(&b, "pub const abi = .%s;\n", p.Abi)
	fmt.Fprintf(&b, "pub const cpu = .{ .arch = .%s, .model = %q, .features = %s };\n",
		p.CPUArch, p.CPUModel, renderStringList(p.CPUFeatures))
	fmt.Fprintf(&b, "pub const os = .{ .tag = .%s, .version_range = %s };\n",
		p.Cfg.Target.OS, renderVersionRange(p.OSVersionRange))
	fmt.Fprintf(&b, "pub const object_format = .%s;\n", p.Cfg.Target.ObjectFormat())
	fmt.Fprintf(&b, "pub const mode = .%s;\n", optimizeName(p.Cfg.Optimize))
	fmt.Fprintf(&b, "pub const link_libc = %t;\n", p.Cfg.LinkLibC)
	fmt.Fprintf(&b, "pub const link_libcpp = %t;\n", p.Cfg.LinkLibCpp)
	fmt.Fprintf(&b, "pub const have_error_return_tracing = %t;\n", p.Cfg.ErrorReturnTracing)
	fmt.Fprintf(&b, "pub const valgrind_support = %t;\n", p.Cfg.Valgrind)
	fmt.Fprintf(&b, "pub const position_independent_code = %t;\n", p.Cfg.PIC)
	fmt.Fprintf(&b, "pub const strip_debug_info = %t;\n", p.Cfg.Strip)
	fmt.Fprintf(&b, "pub const code_model = .%s;\n", codeModelName(p.Cfg.CodeModel))
	if p.IsTest {
		fmt.Fprintf(&b, "pub var test_functions: []const TestFn = undefined; // late-bound\n")
		fmt.Fprintf(&b, "pub const test_io_mode = .%s;\n", testIOModeName(p.TestIOMode))
	}
	return b.String()
}

// WriteAtomically persists the rendered builtin source into the module's
// artifact directory. Uses google/renameio the way
// other_examples/manifests/distr1-distri does for generated build outputs:
// a reader can never observe a half-written builtin source file.
func WriteAtomically(path string, contents string) error {
	return renameio.WriteFile(path, []byte(contents), 0o644)
}

func linkModeName(m config.LinkMode) string {
	if m == config.Dynamic {
		return "Dynamic"
	}
	return "Static"
}

func optimizeName(m config.OptimizeMode) string {
	switch m {
	case config.Debug:
		return "Debug"
	case config.ReleaseSafe:
		return "ReleaseSafe"
	case config.ReleaseFast:
		return "ReleaseFast"
	default:
		return "ReleaseSmall"
	}
}

func codeModelName(m string) string {
	if m == "" {
		return "default"
	}
	return m
}

func testIOModeName(m TestIOMode) string {
	if m == Evented {
		return "evented"
	}
	return "blocking"
}

func renderStringList(items []string) string {
	var b strings.Builder
	b.WriteString("&.{")
	for i, item := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%q", item)
	}
	b.WriteString("}")
	return b.String()
}

func renderVersionRange(r OSVersionRange) string {
	switch r.Kind {
	case "semver":
		return fmt.Sprintf(".{ .semver = %q }", r.Semver)
	case "linux":
		return fmt.Sprintf(".{ .linux = .{ .glibc = %q } }", r.GlibcVersion)
	case "windows":
		return fmt.Sprintf(".{ .windows = .{ .min = %q, .max = %q } }", r.WinMin, r.WinMax)
	default:
		return ".{ .none = {} }"
	}
}
