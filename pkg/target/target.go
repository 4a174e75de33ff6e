// Package target describes the cross-compilation target triple and the
// per-target predicates pkg/config.Resolve consults (§4.1). Parsing follows
// tinyrange-rtg/std/compiler/main.go's "-T os/arch" flag handling; the
// predicate set (RequiresLibC, RequiresPIC, SupportsStackProbing, ...) is
// grounded on the per-arch decision tables in
// LineageOS-android_build_soong/cc/config (arm64_device.go, bionic.go,
// x86_windows_host.go) which encode exactly these yes/no facts per target.
package target

import (
	"fmt"
	"strings"
)

// OS identifies the target operating system.
type OS string

const (
	Linux   OS = "linux"
	Windows OS = "windows"
	MacOS   OS = "macos"
	Wasi    OS = "wasi"
	Freestanding OS = "freestanding"
)

// Arch identifies the target instruction set.
type Arch string

const (
	X86_64  Arch = "x86_64"
	Aarch64 Arch = "aarch64"
	Riscv64 Arch = "riscv64"
	Wasm32  Arch = "wasm32"
	X86     Arch = "x86"
)

// Abi identifies the target's C ABI / libc flavor.
type Abi string

const (
	AbiNone  Abi = ""
	AbiGnu   Abi = "gnu"
	AbiMusl  Abi = "musl"
	AbiMsvc  Abi = "msvc"
)

// ObjectFormat identifies the output container format.
type ObjectFormat string

const (
	ObjElf    ObjectFormat = "elf"
	ObjCoff   ObjectFormat = "coff"
	ObjMachO  ObjectFormat = "macho"
	ObjWasm   ObjectFormat = "wasm"
	ObjCSource ObjectFormat = "c" // "C source" object format from spec §4.1.5
)

// Triple is the parsed form of a user-supplied target string.
type Triple struct {
	OS   OS
	Arch Arch
	Abi  Abi
}

// Parse parses an "os-arch-abi" triple, the generalized form of the
// teacher's "-T os/arch" flag (main.go's -T handling, extended with an abi
// component the way real zig/clang triples carry one).
func Parse(s string) (Triple, error) {
	parts := strings.Split(s, "-")
	if len(parts) < 2 || len(parts) > 3 {
		return Triple{}, fmt.Errorf("target: invalid triple %q: expected os-arch[-abi]", s)
	}
	t := Triple{OS: OS(parts[0]), Arch: Arch(parts[1])}
	if len(parts) == 3 {
		t.Abi = Abi(parts[2])
	}
	return t, nil
}

func (t Triple) String() string {
	if t.Abi == AbiNone {
		return fmt.Sprintf("%s-%s", t.OS, t.Arch)
	}
	return fmt.Sprintf("%s-%s-%s", t.OS, t.Arch, t.Abi)
}

// ObjectFormat returns the container format this triple's linker backend
// produces.
func (t Triple) ObjectFormat() ObjectFormat {
	switch t.OS {
	case Windows:
		return ObjCoff
	case MacOS:
		return ObjMachO
	case Wasi:
		return ObjWasm
	default:
		return ObjElf
	}
}

// RequiresLibC reports whether the OS can't produce a standalone binary
// without a libc (§4.1.6 target_os_requires_libc). Matches
// cc/config/bionic.go's treatment of Android/Linux hosts versus
// freestanding/wasm targets.
func (t Triple) RequiresLibC() bool {
	switch t.OS {
	case Linux, Windows, MacOS:
		return true
	default:
		return false
	}
}

// ForbidsDynamicLinking reports whether the target has no dynamic linker at
// all (§4.1.7 "false if target forbids dynamic linking"), true for
// freestanding and wasm targets.
func (t Triple) ForbidsDynamicLinking() bool {
	switch t.OS {
	case Freestanding, Wasi:
		return true
	default:
		return false
	}
}

// IsGlibc reports whether link_libc would resolve to glibc specifically,
// used by must_dynamic_link (§4.1.7).
func (t Triple) IsGlibc() bool {
	return t.OS == Linux && t.Abi == AbiGnu
}

// IsMusl reports whether the target's libc is musl (affects _LIBCPP_HAS_MUSL_LIBC,
// §4.6).
func (t Triple) IsMusl() bool {
	return t.OS == Linux && t.Abi == AbiMusl
}

// IsWindowsGnu reports mingw-w64 targets (affects -Wno-pragma-pack, §4.6).
func (t Triple) IsWindowsGnu() bool {
	return t.OS == Windows && t.Abi == AbiGnu
}

// RequiresPIC reports whether the target itself mandates position
// independent code regardless of link_libc (§4.1.10 target_requires_pic).
// wasm and certain hardened OS/arch combinations always require it.
func (t Triple) RequiresPIC(linkLibc bool) bool {
	if t.Arch == Wasm32 {
		return true
	}
	if t.OS == MacOS {
		return true
	}
	if t.OS == Windows {
		return false
	}
	// PIE-by-default distros (the common glibc/musl case) require PIC once
	// libc enters the link.
	return linkLibc && (t.Abi == AbiGnu || t.Abi == AbiMusl)
}

// SupportsPIC reports whether the backend can emit PIC at all for this
// target (some freestanding/embedded targets cannot).
func (t Triple) SupportsPIC() bool {
	return t.OS != Freestanding
}

// SupportsStackProbing reports whether __zig_probe_stack-style stack-check
// is available on this target (§4.1.14).
func (t Triple) SupportsStackProbing() bool {
	switch t.Arch {
	case X86_64, X86, Aarch64:
		return true
	default:
		return false
	}
}

// SupportsValgrind reports whether valgrind client-request hooks exist for
// this target (§4.1.15); valgrind never runs on Windows or wasm.
func (t Triple) SupportsValgrind() bool {
	switch t.OS {
	case Windows, Wasi, Freestanding:
		return false
	default:
		return true
	}
}

// IsSingleThreaded reports targets with no real thread support by default
// (§4.1.16), e.g. wasm32 without shared memory or freestanding targets.
func (t Triple) IsSingleThreaded() bool {
	return t.Arch == Wasm32 || t.OS == Freestanding
}

// HasDebugInfo reports whether the target's object format can carry debug
// info at all (§4.1.17 target_has_debug_info); plain wasm without DWARF
// support is the notable false case here.
func (t Triple) HasDebugInfo() bool {
	return t.Arch != Wasm32
}

// IsRiscV reports RISC-V targets, the ones addCCArgs emits -mrelax or
// -mno-relax for (§4.6).
func (t Triple) IsRiscV() bool {
	return t.Arch == Riscv64
}

// IsFreestanding reports an OS with no syscalls at all (§4.6 -ffreestanding).
func (t Triple) IsFreestanding() bool {
	return t.OS == Freestanding
}

// LLVMTriple renders the triple the way it would be passed to `-target` in
// addCCArgs (§4.6).
func (t Triple) LLVMTriple() string {
	arch := string(t.Arch)
	switch t.Arch {
	case X86_64:
		arch = "x86_64"
	case X86:
		arch = "i386"
	}
	if t.Abi == AbiNone {
		return fmt.Sprintf("%s-unknown-%s", arch, t.OS)
	}
	return fmt.Sprintf("%s-unknown-%s-%s", arch, t.OS, t.Abi)
}

// ObjectExtension returns the per-target object file suffix used by the
// C-object builder's basename derivation (§4.5.4).
func (t Triple) ObjectExtension() string {
	if t.OS == Windows {
		return ".obj"
	}
	return ".o"
}
