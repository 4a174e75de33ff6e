// Package crtrecipes declares the opaque "build CRT file X" services
// spec.md §1 treats as external collaborators: the flat recipes for
// glibc/musl/mingw CRT objects, glibc shared objects and Windows import
// libraries. zigc's job dispatch (§4.4) calls through this interface and
// never encodes the recipes itself; libunwind/libc++/libc++abi are built
// by sub-compilation instead (see Builder).
package crtrecipes

import "github.com/xackus/zigc/pkg/target"

// Builder builds one flat CRT file for a target and returns its path on
// disk: the small, non-recursive objects (crt1.o, crti.o, an import
// library, ...) that don't need a full child Compilation to produce.
// compiler-rt, the zig-provided libc, libunwind and libc++/libc++abi are
// built by a recursive sub-compilation instead (spec.md §4.7,
// pkg/subcompile) since they are built from target-language source, not
// handed to an external recipe.
type Builder interface {
	BuildGlibcCrtFile(t target.Triple, file string) (path string, err error)
	BuildGlibcSharedObjects(t target.Triple) (paths []string, err error)
	BuildMuslCrtFile(t target.Triple, file string) (path string, err error)
	BuildMingwCrtFile(t target.Triple, file string) (path string, err error)
	BuildWindowsImportLib(t target.Triple, libName string) (path string, err error)
}
