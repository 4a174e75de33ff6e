// Package cfile classifies C/C++/header source files by extension
// (spec.md §1 Out of scope: "file-extension classification"). Kept tiny and
// separate from pkg/ccobject so the C-object builder's flag construction
// (addCCArgs, §4.6) can stay a pure function over a Kind instead of a raw
// path string.
package cfile

import "strings"

// Kind is the classified language of a C-family input.
type Kind int

const (
	Unknown Kind = iota
	C
	Cpp
	Header
	Asm
)

// Classify inspects path's extension and returns its Kind.
func Classify(path string) Kind {
	ext := strings.ToLower(path[strings.LastIndex(path, ".")+1:])
	switch ext {
	case "c":
		return C
	case "cc", "cpp", "cxx", "c++":
		return Cpp
	case "h", "hh", "hpp", "hxx":
		return Header
	case "s", "asm":
		return Asm
	default:
		return Unknown
	}
}

// IsCpp reports whether kind needs -nostdinc++ and libc++ include dirs
// (§4.6).
func (k Kind) IsCpp() bool {
	return k == Cpp
}

// IsCFamily reports whether kind gets the shared C-family flag block in
// addCCArgs (§4.6: "For C-family inputs (C/C++/H)").
func (k Kind) IsCFamily() bool {
	return k == C || k == Cpp || k == Header
}
