// Package linker declares the opaque "flush" service spec.md §1 treats as
// an external collaborator. zigc's core calls through this interface; the
// actual ELF/COFF/Mach-O/wasm emission lives outside this driver's scope.
package linker

// Linker is the back-end collaborator invoked from Compilation.update's
// final steps (§4.3 steps 6-7) and from CodegenDecl/UpdateLineNumber
// dispatch (§4.4).
type Linker interface {
	// UpdateDecl pushes one declaration's generated code to the linker.
	UpdateDecl(declID int) error

	// UpdateDeclLineNumber updates only the line-number debug info for a
	// declaration, without a full recodegen.
	UpdateDeclLineNumber(declID int) error

	// Flush performs the final link (§4.3 step 6). Per spec.md §9 "Shared-
	// by-reference external collaborators", the linker reads from the
	// module during Flush, which is why Compilation destroys the linker
	// before the module.
	Flush() error

	// NoEntryPointFound reports the linker's no_entry_point_found flag
	// (§4.3 step 7, §7 "Linker error flags").
	NoEntryPointFound() bool

	// HadError reports whether Flush raised any other linker error flag.
	HadError() bool

	// ClearErrorFlags resets the flags read by NoEntryPointFound/HadError.
	// Compilation.update calls it after Flush, once it has read them.
	ClearErrorFlags()

	// OutputPath returns the path of the artifact Flush produced. Read by a
	// parent Compilation after a sub-compilation's Update succeeds, to wrap
	// the child's single output as a CRTFile (§4.7).
	OutputPath() string
}
