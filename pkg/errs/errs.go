// Package errs holds the per-input error record (component D), the
// compile-time configuration error kinds (spec.md §7 "Configuration
// errors"), and the error aggregator (component O).
//
// google-kati's error handling (log.go Error/ErrorNoLocation) resolves a
// file:line prefix before printing; zigc keeps the same "resolve a location,
// then report" shape but returns a Record instead of printing and exiting,
// since slot/decl failures must never abort the queue drain (§4.4, §7).
package errs

import "errors"

// Configuration errors raised during Compilation creation (spec.md §7).
// These are sentinel values so callers can errors.Is against them; cobra's
// error path in cmd/zigc prints err.Error() and exits 1 either way.
var (
	ErrMachineCodeModelNotSupported = errors.New("machine code model is not supported without LLVM")
	ErrUnableToStaticLink           = errors.New("unable to statically link: target requires dynamic linking")
	ErrTargetRequiresPIC            = errors.New("target requires position independent code")
	ErrLibCInstallationNotAvailable = errors.New("libc installation not available for target")
	ErrLibCInstallationMissingCRT   = errors.New("libc installation is missing its CRT directory")
)

// Loc is a resolved source location for user display, derived from a raw
// byte offset the way google-kati's Warn/Error resolve a (filename, lineno)
// pair before formatting.
type Loc struct {
	File   string
	Line   int
	Column int
}

// Record is the (byte_offset, message) pair spec.md §3 describes for C
// object slot failures and declaration errors, plus the resolved location
// once one is available. Records never unwind as Go errors — they are
// stored on the owning slot or declaration and read back by the aggregator.
type Record struct {
	ByteOffset int
	Message    string
	Loc        *Loc // nil until resolved against file contents
}

func (r Record) Error() string {
	if r.Loc != nil {
		return r.Loc.File + ": " + r.Message
	}
	return r.Message
}

// Source identifies what produced a Record, for the aggregator's report.
type Source struct {
	Kind string // "c-object", "decl", "linker"
	Name string // source path or declaration name
}

// Aggregator collects per-job errors plus linker error flags into the
// single reportable list §4.3 step 5/7 and §7 describe. It is populated
// during the queue drain and read once after update() returns.
type Aggregator struct {
	entries        []Entry
	noEntryPoint   bool
	linkerHadError bool
}

// Entry pairs a Source with its Record for final reporting.
type Entry struct {
	Source Source
	Record Record
}

// New returns an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{}
}

// Add records a per-job failure. Called from the dispatch loop (§4.4) —
// never from inside create()'s configuration checks, which instead return a
// sentinel error directly.
func (a *Aggregator) Add(src Source, rec Record) {
	a.entries = append(a.entries, Entry{Source: src, Record: rec})
}

// SetNoEntryPoint records the linker's no_entry_point_found flag. Per
// spec.md §7/§8, this is only meaningful when TotalErrorCount() == 0 at
// read time — the caller (compilation.update) enforces that ordering.
func (a *Aggregator) SetNoEntryPoint() {
	a.noEntryPoint = true
}

// SetLinkerError records that the linker raised some other error flag.
func (a *Aggregator) SetLinkerError() {
	a.linkerHadError = true
}

// ClearLinkerFlags clears link-error-flags; called by compilation.update
// (§4.3 step 5) when errors were already found before the flush was
// skipped, so stale flags from a previous update() don't leak forward.
func (a *Aggregator) ClearLinkerFlags() {
	a.noEntryPoint = false
	a.linkerHadError = false
}

// TotalErrorCount implements spec.md §4.3 step 5 / §8's
// "totalErrorCount() > 0 ⇒ linker is not flushed".
func (a *Aggregator) TotalErrorCount() int {
	return len(a.entries)
}

// NoEntryPointFound implements the §8 "no entry point" policy: surfaced iff
// all other error counts are zero.
func (a *Aggregator) NoEntryPointFound() bool {
	return a.noEntryPoint && a.TotalErrorCount() == 0
}

// Entries returns the collected per-job failures in insertion order.
func (a *Aggregator) Entries() []Entry {
	return a.entries
}
