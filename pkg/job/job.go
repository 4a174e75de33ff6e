// Package job implements the tagged-variant work queue (components F, G):
// a flat sum of pending work items, drained once per update (spec.md §3,
// §4.3, §4.4).
//
// The Kind-tagged-struct shape mirrors tinyrange-rtg/std/compiler/ir.go's
// TypeKind/TY_* and NodeKind/N* pattern: one int Kind field selects which
// of the struct's payload fields are meaningful, with no dynamic dispatch
// needed (spec.md §9 "Tagged-variant Jobs").
package job

// Kind discriminates the Job union's active payload.
type Kind int

const (
	CodegenDecl Kind = iota
	AnalyzeDecl
	UpdateLineNumber
	CObject
	GlibcCrtFile
	GlibcSharedObjects
	MuslCrtFile
	MingwCrtFile
	Libunwind
	Libcxx
	Libcxxabi
	CompilerRt
	ZigLibc
	GenerateBuiltinSource
	LegacyBackend
	WindowsImportLib
)

func (k Kind) String() string {
	switch k {
	case CodegenDecl:
		return "CodegenDecl"
	case AnalyzeDecl:
		return "AnalyzeDecl"
	case UpdateLineNumber:
		return "UpdateLineNumber"
	case CObject:
		return "CObject"
	case GlibcCrtFile:
		return "GlibcCrtFile"
	case GlibcSharedObjects:
		return "GlibcSharedObjects"
	case MuslCrtFile:
		return "MuslCrtFile"
	case MingwCrtFile:
		return "MingwCrtFile"
	case Libunwind:
		return "Libunwind"
	case Libcxx:
		return "Libcxx"
	case Libcxxabi:
		return "Libcxxabi"
	case CompilerRt:
		return "CompilerRt"
	case ZigLibc:
		return "ZigLibc"
	case GenerateBuiltinSource:
		return "GenerateBuiltinSource"
	case LegacyBackend:
		return "LegacyBackend"
	case WindowsImportLib:
		return "WindowsImportLib"
	default:
		return "Unknown"
	}
}

// CrtFile names the specific CRT object a GlibcCrtFile/MuslCrtFile/
// MingwCrtFile job builds (e.g. "crt1.o", "Scrt1.o", "crti.o").
type CrtFile string

// Job is the tagged union described in spec.md §3. Only the fields
// relevant to Kind are populated; the rest are zero. DeclID is an opaque
// identifier into the external module collaborator (pkg/module.Analyzer),
// since declaration identity itself is out of scope (spec.md §1).
type Job struct {
	Kind Kind

	DeclID int // CodegenDecl, AnalyzeDecl, UpdateLineNumber

	SlotIndex int // CObject: index into Compilation's C-object slot table

	CrtFile CrtFile // GlibcCrtFile, MuslCrtFile, MingwCrtFile

	// SysLibIndex carries a position into the system-libs sequence
	// (WindowsImportLib). That sequence must not be reordered while such
	// jobs are in flight (spec.md §3, §5 "Ordering guarantees").
	SysLibIndex int
}

// Queue is a FIFO of jobs drained once per Compilation.update() call
// (component G). It is not safe for concurrent use — spec.md §5 guarantees
// exactly one Compilation-owned goroutine ever touches it.
type Queue struct {
	items []Job
}

// New returns an empty Queue.
func New() *Queue {
	return &Queue{}
}

// Push enqueues a job at the tail, preserving FIFO order (spec.md §5
// "Ordering guarantees"). Jobs enqueued while draining (e.g. WindowsImportLib
// jobs discovered inside a LegacyBackend job) land here and are visible to
// the same drain loop before it decides the queue is empty.
func (q *Queue) Push(j Job) {
	q.items = append(q.items, j)
}

// Pop removes and returns the head job. ok is false when the queue is
// empty.
func (q *Queue) Pop() (Job, bool) {
	if len(q.items) == 0 {
		return Job{}, false
	}
	j := q.items[0]
	q.items = q.items[1:]
	return j, true
}

// Len reports how many jobs remain.
func (q *Queue) Len() int {
	return len(q.items)
}
