// Package ccobject implements the C-object slot (component E) and the
// C-object builder (component J), spec.md §4.5.
package ccobject

import "github.com/xackus/zigc/pkg/cache"

// Status is the C-object slot state machine (spec.md §3, §9 "should be
// modeled as an explicit state machine, not multiple booleans").
type Status int

const (
	New Status = iota
	Success
	Failure
)

// Slot owns one C/C++ input's build status (component E). Invariant
// (spec.md §3): Status == Success implies ObjectPath names a file that
// exists inside a cache directory whose manifest digest matches Lock;
// Status == Failure implies Error is set and its lifetime equals the
// slot's.
type Slot struct {
	SrcPath    string
	ExtraFlags []string

	Status     Status
	ObjectPath string
	Lock       cache.ArtifactLock
	Error      string
}

// NewSlot creates a fresh New-status slot (spec.md §3 "created at
// Compilation construction, one per input C source").
func NewSlot(srcPath string, extraFlags []string) *Slot {
	return &Slot{SrcPath: srcPath, ExtraFlags: extraFlags, Status: New}
}

// Clear idempotently releases any held lock/object path and clears a
// recorded failure, returning the slot to New (§4.5 step 1, §9
// "clearStatus operation must idempotently release held resources").
func (s *Slot) Clear() {
	if s.Status == Success {
		s.Lock.Release()
	}
	s.Status = New
	s.ObjectPath = ""
	s.Error = ""
}

// MarkSuccess transitions the slot to Success, taking ownership of lock.
func (s *Slot) MarkSuccess(objectPath string, lock cache.ArtifactLock) {
	s.Status = Success
	s.ObjectPath = objectPath
	s.Lock = lock
}

// MarkFailure transitions the slot to Failure with message as the error
// text (§4.4 "unable to build C object: <err>").
func (s *Slot) MarkFailure(message string) {
	s.Status = Failure
	s.Error = message
}

// Destroy releases all slot-owned resources; called when the owning
// Compilation is destroyed (spec.md §3 "destroyed with Compilation").
func (s *Slot) Destroy() {
	if s.Status == Success {
		s.Lock.Release()
	}
}
