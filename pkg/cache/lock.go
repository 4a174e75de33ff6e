// Package cache implements the content-addressed manifest (component B)
// and its artifact lock (component C), spec.md §4.2.
//
// ArtifactLock is backed by github.com/gofrs/flock, the cross-process file
// lock named in other_examples/manifests/sylabs-singularity and
// other_examples/manifests/zUZWqEHF-cocoon — both real build/packaging
// tools that lock on-disk build artifacts the same way. Per spec.md §9
// "File-lock lifetime coupling", the lock is embedded in the data structure
// it protects (CRTFile, C-object Success payload) rather than tracked
// separately, so releasing it is tied to that payload's destruction.
package cache

import (
	"fmt"

	"github.com/gofrs/flock"
)

// ArtifactLock is a held cross-process file lock scoped to one artifact
// digest (§4.2 "a cross-process file lock whose scope is 'this artifact
// digest'"). The zero value is an unlocked, no-op lock (useful for tests
// and for cache-disabled paths).
type ArtifactLock struct {
	fl *flock.Flock
}

// acquireLock takes an exclusive lock on the manifest file at path,
// creating it if necessary. Returns an error if the lock is already held by
// another process — spec.md §8's "Lock liveness" property requires this to
// fail while a Success-state slot is live.
func acquireLock(path string) (ArtifactLock, error) {
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return ArtifactLock{}, fmt.Errorf("cache: lock %q: %w", path, err)
	}
	if !ok {
		return ArtifactLock{}, fmt.Errorf("cache: %q is locked by another process", path)
	}
	return ArtifactLock{fl: fl}, nil
}

// Release drops the lock. Idempotent: releasing a zero-value or
// already-released ArtifactLock is a no-op, matching the "clearStatus must
// idempotently release held resources" design note (§9).
func (l *ArtifactLock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	err := l.fl.Unlock()
	l.fl = nil
	return err
}

// Valid reports whether the lock is currently held.
func (l ArtifactLock) Valid() bool {
	return l.fl != nil
}
