// Package crtfile defines the CRTFile value spec.md §3 describes:
// { full_object_path: owned string, lock: ArtifactLock }. Destroying one
// releases the lock and frees the path — in Go terms, Destroy just
// releases the lock; the string needs no separate freeing.
package crtfile

import "github.com/xackus/zigc/pkg/cache"

// File is one built CRT/runtime-library artifact, stored in Compilation's
// crt_files map under a label such as "musl:crt1.o" or "compiler_rt"
// rather than under its bare basename (see Compilation.CRTFiles).
type File struct {
	FullObjectPath string
	Lock           cache.ArtifactLock
}

// Destroy releases the held lock (spec.md §3 "Destroying releases the lock
// and frees the path").
func (f *File) Destroy() {
	f.Lock.Release()
}
