// Package fsutil holds small filesystem primitives shared across the
// driver: the directory handle (component A) and path helpers grounded on
// tinyrange-rtg's std/compiler/main.go (normalizePath, dirName).
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// Dir is a path paired with an opened directory handle, the shape spec.md
// §3 calls for: "a path + an opened directory, passable to child processes".
// Child processes receive Path (as cwd or an -I/-L argument); the open
// handle keeps the directory pinned and lets callers fstat/openat relative
// to it without re-resolving the path.
type Dir struct {
	Path   string
	handle *os.File
}

// OpenDir opens path as a directory handle. The directory must already
// exist; zigc never creates cache roots implicitly.
func OpenDir(path string) (Dir, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Dir{}, fmt.Errorf("fsutil: resolve %q: %w", path, err)
	}
	f, err := os.Open(abs)
	if err != nil {
		return Dir{}, fmt.Errorf("fsutil: open dir %q: %w", abs, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return Dir{}, fmt.Errorf("fsutil: stat %q: %w", abs, err)
	}
	if !info.IsDir() {
		f.Close()
		return Dir{}, fmt.Errorf("fsutil: %q is not a directory", abs)
	}
	return Dir{Path: abs, handle: f}, nil
}

// Close releases the underlying directory handle. Safe to call on a zero
// Dir (e.g. one that was never opened).
func (d *Dir) Close() error {
	if d.handle == nil {
		return nil
	}
	err := d.handle.Close()
	d.handle = nil
	return err
}

// Join resolves name against the directory's path.
func (d Dir) Join(name string) string {
	return filepath.Join(d.Path, name)
}

// NormalizePath replaces backslashes with forward slashes, the same
// normalization tinyrange-rtg/std/compiler/main.go applies before treating
// a path as a module-relative import string.
func NormalizePath(path string) string {
	buf := make([]byte, len(path))
	for i := 0; i < len(path); i++ {
		if path[i] == '\\' {
			buf[i] = '/'
		} else {
			buf[i] = path[i]
		}
	}
	return string(buf)
}
