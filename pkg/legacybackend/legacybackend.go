// Package legacybackend bridges the monolithic external compiler that does
// not support incremental compilation (component M, spec.md §4.8). It
// tracks whether the current source matches a prior build via a *symlink*
// whose link-target string — not its contents — encodes "digest ||
// flags-byte-hex" (§6 "Cache layout").
//
// The "read a side file next to the real cache, compare a packed marker,
// skip re-invoking an expensive external tool on a match" shape follows
// google-kati's ninja.go/exec.go: kati also bridges to an external,
// non-incremental tool (the shell) by hashing commands and only re-running
// what changed.
package legacybackend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xackus/zigc/pkg/cache"
	"github.com/xackus/zigc/pkg/diag"
	"github.com/xackus/zigc/pkg/job"
	"github.com/xackus/zigc/pkg/target"
)

const symlinkName = "stage1.id"
const libsFileName = "libs.txt"

// Descriptor is the packed target descriptor + emit-path strings + package
// tree spec.md §4.8 step 5 hands to the external compiler's opaque create
// function. Its exact shape is owned by that external collaborator; zigc
// only needs to pass one through.
type Descriptor struct {
	MainSourcePath   string
	Target           target.Triple
	EmitPaths        map[string]string
	Valgrind         bool
	SingleThreaded   bool
	OSVersionRange   string
	DllExportFns     bool
	FunctionSections bool
	IsTest           bool
}

// ExternalModule is the opaque handle spec.md §4.8 step 5's "create"
// function returns.
type ExternalModule interface {
	BuildObject() error
	DiscoveredLibs() []string
}

// ExternalCompiler is the out-of-scope "legacy back-end" itself (spec.md
// §1 "the linker back-end (invoked as an opaque 'flush' service)" sibling —
// here the code generator, not the linker).
type ExternalCompiler interface {
	Create(ctx context.Context, desc Descriptor) (ExternalModule, error)
}

// SystemLibs is the subset of Compilation's system-libs table the bridge
// needs: read the existing list, and append a new one, reporting whether it
// was actually new (spec.md §4.8 addLinkLib).
type SystemLibs interface {
	Libs() []string
	Add(name string) (index int, added bool)
}

// Bridge drives one legacy back-end invocation.
type Bridge struct {
	ArtifactDir     string
	LocalCacheRoot  string
	External        ExternalCompiler
	SystemLibs      SystemLibs
	EnqueueJob      func(job.Job)
	Sink            diag.Sink
}

// Result reports what Run decided.
type Result struct {
	Skipped bool // true when a digest+flags match let the bridge skip invocation
	Lock    cache.ArtifactLock
	Flags   byte
}

// Run executes spec.md §4.8's algorithm for one compilation.
func (b *Bridge) Run(ctx context.Context, desc Descriptor) (Result, error) {
	base := cache.BaseInputs{
		TargetOS:   string(desc.Target.OS),
		TargetABI:  string(desc.Target.Abi),
		OutputMode: "legacy-backend",
	}
	m := cache.Obtain(b.LocalCacheRoot, base)
	if err := m.AddFile(desc.MainSourcePath); err != nil {
		return Result{}, err
	}
	flags := packFlags(desc)
	m.AddBytes([]byte{flags})
	m.AddBytes([]byte(desc.OSVersionRange))
	for _, k := range sortedKeys(desc.EmitPaths) {
		m.AddBytes([]byte(k))
	}

	// 2. snapshot hash state and input-file count.
	snap, err := m.PeekBin()
	if err != nil {
		return Result{}, err
	}

	// 3. if hit():
	hit, err := m.Hit()
	if err != nil {
		return Result{}, err
	}
	if hit {
		linkDigest, parsedFlags, ok := b.readSymlink()
		if ok && linkDigest == shortDigest(m.Digest()) {
			if err := b.loadLibsFile(desc.Target); err != nil {
				b.Sink.Warnf("legacybackend: load libs.txt: %v", err)
			}
			lock, _, err := m.Final()
			if err != nil {
				return Result{}, err
			}
			return Result{Skipped: true, Lock: lock, Flags: parsedFlags}, nil
		}
		if err := m.Unhit(snap); err != nil {
			return Result{}, err
		}
	}

	// 4. delete any existing symlink.
	os.Remove(filepath.Join(b.ArtifactDir, symlinkName))

	// 5. invoke the external compiler.
	mod, err := b.External.Create(ctx, desc)
	if err != nil {
		return Result{}, err
	}
	if err := mod.BuildObject(); err != nil {
		return Result{}, err
	}

	// 6. after success: persist libs.txt, symlink, manifest; own the lock.
	for _, lib := range mod.DiscoveredLibs() {
		b.AddLinkLib(lib, desc.Target)
	}
	if err := b.writeLibsFile(); err != nil {
		b.Sink.Warnf("legacybackend: write libs.txt: %v", err)
	}
	digest, lock, err := m.Final()
	if err != nil {
		return Result{}, err
	}
	if err := b.writeSymlink(digest, flags); err != nil {
		b.Sink.Warnf("legacybackend: persist stage1.id: %v", err)
	}
	if err := m.WriteManifest(); err != nil {
		b.Sink.Warnf("legacybackend: write manifest: %v", err)
	}
	return Result{Skipped: false, Lock: lock, Flags: flags}, nil
}

// AddLinkLib implements spec.md §4.8's addLinkLib: insert into system-libs;
// if newly added and the target OS is Windows, enqueue a
// WindowsImportLib(new_index) job.
func (b *Bridge) AddLinkLib(name string, t target.Triple) {
	idx, added := b.SystemLibs.Add(name)
	if added && t.OS == target.Windows {
		b.EnqueueJob(job.Job{Kind: job.WindowsImportLib, SysLibIndex: idx})
	}
}

// packFlags packs the small boolean set §4.8 step 1 folds into the
// manifest into a single flags byte, the same byte the symlink target
// string encodes in hex (§6).
func packFlags(d Descriptor) byte {
	var f byte
	if d.Valgrind {
		f |= 1 << 0
	}
	if d.SingleThreaded {
		f |= 1 << 1
	}
	if d.DllExportFns {
		f |= 1 << 2
	}
	if d.FunctionSections {
		f |= 1 << 3
	}
	if d.IsTest {
		f |= 1 << 4
	}
	return f
}

// readSymlink reads stage1.id's *link target string* (not its contents —
// spec.md §6 is explicit about this) and splits it into the 32-hex-digit
// digest and the flags-byte hex suffix.
func (b *Bridge) readSymlink() (parsedDigest string, flags byte, ok bool) {
	path := filepath.Join(b.ArtifactDir, symlinkName)
	link, err := os.Readlink(path)
	if err != nil {
		return "", 0, false
	}
	if len(link) != 34 {
		return "", 0, false
	}
	parsedDigest = link[:32]
	fb, err := strconv.ParseUint(link[32:34], 16, 8)
	if err != nil {
		return "", 0, false
	}
	return parsedDigest, byte(fb), true
}

func (b *Bridge) writeSymlink(digest string, flags byte) error {
	path := filepath.Join(b.ArtifactDir, symlinkName)
	os.Remove(path)
	target := fmt.Sprintf("%s%02x", shortDigest(digest), flags)
	return os.Symlink(target, path)
}

// shortDigest truncates a manifest digest to the 32 hex characters the
// stage1.id symlink target packs alongside a 2-hex-char flags byte (34
// characters total, §6 "Cache layout").
func shortDigest(digest string) string {
	if len(digest) > 32 {
		return digest[:32]
	}
	return digest
}

// loadLibsFile replays a cache hit's discovered libs the same way
// spec.md:179 requires: feeding each one through addLinkLib, not straight
// into SystemLibs, so a previously-discovered Windows import lib is
// re-enqueued as a WindowsImportLib job on this run too (spec.md:185).
func (b *Bridge) loadLibsFile(t target.Triple) error {
	contents, err := os.ReadFile(filepath.Join(b.ArtifactDir, libsFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, line := range strings.Split(string(contents), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		b.AddLinkLib(line, t)
	}
	return nil
}

func (b *Bridge) writeLibsFile() error {
	libs := b.SystemLibs.Libs()
	return os.WriteFile(filepath.Join(b.ArtifactDir, libsFileName), []byte(strings.Join(libs, "\n")+"\n"), 0o644)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}
