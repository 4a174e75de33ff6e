package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"hash"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio"
)

// BaseInputs is the common seed every manifest transaction starts from
// (§4.2.1): "compiler version, lib directory path, optimize mode, target
// cpu/os/abi/features, object format, pic, stack_check, link_mode,
// function_sections, strip, link_libc, link_libcpp, output_mode, code
// model, whether a binary is emitted." Field order is part of the contract
// — hashing is order-sensitive.
type BaseInputs struct {
	CompilerVersion  string
	LibDir           string
	Optimize         string
	TargetCPU        string
	TargetOS         string
	TargetABI        string
	TargetFeatures   string
	ObjectFormat     string
	PIC              bool
	StackCheck       bool
	LinkMode         string
	FunctionSections bool
	Strip            bool
	LinkLibC         bool
	LinkLibCpp       bool
	OutputMode       string
	CodeModel        string
	EmitsBinary      bool
}

// FileDep is one recorded input-file dependency: its path, content hash,
// and the mtime/size metadata used to short-circuit re-hashing on a later
// run (kept alongside the hash the way google-kati/serialize.go persists
// file metadata next to content digests in its GOB cache).
type FileDep struct {
	Path    string
	Hash    [sha256.Size]byte
	Size    int64
	ModTime int64
}

// Manifest accumulates the inputs that determine one artifact's cache
// digest (component B). A Manifest is a single-use transaction: Obtain,
// add inputs, Hit/Unhit, Final, WriteManifest.
type Manifest struct {
	root string // local-cache root (where h/<digest> manifests live)

	h     hash.Hash
	files []FileDep

	digest string
	lock   ArtifactLock
}

// Snapshot is what PeekBin/Unhit save and restore (§4.2.3/5): the hash
// state plus how many files had been recorded at that point.
type Snapshot struct {
	hashState []byte
	nFiles    int
}

// Obtain seeds a fresh manifest from base, the transaction's step 1
// (§4.2.1).
func Obtain(root string, base BaseInputs) *Manifest {
	m := &Manifest{root: root, h: sha256.New()}
	fmt.Fprintf(m.h, "%s\x00%s\x00%s\x00%s\x00%s\x00%s\x00%s\x00%s\x00%t\x00%t\x00%s\x00%t\x00%t\x00%t\x00%t\x00%s\x00%s\x00%t\x00",
		base.CompilerVersion, base.LibDir, base.Optimize, base.TargetCPU, base.TargetOS,
		base.TargetABI, base.TargetFeatures, base.ObjectFormat, base.PIC, base.StackCheck,
		base.LinkMode, base.FunctionSections, base.Strip, base.LinkLibC, base.LinkLibCpp,
		base.OutputMode, base.CodeModel, base.EmitsBinary)
	return m
}

// AddBytes folds caller-supplied bytes into the digest (§4.2.2 hash.add).
func (m *Manifest) AddBytes(b []byte) {
	m.h.Write(b)
}

// AddFile folds a file's content hash and records its path/size/mtime
// metadata as a dependency (§4.2.2 addFile).
func (m *Manifest) AddFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cache: stat %q: %w", path, err)
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cache: read %q: %w", path, err)
	}
	sum := sha256.Sum256(contents)
	m.h.Write(sum[:])
	m.files = append(m.files, FileDep{
		Path:    path,
		Hash:    sum,
		Size:    info.Size(),
		ModTime: info.ModTime().UnixNano(),
	})
	return nil
}

// AddDepFilePost reads a Makefile-style dependency file (the side-output of
// `clang -MD -MV -MF`) and folds each listed input through AddFile
// (§4.2.2 addDepFilePost, §6 "Dependency-file ingestion").
func (m *Manifest) AddDepFilePost(dir, basename string) error {
	path := filepath.Join(dir, basename)
	contents, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cache: read dep file %q: %w", path, err)
	}
	for _, dep := range parseDepFile(string(contents)) {
		if !filepath.IsAbs(dep) {
			dep = filepath.Join(dir, dep)
		}
		if err := m.AddFile(dep); err != nil {
			return err
		}
	}
	return nil
}

// parseDepFile parses "<output>: <input>..." with backslash line
// continuations (§6).
func parseDepFile(contents string) []string {
	joined := strings.ReplaceAll(contents, "\\\n", " ")
	lines := strings.Split(joined, "\n")
	var deps []string
	for _, line := range lines {
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		rest := line[idx+1:]
		for _, field := range strings.Fields(rest) {
			deps = append(deps, field)
		}
	}
	return deps
}

// PeekBin snapshots the hash state so an optimistic Hit may be rolled back
// (§4.2.3).
func (m *Manifest) PeekBin() (Snapshot, error) {
	marshaler, ok := m.h.(interface{ MarshalBinary() ([]byte, error) })
	if !ok {
		return Snapshot{}, fmt.Errorf("cache: hash implementation does not support snapshotting")
	}
	state, err := marshaler.MarshalBinary()
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{hashState: state, nFiles: len(m.files)}, nil
}

// Hit returns true iff the manifest file at the computed digest exists and
// every file it references still matches on disk (§4.2.4). On a hit, an
// artifact lock is acquired on the manifest file.
func (m *Manifest) Hit() (bool, error) {
	digest := m.peekDigest()
	manifestPath := filepath.Join(m.root, "h", digest)
	stored, err := readManifestFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	for _, f := range stored.Files {
		info, err := os.Stat(f.Path)
		if err != nil {
			return false, nil
		}
		if info.Size() != f.Size || info.ModTime().UnixNano() != f.ModTime {
			contents, err := os.ReadFile(f.Path)
			if err != nil {
				return false, nil
			}
			if sha256.Sum256(contents) != f.Hash {
				return false, nil
			}
		}
	}
	lock, err := acquireLock(manifestPath)
	if err != nil {
		return false, err
	}
	m.digest = digest
	m.lock = lock
	m.files = stored.Files
	return true, nil
}

// Unhit restores a previous snapshot and truncates the file list, used when
// a manifest hit produced zero files — a signal that an earlier run
// recorded a failure that should be retried (§4.2.5, §8 "Unhit
// correctness").
func (m *Manifest) Unhit(prev Snapshot) error {
	unmarshaler, ok := m.h.(interface{ UnmarshalBinary([]byte) error })
	if !ok {
		return fmt.Errorf("cache: hash implementation does not support restoring")
	}
	if err := unmarshaler.UnmarshalBinary(prev.hashState); err != nil {
		return err
	}
	if prev.nFiles > len(m.files) {
		prev.nFiles = len(m.files)
	}
	m.files = m.files[:prev.nFiles]
	if m.lock.Valid() {
		m.lock.Release()
	}
	m.digest = ""
	return nil
}

func (m *Manifest) peekDigest() string {
	sum := m.h.Sum(nil)
	return hex.EncodeToString(sum)
}

// Final computes the digest and converts the held lock into an owned lock
// returnable to the caller (§4.2.6). If no lock is held yet (cache was
// disabled, or this is the first build of this digest), a fresh lock is
// acquired on the about-to-be-written manifest path.
func (m *Manifest) Final() (digest string, lock ArtifactLock, err error) {
	digest = m.peekDigest()
	m.digest = digest
	if m.lock.Valid() {
		return digest, m.lock, nil
	}
	manifestPath := filepath.Join(m.root, "h", digest)
	if err := os.MkdirAll(filepath.Dir(manifestPath), 0o755); err != nil {
		return "", ArtifactLock{}, fmt.Errorf("cache: mkdir for manifest: %w", err)
	}
	lock, err = acquireLock(manifestPath)
	if err != nil {
		return "", ArtifactLock{}, err
	}
	m.lock = lock
	return digest, lock, nil
}

// storedManifest is the on-disk shape of a manifest file, persisted with
// encoding/gob the way google-kati/serialize.go persists its cache (GOB and
// JSON loaders side by side; zigc keeps GOB for the compact binary form
// since manifests are read far more often than inspected by a human).
type storedManifest struct {
	Files []FileDep
}

// WriteManifest persists the file list and their fingerprints (§4.2.7).
// Failure here is a transient warning per §7, never a build failure — the
// caller logs it through diag.Sink and continues; the next run will simply
// cache-miss.
func (m *Manifest) WriteManifest() error {
	if m.digest == "" {
		return fmt.Errorf("cache: WriteManifest called before Final")
	}
	manifestPath := filepath.Join(m.root, "h", m.digest)
	if err := os.MkdirAll(filepath.Dir(manifestPath), 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(storedManifest{Files: m.files}); err != nil {
		return err
	}
	// Atomic write-then-rename, the same pattern
	// other_examples/manifests/distr1-distri uses google/renameio for to
	// publish build artifacts without a reader ever observing a partial
	// file.
	return renameio.WriteFile(manifestPath, buf.Bytes(), 0o644)
}

func readManifestFile(path string) (storedManifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return storedManifest{}, err
	}
	defer f.Close()
	var sm storedManifest
	dec := gob.NewDecoder(f)
	if err := dec.Decode(&sm); err != nil {
		return storedManifest{}, err
	}
	return sm, nil
}

// Digest returns the manifest's computed digest. Empty until Hit or Final
// has run.
func (m *Manifest) Digest() string {
	return m.digest
}

// NumFiles reports how many file dependencies are currently recorded —
// callers use this to detect the "hit with zero files" condition §4.2.5
// and §8 describe.
func (m *Manifest) NumFiles() int {
	return len(m.files)
}
