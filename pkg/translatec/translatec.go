// Package translatec implements the C-import translator (component K):
// translating a C source blob into equivalent target-language source,
// cached the same way as a C object (spec.md §2 row K). The cache
// transaction mirrors pkg/ccobject.Build — obtain a manifest, add the
// source plus flags, hit-or-invoke, persist — which is also how
// tinyrange-rtg's single-pass frontend.go reads one source file into one
// in-memory Package with no intermediate cache of its own; zigc adds the
// caching layer the driver core requires.
package translatec

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xackus/zigc/pkg/cache"
	"github.com/xackus/zigc/pkg/ccfrontend"
	"github.com/xackus/zigc/pkg/config"
)

// Env bundles what Translate needs: the clang path (zig uses `zig
// translate-c`, which is clang's -cc1 frontend plus an AST-to-source
// rewrite, §6 "zig translate-c sets clang_passthrough_mode=true"), the
// resolved config for cache-base hashing, and the cache root.
type Env struct {
	Cfg             config.Resolved
	ClangPath       string
	LocalCacheRoot  string
	CompilerVersion string
	ExtraFlags      []string
}

// Translate runs `zig translate-c` on srcPath, caching the generated
// source the same way a C object is cached, and returns the path to the
// generated file.
func Translate(ctx context.Context, srcPath string, env Env) (string, error) {
	base := cache.BaseInputs{
		CompilerVersion: env.CompilerVersion,
		TargetOS:        string(env.Cfg.Target.OS),
		TargetABI:       string(env.Cfg.Target.Abi),
		OutputMode:      "translate-c",
	}
	m := cache.Obtain(env.LocalCacheRoot, base)
	if err := m.AddFile(srcPath); err != nil {
		return "", err
	}
	for _, f := range env.ExtraFlags {
		m.AddBytes([]byte(f))
	}

	hit, err := m.Hit()
	if err != nil {
		return "", err
	}

	basename := filepath.Base(srcPath) + ".zig"
	if hit {
		digest, _, err := m.Final()
		if err != nil {
			return "", err
		}
		return filepath.Join(env.LocalCacheRoot, "o", digest, basename), nil
	}

	tmpOut := filepath.Join(os.TempDir(), fmt.Sprintf("zigc-translatec-%d", os.Getpid()))
	argv := append([]string{"translate-c", srcPath, "-o", tmpOut}, env.ExtraFlags...)
	res, err := ccfrontend.Invoke(ctx, env.ClangPath, argv, ccfrontend.Captured)
	if err != nil {
		return "", err
	}
	if res.Abnormal || res.ExitCode != 0 {
		// Leave no manifest behind on failure, the same as ccobject.Build:
		// the next Translate call for this source simply misses and
		// retries rather than replaying a recorded failure.
		return "", fmt.Errorf("translatec: translate-c failed for %q: %s", srcPath, res.Stderr)
	}

	digest, _, err := m.Final()
	if err != nil {
		return "", err
	}
	destDir := filepath.Join(env.LocalCacheRoot, "o", digest)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}
	destPath := filepath.Join(destDir, basename)
	if err := os.Rename(tmpOut, destPath); err != nil {
		return "", err
	}
	if err := m.AddFile(destPath); err != nil {
		return "", err
	}
	if err := m.WriteManifest(); err != nil {
		return "", err
	}
	return destPath, nil
}
