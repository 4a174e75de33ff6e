package compilation

import (
	"context"

	"github.com/xackus/zigc/pkg/translatec"
)

// TranslateCSource runs the C-import translator (component K) against
// srcPath using this compilation's resolved config, clang path and local
// cache, returning the path to the generated target-language source. The
// language module calls this when it encounters an @cImport of srcPath;
// zigc's core only owns the caching/invocation shape, not import resolution
// itself (spec.md §1).
func (c *Compilation) TranslateCSource(ctx context.Context, srcPath string, extraFlags []string) (string, error) {
	env := translatec.Env{
		Cfg:             c.cfg,
		ClangPath:       c.clangPath,
		LocalCacheRoot:  c.localCacheDir.Path,
		CompilerVersion: c.compilerVersion,
		ExtraFlags:      extraFlags,
	}
	return translatec.Translate(ctx, srcPath, env)
}
