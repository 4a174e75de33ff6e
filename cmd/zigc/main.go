// Command zigc drives the compilation core described in pkg/compilation:
// a job-scheduled, content-addressed-cached build of C/C++ sources (and,
// once a language module and linker are wired in by an embedder, a root
// module) for one cross-compilation target.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/xackus/zigc/cmd/zigc/internal/build"
	"github.com/xackus/zigc/cmd/zigc/internal/version"
)

func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zigc",
		Short: "zigc drives C/C++ and cross-target compilation jobs through a content-addressed cache",
	}

	cmd.AddCommand(
		build.NewBuildCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
