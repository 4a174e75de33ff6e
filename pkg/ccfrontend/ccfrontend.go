// Package ccfrontend invokes the C/C++ front-end as a child process (spec.md
// §1 Out of scope: "the C/C++ front-end invocation (invoked as a child
// process)"). The invocation shape — os/exec.Command, inherit-or-capture
// stdio, parse the exit status — follows
// tinyrange-rtg/std/compiler/main.go's os/exec use for -run mode and
// backend_vm.go's SysSystem/SysPopen syscall shims, which are the teacher's
// only child-process code.
package ccfrontend

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
)

// Mode selects how the spawned clang's stdio is wired (§4.5.5).
type Mode int

const (
	// Captured pipes stdout/stderr back to the caller for inspection.
	Captured Mode = iota
	// Passthrough inherits the parent's stdio and reports the child's exit
	// status through Result for the caller to act on.
	Passthrough
)

// maxCapturedStderr bounds how much stderr Result.Stderr holds in Captured
// mode (§4.5.5 "pipe stderr (read up to 10 MiB)").
const maxCapturedStderr = 10 << 20

// Result is what Invoke returns in Captured mode.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	// Abnormal is true when the child was killed by a signal rather than
	// exiting normally (§4.5.5 "clang terminated unexpectedly").
	Abnormal bool
}

// Invoke runs `zig clang <argv...>` as a child process (§4.5.5). Neither
// mode returns a Go error for a clean process exit, zero or non-zero:
// Passthrough inherits stdio and reports the exit code through Result for
// the caller to propagate via os.Exit; Captured pipes stdout/stderr and
// reports a non-zero exit the same way so the caller can record a slot
// failure instead of aborting the whole compilation (§4.4). A Go error
// means the child never ran at all (e.g. executable not found).
func Invoke(ctx context.Context, clangPath string, argv []string, mode Mode) (Result, error) {
	cmd := exec.CommandContext(ctx, clangPath, argv...)

	if mode == Passthrough {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		cmd.Stdin = os.Stdin
		err := cmd.Run()
		if err == nil {
			return Result{ExitCode: 0}, nil
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if !exitErr.Exited() {
				return Result{Abnormal: true}, nil
			}
			return Result{ExitCode: exitErr.ExitCode()}, nil
		}
		return Result{}, err
	}

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, err
	}
	if err := cmd.Start(); err != nil {
		return Result{}, err
	}
	stderr, _ := io.ReadAll(io.LimitReader(stderrPipe, maxCapturedStderr))
	err = cmd.Wait()

	res := Result{Stdout: stdout.Bytes(), Stderr: stderr}
	if err == nil {
		res.ExitCode = 0
		return res, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if !exitErr.Exited() {
			res.Abnormal = true
			return res, nil
		}
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	// Failed to even start/wait for reasons other than exit status (e.g.
	// executable not found) — this is a real Go error, not a recorded
	// slot failure.
	return res, err
}
