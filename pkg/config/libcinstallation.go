package config

import (
	"bufio"
	"os"
	"strings"

	"github.com/xackus/zigc/pkg/errs"
)

// LibCInstallation is the parsed form of a "libc installation description"
// file: the paths a native build links against when it targets the host's
// already-installed libc instead of having zigc bootstrap one from source
// (§4.7's CRT/runtime sub-compilations are the from-source path; this is
// the other one spec.md §7 reserves the LibCInstallation* errors for).
// Shape: one key=value pair per line; blank lines and lines starting with
// "#" are skipped. It is line-oriented like pkg/legacybackend's libs.txt,
// which holds one bare library name per line instead.
type LibCInstallation struct {
	IncludeDir     string
	SysIncludeDir  string
	CrtDir         string
	MsvcLibDir     string
	Kernel32LibDir string
}

// ParseLibCInstallation reads and validates a libc installation file
// (spec.md §7 "Configuration errors ... LibCInstallationNotAvailable,
// LibCInstallationMissingCRTDir"). A missing or unreadable file means the
// installation itself isn't available; a file that parses but never sets
// crt_dir, or whose crt_dir doesn't exist on disk, is missing its CRT
// directory.
func ParseLibCInstallation(path string) (LibCInstallation, error) {
	f, err := os.Open(path)
	if err != nil {
		return LibCInstallation{}, errs.ErrLibCInstallationNotAvailable
	}
	defer f.Close()

	var li LibCInstallation
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "include_dir":
			li.IncludeDir = value
		case "sys_include_dir":
			li.SysIncludeDir = value
		case "crt_dir":
			li.CrtDir = value
		case "msvc_lib_dir":
			li.MsvcLibDir = value
		case "kernel32_lib_dir":
			li.Kernel32LibDir = value
		}
	}
	if err := scanner.Err(); err != nil {
		return LibCInstallation{}, errs.ErrLibCInstallationNotAvailable
	}

	if li.CrtDir == "" {
		return LibCInstallation{}, errs.ErrLibCInstallationMissingCRT
	}
	if info, err := os.Stat(li.CrtDir); err != nil || !info.IsDir() {
		return LibCInstallation{}, errs.ErrLibCInstallationMissingCRT
	}
	return li, nil
}
