// Package toolchain drives the external C-family compiler driver that turns
// emitted LLVM IR into a native artifact (spec.md §4.6 "Toolchain
// invocation"). Grounded on lang/ya/main.go's findBinary (environment
// variable override of a search path, falling back to PATH) and runStage
// (os/exec.Command invocation with captured stderr), adapted from a
// multi-binary pipeline to one driver invocation, plus
// original_source/compiler/src/codegen/linker.rs for path validation and
// default runtime archive resolution.
package toolchain

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// driverEnvVar overrides which compiler driver binary to invoke.
const driverEnvVar = "CEM_CC"

// runtimeEnvVar overrides the default runtime archive path.
const runtimeEnvVar = "CEM_RUNTIME"

const defaultDriver = "clang"
const defaultRuntimeArchive = "runtime/libcem_runtime.a"

// Error is a toolchain-stage failure (spec.md §7 "Codegen error: ...
// linker/toolchain failure").
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

func errf(format string, args ...interface{}) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// validatePath rejects a path that would be misread as a flag or that
// contains a ".." component (spec.md §4.6 "Path validation for emitted
// artifacts"). Absolute paths are accepted.
func validatePath(path string) error {
	if strings.HasPrefix(path, "-") {
		return errf("invalid path %q: cannot start with '-'", path)
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return errf("invalid path %q: cannot contain '..'", path)
		}
	}
	return nil
}

// RuntimeArchivePath resolves the runtime static library location: an
// explicit override if non-empty, else $CEM_RUNTIME, else the built-in
// default (spec.md §4.6 "Runtime archive").
func RuntimeArchivePath(override string) string {
	if override != "" {
		return override
	}
	if p := os.Getenv(runtimeEnvVar); p != "" {
		return p
	}
	return defaultRuntimeArchive
}

// findDriver resolves the compiler driver binary: $CEM_CC if set, else the
// default name looked up on PATH.
func findDriver() (string, error) {
	if p := os.Getenv(driverEnvVar); p != "" {
		return p, nil
	}
	path, err := exec.LookPath(defaultDriver)
	if err != nil {
		return "", errf("compiler driver %q not found in PATH (set %s to override)", defaultDriver, driverEnvVar)
	}
	return path, nil
}

// Options configures one toolchain invocation.
type Options struct {
	// Output is the path of the final artifact, without extension
	// (an executable, or an object file when ObjectOnly is set).
	Output string
	// RuntimeArchive overrides the runtime static library path; empty
	// means resolve via RuntimeArchivePath("").
	RuntimeArchive string
	// ObjectOnly produces Output+".o" via -c instead of linking an
	// executable.
	ObjectOnly bool
}

// Result reports the artifact paths produced by a successful invocation.
type Result struct {
	IRFile     string
	ObjectFile string // set only when Options.ObjectOnly
	Executable string // set only when !Options.ObjectOnly
}

// Run writes ir to "<Output>.ll" and invokes the compiler driver to produce
// either an object file or a linked executable (spec.md §4.6 "Toolchain
// invocation"). Non-zero driver exit is reported as a toolchain error.
func Run(ir string, opts Options) (*Result, error) {
	if opts.Output == "" {
		return nil, errf("output path must not be empty")
	}
	if err := validatePath(opts.Output); err != nil {
		return nil, err
	}
	runtimeArchive := RuntimeArchivePath(opts.RuntimeArchive)
	if !opts.ObjectOnly {
		if err := validatePath(runtimeArchive); err != nil {
			return nil, err
		}
	}

	irFile := opts.Output + ".ll"
	if err := os.WriteFile(irFile, []byte(ir), 0644); err != nil {
		return nil, errf("failed to write %s: %v", irFile, err)
	}

	driver, err := findDriver()
	if err != nil {
		return nil, err
	}

	res := &Result{IRFile: irFile}
	var args []string
	if opts.ObjectOnly {
		objFile := opts.Output + ".o"
		args = []string{"-c", irFile, "-o", objFile, "-O2", "-Wno-override-module"}
		res.ObjectFile = objFile
	} else {
		args = []string{irFile, runtimeArchive, "-o", opts.Output, "-O2", "-Wno-override-module"}
		res.Executable = opts.Output
	}

	if err := runDriver(driver, args); err != nil {
		return nil, err
	}
	return res, nil
}

// runDriver executes the compiler driver, folding captured stderr into the
// returned error (lang/ya/main.go's runStage/runAssembler idiom).
func runDriver(driver string, args []string) error {
	cmd := exec.Command(driver, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return errf("%s", strings.TrimSpace(stderr.String()))
		}
		return errf("failed to execute %s: %v", driver, err)
	}
	return nil
}
