// Package launcher starts the legacy live-trading program the way the
// original run_live.sh wrapper did: from its own directory, with the
// module search path pointed at that directory, and with the child's
// exit status forwarded verbatim.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/openfund/livetrader/internal/core"
)

// SearchPathVar is the environment variable that tells the child
// interpreter where to find local modules.
const SearchPathVar = "PYTHONPATH"

// DefaultTicker is the single ticker the active launch path runs with.
const DefaultTicker = "AAPL"

// tickersFlag is the flag the target program parses; the launcher
// itself never interprets it.
const tickersFlag = "--tickers"

// Options configures a launch.
type Options struct {
	// Interpreter is the environment manager invoked by name on PATH.
	Interpreter string
	// RunnerArgs are the interpreter's leading arguments (e.g. "run", "python").
	RunnerArgs []string
	// Script is the target module path passed to the interpreter.
	Script string
	// Dir is the working directory for the child. When empty it is
	// resolved from the running executable's own location.
	Dir string
	// Stdout and Stderr receive the child's output. Defaults to the
	// launcher's own streams.
	Stdout io.Writer
	Stderr io.Writer
}

// Result reports the outcome of a completed launch.
type Result struct {
	// ExitCode is the child's exit status, propagated unchanged.
	ExitCode int
	// Argv is the full command line that was executed.
	Argv []string
	// Dir is the working directory the child ran in.
	Dir string
}

// SelfDir resolves the directory containing the running executable,
// following symlinks. The launcher must behave identically regardless
// of the caller's working directory, so the invoker's CWD is never used.
func SelfDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", core.WrapError(core.ErrDirResolution, err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", core.WrapError(core.ErrDirResolution, err)
	}
	return filepath.Dir(resolved), nil
}

// BuildEnv returns a copy of base with the search-path variable added
// or overwritten to point at dir.
func BuildEnv(base []string, dir string) []string {
	prefix := SearchPathVar + "="
	env := make([]string, 0, len(base)+1)
	for _, kv := range base {
		if len(kv) >= len(prefix) && kv[:len(prefix)] == prefix {
			continue
		}
		env = append(env, kv)
	}
	return append(env, prefix+dir)
}

// BuildArgv constructs the child command line. Caller-supplied
// arguments are accepted but ignored: the active path always runs the
// single fixed ticker. Known limitation carried over from the shell
// wrapper, where the forwarding line was left commented out.
func BuildArgv(opts Options, callerArgs []string) []string {
	argv := make([]string, 0, len(opts.RunnerArgs)+4)
	argv = append(argv, opts.RunnerArgs...)
	argv = append(argv, opts.Script)
	argv = append(argv, tickersFlag, DefaultTicker)
	// argv = append(argv, tickersFlag)
	// argv = append(argv, callerArgs...)
	return argv
}

// Run performs the launch: resolve the launcher's directory, chdir
// into it, set up the child environment, spawn the interpreter and
// block until it exits. Directory setup always completes before the
// child is spawned. The wait is unbounded; a non-zero child exit is
// not an error here, it is reported through Result.ExitCode.
func Run(ctx context.Context, opts Options, callerArgs []string) (*Result, error) {
	dir := opts.Dir
	if dir == "" {
		var err error
		dir, err = SelfDir()
		if err != nil {
			return nil, err
		}
	}

	if err := os.Chdir(dir); err != nil {
		return nil, core.WrapError(core.ErrDirResolution, err)
	}

	argv := BuildArgv(opts, callerArgs)

	cmd := exec.CommandContext(ctx, opts.Interpreter, argv...)
	cmd.Dir = dir
	cmd.Env = BuildEnv(os.Environ(), dir)
	cmd.Stdin = os.Stdin
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	err := cmd.Run()
	result := &Result{
		ExitCode: 0,
		Argv:     append([]string{opts.Interpreter}, argv...),
		Dir:      dir,
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// Child ran and exited non-zero: propagate, never translate.
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		if errors.Is(err, exec.ErrNotFound) {
			return nil, core.WrapError(core.ErrInterpreterMissing,
				fmt.Errorf("%s: %w", opts.Interpreter, err))
		}
		return nil, core.WrapError(core.ErrSpawnFailed, err)
	}

	return result, nil
}
