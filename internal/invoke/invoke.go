// Package invoke launches the external simulator once per materialized run
// directory. Runs execute sequentially: the batch driver is I/O bound and
// the simulator parallelizes internally, so stacking processes buys nothing.
package invoke

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultLogName is the file each run's combined stdout/stderr is teed to,
// inside the run directory.
const DefaultLogName = "sim.log"

// Options controls batch invocation behavior.
type Options struct {
	// HaltOnFailure aborts the batch at the first non-zero exit instead of
	// recording the failure and continuing.
	HaltOnFailure bool

	// LogName overrides DefaultLogName when set.
	LogName string
}

// Result records the outcome of one run's invocation.
type Result struct {
	RunID    string
	Dir      string
	ExitCode int
	Err      error
}

// ProcessError reports a simulator process that exited non-zero, carrying
// the run identity so the operator can find the failing directory.
type ProcessError struct {
	RunID    string
	Dir      string
	ExitCode int
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("simulator failed in %s (%s): exit status %d", e.RunID, e.Dir, e.ExitCode)
}

// SplitCommand splits a command template like `lmp -in "in.lmp"` into argv,
// honoring double and single quotes. It rejects empty and unterminated
// input.
func SplitCommand(cmdline string) ([]string, error) {
	var argv []string
	var cur strings.Builder
	var quote rune
	inToken := false
	for _, r := range cmdline {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inToken = true
		case r == ' ' || r == '\t':
			if inToken {
				argv = append(argv, cur.String())
				cur.Reset()
				inToken = false
			}
		default:
			cur.WriteRune(r)
			inToken = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in command %q", cmdline)
	}
	if inToken {
		argv = append(argv, cur.String())
	}
	if len(argv) == 0 {
		return nil, errors.New("empty command")
	}
	return argv, nil
}

// Run executes argv with dir as the working directory, required because the
// input document references its sibling artifacts by relative path. The
// combined output is written to the run's log file. Cancelling ctx kills
// the process; there is no internal timeout.
func Run(ctx context.Context, runID, dir string, argv []string, logName string) (int, error) {
	if logName == "" {
		logName = DefaultLogName
	}
	logFile, err := os.Create(filepath.Join(dir, logName))
	if err != nil {
		return -1, fmt.Errorf("creating simulator log in %s: %w", dir, err)
	}
	defer logFile.Close()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	err = cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		return code, &ProcessError{RunID: runID, Dir: dir, ExitCode: code}
	}
	// Launch failure: command not found, permission denied, cancelled ctx.
	return -1, fmt.Errorf("launching simulator for %s: %w", runID, err)
}

// Batch invokes argv in each run directory in order. A failed run is
// recorded and the batch continues unless HaltOnFailure is set: one bad
// seed should not discard N-1 finished runs.
func Batch(ctx context.Context, runs []RunRef, argv []string, opts Options, log *slog.Logger) ([]Result, error) {
	results := make([]Result, 0, len(runs))
	for _, run := range runs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		log.Info("invoking simulator", "run", run.ID, "dir", run.Dir)
		code, err := Run(ctx, run.ID, run.Dir, argv, opts.LogName)
		results = append(results, Result{RunID: run.ID, Dir: run.Dir, ExitCode: code, Err: err})
		if err != nil {
			log.Error("simulator run failed", "run", run.ID, "exit_code", code, "error", err)
			if opts.HaltOnFailure {
				return results, err
			}
			continue
		}
		log.Info("simulator run finished", "run", run.ID)
	}
	return results, nil
}

// RunRef identifies one run directory to invoke in.
type RunRef struct {
	ID  string
	Dir string
}
