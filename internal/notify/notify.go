// Package notify runs the external reload command after the blocklist has
// been written.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/shlex"
)

// Notifier runs a reload command. An empty command is a no-op.
type Notifier interface {
	Notify(ctx context.Context, command string) error
}

// Nop never runs anything.
type Nop struct{}

// Notify returns nil.
func (Nop) Notify(context.Context, string) error { return nil }

// Exec runs commands as subprocesses.
type Exec struct {
	// Shell runs the command through "sh -c". Otherwise the command is split
	// with shell quoting rules and executed directly.
	Shell bool
	// Timeout bounds each run; zero means no limit beyond ctx.
	Timeout time.Duration
	Stdout  io.Writer
	Stderr  io.Writer
}

// ExitError reports a command that ran but did not succeed.
type ExitError struct {
	Command  string
	ExitCode int
	Err      error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command %q exited with code %d: %v", e.Command, e.ExitCode, e.Err)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Notify runs command and waits for it.
func (e *Exec) Notify(ctx context.Context, command string) error {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	args, err := e.argv(command)
	if err != nil {
		return err
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = writerOr(e.Stdout, os.Stdout)
	cmd.Stderr = writerOr(e.Stderr, os.Stderr)

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Command: command, ExitCode: exitErr.ExitCode(), Err: err}
		}
		return fmt.Errorf("run %q: %w", command, err)
	}
	return nil
}

func (e *Exec) argv(command string) ([]string, error) {
	if e.Shell {
		return []string{"sh", "-c", command}, nil
	}

	args, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("failed to parse command %q: %w", command, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	return args, nil
}

func writerOr(w io.Writer, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return fallback
}
