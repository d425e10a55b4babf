package notify

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExecEmptyCommandIsNoop(t *testing.T) {
	n := &Exec{Shell: true}
	require.NoError(t, n.Notify(context.Background(), ""))
	require.NoError(t, n.Notify(context.Background(), "   "))
}

func TestExecShell(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "reloaded")
	var stdout bytes.Buffer
	n := &Exec{Shell: true, Stdout: &stdout, Stderr: &stdout}

	err := n.Notify(context.Background(), "echo reload && touch "+marker)
	require.NoError(t, err)
	require.FileExists(t, marker)
	require.Equal(t, "reload\n", stdout.String())
}

func TestExecDirectSplitsQuotedArguments(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "with space")
	n := &Exec{Shell: false}

	err := n.Notify(context.Background(), `touch "`+marker+`"`)
	require.NoError(t, err)
	require.FileExists(t, marker)
}

func TestExecDirectRejectsBadQuoting(t *testing.T) {
	n := &Exec{}
	err := n.Notify(context.Background(), `touch "unterminated`)
	require.Error(t, err)
}

func TestExecReportsExitCode(t *testing.T) {
	var stderr bytes.Buffer
	n := &Exec{Shell: true, Stderr: &stderr}

	err := n.Notify(context.Background(), "exit 3")
	require.Error(t, err)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	require.Equal(t, 3, exitErr.ExitCode)
	require.Equal(t, "exit 3", exitErr.Command)
}

func TestExecMissingBinary(t *testing.T) {
	n := &Exec{}
	err := n.Notify(context.Background(), "/nonexistent/surgeprotector-reload")
	require.Error(t, err)
}

func TestExecTimeout(t *testing.T) {
	n := &Exec{Shell: true, Timeout: 50 * time.Millisecond}

	start := time.Now()
	err := n.Notify(context.Background(), "sleep 5")
	require.Error(t, err)
	require.Less(t, time.Since(start), 4*time.Second)
}

func TestNop(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "never")
	var n Notifier = Nop{}
	require.NoError(t, n.Notify(context.Background(), "touch "+marker))
	_, err := os.Stat(marker)
	require.True(t, os.IsNotExist(err))
}
