package integration

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func buildBinary(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("builds the binary")
	}
	if runtime.GOOS == "windows" {
		t.Skip("standalone binary copy/exec test is unix-focused")
	}

	goModPathBytes, err := exec.Command("go", "env", "GOMOD").Output()
	if err != nil {
		t.Fatalf("go env GOMOD: %v", err)
	}
	goModPath := strings.TrimSpace(string(goModPathBytes))
	if goModPath == "" {
		t.Fatalf("go env GOMOD returned empty")
	}
	repoRoot := filepath.Dir(goModPath)

	binaryPath := filepath.Join(t.TempDir(), "surgeprotector")
	build := exec.Command("go", "build", "-o", binaryPath, "./cmd/surgeprotector")
	build.Dir = repoRoot
	build.Env = os.Environ()
	if out, err := build.CombinedOutput(); err != nil {
		t.Fatalf("go build: %v\n%s", err, string(out))
	}
	return binaryPath
}

// isolatedCommand runs the binary outside the repo with no user config.
func isolatedCommand(t *testing.T, binary string, args ...string) *exec.Cmd {
	t.Helper()
	cmd := exec.Command(binary, args...)
	cmd.Dir = t.TempDir()
	cmd.Env = append(os.Environ(), "XDG_CONFIG_HOME="+t.TempDir())
	return cmd
}

func TestStandaloneBinaryVersionAndHelpWorkOutsideRepo(t *testing.T) {
	binary := buildBinary(t)

	if out, err := isolatedCommand(t, binary, "version").CombinedOutput(); err != nil {
		t.Fatalf("version failed: %v\n%s", err, string(out))
	} else if !strings.HasPrefix(string(out), "surgeprotector ") {
		t.Fatalf("unexpected version output: %s", string(out))
	}

	if out, err := isolatedCommand(t, binary, "--help").CombinedOutput(); err != nil {
		t.Fatalf("--help failed: %v\n%s", err, string(out))
	}
}

func TestStandaloneBinaryShowFile(t *testing.T) {
	binary := buildBinary(t)

	path := filepath.Join(t.TempDir(), "blocklist")
	content := "ExitPolicy reject 1.2.3.4 # 1700000000\nExitPolicy reject [fe80::1] # 1700000100\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write blocklist: %v", err)
	}

	out, err := isolatedCommand(t, binary, "show", "--file", path, "-n", "1").Output()
	if err != nil {
		t.Fatalf("show --file failed: %v", err)
	}
	if got, want := string(out), "2023-11-14T22:15:00Z fe80::1\n"; got != want {
		t.Fatalf("show --file output = %q, want %q", got, want)
	}
}

func TestStandaloneBinaryFailuresExitNonZero(t *testing.T) {
	binary := buildBinary(t)

	cases := map[string][]string{
		"missing show file": {"show", "--file", filepath.Join(t.TempDir(), "absent")},
		"bad limit":         {"update", "-", "lots"},
		"missing output":    {"update"},
	}

	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			err := isolatedCommand(t, binary, args...).Run()
			var exitErr *exec.ExitError
			if !errors.As(err, &exitErr) {
				t.Fatalf("expected exit error, got %v", err)
			}
			if exitErr.ExitCode() == 0 {
				t.Fatalf("expected non-zero exit code")
			}
		})
	}
}
