package blocklist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/surgeprotector/surgeprotector/internal/core"
)

// StdoutPath selects standard output as the blocklist destination.
const StdoutPath = "-"

const defaultFileMode fs.FileMode = 0o644

// renameFile is replaced in tests to simulate a failed replace.
var renameFile = os.Rename

// Store reads and writes the blocklist file.
type Store struct {
	path   string
	stdout io.Writer
}

// Open returns a store for path. The file does not need to exist.
func Open(path string) (*Store, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, errors.New("blocklist path is required")
	}
	return &Store{path: trimmed, stdout: os.Stdout}, nil
}

// WithStdout redirects writes for the StdoutPath destination.
func (s *Store) WithStdout(w io.Writer) *Store {
	s.stdout = w
	return s
}

// Path returns the configured destination.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func (s *Store) isStdout() bool {
	return s.path == StdoutPath
}

// Load returns the records in file order. A missing file, or the stdout
// destination, yields an empty list.
func (s *Store) Load(ctx context.Context) ([]core.AddressRecord, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	if s.isStdout() {
		return []core.AddressRecord{}, nil
	}

	file, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []core.AddressRecord{}, nil
		}
		return nil, fmt.Errorf("%w: open %s: %w", core.ErrStoreRead, s.path, err)
	}
	defer file.Close() // nolint:errcheck // read-only handle

	records, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", core.ErrStoreRead, s.path, err)
	}
	return records, nil
}

// Save replaces the file with records. The previous content stays intact
// unless the new content has been fully written and synced.
func (s *Store) Save(ctx context.Context, records []core.AddressRecord) error {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	if s.isStdout() {
		out := s.stdout
		if out == nil {
			out = os.Stdout
		}
		if err := Encode(out, records); err != nil {
			return fmt.Errorf("%w: write stdout: %w", core.ErrStoreWrite, err)
		}
		return nil
	}

	if err := writeAtomic(s.path, records); err != nil {
		return fmt.Errorf("%w: %w", core.ErrStoreWrite, err)
	}
	return nil
}

func writeAtomic(path string, records []core.AddressRecord) error {
	dir := filepath.Dir(path)

	mode := defaultFileMode
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	// Dot-prefixed so directory includes in the consuming daemon skip it.
	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp blocklist: %w", err)
	}
	tmpName := tmpFile.Name()
	removeTemp := true
	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
		}
		if removeTemp {
			_ = os.Remove(tmpName)
		}
	}()

	if err := Encode(tmpFile, records); err != nil {
		return fmt.Errorf("write temp blocklist: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("sync temp blocklist: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp blocklist: %w", err)
	}
	tmpFile = nil

	if err := os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := renameFile(tmpName, path); err != nil {
		return fmt.Errorf("rename %s to %s: %w", tmpName, path, err)
	}
	removeTemp = false
	return nil
}
