package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/surgeprotector/surgeprotector/internal/output"
)

type outputSink struct {
	writer io.Writer
	close  func() error
	path   string
}

func (s *outputSink) Write(p []byte) (int, error) {
	return s.writer.Write(p)
}

func (s *outputSink) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

func resolveOutputFormat(cmd *cobra.Command) (output.Format, error) {
	value, err := cmd.Flags().GetString("output-format")
	if err != nil {
		return "", err
	}
	return output.ParseFormat(value)
}

// openSink returns stdout for an empty path or "-", otherwise a created file.
func openSink(path string, stdout io.Writer) (*outputSink, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed == "-" {
		if stdout == nil {
			stdout = os.Stdout
		}
		return &outputSink{writer: stdout, path: "-"}, nil
	}

	if err := os.MkdirAll(filepath.Dir(trimmed), 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	file, err := os.Create(trimmed)
	if err != nil {
		return nil, err
	}
	return &outputSink{writer: file, close: file.Close, path: trimmed}, nil
}
