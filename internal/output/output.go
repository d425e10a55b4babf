package output

import (
	"fmt"
	"strings"
	"time"
)

// Format represents an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// TimestampLayout is how block timestamps are printed.
const TimestampLayout = "2006-01-02T15:04:05Z"

// Formatter renders ranked entries.
type Formatter interface {
	// FormatConnections renders entries keyed by connection count.
	FormatConnections(entries []Entry) (string, error)
	// FormatBlocks renders entries keyed by block timestamp; now is used
	// for ages.
	FormatBlocks(entries []Entry, now time.Time) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatText):
		return FormatText, nil
	case string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatYAML), "yml":
		return FormatYAML, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatTable:
		return &TableFormatter{}
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatYAML:
		return &YAMLFormatter{}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TextFormatter{}
	}
}

func formatTimestamp(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(TimestampLayout)
}
