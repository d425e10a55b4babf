package output

import (
	"fmt"
	"strings"
	"time"
)

// TextFormatter renders one entry per line in fixed columns.
type TextFormatter struct{}

// FormatConnections renders "<count> <address>" lines, count right-aligned.
func (f *TextFormatter) FormatConnections(entries []Entry) (string, error) {
	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "%6d %s\n", e.Key, e.Address)
	}
	return sb.String(), nil
}

// FormatBlocks renders "<timestamp> <address>" lines.
func (f *TextFormatter) FormatBlocks(entries []Entry, _ time.Time) (string, error) {
	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "%s %s\n", formatTimestamp(e.Key), e.Address)
	}
	return sb.String(), nil
}
