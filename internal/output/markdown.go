package output

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter renders entries as a markdown table.
type MarkdownFormatter struct{}

// FormatConnections renders a connection ranking as Markdown.
func (f *MarkdownFormatter) FormatConnections(entries []Entry) (string, error) {
	var sb strings.Builder
	sb.WriteString("| Connections | Address |\n")
	sb.WriteString("|------------:|---------|\n")
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("| %d | %s |\n", e.Key, escapeMarkdownCell(e.Address)))
	}
	return sb.String(), nil
}

// FormatBlocks renders blocked entries as Markdown.
func (f *MarkdownFormatter) FormatBlocks(entries []Entry, now time.Time) (string, error) {
	var sb strings.Builder
	sb.WriteString("| Blocked At | Age | Address |\n")
	sb.WriteString("|------------|-----|---------|\n")
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n",
			formatTimestamp(e.Key),
			escapeMarkdownCell(humanAge(ageOf(e.Key, now))),
			escapeMarkdownCell(e.Address),
		))
	}
	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	value = strings.ReplaceAll(value, "|", "\\|")
	return strings.ReplaceAll(value, "\n", " ")
}
