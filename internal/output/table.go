package output

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// TableFormatter renders entries as an ASCII table.
type TableFormatter struct{}

// FormatConnections renders a connection ranking as a table.
func (f *TableFormatter) FormatConnections(entries []Entry) (string, error) {
	t := newTable()
	t.AppendHeader(table.Row{"Connections", "Address"})

	var total int64
	for _, e := range entries {
		t.AppendRow(table.Row{e.Key, e.Address})
		total += e.Key
	}

	t.AppendFooter(table.Row{total, fmt.Sprintf("%d addresses", len(entries))})
	return t.Render() + "\n", nil
}

// FormatBlocks renders blocked entries with their age.
func (f *TableFormatter) FormatBlocks(entries []Entry, now time.Time) (string, error) {
	t := newTable()
	t.AppendHeader(table.Row{"Blocked At", "Age", "Address"})

	for _, e := range entries {
		t.AppendRow(table.Row{
			formatTimestamp(e.Key),
			humanAge(ageOf(e.Key, now)),
			e.Address,
		})
	}

	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d blocked", len(entries))})
	return t.Render() + "\n", nil
}

// newTable returns a rounded table whose footer keeps its case.
func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	return t
}
