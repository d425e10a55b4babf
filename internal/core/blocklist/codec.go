package blocklist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/surgeprotector/surgeprotector/internal/core"
)

// linePattern matches one blocklist line after trimming. The address is
// captured either bracketed (group 1) or bare (group 2).
var linePattern = regexp.MustCompile(`^ExitPolicy reject (?:\[([0-9a-z.:]+)\]|([0-9a-z.:]+)) # ([0-9]+)$`)

// ParseLine parses a single line. ok is false for anything that does not
// match the grammar, including timestamps that overflow int64.
func ParseLine(line string) (core.AddressRecord, bool) {
	m := linePattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return core.AddressRecord{}, false
	}

	address := m[1]
	if address == "" {
		address = m[2]
	}

	ts, err := strconv.ParseInt(m[3], 10, 64)
	if err != nil {
		return core.AddressRecord{}, false
	}

	return core.AddressRecord{Address: address, BlockedAt: ts}, true
}

// FormatLine renders a record without a trailing newline. Addresses containing
// a colon are bracketed.
func FormatLine(record core.AddressRecord) string {
	if record.IsIPv6() {
		return fmt.Sprintf("ExitPolicy reject [%s] # %d", record.Address, record.BlockedAt)
	}
	return fmt.Sprintf("ExitPolicy reject %s # %d", record.Address, record.BlockedAt)
}

// Decode reads records in input order, skipping lines that do not match.
// Lines of any length are accepted; overlong ones simply never match.
func Decode(r io.Reader) ([]core.AddressRecord, error) {
	records := make([]core.AddressRecord, 0)

	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			if record, ok := ParseLine(line); ok {
				records = append(records, record)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	return records, nil
}

// Encode writes one line per record.
func Encode(w io.Writer, records []core.AddressRecord) error {
	bw := bufio.NewWriter(w)
	for _, record := range records {
		if _, err := bw.WriteString(FormatLine(record)); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
