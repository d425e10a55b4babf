package output

import (
	"encoding/json"
	"time"
)

// JSONFormatter renders entries as a JSON array.
type JSONFormatter struct {
	Indent bool
}

// FormatConnections renders a connection ranking as JSON.
func (f *JSONFormatter) FormatConnections(entries []Entry) (string, error) {
	return f.marshal(connectionRows(entries))
}

// FormatBlocks renders blocked entries as JSON.
func (f *JSONFormatter) FormatBlocks(entries []Entry, now time.Time) (string, error) {
	return f.marshal(blockRows(entries, now))
}

func (f *JSONFormatter) marshal(v any) (string, error) {
	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return "", err
	}

	return string(data) + "\n", nil
}
