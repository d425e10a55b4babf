package output

import (
	"time"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter renders entries as a YAML sequence.
type YAMLFormatter struct{}

// FormatConnections renders a connection ranking as YAML.
func (f *YAMLFormatter) FormatConnections(entries []Entry) (string, error) {
	return marshalYAML(connectionRows(entries))
}

// FormatBlocks renders blocked entries as YAML.
func (f *YAMLFormatter) FormatBlocks(entries []Entry, now time.Time) (string, error) {
	return marshalYAML(blockRows(entries, now))
}

func marshalYAML(v any) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
