package output

import (
	"time"

	"github.com/hako/durafmt"
)

type connectionRow struct {
	Address     string `json:"address" yaml:"address"`
	Connections int64  `json:"connections" yaml:"connections"`
}

type blockRow struct {
	Address       string `json:"address" yaml:"address"`
	BlockedAt     string `json:"blocked_at" yaml:"blocked_at"`
	BlockedAtUnix int64  `json:"blocked_at_unix" yaml:"blocked_at_unix"`
	AgeSeconds    int64  `json:"age_seconds" yaml:"age_seconds"`
}

func connectionRows(entries []Entry) []connectionRow {
	rows := make([]connectionRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, connectionRow{Address: e.Address, Connections: e.Key})
	}
	return rows
}

func blockRows(entries []Entry, now time.Time) []blockRow {
	rows := make([]blockRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, blockRow{
			Address:       e.Address,
			BlockedAt:     formatTimestamp(e.Key),
			BlockedAtUnix: e.Key,
			AgeSeconds:    int64(ageOf(e.Key, now) / time.Second),
		})
	}
	return rows
}

func ageOf(unix int64, now time.Time) time.Duration {
	age := now.Sub(time.Unix(unix, 0))
	if age < 0 {
		return 0
	}
	return age
}

// humanAge renders an age like "3 hours 12 minutes".
func humanAge(age time.Duration) string {
	if age < time.Second {
		return "just now"
	}
	return durafmt.Parse(age.Truncate(time.Second)).LimitFirstN(2).String()
}
