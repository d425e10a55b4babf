package output

import (
	"sort"

	"github.com/surgeprotector/surgeprotector/internal/core"
)

// Entry is one ranked address. Key is a connection count or a block
// timestamp depending on the source.
type Entry struct {
	Key     int64
	Address string
}

// Top sorts entries ascending by key (ties by address) and returns the last
// n, so the highest key is last. n <= 0 returns every entry. The input is not
// modified.
func Top(n int, entries []Entry) []Entry {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Key != sorted[j].Key {
			return sorted[i].Key < sorted[j].Key
		}
		return sorted[i].Address < sorted[j].Address
	})

	if n <= 0 || n >= len(sorted) {
		return sorted
	}
	return sorted[len(sorted)-n:]
}

// EntriesFromSnapshot keys entries by connection count.
func EntriesFromSnapshot(snapshot core.Snapshot) []Entry {
	entries := make([]Entry, 0, len(snapshot))
	for address, count := range snapshot {
		entries = append(entries, Entry{Key: int64(count), Address: address})
	}
	return entries
}

// EntriesFromRecords keys entries by block timestamp.
func EntriesFromRecords(records []core.AddressRecord) []Entry {
	entries := make([]Entry, 0, len(records))
	for _, record := range records {
		entries = append(entries, Entry{Key: record.BlockedAt, Address: record.Address})
	}
	return entries
}
