package core

import (
	"errors"
	"strings"
)

// Failure classes surfaced by a reconciliation cycle. Callers test for them
// with errors.Is; each is wrapped with the underlying cause.
var (
	ErrSampling   = errors.New("connection sampling failed")
	ErrStoreRead  = errors.New("blocklist read failed")
	ErrStoreWrite = errors.New("blocklist write failed")
)

// AddressRecord is a single blocked address and the Unix time (seconds) at
// which it was first blocked.
type AddressRecord struct {
	Address   string `json:"address" yaml:"address"`
	BlockedAt int64  `json:"blocked_at" yaml:"blocked_at"`
}

// IsIPv6 reports whether the address is written in IPv6 form. The decision is
// purely syntactic.
func (r AddressRecord) IsIPv6() bool {
	return strings.Contains(r.Address, ":")
}

// Snapshot maps a remote address to its concurrent TCP connection count.
type Snapshot map[string]int

// Blocklist is an ordered set of AddressRecords keyed by address. Iteration
// order is insertion order.
type Blocklist struct {
	records []AddressRecord
	index   map[string]int
}

// NewBlocklist returns an empty blocklist.
func NewBlocklist() *Blocklist {
	return &Blocklist{index: make(map[string]int)}
}

// Add appends a record. It returns false and leaves the list untouched if the
// address is already present.
func (b *Blocklist) Add(record AddressRecord) bool {
	if b.index == nil {
		b.index = make(map[string]int)
	}
	if _, ok := b.index[record.Address]; ok {
		return false
	}
	b.index[record.Address] = len(b.records)
	b.records = append(b.records, record)
	return true
}

// Get returns the record for address.
func (b *Blocklist) Get(address string) (AddressRecord, bool) {
	if b == nil {
		return AddressRecord{}, false
	}
	i, ok := b.index[address]
	if !ok {
		return AddressRecord{}, false
	}
	return b.records[i], true
}

// Contains reports whether address is present.
func (b *Blocklist) Contains(address string) bool {
	_, ok := b.Get(address)
	return ok
}

// Len returns the number of records.
func (b *Blocklist) Len() int {
	if b == nil {
		return 0
	}
	return len(b.records)
}

// Records returns a copy of the records in order.
func (b *Blocklist) Records() []AddressRecord {
	if b == nil {
		return nil
	}
	out := make([]AddressRecord, len(b.records))
	copy(out, b.records)
	return out
}

// Addresses returns the addresses in order.
func (b *Blocklist) Addresses() []string {
	if b == nil {
		return nil
	}
	out := make([]string, 0, len(b.records))
	for _, r := range b.records {
		out = append(out, r.Address)
	}
	return out
}

// Result is the outcome of reconciling one cycle.
type Result struct {
	Next    *Blocklist `json:"-" yaml:"-"`
	Added   []string   `json:"added" yaml:"added"`
	Expired []string   `json:"expired" yaml:"expired"`
}

// Changed reports whether the next blocklist differs from the loaded one in
// a way that warrants persisting it.
func (r *Result) Changed() bool {
	if r == nil {
		return false
	}
	return len(r.Added) > 0 || len(r.Expired) > 0
}

// NotifyMode selects how a change is mapped to a reload command.
type NotifyMode string

const (
	// NotifySimple runs the on-change command for any change.
	NotifySimple NotifyMode = "simple"
	// NotifyDifferentiated runs the on-expire command when a change consists
	// only of expiries, falling back to the on-change command.
	NotifyDifferentiated NotifyMode = "differentiated"
)

// ParseNotifyMode validates and normalizes a mode string. Empty selects
// NotifyDifferentiated.
func ParseNotifyMode(value string) (NotifyMode, error) {
	switch NotifyMode(strings.ToLower(strings.TrimSpace(value))) {
	case "", NotifyDifferentiated:
		return NotifyDifferentiated, nil
	case NotifySimple:
		return NotifySimple, nil
	default:
		return "", errors.New("unsupported notify mode: " + value)
	}
}

// Policy is the notification configuration applied to a changed result.
type Policy struct {
	Mode     NotifyMode
	OnChange string
	OnExpire string
}

// ActionKind identifies which command a cycle decided to run.
type ActionKind string

const (
	ActionNone   ActionKind = "none"
	ActionChange ActionKind = "change"
	ActionExpire ActionKind = "expire"
)

// Action is the notification decision for a cycle. Command may be empty when
// the selected kind has no command configured.
type Action struct {
	Kind    ActionKind `json:"kind" yaml:"kind"`
	Command string     `json:"command,omitempty" yaml:"command,omitempty"`
}
