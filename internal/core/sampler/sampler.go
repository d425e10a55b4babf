// Package sampler enumerates established TCP connections and counts them per
// remote address.
package sampler

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/surgeprotector/surgeprotector/internal/core"
)

// Sampler returns the current connection counts per remote address.
type Sampler interface {
	Sample(ctx context.Context) (core.Snapshot, error)
}

// Func adapts a function to the Sampler interface.
type Func func(ctx context.Context) (core.Snapshot, error)

// Sample calls f.
func (f Func) Sample(ctx context.Context) (core.Snapshot, error) {
	return f(ctx)
}

// Family selects which address families the system sampler queries.
type Family string

const (
	FamilyIPv4 Family = "ipv4"
	FamilyIPv6 Family = "ipv6"
)

// ParseFamilies validates family names. An empty list selects both.
func ParseFamilies(values []string) ([]Family, error) {
	if len(values) == 0 {
		return []Family{FamilyIPv4, FamilyIPv6}, nil
	}

	seen := make(map[Family]bool)
	out := make([]Family, 0, len(values))
	for _, value := range values {
		family := Family(strings.ToLower(strings.TrimSpace(value)))
		switch family {
		case FamilyIPv4, FamilyIPv6:
		case "":
			continue
		default:
			return nil, fmt.Errorf("unsupported address family: %s", value)
		}
		if seen[family] {
			continue
		}
		seen[family] = true
		out = append(out, family)
	}
	if len(out) == 0 {
		return []Family{FamilyIPv4, FamilyIPv6}, nil
	}
	return out, nil
}

// addRemote counts one connection toward its remote address. Sockets without
// a resolved remote endpoint, such as listeners, are ignored.
func addRemote(snapshot core.Snapshot, remote net.IP, port uint16) {
	if remote == nil || remote.IsUnspecified() || port == 0 {
		return
	}
	snapshot[remote.String()]++
}
