package sampler

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/yl2chen/cidranger"

	"github.com/surgeprotector/surgeprotector/internal/core"
)

// Exempt removes addresses inside configured networks from every sample, so
// they can never be blocked.
type Exempt struct {
	next   Sampler
	ranger cidranger.Ranger
	count  int
}

// NewExempt wraps next. Entries are CIDRs or bare addresses (treated as a
// single-host network).
func NewExempt(next Sampler, networks []string) (*Exempt, error) {
	ranger := cidranger.NewPCTrieRanger()
	count := 0

	for _, raw := range networks {
		ipNet, err := ParseNetwork(raw)
		if err != nil {
			return nil, err
		}
		if ipNet == nil {
			continue
		}
		if err := ranger.Insert(cidranger.NewBasicRangerEntry(*ipNet)); err != nil {
			return nil, fmt.Errorf("insert exempt network %s: %w", raw, err)
		}
		count++
	}

	return &Exempt{next: next, ranger: ranger, count: count}, nil
}

// ParseNetwork parses a CIDR or a bare address. Blank input yields nil.
func ParseNetwork(raw string) (*net.IPNet, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	if strings.Contains(value, "/") {
		_, ipNet, err := net.ParseCIDR(value)
		if err != nil {
			return nil, fmt.Errorf("invalid exempt network %q: %w", raw, err)
		}
		return ipNet, nil
	}

	ip := net.ParseIP(value)
	if ip == nil {
		return nil, fmt.Errorf("invalid exempt address %q", raw)
	}
	if v4 := ip.To4(); v4 != nil {
		return &net.IPNet{IP: v4, Mask: net.CIDRMask(32, 32)}, nil
	}
	return &net.IPNet{IP: ip, Mask: net.CIDRMask(128, 128)}, nil
}

// Len returns the number of exempt networks.
func (e *Exempt) Len() int {
	return e.count
}

// Sample samples next and drops exempt addresses.
func (e *Exempt) Sample(ctx context.Context) (core.Snapshot, error) {
	snapshot, err := e.next.Sample(ctx)
	if err != nil {
		return nil, err
	}
	if e.count == 0 {
		return snapshot, nil
	}

	filtered := make(core.Snapshot, len(snapshot))
	for address, count := range snapshot {
		ip := net.ParseIP(address)
		if ip != nil {
			exempt, err := e.ranger.Contains(ip)
			if err != nil {
				return nil, fmt.Errorf("%w: exempt lookup %s: %w", core.ErrSampling, address, err)
			}
			if exempt {
				continue
			}
		}
		filtered[address] = count
	}
	return filtered, nil
}
