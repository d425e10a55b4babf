//go:build linux

package sampler

import (
	"context"
	"fmt"

	"github.com/vishvananda/netlink"

	"github.com/surgeprotector/surgeprotector/internal/core"
)

// System samples the kernel's TCP socket table through NETLINK_SOCK_DIAG.
type System struct {
	families []Family
}

// NewSystem returns a sampler for the given families (both when empty).
func NewSystem(families []Family) *System {
	if len(families) == 0 {
		families = []Family{FamilyIPv4, FamilyIPv6}
	}
	return &System{families: families}
}

// Sample dumps TCP sockets in every state and counts them per remote
// address.
func (s *System) Sample(ctx context.Context) (core.Snapshot, error) {
	snapshot := make(core.Snapshot)

	for _, family := range s.families {
		if ctx != nil {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		sockets, err := netlink.SocketDiagTCP(netlinkFamily(family))
		if err != nil {
			return nil, fmt.Errorf("%w: tcp socket dump (%s): %w", core.ErrSampling, family, err)
		}
		for _, socket := range sockets {
			if socket == nil {
				continue
			}
			addRemote(snapshot, socket.ID.Destination, socket.ID.DestinationPort)
		}
	}

	return snapshot, nil
}

func netlinkFamily(family Family) uint8 {
	if family == FamilyIPv6 {
		return netlink.FAMILY_V6
	}
	return netlink.FAMILY_V4
}
