//go:build !linux

package sampler

import (
	"context"
	"fmt"
	"runtime"

	"github.com/surgeprotector/surgeprotector/internal/core"
)

// System is unavailable outside Linux; Sample always fails.
type System struct {
	families []Family
}

// NewSystem returns a sampler that reports the platform as unsupported.
func NewSystem(families []Family) *System {
	return &System{families: families}
}

// Sample returns core.ErrSampling.
func (s *System) Sample(ctx context.Context) (core.Snapshot, error) {
	return nil, fmt.Errorf("%w: socket enumeration is not supported on %s", core.ErrSampling, runtime.GOOS)
}
