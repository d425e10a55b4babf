package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/surgeprotector/surgeprotector/internal/core"
)

// Store loads and persists the blocklist.
type Store interface {
	Load(ctx context.Context) ([]core.AddressRecord, error)
	Save(ctx context.Context, records []core.AddressRecord) error
}

// Sampler returns the current connection counts per remote address.
type Sampler interface {
	Sample(ctx context.Context) (core.Snapshot, error)
}

// Notifier runs a reload command.
type Notifier interface {
	Notify(ctx context.Context, command string) error
}

// Cycle runs one reconciliation: load, sample, reconcile, persist, notify.
type Cycle struct {
	Store    Store
	Sampler  Sampler
	Notifier Notifier
	Params   Params
	Policy   core.Policy
	Clock    func() time.Time
	// DryRun computes the result without writing or notifying.
	DryRun bool
}

// Report describes what a cycle did.
type Report struct {
	CycleID   string       `json:"cycle_id" yaml:"cycle_id"`
	Now       time.Time    `json:"now" yaml:"now"`
	Loaded    int          `json:"loaded" yaml:"loaded"`
	Sampled   int          `json:"sampled" yaml:"sampled"`
	Result    *core.Result `json:"result" yaml:"result"`
	Action    core.Action  `json:"action" yaml:"action"`
	Persisted bool         `json:"persisted" yaml:"persisted"`
	Notified  bool         `json:"notified" yaml:"notified"`
	DryRun    bool         `json:"dry_run" yaml:"dry_run"`
	// NotifyErr is set when the reload command failed. It never fails the
	// cycle; the persisted blocklist stands.
	NotifyErr error `json:"-" yaml:"-"`
}

// Run executes the cycle. Errors wrap core.ErrStoreRead, core.ErrSampling or
// core.ErrStoreWrite; nothing is written unless the full next blocklist is
// known.
func (c *Cycle) Run(ctx context.Context) (*Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.Store == nil || c.Sampler == nil {
		return nil, errors.New("cycle requires a store and a sampler")
	}

	clock := c.Clock
	if clock == nil {
		clock = time.Now
	}

	params := c.Params
	params.Now = clock()

	report := &Report{
		CycleID: uuid.NewString(),
		Now:     params.Now,
		DryRun:  c.DryRun,
		Action:  core.Action{Kind: core.ActionNone},
	}

	previous, err := c.Store.Load(ctx)
	if err != nil {
		return report, ensureClass(err, core.ErrStoreRead)
	}
	report.Loaded = len(previous)

	snapshot, err := c.Sampler.Sample(ctx)
	if err != nil {
		return report, ensureClass(err, core.ErrSampling)
	}
	report.Sampled = len(snapshot)

	result := Reconcile(previous, snapshot, params)
	report.Result = result

	if !result.Changed() {
		return report, nil
	}

	report.Action = Decide(result, c.Policy)
	if c.DryRun {
		return report, nil
	}

	if err := c.Store.Save(ctx, result.Next.Records()); err != nil {
		return report, ensureClass(err, core.ErrStoreWrite)
	}
	report.Persisted = true

	if report.Action.Command == "" || c.Notifier == nil {
		return report, nil
	}

	report.Notified = true
	if err := c.Notifier.Notify(ctx, report.Action.Command); err != nil {
		report.NotifyErr = err
	}
	return report, nil
}

func ensureClass(err error, class error) error {
	if errors.Is(err, class) {
		return err
	}
	return fmt.Errorf("%w: %w", class, err)
}
