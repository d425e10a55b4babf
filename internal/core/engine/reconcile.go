package engine

import (
	"sort"
	"time"

	"github.com/surgeprotector/surgeprotector/internal/core"
)

// Params are the thresholds for one reconciliation.
type Params struct {
	// Limit is the connection count an address must strictly exceed to be
	// blocked.
	Limit int
	// TTL is how long an entry lives, measured from when it was first blocked.
	TTL time.Duration
	// Now anchors expiry and the timestamp of new entries.
	Now time.Time
}

// Reconcile computes the next blocklist from the previously persisted records
// and the current connection snapshot.
//
// Expiry is evaluated before flood detection: an entry whose age reaches TTL
// is dropped even when its address is still flooding, and that address is
// then re-added with a fresh timestamp. Retained entries keep their original
// timestamp.
func Reconcile(previous []core.AddressRecord, snapshot core.Snapshot, params Params) *core.Result {
	now := params.Now.Unix()
	ttl := int64(params.TTL / time.Second)

	next := core.NewBlocklist()
	expiredSeen := make(map[string]bool)
	expiredOrder := make([]string, 0)

	for _, record := range previous {
		if now-record.BlockedAt >= ttl {
			if !expiredSeen[record.Address] {
				expiredSeen[record.Address] = true
				expiredOrder = append(expiredOrder, record.Address)
			}
			continue
		}
		// Add ignores repeats, so the first live line's timestamp wins.
		next.Add(record)
	}

	// An address with both a stale and a live line is retained, not expired.
	expired := make([]string, 0, len(expiredOrder))
	for _, address := range expiredOrder {
		if next.Contains(address) {
			continue
		}
		expired = append(expired, address)
	}

	added := floodingAddresses(snapshot, params.Limit, next)
	for _, address := range added {
		next.Add(core.AddressRecord{Address: address, BlockedAt: now})
	}

	return &core.Result{
		Next:    next,
		Added:   added,
		Expired: expired,
	}
}

// floodingAddresses returns the addresses over limit that are not already in
// retained, ordered by count descending then address.
func floodingAddresses(snapshot core.Snapshot, limit int, retained *core.Blocklist) []string {
	type offender struct {
		address string
		count   int
	}

	offenders := make([]offender, 0)
	for address, count := range snapshot {
		if count <= limit || retained.Contains(address) {
			continue
		}
		offenders = append(offenders, offender{address: address, count: count})
	}

	sort.Slice(offenders, func(i, j int) bool {
		if offenders[i].count != offenders[j].count {
			return offenders[i].count > offenders[j].count
		}
		return offenders[i].address < offenders[j].address
	})

	out := make([]string, 0, len(offenders))
	for _, o := range offenders {
		out = append(out, o.address)
	}
	return out
}

// Decide maps a reconciliation result to the command that should run.
func Decide(result *core.Result, policy core.Policy) core.Action {
	if !result.Changed() {
		return core.Action{Kind: core.ActionNone}
	}

	if policy.Mode == core.NotifySimple || len(result.Added) > 0 {
		return core.Action{Kind: core.ActionChange, Command: policy.OnChange}
	}

	if policy.OnExpire != "" {
		return core.Action{Kind: core.ActionExpire, Command: policy.OnExpire}
	}
	return core.Action{Kind: core.ActionChange, Command: policy.OnChange}
}
