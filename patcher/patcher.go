package patcher

import (
	"fmt"
	"time"

	"github.com/defistate/routematrix-go/differ"
	"github.com/defistate/routematrix-go/engine"
	"github.com/defistate/routematrix-go/matrix"
)

// Patch creates a new Snapshot by applying a diff to the snapshot it was computed from.
//
// The result holds the same set of routes as the snapshot the diff was computed
// against. Surviving routes keep their previous order and added routes follow
// in diff order. oldSnapshot is never mutated; a nil oldSnapshot patches from
// an empty matrix.
func Patch(oldSnapshot *matrix.Snapshot, diff *differ.SnapshotDiff) (*matrix.Snapshot, error) {
	if diff == nil {
		return nil, fmt.Errorf("patcher: diff cannot be nil")
	}

	var oldRoutes []engine.Route
	if oldSnapshot != nil {
		// 1. Integrity Check
		if oldSnapshot.Chain != diff.Chain {
			return nil, fmt.Errorf("patcher: %w (snapshot=%q, diff=%q)", differ.ErrChainMismatch, oldSnapshot.Chain, diff.Chain)
		}
		if oldSnapshot.Timestamp != diff.FromTimestamp {
			return nil, fmt.Errorf("patcher: mismatch fromTimestamp (snapshot=%d, diff=%d)", oldSnapshot.Timestamp, diff.FromTimestamp)
		}
		oldRoutes = oldSnapshot.Routes
	} else if diff.FromTimestamp != 0 {
		return nil, fmt.Errorf("patcher: diff expects a snapshot at %d", diff.FromTimestamp)
	}

	// 2. Drop removed routes, counting copies per key
	pending := make(map[string]int, len(diff.Removed))
	for _, r := range diff.Removed {
		pending[r.Key()]++
	}
	kept := make(map[string]int, len(oldRoutes))
	for _, r := range oldRoutes {
		kept[r.Key()]++
	}
	for key, n := range pending {
		if kept[key] < n {
			return nil, fmt.Errorf("patcher: %d removed copies of %q are not in the snapshot", n-kept[key], key)
		}
		kept[key] -= n
	}

	// the first kept[key] copies of a key survive
	routes := make([]engine.Route, 0, len(oldRoutes)-len(diff.Removed)+len(diff.Added))
	for _, r := range oldRoutes {
		key := r.Key()
		if kept[key] == 0 {
			continue
		}
		kept[key]--
		routes = append(routes, r)
	}

	// 3. Append added routes
	routes = append(routes, diff.Added...)

	return matrix.NewSnapshot(diff.Chain, diff.TokenCount, diff.PairCount, routes, time.UnixMilli(diff.ToTimestamp)), nil
}
