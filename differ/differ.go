package differ

import (
	"errors"
	"fmt"

	"github.com/defistate/routematrix-go/engine"
	"github.com/defistate/routematrix-go/matrix"
	"github.com/prometheus/client_golang/prometheus"
)

// ErrChainMismatch is returned when two snapshots of different chains are compared.
var ErrChainMismatch = errors.New("snapshots belong to different chains")

// SnapshotDifferConfig holds the dependencies of a SnapshotDiffer.
type SnapshotDifferConfig struct {
	Registry prometheus.Registerer
	Logger   Logger
}

// validate checks if the configuration is valid, ensuring required dependencies are present.
func (c *SnapshotDifferConfig) validate() error {
	if c.Registry == nil {
		return errors.New("config: Registry cannot be nil")
	}
	if c.Logger == nil {
		return errors.New("config: Logger cannot be nil")
	}
	return nil
}

// SnapshotDiffer compares a freshly built route matrix with the one it supersedes.
type SnapshotDiffer struct {
	metrics *Metrics
	logger  Logger
}

// NewSnapshotDiffer constructs a new differ from a configuration, returning an error if the config is invalid.
func NewSnapshotDiffer(cfg *SnapshotDifferConfig) (*SnapshotDiffer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &SnapshotDiffer{
		metrics: NewMetrics(cfg.Registry),
		logger:  cfg.Logger,
	}, nil
}

// Diff reports which routes of new are absent from old (Added) and which
// routes of old are absent from new (Removed). Routes are matched by
// engine.Route.Key with multiplicity: a route listed twice in old and once in
// new is one unchanged route plus one removed copy. Added keeps the order of
// new and Removed the order of old. A nil old snapshot means everything in new
// was added.
func (d *SnapshotDiffer) Diff(old, new *matrix.Snapshot) (*SnapshotDiff, error) {
	if new == nil {
		return nil, errors.New("differ: new snapshot cannot be nil")
	}
	timer := prometheus.NewTimer(d.metrics.diffDuration.WithLabelValues(new.Chain))
	defer timer.ObserveDuration()

	diff := &SnapshotDiff{
		Chain:       new.Chain,
		ToTimestamp: new.Timestamp,
		TokenCount:  new.TokenCount,
		PairCount:   new.PairCount,
		Added:       make([]engine.Route, 0),
		Removed:     make([]engine.Route, 0),
	}

	var oldRoutes []engine.Route
	if old != nil {
		if old.Chain != new.Chain {
			return nil, fmt.Errorf("%w: %q vs %q", ErrChainMismatch, old.Chain, new.Chain)
		}
		diff.FromTimestamp = old.Timestamp
		oldRoutes = old.Routes
	}

	oldCount := make(map[string]int, len(oldRoutes))
	for _, r := range oldRoutes {
		oldCount[r.Key()]++
	}

	// matched counts the old copies of each key paired with a route of new
	matched := make(map[string]int, len(oldCount))
	for _, r := range new.Routes {
		key := r.Key()
		if matched[key] < oldCount[key] {
			matched[key]++
			diff.Unchanged++
			continue
		}
		diff.Added = append(diff.Added, r)
	}

	// the first matched[key] copies in old are the unchanged ones
	seen := make(map[string]int, len(oldCount))
	for _, r := range oldRoutes {
		key := r.Key()
		seen[key]++
		if seen[key] > matched[key] {
			diff.Removed = append(diff.Removed, r)
		}
	}

	d.metrics.routesTotal.WithLabelValues(new.Chain, "added").Add(float64(len(diff.Added)))
	d.metrics.routesTotal.WithLabelValues(new.Chain, "removed").Add(float64(len(diff.Removed)))
	d.metrics.routesTotal.WithLabelValues(new.Chain, "unchanged").Add(float64(diff.Unchanged))

	d.logger.Debug("Compared route matrices",
		"chain", new.Chain,
		"added", len(diff.Added),
		"removed", len(diff.Removed),
		"unchanged", diff.Unchanged,
	)
	return diff, nil
}
