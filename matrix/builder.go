package matrix

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/defistate/routematrix-go/engine"
	"github.com/defistate/routematrix-go/routes"
	"github.com/prometheus/client_golang/prometheus"
)

// ErrChainRequired is returned when a build has neither a chain identifier nor a target path.
var ErrChainRequired = errors.New("chain identifier is required")

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// BuilderConfig holds the dependencies of a Builder.
type BuilderConfig struct {
	Logger      Logger
	Registry    prometheus.Registerer
	Compression Compression      // defaults to CompressionNone
	Now         func() time.Time // defaults to time.Now
}

// validate checks if the configuration is valid, ensuring required dependencies are present.
func (c *BuilderConfig) validate() error {
	if c.Logger == nil {
		return errors.New("config: Logger cannot be nil")
	}
	if c.Registry == nil {
		return errors.New("config: Registry cannot be nil")
	}
	if !c.Compression.valid() {
		return fmt.Errorf("config: unknown compression %q", c.Compression)
	}
	return nil
}

// Builder enumerates route matrices and publishes them to disk.
// A Builder keeps no per-build state, so independent chains may be built
// concurrently as long as they target distinct files.
type Builder struct {
	logger      Logger
	metrics     *Metrics
	compression Compression
	now         func() time.Time
}

// NewBuilder constructs a Builder from a configuration, returning an error if the config is invalid.
func NewBuilder(cfg *BuilderConfig) (*Builder, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	compression := cfg.Compression
	if compression == "" {
		compression = CompressionNone
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Builder{
		logger:      cfg.Logger,
		metrics:     NewMetrics(cfg.Registry),
		compression: compression,
		now:         now,
	}, nil
}

type enumerateFunc func(tokens []engine.Token, pairs []engine.PairEdge, maxHops int) []engine.Route

// BuildAndPersist enumerates every simple route of up to maxHops hops and
// atomically writes the resulting snapshot to targetPath (DefaultPath(chain)
// when empty).
//
// Empty tokens or pairs mean there is nothing to build: no file is touched and
// (nil, nil) is returned.
func (b *Builder) BuildAndPersist(
	chain string,
	tokens []engine.Token,
	pairs []engine.PairEdge,
	maxHops int,
	targetPath string,
) (*Snapshot, error) {
	return b.build(KindRoutes, routes.BuildAllRoutes, chain, tokens, pairs, maxHops, targetPath)
}

// BuildAndPersistCycles is BuildAndPersist for closed arbitrage routes.
// The default target is DefaultCyclesPath(chain).
func (b *Builder) BuildAndPersistCycles(
	chain string,
	tokens []engine.Token,
	pairs []engine.PairEdge,
	maxHops int,
	targetPath string,
) (*Snapshot, error) {
	return b.build(KindCycles, routes.BuildArbitrageRoutes, chain, tokens, pairs, maxHops, targetPath)
}

func (b *Builder) build(
	kind Kind,
	enumerate enumerateFunc,
	chain string,
	tokens []engine.Token,
	pairs []engine.PairEdge,
	maxHops int,
	targetPath string,
) (*Snapshot, error) {
	if len(tokens) == 0 || len(pairs) == 0 {
		b.logger.Warn("Nothing to build", "chain", chain, "kind", kind, "tokens", len(tokens), "pairs", len(pairs))
		return nil, nil
	}
	if targetPath == "" {
		// the default file name is derived from the chain
		if chain == "" {
			return nil, ErrChainRequired
		}
		targetPath = defaultPathFor(kind, chain)
	}

	timer := prometheus.NewTimer(b.metrics.buildDuration.WithLabelValues(chain, string(kind)))
	defer timer.ObserveDuration()

	found := enumerate(tokens, pairs, maxHops)
	snapshot := NewSnapshot(chain, len(tokens), len(pairs), found, b.now())

	data, err := Encode(snapshot, b.compression)
	if err != nil {
		b.metrics.buildsTotal.WithLabelValues(chain, string(kind), "error").Inc()
		return nil, fmt.Errorf("%s matrix for %s: %w", kind, chain, err)
	}
	if err := writeFileAtomic(targetPath, data); err != nil {
		b.metrics.buildsTotal.WithLabelValues(chain, string(kind), "error").Inc()
		b.logger.Error("Failed to persist matrix", "chain", chain, "kind", kind, "path", targetPath, "error", err)
		return nil, fmt.Errorf("%s matrix for %s: %w", kind, chain, err)
	}

	b.metrics.buildsTotal.WithLabelValues(chain, string(kind), "ok").Inc()
	b.metrics.routes.WithLabelValues(chain, string(kind)).Set(float64(snapshot.RouteCount))
	b.metrics.snapshotBytes.WithLabelValues(chain, string(kind)).Set(float64(len(data)))
	b.logger.Info("Persisted matrix",
		"chain", chain,
		"kind", kind,
		"path", targetPath,
		"tokens", snapshot.TokenCount,
		"pairs", snapshot.PairCount,
		"routes", snapshot.RouteCount,
		"max_hops", maxHops,
		"bytes", len(data),
	)
	return snapshot, nil
}

// BuildAndPersistRouteMatrix builds and publishes a chain's simple-route matrix
// without logging or shared metrics. See Builder.BuildAndPersist.
func BuildAndPersistRouteMatrix(
	chain string,
	tokens []engine.Token,
	pairs []engine.PairEdge,
	maxHops int,
	targetPath string,
) (*Snapshot, error) {
	b, err := NewBuilder(&BuilderConfig{
		Logger:   slog.New(slog.DiscardHandler),
		Registry: prometheus.NewRegistry(),
	})
	if err != nil {
		return nil, err
	}
	return b.BuildAndPersist(chain, tokens, pairs, maxHops, targetPath)
}
