package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/defistate/routematrix-go/cmd/routematrix/config"
	"github.com/defistate/routematrix-go/differ"
	"github.com/defistate/routematrix-go/engine"
	"github.com/defistate/routematrix-go/markets"
	"github.com/defistate/routematrix-go/matrix"
	"github.com/defistate/routematrix-go/patcher"
	"github.com/defistate/routematrix-go/routes"
)

type buildFunc func(chain string, tokens []engine.Token, pairs []engine.PairEdge, maxHops int, targetPath string) (*matrix.Snapshot, error)

// runner builds the matrices of configured chains. Each chain writes its own
// files, so runChain may be called concurrently for distinct chains.
type runner struct {
	cfg     *config.BuilderConfig
	builder *matrix.Builder
	differ  *differ.SnapshotDiffer
	logger  *slog.Logger
}

func (r *runner) runChain(chain config.ChainConfig) error {
	logger := r.logger.With("chain", chain.Name)

	m, err := markets.LoadFile(chain.MarketsFile)
	if err != nil {
		return fmt.Errorf("failed to load markets for %s: %w", chain.Name, err)
	}
	if m.Chain != "" && m.Chain != chain.Name {
		logger.Warn("Markets file names a different chain", "markets_chain", m.Chain, "file", chain.MarketsFile)
	}

	tokens, pairs := m.Universe(), m.PairEdges()
	maxHops := r.cfg.HopsFor(chain)

	path := filepath.Join(r.cfg.OutputDir, matrix.DefaultPath(chain.Name))
	if err := r.publish(logger, r.builder.BuildAndPersist, chain.Name, tokens, pairs, maxHops, path); err != nil {
		return err
	}

	if !r.cfg.IncludeCycles {
		return nil
	}
	path = filepath.Join(r.cfg.OutputDir, matrix.DefaultCyclesPath(chain.Name))
	return r.publish(logger, r.builder.BuildAndPersistCycles, chain.Name, tokens, pairs, maxHops, path)
}

// publish builds one matrix and reports how it differs from the file it replaces.
func (r *runner) publish(
	logger *slog.Logger,
	build buildFunc,
	chain string,
	tokens []engine.Token,
	pairs []engine.PairEdge,
	maxHops int,
	path string,
) error {
	previous, err := matrix.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("Ignoring unreadable previous matrix", "path", path, "error", err)
		}
		previous = nil
	}

	snapshot, err := build(chain, tokens, pairs, maxHops, path)
	if err != nil {
		return err
	}
	if snapshot == nil {
		return nil
	}

	diff, err := r.differ.Diff(previous, snapshot)
	if err != nil {
		logger.Warn("Failed to compare with previous matrix", "path", path, "error", err)
		return nil
	}
	if err := verifyDiff(previous, diff, snapshot); err != nil {
		logger.Warn("Diff does not reproduce the new matrix", "path", path, "error", err)
	}
	logger.Info("Matrix updated",
		"path", path,
		"added", len(diff.Added),
		"removed", len(diff.Removed),
		"unchanged", diff.Unchanged,
		"hops", routes.CountByHops(snapshot.Routes),
	)
	return nil
}

// verifyDiff replays diff onto previous and checks that the result holds the
// same routes as next, counting duplicates.
func verifyDiff(previous *matrix.Snapshot, diff *differ.SnapshotDiff, next *matrix.Snapshot) error {
	patched, err := patcher.Patch(previous, diff)
	if err != nil {
		return err
	}
	if patched.RouteCount != next.RouteCount {
		return fmt.Errorf("patched matrix has %d routes, want %d", patched.RouteCount, next.RouteCount)
	}

	counts := make(map[string]int, len(next.Routes))
	for _, r := range next.Routes {
		counts[r.Key()]++
	}
	for _, r := range patched.Routes {
		key := r.Key()
		if counts[key] == 0 {
			return fmt.Errorf("patched matrix has unexpected route %s", key)
		}
		counts[key]--
	}
	return nil
}
