package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/defistate/routematrix-go/cmd/routematrix/config"
	"github.com/defistate/routematrix-go/differ"
	"github.com/defistate/routematrix-go/engine"
	"github.com/defistate/routematrix-go/matrix"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const polygonMarkets = `
chain: polygon
tokens:
  - {symbol: WMATIC}
  - {symbol: USDC}
  - {symbol: WETH}
  - {symbol: DAI}
pairs:
  - {tokenA: WMATIC, tokenB: USDC, protocol: QUICKSWAP}
  - {tokenA: WMATIC, tokenB: USDC, protocol: SUSHISWAP}
  - {tokenA: WMATIC, tokenB: WETH, protocol: QUICKSWAP}
  - {tokenA: USDC, tokenB: WETH, protocol: UNISWAP_V3}
  - {tokenA: USDC, tokenB: DAI, protocol: CURVE}
  - {tokenA: WETH, tokenB: DAI, protocol: UNISWAP_V3}
`

// logRecord is the subset of a JSON log line the tests inspect.
type logRecord struct {
	Level   string         `json:"level"`
	Msg     string         `json:"msg"`
	Chain   string         `json:"chain"`
	Added   int            `json:"added"`
	Removed int            `json:"removed"`
	Hops    map[string]int `json:"hops"`
}

func newTestRunner(t *testing.T, cfg *config.BuilderConfig, logs *bytes.Buffer) *runner {
	t.Helper()
	reg := prometheus.NewRegistry()
	logger := slog.New(slog.NewJSONHandler(logs, nil))

	builder, err := matrix.NewBuilder(&matrix.BuilderConfig{
		Logger:      logger,
		Registry:    reg,
		Compression: matrix.Compression(cfg.Compression),
	})
	require.NoError(t, err)
	d, err := differ.NewSnapshotDiffer(&differ.SnapshotDifferConfig{Logger: logger, Registry: reg})
	require.NoError(t, err)

	return &runner{cfg: cfg, builder: builder, differ: d, logger: logger}
}

func records(t *testing.T, logs *bytes.Buffer) []logRecord {
	t.Helper()
	var out []logRecord
	dec := json.NewDecoder(bytes.NewReader(logs.Bytes()))
	for dec.More() {
		var rec logRecord
		require.NoError(t, dec.Decode(&rec))
		out = append(out, rec)
	}
	return out
}

func updates(t *testing.T, logs *bytes.Buffer) []logRecord {
	t.Helper()
	var out []logRecord
	for _, rec := range records(t, logs) {
		if rec.Msg == "Matrix updated" {
			out = append(out, rec)
		}
	}
	return out
}

func warnings(t *testing.T, logs *bytes.Buffer) []string {
	t.Helper()
	var out []string
	for _, rec := range records(t, logs) {
		if rec.Level == "WARN" {
			out = append(out, rec.Msg)
		}
	}
	return out
}

func TestRunChain(t *testing.T) {
	t.Run("RoutesAndCycles", func(t *testing.T) {
		dir := t.TempDir()
		marketsPath := filepath.Join(dir, "polygon.yaml")
		require.NoError(t, os.WriteFile(marketsPath, []byte(polygonMarkets), 0o644))

		cfg := &config.BuilderConfig{
			OutputDir:     dir,
			MaxHops:       1,
			IncludeCycles: true,
			Compression:   "snappy",
			Chains:        []config.ChainConfig{{Name: "polygon", MarketsFile: marketsPath}},
		}
		var logs bytes.Buffer
		r := newTestRunner(t, cfg, &logs)

		require.NoError(t, r.runChain(cfg.Chains[0]))

		snapshot, err := matrix.ReadFile(filepath.Join(dir, "routes.polygon.json"))
		require.NoError(t, err)
		assert.Equal(t, "polygon", snapshot.Chain)
		assert.Equal(t, 4, snapshot.TokenCount)
		assert.Equal(t, 6, snapshot.PairCount)
		assert.Equal(t, 12, snapshot.RouteCount)

		// a one-hop limit leaves no room for a cycle
		cycles, err := matrix.ReadFile(filepath.Join(dir, "cycles.polygon.json"))
		require.NoError(t, err)
		assert.Empty(t, cycles.Routes)

		got := updates(t, &logs)
		require.Len(t, got, 2)
		assert.Equal(t, 12, got[0].Added)
		assert.Equal(t, "polygon", got[0].Chain)
		assert.Equal(t, map[string]int{"1": 12}, got[0].Hops)
		assert.Empty(t, got[1].Hops)
		assert.Empty(t, warnings(t, &logs))
	})

	t.Run("DiffAgainstPreviousBuild", func(t *testing.T) {
		dir := t.TempDir()
		marketsPath := filepath.Join(dir, "polygon.yaml")
		require.NoError(t, os.WriteFile(marketsPath, []byte(polygonMarkets), 0o644))

		cfg := &config.BuilderConfig{
			OutputDir:   dir,
			MaxHops:     1,
			Compression: "none",
			Chains:      []config.ChainConfig{{Name: "polygon", MarketsFile: marketsPath}},
		}
		var logs bytes.Buffer
		r := newTestRunner(t, cfg, &logs)
		require.NoError(t, r.runChain(cfg.Chains[0]))

		// drop the SUSHISWAP pool and rebuild
		trimmed := bytes.Replace([]byte(polygonMarkets),
			[]byte("  - {tokenA: WMATIC, tokenB: USDC, protocol: SUSHISWAP}\n"), nil, 1)
		require.NoError(t, os.WriteFile(marketsPath, trimmed, 0o644))
		require.NoError(t, r.runChain(cfg.Chains[0]))

		got := updates(t, &logs)
		require.Len(t, got, 2)
		assert.Equal(t, 0, got[1].Added)
		assert.Equal(t, 2, got[1].Removed)
		assert.Equal(t, map[string]int{"1": 10}, got[1].Hops)
		assert.Empty(t, warnings(t, &logs), "diff must replay onto the previous matrix")

		_, err := os.Stat(filepath.Join(dir, "cycles.polygon.json"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("MissingMarkets", func(t *testing.T) {
		dir := t.TempDir()
		cfg := &config.BuilderConfig{
			OutputDir:   dir,
			MaxHops:     2,
			Compression: "none",
			Chains:      []config.ChainConfig{{Name: "polygon", MarketsFile: filepath.Join(dir, "absent.yaml")}},
		}
		var logs bytes.Buffer
		r := newTestRunner(t, cfg, &logs)

		err := r.runChain(cfg.Chains[0])
		assert.ErrorIs(t, err, os.ErrNotExist)

		_, statErr := os.Stat(filepath.Join(dir, "routes.polygon.json"))
		assert.ErrorIs(t, statErr, os.ErrNotExist)
	})

	t.Run("EmptyMarketsWritesNothing", func(t *testing.T) {
		dir := t.TempDir()
		marketsPath := filepath.Join(dir, "polygon.yaml")
		require.NoError(t, os.WriteFile(marketsPath, []byte("tokens: []\npairs: []\n"), 0o644))

		cfg := &config.BuilderConfig{
			OutputDir:   dir,
			MaxHops:     2,
			Compression: "none",
			Chains:      []config.ChainConfig{{Name: "polygon", MarketsFile: marketsPath}},
		}
		var logs bytes.Buffer
		r := newTestRunner(t, cfg, &logs)

		require.NoError(t, r.runChain(cfg.Chains[0]))
		_, err := os.Stat(filepath.Join(dir, "routes.polygon.json"))
		assert.ErrorIs(t, err, os.ErrNotExist)
		assert.Empty(t, updates(t, &logs))
	})
}

func TestVerifyDiff(t *testing.T) {
	ab := engine.NewRoute([]engine.Token{"A", "B"}, []engine.RouteSegment{{TokenIn: "A", TokenOut: "B", Protocol: "P"}})
	ba := engine.NewRoute([]engine.Token{"B", "A"}, []engine.RouteSegment{{TokenIn: "B", TokenOut: "A", Protocol: "P"}})
	previous := matrix.NewSnapshot("polygon", 2, 1, []engine.Route{ab, ab}, time.UnixMilli(1000))
	next := matrix.NewSnapshot("polygon", 2, 1, []engine.Route{ab, ba}, time.UnixMilli(2000))

	d, err := differ.NewSnapshotDiffer(&differ.SnapshotDifferConfig{
		Logger:   slog.New(slog.DiscardHandler),
		Registry: prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	diff, err := d.Diff(previous, next)
	require.NoError(t, err)

	t.Run("Consistent", func(t *testing.T) {
		assert.NoError(t, verifyDiff(previous, diff, next))
	})

	t.Run("WrongRoutes", func(t *testing.T) {
		other := matrix.NewSnapshot("polygon", 2, 1, []engine.Route{ab, ab}, time.UnixMilli(2000))
		assert.ErrorContains(t, verifyDiff(previous, diff, other), "unexpected route")
	})

	t.Run("WrongCount", func(t *testing.T) {
		other := matrix.NewSnapshot("polygon", 2, 1, []engine.Route{ab}, time.UnixMilli(2000))
		assert.ErrorContains(t, verifyDiff(previous, diff, other), "want 1")
	})

	t.Run("StalePrevious", func(t *testing.T) {
		stale := matrix.NewSnapshot("polygon", 2, 1, []engine.Route{ab, ab}, time.UnixMilli(500))
		assert.Error(t, verifyDiff(stale, diff, next))
	})
}
