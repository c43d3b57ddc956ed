package matrix

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/defistate/routematrix-go/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot() *Snapshot {
	routes := []engine.Route{
		engine.NewRoute(
			[]engine.Token{"WMATIC", "USDC"},
			[]engine.RouteSegment{{TokenIn: "WMATIC", TokenOut: "USDC", Protocol: "QUICKSWAP"}},
		),
	}
	return NewSnapshot("polygon", 4, 6, routes, time.UnixMilli(1700000000000))
}

// assertNoTempFiles fails if any temporary artifact is left in dir.
func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temporary file %s left behind", e.Name())
	}
}

func TestNewSnapshot(t *testing.T) {
	s := testSnapshot()
	assert.Equal(t, "polygon", s.Chain)
	assert.Equal(t, int64(1700000000000), s.Timestamp)
	assert.Equal(t, 4, s.TokenCount)
	assert.Equal(t, 6, s.PairCount)
	assert.Equal(t, 1, s.RouteCount)
	assert.True(t, s.BuiltAt().Equal(time.UnixMilli(1700000000000)))

	empty := NewSnapshot("polygon", 1, 1, nil, time.Now())
	assert.NotNil(t, empty.Routes)
	assert.Equal(t, 0, empty.RouteCount)
}

func TestDefaultPaths(t *testing.T) {
	assert.Equal(t, "routes.polygon.json", DefaultPath("polygon"))
	assert.Equal(t, "cycles.polygon.json", DefaultCyclesPath("polygon"))
}

func TestEncodeDecode(t *testing.T) {
	t.Run("Plain", func(t *testing.T) {
		data, err := Encode(testSnapshot(), CompressionNone)
		require.NoError(t, err)
		assert.Equal(t, byte('{'), data[0])

		decoded, err := Decode(data)
		require.NoError(t, err)
		assert.Equal(t, testSnapshot(), decoded)
	})

	t.Run("Snappy", func(t *testing.T) {
		data, err := Encode(testSnapshot(), CompressionSnappy)
		require.NoError(t, err)
		assert.NotEqual(t, byte('{'), data[0])

		decoded, err := Decode(data)
		require.NoError(t, err)
		assert.Equal(t, testSnapshot(), decoded)
	})

	t.Run("UnknownCompression", func(t *testing.T) {
		_, err := Encode(testSnapshot(), "zstd")
		assert.Error(t, err)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := Decode([]byte("not a snapshot"))
		assert.Error(t, err)

		_, err = Decode([]byte("{broken"))
		assert.Error(t, err)
	})
}

func TestWriteFile(t *testing.T) {
	t.Run("MatchesSchema", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "routes.polygon.json")

		require.NoError(t, WriteFile(path, testSnapshot(), CompressionNone))
		assertNoTempFiles(t, dir)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"chain": "polygon",
			"timestamp": 1700000000000,
			"tokenCount": 4,
			"pairCount": 6,
			"routeCount": 1,
			"routes": [{
				"path": ["WMATIC", "USDC"],
				"hops": 1,
				"segments": [{"tokenIn": "WMATIC", "tokenOut": "USDC", "protocol": "QUICKSWAP"}]
			}]
		}`, string(data))
	})

	t.Run("Supersedes", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "routes.polygon.json")

		require.NoError(t, WriteFile(path, testSnapshot(), CompressionNone))
		next := NewSnapshot("polygon", 1, 1, nil, time.UnixMilli(1700000001000))
		require.NoError(t, WriteFile(path, next, CompressionSnappy))

		got, err := ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, int64(1700000001000), got.Timestamp)
		assert.Empty(t, got.Routes)
		assertNoTempFiles(t, dir)
	})

	t.Run("RenameFailureLeavesNoArtifacts", func(t *testing.T) {
		dir := t.TempDir()
		// a directory occupying the target path makes the rename fail
		target := filepath.Join(dir, "routes.polygon.json")
		require.NoError(t, os.Mkdir(target, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(target, "keep"), []byte("x"), 0o644))

		err := WriteFile(target, testSnapshot(), CompressionNone)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rename")

		info, statErr := os.Stat(target)
		require.NoError(t, statErr)
		assert.True(t, info.IsDir(), "target must be left untouched")
		assertNoTempFiles(t, dir)
	})

	t.Run("MissingDirectory", func(t *testing.T) {
		dir := t.TempDir()
		err := WriteFile(filepath.Join(dir, "missing", "routes.json"), testSnapshot(), CompressionNone)
		require.Error(t, err)
		assertNoTempFiles(t, dir)
	})

	t.Run("TempPathsAreUnique", func(t *testing.T) {
		a, b := tempPath("routes.json"), tempPath("routes.json")
		assert.NotEqual(t, a, b)
		assert.True(t, strings.HasPrefix(a, "routes.json."))
		assert.True(t, strings.HasSuffix(a, ".tmp"))
	})
}

func TestReadFile(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"routes": 5}`), 0o644))
	_, err = ReadFile(path)
	assert.Error(t, err)

	var typeErr *json.UnmarshalTypeError
	assert.ErrorAs(t, err, &typeErr)
}
