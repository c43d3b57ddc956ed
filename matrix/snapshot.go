package matrix

import (
	"fmt"
	"time"

	"github.com/defistate/routematrix-go/engine"
)

// Kind names the enumerator that produced a snapshot's routes.
type Kind string

const (
	KindRoutes Kind = "routes"
	KindCycles Kind = "cycles"
)

// Snapshot is the persisted route matrix of one chain at one point in time.
// A Snapshot is built once per build call and never modified afterwards; the
// next write to the same path supersedes it.
type Snapshot struct {
	Chain      string         `json:"chain"`
	Timestamp  int64          `json:"timestamp"` // epoch milliseconds at build completion
	TokenCount int            `json:"tokenCount"`
	PairCount  int            `json:"pairCount"`
	RouteCount int            `json:"routeCount"`
	Routes     []engine.Route `json:"routes"`
}

// NewSnapshot wraps a computed route list. The snapshot takes ownership of routes.
func NewSnapshot(chain string, tokenCount, pairCount int, routes []engine.Route, builtAt time.Time) *Snapshot {
	if routes == nil {
		routes = []engine.Route{}
	}
	return &Snapshot{
		Chain:      chain,
		Timestamp:  builtAt.UnixMilli(),
		TokenCount: tokenCount,
		PairCount:  pairCount,
		RouteCount: len(routes),
		Routes:     routes,
	}
}

// BuiltAt returns the build timestamp as a time.Time.
func (s *Snapshot) BuiltAt() time.Time {
	return time.UnixMilli(s.Timestamp)
}

// DefaultPath returns the conventional output path of a chain's route matrix.
func DefaultPath(chain string) string {
	return fmt.Sprintf("routes.%s.json", chain)
}

// DefaultCyclesPath returns the conventional output path of a chain's cycle matrix.
func DefaultCyclesPath(chain string) string {
	return fmt.Sprintf("cycles.%s.json", chain)
}

func defaultPathFor(kind Kind, chain string) string {
	if kind == KindCycles {
		return DefaultCyclesPath(chain)
	}
	return DefaultPath(chain)
}
