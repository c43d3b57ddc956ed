package differ

import "github.com/defistate/routematrix-go/engine"

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SnapshotDiff summarizes how a route matrix changed between two builds of the same chain.
type SnapshotDiff struct {
	Chain         string         `json:"chain"`
	FromTimestamp int64          `json:"fromTimestamp"`
	ToTimestamp   int64          `json:"toTimestamp"`
	TokenCount    int            `json:"tokenCount"`
	PairCount     int            `json:"pairCount"`
	Added         []engine.Route `json:"added"`
	Removed       []engine.Route `json:"removed"`
	Unchanged     int            `json:"unchanged"`
}

// IsEmpty returns true if no route was added or removed.
func (d *SnapshotDiff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}
