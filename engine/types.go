package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Token is an opaque symbol identifying a tradeable asset.
// Two tokens are the same asset only if their symbols match exactly.
type Token string

// Protocol identifies the venue or router that executes a hop,
// e.g. "QUICKSWAP", "UNISWAP_V3" or a bridge.
type Protocol string

// ErrInvalidRoute is returned by Route.Validate when a route breaks its shape invariants.
var ErrInvalidRoute = errors.New("invalid route")

// PairEdge states that a pool or router swaps between TokenA and TokenB via Protocol.
// The pair is unordered: every pool is assumed to be swappable in both directions.
type PairEdge struct {
	TokenA   Token    `json:"tokenA" yaml:"tokenA"`
	TokenB   Token    `json:"tokenB" yaml:"tokenB"`
	Protocol Protocol `json:"protocol" yaml:"protocol"`
}

// RouteSegment is one directed swap.
type RouteSegment struct {
	TokenIn  Token    `json:"tokenIn"`
	TokenOut Token    `json:"tokenOut"`
	Protocol Protocol `json:"protocol"`
}

// Route is an ordered sequence of swaps together with the token path it walks.
// Hops == len(Segments) == len(Path)-1 for every well-formed route.
type Route struct {
	Path     []Token        `json:"path"`
	Hops     int            `json:"hops"`
	Segments []RouteSegment `json:"segments"`
}

// NewRoute copies path and segments into a fresh Route so that the caller may
// keep mutating its own slices.
func NewRoute(path []Token, segments []RouteSegment) Route {
	p := make([]Token, len(path))
	copy(p, path)
	s := make([]RouteSegment, len(segments))
	copy(s, segments)
	return Route{
		Path:     p,
		Hops:     len(s),
		Segments: s,
	}
}

// Start returns the first token of the path, or "" for an empty route.
func (r Route) Start() Token {
	if len(r.Path) == 0 {
		return ""
	}
	return r.Path[0]
}

// End returns the last token of the path, or "" for an empty route.
func (r Route) End() Token {
	if len(r.Path) == 0 {
		return ""
	}
	return r.Path[len(r.Path)-1]
}

// IsCycle reports whether the route returns to the token it started from.
func (r Route) IsCycle() bool {
	return len(r.Path) > 0 && r.Path[0] == r.Path[len(r.Path)-1]
}

// IsSimple reports whether no token appears twice in the path.
func (r Route) IsSimple() bool {
	seen := make(map[Token]struct{}, len(r.Path))
	for _, t := range r.Path {
		if _, ok := seen[t]; ok {
			return false
		}
		seen[t] = struct{}{}
	}
	return true
}

// UsesProtocol reports whether any segment is executed via p.
func (r Route) UsesProtocol(p Protocol) bool {
	for _, s := range r.Segments {
		if s.Protocol == p {
			return true
		}
	}
	return false
}

// Key returns a canonical string for the route, e.g. "WMATIC>USDC@QUICKSWAP|USDC>DAI@CURVE".
// Two routes share a key only if they walk the same tokens via the same protocols.
func (r Route) Key() string {
	var b strings.Builder
	for i, s := range r.Segments {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(string(s.TokenIn))
		b.WriteByte('>')
		b.WriteString(string(s.TokenOut))
		b.WriteByte('@')
		b.WriteString(string(s.Protocol))
	}
	return b.String()
}

// Validate checks the hop count and that every segment continues from the previous one.
func (r Route) Validate() error {
	if len(r.Segments) == 0 {
		return fmt.Errorf("%w: no segments", ErrInvalidRoute)
	}
	if r.Hops != len(r.Segments) || len(r.Path) != len(r.Segments)+1 {
		return fmt.Errorf("%w: hops=%d segments=%d path=%d", ErrInvalidRoute, r.Hops, len(r.Segments), len(r.Path))
	}
	for i, s := range r.Segments {
		if s.TokenIn != r.Path[i] || s.TokenOut != r.Path[i+1] {
			return fmt.Errorf("%w: segment %d (%s>%s) does not follow path", ErrInvalidRoute, i, s.TokenIn, s.TokenOut)
		}
	}
	return nil
}
