package routes

import (
	"slices"

	"github.com/defistate/routematrix-go/engine"
)

// RouteIndex groups routes by the token they depart from.
type RouteIndex map[engine.Token][]engine.Route

// BuildRouteIndex groups routes by their first path token, keeping input order
// within each group. Routes with an empty path are skipped.
func BuildRouteIndex(routes []engine.Route) RouteIndex {
	index := make(RouteIndex)
	for _, r := range routes {
		if len(r.Path) == 0 {
			continue
		}
		index[r.Path[0]] = append(index[r.Path[0]], r)
	}
	return index
}

// From returns the routes departing token, or nil if there are none.
func (idx RouteIndex) From(token engine.Token) []engine.Route {
	return idx[token]
}

// Tokens returns the departure tokens of the index in lexical order.
func (idx RouteIndex) Tokens() []engine.Token {
	tokens := make([]engine.Token, 0, len(idx))
	for t := range idx {
		tokens = append(tokens, t)
	}
	slices.Sort(tokens)
	return tokens
}
