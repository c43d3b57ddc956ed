package routes

import (
	"github.com/defistate/routematrix-go/engine"
	"github.com/defistate/routematrix-go/graph"
)

// BuildAllRoutes returns every simple route of 1..maxHops hops that starts at a
// token of the universe, over the graph built from pairs.
//
// Routes are returned in depth-first visitation order: start tokens in input
// order, neighbors in graph insertion order, protocols in edge insertion order.
// An edge served by N protocols produces N routes sharing the same token path.
// Empty tokens, empty pairs or maxHops < 1 yield an empty slice.
func BuildAllRoutes(tokens []engine.Token, pairs []engine.PairEdge, maxHops int) []engine.Route {
	if len(tokens) == 0 || len(pairs) == 0 || maxHops < 1 {
		return []engine.Route{}
	}

	g := graph.Build(tokens, pairs)
	s := newSearch(g, maxHops)
	for _, t := range tokens {
		start, _ := g.TokenIndex(t)
		s.begin(start)
		s.walkSimple(start)
		s.end()
	}
	return s.routes
}

// walkSimple emits the current path once it has at least one hop and keeps
// descending until the hop budget is spent.
func (s *search) walkSimple(current int) {
	if len(s.path) >= 2 {
		s.routes = append(s.routes, engine.NewRoute(s.path, s.segments))
	}
	if len(s.path) > s.maxHops {
		return
	}
	s.expand(current, s.walkSimple)
}
