package routes

import (
	"github.com/defistate/routematrix-go/engine"
	"github.com/defistate/routematrix-go/graph"
)

// BuildArbitrageRoutes returns every closed route that leaves a universe token
// and returns to it within maxHops hops, counting the closing hop.
//
// Interior tokens are pairwise distinct and never equal to the start token.
// A route needs at least one hop before the closing hop is considered, so the
// shortest cycle is start -> x -> start. Every protocol on the closing edge
// yields its own route.
func BuildArbitrageRoutes(tokens []engine.Token, pairs []engine.PairEdge, maxHops int) []engine.Route {
	if len(tokens) == 0 || len(pairs) == 0 || maxHops < 1 {
		return []engine.Route{}
	}

	g := graph.Build(tokens, pairs)
	s := newSearch(g, maxHops)
	for _, t := range tokens {
		start, _ := g.TokenIndex(t)
		s.begin(start)
		s.walkCycles(start)
		s.end()
	}
	return s.routes
}

// walkCycles closes the current path back to the start when an edge allows it,
// then descends while the path can still grow and be closed within maxHops.
func (s *search) walkCycles(current int) {
	depth := len(s.path)
	if depth >= 2 && depth <= s.maxHops {
		s.close(current)
	}
	if depth >= s.maxHops {
		return
	}
	s.expand(current, s.walkCycles)
}

// close emits one closed route per protocol on the edge current -> start.
func (s *search) close(current int) {
	edge, ok := s.g.EdgeBetween(current, s.start)
	if !ok {
		return
	}
	tokenIn, tokenOut := s.g.Token(current), s.g.Token(s.start)
	for _, protocol := range s.g.EdgeProtocols(edge) {
		path := append(s.path, tokenOut)
		segments := append(s.segments, engine.RouteSegment{
			TokenIn:  tokenIn,
			TokenOut: tokenOut,
			Protocol: protocol,
		})
		s.routes = append(s.routes, engine.NewRoute(path, segments))
	}
}
