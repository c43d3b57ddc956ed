package routes

import (
	"github.com/defistate/routematrix-go/engine"
	"github.com/defistate/routematrix-go/graph"
)

// search holds the backtracking state of one enumeration call.
// path and segments grow on the way down and are truncated on the way back up,
// so every emitted route must copy them (engine.NewRoute does).
type search struct {
	g        *graph.Graph
	maxHops  int
	start    int
	path     []engine.Token
	segments []engine.RouteSegment
	visited  graph.TokenSet
	routes   []engine.Route
}

// newSearch sizes the path buffers by the graph: a simple path never holds more
// than NumTokens tokens and a closed one adds only the start again.
func newSearch(g *graph.Graph, maxHops int) *search {
	depth := min(maxHops, g.NumTokens())
	return &search{
		g:        g,
		maxHops:  maxHops,
		path:     make([]engine.Token, 0, depth+1),
		segments: make([]engine.RouteSegment, 0, depth),
		visited:  graph.NewTokenSet(g.NumTokens()),
		routes:   make([]engine.Route, 0),
	}
}

// begin resets the state to a single-token path at start.
func (s *search) begin(start int) {
	s.start = start
	s.path = append(s.path[:0], s.g.Token(start))
	s.segments = s.segments[:0]
	s.visited.Add(start)
}

// end undoes begin.
func (s *search) end() {
	s.visited.Remove(s.start)
}

// push appends the hop current -> next via protocol.
func (s *search) push(current, next int, protocol engine.Protocol) {
	tokenIn, tokenOut := s.g.Token(current), s.g.Token(next)
	s.path = append(s.path, tokenOut)
	s.segments = append(s.segments, engine.RouteSegment{
		TokenIn:  tokenIn,
		TokenOut: tokenOut,
		Protocol: protocol,
	})
	s.visited.Add(next)
}

// pop undoes the most recent push of next.
func (s *search) pop(next int) {
	s.visited.Remove(next)
	s.path = s.path[:len(s.path)-1]
	s.segments = s.segments[:len(s.segments)-1]
}

// expand recurses into every unvisited neighbor of current, once per protocol
// of the connecting edge, in insertion order.
func (s *search) expand(current int, walk func(int)) {
	for _, edge := range s.g.OutEdges(current) {
		next := s.g.Target(edge)
		if s.visited.Contains(next) {
			continue
		}
		for _, protocol := range s.g.EdgeProtocols(edge) {
			s.push(current, next, protocol)
			walk(next)
			s.pop(next)
		}
	}
}
