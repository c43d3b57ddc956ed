package graph

import (
	"github.com/defistate/routematrix-go/engine"
)

// Graph is a protocol-aware multigraph over tokens, built once from a pair list.
//
// Data is held in parallel slices indexed by token and edge index:
// adjacency[token] lists the outgoing edge indices of a token, edgeTargets[edge]
// is the token index an edge points to and edgeProtocols[edge] lists every
// protocol able to execute that hop. All lists keep insertion order, which makes
// traversal deterministic for a given input.
//
// A Graph is not safe for concurrent mutation; it is only mutated inside Build.
type Graph struct {
	tokenToIndex map[engine.Token]int

	tokens        []engine.Token
	universeSize  int
	adjacency     [][]int
	edgeTargets   []int
	edgeProtocols [][]engine.Protocol
}

// View is the nested-map rendering of a Graph: token -> neighbor -> protocols.
type View map[engine.Token]map[engine.Token][]engine.Protocol

// Build constructs the adjacency graph for a token universe and a pair list.
//
// Every pair is recorded in both directions. Universe tokens without pairs stay
// in the graph with no outgoing edges. Tokens that only appear in pairs are
// appended after the universe. A pair joining a token to itself becomes a
// self edge, which route searches never follow since the token is already on
// the path. A protocol is listed at most once per edge.
func Build(tokens []engine.Token, pairs []engine.PairEdge) *Graph {
	g := &Graph{
		tokenToIndex:  make(map[engine.Token]int, len(tokens)),
		tokens:        make([]engine.Token, 0, len(tokens)),
		adjacency:     make([][]int, 0, len(tokens)),
		edgeTargets:   make([]int, 0, 2*len(pairs)),
		edgeProtocols: make([][]engine.Protocol, 0, 2*len(pairs)),
	}

	for _, t := range tokens {
		g.indexOf(t)
	}
	g.universeSize = len(g.tokens)

	for _, p := range pairs {
		a := g.indexOf(p.TokenA)
		b := g.indexOf(p.TokenB)
		g.addEdge(a, b, p.Protocol)
		g.addEdge(b, a, p.Protocol)
	}

	return g
}

// indexOf returns the index of a token, registering it if unseen.
func (g *Graph) indexOf(t engine.Token) int {
	if i, ok := g.tokenToIndex[t]; ok {
		return i
	}
	i := len(g.tokens)
	g.tokens = append(g.tokens, t)
	g.tokenToIndex[t] = i
	g.adjacency = append(g.adjacency, nil)
	return i
}

// addEdge creates or extends the directed edge from -> to with the given protocol.
func (g *Graph) addEdge(from, to int, protocol engine.Protocol) {
	if edge, ok := g.findEdge(from, to); ok {
		for _, existing := range g.edgeProtocols[edge] {
			if existing == protocol {
				return
			}
		}
		g.edgeProtocols[edge] = append(g.edgeProtocols[edge], protocol)
		return
	}

	edge := len(g.edgeTargets)
	g.edgeTargets = append(g.edgeTargets, to)
	g.edgeProtocols = append(g.edgeProtocols, []engine.Protocol{protocol})
	g.adjacency[from] = append(g.adjacency[from], edge)
}

func (g *Graph) findEdge(from, to int) (int, bool) {
	for _, edge := range g.adjacency[from] {
		if g.edgeTargets[edge] == to {
			return edge, true
		}
	}
	return -1, false
}

// NumTokens returns the number of tokens known to the graph, including tokens
// that were only seen in pairs.
func (g *Graph) NumTokens() int {
	return len(g.tokens)
}

// UniverseSize returns how many leading token indices came from the universe.
func (g *Graph) UniverseSize() int {
	return g.universeSize
}

// NumEdges returns the number of directed token-to-token edges.
func (g *Graph) NumEdges() int {
	return len(g.edgeTargets)
}

// TokenIndex returns the index of a token.
func (g *Graph) TokenIndex(t engine.Token) (int, bool) {
	i, ok := g.tokenToIndex[t]
	return i, ok
}

// Token returns the token stored at index i.
func (g *Graph) Token(i int) engine.Token {
	return g.tokens[i]
}

// OutEdges returns the outgoing edge indices of the token at index i in insertion order.
// The returned slice must not be modified.
func (g *Graph) OutEdges(i int) []int {
	return g.adjacency[i]
}

// Target returns the token index an edge points to.
func (g *Graph) Target(edge int) int {
	return g.edgeTargets[edge]
}

// EdgeProtocols returns the protocols of an edge in insertion order.
// The returned slice must not be modified.
func (g *Graph) EdgeProtocols(edge int) []engine.Protocol {
	return g.edgeProtocols[edge]
}

// EdgeBetween returns the index of the directed edge from -> to, if any.
func (g *Graph) EdgeBetween(from, to int) (int, bool) {
	return g.findEdge(from, to)
}

// Neighbors returns the neighbors of a token in insertion order, or nil for an
// unknown or isolated token.
func (g *Graph) Neighbors(t engine.Token) []engine.Token {
	i, ok := g.tokenToIndex[t]
	if !ok || len(g.adjacency[i]) == 0 {
		return nil
	}
	out := make([]engine.Token, 0, len(g.adjacency[i]))
	for _, edge := range g.adjacency[i] {
		out = append(out, g.tokens[g.edgeTargets[edge]])
	}
	return out
}

// Protocols returns a copy of the protocols able to swap a into b, or nil if the
// tokens are not connected.
func (g *Graph) Protocols(a, b engine.Token) []engine.Protocol {
	ai, ok := g.tokenToIndex[a]
	if !ok {
		return nil
	}
	bi, ok := g.tokenToIndex[b]
	if !ok {
		return nil
	}
	edge, ok := g.findEdge(ai, bi)
	if !ok {
		return nil
	}
	out := make([]engine.Protocol, len(g.edgeProtocols[edge]))
	copy(out, g.edgeProtocols[edge])
	return out
}

// View returns a deep copy of the graph as nested maps. Isolated tokens map to
// an empty, non-nil neighbor map.
func (g *Graph) View() View {
	v := make(View, len(g.tokens))
	for i, t := range g.tokens {
		neighbors := make(map[engine.Token][]engine.Protocol, len(g.adjacency[i]))
		for _, edge := range g.adjacency[i] {
			protocols := make([]engine.Protocol, len(g.edgeProtocols[edge]))
			copy(protocols, g.edgeProtocols[edge])
			neighbors[g.tokens[g.edgeTargets[edge]]] = protocols
		}
		v[t] = neighbors
	}
	return v
}
