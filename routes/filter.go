package routes

import (
	"github.com/defistate/routematrix-go/engine"
)

// All filters below are pure: they never modify their input and preserve its order.

func filter(routes []engine.Route, keep func(engine.Route) bool) []engine.Route {
	out := make([]engine.Route, 0)
	for _, r := range routes {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// FilterRoutesByDestination returns the routes whose path ends at token.
func FilterRoutesByDestination(routes []engine.Route, token engine.Token) []engine.Route {
	return filter(routes, func(r engine.Route) bool {
		return len(r.Path) > 0 && r.End() == token
	})
}

// FilterRoutesByHops returns the routes with exactly hops hops.
func FilterRoutesByHops(routes []engine.Route, hops int) []engine.Route {
	return filter(routes, func(r engine.Route) bool {
		return r.Hops == hops
	})
}

// FilterRoutesByProtocol returns the routes with at least one segment executed via protocol.
func FilterRoutesByProtocol(routes []engine.Route, protocol engine.Protocol) []engine.Route {
	return filter(routes, func(r engine.Route) bool {
		return r.UsesProtocol(protocol)
	})
}

// FilterRoutesBetween returns the routes leaving from and ending at to.
func FilterRoutesBetween(routes []engine.Route, from, to engine.Token) []engine.Route {
	return filter(routes, func(r engine.Route) bool {
		return len(r.Path) > 0 && r.Start() == from && r.End() == to
	})
}

// FindCyclicRoutes returns the routes that end where they started.
// Applied to the output of BuildAllRoutes it always returns an empty slice.
func FindCyclicRoutes(routes []engine.Route) []engine.Route {
	return filter(routes, engine.Route.IsCycle)
}

// GetUniqueProtocols returns every protocol used by any segment, in first-seen order.
func GetUniqueProtocols(routes []engine.Route) []engine.Protocol {
	seen := make(map[engine.Protocol]struct{})
	out := make([]engine.Protocol, 0)
	for _, r := range routes {
		for _, s := range r.Segments {
			if _, ok := seen[s.Protocol]; ok {
				continue
			}
			seen[s.Protocol] = struct{}{}
			out = append(out, s.Protocol)
		}
	}
	return out
}

// CountByHops returns how many routes there are per hop count.
func CountByHops(routes []engine.Route) map[int]int {
	counts := make(map[int]int)
	for _, r := range routes {
		counts[r.Hops]++
	}
	return counts
}
