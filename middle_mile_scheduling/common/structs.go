package common

import (
	"sort"

	"multirat/middle_mile_scheduling/ant_colony/graph"
)

// RouteTable maps a source node to the IP of the first hop toward one destination.
// A node missing from the table has no route to that destination.
type RouteTable map[string]string

// Sources returns the table's source nodes in ascending order
func (rt RouteTable) Sources() []string {
	sources := make([]string, 0, len(rt))
	for src := range rt {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	return sources
}

// RouteCalculator defines the interface for routing algorithms
type RouteCalculator interface {
	// Name returns the registry name of the algorithm
	Name() string

	// ComputeRoutes computes a next-hop table toward destination.
	// The calculator may mutate per-destination state on g (pheromone, next hops),
	// so callers that share a graph across destinations pass a clone.
	ComputeRoutes(g *graph.Graph, destination string) (RouteTable, error)
}
