package routing

import (
	"sort"

	msc "multirat/middle_mile_scheduling/common"
)

// RouteEntry is one (destination, first hop ip) pair of a source
type RouteEntry struct {
	Destination string `json:"destination"`
	IP          string `json:"ip"`
}

// RouteSet accumulates the per-destination tables of one run by source node
type RouteSet struct {
	Algorithm    string                  `json:"algorithm"`
	Destinations []string                `json:"destinations"`
	Routes       map[string][]RouteEntry `json:"routes"` // key: source node
	Failed       []string                `json:"failed,omitempty"`
}

// NewRouteSet creates an empty set for algorithm
func NewRouteSet(algorithm string) *RouteSet {
	return &RouteSet{
		Algorithm: algorithm,
		Routes:    make(map[string][]RouteEntry),
	}
}

// Add appends destination's table. Entries of a source keep the order destinations were added in.
func (rs *RouteSet) Add(destination string, table msc.RouteTable) {
	rs.Destinations = append(rs.Destinations, destination)
	for _, src := range table.Sources() {
		rs.Routes[src] = append(rs.Routes[src], RouteEntry{Destination: destination, IP: table[src]})
	}
}

// Sources returns every source with at least one route, sorted
func (rs *RouteSet) Sources() []string {
	sources := make([]string, 0, len(rs.Routes))
	for src := range rs.Routes {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	return sources
}

func (rs *RouteSet) Entries(source string) []RouteEntry {
	return rs.Routes[source]
}

// RouteCount returns the number of (source, destination) pairs with a route
func (rs *RouteSet) RouteCount() int {
	count := 0
	for _, entries := range rs.Routes {
		count += len(entries)
	}
	return count
}
