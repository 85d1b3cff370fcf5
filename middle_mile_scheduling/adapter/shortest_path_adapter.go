package adapter

import (
	"multirat/middle_mile_scheduling/ant_colony/graph"
	"multirat/middle_mile_scheduling/common"
	"multirat/middle_mile_scheduling/shortest_path"

	log "github.com/sirupsen/logrus"
)

const ShortestPathName = "shortest_path"

// ShortestPathAdapter implements common.RouteCalculator with exact minimum-cost first hops
type ShortestPathAdapter struct{}

// NewShortestPathAdapter creates a new shortest path adapter
func NewShortestPathAdapter() *ShortestPathAdapter {
	return &ShortestPathAdapter{}
}

func (sa *ShortestPathAdapter) Name() string { return ShortestPathName }

// ComputeRoutes implements common.RouteCalculator.ComputeRoutes. g is only read.
func (sa *ShortestPathAdapter) ComputeRoutes(g *graph.Graph, destination string) (common.RouteTable, error) {
	table, err := shortest_path.NextHops(g, destination)
	if err != nil {
		return nil, err
	}
	log.Debugf("ShortestPathAdapter.ComputeRoutes: destination=%s, routes=%d", destination, len(table))
	return table, nil
}
