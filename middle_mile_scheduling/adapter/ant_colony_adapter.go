package adapter

import (
	"fmt"

	"multirat/middle_mile_scheduling/ant_colony/algorithm"
	"multirat/middle_mile_scheduling/ant_colony/graph"
	"multirat/middle_mile_scheduling/common"

	"github.com/panjf2000/ants/v2"
	log "github.com/sirupsen/logrus"
)

const AntColonyName = "ant_colony"

// AntColonyAdapter implements common.RouteCalculator with the ant colony optimizer
type AntColonyAdapter struct {
	config algorithm.Config
	pool   *ants.Pool // walks agents in parallel when config.ParallelAgents is set, may be nil
}

// NewAntColonyAdapter creates an adapter; pool must not be the pool its callers run on
func NewAntColonyAdapter(config algorithm.Config, pool *ants.Pool) (*AntColonyAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ant colony config: %w", err)
	}
	if config.ParallelAgents && pool == nil {
		log.Warnf("AntColonyAdapter: parallel_agents set without an agent pool, walking sequentially")
	}
	return &AntColonyAdapter{config: config, pool: pool}, nil
}

// Name implements common.RouteCalculator.Name
func (aa *AntColonyAdapter) Name() string { return AntColonyName }

// ComputeRoutes implements common.RouteCalculator.ComputeRoutes.
// Pheromone and next hops on g are reset and left holding this destination's state.
func (aa *AntColonyAdapter) ComputeRoutes(g *graph.Graph, destination string) (common.RouteTable, error) {
	var opts []algorithm.Option
	if aa.pool != nil {
		opts = append(opts, algorithm.WithPool(aa.pool))
	}

	optimizer, err := algorithm.NewOptimizer(g, aa.config, opts...)
	if err != nil {
		return nil, err
	}

	log.Debugf("AntColonyAdapter.ComputeRoutes: destination=%s, nodes=%d, links=%d",
		destination, g.NodeCount(), g.LinkCount())
	return optimizer.ComputeRoutingTable(destination, aa.config.Agents)
}
