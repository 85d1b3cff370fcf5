package algorithm

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"multirat/middle_mile_scheduling/ant_colony/graph"
	msc "multirat/middle_mile_scheduling/common"

	"github.com/panjf2000/ants/v2"
	log "github.com/sirupsen/logrus"
)

var (
	ErrUnknownDestination = errors.New("ant colony: destination not in graph")
	ErrInvalidAgentCount  = errors.New("ant colony: agent count must be positive")
)

// CycleStats summarizes one training cycle
type CycleStats struct {
	Cycle    int
	Launched int
	Reached  int
}

// TrainingStats summarizes all training cycles of one destination run
type TrainingStats struct {
	Cycles   int
	Launched int
	Reached  int
}

// Optimizer runs the colony over one graph.
// The graph's pheromone and next hops belong to the destination of the current run.
type Optimizer struct {
	graph  *graph.Graph
	config Config
	pool   *ants.Pool
}

// Option configures an Optimizer
type Option func(*Optimizer)

// WithPool walks a cycle's agents on pool when Config.ParallelAgents is set.
// The pool must not be one whose workers are blocked on this optimizer.
func WithPool(pool *ants.Pool) Option {
	return func(o *Optimizer) { o.pool = pool }
}

// NewOptimizer creates an optimizer for g
func NewOptimizer(g *graph.Graph, config Config, opts ...Option) (*Optimizer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ant colony config: %w", err)
	}

	o := &Optimizer{graph: g, config: config}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Graph returns the graph the optimizer works on
func (o *Optimizer) Graph() *graph.Graph { return o.graph }

// ResetForDestination puts InitialPheromone on every link and clears every next hop
func (o *Optimizer) ResetForDestination() {
	o.graph.ResetPheromone(graph.InitialPheromone)
	o.graph.ClearNextHops()
}

// RunTrainingCycle launches agentCount explorers from uniformly random sources.
// Evaporation and the deposits of the successful explorers are applied only after
// every walk of the cycle has finished.
func (o *Optimizer) RunTrainingCycle(rng *rand.Rand, cycle int, destination string, agentCount int) (CycleStats, error) {
	nodes := o.graph.Nodes()
	stats := CycleStats{Cycle: cycle, Launched: agentCount}
	if len(nodes) == 0 {
		return stats, nil
	}

	var successful []*Agent
	if o.config.ParallelAgents && o.pool != nil {
		successful = o.walkParallel(cycle, nodes, destination, agentCount)
	} else {
		successful = o.walkSequential(rng, nodes, destination, agentCount)
	}
	stats.Reached = len(successful)

	if err := o.graph.ApplyEvaporation(o.config.EvaporationRate); err != nil {
		return stats, fmt.Errorf("evaporation in cycle %d failed: %w", cycle, err)
	}
	for _, a := range successful {
		if err := a.DepositPheromone(); err != nil {
			return stats, fmt.Errorf("deposit in cycle %d failed: %w", cycle, err)
		}
	}

	return stats, nil
}

func (o *Optimizer) walkSequential(rng *rand.Rand, nodes []string, destination string, agentCount int) []*Agent {
	var successful []*Agent
	for i := 0; i < agentCount; i++ {
		src := nodes[rng.Intn(len(nodes))]
		a := NewExplorer(o.graph, src, destination, o.config.Alpha, o.config.Beta, rng)
		if a.Walk(o.config.MaxSteps) {
			successful = append(successful, a)
		}
	}
	return successful
}

// walkParallel gives every agent its own stream derived from seed, cycle and agent index,
// so the outcome does not depend on scheduling. Results are kept in agent order.
func (o *Optimizer) walkParallel(cycle int, nodes []string, destination string, agentCount int) []*Agent {
	results := make([]*Agent, agentCount)

	var wg sync.WaitGroup
	for i := 0; i < agentCount; i++ {
		wg.Add(1)
		idx := i
		walk := func() {
			defer wg.Done()
			rng := rand.New(rand.NewSource(deriveSeed(o.config.Seed, cycle, idx)))
			src := nodes[rng.Intn(len(nodes))]
			a := NewExplorer(o.graph, src, destination, o.config.Alpha, o.config.Beta, rng)
			if a.Walk(o.config.MaxSteps) {
				results[idx] = a
			}
		}

		if err := o.pool.Submit(walk); err != nil {
			log.Debugf("RunTrainingCycle: submit failed for agent %d, walking inline: %v", idx, err)
			walk()
		}
	}
	wg.Wait()

	var successful []*Agent
	for _, a := range results {
		if a != nil {
			successful = append(successful, a)
		}
	}
	return successful
}

func deriveSeed(seed int64, cycle, agent int) int64 {
	return seed ^ (int64(cycle+1) << 32) ^ int64(agent)
}

// Train runs Config.Iterations training cycles toward destination
func (o *Optimizer) Train(rng *rand.Rand, destination string, agentCount int) (TrainingStats, error) {
	var total TrainingStats
	for cycle := 0; cycle < o.config.Iterations; cycle++ {
		stats, err := o.RunTrainingCycle(rng, cycle, destination, agentCount)
		if err != nil {
			return total, err
		}
		total.Cycles++
		total.Launched += stats.Launched
		total.Reached += stats.Reached
		log.Debugf("Train: destination=%s cycle=%d reached=%d/%d", destination, cycle, stats.Reached, stats.Launched)
	}
	return total, nil
}

// ExtractRoute runs one exploiter from node. It stops on the destination,
// on a node whose next hop is already cached, or on a dead end.
func (o *Optimizer) ExtractRoute(node, destination string) *Agent {
	a := NewExploiter(o.graph, node, destination)
	a.Walk(0)
	return a
}

// ComputeRoutingTable trains the colony toward destination and returns, for every node
// that can reach it, the IP of the link its greedy walk starts on.
// agentCount <= 0 falls back to Config.Agents.
func (o *Optimizer) ComputeRoutingTable(destination string, agentCount int) (msc.RouteTable, error) {
	if !o.graph.HasNode(destination) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDestination, destination)
	}
	if agentCount <= 0 {
		agentCount = o.config.Agents
	}

	o.ResetForDestination()
	rng := rand.New(rand.NewSource(o.config.Seed))

	stats, err := o.Train(rng, destination, agentCount)
	if err != nil {
		return nil, err
	}

	nodes := o.graph.Nodes()
	for _, n := range nodes {
		o.ExtractRoute(n, destination)
	}

	reachable := o.graph.ReverseReachable(destination)
	table := make(msc.RouteTable)
	for _, n := range nodes {
		if _, ok := reachable[n]; !ok {
			continue
		}
		hop, ok := o.graph.NextHop(n)
		if !ok {
			continue
		}
		if l, ok := o.graph.Link(n, hop.Node, hop.Index); ok {
			table[n] = l.IP
		}
	}

	log.Infof("ComputeRoutingTable: destination=%s, cycles=%d, reached=%d/%d, routes=%d/%d",
		destination, stats.Cycles, stats.Reached, stats.Launched, len(table), len(nodes))
	return table, nil
}
