package algorithm

import (
	"math/rand"

	"multirat/middle_mile_scheduling/ant_colony/graph"
)

// Agent walks the graph from source toward destination.
// Its move policy is fixed when it is created.
type Agent struct {
	graph       *graph.Graph
	source      string
	destination string
	current     string
	visited     map[string]struct{}
	path        []graph.Hop
	pathCost    float64
	policy      movePolicy
}

// Choice is one candidate link with its selection probability
type Choice struct {
	Hop         graph.Hop
	Probability float64
}

// NewExplorer creates an agent that samples moves from pheromone and cost.
// Successful explorers reinforce their path with DepositPheromone.
func NewExplorer(g *graph.Graph, source, destination string, alpha, beta float64, rng *rand.Rand) *Agent {
	return newAgent(g, source, destination, &explorePolicy{alpha: alpha, beta: beta, rng: rng})
}

// NewExploiter creates an agent that always follows the strongest pheromone
// and records every choice in the graph's next-hop cache.
func NewExploiter(g *graph.Graph, source, destination string) *Agent {
	return newAgent(g, source, destination, exploitPolicy{})
}

func newAgent(g *graph.Graph, source, destination string, policy movePolicy) *Agent {
	return &Agent{
		graph:       g,
		source:      source,
		destination: destination,
		current:     source,
		visited:     make(map[string]struct{}),
		policy:      policy,
	}
}

// Source returns the node the agent started from
func (a *Agent) Source() string { return a.source }

// Current returns the node the agent stands on
func (a *Agent) Current() string { return a.current }

// Path returns the hops taken so far
func (a *Agent) Path() []graph.Hop {
	path := make([]graph.Hop, len(a.path))
	copy(path, a.path)
	return path
}

// PathCost returns the summed cost of the hops taken so far
func (a *Agent) PathCost() float64 { return a.pathCost }

// ReachedDestination reports whether the agent stands on its destination
func (a *Agent) ReachedDestination() bool {
	return a.current == a.destination
}

func (a *Agent) unvisitedNeighbors() map[string]struct{} {
	unvisited := make(map[string]struct{})
	for _, n := range a.graph.Neighbors(a.current) {
		if _, seen := a.visited[n]; !seen {
			unvisited[n] = struct{}{}
		}
	}
	return unvisited
}

// Step moves the agent over one link. It returns false on a dead end,
// i.e. when every neighbour of the current node was already visited.
func (a *Agent) Step() bool {
	a.visited[a.current] = struct{}{}

	unvisited := a.unvisitedNeighbors()
	if len(unvisited) == 0 {
		return false
	}
	options := a.graph.ConnectionOptions(a.current, unvisited)
	if len(options) == 0 {
		return false
	}

	next, ok := a.policy.chooseNext(a, options)
	if !ok {
		return false
	}

	cost, _ := a.graph.Cost(a.current, next.Node, next.Index)
	a.pathCost += cost
	a.path = append(a.path, next)
	a.current = next.Node
	return true
}

// Walk steps until the destination is reached. maxSteps <= 0 leaves the walk
// bounded only by the visited set. It returns whether the destination was reached.
func (a *Agent) Walk(maxSteps int) bool {
	for steps := 0; !a.ReachedDestination(); steps++ {
		if maxSteps > 0 && steps >= maxSteps {
			return false
		}
		if a.policy.halts(a) {
			return false
		}
		if !a.Step() {
			return false
		}
	}
	return true
}

// Probabilities returns the sampling distribution over options from the current node.
// Exploiters weigh with zero exponents, which yields a uniform distribution.
func (a *Agent) Probabilities(options []graph.Hop) []Choice {
	alpha, beta := 0.0, 0.0
	if p, ok := a.policy.(*explorePolicy); ok {
		alpha, beta = p.alpha, p.beta
	}
	return probabilities(a.graph, a.current, options, alpha, beta)
}

// DepositPheromone puts 1/pathCost on every link of the path.
// The first hop starts at the source, every later one at the previous hop's node.
func (a *Agent) DepositPheromone() error {
	if len(a.path) == 0 || a.pathCost <= 0 {
		return nil
	}

	amount := 1 / a.pathCost
	src := a.source
	for _, hop := range a.path {
		if err := a.graph.AddPheromone(src, hop.Node, hop.Index, amount); err != nil {
			return err
		}
		src = hop.Node
	}
	return nil
}
