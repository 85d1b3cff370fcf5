package algorithm

import (
	"math"
	"math/rand"
	"sort"

	"multirat/middle_mile_scheduling/ant_colony/graph"
)

// movePolicy picks the next link for an agent
type movePolicy interface {
	// chooseNext selects one of options, which is never empty
	chooseNext(a *Agent, options []graph.Hop) (graph.Hop, bool)

	// halts reports whether the walk should stop before the next step
	halts(a *Agent) bool
}

// explorePolicy samples proportionally to pheromone^alpha * (1/cost)^beta
type explorePolicy struct {
	alpha float64
	beta  float64
	rng   *rand.Rand
}

func (p *explorePolicy) chooseNext(a *Agent, options []graph.Hop) (graph.Hop, bool) {
	return pickRandom(probabilities(a.graph, a.current, options, p.alpha, p.beta), p.rng.Float64())
}

func (p *explorePolicy) halts(a *Agent) bool { return false }

// exploitPolicy follows the strongest pheromone and memoizes the choice per node
type exploitPolicy struct{}

// chooseNext returns the option with the most pheromone.
// Ties go to the earliest option in ConnectionOptions order.
func (exploitPolicy) chooseNext(a *Agent, options []graph.Hop) (graph.Hop, bool) {
	best := options[0]
	bestPheromone, _ := a.graph.Pheromone(a.current, best.Node, best.Index)
	for _, option := range options[1:] {
		pher, _ := a.graph.Pheromone(a.current, option.Node, option.Index)
		if pher > bestPheromone {
			best, bestPheromone = option, pher
		}
	}

	a.graph.SetNextHop(a.current, best)
	return best, true
}

// halts stops on a node whose next hop an earlier exploiter already fixed
func (exploitPolicy) halts(a *Agent) bool {
	return a.graph.HasNextHop(a.current)
}

func desirability(pheromone, cost, alpha, beta float64) float64 {
	return math.Pow(pheromone, alpha) * math.Pow(1/cost, beta)
}

func probabilities(g *graph.Graph, current string, options []graph.Hop, alpha, beta float64) []Choice {
	choices := make([]Choice, len(options))
	total := 0.0
	for i, option := range options {
		pher, _ := g.Pheromone(current, option.Node, option.Index)
		cost, _ := g.Cost(current, option.Node, option.Index)
		choices[i] = Choice{Hop: option, Probability: desirability(pher, cost, alpha, beta)}
		total += choices[i].Probability
	}

	// all candidates fully evaporated or reset to zero
	if total <= 0 || math.IsInf(total, 0) || math.IsNaN(total) {
		for i := range choices {
			choices[i].Probability = 1 / float64(len(choices))
		}
		return choices
	}

	for i := range choices {
		choices[i].Probability /= total
	}
	return choices
}

// pickRandom walks the choices by descending probability and returns the first whose
// cumulative probability exceeds draw. Rounding can leave the sum just under draw;
// the last choice is returned then.
func pickRandom(choices []Choice, draw float64) (graph.Hop, bool) {
	if len(choices) == 0 {
		return graph.Hop{}, false
	}

	sorted := make([]Choice, len(choices))
	copy(sorted, choices)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Probability > sorted[j].Probability
	})

	cumulative := 0.0
	for _, c := range sorted {
		cumulative += c.Probability
		if cumulative > draw {
			return c.Hop, true
		}
	}
	return sorted[len(sorted)-1].Hop, true
}
