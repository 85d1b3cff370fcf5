package shortest_path

import (
	"errors"
	"fmt"
	"math"

	"multirat/middle_mile_scheduling/ant_colony/graph"
	msc "multirat/middle_mile_scheduling/common"
)

var ErrUnknownDestination = errors.New("shortest path: destination not in graph")

// Tree is the minimum-cost in-tree rooted at a destination
type Tree struct {
	Destination string
	Distance    map[string]float64   // cost of the cheapest walk to Destination
	Next        map[string]graph.Hop // first hop of that walk
}

// Dijkstra settles nodes outward from destination over inbound links,
// so Distance[v] is the cheapest cost from v to destination.
// Among equal-cost first hops the one found first wins.
func Dijkstra(g *graph.Graph, destination string) (*Tree, error) {
	if !g.HasNode(destination) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDestination, destination)
	}

	nodes := g.Nodes()
	tree := &Tree{
		Destination: destination,
		Distance:    make(map[string]float64, len(nodes)),
		Next:        make(map[string]graph.Hop),
	}

	distances := make(map[string]float64, len(nodes)) // tentative, unsettled only
	distances[destination] = 0
	settled := make(map[string]bool, len(nodes))

	for count := 0; count < len(nodes); count++ {
		minNode := ""
		minDistance := math.Inf(1)
		for _, n := range nodes { // node order keeps ties deterministic
			d, ok := distances[n]
			if !ok || settled[n] {
				continue
			}
			if d < minDistance {
				minNode, minDistance = n, d
			}
		}
		if minNode == "" { // the rest cannot reach destination
			break
		}

		settled[minNode] = true
		tree.Distance[minNode] = minDistance

		for _, predecessor := range g.Inbound(minNode) {
			if settled[predecessor] {
				continue
			}
			for idx := 0; idx < g.ParallelCount(predecessor, minNode); idx++ {
				cost, _ := g.Cost(predecessor, minNode, idx)
				candidate := minDistance + cost
				if d, ok := distances[predecessor]; ok && d <= candidate {
					continue
				}
				distances[predecessor] = candidate
				tree.Next[predecessor] = graph.Hop{Node: minNode, Index: idx}
			}
		}
	}

	return tree, nil
}

// Path follows Next from source and returns the hops down to the destination
func (t *Tree) Path(source string) []graph.Hop {
	var path []graph.Hop
	current := source
	for current != t.Destination {
		hop, ok := t.Next[current]
		if !ok {
			return nil
		}
		path = append(path, hop)
		current = hop.Node
	}
	return path
}

// NextHops maps every node that can reach destination to the IP of its cheapest first hop
func NextHops(g *graph.Graph, destination string) (msc.RouteTable, error) {
	tree, err := Dijkstra(g, destination)
	if err != nil {
		return nil, err
	}

	table := make(msc.RouteTable, len(tree.Next))
	for node, hop := range tree.Next {
		if l, ok := g.Link(node, hop.Node, hop.Index); ok {
			table[node] = l.IP
		}
	}
	return table, nil
}
