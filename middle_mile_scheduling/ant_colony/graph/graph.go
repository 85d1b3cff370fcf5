package graph

import (
	"errors"
	"math"
	"sync"
)

const (
	// InitialPheromone is the value every link starts a destination run with
	InitialPheromone = 1.0

	// ReliabilityFloor bounds reliability from below inside the cost function
	ReliabilityFloor = 0.01

	// BaseCost is added to every link cost so cost never drops below it
	BaseCost = 0.1
)

var (
	ErrLinkNotFound      = errors.New("graph: link not found")
	ErrNegativePheromone = errors.New("graph: pheromone must be a non-negative number")
	ErrInvalidRate       = errors.New("graph: evaporation rate must be in (0,1)")
	ErrInvalidLink       = errors.New("graph: link needs positive jumps, a finite positive datarate and reliability in [0,1]")
)

// Link is one physical connection between an ordered node pair
type Link struct {
	IP          string  // next hop address used when forwarding over this link
	LastSeen    float64 // seconds since the neighbour was last heard
	Jumps       int     // hop weight of the link
	ReportedAt  int     // delivery time reported with the link
	Reliability float64 // delivery ratio in [0,1]
	DataRate    float64 // capacity in Mbps

	pheromone float64
}

// Hop addresses one parallel link toward Node
type Hop struct {
	Node  string
	Index int
}

// Graph is a directed multigraph carrying pheromone per link and a next hop per node.
// Pheromone and next hops are only meaningful for a single destination at a time.
type Graph struct {
	nodes    []string
	nodeSet  map[string]struct{}
	adj      map[string][]string          // outgoing neighbours in insertion order
	inbound  map[string][]string          // incoming neighbours in insertion order
	links    map[string]map[string][]*Link // src -> dst -> parallel links
	nextHops map[string]Hop
	mutex    sync.RWMutex
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{
		nodeSet:  make(map[string]struct{}),
		adj:      make(map[string][]string),
		inbound:  make(map[string][]string),
		links:    make(map[string]map[string][]*Link),
		nextHops: make(map[string]Hop),
	}
}

// AddNode adds id if it is not present yet
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.addNodeLocked(id)
}

func (g *Graph) addNodeLocked(id string) {
	if _, exists := g.nodeSet[id]; exists {
		return
	}
	g.nodeSet[id] = struct{}{}
	g.nodes = append(g.nodes, id)
	g.links[id] = make(map[string][]*Link)
}

func validLink(link Link) bool {
	if link.Jumps <= 0 {
		return false
	}
	if math.IsNaN(link.DataRate) || math.IsInf(link.DataRate, 0) || link.DataRate <= 0 {
		return false
	}
	// NaN fails both comparisons
	return link.Reliability >= 0 && link.Reliability <= 1
}

// AddLink appends a parallel link src->dst and returns its index.
// Missing endpoints are created. The link starts with InitialPheromone.
func (g *Graph) AddLink(src, dst string, link Link) (int, error) {
	if !validLink(link) {
		return -1, ErrInvalidLink
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.addNodeLocked(src)
	g.addNodeLocked(dst)

	parallel, exists := g.links[src][dst]
	if !exists {
		g.adj[src] = append(g.adj[src], dst)
		g.inbound[dst] = append(g.inbound[dst], src)
	}

	l := link
	l.pheromone = InitialPheromone
	g.links[src][dst] = append(parallel, &l)
	return len(parallel), nil
}

// HasNode reports whether id is part of the graph
func (g *Graph) HasNode(id string) bool {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	_, exists := g.nodeSet[id]
	return exists
}

// Nodes returns all node ids in insertion order
func (g *Graph) Nodes() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	nodes := make([]string, len(g.nodes))
	copy(nodes, g.nodes)
	return nodes
}

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.nodes)
}

// LinkCount returns the number of links including parallel ones
func (g *Graph) LinkCount() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	count := 0
	for _, targets := range g.links {
		for _, parallel := range targets {
			count += len(parallel)
		}
	}
	return count
}

// Link returns a copy of the link src->dst at index
func (g *Graph) Link(src, dst string, index int) (Link, bool) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	l := g.linkLocked(src, dst, index)
	if l == nil {
		return Link{}, false
	}
	return *l, true
}

func (g *Graph) linkLocked(src, dst string, index int) *Link {
	parallel := g.links[src][dst]
	if index < 0 || index >= len(parallel) {
		return nil
	}
	return parallel[index]
}

// Pheromone returns the pheromone on one link
func (g *Graph) Pheromone(src, dst string, index int) (float64, bool) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	l := g.linkLocked(src, dst, index)
	if l == nil {
		return 0, false
	}
	return l.pheromone, true
}

// SetPheromone overwrites the pheromone on one link
func (g *Graph) SetPheromone(src, dst string, index int, value float64) error {
	if !validPheromone(value) {
		return ErrNegativePheromone
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	l := g.linkLocked(src, dst, index)
	if l == nil {
		return ErrLinkNotFound
	}
	l.pheromone = value
	return nil
}

// AddPheromone adds amount to one link so deposits of the same cycle accumulate
func (g *Graph) AddPheromone(src, dst string, index int, amount float64) error {
	if !validPheromone(amount) {
		return ErrNegativePheromone
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	l := g.linkLocked(src, dst, index)
	if l == nil {
		return ErrLinkNotFound
	}
	l.pheromone += amount
	return nil
}

func validPheromone(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1)
}

// ResetPheromone sets every link to value
func (g *Graph) ResetPheromone(value float64) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	for _, targets := range g.links {
		for _, parallel := range targets {
			for _, l := range parallel {
				l.pheromone = value
			}
		}
	}
}

// ApplyEvaporation scales every link's pheromone by (1 - rate)
func (g *Graph) ApplyEvaporation(rate float64) error {
	if rate <= 0 || rate >= 1 {
		return ErrInvalidRate
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	factor := 1 - rate
	for _, targets := range g.links {
		for _, parallel := range targets {
			for _, l := range parallel {
				l.pheromone *= factor
			}
		}
	}
	return nil
}

// LinkCost is (jumps / datarate) / max(reliability, 0.01)^2 + 0.1
func LinkCost(l Link) float64 {
	reliability := math.Max(l.Reliability, ReliabilityFloor)
	return (float64(l.Jumps)/l.DataRate)/(reliability*reliability) + BaseCost
}

// Cost returns the traversal cost of one link
func (g *Graph) Cost(src, dst string, index int) (float64, bool) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	l := g.linkLocked(src, dst, index)
	if l == nil {
		return 0, false
	}
	return LinkCost(*l), true
}

// Neighbors returns the outgoing neighbours of node in insertion order
func (g *Graph) Neighbors(node string) []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	neighbors := make([]string, len(g.adj[node]))
	copy(neighbors, g.adj[node])
	return neighbors
}

// ConnectionOptions returns every outgoing link of node whose far end is in unvisited.
// Order is neighbour insertion order, then link index.
func (g *Graph) ConnectionOptions(node string, unvisited map[string]struct{}) []Hop {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	var options []Hop
	for _, neighbor := range g.adj[node] {
		if _, ok := unvisited[neighbor]; !ok {
			continue
		}
		for i := range g.links[node][neighbor] {
			options = append(options, Hop{Node: neighbor, Index: i})
		}
	}
	return options
}

// SetNextHop records the chosen link for node
func (g *Graph) SetNextHop(node string, hop Hop) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.nextHops[node] = hop
}

// NextHop returns the cached link for node
func (g *Graph) NextHop(node string) (Hop, bool) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	hop, exists := g.nextHops[node]
	return hop, exists
}

// HasNextHop reports whether node has a cached link
func (g *Graph) HasNextHop(node string) bool {
	_, exists := g.NextHop(node)
	return exists
}

// ClearNextHops drops every cached next hop
func (g *Graph) ClearNextHops() {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.nextHops = make(map[string]Hop)
}

// ReverseReachable returns every node that can reach destination, destination included.
// Breadth-first over inbound links.
func (g *Graph) ReverseReachable(destination string) map[string]struct{} {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	known := make(map[string]struct{})
	if _, exists := g.nodeSet[destination]; !exists {
		return known
	}

	known[destination] = struct{}{}
	queue := []string{destination}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, predecessor := range g.inbound[current] {
			if _, seen := known[predecessor]; seen {
				continue
			}
			known[predecessor] = struct{}{}
			queue = append(queue, predecessor)
		}
	}
	return known
}

// Inbound returns the nodes with a link into node, in insertion order
func (g *Graph) Inbound(node string) []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	inbound := make([]string, len(g.inbound[node]))
	copy(inbound, g.inbound[node])
	return inbound
}

// ParallelCount returns how many links run src->dst
func (g *Graph) ParallelCount(src, dst string) int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.links[src][dst])
}

// Clone creates a deep copy including pheromone and next hops
func (g *Graph) Clone() *Graph {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	c := NewGraph()
	c.nodes = append(c.nodes, g.nodes...)
	for id := range g.nodeSet {
		c.nodeSet[id] = struct{}{}
	}
	for src, targets := range g.adj {
		c.adj[src] = append([]string(nil), targets...)
	}
	for dst, sources := range g.inbound {
		c.inbound[dst] = append([]string(nil), sources...)
	}
	for src, targets := range g.links {
		c.links[src] = make(map[string][]*Link, len(targets))
		for dst, parallel := range targets {
			copied := make([]*Link, len(parallel))
			for i, l := range parallel {
				lc := *l
				copied[i] = &lc
			}
			c.links[src][dst] = copied
		}
	}
	for node, hop := range g.nextHops {
		c.nextHops[node] = hop
	}
	return c
}
