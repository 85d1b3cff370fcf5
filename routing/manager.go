package routing

import (
	"context"
	"errors"
	"sort"
	"sync"

	"multirat/middle_mile_scheduling/ant_colony/graph"
	msc "multirat/middle_mile_scheduling/common"

	"github.com/panjf2000/ants/v2"
	log "github.com/sirupsen/logrus"
)

var ErrNoCalculator = errors.New("routing: no route calculator configured")

// RouteManager computes one table per destination with a single calculator
type RouteManager struct {
	calculator msc.RouteCalculator
	pool       *ants.Pool // destination fan-out, nil means sequential
}

// NewRouteManager creates a manager. pool must not be shared with the calculator's own workers.
func NewRouteManager(calculator msc.RouteCalculator, pool *ants.Pool) *RouteManager {
	return &RouteManager{calculator: calculator, pool: pool}
}

// Algorithm returns the calculator name
func (rm *RouteManager) Algorithm() string {
	if rm.calculator == nil {
		return ""
	}
	return rm.calculator.Name()
}

// ComputeDestination computes destination's table on a private copy of g
func (rm *RouteManager) ComputeDestination(g *graph.Graph, destination string) (msc.RouteTable, error) {
	if rm.calculator == nil {
		return nil, ErrNoCalculator
	}
	return rm.calculator.ComputeRoutes(g.Clone(), destination)
}

// ComputeAll computes a table toward every node of g, in ascending destination order.
// A destination whose computation fails is logged, recorded in RouteSet.Failed and skipped.
// Tables are collected by destination position, so the result does not depend on the pool.
func (rm *RouteManager) ComputeAll(ctx context.Context, g *graph.Graph) (*RouteSet, error) {
	if rm.calculator == nil {
		return nil, ErrNoCalculator
	}

	destinations := g.Nodes()
	sort.Strings(destinations)

	tables := make([]msc.RouteTable, len(destinations))
	errs := make([]error, len(destinations))

	compute := func(idx int) {
		tables[idx], errs[idx] = rm.ComputeDestination(g, destinations[idx])
	}

	if rm.pool == nil {
		for i := range destinations {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			compute(i)
		}
	} else {
		var wg sync.WaitGroup
		for i := range destinations {
			if ctx.Err() != nil {
				break
			}
			wg.Add(1)
			idx := i

			err := rm.pool.Submit(func() {
				defer wg.Done()
				compute(idx)
			})
			if err != nil {
				log.Warnf("ComputeAll: failed to submit destination %s: %v, computing inline", destinations[idx], err)
				compute(idx)
				wg.Done()
			}
		}
		wg.Wait()

		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	set := NewRouteSet(rm.calculator.Name())
	for i, dst := range destinations {
		if errs[i] != nil {
			log.Warnf("ComputeAll: destination %s failed: %v", dst, errs[i])
			set.Failed = append(set.Failed, dst)
			continue
		}
		set.Add(dst, tables[i])
		log.Debugf("ComputeAll: destination=%s, routes=%d", dst, len(tables[i]))
	}

	log.Infof("ComputeAll: algorithm=%s, destinations=%d, sources=%d, routes=%d, failed=%d",
		set.Algorithm, len(destinations), len(set.Routes), set.RouteCount(), len(set.Failed))
	return set, nil
}
