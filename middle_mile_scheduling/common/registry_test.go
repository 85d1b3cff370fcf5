package common

import (
	"testing"

	"multirat/middle_mile_scheduling/ant_colony/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCalculator struct {
	name string
}

func (m *mockCalculator) Name() string { return m.name }

func (m *mockCalculator) ComputeRoutes(g *graph.Graph, destination string) (RouteTable, error) {
	return RouteTable{"1": "10.0.0.2"}, nil
}

func TestRegistry(t *testing.T) {
	reg := NewAlgorithmRegistry()

	require.NoError(t, reg.Register(&mockCalculator{name: "zeta"}))
	require.NoError(t, reg.Register(&mockCalculator{name: "alpha"}))

	err := reg.Register(&mockCalculator{name: "zeta"})
	assert.Error(t, err)

	calc, err := reg.Get("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", calc.Name())

	_, err = reg.Get("missing")
	assert.Error(t, err)

	assert.Equal(t, []string{"alpha", "zeta"}, reg.List())
}

func TestRouteTableSources(t *testing.T) {
	rt := RouteTable{"3": "c", "1": "a", "10": "j"}
	assert.Equal(t, []string{"1", "10", "3"}, rt.Sources())
	assert.Empty(t, RouteTable{}.Sources())
}
