package common

import (
	"fmt"
	"sort"
	"sync"
)

// AlgorithmRegistry manages available routing algorithms
type AlgorithmRegistry struct {
	calculators map[string]RouteCalculator
	mu          sync.RWMutex
}

// NewAlgorithmRegistry creates an empty registry
func NewAlgorithmRegistry() *AlgorithmRegistry {
	return &AlgorithmRegistry{
		calculators: make(map[string]RouteCalculator),
	}
}

// Register registers a calculator under its own name
func (ar *AlgorithmRegistry) Register(calculator RouteCalculator) error {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	name := calculator.Name()
	if _, exists := ar.calculators[name]; exists {
		return fmt.Errorf("algorithm '%s' is already registered", name)
	}

	ar.calculators[name] = calculator
	return nil
}

// Get retrieves an algorithm by name
func (ar *AlgorithmRegistry) Get(name string) (RouteCalculator, error) {
	ar.mu.RLock()
	defer ar.mu.RUnlock()

	calc, exists := ar.calculators[name]
	if !exists {
		return nil, fmt.Errorf("algorithm '%s' not found in registry", name)
	}

	return calc, nil
}

// List returns all registered algorithm names, sorted
func (ar *AlgorithmRegistry) List() []string {
	ar.mu.RLock()
	defer ar.mu.RUnlock()

	names := make([]string, 0, len(ar.calculators))
	for name := range ar.calculators {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
