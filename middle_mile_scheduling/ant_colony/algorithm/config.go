package algorithm

import "fmt"

// Config holds the colony parameters
type Config struct {
	MaxSteps        int     `toml:"max_steps"`        // hop cap for exploration walks
	EvaporationRate float64 `toml:"evaporation_rate"` // fraction of pheromone lost per cycle
	Alpha           float64 `toml:"alpha"`            // pheromone influence
	Beta            float64 `toml:"beta"`             // cost influence
	Iterations      int     `toml:"iterations"`       // training cycles per destination
	Agents          int     `toml:"agents"`           // exploration agents per cycle
	Seed            int64   `toml:"seed"`             // seed for every destination run
	ParallelAgents  bool    `toml:"parallel_agents"`  // walk a cycle's agents on the agent pool
}

// DefaultConfig returns the parameters the route generator has always shipped with
func DefaultConfig() Config {
	return Config{
		MaxSteps:        32,
		EvaporationRate: 0.001,
		Alpha:           0.7,
		Beta:            0.3,
		Iterations:      100,
		Agents:          100,
		Seed:            0,
	}
}

// Validate checks the parameters are usable
func (c Config) Validate() error {
	if c.MaxSteps <= 0 {
		return fmt.Errorf("max_steps must be positive, got %d", c.MaxSteps)
	}
	if c.EvaporationRate <= 0 || c.EvaporationRate >= 1 {
		return fmt.Errorf("evaporation_rate must be in (0,1), got %v", c.EvaporationRate)
	}
	if c.Alpha < 0 || c.Beta < 0 {
		return fmt.Errorf("alpha and beta must not be negative, got %v and %v", c.Alpha, c.Beta)
	}
	if c.Iterations < 0 {
		return fmt.Errorf("iterations must not be negative, got %d", c.Iterations)
	}
	if c.Agents <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAgentCount, c.Agents)
	}
	return nil
}
