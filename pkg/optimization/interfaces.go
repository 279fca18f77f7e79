// Package optimization searches a strategy's parameter ranges with a
// genetic algorithm instead of trying every combination.
package optimization

import (
	"math/rand"
)

// GA defaults
const (
	GAPopulationSize = 24
	GAGenerations    = 15
	GAMutationRate   = 0.2
	GACrossoverRate  = 0.85
	GAEliteSize      = 4
	TournamentSize   = 2
)

// GeneticOperator breeds and selects individuals
type GeneticOperator interface {
	Crossover(parent1, parent2 *Individual, rate float64, rng *rand.Rand) *Individual
	Mutate(individual *Individual, rate float64, rng *rand.Rand)
	Select(population Population, tournamentSize int, rng *rand.Rand) *Individual
}

// OptimizationConfig holds the configuration for the genetic algorithm
type OptimizationConfig struct {
	PopulationSize int     `json:"population_size" yaml:"population_size"`
	Generations    int     `json:"generations" yaml:"generations"`
	MutationRate   float64 `json:"mutation_rate" yaml:"mutation_rate"`
	CrossoverRate  float64 `json:"crossover_rate" yaml:"crossover_rate"`
	EliteSize      int     `json:"elite_size" yaml:"elite_size"`
	TournamentSize int     `json:"tournament_size" yaml:"tournament_size"`
}

// DefaultOptimizationConfig returns the GA defaults
func DefaultOptimizationConfig() OptimizationConfig {
	return OptimizationConfig{
		PopulationSize: GAPopulationSize,
		Generations:    GAGenerations,
		MutationRate:   GAMutationRate,
		CrossoverRate:  GACrossoverRate,
		EliteSize:      GAEliteSize,
		TournamentSize: TournamentSize,
	}
}

// withDefaults fills zero fields and clamps the elite count to the population
func (c OptimizationConfig) withDefaults() OptimizationConfig {
	d := DefaultOptimizationConfig()
	if c.PopulationSize <= 0 {
		c.PopulationSize = d.PopulationSize
	}
	if c.Generations <= 0 {
		c.Generations = d.Generations
	}
	if c.MutationRate <= 0 {
		c.MutationRate = d.MutationRate
	}
	if c.CrossoverRate <= 0 {
		c.CrossoverRate = d.CrossoverRate
	}
	if c.TournamentSize <= 0 {
		c.TournamentSize = d.TournamentSize
	}
	if c.EliteSize < 0 {
		c.EliteSize = 0
	}
	if c.EliteSize >= c.PopulationSize {
		c.EliteSize = c.PopulationSize - 1
	}
	return c
}
