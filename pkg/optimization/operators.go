package optimization

import (
	"math/rand"

	"github.com/ducminhle1904/quant-backtester/internal/backtest"
)

// GridGeneticOperator breeds index genes over a parameter grid
type GridGeneticOperator struct {
	ranges backtest.ParameterGrid
	keys   []string
}

// NewGridGeneticOperator creates an operator for the given ranges
func NewGridGeneticOperator(ranges backtest.ParameterGrid) *GridGeneticOperator {
	return &GridGeneticOperator{ranges: ranges, keys: rangeKeys(ranges)}
}

// Random draws a uniformly random individual
func (op *GridGeneticOperator) Random(rng *rand.Rand) *Individual {
	genes := make([]int, len(op.keys))
	for i, k := range op.keys {
		genes[i] = rng.Intn(len(op.ranges[k]))
	}
	return newIndividual(genes)
}

// Crossover starts from parent1 and, with probability rate, takes each gene
// from either parent with equal odds
func (op *GridGeneticOperator) Crossover(parent1, parent2 *Individual, rate float64, rng *rand.Rand) *Individual {
	child := parent1.clone()
	if rng.Float64() < rate {
		for i := range child.Genes {
			if rng.Float64() < 0.5 {
				child.Genes[i] = parent2.Genes[i]
			}
		}
	}
	return child
}

// Mutate redraws each gene with probability rate
func (op *GridGeneticOperator) Mutate(individual *Individual, rate float64, rng *rand.Rand) {
	mutated := false
	for i, k := range op.keys {
		if rng.Float64() < rate {
			individual.Genes[i] = rng.Intn(len(op.ranges[k]))
			mutated = true
		}
	}
	if mutated {
		individual.Fitness = 0
		individual.Result = nil
	}
}

// Select runs a tournament of tournamentSize random picks
func (op *GridGeneticOperator) Select(population Population, tournamentSize int, rng *rand.Rand) *Individual {
	if len(population) == 0 {
		return nil
	}
	best := population[rng.Intn(len(population))]
	for i := 1; i < tournamentSize; i++ {
		candidate := population[rng.Intn(len(population))]
		if candidate.Fitness > best.Fitness {
			best = candidate
		}
	}
	return best
}
