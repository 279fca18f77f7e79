package optimization

import (
	"math"
	"sort"
)

// Population is one generation of individuals
type Population []*Individual

// SortByFitness orders the population best first
func (p Population) SortByFitness() {
	sort.SliceStable(p, func(i, j int) bool {
		return p[i].Fitness > p[j].Fitness
	})
}

// Best returns the fittest individual
func (p Population) Best() *Individual {
	if len(p) == 0 {
		return nil
	}
	best := p[0]
	for _, ind := range p[1:] {
		if ind.Fitness > best.Fitness {
			best = ind
		}
	}
	return best
}

// AverageFitness averages the finite fitness values. Individuals that
// failed to evaluate are skipped.
func (p Population) AverageFitness() float64 {
	sum, n := 0.0, 0
	for _, ind := range p {
		if math.IsInf(ind.Fitness, 0) || math.IsNaN(ind.Fitness) {
			continue
		}
		sum += ind.Fitness
		n++
	}
	if n == 0 {
		return math.Inf(-1)
	}
	return sum / float64(n)
}
