package optimization

import (
	"strconv"
	"strings"

	"github.com/ducminhle1904/quant-backtester/internal/backtest"
)

// Individual is one candidate parameter set. Gene i indexes the values of
// the i-th parameter in sorted name order.
type Individual struct {
	Genes   []int
	Fitness float64
	Result  *backtest.SweepResult
}

func newIndividual(genes []int) *Individual {
	return &Individual{Genes: genes}
}

// clone copies the genes and drops the evaluation
func (ind *Individual) clone() *Individual {
	return newIndividual(append([]int(nil), ind.Genes...))
}

// key identifies the gene sequence for caching evaluations
func (ind *Individual) key() string {
	var b strings.Builder
	for i, g := range ind.Genes {
		if i > 0 {
			b.WriteByte('/')
		}
		b.WriteString(strconv.Itoa(g))
	}
	return b.String()
}

// parameters decodes the genes into strategy parameters
func (ind *Individual) parameters(keys []string, ranges backtest.ParameterGrid) map[string]float64 {
	params := make(map[string]float64, len(keys))
	for i, k := range keys {
		params[k] = ranges[k][ind.Genes[i]]
	}
	return params
}
