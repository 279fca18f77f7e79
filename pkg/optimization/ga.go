package optimization

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/ducminhle1904/quant-backtester/internal/backtest"
	qerr "github.com/ducminhle1904/quant-backtester/internal/errors"
	"github.com/ducminhle1904/quant-backtester/internal/logger"
	"github.com/ducminhle1904/quant-backtester/internal/monitoring"
	"github.com/ducminhle1904/quant-backtester/internal/strategy"
	"github.com/ducminhle1904/quant-backtester/pkg/types"
)

const component = "optimization"

// GeneticOptimizer evolves parameter sets drawn from Ranges and ranks them
// by Objective. Runs with the same Seed and data are reproducible.
type GeneticOptimizer struct {
	Base      strategy.Config
	Ranges    backtest.ParameterGrid
	Config    backtest.Config
	Objective string
	Settings  OptimizationConfig
	Seed      int64
	Workers   int
	Logger    *logger.Logger
}

// Run evolves the population and returns every distinct parameter set it
// evaluated, best first. Sets that failed to build or backtest sort last.
func (g *GeneticOptimizer) Run(ctx context.Context, bars []types.OHLCV, column string) ([]backtest.SweepResult, error) {
	log := g.Logger
	if log == nil {
		log = logger.Nop()
	}
	keys := rangeKeys(g.Ranges)
	if len(keys) == 0 {
		return nil, qerr.NewValidationError(component, "run", "no parameter ranges to search")
	}
	for _, k := range keys {
		if len(g.Ranges[k]) == 0 {
			return nil, qerr.NewValidationError(component, "run", fmt.Sprintf("parameter %s has no values", k))
		}
	}

	settings := g.Settings.withDefaults()
	rng := rand.New(rand.NewSource(g.Seed))
	op := NewGridGeneticOperator(g.Ranges)

	population := make(Population, settings.PopulationSize)
	for i := range population {
		population[i] = op.Random(rng)
	}

	cache := make(map[string]*backtest.SweepResult)
	for gen := 0; gen < settings.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := g.evaluate(ctx, population, keys, cache, bars, column, log); err != nil {
			return nil, err
		}
		population.SortByFitness()
		log.Debug("GA generation %d/%d: best %.4f, average %.4f, %d evaluated",
			gen+1, settings.Generations, population[0].Fitness, population.AverageFitness(), len(cache))

		if gen < settings.Generations-1 {
			population = nextGeneration(population, op, settings, rng)
		}
	}

	ranked := make([]backtest.SweepResult, 0, len(cache))
	cacheKeys := make([]string, 0, len(cache))
	for k := range cache {
		cacheKeys = append(cacheKeys, k)
	}
	sort.Strings(cacheKeys)
	for _, k := range cacheKeys {
		ranked = append(ranked, *cache[k])
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].Score > ranked[b].Score })

	if best := population.Best(); best != nil {
		log.Info("GA → %s %.4f after %d generations (%d parameter sets)",
			g.objective(), best.Fitness, settings.Generations, len(ranked))
	}
	monitoring.RecordOptimization("genetic", settings.Generations, true)
	return ranked, nil
}

// evaluate backtests the individuals not seen before and assigns fitness
// to the whole population from the cache
func (g *GeneticOptimizer) evaluate(ctx context.Context, population Population, keys []string,
	cache map[string]*backtest.SweepResult, bars []types.OHLCV, column string, log *logger.Logger) error {

	var jobs []backtest.Job
	var pending []*backtest.SweepResult
	for _, ind := range population {
		k := ind.key()
		if _, seen := cache[k]; seen {
			continue
		}
		res := &backtest.SweepResult{Parameters: ind.parameters(keys, g.Ranges), Score: math.Inf(-1)}
		cache[k] = res

		cfg := g.Base
		cfg.Parameters = merge(g.Base.Parameters, res.Parameters)
		strat, err := strategy.New(cfg)
		if err != nil {
			res.Error = qerr.Wrap(err, qerr.ErrorCategoryConfiguration, component, "evaluate")
			continue
		}
		jobs = append(jobs, backtest.Job{
			ID:       fmt.Sprintf("%s_ga_%s", strat.Name(), k),
			Strategy: strat,
			Config:   g.Config,
			Bars:     bars,
			Column:   column,
		})
		pending = append(pending, res)
	}

	batch, err := backtest.RunBatch(ctx, jobs, g.Workers, log)
	if err != nil {
		return err
	}
	objective := g.objective()
	for i, r := range batch {
		res := pending[i]
		res.Metrics, res.Error = r.Metrics, r.Error
		if r.Metrics != nil {
			if v, ok := r.Metrics.Map()[objective]; ok && !math.IsNaN(v) {
				res.Score = v
			}
		}
	}

	for _, ind := range population {
		res := cache[ind.key()]
		ind.Fitness = res.Score
		ind.Result = res
	}
	return nil
}

func (g *GeneticOptimizer) objective() string {
	if g.Objective == "" {
		return "sharpe_ratio"
	}
	return g.Objective
}

// nextGeneration keeps the elite and fills the rest by tournament
// selection, crossover and mutation. population must be sorted.
func nextGeneration(population Population, op GeneticOperator, s OptimizationConfig, rng *rand.Rand) Population {
	next := make(Population, len(population))
	for i := 0; i < s.EliteSize; i++ {
		next[i] = population[i].clone()
	}
	for i := s.EliteSize; i < len(population); i++ {
		parent1 := op.Select(population, s.TournamentSize, rng)
		parent2 := op.Select(population, s.TournamentSize, rng)
		child := op.Crossover(parent1, parent2, s.CrossoverRate, rng)
		op.Mutate(child, s.MutationRate, rng)
		next[i] = child
	}
	return next
}

func merge(base, override map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}
