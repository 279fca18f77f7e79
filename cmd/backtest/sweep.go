package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ducminhle1904/quant-backtester/internal/backtest"
	"github.com/ducminhle1904/quant-backtester/pkg/optimization"
)

// parseGrid reads "name=v1:v2:v3;name2=v1:v2". An empty spec falls back to
// the strategy's default ranges.
func parseGrid(spec, strategyName string) (backtest.ParameterGrid, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		grid, ok := optimization.DefaultRanges(strategyName)
		if !ok {
			return nil, fmt.Errorf("no default sweep grid for strategy %q", strategyName)
		}
		return grid, nil
	}

	grid := make(backtest.ParameterGrid)
	for _, part := range strings.Split(spec, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, values, ok := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid sweep entry %q (want name=v1:v2)", part)
		}
		for _, raw := range strings.Split(values, ":") {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid value %q for %s: %w", raw, name, err)
			}
			grid[name] = append(grid[name], v)
		}
	}
	if len(grid) == 0 {
		return nil, fmt.Errorf("empty sweep grid %q", spec)
	}
	return grid, nil
}
