package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ducminhle1904/quant-backtester/internal/backtest"
	"github.com/ducminhle1904/quant-backtester/pkg/orchestrator"
	"github.com/ducminhle1904/quant-backtester/pkg/validation"
)

// printSweepResults shows the top combinations of a parameter sweep
func printSweepResults(name, objective string, results []backtest.SweepResult, top int) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(fmt.Sprintf("PARAMETER SWEEP: %s (by %s)", name, objective))
	t.AppendHeader(table.Row{"#", "Parameters", "Score", "Return", "Sharpe", "Max DD", "Trades"})

	for i, r := range results {
		if i >= top {
			break
		}
		if r.Metrics == nil {
			t.AppendRow(table.Row{i + 1, formatParams(r.Parameters), "n/a", "", "", "", ""})
			continue
		}
		t.AppendRow(table.Row{
			i + 1,
			formatParams(r.Parameters),
			fmt.Sprintf("%.4f", r.Score),
			fmt.Sprintf("%.2f%%", r.Metrics.TotalReturn),
			fmt.Sprintf("%.2f", r.Metrics.SharpeRatio),
			fmt.Sprintf("%.2f%%", r.Metrics.MaxDrawdown*100),
			r.Metrics.NumTrades,
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	t.Render()
}

// printWalkForward shows per-fold train/test returns and the verdict
func printWalkForward(summary *validation.WalkForwardSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("WALK-FORWARD VALIDATION")
	t.AppendHeader(table.Row{"Fold", "Window", "Parameters", "Train Return", "Test Return", "Test Max DD"})

	for _, r := range summary.Results {
		t.AppendRow(table.Row{
			r.Fold,
			fmt.Sprintf("%s → %s", r.TrainStart.Format("2006-01-02"), r.TestEnd.Format("2006-01-02")),
			formatParams(r.Parameters),
			fmt.Sprintf("%.2f%%", r.TrainMetrics.TotalReturn),
			fmt.Sprintf("%.2f%%", r.TestMetrics.TotalReturn),
			fmt.Sprintf("%.2f%%", r.TestMetrics.MaxDrawdown*100),
		})
	}
	t.AppendFooter(table.Row{
		"", "Average", "",
		fmt.Sprintf("%.2f%% ± %.2f%%", summary.AverageTrainReturn, summary.TrainReturnStdDev),
		fmt.Sprintf("%.2f%% ± %.2f%%", summary.AverageTestReturn, summary.TestReturnStdDev),
		fmt.Sprintf("%.2f%%", summary.AverageTestDrawdown),
	})
	t.Render()

	fmt.Printf("Return degradation: %.1f%% (%s overfitting risk)\n", summary.ReturnDegradation, summary.OverfittingRisk)
}

func formatParams(params map[string]float64) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, params[k])
	}
	return strings.Join(parts, " ")
}

// printIntervalAnalysis shows the best strategy per interval
func printIntervalAnalysis(a *orchestrator.IntervalAnalysisResult) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(fmt.Sprintf("MULTI-INTERVAL ANALYSIS: %s (by %s)", a.Symbol, a.Objective))
	t.AppendHeader(table.Row{"Interval", "Bars", "Best Strategy", "Score", "Return", "Max DD", ""})

	for i := range a.Results {
		r := &a.Results[i]
		best := r.BestReport()
		if best == nil {
			t.AppendRow(table.Row{r.Interval, "", "failed", "", "", "", r.Error})
			continue
		}
		marker := ""
		if r == a.BestResult {
			marker = "best"
		}
		t.AppendRow(table.Row{
			r.Interval,
			r.Bars,
			best.Name(),
			fmt.Sprintf("%.4f", r.Score),
			fmt.Sprintf("%.2f%%", best.Metrics.TotalReturn),
			fmt.Sprintf("%.2f%%", best.Metrics.MaxDrawdown*100),
			marker,
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	t.Render()
}
