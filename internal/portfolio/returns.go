package portfolio

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	qerr "github.com/ducminhle1904/quant-backtester/internal/errors"
	"github.com/ducminhle1904/quant-backtester/pkg/types"
)

// ReturnsMatrix holds simple returns, one row per period and one column per
// asset, with no missing values.
type ReturnsMatrix struct {
	Assets     []string
	Timestamps []time.Time
	data       *mat.Dense
}

// NewReturnsMatrix validates rows (periods × assets) and wraps them.
// Timestamps are optional.
func NewReturnsMatrix(assets []string, rows [][]float64, timestamps []time.Time) (*ReturnsMatrix, error) {
	if len(assets) == 0 {
		return nil, qerr.NewValidationError(component, "returns_matrix", "no assets")
	}
	if len(rows) < 2 {
		return nil, qerr.NewValidationError(component, "returns_matrix", "need at least two return periods")
	}
	if timestamps != nil && len(timestamps) != len(rows) {
		return nil, qerr.NewValidationError(component, "returns_matrix",
			fmt.Sprintf("%d timestamps for %d rows", len(timestamps), len(rows)))
	}

	seen := make(map[string]bool, len(assets))
	for _, a := range assets {
		if seen[a] {
			return nil, qerr.NewValidationError(component, "returns_matrix", fmt.Sprintf("duplicate asset %q", a))
		}
		seen[a] = true
	}

	flat := make([]float64, 0, len(rows)*len(assets))
	for i, row := range rows {
		if len(row) != len(assets) {
			return nil, qerr.NewValidationError(component, "returns_matrix",
				fmt.Sprintf("row %d has %d values for %d assets", i, len(row), len(assets)))
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, qerr.NewValidationError(component, "returns_matrix",
					fmt.Sprintf("missing return for %s at row %d", assets[j], i))
			}
		}
		flat = append(flat, row...)
	}

	return &ReturnsMatrix{
		Assets:     append([]string(nil), assets...),
		Timestamps: timestamps,
		data:       mat.NewDense(len(rows), len(assets), flat),
	}, nil
}

// Periods returns the number of rows
func (m *ReturnsMatrix) Periods() int {
	r, _ := m.data.Dims()
	return r
}

// NumAssets returns the number of columns
func (m *ReturnsMatrix) NumAssets() int {
	return len(m.Assets)
}

// Column returns a copy of one asset's returns
func (m *ReturnsMatrix) Column(j int) []float64 {
	return mat.Col(nil, j, m.data)
}

// Matrix exposes the returns for read-only use
func (m *ReturnsMatrix) Matrix() mat.Matrix {
	return m.data
}

// Correlation returns the sample correlation matrix as rows. A constant
// column yields NaN entries.
func (m *ReturnsMatrix) Correlation() [][]float64 {
	var corr mat.SymDense
	stat.CorrelationMatrix(&corr, m.data, nil)

	n := m.NumAssets()
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
		for j := range out[i] {
			out[i][j] = corr.At(i, j)
		}
	}
	return out
}

// ReturnsFromPrices inner-joins several bar series on timestamp and converts
// the aligned closes to simple returns. Assets are ordered by name.
func ReturnsFromPrices(series map[string][]types.OHLCV) (*ReturnsMatrix, error) {
	assets := make([]string, 0, len(series))
	for name := range series {
		assets = append(assets, name)
	}
	sort.Strings(assets)
	if len(assets) == 0 {
		return nil, qerr.NewValidationError(component, "returns_from_prices", "no price series")
	}

	closes := make([]map[int64]float64, len(assets))
	counts := make(map[int64]int)
	for j, a := range assets {
		closes[j] = make(map[int64]float64, len(series[a]))
		for _, bar := range series[a] {
			key := bar.Timestamp.UnixNano()
			if _, dup := closes[j][key]; !dup {
				counts[key]++
			}
			closes[j][key] = bar.Close
		}
	}

	var common []int64
	for key, n := range counts {
		if n == len(assets) {
			common = append(common, key)
		}
	}
	sort.Slice(common, func(a, b int) bool { return common[a] < common[b] })
	if len(common) < 3 {
		return nil, qerr.NewValidationError(component, "returns_from_prices",
			fmt.Sprintf("only %d common timestamps across %d assets", len(common), len(assets)))
	}

	rows := make([][]float64, 0, len(common)-1)
	stamps := make([]time.Time, 0, len(common)-1)
	for i := 1; i < len(common); i++ {
		row := make([]float64, len(assets))
		for j := range assets {
			prev := closes[j][common[i-1]]
			if prev == 0 {
				return nil, qerr.NewDataError(component, "returns_from_prices",
					fmt.Errorf("zero close for %s at %s", assets[j], time.Unix(0, common[i-1]).UTC()))
			}
			row[j] = closes[j][common[i]]/prev - 1
		}
		rows = append(rows, row)
		stamps = append(stamps, time.Unix(0, common[i]).UTC())
	}
	return NewReturnsMatrix(assets, rows, stamps)
}
