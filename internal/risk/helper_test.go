package risk

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/wonny/aegis-risk/internal/contracts"
	"github.com/wonny/aegis-risk/internal/portfolio"
)

// testMoments builds moments from a mean vector and a row-major covariance.
func testMoments(assets []string, mean []float64, cov []float64) Moments {
	return Moments{
		Assets: assets,
		Mean:   mean,
		Cov:    mat.NewSymDense(len(assets), cov),
	}
}

// threeAssetMoments is a positive-definite three-asset fixture.
func threeAssetMoments() Moments {
	return testMoments(
		[]string{"AAPL", "MSFT", "TLT"},
		[]float64{0.0006, 0.0004, 0.0001},
		[]float64{
			0.000400, 0.000180, -0.000020,
			0.000180, 0.000300, -0.000010,
			-0.000020, -0.000010, 0.000090,
		},
	)
}

// randomWalkPrices generates a deterministic daily price matrix.
func randomWalkPrices(t *testing.T, assets []string, days int, seed uint64) *contracts.PriceMatrix {
	t.Helper()

	rng := rand.New(rand.NewPCG(seed, seed+1))
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	dates := make([]time.Time, days)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}

	columns := make([][]float64, len(assets))
	for j := range assets {
		col := make([]float64, days)
		price := 100.0 + 10*float64(j)
		vol := 0.01 * float64(j+1)
		for i := range col {
			col[i] = price
			price *= math.Exp(0.0002 + vol*rng.NormFloat64())
		}
		columns[j] = col
	}

	pm, err := contracts.NewPriceMatrix(dates, assets, columns)
	require.NoError(t, err)
	return pm
}

// testReturns builds a return matrix from per-asset columns.
func testReturns(assets []string, columns [][]float64) portfolio.ReturnMatrix {
	n := 0
	if len(columns) > 0 {
		n = len(columns[0])
	}
	dates := make([]time.Time, n)
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	return portfolio.ReturnMatrix{Assets: assets, Dates: dates, Columns: columns}
}

func relDiff(a, b float64) float64 {
	den := math.Max(math.Abs(a), math.Abs(b))
	if den == 0 {
		return 0
	}
	return math.Abs(a-b) / den
}
