package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateMonteCarloVaR_Deterministic(t *testing.T) {
	m := threeAssetMoments()
	w := []float64{0.5, 0.3, 0.2}
	p := Params{Confidence: 0.99, HorizonDays: 1}

	first, err := CalculateMonteCarloVaR(m, w, 1_000_000, p, 5000, NewRand(42))
	require.NoError(t, err)
	second, err := CalculateMonteCarloVaR(m, w, 1_000_000, p, 5000, NewRand(42))
	require.NoError(t, err)
	other, err := CalculateMonteCarloVaR(m, w, 1_000_000, p, 5000, NewRand(43))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotEqual(t, first.VaR, other.VaR)
}

func TestCalculateMonteCarloVaR_TailMeanAtLeastVaR(t *testing.T) {
	m := threeAssetMoments()
	w := []float64{0.6, -0.2, 0.6}

	for _, alpha := range []float64{0.9, 0.95, 0.99} {
		got, err := CalculateMonteCarloVaR(m, w, 250_000, Params{Confidence: alpha, HorizonDays: 5}, 2000, NewRand(1))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.CVaR, got.VaR, "alpha=%v", alpha)
	}
}

func TestCalculateMonteCarloVaR_ConvergesToParametric(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping convergence test in short mode")
	}

	m := threeAssetMoments()
	w := []float64{0.4, 0.4, 0.2}
	p := Params{Confidence: 0.95, HorizonDays: 1}
	const value = 1_000_000.0

	exact, err := CalculateParametricVaR(m, w, value, p)
	require.NoError(t, err)

	meanRelErr := func(sims int) float64 {
		var total float64
		for seed := uint64(1); seed <= 5; seed++ {
			got, err := CalculateMonteCarloVaR(m, w, value, p, sims, NewRand(seed))
			require.NoError(t, err)
			total += math.Abs(got.VaR-exact.VaR) / exact.VaR
		}
		return total / 5
	}

	small := meanRelErr(1_000)
	large := meanRelErr(100_000)

	assert.Less(t, large, 0.02)
	assert.Less(t, large, small)
}

func TestCalculateMonteCarloVaR_SingularCovariance(t *testing.T) {
	// 동일 자산 두 개 → 공분산 특이행렬, 고유분해 경로
	m := testMoments(
		[]string{"A", "A2"},
		[]float64{0, 0},
		[]float64{
			0.0004, 0.0004,
			0.0004, 0.0004,
		},
	)
	w := []float64{0.5, 0.5}
	p := Params{Confidence: 0.95, HorizonDays: 1}

	exact, err := CalculateParametricVaR(m, w, 100_000, p)
	require.NoError(t, err)

	got, err := CalculateMonteCarloVaR(m, w, 100_000, p, 100_000, NewRand(9))
	require.NoError(t, err)

	assert.Less(t, relDiff(exact.VaR, got.VaR), 0.02)
}

func TestCalculateMonteCarloVaR_NoRiskyAssets(t *testing.T) {
	got, err := CalculateMonteCarloVaR(Moments{}, nil, 1000, Params{Confidence: 0.99, HorizonDays: 1}, 100, NewRand(1))
	require.NoError(t, err)
	assert.Zero(t, got.VaR)
	assert.Zero(t, got.CVaR)
}

func TestCalculateMonteCarloVaR_InvalidInput(t *testing.T) {
	m := threeAssetMoments()
	w := []float64{0.5, 0.3, 0.2}
	p := Params{Confidence: 0.99, HorizonDays: 1}

	_, err := CalculateMonteCarloVaR(m, w, 1000, p, 0, NewRand(1))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = CalculateMonteCarloVaR(m, w, 1000, p, MaxSimulations+1, NewRand(1))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = CalculateMonteCarloVaR(m, w, 1000, p, 10, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = CalculateMonteCarloVaR(m, w[:1], 1000, p, 10, NewRand(1))
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
