package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-risk/internal/contracts"
)

func TestCalculateComponentVaR_EulerIdentity(t *testing.T) {
	m := threeAssetMoments()

	tests := []struct {
		name    string
		weights []float64
		params  Params
	}{
		{"long only", []float64{0.5, 0.3, 0.2}, Params{Confidence: 0.99, HorizonDays: 1}},
		{"with short", []float64{0.7, -0.3, 0.4}, Params{Confidence: 0.95, HorizonDays: 10}},
		{"partly invested", []float64{0.2, 0.1, 0.1}, Params{Confidence: 0.975, HorizonDays: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const value = 2_500_000.0

			total, err := CalculateParametricVaR(m, tt.weights, value, tt.params)
			require.NoError(t, err)

			rows, err := CalculateComponentVaR(m, tt.weights, value, tt.params)
			require.NoError(t, err)
			require.Len(t, rows, 3)

			var sum float64
			for i, row := range rows {
				assert.Equal(t, m.Assets[i], row.Asset)
				assert.Equal(t, tt.weights[i], row.Weight)
				assert.InDelta(t, row.Weight*row.MarginalVaR, row.ComponentVaR, 1e-9)
				sum += row.ComponentVaR
			}
			assert.Less(t, relDiff(total.VaR, sum), 1e-6)
		})
	}
}

func TestCalculateComponentVaR_ZeroVolatility(t *testing.T) {
	m := testMoments([]string{"A", "B"}, []float64{0.001, 0.002}, []float64{0, 0, 0, 0})

	rows, err := CalculateComponentVaR(m, []float64{0.5, 0.5}, 1000, Params{Confidence: 0.99, HorizonDays: 1})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Zero(t, row.MarginalVaR)
		assert.Zero(t, row.ComponentVaR)
	}
}

func TestSortByComponent(t *testing.T) {
	rows := []contracts.ComponentRow{
		{Asset: "A", ComponentVaR: 10},
		{Asset: "B", ComponentVaR: 30},
		{Asset: "C", ComponentVaR: -5},
		{Asset: "D", ComponentVaR: 30},
	}

	sorted := SortByComponent(rows)

	assert.Equal(t, []string{"B", "D", "A", "C"}, []string{sorted[0].Asset, sorted[1].Asset, sorted[2].Asset, sorted[3].Asset})
	assert.Equal(t, "A", rows[0].Asset, "input must not be reordered")
}
