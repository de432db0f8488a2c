package stress

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-risk/internal/contracts"
)

func dates(n int) []time.Time {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

func twoAssetTester(t *testing.T) *Tester {
	t.Helper()

	pm, err := contracts.NewPriceMatrix(dates(2), []string{"A", "B"}, [][]float64{
		{9, 10},
		{19, 20},
	})
	require.NoError(t, err)

	return NewTester([]contracts.Position{
		{Asset: "A", Quantity: 100},
		{Asset: "B", Quantity: 50},
	}, pm)
}

// =============================================================================
// Scenario Stress
// =============================================================================

func TestRunScenarios_SingleShock(t *testing.T) {
	results, err := twoAssetTester(t).RunScenarios([]contracts.Scenario{
		{Name: "A down 10%", Shocks: map[string]float64{"A": -0.10}},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "A down 10%", results[0].Scenario)
	assert.InDelta(t, -100, results[0].PnL, 1e-9)
	assert.InDelta(t, -0.05, results[0].PnLPct, 1e-12)
}

func TestRunScenarios_SortedAscending(t *testing.T) {
	results, err := twoAssetTester(t).RunScenarios([]contracts.Scenario{
		{Name: "flat", Shocks: map[string]float64{}},
		{Name: "crash", Shocks: map[string]float64{"A": -0.3, "B": -0.3}},
		{Name: "rally", Shocks: map[string]float64{"A": 0.1}},
		{Name: "", Shocks: map[string]float64{"B": -0.1, "UNKNOWN": -0.9}},
	})
	require.NoError(t, err)

	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Scenario
	}
	assert.Equal(t, []string{"crash", UnnamedScenario, "flat", "rally"}, names)

	assert.InDelta(t, -600, results[0].PnL, 1e-9)
	assert.InDelta(t, -100, results[1].PnL, 1e-9)
	assert.Zero(t, results[2].PnL)
	assert.Zero(t, results[2].PnLPct)
}

func TestRunScenarios_NoScenarios(t *testing.T) {
	results, err := twoAssetTester(t).RunScenarios(nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestShockPrices_DoesNotMutateSpot(t *testing.T) {
	spot := contracts.PriceSnapshot{"A": 10, "B": 20}

	shocked := ShockPrices(spot, contracts.Scenario{Shocks: map[string]float64{"A": 0.5, "B": math.NaN()}})

	assert.Equal(t, 15.0, shocked["A"])
	assert.Equal(t, 20.0, shocked["B"])
	assert.Equal(t, 10.0, spot["A"])
}

func TestEvaluateScenario_ZeroBase(t *testing.T) {
	positions := []contracts.Position{
		{Asset: "A", Quantity: 10},
		{Asset: contracts.CashAsset, Quantity: -100},
	}

	got, err := EvaluateScenario(positions, contracts.PriceSnapshot{"A": 10}, 0, contracts.Scenario{
		Name:   "A up",
		Shocks: map[string]float64{"A": 0.2},
	})
	require.NoError(t, err)
	assert.InDelta(t, 20, got.PnL, 1e-12)
	assert.Zero(t, got.PnLPct)
}

// =============================================================================
// Worst Window
// =============================================================================

func TestWorstRollingChange(t *testing.T) {
	values := []float64{1000, 1010, 990, 950, 1005}

	diffs := RollingDiff(values, 2)
	assert.True(t, math.IsNaN(diffs[0]))
	assert.True(t, math.IsNaN(diffs[1]))
	assert.Equal(t, []float64{-10, -60, 15}, diffs[2:])

	idx, worst, ok := WorstRollingChange(values, 2)
	require.True(t, ok)
	assert.Equal(t, 3, idx)
	assert.Equal(t, -60.0, worst)

	_, _, ok = WorstRollingChange(values, 5)
	assert.False(t, ok)
}

func TestWorstRollingChange_FirstMinimumWins(t *testing.T) {
	idx, worst, ok := WorstRollingChange([]float64{10, 5, 10, 5}, 1)
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, -5.0, worst)
}

func TestWorstWindow(t *testing.T) {
	pm, err := contracts.NewPriceMatrix(dates(5), []string{"A"}, [][]float64{
		{100, 101, 99, 95, 100.5},
	})
	require.NoError(t, err)

	tester := NewTester([]contracts.Position{{Asset: "A", Quantity: 10}}, pm)

	got, err := tester.WorstWindow(DefaultLookbackDays, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, got.WindowDays)
	assert.Equal(t, DefaultLookbackDays, got.LookbackDays)
	assert.Equal(t, pm.Date(3), got.WorstEndDate)
	assert.InDelta(t, -60, got.WorstWindowPnL, 1e-9)
	assert.InDelta(t, -60/1005.0, got.WorstWindowPnLPct, 1e-12)
}

func TestWorstWindow_LookbackTrimsHistory(t *testing.T) {
	// 초반 폭락은 룩백 밖
	pm, err := contracts.NewPriceMatrix(dates(6), []string{"A"}, [][]float64{
		{100, 50, 52, 51, 53, 52},
	})
	require.NoError(t, err)

	tester := NewTester([]contracts.Position{{Asset: "A", Quantity: 1}}, pm)

	got, err := tester.WorstWindow(3, 1)
	require.NoError(t, err)
	assert.InDelta(t, -1, got.WorstWindowPnL, 1e-12)
	assert.Equal(t, pm.Date(3), got.WorstEndDate)
}

func TestWorstWindow_InvalidInput(t *testing.T) {
	tester := twoAssetTester(t)

	_, err := tester.WorstWindow(10, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = tester.WorstWindow(-1, 1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = tester.WorstWindow(10, 5)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestValueSeries(t *testing.T) {
	pm, err := contracts.NewPriceMatrix(dates(3), []string{"A", "B"}, [][]float64{
		{1, 2, 3},
		{10, math.NaN(), 30},
	})
	require.NoError(t, err)

	values := ValueSeries([]contracts.Position{
		{Asset: "A", Quantity: 2},
		{Asset: "B", Quantity: 1},
		{Asset: contracts.CashAsset, Quantity: 100},
	}, pm)

	assert.Equal(t, 112.0, values[0])
	assert.True(t, math.IsNaN(values[1]))
	assert.Equal(t, 136.0, values[2])
}
