package portfolio

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-risk/internal/contracts"
)

func testPrices(t *testing.T) *contracts.PriceMatrix {
	t.Helper()

	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	dates := make([]time.Time, 5)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}

	pm, err := contracts.NewPriceMatrix(dates, []string{"A", "B", "C"}, [][]float64{
		{10, 11, 12, 11, 10},
		{20, 20, math.NaN(), 22, 20},
		{5, 5, 5, 5, 5},
	})
	require.NoError(t, err)
	return pm
}

func TestValue(t *testing.T) {
	positions := []contracts.Position{
		{Asset: "A", Quantity: 100},
		{Asset: "B", Quantity: 50},
		{Asset: contracts.CashAsset, Quantity: 250},
		{Asset: "A", Quantity: -20},
	}

	val, err := Value(positions, contracts.PriceSnapshot{"A": 10, "B": 20})
	require.NoError(t, err)

	assert.InDelta(t, 80*10+50*20+250, val.Total, 1e-12)
	assert.Equal(t, map[string]float64{"A": 800, "B": 1000, contracts.CashAsset: 250}, val.Values())
	assert.Equal(t, "A", val.ByAsset[0].Asset)
}

func TestValue_MissingPrice(t *testing.T) {
	positions := []contracts.Position{{Asset: "A", Quantity: 1}, {Asset: "B", Quantity: 1}}

	_, err := Value(positions, contracts.PriceSnapshot{"A": 10})
	assert.ErrorIs(t, err, ErrMissingPrice)

	_, err = Value(positions, contracts.PriceSnapshot{"A": 10, "B": math.NaN()})
	assert.ErrorIs(t, err, ErrMissingPrice)
}

func TestAlign(t *testing.T) {
	got := Align(map[string]float64{"B": 2, "Z": 9}, []string{"A", "B", "C"}, 0)
	assert.Equal(t, []float64{0, 2, 0}, got)
}

func TestSimpleReturns_DropsUndefinedRows(t *testing.T) {
	rets, err := SimpleReturns(testPrices(t), []string{"A", "B"})
	require.NoError(t, err)

	// B의 NaN 때문에 3일차, 4일차 수익률이 정의되지 않음
	require.Equal(t, 2, rets.Rows())
	assert.InDelta(t, 0.1, rets.Columns[0][0], 1e-12)
	assert.InDelta(t, 10.0/11-1, rets.Columns[0][1], 1e-12)
	assert.InDelta(t, 20.0/22-1, rets.Columns[1][1], 1e-12)
}

func TestSimpleReturns_InfiniteReturn(t *testing.T) {
	pm, err := contracts.NewPriceMatrix(
		[]time.Time{time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)},
		[]string{"A"},
		[][]float64{{0, 5}},
	)
	require.NoError(t, err)

	_, err = SimpleReturns(pm, []string{"A"})
	assert.ErrorIs(t, err, ErrNonFiniteReturn)
}

func TestDerive(t *testing.T) {
	positions := []contracts.Position{
		{Asset: "A", Quantity: 100},
		{Asset: "C", Quantity: 200},
		{Asset: contracts.CashAsset, Quantity: 1000},
	}

	d, err := Derive(positions, testPrices(t), 0)
	require.NoError(t, err)

	// 10*100 + 5*200 + 1000
	assert.InDelta(t, 3000, d.PortfolioValue, 1e-12)
	assert.Equal(t, []string{"A", "C"}, d.Returns.Assets)
	require.Len(t, d.Weights, 2)
	assert.InDelta(t, 1000.0/3000, d.Weights[0], 1e-12)
	assert.InDelta(t, 1000.0/3000, d.Weights[1], 1e-12)

	require.Len(t, d.PnL, 4)
	for i, p := range d.PnL {
		want := d.Weights[0] * d.Returns.Columns[0][i] * d.PortfolioValue
		assert.InDelta(t, want, p.PnL, 1e-9)
		assert.Equal(t, d.Returns.Dates[i], p.Date)
	}
	assert.InDelta(t, 100.0, d.PnL[0].PnL, 1e-9)
}

func TestDerive_Lookback(t *testing.T) {
	positions := []contracts.Position{{Asset: "A", Quantity: 1}}

	d, err := Derive(positions, testPrices(t), 2)
	require.NoError(t, err)

	assert.Len(t, d.PnL, 2)
	assert.Equal(t, testPrices(t).LastDate(), d.AsOf)
}

func TestDerive_CashOnly(t *testing.T) {
	d, err := Derive([]contracts.Position{{Asset: contracts.CashAsset, Quantity: 500}}, testPrices(t), 0)
	require.NoError(t, err)

	assert.Equal(t, 500.0, d.PortfolioValue)
	assert.Empty(t, d.Weights)
	for _, p := range d.PnL {
		assert.Zero(t, p.PnL)
	}
}

func TestExposures(t *testing.T) {
	positions := []contracts.Position{
		{Asset: "A", Quantity: 100, AssetClass: "Equity"},
		{Asset: "B", Quantity: 10, AssetClass: "Bond"},
		{Asset: "C", Quantity: 40, AssetClass: "Equity"},
		{Asset: contracts.CashAsset, Quantity: 300},
	}
	spot := contracts.PriceSnapshot{"A": 10, "B": 20, "C": 5}

	rows, err := Exposures(positions, spot)
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, "Equity", rows[0].AssetClass)
	assert.InDelta(t, 1200, rows[0].ExposureValue, 1e-12)
	assert.Equal(t, contracts.DefaultAssetClass, rows[1].AssetClass)
	assert.Equal(t, "Bond", rows[2].AssetClass)

	val, err := Value(positions, spot)
	require.NoError(t, err)

	var sum, pct float64
	for _, r := range rows {
		sum += r.ExposureValue
		pct += r.ExposurePct
	}
	assert.InDelta(t, val.Total, sum, 1e-9)
	assert.InDelta(t, 1.0, pct, 1e-12)
}
