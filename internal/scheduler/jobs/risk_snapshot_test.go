package jobs

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-risk/internal/contracts"
	"github.com/wonny/aegis-risk/internal/risk"
	"github.com/wonny/aegis-risk/internal/scheduler"
	"github.com/wonny/aegis-risk/pkg/logger"
)

type memorySource struct {
	positions []contracts.Position
	prices    *contracts.PriceMatrix
	err       error
}

func (s memorySource) Positions(context.Context) ([]contracts.Position, error) {
	return s.positions, s.err
}

func (s memorySource) Prices(context.Context) (*contracts.PriceMatrix, error) {
	return s.prices, s.err
}

func newSource(t *testing.T) memorySource {
	t.Helper()

	const n = 80
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	dates := make([]time.Time, n)
	a := make([]float64, n)
	b := make([]float64, n)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
		a[i] = 50 * (1 + 0.04*math.Sin(float64(i)*0.7))
		b[i] = 25 * (1 + 0.02*math.Cos(float64(i)*1.1))
	}
	a[n-1], b[n-1] = 50, 25

	pm, err := contracts.NewPriceMatrix(dates, []string{"A", "B"}, [][]float64{a, b})
	require.NoError(t, err)

	return memorySource{
		positions: []contracts.Position{
			{Asset: "A", Quantity: 10, AssetClass: "Equity"},
			{Asset: "B", Quantity: 20, AssetClass: "Bond"},
		},
		prices: pm,
	}
}

func testConfig() RiskSnapshotConfig {
	opts := risk.DefaultReportOptions()
	opts.LookbackDays = 60
	opts.Simulations = 500
	return RiskSnapshotConfig{
		Report:         opts,
		StressLookback: 60,
		StressWindow:   5,
	}
}

func TestRiskSnapshotJob_Run(t *testing.T) {
	job := NewRiskSnapshotJob(newSource(t), testConfig(), logger.Nop())
	assert.Equal(t, "risk_snapshot", job.Name())
	assert.Equal(t, "0 30 18 * * 1-5", job.Schedule())
	assert.Nil(t, job.Last())

	require.NoError(t, job.Run(context.Background()))

	snap := job.Last()
	require.NotNil(t, snap)
	assert.InDelta(t, 1000.0, snap.Report.PortfolioValue, 1e-9)
	assert.Len(t, snap.Report.VaRTable, 3)
	assert.Equal(t, 5, snap.Window.WindowDays)
	assert.Empty(t, snap.Scenarios)
}

func TestRiskSnapshotJob_Scenarios(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
scenarios:
  - name: A crash
    shocks: {A: -0.2}
  - name: B rally
    shocks: {B: 0.1}
`), 0o600))

	cfg := testConfig()
	cfg.ScenariosPath = path
	cfg.Schedule = "@daily"

	job := NewRiskSnapshotJob(newSource(t), cfg, logger.Nop())
	assert.Equal(t, "@daily", job.Schedule())
	require.NoError(t, job.Run(context.Background()))

	results := job.Last().Scenarios
	require.Len(t, results, 2)
	assert.Equal(t, "A crash", results[0].Scenario)
	assert.InDelta(t, -100.0, results[0].PnL, 1e-9)
	assert.InDelta(t, 50.0, results[1].PnL, 1e-9)
}

func TestRiskSnapshotJob_Errors(t *testing.T) {
	src := newSource(t)
	src.err = errors.New("db down")
	err := NewRiskSnapshotJob(src, testConfig(), logger.Nop()).Run(context.Background())
	assert.ErrorContains(t, err, "db down")

	cfg := testConfig()
	cfg.ScenariosPath = filepath.Join(t.TempDir(), "missing.yaml")
	job := NewRiskSnapshotJob(newSource(t), cfg, logger.Nop())
	assert.ErrorContains(t, job.Run(context.Background()), "load scenarios")
	assert.Nil(t, job.Last())
}

func TestRiskSnapshotJob_ViaScheduler(t *testing.T) {
	s := scheduler.New(logger.Nop(), scheduler.WithRetry(0, 0))
	job := NewRiskSnapshotJob(newSource(t), testConfig(), logger.Nop())
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJob(context.Background(), job.Name())
	require.NoError(t, err)
	assert.True(t, result.Success, result.Error)
	assert.NotNil(t, job.Last())
}
