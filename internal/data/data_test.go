package data

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-risk/internal/contracts"
	"github.com/wonny/aegis-risk/internal/risk"
)

const positionsCSV = `asset,quantity,asset_class,currency,price_source
AAPL,100,Equity,USD,close
MSFT, 50.5 ,Equity,,close
TLT,,Bond,USD,close
CASH_USD,10000,Cash,USD,
`

const pricesCSV = `date,AAPL,MSFT,TLT
2025-01-03,101,201,91
2025-01-02,100,200,90
2025-01-06,102,,92
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// =============================================================================
// Positions
// =============================================================================

func TestReadPositionsCSV(t *testing.T) {
	positions, err := ReadPositionsCSV(strings.NewReader(positionsCSV))
	require.NoError(t, err)
	require.Len(t, positions, 4)

	assert.Equal(t, contracts.Position{Asset: "AAPL", Quantity: 100, AssetClass: "Equity", Currency: "USD"}, positions[0])
	assert.Equal(t, 50.5, positions[1].Quantity)
	assert.Equal(t, contracts.DefaultCurrency, positions[1].Currency)
	assert.Zero(t, positions[2].Quantity, "empty quantity reads as zero")
	assert.True(t, positions[3].IsCash())
}

func TestReadPositionsCSV_OptionalColumns(t *testing.T) {
	positions, err := ReadPositionsCSV(strings.NewReader("asset,quantity\nAAPL,1e2\n"))
	require.NoError(t, err)

	assert.Equal(t, 100.0, positions[0].Quantity)
	assert.Equal(t, contracts.DefaultAssetClass, positions[0].AssetClass)
	assert.Equal(t, contracts.DefaultCurrency, positions[0].Currency)
}

func TestReadPositionsCSV_Errors(t *testing.T) {
	_, err := ReadPositionsCSV(strings.NewReader("ticker,qty\nAAPL,1\n"))
	require.ErrorIs(t, err, ErrMissingColumns)
	assert.Contains(t, err.Error(), "asset, quantity")

	_, err = ReadPositionsCSV(strings.NewReader("asset,quantity\nAAPL,1\nMSFT,ten\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")

	_, err = ReadPositionsCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrMissingColumns)
}

// =============================================================================
// Prices
// =============================================================================

func TestReadPricesCSV(t *testing.T) {
	pm, err := ReadPricesCSV(strings.NewReader(pricesCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL", "MSFT", "TLT"}, pm.Assets())
	assert.Equal(t, 3, pm.Len())
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), pm.Date(0))

	aapl, _ := pm.Column("AAPL")
	assert.Equal(t, []float64{100, 101, 102}, aapl)

	msft, _ := pm.At(2, "MSFT")
	assert.True(t, math.IsNaN(msft))
}

func TestReadPricesCSV_Errors(t *testing.T) {
	_, err := ReadPricesCSV(strings.NewReader("day,AAPL\n2025-01-02,1\n"))
	assert.ErrorIs(t, err, ErrMissingColumns)

	_, err = ReadPricesCSV(strings.NewReader("date,AAPL\n02/01/2025,1\n"))
	assert.ErrorIs(t, err, contracts.ErrInvalidPriceIndex)

	_, err = ReadPricesCSV(strings.NewReader("date,AAPL\n2025-01-02,1\n2025-01-02,2\n"))
	assert.ErrorIs(t, err, contracts.ErrInvalidPriceIndex)

	_, err = ReadPricesCSV(strings.NewReader("date,AAPL\n2025-01-02,abc\n"))
	assert.Error(t, err)
}

// =============================================================================
// Scenarios
// =============================================================================

func TestReadScenariosCSV(t *testing.T) {
	in := `scenario,AAPL_shock,MSFT_shock,note
Tech selloff,-0.2,-0.15,x
Rates up,,0.01,
`
	scenarios, err := ReadScenariosCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, scenarios, 2)

	assert.Equal(t, "Tech selloff", scenarios[0].Name)
	assert.Equal(t, map[string]float64{"AAPL": -0.2, "MSFT": -0.15}, scenarios[0].Shocks)
	assert.Equal(t, map[string]float64{"MSFT": 0.01}, scenarios[1].Shocks)
}

func TestParseScenariosYAML(t *testing.T) {
	raw := []byte(`
scenarios:
  - name: " Equity crash "
    shocks:
      AAPL: -0.30
      MSFT: -0.25
  - name: Flat
`)
	scenarios, err := ParseScenariosYAML(raw)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)

	assert.Equal(t, "Equity crash", scenarios[0].Name)
	assert.Equal(t, -0.30, scenarios[0].Shocks["AAPL"])
	assert.NotNil(t, scenarios[1].Shocks)
	assert.Empty(t, scenarios[1].Shocks)
}

func TestParseScenariosYAML_UnknownField(t *testing.T) {
	_, err := ParseScenariosYAML([]byte("scenarios:\n  - name: x\n    shock: {A: 0.1}\n"))
	assert.Error(t, err)
}

func TestLoadScenarios_DispatchesOnExtension(t *testing.T) {
	yamlPath := writeFile(t, "s.yaml", "scenarios:\n  - name: Y\n    shocks: {AAPL: -0.1}\n")
	csvPath := writeFile(t, "s.csv", "scenario,AAPL_shock\nC,-0.1\n")

	fromYAML, err := LoadScenarios(yamlPath)
	require.NoError(t, err)
	fromCSV, err := LoadScenarios(csvPath)
	require.NoError(t, err)

	assert.Equal(t, "Y", fromYAML[0].Name)
	assert.Equal(t, "C", fromCSV[0].Name)
	assert.Equal(t, fromYAML[0].Shocks, fromCSV[0].Shocks)
}

// =============================================================================
// Engine construction
// =============================================================================

func TestFromFiles(t *testing.T) {
	posPath := writeFile(t, "positions.csv", positionsCSV)
	pxPath := writeFile(t, "prices.csv", pricesCSV)

	engine, err := FromFiles(posPath, pxPath)
	require.NoError(t, err)
	assert.Len(t, engine.Positions(), 4)
	assert.Equal(t, 3, engine.Prices().Len())
}

func TestFromFiles_MissingPriceSeries(t *testing.T) {
	posPath := writeFile(t, "positions.csv", "asset,quantity\nAAPL,1\nNVDA,2\n")
	pxPath := writeFile(t, "prices.csv", pricesCSV)

	_, err := FromFiles(posPath, pxPath)
	require.ErrorIs(t, err, risk.ErrMissingPriceSeries)
	assert.Contains(t, err.Error(), "NVDA")
}

func TestFromFiles_MissingFile(t *testing.T) {
	_, err := FromFiles(filepath.Join(t.TempDir(), "nope.csv"), "also-missing.csv")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// racySource Positions/Prices를 따로 읽으면 중간에 추가된 NVDA 때문에 어긋나는 소스
type racySource struct {
	book    []contracts.Position
	prices  *contracts.PriceMatrix
	loadErr error
}

func (s racySource) Positions(context.Context) ([]contracts.Position, error) {
	return append(s.book, contracts.Position{Asset: "NVDA", Quantity: 1}), nil
}

func (s racySource) Prices(context.Context) (*contracts.PriceMatrix, error) {
	return s.prices, nil
}

func (s racySource) Load(context.Context) ([]contracts.Position, *contracts.PriceMatrix, error) {
	return s.book, s.prices, s.loadErr
}

func TestLoadEngine_UsesSnapshot(t *testing.T) {
	prices, err := ReadPricesCSV(strings.NewReader(pricesCSV))
	require.NoError(t, err)

	src := racySource{
		book:   []contracts.Position{{Asset: "AAPL", Quantity: 10}},
		prices: prices,
	}

	engine, err := LoadEngine(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, engine.Positions(), 1)
	assert.Equal(t, "AAPL", engine.Positions()[0].Asset)

	src.loadErr = errors.New("tx aborted")
	_, err = LoadEngine(context.Background(), src)
	assert.ErrorContains(t, err, "load inputs: tx aborted")
}
