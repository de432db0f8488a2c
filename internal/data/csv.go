package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/aegis-risk/internal/contracts"
)

// ErrMissingColumns is returned when a CSV header lacks required columns.
var ErrMissingColumns = errors.New("missing required columns")

// 입력 CSV 컬럼
const (
	ColAsset      = "asset"
	ColQuantity   = "quantity"
	ColAssetClass = "asset_class"
	ColCurrency   = "currency"
	ColDate       = "date"
	ColScenario   = "scenario"

	ShockSuffix = "_shock"
)

var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339}

// =============================================================================
// Positions
// =============================================================================

// LoadPositionsCSV reads positions from a CSV file.
func LoadPositionsCSV(path string) ([]contracts.Position, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open positions: %w", err)
	}
	defer f.Close()

	positions, err := ReadPositionsCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return positions, nil
}

// ReadPositionsCSV 포지션 CSV 파싱
// 필수: asset, quantity / 선택: asset_class, currency / 그 외 컬럼은 무시
// 빈 수량은 0, 숫자가 아닌 수량은 에러.
func ReadPositionsCSV(r io.Reader) ([]contracts.Position, error) {
	records, header, err := readAll(r)
	if err != nil {
		return nil, err
	}
	if err := requireColumns(header, ColAsset, ColQuantity); err != nil {
		return nil, err
	}

	positions := make([]contracts.Position, 0, len(records))
	for i, rec := range records {
		line := i + 2

		qty, err := parseQuantity(field(rec, header, ColQuantity))
		if err != nil {
			return nil, fmt.Errorf("line %d: quantity: %w", line, err)
		}

		positions = append(positions, contracts.Position{
			Asset:      strings.TrimSpace(field(rec, header, ColAsset)),
			Quantity:   qty,
			AssetClass: strings.TrimSpace(field(rec, header, ColAssetClass)),
			Currency:   strings.TrimSpace(field(rec, header, ColCurrency)),
		})
	}

	return contracts.NormalizePositions(positions), nil
}

// parseQuantity parses via decimal; empty means zero.
func parseQuantity(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

// =============================================================================
// Prices
// =============================================================================

// LoadPricesCSV reads a price matrix from a CSV file.
func LoadPricesCSV(path string) (*contracts.PriceMatrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open prices: %w", err)
	}
	defer f.Close()

	pm, err := ReadPricesCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pm, nil
}

// ReadPricesCSV 가격 CSV 파싱 (date + 자산별 컬럼, 빈 값은 NaN)
// Rows may appear in any order; the matrix sorts them by date.
func ReadPricesCSV(r io.Reader) (*contracts.PriceMatrix, error) {
	records, header, err := readAll(r)
	if err != nil {
		return nil, err
	}
	if err := requireColumns(header, ColDate); err != nil {
		return nil, err
	}

	dateIdx := header[ColDate]
	assets := make([]string, 0, len(header)-1)
	colIdx := make([]int, 0, len(header)-1)
	for _, name := range orderedColumns(header) {
		if idx := header[name]; idx != dateIdx {
			assets = append(assets, name)
			colIdx = append(colIdx, idx)
		}
	}

	dates := make([]time.Time, len(records))
	columns := make([][]float64, len(assets))
	for j := range columns {
		columns[j] = make([]float64, len(records))
	}

	for i, rec := range records {
		line := i + 2

		d, err := parseDate(rec[dateIdx])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		dates[i] = d

		for j, idx := range colIdx {
			v, err := parsePrice(rec[idx])
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, assets[j], err)
			}
			columns[j][i] = v
		}
	}

	return contracts.NewPriceMatrix(dates, assets, columns)
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: cannot parse date %q", contracts.ErrInvalidPriceIndex, s)
}

func parsePrice(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// =============================================================================
// Scenarios
// =============================================================================

// LoadScenariosCSV reads scenarios from a CSV file.
func LoadScenariosCSV(path string) ([]contracts.Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenarios: %w", err)
	}
	defer f.Close()

	scenarios, err := ReadScenariosCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scenarios, nil
}

// ReadScenariosCSV 시나리오 CSV 파싱
// scenario 컬럼 + "<asset>_shock" 컬럼. 빈 값은 충격 없음.
func ReadScenariosCSV(r io.Reader) ([]contracts.Scenario, error) {
	records, header, err := readAll(r)
	if err != nil {
		return nil, err
	}

	shockCols := make(map[string]int)
	for name, idx := range header {
		if asset, ok := strings.CutSuffix(name, ShockSuffix); ok && asset != "" {
			shockCols[asset] = idx
		}
	}

	scenarios := make([]contracts.Scenario, 0, len(records))
	for i, rec := range records {
		line := i + 2
		sc := contracts.Scenario{
			Name:   strings.TrimSpace(field(rec, header, ColScenario)),
			Shocks: make(map[string]float64, len(shockCols)),
		}
		for asset, idx := range shockCols {
			s := strings.TrimSpace(rec[idx])
			if s == "" {
				continue
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %s%s: %w", line, asset, ShockSuffix, err)
			}
			sc.Shocks[asset] = v
		}
		scenarios = append(scenarios, sc)
	}

	return scenarios, nil
}

// =============================================================================
// helpers
// =============================================================================

// readAll returns the data records and a column-name → index map of the header.
func readAll(r io.Reader) ([][]string, map[string]int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%w: empty file", ErrMissingColumns)
	}

	header := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if name == "" {
			continue
		}
		if _, dup := header[name]; dup {
			return nil, nil, fmt.Errorf("duplicate column %q", name)
		}
		header[name] = i
	}
	return rows[1:], header, nil
}

func requireColumns(header map[string]int, cols ...string) error {
	var missing []string
	for _, c := range cols {
		if _, ok := header[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return nil
}

func field(rec []string, header map[string]int, col string) string {
	idx, ok := header[col]
	if !ok || idx >= len(rec) {
		return ""
	}
	return rec[idx]
}

// orderedColumns returns the header names in file order.
func orderedColumns(header map[string]int) []string {
	names := make([]string, 0, len(header))
	for name := range header {
		names = append(names, name)
	}
	sort.Slice(names, func(a, b int) bool {
		return header[names[a]] < header[names[b]]
	})
	return names
}
