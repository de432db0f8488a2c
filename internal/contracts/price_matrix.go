package contracts

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

var (
	// ErrInvalidPriceIndex is returned when the date index is missing, has
	// zero or duplicate dates, or does not match the column lengths.
	ErrInvalidPriceIndex = errors.New("invalid price index")
	// ErrNegativePrice is returned when a price is below zero.
	ErrNegativePrice = errors.New("negative price")
)

// PriceMatrix 날짜 오름차순 가격 테이블 (자산별 컬럼)
// 생성 후 불변. 결측치는 NaN.
type PriceMatrix struct {
	dates   []time.Time
	assets  []string
	index   map[string]int
	columns [][]float64
}

// NewPriceMatrix builds a price matrix from a date index and one column per
// asset. Rows are sorted by ascending date; the input slices are copied.
func NewPriceMatrix(dates []time.Time, assets []string, columns [][]float64) (*PriceMatrix, error) {
	if len(dates) == 0 {
		return nil, fmt.Errorf("%w: empty date index", ErrInvalidPriceIndex)
	}
	if len(assets) != len(columns) {
		return nil, fmt.Errorf("%w: %d assets but %d columns", ErrInvalidPriceIndex, len(assets), len(columns))
	}

	order := make([]int, len(dates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return dates[order[a]].Before(dates[order[b]])
	})

	sorted := make([]time.Time, len(dates))
	for i, src := range order {
		if dates[src].IsZero() {
			return nil, fmt.Errorf("%w: zero date at row %d", ErrInvalidPriceIndex, src)
		}
		sorted[i] = dates[src]
		if i > 0 && sorted[i].Equal(sorted[i-1]) {
			return nil, fmt.Errorf("%w: duplicate date %s", ErrInvalidPriceIndex, sorted[i].Format("2006-01-02"))
		}
	}

	pm := &PriceMatrix{
		dates:   sorted,
		assets:  make([]string, len(assets)),
		index:   make(map[string]int, len(assets)),
		columns: make([][]float64, len(columns)),
	}
	copy(pm.assets, assets)

	for j, asset := range assets {
		if asset == "" {
			return nil, fmt.Errorf("%w: empty asset identifier in column %d", ErrInvalidPriceIndex, j)
		}
		if _, dup := pm.index[asset]; dup {
			return nil, fmt.Errorf("%w: duplicate column %s", ErrInvalidPriceIndex, asset)
		}
		if len(columns[j]) != len(dates) {
			return nil, fmt.Errorf("%w: column %s has %d rows, index has %d",
				ErrInvalidPriceIndex, asset, len(columns[j]), len(dates))
		}

		col := make([]float64, len(dates))
		for i, src := range order {
			v := columns[j][src]
			if v < 0 {
				return nil, fmt.Errorf("%w: %s on %s = %v", ErrNegativePrice, asset, sorted[i].Format("2006-01-02"), v)
			}
			col[i] = v
		}
		pm.index[asset] = j
		pm.columns[j] = col
	}

	return pm, nil
}

// Len returns the number of rows.
func (pm *PriceMatrix) Len() int {
	return len(pm.dates)
}

// Dates returns a copy of the date index.
func (pm *PriceMatrix) Dates() []time.Time {
	out := make([]time.Time, len(pm.dates))
	copy(out, pm.dates)
	return out
}

// Date returns the date of row i.
func (pm *PriceMatrix) Date(i int) time.Time {
	return pm.dates[i]
}

// LastDate returns the most recent date in the index.
func (pm *PriceMatrix) LastDate() time.Time {
	return pm.dates[len(pm.dates)-1]
}

// Assets returns a copy of the column order.
func (pm *PriceMatrix) Assets() []string {
	out := make([]string, len(pm.assets))
	copy(out, pm.assets)
	return out
}

// Has reports whether the matrix carries a column for asset.
func (pm *PriceMatrix) Has(asset string) bool {
	_, ok := pm.index[asset]
	return ok
}

// Column returns the price column for asset. The slice must not be modified.
func (pm *PriceMatrix) Column(asset string) ([]float64, bool) {
	j, ok := pm.index[asset]
	if !ok {
		return nil, false
	}
	return pm.columns[j], true
}

// At returns the price of asset on row i. Missing columns yield NaN, false.
func (pm *PriceMatrix) At(i int, asset string) (float64, bool) {
	j, ok := pm.index[asset]
	if !ok {
		return math.NaN(), false
	}
	return pm.columns[j][i], true
}

// Snapshot returns the prices on row i keyed by asset.
func (pm *PriceMatrix) Snapshot(i int) PriceSnapshot {
	snap := make(PriceSnapshot, len(pm.assets))
	for j, asset := range pm.assets {
		snap[asset] = pm.columns[j][i]
	}
	return snap
}

// Latest returns the snapshot of the most recent row.
func (pm *PriceMatrix) Latest() PriceSnapshot {
	return pm.Snapshot(len(pm.dates) - 1)
}

// Tail returns the trailing n rows. n <= 0 or n >= Len returns pm itself.
// The result shares storage with pm, which is safe because both are read-only.
func (pm *PriceMatrix) Tail(n int) *PriceMatrix {
	if n <= 0 || n >= len(pm.dates) {
		return pm
	}
	start := len(pm.dates) - n
	out := &PriceMatrix{
		dates:   pm.dates[start:],
		assets:  pm.assets,
		index:   pm.index,
		columns: make([][]float64, len(pm.columns)),
	}
	for j, col := range pm.columns {
		out.columns[j] = col[start:]
	}
	return out
}

// PriceSnapshot 특정 일자의 자산별 가격
type PriceSnapshot map[string]float64

// Price returns the price for asset, or NaN, false when absent.
func (s PriceSnapshot) Price(asset string) (float64, bool) {
	v, ok := s[asset]
	if !ok {
		return math.NaN(), false
	}
	return v, true
}

// Clone returns an independent copy of the snapshot.
func (s PriceSnapshot) Clone() PriceSnapshot {
	out := make(PriceSnapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
