package portfolio

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/wonny/aegis-risk/internal/contracts"
)

// ErrNonFiniteReturn is returned when a price move produces an infinite return
// (for example a zero previous price).
var ErrNonFiniteReturn = errors.New("non-finite return")

// =============================================================================
// Return Matrix
// =============================================================================

// ReturnMatrix 위험자산 일별 단순수익률 (컬럼 = 자산, 정해진 순서 유지)
type ReturnMatrix struct {
	Assets  []string
	Dates   []time.Time
	Columns [][]float64 // Columns[j][t] = return of Assets[j] on Dates[t]
}

// Rows returns the number of return observations.
func (r ReturnMatrix) Rows() int {
	return len(r.Dates)
}

// SimpleReturns 단순수익률 (P1 - P0) / P0, 첫 행 제외
// Rows where any requested asset has an undefined (NaN) return are dropped.
func SimpleReturns(prices *contracts.PriceMatrix, assets []string) (ReturnMatrix, error) {
	rm := ReturnMatrix{
		Assets:  append([]string(nil), assets...),
		Columns: make([][]float64, len(assets)),
	}

	cols := make([][]float64, len(assets))
	for j, asset := range assets {
		col, ok := prices.Column(asset)
		if !ok {
			return ReturnMatrix{}, fmt.Errorf("%w: %s", ErrMissingPrice, asset)
		}
		cols[j] = col
	}

	row := make([]float64, len(assets))
	for t := 1; t < prices.Len(); t++ {
		defined := true
		for j, col := range cols {
			r := col[t]/col[t-1] - 1
			if math.IsNaN(r) {
				defined = false
				break
			}
			if math.IsInf(r, 0) {
				return ReturnMatrix{}, fmt.Errorf("%w: %s on %s",
					ErrNonFiniteReturn, assets[j], prices.Date(t).Format("2006-01-02"))
			}
			row[j] = r
		}
		if !defined {
			continue
		}

		rm.Dates = append(rm.Dates, prices.Date(t))
		for j := range cols {
			rm.Columns[j] = append(rm.Columns[j], row[j])
		}
	}

	return rm, nil
}

// =============================================================================
// Derived Inputs (valuation + returns + weights + PnL)
// =============================================================================

// Derived 추정기 공용 입력 (평가금액, 수익률, 비중, 손익 시계열)
type Derived struct {
	AsOf           time.Time
	PortfolioValue float64
	Valuation      Valuation
	Returns        ReturnMatrix
	Weights        []float64 // aligned to Returns.Assets
	PnL            []contracts.PnLPoint
}

// PnLValues returns the PnL amounts without dates.
func (d *Derived) PnLValues() []float64 {
	out := make([]float64, len(d.PnL))
	for i, p := range d.PnL {
		out[i] = p.PnL
	}
	return out
}

// Window returns the trailing lookbackDays+1 rows of prices.
// lookbackDays <= 0 keeps the whole history.
func Window(prices *contracts.PriceMatrix, lookbackDays int) *contracts.PriceMatrix {
	if lookbackDays <= 0 {
		return prices
	}
	return prices.Tail(lookbackDays + 1)
}

// Derive 포지션 + 가격 → 평가금액, 위험자산 수익률, 비중, 손익 시계열
// 비중은 윈도우 마지막 날짜 기준 고정 (선형 근사)
func Derive(positions []contracts.Position, prices *contracts.PriceMatrix, lookbackDays int) (*Derived, error) {
	px := Window(prices, lookbackDays)

	val, err := Value(positions, px.Latest())
	if err != nil {
		return nil, err
	}

	risky := make([]string, 0)
	for _, asset := range contracts.HeldAssets(positions) {
		if px.Has(asset) {
			risky = append(risky, asset)
		}
	}

	rets, err := SimpleReturns(px, risky)
	if err != nil {
		return nil, err
	}

	weights := Align(val.Values(), risky, 0)
	for i := range weights {
		if val.Total != 0 {
			weights[i] /= val.Total
		} else {
			weights[i] = 0
		}
	}

	pnl := make([]contracts.PnLPoint, rets.Rows())
	for t := range pnl {
		var portRet float64
		for j, w := range weights {
			portRet += w * rets.Columns[j][t]
		}
		pnl[t] = contracts.PnLPoint{Date: rets.Dates[t], PnL: portRet * val.Total}
	}

	return &Derived{
		AsOf:           px.LastDate(),
		PortfolioValue: val.Total,
		Valuation:      val,
		Returns:        rets,
		Weights:        weights,
		PnL:            pnl,
	}, nil
}
