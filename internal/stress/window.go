package stress

import (
	"fmt"
	"math"

	"github.com/wonny/aegis-risk/internal/contracts"
	"github.com/wonny/aegis-risk/internal/portfolio"
)

// 기본 과거 구간 스트레스 설정
const (
	DefaultLookbackDays = 504
	DefaultWindowDays   = 10
)

// WorstWindow 룩백 기간 내 최악의 window일 누적 손익
//
// 기준일(as-of) 수량을 과거 가격 전체에 고정 적용한다. 과거 리밸런싱이
// 없었다고 가정하는 단순화이며 실제 과거 포트폴리오 손익이 아니다.
func (t *Tester) WorstWindow(lookbackDays, windowDays int) (contracts.WindowStressResult, error) {
	if windowDays < 1 {
		return contracts.WindowStressResult{}, fmt.Errorf("%w: window must be >= 1 day, got %d", ErrInvalidInput, windowDays)
	}
	if lookbackDays < 0 {
		return contracts.WindowStressResult{}, fmt.Errorf("%w: lookback must be >= 0, got %d", ErrInvalidInput, lookbackDays)
	}
	if t.prices == nil || t.prices.Len() == 0 {
		return contracts.WindowStressResult{}, ErrNoPrices
	}

	px := t.prices.Tail(lookbackDays + windowDays + 1)

	base, err := portfolio.Value(t.positions, px.Latest())
	if err != nil {
		return contracts.WindowStressResult{}, fmt.Errorf("base valuation: %w", err)
	}

	values := ValueSeries(t.positions, px)
	idx, worst, ok := WorstRollingChange(values, windowDays)
	if !ok {
		return contracts.WindowStressResult{}, fmt.Errorf("%w: %d rows for a %d-day window",
			ErrInvalidInput, px.Len(), windowDays)
	}

	var pct float64
	if base.Total != 0 {
		pct = worst / base.Total
	}

	return contracts.WindowStressResult{
		WindowDays:        windowDays,
		LookbackDays:      lookbackDays,
		WorstEndDate:      px.Date(idx),
		WorstWindowPnL:    worst,
		WorstWindowPnLPct: pct,
	}, nil
}

// ValueSeries 고정 수량 × 일별 가격 + 현금 (일별 포트폴리오 가치)
// A held asset with a NaN price makes that day's value NaN.
func ValueSeries(positions []contracts.Position, prices *contracts.PriceMatrix) []float64 {
	var cash float64
	qty := make(map[string]float64)
	order := make([]string, 0)
	for _, p := range positions {
		if p.IsCash() {
			cash += p.Quantity
			continue
		}
		if _, seen := qty[p.Asset]; !seen {
			order = append(order, p.Asset)
		}
		qty[p.Asset] += p.Quantity
	}

	values := make([]float64, prices.Len())
	for i := range values {
		values[i] = cash
	}
	for _, asset := range order {
		col, ok := prices.Column(asset)
		if !ok {
			for i := range values {
				values[i] = math.NaN()
			}
			continue
		}
		q := qty[asset]
		for i, price := range col {
			values[i] += q * price
		}
	}
	return values
}

// RollingDiff 시차 lag 차분: out[t] = x[t] − x[t−lag], 앞 lag개는 NaN
func RollingDiff(x []float64, lag int) []float64 {
	out := make([]float64, len(x))
	for t := range out {
		if t < lag {
			out[t] = math.NaN()
			continue
		}
		out[t] = x[t] - x[t-lag]
	}
	return out
}

// WorstRollingChange returns the index and value of the minimum finite lag
// difference. The first occurrence wins ties; ok is false when no difference
// is defined.
func WorstRollingChange(x []float64, lag int) (idx int, worst float64, ok bool) {
	idx = -1
	for t, d := range RollingDiff(x, lag) {
		if math.IsNaN(d) {
			continue
		}
		if idx < 0 || d < worst {
			idx, worst = t, d
		}
	}
	return idx, worst, idx >= 0
}
