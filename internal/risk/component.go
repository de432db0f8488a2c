package risk

import (
	"math"
	"sort"

	"github.com/wonny/aegis-risk/internal/contracts"
)

// CalculateComponentVaR 모수적 VaR의 Euler 배분
//
//	marginal_i  = (−μ_i·h + z·(Σw)_i/σp·√h)·V
//	component_i = w_i · marginal_i
//
// VaR는 비중에 대해 1차 동차이므로 Σ component_i = 모수적 VaR.
// 행 순서는 m.Assets 순서를 따른다 (정렬은 SortByComponent).
func CalculateComponentVaR(m Moments, weights []float64, value float64, p Params) ([]contracts.ComponentRow, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := m.check(weights); err != nil {
		return nil, err
	}

	rows := make([]contracts.ComponentRow, len(m.Assets))
	for i, asset := range m.Assets {
		rows[i] = contracts.ComponentRow{Asset: asset, Weight: weights[i]}
	}

	_, sigmaP := m.portfolioStats(weights)
	if sigmaP == 0 {
		return rows, nil
	}

	h := float64(p.HorizonDays)
	sqrtH := math.Sqrt(h)
	z := NormInv(p.Confidence)
	sw := m.covTimes(weights)

	for i := range rows {
		marginal := (-m.Mean[i]*h + z*(sw[i]/sigmaP)*sqrtH) * value
		rows[i].MarginalVaR = marginal
		rows[i].ComponentVaR = weights[i] * marginal
	}

	return rows, nil
}

// SortByComponent returns a copy of rows sorted by descending component VaR.
func SortByComponent(rows []contracts.ComponentRow) []contracts.ComponentRow {
	out := append([]contracts.ComponentRow(nil), rows...)
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].ComponentVaR > out[b].ComponentVaR
	})
	return out
}
