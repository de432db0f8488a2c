package risk

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// =============================================================================
// 통계 유틸리티
// =============================================================================

// NormInv 표준정규분포 역함수 Φ⁻¹(p)
func NormInv(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}

// NormPDF 표준정규분포 확률밀도함수 φ(x)
func NormPDF(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}

// Quantile 정렬된 표본의 q-분위수 (순서통계량 사이 선형 보간)
// sorted must be in ascending order; q is clamped to [0,1].
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[n-1]
	}

	idx := q * float64(n-1)
	lower := int(math.Floor(idx))
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*frac
}

// Percentile 백분위수 계산 (p: 0~100)
func Percentile(sorted []float64, p float64) float64 {
	return Quantile(sorted, p/100)
}

// RollingSum 후행 이동합 (window 미만 구간은 제외)
func RollingSum(x []float64, window int) []float64 {
	if window <= 1 {
		return append([]float64(nil), x...)
	}
	if len(x) < window {
		return nil
	}
	out := make([]float64, len(x)-window+1)
	for i := range out {
		out[i] = floats.Sum(x[i : i+window])
	}
	return out
}

// EmpiricalVaR 손실 표본의 α-분위수(VaR)와 꼬리 평균(CVaR)
// CVaR = mean(loss >= VaR); 꼬리가 비어 있으면 VaR로 대체
func EmpiricalVaR(losses []float64, confidence float64) VaRResult {
	sorted := make([]float64, len(losses))
	copy(sorted, losses)
	sort.Float64s(sorted)

	v := Quantile(sorted, confidence)

	cvar := v
	if first := sort.SearchFloat64s(sorted, v); first < len(sorted) {
		tail := sorted[first:]
		cvar = floats.Sum(tail) / float64(len(tail))
	}

	return VaRResult{Confidence: confidence, VaR: v, CVaR: cvar}
}

func dropNaN(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
