package risk

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/aegis-risk/internal/portfolio"
)

// Moments 자산별 평균 수익률과 공분산 (ReturnMatrix 컬럼 순서와 동일)
type Moments struct {
	Assets []string
	Mean   []float64
	Cov    *mat.SymDense // nil when there are no risky assets
}

// Dim returns the number of assets.
func (m Moments) Dim() int {
	return len(m.Assets)
}

// EstimateMoments 표본 평균과 불편 공분산 (N-1) 추정
func EstimateMoments(rets portfolio.ReturnMatrix) (Moments, error) {
	k := len(rets.Assets)
	m := Moments{
		Assets: append([]string(nil), rets.Assets...),
		Mean:   make([]float64, k),
	}
	if k == 0 {
		return m, nil
	}

	n := rets.Rows()
	if n < 2 {
		return Moments{}, fmt.Errorf("%w: need at least 2 return observations, got %d", ErrInsufficientData, n)
	}

	x := mat.NewDense(n, k, nil)
	for j, col := range rets.Columns {
		x.SetCol(j, col)
		m.Mean[j] = stat.Mean(col, nil)
	}

	m.Cov = mat.NewSymDense(k, nil)
	stat.CovarianceMatrix(m.Cov, x, nil)

	return m, nil
}

// check verifies that weights line up with the asset ordering.
func (m Moments) check(weights []float64) error {
	if len(weights) != len(m.Assets) || len(m.Mean) != len(m.Assets) {
		return fmt.Errorf("%w: %d weights, %d means for %d assets",
			ErrDimensionMismatch, len(weights), len(m.Mean), len(m.Assets))
	}
	if len(m.Assets) > 0 {
		if m.Cov == nil || m.Cov.SymmetricDim() != len(m.Assets) {
			return fmt.Errorf("%w: covariance does not match %d assets", ErrDimensionMismatch, len(m.Assets))
		}
	}
	return nil
}

// portfolioStats returns μp = w·μ and σp = sqrt(max(wᵀΣw, 0)).
func (m Moments) portfolioStats(weights []float64) (mu, sigma float64) {
	if len(weights) == 0 {
		return 0, 0
	}
	mu = floats.Dot(weights, m.Mean)
	w := mat.NewVecDense(len(weights), weights)
	variance := mat.Inner(w, m.Cov, w)
	return mu, math.Sqrt(math.Max(variance, 0))
}

// covTimes returns Σw.
func (m Moments) covTimes(weights []float64) []float64 {
	if len(weights) == 0 {
		return nil
	}
	var sw mat.VecDense
	sw.MulVec(m.Cov, mat.NewVecDense(len(weights), weights))
	return mat.Col(nil, 0, &sw)
}
