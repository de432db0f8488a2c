package risk

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultSimulations Monte Carlo 기본 시뮬레이션 횟수
const DefaultSimulations = 20000

// MaxSimulations 요청당 최대 시뮬레이션 횟수 (sims×k 표본 행렬을 한 번에 할당)
const MaxSimulations = 1_000_000

// NewRand 재현 가능한 난수 생성기 (PCG, 시드 (seed, seed))
// Monte Carlo 호출자가 소유하며 전역 난수 상태는 사용하지 않는다.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// CalculateMonteCarloVaR 다변량 정규 Monte Carlo VaR/CVaR
//
// 보유기간 h로 μh = μ·h, Σh = Σ·h 스케일 후 N개 표본을 한 번에 생성한다.
// Sampling: Z (N×k) is filled row by row with rng.NormFloat64(), then
// X = Z·Fᵀ + μh where F is the Cholesky factor of Σh, or V·diag(√max(λ,0))
// from the eigendecomposition when Σh is only positive semi-definite.
// Portfolio loss = −(X·w)·V; VaR/CVaR as in EmpiricalVaR.
// Same inputs and same generator state give bit-identical results.
func CalculateMonteCarloVaR(m Moments, weights []float64, value float64, p Params, sims int, rng *rand.Rand) (VaRResult, error) {
	if err := p.Validate(); err != nil {
		return VaRResult{}, err
	}
	if sims < 1 || sims > MaxSimulations {
		return VaRResult{}, fmt.Errorf("%w: simulations must be in [1, %d], got %d", ErrInvalidConfig, MaxSimulations, sims)
	}
	if rng == nil {
		return VaRResult{}, fmt.Errorf("%w: random generator is required", ErrInvalidConfig)
	}
	if err := m.check(weights); err != nil {
		return VaRResult{}, err
	}

	k := m.Dim()
	losses := make([]float64, sims)
	if k == 0 {
		return EmpiricalVaR(losses, p.Confidence), nil
	}

	h := float64(p.HorizonDays)
	muH := make([]float64, k)
	floats.ScaleTo(muH, h, m.Mean)

	var covH mat.SymDense
	covH.ScaleSym(h, m.Cov)

	factor, err := covarianceFactor(&covH)
	if err != nil {
		return VaRResult{}, err
	}

	draws := make([]float64, sims*k)
	for i := range draws {
		draws[i] = rng.NormFloat64()
	}
	z := mat.NewDense(sims, k, draws)

	var x mat.Dense
	x.Mul(z, factor.T())
	x.Apply(func(_, j int, v float64) float64 {
		return v + muH[j]
	}, &x)

	var portRets mat.VecDense
	portRets.MulVec(&x, mat.NewVecDense(k, weights))

	for i := range losses {
		losses[i] = -portRets.AtVec(i) * value
	}

	return EmpiricalVaR(losses, p.Confidence), nil
}

// covarianceFactor returns F with F·Fᵀ = cov.
func covarianceFactor(cov *mat.SymDense) (mat.Matrix, error) {
	var chol mat.Cholesky
	if chol.Factorize(cov) {
		var l mat.TriDense
		chol.LTo(&l)
		return &l, nil
	}

	var eig mat.EigenSym
	if !eig.Factorize(cov, true) {
		return nil, fmt.Errorf("%w: eigendecomposition failed", ErrInvalidCovariance)
	}
	values := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	k := len(values)
	f := mat.NewDense(k, k, nil)
	for j, lambda := range values {
		s := math.Sqrt(math.Max(lambda, 0))
		for i := 0; i < k; i++ {
			f.Set(i, j, vecs.At(i, j)*s)
		}
	}
	return f, nil
}
