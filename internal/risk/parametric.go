package risk

import "math"

// =============================================================================
// Parametric VaR (정규분포 가정)
// =============================================================================

// CalculateParametricVaR 정규분포 VaR/CVaR (통화 단위, 손실 양수)
//
//	μh = (w·μ)·h, σh = sqrt(wᵀΣw)·√h, z = Φ⁻¹(α)
//	VaR  = (−μh + z·σh)·V
//	CVaR = (−μh + σh·φ(z)/(1−α))·V
//
// σp = 0 이면 두 값 모두 −μh·V (결정적 손실).
func CalculateParametricVaR(m Moments, weights []float64, value float64, p Params) (VaRResult, error) {
	if err := p.Validate(); err != nil {
		return VaRResult{}, err
	}
	if err := m.check(weights); err != nil {
		return VaRResult{}, err
	}

	muP, sigmaP := m.portfolioStats(weights)
	h := float64(p.HorizonDays)
	muH := muP * h
	sigmaH := sigmaP * math.Sqrt(h)

	z := NormInv(p.Confidence)

	return VaRResult{
		Confidence: p.Confidence,
		VaR:        (-muH + z*sigmaH) * value,
		CVaR:       (-muH + sigmaH*NormPDF(z)/(1-p.Confidence)) * value,
	}, nil
}
