package risk

import (
	"errors"
	"fmt"
)

// VaRConvention VaR 부호 규약
// ⭐ SSOT: 손실을 양수(통화 단위)로 표현. 전체 시스템에서 동일하게 사용
const VaRConvention = "loss_positive"

var (
	ErrInsufficientData  = errors.New("insufficient data")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrInvalidCovariance = errors.New("invalid covariance matrix")
)

// =============================================================================
// VaR/CVaR Types
// =============================================================================

// VaRResult VaR 계산 결과 (통화 단위, 손실 양수)
// - VaR: 신뢰수준 α에서 초과되지 않을 손실
// - CVaR: VaR 이상 손실의 기대값 (Expected Shortfall)
type VaRResult struct {
	Confidence float64 `json:"confidence"`
	VaR        float64 `json:"var"`
	CVaR       float64 `json:"cvar"`
}

// Params 신뢰수준/보유기간
type Params struct {
	Confidence  float64 `json:"confidence"`   // α ∈ (0,1), 예: 0.99
	HorizonDays int     `json:"horizon_days"` // h >= 1 거래일
}

// Validate checks α ∈ (0,1) and h >= 1.
func (p Params) Validate() error {
	if !(p.Confidence > 0 && p.Confidence < 1) {
		return fmt.Errorf("%w: confidence must be between 0 and 1, got %v", ErrInvalidConfig, p.Confidence)
	}
	if p.HorizonDays < 1 {
		return fmt.Errorf("%w: horizon must be >= 1 day, got %d", ErrInvalidConfig, p.HorizonDays)
	}
	return nil
}
