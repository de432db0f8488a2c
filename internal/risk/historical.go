package risk

import "fmt"

// CalculateHistoricalVaR 과거 손익 기반 VaR (Historical Simulation)
// pnl: 일별 포트폴리오 손익 (통화 단위, 양수=이익)
// h > 1 이면 h일 후행 이동합으로 집계 후 계산하므로 순서에 민감하다.
func CalculateHistoricalVaR(pnl []float64, p Params) (VaRResult, error) {
	if err := p.Validate(); err != nil {
		return VaRResult{}, err
	}

	x := RollingSum(dropNaN(pnl), p.HorizonDays)
	if len(x) == 0 {
		return VaRResult{}, fmt.Errorf("%w: %d PnL observations for a %d-day horizon",
			ErrInsufficientData, len(pnl), p.HorizonDays)
	}

	losses := make([]float64, len(x))
	for i, v := range x {
		losses[i] = -v
	}

	return EmpiricalVaR(losses, p.Confidence), nil
}
