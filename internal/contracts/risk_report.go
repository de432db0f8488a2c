package contracts

import (
	"math"
	"time"
)

// =============================================================================
// Scenario Input
// =============================================================================

// Scenario 결정적 충격 시나리오 (자산별 % 충격, 없으면 가격 유지)
type Scenario struct {
	Name   string             `json:"scenario" yaml:"name"`
	Shocks map[string]float64 `json:"shocks" yaml:"shocks"`
}

// Shock returns the shock for asset. Absent or non-finite shocks mean no shock.
func (s Scenario) Shock(asset string) (float64, bool) {
	v, ok := s.Shocks[asset]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// =============================================================================
// Risk Report Output
// =============================================================================

// VaR/CVaR 방법론 이름
const (
	MethodParametric = "Parametric (Gaussian)"
	MethodHistorical = "Historical"
)

// VaRRow VaR 테이블 한 줄 (손실을 양수로 표현)
type VaRRow struct {
	Method string  `json:"method"`
	VaR    float64 `json:"var"`
	CVaR   float64 `json:"cvar"`
}

// ComponentRow 자산별 Euler 배분 결과
type ComponentRow struct {
	Asset        string  `json:"asset"`
	Weight       float64 `json:"weight"`
	MarginalVaR  float64 `json:"marginal_var"`
	ComponentVaR float64 `json:"component_var"`
}

// ExposureRow 자산군별 익스포저
type ExposureRow struct {
	AssetClass    string  `json:"asset_class"`
	ExposureValue float64 `json:"exposure_value"`
	ExposurePct   float64 `json:"exposure_pct"` // fraction of portfolio value
}

// PnLPoint 일별 포트폴리오 손익 (통화 단위)
type PnLPoint struct {
	Date time.Time `json:"date"`
	PnL  float64   `json:"pnl"`
}

// ReportParams records the inputs a report was built with.
type ReportParams struct {
	LookbackDays int     `json:"lookback_days"`
	HorizonDays  int     `json:"horizon_days"`
	Alpha        float64 `json:"alpha"`
	Simulations  int     `json:"simulations"`
	Seed         uint64  `json:"seed"`
}

// RiskReport build_report 결과 (생성 후 불변)
type RiskReport struct {
	RunID          string         `json:"run_id"`
	AsOf           time.Time      `json:"asof"`
	PortfolioValue float64        `json:"portfolio_value"`
	VaRTable       []VaRRow       `json:"var_cvar"`
	ComponentVaR   []ComponentRow `json:"component_var,omitempty"`
	Exposures      []ExposureRow  `json:"exposures"`
	PnLSeries      []PnLPoint     `json:"pnl_series"`
	Params         ReportParams   `json:"params"`
}

// Method returns the VaR row for the given method name.
func (r *RiskReport) Method(name string) (VaRRow, bool) {
	for _, row := range r.VaRTable {
		if row.Method == name {
			return row, true
		}
	}
	return VaRRow{}, false
}

// TopComponents returns at most n component rows (already sorted).
func (r *RiskReport) TopComponents(n int) []ComponentRow {
	if n < 0 {
		n = 0
	}
	if n > len(r.ComponentVaR) {
		n = len(r.ComponentVaR)
	}
	return r.ComponentVaR[:n]
}

// =============================================================================
// Stress Output
// =============================================================================

// ScenarioResult 시나리오 스트레스 결과
type ScenarioResult struct {
	Scenario string  `json:"scenario"`
	PnL      float64 `json:"pnl"`
	PnLPct   float64 `json:"pnl_pct"`
}

// WindowStressResult 최악 구간 손익 결과
type WindowStressResult struct {
	WindowDays        int       `json:"window_days"`
	LookbackDays      int       `json:"lookback_days"`
	WorstEndDate      time.Time `json:"worst_end_date"`
	WorstWindowPnL    float64   `json:"worst_window_pnl"`
	WorstWindowPnLPct float64   `json:"worst_window_pnl_pct"`
}
