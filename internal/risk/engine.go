package risk

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/wonny/aegis-risk/internal/contracts"
	"github.com/wonny/aegis-risk/internal/portfolio"
	"github.com/wonny/aegis-risk/internal/stress"
)

var (
	ErrInvalidPositions   = errors.New("invalid positions")
	ErrMissingPriceSeries = errors.New("missing price series for assets")
)

// =============================================================================
// Report Options
// =============================================================================

// ReportOptions build_report 설정
type ReportOptions struct {
	LookbackDays        int     `json:"lookback_days"`
	HorizonDays         int     `json:"horizon_days"`
	Alpha               float64 `json:"alpha"`
	Simulations         int     `json:"simulations"`
	Seed                uint64  `json:"seed"`
	IncludeComponentVaR bool    `json:"include_component_var"`
}

// DefaultReportOptions 기본 리포트 설정 (252일, 1일, 99%, 20,000회)
func DefaultReportOptions() ReportOptions {
	return ReportOptions{
		LookbackDays:        252,
		HorizonDays:         1,
		Alpha:               0.99,
		Simulations:         DefaultSimulations,
		Seed:                123,
		IncludeComponentVaR: true,
	}
}

// Params returns the estimator parameters of the options.
func (o ReportOptions) Params() Params {
	return Params{Confidence: o.Alpha, HorizonDays: o.HorizonDays}
}

// Validate 설정 유효성 검사
func (o ReportOptions) Validate() error {
	if err := o.Params().Validate(); err != nil {
		return err
	}
	if o.LookbackDays < 1 {
		return fmt.Errorf("%w: lookback must be >= 1 day, got %d", ErrInvalidConfig, o.LookbackDays)
	}
	if o.Simulations < 1 || o.Simulations > MaxSimulations {
		return fmt.Errorf("%w: simulations must be in [1, %d], got %d", ErrInvalidConfig, MaxSimulations, o.Simulations)
	}
	return nil
}

// MonteCarloMethodName returns the VaR table label of the Monte Carlo row.
func MonteCarloMethodName(sims int) string {
	return message.NewPrinter(language.English).Sprintf("Monte Carlo (Gaussian, %d sims)", sims)
}

// =============================================================================
// Engine - 리포트 조립기
// =============================================================================

// Engine 선형(델타원) 포트폴리오 리스크 엔진
// ⭐ SSOT: 입력 검증은 생성 시 한 번, 이후 모든 계산은 순수 함수
//
// Outputs:
//   - VaR/CVaR via parametric (Gaussian), historical, Monte Carlo (Gaussian)
//   - Component VaR (parametric) by asset
//   - Asset-class exposures and PnL series
//   - Stress tests through StressTester
type Engine struct {
	positions []contracts.Position
	prices    *contracts.PriceMatrix
}

// NewEngine validates positions and prices and returns an engine over them.
func NewEngine(positions []contracts.Position, prices *contracts.PriceMatrix) (*Engine, error) {
	if len(positions) == 0 {
		return nil, fmt.Errorf("%w: no positions", ErrInvalidPositions)
	}
	if prices == nil || prices.Len() == 0 {
		return nil, fmt.Errorf("%w: empty price matrix", contracts.ErrInvalidPriceIndex)
	}

	normalized := contracts.NormalizePositions(positions)
	for i, p := range normalized {
		if p.Asset == "" {
			return nil, fmt.Errorf("%w: position %d has no asset", ErrInvalidPositions, i)
		}
		if math.IsNaN(p.Quantity) || math.IsInf(p.Quantity, 0) {
			return nil, fmt.Errorf("%w: position %d (%s) has non-finite quantity", ErrInvalidPositions, i, p.Asset)
		}
	}

	var missing []string
	for _, asset := range contracts.HeldAssets(normalized) {
		if !prices.Has(asset) {
			missing = append(missing, asset)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: [%s]", ErrMissingPriceSeries, strings.Join(missing, ", "))
	}

	return &Engine{positions: normalized, prices: prices}, nil
}

// Positions returns a copy of the validated positions.
func (e *Engine) Positions() []contracts.Position {
	return append([]contracts.Position(nil), e.positions...)
}

// Prices returns the price matrix.
func (e *Engine) Prices() *contracts.PriceMatrix {
	return e.prices
}

// StressTester returns a stress facade over the same inputs.
func (e *Engine) StressTester() *stress.Tester {
	return stress.NewTester(e.positions, e.prices)
}

// BuildReport 리포트 생성: 평가 → 수익률/손익 → 3가지 VaR → Component VaR → 익스포저
// 전부 성공하거나 에러를 반환한다 (부분 결과 없음).
func (e *Engine) BuildReport(opts ReportOptions) (*contracts.RiskReport, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	params := opts.Params()

	derived, err := portfolio.Derive(e.positions, e.prices, opts.LookbackDays)
	if err != nil {
		return nil, fmt.Errorf("derive returns: %w", err)
	}

	moments, err := EstimateMoments(derived.Returns)
	if err != nil {
		return nil, fmt.Errorf("estimate moments: %w", err)
	}

	value := derived.PortfolioValue
	weights := derived.Weights

	parametric, err := CalculateParametricVaR(moments, weights, value, params)
	if err != nil {
		return nil, fmt.Errorf("parametric VaR: %w", err)
	}

	historical, err := CalculateHistoricalVaR(derived.PnLValues(), params)
	if err != nil {
		return nil, fmt.Errorf("historical VaR: %w", err)
	}

	monteCarlo, err := CalculateMonteCarloVaR(moments, weights, value, params, opts.Simulations, NewRand(opts.Seed))
	if err != nil {
		return nil, fmt.Errorf("monte carlo VaR: %w", err)
	}

	var components []contracts.ComponentRow
	if opts.IncludeComponentVaR {
		rows, err := CalculateComponentVaR(moments, weights, value, params)
		if err != nil {
			return nil, fmt.Errorf("component VaR: %w", err)
		}
		components = SortByComponent(rows)
	}

	exposures, err := portfolio.Exposures(e.positions, e.prices.Latest())
	if err != nil {
		return nil, fmt.Errorf("exposures: %w", err)
	}

	return &contracts.RiskReport{
		RunID:          uuid.New().String(),
		AsOf:           derived.AsOf,
		PortfolioValue: value,
		VaRTable: []contracts.VaRRow{
			{Method: contracts.MethodParametric, VaR: parametric.VaR, CVaR: parametric.CVaR},
			{Method: contracts.MethodHistorical, VaR: historical.VaR, CVaR: historical.CVaR},
			{Method: MonteCarloMethodName(opts.Simulations), VaR: monteCarlo.VaR, CVaR: monteCarlo.CVaR},
		},
		ComponentVaR: components,
		Exposures:    exposures,
		PnLSeries:    append([]contracts.PnLPoint(nil), derived.PnL...),
		Params: contracts.ReportParams{
			LookbackDays: opts.LookbackDays,
			HorizonDays:  opts.HorizonDays,
			Alpha:        opts.Alpha,
			Simulations:  opts.Simulations,
			Seed:         opts.Seed,
		},
	}, nil
}
