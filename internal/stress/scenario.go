package stress

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wonny/aegis-risk/internal/contracts"
	"github.com/wonny/aegis-risk/internal/portfolio"
)

// UnnamedScenario is used for scenarios without a name.
const UnnamedScenario = "Unnamed"

// RunScenarios 시나리오별 손익 (손실이 큰 순서, 오름차순 PnL)
func (t *Tester) RunScenarios(scenarios []contracts.Scenario) ([]contracts.ScenarioResult, error) {
	if t.prices == nil || t.prices.Len() == 0 {
		return nil, ErrNoPrices
	}

	spot := t.prices.Latest()
	base, err := portfolio.Value(t.positions, spot)
	if err != nil {
		return nil, fmt.Errorf("base valuation: %w", err)
	}

	results := make([]contracts.ScenarioResult, 0, len(scenarios))
	for _, sc := range scenarios {
		result, err := EvaluateScenario(t.positions, spot, base.Total, sc)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].PnL < results[b].PnL
	})
	return results, nil
}

// EvaluateScenario revalues positions under one scenario's shocked prices.
// baseValue is the unshocked portfolio value at spot.
func EvaluateScenario(positions []contracts.Position, spot contracts.PriceSnapshot, baseValue float64, sc contracts.Scenario) (contracts.ScenarioResult, error) {
	name := strings.TrimSpace(sc.Name)
	if name == "" {
		name = UnnamedScenario
	}

	shocked := ShockPrices(spot, sc)
	val, err := portfolio.Value(positions, shocked)
	if err != nil {
		return contracts.ScenarioResult{}, fmt.Errorf("scenario %q: %w", name, err)
	}

	pnl := val.Total - baseValue
	var pct float64
	if baseValue != 0 {
		pct = pnl / baseValue
	}

	return contracts.ScenarioResult{Scenario: name, PnL: pnl, PnLPct: pct}, nil
}

// ShockPrices 충격가 = 기준가 × (1 + shock), 충격이 없으면 그대로
func ShockPrices(spot contracts.PriceSnapshot, sc contracts.Scenario) contracts.PriceSnapshot {
	shocked := spot.Clone()
	for asset, price := range spot {
		if shock, ok := sc.Shock(asset); ok {
			shocked[asset] = price * (1 + shock)
		}
	}
	return shocked
}
