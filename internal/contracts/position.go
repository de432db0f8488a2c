package contracts

import "strings"

// CashAsset 현금 포지션 식별자 (단가 1.0 고정, 수익률 계산에서 제외)
const CashAsset = "CASH_USD"

const (
	DefaultAssetClass = "Unknown"
	DefaultCurrency   = "USD"
)

// Position 보유 포지션 (로딩 후 수량 불변)
type Position struct {
	Asset      string  `json:"asset"`
	Quantity   float64 `json:"quantity"`
	AssetClass string  `json:"asset_class"`
	Currency   string  `json:"currency"`
}

// IsCash reports whether the position is the cash line.
func (p Position) IsCash() bool {
	return p.Asset == CashAsset
}

// NormalizePositions returns a copy of positions with default asset class and
// currency filled in and identifiers trimmed.
func NormalizePositions(positions []Position) []Position {
	out := make([]Position, len(positions))
	for i, p := range positions {
		p.Asset = strings.TrimSpace(p.Asset)
		if strings.TrimSpace(p.AssetClass) == "" {
			p.AssetClass = DefaultAssetClass
		}
		if strings.TrimSpace(p.Currency) == "" {
			p.Currency = DefaultCurrency
		}
		out[i] = p
	}
	return out
}

// HeldAssets returns the distinct non-cash assets in first-appearance order.
func HeldAssets(positions []Position) []string {
	seen := make(map[string]bool, len(positions))
	assets := make([]string, 0, len(positions))
	for _, p := range positions {
		if p.IsCash() || seen[p.Asset] {
			continue
		}
		seen[p.Asset] = true
		assets = append(assets, p.Asset)
	}
	return assets
}
