package portfolio

import (
	"errors"
	"fmt"
	"math"

	"github.com/wonny/aegis-risk/internal/contracts"
)

// ErrMissingPrice is returned when a held non-cash asset has no finite price.
var ErrMissingPrice = errors.New("missing price")

// PriceLookup resolves the price of an asset on a single date.
// contracts.PriceSnapshot implements it.
type PriceLookup interface {
	Price(asset string) (float64, bool)
}

// AssetValue 자산별 평가금액
type AssetValue struct {
	Asset string
	Value float64
}

// Valuation 포트폴리오 평가 결과
type Valuation struct {
	Total   float64
	ByAsset []AssetValue // first-appearance order, cash included
}

// Values returns the per-asset values keyed by asset.
func (v Valuation) Values() map[string]float64 {
	out := make(map[string]float64, len(v.ByAsset))
	for _, av := range v.ByAsset {
		out[av.Asset] = av.Value
	}
	return out
}

// Value 포지션 평가: 수량 × 가격 (현금은 1.0)
// 보유 자산 가격이 없거나 NaN이면 0으로 대체하지 않고 에러 반환
func Value(positions []contracts.Position, prices PriceLookup) (Valuation, error) {
	var val Valuation
	index := make(map[string]int, len(positions))

	for _, p := range positions {
		value, err := positionValue(p, prices)
		if err != nil {
			return Valuation{}, err
		}

		if i, ok := index[p.Asset]; ok {
			val.ByAsset[i].Value += value
		} else {
			index[p.Asset] = len(val.ByAsset)
			val.ByAsset = append(val.ByAsset, AssetValue{Asset: p.Asset, Value: value})
		}
		val.Total += value
	}

	return val, nil
}

func positionValue(p contracts.Position, prices PriceLookup) (float64, error) {
	if p.IsCash() {
		return p.Quantity, nil
	}
	price, ok := prices.Price(p.Asset)
	if !ok || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("%w: %s", ErrMissingPrice, p.Asset)
	}
	return p.Quantity * price, nil
}
