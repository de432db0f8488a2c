package portfolio

import (
	"sort"

	"github.com/wonny/aegis-risk/internal/contracts"
)

// Exposures 자산군별 익스포저 (평가금액 내림차순)
// 합계는 포트폴리오 평가금액과 같다.
func Exposures(positions []contracts.Position, prices PriceLookup) ([]contracts.ExposureRow, error) {
	rows := make([]contracts.ExposureRow, 0)
	index := make(map[string]int)
	var total float64

	for _, p := range positions {
		value, err := positionValue(p, prices)
		if err != nil {
			return nil, err
		}
		class := p.AssetClass
		if class == "" {
			class = contracts.DefaultAssetClass
		}
		if i, ok := index[class]; ok {
			rows[i].ExposureValue += value
		} else {
			index[class] = len(rows)
			rows = append(rows, contracts.ExposureRow{AssetClass: class, ExposureValue: value})
		}
		total += value
	}

	sort.SliceStable(rows, func(a, b int) bool {
		return rows[a].ExposureValue > rows[b].ExposureValue
	})

	for i := range rows {
		if total != 0 {
			rows[i].ExposurePct = rows[i].ExposureValue / total
		}
	}

	return rows, nil
}
