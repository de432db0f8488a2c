package data

import (
	"context"
	"fmt"

	"github.com/wonny/aegis-risk/internal/contracts"
	"github.com/wonny/aegis-risk/internal/risk"
)

// Source 포지션/가격 공급자 (CSV 파일 또는 PostgreSQL)
type Source interface {
	Positions(ctx context.Context) ([]contracts.Position, error)
	Prices(ctx context.Context) (*contracts.PriceMatrix, error)
}

// SnapshotSource 포지션과 가격을 같은 시점에서 함께 읽는 소스 (DB 트랜잭션)
type SnapshotSource interface {
	Source
	Load(ctx context.Context) ([]contracts.Position, *contracts.PriceMatrix, error)
}

// FileSource reads positions and prices from CSV files on every call.
type FileSource struct {
	PositionsPath string
	PricesPath    string
}

func (s FileSource) Positions(_ context.Context) ([]contracts.Position, error) {
	return LoadPositionsCSV(s.PositionsPath)
}

func (s FileSource) Prices(_ context.Context) (*contracts.PriceMatrix, error) {
	return LoadPricesCSV(s.PricesPath)
}

// FromFiles builds an engine from a positions CSV and a prices CSV.
func FromFiles(positionsPath, pricesPath string) (*risk.Engine, error) {
	return LoadEngine(context.Background(), FileSource{PositionsPath: positionsPath, PricesPath: pricesPath})
}

// LoadEngine 입력 로딩 후 엔진 생성 (요청/작업마다 새 엔진)
func LoadEngine(ctx context.Context, src Source) (*risk.Engine, error) {
	if ss, ok := src.(SnapshotSource); ok {
		positions, prices, err := ss.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load inputs: %w", err)
		}
		return risk.NewEngine(positions, prices)
	}

	positions, err := src.Positions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load positions: %w", err)
	}
	prices, err := src.Prices(ctx)
	if err != nil {
		return nil, fmt.Errorf("load prices: %w", err)
	}
	return risk.NewEngine(positions, prices)
}
