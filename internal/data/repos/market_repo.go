package repos

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/aegis-risk/internal/contracts"
)

// MarketRepository 포지션/종가 조회 (data.Source 구현)
// ⭐ SSOT: 리스크 입력 DB 조회는 여기서만
//
// Tables:
//   - risk.positions (asset, quantity, asset_class, currency)
//   - data.daily_prices (stock_code, trade_date, close_price)
type MarketRepository struct {
	pool *pgxpool.Pool

	// Since limits the price history; zero loads everything.
	Since time.Time
}

// NewMarketRepository creates a new market repository
func NewMarketRepository(pool *pgxpool.Pool, since time.Time) *MarketRepository {
	return &MarketRepository{pool: pool, Since: since}
}

// querier pgxpool.Pool과 pgx.Tx 공통 조회 인터페이스
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Positions loads the current book.
func (r *MarketRepository) Positions(ctx context.Context) ([]contracts.Position, error) {
	return queryPositions(ctx, r.pool)
}

// Prices loads close prices for every held asset and pivots them into a matrix.
func (r *MarketRepository) Prices(ctx context.Context) (*contracts.PriceMatrix, error) {
	_, prices, err := r.Load(ctx)
	return prices, err
}

// Load 포지션과 종가를 하나의 읽기 전용 트랜잭션(REPEATABLE READ)에서 조회
// 두 조회가 같은 스냅샷을 보므로 중간에 추가된 포지션 때문에 가격이 빠지지 않는다.
func (r *MarketRepository) Load(ctx context.Context) ([]contracts.Position, *contracts.PriceMatrix, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	positions, err := queryPositions(ctx, tx)
	if err != nil {
		return nil, nil, err
	}

	// 현금만 보유: 가격 인덱스는 필요하므로 전체 거래일을 사용
	var assets []string
	if held := contracts.HeldAssets(positions); len(held) > 0 {
		assets = held
	}

	prices, err := queryCloses(ctx, tx, assets, r.Since)
	if err != nil {
		return nil, nil, err
	}

	return positions, prices, nil
}

func queryPositions(ctx context.Context, q querier) ([]contracts.Position, error) {
	query := `
		SELECT asset, quantity, COALESCE(asset_class, ''), COALESCE(currency, '')
		FROM risk.positions
		ORDER BY asset
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}

	positions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (contracts.Position, error) {
		var p contracts.Position
		err := row.Scan(&p.Asset, &p.Quantity, &p.AssetClass, &p.Currency)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan positions: %w", err)
	}

	return contracts.NormalizePositions(positions), nil
}

// queryCloses nil assets loads every stock
func queryCloses(ctx context.Context, q querier, assets []string, since time.Time) (*contracts.PriceMatrix, error) {
	query := `
		SELECT stock_code, trade_date, close_price
		FROM data.daily_prices
		WHERE ($1::text[] IS NULL OR stock_code = ANY($1))
		  AND trade_date >= $2
		ORDER BY trade_date ASC, stock_code ASC
	`

	rows, err := q.Query(ctx, query, assets, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}

	closes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ClosePrice, error) {
		var c ClosePrice
		err := row.Scan(&c.Asset, &c.Date, &c.Close)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan prices: %w", err)
	}

	return PivotCloses(closes)
}

// ClosePrice 한 종목의 하루 종가
type ClosePrice struct {
	Asset string
	Date  time.Time
	Close float64
}

// PivotCloses 세로형(종목, 일자, 종가) → 가로형 PriceMatrix
// Missing (date, asset) pairs become NaN; columns are sorted by asset.
func PivotCloses(closes []ClosePrice) (*contracts.PriceMatrix, error) {
	dateIdx := make(map[time.Time]int)
	dates := make([]time.Time, 0)
	assetIdx := make(map[string]int)
	assets := make([]string, 0)

	for _, c := range closes {
		day := c.Date.UTC().Truncate(24 * time.Hour)
		if _, ok := dateIdx[day]; !ok {
			dateIdx[day] = len(dates)
			dates = append(dates, day)
		}
		if _, ok := assetIdx[c.Asset]; !ok {
			assetIdx[c.Asset] = len(assets)
			assets = append(assets, c.Asset)
		}
	}

	sorted := append([]string(nil), assets...)
	sort.Strings(sorted)

	columns := make([][]float64, len(sorted))
	colOf := make(map[string]int, len(sorted))
	for j, asset := range sorted {
		colOf[asset] = j
		col := make([]float64, len(dates))
		for i := range col {
			col[i] = math.NaN()
		}
		columns[j] = col
	}

	for _, c := range closes {
		day := c.Date.UTC().Truncate(24 * time.Hour)
		columns[colOf[c.Asset]][dateIdx[day]] = c.Close
	}

	return contracts.NewPriceMatrix(dates, sorted, columns)
}
