package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/aegis-risk/internal/data"
	"github.com/wonny/aegis-risk/internal/data/repos"
	"github.com/wonny/aegis-risk/pkg/config"
	"github.com/wonny/aegis-risk/pkg/database"
	"github.com/wonny/aegis-risk/pkg/logger"
)

// openSource returns the configured input source.
// db is nil for the CSV source; the caller closes it otherwise.
func openSource(ctx context.Context, cfg *config.Config, log *logger.Logger) (data.Source, *database.DB, error) {
	switch cfg.Data.Source {
	case config.DataSourceCSV:
		log.WithFields(map[string]interface{}{
			"positions": cfg.Data.PositionsPath,
			"prices":    cfg.Data.PricesPath,
		}).Debug("Using CSV source")
		return data.FileSource{
			PositionsPath: cfg.Data.PositionsPath,
			PricesPath:    cfg.Data.PricesPath,
		}, nil, nil

	case config.DataSourcePostgres:
		if cfg.Database.URL == "" {
			return nil, nil, fmt.Errorf("DATABASE_URL is required for source %q", cfg.Data.Source)
		}
		db, err := database.New(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		since := historySince(cfg, time.Now())
		log.WithField("since", since.Format("2006-01-02")).Debug("Using PostgreSQL source")
		return repos.NewMarketRepository(db.Pool, since), db, nil

	default:
		return nil, nil, fmt.Errorf("unknown data source %q", cfg.Data.Source)
	}
}

// historyDays 리포트/스트레스에 필요한 최대 거래일 수
func historyDays(cfg *config.Config) int {
	days := cfg.Risk.LookbackDays + cfg.Risk.HorizonDays
	if s := cfg.Stress.LookbackDays + cfg.Stress.WindowDays; s > days {
		days = s
	}
	return days
}

// historySince 필요한 거래일 수를 달력일로 넉넉히 환산 (거래일 ≈ 달력일 × 5/7, 휴일 여유 포함)
func historySince(cfg *config.Config, now time.Time) time.Time {
	calendar := (historyDays(cfg)+1)*7/5 + 30
	return now.AddDate(0, 0, -calendar)
}
