package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-risk/internal/api"
	"github.com/wonny/aegis-risk/internal/api/handlers"
	"github.com/wonny/aegis-risk/internal/risk"
	"github.com/wonny/aegis-risk/pkg/config"
	"github.com/wonny/aegis-risk/pkg/logger"
	"github.com/wonny/aegis-risk/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

요청마다 입력(CSV 또는 DB)을 다시 읽어 리포트를 계산합니다.

Endpoints:
  GET  /health                 - Health check
  GET  /api/risk/report        - VaR/CVaR, Component VaR, 익스포저, PnL 시계열
  POST /api/risk/scenarios     - 시나리오 충격 손익
  GET  /api/risk/stress/window - 과거 최악 구간

Example:
  go run ./cmd/risk api
  go run ./cmd/risk api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default PORT)")
}

// defaultReportOptions config → risk.ReportOptions
func defaultReportOptions(cfg *config.Config) risk.ReportOptions {
	return risk.ReportOptions{
		LookbackDays:        cfg.Risk.LookbackDays,
		HorizonDays:         cfg.Risk.HorizonDays,
		Alpha:               cfg.Risk.Alpha,
		Simulations:         cfg.Risk.Simulations,
		Seed:                cfg.Risk.Seed,
		IncludeComponentVaR: cfg.Risk.IncludeComponentVaR,
	}
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Aegis Risk API Server ===")

	// 1. Load config
	cfg, log, err := loadRuntime()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Input source (CSV or PostgreSQL)
	src, db, err := openSource(ctx, cfg, log)
	if err != nil {
		return err
	}

	// 3. Router
	//    nil *database.DB를 인터페이스로 넘기지 않도록 분기
	riskHandler := handlers.NewRiskHandler(src, defaultReportOptions(cfg), handlers.StressDefaults{
		LookbackDays: cfg.Stress.LookbackDays,
		WindowDays:   cfg.Stress.WindowDays,
	}, log)

	var health api.HealthChecker
	if db != nil {
		defer db.Close()
		health = db
		// DB는 historySince 이후만 조회하므로 더 긴 lookback 요청은 거절
		riskHandler.WithHistoryLimit(historyDays(cfg))
	}

	// 4. Redis: report cache + shared rate limit (REDIS_ENABLED)
	rdb, err := redis.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer rdb.Close()

	var routerOpts []api.RouterOption
	if rdb.Enabled() {
		riskHandler.WithCache(redis.NewCache(rdb, "aegis-risk"), cfg.API.ReportCacheTTL)
		log.WithField("ttl", cfg.API.ReportCacheTTL).Info("Report cache enabled")
	}
	if limiter := newLimiter(cfg, rdb, log); limiter != nil {
		routerOpts = append(routerOpts, api.WithRateLimit(limiter))
	}

	router := api.NewRouter(riskHandler, health, log, routerOpts...)

	// 5. Serve until Ctrl+C
	server := api.New(cfg, log, router)

	fmt.Printf("\n✅ Server running on http://localhost:%s (source: %s)\n", cfg.Port, cfg.Data.Source)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  GET  /api/risk/report")
	fmt.Println("  POST /api/risk/scenarios")
	fmt.Println("  GET  /api/risk/stress/window")
	fmt.Println("\nPress Ctrl+C to stop")

	if err := server.Run(ctx); err != nil {
		return err
	}

	log.Info("Server stopped")
	return nil
}

// newLimiter Redis가 있으면 인스턴스 간 공유 슬라이딩 윈도우, 없으면 프로세스 내 토큰 버킷
func newLimiter(cfg *config.Config, rdb *redis.Client, log *logger.Logger) api.Limiter {
	rps, burst := cfg.API.RateLimitRPS, cfg.API.RateLimitBurst
	if rps <= 0 {
		log.Info("API rate limit disabled")
		return nil
	}

	if rdb.Enabled() {
		// 1초 창에 rps 요청, 최소 burst
		limit := int(rps)
		if limit < burst {
			limit = burst
		}
		return redis.NewRateLimiter(rdb, "aegis-risk", redis.RateLimitConfig{
			Key:    "api",
			Limit:  limit,
			Window: time.Second,
		})
	}
	return api.NewLocalLimiter(rps, burst)
}
