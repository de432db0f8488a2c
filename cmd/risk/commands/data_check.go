package commands

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-risk/internal/contracts"
	"github.com/wonny/aegis-risk/internal/risk"
)

// dataCheckCmd represents the data-check command
var dataCheckCmd = &cobra.Command{
	Use:   "data-check",
	Short: "입력 데이터 상태 확인",
	Long: `포지션과 가격 데이터를 읽어 리스크 계산 가능 여부를 확인합니다.

확인 항목:
- DB 연결 및 풀 통계 (DATA_SOURCE=postgres)
- 포지션 수, 현금 포함 여부
- 가격 데이터 기간 (거래일 수)
- 자산별 결측 가격 수
- 가격 시계열이 없는 보유 자산

Example:
  go run ./cmd/risk data-check
  go run ./cmd/risk data-check --source postgres`,
	RunE: runDataCheck,
}

func init() {
	rootCmd.AddCommand(dataCheckCmd)
}

// assetCoverage 자산별 가격 커버리지
type assetCoverage struct {
	Asset   string
	Missing int
	Last    float64
}

// inputSummary 입력 데이터 요약
type inputSummary struct {
	Positions     int
	HasCash       bool
	Rows          int
	First, Last   time.Time
	Coverage      []assetCoverage
	MissingSeries []string
}

// summarizeInputs 보유 자산 기준 가격 커버리지 집계
func summarizeInputs(positions []contracts.Position, prices *contracts.PriceMatrix) inputSummary {
	s := inputSummary{Positions: len(positions)}
	for _, p := range positions {
		if p.IsCash() {
			s.HasCash = true
		}
	}

	if prices != nil && prices.Len() > 0 {
		s.Rows = prices.Len()
		s.First = prices.Date(0)
		s.Last = prices.LastDate()
	}

	for _, asset := range contracts.HeldAssets(positions) {
		var col []float64
		ok := prices != nil
		if ok {
			col, ok = prices.Column(asset)
		}
		if !ok {
			s.MissingSeries = append(s.MissingSeries, asset)
			continue
		}

		c := assetCoverage{Asset: asset, Last: math.NaN()}
		for _, v := range col {
			if math.IsNaN(v) {
				c.Missing++
			}
		}
		if len(col) > 0 {
			c.Last = col[len(col)-1]
		}
		s.Coverage = append(s.Coverage, c)
	}
	return s
}

func runDataCheck(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Aegis Risk Data Check ===")

	cfg, log, err := loadRuntime()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	src, db, err := openSource(ctx, cfg, log)
	if err != nil {
		return err
	}

	pr := newPrinter(cmd.OutOrStdout())

	// 1. Database (postgres only)
	if db != nil {
		defer db.Close()

		status, err := db.HealthCheck(ctx)
		if err != nil {
			return fmt.Errorf("❌ Health check failed: %w", err)
		}
		pr.Header("Database")
		pr.KeyValue("Healthy", fmt.Sprintf("%v", status.Healthy), 14)
		pr.KeyValue("Response time", status.ResponseTime.String(), 14)
		pr.KeyValue("Connections", fmt.Sprintf("%d / %d", status.Stats.TotalConns, status.Stats.MaxConns), 14)
	}

	// 2. Inputs
	positions, err := src.Positions(ctx)
	if err != nil {
		return fmt.Errorf("load positions: %w", err)
	}
	prices, err := src.Prices(ctx)
	if err != nil {
		return fmt.Errorf("load prices: %w", err)
	}

	renderSummary(pr, summarizeInputs(positions, prices), cfg.Risk.LookbackDays)

	// 3. Same validation the engine runs
	if _, err := risk.NewEngine(positions, prices); err != nil {
		return fmt.Errorf("❌ inputs rejected: %w", err)
	}
	pr.Success("Inputs are valid")
	return nil
}

// renderSummary prints the input summary and warns on thin coverage
func renderSummary(pr *printer, s inputSummary, lookback int) {
	pr.Header("Inputs")
	pr.KeyValue("Positions", pr.Int(s.Positions), 12)
	pr.KeyValue("Cash line", fmt.Sprintf("%v", s.HasCash), 12)
	pr.KeyValue("Price rows", pr.Int(s.Rows), 12)
	if s.Rows > 0 {
		pr.KeyValue("Period", fmt.Sprintf("%s ~ %s", s.First.Format("2006-01-02"), s.Last.Format("2006-01-02")), 12)
	}

	if len(s.Coverage) > 0 {
		fmt.Fprintln(pr.w)
		widths := []int{12, 10, 14}
		pr.TableHeader([]string{"Asset", "Missing", "Last price"}, widths)
		for _, c := range s.Coverage {
			pr.TableRow([]string{c.Asset, pr.Int(c.Missing), pr.Money(c.Last)}, widths)
		}
	}

	if len(s.MissingSeries) > 0 {
		pr.Warning(fmt.Sprintf("No price series for: %v", s.MissingSeries))
	}
	if s.Rows > 0 && s.Rows-1 < lookback {
		pr.Warning(fmt.Sprintf("Only %d return rows for a %d-day lookback; the full history will be used", s.Rows-1, lookback))
	}
}
