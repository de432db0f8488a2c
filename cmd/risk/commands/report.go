package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-risk/internal/contracts"
	"github.com/wonny/aegis-risk/internal/data"
	"github.com/wonny/aegis-risk/internal/risk"
	"github.com/wonny/aegis-risk/pkg/config"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "리스크 리포트 출력",
	Long: `VaR/CVaR 테이블과 Component VaR 상위 종목, 시나리오 손익을 출력합니다.

이 명령어는:
- 포트폴리오 평가액 (기준일 종가)
- Parametric / Historical / Monte Carlo VaR, CVaR
- Component VaR 상위 N개
- 시나리오 파일이 있으면 시나리오 손익

Example:
  go run ./cmd/risk report
  go run ./cmd/risk report --alpha 0.95 --horizon 10 --sims 50000
  go run ./cmd/risk report --json`,
	RunE: runReport,
}

var (
	reportLookback   int
	reportHorizon    int
	reportAlpha      float64
	reportSims       int
	reportSeed       uint64
	reportNoCompVaR  bool
	reportTop        int
	reportScenarios  string
	reportJSONOutput bool
)

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().IntVar(&reportLookback, "lookback", 0, "lookback in trading days (default RISK_LOOKBACK_DAYS)")
	reportCmd.Flags().IntVar(&reportHorizon, "horizon", 0, "horizon in days (default RISK_HORIZON_DAYS)")
	reportCmd.Flags().Float64Var(&reportAlpha, "alpha", 0, "confidence level (default RISK_ALPHA)")
	reportCmd.Flags().IntVar(&reportSims, "sims", 0, "Monte Carlo simulations (default RISK_MC_SIMS)")
	reportCmd.Flags().Uint64Var(&reportSeed, "seed", 0, "Monte Carlo seed (default RISK_MC_SEED)")
	reportCmd.Flags().BoolVar(&reportNoCompVaR, "no-components", false, "skip component VaR")
	reportCmd.Flags().IntVar(&reportTop, "top", 10, "number of component VaR rows to print")
	reportCmd.Flags().StringVar(&reportScenarios, "scenarios", "", "scenario file, CSV or YAML (default SCENARIOS_PATH)")
	reportCmd.Flags().BoolVar(&reportJSONOutput, "json", false, "print the report as JSON")
}

// reportOptions config 기본값에 플래그를 덮어씀 (명시된 플래그만)
func reportOptions(cmd *cobra.Command, cfg *config.Config) risk.ReportOptions {
	opts := defaultReportOptions(cfg)

	flags := cmd.Flags()
	if flags.Changed("lookback") {
		opts.LookbackDays = reportLookback
	}
	if flags.Changed("horizon") {
		opts.HorizonDays = reportHorizon
	}
	if flags.Changed("alpha") {
		opts.Alpha = reportAlpha
	}
	if flags.Changed("sims") {
		opts.Simulations = reportSims
	}
	if flags.Changed("seed") {
		opts.Seed = reportSeed
	}
	if reportNoCompVaR {
		opts.IncludeComponentVaR = false
	}
	return opts
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// DB 조회 구간은 플래그로 바뀐 lookback/horizon 기준
	opts := reportOptions(cmd, cfg)
	cfg.Risk.LookbackDays, cfg.Risk.HorizonDays = opts.LookbackDays, opts.HorizonDays

	src, db, err := openSource(ctx, cfg, log)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	engine, err := data.LoadEngine(ctx, src)
	if err != nil {
		return err
	}

	report, err := engine.BuildReport(opts)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}
	log.WithField("run_id", report.RunID).Debug("Report built")

	// 시나리오 파일은 선택 사항 (기본 경로에 없으면 건너뜀)
	path := cfg.Data.ScenariosPath
	if cmd.Flags().Changed("scenarios") {
		path = reportScenarios
	}
	var scenarios []contracts.ScenarioResult
	if path != "" {
		defs, err := data.LoadScenarios(path)
		switch {
		case errors.Is(err, os.ErrNotExist) && !cmd.Flags().Changed("scenarios"):
			log.WithField("path", path).Debug("No scenario file, skipping")
		case err != nil:
			return fmt.Errorf("load scenarios: %w", err)
		default:
			scenarios, err = engine.StressTester().RunScenarios(defs)
			if err != nil {
				return fmt.Errorf("run scenarios: %w", err)
			}
		}
	}

	out := cmd.OutOrStdout()
	if reportJSONOutput {
		return writeJSON(out, struct {
			*contracts.RiskReport
			Scenarios []contracts.ScenarioResult `json:"scenarios,omitempty"`
		}{report, scenarios})
	}

	renderReport(newPrinter(out), report, reportTop, scenarios)
	return nil
}

// renderReport prints the report tables
func renderReport(pr *printer, report *contracts.RiskReport, top int, scenarios []contracts.ScenarioResult) {
	p := report.Params
	pr.Header("Portfolio Risk Report")
	pr.KeyValue("As of", report.AsOf.Format("2006-01-02"), 16)
	pr.KeyValue("Portfolio value", pr.Money(report.PortfolioValue), 16)
	pr.KeyValue("Confidence", pr.Pct(p.Alpha), 16)
	pr.KeyValue("Horizon", fmt.Sprintf("%d day(s)", p.HorizonDays), 16)
	pr.KeyValue("Lookback", fmt.Sprintf("%d day(s)", p.LookbackDays), 16)
	pr.KeyValue("Run ID", report.RunID, 16)
	pr.Separator()

	fmt.Fprintln(pr.w, "\nVaR / CVaR (loss, currency)")
	widths := []int{36, 14, 14}
	pr.TableHeader([]string{"Method", "VaR", "CVaR"}, widths)
	for _, row := range report.VaRTable {
		pr.TableRow([]string{row.Method, pr.Money(row.VaR), pr.Money(row.CVaR)}, widths)
	}

	if len(report.ComponentVaR) > 0 {
		fmt.Fprintf(pr.w, "\nTop component VaR contributors (parametric)\n")
		widths := []int{12, 10, 14, 14}
		pr.TableHeader([]string{"Asset", "Weight", "Marginal", "Component"}, widths)
		for _, row := range report.TopComponents(top) {
			pr.TableRow([]string{
				row.Asset,
				pr.Pct(row.Weight),
				pr.Money(row.MarginalVaR),
				pr.Money(row.ComponentVaR),
			}, widths)
		}
	}

	if len(report.Exposures) > 0 {
		fmt.Fprintf(pr.w, "\nExposure by asset class\n")
		widths := []int{16, 16, 10}
		pr.TableHeader([]string{"Class", "Value", "Share"}, widths)
		for _, row := range report.Exposures {
			pr.TableRow([]string{row.AssetClass, pr.Money(row.ExposureValue), pr.Pct(row.ExposurePct)}, widths)
		}
	}

	if len(scenarios) > 0 {
		renderScenarios(pr, scenarios)
	}
}

// renderScenarios prints scenario PnL, worst first
func renderScenarios(pr *printer, results []contracts.ScenarioResult) {
	fmt.Fprintf(pr.w, "\nScenario stress\n")
	widths := []int{28, 16, 10}
	pr.TableHeader([]string{"Scenario", "PnL", "PnL %"}, widths)
	for _, r := range results {
		pr.TableRow([]string{r.Scenario, pr.Money(r.PnL), pr.Pct(r.PnLPct)}, widths)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
