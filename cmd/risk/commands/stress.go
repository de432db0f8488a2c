package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-risk/internal/contracts"
	"github.com/wonny/aegis-risk/internal/data"
	"github.com/wonny/aegis-risk/internal/risk"
	"github.com/wonny/aegis-risk/pkg/config"
	"github.com/wonny/aegis-risk/pkg/logger"
)

// stressCmd represents the stress command
var stressCmd = &cobra.Command{
	Use:   "stress",
	Short: "스트레스 테스트",
	Long: `결정적 시나리오와 과거 최악 구간 스트레스를 실행합니다.

Subcommands:
  scenarios - 시나리오 충격 손익
  window    - 과거 N일 최악 구간 손익

Example:
  go run ./cmd/risk stress scenarios --file data/scenarios.yaml
  go run ./cmd/risk stress window --lookback 504 --window 10`,
}

var (
	stressScenariosCmd = &cobra.Command{
		Use:   "scenarios",
		Short: "시나리오 충격 손익",
		RunE:  runStressScenarios,
	}

	stressWindowCmd = &cobra.Command{
		Use:   "window",
		Short: "과거 최악 구간 손익",
		Long: `과거 lookback 기간 중 window일 손익이 가장 나빴던 구간을 찾습니다.

현재 보유 수량을 과거 전 기간에 고정한 가정 (리밸런싱 없음).`,
		RunE: runStressWindow,
	}
)

var (
	stressFile     string
	stressLookback int
	stressWindow   int
	stressJSON     bool
)

func init() {
	rootCmd.AddCommand(stressCmd)
	stressCmd.AddCommand(stressScenariosCmd)
	stressCmd.AddCommand(stressWindowCmd)

	stressCmd.PersistentFlags().BoolVar(&stressJSON, "json", false, "print results as JSON")
	stressScenariosCmd.Flags().StringVar(&stressFile, "file", "", "scenario file, CSV or YAML (default SCENARIOS_PATH)")
	stressWindowCmd.Flags().IntVar(&stressLookback, "lookback", 0, "lookback in trading days (default STRESS_LOOKBACK_DAYS)")
	stressWindowCmd.Flags().IntVar(&stressWindow, "window", 0, "window length in days (default STRESS_WINDOW_DAYS)")
}

// loadEngine config → source → engine
func loadEngine(cmd *cobra.Command, cfg *config.Config, log *logger.Logger) (*risk.Engine, func(), error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	src, db, err := openSource(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if db != nil {
			db.Close()
		}
	}

	engine, err := data.LoadEngine(ctx, src)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return engine, cleanup, nil
}

func runStressScenarios(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	path := cfg.Data.ScenariosPath
	if stressFile != "" {
		path = stressFile
	}

	scenarios, err := data.LoadScenarios(path)
	if err != nil {
		return fmt.Errorf("load scenarios: %w", err)
	}

	engine, cleanup, err := loadEngine(cmd, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	results, err := engine.StressTester().RunScenarios(scenarios)
	if err != nil {
		return fmt.Errorf("run scenarios: %w", err)
	}

	out := cmd.OutOrStdout()
	if stressJSON {
		return writeJSON(out, results)
	}

	pr := newPrinter(out)
	pr.Header("Scenario Stress")
	pr.KeyValue("As of", engine.Prices().LastDate().Format("2006-01-02"), 10)
	pr.KeyValue("File", path, 10)
	pr.KeyValue("Scenarios", pr.Int(len(results)), 10)
	if len(results) == 0 {
		pr.Warning("No scenarios defined")
		return nil
	}
	renderScenarios(pr, results)
	return nil
}

func runStressWindow(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	lookback, window := cfg.Stress.LookbackDays, cfg.Stress.WindowDays
	if cmd.Flags().Changed("lookback") {
		lookback = stressLookback
	}
	if cmd.Flags().Changed("window") {
		window = stressWindow
	}
	cfg.Stress.LookbackDays, cfg.Stress.WindowDays = lookback, window

	engine, cleanup, err := loadEngine(cmd, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := engine.StressTester().WorstWindow(lookback, window)
	if err != nil {
		return fmt.Errorf("worst window: %w", err)
	}

	out := cmd.OutOrStdout()
	if stressJSON {
		return writeJSON(out, result)
	}
	renderWindow(newPrinter(out), result)
	return nil
}

// renderWindow prints the worst historical window
func renderWindow(pr *printer, r contracts.WindowStressResult) {
	pr.Header("Worst Historical Window")
	pr.KeyValue("Window", fmt.Sprintf("%d day(s)", r.WindowDays), 12)
	pr.KeyValue("Lookback", fmt.Sprintf("%d day(s)", r.LookbackDays), 12)
	pr.KeyValue("Window end", r.WorstEndDate.Format("2006-01-02"), 12)
	pr.KeyValue("PnL", pr.Money(r.WorstWindowPnL), 12)
	pr.KeyValue("PnL %", pr.Pct(r.WorstWindowPnLPct), 12)
	pr.Separator()
	pr.Info("Assumes today's quantities were held over the whole history (no rebalancing)")
}
