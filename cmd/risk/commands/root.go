package commands

import (
	"github.com/spf13/cobra"

	"github.com/wonny/aegis-risk/pkg/config"
	"github.com/wonny/aegis-risk/pkg/logger"
)

var (
	// Global flags (config 값을 덮어씀)
	dataSource    string
	positionsPath string
	pricesPath    string
	verbose       bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "risk",
	Short: "Aegis Risk - 포트폴리오 리스크 엔진",
	Long: `Aegis Risk CLI

선형(델타원) 포트폴리오의 VaR/CVaR, Component VaR, 스트레스 테스트.
입력은 CSV 파일 또는 PostgreSQL (DATA_SOURCE).

Usage:
  go run ./cmd/risk [command]

Examples:
  go run ./cmd/risk report
  go run ./cmd/risk report --alpha 0.95 --horizon 10
  go run ./cmd/risk stress scenarios --file data/scenarios.yaml
  go run ./cmd/risk stress window --window 5
  go run ./cmd/risk api
  go run ./cmd/risk scheduler start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataSource, "source", "", "data source (csv|postgres, default from DATA_SOURCE)")
	rootCmd.PersistentFlags().StringVar(&positionsPath, "positions", "", "positions CSV (default from POSITIONS_PATH)")
	rootCmd.PersistentFlags().StringVar(&pricesPath, "prices", "", "prices CSV (default from PRICES_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadRuntime loads config, applies global flag overrides and builds the logger
func loadRuntime() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	if dataSource != "" {
		cfg.Data.Source = dataSource
	}
	if positionsPath != "" {
		cfg.Data.PositionsPath = positionsPath
	}
	if pricesPath != "" {
		cfg.Data.PricesPath = pricesPath
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	return cfg, logger.New(cfg), nil
}
