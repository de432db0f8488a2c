package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/wonny/aegis-risk/internal/contracts"
	"github.com/wonny/aegis-risk/internal/data"
	"github.com/wonny/aegis-risk/internal/risk"
	"github.com/wonny/aegis-risk/pkg/logger"
)

// RiskSnapshotConfig 일일 리스크 스냅샷 설정
type RiskSnapshotConfig struct {
	Schedule       string
	Report         risk.ReportOptions
	StressLookback int
	StressWindow   int

	// ScenariosPath is optional; empty skips scenario stress.
	ScenariosPath string
}

// Snapshot 마지막 실행 결과
type Snapshot struct {
	Report    *contracts.RiskReport
	Window    contracts.WindowStressResult
	Scenarios []contracts.ScenarioResult
}

// RiskSnapshotJob builds the daily risk report and stress results and logs a summary
// ⭐ SSOT: 일일 리스크 스냅샷 스케줄은 이 Job에서만 (저장 없음, 로그만)
type RiskSnapshotJob struct {
	source data.Source
	config RiskSnapshotConfig
	logger *logger.Logger

	mu   sync.RWMutex
	last *Snapshot
}

// NewRiskSnapshotJob creates a new risk snapshot job
func NewRiskSnapshotJob(source data.Source, cfg RiskSnapshotConfig, log *logger.Logger) *RiskSnapshotJob {
	return &RiskSnapshotJob{
		source: source,
		config: cfg,
		logger: log.WithField("job", "risk_snapshot"),
	}
}

// Name returns the job name
func (j *RiskSnapshotJob) Name() string {
	return "risk_snapshot"
}

// Schedule returns the cron schedule (weekdays 6:30 PM by default)
func (j *RiskSnapshotJob) Schedule() string {
	if j.config.Schedule == "" {
		return "0 30 18 * * 1-5"
	}
	return j.config.Schedule
}

// Run executes the snapshot
func (j *RiskSnapshotJob) Run(ctx context.Context) error {
	engine, err := data.LoadEngine(ctx, j.source)
	if err != nil {
		return fmt.Errorf("load engine: %w", err)
	}

	// ===== 1. Risk report =====
	report, err := engine.BuildReport(j.config.Report)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	log := j.logger.WithFields(map[string]interface{}{
		"run_id": report.RunID,
		"asof":   report.AsOf.Format("2006-01-02"),
	})
	log.WithField("portfolio_value", report.PortfolioValue).Info("Risk report built")
	for _, row := range report.VaRTable {
		log.WithFields(map[string]interface{}{
			"method": row.Method,
			"var":    row.VaR,
			"cvar":   row.CVaR,
		}).Info("VaR")
	}

	snap := &Snapshot{Report: report}
	tester := engine.StressTester()

	// ===== 2. Worst window =====
	window, err := tester.WorstWindow(j.config.StressLookback, j.config.StressWindow)
	if err != nil {
		return fmt.Errorf("worst window: %w", err)
	}
	snap.Window = window
	log.WithFields(map[string]interface{}{
		"window_days": window.WindowDays,
		"end_date":    window.WorstEndDate.Format("2006-01-02"),
		"pnl":         window.WorstWindowPnL,
		"pnl_pct":     window.WorstWindowPnLPct,
	}).Info("Worst historical window")

	// ===== 3. Scenarios (optional) =====
	if j.config.ScenariosPath != "" {
		scenarios, err := data.LoadScenarios(j.config.ScenariosPath)
		if err != nil {
			return fmt.Errorf("load scenarios: %w", err)
		}
		results, err := tester.RunScenarios(scenarios)
		if err != nil {
			return fmt.Errorf("run scenarios: %w", err)
		}
		snap.Scenarios = results
		for _, r := range results {
			log.WithFields(map[string]interface{}{
				"scenario": r.Scenario,
				"pnl":      r.PnL,
				"pnl_pct":  r.PnLPct,
			}).Info("Scenario")
		}
	}

	j.mu.Lock()
	j.last = snap
	j.mu.Unlock()

	return nil
}

// Last returns the most recent successful snapshot, or nil
func (j *RiskSnapshotJob) Last() *Snapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.last
}
