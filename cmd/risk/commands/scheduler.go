package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-risk/internal/data"
	"github.com/wonny/aegis-risk/internal/scheduler"
	"github.com/wonny/aegis-risk/internal/scheduler/jobs"
	"github.com/wonny/aegis-risk/pkg/config"
	"github.com/wonny/aegis-risk/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `일일 리스크 스냅샷 스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/risk scheduler start
  go run ./cmd/risk scheduler list
  go run ./cmd/risk scheduler run risk_snapshot`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- risk_snapshot: REPORT_SCHEDULE (기본 평일 오후 6시 30분)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

// initScheduler registers all jobs; the returned cleanup closes the database
func initScheduler(ctx context.Context) (*scheduler.Scheduler, func(), error) {
	cfg, log, err := loadRuntime()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
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

	sched := scheduler.New(log)
	if err := registerJobs(sched, cfg, src, log); err != nil {
		cleanup()
		return nil, nil, err
	}
	return sched, cleanup, nil
}

func registerJobs(sched *scheduler.Scheduler, cfg *config.Config, src data.Source, log *logger.Logger) error {
	if cfg.ReportSchedule == "" {
		log.Warn("REPORT_SCHEDULE is empty, risk_snapshot disabled")
		return nil
	}

	scenarios := cfg.Data.ScenariosPath
	if _, err := os.Stat(scenarios); scenarios != "" && err != nil {
		log.WithField("path", scenarios).Warn("Scenario file not found, snapshot runs without scenarios")
		scenarios = ""
	}

	job := jobs.NewRiskSnapshotJob(src, jobs.RiskSnapshotConfig{
		Schedule:       cfg.ReportSchedule,
		Report:         defaultReportOptions(cfg),
		StressLookback: cfg.Stress.LookbackDays,
		StressWindow:   cfg.Stress.WindowDays,
		ScenariosPath:  scenarios,
	}, log)

	return sched.AddJob(job)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Aegis Risk Scheduler ===")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched, cleanup, err := initScheduler(ctx)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		next, _ := sched.NextRun(jobName)
		fmt.Printf("  - %s (next: %s)\n", jobName, next.Format("2006-01-02 15:04:05"))
	}
	fmt.Println("\nPress Ctrl+C to stop")

	<-ctx.Done()

	sched.Stop()
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	sched, cleanup, err := initScheduler(context.Background())
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	pr := newPrinter(cmd.OutOrStdout())
	pr.Header("Registered Jobs")
	widths := []int{20, 20}
	pr.TableHeader([]string{"Job", "Schedule"}, widths)
	stats := sched.GetJobStats()
	for _, name := range sched.GetAllJobs() {
		pr.TableRow([]string{name, stats[name].Schedule}, widths)
	}
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched, cleanup, err := initScheduler(ctx)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	result, err := sched.RunJob(ctx, args[0])
	if err != nil {
		return err
	}

	if !result.Success {
		return fmt.Errorf("job %s failed: %s", result.JobName, result.Error)
	}
	newPrinter(cmd.OutOrStdout()).Success(fmt.Sprintf("Job %s completed in %.2fs", result.JobName, result.Duration.Seconds()))
	return nil
}
