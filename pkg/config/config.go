package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// 데이터 소스
const (
	DataSourceCSV      = "csv"
	DataSourcePostgres = "postgres"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis (report cache, API rate limit)
	Redis RedisConfig

	// API
	API APIConfig

	// Input data
	Data DataConfig

	// Risk engine defaults
	Risk RiskConfig

	// Stress defaults
	Stress StressConfig

	// Scheduler
	ReportSchedule string // cron spec, empty disables the job

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// APIConfig 리포트 캐시/요청 제한
type APIConfig struct {
	ReportCacheTTL time.Duration
	RateLimitRPS   float64 // 0 disables rate limiting
	RateLimitBurst int
}

// DataConfig 포지션/가격/시나리오 입력 위치
type DataConfig struct {
	Source        string // csv, postgres
	PositionsPath string
	PricesPath    string
	ScenariosPath string
}

// RiskConfig build_report 기본값
type RiskConfig struct {
	LookbackDays        int
	HorizonDays         int
	Alpha               float64
	Simulations         int
	Seed                uint64
	IncludeComponentVaR bool
}

// StressConfig 과거 구간 스트레스 기본값
type StressConfig struct {
	LookbackDays int
	WindowDays   int
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		API: APIConfig{
			ReportCacheTTL: getEnvAsDuration("REPORT_CACHE_TTL", "10m"),
			RateLimitRPS:   getEnvAsFloat("API_RATE_LIMIT_RPS", 5),
			RateLimitBurst: getEnvAsInt("API_RATE_LIMIT_BURST", 10),
		},

		Data: DataConfig{
			Source:        getEnv("DATA_SOURCE", DataSourceCSV),
			PositionsPath: getEnv("POSITIONS_PATH", "data/positions.csv"),
			PricesPath:    getEnv("PRICES_PATH", "data/prices.csv"),
			ScenariosPath: getEnv("SCENARIOS_PATH", "data/scenarios.csv"),
		},

		Risk: RiskConfig{
			LookbackDays:        getEnvAsInt("RISK_LOOKBACK_DAYS", 252),
			HorizonDays:         getEnvAsInt("RISK_HORIZON_DAYS", 1),
			Alpha:               getEnvAsFloat("RISK_ALPHA", 0.99),
			Simulations:         getEnvAsInt("RISK_MC_SIMS", 20000),
			Seed:                getEnvAsUint("RISK_MC_SEED", 123),
			IncludeComponentVaR: getEnvAsBool("RISK_COMPONENT_VAR", true),
		},

		Stress: StressConfig{
			LookbackDays: getEnvAsInt("STRESS_LOOKBACK_DAYS", 504),
			WindowDays:   getEnvAsInt("STRESS_WINDOW_DAYS", 10),
		},

		ReportSchedule: getEnv("REPORT_SCHEDULE", "0 30 18 * * 1-5"),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Data.Source {
	case DataSourceCSV:
		if c.Data.PositionsPath == "" || c.Data.PricesPath == "" {
			return fmt.Errorf("POSITIONS_PATH and PRICES_PATH are required when DATA_SOURCE=csv")
		}
	case DataSourcePostgres:
		// Database URL is required only for the postgres source
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when DATA_SOURCE=postgres")
		}
	default:
		return fmt.Errorf("DATA_SOURCE must be one of: csv, postgres")
	}

	if !(c.Risk.Alpha > 0 && c.Risk.Alpha < 1) {
		return fmt.Errorf("RISK_ALPHA must be between 0 and 1, got %v", c.Risk.Alpha)
	}
	if c.Risk.HorizonDays < 1 || c.Risk.LookbackDays < 1 || c.Risk.Simulations < 1 {
		return fmt.Errorf("RISK_HORIZON_DAYS, RISK_LOOKBACK_DAYS and RISK_MC_SIMS must be positive")
	}
	if c.Stress.WindowDays < 1 || c.Stress.LookbackDays < 0 {
		return fmt.Errorf("STRESS_WINDOW_DAYS must be positive and STRESS_LOOKBACK_DAYS non-negative")
	}

	if c.API.RateLimitRPS < 0 || (c.API.RateLimitRPS > 0 && c.API.RateLimitBurst < 1) {
		return fmt.Errorf("API_RATE_LIMIT_RPS must be >= 0 and API_RATE_LIMIT_BURST positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsUint(key string, defaultValue uint64) uint64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
