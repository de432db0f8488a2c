package config_test

import (
	"fmt"

	"github.com/wonny/aegis-risk/pkg/config"
)

// Example demonstrates how to use the config package
func Example() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	// Access configuration values
	fmt.Printf("Data source: %s\n", cfg.Data.Source)
	fmt.Printf("VaR confidence: %.2f\n", cfg.Risk.Alpha)
	fmt.Printf("Horizon: %d days\n", cfg.Risk.HorizonDays)
}
