package main

import (
	"os"

	"github.com/wonny/aegis-risk/cmd/risk/commands"
)

// main is the entry point for the risk CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/risk [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
