package main

import (
	"os"

	"github.com/weslleycarlos/controle-presos/internal/cli"
	"github.com/weslleycarlos/controle-presos/internal/logger"
)

func main() {
	level := os.Getenv("CONTROLE_LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	logger.Init(level, "console")

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
