// Package main is an ImGui tool for tuning the smoke effect.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/voxsmoke/internal/config"
	"github.com/Faultbox/voxsmoke/internal/engine/ui"
	"github.com/Faultbox/voxsmoke/internal/logger"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== VoxSmoke viewer ===")

	backend, err := ui.NewBackend("VoxSmoke Viewer", 1600, 900)
	if err != nil {
		logger.Error("failed to create ui backend", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}

	app, err := newApp(cfg, backend)
	if err != nil {
		logger.Error("failed to create viewer", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	defer app.Close()

	backend.Run(app.render)
}
