// Package main is an interactive smoke grenade playground.
//
// Controls:
//
//	WASD, Q/E     move
//	Tab           toggle mouse look
//	left click    detonate where the cursor hits the scene
//	right click   fire from the camera (Space also fires)
//	F1-F5         debug view: final, albedo, mask, smoke depth, scene depth
//	1, 2, 3       smoke resolution: full, half, quarter
//	N             regenerate noise with the next seed
//	F11           toggle fullscreen
//	F12           screenshot
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/voxsmoke/internal/config"
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

	logger.Info("=== VoxSmoke playground ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	p, err := newPlayground(cfg)
	if err != nil {
		logger.Error("failed to create playground", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	defer p.Close()

	if err := p.Run(); err != nil {
		logger.Error("playground error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}

	logger.Info("playground closed normally")
}
