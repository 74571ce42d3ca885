package config

import (
	"flag"
	"fmt"
)

var (
	flagConfig = flag.String("config", "", "Path to config file")
	flagDebug  = flag.Bool("debug", false, "Enable debug logging")
	flagWidth  = flag.Int("width", 0, "Viewport width")
	flagHeight = flag.Int("height", 0, "Viewport height")
	flagScale  = flag.String("scale", "", "Smoke render resolution: full, half or quarter")
	flagScene  = flag.String("scene", "", "Path to scene file")
	flagFrames = flag.Int("frames", -1, "Frames to render (headless)")
	flagOut    = flag.String("out", "", "Output directory (headless)")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) error {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWidth > 0 {
		cfg.Viewport.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Viewport.Height = *flagHeight
	}
	if *flagScale != "" {
		switch *flagScale {
		case "full", "half", "quarter":
			cfg.Composite.Resolution = *flagScale
		default:
			return fmt.Errorf("%w: -scale must be full, half or quarter, got %q", ErrInvalid, *flagScale)
		}
	}
	if *flagScene != "" {
		cfg.Scene.File = *flagScene
	}
	if *flagFrames >= 0 {
		cfg.Output.Frames = *flagFrames
	}
	if *flagOut != "" {
		cfg.Output.Dir = *flagOut
	}
	return nil
}
