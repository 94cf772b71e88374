// Package main provides the headless island simulation driven by console
// commands on stdin.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/gdhsf3701/island/internal/config"
	"github.com/gdhsf3701/island/internal/observability"
	"github.com/gdhsf3701/island/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	blocksDir := flag.String("blocks", "", "block type YAML directory; overrides content.blocks_dir")
	sceneFile := flag.String("scene", "", "scene YAML file; overrides content.scene_file")
	scriptDir := flag.String("scripts", "", "Lua hazard script directory; overrides hazards.script_dir")
	noColor := flag.Bool("no-color", false, "disable ANSI colors")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	applyOverrides(&cfg, *blocksDir, *sceneFile, *scriptDir)

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	a, err := newApp(cfg, streams{in: os.Stdin, out: os.Stdout, color: !*noColor}, logger)
	if err != nil {
		logger.Fatal("wiring simulation", zap.Error(err))
	}
	defer a.scripts.Close()

	lc := server.NewLifecycle(logger)
	addServices(lc, a)

	logger.Info("island simulation ready",
		zap.Duration("tick_interval", cfg.Simulation.TickInterval),
		zap.Int64("seed", cfg.Simulation.Seed),
		zap.Duration("startup", time.Since(start)),
	)

	if err := lc.Run(context.Background()); err != nil {
		logger.Error("simulation stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

// applyOverrides replaces content locations with non-empty flag values.
func applyOverrides(cfg *config.Config, blocksDir, sceneFile, scriptDir string) {
	if blocksDir != "" {
		cfg.Content.BlocksDir = blocksDir
	}
	if sceneFile != "" {
		cfg.Content.SceneFile = sceneFile
	}
	if scriptDir != "" {
		cfg.Hazards.ScriptDir = scriptDir
	}
}

// addServices registers the engine before the console so the console stops
// first on shutdown.
func addServices(lc *server.Lifecycle, a *app) {
	lc.Add("engine", server.ContextService(func(ctx context.Context) error {
		return a.engine.Run(ctx, a.inputs)
	}))
	lc.Add("console", a.console)
}
