package main

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gdhsf3701/island/internal/config"
	"github.com/gdhsf3701/island/internal/console"
	"github.com/gdhsf3701/island/internal/game/aim"
	"github.com/gdhsf3701/island/internal/game/block"
	"github.com/gdhsf3701/island/internal/game/build"
	"github.com/gdhsf3701/island/internal/game/daycycle"
	"github.com/gdhsf3701/island/internal/game/dice"
	"github.com/gdhsf3701/island/internal/game/economy"
	"github.com/gdhsf3701/island/internal/game/grid"
	"github.com/gdhsf3701/island/internal/game/hazard"
	"github.com/gdhsf3701/island/internal/game/placement"
	"github.com/gdhsf3701/island/internal/game/spatial"
	"github.com/gdhsf3701/island/internal/scripting"
	"github.com/gdhsf3701/island/internal/simulation"
)

// inputBuffer bounds the console lines queued ahead of the engine.
const inputBuffer = 64

// app is the wired simulation.
type app struct {
	engine  *simulation.Engine
	console *console.Console
	scripts *scripting.Manager
	inputs  chan simulation.Input
}

// streams are the console input and output.
type streams struct {
	in    io.Reader
	out   io.Writer
	color bool
}

func vec(v []float64) r3.Vec {
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}

func aimConfig(c config.AimConfig) aim.Config {
	return aim.Config{
		MaxDistance:    c.MaxDistance,
		ExtendedFactor: c.ExtendedFactor,
		SweepRadius:    c.SweepRadius,
		AnchorX:        c.AnchorX,
		AnchorY:        c.AnchorY,
	}
}

func placementConfig(c config.PlacementConfig) (placement.Config, error) {
	shape, err := placement.ParseShapeMode(c.Shape)
	if err != nil {
		return placement.Config{}, err
	}
	policy, err := placement.ParsePolicy(c.Policy)
	if err != nil {
		return placement.Config{}, err
	}
	return placement.Config{
		Shape:             shape,
		SphereRadius:      c.SphereRadius,
		BoxSize:           vec(c.BoxSize),
		Policy:            policy,
		SnapTolerance:     c.SnapTolerance,
		OffsetAlongNormal: c.OffsetAlongNormal,
	}, nil
}

func economyConfig(c config.EconomyConfig) economy.Config {
	return economy.Config{
		BaseAmount:           c.BaseAmount,
		CapacityMultiplier:   c.CapacityMultiplier,
		BaseRefill:           c.BaseRefill,
		UsageBonusMultiplier: c.UsageBonusMultiplier,
		LowThreshold:         c.LowThreshold,
	}
}

func hazardConfig(c config.HazardsConfig) (hazard.Config, error) {
	kinds := make([]block.HazardKind, 0, len(c.Kinds))
	for _, s := range c.Kinds {
		k, err := block.ParseHazardKind(s)
		if err != nil {
			return hazard.Config{}, err
		}
		kinds = append(kinds, k)
	}
	return hazard.Config{Nightly: c.Nightly, Kinds: kinds, Damage: c.Damage}, nil
}

// loadScene reads the scene file, or returns an empty scene when none is
// configured.
func loadScene(path string) (*spatial.Scene, error) {
	if path == "" {
		return spatial.NewScene(1), nil
	}
	return spatial.LoadScene(path)
}

// newApp loads content and wires every component from cfg.
//
// Precondition: cfg must be valid.
// Postcondition: Returns a ready app or the first wiring error.
func newApp(cfg config.Config, s streams, logger *zap.Logger) (*app, error) {
	catalog, err := block.LoadCatalog(cfg.Content.BlocksDir)
	if err != nil {
		return nil, err
	}
	logger.Info("block catalog loaded", zap.Int("types", catalog.Len()))

	scene, err := loadScene(cfg.Content.SceneFile)
	if err != nil {
		return nil, err
	}
	logger.Info("scene loaded", zap.Int("colliders", scene.Len()))

	cam, err := spatial.NewCamera(vec(cfg.Camera.Position), vec(cfg.Camera.Target),
		cfg.Camera.FOVDegrees, cfg.Camera.Width, cfg.Camera.Height)
	if err != nil {
		return nil, fmt.Errorf("camera: %w", err)
	}
	resolver, err := aim.NewResolver(aimConfig(cfg.Aim), scene, cam, logger)
	if err != nil {
		return nil, err
	}
	pcfg, err := placementConfig(cfg.Placement)
	if err != nil {
		return nil, err
	}
	validator, err := placement.NewValidator(pcfg, scene, logger)
	if err != nil {
		return nil, err
	}
	g, err := grid.NewGrid(cfg.Grid.CellSize, vec(cfg.Grid.Origin))
	if err != nil {
		return nil, err
	}

	sink := console.NewTextSink(s.out, catalog, s.color)
	ctrl, err := build.NewController(build.Deps{
		Aimer:     resolver,
		Validator: validator,
		Grid:      g,
		Catalog:   catalog,
		Spawner:   scene,
		Sink:      sink,
		Economy:   economyConfig(cfg.Economy),
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	clock, err := daycycle.NewClock(daycycle.Config{DayTicks: cfg.DayCycle.DayTicks, NightTicks: cfg.DayCycle.NightTicks})
	if err != nil {
		return nil, err
	}

	roller := dice.NewRoller(dice.SourceFor(cfg.Simulation.Seed), logger)
	scripts := scripting.NewManager(roller, logger)
	var hooks hazard.Hooks
	if cfg.Hazards.ScriptDir != "" {
		if err := scripts.LoadDir(cfg.Hazards.ScriptDir, cfg.Hazards.InstructionLimit); err != nil {
			return nil, err
		}
		hooks = scripts
	}

	hcfg, err := hazardConfig(cfg.Hazards)
	if err != nil {
		return nil, err
	}
	director, err := hazard.NewDirector(hcfg, hazard.NewDispatcher(ctrl, logger), roller, hooks, logger)
	if err != nil {
		return nil, err
	}

	engine, err := simulation.NewEngine(simulation.Config{
		TickInterval: cfg.Simulation.TickInterval,
		AdvanceClock: cfg.Simulation.AdvanceClock,
	}, ctrl, clock, director, logger)
	if err != nil {
		return nil, err
	}
	scripts.LiveBlocks = engine.ScriptBlocks
	engine.OnStep(sink.StepFinished)

	inputs := make(chan simulation.Input, inputBuffer)
	con := console.New(s.in, sink, console.DefaultRegistry(), catalog, engine, inputs, logger)
	return &app{engine: engine, console: con, scripts: scripts, inputs: inputs}, nil
}
