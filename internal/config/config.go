// Package config provides Viper-based configuration loading for the island
// simulation.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// Output is a zap sink such as "stderr", "stdout" or a file path.
	Output string `mapstructure:"output"`
}

// SimulationConfig holds tick loop settings.
type SimulationConfig struct {
	// TickInterval is the wall-clock period between simulation steps.
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// Seed seeds the dice source; 0 selects the crypto source.
	Seed int64 `mapstructure:"seed"`
	// AdvanceClock advances the day clock once per step.
	AdvanceClock bool `mapstructure:"advance_clock"`
}

// GridConfig holds the build grid geometry.
type GridConfig struct {
	CellSize float64   `mapstructure:"cell_size"`
	Origin   []float64 `mapstructure:"origin"`
}

// AimConfig holds aim resolver tuning.
type AimConfig struct {
	MaxDistance    float64 `mapstructure:"max_distance"`
	ExtendedFactor float64 `mapstructure:"extended_factor"`
	SweepRadius    float64 `mapstructure:"sweep_radius"`
	AnchorX        float64 `mapstructure:"anchor_x"`
	AnchorY        float64 `mapstructure:"anchor_y"`
}

// PlacementConfig holds placement validation settings.
type PlacementConfig struct {
	// Shape is "sphere" or "box".
	Shape        string    `mapstructure:"shape"`
	SphereRadius float64   `mapstructure:"sphere_radius"`
	BoxSize      []float64 `mapstructure:"box_size"`
	// Policy is "buildable" or "smart_obstacle".
	Policy            string  `mapstructure:"policy"`
	SnapTolerance     float64 `mapstructure:"snap_tolerance"`
	OffsetAlongNormal bool    `mapstructure:"offset_along_normal"`
}

// EconomyConfig holds the resource ledger rules.
type EconomyConfig struct {
	BaseAmount           int     `mapstructure:"base_amount"`
	CapacityMultiplier   int     `mapstructure:"capacity_multiplier"`
	BaseRefill           int     `mapstructure:"base_refill"`
	UsageBonusMultiplier float64 `mapstructure:"usage_bonus_multiplier"`
	LowThreshold         int     `mapstructure:"low_threshold"`
}

// DayCycleConfig holds the phase lengths in ticks.
type DayCycleConfig struct {
	DayTicks   int `mapstructure:"day_ticks"`
	NightTicks int `mapstructure:"night_ticks"`
}

// HazardsConfig holds the nightly hazard director settings.
type HazardsConfig struct {
	// Nightly enables a hazard at every nightfall.
	Nightly bool `mapstructure:"nightly"`
	// Kinds are the hazards the dice fallback picks from.
	Kinds []string `mapstructure:"kinds"`
	// Damage is a dice expression such as "25" or "3d10+5".
	Damage string `mapstructure:"damage"`
	// ScriptDir holds Lua hooks; empty disables scripting.
	ScriptDir string `mapstructure:"script_dir"`
	// InstructionLimit bounds each Lua call; 0 selects the default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// CameraConfig holds the viewport used to turn screen points into rays.
type CameraConfig struct {
	Position   []float64 `mapstructure:"position"`
	Target     []float64 `mapstructure:"target"`
	FOVDegrees float64   `mapstructure:"fov_degrees"`
	Width      float64   `mapstructure:"width"`
	Height     float64   `mapstructure:"height"`
}

// ContentConfig locates data files.
type ContentConfig struct {
	BlocksDir string `mapstructure:"blocks_dir"`
	SceneFile string `mapstructure:"scene_file"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Grid       GridConfig       `mapstructure:"grid"`
	Aim        AimConfig        `mapstructure:"aim"`
	Placement  PlacementConfig  `mapstructure:"placement"`
	Economy    EconomyConfig    `mapstructure:"economy"`
	DayCycle   DayCycleConfig   `mapstructure:"daycycle"`
	Hazards    HazardsConfig    `mapstructure:"hazards"`
	Camera     CameraConfig     `mapstructure:"camera"`
	Content    ContentConfig    `mapstructure:"content"`
}

// Validate checks all configuration invariants. Component configs built
// from these sections run their own, stricter validation.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string
	for _, err := range []error{
		validateLogging(c.Logging),
		validateSimulation(c.Simulation),
		validateGrid(c.Grid),
		validateAim(c.Aim),
		validatePlacement(c.Placement),
		validateEconomy(c.Economy),
		validateDayCycle(c.DayCycle),
		validateHazards(c.Hazards),
		validateCamera(c.Camera),
		validateContent(c.Content),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func joined(errs []string) error {
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	if l.Output == "" {
		return errors.New("logging.output must not be empty")
	}
	return nil
}

func validateSimulation(s SimulationConfig) error {
	if s.TickInterval <= 0 {
		return fmt.Errorf("simulation.tick_interval must be > 0, got %s", s.TickInterval)
	}
	return nil
}

func validateGrid(g GridConfig) error {
	var errs []string
	if g.CellSize <= 0 {
		errs = append(errs, fmt.Sprintf("grid.cell_size must be > 0, got %g", g.CellSize))
	}
	if len(g.Origin) != 3 {
		errs = append(errs, fmt.Sprintf("grid.origin must have 3 components, got %d", len(g.Origin)))
	}
	return joined(errs)
}

func validateAim(a AimConfig) error {
	var errs []string
	if a.MaxDistance <= 0 {
		errs = append(errs, fmt.Sprintf("aim.max_distance must be > 0, got %g", a.MaxDistance))
	}
	if a.ExtendedFactor < 1 {
		errs = append(errs, fmt.Sprintf("aim.extended_factor must be >= 1, got %g", a.ExtendedFactor))
	}
	if a.SweepRadius <= 0 {
		errs = append(errs, fmt.Sprintf("aim.sweep_radius must be > 0, got %g", a.SweepRadius))
	}
	if a.AnchorX < 0 || a.AnchorX > 1 || a.AnchorY < 0 || a.AnchorY > 1 {
		errs = append(errs, "aim.anchor_x and aim.anchor_y must be within [0, 1]")
	}
	return joined(errs)
}

func validatePlacement(p PlacementConfig) error {
	var errs []string
	validShapes := map[string]bool{"sphere": true, "box": true}
	if !validShapes[p.Shape] {
		errs = append(errs, fmt.Sprintf("placement.shape must be one of [sphere, box], got %q", p.Shape))
	}
	validPolicies := map[string]bool{"buildable": true, "smart_obstacle": true}
	if !validPolicies[p.Policy] {
		errs = append(errs, fmt.Sprintf("placement.policy must be one of [buildable, smart_obstacle], got %q", p.Policy))
	}
	if len(p.BoxSize) != 3 {
		errs = append(errs, fmt.Sprintf("placement.box_size must have 3 components, got %d", len(p.BoxSize)))
	}
	if p.SnapTolerance < 0 {
		errs = append(errs, "placement.snap_tolerance must not be negative")
	}
	return joined(errs)
}

func validateEconomy(e EconomyConfig) error {
	var errs []string
	if e.BaseAmount < 1 {
		errs = append(errs, fmt.Sprintf("economy.base_amount must be >= 1, got %d", e.BaseAmount))
	}
	if e.CapacityMultiplier < 1 {
		errs = append(errs, fmt.Sprintf("economy.capacity_multiplier must be >= 1, got %d", e.CapacityMultiplier))
	}
	if e.BaseRefill < 0 {
		errs = append(errs, fmt.Sprintf("economy.base_refill must be >= 0, got %d", e.BaseRefill))
	}
	if e.UsageBonusMultiplier < 0 {
		errs = append(errs, fmt.Sprintf("economy.usage_bonus_multiplier must be >= 0, got %g", e.UsageBonusMultiplier))
	}
	return joined(errs)
}

func validateDayCycle(d DayCycleConfig) error {
	if d.DayTicks < 1 || d.NightTicks < 1 {
		return fmt.Errorf("daycycle.day_ticks and daycycle.night_ticks must be >= 1, got %d and %d", d.DayTicks, d.NightTicks)
	}
	return nil
}

func validateHazards(h HazardsConfig) error {
	var errs []string
	if len(h.Kinds) == 0 {
		errs = append(errs, "hazards.kinds must not be empty")
	}
	if strings.TrimSpace(h.Damage) == "" {
		errs = append(errs, "hazards.damage must not be empty")
	}
	if h.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("hazards.instruction_limit must be >= 0, got %d", h.InstructionLimit))
	}
	return joined(errs)
}

func validateCamera(c CameraConfig) error {
	var errs []string
	if len(c.Position) != 3 {
		errs = append(errs, fmt.Sprintf("camera.position must have 3 components, got %d", len(c.Position)))
	}
	if len(c.Target) != 3 {
		errs = append(errs, fmt.Sprintf("camera.target must have 3 components, got %d", len(c.Target)))
	}
	if c.FOVDegrees <= 0 || c.FOVDegrees >= 180 {
		errs = append(errs, fmt.Sprintf("camera.fov_degrees must be within (0, 180), got %g", c.FOVDegrees))
	}
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Sprintf("camera.width and camera.height must be > 0, got %gx%g", c.Width, c.Height))
	}
	return joined(errs)
}

func validateContent(c ContentConfig) error {
	if c.BlocksDir == "" {
		return errors.New("content.blocks_dir must not be empty")
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with ISLAND_ prefix
	v.SetEnvPrefix("ISLAND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding only the default values.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("simulation.tick_interval", "50ms")
	v.SetDefault("simulation.seed", 0)
	v.SetDefault("simulation.advance_clock", true)

	v.SetDefault("grid.cell_size", 1.0)
	v.SetDefault("grid.origin", []float64{0, 0, 0})

	v.SetDefault("aim.max_distance", 100.0)
	v.SetDefault("aim.extended_factor", 2.0)
	v.SetDefault("aim.sweep_radius", 0.5)
	v.SetDefault("aim.anchor_x", 0.5)
	v.SetDefault("aim.anchor_y", 0.3)

	v.SetDefault("placement.shape", "sphere")
	v.SetDefault("placement.sphere_radius", 0.4)
	v.SetDefault("placement.box_size", []float64{0.9, 0.9, 0.9})
	v.SetDefault("placement.policy", "buildable")
	v.SetDefault("placement.snap_tolerance", 0.05)
	v.SetDefault("placement.offset_along_normal", true)

	v.SetDefault("economy.base_amount", 5)
	v.SetDefault("economy.capacity_multiplier", 3)
	v.SetDefault("economy.base_refill", 5)
	v.SetDefault("economy.usage_bonus_multiplier", 1.3)
	v.SetDefault("economy.low_threshold", 2)

	v.SetDefault("daycycle.day_ticks", 2400)
	v.SetDefault("daycycle.night_ticks", 600)

	v.SetDefault("hazards.nightly", true)
	v.SetDefault("hazards.kinds", []string{
		"acid_rain", "strong_wind", "earthquake", "wildfire", "tsunami", "sandstorm", "lightning",
	})
	v.SetDefault("hazards.damage", "25")
	v.SetDefault("hazards.script_dir", "")
	v.SetDefault("hazards.instruction_limit", 0)

	v.SetDefault("camera.position", []float64{0, 12, -12})
	v.SetDefault("camera.target", []float64{0, 0, 0})
	v.SetDefault("camera.fov_degrees", 60.0)
	v.SetDefault("camera.width", 800.0)
	v.SetDefault("camera.height", 600.0)

	v.SetDefault("content.blocks_dir", "content/blocks")
	v.SetDefault("content.scene_file", "")
}
