package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func validConfig() Config {
	return Config{
		Logging:    LoggingConfig{Level: "info", Format: "json", Output: "stderr"},
		Simulation: SimulationConfig{TickInterval: 50 * time.Millisecond},
		Grid:       GridConfig{CellSize: 1, Origin: []float64{0, 0, 0}},
		Aim:        AimConfig{MaxDistance: 100, ExtendedFactor: 2, SweepRadius: 0.5, AnchorX: 0.5, AnchorY: 0.3},
		Placement: PlacementConfig{
			Shape: "sphere", SphereRadius: 0.4, BoxSize: []float64{0.9, 0.9, 0.9},
			Policy: "buildable", SnapTolerance: 0.05, OffsetAlongNormal: true,
		},
		Economy:  EconomyConfig{BaseAmount: 5, CapacityMultiplier: 3, BaseRefill: 5, UsageBonusMultiplier: 1.3, LowThreshold: 2},
		DayCycle: DayCycleConfig{DayTicks: 100, NightTicks: 20},
		Hazards:  HazardsConfig{Nightly: true, Kinds: []string{"acid_rain"}, Damage: "25"},
		Camera: CameraConfig{
			Position: []float64{0, 10, -10}, Target: []float64{0, 0, 0},
			FOVDegrees: 60, Width: 800, Height: 600,
		},
		Content: ContentConfig{BlocksDir: "content/blocks"},
	}
}

func TestValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestDefaultsAreValid(t *testing.T) {
	cfg, err := LoadFromViper(Defaults())
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, cfg.Simulation.TickInterval)
	assert.Equal(t, []float64{0, 0, 0}, cfg.Grid.Origin)
	assert.Equal(t, 1.3, cfg.Economy.UsageBonusMultiplier)
	assert.Len(t, cfg.Hazards.Kinds, 7)
	assert.Equal(t, "stderr", cfg.Logging.Output)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	err := os.WriteFile(path, []byte(`
logging:
  level: debug
  format: console
simulation:
  tick_interval: 20ms
  seed: 42
grid:
  cell_size: 2
  origin: [1, 0, -1]
economy:
  base_amount: 10
daycycle:
  day_ticks: 30
  night_ticks: 10
hazards:
  kinds: [wildfire, earthquake]
  damage: 2d10+5
  script_dir: content/scripts
`), 0644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 20*time.Millisecond, cfg.Simulation.TickInterval)
	assert.Equal(t, int64(42), cfg.Simulation.Seed)
	assert.Equal(t, 2.0, cfg.Grid.CellSize)
	assert.Equal(t, []float64{1, 0, -1}, cfg.Grid.Origin)
	assert.Equal(t, 10, cfg.Economy.BaseAmount)
	assert.Equal(t, 3, cfg.Economy.CapacityMultiplier, "default applies")
	assert.Equal(t, 30, cfg.DayCycle.DayTicks)
	assert.Equal(t, []string{"wildfire", "earthquake"}, cfg.Hazards.Kinds)
	assert.Equal(t, "2d10+5", cfg.Hazards.Damage)
	assert.Equal(t, "content/scripts", cfg.Hazards.ScriptDir)
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte("daycycle:\n  day_ticks: 30\n"), 0644))
	t.Setenv("ISLAND_DAYCYCLE_DAY_TICKS", "77")
	t.Setenv("ISLAND_LOGGING_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 77, cfg.DayCycle.DayTicks)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadInvalidPath(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestLoadInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("grid:\n  cell_size: 0\nplacement:\n  shape: cone\n"), 0644))
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grid.cell_size")
	assert.Contains(t, err.Error(), "placement.shape")
}

func TestValidate_Violations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"logging level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"logging format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"logging output", func(c *Config) { c.Logging.Output = "" }, "logging.output"},
		{"tick interval", func(c *Config) { c.Simulation.TickInterval = 0 }, "simulation.tick_interval"},
		{"grid origin", func(c *Config) { c.Grid.Origin = []float64{1} }, "grid.origin"},
		{"aim distance", func(c *Config) { c.Aim.MaxDistance = -1 }, "aim.max_distance"},
		{"aim factor", func(c *Config) { c.Aim.ExtendedFactor = 0.5 }, "aim.extended_factor"},
		{"aim anchor", func(c *Config) { c.Aim.AnchorY = 1.5 }, "aim.anchor_x"},
		{"placement policy", func(c *Config) { c.Placement.Policy = "anything" }, "placement.policy"},
		{"placement box", func(c *Config) { c.Placement.BoxSize = nil }, "placement.box_size"},
		{"economy base", func(c *Config) { c.Economy.BaseAmount = 0 }, "economy.base_amount"},
		{"economy bonus", func(c *Config) { c.Economy.UsageBonusMultiplier = -1 }, "economy.usage_bonus_multiplier"},
		{"daycycle", func(c *Config) { c.DayCycle.NightTicks = 0 }, "daycycle.day_ticks"},
		{"hazard kinds", func(c *Config) { c.Hazards.Kinds = nil }, "hazards.kinds"},
		{"hazard damage", func(c *Config) { c.Hazards.Damage = " " }, "hazards.damage"},
		{"camera fov", func(c *Config) { c.Camera.FOVDegrees = 180 }, "camera.fov_degrees"},
		{"camera target", func(c *Config) { c.Camera.Target = nil }, "camera.target"},
		{"content", func(c *Config) { c.Content.BlocksDir = "" }, "content.blocks_dir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_CollectsEveryViolation(t *testing.T) {
	cfg := validConfig()
	cfg.Grid.CellSize = 0
	cfg.DayCycle.DayTicks = 0
	cfg.Camera.Width = 0
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"grid.cell_size", "daycycle.day_ticks", "camera.width"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestPropertyPositiveTickIntervalValid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ms := rapid.Int64Range(1, 10_000).Draw(t, "ms")
		cfg := validConfig()
		cfg.Simulation.TickInterval = time.Duration(ms) * time.Millisecond
		if err := cfg.Validate(); err != nil {
			t.Fatalf("tick interval %dms should be valid: %v", ms, err)
		}
	})
}

func TestPropertyNonPositiveCellSizeInvalid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		size := rapid.Float64Range(-100, 0).Draw(t, "size")
		cfg := validConfig()
		cfg.Grid.CellSize = size
		if cfg.Validate() == nil {
			t.Fatalf("cell size %g should be invalid", size)
		}
	})
}
