package main

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gdhsf3701/island/internal/config"
	"github.com/gdhsf3701/island/internal/server"
)

// lockedBuffer lets the test read output written by the engine goroutine.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.LoadFromViper(config.Defaults())
	require.NoError(t, err)
	cfg.Simulation.TickInterval = time.Millisecond
	cfg.Simulation.Seed = 7
	cfg.Content.BlocksDir = "../../content/blocks"
	cfg.Content.SceneFile = "../../content/scene.yaml"
	cfg.Hazards.ScriptDir = "../../content/scripts"
	return cfg
}

func TestApplyOverrides(t *testing.T) {
	cfg := testConfig(t)
	applyOverrides(&cfg, "blocks", "", "scripts")
	assert.Equal(t, "blocks", cfg.Content.BlocksDir)
	assert.Equal(t, "../../content/scene.yaml", cfg.Content.SceneFile)
	assert.Equal(t, "scripts", cfg.Hazards.ScriptDir)
}

func TestComponentConfigs(t *testing.T) {
	cfg := testConfig(t)
	pcfg, err := placementConfig(cfg.Placement)
	require.NoError(t, err)
	require.NoError(t, pcfg.Validate())
	require.NoError(t, aimConfig(cfg.Aim).Validate())
	require.NoError(t, economyConfig(cfg.Economy).Validate())
	hcfg, err := hazardConfig(cfg.Hazards)
	require.NoError(t, err)
	require.NoError(t, hcfg.Validate())
	assert.Len(t, hcfg.Kinds, 7)

	cfg.Placement.Policy = "nope"
	_, err = placementConfig(cfg.Placement)
	assert.Error(t, err)
}

func TestNewApp_MissingContent(t *testing.T) {
	cfg := testConfig(t)
	cfg.Content.BlocksDir = t.TempDir()
	_, err := newApp(cfg, streams{in: strings.NewReader(""), out: &bytes.Buffer{}}, zap.NewNop())
	assert.Error(t, err)
}

func TestSimulationEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	out := &lockedBuffer{}
	script := strings.Join([]string{
		"build",
		"click 400 300",
		"night",
		"hazard acid_rain 10",
		"day",
		"status",
		"quit",
	}, "\n") + "\n"
	a, err := newApp(cfg, streams{in: strings.NewReader(script), out: out}, zap.NewNop())
	require.NoError(t, err)
	defer a.scripts.Close()
	require.True(t, a.scripts.Loaded())

	lc := server.NewLifecycle(zap.NewNop())
	addServices(lc, a)

	done := make(chan error, 1)
	go func() { done <- lc.Run(context.Background()) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("simulation did not stop after quit")
	}

	text := out.String()
	assert.Contains(t, text, "Building mode: ON")
	assert.Contains(t, text, "Built Bamboo at (")
	assert.Contains(t, text, "Night falls on day 1.")
	assert.Contains(t, text, "Acid Rain (10 base): 1 blocks hit")
	assert.Contains(t, text, "Day 2 begins.")
	assert.Contains(t, text, "Goodbye.")
	assert.NotContains(t, text, "\033[", "color disabled")
}
