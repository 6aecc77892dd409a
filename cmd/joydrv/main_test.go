package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gethiox/joydrv/internal/pkg/adc"
	"github.com/gethiox/joydrv/internal/pkg/config"
	"github.com/gethiox/joydrv/internal/pkg/display"
	"github.com/gethiox/joydrv/internal/pkg/joystick"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionGrid(t *testing.T) {
	for i, tc := range []struct {
		coordinate joystick.Coordinate
		expected   []string
	}{
		{
			coordinate: joystick.Coordinate{X: 0, Y: 0},
			expected:   []string{"  │  ", "──●──", "  │  "},
		},
		{
			coordinate: joystick.Coordinate{X: 128, Y: 128},
			expected:   []string{"  │ ●", "──┼──", "  │  "},
		},
		{
			coordinate: joystick.Coordinate{X: -300, Y: -300},
			expected:   []string{"  │  ", "──┼──", "● │  "},
		},
	} {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			assert.Equal(t, tc.expected, positionGrid(tc.coordinate, 5, 3))
		})
	}

	assert.Nil(t, positionGrid(joystick.Coordinate{}, 0, 3))
}

func TestDirectionColor(t *testing.T) {
	assert.Equal(t, uint8(231), directionColor(joystick.Coordinate{X: 0, Y: 0}))
	assert.Equal(t, uint8(196), directionColor(joystick.Coordinate{X: 128, Y: 0}))
	assert.Equal(t, uint8(51), directionColor(joystick.Coordinate{X: -128, Y: 0}))
	assert.Equal(t, uint8(51), directionColor(joystick.Coordinate{X: -500, Y: 0}))
}

func TestDisplayLines(t *testing.T) {
	lines := displayLines(joystick.Snapshot{Coordinate: joystick.Coordinate{X: 0, Y: -12}, Switch: joystick.Pressed}, 20)
	assert.Equal(t, "X"+strings.Repeat("─", 9)+"█"+strings.Repeat("─", 9), lines[0])
	assert.Equal(t, "x:   0  y: -12", lines[2])
	assert.Equal(t, "switch: pressed", lines[3])

	lines = displayLines(joystick.Snapshot{}, 16)
	assert.Equal(t, "switch: released", lines[3])
}

func TestGenerateDisplayData(t *testing.T) {
	for i, rate := range []time.Duration{time.Millisecond, 0} {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			cfg := display.ScreenConfig{Enabled: true, UpdateRate: rate}
			snapshots := make(chan joystick.Snapshot)
			wg := sync.WaitGroup{}
			wg.Add(1)

			dd := GenerateDisplayData(context.Background(), &wg, cfg, snapshots)

			go func() {
				snapshots <- joystick.Snapshot{Coordinate: joystick.Coordinate{X: 5, Y: 7}}
			}()

			var found bool
			for data := range dd {
				if data.Lines[2] == "x:   5  y:   7" {
					found = true
					close(snapshots)
				}
			}
			wg.Wait()
			assert.True(t, found)
		})
	}
}

func TestForwardSettings(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan config.Config)
	recalibrate := make(chan struct{}, 1)
	settings := make(chan joystick.Settings)
	wg := sync.WaitGroup{}

	wg.Add(1)
	go forwardSettings(ctx, &wg, config.Config{}, false, changes, recalibrate, settings)

	var c config.Config
	c.Joystick.Orientation = joystick.Rotated
	c.Joystick.InvertX = true
	changes <- c
	assert.Equal(t, joystick.Settings{
		Orientation: joystick.Rotated,
		Inversion:   joystick.Inversion{X: joystick.Inverted, Y: joystick.NotInverted},
	}, <-settings)

	requestRecalibration(recalibrate)
	assert.Equal(t, joystick.Settings{
		Orientation: joystick.Rotated,
		Inversion:   joystick.Inversion{X: joystick.Inverted, Y: joystick.NotInverted},
		Recalibrate: true,
	}, <-settings)

	cancel()
	_, ok := <-settings
	assert.False(t, ok)
	wg.Wait()
}

func TestWithFlags(t *testing.T) {
	s := joystick.Settings{Orientation: joystick.Normal, Inversion: joystick.NoInversion}
	assert.Equal(t, joystick.Normal, withFlags(s, false).Orientation)
	assert.Equal(t, joystick.Rotated, withFlags(s, true).Orientation)
}

func TestConfigLocation(t *testing.T) {
	dir, file := configLocation("")
	assert.Equal(t, configDir, dir)
	assert.Equal(t, filepath.Join(configDir, configFile), file)

	dir, file = configLocation("/etc/joydrv/my.config")
	assert.Equal(t, "/etc/joydrv", dir)
	assert.Equal(t, "/etc/joydrv/my.config", file)
}

func TestCreateConfigDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cfg")
	require.Nil(t, createConfigDirectoryIfNeeded(dir))

	path := filepath.Join(dir, configFile)
	c, err := config.Load(path)
	require.Nil(t, err)
	assert.Equal(t, joystick.Normal, c.Joystick.Orientation)

	p, err := loadProfile(dir, "")
	require.Nil(t, err)
	assert.Equal(t, adc.MCP3008, p)

	p, err = loadProfile(dir, "profiles/mcp3008.yaml")
	require.Nil(t, err)
	assert.Equal(t, adc.MCP3008, p)

	p, err = loadProfile(dir, "profiles/mcp3004.toml")
	require.Nil(t, err)
	assert.Equal(t, "mcp3004", p.Name)
	assert.Equal(t, 4, p.ChannelCount)

	// existing tree stays intact
	require.Nil(t, os.WriteFile(path, []byte("custom"), 0o666))
	require.Nil(t, createConfigDirectoryIfNeeded(dir))
	data, err := os.ReadFile(path)
	require.Nil(t, err)
	assert.Equal(t, "custom", string(data))
}
