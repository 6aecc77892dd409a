package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/d2r2/go-hd44780"
	"github.com/gethiox/joydrv/internal/pkg/display"
	"github.com/gethiox/joydrv/internal/pkg/joystick"
	"github.com/gethiox/joydrv/internal/pkg/spi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultConfig = "../../../cmd/joydrv/joydrv-config/joydrv.config"

func TestParseDefaultConfig(t *testing.T) {
	c, err := Load(defaultConfig)
	require.Nil(t, err)

	expected := Config{
		Joystick: Joystick{
			SPI:           spi.DefaultConfig,
			Profile:       "",
			ReuseEndpoint: false,
			Orientation:   joystick.Normal,
			InvertX:       false,
			InvertY:       false,
			PollRate:      time.Second / 50,
		},
		Screen: display.ScreenConfig{
			Enabled:    false,
			LcdType:    hd44780.LCD_20x4,
			Bus:        1,
			Address:    0x27,
			UpdateRate: time.Second / 10,
		},
	}
	assert.Equal(t, expected, c)
	assert.Equal(t, joystick.Settings{Orientation: joystick.Normal, Inversion: joystick.NoInversion}, c.Joystick.Settings())
}

func readDefault(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(defaultConfig)
	require.Nil(t, err)
	return string(data)
}

func TestParse(t *testing.T) {
	base := readDefault(t)

	for i, tc := range []struct {
		replace [2]string
		check   func(t *testing.T, c Config)
		fails   bool
	}{
		{
			replace: [2]string{"orientation = normal", "orientation = rotated"},
			check: func(t *testing.T, c Config) {
				assert.Equal(t, joystick.Rotated, c.Joystick.Orientation)
			},
		},
		{
			replace: [2]string{"invert_y = false", "invert_y = true"},
			check: func(t *testing.T, c Config) {
				assert.Equal(t, joystick.Inversion{X: joystick.NotInverted, Y: joystick.Inverted}, c.Joystick.Settings().Inversion)
			},
		},
		{
			replace: [2]string{"delay_us = 0", "delay_us = 15"},
			check: func(t *testing.T, c Config) {
				assert.Equal(t, 15*time.Microsecond, c.Joystick.SPI.Delay)
			},
		},
		{
			replace: [2]string{"profile =", "profile = profiles/mcp3004.toml"},
			check: func(t *testing.T, c Config) {
				assert.Equal(t, "profiles/mcp3004.toml", c.Joystick.Profile)
			},
		},
		{
			replace: [2]string{"type = 20x4", "type = 16x2"},
			check: func(t *testing.T, c Config) {
				assert.Equal(t, hd44780.LCD_16x2, c.Screen.LcdType)
			},
		},
		{
			replace: [2]string{"poll_rate = 50", "poll_rate = 1000000000"},
			check: func(t *testing.T, c Config) {
				assert.Equal(t, time.Nanosecond, c.Joystick.PollRate)
			},
		},
		{
			replace: [2]string{"speed_hz = 500000", "speed_hz = 4294967295"},
			check: func(t *testing.T, c Config) {
				assert.Equal(t, uint32(4294967295), c.Joystick.SPI.MaxSpeedHz)
			},
		},
		{replace: [2]string{"poll_rate = 50", "poll_rate = 2000000000"}, fails: true},
		{replace: [2]string{"update_rate = 10", "update_rate = 1000000001"}, fails: true},
		{replace: [2]string{"speed_hz = 500000", "speed_hz = 4295467296"}, fails: true},
		{replace: [2]string{"orientation = normal", "orientation = upside-down"}, fails: true},
		{replace: [2]string{"poll_rate = 50", "poll_rate = 0"}, fails: true},
		{replace: [2]string{"mode = 0", "mode = 4"}, fails: true},
		{replace: [2]string{"invert_x = false", "invert_x = maybe"}, fails: true},
		{replace: [2]string{"speed_hz = 500000", ""}, fails: true},
		{replace: [2]string{"type = 20x4", "type = 40x2"}, fails: true},
		{replace: [2]string{"address = 39", "address = 300"}, fails: true},
		{replace: [2]string{"[screen]", "[lcd]"}, fails: true},
	} {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			require.True(t, strings.Contains(base, tc.replace[0]))
			data := strings.Replace(base, tc.replace[0], tc.replace[1], 1)

			c, err := Parse([]byte(data))
			if tc.fails {
				assert.NotNil(t, err)
				return
			}
			require.Nil(t, err)
			tc.check(t, c)
		})
	}
}

func TestParseOrientation(t *testing.T) {
	for i, tc := range []struct {
		input    string
		expected joystick.Orientation
		fails    bool
	}{
		{input: "normal", expected: joystick.Normal},
		{input: "Rotated", expected: joystick.Rotated},
		{input: " rotate ", expected: joystick.Rotated},
		{input: "", fails: true},
		{input: "left", fails: true},
	} {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			o, err := ParseOrientation(tc.input)
			if tc.fails {
				assert.NotNil(t, err)
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, tc.expected, o)
		})
	}
}

func TestWatch(t *testing.T) {
	base := readDefault(t)
	path := filepath.Join(t.TempDir(), "joydrv.config")
	require.Nil(t, os.WriteFile(path, []byte(base), 0o666))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := Watch(ctx, path)
	require.Nil(t, err)

	// unrelated files are ignored
	require.Nil(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other"), []byte("x"), 0o666))

	rotated := strings.Replace(base, "orientation = normal", "orientation = rotated", 1)
	require.Nil(t, os.WriteFile(path, []byte(rotated), 0o666))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-changes:
			if c.Joystick.Orientation == joystick.Rotated {
				cancel()
				for range changes {
				}
				return
			}
		case <-deadline:
			t.Fatal("config change not detected")
		}
	}
}
