package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/d2r2/go-hd44780"
	"github.com/gethiox/joydrv/internal/pkg/display"
	"github.com/gethiox/joydrv/internal/pkg/joystick"
	"github.com/gethiox/joydrv/internal/pkg/spi"
	"github.com/go-ini/ini"
)

type Joystick struct {
	SPI           spi.Config
	Profile       string // empty for built-in profile
	ReuseEndpoint bool
	Orientation   joystick.Orientation
	InvertX       bool
	InvertY       bool
	PollRate      time.Duration
}

// Settings returns part of configuration which can be changed while driver is running.
func (j Joystick) Settings() joystick.Settings {
	return joystick.Settings{
		Orientation: j.Orientation,
		Inversion: joystick.Inversion{
			X: joystick.PolarityOf(j.InvertX),
			Y: joystick.PolarityOf(j.InvertY),
		},
	}
}

type Config struct {
	Joystick Joystick
	Screen   display.ScreenConfig
}

func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cannot read \"%s\" config: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("\"%s\" config: %w", path, err)
	}
	return c, nil
}

func ParseOrientation(s string) (joystick.Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal":
		return joystick.Normal, nil
	case "rotated", "rotate":
		return joystick.Rotated, nil
	default:
		return joystick.Normal, fmt.Errorf("unknown orientation \"%s\" (expected normal or rotated)", s)
	}
}

type section struct {
	name string
	s    *ini.Section
	err  error
}

func (s *section) key(name string) *ini.Key {
	if s.err != nil {
		return nil
	}
	k, err := s.s.GetKey(name)
	if err != nil {
		s.err = fmt.Errorf("[%s] %w", s.name, err)
		return nil
	}
	return k
}

func (s *section) int(name string) int {
	k := s.key(name)
	if k == nil {
		return 0
	}
	i, err := k.Int()
	if err != nil {
		s.err = fmt.Errorf("[%s] %s: %w", s.name, name, err)
	}
	return i
}

func (s *section) bool(name string) bool {
	k := s.key(name)
	if k == nil {
		return false
	}
	b, err := k.Bool()
	if err != nil {
		s.err = fmt.Errorf("[%s] %s: %w", s.name, name, err)
	}
	return b
}

func (s *section) string(name string) string {
	k := s.key(name)
	if k == nil {
		return ""
	}
	return k.String()
}

// rate converts "per second" value into interval.
func (s *section) rate(name string) time.Duration {
	i := s.int(name)
	if s.err != nil {
		return 0
	}
	if i <= 0 || i > int(time.Second) {
		s.err = fmt.Errorf("[%s] %s out of range (1-%d), got %d", s.name, name, int(time.Second), i)
		return 0
	}
	return time.Second / time.Duration(i)
}

func getSection(cfg *ini.File, name string) (*section, error) {
	s, err := cfg.GetSection(name)
	if err != nil {
		return nil, err
	}
	return &section{name: name, s: s}, nil
}

func Parse(data []byte) (Config, error) {
	cfg, err := ini.Load(data)
	if err != nil {
		return Config{}, fmt.Errorf("parsing ini failed: %w", err)
	}

	var c Config

	// [joystick]
	js, err := getSection(cfg, "joystick")
	if err != nil {
		return Config{}, err
	}
	c.Joystick.SPI.Device = js.string("device")
	mode := js.int("mode")
	bits := js.int("bits")
	speed := js.int("speed_hz")
	delay := js.int("delay_us")
	c.Joystick.Profile = js.string("profile")
	c.Joystick.ReuseEndpoint = js.bool("reuse_endpoint")
	orientation := js.string("orientation")
	c.Joystick.InvertX = js.bool("invert_x")
	c.Joystick.InvertY = js.bool("invert_y")
	c.Joystick.PollRate = js.rate("poll_rate")
	if js.err != nil {
		return Config{}, js.err
	}

	if mode < 0 || mode > 3 {
		return Config{}, fmt.Errorf("[joystick] mode out of range (0-3): %d", mode)
	}
	if bits < 1 || bits > 32 {
		return Config{}, fmt.Errorf("[joystick] bits out of range (1-32): %d", bits)
	}
	if speed <= 0 || uint64(speed) > math.MaxUint32 {
		return Config{}, fmt.Errorf("[joystick] speed_hz out of range (1-%d): %d", uint64(math.MaxUint32), speed)
	}
	if delay < 0 || delay > 0xffff {
		return Config{}, fmt.Errorf("[joystick] delay_us out of range (0-65535): %d", delay)
	}
	c.Joystick.SPI.Mode = spi.Mode(mode)
	c.Joystick.SPI.BitsPerWord = uint8(bits)
	c.Joystick.SPI.MaxSpeedHz = uint32(speed)
	c.Joystick.SPI.Delay = time.Duration(delay) * time.Microsecond

	c.Joystick.Orientation, err = ParseOrientation(orientation)
	if err != nil {
		return Config{}, fmt.Errorf("[joystick] %w", err)
	}

	// [screen]
	screen, err := getSection(cfg, "screen")
	if err != nil {
		return Config{}, err
	}
	c.Screen.Enabled = screen.bool("enabled")
	screenType := screen.string("type")
	c.Screen.Bus = screen.int("bus")
	address := screen.int("address")
	c.Screen.UpdateRate = screen.rate("update_rate")
	if screen.err != nil {
		return Config{}, screen.err
	}

	switch screenType {
	case "16x2":
		c.Screen.LcdType = hd44780.LCD_16x2
	case "20x4":
		c.Screen.LcdType = hd44780.LCD_20x4
	default:
		return Config{}, fmt.Errorf("[screen] unsupported type \"%s\" (expected 16x2 or 20x4)", screenType)
	}

	if address < 0 || address > 0x7f {
		return Config{}, fmt.Errorf("[screen] address out of range (0-127): %d", address)
	}
	c.Screen.Address = uint8(address)

	return c, nil
}
