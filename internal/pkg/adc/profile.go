package adc

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gethiox/joydrv/internal/pkg/spi"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var ErrUnsupportedFormat = errors.New("unsupported profile format")

// ChannelMap assigns ADC input channels to joystick signals.
type ChannelMap struct {
	Switch     int
	Vertical   int
	Horizontal int
}

// Profile describes request framing of an ADC model and joystick wiring to it.
type Profile struct {
	Name          string
	Command       byte // start bit
	SelectorShift uint8
	SingleEnded   byte
	ChannelCount  int
	Channels      ChannelMap
}

// MCP3008 is 8 channel 10-bit ADC with joystick switch on CH0, vertical axis on CH1
// and horizontal axis on CH2.
var MCP3008 = Profile{
	Name:          "mcp3008",
	Command:       0x01,
	SelectorShift: 4,
	SingleEnded:   0x80,
	ChannelCount:  8,
	Channels: ChannelMap{
		Switch:     0,
		Vertical:   1,
		Horizontal: 2,
	},
}

// Request returns single-ended conversion request for given channel.
func (p Profile) Request(channel int) spi.Request {
	return spi.Request{
		Command:  p.Command,
		Selector: byte(channel) << p.SelectorShift,
		Mode:     p.SingleEnded,
	}
}

func (p Profile) Validate() error {
	if p.ChannelCount < 1 {
		return fmt.Errorf("channel count has to be positive, got %d", p.ChannelCount)
	}
	if p.SelectorShift > 7 {
		return fmt.Errorf("selector shift out of range (0-7): %d", p.SelectorShift)
	}
	for _, ch := range []struct {
		name  string
		index int
	}{
		{"switch", p.Channels.Switch},
		{"vertical", p.Channels.Vertical},
		{"horizontal", p.Channels.Horizontal},
	} {
		if ch.index < 0 || ch.index >= p.ChannelCount {
			return fmt.Errorf("%s channel out of range (0-%d): %d", ch.name, p.ChannelCount-1, ch.index)
		}
		if (ch.index<<p.SelectorShift)&0xff>>p.SelectorShift != ch.index {
			return fmt.Errorf("%s channel %d does not fit into selector byte", ch.name, ch.index)
		}
		if byte(ch.index<<p.SelectorShift)&p.SingleEnded != 0 {
			return fmt.Errorf("%s channel %d selector overlaps sampling mode bit", ch.name, ch.index)
		}
	}
	if p.Channels.Switch == p.Channels.Vertical ||
		p.Channels.Switch == p.Channels.Horizontal ||
		p.Channels.Vertical == p.Channels.Horizontal {
		return fmt.Errorf("channels have to be distinct: %+v", p.Channels)
	}
	return nil
}

type fileProfile struct {
	Name          string `yaml:"name" toml:"name"`
	Command       int    `yaml:"command" toml:"command"`
	SelectorShift int    `yaml:"selector_shift" toml:"selector_shift"`
	SingleEnded   int    `yaml:"single_ended" toml:"single_ended"`
	ChannelCount  int    `yaml:"channel_count" toml:"channel_count"`
	Channels      struct {
		Switch     int `yaml:"switch" toml:"switch"`
		Vertical   int `yaml:"vertical" toml:"vertical"`
		Horizontal int `yaml:"horizontal" toml:"horizontal"`
	} `yaml:"channels" toml:"channels"`
}

func (f fileProfile) profile() (Profile, error) {
	for _, b := range []struct {
		name  string
		value int
	}{
		{"command", f.Command},
		{"single_ended", f.SingleEnded},
	} {
		if b.value < 0 || b.value > 0xff {
			return Profile{}, fmt.Errorf("%s is not a byte value: %d", b.name, b.value)
		}
	}
	if f.SelectorShift < 0 || f.SelectorShift > 7 {
		return Profile{}, fmt.Errorf("selector shift out of range (0-7): %d", f.SelectorShift)
	}

	p := Profile{
		Name:          f.Name,
		Command:       byte(f.Command),
		SelectorShift: uint8(f.SelectorShift),
		SingleEnded:   byte(f.SingleEnded),
		ChannelCount:  f.ChannelCount,
		Channels: ChannelMap{
			Switch:     f.Channels.Switch,
			Vertical:   f.Channels.Vertical,
			Horizontal: f.Channels.Horizontal,
		},
	}
	return p, p.Validate()
}

func ParseYAML(data []byte) (Profile, error) {
	var f fileProfile

	d := yaml.NewDecoder(bytes.NewReader(data))
	d.KnownFields(true)
	err := d.Decode(&f)
	if err != nil {
		return Profile{}, fmt.Errorf("parsing yaml failed: %w", err)
	}
	return f.profile()
}

func ParseTOML(data []byte) (Profile, error) {
	var f fileProfile

	d := toml.NewDecoder(bytes.NewReader(data))
	d.DisallowUnknownFields()
	err := d.Decode(&f)
	if err != nil {
		return Profile{}, fmt.Errorf("parsing toml failed: %w", err)
	}
	return f.profile()
}

// LoadProfile reads profile file, format is picked by file extension.
func LoadProfile(path string) (Profile, error) {
	var parse func([]byte) (Profile, error)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		parse = ParseYAML
	case ".toml":
		parse = ParseTOML
	default:
		return Profile{}, fmt.Errorf("%w: \"%s\"", ErrUnsupportedFormat, ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("cannot read \"%s\" profile: %w", path, err)
	}

	p, err := parse(data)
	if err != nil {
		return Profile{}, fmt.Errorf("\"%s\" profile: %w", path, err)
	}
	return p, nil
}
