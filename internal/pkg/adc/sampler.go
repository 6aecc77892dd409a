// Package adc reads joystick channels from an SPI attached analog-to-digital converter.
package adc

import (
	"fmt"

	"github.com/gethiox/joydrv/internal/pkg/spi"
	"go.uber.org/multierr"
)

// Samples are raw 10-bit conversion results of one update cycle.
type Samples struct {
	Switch     uint16
	Vertical   uint16
	Horizontal uint16
}

func (s Samples) String() string {
	return fmt.Sprintf("sw: %4d, v: %4d, h: %4d", s.Switch, s.Vertical, s.Horizontal)
}

type Sampler struct {
	opener  spi.Opener
	config  spi.Config
	profile Profile

	// ReuseEndpoint keeps one bus endpoint opened for all three conversions of SampleAll,
	// by default every conversion opens and closes the endpoint on its own.
	ReuseEndpoint bool
}

func NewSampler(opener spi.Opener, cfg spi.Config, profile Profile) *Sampler {
	return &Sampler{
		opener:  opener,
		config:  cfg,
		profile: profile,
	}
}

func (s *Sampler) Profile() Profile {
	return s.profile
}

// SampleAll converts switch, vertical and horizontal channels, in that order.
func (s *Sampler) SampleAll() (Samples, error) {
	if s.ReuseEndpoint {
		return s.sampleReusing()
	}

	var samples Samples
	for _, ch := range s.channels(&samples) {
		v, err := spi.ReadChannel(s.opener, s.config, s.profile.Request(ch.index))
		if err != nil {
			return Samples{}, fmt.Errorf("reading %s channel failed: %w", ch.name, err)
		}
		*ch.dst = v
	}
	return samples, nil
}

func (s *Sampler) sampleReusing() (samples Samples, err error) {
	ep, err := spi.Open(s.opener, s.config)
	if err != nil {
		return Samples{}, err
	}
	defer func() {
		cerr := ep.Close()
		if cerr != nil {
			err = multierr.Append(err, &spi.BusError{
				Kind: spi.ConfigurationOrTransferFailure, Op: "close", Device: s.config.Device, Err: cerr,
			})
		}
		if err != nil {
			samples = Samples{}
		}
	}()

	for _, ch := range s.channels(&samples) {
		v, err := spi.Exchange(ep, s.config, s.profile.Request(ch.index))
		if err != nil {
			return Samples{}, fmt.Errorf("reading %s channel failed: %w", ch.name, err)
		}
		*ch.dst = v
	}
	return samples, nil
}

type channelRead struct {
	name  string
	index int
	dst   *uint16
}

func (s *Sampler) channels(samples *Samples) []channelRead {
	return []channelRead{
		{"switch", s.profile.Channels.Switch, &samples.Switch},
		{"vertical", s.profile.Channels.Vertical, &samples.Vertical},
		{"horizontal", s.profile.Channels.Horizontal, &samples.Horizontal},
	}
}
