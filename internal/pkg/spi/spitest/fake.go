// Package spitest provides in-memory bus endpoints answering MCP3008 style conversion requests.
package spitest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gethiox/joydrv/internal/pkg/spi"
)

var (
	ErrOpen      = errors.New("fake open failure")
	ErrConfigure = errors.New("fake configure failure")
	ErrTransfer  = errors.New("fake transfer failure")
	ErrClose     = errors.New("fake close failure")
)

// Opener serves samples per channel, channel is taken from bits 4-6 of the second request byte.
type Opener struct {
	mu sync.Mutex

	samples map[byte]uint16
	// Noise is put into unused bits of the second response byte
	Noise byte

	FailOpen, FailConfigure, FailTransfer, FailClose bool

	Opens, Closes, Transfers int
	Frames                   [][spi.FrameSize]byte
	Configs                  []spi.Config
	Devices                  []string
}

func NewOpener() *Opener {
	return &Opener{samples: make(map[byte]uint16)}
}

// Set sets raw sample returned for given channel.
func (o *Opener) Set(channel int, sample uint16) {
	o.mu.Lock()
	o.samples[byte(channel)] = sample & 0x3ff
	o.mu.Unlock()
}

// SetJoystick sets all three joystick channels at once.
func (o *Opener) SetJoystick(sw, vertical, horizontal uint16) {
	o.Set(0, sw)
	o.Set(1, vertical)
	o.Set(2, horizontal)
}

// Modify changes opener state while holding its lock, use it when endpoints are used concurrently.
func (o *Opener) Modify(f func(o *Opener)) {
	o.mu.Lock()
	f(o)
	o.mu.Unlock()
}

// OpenCount returns number of currently opened endpoints.
func (o *Opener) OpenCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.Opens - o.Closes
}

func (o *Opener) Open(device string) (spi.Endpoint, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.Devices = append(o.Devices, device)
	if o.FailOpen {
		return nil, ErrOpen
	}
	o.Opens++
	return &endpoint{opener: o}, nil
}

type endpoint struct {
	opener *Opener
	closed bool
}

func (e *endpoint) Configure(cfg spi.Config) error {
	o := e.opener
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.FailConfigure {
		return ErrConfigure
	}
	o.Configs = append(o.Configs, cfg)
	return nil
}

func (e *endpoint) Transfer(tx, rx []byte) error {
	o := e.opener
	o.mu.Lock()
	defer o.mu.Unlock()

	if e.closed {
		return errors.New("endpoint closed")
	}
	if o.FailTransfer {
		return ErrTransfer
	}
	if len(tx) != spi.FrameSize || len(rx) != spi.FrameSize {
		return fmt.Errorf("unexpected frame size: %d/%d", len(tx), len(rx))
	}

	o.Transfers++
	o.Frames = append(o.Frames, [spi.FrameSize]byte{tx[0], tx[1], tx[2]})

	sample := o.samples[(tx[1]>>4)&0x07]
	rx[0] = 0xff
	rx[1] = byte(sample>>8)&0x03 | o.Noise&0xfc
	rx[2] = byte(sample)
	return nil
}

func (e *endpoint) Close() error {
	o := e.opener
	o.mu.Lock()
	defer o.mu.Unlock()

	if e.closed {
		return errors.New("endpoint already closed")
	}
	e.closed = true
	o.Closes++
	if o.FailClose {
		return ErrClose
	}
	return nil
}
