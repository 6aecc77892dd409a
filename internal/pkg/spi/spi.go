// Package spi performs single ADC conversions over a synchronous serial bus endpoint.
//
// Every conversion is an independent open, configure, transfer and close cycle
// unless the caller keeps an Endpoint on its own (see Open and Exchange).
package spi

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// Bus endpoints, one per chip-select line.
const (
	Device0 = "/dev/spidev0.0" // CS0 GPIO8
	Device1 = "/dev/spidev0.1" // CS1 GPIO7
)

const (
	Mode0 Mode = 0
	Mode1 Mode = 1
	Mode2 Mode = 2
	Mode3 Mode = 3
)

// Mode is the SPI mode, clock polarity is the high order bit and clock phase the low order bit.
type Mode uint8

// FrameSize is the length of both request and response frames.
const FrameSize = 3

type Config struct {
	Device      string
	Mode        Mode
	BitsPerWord uint8
	MaxSpeedHz  uint32
	Delay       time.Duration
}

// DefaultConfig is the joystick ADC wiring: second chip select, 8 bit words at 500kHz.
var DefaultConfig = Config{
	Device:      Device1,
	Mode:        Mode0,
	BitsPerWord: 8,
	MaxSpeedHz:  500000,
	Delay:       0,
}

func (c Config) String() string {
	return fmt.Sprintf(
		"%s (mode: %d, bits per word: %d, max speed: %d Hz (%d KHz), delay: %s)",
		c.Device, c.Mode, c.BitsPerWord, c.MaxSpeedHz, c.MaxSpeedHz/1000, c.Delay,
	)
}

// Endpoint is an opened bus device.
type Endpoint interface {
	// Configure writes bus mode, word size and clock speed, reading every value back afterwards.
	Configure(cfg Config) error
	// Transfer executes one full-duplex transfer, len(rx) has to be equal len(tx).
	Transfer(tx, rx []byte) error
	Close() error
}

type Opener interface {
	Open(device string) (Endpoint, error)
}

// Request describes single conversion.
type Request struct {
	Command  byte // leading command byte (start bit)
	Selector byte // channel selector, already shifted into place
	Mode     byte // sampling mode bit
}

// Frame builds 3-byte request frame.
func (r Request) Frame() [FrameSize]byte {
	return [FrameSize]byte{r.Command, r.Selector | r.Mode, 0x00}
}

// DecodeSample extracts 10-bit sample from response frame.
func DecodeSample(rx [FrameSize]byte) uint16 {
	return uint16(rx[1]&0x03)*256 + uint16(rx[2])
}

// Open opens and configures bus endpoint, endpoint is closed when configuration fails.
func Open(o Opener, cfg Config) (Endpoint, error) {
	ep, err := o.Open(cfg.Device)
	if err != nil {
		return nil, &BusError{Kind: OpenFailure, Op: "open", Device: cfg.Device, Err: err}
	}

	err = ep.Configure(cfg)
	if err != nil {
		err = &BusError{Kind: ConfigurationOrTransferFailure, Op: "configure", Device: cfg.Device, Err: err}
		return nil, multierr.Append(err, closeEndpoint(ep, cfg.Device))
	}
	return ep, nil
}

// Exchange sends request over already configured endpoint and returns raw sample.
func Exchange(ep Endpoint, cfg Config, req Request) (uint16, error) {
	tx := req.Frame()
	var rx [FrameSize]byte

	err := ep.Transfer(tx[:], rx[:])
	if err != nil {
		return 0, &BusError{Kind: ConfigurationOrTransferFailure, Op: "transfer", Device: cfg.Device, Err: err}
	}
	return DecodeSample(rx), nil
}

// ReadChannel performs complete open/configure/transfer/close cycle for single conversion.
func ReadChannel(o Opener, cfg Config, req Request) (sample uint16, err error) {
	ep, err := Open(o, cfg)
	if err != nil {
		return 0, err
	}
	defer func() {
		err = multierr.Append(err, closeEndpoint(ep, cfg.Device))
	}()

	return Exchange(ep, cfg, req)
}

func closeEndpoint(ep Endpoint, device string) error {
	err := ep.Close()
	if err != nil {
		return &BusError{Kind: ConfigurationOrTransferFailure, Op: "close", Device: device, Err: err}
	}
	return nil
}
