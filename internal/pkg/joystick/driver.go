// Package joystick turns raw ADC samples of an analog joystick into calibrated coordinates
// and switch state.
//
// Driver is not safe for concurrent use, Update mutates calibration and snapshot without
// locking. A single goroutine is expected to own it, see Poll.
package joystick

import (
	"errors"
	"fmt"

	"github.com/gethiox/joydrv/internal/pkg/adc"
	"github.com/gethiox/joydrv/internal/pkg/logger"
	"go.uber.org/zap"
)

var (
	ErrNotInitialized = errors.New("driver not initialized")
	ErrFaulted        = errors.New("driver faulted by previous bus failure")
)

type Sampler interface {
	SampleAll() (adc.Samples, error)
}

type Driver struct {
	sampler Sampler
	log     *zap.Logger

	initialized bool
	orientation Orientation
	inversion   Inversion
	cal         calibration

	snapshot Snapshot
	fault    error
}

type Option func(d *Driver)

func WithLogger(log *zap.Logger) Option {
	return func(d *Driver) {
		d.log = log
	}
}

func New(sampler Sampler, opts ...Option) *Driver {
	d := &Driver{
		sampler:     sampler,
		log:         zap.NewNop(),
		orientation: Normal,
		inversion:   NoInversion,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Init arms zero calibration, it has to be called once before the first Update.
func (d *Driver) Init() {
	d.initialized = true
	d.cal.armed = true
	d.log.Info("Joystick initialized, zero calibration armed", logger.Debug)
}

// Recalibrate arms zero calibration again, next Update captures new rest position.
func (d *Driver) Recalibrate() {
	d.cal.armed = true
	d.log.Info("Zero calibration re-armed", logger.Info)
}

// SetOrientation takes effect on the next Update.
func (d *Driver) SetOrientation(o Orientation) {
	d.orientation = o
}

// SetInversion takes effect on the next Update.
func (d *Driver) SetInversion(x, y Polarity) {
	d.inversion = Inversion{X: x, Y: y}
}

func (d *Driver) Orientation() Orientation {
	return d.orientation
}

func (d *Driver) Inversion() Inversion {
	return d.inversion
}

// Update reads all channels and replaces current snapshot.
// Sampling failure is fatal, every following Update returns ErrFaulted without touching the bus.
func (d *Driver) Update() error {
	if d.fault != nil {
		return fmt.Errorf("%w: %w", ErrFaulted, d.fault)
	}
	if !d.initialized {
		return ErrNotInitialized
	}

	samples, err := d.sampler.SampleAll()
	if err != nil {
		d.fault = err
		d.log.Info(fmt.Sprintf("sampling failed: %v", err), logger.Error)
		return err
	}

	capture := d.cal.armed
	d.snapshot = normalize(samples, d.orientation, d.inversion, &d.cal)

	if capture {
		d.log.Info(
			fmt.Sprintf("zero position captured (x: %d, y: %d)", d.cal.offset.X, d.cal.offset.Y),
			logger.Info,
		)
	}
	d.log.Info(d.snapshot.String(), zap.String("raw", samples.String()), logger.Sample)
	return nil
}

// Err returns bus failure that faulted the driver, if any.
func (d *Driver) Err() error {
	return d.fault
}

func (d *Driver) Coordinate() Coordinate {
	return d.snapshot.Coordinate
}

func (d *Driver) Switch() SwitchState {
	return d.snapshot.Switch
}

func (d *Driver) Snapshot() Snapshot {
	return d.snapshot
}
