package joystick

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gethiox/joydrv/internal/pkg/logger"
)

var ErrInvalidInterval = errors.New("poll interval has to be positive")

// Settings are applied by the polling goroutine between updates.
type Settings struct {
	Orientation Orientation
	Inversion   Inversion
	Recalibrate bool
}

func (d *Driver) apply(s Settings) {
	d.SetOrientation(s.Orientation)
	d.SetInversion(s.Inversion.X, s.Inversion.Y)
	if s.Recalibrate {
		d.Recalibrate()
	}
	d.log.Info(fmt.Sprintf(
		"settings applied (orientation: %s, inversion: %s/%s)",
		s.Orientation, s.Inversion.X, s.Inversion.Y,
	), logger.Debug)
}

// Poll takes ownership of initialized driver and updates it every interval.
// Snapshots channel is closed when ctx is done or on bus failure, in the latter case
// the failure is delivered on errors channel first. Non-positive interval is reported
// as ErrInvalidInterval without touching the driver.
func Poll(ctx context.Context, d *Driver, interval time.Duration, settings <-chan Settings) (<-chan Snapshot, <-chan error) {
	snapshots := make(chan Snapshot, 10)
	errs := make(chan error, 1)

	if interval <= 0 {
		errs <- fmt.Errorf("%w: %s", ErrInvalidInterval, interval)
		close(snapshots)
		close(errs)
		return snapshots, errs
	}

	go func() {
		defer close(snapshots)
		defer close(errs)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		d.log.Info(fmt.Sprintf("polling joystick every %s", interval), logger.Debug)
	root:
		for {
			err := d.Update()
			if err != nil {
				errs <- err
				break root
			}

			snapshot := d.Snapshot()
		send:
			for {
				select {
				case <-ctx.Done():
					break root
				case snapshots <- snapshot:
					break send
				case s, ok := <-settings:
					if !ok {
						settings = nil
						continue
					}
					d.apply(s)
				}
			}

		wait:
			for {
				select {
				case <-ctx.Done():
					break root
				case s, ok := <-settings:
					if !ok {
						settings = nil
						continue
					}
					d.apply(s)
				case <-ticker.C:
					break wait
				}
			}
		}
		d.log.Info("polling stopped", logger.Debug)
	}()

	return snapshots, errs
}
