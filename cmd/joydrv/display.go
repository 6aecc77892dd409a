package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gethiox/joydrv/internal/pkg/display"
	"github.com/gethiox/joydrv/internal/pkg/joystick"
)

const defaultUpdateRate = time.Second / 10

func displayLines(s joystick.Snapshot, columns int) [4]string {
	var lines [4]string
	lines[0] = "X" + display.Bar(s.Coordinate.X, axisLimit, columns-1)
	lines[1] = "Y" + display.Bar(s.Coordinate.Y, axisLimit, columns-1)
	lines[2] = fmt.Sprintf("x:%4d  y:%4d", s.Coordinate.X, s.Coordinate.Y)
	if s.Switch == joystick.Pressed {
		lines[3] = "switch: pressed"
	} else {
		lines[3] = "switch: released"
	}
	return lines
}

// GenerateDisplayData keeps the newest snapshot and emits display content at cfg.UpdateRate,
// non-positive rate falls back to defaultUpdateRate.
// Output is closed once snapshots are closed or ctx is done, after a final message.
func GenerateDisplayData(
	ctx context.Context, wg *sync.WaitGroup, cfg display.ScreenConfig, snapshots <-chan joystick.Snapshot,
) <-chan display.DisplayData {
	data := make(chan display.DisplayData)
	columns, _ := cfg.Size()

	go func() {
		defer wg.Done()
		defer close(data)

		rate := cfg.UpdateRate
		if rate <= 0 {
			rate = defaultUpdateRate
		}
		ticker := time.NewTicker(rate)
		defer ticker.Stop()

		var last joystick.Snapshot
		var changed = true

	root:
		for {
			select {
			case <-ctx.Done():
				break root
			case s, ok := <-snapshots:
				if !ok {
					break root
				}
				if s != last {
					changed = true
				}
				last = s
			case <-ticker.C:
				if !changed {
					continue
				}
				changed = false
				select {
				case data <- display.DisplayData{Lines: displayLines(last, columns)}:
				case <-ctx.Done():
					break root
				}
			}
		}

		// keep fan out flowing
		go func() {
			for range snapshots {
			}
		}()

		data <- display.DisplayData{Lines: [4]string{"", "  joystick stopped", "", ""}}
	}()

	return data
}
