package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/awesome-gocui/gocui"
	"github.com/gethiox/joydrv/internal/pkg/display"
	"github.com/gethiox/joydrv/internal/pkg/joystick"
	"github.com/gethiox/joydrv/internal/pkg/logger"
	"github.com/logrusorgru/aurora"
	"github.com/lucasb-eyer/go-colorful"
)

// axisLimit is the magnitude of a fully tilted axis.
const axisLimit = 128

// directionColor returns 256-color palette index, hue follows tilt direction and saturation its magnitude.
func directionColor(c joystick.Coordinate) uint8 {
	magnitude := math.Hypot(float64(c.X), float64(c.Y)) / axisLimit
	if magnitude > 1 {
		magnitude = 1
	}
	hue := math.Atan2(float64(c.Y), float64(c.X)) * 180 / math.Pi
	if hue < 0 {
		hue += 360
	}

	r, g, b := colorful.Hsv(hue, magnitude, 1).RGB255()
	scale := func(v uint8) uint8 {
		return uint8((int(v)*5 + 127) / 255)
	}
	return 16 + 36*scale(r) + 6*scale(g) + scale(b)
}

// positionGrid draws a crosshair of given size with marker placed at coordinate, positive Y points up.
func positionGrid(c joystick.Coordinate, width, height int) []string {
	if width < 1 || height < 1 {
		return nil
	}
	clamp := func(v int) int {
		if v > axisLimit {
			return axisLimit
		}
		if v < -axisLimit {
			return -axisLimit
		}
		return v
	}
	col := (clamp(c.X) + axisLimit) * (width - 1) / (2 * axisLimit)
	row := (axisLimit - clamp(c.Y)) * (height - 1) / (2 * axisLimit)
	centerCol, centerRow := (width-1)/2, (height-1)/2

	lines := make([]string, height)
	for y := 0; y < height; y++ {
		line := make([]rune, width)
		for x := range line {
			switch {
			case x == centerCol && y == centerRow:
				line[x] = '┼'
			case x == centerCol:
				line[x] = '│'
			case y == centerRow:
				line[x] = '─'
			default:
				line[x] = ' '
			}
		}
		if y == row {
			line[col] = '●'
		}
		lines[y] = string(line)
	}
	return lines
}

func positionView(g *gocui.Gui, colors bool, snapshots <-chan joystick.Snapshot) {
	view, err := g.View(ViewPosition)
	if err != nil {
		panic(err)
	}

	au := aurora.NewAurora(colors)

	for s := range snapshots {
		x, y := view.Size()

		header := fmt.Sprintf(
			"%s, switch: %s",
			au.Index(directionColor(s.Coordinate), s.Coordinate.String()).String(),
			colorForString(au, s.Switch.String()).String(),
		)
		headerFreeSpace := x - rawStringLen(header)
		if headerFreeSpace < 0 {
			headerFreeSpace = 0
		}

		view.Rewind()
		view.Write([]byte(header + strings.Repeat(" ", headerFreeSpace)))
		view.Write([]byte{'\n'})
		for _, line := range positionGrid(s.Coordinate, x, y-1) {
			view.Write([]byte(line))
			view.Write([]byte{'\n'})
		}
	}
}

func logView(g *gocui.Gui, color bool, logLevel, bufSize int) {
	feeder, err := NewFeeder(g, ViewLogs, logLevel, aurora.NewAurora(color))
	if err != nil {
		panic(err)
	}

	buf := newLogBuffer(bufSize)
	var newMessage = make(chan bool, 1)

	go func() {
		for msg := range logger.Messages {
			buf.WriteMessage(msg)
			select {
			case newMessage <- true:
			default:
			}
		}
		close(newMessage)
	}()

	ticker := time.NewTicker(time.Millisecond * 250)
	defer ticker.Stop()

	var lastX, lastY int
	for {
		select {
		case _, ok := <-newMessage:
			if !ok {
				return
			}
		case <-ticker.C:
			x, y := feeder.view.Size()
			if x == lastX && y == lastY {
				continue
			}
			lastX, lastY = x, y
		}

		feeder.view.Clear()
		_, y := feeder.view.Size()
		for _, msg := range buf.ReadLastMessages(y) {
			feeder.Write(msg)
		}
	}
}

func lcdView(g *gocui.Gui, dd <-chan display.DisplayData) {
	view, err := g.View(ViewLCD)
	if err != nil {
		panic(err)
	}

	for data := range dd {
		view.Rewind()
		for _, s := range data.Lines {
			view.Write([]byte(s))
			view.Write([]byte{'\n'})
		}
	}
}
