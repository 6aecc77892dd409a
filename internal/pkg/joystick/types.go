package joystick

import "fmt"

// Coordinate is joystick tilt relative to calibrated center.
type Coordinate struct {
	X, Y int
}

func (c Coordinate) String() string {
	return fmt.Sprintf("x: %4d, y: %4d", c.X, c.Y)
}

type SwitchState int

const (
	NotPressed SwitchState = iota
	Pressed
)

func (s SwitchState) String() string {
	switch s {
	case Pressed:
		return "PRESSED"
	case NotPressed:
		return "NOT_PRESSED"
	default:
		return "Unknown"
	}
}

// Orientation of joystick relative to display.
type Orientation int

const (
	// Normal joystick below the display (right handed)
	Normal Orientation = iota
	// Rotated joystick on the left of the display (left handed)
	Rotated
)

func (o Orientation) String() string {
	switch o {
	case Normal:
		return "normal"
	case Rotated:
		return "rotated"
	default:
		return "Unknown"
	}
}

// Polarity is an axis direction multiplier.
type Polarity int

const (
	NotInverted Polarity = 1
	Inverted    Polarity = -1
)

func (p Polarity) String() string {
	switch p {
	case NotInverted:
		return "+1"
	case Inverted:
		return "-1"
	default:
		return fmt.Sprintf("%d", int(p))
	}
}

// PolarityOf converts invert flag into Polarity.
func PolarityOf(invert bool) Polarity {
	if invert {
		return Inverted
	}
	return NotInverted
}

type Inversion struct {
	X, Y Polarity
}

var NoInversion = Inversion{X: NotInverted, Y: NotInverted}

// Snapshot is a result of the last completed update.
type Snapshot struct {
	Coordinate Coordinate
	Switch     SwitchState
}

func (s Snapshot) String() string {
	return fmt.Sprintf("%s, switch: %s", s.Coordinate, s.Switch)
}
