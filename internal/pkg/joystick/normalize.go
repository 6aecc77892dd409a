package joystick

import "github.com/gethiox/joydrv/internal/pkg/adc"

const (
	// center of 10-bit ADC range
	center = 1023 / 2
	// dropped least significant bits, 8 most significant bits are retained
	scaleShift = 2
	// raw switch samples above threshold are idle pull-up level, pressed switch shorts to ground
	SwitchThreshold = 100
)

// calibration holds zero position captured on the first update after arming.
type calibration struct {
	armed  bool
	offset Coordinate
}

// scale translates raw axis samples so rest position is around zero and drops
// resolution, vertical axis is flipped so pushing up gives positive y.
func scale(vertical, horizontal uint16) Coordinate {
	v := -(int(vertical) - center)
	h := int(horizontal) - center

	return Coordinate{
		X: h >> scaleShift,
		Y: v >> scaleShift,
	}
}

func rotate(c Coordinate) Coordinate {
	return Coordinate{X: c.Y, Y: -c.X}
}

func switchState(raw uint16) SwitchState {
	if raw > SwitchThreshold {
		return NotPressed
	}
	return Pressed
}

func normalize(samples adc.Samples, orientation Orientation, inversion Inversion, cal *calibration) Snapshot {
	c := scale(samples.Vertical, samples.Horizontal)

	if cal.armed {
		cal.offset = c
		cal.armed = false
	}

	c.X -= cal.offset.X
	c.Y -= cal.offset.Y

	if orientation == Rotated {
		c = rotate(c)
	}

	c.X *= int(inversion.X)
	c.Y *= int(inversion.Y)

	return Snapshot{
		Coordinate: c,
		Switch:     switchState(samples.Switch),
	}
}
