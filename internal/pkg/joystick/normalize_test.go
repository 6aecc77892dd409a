package joystick

import (
	"fmt"
	"testing"

	"github.com/gethiox/joydrv/internal/pkg/adc"
	"github.com/stretchr/testify/assert"
)

func TestScale(t *testing.T) {
	for i, tc := range []struct {
		vertical, horizontal uint16
		expected             Coordinate
	}{
		{vertical: 511, horizontal: 511, expected: Coordinate{0, 0}},
		{vertical: 511, horizontal: 1023, expected: Coordinate{128, 0}},
		{vertical: 1023, horizontal: 511, expected: Coordinate{0, -128}},
		{vertical: 0, horizontal: 0, expected: Coordinate{-128, 127}},
		{vertical: 300, horizontal: 800, expected: Coordinate{72, 52}},
		{vertical: 600, horizontal: 400, expected: Coordinate{-28, -23}}, // arithmetic shift rounds towards negative infinity
		{vertical: 512, horizontal: 514, expected: Coordinate{0, -1}},
	} {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			assert.Equal(t, tc.expected, scale(tc.vertical, tc.horizontal))
		})
	}
}

func TestSwitchState(t *testing.T) {
	for i, tc := range []struct {
		raw      uint16
		expected SwitchState
	}{
		{raw: 0, expected: Pressed},
		{raw: 100, expected: Pressed},
		{raw: 101, expected: NotPressed},
		{raw: 1023, expected: NotPressed},
	} {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			assert.Equal(t, tc.expected, switchState(tc.raw))
		})
	}
}

func TestNormalizeTransforms(t *testing.T) {
	samples := adc.Samples{Switch: 1023, Vertical: 300, Horizontal: 800} // (72, 52) before transforms

	for i, tc := range []struct {
		orientation Orientation
		inversion   Inversion
		expected    Coordinate
	}{
		{orientation: Normal, inversion: NoInversion, expected: Coordinate{72, 52}},
		{orientation: Rotated, inversion: NoInversion, expected: Coordinate{52, -72}},
		{orientation: Normal, inversion: Inversion{Inverted, NotInverted}, expected: Coordinate{-72, 52}},
		{orientation: Normal, inversion: Inversion{NotInverted, Inverted}, expected: Coordinate{72, -52}},
		{orientation: Normal, inversion: Inversion{Inverted, Inverted}, expected: Coordinate{-72, -52}},
		{orientation: Rotated, inversion: Inversion{Inverted, Inverted}, expected: Coordinate{-52, 72}},
		{orientation: Orientation(7), inversion: NoInversion, expected: Coordinate{72, 52}}, // unknown behaves as normal
	} {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			var cal calibration
			s := normalize(samples, tc.orientation, tc.inversion, &cal)
			assert.Equal(t, tc.expected, s.Coordinate)
			assert.Equal(t, NotPressed, s.Switch)
		})
	}
}

func TestNormalizeCalibration(t *testing.T) {
	cal := calibration{armed: true}

	s := normalize(adc.Samples{Switch: 0, Vertical: 600, Horizontal: 400}, Normal, NoInversion, &cal)
	assert.Equal(t, Coordinate{0, 0}, s.Coordinate)
	assert.Equal(t, Pressed, s.Switch)
	assert.False(t, cal.armed)
	assert.Equal(t, Coordinate{-28, -23}, cal.offset)

	s = normalize(adc.Samples{Switch: 0, Vertical: 511, Horizontal: 1023}, Normal, NoInversion, &cal)
	assert.Equal(t, Coordinate{128 + 28, 0 + 23}, s.Coordinate)
	assert.Equal(t, Coordinate{-28, -23}, cal.offset)

	// offset is subtracted before rotation and inversion
	s = normalize(adc.Samples{Switch: 0, Vertical: 511, Horizontal: 1023}, Rotated, Inversion{Inverted, NotInverted}, &cal)
	assert.Equal(t, Coordinate{-23, -156}, s.Coordinate)
}
