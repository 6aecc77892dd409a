package display

import (
	"time"

	"github.com/d2r2/go-hd44780"
)

type ScreenConfig struct {
	Enabled    bool
	LcdType    hd44780.LcdType
	Bus        int
	Address    uint8
	UpdateRate time.Duration
}

// Size returns display dimensions in characters.
func (s ScreenConfig) Size() (columns, rows int) {
	if s.LcdType == hd44780.LCD_16x2 {
		return 16, 2
	}
	return 20, 4
}
