package display

import (
	"fmt"
	"strings"
	"sync"

	device "github.com/d2r2/go-hd44780"
	"github.com/d2r2/go-i2c"
	shittyLogger "github.com/d2r2/go-logger"
	"github.com/gethiox/joydrv/internal/pkg/logger"
)

var log = logger.GetLogger()

func getDisplay(addr uint8, bus int, lcdType device.LcdType) (*device.Lcd, *i2c.I2C, error) {
	shittyLogger.ChangePackageLogLevel("i2c", shittyLogger.InfoLevel)
	shittyLogger.ChangePackageLogLevel("hd44780", shittyLogger.InfoLevel)

	lcdRaw, err := i2c.NewI2C(addr, bus)
	if err != nil {
		return nil, nil, err
	}

	lcd, err := device.NewLcd(lcdRaw, lcdType)
	if err != nil {
		return nil, lcdRaw, err
	}

	return lcd, lcdRaw, nil
}

func loadCustomCharacters(lcd *device.Lcd, characters [][]byte) {
	for i, char := range characters {
		var location = uint8(i) & 0x7

		lcd.Command(device.CMD_CGRAM_Set | (location << 3))
		lcd.Write(char)
	}
}

// Marker characters used by position bars, they are mapped into custom CGRAM characters.
const (
	Marker = '█'
	Center = '┃'
	Track  = '─'
)

var customCharacters = [][]byte{
	{0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F}, // "█"
	{0x04, 0x04, 0x04, 0x04, 0x04, 0x04, 0x04, 0x04}, // "┃"
	{0x00, 0x00, 0x00, 0x1F, 0x00, 0x00, 0x00, 0x00}, // "─"
}

var conversionMap = map[rune]byte{
	Marker: 0,
	Center: 1,
	Track:  2,
}

func replaceCharsForDisplay(s string) string {
	var sb strings.Builder
	for _, r := range s {
		n, ok := conversionMap[r]
		if ok {
			sb.WriteByte(n)
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Bar renders position of value in [-limit, limit] range as a track of given width.
func Bar(value, limit, width int) string {
	if width < 1 {
		return ""
	}
	if value > limit {
		value = limit
	}
	if value < -limit {
		value = -limit
	}

	var track = make([]rune, width)
	for i := range track {
		track[i] = Track
	}
	track[(width-1)/2] = Center

	pos := (value + limit) * (width - 1) / (2 * limit)
	track[pos] = Marker
	return string(track)
}

type DisplayData struct {
	Lines [4]string
}

func fit(s string, columns int) string {
	r := []rune(s)
	if len(r) > columns {
		return string(r[:columns])
	}
	return fmt.Sprintf("%-*s", columns, s)
}

func HandleDisplay(wg *sync.WaitGroup, cfg ScreenConfig, dd <-chan DisplayData) {
	defer wg.Done()
	lcd, bus, err := getDisplay(cfg.Address, cfg.Bus, cfg.LcdType)
	if err != nil {
		log.Info(fmt.Sprintf("failed to open display: %v", err), logger.Warning)
		if bus != nil {
			bus.Close()
		}
		for range dd {
		}
		return
	}

	loadCustomCharacters(lcd, customCharacters)

	lcd.BacklightOn()
	lcd.Clear()

	columns, rows := cfg.Size()
	for data := range dd {
		for i := 0; i < rows; i++ {
			fixed := replaceCharsForDisplay(fit(data.Lines[i], columns))
			lcd.SetPosition(i, 0)
			lcd.Write([]byte(fixed))
		}
	}

	lcd.Clear()
	lcd.BacklightOff()
	bus.Close()
	log.Info("display closed", logger.Debug)
}
