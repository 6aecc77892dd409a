//go:build linux

package spi

import (
	"fmt"
	"os"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ioctl request encoding (Linux _IOC macro)
const (
	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocWrite = 1
	iocRead  = 2

	spiIocMagic = 'k'
)

func ioc(dir, nr, size uint32) uintptr {
	return uintptr(dir<<iocDirShift | spiIocMagic<<iocTypeShift | nr<<iocNRShift | size<<iocSizeShift)
}

// struct spi_ioc_transfer from linux/spi/spidev.h
type spiIocTransfer struct {
	txBuf          uint64
	rxBuf          uint64
	length         uint32
	speedHz        uint32
	delayUsecs     uint16
	bitsPerWord    uint8
	csChange       uint8
	txNbits        uint8
	rxNbits        uint8
	wordDelayUsecs uint8
	pad            uint8
}

var (
	spiIocWrMode        = ioc(iocWrite, 1, 1)
	spiIocRdMode        = ioc(iocRead, 1, 1)
	spiIocWrBitsPerWord = ioc(iocWrite, 3, 1)
	spiIocRdBitsPerWord = ioc(iocRead, 3, 1)
	spiIocWrMaxSpeedHz  = ioc(iocWrite, 4, 4)
	spiIocRdMaxSpeedHz  = ioc(iocRead, 4, 4)
	spiIocMessage1      = ioc(iocWrite, 0, uint32(unsafe.Sizeof(spiIocTransfer{})))
)

func ioctl(fd, request uintptr, arg unsafe.Pointer) (uintptr, error) {
	r, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, request, uintptr(arg))
	if errno != 0 {
		return r, errno
	}
	return r, nil
}

// Devfs opens spidev character devices.
type Devfs struct{}

func (Devfs) Open(device string) (Endpoint, error) {
	f, err := os.OpenFile(device, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return &devfsEndpoint{file: f}, nil
}

type devfsEndpoint struct {
	file *os.File

	// values read back from the driver, they may differ from requested ones
	mode  uint8
	bits  uint8
	speed uint32
	delay uint16
}

func (e *devfsEndpoint) Configure(cfg Config) error {
	fd := e.file.Fd()

	e.mode = uint8(cfg.Mode)
	e.bits = cfg.BitsPerWord
	e.speed = cfg.MaxSpeedHz
	e.delay = uint16(cfg.Delay.Microseconds())

	for _, step := range []struct {
		request uintptr
		arg     unsafe.Pointer
		desc    string
	}{
		{spiIocWrMode, unsafe.Pointer(&e.mode), "can't set spi mode"},
		{spiIocRdMode, unsafe.Pointer(&e.mode), "can't get spi mode"},
		{spiIocWrBitsPerWord, unsafe.Pointer(&e.bits), "can't set bits per word"},
		{spiIocRdBitsPerWord, unsafe.Pointer(&e.bits), "can't get bits per word"},
		{spiIocWrMaxSpeedHz, unsafe.Pointer(&e.speed), "can't set max speed hz"},
		{spiIocRdMaxSpeedHz, unsafe.Pointer(&e.speed), "can't get max speed hz"},
	} {
		_, err := ioctl(fd, step.request, step.arg)
		if err != nil {
			return fmt.Errorf("%s: %w", step.desc, err)
		}
	}
	return nil
}

func (e *devfsEndpoint) Transfer(tx, rx []byte) error {
	if len(tx) != len(rx) || len(tx) == 0 {
		return fmt.Errorf("invalid buffer sizes (tx: %d, rx: %d)", len(tx), len(rx))
	}

	tr := spiIocTransfer{
		txBuf:       uint64(uintptr(unsafe.Pointer(&tx[0]))),
		rxBuf:       uint64(uintptr(unsafe.Pointer(&rx[0]))),
		length:      uint32(len(tx)),
		delayUsecs:  e.delay,
		speedHz:     e.speed,
		bitsPerWord: e.bits,
	}

	n, err := ioctl(e.file.Fd(), spiIocMessage1, unsafe.Pointer(&tr))
	runtime.KeepAlive(tx)
	runtime.KeepAlive(rx)
	if err != nil {
		return fmt.Errorf("can't send spi message: %w", err)
	}
	if n < 1 {
		return fmt.Errorf("can't send spi message: %d bytes transferred", n)
	}
	return nil
}

func (e *devfsEndpoint) Close() error {
	return e.file.Close()
}
