package spi_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gethiox/joydrv/internal/pkg/spi"
	"github.com/gethiox/joydrv/internal/pkg/spi/spitest"
	"github.com/stretchr/testify/assert"
)

func TestRequestFrame(t *testing.T) {
	for i, tc := range []struct {
		request  spi.Request
		expected [spi.FrameSize]byte
	}{
		{request: spi.Request{Command: 0x01, Selector: 0x00, Mode: 0x80}, expected: [3]byte{0x01, 0x80, 0x00}},
		{request: spi.Request{Command: 0x01, Selector: 0x10, Mode: 0x80}, expected: [3]byte{0x01, 0x90, 0x00}},
		{request: spi.Request{Command: 0x01, Selector: 0x20, Mode: 0x80}, expected: [3]byte{0x01, 0xa0, 0x00}},
		{request: spi.Request{Command: 0x01, Selector: 0x20, Mode: 0x00}, expected: [3]byte{0x01, 0x20, 0x00}},
	} {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.request.Frame())
		})
	}
}

func TestDecodeSample(t *testing.T) {
	for i, tc := range []struct {
		rx       [spi.FrameSize]byte
		expected uint16
	}{
		{rx: [3]byte{0x00, 0x00, 0x00}, expected: 0},
		{rx: [3]byte{0x00, 0x03, 0xff}, expected: 1023},
		{rx: [3]byte{0x00, 0x01, 0xff}, expected: 511},
		{rx: [3]byte{0xff, 0xfe, 0x10}, expected: 2*256 + 0x10}, // upper bits are ignored
	} {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			assert.Equal(t, tc.expected, spi.DecodeSample(tc.rx))
		})
	}
}

func TestReadChannel(t *testing.T) {
	o := spitest.NewOpener()
	o.Noise = 0xfc
	o.Set(1, 700)

	sample, err := spi.ReadChannel(o, spi.DefaultConfig, spi.Request{Command: 0x01, Selector: 0x10, Mode: 0x80})
	assert.Nil(t, err)
	assert.Equal(t, uint16(700), sample)

	assert.Equal(t, 1, o.Opens)
	assert.Equal(t, 1, o.Closes)
	assert.Equal(t, 1, o.Transfers)
	assert.Equal(t, []string{spi.Device1}, o.Devices)
	assert.Equal(t, []spi.Config{spi.DefaultConfig}, o.Configs)
	assert.Equal(t, [][3]byte{{0x01, 0x90, 0x00}}, o.Frames)
}

func TestReadChannelFailures(t *testing.T) {
	for i, tc := range []struct {
		setup    func(o *spitest.Opener)
		sentinel error
		kind     spi.FailureKind
		cause    error
		closes   int
	}{
		{
			setup:    func(o *spitest.Opener) { o.FailOpen = true },
			sentinel: spi.ErrBusOpen,
			kind:     spi.OpenFailure,
			cause:    spitest.ErrOpen,
			closes:   0,
		},
		{
			setup:    func(o *spitest.Opener) { o.FailConfigure = true },
			sentinel: spi.ErrBusTransfer,
			kind:     spi.ConfigurationOrTransferFailure,
			cause:    spitest.ErrConfigure,
			closes:   1,
		},
		{
			setup:    func(o *spitest.Opener) { o.FailTransfer = true },
			sentinel: spi.ErrBusTransfer,
			kind:     spi.ConfigurationOrTransferFailure,
			cause:    spitest.ErrTransfer,
			closes:   1,
		},
		{
			setup:    func(o *spitest.Opener) { o.FailClose = true },
			sentinel: spi.ErrBusTransfer,
			kind:     spi.ConfigurationOrTransferFailure,
			cause:    spitest.ErrClose,
			closes:   1,
		},
	} {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			o := spitest.NewOpener()
			o.Set(0, 1000)
			tc.setup(o)

			_, err := spi.ReadChannel(o, spi.DefaultConfig, spi.Request{Command: 0x01, Mode: 0x80})
			assert.NotNil(t, err)
			assert.True(t, errors.Is(err, tc.sentinel))
			assert.True(t, errors.Is(err, tc.cause))
			assert.True(t, spi.IsFatal(err))
			assert.Equal(t, tc.closes, o.Closes)
			assert.Equal(t, 0, o.OpenCount())

			var be *spi.BusError
			assert.True(t, errors.As(err, &be))
			assert.Equal(t, tc.kind, be.Kind)
			assert.Equal(t, spi.Device1, be.Device)
		})
	}
}

func TestIsFatal(t *testing.T) {
	assert.False(t, spi.IsFatal(nil))
	assert.False(t, spi.IsFatal(errors.New("whatever")))
	assert.True(t, spi.IsFatal(fmt.Errorf("wrapped: %w", &spi.BusError{Kind: spi.OpenFailure, Err: errors.New("x")})))
}
