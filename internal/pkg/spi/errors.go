package spi

import (
	"errors"
	"fmt"
)

var (
	ErrBusOpen     = errors.New("can't open bus device")
	ErrBusTransfer = errors.New("bus configuration or transfer failed")
)

type FailureKind int

const (
	OpenFailure FailureKind = iota
	ConfigurationOrTransferFailure
)

func (k FailureKind) String() string {
	switch k {
	case OpenFailure:
		return "BusOpenFailure"
	case ConfigurationOrTransferFailure:
		return "BusConfigurationOrTransferFailure"
	default:
		return "Unknown"
	}
}

// BusError is unrecoverable, the bus is treated as unavailable and no retry is attempted.
type BusError struct {
	Kind   FailureKind
	Op     string
	Device string
	Err    error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("%s: %s \"%s\": %v", e.Kind, e.Op, e.Device, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}

func (e *BusError) Is(target error) bool {
	switch target {
	case ErrBusOpen:
		return e.Kind == OpenFailure
	case ErrBusTransfer:
		return e.Kind == ConfigurationOrTransferFailure
	}
	return false
}

// IsFatal tells if err comes from the bus layer.
func IsFatal(err error) bool {
	var be *BusError
	return errors.As(err, &be)
}
