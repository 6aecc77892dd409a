//go:build !linux

package spi

import "errors"

type Devfs struct{}

func (Devfs) Open(device string) (Endpoint, error) {
	return nil, errors.New("hardware not supported")
}
