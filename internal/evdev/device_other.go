//go:build !linux

package evdev

import "context"

// Device is an input device node; evdev only exists on Linux.
type Device struct{}

// Open always fails with ErrNotSupported.
func Open(path string, width, height float32, grab bool) (*Device, error) {
	return nil, ErrNotSupported
}

func (d *Device) Path() string                  { return "" }
func (d *Device) Decoder() *Decoder             { return nil }
func (d *Device) Run(ctx context.Context) error { return ErrNotSupported }
func (d *Device) Grab(enabled bool) error       { return ErrNotSupported }
func (d *Device) Close() error                  { return nil }
