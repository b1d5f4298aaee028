package evdev

import "errors"

var (
	// ErrNotSupported is returned on platforms without evdev.
	ErrNotSupported = errors.New("evdev: not supported on this platform")
	// ErrUnsupportedDevice is returned for nodes that are neither pointer nor keyboard.
	ErrUnsupportedDevice = errors.New("evdev: unsupported device")
	// ErrDeviceGone is returned by Run when the device is unplugged.
	ErrDeviceGone = errors.New("evdev: device gone")
)
