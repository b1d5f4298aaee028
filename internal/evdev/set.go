package evdev

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrNoDevices is returned by OpenSet when no usable device could be opened.
var ErrNoDevices = errors.New("evdev: no usable input devices")

// Scan lists the event nodes under /dev/input.
func Scan() ([]string, error) {
	paths, err := filepath.Glob("/dev/input/event*")
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// Set is a group of devices read concurrently.
type Set struct {
	log     *zap.SugaredLogger
	devices []*Device
}

// OpenSet opens every path, or every node Scan finds when paths is empty.
// Nodes that are neither pointers nor keyboards are skipped. Other failures
// are logged and skipped as long as one device opens.
func OpenSet(log *zap.SugaredLogger, paths []string, width, height float32, grab bool) (*Set, error) {
	if len(paths) == 0 {
		var err error
		if paths, err = Scan(); err != nil {
			return nil, err
		}
	}

	s := &Set{log: log}
	var errs error
	for _, p := range paths {
		d, err := Open(p, width, height, grab)
		switch {
		case errors.Is(err, ErrUnsupportedDevice):
			log.Debugw("evdev: skipping device", "path", p, "error", err)
			continue
		case err != nil:
			errs = multierr.Append(errs, err)
			continue
		}
		info := d.Decoder().Info()
		log.Infow("evdev: opened device", "path", p, "name", info.Name, "kind", info.Kind, "grab", grab)
		s.devices = append(s.devices, d)
	}
	if len(s.devices) == 0 {
		return nil, multierr.Append(ErrNoDevices, errs)
	}
	for _, err := range multierr.Errors(errs) {
		log.Warnw("evdev: device unavailable", "error", err)
	}
	return s, nil
}

// Devices returns the open devices.
func (s *Set) Devices() []*Device {
	return s.devices
}

// Run reads every device until ctx is done. A failing device is logged
// and dropped while the others keep running.
func (s *Set) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, d := range s.devices {
		wg.Add(1)
		go func(d *Device) {
			defer wg.Done()
			if err := d.Run(ctx); err != nil && ctx.Err() == nil {
				s.log.Warnw("evdev: device stopped", "path", d.Path(), "error", err)
			}
		}(d)
	}
	wg.Wait()
	return ctx.Err()
}

// Grab takes or releases every device matching kinds, or every device when
// kinds is empty.
func (s *Set) Grab(enabled bool, kinds ...Kind) error {
	var err error
	for _, d := range s.devices {
		if len(kinds) > 0 && !hasKind(kinds, d.Decoder().Info().Kind) {
			continue
		}
		err = multierr.Append(err, d.Grab(enabled))
	}
	return err
}

func hasKind(kinds []Kind, k Kind) bool {
	for _, want := range kinds {
		if want == k {
			return true
		}
	}
	return false
}

// Close closes every device.
func (s *Set) Close() error {
	var err error
	for _, d := range s.devices {
		err = multierr.Append(err, d.Close())
	}
	return err
}
