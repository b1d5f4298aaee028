// Package gesture classifies raw pointer streams into taps, long presses,
// scrolls, double taps and two-finger swipes. Detectors are fed every event
// of a gesture and report through listener interfaces; timers go through a
// sched.Scheduler so callbacks stay serialized with dispatch.
package gesture

import "time"

// Config holds the platform thresholds in pixels and durations.
type Config struct {
	// TouchSlop is the distance a pointer may travel before a tap turns
	// into a scroll.
	TouchSlop float32
	// DoubleTapSlop is the maximum distance between the two downs of a
	// double tap.
	DoubleTapSlop float32

	LongPressTimeout time.Duration
	DoubleTapTimeout time.Duration
	// DoubleTapMinTime rejects downs arriving so fast they are likely a
	// bounce rather than a second tap.
	DoubleTapMinTime time.Duration
}

// DefaultConfig returns the platform defaults for a display with the given
// density (pixels per density-independent pixel).
func DefaultConfig(density float32) Config {
	if density <= 0 {
		density = 1
	}
	return Config{
		TouchSlop:        8 * density,
		DoubleTapSlop:    100 * density,
		LongPressTimeout: 400 * time.Millisecond,
		DoubleTapTimeout: 300 * time.Millisecond,
		DoubleTapMinTime: 40 * time.Millisecond,
	}
}
