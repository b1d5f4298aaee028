// Package evdev turns Linux input devices into the platform event model:
// multitouch screens and touchpads, mice, pens and keyboards become
// input.MotionEvent and input.KeyEvent values.
package evdev

// Event types
const (
	evSyn = 0x00
	evKey = 0x01
	evRel = 0x02
	evAbs = 0x03
	evMsc = 0x04
)

const synReport = 0x00

const mscScan = 0x04

// Relative axes
const (
	relX      = 0x00
	relY      = 0x01
	relHWheel = 0x06
	relWheel  = 0x08
)

// Absolute axes
const (
	absX            = 0x00
	absY            = 0x01
	absPressure     = 0x18
	absTiltX        = 0x1a
	absTiltY        = 0x1b
	absMTSlot       = 0x2f
	absMTPositionX  = 0x35
	absMTPositionY  = 0x36
	absMTTrackingID = 0x39
	absMTPressure   = 0x3a
	absCnt          = 0x40
	inputPropDirect = 0x01
)

// Keys and buttons
const (
	keyA          = 30
	keyLeftCtrl   = 29
	keyLeftShift  = 42
	keyRightShift = 54
	keyLeftAlt    = 56
	keyCapsLock   = 58
	keyRightCtrl  = 97
	keyRightAlt   = 100
	keyLeftMeta   = 125
	keyRightMeta  = 126
	keyCnt        = 0x300

	btnLeft       = 0x110
	btnRight      = 0x111
	btnMiddle     = 0x112
	btnSide       = 0x113
	btnToolPen    = 0x140
	btnToolRubber = 0x141
	btnTouch      = 0x14a
	btnStylus     = 0x14b
	btnStylus2    = 0x14c
)

// maxSlots bounds the multitouch slots tracked per device.
const maxSlots = 10
