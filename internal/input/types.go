// Package input defines the platform event model consumed by the touch
// handler and the Stub boundary through which normalized events leave for
// the remote host.
package input

import "time"

// Action is the masked action of a MotionEvent.
type Action int

const (
	ActionDown Action = iota
	ActionUp
	ActionMove
	ActionCancel
	ActionPointerDown
	ActionPointerUp
	ActionHoverMove
	ActionScroll
	ActionHoverEnter
	ActionHoverExit
	ActionButtonPress
	ActionButtonRelease
)

var actionNames = [...]string{
	"down", "up", "move", "cancel", "pointer_down", "pointer_up",
	"hover_move", "scroll", "hover_enter", "hover_exit", "button_press", "button_release",
}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "unknown"
	}
	return actionNames[a]
}

// ToolType classifies the implement that generated a pointer.
type ToolType int

const (
	ToolUnknown ToolType = iota
	ToolFinger
	ToolStylus
	ToolMouse
	ToolEraser
)

// Source is a bitmask describing the originating device class.
type Source uint32

const (
	SourceKeyboard      Source = 0x00000101
	SourceTouchscreen   Source = 0x00001002
	SourceMouse         Source = 0x00002002
	SourceStylus        Source = 0x00004002
	SourceMouseRelative Source = 0x00020004
	SourceTouchpad      Source = 0x00100008
)

// SourceDex is reported by desktop-mode hybrid pointers that present as
// both touchscreen and mouse.
const SourceDex = SourceMouse | SourceTouchscreen

// ButtonState is the bitmask of pressed device buttons.
type ButtonState uint32

const (
	ButtonPrimary         ButtonState = 1 << 0
	ButtonSecondary       ButtonState = 1 << 1
	ButtonTertiary        ButtonState = 1 << 2
	ButtonStylusPrimary   ButtonState = 1 << 5
	ButtonStylusSecondary ButtonState = 1 << 6
)

// Flags carries platform motion-event flags.
type Flags uint32

const (
	// FlagDexDrag marks a desktop-mode drag that started with a long press.
	FlagDexDrag Flags = 0x4000000
	// FlagDexScroll marks a desktop-mode two-finger scroll.
	FlagDexScroll Flags = 0x14000000
)

// Classification is the platform's own gesture classification of an event.
type Classification int

const (
	ClassificationNone Classification = iota
	ClassificationAmbiguous
	ClassificationDeepPress
	ClassificationTwoFingerSwipe
)

// Pointer is one contact inside a MotionEvent.
type Pointer struct {
	ID       int
	X, Y     float32
	Tool     ToolType
	Pressure float32
}

// Axes holds the non-positional axis values of the event.
type Axes struct {
	VScroll, HScroll     float32
	RelativeX, RelativeY float32
	Tilt, Orientation    float32
}

// Device describes capabilities of the device that produced the event.
type Device struct {
	HasRelativeAxes bool
	HasTilt         bool
	HasOrientation  bool
	External        bool
	// RangeX and RangeY are the maximum raw axis values; zero when unknown.
	RangeX, RangeY float32
}

// MotionEvent is one pointer event as delivered by the platform.
type MotionEvent struct {
	Action         Action
	ActionIndex    int
	Pointers       []Pointer
	Source         Source
	Buttons        ButtonState
	Flags          Flags
	Classification Classification
	Time           time.Time
	Axes           Axes
	Device         Device
}

// PointerCount returns the number of pointers in the event.
func (e *MotionEvent) PointerCount() int {
	return len(e.Pointers)
}

// X returns the first pointer's x coordinate, or 0 without pointers.
func (e *MotionEvent) X() float32 {
	if len(e.Pointers) == 0 {
		return 0
	}
	return e.Pointers[0].X
}

// Y returns the first pointer's y coordinate, or 0 without pointers.
func (e *MotionEvent) Y() float32 {
	if len(e.Pointers) == 0 {
		return 0
	}
	return e.Pointers[0].Y
}

// ActionPointer returns the pointer the action refers to.
func (e *MotionEvent) ActionPointer() (Pointer, bool) {
	if e.ActionIndex < 0 || e.ActionIndex >= len(e.Pointers) {
		return Pointer{}, false
	}
	return e.Pointers[e.ActionIndex], true
}

// ToolType returns the tool type of the action pointer.
func (e *MotionEvent) ToolType() ToolType {
	p, ok := e.ActionPointer()
	if !ok {
		return ToolUnknown
	}
	return p.Tool
}

// IsFromSource reports whether every bit of s is set in the event source.
func (e *MotionEvent) IsFromSource(s Source) bool {
	return e.Source&s == s
}

// HasFlags reports whether every bit of f is set.
func (e *MotionEvent) HasFlags(f Flags) bool {
	return e.Flags&f == f
}

// KeyAction is the action of a KeyEvent.
type KeyAction int

const (
	KeyActionDown KeyAction = iota
	KeyActionUp
	// KeyActionMultiple carries composed text in Characters.
	KeyActionMultiple
)

// Meta is the modifier state of a key event.
type Meta uint32

const (
	MetaShift Meta = 1 << iota
	MetaCtrl
	MetaAltLeft
	MetaAltRight
	MetaMeta
	MetaCapsLock
)

// MetaAlt matches either alt key.
const MetaAlt = MetaAltLeft | MetaAltRight

// KeyEvent is one keyboard event as delivered by the platform.
type KeyEvent struct {
	Action      KeyAction
	KeyCode     int
	ScanCode    int
	Meta        Meta
	RepeatCount int
	// Rune is the printable character the key produces with the current
	// modifiers, or 0.
	Rune       rune
	Characters string
	Source     Source
	// Alphabetic is set when the originating device is a full keyboard.
	Alphabetic bool
}

// IsFromSource reports whether every bit of s is set in the event source.
func (e *KeyEvent) IsFromSource(s Source) bool {
	return e.Source&s == s
}
