package input

// Button is a remote mouse button.
type Button int

const (
	ButtonUndefined Button = -1
	ButtonLeft      Button = 1
	ButtonMiddle    Button = 2
	ButtonRight     Button = 3
	ButtonScroll    Button = 4
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonMiddle:
		return "middle"
	case ButtonRight:
		return "right"
	case ButtonScroll:
		return "scroll"
	default:
		return "undefined"
	}
}

// TouchAction is a step of the remote touch-point lifecycle.
type TouchAction int

const (
	TouchBegin  TouchAction = 18
	TouchUpdate TouchAction = 19
	TouchEnd    TouchAction = 20
)

func (a TouchAction) String() string {
	switch a {
	case TouchBegin:
		return "begin"
	case TouchUpdate:
		return "update"
	case TouchEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Stub is the boundary to the remote host. Implementations own the wire
// encoding and deal with their own delivery failures.
type Stub interface {
	SendMouseEvent(x, y float32, button Button, down, relative bool)
	SendMouseWheelEvent(deltaX, deltaY float32)
	// SendKeyEvent returns false when the key is not recognized and nothing was sent.
	SendKeyEvent(scanCode, keyCode int, down bool) bool
	SendTextEvent(utf8 []byte)
	SendTouchEvent(action TouchAction, pointerID int, x, y int)
	SendStylusEvent(x, y float32, pressure, tiltX, tiltY, orientation, buttons int, eraser, mouseMode bool)
}
