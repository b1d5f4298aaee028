package evdev

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remotetouch/internal/input"
)

type capture struct {
	motions []*input.MotionEvent
	keys    []input.KeyEvent
}

func newDecoder(info Info) (*Decoder, *capture) {
	c := &capture{}
	d := NewDecoder(info, 500, 250)
	d.OnMotion = func(e *input.MotionEvent) { c.motions = append(c.motions, e) }
	d.OnKey = func(e input.KeyEvent) { c.keys = append(c.keys, e) }
	return d, c
}

func (c *capture) actions() []input.Action {
	var out []input.Action
	for _, m := range c.motions {
		out = append(out, m.Action)
	}
	return out
}

func (c *capture) reset() {
	c.motions = nil
	c.keys = nil
}

var t0 = time.Unix(1700000000, 0)

func feed(d *Decoder, typ, code uint16, value int32) {
	d.Feed(RawEvent{Time: t0, Type: typ, Code: code, Value: value})
}

func syn(d *Decoder) {
	feed(d, evSyn, synReport, 0)
}

var screen = Info{
	Kind:       KindTouchscreen,
	MultiTouch: true,
	X:          Axis{Max: 1000},
	Y:          Axis{Max: 1000},
	Pressure:   Axis{Max: 255},
}

func contactAt(d *Decoder, slot, id, x, y int32) {
	feed(d, evAbs, absMTSlot, slot)
	feed(d, evAbs, absMTTrackingID, id)
	if id >= 0 {
		feed(d, evAbs, absMTPositionX, x)
		feed(d, evAbs, absMTPositionY, y)
	}
}

func TestMultitouchLifecycle(t *testing.T) {
	d, c := newDecoder(screen)

	contactAt(d, 0, 40, 100, 200)
	feed(d, evAbs, absMTPressure, 255)
	syn(d)
	require.Len(t, c.motions, 1)
	down := c.motions[0]
	assert.Equal(t, input.ActionDown, down.Action)
	assert.Equal(t, input.SourceTouchscreen, down.Source)
	require.Len(t, down.Pointers, 1)
	assert.Equal(t, input.Pointer{ID: 0, X: 50, Y: 50, Tool: input.ToolFinger, Pressure: 1}, down.Pointers[0])
	assert.Equal(t, t0, down.Time)

	contactAt(d, 1, 41, 500, 500)
	syn(d)
	require.Len(t, c.motions, 2)
	pd := c.motions[1]
	assert.Equal(t, input.ActionPointerDown, pd.Action)
	assert.Equal(t, 1, pd.ActionIndex)
	assert.Len(t, pd.Pointers, 2)

	feed(d, evAbs, absMTSlot, 0)
	feed(d, evAbs, absMTPositionX, 200)
	syn(d)
	require.Len(t, c.motions, 3)
	assert.Equal(t, input.ActionMove, c.motions[2].Action)
	assert.Equal(t, float32(100), c.motions[2].Pointers[0].X)

	// a frame without changes reports nothing
	syn(d)
	assert.Len(t, c.motions, 3)

	contactAt(d, 0, -1, 0, 0)
	syn(d)
	require.Len(t, c.motions, 4)
	pu := c.motions[3]
	assert.Equal(t, input.ActionPointerUp, pu.Action)
	assert.Equal(t, 0, pu.ActionIndex)
	assert.Equal(t, 0, pu.Pointers[0].ID)

	contactAt(d, 1, -1, 0, 0)
	syn(d)
	require.Len(t, c.motions, 5)
	up := c.motions[4]
	assert.Equal(t, input.ActionUp, up.Action)
	require.Len(t, up.Pointers, 1)
	assert.Equal(t, 1, up.Pointers[0].ID)
}

func TestReusedSlotIsLiftAndDown(t *testing.T) {
	d, c := newDecoder(screen)

	contactAt(d, 0, 1, 10, 10)
	syn(d)
	contactAt(d, 0, 2, 20, 20)
	syn(d)

	assert.Equal(t, []input.Action{input.ActionDown, input.ActionUp, input.ActionDown}, c.actions())
}

func TestOutOfRangeSlotIsIgnored(t *testing.T) {
	d, c := newDecoder(screen)

	contactAt(d, maxSlots, 1, 10, 10)
	syn(d)
	assert.Empty(t, c.motions)
}

func TestTouchpadButtons(t *testing.T) {
	info := screen
	info.Kind = KindTouchpad
	d, c := newDecoder(info)

	contactAt(d, 0, 7, 10, 10)
	syn(d)
	feed(d, evKey, btnLeft, 1)
	syn(d)

	require.Len(t, c.motions, 2)
	assert.Equal(t, input.SourceTouchpad, c.motions[0].Source)
	click := c.motions[1]
	assert.Equal(t, input.ActionMove, click.Action)
	assert.Equal(t, input.ButtonPrimary, click.Buttons)
}

func TestSingleTouchScreen(t *testing.T) {
	d, c := newDecoder(Info{Kind: KindTouchscreen, X: Axis{Max: 500}, Y: Axis{Max: 250}})

	feed(d, evKey, btnTouch, 1)
	feed(d, evAbs, absX, 30)
	feed(d, evAbs, absY, 40)
	syn(d)
	feed(d, evAbs, absX, 35)
	syn(d)
	feed(d, evKey, btnTouch, 0)
	syn(d)
	feed(d, evKey, btnTouch, 1)
	syn(d)

	assert.Equal(t, []input.Action{input.ActionDown, input.ActionMove, input.ActionUp, input.ActionDown}, c.actions())
	assert.Equal(t, float32(35), c.motions[1].Pointers[0].X)
	// without a pressure axis a contact reads as full pressure
	assert.Equal(t, float32(1), c.motions[0].Pointers[0].Pressure)
}

func TestMouse(t *testing.T) {
	d, c := newDecoder(Info{Kind: KindMouse})

	feed(d, evRel, relX, 10)
	feed(d, evRel, relY, -5)
	syn(d)
	require.Len(t, c.motions, 1)
	move := c.motions[0]
	assert.Equal(t, input.ActionMove, move.Action)
	assert.Equal(t, input.SourceMouse, move.Source)
	assert.Equal(t, input.ToolMouse, move.ToolType())
	assert.True(t, move.Device.HasRelativeAxes)
	assert.Equal(t, float32(10), move.Axes.RelativeX)
	assert.Equal(t, float32(-5), move.Axes.RelativeY)
	assert.Equal(t, float32(260), move.X())
	assert.Equal(t, float32(120), move.Y())

	// the virtual cursor stays on the surface
	feed(d, evRel, relX, -10000)
	syn(d)
	assert.Equal(t, float32(0), c.motions[1].X())

	c.reset()
	feed(d, evRel, relWheel, 1)
	syn(d)
	require.Len(t, c.motions, 1)
	assert.Equal(t, input.ActionScroll, c.motions[0].Action)
	assert.Equal(t, float32(1), c.motions[0].Axes.VScroll)

	c.reset()
	feed(d, evKey, btnRight, 1)
	syn(d)
	feed(d, evKey, btnRight, 0)
	syn(d)
	assert.Equal(t, []input.Action{input.ActionButtonPress, input.ActionButtonRelease}, c.actions())
	assert.Equal(t, input.ButtonSecondary, c.motions[0].Buttons)
	assert.Zero(t, c.motions[1].Buttons)

	feed(d, evKey, btnSide, 1)
	feed(d, evKey, btnSide, 2)
	feed(d, evKey, btnSide, 0)
	require.Len(t, c.keys, 2)
	assert.Equal(t, input.KeyEvent{Action: input.KeyActionDown, KeyCode: input.KeyBack, Source: input.SourceMouse}, c.keys[0])
	assert.Equal(t, input.KeyActionUp, c.keys[1].Action)
}

func TestKeyboard(t *testing.T) {
	d, c := newDecoder(Info{Kind: KindKeyboard, Alphabetic: true})

	feed(d, evKey, keyLeftShift, 1)
	feed(d, evMsc, mscScan, 0x70004)
	feed(d, evKey, keyA, 1)
	feed(d, evKey, keyA, 2)
	feed(d, evKey, keyA, 2)
	feed(d, evKey, keyA, 0)
	feed(d, evKey, keyLeftShift, 0)

	require.Len(t, c.keys, 6)
	assert.Equal(t, input.MetaShift, c.keys[0].Meta)
	assert.Zero(t, c.keys[0].Rune)

	a := c.keys[1]
	assert.Equal(t, input.KeyActionDown, a.Action)
	assert.Equal(t, keyA, a.KeyCode)
	assert.Equal(t, 0x70004, a.ScanCode)
	assert.Equal(t, 'A', a.Rune)
	assert.True(t, a.Alphabetic)
	assert.Equal(t, input.SourceKeyboard, a.Source)

	assert.Equal(t, 1, c.keys[2].RepeatCount)
	assert.Equal(t, 2, c.keys[3].RepeatCount)
	assert.Zero(t, c.keys[3].ScanCode)
	assert.Equal(t, input.KeyActionUp, c.keys[4].Action)
	assert.Zero(t, c.keys[5].Meta)
}

func TestKeyboardCapsLockAndModifiers(t *testing.T) {
	d, c := newDecoder(Info{Kind: KindKeyboard, Alphabetic: true})

	feed(d, evKey, keyCapsLock, 1)
	feed(d, evKey, keyCapsLock, 0)
	feed(d, evKey, keyA, 1)
	feed(d, evKey, 2, 1) // '1' is not affected by caps lock
	feed(d, evKey, keyRightAlt, 1)
	feed(d, evKey, keyA, 1)

	require.Len(t, c.keys, 6)
	assert.Equal(t, 'A', c.keys[2].Rune)
	assert.Equal(t, '1', c.keys[3].Rune)
	assert.Equal(t, input.MetaCapsLock|input.MetaAltRight, c.keys[5].Meta)
}

func TestKeyRune(t *testing.T) {
	assert.Equal(t, 'q', keyRune(16, 0))
	assert.Equal(t, '?', keyRune(53, input.MetaShift))
	assert.Equal(t, ' ', keyRune(57, input.MetaShift))
	assert.Equal(t, '|', keyRune(43, input.MetaShift))
	assert.Equal(t, 'a', keyRune(keyA, input.MetaShift|input.MetaCapsLock))
	assert.Zero(t, keyRune(input.KeyVolumeUp, 0))
}

func TestPen(t *testing.T) {
	d, c := newDecoder(Info{
		Kind:     KindPen,
		X:        Axis{Max: 1000},
		Y:        Axis{Max: 1000},
		Pressure: Axis{Max: 4096},
		TiltX:    Axis{Min: -60, Max: 60, Resolution: 1},
		TiltY:    Axis{Min: -60, Max: 60, Resolution: 1},
	})

	feed(d, evKey, btnToolPen, 1)
	feed(d, evAbs, absX, 100)
	feed(d, evAbs, absY, 100)
	syn(d)

	feed(d, evKey, btnTouch, 1)
	feed(d, evAbs, absPressure, 2048)
	feed(d, evAbs, absTiltY, 30)
	syn(d)

	feed(d, evKey, btnStylus, 1)
	syn(d)

	feed(d, evKey, btnTouch, 0)
	syn(d)

	feed(d, evKey, btnToolPen, 0)
	syn(d)

	assert.Equal(t, []input.Action{
		input.ActionHoverMove, input.ActionDown, input.ActionMove, input.ActionUp, input.ActionHoverExit,
	}, c.actions())

	hover := c.motions[0]
	assert.Equal(t, input.SourceStylus, hover.Source)
	assert.Equal(t, input.ToolStylus, hover.ToolType())
	assert.Zero(t, hover.Pointers[0].Pressure)
	assert.True(t, hover.Device.HasTilt)
	assert.True(t, hover.Device.External)
	assert.Equal(t, float32(500), hover.Device.RangeX)

	down := c.motions[1]
	assert.InDelta(t, 0.5, down.Pointers[0].Pressure, 0.001)
	assert.InDelta(t, math.Pi/6, down.Axes.Tilt, 0.0001)
	assert.InDelta(t, 0, down.Axes.Orientation, 0.0001)

	assert.Equal(t, input.ButtonStylusPrimary, c.motions[2].Buttons)
}

func TestEraser(t *testing.T) {
	d, c := newDecoder(Info{Kind: KindPen, X: Axis{Max: 10}, Y: Axis{Max: 10}})

	feed(d, evKey, btnToolRubber, 1)
	feed(d, evKey, btnTouch, 1)
	syn(d)

	require.Len(t, c.motions, 1)
	assert.Equal(t, input.ToolEraser, c.motions[0].ToolType())
	assert.False(t, c.motions[0].Device.HasTilt)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		caps Capabilities
		want Kind
	}{
		{Capabilities{MultiTouch: true, Direct: true, AbsXY: true}, KindTouchscreen},
		{Capabilities{MultiTouch: true, AbsXY: true, Keys: true}, KindTouchpad},
		{Capabilities{Pen: true, AbsXY: true, MultiTouch: true, Direct: true}, KindPen},
		{Capabilities{AbsXY: true, Direct: true}, KindTouchscreen},
		{Capabilities{RelXY: true, Keys: true}, KindMouse},
		{Capabilities{Keys: true, Alphabetic: true}, KindKeyboard},
		{Capabilities{AbsXY: true}, KindUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.caps), "%+v", tt.caps)
	}
	assert.Equal(t, "touchpad", KindTouchpad.String())
}
