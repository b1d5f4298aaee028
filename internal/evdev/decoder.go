package evdev

import (
	"math"
	"time"

	"remotetouch/internal/input"
)

// Kind classifies a device by how its events are decoded.
type Kind int

const (
	KindUnknown Kind = iota
	KindTouchscreen
	KindTouchpad
	KindMouse
	KindPen
	KindKeyboard
)

var kindNames = [...]string{"unknown", "touchscreen", "touchpad", "mouse", "pen", "keyboard"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Axis is the reported range of an absolute axis.
type Axis struct {
	Min, Max int32
	// Resolution is in units per millimetre, or units per degree for tilt.
	Resolution int32
}

func (a Axis) valid() bool { return a.Max > a.Min }

// scale maps v onto [0, size].
func (a Axis) scale(v int32, size float32) float32 {
	if !a.valid() {
		return float32(v)
	}
	return float32(v-a.Min) / float32(a.Max-a.Min) * size
}

// normalize maps v onto [0, 1]; an unknown axis reads as 1.
func (a Axis) normalize(v int32) float32 {
	if !a.valid() {
		return 1
	}
	return float32(v-a.Min) / float32(a.Max-a.Min)
}

// angle maps v to radians around the middle of the axis.
func (a Axis) angle(v int32) float64 {
	center := float64(a.Min+a.Max) / 2
	deg := float64(v) - center
	if a.Resolution > 0 {
		deg /= float64(a.Resolution)
	}
	return deg * math.Pi / 180
}

// Capabilities is what a device advertises, reduced to what classification needs.
type Capabilities struct {
	Direct     bool // INPUT_PROP_DIRECT
	MultiTouch bool // ABS_MT_POSITION_X
	AbsXY      bool
	Pen        bool // BTN_TOOL_PEN
	RelXY      bool
	Alphabetic bool // KEY_A
	Keys       bool
}

// Classify picks the decoding Kind for a device.
func Classify(c Capabilities) Kind {
	switch {
	case c.Pen && c.AbsXY:
		return KindPen
	case c.MultiTouch && c.Direct:
		return KindTouchscreen
	case c.MultiTouch:
		return KindTouchpad
	case c.AbsXY && c.Direct:
		return KindTouchscreen
	case c.RelXY:
		return KindMouse
	case c.Keys:
		return KindKeyboard
	}
	return KindUnknown
}

// Info describes a device to its Decoder.
type Info struct {
	Name       string
	Kind       Kind
	MultiTouch bool
	Alphabetic bool
	X, Y       Axis
	// Pressure is ABS_MT_PRESSURE on multitouch devices, ABS_PRESSURE otherwise.
	Pressure     Axis
	TiltX, TiltY Axis
}

func (i Info) hasTilt() bool { return i.TiltX.valid() && i.TiltY.valid() }

// RawEvent is one kernel input_event.
type RawEvent struct {
	Time  time.Time
	Type  uint16
	Code  uint16
	Value int32
}

type slot struct {
	id          int32
	x, y, press int32
}

// contact is a pointer as last reported downstream.
type contact struct {
	index int
	last  slot
}

// Decoder assembles raw events into motion and key events. It is not safe
// for concurrent use; callbacks run on the goroutine calling Feed.
type Decoder struct {
	OnMotion func(*input.MotionEvent)
	OnKey    func(input.KeyEvent)

	info          Info
	width, height float32

	slots    [maxSlots]slot
	cur      int
	nextID   int32
	contacts []contact

	buttons      input.ButtonState
	lastButtons  input.ButtonState
	buttonsDirty bool

	touching, inRange, eraser bool
	penDown, hovering         bool
	tiltX, tiltY              int32
	lastPen                   slot
	lastTiltX, lastTiltY      int32

	cursorX, cursorY float32
	relX, relY       int32
	wheel, hwheel    int32

	meta    input.Meta
	scan    int32
	repeats int
}

// NewDecoder returns a decoder that maps absolute positions onto a
// width x height surface.
func NewDecoder(info Info, width, height float32) *Decoder {
	d := &Decoder{
		info:    info,
		width:   width,
		height:  height,
		cursorX: width / 2,
		cursorY: height / 2,
	}
	for i := range d.slots {
		d.slots[i].id = -1
	}
	return d
}

// Info returns the device description.
func (d *Decoder) Info() Info {
	return d.info
}

// Feed consumes one raw event.
func (d *Decoder) Feed(ev RawEvent) {
	switch ev.Type {
	case evMsc:
		if ev.Code == mscScan {
			d.scan = ev.Value
		}
	case evKey:
		d.key(ev)
	case evRel:
		d.rel(ev)
	case evAbs:
		d.abs(ev)
	case evSyn:
		if ev.Code == synReport {
			d.sync(ev.Time)
		}
	}
}

func (d *Decoder) key(ev RawEvent) {
	code := int(ev.Code)
	pressed := ev.Value != 0
	switch code {
	case btnLeft:
		d.setButton(input.ButtonPrimary, pressed)
	case btnRight:
		d.setButton(input.ButtonSecondary, pressed)
	case btnMiddle:
		d.setButton(input.ButtonTertiary, pressed)
	case btnStylus:
		d.setButton(input.ButtonStylusPrimary, pressed)
	case btnStylus2:
		d.setButton(input.ButtonStylusSecondary, pressed)
	case btnSide:
		// the mouse back button
		if ev.Value != 2 {
			d.emitKey(input.KeyEvent{Action: keyAction(pressed), KeyCode: input.KeyBack, Source: input.SourceMouse})
		}
	case btnTouch:
		if d.info.MultiTouch {
			return
		}
		d.touching = pressed
		if d.info.Kind != KindPen {
			if pressed {
				d.slots[0].id = d.nextID
				d.nextID++
			} else {
				d.slots[0].id = -1
			}
		}
	case btnToolPen:
		d.inRange = pressed
	case btnToolRubber:
		d.inRange = pressed
		d.eraser = pressed
	default:
		if code < 0x100 || code >= 0x160 {
			d.keyboard(code, ev.Value)
		}
	}
}

func keyAction(down bool) input.KeyAction {
	if down {
		return input.KeyActionDown
	}
	return input.KeyActionUp
}

func (d *Decoder) setButton(b input.ButtonState, pressed bool) {
	if pressed {
		d.buttons |= b
	} else {
		d.buttons &^= b
	}
	d.buttonsDirty = true
}

func (d *Decoder) keyboard(code int, value int32) {
	if m, ok := modifierKeys[code]; ok {
		if value != 0 {
			d.meta |= m
		} else {
			d.meta &^= m
		}
	}
	if code == keyCapsLock && value == 1 {
		d.meta ^= input.MetaCapsLock
	}

	e := input.KeyEvent{
		KeyCode:    code,
		ScanCode:   int(d.scan),
		Meta:       d.meta,
		Source:     input.SourceKeyboard,
		Alphabetic: d.info.Alphabetic,
	}
	d.scan = 0
	switch value {
	case 0:
		e.Action = input.KeyActionUp
		d.repeats = 0
	case 1:
		e.Action = input.KeyActionDown
		d.repeats = 0
	default:
		e.Action = input.KeyActionDown
		d.repeats++
		e.RepeatCount = d.repeats
	}
	e.Rune = keyRune(code, d.meta)
	d.emitKey(e)
}

func (d *Decoder) rel(ev RawEvent) {
	switch ev.Code {
	case relX:
		d.relX += ev.Value
	case relY:
		d.relY += ev.Value
	case relWheel:
		d.wheel += ev.Value
	case relHWheel:
		d.hwheel += ev.Value
	}
}

func (d *Decoder) abs(ev RawEvent) {
	v := ev.Value
	if d.info.MultiTouch {
		switch ev.Code {
		case absMTSlot:
			d.cur = -1
			if v >= 0 && v < maxSlots {
				d.cur = int(v)
			}
			return
		case absTiltX:
			d.tiltX = v
			return
		case absTiltY:
			d.tiltY = v
			return
		}
		if d.cur < 0 {
			return
		}
		s := &d.slots[d.cur]
		switch ev.Code {
		case absMTTrackingID:
			s.id = v
		case absMTPositionX:
			s.x = v
		case absMTPositionY:
			s.y = v
		case absMTPressure:
			s.press = v
		}
		return
	}

	s := &d.slots[0]
	switch ev.Code {
	case absX:
		s.x = v
	case absY:
		s.y = v
	case absPressure:
		s.press = v
	case absTiltX:
		d.tiltX = v
	case absTiltY:
		d.tiltY = v
	}
}

func (d *Decoder) sync(t time.Time) {
	switch d.info.Kind {
	case KindTouchscreen, KindTouchpad:
		d.syncTouch(t)
	case KindPen:
		d.syncPen(t)
	case KindMouse:
		d.syncMouse(t)
	}
	d.buttonsDirty = false
}

// syncTouch reports lifted contacts first, then movement of the remaining
// ones, then new contacts in slot order.
func (d *Decoder) syncTouch(t time.Time) {
	for i := 0; i < len(d.contacts); {
		c := d.contacts[i]
		if d.slots[c.index].id == c.last.id {
			i++
			continue
		}
		action := input.ActionPointerUp
		if len(d.contacts) == 1 {
			action = input.ActionUp
		}
		d.emitContacts(action, i, t)
		d.contacts = append(d.contacts[:i], d.contacts[i+1:]...)
	}

	moved := d.buttonsDirty
	for i := range d.contacts {
		c := &d.contacts[i]
		if s := d.slots[c.index]; s != c.last {
			c.last = s
			moved = true
		}
	}
	if moved && len(d.contacts) > 0 {
		d.emitContacts(input.ActionMove, 0, t)
	}

	for i, s := range d.slots {
		if s.id < 0 || d.tracked(i) {
			continue
		}
		d.contacts = append(d.contacts, contact{index: i, last: s})
		action := input.ActionPointerDown
		if len(d.contacts) == 1 {
			action = input.ActionDown
		}
		d.emitContacts(action, len(d.contacts)-1, t)
	}
}

func (d *Decoder) tracked(slot int) bool {
	for _, c := range d.contacts {
		if c.index == slot {
			return true
		}
	}
	return false
}

func (d *Decoder) emitContacts(action input.Action, index int, t time.Time) {
	ptrs := make([]input.Pointer, len(d.contacts))
	for i, c := range d.contacts {
		ptrs[i] = input.Pointer{
			ID:       c.index,
			X:        d.info.X.scale(c.last.x, d.width),
			Y:        d.info.Y.scale(c.last.y, d.height),
			Tool:     input.ToolFinger,
			Pressure: d.info.Pressure.normalize(c.last.press),
		}
	}
	source := input.SourceTouchscreen
	if d.info.Kind == KindTouchpad {
		source = input.SourceTouchpad
	}
	d.emitMotion(&input.MotionEvent{
		Action:      action,
		ActionIndex: index,
		Pointers:    ptrs,
		Source:      source,
		Buttons:     d.buttons,
		Time:        t,
		Device:      d.device(),
	})
}

func (d *Decoder) syncPen(t time.Time) {
	s := d.slots[0]
	changed := s != d.lastPen || d.buttonsDirty || d.tiltX != d.lastTiltX || d.tiltY != d.lastTiltY
	d.lastPen, d.lastTiltX, d.lastTiltY = s, d.tiltX, d.tiltY

	switch {
	case d.touching && !d.penDown:
		d.penDown = true
		d.hovering = false
		d.emitPen(input.ActionDown, t)
	case !d.touching && d.penDown:
		d.penDown = false
		d.hovering = d.inRange
		d.emitPen(input.ActionUp, t)
	case d.touching && changed:
		d.emitPen(input.ActionMove, t)
	case !d.touching && d.inRange && changed:
		d.hovering = true
		d.emitPen(input.ActionHoverMove, t)
	case !d.inRange && d.hovering:
		d.hovering = false
		d.emitPen(input.ActionHoverExit, t)
	}
}

func (d *Decoder) emitPen(action input.Action, t time.Time) {
	s := d.slots[0]
	tool := input.ToolStylus
	if d.eraser {
		tool = input.ToolEraser
	}
	var pressure float32
	if d.touching {
		pressure = d.info.Pressure.normalize(s.press)
	}
	e := &input.MotionEvent{
		Action: action,
		Pointers: []input.Pointer{{
			X:        d.info.X.scale(s.x, d.width),
			Y:        d.info.Y.scale(s.y, d.height),
			Tool:     tool,
			Pressure: pressure,
		}},
		Source:  input.SourceStylus,
		Buttons: d.buttons,
		Time:    t,
		Device:  d.device(),
	}
	if d.info.hasTilt() {
		tx := d.info.TiltX.angle(d.tiltX)
		ty := d.info.TiltY.angle(d.tiltY)
		e.Axes.Orientation = float32(math.Atan2(-math.Sin(tx), math.Sin(ty)))
		e.Axes.Tilt = float32(math.Acos(math.Cos(tx) * math.Cos(ty)))
	}
	d.emitMotion(e)
}

func (d *Decoder) syncMouse(t time.Time) {
	if d.relX != 0 || d.relY != 0 {
		dx, dy := float32(d.relX), float32(d.relY)
		d.cursorX = clampf(d.cursorX+dx, 0, d.width)
		d.cursorY = clampf(d.cursorY+dy, 0, d.height)
		e := d.mouseEvent(input.ActionMove, t)
		e.Axes.RelativeX, e.Axes.RelativeY = dx, dy
		d.emitMotion(e)
		d.relX, d.relY = 0, 0
	}
	if d.wheel != 0 || d.hwheel != 0 {
		e := d.mouseEvent(input.ActionScroll, t)
		e.Axes.VScroll, e.Axes.HScroll = float32(d.wheel), float32(d.hwheel)
		d.emitMotion(e)
		d.wheel, d.hwheel = 0, 0
	}
	if d.buttonsDirty && d.buttons != d.lastButtons {
		action := input.ActionButtonRelease
		if d.buttons&^d.lastButtons != 0 {
			action = input.ActionButtonPress
		}
		d.lastButtons = d.buttons
		d.emitMotion(d.mouseEvent(action, t))
	}
}

func (d *Decoder) mouseEvent(action input.Action, t time.Time) *input.MotionEvent {
	return &input.MotionEvent{
		Action:   action,
		Pointers: []input.Pointer{{X: d.cursorX, Y: d.cursorY, Tool: input.ToolMouse}},
		Source:   input.SourceMouse,
		Buttons:  d.buttons,
		Time:     t,
		Device:   input.Device{HasRelativeAxes: true, External: true},
	}
}

func (d *Decoder) device() input.Device {
	return input.Device{
		HasTilt:        d.info.hasTilt(),
		HasOrientation: d.info.hasTilt(),
		External:       true,
		RangeX:         d.width,
		RangeY:         d.height,
	}
}

func (d *Decoder) emitMotion(e *input.MotionEvent) {
	if d.OnMotion != nil {
		d.OnMotion(e)
	}
}

func (d *Decoder) emitKey(e input.KeyEvent) {
	if d.OnKey != nil {
		d.OnKey(e)
	}
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
