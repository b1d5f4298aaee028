// Package touch routes pointer events from the local view to the remote
// host. It picks a listener by tool and source, runs finger input through
// the gesture detectors and the active interaction strategy, and routes
// keys to user actions or the input sink.
package touch

import (
	"gioui.org/f32"
	"go.uber.org/zap"

	"remotetouch/internal/action"
	"remotetouch/internal/gesture"
	"remotetouch/internal/input"
	"remotetouch/internal/render"
	"remotetouch/internal/sched"
	"remotetouch/internal/strategy"
)

// epsilon is the tolerance when testing whether a tap lies on the image.
const epsilon = 0.001

// View is the surface events are delivered to.
type View interface {
	// LocationInWindow returns the view's top-left corner in window pixels.
	LocationInWindow() (x, y int)
	HasPointerCapture() bool
	RequestPointerCapture()
	ReleasePointerCapture()
}

// Options configure a Handler.
type Options struct {
	// Density is the display density in pixels per density-independent
	// pixel. Zero means 1.
	Density float32
	// NoTouchpad builds the handler without the nested touchpad handler;
	// touchpad input is then treated as a relative mouse.
	NoTouchpad bool
}

// Handler is the top-level touch input state machine. It is not safe for
// concurrent use; events, timers and setters must all run on the dispatch
// loop.
type Handler struct {
	log    *zap.SugaredLogger
	sender *input.EventSender
	sched  sched.Scheduler
	cfg    gesture.Config
	render *render.Data

	strategy *strategy.Strategy
	scroller *gesture.ScrollDetector
	tap      *gesture.TapDetector
	swipe    *gesture.SwipeDetector
	gestures *gestureListener

	mouse          *hardwareMouse
	stylus         *stylusListener
	dex            *dexListener
	touchpadButton buttonTracker

	// touchpad handles captured touchpad input in trackpad mode. It is nil
	// for the nested handler itself and with Options.NoTouchpad.
	touchpad   *Handler
	isTouchpad bool

	actions *action.Manager
	view    View

	// hostSized is set once the host reported its framebuffer size.
	hostSized bool

	density          float32
	swipeThreshold   float32
	pointerTransform PointerTransform
	displayRotation  int
	stylusHelperMode int

	// totalMotionY accumulates vertical movement of a 3+ finger swipe.
	totalMotionY float32
	// suppressCursorMovement stops single-finger movement for the rest of
	// the gesture once it was used for a swipe or scroll.
	suppressCursorMovement bool
	swipeCompleted         bool
	// isDragging is set when a single-finger pan started with a long press.
	isDragging bool
}

// New builds a handler that sends through sender and schedules its timers
// on s.
func New(log *zap.SugaredLogger, sender *input.EventSender, s sched.Scheduler, opts Options) *Handler {
	h := newHandler(log, sender, s, opts.Density, false)
	if !opts.NoTouchpad {
		h.touchpad = newHandler(log.Named("touchpad"), sender, s, opts.Density, true)
	}
	return h
}

func newHandler(log *zap.SugaredLogger, sender *input.EventSender, s sched.Scheduler, density float32, isTouchpad bool) *Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if density <= 0 {
		density = 1
	}
	cfg := gesture.DefaultConfig(density)
	h := &Handler{
		log:              log,
		sender:           sender,
		sched:            s,
		cfg:              cfg,
		render:           render.New(),
		isTouchpad:       isTouchpad,
		density:          density,
		swipeThreshold:   40 * density,
		stylusHelperMode: StylusHelperLeft,
	}
	h.gestures = &gestureListener{h: h, pendingClicks: make(map[input.Button][]sched.Handle)}
	h.scroller = gesture.NewScrollDetector(cfg, s, h.gestures)
	h.tap = gesture.NewTapDetector(cfg, s, h.gestures)
	h.swipe = gesture.NewSwipeDetector(cfg)
	h.mouse = &hardwareMouse{h: h}
	h.stylus = &stylusListener{h: h}
	h.dex = newDexListener(h)
	h.strategy = strategy.New(strategy.Trackpad, sender, h.render, cfg, s.Now)
	return h
}

// Render exposes the handler's geometry.
func (h *Handler) Render() *render.Data {
	return h.render
}

// InputMode returns the kind of the active strategy.
func (h *Handler) InputMode() strategy.Kind {
	return h.strategy.Kind()
}

// HandleTouchEvent processes one event delivered to target, which lives
// inside root. It reports whether the event was consumed.
func (h *Handler) HandleTouchEvent(root, target View, e *input.MotionEvent) bool {
	if target != nil {
		h.view = target
	}
	if root != nil && target != nil && root != target {
		rx, ry := root.LocationInWindow()
		tx, ty := target.LocationInWindow()
		h.render.OffsetX = tx - rx
		h.render.OffsetY = ty - ry
	}

	if e.Action == input.ActionUp {
		h.setCapturing(true)
	}

	tool := e.ToolType()
	switch {
	case tool == input.ToolStylus || tool == input.ToolEraser:
		return h.stylus.onTouch(target, e)

	case !isDexEvent(e) && (tool == input.ToolMouse || e.IsFromSource(input.SourceMouse)),
		e.IsFromSource(input.SourceMouseRelative):
		return h.mouse.onTouch(target, e)

	case h.touchpad == nil && !h.isTouchpad && e.IsFromSource(input.SourceTouchpad) && e.PointerCount() == 1:
		return h.mouse.onTouch(target, e)

	case tool == input.ToolFinger:
		if isDexEvent(e) && h.dex.onTouch(e) {
			return true
		}
		if h.touchpad != nil && e.IsFromSource(input.SourceTouchpad) {
			h.touchpad.view = target
			return h.touchpad.handleFinger(e)
		}
		return h.handleFinger(e)
	}
	return false
}

// handleFinger is the standard path for finger input.
func (h *Handler) handleFinger(e *input.MotionEvent) bool {
	if e.Action == input.ActionScroll {
		h.sender.SendMouseWheelEvent(-100*e.Axes.HScroll, -100*e.Axes.VScroll)
		return true
	}

	if h.strategy.Kind() == strategy.Null {
		h.sender.SendTouchEvent(e, h.render)
		return true
	}

	h.strategy.OnMotionEvent(e)

	// Every detector sees every event so their state stays consistent.
	h.scroller.OnTouchEvent(e)
	h.tap.OnTouchEvent(e)
	h.swipe.OnTouchEvent(e)

	// Physical buttons of a captured touchpad.
	if e.IsFromSource(input.SourceTouchpad) {
		h.touchpadButton.update(e.Buttons, func(b input.Button, down bool) {
			h.sender.SendMouseEvent(f32.Point{}, b, down, true)
		})
	}

	switch e.Action {
	case input.ActionDown:
		h.suppressCursorMovement = false
		h.swipeCompleted = false
		h.isDragging = false
	case input.ActionPointerDown:
		h.totalMotionY = 0
	}
	return true
}

// HandleClientSizeChanged records a new local view size. Until the host
// reports its size the image is assumed to match the view.
func (h *Handler) HandleClientSizeChanged(w, hgt int) {
	if !h.hostSized {
		h.render.SetImageSize(w, hgt)
	}
	h.render.SetScreenSize(w, hgt)
	h.recenter()
	if h.touchpad != nil {
		h.touchpad.HandleClientSizeChanged(w, hgt)
	}
}

// HandleHostSizeChanged records a new remote framebuffer size.
func (h *Handler) HandleHostSizeChanged(w, hgt int) {
	h.hostSized = true
	h.render.SetImageSize(w, hgt)
	h.recenter()
	if h.touchpad != nil {
		h.touchpad.HandleHostSizeChanged(w, hgt)
	}
}

func (h *Handler) recenter() {
	c := h.render.Center()
	h.render.SetCursorPosition(c.X, c.Y)
}

// SetInputMode switches the interaction strategy. The nested touchpad
// handler always stays in trackpad mode.
func (h *Handler) SetInputMode(kind strategy.Kind) {
	if h.isTouchpad {
		kind = strategy.Trackpad
	}
	if h.strategy.Kind() == kind {
		return
	}
	// Do not leave a button pressed on the remote side.
	h.strategy.OnMotionEvent(&input.MotionEvent{Action: input.ActionCancel})
	h.strategy = strategy.New(kind, h.sender, h.render, h.cfg, h.sched.Now)
	h.log.Debugw("input mode changed", "mode", kind)
}

func (h *Handler) SetTapToMove(enabled bool) {
	h.sender.TapToMove = enabled
}

func (h *Handler) SetPreferScancodes(enabled bool) {
	h.sender.PreferScancodes = enabled
}

// SetPointerCaptureEnabled allows relative mouse input. Disabling it drops
// any capture the view currently holds.
func (h *Handler) SetPointerCaptureEnabled(enabled bool) {
	h.sender.PointerCapture = enabled
	if !enabled && h.view != nil && h.view.HasPointerCapture() {
		h.view.ReleasePointerCapture()
	}
}

func (h *Handler) SetApplyDisplayScaleFactorToTouchpad(enabled bool) {
	h.sender.ScaleTouchpad = enabled
}

// SetLongPressedDelay scales the long-press timeout.
func (h *Handler) SetLongPressedDelay(multiplier float32) {
	h.tap.SetLongPressDelay(multiplier)
	if h.touchpad != nil {
		h.touchpad.SetLongPressedDelay(multiplier)
	}
}

// SetCapturedPointerTransform sets the rotation applied to captured
// relative input.
func (h *Handler) SetCapturedPointerTransform(t PointerTransform) {
	h.pointerTransform = t
	if h.touchpad != nil {
		h.touchpad.SetCapturedPointerTransform(t)
	}
}

// SetCapturedPointerSpeedFactor multiplies captured relative deltas.
func (h *Handler) SetCapturedPointerSpeedFactor(f float32) {
	h.sender.CapturedPointerSpeedFactor = f
}

// SetDisplayRotation records the display rotation in quarter turns, used by
// PointerTransformAuto.
func (h *Handler) SetDisplayRotation(quarterTurns int) {
	h.displayRotation = ((quarterTurns % 4) + 4) % 4
	if h.touchpad != nil {
		h.touchpad.SetDisplayRotation(quarterTurns)
	}
}

// SetStylusHelperMode sets the button reported while the stylus touches the
// surface.
func (h *Handler) SetStylusHelperMode(mode int) {
	switch mode {
	case StylusHelperLeft, StylusHelperMiddle, StylusHelperRight:
		h.stylusHelperMode = mode
	default:
		h.stylusHelperMode = StylusHelperLeft
	}
}

// SetActions installs the user-action bindings.
func (h *Handler) SetActions(m *action.Manager) {
	h.actions = m
	if h.touchpad != nil {
		h.touchpad.SetActions(m)
	}
}

// ReleasePointerCapture drops pointer capture on the last view that
// delivered an event.
func (h *Handler) ReleasePointerCapture() {
	h.setCapturing(false)
}

func (h *Handler) setCapturing(enabled bool) {
	if h.view == nil {
		return
	}
	if h.sender.PointerCapture && enabled {
		if !h.view.HasPointerCapture() {
			h.view.RequestPointerCapture()
		}
		return
	}
	if h.view.HasPointerCapture() {
		h.view.ReleasePointerCapture()
	}
}

// moveCursorByOffset moves the cursor opposite to a scroll distance.
func (h *Handler) moveCursorByOffset(distanceX, distanceY float32) {
	switch h.strategy.Kind() {
	case strategy.Trackpad:
		h.sender.SendCursorMove(-distanceX, -distanceY, true)
	case strategy.SimulatedTouch:
		p := h.render.Clamp(h.render.CursorPosition().Sub(f32.Pt(distanceX, distanceY)))
		if h.render.SetCursorPosition(p.X, p.Y) {
			h.sender.SendCursorMove(p.X, p.Y, false)
		}
	}
}

// moveCursorToScreenPoint places the cursor under a view-space point.
func (h *Handler) moveCursorToScreenPoint(x, y float32) {
	if h.strategy.Kind() == strategy.Null {
		return
	}
	p := h.render.ToImagePoint(x, y)
	if h.render.SetCursorPosition(p.X, p.Y) {
		h.sender.SendCursorMove(p.X, p.Y, false)
	}
}

func (h *Handler) outsideImage(x, y float32) bool {
	p := h.render.ToImagePoint(x, y)
	w := float32(h.render.ImageWidth) + epsilon
	hgt := float32(h.render.ImageHeight) + epsilon
	return p.X < -epsilon || p.X > w || p.Y < -epsilon || p.Y > hgt
}

// onSwipe fires the swipe actions once the accumulated movement crosses
// the threshold.
func (h *Handler) onSwipe() {
	switch {
	case h.totalMotionY > h.swipeThreshold:
		h.log.Debugw("swipe down", "distance", h.totalMotionY)
		h.actions.Fire(action.SwipeDown, 0, true)
	case h.totalMotionY < -h.swipeThreshold:
		h.log.Debugw("swipe up", "distance", h.totalMotionY)
		h.actions.Fire(action.SwipeUp, 0, true)
	default:
		return
	}
	h.suppressCursorMovement = true
	h.swipeCompleted = true
}

// isDexEvent reports finger events from a desktop-mode trackpad, which are
// flagged as both mouse and touchscreen.
func isDexEvent(e *input.MotionEvent) bool {
	return e.IsFromSource(input.SourceDex) &&
		!e.IsFromSource(input.SourceTouchpad) &&
		e.ToolType() == input.ToolFinger
}
