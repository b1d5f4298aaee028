package input

import (
	"sort"
	"time"

	"gioui.org/f32"

	"remotetouch/internal/render"
)

const (
	// maxTouchSlots bounds the scan for pointers the platform stopped
	// reporting without an up event.
	maxTouchSlots = 10

	maxDoubleClickInterval = 501 * time.Millisecond
	minDoubleClickInterval = 101 * time.Millisecond
	maxDoubleClickDistance = 15
)

type touchTracker struct {
	active map[int]f32.Point
	// held is a single-finger down whose TouchBegin is withheld because it
	// may turn into the second half of a double click.
	held *heldTouch
}

type heldTouch struct {
	id  int
	pos f32.Point
}

func newTouchTracker() touchTracker {
	return touchTracker{active: make(map[int]f32.Point)}
}

// doubleClick tracks the last touch-downs. touchCount is the number of
// downs in the current window; it drops to zero after a detected double
// click and back to one after a failed match.
type doubleClick struct {
	touchCount int
	prevTime   time.Time
	prevPos    f32.Point
	curTime    time.Time
	curPos     f32.Point
}

// ActiveTouches returns the ids that received TouchBegin without a TouchEnd.
func (s *EventSender) ActiveTouches() []int {
	ids := make([]int, 0, len(s.touches.active))
	for id := range s.touches.active {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// SendTouchEvent translates a raw touchscreen event into the remote
// touch-point protocol.
func (s *EventSender) SendTouchEvent(e *MotionEvent, r *render.Data) {
	switch e.Action {
	case ActionDown, ActionPointerDown:
		p, ok := e.ActionPointer()
		if !ok {
			return
		}
		pos := touchPoint(p, r)
		if e.Action == ActionDown {
			// A fresh gesture; anything still open lost its up event.
			s.endAll()
		}
		if e.Action == ActionDown && e.PointerCount() == 1 {
			if s.trackDown(pos) {
				s.touches.held = &heldTouch{id: p.ID, pos: pos}
				return
			}
		} else {
			s.releaseHeld()
			s.clicks.touchCount = 0
		}
		s.begin(p.ID, pos)

	case ActionMove:
		present := make(map[int]bool, len(e.Pointers))
		for _, p := range e.Pointers {
			present[p.ID] = true
			pos := touchPoint(p, r)
			if h := s.touches.held; h != nil && h.id == p.ID {
				// A finger held past the window or moved away is a touch.
				if s.windowExpired() || !withinDoubleClickDistance(h.pos, pos) {
					s.releaseHeld()
					s.clicks.touchCount = 0
				} else {
					continue
				}
			}
			if _, ok := s.touches.active[p.ID]; !ok {
				// Move without a recorded down; start the point here.
				s.begin(p.ID, pos)
			}
			s.touches.active[p.ID] = pos
			s.stub.SendTouchEvent(TouchUpdate, p.ID, int(pos.X), int(pos.Y))
		}
		// Some platforms drop the up event of fingers lifted together with
		// others; end every slot missing from this batch.
		for id := 0; id < maxTouchSlots; id++ {
			if present[id] {
				continue
			}
			if _, ok := s.touches.active[id]; ok {
				s.end(id, s.touches.active[id])
			}
		}

	case ActionUp, ActionPointerUp, ActionCancel:
		p, ok := e.ActionPointer()
		if ok {
			pos := touchPoint(p, r)
			if h := s.touches.held; h != nil && h.id == p.ID {
				s.touches.held = nil
				switch {
				case e.Action == ActionUp && s.matchDoubleClick():
					s.log.Debugw("folded double tap into double click", "x", s.clicks.prevPos.X, "y", s.clicks.prevPos.Y)
					s.SendMouseClick(s.clicks.prevPos, ButtonLeft, false)
					s.SendMouseClick(s.clicks.prevPos, ButtonLeft, false)
					s.clicks.touchCount = 0
				case s.windowExpired():
					s.clicks.touchCount = 0
					s.begin(h.id, h.pos)
					s.end(h.id, pos)
				default:
					s.rearm()
					s.begin(h.id, h.pos)
					s.end(h.id, pos)
				}
			} else if _, active := s.touches.active[p.ID]; active {
				s.end(p.ID, pos)
			}
		}
		if e.Action != ActionPointerUp {
			s.endAll()
		}
	}
}

// trackDown records a single-finger down and reports whether it may
// complete a double click.
func (s *EventSender) trackDown(pos f32.Point) bool {
	now := s.now()
	c := &s.clicks
	if c.touchCount == 0 || now.Sub(c.prevTime) >= maxDoubleClickInterval {
		c.prevTime, c.prevPos = now, pos
		c.touchCount = 1
		return false
	}
	c.curTime, c.curPos = now, pos
	c.touchCount++
	return true
}

// matchDoubleClick is checked on the second up, which must still fall
// inside the window opened by the first down.
func (s *EventSender) matchDoubleClick() bool {
	c := &s.clicks
	if c.touchCount < 2 || s.windowExpired() {
		return false
	}
	elapsed := c.curTime.Sub(c.prevTime)
	if elapsed <= minDoubleClickInterval || elapsed >= maxDoubleClickInterval {
		return false
	}
	return withinDoubleClickDistance(c.prevPos, c.curPos)
}

// windowExpired reports whether the double-click window opened by the
// first down has closed.
func (s *EventSender) windowExpired() bool {
	return s.now().Sub(s.clicks.prevTime) >= maxDoubleClickInterval
}

// rearm restarts the window from the most recent down.
func (s *EventSender) rearm() {
	c := &s.clicks
	c.touchCount = 1
	c.prevTime, c.prevPos = c.curTime, c.curPos
}

func (s *EventSender) releaseHeld() {
	h := s.touches.held
	if h == nil {
		return
	}
	s.touches.held = nil
	s.begin(h.id, h.pos)
}

func (s *EventSender) endAll() {
	s.releaseHeld()
	for _, id := range s.ActiveTouches() {
		s.end(id, s.touches.active[id])
	}
}

func (s *EventSender) begin(id int, pos f32.Point) {
	if _, ok := s.touches.active[id]; ok {
		return
	}
	s.touches.active[id] = pos
	s.stub.SendTouchEvent(TouchBegin, id, int(pos.X), int(pos.Y))
}

func (s *EventSender) end(id int, pos f32.Point) {
	delete(s.touches.active, id)
	s.stub.SendTouchEvent(TouchEnd, id, int(pos.X), int(pos.Y))
}

func touchPoint(p Pointer, r *render.Data) f32.Point {
	return r.Clamp(r.ToImagePoint(p.X, p.Y))
}

func withinDoubleClickDistance(a, b f32.Point) bool {
	d := a.Sub(b)
	return abs(d.X) <= maxDoubleClickDistance && abs(d.Y) <= maxDoubleClickDistance
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
