package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remotetouch/internal/gesture"
	"remotetouch/internal/input"
	"remotetouch/internal/input/inputtest"
	"remotetouch/internal/render"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newStrategy(kind Kind) (*Strategy, *inputtest.Recorder, *render.Data, *clock) {
	rec := &inputtest.Recorder{}
	clk := &clock{t: time.Unix(1000, 0)}
	sender := input.NewEventSender(rec, clk.now, nil)
	r := render.New()
	r.Update(100, 100, 200, 200)
	return New(kind, sender, r, gesture.DefaultConfig(1), clk.now), rec, r, clk
}

func up() *input.MotionEvent {
	return &input.MotionEvent{Action: input.ActionUp, Pointers: []input.Pointer{{Tool: input.ToolFinger}}}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"touch": Null, "simulated-touch": SimulatedTouch, "trackpad": Trackpad, "": Trackpad} {
		got, err := ParseKind(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseKind("joystick")
	assert.Error(t, err)
}

func TestTrackpadButtonSymmetry(t *testing.T) {
	s, rec, _, _ := newStrategy(Trackpad)

	require.True(t, s.OnPressAndHold(input.ButtonRight, false))
	assert.Equal(t, input.ButtonRight, s.HeldButton())

	s.OnMotionEvent(&input.MotionEvent{Action: input.ActionMove})
	s.OnMotionEvent(up())
	s.OnMotionEvent(up())
	s.OnMotionEvent(&input.MotionEvent{Action: input.ActionCancel})

	buttons := rec.Buttons()
	require.Len(t, buttons, 2)
	assert.True(t, buttons[0].Down)
	assert.False(t, buttons[1].Down)
	assert.Equal(t, input.ButtonRight, buttons[1].Button)
	assert.True(t, buttons[1].Relative)
	assert.Equal(t, input.ButtonUndefined, s.HeldButton())
}

func TestTrackpadTapToMove(t *testing.T) {
	s, rec, _, _ := newStrategy(Trackpad)
	s.sender.TapToMove = true

	assert.False(t, s.OnPressAndHold(input.ButtonLeft, false))
	assert.Empty(t, rec.Events)
	assert.True(t, s.OnPressAndHold(input.ButtonLeft, true))
	assert.Len(t, rec.Buttons(), 1)
}

func TestTrackpadTapIsRelativeClick(t *testing.T) {
	s, rec, _, _ := newStrategy(Trackpad)
	s.OnTap(input.ButtonMiddle)

	buttons := rec.Buttons()
	require.Len(t, buttons, 2)
	for _, b := range buttons {
		assert.Equal(t, input.ButtonMiddle, b.Button)
		assert.True(t, b.Relative)
	}
}

func TestSimulatedTouchDoubleTap(t *testing.T) {
	s, rec, r, clk := newStrategy(SimulatedTouch)

	r.SetCursorPosition(100, 100)
	s.OnTap(input.ButtonLeft)
	clk.t = clk.t.Add(100 * time.Millisecond)
	// 20 image px is 10 view px, inside the 25px slop.
	r.SetCursorPosition(120, 100)
	s.OnTap(input.ButtonLeft)

	buttons := rec.Buttons()
	require.Len(t, buttons, 4)
	assert.Equal(t, float32(100), buttons[2].X, "second click lands on the first tap")
	assert.False(t, buttons[2].Relative)

	// A third tap does not pair with the second.
	rec.Reset()
	clk.t = clk.t.Add(100 * time.Millisecond)
	r.SetCursorPosition(130, 100)
	s.OnTap(input.ButtonLeft)
	assert.Equal(t, float32(130), rec.Buttons()[0].X)
}

func TestSimulatedTouchTapOutsideSlopOrTimeout(t *testing.T) {
	s, rec, r, clk := newStrategy(SimulatedTouch)

	r.SetCursorPosition(100, 100)
	s.OnTap(input.ButtonLeft)
	clk.t = clk.t.Add(100 * time.Millisecond)
	r.SetCursorPosition(180, 100)
	s.OnTap(input.ButtonLeft)
	assert.Equal(t, float32(180), rec.Buttons()[2].X)

	rec.Reset()
	clk.t = clk.t.Add(time.Second)
	r.SetCursorPosition(181, 100)
	s.OnTap(input.ButtonLeft)
	assert.Equal(t, float32(181), rec.Buttons()[0].X)

	// Another button clears the tracking.
	rec.Reset()
	s.OnTap(input.ButtonRight)
	s.OnTap(input.ButtonLeft)
	assert.Equal(t, float32(181), rec.Buttons()[2].X)
	assert.NotNil(t, s.lastTapPoint)
}

func TestSimulatedTouchPressAndHold(t *testing.T) {
	s, rec, r, _ := newStrategy(SimulatedTouch)
	r.SetCursorPosition(40, 60)

	require.True(t, s.OnPressAndHold(input.ButtonLeft, false))
	r.SetCursorPosition(70, 60)
	s.OnMotionEvent(up())

	buttons := rec.Buttons()
	require.Len(t, buttons, 2)
	assert.Equal(t, float32(40), buttons[0].X)
	assert.Equal(t, float32(70), buttons[1].X)
	assert.False(t, buttons[1].Relative)
}

func TestNullIgnoresGestures(t *testing.T) {
	s, rec, _, _ := newStrategy(Null)

	s.OnTap(input.ButtonLeft)
	assert.False(t, s.OnPressAndHold(input.ButtonLeft, true))
	s.OnScroll(1, 2)
	s.OnMotionEvent(up())
	assert.Empty(t, rec.Events)
}

func TestScroll(t *testing.T) {
	s, rec, _, _ := newStrategy(Trackpad)
	s.OnScroll(3, -4)
	w := rec.Of(inputtest.Wheel)
	require.Len(t, w, 1)
	assert.Equal(t, float32(3), w[0].DeltaX)
	assert.Equal(t, float32(-4), w[0].DeltaY)
}
