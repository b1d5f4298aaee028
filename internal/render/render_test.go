package render

import (
	"testing"

	"gioui.org/f32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaleFollowsSizes(t *testing.T) {
	d := New()
	d.SetScreenSize(1000, 500)
	assert.Equal(t, f32.Pt(1, 1), d.Scale, "scale must wait for the image size")

	d.SetImageSize(2000, 2000)
	assert.InDelta(t, 2.0, d.Scale.X, 1e-6)
	assert.InDelta(t, 4.0, d.Scale.Y, 1e-6)
}

func TestToImagePointAppliesOffset(t *testing.T) {
	d := New()
	d.Update(100, 100, 200, 300)
	d.OffsetX, d.OffsetY = 10, 20

	p := d.ToImagePoint(60, 70)
	assert.InDelta(t, 100, p.X, 1e-4)
	assert.InDelta(t, 150, p.Y, 1e-4)

	q := d.Transform().Transform(f32.Pt(60, 70))
	assert.InDelta(t, p.X, q.X, 1e-4)
	assert.InDelta(t, p.Y, q.Y, 1e-4)
}

func TestCoordinateRoundTrip(t *testing.T) {
	sizes := [][4]int{
		{1920, 1080, 1280, 720},
		{800, 600, 800, 600},
		{1080, 2340, 3840, 2160},
		{3, 7, 11, 13},
	}
	points := []f32.Point{{}, f32.Pt(1, 1), f32.Pt(17.5, 3.25), f32.Pt(640, 480)}

	for _, s := range sizes {
		d := New()
		d.Update(s[0], s[1], s[2], s[3])
		d.OffsetX, d.OffsetY = 4, 9
		for _, p := range points {
			back := d.ToScreenPoint(d.ToImagePoint(p.X, p.Y))
			require.InDelta(t, p.X, back.X, 1e-2, "size %v point %v", s, p)
			require.InDelta(t, p.Y, back.Y, 1e-2, "size %v point %v", s, p)
		}
	}
}

func TestSetCursorPositionReportsChange(t *testing.T) {
	d := New()
	assert.True(t, d.SetCursorPosition(12, 34))
	assert.False(t, d.SetCursorPosition(12, 34))
	assert.True(t, d.SetCursorPosition(12, 35))
	assert.Equal(t, f32.Pt(12, 35), d.CursorPosition())
}

func TestClamp(t *testing.T) {
	d := New()
	d.Update(10, 10, 100, 50)
	assert.Equal(t, f32.Pt(0, 49), d.Clamp(f32.Pt(-5, 80)))
	assert.Equal(t, f32.Pt(99, 25), d.Clamp(f32.Pt(140, 25)))
	assert.Equal(t, f32.Pt(99, 49), d.Clamp(f32.Pt(100, 50)), "the image size is one past the last pixel")
	assert.Equal(t, f32.Pt(50, 25), d.Center())
}

func TestClampUnknownImage(t *testing.T) {
	d := New()
	d.SetScreenSize(100, 100)
	assert.Equal(t, f32.Pt(60, 70), d.Clamp(f32.Pt(60, 70)))
}
