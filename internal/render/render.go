// Package render tracks the geometry shared between the local view and the
// remote framebuffer: view and image sizes, the view-to-image scale and the
// last known cursor position in image space.
package render

import (
	"gioui.org/f32"
)

// Data holds the current view/image geometry. It is mutated by the touch
// handler and read by strategies and the input sink; all access happens on
// the dispatch loop.
type Data struct {
	// Scale converts view space to image space: image = (view - offset) * Scale.
	Scale f32.Point

	ScreenWidth, ScreenHeight int
	ImageWidth, ImageHeight   int

	// OffsetX and OffsetY are the position of the active sub-view inside
	// its parent, in view pixels.
	OffsetX, OffsetY int

	cursor f32.Point
}

// New returns geometry with an identity scale.
func New() *Data {
	return &Data{Scale: f32.Pt(1, 1)}
}

// SetScreenSize updates the local view dimensions and recomputes the scale.
func (d *Data) SetScreenSize(w, h int) {
	d.ScreenWidth = w
	d.ScreenHeight = h
	d.rescale()
}

// SetImageSize updates the remote framebuffer dimensions and recomputes the scale.
func (d *Data) SetImageSize(w, h int) {
	d.ImageWidth = w
	d.ImageHeight = h
	d.rescale()
}

// Update sets both dimension pairs at once.
func (d *Data) Update(viewW, viewH, imageW, imageH int) {
	d.ScreenWidth, d.ScreenHeight = viewW, viewH
	d.ImageWidth, d.ImageHeight = imageW, imageH
	d.rescale()
}

func (d *Data) rescale() {
	// Keep the previous scale until both sizes are known.
	if d.ScreenWidth <= 0 || d.ScreenHeight <= 0 || d.ImageWidth <= 0 || d.ImageHeight <= 0 {
		return
	}
	d.Scale = f32.Pt(
		float32(d.ImageWidth)/float32(d.ScreenWidth),
		float32(d.ImageHeight)/float32(d.ScreenHeight),
	)
}

// Transform returns the view-to-image affine transform.
func (d *Data) Transform() f32.Affine2D {
	return f32.Affine2D{}.
		Offset(f32.Pt(-float32(d.OffsetX), -float32(d.OffsetY))).
		Scale(f32.Point{}, d.Scale)
}

// ToImagePoint converts a view-space point to image space.
func (d *Data) ToImagePoint(screenX, screenY float32) f32.Point {
	return f32.Pt(
		(screenX-float32(d.OffsetX))*d.Scale.X,
		(screenY-float32(d.OffsetY))*d.Scale.Y,
	)
}

// ToScreenPoint converts an image-space point back to view space.
func (d *Data) ToScreenPoint(p f32.Point) f32.Point {
	return d.Transform().Invert().Transform(p)
}

// Clamp limits p to the image pixels, [0, ImageWidth-1] x [0, ImageHeight-1].
// An axis whose size is not known yet is left as is.
func (d *Data) Clamp(p f32.Point) f32.Point {
	if d.ImageWidth > 0 {
		p.X = clamp(p.X, 0, float32(d.ImageWidth-1))
	}
	if d.ImageHeight > 0 {
		p.Y = clamp(p.Y, 0, float32(d.ImageHeight-1))
	}
	return p
}

// Center returns the midpoint of the image.
func (d *Data) Center() f32.Point {
	return f32.Pt(float32(d.ImageWidth)/2, float32(d.ImageHeight)/2)
}

// CursorPosition returns the last known cursor position in image space.
func (d *Data) CursorPosition() f32.Point {
	return d.cursor
}

// SetCursorPosition stores the cursor position and reports whether it
// actually changed. Callers skip sending a move event when it did not.
func (d *Data) SetCursorPosition(x, y float32) bool {
	if d.cursor.X == x && d.cursor.Y == y {
		return false
	}
	d.cursor = f32.Pt(x, y)
	return true
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
