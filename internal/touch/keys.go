package touch

import (
	"gioui.org/f32"

	"remotetouch/internal/action"
	"remotetouch/internal/input"
)

// SendKeyEvent routes a key event delivered to v. Media, volume and back
// keys go to their bound actions; everything else reaches the input sink.
// A false result leaves the key to the platform.
func (h *Handler) SendKeyEvent(v View, e input.KeyEvent) bool {
	if v != nil {
		h.view = v
	}
	k := e.KeyCode
	down := e.Action == input.KeyActionDown

	switch {
	case input.IsMediaSessionKey(k):
		return h.actions.Fire(action.MediaKeys, k, down)
	case k == input.KeyVolumeDown:
		return h.actions.Fire(action.VolumeDown, k, down)
	case k == input.KeyVolumeUp:
		return h.actions.Fire(action.VolumeUp, k, down)
	case k == input.KeyBack:
		if e.IsFromSource(input.SourceMouse) || e.IsFromSource(input.SourceMouseRelative) {
			// The back button of a mouse is its right button.
			if e.RepeatCount != 0 {
				return true
			}
			if e.Action == input.KeyActionDown || e.Action == input.KeyActionUp {
				h.sender.SendMouseEvent(f32.Point{}, input.ButtonRight, down, true)
			}
			return true
		}
		if (e.ScanCode == input.KeyBack && !e.Alphabetic) || e.ScanCode == 0 {
			h.actions.Fire(action.BackButton, k, down)
			return true
		}
	}
	return h.sender.SendKeyEvent(e)
}
