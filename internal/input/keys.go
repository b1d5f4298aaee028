package input

import "unicode"

const noPendingKey = -1

// SendKeyEvent forwards a platform key event. Printable input without
// command modifiers goes out as text; the matching key-up is then swallowed
// so the remote side does not see the character twice. The event always
// counts as handled, even when the remote side does not know the key.
func (s *EventSender) SendKeyEvent(e KeyEvent) bool {
	if e.Action == KeyActionMultiple {
		if e.Characters != "" {
			s.stub.SendTextEvent([]byte(e.Characters))
		}
		return true
	}

	down := e.Action == KeyActionDown
	if down && e.RepeatCount > 0 {
		return true
	}

	if !down && s.pendingTextKey != noPendingKey && e.KeyCode == s.pendingTextKey {
		s.pendingTextKey = noPendingKey
		return true
	}

	if down && !s.PreferScancodes && textModifiers(e.Meta) && isText(e.Rune) {
		s.stub.SendTextEvent([]byte(string(e.Rune)))
		s.pendingTextKey = e.KeyCode
		return true
	}

	if base, ok := legacyKeys[e.KeyCode]; ok {
		if down {
			s.stub.SendKeyEvent(0, KeyLeftShift, true)
			s.stub.SendKeyEvent(0, base, true)
		} else {
			s.stub.SendKeyEvent(0, base, false)
			s.stub.SendKeyEvent(0, KeyLeftShift, false)
		}
		return true
	}

	scanCode := 0
	if s.PreferScancodes {
		scanCode = e.ScanCode
	}
	s.stub.SendKeyEvent(scanCode, e.KeyCode, down)
	return true
}

// textModifiers reports whether m leaves a key producing text: no ctrl, alt
// or meta, or right alt alone (AltGr).
func textModifiers(m Meta) bool {
	cmd := m & (MetaCtrl | MetaAlt | MetaMeta)
	return cmd == 0 || cmd == MetaAltRight
}

func isText(r rune) bool {
	return r != 0 && unicode.IsPrint(r)
}
