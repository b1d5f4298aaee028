package evdev

import "remotetouch/internal/input"

// usLayout maps key codes to their unshifted and shifted characters.
var usLayout = map[int][2]rune{}

func addRow(first int, plain, shifted string) {
	s := []rune(shifted)
	for i, r := range []rune(plain) {
		usLayout[first+i] = [2]rune{r, s[i]}
	}
}

func init() {
	addRow(2, "1234567890-=", "!@#$%^&*()_+")
	addRow(16, "qwertyuiop[]", "QWERTYUIOP{}")
	addRow(30, "asdfghjkl;'`", `ASDFGHJKL:"~`)
	addRow(43, `\`, "|")
	addRow(44, "zxcvbnm,./", "ZXCVBNM<>?")
	addRow(57, " ", " ")
}

var modifierKeys = map[int]input.Meta{
	keyLeftShift:  input.MetaShift,
	keyRightShift: input.MetaShift,
	keyLeftCtrl:   input.MetaCtrl,
	keyRightCtrl:  input.MetaCtrl,
	keyLeftAlt:    input.MetaAltLeft,
	keyRightAlt:   input.MetaAltRight,
	keyLeftMeta:   input.MetaMeta,
	keyRightMeta:  input.MetaMeta,
}

// keyRune returns the character code produces under meta, or 0.
func keyRune(code int, meta input.Meta) rune {
	pair, ok := usLayout[code]
	if !ok {
		return 0
	}
	shift := meta&input.MetaShift != 0
	if meta&input.MetaCapsLock != 0 && pair[0] >= 'a' && pair[0] <= 'z' {
		shift = !shift
	}
	if shift {
		return pair[1]
	}
	return pair[0]
}
