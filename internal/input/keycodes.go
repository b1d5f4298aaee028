package input

// Key codes follow the Linux input event codes, which is also what the
// evdev source reports.
const (
	KeyEsc           = 1
	Key2             = 3
	Key3             = 4
	Key8             = 9
	KeyEqual         = 13
	KeyLeftShift     = 42
	KeyVolumeDown    = 114
	KeyVolumeUp      = 115
	KeyBack          = 158
	KeyNextSong      = 163
	KeyPlayPause     = 164
	KeyPreviousSong  = 165
	KeyStopCD        = 166
	KeyRecord        = 167
	KeyRewind        = 168
	KeyPlayCD        = 200
	KeyPauseCD       = 201
	KeyFastForward   = 208
	KeyMedia         = 226
	KeyUnknownLegacy = 0x1000
)

// Legacy composite keys reported by some soft keyboards. The remote side has
// no direct equivalent, so they are sent as Shift plus a base key.
const (
	KeyAt = KeyUnknownLegacy + iota + 1
	KeyPound
	KeyStar
	KeyPlus
)

var legacyKeys = map[int]int{
	KeyAt:    Key2,
	KeyPound: Key3,
	KeyStar:  Key8,
	KeyPlus:  KeyEqual,
}

// IsMediaSessionKey reports whether the key belongs to media playback control.
func IsMediaSessionKey(code int) bool {
	switch code {
	case KeyPlayPause, KeyPlayCD, KeyPauseCD, KeyStopCD, KeyNextSong,
		KeyPreviousSong, KeyRewind, KeyRecord, KeyFastForward, KeyMedia:
		return true
	}
	return false
}
