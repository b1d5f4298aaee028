// Package tray provides system tray functionality using getlantern/systray.
package tray

import (
	"bytes"
	"encoding/binary"
	"sync"

	"github.com/getlantern/systray"
	"go.uber.org/zap"

	"remotetouch/internal/config"
)

// Settings is the configuration the menu reads and edits.
type Settings interface {
	Get() config.Config
	Update(fn func(*config.Config))
}

// entry is a checkable menu item bound to one configuration setting.
type entry struct {
	title   string
	tooltip string
	checked func(c *config.Config) bool
	apply   func(c *config.Config)
	item    *systray.MenuItem
}

func modeEntry(title, mode string) *entry {
	return &entry{
		title:   title,
		tooltip: "Input mode",
		checked: func(c *config.Config) bool { return c.Input.Mode == mode },
		apply:   func(c *config.Config) { c.Input.Mode = mode },
	}
}

func toggleEntry(title, tooltip string, field func(c *config.Config) *bool) *entry {
	return &entry{
		title:   title,
		tooltip: tooltip,
		checked: func(c *config.Config) bool { return *field(c) },
		apply:   func(c *config.Config) { *field(c) = !*field(c) },
	}
}

// menuEntries returns the menu layout. A nil entry is a separator.
func menuEntries() []*entry {
	return []*entry{
		modeEntry("Touch", "touch"),
		modeEntry("Simulated Touch", "simulated-touch"),
		modeEntry("Trackpad", "trackpad"),
		nil,
		toggleEntry("Tap to Move", "Taps move the cursor without clicking",
			func(c *config.Config) *bool { return &c.Input.TapToMove }),
		toggleEntry("Prefer Scancodes", "Send hardware scancodes for keys",
			func(c *config.Config) *bool { return &c.Input.PreferScancodes }),
		toggleEntry("Pointer Capture", "Send relative motion from captured devices",
			func(c *config.Config) *bool { return &c.Input.PointerCapture }),
		toggleEntry("Stylus as Mouse", "Ask the host to treat the pen as a mouse",
			func(c *config.Config) *bool { return &c.Input.StylusIsMouse }),
	}
}

// Tray manages the system tray icon and menu
type Tray struct {
	log      *zap.SugaredLogger
	settings Settings
	onQuit   func()
	entries  []*entry
	quitCh   chan struct{}

	mu        sync.Mutex
	ready     bool
	status    *systray.MenuItem
	connected bool
}

// New creates a tray whose menu edits settings. onQuit runs when the user
// picks Quit.
func New(log *zap.SugaredLogger, settings Settings, onQuit func()) *Tray {
	return &Tray{
		log:      log,
		settings: settings,
		onQuit:   onQuit,
		entries:  menuEntries(),
		quitCh:   make(chan struct{}),
	}
}

// Run starts the tray event loop (blocks)
func (t *Tray) Run() {
	systray.Run(t.setupMenu, func() { close(t.quitCh) })
}

// Stop stops the tray
func (t *Tray) Stop() {
	systray.Quit()
}

func (t *Tray) setupMenu() {
	systray.SetTitle("Touch")
	systray.SetTooltip("Remote touch input")
	systray.SetIcon(icon())

	t.mu.Lock()
	t.status = systray.AddMenuItem(statusTitle(t.connected), "Host connection")
	t.status.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	for _, e := range t.entries {
		if e == nil {
			systray.AddSeparator()
			continue
		}
		e.item = systray.AddMenuItemCheckbox(e.title, e.tooltip, false)
		go t.watch(e.item, func(e *entry) func() {
			return func() { t.settings.Update(e.apply) }
		}(e))
	}

	systray.AddSeparator()
	quit := systray.AddMenuItem("Quit", "Stop sending input")
	go t.watch(quit, func() {
		t.log.Infow("Tray: quit requested")
		if t.onQuit != nil {
			t.onQuit()
		}
	})

	t.mu.Lock()
	t.ready = true
	t.mu.Unlock()
	cfg := t.settings.Get()
	t.Refresh(&cfg)
}

func (t *Tray) watch(item *systray.MenuItem, fn func()) {
	for {
		select {
		case <-item.ClickedCh:
			fn()
		case <-t.quitCh:
			return
		}
	}
}

// Refresh updates the check marks from cfg. It may be called before the
// tray is ready.
func (t *Tray) Refresh(cfg *config.Config) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.ready {
		return
	}
	for _, e := range t.entries {
		if e == nil || e.item == nil {
			continue
		}
		if e.checked(cfg) {
			e.item.Check()
		} else {
			e.item.Uncheck()
		}
	}
}

// SetConnected updates the connection status line.
func (t *Tray) SetConnected(connected bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected = connected
	if t.status != nil {
		t.status.SetTitle(statusTitle(connected))
	}
}

func statusTitle(connected bool) string {
	if connected {
		return "Connected"
	}
	return "Disconnected"
}

const iconSize = 16

// icon renders a 16x16 32-bit ICO with a filled dot on a transparent
// background.
func icon() []byte {
	const (
		headerSize = 6 + 16
		dibSize    = 40
		pixelSize  = iconSize * iconSize * 4
		maskStride = 4
		maskSize   = iconSize * maskStride
		imageSize  = dibSize + pixelSize + maskSize
	)

	var buf bytes.Buffer
	buf.Grow(headerSize + imageSize)
	le := func(v interface{}) { _ = binary.Write(&buf, binary.LittleEndian, v) }

	// ICONDIR and a single ICONDIRENTRY
	le([3]uint16{0, 1, 1})
	le([4]uint8{iconSize, iconSize, 0, 0})
	le([2]uint16{1, 32})
	le([2]uint32{imageSize, headerSize})

	// BITMAPINFOHEADER; the height covers the colour and mask planes
	le(uint32(dibSize))
	le([2]int32{iconSize, iconSize * 2})
	le([2]uint16{1, 32})
	le([6]uint32{0, pixelSize, 0, 0, 0, 0})

	// BGRA rows, bottom-up
	const c, r2 = (iconSize - 1) / 2.0, 6.5 * 6.5
	for y := iconSize - 1; y >= 0; y-- {
		for x := 0; x < iconSize; x++ {
			dx, dy := float64(x)-c, float64(y)-c
			if dx*dx+dy*dy <= r2 {
				buf.Write([]byte{0xd0, 0x8a, 0x2a, 0xff})
			} else {
				buf.Write([]byte{0, 0, 0, 0})
			}
		}
	}
	buf.Write(make([]byte, maskSize))
	return buf.Bytes()
}
