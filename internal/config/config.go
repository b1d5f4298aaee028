// Package config provides configuration management for the touch client.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"remotetouch/internal/action"
	"remotetouch/internal/strategy"
	"remotetouch/internal/touch"
)

// Transports understood by the client.
const (
	TransportWS  = "ws"
	TransportUDP = "udp"
)

// Config represents the application configuration
type Config struct {
	Input   InputConfig   `toml:"input"`
	Actions ActionsConfig `toml:"actions"`
	Display DisplayConfig `toml:"display"`
	Remote  RemoteConfig  `toml:"remote"`
	Devices DevicesConfig `toml:"devices"`
}

// InputConfig contains the touch translation preferences
type InputConfig struct {
	// Mode is "touch", "simulated-touch" or "trackpad"
	Mode string `toml:"mode"`

	// TapToMove makes a tap only move the cursor
	TapToMove bool `toml:"tap_to_move"`

	// PreferScancodes sends hardware scancodes instead of composed text
	PreferScancodes bool `toml:"prefer_scancodes"`

	// PointerCapture allows relative input while a device is captured
	PointerCapture bool `toml:"pointer_capture"`

	// ScaleTouchpad applies the display scale factor to touchpad movement
	ScaleTouchpad bool `toml:"scale_touchpad"`

	// LongPressDelay multiplies the platform long-press timeout
	LongPressDelay float32 `toml:"long_press_delay"`

	// CapturedPointerSpeed multiplies captured relative movement
	CapturedPointerSpeed float32 `toml:"captured_pointer_speed"`

	// CapturedPointerTransform is "none", "clockwise", "counter-clockwise",
	// "upside-down" or "auto"
	CapturedPointerTransform string `toml:"captured_pointer_transform"`

	// StylusIsMouse asks the host to treat stylus input as a mouse
	StylusIsMouse bool `toml:"stylus_is_mouse"`

	// StylusButtonContactModifier maps barrel buttons to the contact button
	StylusButtonContactModifier bool `toml:"stylus_button_contact_modifier"`

	// StylusHelperMode is the button sent on pen contact: 1 left, 2 middle, 4 right
	StylusHelperMode int `toml:"stylus_helper_mode"`

	// NoTouchpad treats touchpads as plain mice
	NoTouchpad bool `toml:"no_touchpad"`
}

// ActionsConfig binds user actions to gestures and hardware keys
type ActionsConfig struct {
	SwipeUp    string `toml:"swipe_up"`
	SwipeDown  string `toml:"swipe_down"`
	VolumeUp   string `toml:"volume_up"`
	VolumeDown string `toml:"volume_down"`
	BackButton string `toml:"back_button"`
	MediaKeys  string `toml:"media_keys"`
}

// Bindings returns the configured action name per trigger.
func (a ActionsConfig) Bindings() map[action.Trigger]string {
	return map[action.Trigger]string{
		action.SwipeUp:    a.SwipeUp,
		action.SwipeDown:  a.SwipeDown,
		action.VolumeUp:   a.VolumeUp,
		action.VolumeDown: a.VolumeDown,
		action.BackButton: a.BackButton,
		action.MediaKeys:  a.MediaKeys,
	}
}

func (a *ActionsConfig) field(t action.Trigger) *string {
	switch t {
	case action.SwipeUp:
		return &a.SwipeUp
	case action.SwipeDown:
		return &a.SwipeDown
	case action.VolumeUp:
		return &a.VolumeUp
	case action.VolumeDown:
		return &a.VolumeDown
	case action.BackButton:
		return &a.BackButton
	case action.MediaKeys:
		return &a.MediaKeys
	}
	return nil
}

// DisplayConfig describes the local surface touches are mapped from
type DisplayConfig struct {
	Width   int     `toml:"width"`
	Height  int     `toml:"height"`
	Density float32 `toml:"density"`
	// Rotation is the display rotation in quarter turns
	Rotation int `toml:"rotation"`
}

// RemoteConfig describes how to reach the host
type RemoteConfig struct {
	// Address is the host address (e.g., "192.168.1.100:18080")
	Address string `toml:"address"`

	// Token is an optional authentication token
	Token string `toml:"token,omitempty"`

	// Transport is "ws" or "udp"; udp falls back to ws when the host does
	// not acknowledge
	Transport string `toml:"transport"`

	// Name identifies this client to the host
	Name string `toml:"name,omitempty"`
}

// DevicesConfig selects the local input devices
type DevicesConfig struct {
	// Paths lists evdev nodes; empty means every usable node
	Paths []string `toml:"paths"`

	// Grab takes the devices exclusively
	Grab bool `toml:"grab"`
}

// DefaultConfig returns a new Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Mode:                     "trackpad",
			PointerCapture:           true,
			LongPressDelay:           1,
			CapturedPointerSpeed:     1,
			CapturedPointerTransform: "none",
			StylusHelperMode:         touch.StylusHelperLeft,
		},
		Actions: ActionsConfig{
			SwipeUp:    string(action.None),
			SwipeDown:  string(action.None),
			VolumeUp:   string(action.SendVolumeUp),
			VolumeDown: string(action.SendVolumeDown),
			BackButton: string(action.ReleasePointerCapture),
			MediaKeys:  string(action.SendMediaAction),
		},
		Display: DisplayConfig{
			Width:   1920,
			Height:  1080,
			Density: 1,
		},
		Remote: RemoteConfig{
			Address:   "127.0.0.1:18080",
			Transport: TransportWS,
		},
	}
}

// Validate resets every invalid field to its default and describes each
// reset in the returned list.
func (c *Config) Validate() []string {
	def := DefaultConfig()
	var fixes []string
	fix := func(format string, args ...interface{}) {
		fixes = append(fixes, fmt.Sprintf(format, args...))
	}

	if _, err := strategy.ParseKind(c.Input.Mode); err != nil {
		fix("input.mode: %v, using %q", err, def.Input.Mode)
		c.Input.Mode = def.Input.Mode
	}
	if _, err := touch.ParsePointerTransform(c.Input.CapturedPointerTransform); err != nil {
		fix("input.captured_pointer_transform: %v, using %q", err, def.Input.CapturedPointerTransform)
		c.Input.CapturedPointerTransform = def.Input.CapturedPointerTransform
	}
	if c.Input.LongPressDelay <= 0 {
		fix("input.long_press_delay must be positive, using %v", def.Input.LongPressDelay)
		c.Input.LongPressDelay = def.Input.LongPressDelay
	}
	if c.Input.CapturedPointerSpeed <= 0 {
		fix("input.captured_pointer_speed must be positive, using %v", def.Input.CapturedPointerSpeed)
		c.Input.CapturedPointerSpeed = def.Input.CapturedPointerSpeed
	}
	switch c.Input.StylusHelperMode {
	case touch.StylusHelperLeft, touch.StylusHelperMiddle, touch.StylusHelperRight:
	default:
		fix("input.stylus_helper_mode %d is not 1, 2 or 4, using %d", c.Input.StylusHelperMode, def.Input.StylusHelperMode)
		c.Input.StylusHelperMode = def.Input.StylusHelperMode
	}

	for _, t := range action.Triggers {
		p := c.Actions.field(t)
		if *p == "" {
			*p = string(action.None)
			continue
		}
		name, err := action.ParseName(*p)
		if err != nil {
			fix("actions.%s: %v, using %q", t, err, action.None)
			name = action.None
		}
		*p = string(name)
	}

	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		fix("display size %dx%d is invalid, using %dx%d", c.Display.Width, c.Display.Height, def.Display.Width, def.Display.Height)
		c.Display.Width, c.Display.Height = def.Display.Width, def.Display.Height
	}
	if c.Display.Density <= 0 {
		fix("display.density must be positive, using %v", def.Display.Density)
		c.Display.Density = def.Display.Density
	}

	switch c.Remote.Transport {
	case TransportWS, TransportUDP:
	default:
		fix("remote.transport %q is not ws or udp, using %q", c.Remote.Transport, def.Remote.Transport)
		c.Remote.Transport = def.Remote.Transport
	}
	return fixes
}

// Manager handles loading and saving configuration
type Manager struct {
	log        *zap.SugaredLogger
	mu         sync.Mutex
	configPath string
	config     *Config
	onChanged  func(*Config)
}

// NewManager creates a configuration manager for path, or for DefaultPath
// when path is empty.
func NewManager(log *zap.SugaredLogger, path string) (*Manager, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}
	return &Manager{
		log:        log,
		configPath: path,
		config:     DefaultConfig(),
	}, nil
}

// DefaultPath returns config.toml under the user configuration directory
// ($XDG_CONFIG_HOME or ~/.config on Linux).
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: locate config directory: %w", err)
	}
	return filepath.Join(dir, "remotetouch", "config.toml"), nil
}

// Path returns the configuration file path.
func (m *Manager) Path() string {
	return m.configPath
}

// Load reads the configuration from disk. A missing file keeps the defaults.
func (m *Manager) Load() error {
	cfg := DefaultConfig()
	_, err := toml.DecodeFile(m.configPath, cfg)
	if errors.Is(err, os.ErrNotExist) {
		m.log.Infow("Config: no configuration file, using defaults", "path", m.configPath)
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: read %s: %w", m.configPath, err)
	}
	for _, fix := range cfg.Validate() {
		m.log.Warnw("Config: invalid value", "path", m.configPath, "fix", fix)
	}

	m.mu.Lock()
	m.config = cfg
	cb := m.onChanged
	m.mu.Unlock()
	if cb != nil {
		cb(cfg)
	}
	return nil
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	var buf bytes.Buffer
	err := toml.NewEncoder(&buf).Encode(m.config)
	m.mu.Unlock()
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.configPath), 0o755); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	m.log.Infow("Config: saving configuration", "path", m.configPath, "bytes", buf.Len())
	if err := os.WriteFile(m.configPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", m.configPath, err)
	}
	return nil
}

// Get returns a copy of the current configuration
func (m *Manager) Get() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *m.config
	c.Devices.Paths = append([]string(nil), m.config.Devices.Paths...)
	return c
}

// Set validates and installs cfg, then notifies the change callback
func (m *Manager) Set(cfg Config) {
	for _, fix := range cfg.Validate() {
		m.log.Warnw("Config: invalid value", "fix", fix)
	}
	m.mu.Lock()
	m.config = &cfg
	cb := m.onChanged
	m.mu.Unlock()
	if cb != nil {
		cb(&cfg)
	}
}

// Update applies fn to a copy of the configuration and installs the result
func (m *Manager) Update(fn func(*Config)) {
	cfg := m.Get()
	fn(&cfg)
	m.Set(cfg)
}

// RegisterChangeCallback registers a function to be called when config changes
func (m *Manager) RegisterChangeCallback(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChanged = fn
}
