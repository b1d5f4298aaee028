// Package action binds gesture and key triggers to user-selected actions.
package action

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"remotetouch/internal/input"
)

// Trigger is something the user does that can be bound to an action.
type Trigger string

const (
	SwipeUp    Trigger = "swipeUp"
	SwipeDown  Trigger = "swipeDown"
	VolumeUp   Trigger = "volumeUp"
	VolumeDown Trigger = "volumeDown"
	BackButton Trigger = "backButton"
	MediaKeys  Trigger = "mediaKeys"
)

// Triggers lists every bindable trigger.
var Triggers = []Trigger{SwipeUp, SwipeDown, VolumeUp, VolumeDown, BackButton, MediaKeys}

// Name identifies an action.
type Name string

const (
	None                  Name = "none"
	ReleasePointerCapture Name = "release pointer capture"
	Exit                  Name = "exit"
	SendVolumeUp          Name = "send volume up"
	SendVolumeDown        Name = "send volume down"
	SendMediaAction       Name = "send media action"
	ToggleTapToMove       Name = "toggle tap to move"
)

var names = []Name{None, ReleasePointerCapture, Exit, SendVolumeUp, SendVolumeDown, SendMediaAction, ToggleTapToMove}

// ParseName accepts an action name in any case, with spaces, dashes or
// underscores between words.
func ParseName(s string) (Name, error) {
	norm := strings.NewReplacer("-", " ", "_", " ").Replace(strings.ToLower(strings.TrimSpace(s)))
	if norm == "" {
		return None, nil
	}
	for _, n := range names {
		if string(n) == norm {
			return n, nil
		}
	}
	return None, fmt.Errorf("unknown action %q", s)
}

// Env carries out the effects of actions.
type Env interface {
	ReleasePointerCapture()
	Exit()
	SendKey(keyCode int, down bool)
	ToggleTapToMove()
}

// Func runs a bound action. keyCode is the key that fired the trigger, or 0
// for gestures.
type Func func(keyCode int, down bool)

// Manager holds the trigger bindings. Bindings may be changed from any
// goroutine; Fire runs the action on the caller's goroutine.
type Manager struct {
	mu    sync.RWMutex
	env   Env
	log   *zap.SugaredLogger
	bound map[Trigger]*binding
}

type binding struct {
	name Name
	fn   Func
}

// NewManager creates a manager with nothing bound.
func NewManager(env Env, log *zap.SugaredLogger) *Manager {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Manager{
		env:   env,
		log:   log,
		bound: make(map[Trigger]*binding),
	}
}

// Register binds trigger t to the named action. Binding None removes the
// trigger's binding.
func (m *Manager) Register(t Trigger, name Name) error {
	fn, err := m.resolve(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if fn == nil {
		delete(m.bound, t)
		return nil
	}
	m.bound[t] = &binding{name: name, fn: fn}
	return nil
}

// Clear removes all bindings.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for t := range m.bound {
		delete(m.bound, t)
	}
}

// Bound returns the action bound to t.
func (m *Manager) Bound(t Trigger) Name {
	if m == nil {
		return None
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.bound[t]; ok {
		return b.name
	}
	return None
}

// Fire runs the action bound to t and reports whether there was one.
func (m *Manager) Fire(t Trigger, keyCode int, down bool) bool {
	if m == nil {
		return false
	}
	m.mu.RLock()
	b, ok := m.bound[t]
	m.mu.RUnlock()
	if !ok {
		return false
	}

	if down {
		m.log.Debugw("action triggered", "trigger", t, "action", b.name, "key", keyCode)
	}
	b.fn(keyCode, down)
	return true
}

func (m *Manager) resolve(name Name) (Func, error) {
	switch name {
	case None:
		return nil, nil
	case ReleasePointerCapture:
		return onDown(m.env.ReleasePointerCapture), nil
	case Exit:
		return onDown(m.env.Exit), nil
	case ToggleTapToMove:
		return onDown(m.env.ToggleTapToMove), nil
	case SendVolumeUp:
		return func(_ int, down bool) { m.env.SendKey(input.KeyVolumeUp, down) }, nil
	case SendVolumeDown:
		return func(_ int, down bool) { m.env.SendKey(input.KeyVolumeDown, down) }, nil
	case SendMediaAction:
		return func(keyCode int, down bool) { m.env.SendKey(keyCode, down) }, nil
	}
	return nil, fmt.Errorf("unknown action %q", name)
}

func onDown(fn func()) Func {
	return func(_ int, down bool) {
		if down {
			fn()
		}
	}
}
