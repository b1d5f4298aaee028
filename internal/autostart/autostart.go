// Package autostart provides auto-start functionality through an XDG
// autostart entry.
package autostart

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

const entryName = "remotetouch.desktop"

var desktopEntry = template.Must(template.New("entry").Parse(`[Desktop Entry]
Type=Application
Name=Remote Touch
Comment=Forward touch and pen input to a remote desktop
Exec={{.Exec}}
Terminal=false
X-GNOME-Autostart-enabled=true
`))

// Entry is the autostart file of the client.
type Entry struct {
	Path string
}

// New returns the entry under the user's autostart directory
// ($XDG_CONFIG_HOME/autostart or ~/.config/autostart).
func New() (*Entry, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("autostart: locate config directory: %w", err)
	}
	return &Entry{Path: filepath.Join(dir, "autostart", entryName)}, nil
}

// Enable writes the entry so executable runs with args on login.
func (e *Entry) Enable(executable string, args ...string) error {
	if err := os.MkdirAll(filepath.Dir(e.Path), 0o755); err != nil {
		return fmt.Errorf("autostart: %w", err)
	}

	f, err := os.Create(e.Path)
	if err != nil {
		return fmt.Errorf("autostart: %w", err)
	}
	defer f.Close()

	words := make([]string, 0, len(args)+1)
	for _, w := range append([]string{executable}, args...) {
		words = append(words, quoteExec(w))
	}
	if err := desktopEntry.Execute(f, struct{ Exec string }{strings.Join(words, " ")}); err != nil {
		return fmt.Errorf("autostart: write %s: %w", e.Path, err)
	}
	return nil
}

// Disable removes the entry. Removing a missing entry is not an error.
func (e *Entry) Disable() error {
	if err := os.Remove(e.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("autostart: %w", err)
	}
	return nil
}

// IsEnabled reports whether the entry exists.
func (e *Entry) IsEnabled() bool {
	_, err := os.Stat(e.Path)
	return err == nil
}

// quoteExec quotes one Exec argument following the desktop entry rules:
// arguments with reserved characters are double-quoted with ", `, $ and \
// escaped, and a literal % is doubled.
func quoteExec(s string) string {
	s = strings.ReplaceAll(s, "%", "%%")
	if s != "" && !strings.ContainsAny(s, " \t\n\"'\\><~|&;$*?#()`") {
		return s
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"', '`', '$', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}
