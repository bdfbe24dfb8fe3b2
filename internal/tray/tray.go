// Package tray provides the system tray menu: an enable toggle, the last
// recognized gesture, the pending spatial letter and preset selection.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/mudra/internal/gesture"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle   func(enabled bool)
	onPreset   func(name string)
	onSettings func()
	onQuit     func()
	enabled    bool
	presets    []string
	last       string
	pending    string
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuToggle  *systray.MenuItem
	menuLast    *systray.MenuItem
	menuPending *systray.MenuItem
	menuPresets []*systray.MenuItem
}

// New creates a Tray, enabled by default, offering the given presets.
func New(presets []string) *Tray {
	return &Tray{
		enabled: true,
		presets: presets,
	}
}

// OnToggle sets the callback invoked when recognition is switched on or off.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnPreset sets the callback invoked when a preset is chosen.
func (t *Tray) OnPreset(fn func(name string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPreset = fn
}

// OnSettings sets the callback invoked by "Open Settings...".
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback invoked by "Quit".
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray and blocks until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit stops a running tray.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("mudra")
	systray.SetTooltip("mudra hand gesture input")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle gesture recognition")
	systray.AddSeparator()

	t.menuLast = systray.AddMenuItem(lastTitle(t.last), "Last recognized gesture")
	t.menuLast.Disable()
	t.menuPending = systray.AddMenuItem(pendingTitle(t.pending), "Letter under the hand")
	t.menuPending.Disable()
	systray.AddSeparator()

	presetRoot := systray.AddMenuItem("Preset", "Recognition tuning")
	for _, name := range t.presets {
		t.menuPresets = append(t.menuPresets, presetRoot.AddSubMenuItem(name, ""))
	}
	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit mudra")
	items := t.menuPresets
	t.mu.Unlock()

	for i, item := range items {
		name := t.presets[i]
		go func() {
			for range item.ClickedCh {
				t.handlePreset(name)
			}
		}()
	}

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handlePreset(name string) {
	t.mu.RLock()
	callback := t.onPreset
	t.mu.RUnlock()

	if callback != nil {
		callback(name)
	}
}

func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Show updates the menu for an emitted event. Committed events replace the
// "Last" line; previews drive the "Pending" line.
func (t *Tray) Show(ev gesture.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case ev.Kind == gesture.KindPreview:
		t.pending = ev.Value
	case ev.Kind == gesture.KindLetter:
		t.pending = ""
		t.last = Describe(ev)
	default:
		t.last = Describe(ev)
	}

	if t.menuLast != nil {
		t.menuLast.SetTitle(lastTitle(t.last))
	}
	if t.menuPending != nil {
		t.menuPending.SetTitle(pendingTitle(t.pending))
	}
}

// Last returns the text of the "Last" line.
func (t *Tray) Last() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return lastTitle(t.last)
}

// Pending returns the text of the "Pending" line.
func (t *Tray) Pending() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return pendingTitle(t.pending)
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// Describe renders a committed event for display.
func Describe(ev gesture.Event) string {
	switch ev.Kind {
	case gesture.KindDigit:
		return "digit " + ev.Value
	case gesture.KindLetter:
		return "letter " + ev.Value
	case gesture.KindAction:
		return ev.Value
	default:
		return fmt.Sprintf("%s %s", ev.Kind, ev.Value)
	}
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func lastTitle(last string) string {
	if last == "" {
		return "Last: none"
	}
	return "Last: " + last
}

func pendingTitle(letter string) string {
	if letter == "" {
		return "Pending: -"
	}
	return "Pending: " + letter
}
