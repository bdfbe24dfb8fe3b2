// Package plugin discovers and runs executable plugins that carry out the
// effect of an action gesture (answer a call, media keys, keystrokes).
package plugin

import (
	"encoding/json"
	"slices"
	"time"
)

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Actions      []string        `json:"actions"`
	// TimeoutMS overrides the executor timeout, e.g. for call handling.
	TimeoutMS    int             `json:"timeoutMs,omitempty"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// EventInfo is the gesture event that caused a plugin run.
type EventInfo struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Value      string    `json:"value"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// Request is written to the plugin on stdin.
type Request struct {
	// Action is the plugin action to run.
	Action string `json:"action"`
	// Gesture is the gesture action that was bound to it, e.g. "select".
	Gesture string          `json:"gesture"`
	Config  json.RawMessage `json:"config"`
	Params  json.RawMessage `json:"params"`
	Event   *EventInfo      `json:"event,omitempty"`
}

// Response is read from the plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Supports reports whether the manifest lists action. A manifest without
// actions accepts any.
func (p *Plugin) Supports(action string) bool {
	return len(p.Manifest.Actions) == 0 || slices.Contains(p.Manifest.Actions, action)
}
