// Package main is the keyboard plugin. It turns gesture actions into key
// presses for the focused HMI window: xdotool on Linux, AppleScript on macOS.
//
// Actions:
//
//	keystroke  press params.key with optional params.modifiers
//	type       type the triggering event's value (a digit or letter)
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request is the JSON document mudra writes on stdin.
type Request struct {
	Action  string          `json:"action"`
	Gesture string          `json:"gesture"`
	Config  json.RawMessage `json:"config"`
	Params  json.RawMessage `json:"params"`
	Event   *EventInfo      `json:"event,omitempty"`
}

// EventInfo is the gesture event that caused the run.
type EventInfo struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// Response is written to stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// KeystrokeParams configures the keystroke action.
type KeystrokeParams struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"` // ctrl, alt, shift, super
}

var errKeyRequired = errors.New("key is required")

// xdotool and AppleScript names for each modifier.
var modifierMap = map[string][2]string{
	"ctrl":    {"ctrl", "control down"},
	"control": {"ctrl", "control down"},
	"alt":     {"alt", "option down"},
	"option":  {"alt", "option down"},
	"shift":   {"shift", "shift down"},
	"super":   {"super", "command down"},
	"cmd":     {"super", "command down"},
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	var err error
	switch req.Action {
	case "keystroke":
		err = keystroke(req.Params)
	case "type":
		if req.Event == nil || req.Event.Value == "" {
			err = errors.New("no event value to type")
			break
		}
		err = typeText(req.Event.Value)
	default:
		writeResponse(Response{Error: fmt.Sprintf("unknown action: %s", req.Action)})
		return
	}

	if err != nil {
		writeResponse(Response{Error: fmt.Sprintf("action %s failed: %v", req.Action, err)})
		return
	}
	writeResponse(Response{Success: true})
}

func keystroke(params json.RawMessage) error {
	var p KeystrokeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return fmt.Errorf("failed to parse params: %w", err)
	}
	if p.Key == "" {
		return errKeyRequired
	}

	switch runtime.GOOS {
	case "linux":
		chord := make([]string, 0, len(p.Modifiers)+1)
		for _, mod := range p.Modifiers {
			if m, ok := modifierMap[strings.ToLower(mod)]; ok {
				chord = append(chord, m[0])
			}
		}
		chord = append(chord, p.Key)
		return execute("xdotool", "key", strings.Join(chord, "+"))
	case "darwin":
		var mods []string
		for _, mod := range p.Modifiers {
			if m, ok := modifierMap[strings.ToLower(mod)]; ok {
				mods = append(mods, m[1])
			}
		}
		script := fmt.Sprintf(`tell application "System Events" to keystroke %q`, p.Key)
		if len(mods) > 0 {
			script += fmt.Sprintf(" using {%s}", strings.Join(mods, ", "))
		}
		return execute("osascript", "-e", script)
	default:
		return fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}
}

func typeText(text string) error {
	switch runtime.GOOS {
	case "linux":
		return execute("xdotool", "type", "--", text)
	case "darwin":
		return execute("osascript", "-e", fmt.Sprintf(`tell application "System Events" to keystroke %q`, text))
	default:
		return fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}
}

func execute(name string, args ...string) error {
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func writeResponse(resp Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}
