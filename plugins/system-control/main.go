// Package main is the system-control plugin. It maps gesture actions to
// volume and media playback commands: pactl/playerctl on Linux head units,
// AppleScript on macOS development machines.
package main

import (
	"encoding/json"
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
	Event   *struct {
		ID         string  `json:"id"`
		Kind       string  `json:"kind"`
		Value      string  `json:"value"`
		Confidence float64 `json:"confidence"`
	} `json:"event,omitempty"`
}

// Response is written to stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// command is one action rendered for each supported platform.
type command struct {
	linux  [][]string
	darwin string
}

var commands = map[string]command{
	"volume-up": {
		linux:  [][]string{{"pactl", "set-sink-volume", "@DEFAULT_SINK@", "+10%"}},
		darwin: `set volume output volume ((output volume of (get volume settings)) + 10)`,
	},
	"volume-down": {
		linux:  [][]string{{"pactl", "set-sink-volume", "@DEFAULT_SINK@", "-10%"}},
		darwin: `set volume output volume ((output volume of (get volume settings)) - 10)`,
	},
	"volume-mute": {
		linux:  [][]string{{"pactl", "set-sink-mute", "@DEFAULT_SINK@", "toggle"}},
		darwin: `set volume output muted (not (output muted of (get volume settings)))`,
	},
	"media-play-pause": {
		linux:  [][]string{{"playerctl", "play-pause"}},
		darwin: `tell application "System Events" to key code 100`,
	},
	"media-next": {
		linux:  [][]string{{"playerctl", "next"}},
		darwin: `tell application "System Events" to key code 101`,
	},
	"media-prev": {
		linux:  [][]string{{"playerctl", "previous"}},
		darwin: `tell application "System Events" to key code 98`,
	},
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	cmd, ok := commands[req.Action]
	if !ok {
		writeResponse(Response{Error: fmt.Sprintf("unknown action: %s", req.Action)})
		return
	}

	if err := run(cmd); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("action %s failed: %v", req.Action, err)})
		return
	}

	data, _ := json.Marshal(map[string]string{"action": req.Action, "gesture": req.Gesture})
	writeResponse(Response{Success: true, Data: data})
}

func run(cmd command) error {
	switch runtime.GOOS {
	case "linux":
		for _, argv := range cmd.linux {
			if err := execute(argv[0], argv[1:]...); err != nil {
				return err
			}
		}
		return nil
	case "darwin":
		return execute("osascript", "-e", cmd.darwin)
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
