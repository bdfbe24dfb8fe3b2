package plugin

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

// buildSamplePlugin compiles plugins/<name> into a temp plugin directory and
// returns that directory's parent.
func buildSamplePlugin(t *testing.T, name string) string {
	t.Helper()

	src := findPluginDir(name)
	if src == "" {
		t.Skipf("%s plugin sources not found", name)
	}
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain not available")
	}

	root := t.TempDir()
	dst := filepath.Join(root, name)
	if err := os.MkdirAll(dst, 0755); err != nil {
		t.Fatal(err)
	}

	manifest, err := os.ReadFile(filepath.Join(src, "plugin.json"))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dst, "plugin.json"), manifest, 0644); err != nil {
		t.Fatal(err)
	}

	build := exec.Command("go", "build", "-o", filepath.Join(dst, name), ".")
	build.Dir = src
	if out, err := build.CombinedOutput(); err != nil {
		t.Skipf("cannot build %s plugin: %v\n%s", name, err, out)
	}
	return root
}

func TestPlugin_SystemControl_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	if runtime.GOOS == "windows" {
		t.Skip("system-control plugin does not support Windows")
	}

	mgr := NewManager(buildSamplePlugin(t, "system-control"))
	if err := mgr.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	plug, err := mgr.Get("system-control")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !plug.Supports("media-next") {
		t.Error("manifest does not list media-next")
	}

	// An unknown action has no side effects and exercises the error path.
	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), plug, &Request{
		Action:  "eject",
		Gesture: "swipe_right",
		Params:  json.RawMessage(`{}`),
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if resp.Success {
		t.Error("expected failure for unknown action")
	}
}

func TestPlugin_Keyboard_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	if runtime.GOOS == "windows" {
		t.Skip("keyboard plugin does not support Windows")
	}

	mgr := NewManager(buildSamplePlugin(t, "keyboard"))
	if err := mgr.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	plug, err := mgr.Get("keyboard")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	executor := NewExecutor(5 * time.Second)
	tests := []struct {
		name string
		req  *Request
	}{
		{"empty key", &Request{Action: "keystroke", Params: json.RawMessage(`{"key": ""}`)}},
		{"type without event", &Request{Action: "type", Params: json.RawMessage(`{}`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := executor.Execute(context.Background(), plug, tt.req)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if resp.Success {
				t.Error("expected failure")
			}
		})
	}
}

func findPluginDir(name string) string {
	candidates := []string{
		filepath.Join("../../plugins", name),
		filepath.Join("../../../plugins", name),
	}

	for _, dir := range candidates {
		manifest := filepath.Join(dir, "plugin.json")
		if _, err := os.Stat(manifest); err == nil {
			abs, err := filepath.Abs(dir)
			if err != nil {
				return ""
			}
			return abs
		}
	}
	return ""
}
