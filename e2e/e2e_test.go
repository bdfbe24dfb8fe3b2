package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/source"
	"github.com/ayusman/mudra/internal/store"
)

func TestE2E_ReplayToClients(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()

	frames := detector.DemoSequence(time.Now())
	recording := filepath.Join(tmpDir, "demo.jsonl")
	f, err := os.Create(recording)
	if err != nil {
		t.Fatal(err)
	}
	if err := source.WriteRecording(f, frames); err != nil {
		t.Fatalf("WriteRecording() error = %v", err)
	}
	f.Close()

	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	plugins := plugin.NewManager(filepath.Join(tmpDir, "plugins"))
	if err := plugins.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	hub := server.NewHub()
	collector := metrics.New()

	application, err := app.New(app.Config{
		Settings: config.Default(),
		Source:   app.ReplaySource(recording, false),
		Policy:   source.Policy{MaxTries: 1},
		Store:    s,
		Plugins:  plugins,
		Metrics:  collector,
		Hub:      hub,
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}

	srv := server.New(server.Config{
		Store:    s,
		Hub:      hub,
		Metrics:  collector,
		Plugins:  plugins,
		Settings: application,
		Running:  application.IsRunning,
	})
	ts := httptest.NewServer(srv)
	defer ts.Close()
	defer hub.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/events", nil)
	if err != nil {
		t.Fatalf("dial events: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("websocket client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := application.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := application.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	t.Run("StreamedEvents", func(t *testing.T) {
		want := []string{"digit:2", "letter:C", "action:select"}
		var got []string

		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		for len(got) < len(want) {
			var ev gesture.Event
			if err := conn.ReadJSON(&ev); err != nil {
				t.Fatalf("ReadJSON() error = %v (got %v)", err, got)
			}
			if ev.Committed() {
				got = append(got, string(ev.Kind)+":"+ev.Value)
			}
		}
		if strings.Join(got, ",") != strings.Join(want, ",") {
			t.Errorf("committed events = %v, want %v", got, want)
		}
	})

	t.Run("History", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/events/history?limit=100")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()

		var history struct {
			Events []store.Event `json:"events"`
			Total  int           `json:"total"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
			t.Fatal(err)
		}

		letters := 0
		for _, ev := range history.Events {
			if ev.Kind == string(gesture.KindLetter) && ev.Value == "C" {
				letters++
			}
		}
		if letters != 1 || history.Total < 3 {
			t.Errorf("history total = %d with %d letter C events", history.Total, letters)
		}
	})

	t.Run("Metrics", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/metrics")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()

		var report metrics.Report
		if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
			t.Fatal(err)
		}
		if report.Frames != int64(len(frames)) {
			t.Errorf("frames = %d, want %d", report.Frames, len(frames))
		}
		if report.Actions[string(gesture.ActionSelect)] != 1 {
			t.Errorf("actions = %v, want one select", report.Actions)
		}
	})

	t.Run("Health", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/health")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()

		var health map[string]any
		json.NewDecoder(resp.Body).Decode(&health)
		if health["engine_running"] != false {
			t.Errorf("engine_running = %v after the replay ended", health["engine_running"])
		}
	})
}
