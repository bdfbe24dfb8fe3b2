package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

type fakeCatalog map[string]*plugin.Plugin

func (c fakeCatalog) Get(name string) (*plugin.Plugin, error) {
	if p, ok := c[name]; ok {
		return p, nil
	}
	return nil, plugin.ErrPluginNotFound
}

var catalog = fakeCatalog{
	"phone": {Manifest: plugin.Manifest{Name: "phone", Actions: []string{"answer", "hangup"}}},
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return v
}

func TestBindingHandler_Create(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid", `{"gesture_action":"select","plugin_name":"phone","plugin_action":"answer"}`, http.StatusCreated},
		{"invalid json", `{`, http.StatusBadRequest},
		{"unknown gesture", `{"gesture_action":"wave","plugin_name":"phone","plugin_action":"answer"}`, http.StatusBadRequest},
		{"spatial commit is not bindable", `{"gesture_action":"spatial_commit","plugin_name":"phone","plugin_action":"answer"}`, http.StatusBadRequest},
		{"missing plugin name", `{"gesture_action":"cancel","plugin_action":"answer"}`, http.StatusBadRequest},
		{"missing plugin action", `{"gesture_action":"cancel","plugin_name":"phone"}`, http.StatusBadRequest},
		{"unknown plugin", `{"gesture_action":"cancel","plugin_name":"radio","plugin_action":"tune"}`, http.StatusBadRequest},
		{"unsupported action", `{"gesture_action":"cancel","plugin_name":"phone","plugin_action":"dial"}`, http.StatusBadRequest},
		{"with config", `{"gesture_action":"cancel","plugin_name":"phone","plugin_action":"hangup","config":{"line":2}}`, http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewBindingHandler(newTestStore(t), catalog)

			rec := do(t, h, http.MethodPost, "/api/bindings", tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestBindingHandler_Workflow(t *testing.T) {
	s := newTestStore(t)
	h := NewBindingHandler(s, catalog)

	rec := do(t, h, http.MethodPost, "/api/bindings",
		`{"gesture_action":"disconnect","plugin_name":"phone","plugin_action":"hangup","config":{"line":1}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	created := decode[bindingResponse](t, rec)
	if created.ID == "" || !created.Enabled || string(created.Config) != `{"line":1}` {
		t.Fatalf("created = %+v", created)
	}

	rec = do(t, h, http.MethodPost, "/api/bindings",
		`{"gesture_action":"disconnect","plugin_name":"phone","plugin_action":"answer"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want %d", rec.Code, http.StatusConflict)
	}

	rec = do(t, h, http.MethodGet, "/api/bindings", "")
	listed := decode[listBindingsResponse](t, rec)
	if len(listed.Bindings) != 1 || listed.Bindings[0].ID != created.ID {
		t.Fatalf("list = %+v", listed)
	}

	rec = do(t, h, http.MethodPut, "/api/bindings/"+created.ID, `{"enabled":false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}
	if updated := decode[bindingResponse](t, rec); updated.Enabled {
		t.Error("binding still enabled after update")
	}

	rec = do(t, h, http.MethodPut, "/api/bindings/"+created.ID, `{"plugin_action":"dial"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("update to unsupported action status = %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/api/bindings/"+created.ID, "")
	if got := decode[bindingResponse](t, rec); got.PluginAction != "hangup" || got.Enabled {
		t.Errorf("get after updates = %+v", got)
	}

	if rec := do(t, h, http.MethodDelete, "/api/bindings/"+created.ID, ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		if rec := do(t, h, method, "/api/bindings/"+created.ID, ""); rec.Code != http.StatusNotFound {
			t.Errorf("%s after delete status = %d, want 404", method, rec.Code)
		}
	}
	if rec := do(t, h, http.MethodPatch, "/api/bindings", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("PATCH status = %d", rec.Code)
	}
}

func TestBindingHandler_NoCatalog(t *testing.T) {
	h := NewBindingHandler(newTestStore(t), nil)

	rec := do(t, h, http.MethodPost, "/api/bindings",
		`{"gesture_action":"swipe_left","plugin_name":"anything","plugin_action":"x","enabled":false}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[bindingResponse](t, rec); got.Enabled {
		t.Error("explicit enabled=false ignored")
	}
}

func TestHistoryHandler(t *testing.T) {
	s := newTestStore(t)
	start := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	for i := range 5 {
		err := s.Events().Append(store.Event{
			ID:         fmt.Sprintf("e%d", i),
			Kind:       "digit",
			Value:      fmt.Sprint(i),
			Confidence: 0.9,
			Zone:       -1,
			OccurredAt: start.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	h := NewHistoryHandler(s)

	rec := do(t, h, http.MethodGet, "/api/events/history?limit=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode[historyResponse](t, rec)
	if got.Total != 5 || len(got.Events) != 2 || got.Events[0].ID != "e4" {
		t.Errorf("history = %+v", got)
	}

	rec = do(t, h, http.MethodGet, "/api/events/history", "")
	if got := decode[historyResponse](t, rec); len(got.Events) != 5 {
		t.Errorf("default limit returned %d events", len(got.Events))
	}

	for _, bad := range []string{"0", "-3", "ten"} {
		if rec := do(t, h, http.MethodGet, "/api/events/history?limit="+bad, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%s status = %d, want 400", bad, rec.Code)
		}
	}
	if rec := do(t, h, http.MethodPost, "/api/events/history", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d", rec.Code)
	}
}

// memorySettings applies changes to an in-memory config.
type memorySettings struct {
	cfg     config.Config
	updates int
	fail    error
}

func (m *memorySettings) Settings() (map[string]string, error) {
	return m.cfg.Settings(), nil
}

func (m *memorySettings) UpdateSettings(changes map[string]string) (map[string]string, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	if err := m.cfg.ApplySettings(changes); err != nil {
		return nil, err
	}
	m.updates++
	return m.cfg.Settings(), nil
}

func TestSettingsHandler(t *testing.T) {
	svc := &memorySettings{cfg: config.Default()}
	h := NewSettingsHandler(svc)

	rec := do(t, h, http.MethodGet, "/api/settings", "")
	got := decode[settingsResponse](t, rec)
	if got.Settings[config.KeyStabilityFrames] != "5" || len(got.Keys) == 0 || len(got.Presets) != 3 {
		t.Errorf("GET = %+v", got)
	}

	rec = do(t, h, http.MethodPut, "/api/settings", `{"stability_frames":"7","preferred_hand":"Left"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d: %s", rec.Code, rec.Body.String())
	}
	got = decode[settingsResponse](t, rec)
	if got.Settings[config.KeyStabilityFrames] != "7" || got.Settings[config.KeyPreferredHand] != "Left" {
		t.Errorf("PUT = %+v", got.Settings)
	}

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"invalid value", `{"stability_frames":"0"}`, http.StatusBadRequest},
		{"unknown key", `{"volume":"11"}`, http.StatusBadRequest},
		{"empty", `{}`, http.StatusBadRequest},
		{"not json", `stability=3`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(t, h, http.MethodPut, "/api/settings", tt.body); rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
	if svc.updates != 1 {
		t.Errorf("updates = %d, want 1", svc.updates)
	}

	svc.fail = errors.New("disk full")
	if rec := do(t, h, http.MethodPut, "/api/settings", `{"sensitivity":"1.1"}`); rec.Code != http.StatusInternalServerError {
		t.Errorf("storage failure status = %d, want 500", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/api/settings", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE status = %d", rec.Code)
	}
}
