package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/ayusman/mudra/internal/config"
)

// SettingsService reads and changes the user-facing engine settings.
// UpdateSettings validates, persists and applies the changes, returning the
// effective settings afterwards. Invalid input wraps config.ErrInvalid.
type SettingsService interface {
	Settings() (map[string]string, error)
	UpdateSettings(changes map[string]string) (map[string]string, error)
}

// SettingsHandler handles GET and PUT on /api/settings.
type SettingsHandler struct {
	service SettingsService
}

// NewSettingsHandler creates a SettingsHandler.
func NewSettingsHandler(service SettingsService) *SettingsHandler {
	return &SettingsHandler{service: service}
}

type settingsResponse struct {
	Settings map[string]string `json:"settings"`
	Keys     []string          `json:"keys"`
	Presets  []string          `json:"presets"`
}

func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		settings, err := h.service.Settings()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to read settings")
			return
		}
		writeJSON(w, http.StatusOK, newSettingsResponse(settings))

	case http.MethodPut:
		var changes map[string]string
		if err := json.NewDecoder(r.Body).Decode(&changes); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if len(changes) == 0 {
			writeError(w, http.StatusBadRequest, "No settings given")
			return
		}

		settings, err := h.service.UpdateSettings(changes)
		if err != nil {
			if errors.Is(err, config.ErrInvalid) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			log.Printf("Failed to update settings: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to update settings")
			return
		}
		writeJSON(w, http.StatusOK, newSettingsResponse(settings))

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func newSettingsResponse(settings map[string]string) settingsResponse {
	return settingsResponse{
		Settings: settings,
		Keys:     config.SettingKeys(),
		Presets:  config.Presets(),
	}
}
