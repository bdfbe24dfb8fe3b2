package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/store"
)

// PluginCatalog looks up discovered plugins. *plugin.Manager satisfies it.
type PluginCatalog interface {
	Get(name string) (*plugin.Plugin, error)
}

// BindingHandler handles HTTP requests for action bindings.
type BindingHandler struct {
	store   *store.Store
	plugins PluginCatalog
}

// NewBindingHandler creates a BindingHandler. plugins may be nil, in which
// case plugin names are not checked.
func NewBindingHandler(s *store.Store, plugins PluginCatalog) *BindingHandler {
	return &BindingHandler{store: s, plugins: plugins}
}

// ServeHTTP routes /api/bindings and /api/bindings/{id}.
func (h *BindingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/api/bindings"), "/")

	if id == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type createBindingRequest struct {
	GestureAction string          `json:"gesture_action"`
	PluginName    string          `json:"plugin_name"`
	PluginAction  string          `json:"plugin_action"`
	Config        json.RawMessage `json:"config"`
	Enabled       *bool           `json:"enabled"`
}

type updateBindingRequest struct {
	PluginName   string          `json:"plugin_name"`
	PluginAction string          `json:"plugin_action"`
	Config       json.RawMessage `json:"config"`
	Enabled      *bool           `json:"enabled"`
}

type bindingResponse struct {
	ID            string          `json:"id"`
	GestureAction string          `json:"gesture_action"`
	PluginName    string          `json:"plugin_name"`
	PluginAction  string          `json:"plugin_action"`
	Config        json.RawMessage `json:"config"`
	Enabled       bool            `json:"enabled"`
	CreatedAt     string          `json:"created_at"`
}

type listBindingsResponse struct {
	Bindings []bindingResponse `json:"bindings"`
}

func toBindingResponse(b *store.Binding) bindingResponse {
	config := b.Config
	if len(config) == 0 {
		config = json.RawMessage("{}")
	}
	return bindingResponse{
		ID:            b.ID,
		GestureAction: b.GestureAction,
		PluginName:    b.PluginName,
		PluginAction:  b.PluginAction,
		Config:        config,
		Enabled:       b.Enabled,
		CreatedAt:     formatTime(b.CreatedAt),
	}
}

func (h *BindingHandler) list(w http.ResponseWriter, r *http.Request) {
	bindings, err := h.store.Bindings().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bindings")
		return
	}

	response := listBindingsResponse{Bindings: make([]bindingResponse, 0, len(bindings))}
	for _, b := range bindings {
		response.Bindings = append(response.Bindings, toBindingResponse(b))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *BindingHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	b, err := h.store.Bindings().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Binding not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get binding")
		return
	}
	writeJSON(w, http.StatusOK, toBindingResponse(b))
}

func (h *BindingHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createBindingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if _, ok := gesture.ParseAction(req.GestureAction); !ok {
		writeError(w, http.StatusBadRequest, "Unknown gesture_action")
		return
	}
	if req.PluginName == "" {
		writeError(w, http.StatusBadRequest, "plugin_name is required")
		return
	}
	if req.PluginAction == "" {
		writeError(w, http.StatusBadRequest, "plugin_action is required")
		return
	}
	if msg := h.checkPlugin(req.PluginName, req.PluginAction); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if len(req.Config) > 0 && !json.Valid(req.Config) {
		writeError(w, http.StatusBadRequest, "config must be JSON")
		return
	}

	b := &store.Binding{
		GestureAction: req.GestureAction,
		PluginName:    req.PluginName,
		PluginAction:  req.PluginAction,
		Config:        req.Config,
		Enabled:       req.Enabled == nil || *req.Enabled,
	}
	if err := h.store.Bindings().Create(b); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusConflict, "Gesture action is already bound")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create binding")
		return
	}

	writeJSON(w, http.StatusCreated, toBindingResponse(b))
}

func (h *BindingHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	b, err := h.store.Bindings().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Binding not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get binding")
		return
	}

	var req updateBindingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.PluginName != "" {
		b.PluginName = req.PluginName
	}
	if req.PluginAction != "" {
		b.PluginAction = req.PluginAction
	}
	if req.Config != nil {
		if !json.Valid(req.Config) {
			writeError(w, http.StatusBadRequest, "config must be JSON")
			return
		}
		b.Config = req.Config
	}
	if req.Enabled != nil {
		b.Enabled = *req.Enabled
	}
	if msg := h.checkPlugin(b.PluginName, b.PluginAction); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.store.Bindings().Update(b); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update binding")
		return
	}
	writeJSON(w, http.StatusOK, toBindingResponse(b))
}

func (h *BindingHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Bindings().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Binding not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete binding")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// checkPlugin returns a client error message, or "" when the plugin can run
// the action.
func (h *BindingHandler) checkPlugin(name, action string) string {
	if h.plugins == nil {
		return ""
	}
	p, err := h.plugins.Get(name)
	if err != nil {
		return "Plugin not found"
	}
	if !p.Supports(action) {
		return "Plugin does not support plugin_action"
	}
	return ""
}
