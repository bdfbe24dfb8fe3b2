// Package server provides the HTTP API and websocket event stream that the
// HMI front end consumes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/store"
)

// Config holds the server dependencies. Nil members disable their routes.
type Config struct {
	StaticDir string
	Store     *store.Store
	Hub       *Hub
	Metrics   *metrics.Collector
	Plugins   *plugin.Manager
	Settings  api.SettingsService
	// Running reports whether the gesture engine is active.
	Running func() bool
}

// Server represents the HTTP server for the mudra service.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	http   *http.Server
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Hub != nil {
		s.mux.Handle("/api/events", s.config.Hub)
	}

	if s.config.Store != nil {
		s.mux.Handle("/api/events/history", api.NewHistoryHandler(s.config.Store))

		var catalog api.PluginCatalog
		if s.config.Plugins != nil {
			catalog = s.config.Plugins
		}
		bindings := api.NewBindingHandler(s.config.Store, catalog)
		s.mux.Handle("/api/bindings", bindings)
		s.mux.Handle("/api/bindings/", bindings)
	}

	if s.config.Settings != nil {
		s.mux.Handle("/api/settings", api.NewSettingsHandler(s.config.Settings))
	}

	if s.config.Metrics != nil {
		s.mux.HandleFunc("/api/metrics", s.handleMetrics)
	}

	if s.config.Plugins != nil {
		s.mux.HandleFunc("/api/plugins", s.handlePlugins)
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).Round(time.Second).String(),
	}
	if s.config.Running != nil {
		response["engine_running"] = s.config.Running()
	}
	if s.config.Hub != nil {
		response["clients"] = s.config.Hub.Clients()
	}

	writeJSON(w, response)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, s.config.Metrics.Report())
	case http.MethodDelete:
		s.config.Metrics.Reset()
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handlePlugins(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	plugins := s.config.Plugins.List()
	manifests := make([]plugin.Manifest, 0, len(plugins))
	for _, p := range plugins {
		manifests = append(manifests, p.Manifest)
	}
	writeJSON(w, map[string]any{
		"plugins": manifests,
		"skipped": s.config.Plugins.Skipped(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.http = &http.Server{Addr: addr, Handler: s}

	errc := make(chan error, 1)
	go func() {
		errc <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if s.config.Hub != nil {
			s.config.Hub.Close()
		}
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
