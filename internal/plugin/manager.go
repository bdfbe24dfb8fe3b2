package plugin

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrPluginNotFound is returned when a requested plugin cannot be found.
var ErrPluginNotFound = errors.New("plugin not found")

// Manager discovers plugins and looks them up by name.
type Manager struct {
	pluginDir string
	plugins   map[string]*Plugin
	// skipped maps a plugin subdirectory to the reason it was not loaded.
	skipped map[string]string
	mu      sync.RWMutex
}

// NewManager creates a new plugin Manager with the given plugin directory.
func NewManager(pluginDir string) *Manager {
	return &Manager{
		pluginDir: pluginDir,
		plugins:   make(map[string]*Plugin),
		skipped:   make(map[string]string),
	}
}

// Discover scans the plugin directory. Each subdirectory holding a
// plugin.json manifest is a plugin. Directories without a manifest are
// ignored; bad manifests are skipped and reported by Skipped.
func (m *Manager) Discover() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.plugins = make(map[string]*Plugin)
	m.skipped = make(map[string]string)

	info, err := os.Stat(m.pluginDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}

	entries, err := os.ReadDir(m.pluginDir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		pluginPath := filepath.Join(m.pluginDir, entry.Name())
		manifestPath := filepath.Join(pluginPath, "plugin.json")

		manifestData, err := os.ReadFile(manifestPath)
		if err != nil {
			continue
		}

		var manifest Manifest
		if err := json.Unmarshal(manifestData, &manifest); err != nil {
			m.skip(entry.Name(), "invalid manifest: "+err.Error())
			continue
		}
		if manifest.Name == "" || manifest.Executable == "" {
			m.skip(entry.Name(), "manifest needs name and executable")
			continue
		}
		executable := filepath.Join(pluginPath, manifest.Executable)
		if rel, err := filepath.Rel(pluginPath, executable); err != nil || strings.HasPrefix(rel, "..") {
			m.skip(entry.Name(), "executable outside the plugin directory")
			continue
		}
		if _, dup := m.plugins[manifest.Name]; dup {
			m.skip(entry.Name(), "duplicate plugin name "+manifest.Name)
			continue
		}

		m.plugins[manifest.Name] = &Plugin{
			Manifest:   manifest,
			Path:       pluginPath,
			Executable: executable,
		}
	}

	log.Printf("Discovered %d plugins in %s", len(m.plugins), m.pluginDir)
	return nil
}

// Get returns a plugin by name.
// Returns ErrPluginNotFound if the plugin does not exist.
func (m *Manager) Get(name string) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugin, ok := m.plugins[name]
	if !ok {
		return nil, ErrPluginNotFound
	}

	return plugin, nil
}

// List returns all discovered plugins sorted by name.
func (m *Manager) List() []*Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugins := make([]*Plugin, 0, len(m.plugins))
	for _, plugin := range m.plugins {
		plugins = append(plugins, plugin)
	}
	sort.Slice(plugins, func(i, j int) bool {
		return plugins[i].Manifest.Name < plugins[j].Manifest.Name
	})

	return plugins
}

// Skipped returns the plugin directories the last Discover rejected, with
// the reason.
func (m *Manager) Skipped() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string, len(m.skipped))
	for dir, reason := range m.skipped {
		out[dir] = reason
	}
	return out
}

func (m *Manager) skip(dir, reason string) {
	log.Printf("Skipping plugin %s: %s", dir, reason)
	m.skipped[dir] = reason
}

// PluginDir returns the plugin directory path.
func (m *Manager) PluginDir() string {
	return m.pluginDir
}
