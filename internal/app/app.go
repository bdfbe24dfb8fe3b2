// Package app wires the pose source, the gesture engine worker and the event
// consumers (journal, websocket hub, tray, metrics and plugins) together.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/source"
	"github.com/ayusman/mudra/internal/store"
)

// DefaultPluginTimeout bounds a single plugin run.
const DefaultPluginTimeout = 5 * time.Second

// Broadcaster publishes events to remote listeners.
type Broadcaster interface {
	Broadcast(ev gesture.Event) error
}

// Display shows the latest event to the user.
type Display interface {
	Show(ev gesture.Event)
}

// Config holds the collaborators of an App. Only Settings and Source are
// required.
type Config struct {
	Settings config.Config
	// Source builds the pose source opener for the effective settings. It is
	// called on every start, so setting changes reach the source.
	Source func(settings config.Config) source.Opener
	Policy source.Policy

	Store         *store.Store
	Plugins       *plugin.Manager
	PluginTimeout time.Duration
	Metrics       *metrics.Collector
	Hub           Broadcaster
	Display       Display
	// Record receives every frame read while running, in replay format.
	Record io.Writer
	// OnEvent is called for every event after the other consumers.
	OnEvent func(ev gesture.Event)
}

// App runs the gesture pipeline and restarts it when settings change.
type App struct {
	config     Config
	metrics    *metrics.Collector
	dispatcher *plugin.Dispatcher

	mu       sync.Mutex
	settings config.Config
	parent   context.Context
	run      *run
	lastErr  error
	journal  int
}

// run is one started pipeline.
type run struct {
	cancel  context.CancelFunc
	src     source.Source
	done    chan struct{}
	plugins sync.WaitGroup
	err     error
}

// New creates an App. Persisted settings in the store are overlaid on
// cfg.Settings; invalid persisted values are logged and ignored.
func New(cfg Config) (*App, error) {
	if cfg.Source == nil {
		return nil, errors.New("app: no pose source")
	}
	if cfg.Policy == (source.Policy{}) {
		cfg.Policy = source.DefaultPolicy()
	}
	if cfg.PluginTimeout <= 0 {
		cfg.PluginTimeout = DefaultPluginTimeout
	}

	a := &App{
		config:   cfg,
		metrics:  cfg.Metrics,
		settings: cfg.Settings,
		parent:   context.Background(),
	}
	if a.metrics == nil {
		a.metrics = metrics.New()
	}

	if err := a.settings.Validate(); err != nil {
		return nil, err
	}

	if cfg.Store != nil {
		persisted, err := cfg.Store.Settings().All()
		if err != nil {
			return nil, fmt.Errorf("load settings: %w", err)
		}
		if len(persisted) > 0 {
			if err := a.settings.ApplySettings(persisted); err != nil {
				log.Printf("Ignoring persisted settings: %v", err)
			} else {
				log.Printf("Applied %d persisted settings", len(persisted))
			}
		}

		if cfg.Plugins != nil {
			a.dispatcher = plugin.NewDispatcher(
				storeBindings{cfg.Store},
				cfg.Plugins,
				plugin.NewExecutor(cfg.PluginTimeout),
			)
		}
	}

	return a, nil
}

// Start opens the pose source, retrying with backoff, and starts the engine
// worker. ctx bounds the whole run. Starting a running App is a no-op.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.parent = ctx
	return a.startLocked()
}

func (a *App) startLocked() error {
	if a.run != nil {
		return nil
	}

	engine, err := gesture.New(a.settings.Engine())
	if err != nil {
		return err
	}
	engine.WithObserver(a.metrics)

	src, err := source.Open(a.parent, a.config.Source(a.settings), a.config.Policy)
	if err != nil {
		return fmt.Errorf("open pose source: %w", err)
	}

	var frames gesture.FrameSource = source.WithRetry(src, a.config.Policy)
	if a.config.Record != nil {
		frames = source.Record(frames, a.config.Record)
	}

	ctx, cancel := context.WithCancel(a.parent)
	r := &run{cancel: cancel, src: src, done: make(chan struct{})}
	events := make(chan gesture.Event, a.settings.QueueSize)

	go func() {
		r.err = engine.Run(ctx, frames, events)
		if r.err != nil {
			log.Printf("Gesture engine failed: %v", r.err)
		}
		close(events)
	}()

	go func() {
		defer close(r.done)
		for ev := range events {
			a.consume(ctx, r, ev)
		}
		r.plugins.Wait()
	}()

	a.run = r
	a.lastErr = nil
	log.Println("Detection pipeline started")
	return nil
}

// Stop halts the pipeline, waits for in-flight plugins and closes the
// source. It is safe to call on a stopped App.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
}

func (a *App) stopLocked() {
	r := a.run
	if r == nil {
		return
	}
	a.run = nil

	r.cancel()
	<-r.done
	if err := r.src.Close(); err != nil {
		log.Printf("Error closing pose source: %v", err)
	}
	a.lastErr = r.err
	log.Println("Detection pipeline stopped")
}

// Wait blocks until the current run ends by itself (end of a replay, source
// failure or context cancellation) and returns the worker error.
func (a *App) Wait() error {
	a.mu.Lock()
	r := a.run
	a.mu.Unlock()

	if r == nil {
		a.mu.Lock()
		defer a.mu.Unlock()
		return a.lastErr
	}
	<-r.done

	a.mu.Lock()
	if a.run == r {
		a.stopLocked()
	}
	a.mu.Unlock()
	return r.err
}

// IsRunning reports whether the pipeline is started.
func (a *App) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.run != nil
}

// SetEnabled starts or stops recognition.
func (a *App) SetEnabled(enabled bool) error {
	if enabled {
		a.mu.Lock()
		defer a.mu.Unlock()
		return a.startLocked()
	}
	a.Stop()
	return nil
}

// Effective returns a copy of the effective configuration.
func (a *App) Effective() config.Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settings
}

// Reconfigure replaces the configuration. A running pipeline is restarted
// with a fresh engine so no state carries over.
func (a *App) Reconfigure(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.settings = cfg
	if a.run == nil {
		return nil
	}
	a.stopLocked()
	return a.startLocked()
}

// Settings returns the effective user-facing settings.
func (a *App) Settings() (map[string]string, error) {
	return a.Effective().Settings(), nil
}

// UpdateSettings validates changes against the effective configuration,
// persists them and restarts the pipeline with the result.
func (a *App) UpdateSettings(changes map[string]string) (map[string]string, error) {
	next := a.Effective()
	if err := next.ApplySettings(changes); err != nil {
		return nil, err
	}

	if a.config.Store != nil {
		if err := a.config.Store.Settings().SetAll(changes); err != nil {
			return nil, fmt.Errorf("persist settings: %w", err)
		}
	}
	if err := a.Reconfigure(next); err != nil {
		return nil, err
	}

	log.Printf("Settings updated: %v", changes)
	return next.Settings(), nil
}

// ApplyPreset switches to a named preset.
func (a *App) ApplyPreset(name string) error {
	_, err := a.UpdateSettings(map[string]string{config.KeyPreset: name})
	return err
}

// Metrics returns the detection metrics collector.
func (a *App) Metrics() *metrics.Collector {
	return a.metrics
}

// LiveSource returns a Source func for the camera pipeline. MediaPipe is
// preferred; without it the mock detector keeps the pipeline alive with no
// hands.
func LiveSource(settings config.Config) source.Opener {
	cam := capture.NewCamera(capture.Options{
		DeviceID: settings.CameraID,
		Width:    settings.CameraWidth,
		Height:   settings.CameraHeight,
		FPS:      settings.CameraFPS,
		Mirror:   settings.CameraMirror,
	})

	var det detector.Detector
	if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
		det = mp
		log.Println("Using MediaPipe hand detection")
	} else {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		det = detector.NewMockDetector()
	}

	return source.CameraOpener(cam, det, settings.PreferredHand)
}

// ReplaySource returns a Source func that replays a recording.
func ReplaySource(path string, paced bool) func(config.Config) source.Opener {
	return func(config.Config) source.Opener {
		return source.ReplayOpener(path, paced)
	}
}
