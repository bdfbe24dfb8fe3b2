package app

import (
	"context"
	"log"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/store"
)

// Journal size limits. The journal is trimmed every journalPruneEvery
// appends to the newest journalKeep events.
const (
	journalKeep       = 10000
	journalPruneEvery = 500
)

// consume fans one event out to every consumer. Failures are logged and
// never reach the engine.
func (a *App) consume(ctx context.Context, r *run, ev gesture.Event) {
	a.metrics.ObserveEvent(string(ev.Kind), ev.Value, ev.Timestamp)

	if a.config.Store != nil {
		a.journalEvent(ev)
	}

	if a.config.Hub != nil {
		if err := a.config.Hub.Broadcast(ev); err != nil {
			log.Printf("Failed to broadcast event: %v", err)
		}
	}

	if a.config.Display != nil {
		a.config.Display.Show(ev)
	}

	if a.config.OnEvent != nil {
		a.config.OnEvent(ev)
	}

	if ev.Kind == gesture.KindAction && a.dispatcher != nil {
		info := &plugin.EventInfo{
			ID:         ev.ID,
			Kind:       string(ev.Kind),
			Value:      ev.Value,
			Confidence: ev.Confidence,
			Timestamp:  ev.Timestamp,
		}
		// Plugins run beside the consumer so a slow plugin cannot back up
		// the event queue.
		r.plugins.Add(1)
		go func() {
			defer r.plugins.Done()
			if _, err := a.dispatcher.Dispatch(ctx, ev.Value, info); err != nil {
				log.Printf("Action %s failed: %v", ev.Value, err)
			}
		}()
	}
}

func (a *App) journalEvent(ev gesture.Event) {
	err := a.config.Store.Events().Append(store.Event{
		ID:         ev.ID,
		Kind:       string(ev.Kind),
		Value:      ev.Value,
		Confidence: ev.Confidence,
		Zone:       ev.Zone,
		OccurredAt: ev.Timestamp,
	})
	if err != nil {
		log.Printf("Failed to journal event: %v", err)
		return
	}

	a.journal++
	if a.journal%journalPruneEvery == 0 {
		if n, err := a.config.Store.Events().Prune(journalKeep); err != nil {
			log.Printf("Failed to prune journal: %v", err)
		} else if n > 0 {
			log.Printf("Pruned %d journal events", n)
		}
	}
}

// storeBindings resolves action bindings from the store.
type storeBindings struct {
	store *store.Store
}

func (b storeBindings) Lookup(action string) (*plugin.Binding, error) {
	sb, err := b.store.Bindings().GetByAction(action)
	if err != nil || sb == nil {
		return nil, err
	}
	return &plugin.Binding{
		PluginName:   sb.PluginName,
		PluginAction: sb.PluginAction,
		Params:       sb.Config,
		Enabled:      sb.Enabled,
	}, nil
}
