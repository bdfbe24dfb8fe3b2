package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"
)

// ErrUnsupportedAction is returned when a binding names an action the plugin
// does not declare.
var ErrUnsupportedAction = errors.New("plugin does not support action")

// Binding connects a gesture action to a plugin action.
type Binding struct {
	PluginName   string
	PluginAction string
	Params       json.RawMessage
	Enabled      bool
}

// BindingLookup finds the binding for a gesture action. It returns nil when
// the action is unbound.
type BindingLookup interface {
	Lookup(gestureAction string) (*Binding, error)
}

// Dispatcher runs the plugin bound to an action gesture.
type Dispatcher struct {
	bindings BindingLookup
	manager  *Manager
	executor *Executor
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(bindings BindingLookup, manager *Manager, executor *Executor) *Dispatcher {
	return &Dispatcher{bindings: bindings, manager: manager, executor: executor}
}

// Dispatch runs the binding for gestureAction, if any. It reports whether a
// plugin ran. A plugin that answers with success=false is an error.
func (d *Dispatcher) Dispatch(ctx context.Context, gestureAction string, ev *EventInfo) (bool, error) {
	b, err := d.bindings.Lookup(gestureAction)
	if err != nil {
		return false, fmt.Errorf("look up binding for %s: %w", gestureAction, err)
	}
	if b == nil || !b.Enabled {
		return false, nil
	}

	p, err := d.manager.Get(b.PluginName)
	if err != nil {
		return false, fmt.Errorf("%s: %w", b.PluginName, err)
	}
	if !p.Supports(b.PluginAction) {
		return false, fmt.Errorf("%w: %s %s", ErrUnsupportedAction, b.PluginName, b.PluginAction)
	}

	params := b.Params
	if len(params) == 0 {
		params = json.RawMessage("{}")
	}
	req := &Request{
		Action:  b.PluginAction,
		Gesture: gestureAction,
		Config:  json.RawMessage("{}"),
		Params:  params,
		Event:   ev,
	}

	start := time.Now()
	resp, err := d.executor.Execute(ctx, p, req)
	if err != nil {
		return true, err
	}
	if !resp.Success {
		return true, fmt.Errorf("plugin %s %s: %s", b.PluginName, b.PluginAction, resp.Error)
	}

	log.Printf("Plugin %s ran %s for %s in %v", b.PluginName, b.PluginAction, gestureAction, time.Since(start).Round(time.Millisecond))
	return true, nil
}
