// Package config provides configuration file watching and hot reload.
package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/kart-io/logger"
	"github.com/spf13/viper"
)

// ChangeHandler is invoked with the updated viper instance after the config
// file changes.
type ChangeHandler func(v *viper.Viper) error

// Watcher dispatches config file changes to subscribed handlers.
type Watcher struct {
	viper    *viper.Viper
	handlers map[string]ChangeHandler
	mu       sync.RWMutex
	watching bool
}

// NewWatcher creates a new configuration watcher over v.
func NewWatcher(v *viper.Viper) *Watcher {
	return &Watcher{
		viper:    v,
		handlers: make(map[string]ChangeHandler),
	}
}

// Subscribe registers a change handler; an existing id is replaced.
func (w *Watcher) Subscribe(id string, handler ChangeHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[id] = handler
	logger.Debugw("config watcher: handler subscribed", "id", id)
}

// Unsubscribe removes a change handler by its identifier.
func (w *Watcher) Unsubscribe(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.handlers, id)
}

// Start begins watching the config file. It is a no-op when no config file
// was loaded, and idempotent otherwise.
func (w *Watcher) Start() {
	if w.viper.ConfigFileUsed() == "" {
		logger.Debug("config watcher: no config file in use, watching disabled")
		return
	}

	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return
	}
	w.watching = true
	w.mu.Unlock()

	w.viper.OnConfigChange(func(e fsnotify.Event) {
		logger.Infow("config file changed", "file", e.Name, "op", e.Op.String())
		w.Notify()
	})
	w.viper.WatchConfig()
	logger.Infow("config watcher started", "file", w.viper.ConfigFileUsed())
}

// Notify runs every handler in id order. A failing handler is logged and
// does not stop the others. It returns the number of failed handlers.
func (w *Watcher) Notify() int {
	w.mu.RLock()
	ids := make([]string, 0, len(w.handlers))
	handlers := make(map[string]ChangeHandler, len(w.handlers))
	for id, h := range w.handlers {
		ids = append(ids, id)
		handlers[id] = h
	}
	w.mu.RUnlock()
	sort.Strings(ids)

	failed := 0
	for _, id := range ids {
		if err := handlers[id](w.viper); err != nil {
			failed++
			logger.Errorw("config watcher: handler failed", "id", id, "error", err.Error())
		}
	}
	return failed
}

// HandlerCount returns the number of registered handlers.
func (w *Watcher) HandlerCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.handlers)
}

// ReloadableSubscriber unmarshals one config section into target and hands
// it to a Reloadable component.
type ReloadableSubscriber struct {
	component Reloadable
	configKey string
	target    any
}

// NewReloadableSubscriber creates a subscriber for configKey (e.g. "rag").
// target must be a pointer.
func NewReloadableSubscriber(component Reloadable, configKey string, target any) *ReloadableSubscriber {
	return &ReloadableSubscriber{
		component: component,
		configKey: configKey,
		target:    target,
	}
}

// Handler returns the ChangeHandler to register with a Watcher.
func (rs *ReloadableSubscriber) Handler() ChangeHandler {
	return func(v *viper.Viper) error {
		if err := v.UnmarshalKey(rs.configKey, rs.target); err != nil {
			return fmt.Errorf("failed to unmarshal config key '%s': %w", rs.configKey, err)
		}
		if err := rs.component.OnConfigChange(rs.target); err != nil {
			return fmt.Errorf("component rejected config change: %w", err)
		}
		return nil
	}
}
