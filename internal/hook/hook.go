// Package hook dispatches dataset lifecycle events to registered callbacks.
package hook

import (
	"fmt"
	"sync"

	"github.com/lewtec/datasetkit/internal/domain"
)

// Event names a point of a dataset operation
type Event string

const (
	ImportStart   Event = "import_start"
	ImportEnd     Event = "import_end"
	ImageAdded    Event = "image_added"
	SplitEnd      Event = "split_end"
	ExportStart   Event = "export_start"
	ExportEnd     Event = "export_end"
	ImageExported Event = "image_exported"
	ImageSkipped  Event = "image_skipped"
)

// Payload carries the event details. Unused fields are zero.
type Payload struct {
	Dataset string
	Format  string
	ImageID int
	Path    string
	Total   int
	Reason  string
}

// Callback is anything that can be registered on a Hook. Two callbacks with
// the same key are the same callback.
type Callback interface {
	Key() string
}

// Handler is implemented by callbacks that want to receive events
type Handler interface {
	OnEvent(event Event, payload Payload)
}

// Funcs is a Callback made of one function per event
type Funcs struct {
	Name     string
	Handlers map[Event]func(Payload)
}

func (f *Funcs) Key() string {
	return f.Name
}

func (f *Funcs) OnEvent(event Event, payload Payload) {
	if fn, ok := f.Handlers[event]; ok {
		fn(payload)
	}
}

// Hook holds an ordered list of callbacks plus per-event default handlers.
// It is safe for concurrent use.
type Hook struct {
	mu        sync.RWMutex
	callbacks []Callback
	defaults  map[Event]func(Payload)
}

// New creates a Hook with the given callbacks registered
func New(callbacks ...Callback) (*Hook, error) {
	h := &Hook{}
	for _, cb := range callbacks {
		if err := h.Register(cb); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// Register appends a callback. Registering a key twice fails.
func (h *Hook) Register(cb Callback) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, existing := range h.callbacks {
		if existing.Key() == cb.Key() {
			return fmt.Errorf("%w: callback '%s' already registered", domain.ErrInvalidValue, cb.Key())
		}
	}
	h.callbacks = append(h.callbacks, cb)
	return nil
}

// Unregister removes the callback at position idx
func (h *Hook) Unregister(idx int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if idx < 0 || idx >= len(h.callbacks) {
		return fmt.Errorf("%w: no callback at index %d", domain.ErrNotFound, idx)
	}
	h.callbacks = append(h.callbacks[:idx], h.callbacks[idx+1:]...)
	return nil
}

// Callbacks returns the registered callbacks in registration order
func (h *Hook) Callbacks() []Callback {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]Callback(nil), h.callbacks...)
}

// SetDefault installs the handler run by RunDefault for event
func (h *Hook) SetDefault(event Event, fn func(Payload)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.defaults == nil {
		h.defaults = map[Event]func(Payload){}
	}
	h.defaults[event] = fn
}

// RunCallbacks calls every registered Handler in registration order
func (h *Hook) RunCallbacks(event Event, payload Payload) {
	if h == nil {
		return
	}
	for _, cb := range h.Callbacks() {
		if handler, ok := cb.(Handler); ok {
			handler.OnEvent(event, payload)
		}
	}
}

// RunDefault calls the default handler of event, if any
func (h *Hook) RunDefault(event Event, payload Payload) {
	if h == nil {
		return
	}
	h.mu.RLock()
	fn := h.defaults[event]
	h.mu.RUnlock()
	if fn != nil {
		fn(payload)
	}
}

// Emit runs the default handler and then the callbacks
func (h *Hook) Emit(event Event, payload Payload) {
	h.RunDefault(event, payload)
	h.RunCallbacks(event, payload)
}
