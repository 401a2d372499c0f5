package subscription

import (
	"log/slog"
	"sync"

	"github.com/litejet-protocol/litejet-go/pkg/wire"
)

// Handler receives events for the keys it is subscribed to.
type Handler interface {
	HandleEvent(event wire.Event)
}

// funcHandler adapts a plain function to Handler. The pointer gives the
// function a stable identity so Unsubscribe can find it again.
type funcHandler struct {
	fn func(event wire.Event)
}

func (h *funcHandler) HandleEvent(event wire.Event) {
	h.fn(event)
}

// FuncHandler wraps fn in a Handler with a comparable identity. Hold on to
// the returned value to unsubscribe later; wrapping the same function twice
// yields two distinct handlers.
func FuncHandler(fn func(event wire.Event)) Handler {
	return &funcHandler{fn: fn}
}

// Registry maps event keys to ordered handler lists.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string][]Handler

	logger *slog.Logger
}

// NewRegistry creates an empty registry. A nil logger disables panic
// reporting but not panic recovery.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers handler for the given event key. The same handler may
// be registered under any number of keys; registering it twice under one key
// delivers each event to it twice.
func (r *Registry) Subscribe(key string, handler Handler) {
	if handler == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[key] = append(r.handlers[key], handler)
}

// Unsubscribe removes every registration of handler across all keys.
// Returns true if at least one registration was removed.
func (r *Registry) Unsubscribe(handler Handler) bool {
	if handler == nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := false
	for key, list := range r.handlers {
		kept := list[:0]
		for _, h := range list {
			if h == handler {
				removed = true
				continue
			}
			kept = append(kept, h)
		}
		if len(kept) == 0 {
			delete(r.handlers, key)
		} else {
			r.handlers[key] = kept
		}
	}
	return removed
}

// Notify delivers event to the handlers subscribed to its key, in
// registration order. Handlers run on the caller's goroutine; a handler
// that subscribes or unsubscribes during delivery affects later events,
// not this one.
func (r *Registry) Notify(event wire.Event) {
	key := event.Key()

	r.mu.RLock()
	list := r.handlers[key]
	snapshot := make([]Handler, len(list))
	copy(snapshot, list)
	r.mu.RUnlock()

	for _, h := range snapshot {
		r.invoke(h, event)
	}
}

// invoke runs one handler, containing any panic so the remaining handlers
// still see the event.
func (r *Registry) invoke(h Handler, event wire.Event) {
	defer func() {
		if rec := recover(); rec != nil && r.logger != nil {
			r.logger.Error("event handler panicked",
				"key", event.Key(),
				"panic", rec)
		}
	}()
	h.HandleEvent(event)
}

// HandlerCount returns the number of handlers registered for key.
func (r *Registry) HandlerCount(key string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers[key])
}

// Len returns the total number of registrations across all keys.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, list := range r.handlers {
		n += len(list)
	}
	return n
}
