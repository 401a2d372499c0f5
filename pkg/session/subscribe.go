package session

import (
	"github.com/litejet-protocol/litejet-go/pkg/subscription"
	"github.com/litejet-protocol/litejet-go/pkg/wire"
)

// Subscriptions are a thin veneer over the registry: one key per item and
// event kind, plus the connectivity key. Handlers run on the dispatcher
// goroutine in subscription order. Subscribing works at any point in the
// session's life, before Open included.

// OnLoadActivated subscribes handler to activation events for the given
// global load number.
func (s *Session) OnLoadActivated(index int, handler subscription.Handler) {
	s.registry.Subscribe(wire.Key(wire.EventLoadActivated, index), handler)
}

// OnLoadDeactivated subscribes handler to deactivation events for the
// given global load number.
func (s *Session) OnLoadDeactivated(index int, handler subscription.Handler) {
	s.registry.Subscribe(wire.Key(wire.EventLoadDeactivated, index), handler)
}

// OnSwitchPressed subscribes handler to press events for the given global
// switch number.
func (s *Session) OnSwitchPressed(index int, handler subscription.Handler) {
	s.registry.Subscribe(wire.Key(wire.EventSwitchPressed, index), handler)
}

// OnSwitchReleased subscribes handler to release events for the given
// global switch number.
func (s *Session) OnSwitchReleased(index int, handler subscription.Handler) {
	s.registry.Subscribe(wire.Key(wire.EventSwitchReleased, index), handler)
}

// OnConnectedChanged subscribes handler to connectivity edges. The event
// carries the new state and, on a loss, the reason.
func (s *Session) OnConnectedChanged(handler subscription.Handler) {
	s.registry.Subscribe(wire.ConnectivityKey, handler)
}

// Unsubscribe removes handler from every event it was subscribed to and
// reports whether it was found. Events already queued for dispatch may
// still reach it.
func (s *Session) Unsubscribe(handler subscription.Handler) bool {
	return s.registry.Unsubscribe(handler)
}
