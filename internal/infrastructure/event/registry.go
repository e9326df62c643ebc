package event

import (
	"slices"
	"sync"

	"github.com/synexa/sis/internal/domain/shared"
)

// subscription binds a handler to a set of event types; a nil set matches
// every event.
type subscription struct {
	handler shared.EventHandler
	types   map[string]struct{}
}

func (s subscription) wildcard() bool { return s.types == nil }

// HandlerRegistry resolves which handlers receive an event. Handlers bound to
// the event's type come first, in registration order, then the wildcard ones.
type HandlerRegistry struct {
	mu   sync.RWMutex
	subs []subscription
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{}
}

// Register binds handler to eventTypes, or to every event when none are given.
// Repeating a typed registration only adds the missing types.
func (r *HandlerRegistry) Register(handler shared.EventHandler, eventTypes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(eventTypes) == 0 {
		r.subs = append(r.subs, subscription{handler: handler})
		return
	}
	i := slices.IndexFunc(r.subs, func(s subscription) bool { return s.handler == handler && !s.wildcard() })
	if i < 0 {
		r.subs = append(r.subs, subscription{handler: handler, types: make(map[string]struct{}, len(eventTypes))})
		i = len(r.subs) - 1
	}
	for _, t := range eventTypes {
		r.subs[i].types[t] = struct{}{}
	}
}

// Unregister drops every binding of handler.
func (r *HandlerRegistry) Unregister(handler shared.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = slices.DeleteFunc(r.subs, func(s subscription) bool { return s.handler == handler })
}

func (r *HandlerRegistry) GetHandlers(eventType string) []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var typed, all []shared.EventHandler
	for _, s := range r.subs {
		if s.wildcard() {
			all = append(all, s.handler)
			continue
		}
		if _, ok := s.types[eventType]; ok {
			typed = append(typed, s.handler)
		}
	}
	return append(typed, all...)
}

// Len counts distinct handlers.
func (r *HandlerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[shared.EventHandler]struct{}, len(r.subs))
	for _, s := range r.subs {
		seen[s.handler] = struct{}{}
	}
	return len(seen)
}
