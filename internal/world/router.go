package world

import (
	"context"
	"log/slog"
)

// HandlerFunc processes a single event.
type HandlerFunc func(ctx context.Context, ev Event)

// Middleware wraps a HandlerFunc.
type Middleware func(next HandlerFunc) HandlerFunc

// Router dispatches events to the handler registered for their kind.
type Router struct {
	logger     *slog.Logger
	handlers   map[EventKind]HandlerFunc
	middleware []Middleware
}

// NewRouter creates a Router. The given middleware wraps every handler.
func NewRouter(logger *slog.Logger, mw ...Middleware) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		logger:     logger.With("component", "event_router"),
		handlers:   make(map[EventKind]HandlerFunc),
		middleware: mw,
	}
}

// applyMiddleware wraps a handler function with a slice of middleware.
// Middleware are applied in reverse order so the first one in the slice is the outermost.
func applyMiddleware(handler HandlerFunc, mw []Middleware) HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	return handler
}

// Handle registers the handler for kind, wrapped with the router middleware
// followed by the handler-specific middleware.
func (r *Router) Handle(kind EventKind, h HandlerFunc, mw ...Middleware) {
	if h == nil {
		r.logger.Warn("Skipping registration for nil handler", "kind", kind)
		return
	}
	chain := append(append([]Middleware{}, r.middleware...), mw...)
	r.handlers[kind] = applyMiddleware(h, chain)
	r.logger.Debug("Registered event handler", "kind", kind, "middleware_count", len(chain))
}

// Dispatch runs the handler registered for the event kind. Events without a
// handler are dropped.
func (r *Router) Dispatch(ctx context.Context, ev Event) {
	h, ok := r.handlers[ev.Kind]
	if !ok {
		r.logger.DebugContext(ctx, "No handler for event, dropping", "kind", ev.Kind)
		return
	}
	h(ctx, ev)
}
