package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"sjsage522/dealscout/logger"
)

// Handler answers one message type
type Handler func(ctx context.Context, msg Message) Response

// Router maps message types to handlers
type Router struct {
	mu       sync.RWMutex
	handlers map[MessageType]Handler
	log      *logger.Logger
}

// NewRouter creates an empty router
func NewRouter() *Router {
	return &Router{
		handlers: make(map[MessageType]Handler),
		log:      logger.ForTransport(),
	}
}

// Handle registers h for t, replacing any previous handler
func (r *Router) Handle(t MessageType, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[t] = h
}

// Types lists the registered message types
func (r *Router) Types() []MessageType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]MessageType, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Dispatch runs the handler for msg. ok is false for unknown types,
// which get no response at all.
func (r *Router) Dispatch(ctx context.Context, msg Message) (resp Response, ok bool) {
	r.mu.RLock()
	h, found := r.handlers[msg.Type]
	r.mu.RUnlock()
	if !found {
		r.log.Debug().Str("type", string(msg.Type)).Msg("No handler for message")
		return nil, false
	}

	defer func() {
		if p := recover(); p != nil {
			r.log.Error().Str("type", string(msg.Type)).Interface("panic", p).Msg("Handler panicked")
			resp, ok = Fail(fmt.Sprintf("handler panic: %v", p)), true
		}
	}()

	resp = h(ctx, msg)
	if resp == nil {
		resp = OK(nil)
	}
	return resp, true
}

// LocalBus delivers messages to a Router in the same process. Both the
// request and the response are encoded on the way.
type LocalBus struct {
	router *Router
}

// NewLocalBus creates a bus over router
func NewLocalBus(router *Router) *LocalBus {
	return &LocalBus{router: router}
}

func (b *LocalBus) Request(ctx context.Context, msg Message) (Response, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	var in Message
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, err
	}

	resp, ok := b.router.Dispatch(ctx, in)
	if !ok {
		return nil, ErrNoResponse
	}
	return roundTrip(resp)
}

func roundTrip(resp Response) (Response, error) {
	raw, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
