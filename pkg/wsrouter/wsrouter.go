package wsrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrInvalidPayload     = errors.New("invalid payload")
)

type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

type Middleware func(next HandlerFunc) HandlerFunc

type WSRouter struct {
	mu          sync.RWMutex
	routes      map[string]HandlerFunc
	middlewares []Middleware
}

func New() *WSRouter {
	return &WSRouter{routes: make(map[string]HandlerFunc)}
}

// Use appends middlewares applied to every route registered afterwards.
func (r *WSRouter) Use(middlewares ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.middlewares = append(r.middlewares, middlewares...)
}

func (r *WSRouter) HandleRaw(messageType string, handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.middlewares) - 1; i >= 0; i-- {
		handler = r.middlewares[i](handler)
	}
	r.routes[messageType] = handler
}

// Handle registers a handler whose payload is decoded into T. An absent
// payload leaves T at its zero value.
func Handle[T any](r *WSRouter, messageType string, handler func(ctx context.Context, payload T) error) {
	r.HandleRaw(messageType, func(ctx context.Context, raw json.RawMessage) error {
		var payload T
		if len(raw) != 0 && !bytes.Equal(raw, []byte("null")) {
			if err := json.Unmarshal(raw, &payload); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
			}
		}

		return handler(ctx, payload)
	})
}

func (r *WSRouter) Dispatch(ctx context.Context, msg Message) error {
	r.mu.RLock()
	handler, exists := r.routes[msg.Type]
	r.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %q", ErrUnknownMessageType, msg.Type)
	}

	return handler(context.WithValue(ctx, messageTypeKey, msg.Type), msg.Payload)
}
