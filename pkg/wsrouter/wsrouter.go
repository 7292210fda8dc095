package wsrouter

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrUnknownType = errors.New("unknown message type")
	ErrDecode      = errors.New("failed to decode payload")
)

// Input is an inbound message whose payload is decoded lazily by the route.
type Input interface {
	MessageType() string
	Decode(v any) error
}

type HandlerFunc[T any] func(ctx context.Context, payload T) error

type Middleware func(next HandlerFunc[any]) HandlerFunc[any]

type route func(ctx context.Context, in Input) error

type WSRouter struct {
	routes      map[string]route
	middlewares []Middleware
}

func New() *WSRouter {
	return &WSRouter{routes: make(map[string]route)}
}

func (r *WSRouter) Use(mw ...Middleware) {
	r.middlewares = append(r.middlewares, mw...)
}

// Handle registers handler for messageType. The payload is decoded into T before
// the middlewares run.
func Handle[T any](r *WSRouter, messageType string, handler HandlerFunc[T]) {
	r.routes[messageType] = func(ctx context.Context, in Input) error {
		var payload T
		if err := in.Decode(&payload); err != nil {
			return fmt.Errorf("%w: %w", ErrDecode, err)
		}

		return r.chain(func(ctx context.Context, p any) error {
			return handler(ctx, p.(T))
		})(ctx, payload)
	}
}

// HandleInput registers a handler that decodes the payload itself.
func (r *WSRouter) HandleInput(messageType string, handler HandlerFunc[Input]) {
	r.routes[messageType] = func(ctx context.Context, in Input) error {
		return r.chain(func(ctx context.Context, p any) error {
			return handler(ctx, p.(Input))
		})(ctx, in)
	}
}

func (r *WSRouter) chain(h HandlerFunc[any]) HandlerFunc[any] {
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		h = r.middlewares[i](h)
	}

	return h
}

func (r *WSRouter) Dispatch(ctx context.Context, in Input) error {
	h, ok := r.routes[in.MessageType()]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownType, in.MessageType())
	}

	return h(withMessageType(ctx, in.MessageType()), in)
}
