// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package procedure

import (
	"context"
)

// Handler runs a sealed procedure with the fully narrowed [Context].
// Its return value becomes the candidate output of the pipeline.
type Handler interface {
	Handle(ctx context.Context, pctx Context) (any, error)
}

// HandlerFunc is a func variant of the [Handler] interface.
type HandlerFunc func(ctx context.Context, pctx Context) (any, error)

// Handle implements the [Handler] interface.
func (f HandlerFunc) Handle(ctx context.Context, pctx Context) (any, error) {
	return f(ctx, pctx)
}

// Next is the continuation handed to a [Middleware]. Passing nil
// fields continues with the current [Context] unchanged; non-nil
// fields are merged over it for every later stage.
type Next func(ctx context.Context, fields Fields) (any, error)

// Middleware wraps the remainder of a pipeline run.
//
// A middleware must either call next exactly once, or short-circuit
// by returning without calling next. A short-circuit return value is
// handed back to the transport adapter untouched; no later middleware,
// the handler, nor output validation run. A middleware which neither
// calls next nor returns is a deployer visible bug the pipeline does
// not defend against.
type Middleware interface {
	Serve(ctx context.Context, pctx Context, next Next) (any, error)
}

// MiddlewareFunc is a func variant of the [Middleware] interface.
type MiddlewareFunc func(ctx context.Context, pctx Context, next Next) (any, error)

// Serve implements the [Middleware] interface.
func (f MiddlewareFunc) Serve(ctx context.Context, pctx Context, next Next) (any, error) {
	return f(ctx, pctx, next)
}

// Raw marks transport native values. A handler returning a Raw value,
// or a middleware short-circuiting with one, bypasses output
// validation and the value reaches the transport adapter untouched.
type Raw interface {
	RawResponse()
}
