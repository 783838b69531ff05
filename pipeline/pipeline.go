// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package pipeline executes registered procedures against raw transport input.
//
// A transport adapter hands the executor a procedure, a raw input
// bundle and the adapter specific context seed. The executor owns
// everything in between: input validation, the router and procedure
// middleware chains, handler invocation, output validation and the
// classification of thrown errors against the procedure's declared
// error map. The adapter only turns the returned [Result] into a
// transport specific response.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/z5labs/relay/internal/try"
	"github.com/z5labs/relay/noop"
	"github.com/z5labs/relay/otelslog"
	"github.com/z5labs/relay/procedure"
	"github.com/z5labs/relay/router"
	"github.com/z5labs/relay/slogfield"
	"github.com/z5labs/relay/validate"

	"go.opentelemetry.io/otel"
)

// Bundle is the raw, untyped input of a unit of work, keyed by slot
// name. A slot declared by the procedure but absent from the bundle
// is validated against a nil value; a bundle field without a
// declared slot passes through unvalidated.
type Bundle map[string]any

// Option represents configurable attributes of an [Executor].
type Option func(*Executor)

// LogHandler configures the slog.Handler used for the operator
// facing error log.
func LogHandler(h slog.Handler) Option {
	return func(e *Executor) {
		e.log = otelslog.New(h)
	}
}

// Executor runs procedures registered in a single router. It is
// stateless per unit of work and safe for concurrent use.
type Executor struct {
	router *router.Router
	log    *slog.Logger
}

// New returns an [Executor] dispatching for the given router.
func New(r *router.Router, opts ...Option) *Executor {
	e := &Executor{
		router: r,
		log:    otelslog.New(noop.LogHandler{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs one unit of work to completion.
//
// Stages run in a fixed order: input validation, router level
// middleware, procedure level middleware, the handler, output
// validation. Any error returned (or panicked) by middleware or the
// handler is classified against the procedure's error map. Each
// stage runs at most once; a cancelled context unwinds without
// running output validation.
func (e *Executor) Execute(ctx context.Context, p *procedure.Procedure, bundle Bundle, seed procedure.Fields) Result {
	spanCtx, span := otel.Tracer("pipeline").Start(ctx, "Executor.Execute")
	defer span.End()

	pctx := procedure.NewContext(seed)

	parsed, slot, err := e.validateInput(spanCtx, p, bundle)
	if err != nil {
		e.log.DebugContext(spanCtx, "input failed validation", slogfield.String("slot", slot), slogfield.Error(err))
		return Invalid(slot)
	}
	pctx = pctx.With(procedure.Fields{procedure.InputField: parsed})

	out, invoked, err := e.runChain(spanCtx, p, pctx)
	if err != nil {
		return e.classify(spanCtx, p, err)
	}
	if !invoked {
		// short-circuit: the middleware's value is the exact result
		return Success(out)
	}

	if err := spanCtx.Err(); err != nil {
		e.log.DebugContext(spanCtx, "unit of work was cancelled before output validation", slogfield.Error(err))
		return Internal()
	}
	return e.validateOutput(spanCtx, p, out)
}

// validateInput parses every declared input slot against the
// corresponding raw bundle field. The first failure aborts; on
// success it returns the union of all parsed slot values merged
// over the undeclared raw fields.
func (e *Executor) validateInput(ctx context.Context, p *procedure.Procedure, bundle Bundle) (procedure.Fields, string, error) {
	_, span := otel.Tracer("pipeline").Start(ctx, "Executor.validateInput")
	defer span.End()

	parsed := make(procedure.Fields, len(bundle))
	for name, raw := range bundle {
		parsed[name] = raw
	}

	slots := p.InputSlots()
	for name, v := range slots {
		tv, err := parseSlot(v, bundle[name])
		if err != nil {
			return nil, name, err
		}
		parsed[name] = tv
	}
	return parsed, "", nil
}

// parseSlot guards against misbehaving validators; a panic during
// parsing is reported as a parse failure.
func parseSlot(v validate.Validator, raw any) (tv any, err error) {
	defer try.Recover(&err)
	return v.Parse(raw)
}

// runChain runs the router middleware, the procedure middleware and
// finally the handler, as one explicit continuation chain. It
// reports whether the handler was invoked; when it was not, the
// returned value is a middleware short-circuit.
func (e *Executor) runChain(ctx context.Context, p *procedure.Procedure, pctx procedure.Context) (any, bool, error) {
	spanCtx, span := otel.Tracer("pipeline").Start(ctx, "Executor.runChain")
	defer span.End()

	mws := make([]procedure.Middleware, 0, len(e.router.Middleware())+len(p.Middleware()))
	mws = append(mws, e.router.Middleware()...)
	mws = append(mws, p.Middleware()...)

	invoked := false

	var run func(ctx context.Context, pctx procedure.Context, i int) (any, error)
	run = func(ctx context.Context, pctx procedure.Context, i int) (any, error) {
		if i == len(mws) {
			invoked = true
			return e.invoke(ctx, p, pctx)
		}

		// Each recursion level closes over its own pctx so a
		// narrowing next call is only visible downstream.
		next := procedure.Next(func(ctx context.Context, fields procedure.Fields) (any, error) {
			return run(ctx, pctx.With(fields), i+1)
		})
		return serve(ctx, mws[i], pctx, next)
	}

	out, err := run(spanCtx, pctx, 0)
	return out, invoked, err
}

func serve(ctx context.Context, mw procedure.Middleware, pctx procedure.Context, next procedure.Next) (out any, err error) {
	defer try.Recover(&err)
	return mw.Serve(ctx, pctx, next)
}

func (e *Executor) invoke(ctx context.Context, p *procedure.Procedure, pctx procedure.Context) (out any, err error) {
	spanCtx, span := otel.Tracer("pipeline").Start(ctx, "Executor.invoke")
	defer span.End()
	defer try.Recover(&err)

	return p.Handler().Handle(spanCtx, pctx)
}

// validateOutput parses the candidate output against the declared
// output validator. A failure here is an output contract violation:
// the handler broke its own declaration, which is never the caller's
// concern, so the caller always sees the fixed internal error shape.
func (e *Executor) validateOutput(ctx context.Context, p *procedure.Procedure, out any) Result {
	spanCtx, span := otel.Tracer("pipeline").Start(ctx, "Executor.validateOutput")
	defer span.End()

	if _, ok := out.(procedure.Raw); ok {
		return Success(out)
	}

	ov := p.Output()
	if ov == nil {
		return Success(out)
	}

	tv, err := parseSlot(ov, out)
	if err != nil {
		e.log.ErrorContext(spanCtx, "handler output violates its declared output contract",
			slogfield.String("pattern", p.Pattern()),
			slogfield.Error(err),
		)
		span.RecordError(err)
		return Internal()
	}
	return Success(tv)
}
