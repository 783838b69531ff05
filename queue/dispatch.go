// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package queue

import (
	"context"
	"log/slog"

	"github.com/z5labs/relay/noop"
	"github.com/z5labs/relay/otelslog"
	"github.com/z5labs/relay/pipeline"
	"github.com/z5labs/relay/procedure"
	"github.com/z5labs/relay/router"
	"github.com/z5labs/relay/slogfield"

	"go.opentelemetry.io/otel"
)

// SlotMessage is the input slot name under which a message payload
// is bundled. Procedures meant to consume messages declare their
// payload validator for this slot.
const SlotMessage = "message"

// Envelope is the transport independent form of a consumed message.
type Envelope struct {
	// Topic routes the envelope to a procedure. Message procedures
	// register their topic as the route pattern with an empty method.
	Topic string

	// Payload is the raw message payload.
	Payload []byte

	// Fields are seeded into the procedure context, e.g. broker
	// message ids for middleware and handlers to log or act on.
	Fields procedure.Fields
}

// Decoder turns a broker specific message into an [Envelope].
type Decoder[T any] interface {
	Decode(T) (Envelope, error)
}

// DecoderFunc is a func variant of the [Decoder] interface.
type DecoderFunc[T any] func(T) (Envelope, error)

// Decode implements the [Decoder] interface.
func (f DecoderFunc[T]) Decode(msg T) (Envelope, error) {
	return f(msg)
}

// UnroutedError is returned when no procedure is registered for an
// envelope's topic.
type UnroutedError struct {
	Topic string
}

// Error implements the [builtin.error] interface.
func (e UnroutedError) Error() string {
	return "queue: no procedure registered for topic: " + e.Topic
}

// CodedError is returned by [Dispatcher.Process] when a run did not
// succeed. Code carries the error map key of a classified error, or
// "bad_request"/"internal" for the fixed rejection shapes.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the [builtin.error] interface.
func (e CodedError) Error() string {
	return "queue: " + e.Code + ": " + e.Message
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e CodedError) Unwrap() error {
	return e.Cause
}

// DispatcherOption represents configurable attributes of [Dispatcher].
type DispatcherOption func(*dispatcherOptions)

type dispatcherOptions struct {
	logHandler slog.Handler
}

// DispatcherLogHandler configures the slog.Handler used by the
// dispatcher and its pipeline executor.
func DispatcherLogHandler(h slog.Handler) DispatcherOption {
	return func(do *dispatcherOptions) {
		do.logHandler = h
	}
}

// Dispatcher is a [Processor] which routes each consumed message to
// a registered procedure and runs it through the pipeline executor.
// It is the message transport counterpart of serving a router over
// HTTP: the same procedures, validation and error classification
// apply to both.
type Dispatcher[T any] struct {
	dec    Decoder[T]
	router *router.Router
	ex     *pipeline.Executor
	log    *slog.Logger
}

// NewDispatcher initializes a [Dispatcher] for the given router.
func NewDispatcher[T any](r *router.Router, dec Decoder[T], opts ...DispatcherOption) *Dispatcher[T] {
	do := &dispatcherOptions{
		logHandler: noop.LogHandler{},
	}
	for _, opt := range opts {
		opt(do)
	}

	return &Dispatcher[T]{
		dec:    dec,
		router: r,
		ex:     pipeline.New(r, pipeline.LogHandler(do.logHandler)),
		log:    otelslog.New(do.logHandler),
	}
}

// Process implements the [Processor] interface.
func (d *Dispatcher[T]) Process(ctx context.Context, msg T) error {
	spanCtx, span := otel.Tracer("queue").Start(ctx, "Dispatcher.Process")
	defer span.End()

	e, err := d.dec.Decode(msg)
	if err != nil {
		d.log.ErrorContext(spanCtx, "failed to decode message", slogfield.Error(err))
		return err
	}

	p, ok := d.router.Lookup("", e.Topic)
	if !ok {
		d.log.ErrorContext(spanCtx, "no procedure registered for topic", slogfield.String("topic", e.Topic))
		return UnroutedError{Topic: e.Topic}
	}

	bundle := pipeline.Bundle{SlotMessage: e.Payload}
	result := d.ex.Execute(spanCtx, p, bundle, e.Fields)
	switch result.Kind {
	case pipeline.KindSuccess:
		return nil
	case pipeline.KindInvalid:
		return CodedError{Code: "bad_request", Message: result.Message}
	case pipeline.KindClassified:
		return CodedError{Code: string(result.Key), Message: result.Message, Cause: result.Err}
	default:
		return CodedError{Code: "internal", Message: result.Message}
	}
}
