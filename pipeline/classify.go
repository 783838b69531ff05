// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package pipeline

import (
	"context"

	"github.com/z5labs/relay/procedure"
	"github.com/z5labs/relay/slogfield"
	"github.com/z5labs/relay/validate"

	"go.opentelemetry.io/otel"
)

// Messager can be implemented by declared error types to control
// the caller facing message of a classified error.
type Messager interface {
	Message() string
}

// classify matches a thrown value against the procedure's declared
// error conditions, in collision resolved insertion order. The first
// structurally matching entry wins; two unrelated conditions whose
// validators both match the same shape is an ambiguity the pipeline
// does not attempt to resolve.
//
// A value matching no entry is opaque to the caller: the fixed
// internal error shape is returned and the original value only
// reaches the operator facing log.
func (e *Executor) classify(ctx context.Context, p *procedure.Procedure, err error) Result {
	spanCtx, span := otel.Tracer("pipeline").Start(ctx, "Executor.classify")
	defer span.End()

	for _, entry := range p.Errors().Entries() {
		if !matches(entry.Validator, err) {
			continue
		}
		return Classified(entry.Key, classifiedMessage(entry.Validator, err), err)
	}

	span.RecordError(err)
	e.log.ErrorContext(spanCtx, "failed to classify error against declared error conditions",
		slogfield.String("pattern", p.Pattern()),
		slogfield.Error(err),
	)
	return Internal()
}

// matches treats a panicking validator as "does not match".
func matches(v validate.Validator, err error) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	return v.Matches(err)
}

// classifiedMessage extracts the caller facing message of a
// classified error. The typed value parsed by the matching validator
// is preferred; the error text is the fallback.
func classifiedMessage(v validate.Validator, err error) string {
	tv, perr := parseSlot(v, err)
	if perr == nil {
		if m, ok := tv.(Messager); ok {
			return m.Message()
		}
		if terr, ok := tv.(error); ok {
			return terr.Error()
		}
	}
	return err.Error()
}
