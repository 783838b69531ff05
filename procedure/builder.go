// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package procedure

import (
	"errors"

	"github.com/z5labs/relay/validate"
)

// Registrar is the target a sealed [Procedure] is registered into.
// It is implemented by router.Router.
type Registrar interface {
	Register(*Procedure)
}

// ErrDetachedBuilder occurs when sealing a [Builder] which was never
// bound to a [Registrar] with [Builder.On]. This is a programmer
// error detected at setup time, never at request time.
var ErrDetachedBuilder = errors.New("procedure: builder is not bound to a router")

// ErrNilHandler occurs when sealing a [Builder] with a nil [Handler].
var ErrNilHandler = errors.New("procedure: handler is nil")

// Builder accumulates procedure configuration before sealing.
//
// Builder is an immutable value; every configuration method returns
// a new Builder instead of modifying the receiver. This makes any
// Builder a reusable base procedure: the same value can seed many
// registrations, each inheriting the base middleware, inputs, output
// and errors and then layering its own, without cross-contamination.
type Builder struct {
	registrar  Registrar
	inputs     map[string]validate.Validator
	output     validate.Validator
	errs       ErrorMap
	middleware []Middleware
}

// New returns an empty, detached [Builder]. It must be bound with
// [Builder.On] before it can be sealed.
func New() Builder {
	return Builder{}
}

// On returns a copy of b bound to the given registration target.
func (b Builder) On(r Registrar) Builder {
	cp := b
	cp.registrar = r
	return cp
}

// Input returns a copy of b with the given input slots declared.
// Redeclaring a slot replaces its validator; last write wins per
// slot. Slots declared by earlier Input calls are kept.
func (b Builder) Input(slots map[string]validate.Validator) Builder {
	cp := b
	cp.inputs = make(map[string]validate.Validator, len(b.inputs)+len(slots))
	for name, v := range b.inputs {
		cp.inputs[name] = v
	}
	for name, v := range slots {
		cp.inputs[name] = v
	}
	return cp
}

// Output returns a copy of b with the given output contract
// declared. Last write wins.
func (b Builder) Output(v validate.Validator) Builder {
	cp := b
	cp.output = v
	return cp
}

// Error returns a copy of b with the given error condition
// declared. Declaring a key twice unions the validators instead of
// overwriting, see [ErrorMap].
func (b Builder) Error(k Key, v validate.Validator) Builder {
	cp := b
	cp.errs = b.errs.Add(k, v)
	return cp
}

// Use returns a copy of b with the given middleware appended.
// Middleware only ever accumulates; it is never replaced.
func (b Builder) Use(mw ...Middleware) Builder {
	cp := b
	cp.middleware = make([]Middleware, len(b.middleware), len(b.middleware)+len(mw))
	copy(cp.middleware, b.middleware)
	cp.middleware = append(cp.middleware, mw...)
	return cp
}

// Handle seals the builder into a [Procedure] registered under the
// given method and pattern, and registers it with the bound
// [Registrar]. The returned Procedure is immutable.
//
// Handle fails with [ErrDetachedBuilder] if the builder was never
// bound with [Builder.On].
func (b Builder) Handle(method, pattern string, h Handler) (*Procedure, error) {
	if b.registrar == nil {
		return nil, ErrDetachedBuilder
	}
	if h == nil {
		return nil, ErrNilHandler
	}

	p := &Procedure{
		method:     method,
		pattern:    pattern,
		inputs:     b.inputs,
		output:     b.output,
		errs:       b.errs,
		middleware: b.middleware,
		handler:    h,
	}
	b.registrar.Register(p)
	return p, nil
}
