// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package procedure defines the sealed unit of work executed by the relay pipeline.
package procedure

import (
	"github.com/z5labs/relay/validate"
)

// Procedure is a sealed, immutable unit combining input, output and
// error contracts with an ordered middleware chain and a handler.
//
// Procedures are created by a [Builder], sealed when the handler is
// attached and registered into exactly one router. After that they
// are never mutated and are safe to share, read only, across all
// concurrently executing units of work.
type Procedure struct {
	method  string
	pattern string

	inputs     map[string]validate.Validator
	output     validate.Validator
	errs       ErrorMap
	middleware []Middleware
	handler    Handler
}

// Method returns the transport method, if any. Message based
// transports register procedures without a method.
func (p *Procedure) Method() string {
	return p.method
}

// Pattern returns the transport path or topic pattern.
func (p *Procedure) Pattern() string {
	return p.pattern
}

// InputSlots returns the declared input slot validators by slot
// name. A slot absent from the returned map carries no constraint;
// its raw value passes through unchanged. The returned map must not
// be modified.
func (p *Procedure) InputSlots() map[string]validate.Validator {
	return p.inputs
}

// Output returns the declared output validator, or nil when the
// procedure declares no output contract.
func (p *Procedure) Output() validate.Validator {
	return p.output
}

// Errors returns the declared error conditions.
func (p *Procedure) Errors() ErrorMap {
	return p.errs
}

// Middleware returns the procedure level middleware in registration
// order. The returned slice must not be modified.
func (p *Procedure) Middleware() []Middleware {
	return p.middleware
}

// Handler returns the sealed handler.
func (p *Procedure) Handler() Handler {
	return p.handler
}

// WithPattern returns a copy of p registered under a different
// pattern. Validators, middleware and the handler are shared by
// reference with the original. This is how routers re-home
// procedures when merging under a prefix.
func (p *Procedure) WithPattern(pattern string) *Procedure {
	cp := *p
	cp.pattern = pattern
	return &cp
}
