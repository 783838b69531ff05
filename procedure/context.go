// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package procedure

// Fields is a set of named values contributed to a [Context].
type Fields map[string]any

// Context carries the named values threaded through a single
// pipeline run. It always contains the transport supplied fields
// it was seeded with, plus any fields contributed by middleware.
//
// Context values are immutable. With returns a new Context rather
// than modifying the receiver, so a middleware can never remove a
// field nor retroactively change what earlier stages observed.
// A Context belongs to exactly one unit of work and is never shared
// across concurrently executing units.
type Context struct {
	values map[string]any
}

// NewContext returns a [Context] seeded with the given fields.
func NewContext(fields Fields) Context {
	values := make(map[string]any, len(fields))
	for k, v := range fields {
		values[k] = v
	}
	return Context{values: values}
}

// With returns a copy of c with the given fields added. Existing
// fields with the same name are overridden in the copy.
func (c Context) With(fields Fields) Context {
	if len(fields) == 0 {
		return c
	}

	values := make(map[string]any, len(c.values)+len(fields))
	for k, v := range c.values {
		values[k] = v
	}
	for k, v := range fields {
		values[k] = v
	}
	return Context{values: values}
}

// Value returns the named field, if present.
func (c Context) Value(name string) (any, bool) {
	v, ok := c.values[name]
	return v, ok
}

// InputField is the reserved [Context] field name under which the
// pipeline stores the parsed input slots as a [Fields] value.
const InputField = "input"

// Input returns the parsed input slots of the procedure, keyed by
// slot name. It returns nil before input validation has run.
func (c Context) Input() Fields {
	v, ok := c.values[InputField]
	if !ok {
		return nil
	}
	fields, ok := v.(Fields)
	if !ok {
		return nil
	}
	return fields
}

// InputSlot returns the parsed value of a single input slot.
func (c Context) InputSlot(name string) (any, bool) {
	v, ok := c.Input()[name]
	return v, ok
}
