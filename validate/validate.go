// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package validate defines the schema capability used by relay procedures.
package validate

import (
	"errors"
	"fmt"
)

// Validator is the capability relay procedures use to describe
// their inputs, outputs and declared errors.
//
// Parse must be a pure, deterministic mapping from an untyped value
// to either a typed value or a rejection. Matches reports whether an
// arbitrary value conforms to the schema without producing the typed
// value; it must be usable on values which never went through Parse,
// e.g. errors returned from a handler. Implementations must never
// panic out of Matches.
//
// For any value v where Parse(v) succeeds, Matches(v) must be true.
type Validator interface {
	Parse(v any) (any, error)
	Matches(v any) bool
}

// Func adapts a parse func into a [Validator].
// Matches is derived from Parse succeeding.
type Func func(any) (any, error)

// Parse implements the [Validator] interface.
func (f Func) Parse(v any) (any, error) {
	return f(v)
}

// Matches implements the [Validator] interface.
func (f Func) Matches(v any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	_, err := f(v)
	return err == nil
}

// ParseError occurs when a value does not conform to a [Validator].
type ParseError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ParseError) Error() string {
	return fmt.Sprintf("failed to parse value: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ParseError) Unwrap() error {
	return e.Cause
}

type anyOf struct {
	vs []Validator
}

// Any returns a [Validator] representing the union of the given
// validators. Parse returns the first successful parse, in order.
// Matches reports whether any of the validators match.
func Any(vs ...Validator) Validator {
	return anyOf{vs: vs}
}

// Parse implements the [Validator] interface.
func (u anyOf) Parse(v any) (any, error) {
	errs := make([]error, 0, len(u.vs))
	for _, sub := range u.vs {
		tv, err := sub.Parse(v)
		if err == nil {
			return tv, nil
		}
		errs = append(errs, err)
	}
	return nil, ParseError{Cause: errors.Join(errs...)}
}

// Matches implements the [Validator] interface.
func (u anyOf) Matches(v any) bool {
	for _, sub := range u.vs {
		if safeMatches(sub, v) {
			return true
		}
	}
	return false
}

type allOf struct {
	vs []Validator
}

// All returns a [Validator] which only accepts values conforming
// to every one of the given validators. Parse returns the typed
// value produced by the last validator.
func All(vs ...Validator) Validator {
	return allOf{vs: vs}
}

// Parse implements the [Validator] interface.
func (u allOf) Parse(v any) (any, error) {
	var tv any = v
	for _, sub := range u.vs {
		var err error
		tv, err = sub.Parse(v)
		if err != nil {
			return nil, err
		}
	}
	return tv, nil
}

// Matches implements the [Validator] interface.
func (u allOf) Matches(v any) bool {
	for _, sub := range u.vs {
		if !safeMatches(sub, v) {
			return false
		}
	}
	return true
}

// safeMatches guards against misbehaving Matches implementations.
// A panic during matching means "does not match".
func safeMatches(val Validator, v any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	return val.Matches(v)
}
