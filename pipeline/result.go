// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package pipeline

import (
	"github.com/z5labs/relay/procedure"
)

// Kind discriminates the variants of a [Result].
type Kind string

const (
	// KindSuccess carries the validated handler output, or a raw
	// transport native value produced by the handler or a
	// short-circuiting middleware.
	KindSuccess Kind = "success"

	// KindInvalid means a raw input slot failed its declared
	// validator. It always yields the same fixed, low detail
	// rejection and is never matched against the error map.
	KindInvalid Kind = "invalid"

	// KindClassified means a value thrown by middleware or the
	// handler structurally matched a declared error condition.
	KindClassified Kind = "classified"

	// KindInternal covers everything opaque to the caller:
	// unclassified thrown values, output contract violations and
	// cancelled units of work. Detail never leaks to the caller;
	// it is only forwarded to the operator facing log.
	KindInternal Kind = "internal"
)

// Result is the outcome of a single pipeline run. The transport
// adapter turns it into a transport specific response.
type Result struct {
	Kind Kind

	// Value is the success value. Only set when Kind is KindSuccess.
	Value any

	// Key is the matched error map key, doubling as the transport
	// marker. Only set when Kind is KindClassified.
	Key procedure.Key

	// Message is the caller facing message for non success results.
	Message string

	// Err is the classified raw error value. Only set when Kind is
	// KindClassified; the procedure author declared this shape, so
	// its detail is caller visible.
	Err error
}

const (
	invalidMessage  = "invalid input"
	internalMessage = "internal error"
)

// Success returns a [Result] carrying the given value.
func Success(v any) Result {
	return Result{Kind: KindSuccess, Value: v}
}

// Invalid returns the fixed bad input [Result]. The slot name is the
// only detail exposed to the caller.
func Invalid(slot string) Result {
	msg := invalidMessage
	if slot != "" {
		msg = invalidMessage + ": " + slot
	}
	return Result{Kind: KindInvalid, Message: msg}
}

// Classified returns a [Result] for a thrown value which matched the
// declared error condition keyed by k.
func Classified(k procedure.Key, msg string, err error) Result {
	return Result{Kind: KindClassified, Key: k, Message: msg, Err: err}
}

// Internal returns the fixed opaque internal error [Result].
func Internal() Result {
	return Result{Kind: KindInternal, Message: internalMessage}
}
