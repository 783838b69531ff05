// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package validate

import (
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GRPCStatus returns a [Validator] which accepts error values
// carrying a gRPC status with the given code. The typed value
// produced by Parse is the [*status.Status].
//
// This is primarily meant for declaring procedure errors caused
// by gRPC client calls made from handlers or middleware.
func GRPCStatus(c codes.Code) Validator {
	return grpcStatus{code: c}
}

type grpcStatus struct {
	code codes.Code
}

// Parse implements the [Validator] interface.
func (g grpcStatus) Parse(v any) (any, error) {
	err, ok := v.(error)
	if !ok {
		return nil, ParseError{Cause: fmt.Errorf("value is not an error: %T", v)}
	}

	s, ok := status.FromError(err)
	if !ok {
		return nil, ParseError{Cause: fmt.Errorf("error does not carry a grpc status: %s", err)}
	}
	if s.Code() != g.code {
		return nil, ParseError{Cause: fmt.Errorf("grpc status code is %s instead of %s", s.Code(), g.code)}
	}
	return s, nil
}

// Matches implements the [Validator] interface.
func (g grpcStatus) Matches(v any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	_, err := g.Parse(v)
	return err == nil
}
