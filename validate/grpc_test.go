// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestGRPCStatus(t *testing.T) {
	t.Run("will return the status", func(t *testing.T) {
		t.Run("if the error carries a status with the expected code", func(t *testing.T) {
			err := status.Error(codes.NotFound, "book not found")

			v, perr := GRPCStatus(codes.NotFound).Parse(err)
			if !assert.Nil(t, perr) {
				return
			}

			s, ok := v.(*status.Status)
			if !assert.True(t, ok) {
				return
			}
			assert.Equal(t, codes.NotFound, s.Code())
			assert.Equal(t, "book not found", s.Message())
		})
	})

	t.Run("will return a ParseError", func(t *testing.T) {
		t.Run("if the value is not an error", func(t *testing.T) {
			_, err := GRPCStatus(codes.NotFound).Parse("not an error")

			var perr ParseError
			assert.ErrorAs(t, err, &perr)
		})

		t.Run("if the error does not carry a status", func(t *testing.T) {
			_, err := GRPCStatus(codes.NotFound).Parse(errors.New("plain error"))

			var perr ParseError
			assert.ErrorAs(t, err, &perr)
		})

		t.Run("if the status code differs", func(t *testing.T) {
			err := status.Error(codes.PermissionDenied, "nope")

			_, perr := GRPCStatus(codes.NotFound).Parse(err)

			var parseErr ParseError
			assert.ErrorAs(t, perr, &parseErr)
		})
	})

	t.Run("will not match", func(t *testing.T) {
		t.Run("if the status code differs", func(t *testing.T) {
			err := status.Error(codes.PermissionDenied, "nope")

			assert.False(t, GRPCStatus(codes.NotFound).Matches(err))
		})
	})
}
