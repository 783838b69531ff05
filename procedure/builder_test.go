// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package procedure

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/z5labs/relay/validate"

	"github.com/stretchr/testify/assert"
)

type registrarFunc func(*Procedure)

func (f registrarFunc) Register(p *Procedure) {
	f(p)
}

func noopHandler() Handler {
	return HandlerFunc(func(ctx context.Context, pctx Context) (any, error) {
		return nil, nil
	})
}

func TestBuilder_Handle(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the builder was never bound to a router", func(t *testing.T) {
			_, err := New().Handle(http.MethodPost, "/echo", noopHandler())

			assert.ErrorIs(t, err, ErrDetachedBuilder)
		})

		t.Run("if the handler is nil", func(t *testing.T) {
			r := registrarFunc(func(p *Procedure) {})

			_, err := New().On(r).Handle(http.MethodPost, "/echo", nil)

			assert.ErrorIs(t, err, ErrNilHandler)
		})
	})

	t.Run("will register the sealed procedure", func(t *testing.T) {
		t.Run("if the builder is bound and has a handler", func(t *testing.T) {
			var registered *Procedure
			r := registrarFunc(func(p *Procedure) {
				registered = p
			})

			p, err := New().
				On(r).
				Input(map[string]validate.Validator{"body": validate.Func(func(v any) (any, error) {
					return v, nil
				})}).
				Error(StatusKey(404), errIs(errors.New("not found"))).
				Handle(http.MethodPost, "/echo", noopHandler())
			if !assert.Nil(t, err) {
				return
			}

			assert.Same(t, p, registered)
			assert.Equal(t, http.MethodPost, p.Method())
			assert.Equal(t, "/echo", p.Pattern())
			assert.Contains(t, p.InputSlots(), "body")
			assert.Equal(t, 1, p.Errors().Len())
			assert.NotNil(t, p.Handler())
		})
	})
}

func TestBuilder(t *testing.T) {
	t.Run("will not contaminate the base builder", func(t *testing.T) {
		t.Run("if two procedures are derived from it", func(t *testing.T) {
			var mwOrder []string
			mw := func(name string) Middleware {
				return MiddlewareFunc(func(ctx context.Context, pctx Context, next Next) (any, error) {
					mwOrder = append(mwOrder, name)
					return next(ctx, nil)
				})
			}

			var procedures []*Procedure
			r := registrarFunc(func(p *Procedure) {
				procedures = append(procedures, p)
			})

			base := New().
				On(r).
				Use(mw("base")).
				Error(StatusKey(500), errIs(errors.New("boom")))

			_, err := base.
				Use(mw("create")).
				Input(map[string]validate.Validator{"body": validate.Func(func(v any) (any, error) {
					return v, nil
				})}).
				Handle(http.MethodPost, "/books", noopHandler())
			if !assert.Nil(t, err) {
				return
			}

			_, err = base.
				Use(mw("get")).
				Error(StatusKey(404), errIs(errors.New("not found"))).
				Handle(http.MethodGet, "/books/{id}", noopHandler())
			if !assert.Nil(t, err) {
				return
			}

			if !assert.Len(t, procedures, 2) {
				return
			}

			create, get := procedures[0], procedures[1]

			assert.Len(t, create.Middleware(), 2)
			assert.Len(t, get.Middleware(), 2)
			assert.Contains(t, create.InputSlots(), "body")
			assert.Empty(t, get.InputSlots())
			assert.Equal(t, 1, create.Errors().Len())
			assert.Equal(t, 2, get.Errors().Len())
		})
	})

	t.Run("will replace the slot validator", func(t *testing.T) {
		t.Run("if a slot is declared twice", func(t *testing.T) {
			first := validate.Func(func(v any) (any, error) {
				return nil, validate.ParseError{Cause: errors.New("always rejects")}
			})
			second := validate.Func(func(v any) (any, error) {
				return v, nil
			})

			b := New().
				Input(map[string]validate.Validator{"body": first}).
				Input(map[string]validate.Validator{"body": second, "query": second})

			slots := b.inputs
			if !assert.Len(t, slots, 2) {
				return
			}

			_, err := slots["body"].Parse("anything")
			assert.Nil(t, err)
		})
	})
}

func TestProcedure_WithPattern(t *testing.T) {
	t.Run("will share configuration by reference", func(t *testing.T) {
		t.Run("if a procedure is re-homed under a new pattern", func(t *testing.T) {
			var registered *Procedure
			r := registrarFunc(func(p *Procedure) {
				registered = p
			})

			_, err := New().
				On(r).
				Error(StatusKey(404), errIs(errors.New("not found"))).
				Handle(http.MethodGet, "/books", noopHandler())
			if !assert.Nil(t, err) {
				return
			}

			moved := registered.WithPattern("/v1/books")

			assert.Equal(t, "/v1/books", moved.Pattern())
			assert.Equal(t, "/books", registered.Pattern())
			assert.Equal(t, registered.Method(), moved.Method())
			assert.Equal(t, registered.Errors().Len(), moved.Errors().Len())
		})
	})
}
