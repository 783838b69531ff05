// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package router

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/z5labs/relay/procedure"
	"github.com/z5labs/relay/validate"

	"github.com/stretchr/testify/assert"
)

func register(t *testing.T, r *Router, b procedure.Builder, method, pattern string) *procedure.Procedure {
	t.Helper()
	return registerReturning(t, r, b, method, pattern, nil)
}

func registerReturning(t *testing.T, r *Router, b procedure.Builder, method, pattern string, out any) *procedure.Procedure {
	t.Helper()

	p, err := b.On(r).Handle(method, pattern, procedure.HandlerFunc(func(ctx context.Context, pctx procedure.Context) (any, error) {
		return out, nil
	}))
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func invoke(t *testing.T, p *procedure.Procedure) any {
	t.Helper()

	v, err := p.Handler().Handle(context.Background(), procedure.NewContext(nil))
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func namedMiddleware(name string, order *[]string) procedure.Middleware {
	return procedure.MiddlewareFunc(func(ctx context.Context, pctx procedure.Context, next procedure.Next) (any, error) {
		*order = append(*order, name)
		return next(ctx, nil)
	})
}

func TestRouter_Lookup(t *testing.T) {
	t.Run("will return the procedure", func(t *testing.T) {
		t.Run("if the method and pattern were registered", func(t *testing.T) {
			r := New()
			p := register(t, r, procedure.New(), http.MethodGet, "/books")

			found, ok := r.Lookup(http.MethodGet, "/books")

			assert.True(t, ok)
			assert.Same(t, p, found)
		})

		t.Run("if the pattern is a topic with no method", func(t *testing.T) {
			r := New()
			p := register(t, r, procedure.New(), "", "orders.placed")

			found, ok := r.Lookup("", "orders.placed")

			assert.True(t, ok)
			assert.Same(t, p, found)
		})
	})

	t.Run("will return the last registration", func(t *testing.T) {
		t.Run("if the same method and pattern were registered twice", func(t *testing.T) {
			r := New()
			register(t, r, procedure.New(), http.MethodGet, "/books")
			second := register(t, r, procedure.New(), http.MethodGet, "/books")

			found, ok := r.Lookup(http.MethodGet, "/books")

			assert.True(t, ok)
			assert.Same(t, second, found)
		})
	})

	t.Run("will not return a procedure", func(t *testing.T) {
		t.Run("if only the method differs", func(t *testing.T) {
			r := New()
			register(t, r, procedure.New(), http.MethodGet, "/books")

			_, ok := r.Lookup(http.MethodPost, "/books")
			assert.False(t, ok)
		})

		t.Run("if nothing was registered", func(t *testing.T) {
			_, ok := New().Lookup(http.MethodGet, "/books")
			assert.False(t, ok)
		})
	})
}

func TestRouter_Merge(t *testing.T) {
	t.Run("will re-home procedures under the prefix", func(t *testing.T) {
		t.Run("if a prefix is given", func(t *testing.T) {
			books := New()
			original := registerReturning(t, books, procedure.New(), http.MethodGet, "/books", "list of books")

			api := New()
			api.Merge("/v1", books)

			moved, ok := api.Lookup(http.MethodGet, "/v1/books")
			if !assert.True(t, ok) {
				return
			}
			assert.Equal(t, "list of books", invoke(t, moved))

			// the merged-from router is unaffected
			kept, ok := books.Lookup(http.MethodGet, "/books")
			assert.True(t, ok)
			assert.Same(t, original, kept)

			_, ok = api.Lookup(http.MethodGet, "/books")
			assert.False(t, ok)
		})

		t.Run("if the prefix and pattern both carry a slash", func(t *testing.T) {
			books := New()
			register(t, books, procedure.New(), http.MethodGet, "/books")

			api := New()
			api.Merge("/v1/", books)

			_, ok := api.Lookup(http.MethodGet, "/v1/books")
			assert.True(t, ok)
		})
	})

	t.Run("will keep procedure configuration", func(t *testing.T) {
		t.Run("if the procedure declares error conditions", func(t *testing.T) {
			notFound := validate.Func(func(v any) (any, error) {
				return v, nil
			})

			books := New()
			register(t, books, procedure.New().Error(procedure.StatusKey(404), notFound), http.MethodGet, "/books/{id}")

			api := New()
			api.Merge("/v1", books)

			moved, ok := api.Lookup(http.MethodGet, "/v1/books/{id}")
			if !assert.True(t, ok) {
				return
			}
			assert.Equal(t, 1, moved.Errors().Len())
		})
	})

	t.Run("will append the merged middleware", func(t *testing.T) {
		t.Run("if both routers carry middleware", func(t *testing.T) {
			var order []string

			books := New()
			books.Use(namedMiddleware("books", &order))

			api := New()
			api.Use(namedMiddleware("api", &order))
			api.Merge("/v1", books)

			mws := api.Middleware()
			if !assert.Len(t, mws, 2) {
				return
			}

			for _, mw := range mws {
				_, err := mw.Serve(context.Background(), procedure.NewContext(nil), func(ctx context.Context, fields procedure.Fields) (any, error) {
					return nil, nil
				})
				if !assert.Nil(t, err) {
					return
				}
			}
			assert.Equal(t, []string{"api", "books"}, order)
		})
	})
}

func TestGroup(t *testing.T) {
	t.Run("will merge in entry order", func(t *testing.T) {
		t.Run("if multiple entries register the same pattern", func(t *testing.T) {
			first := New()
			registerReturning(t, first, procedure.New(), http.MethodGet, "/health", "first")

			second := New()
			registerReturning(t, second, procedure.New(), http.MethodGet, "/health", "second")

			r := Group(
				GroupEntry{Prefix: "", Router: first},
				GroupEntry{Prefix: "", Router: second},
			)

			found, ok := r.Lookup(http.MethodGet, "/health")
			if !assert.True(t, ok) {
				return
			}
			assert.Equal(t, "second", invoke(t, found))
		})

		t.Run("if entries use distinct prefixes", func(t *testing.T) {
			books := New()
			register(t, books, procedure.New(), http.MethodGet, "/list")

			authors := New()
			register(t, authors, procedure.New(), http.MethodGet, "/list")

			r := Group(
				GroupEntry{Prefix: "/books", Router: books},
				GroupEntry{Prefix: "/authors", Router: authors},
			)

			_, ok := r.Lookup(http.MethodGet, "/books/list")
			assert.True(t, ok)

			_, ok = r.Lookup(http.MethodGet, "/authors/list")
			assert.True(t, ok)
		})
	})
}

func TestRouter_Routes(t *testing.T) {
	t.Run("will return one procedure per route", func(t *testing.T) {
		t.Run("if a route was registered multiple times", func(t *testing.T) {
			r := New()
			register(t, r, procedure.New(), http.MethodGet, "/books")
			register(t, r, procedure.New(), http.MethodPost, "/books")
			winner := register(t, r, procedure.New(), http.MethodGet, "/books")

			routes := r.Routes()
			if !assert.Len(t, routes, 2) {
				return
			}

			// duplicate keeps its first registration position but
			// resolves to the last registered procedure
			assert.Same(t, winner, routes[0])
			assert.Equal(t, http.MethodPost, routes[1].Method())
		})
	})

	t.Run("will return no routes", func(t *testing.T) {
		t.Run("if nothing was registered", func(t *testing.T) {
			assert.Empty(t, New().Routes())
		})
	})
}

func TestErrorMapUnionAcrossRegistrations(t *testing.T) {
	t.Run("will classify with either validator", func(t *testing.T) {
		t.Run("if a base procedure and a route declare the same key", func(t *testing.T) {
			errA := errors.New("missing book")
			errB := errors.New("missing author")

			matchErr := func(target error) validate.Validator {
				return validate.Func(func(v any) (any, error) {
					err, ok := v.(error)
					if !ok || !errors.Is(err, target) {
						return nil, validate.ParseError{Cause: errors.New("does not match")}
					}
					return err, nil
				})
			}

			r := New()
			base := procedure.New().Error(procedure.StatusKey(404), matchErr(errA))
			p := register(t, r, base.Error(procedure.StatusKey(404), matchErr(errB)), http.MethodGet, "/books/{id}")

			entries := p.Errors().Entries()
			if !assert.Len(t, entries, 1) {
				return
			}
			assert.True(t, entries[0].Validator.Matches(errA))
			assert.True(t, entries[0].Validator.Matches(errB))
		})
	})
}
