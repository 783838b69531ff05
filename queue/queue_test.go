// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type consumerFunc[T any] func(context.Context) (T, error)

func (f consumerFunc[T]) Consume(ctx context.Context) (T, error) {
	return f(ctx)
}

type processorFunc[T any] func(context.Context, T) error

func (f processorFunc[T]) Process(ctx context.Context, value T) error {
	return f(ctx, value)
}

func TestSequentialRuntime_Run(t *testing.T) {
	t.Run("will stop", func(t *testing.T) {
		t.Run("if the context is cancelled before consuming", func(t *testing.T) {
			c := consumerFunc[int](func(ctx context.Context) (int, error) {
				return 0, nil
			})
			p := processorFunc[int](func(ctx context.Context, i int) error {
				return nil
			})

			rt := Sequential[int](c, p)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			cancel()
			err := rt.Run(ctx)
			if !assert.Nil(t, err) {
				return
			}
		})

		t.Run("if the context is cancelled before processing", func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			c := consumerFunc[int](func(ctx context.Context) (int, error) {
				cancel()
				return 0, nil
			})
			p := processorFunc[int](func(ctx context.Context, i int) error {
				return nil
			})

			rt := Sequential[int](c, p)

			err := rt.Run(ctx)
			if !assert.Nil(t, err) {
				return
			}
		})
	})

	t.Run("will continue", func(t *testing.T) {
		t.Run("if it fails to consume", func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			var count atomic.Uint64
			c := consumerFunc[int](func(ctx context.Context) (int, error) {
				count.Add(1)
				if count.Load() > 5 {
					cancel()
				}
				return 0, errors.New("failed to consume")
			})

			called := false
			p := processorFunc[int](func(ctx context.Context, i int) error {
				called = true
				return nil
			})

			rt := Sequential[int](c, p)

			err := rt.Run(ctx)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.False(t, called) {
				return
			}
		})

		t.Run("if the consumer has no item available", func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			var count atomic.Uint64
			c := consumerFunc[int](func(ctx context.Context) (int, error) {
				count.Add(1)
				if count.Load() > 5 {
					cancel()
				}
				return 0, ErrNoItem
			})

			called := false
			p := processorFunc[int](func(ctx context.Context, i int) error {
				called = true
				return nil
			})

			rt := Sequential[int](c, p)

			err := rt.Run(ctx)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.False(t, called) {
				return
			}
		})

		t.Run("if it fails to process", func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			c := consumerFunc[int](func(ctx context.Context) (int, error) {
				return 0, nil
			})

			var count atomic.Uint64
			p := processorFunc[int](func(ctx context.Context, i int) error {
				count.Add(1)
				if count.Load() > 5 {
					cancel()
				}
				return errors.New("failed to process")
			})

			rt := Sequential[int](c, p)

			err := rt.Run(ctx)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Greater(t, count.Load(), uint64(1)) {
				return
			}
		})

		t.Run("if the consumer panics", func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			var count atomic.Uint64
			c := consumerFunc[int](func(ctx context.Context) (int, error) {
				count.Add(1)
				if count.Load() > 5 {
					cancel()
				}
				panic("consume panic")
			})

			p := processorFunc[int](func(ctx context.Context, i int) error {
				return nil
			})

			rt := Sequential[int](c, p)

			err := rt.Run(ctx)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Greater(t, count.Load(), uint64(1)) {
				return
			}
		})
	})
}

func TestPipeRuntime_Run(t *testing.T) {
	t.Run("will stop", func(t *testing.T) {
		t.Run("if the context is cancelled", func(t *testing.T) {
			c := consumerFunc[int](func(ctx context.Context) (int, error) {
				return 0, nil
			})
			p := processorFunc[int](func(ctx context.Context, i int) error {
				return nil
			})

			rt := Pipe[int](c, p)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			cancel()
			err := rt.Run(ctx)
			if !assert.Nil(t, err) {
				return
			}
		})
	})

	t.Run("will process items", func(t *testing.T) {
		t.Run("if items are consumed successfully", func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			var consumed atomic.Uint64
			c := consumerFunc[int](func(ctx context.Context) (int, error) {
				n := consumed.Add(1)
				return int(n), nil
			})

			var processed atomic.Uint64
			p := processorFunc[int](func(ctx context.Context, i int) error {
				if processed.Add(1) >= 5 {
					cancel()
				}
				return nil
			})

			rt := Pipe[int](c, p, MaxConcurrentProcessors(2))

			err := rt.Run(ctx)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.GreaterOrEqual(t, processed.Load(), uint64(5)) {
				return
			}
		})

		t.Run("if a processor panics", func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			c := consumerFunc[int](func(ctx context.Context) (int, error) {
				return 0, nil
			})

			var count atomic.Uint64
			p := processorFunc[int](func(ctx context.Context, i int) error {
				if count.Add(1) >= 5 {
					cancel()
				}
				panic("process panic")
			})

			rt := Pipe[int](c, p)

			err := rt.Run(ctx)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.GreaterOrEqual(t, count.Load(), uint64(5)) {
				return
			}
		})
	})
}
