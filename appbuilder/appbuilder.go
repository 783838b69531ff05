// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package appbuilder provides helpers for common relay.AppBuilder implementation patterns.
package appbuilder

import (
	"context"

	"github.com/z5labs/relay"
	"github.com/z5labs/relay/config"
	"github.com/z5labs/relay/internal/try"
)

// Recover will wrap the given [relay.AppBuilder] with panic recovery.
func Recover[T any](builder relay.AppBuilder[T]) relay.AppBuilder[T] {
	return relay.AppBuilderFunc[T](func(ctx context.Context, cfg T) (_ relay.App, err error) {
		defer try.Recover(&err)

		return builder.Build(ctx, cfg)
	})
}

// FromConfig returns a [relay.AppBuilder] which unmarshals
// the given [relay.AppBuilder]s input type, T, from a [config.Source].
func FromConfig[T any](builder relay.AppBuilder[T]) relay.AppBuilder[config.Source] {
	return relay.AppBuilderFunc[config.Source](func(ctx context.Context, src config.Source) (relay.App, error) {
		m, err := config.Read(src)
		if err != nil {
			return nil, err
		}

		var cfg T
		err = m.Unmarshal(&cfg)
		if err != nil {
			return nil, err
		}

		return builder.Build(ctx, cfg)
	})
}
