// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package relay

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/z5labs/relay/config"
	"github.com/z5labs/relay/internal/try"
	"github.com/z5labs/relay/lifecycle"

	"github.com/spf13/cobra"
)

// App represents the entry point for user specific code. Both
// [rest.App] and the queue runtimes implement it, so the same
// procedures can be driven by whichever transport the App wires up.
type App interface {
	Run(context.Context) error
}

// AppBuilder represents anything which can initialize an [App].
type AppBuilder[T any] interface {
	Build(ctx context.Context, cfg T) (App, error)
}

// AppBuilderFunc is a functional implementation of
// the [AppBuilder] interface.
type AppBuilderFunc[T any] func(context.Context, T) (App, error)

// Build implements the [AppBuilder] interface.
func (f AppBuilderFunc[T]) Build(ctx context.Context, cfg T) (App, error) {
	return f(ctx, cfg)
}

// Run executes the application. It's responsible for reading the provided
// config sources, unmarshalling them into the generic config type, using
// the config and builder to build the users [App] and, lastly, running the
// returned [App]. A [lifecycle.Context] is injected into the
// [context.Context] given to builder, so the builder can register hooks
// to run after the [App] returns.
func Run[T any](ctx context.Context, builder AppBuilder[T], srcs ...config.Source) error {
	m, err := config.Read(srcs...)
	if err != nil {
		return ConfigReadError{Cause: err}
	}

	var cfg T
	err = m.Unmarshal(&cfg)
	if err != nil {
		return ConfigUnmarshalError{Cause: err}
	}

	var lc lifecycle.Context
	ctx = lifecycle.NewContext(ctx, &lc)

	app, err := builder.Build(ctx, cfg)
	if err != nil {
		return AppBuildError{Cause: err}
	}

	err = runApp(ctx, app, &lc)
	if err != nil {
		return AppRunError{Cause: err}
	}
	return nil
}

func runApp(ctx context.Context, app App, lc *lifecycle.Context) (err error) {
	// Post run hooks always run, even if app.Run panics.
	defer func() {
		hookErr := lc.PostRun().Run(ctx)
		err = errors.Join(err, hookErr)
	}()
	defer try.Recover(&err)

	return app.Run(ctx)
}

// Execute runs the application built by builder as a CLI command.
// It handles listening for interrupts from the underlying OS and
// terminates the application, via [context.Context] cancellation,
// when one is received.
func Execute[T any](name string, builder AppBuilder[T], srcs ...config.Source) error {
	cmd := &cobra.Command{
		Use:           name,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cmd.Context(), builder, srcs...)
		},
	}

	// All runtime configuration comes from the config sources
	// instead of CLI args.
	cmd.SetArgs([]string{})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer cancel()

	return cmd.ExecuteContext(ctx)
}

// ConfigReadError
type ConfigReadError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ConfigReadError) Error() string {
	return fmt.Sprintf("failed to read config source(s): %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ConfigReadError) Unwrap() error {
	return e.Cause
}

// ConfigUnmarshalError
type ConfigUnmarshalError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ConfigUnmarshalError) Error() string {
	return fmt.Sprintf("failed to unmarshal read config source(s) into custom type: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ConfigUnmarshalError) Unwrap() error {
	return e.Cause
}

// AppBuildError
type AppBuildError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e AppBuildError) Error() string {
	return fmt.Sprintf("failed to build app: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e AppBuildError) Unwrap() error {
	return e.Cause
}

// AppRunError
type AppRunError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e AppRunError) Error() string {
	return fmt.Sprintf("failed to run app: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e AppRunError) Unwrap() error {
	return e.Cause
}
