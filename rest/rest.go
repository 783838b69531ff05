// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package rest serves registered procedures over HTTP.
package rest

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/z5labs/relay/noop"
	"github.com/z5labs/relay/otelslog"
	"github.com/z5labs/relay/pipeline"
	"github.com/z5labs/relay/rest/mux"
	"github.com/z5labs/relay/router"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

// Option represents configurable attributes of [App].
type Option func(*App)

// Listener allows you to configure the [net.Listener] for
// the underlying [http.Server] to use for serving requests.
//
// If this option is not supplied, then [net.Listen] will be
// used to create a [net.Listener] for "tcp" and address ":80".
func Listener(ls net.Listener) Option {
	return func(a *App) {
		a.ls = ls
	}
}

// Mux
type Mux interface {
	http.Handler

	Handle(method mux.Method, pattern string, h http.Handler)
}

// WithMux
func WithMux(m Mux) Option {
	return func(a *App) {
		a.mux = m
	}
}

// LogHandler configures the slog.Handler used by the App
// and by the underlying pipeline executor.
func LogHandler(h slog.Handler) Option {
	return func(a *App) {
		a.logHandler = h
	}
}

// App serves every route of a procedure router over HTTP. Each
// request is translated into a raw input bundle and run through
// the pipeline executor; the run result is translated back into
// a HTTP response.
type App struct {
	ls net.Listener

	router *router.Router
	mux    Mux

	logHandler slog.Handler
	log        *slog.Logger

	listen func(network, addr string) (net.Listener, error)
}

// NewApp initializes a [App] serving the given router.
func NewApp(r *router.Router, opts ...Option) *App {
	app := &App{
		router:     r,
		mux:        mux.NewHttp(),
		logHandler: noop.LogHandler{},
		listen:     net.Listen,
	}
	for _, opt := range opts {
		opt(app)
	}
	app.log = otelslog.New(app.logHandler)
	return app
}

// Run serves HTTP requests until ctx is cancelled.
func (app *App) Run(ctx context.Context) error {
	ls, err := app.listener()
	if err != nil {
		return err
	}

	app.registerRoutes()

	httpServer := &http.Server{
		Handler: otelhttp.NewHandler(
			app.mux,
			"server",
			otelhttp.WithMessageEvents(otelhttp.ReadEvents, otelhttp.WriteEvents),
		),
	}

	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return httpServer.Serve(ls)
	})
	eg.Go(func() error {
		<-egctx.Done()
		return httpServer.Shutdown(context.Background())
	})

	err = eg.Wait()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (app *App) listener() (net.Listener, error) {
	if app.ls != nil {
		return app.ls, nil
	}
	return app.listen("tcp", ":80")
}

func (app *App) registerRoutes() {
	ex := pipeline.New(app.router, pipeline.LogHandler(app.logHandler))

	for _, p := range app.router.Routes() {
		pattern := p.Pattern()

		// enforce strict matching for top-level path
		// otherwise "/" would match too broadly and http.ServeMux
		// will panic when other paths are registered
		if pattern == "/" {
			pattern = "/{$}"
		}

		app.mux.Handle(
			mux.Method(p.Method()),
			pattern,
			otelhttp.WithRouteTag(p.Pattern(), newHandler(ex, p, app.log)),
		)
	}
}
