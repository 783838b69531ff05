// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package router provides an ordered collection of registered procedures.
package router

import (
	"strings"

	"github.com/z5labs/relay/procedure"
)

// Router owns an ordered list of registered procedures plus the
// router level middleware applied before any procedure level
// middleware. Routers are mutated during setup only; after setup
// they are read only and safe to share across units of work.
type Router struct {
	procedures []*procedure.Procedure
	middleware []procedure.Middleware
}

// New returns an empty Router.
func New() *Router {
	return &Router{}
}

// GroupEntry pairs a pattern prefix with the router to merge under it.
type GroupEntry struct {
	Prefix string
	Router *Router
}

// Group builds a Router by merging each entry's router under its
// prefix, in entry order. It is equivalent to calling [Router.Merge]
// once per entry. The order is explicit because merge order decides
// both middleware execution order and duplicate pattern resolution.
func Group(entries ...GroupEntry) *Router {
	r := New()
	for _, entry := range entries {
		r.Merge(entry.Prefix, entry.Router)
	}
	return r
}

// Register appends the given procedure. Registration order decides
// middleware execution order and duplicate pattern resolution.
func (r *Router) Register(p *procedure.Procedure) {
	r.procedures = append(r.procedures, p)
}

// Use appends router level middleware. It executes, in registration
// order, before any procedure level middleware.
func (r *Router) Use(mw ...procedure.Middleware) {
	r.middleware = append(r.middleware, mw...)
}

// Middleware returns the router level middleware in registration
// order. The returned slice must not be modified.
func (r *Router) Middleware() []procedure.Middleware {
	return r.middleware
}

// Merge appends copies of other's procedures, re-homed under the
// given prefix, followed by other's middleware. Handlers, validators
// and middleware are shared by reference; other and its procedures
// are unaffected.
func (r *Router) Merge(prefix string, other *Router) {
	for _, p := range other.procedures {
		r.procedures = append(r.procedures, p.WithPattern(joinPattern(prefix, p.Pattern())))
	}
	r.middleware = append(r.middleware, other.middleware...)
}

// Lookup returns the procedure registered for the given method and
// pattern. When the same method and pattern was registered more than
// once, the last registration wins. This policy is deliberate and
// covered by tests; it is not an artifact of the lookup structure.
func (r *Router) Lookup(method, pattern string) (*procedure.Procedure, bool) {
	for i := len(r.procedures) - 1; i >= 0; i-- {
		p := r.procedures[i]
		if p.Method() == method && p.Pattern() == pattern {
			return p, true
		}
	}
	return nil, false
}

// Routes returns one procedure per registered method and pattern
// pair, in first registration order of the pair. For pairs that were
// registered multiple times the returned procedure is the one
// [Router.Lookup] resolves to, i.e. the last registered.
func (r *Router) Routes() []*procedure.Procedure {
	type routeKey struct {
		method  string
		pattern string
	}

	index := make(map[routeKey]int)
	routes := make([]*procedure.Procedure, 0, len(r.procedures))
	for _, p := range r.procedures {
		key := routeKey{method: p.Method(), pattern: p.Pattern()}
		if i, ok := index[key]; ok {
			routes[i] = p
			continue
		}
		index[key] = len(routes)
		routes = append(routes, p)
	}
	return routes
}

func joinPattern(prefix, pattern string) string {
	if prefix == "" {
		return pattern
	}
	return strings.TrimSuffix(prefix, "/") + "/" + strings.TrimPrefix(pattern, "/")
}
