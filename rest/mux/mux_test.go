// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package mux

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHttp_ServeHTTP(t *testing.T) {
	t.Run("will serve the registered handler", func(t *testing.T) {
		t.Run("if the method and pattern match", func(t *testing.T) {
			m := NewHttp()
			m.Handle(MethodGet, "/books", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			w := httptest.NewRecorder()
			m.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/books", nil))

			assert.Equal(t, http.StatusOK, w.Result().StatusCode)
		})
	})

	t.Run("will serve the not found handler", func(t *testing.T) {
		t.Run("if no pattern matches", func(t *testing.T) {
			m := NewHttp(NotFoundHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"error": "not_found"}`))
			})))
			m.Handle(MethodGet, "/books", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			w := httptest.NewRecorder()
			m.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/does/not/exist", nil))

			resp := w.Result()
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
			assert.JSONEq(t, `{"error": "not_found"}`, w.Body.String())
		})
	})

	t.Run("will serve the method not allowed handler", func(t *testing.T) {
		t.Run("if the pattern matches but the method does not", func(t *testing.T) {
			m := NewHttp(MethodNotAllowedHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusMethodNotAllowed)
			})))
			m.Handle(MethodGet, "/books", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			w := httptest.NewRecorder()
			m.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/books", nil))

			assert.Equal(t, http.StatusMethodNotAllowed, w.Result().StatusCode)
		})

		t.Run("if multiple methods are registered for the pattern", func(t *testing.T) {
			ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			m := NewHttp(MethodNotAllowedHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusMethodNotAllowed)
			})))
			m.Handle(MethodGet, "/books", ok)
			m.Handle(MethodPost, "/books", ok)

			w := httptest.NewRecorder()
			m.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/books", nil))
			assert.Equal(t, http.StatusMethodNotAllowed, w.Result().StatusCode)

			w = httptest.NewRecorder()
			m.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/books", nil))
			assert.Equal(t, http.StatusOK, w.Result().StatusCode)
		})
	})
}
