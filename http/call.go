// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// CallError is a non success response from a remote procedure. Code
// carries the declared error map key of a classified error, or
// "bad_request"/"internal" for the fixed rejection shapes.
type CallError struct {
	StatusCode int
	Code       string
	Message    string
}

// Error implements the [builtin.error] interface.
func (e CallError) Error() string {
	return fmt.Sprintf("remote procedure failed: %s: %s", e.Code, e.Message)
}

// CallerOption represents configurable attributes of [Caller].
type CallerOption func(*Caller)

// CallerClient configures the underlying http.Client, e.g. one
// built with [NewClient] for retries and circuit breaking.
func CallerClient(c *http.Client) CallerOption {
	return func(caller *Caller) {
		caller.client = c
	}
}

// Caller invokes procedures served by a remote rest application.
type Caller struct {
	baseUrl string
	client  *http.Client
}

// NewCaller initializes a [Caller] for the given base url.
func NewCaller(baseUrl string, opts ...CallerOption) *Caller {
	caller := &Caller{
		baseUrl: strings.TrimSuffix(baseUrl, "/"),
		client:  NewClient(),
	}
	for _, opt := range opts {
		opt(caller)
	}
	return caller
}

// Call invokes the remote procedure registered for method and path.
// A non nil in is sent as the JSON request body. A 2xx response body
// is decoded into out, if out is non nil. Any other response is
// decoded into a [CallError].
func (c *Caller) Call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseUrl+"/"+strings.TrimPrefix(path, "/"), body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)
	}

	cerr := CallError{
		StatusCode: resp.StatusCode,
		Code:       "internal",
		Message:    "internal error",
	}

	var wire struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wire); err == nil && wire.Error != "" {
		cerr.Code = wire.Error
		cerr.Message = wire.Message
	}
	return cerr
}
